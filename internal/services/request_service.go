// Package services – RequestService
//
// This file implements the RequestService, which owns the lifecycle of
// tracked integration requests: it creates and persists a local record,
// forwards the submission to the external system, and reconciles local
// state opportunistically when a caller inquires about a request.
//
// Both flows return a result.Result rather than raising: callers branch on
// the outcome, and unexpected internal faults are caught at the method
// boundary and converted to an internal-error failure.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-integration-backend/internal/domain"
	"github.com/tbourn/go-integration-backend/internal/integration"
	"github.com/tbourn/go-integration-backend/internal/repo"
	"github.com/tbourn/go-integration-backend/internal/result"
)

// IntegrationClient is the gateway to the external system of record.
// Implementations perform exactly one outbound call per invocation and tag
// failures with a result.Kind.
type IntegrationClient interface {
	// AddRequest submits a new request to the external add endpoint.
	AddRequest(ctx context.Context, requestID, requestType, requestData string, metadata map[string]string) result.Result[integration.AddResult]
	// InquireRequest polls the external system for the state of a request.
	InquireRequest(ctx context.Context, lookupID string) result.Result[integration.InquiryResult]
}

// RequestRepo defines the store contract required by RequestService.
type RequestRepo interface {
	// Create inserts a new tracking row.
	Create(ctx context.Context, db *gorm.DB, r *domain.Request) error
	// Save persists the current state of a tracked request.
	Save(ctx context.Context, db *gorm.DB, r *domain.Request) error
	// GetByRequestID fetches a request by its generated tracking id.
	GetByRequestID(ctx context.Context, db *gorm.DB, requestID string) (*domain.Request, error)
	// Count returns the number of rows matching the optional status filter.
	Count(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error)
	// ListPage returns a page of rows matching the optional status filter.
	ListPage(ctx context.Context, db *gorm.DB, status domain.Status, offset, limit int) ([]domain.Request, error)
	// GetIdempotency returns the non-expired record for key, if any.
	GetIdempotency(ctx context.Context, db *gorm.DB, key string, now time.Time) (*domain.Idempotency, error)
	// CreateIdempotency records key -> requestID for the given TTL.
	CreateIdempotency(ctx context.Context, db *gorm.DB, key, requestID string, ttl time.Duration) (*domain.Idempotency, error)
}

// RequestService orchestrates submission and inquiry against the local
// tracking store and the external integration.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the tracking-store repository.
	Repo RequestRepo
	// Client is the external integration gateway.
	Client IntegrationClient

	// IdempotencyTTL bounds how long a submission key is honored.
	IdempotencyTTL time.Duration
}

// NewRequestService constructs a RequestService with a default idempotency
// window.
func NewRequestService(db *gorm.DB, r RequestRepo, c IntegrationClient) *RequestService {
	return &RequestService{
		DB:             db,
		Repo:           r,
		Client:         c,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Submit creates a local tracking record, forwards the request to the
// external system, and persists the terminal outcome of that attempt.
//
// Ordering is deliberate: the Pending row is committed before the outbound
// call so that failed submissions remain visible locally. On submission
// failure the record is marked Failed (not rolled back) and the failure is
// returned with the client's message; on success the record is marked
// Submitted with the external id.
func (s *RequestService) Submit(ctx context.Context, cmd SubmitRequestCommand) (res result.Result[SubmitRequestResponse]) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("error processing submit command")
			res = result.Failuref[SubmitRequestResponse](result.KindInternal, "Internal error: %v", rec)
		}
	}()

	if err := cmd.Validate(); err != nil {
		return result.Failure[SubmitRequestResponse](result.KindValidation, err.Error())
	}

	log.Info().Str("request_type", cmd.RequestType).Msg("processing submit command")

	// Replay: a previously honored key returns the original request's
	// current state without touching the external system again.
	if cmd.IdempotencyKey != "" {
		if rec, err := s.Repo.GetIdempotency(ctx, s.DB, cmd.IdempotencyKey, time.Now().UTC()); err == nil {
			if prior, err := s.Repo.GetByRequestID(ctx, s.DB, rec.RequestID); err == nil {
				log.Info().
					Str("request_id", prior.RequestID).
					Str("idempotency_key", cmd.IdempotencyKey).
					Msg("replaying previously submitted request")
				return result.Success(submitResponseFrom(prior))
			}
		}
	}

	requestID := generateRequestID()
	entity := domain.NewRequest(requestID, cmd.RequestType, cmd.RequestData)

	if err := s.Repo.Create(ctx, s.DB, entity); err != nil {
		log.Error().Err(err).Msg("failed to persist tracking record")
		return result.Failuref[SubmitRequestResponse](result.KindInternal, "Internal error: %v", err)
	}

	sub := s.Client.AddRequest(ctx, requestID, cmd.RequestType, cmd.RequestData, cmd.Metadata)
	if sub.IsFailure() {
		log.Error().Str("error", sub.Error()).Msg("failed to submit request to external system")
		if err := entity.MarkFailed(sub.Error()); err == nil {
			if err := s.Repo.Save(ctx, s.DB, entity); err != nil {
				log.Error().Err(err).Str("request_id", requestID).Msg("failed to persist failure status")
			}
		}
		return result.Failure[SubmitRequestResponse](sub.Kind(), sub.Error())
	}

	if err := entity.MarkSubmitted(sub.Value().ExternalRequestID); err != nil {
		// Unreachable from Pending; treated as an internal fault.
		return result.Failuref[SubmitRequestResponse](result.KindInternal, "Internal error: %v", err)
	}
	if err := s.Repo.Save(ctx, s.DB, entity); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to persist submitted status")
		return result.Failuref[SubmitRequestResponse](result.KindInternal, "Internal error: %v", err)
	}

	if cmd.IdempotencyKey != "" {
		if _, err := s.Repo.CreateIdempotency(ctx, s.DB, cmd.IdempotencyKey, requestID, s.IdempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			// Best effort: a lost key only costs dedup, not correctness.
			log.Warn().Err(err).Str("request_id", requestID).Msg("failed to record idempotency key")
		}
	}

	log.Info().
		Str("request_id", requestID).
		Str("external_request_id", entity.ExternalRequestID).
		Msg("request submitted")

	return result.Success(submitResponseFrom(entity))
}

// Inquire resolves the lookup id, queries the external system, and
// opportunistically reconciles the local record when the caller supplied an
// internal request id. The returned data is the external system's answer
// verbatim; the local copy never overrides the system of record.
func (s *RequestService) Inquire(ctx context.Context, q InquireRequestQuery) (res result.Result[InquireRequestResponse]) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Error().Interface("panic", rec).Msg("error processing inquiry")
			res = result.Failuref[InquireRequestResponse](result.KindInternal, "Internal error: %v", rec)
		}
	}()

	if err := q.Validate(); err != nil {
		return result.Failure[InquireRequestResponse](result.KindValidation, err.Error())
	}

	log.Info().
		Str("request_id", q.RequestID).
		Str("external_request_id", q.ExternalRequestID).
		Msg("processing inquiry")

	inq := s.Client.InquireRequest(ctx, q.LookupID())
	if inq.IsFailure() {
		log.Error().Str("error", inq.Error()).Msg("failed to inquire request from external system")
		return result.Failure[InquireRequestResponse](inq.Kind(), inq.Error())
	}
	ext := inq.Value()

	// Best-effort local reconciliation; a missing local row is not an error.
	if q.RequestID != "" {
		s.reconcile(ctx, q.RequestID, ext)
	}

	return result.Success(InquireRequestResponse{
		RequestID:         ext.RequestID,
		ExternalRequestID: ext.ExternalRequestID,
		Status:            ext.Status,
		SubmittedAt:       ext.SubmittedAt,
		CompletedAt:       ext.CompletedAt,
		ResponseData:      ext.ResponseData,
		ErrorMessage:      ext.ErrorMessage,
		AdditionalInfo:    ext.AdditionalInfo,
	})
}

// reconcile narrows the local record to an externally reported terminal
// status. Only Completed and Failed are copied locally; transitional
// external states (e.g. Processing) leave the record untouched, and
// transitions the entity guard rejects (terminal vs. opposite terminal) are
// logged and skipped.
func (s *RequestService) reconcile(ctx context.Context, requestID string, ext integration.InquiryResult) {
	local, err := s.Repo.GetByRequestID(ctx, s.DB, requestID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			log.Warn().Err(err).Str("request_id", requestID).Msg("local lookup failed during reconciliation")
		}
		return
	}

	var terr error
	switch {
	case ext.Status == string(domain.StatusCompleted) && local.Status != domain.StatusCompleted:
		terr = local.MarkCompleted(ext.ResponseData)
	case ext.Status == string(domain.StatusFailed) && local.Status != domain.StatusFailed:
		terr = local.MarkFailed(ext.ErrorMessage)
	default:
		return
	}

	if terr != nil {
		log.Warn().
			Str("request_id", requestID).
			Str("local_status", string(local.Status)).
			Str("external_status", ext.Status).
			Msg("skipping conflicting reconciliation")
		return
	}
	if err := s.Repo.Save(ctx, s.DB, local); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to persist reconciled status")
	}
}

// GetByRequestID returns the local tracking record for a request id.
func (s *RequestService) GetByRequestID(ctx context.Context, requestID string) (*domain.Request, error) {
	r, err := s.Repo.GetByRequestID(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return r, nil
}

// ListPage returns a page of tracked requests, optionally filtered by
// status, plus the total count for pagination.
func (s *RequestService) ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.Request, int64, error) {
	var filter domain.Status
	if status != "" {
		parsed, ok := domain.ParseStatus(status)
		if !ok {
			return nil, 0, ErrInvalidStatus
		}
		filter = parsed
	}

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.Count(ctx, s.DB, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Request{}, 0, nil
	}

	items, err := s.Repo.ListPage(ctx, s.DB, filter, offset, pageSize)
	return items, total, err
}

// submitResponseFrom builds the submission response DTO from an entity.
func submitResponseFrom(r *domain.Request) SubmitRequestResponse {
	return SubmitRequestResponse{
		RequestID:         r.RequestID,
		ExternalRequestID: r.ExternalRequestID,
		Status:            string(r.Status),
		SubmittedAt:       r.SubmittedAt,
	}
}

// generateRequestID produces a collision-resistant tracking identifier,
// e.g. REQ-20260830-5f3a....
func generateRequestID() string {
	return fmt.Sprintf("REQ-%s-%s",
		time.Now().UTC().Format("20060102"),
		strings.ReplaceAll(uuid.NewString(), "-", ""))
}
