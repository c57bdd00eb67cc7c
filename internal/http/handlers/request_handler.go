// Request HTTP handlers.
//
// This file exposes REST endpoints for tracked integration requests:
//   - POST /requests          (submit to the external system)
//   - GET  /requests/inquiry  (poll external status, reconcile locally)
//   - GET  /requests          (list local records, paginated, ETag support)
//   - GET  /requests/{id}     (fetch one local record)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-integration-backend/internal/domain"
	"github.com/tbourn/go-integration-backend/internal/repo"
	"github.com/tbourn/go-integration-backend/internal/result"
	"github.com/tbourn/go-integration-backend/internal/services"
	"github.com/tbourn/go-integration-backend/internal/utils"
)

//
// Service contract (context-aware)
//

// RequestService defines the submission and inquiry operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RequestService interface {
	// Submit forwards a new request to the external system and tracks it.
	Submit(ctx context.Context, cmd services.SubmitRequestCommand) result.Result[services.SubmitRequestResponse]
	// Inquire queries the external system and reconciles the local record.
	Inquire(ctx context.Context, q services.InquireRequestQuery) result.Result[services.InquireRequestResponse]
	// GetByRequestID fetches the local tracking record for a request id.
	GetByRequestID(ctx context.Context, requestID string) (*domain.Request, error)
	// ListPage returns a page of local records and the total count.
	ListPage(ctx context.Context, status string, page, pageSize int) ([]domain.Request, int64, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for tracked requests. It depends on an
// abstract service interface to keep transport concerns separate from
// business logic.
type Handlers struct {
	reqSvc RequestService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(reqSvc RequestService) *Handlers {
	return &Handlers{reqSvc: reqSvc}
}

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRequestsResponse wraps a page of local records and pagination
// information.
type ListRequestsResponse struct {
	Requests   []domain.Request `json:"requests"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// SubmitRequest godoc
// @ID          submitRequest
// @Summary     Submit a request to the external system
// @Description Creates a local tracking record, forwards the request to the external integration endpoint, and returns the tracked submission.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false "UUID deduplicating retried submissions"  example(123e4567-e89b-12d3-a456-426614174000)
// @Param       body             body    services.SubmitRequestCommand  true  "Submission payload"
//
// @Success     201  {object}  services.SubmitRequestResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     502  {object}  handlers.ErrorResponse  "External system rejected or unreachable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var cmd services.SubmitRequestCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cmd.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	res := h.reqSvc.Submit(c.Request.Context(), cmd)
	if res.IsFailure() {
		failKind(c, res.Kind(), res.Error())
		return
	}
	ok(c, http.StatusCreated, res.Value())
}

// InquireRequest godoc
// @ID          inquireRequest
// @Summary     Inquire request status
// @Description Queries the external system for the current status of a request. At least one of request_id and external_request_id is required; the external id wins when both are given. The local record is reconciled opportunistically when the external status is terminal.
// @Tags        Requests
// @Produce     json
//
// @Param       request_id           query  string  false "Local tracking id"    example(REQ-20260830-5f3a40c1b2d34e8f9a7b6c5d4e3f2a1b)
// @Param       external_request_id  query  string  false "External system id"   example(EXT-000123)
//
// @Success     200  {object}  services.InquireRequestResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown to the external system"
// @Failure     502  {object}  handlers.ErrorResponse  "External system unreachable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/inquiry [get]
func (h *Handlers) InquireRequest(c *gin.Context) {
	q := services.InquireRequestQuery{
		RequestID:         strings.TrimSpace(c.Query("request_id")),
		ExternalRequestID: strings.TrimSpace(c.Query("external_request_id")),
	}

	res := h.reqSvc.Inquire(c.Request.Context(), q)
	if res.IsFailure() {
		failKind(c, res.Kind(), res.Error())
		return
	}
	ok(c, http.StatusOK, res.Value())
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Get a local tracking record
// @Description Returns the locally stored record for a tracking id. This is the service's own view and may lag the external system; use the inquiry endpoint for the authoritative status.
// @Tags        Requests
// @Produce     json
//
// @Param       id  path  string  true  "Local tracking id"  example(REQ-20260830-5f3a40c1b2d34e8f9a7b6c5d4e3f2a1b)
//
// @Success     200  {object}  domain.Request
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown tracking id"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	r, err := h.reqSvc.GetByRequestID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRequestNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, r)
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List local tracking records (paginated)
// @Description Returns a page of locally tracked requests, optionally filtered by status. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Requests
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       status         query   string  false "Status filter"               Enums(Pending, Submitted, Processing, Completed, Failed, Retrying, Cancelled)
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRequestsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)
	status := strings.TrimSpace(c.Query("status"))

	var filter domain.Status
	if status != "" {
		parsed, okStatus := domain.ParseStatus(status)
		if !okStatus {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
			return
		}
		filter = parsed
	}

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okSvc := h.reqSvc.(*services.RequestService); okSvc {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.RequestsStats(ctx, db, filter)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"requests:%s:%d:%d"`, status, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.reqSvc.ListPage(ctx, status, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := ListRequestsResponse{
		Requests: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}
