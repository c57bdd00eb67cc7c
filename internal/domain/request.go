// Package domain defines the persistence model for tracked integration
// requests. The Request type is mapped with GORM and forms the core data
// layer of the application: one row per submission forwarded to the external
// integration, carrying the local view of its lifecycle.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the finite lifecycle state of a Request, stored as text.
type Status string

const (
	// StatusPending marks a request that has been recorded locally but not
	// yet accepted by the external system.
	StatusPending Status = "Pending"
	// StatusSubmitted marks a request accepted by the external system.
	StatusSubmitted Status = "Submitted"
	// StatusProcessing is reported by the external system while it works on
	// a request. It is never written locally; tracking keeps a subset of
	// the external status set.
	StatusProcessing Status = "Processing"
	// StatusCompleted is terminal: the external system finished the request.
	StatusCompleted Status = "Completed"
	// StatusFailed is terminal: submission failed or the external system
	// reported failure.
	StatusFailed Status = "Failed"
	// StatusRetrying is the transient marker set when a failed request is
	// picked up for another attempt.
	StatusRetrying Status = "Retrying"
	// StatusCancelled marks a request withdrawn before completion.
	StatusCancelled Status = "Cancelled"
)

// IsTerminal reports whether s is a terminal state.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ParseStatus maps a status string to its Status value, or reports that the
// value is not part of the lifecycle set.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusSubmitted, StatusProcessing,
		StatusCompleted, StatusFailed, StatusRetrying, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// InvalidTransitionError reports a rejected status transition. The entity is
// left untouched when a transition is rejected.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// Request represents a request submitted to the external integration.
//
// RequestID is the internally generated identifier, assigned once at
// creation. ExternalRequestID is assigned when (and only when) the external
// system accepts the submission. RequestType and RequestData are immutable
// inputs; the remaining fields track the lifecycle.
type Request struct {
	ID                string     `json:"id"                  gorm:"type:char(36);primaryKey"`
	RequestID         string     `json:"request_id"          gorm:"type:varchar(100);not null;uniqueIndex"`
	ExternalRequestID string     `json:"external_request_id" gorm:"type:varchar(100);index"`
	RequestType       string     `json:"request_type"        gorm:"type:varchar(50);not null"`
	RequestData       string     `json:"request_data"        gorm:"type:text;not null"`
	Status            Status     `json:"status"              gorm:"type:varchar(20);not null;index"`
	SubmittedAt       time.Time  `json:"submitted_at"        gorm:"index"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	ResponseData      string     `json:"response_data,omitempty"  gorm:"type:text"`
	ErrorMessage      string     `json:"error_message,omitempty"  gorm:"type:varchar(2000)"`
	RetryCount        int        `json:"retry_count"         gorm:"not null;default:0"`
	LastRetryAt       *time.Time `json:"last_retry_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Request.
func (Request) TableName() string { return "requests" }

// NewRequest creates a Pending request with the given identity and immutable
// inputs. Rows rehydrated from storage go through GORM field scanning
// instead; business code never builds a Request by hand.
func NewRequest(requestID, requestType, requestData string) *Request {
	now := time.Now().UTC()
	return &Request{
		ID:          uuid.NewString(),
		RequestID:   requestID,
		RequestType: requestType,
		RequestData: requestData,
		Status:      StatusPending,
		SubmittedAt: now,
		RetryCount:  0,
		CreatedAt:   now,
	}
}

// MarkSubmitted records acceptance by the external system. Legal from
// Pending and Retrying; anywhere else the entity is unchanged and a typed
// error is returned.
func (r *Request) MarkSubmitted(externalRequestID string) error {
	if r.Status != StatusPending && r.Status != StatusRetrying {
		return &InvalidTransitionError{From: r.Status, To: StatusSubmitted}
	}
	r.ExternalRequestID = externalRequestID
	r.Status = StatusSubmitted
	return nil
}

// MarkCompleted records an externally reported completion. Legal from any
// non-terminal, non-cancelled state; CompletedAt is stamped on success.
func (r *Request) MarkCompleted(responseData string) error {
	if r.Status.IsTerminal() || r.Status == StatusCancelled {
		return &InvalidTransitionError{From: r.Status, To: StatusCompleted}
	}
	now := time.Now().UTC()
	r.Status = StatusCompleted
	r.ResponseData = responseData
	r.CompletedAt = &now
	return nil
}

// MarkFailed records a submission error or an externally reported failure.
// Legal from any non-terminal, non-cancelled state.
func (r *Request) MarkFailed(errorMessage string) error {
	if r.Status.IsTerminal() || r.Status == StatusCancelled {
		return &InvalidTransitionError{From: r.Status, To: StatusFailed}
	}
	now := time.Now().UTC()
	r.Status = StatusFailed
	r.ErrorMessage = errorMessage
	r.CompletedAt = &now
	return nil
}

// IncrementRetry moves a failed request into Retrying, bumping the retry
// counter. Nothing in the request path calls this; it exists for a
// separately scheduled retry policy.
func (r *Request) IncrementRetry() error {
	if r.Status != StatusFailed {
		return &InvalidTransitionError{From: r.Status, To: StatusRetrying}
	}
	now := time.Now().UTC()
	r.RetryCount++
	r.LastRetryAt = &now
	r.Status = StatusRetrying
	// A retry attempt reopens the record.
	r.CompletedAt = nil
	return nil
}

// CanRetry reports whether the request is eligible for another attempt under
// the given cap.
func (r *Request) CanRetry(maxRetries int) bool {
	return r.RetryCount < maxRetries && r.Status == StatusFailed
}
