// Package services implements the submission and inquiry flows for tracked
// integration requests. This file defines the command/query inputs and
// response DTOs, with validation rules enforced before any I/O happens.
package services

import (
	"time"

	validation "github.com/jellydator/validation"
)

// SubmitRequestCommand carries the caller's input for a new submission.
// IdempotencyKey is optional; when present, a replay with the same key
// returns the originally created request instead of submitting again.
type SubmitRequestCommand struct {
	RequestType    string            `json:"request_type"`
	RequestData    string            `json:"request_data"`
	Metadata       map[string]string `json:"metadata"`
	IdempotencyKey string            `json:"-"`
}

// Validate enforces the submission input rules: request type and data are
// required and bounded, metadata must be present (an empty map is fine).
func (c SubmitRequestCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.RequestType,
			validation.Required.Error("request type is required"),
			validation.Length(1, 50).Error("request type must not exceed 50 characters"),
		),
		validation.Field(&c.RequestData,
			validation.Required.Error("request data is required"),
			validation.Length(1, 10000).Error("request data must not exceed 10000 characters"),
		),
		validation.Field(&c.Metadata,
			validation.NotNil.Error("metadata cannot be null"),
		),
	)
}

// SubmitRequestResponse is the outcome of a successful submission.
type SubmitRequestResponse struct {
	RequestID         string    `json:"request_id"`
	ExternalRequestID string    `json:"external_request_id"`
	Status            string    `json:"status"`
	SubmittedAt       time.Time `json:"submitted_at"`
}

// InquireRequestQuery identifies the request to look up. At least one
// identifier is required; when both are given the external one wins for the
// remote lookup.
type InquireRequestQuery struct {
	RequestID         string `json:"request_id"`
	ExternalRequestID string `json:"external_request_id"`
}

// errEitherIDRequired matches the validation error shape of the field rules.
var errEitherIDRequired = validation.NewError(
	"validation_either_id_required",
	"Either RequestId or ExternalRequestId must be provided",
)

// Validate enforces the inquiry input rules before any remote call.
func (q InquireRequestQuery) Validate() error {
	if q.RequestID == "" && q.ExternalRequestID == "" {
		return errEitherIDRequired
	}
	return validation.ValidateStruct(&q,
		validation.Field(&q.RequestID,
			validation.Length(0, 100).Error("RequestId must not exceed 100 characters"),
		),
		validation.Field(&q.ExternalRequestID,
			validation.Length(0, 100).Error("ExternalRequestId must not exceed 100 characters"),
		),
	)
}

// LookupID resolves which identifier is sent to the external system.
func (q InquireRequestQuery) LookupID() string {
	if q.ExternalRequestID != "" {
		return q.ExternalRequestID
	}
	return q.RequestID
}

// InquireRequestResponse mirrors the external system's answer verbatim; the
// local record never overrides it.
type InquireRequestResponse struct {
	RequestID         string         `json:"request_id"`
	ExternalRequestID string         `json:"external_request_id"`
	Status            string         `json:"status"`
	SubmittedAt       time.Time      `json:"submitted_at"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`
	ResponseData      string         `json:"response_data,omitempty"`
	ErrorMessage      string         `json:"error_message,omitempty"`
	AdditionalInfo    map[string]any `json:"additional_info"`
}
