// Package services implements the submission and inquiry flows for tracked
// integration requests. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrRequestNotFound indicates that no tracked request matches the
	// given identifier.
	ErrRequestNotFound = errors.New("request not found")

	// ErrInvalidStatus is returned when a status filter is not part of the
	// request lifecycle set.
	ErrInvalidStatus = errors.New("invalid status filter")
)
