// Package repo implements the local tracking store for integration
// requests, backed by GORM. This file provides repository functions for the
// Request model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a request is not found, lookup functions return
//     gorm.ErrRecordNotFound (also exported here as ErrNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.RequestService) which owns the submission and
// reconciliation flows.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-integration-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRequest inserts a new Request row. The entity is expected to come
// from domain.NewRequest with identity and timestamps already stamped.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	return db.WithContext(ctx).Create(r).Error
}

// SaveRequest persists the current state of an already-tracked request.
// GORM commits the row atomically; callers rely on this as the
// write-then-commit step after entity mutation.
func SaveRequest(ctx context.Context, db *gorm.DB, r *domain.Request) error {
	return db.WithContext(ctx).Save(r).Error
}

// GetRequest fetches a request by its internal primary key. Returns
// ErrNotFound when no row matches.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.Request, error) {
	var r domain.Request
	err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRequestByRequestID fetches a request by its generated tracking id
// (the REQ-... identifier). Returns ErrNotFound when no row matches.
func GetRequestByRequestID(ctx context.Context, db *gorm.DB, requestID string) (*domain.Request, error) {
	var r domain.Request
	err := db.WithContext(ctx).Where("request_id = ?", requestID).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRequestByExternalID fetches a request by the identifier assigned by the
// external system. Returns ErrNotFound when no row matches.
func GetRequestByExternalID(ctx context.Context, db *gorm.DB, externalRequestID string) (*domain.Request, error) {
	var r domain.Request
	err := db.WithContext(ctx).Where("external_request_id = ?", externalRequestID).First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRequests returns all tracked requests, most recent first.
func ListRequests(ctx context.Context, db *gorm.DB) ([]domain.Request, error) {
	var out []domain.Request
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListRequestsByStatus returns all requests in the given status, most recent
// first. Useful for operational sweeps (e.g. stale Pending reconciliation).
func ListRequestsByStatus(ctx context.Context, db *gorm.DB, status domain.Status) ([]domain.Request, error) {
	var out []domain.Request
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountRequests returns the number of tracked requests, optionally filtered
// by status (empty status counts everything).
func CountRequests(ctx context.Context, db *gorm.DB, status domain.Status) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Request{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// ListRequestsPage returns a page of requests ordered by creation time
// descending, optionally filtered by status. The caller computes offset and
// limit (e.g. (page-1)*pageSize) and uses CountRequests for totals.
func ListRequestsPage(ctx context.Context, db *gorm.DB, status domain.Status, offset, limit int) ([]domain.Request, error) {
	q := db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Request
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// DeleteRequest removes a request by internal id. Returns ErrNotFound when
// nothing was deleted.
func DeleteRequest(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Request{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RequestsStats returns aggregate metadata used for conditional responses
// (ETag generation) on the list endpoint: the number of rows matching the
// optional status filter and the greatest UpdatedAt among them (nil when
// there are no rows).
func RequestsStats(ctx context.Context, db *gorm.DB, status domain.Status) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Request{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
