// Package domain defines the persistence model for tracked integration
// requests. This file holds the idempotency record used to deduplicate
// submissions.
package domain

import "time"

// Idempotency maps a client-supplied Idempotency-Key to the request created
// for it. Replayed submissions with the same key return the recorded
// request's current state instead of creating and submitting a second one.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_idem_key"`
	RequestID string    `gorm:"type:TEXT NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
