package store

import (
	"context"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// AuditRecord is one immutable audit log entry. Entries are written
// once and never updated or deleted.
type AuditRecord struct {
	ID         int64
	Action     types.AuditAction
	EntityType string
	EntityID   *int64
	ActorID    *int64 // nil for device-originated actions
	Details    map[string]any
	SourceIP   string
	Success    bool
	Reason     string
	CreatedAt  time.Time
}

// AuditFilter selects audit entries. Zero-valued fields are ignored.
type AuditFilter struct {
	Action     types.AuditAction
	EntityType string
	EntityID   *int64
	Success    *bool
	Since      time.Time
	Until      time.Time
	Limit      int
}

type AuditStore interface {
	// Append writes one entry and returns its id.
	Append(ctx context.Context, rec AuditRecord) (int64, error)

	// Query returns entries matching the filter, newest first.
	Query(ctx context.Context, f AuditFilter) ([]AuditRecord, error)
}
