package store

import (
	"context"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// DoorEventRecord is one physical-layer event reported by a gate
// bridge. Append-only, correlated with audit entries by session id.
type DoorEventRecord struct {
	ID        int64
	GateID    int64
	TaskID    *int64
	VendorID  *int64
	PICID     *int64
	EventType types.DoorEventType
	Reason    string
	SessionID string
	Details   map[string]any
	ClientIP  string
	CreatedAt time.Time
}

type DoorEventFilter struct {
	GateID int64
	Since  time.Time // exclusive lower bound; zero = no bound
	Limit  int
}

type DoorEventStore interface {
	// RecordEvent appends one door event and returns its id.
	RecordEvent(ctx context.Context, rec DoorEventRecord) (int64, error)

	// ListForGate returns events for the gate newer than Since, newest
	// first, at most Limit entries.
	ListForGate(ctx context.Context, f DoorEventFilter) ([]DoorEventRecord, error)
}
