package store

import (
	"context"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// TaskRecord is a task with its vendor-set and allowed-gate-set
// memberships loaded. The task owns the memberships; users and gates
// are referenced by id only.
type TaskRecord struct {
	ID        int64
	Title     string
	PICID     int64
	VendorIDs []int64
	GateIDs   []int64
	StartTime time.Time
	EndTime   time.Time
	Status    types.TaskStatus
	CreatedBy int64
	CreatedAt time.Time
}

// WindowContains reports whether t's time window contains the instant.
// Both bounds are inclusive.
func (t TaskRecord) WindowContains(at time.Time) bool {
	return !at.Before(t.StartTime) && !at.After(t.EndTime)
}

func (t TaskRecord) HasVendor(userID int64) bool {
	for _, id := range t.VendorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (t TaskRecord) AllowsGate(gateID int64) bool {
	for _, id := range t.GateIDs {
		if id == gateID {
			return true
		}
	}
	return false
}

// NewTask is the validated input for task creation. The caller is
// responsible for reference and window validation; the store only
// guarantees atomicity.
type NewTask struct {
	Title     string
	PICID     int64
	VendorIDs []int64
	GateIDs   []int64
	StartTime time.Time
	EndTime   time.Time
	CreatedBy int64
}

type TaskFilter struct {
	Status       types.TaskStatus // zero value = any status
	VendorID     int64            // restrict to tasks whose vendor-set contains this user
	StartedAfter time.Time
	EndedBefore  time.Time
}

type TaskStore interface {
	// CreateTask persists the task, its vendor-set and gate-set
	// memberships, and the given audit entry as a single atomic unit.
	// Either everything commits or nothing does.
	CreateTask(ctx context.Context, nt NewTask, audit AuditRecord) (TaskRecord, error)

	GetTask(ctx context.Context, id int64) (TaskRecord, error)

	// FindActiveForPair returns an active task whose vendor-set contains
	// vendorID and whose PIC is picID. ErrNotFound when no such task
	// exists.
	FindActiveForPair(ctx context.Context, vendorID, picID int64) (TaskRecord, error)

	// SetStatus transitions the task from active to the given terminal
	// status, writing the audit entry (when non-nil) in the same
	// transaction. Returns ErrTaskNotActive if the task exists but is
	// not active, ErrNotFound if it does not exist. On error nothing is
	// written.
	SetStatus(ctx context.Context, id int64, to types.TaskStatus, audit *AuditRecord) error

	// ListTasks returns tasks matching the filter, newest first.
	ListTasks(ctx context.Context, f TaskFilter) ([]TaskRecord, error)

	// CountActiveForGate counts active tasks whose gate-set contains
	// gateID and whose window contains now.
	CountActiveForGate(ctx context.Context, gateID int64, now time.Time) (int, error)
}
