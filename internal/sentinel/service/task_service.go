package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// ErrValidation marks task input that was rejected before any
// persistence. Wrapped errors carry the operator-facing message.
var ErrValidation = errors.New("invalid task input")

// TaskService manages the task lifecycle: create, revoke, complete,
// and role-scoped listing. The only transition graph is
// active -> completed and active -> revoked; both targets are terminal.
type TaskService struct {
	users store.UserStore
	gates store.GateStore
	tasks store.TaskStore
	now   Clock
}

func NewTaskService(users store.UserStore, gates store.GateStore, tasks store.TaskStore, clock Clock) *TaskService {
	if clock == nil {
		clock = UTCClock()
	}
	return &TaskService{users: users, gates: gates, tasks: tasks, now: clock}
}

type CreateTaskInput struct {
	Title     string
	VendorIDs []int64
	PICID     int64
	StartTime time.Time
	EndTime   time.Time
	GateIDs   []int64
}

// Create validates every reference before touching the store, then
// persists the task, its membership sets, and the task_created audit
// entry as one atomic unit. Any validation failure returns a wrapped
// ErrValidation and persists nothing.
func (s *TaskService) Create(ctx context.Context, in CreateTaskInput, creator store.UserRecord, sourceIP string) (store.TaskRecord, error) {
	if len(in.VendorIDs) == 0 {
		return store.TaskRecord{}, fmt.Errorf("%w: at least one vendor must be specified", ErrValidation)
	}

	vendors, err := s.users.GetUsersByIDs(ctx, in.VendorIDs)
	if err != nil {
		return store.TaskRecord{}, err
	}
	if len(vendors) != len(in.VendorIDs) {
		return store.TaskRecord{}, fmt.Errorf("%w: one or more invalid vendors specified", ErrValidation)
	}
	for _, u := range vendors {
		if !u.Role.IsVendor() {
			return store.TaskRecord{}, fmt.Errorf("%w: one or more invalid vendors specified", ErrValidation)
		}
	}

	pic, err := s.users.GetUser(ctx, in.PICID)
	if errors.Is(err, store.ErrNotFound) {
		return store.TaskRecord{}, fmt.Errorf("%w: invalid PIC specified", ErrValidation)
	}
	if err != nil {
		return store.TaskRecord{}, err
	}
	if !pic.Role.EscortEligible() {
		return store.TaskRecord{}, fmt.Errorf("%w: invalid PIC specified", ErrValidation)
	}

	if !in.EndTime.After(in.StartTime) {
		return store.TaskRecord{}, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	if len(in.GateIDs) == 0 {
		return store.TaskRecord{}, fmt.Errorf("%w: at least one gate must be specified", ErrValidation)
	}
	gates, err := s.gates.GetGatesByIDs(ctx, in.GateIDs)
	if err != nil {
		return store.TaskRecord{}, err
	}
	if len(gates) != len(in.GateIDs) {
		return store.TaskRecord{}, fmt.Errorf("%w: one or more invalid gates specified", ErrValidation)
	}
	for _, g := range gates {
		if !g.Active {
			return store.TaskRecord{}, fmt.Errorf("%w: one or more invalid gates specified", ErrValidation)
		}
	}

	actorID := creator.ID
	audit := store.AuditRecord{
		Action:     types.ActionTaskCreated,
		EntityType: types.EntityTask,
		ActorID:    &actorID,
		Details: map[string]any{
			"vendor_ids": in.VendorIDs,
			"pic_id":     in.PICID,
			"start_time": in.StartTime.UTC().Format(time.RFC3339),
			"end_time":   in.EndTime.UTC().Format(time.RFC3339),
		},
		SourceIP:  sourceIP,
		Success:   true,
		CreatedAt: s.now(),
	}

	return s.tasks.CreateTask(ctx, store.NewTask{
		Title:     in.Title,
		PICID:     in.PICID,
		VendorIDs: in.VendorIDs,
		GateIDs:   in.GateIDs,
		StartTime: in.StartTime.UTC(),
		EndTime:   in.EndTime.UTC(),
		CreatedBy: creator.ID,
	}, audit)
}

// Revoke transitions an active task to revoked and writes the
// task_revoked audit entry in the same transaction. A task in a
// terminal state yields an error with no state change and no audit
// entry.
func (s *TaskService) Revoke(ctx context.Context, taskID int64, actor store.UserRecord, reason, sourceIP string) error {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	actorID := actor.ID
	audit := &store.AuditRecord{
		Action:     types.ActionTaskRevoked,
		EntityType: types.EntityTask,
		ActorID:    &actorID,
		Details: map[string]any{
			"vendor_ids": task.VendorIDs,
			"pic_id":     task.PICID,
		},
		SourceIP:  sourceIP,
		Success:   true,
		Reason:    reason,
		CreatedAt: s.now(),
	}

	return s.tasks.SetStatus(ctx, taskID, types.TaskRevoked, audit)
}

// Complete transitions an active task to completed. Completion is not
// an audited action family; a terminal task yields an error with no
// side effects.
func (s *TaskService) Complete(ctx context.Context, taskID int64, actor store.UserRecord) error {
	return s.tasks.SetStatus(ctx, taskID, types.TaskCompleted, nil)
}

// ListFor returns tasks visible to the actor: vendors see only tasks
// whose vendor-set contains them, escort-eligible roles see everything.
func (s *TaskService) ListFor(ctx context.Context, actor store.UserRecord, f store.TaskFilter) ([]store.TaskRecord, error) {
	if actor.Role.IsVendor() {
		f.VendorID = actor.ID
	}
	return s.tasks.ListTasks(ctx, f)
}
