package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// TaskStore keeps tasks and their membership sets in memory. Audit
// entries that must commit with a task write go to the paired
// AuditStore under the same lock, mirroring the transactional coupling
// of the SQLite implementation.
type TaskStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]store.TaskRecord
	audit  *AuditStore
}

func NewTaskStore(audit *AuditStore) *TaskStore {
	return &TaskStore{nextID: 1, tasks: make(map[int64]store.TaskRecord), audit: audit}
}

func (s *TaskStore) CreateTask(_ context.Context, nt store.NewTask, audit store.AuditRecord) (store.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := store.TaskRecord{
		ID:        s.nextID,
		Title:     nt.Title,
		PICID:     nt.PICID,
		VendorIDs: append([]int64(nil), nt.VendorIDs...),
		GateIDs:   append([]int64(nil), nt.GateIDs...),
		StartTime: nt.StartTime,
		EndTime:   nt.EndTime,
		Status:    types.TaskActive,
		CreatedBy: nt.CreatedBy,
		CreatedAt: time.Now().UTC(),
	}
	s.nextID++
	s.tasks[rec.ID] = rec

	audit.EntityID = &rec.ID
	s.audit.mu.Lock()
	s.audit.appendLocked(audit)
	s.audit.mu.Unlock()

	return rec, nil
}

func (s *TaskStore) GetTask(_ context.Context, id int64) (store.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[id]
	if !ok {
		return store.TaskRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *TaskStore) FindActiveForPair(_ context.Context, vendorID, picID int64) (store.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		t := s.tasks[id]
		if t.Status == types.TaskActive && t.PICID == picID && t.HasVendor(vendorID) {
			return t, nil
		}
	}
	return store.TaskRecord{}, store.ErrNotFound
}

func (s *TaskStore) SetStatus(_ context.Context, id int64, to types.TaskStatus, audit *store.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	if rec.Status != types.TaskActive {
		return store.ErrTaskNotActive
	}

	rec.Status = to
	s.tasks[id] = rec

	if audit != nil {
		a := *audit
		a.EntityID = &id
		s.audit.mu.Lock()
		s.audit.appendLocked(a)
		s.audit.mu.Unlock()
	}
	return nil
}

func (s *TaskStore) ListTasks(_ context.Context, f store.TaskFilter) ([]store.TaskRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.TaskRecord
	for _, t := range s.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.VendorID != 0 && !t.HasVendor(f.VendorID) {
			continue
		}
		if !f.StartedAfter.IsZero() && t.StartTime.Before(f.StartedAfter) {
			continue
		}
		if !f.EndedBefore.IsZero() && t.EndTime.After(f.EndedBefore) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *TaskStore) CountActiveForGate(_ context.Context, gateID int64, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tasks {
		if t.Status == types.TaskActive && t.AllowsGate(gateID) && t.WindowContains(now) {
			n++
		}
	}
	return n, nil
}
