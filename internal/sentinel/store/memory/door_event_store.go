package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
)

// DoorEventStore is an in-memory append-only door event log.
type DoorEventStore struct {
	mu     sync.Mutex
	nextID int64
	events []store.DoorEventRecord
}

func NewDoorEventStore() *DoorEventStore {
	return &DoorEventStore{nextID: 1}
}

func (s *DoorEventStore) RecordEvent(_ context.Context, rec store.DoorEventRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.events = append(s.events, rec)
	return rec.ID, nil
}

func (s *DoorEventStore) ListForGate(_ context.Context, f store.DoorEventFilter) ([]store.DoorEventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	var out []store.DoorEventRecord
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if ev.GateID != f.GateID {
			continue
		}
		if !f.Since.IsZero() && !ev.CreatedAt.After(f.Since) {
			continue
		}
		out = append(out, ev)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Events returns a copy of all recorded events. Test-only helper.
func (s *DoorEventStore) Events() []store.DoorEventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.DoorEventRecord, len(s.events))
	copy(out, s.events)
	return out
}
