package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
)

// AuditStore is an in-memory append-only audit log.
type AuditStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []store.AuditRecord
}

func NewAuditStore() *AuditStore {
	return &AuditStore{nextID: 1}
}

func (s *AuditStore) Append(_ context.Context, rec store.AuditRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(rec), nil
}

func (s *AuditStore) appendLocked(rec store.AuditRecord) int64 {
	rec.ID = s.nextID
	s.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	s.entries = append(s.entries, rec)
	return rec.ID
}

func (s *AuditStore) Query(_ context.Context, f store.AuditFilter) ([]store.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []store.AuditRecord
	for i := len(s.entries) - 1; i >= 0; i-- {
		rec := s.entries[i]
		if f.Action != "" && rec.Action != f.Action {
			continue
		}
		if f.EntityType != "" && rec.EntityType != f.EntityType {
			continue
		}
		if f.EntityID != nil && (rec.EntityID == nil || *rec.EntityID != *f.EntityID) {
			continue
		}
		if f.Success != nil && rec.Success != *f.Success {
			continue
		}
		if !f.Since.IsZero() && !rec.CreatedAt.After(f.Since) {
			continue
		}
		if !f.Until.IsZero() && rec.CreatedAt.After(f.Until) {
			continue
		}
		out = append(out, rec)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// Entries returns a copy of all recorded entries. Test-only helper.
func (s *AuditStore) Entries() []store.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditRecord, len(s.entries))
	copy(out, s.entries)
	return out
}
