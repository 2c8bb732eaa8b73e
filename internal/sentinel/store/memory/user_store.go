// Package memory provides in-memory store implementations for tests
// and dev environments.
package memory

import (
	"context"
	"sync"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[int64]store.UserRecord
}

func NewUserStore(users ...store.UserRecord) *UserStore {
	m := make(map[int64]store.UserRecord, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &UserStore{users: m}
}

func (s *UserStore) Add(u store.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *UserStore) GetUser(_ context.Context, id int64) (store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return store.UserRecord{}, store.ErrNotFound
	}
	return u, nil
}

func (s *UserStore) GetUsersByIDs(_ context.Context, ids []int64) ([]store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.UserRecord
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
