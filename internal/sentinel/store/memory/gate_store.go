package memory

import (
	"context"
	"sync"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

type GateStore struct {
	mu    sync.RWMutex
	gates map[int64]store.GateRecord
}

func NewGateStore(gates ...store.GateRecord) *GateStore {
	m := make(map[int64]store.GateRecord, len(gates))
	for _, g := range gates {
		m[g.ID] = g
	}
	return &GateStore{gates: m}
}

func (s *GateStore) Add(g store.GateRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gates[g.ID] = g
}

func (s *GateStore) GetGateByCode(_ context.Context, code string) (store.GateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, g := range s.gates {
		if g.Code == code {
			return g, nil
		}
	}
	return store.GateRecord{}, store.ErrNotFound
}

func (s *GateStore) GetGateByDoorID(_ context.Context, doorID string) (store.GateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doorID == "" {
		return store.GateRecord{}, store.ErrNotFound
	}
	for _, g := range s.gates {
		if g.DoorID == doorID {
			return g, nil
		}
	}
	return store.GateRecord{}, store.ErrNotFound
}

func (s *GateStore) GetGatesByIDs(_ context.Context, ids []int64) ([]store.GateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.GateRecord
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if g, ok := s.gates[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *GateStore) RecordHeartbeat(_ context.Context, doorID string, at time.Time) (store.GateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, g := range s.gates {
		if g.DoorID == doorID && doorID != "" {
			t := at
			g.LastHeartbeatAt = &t
			g.Integration = types.IntegrationActive
			s.gates[id] = g
			return g, nil
		}
	}
	return store.GateRecord{}, store.ErrNotFound
}
