package service

import (
	"context"
	"strings"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// HeartbeatService ingests door controller heartbeats and answers gate
// descriptor queries from bridges.
type HeartbeatService struct {
	gates store.GateStore
	tasks store.TaskStore
	now   Clock
}

func NewHeartbeatService(gates store.GateStore, tasks store.TaskStore, clock Clock) *HeartbeatService {
	if clock == nil {
		clock = UTCClock()
	}
	return &HeartbeatService{gates: gates, tasks: tasks, now: clock}
}

// Record upserts the heartbeat for the gate bound to doorID and marks
// it integrated. Last write wins; an unknown door id surfaces
// store.ErrNotFound.
func (s *HeartbeatService) Record(ctx context.Context, doorID string) (store.GateRecord, error) {
	doorID = strings.TrimSpace(doorID)
	if doorID == "" {
		return store.GateRecord{}, store.ErrNotFound
	}
	return s.gates.RecordHeartbeat(ctx, doorID, s.now())
}

// GateInfo returns the gate bound to doorID plus the count of active,
// in-window tasks that allow it.
func (s *HeartbeatService) GateInfo(ctx context.Context, doorID string) (types.GateInfo, error) {
	gate, err := s.gates.GetGateByDoorID(ctx, strings.TrimSpace(doorID))
	if err != nil {
		return types.GateInfo{}, err
	}

	count, err := s.tasks.CountActiveForGate(ctx, gate.ID, s.now())
	if err != nil {
		return types.GateInfo{}, err
	}

	return types.GateInfo{
		ID:               gate.ID,
		Name:             gate.Name,
		GateID:           gate.Code,
		DoorID:           gate.DoorID,
		DoorIPAddress:    gate.DoorIPAddress,
		IsActive:         gate.Active,
		Integration:      gate.Integration,
		ActiveTasksCount: count,
	}, nil
}
