package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// ErrBadEventType is returned for event kinds outside the
// entry/exit/denied vocabulary.
var ErrBadEventType = errors.New("unknown door event type")

// DoorEventService records physical-layer events from gate bridges and
// serves the polling feed dashboards use for "live" log display. Door
// events are logically separate from the audit log; the two correlate
// by session id only.
type DoorEventService struct {
	gates  store.GateStore
	users  store.UserStore
	events store.DoorEventStore
	now    Clock
}

func NewDoorEventService(gates store.GateStore, users store.UserStore, events store.DoorEventStore, clock Clock) *DoorEventService {
	if clock == nil {
		clock = UTCClock()
	}
	return &DoorEventService{gates: gates, users: users, events: events, now: clock}
}

type LogEventInput struct {
	DoorID    string
	EventType types.DoorEventType
	VendorID  *int64
	PICID     *int64
	TaskID    *int64
	SessionID string
	Reason    string
	Details   map[string]any
	ClientIP  string
}

// Record appends one door event for the gate bound to in.DoorID.
// Unknown door ids surface store.ErrNotFound.
func (s *DoorEventService) Record(ctx context.Context, in LogEventInput) (int64, error) {
	if !in.EventType.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrBadEventType, in.EventType)
	}

	gate, err := s.gates.GetGateByDoorID(ctx, strings.TrimSpace(in.DoorID))
	if err != nil {
		return 0, err
	}

	return s.events.RecordEvent(ctx, store.DoorEventRecord{
		GateID:    gate.ID,
		TaskID:    in.TaskID,
		VendorID:  in.VendorID,
		PICID:     in.PICID,
		EventType: in.EventType,
		Reason:    in.Reason,
		SessionID: in.SessionID,
		Details:   in.Details,
		ClientIP:  in.ClientIP,
		CreatedAt: s.now(),
	})
}

// ListForGate assembles one page of the polling feed: events newer than
// since (newest first), the gate's liveness flag, and a server
// timestamp for the caller to use as its next cursor.
func (s *DoorEventService) ListForGate(ctx context.Context, gateCode string, since time.Time, limit int) (types.GateAccessLogs, error) {
	gate, err := s.gates.GetGateByCode(ctx, gateCode)
	if err != nil {
		return types.GateAccessLogs{}, err
	}

	events, err := s.events.ListForGate(ctx, store.DoorEventFilter{
		GateID: gate.ID,
		Since:  since,
		Limit:  limit,
	})
	if err != nil {
		return types.GateAccessLogs{}, err
	}

	now := s.now()
	out := types.GateAccessLogs{
		GateID:      gate.ID,
		DoorID:      gate.DoorID,
		Integration: gate.Integration,
		IsOnline:    gate.IsOnline(now),
		Logs:        make([]types.DoorEventView, 0, len(events)),
		Timestamp:   now.Format(time.RFC3339),
	}

	names := s.resolveNames(ctx, events)
	for _, ev := range events {
		view := types.DoorEventView{
			ID:        ev.ID,
			EventType: ev.EventType,
			Reason:    ev.Reason,
			SessionID: ev.SessionID,
			CreatedAt: ev.CreatedAt.Format(time.RFC3339),
		}
		if ev.VendorID != nil {
			view.Vendor = names[*ev.VendorID]
		}
		if ev.PICID != nil {
			view.PIC = names[*ev.PICID]
		}
		out.Logs = append(out.Logs, view)
	}
	return out, nil
}

// resolveNames batch-resolves display names for the vendor and PIC
// references in events. Unresolvable ids just render without a name.
func (s *DoorEventService) resolveNames(ctx context.Context, events []store.DoorEventRecord) map[int64]string {
	var ids []int64
	seen := make(map[int64]struct{})
	add := func(id *int64) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for _, ev := range events {
		add(ev.VendorID)
		add(ev.PICID)
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil
	}
	names := make(map[int64]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names
}
