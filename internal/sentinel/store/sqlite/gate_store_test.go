package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store/sqlite"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

func TestGateLookups(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	gates := sqlite.NewGateStore(conn, w)
	ctx := context.Background()

	a := insertGate(t, conn, "GATE-A", "door-a", true)
	b := insertGate(t, conn, "GATE-B", "", false)

	got, err := gates.GetGateByCode(ctx, "GATE-A")
	if err != nil {
		t.Fatalf("GetGateByCode: %v", err)
	}
	if got.ID != a || !got.Active || got.DoorID != "door-a" {
		t.Errorf("unexpected gate: %+v", got)
	}
	if got.Integration != types.IntegrationNone {
		t.Errorf("expected not_integrated before any heartbeat, got %q", got.Integration)
	}

	if _, err := gates.GetGateByCode(ctx, "GATE-Z"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err = gates.GetGateByDoorID(ctx, "door-a")
	if err != nil {
		t.Fatalf("GetGateByDoorID: %v", err)
	}
	if got.Code != "GATE-A" {
		t.Errorf("expected GATE-A, got %q", got.Code)
	}

	recs, err := gates.GetGatesByIDs(ctx, []int64{a, b, 9999})
	if err != nil {
		t.Fatalf("GetGatesByIDs: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("expected 2 gates (missing id dropped), got %d", len(recs))
	}
}

func TestRecordHeartbeat(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	gates := sqlite.NewGateStore(conn, w)
	ctx := context.Background()

	insertGate(t, conn, "GATE-A", "door-a", true)

	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	rec, err := gates.RecordHeartbeat(ctx, "door-a", at)
	if err != nil {
		t.Fatalf("RecordHeartbeat: %v", err)
	}
	if rec.Integration != types.IntegrationActive {
		t.Errorf("expected integrated after heartbeat, got %q", rec.Integration)
	}
	if rec.LastHeartbeatAt == nil || !rec.LastHeartbeatAt.Equal(at) {
		t.Errorf("expected last heartbeat at %v, got %v", at, rec.LastHeartbeatAt)
	}

	if !rec.IsOnline(at.Add(4 * time.Minute)) {
		t.Error("expected gate online 4 minutes after heartbeat")
	}
	if rec.IsOnline(at.Add(5 * time.Minute)) {
		t.Error("expected gate offline exactly 5 minutes after heartbeat")
	}

	// Last write wins.
	later := at.Add(2 * time.Minute)
	rec, err = gates.RecordHeartbeat(ctx, "door-a", later)
	if err != nil {
		t.Fatalf("RecordHeartbeat second: %v", err)
	}
	if !rec.LastHeartbeatAt.Equal(later) {
		t.Errorf("expected heartbeat advanced to %v, got %v", later, rec.LastHeartbeatAt)
	}

	if _, err := gates.RecordHeartbeat(ctx, "no-such-door", at); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown door, got %v", err)
	}
}
