package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store/sqlite"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

func TestAuditAppendAndQuery(t *testing.T) {
	conn := openTestDB(t)
	w := newTestWriter(t, conn)
	audit := sqlite.NewAuditStore(conn, w)
	ctx := context.Background()

	actor := insertUser(t, conn, "PIC", "p@example.com", "pic")
	base := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

	seed := []store.AuditRecord{
		{
			Action: types.ActionAccessValidated, EntityType: types.EntityAccessRequest,
			Success: true, SourceIP: "10.0.0.1",
			Details:   map[string]any{"gate_id": float64(1)},
			CreatedAt: base,
		},
		{
			Action: types.ActionAccessValidated, EntityType: types.EntityAccessRequest,
			Success: false, Reason: types.ReasonNoActiveTask,
			CreatedAt: base.Add(time.Minute),
		},
		{
			Action: types.ActionTaskRevoked, EntityType: types.EntityTask,
			ActorID: &actor, Success: true, Reason: "withdrawn",
			CreatedAt: base.Add(2 * time.Minute),
		},
	}
	for _, rec := range seed {
		if _, err := audit.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	all, err := audit.Query(ctx, store.AuditFilter{})
	if err != nil {
		t.Fatalf("Query all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	// Newest first.
	if all[0].Action != types.ActionTaskRevoked {
		t.Errorf("expected newest entry first, got %q", all[0].Action)
	}
	if all[0].ActorID == nil || *all[0].ActorID != actor {
		t.Errorf("expected actor %d, got %v", actor, all[0].ActorID)
	}
	if all[2].Details["gate_id"] != float64(1) {
		t.Errorf("details did not round-trip: %v", all[2].Details)
	}

	denied := false
	got, err := audit.Query(ctx, store.AuditFilter{
		Action:  types.ActionAccessValidated,
		Success: &denied,
	})
	if err != nil {
		t.Fatalf("Query denied: %v", err)
	}
	if len(got) != 1 || got[0].Reason != types.ReasonNoActiveTask {
		t.Fatalf("expected the single denied validation, got %+v", got)
	}

	got, err = audit.Query(ctx, store.AuditFilter{Since: base, Until: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Query window: %v", err)
	}
	// Since is exclusive, Until inclusive.
	if len(got) != 1 || got[0].Action != types.ActionAccessValidated || got[0].Success {
		t.Fatalf("expected only the denied entry inside (base, base+1m], got %+v", got)
	}

	got, err = audit.Query(ctx, store.AuditFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query limit: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected limit 2, got %d entries", len(got))
	}
}
