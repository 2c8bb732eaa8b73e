package store

import (
	"context"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

// onlineWindow is how recently a gate's door controller must have sent
// a heartbeat to be considered online.
const onlineWindow = 5 * time.Minute

type GateRecord struct {
	ID       int64
	Code     string // external gate identifier, e.g. "GATE-A1"
	Name     string
	Location string
	Active   bool

	// Door binding. DoorID is empty when the gate has no physical door
	// controller attached.
	DoorID          string
	DoorIPAddress   string
	Integration     types.IntegrationStatus
	LastHeartbeatAt *time.Time
}

// IsOnline reports whether the gate's door controller has sent a
// heartbeat within the online window. A gate with no recorded
// heartbeat is offline.
func (g GateRecord) IsOnline(now time.Time) bool {
	if g.LastHeartbeatAt == nil {
		return false
	}
	return now.Sub(*g.LastHeartbeatAt) < onlineWindow
}

type GateStore interface {
	// GetGateByCode resolves a gate by its external gate code.
	GetGateByCode(ctx context.Context, code string) (GateRecord, error)

	// GetGateByDoorID resolves a gate by its bound door controller id.
	GetGateByDoorID(ctx context.Context, doorID string) (GateRecord, error)

	// GetGatesByIDs returns the gates whose ids appear in ids. Missing
	// ids are absent from the result.
	GetGatesByIDs(ctx context.Context, ids []int64) ([]GateRecord, error)

	// RecordHeartbeat stores at as the gate's last heartbeat and marks
	// the gate integrated. Last write wins. Returns ErrNotFound when no
	// gate is bound to doorID.
	RecordHeartbeat(ctx context.Context, doorID string, at time.Time) (GateRecord, error)
}
