package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	dbpkg "github.com/sentinel-dc/sentinel/internal/db"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

type GateStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewGateStore(conn *sql.DB, writer *dbpkg.Worker) *GateStore {
	return &GateStore{db: conn, writer: writer}
}

const gateColumns = `id, gate_code, name, location, is_active, door_id, door_ip_address, integration_status, last_heartbeat_at_ms`

func scanGate(scan func(...any) error) (store.GateRecord, error) {
	var (
		rec      store.GateRecord
		active   int
		doorID   sql.NullString
		doorIP   sql.NullString
		integ    string
		lastHbMs sql.NullInt64
	)
	if err := scan(&rec.ID, &rec.Code, &rec.Name, &rec.Location, &active, &doorID, &doorIP, &integ, &lastHbMs); err != nil {
		return store.GateRecord{}, err
	}
	rec.Active = active != 0
	rec.DoorID = doorID.String
	rec.DoorIPAddress = doorIP.String
	rec.Integration = types.IntegrationStatus(integ)
	if lastHbMs.Valid {
		t := msToTime(lastHbMs.Int64)
		rec.LastHeartbeatAt = &t
	}
	return rec, nil
}

func (s *GateStore) getGate(ctx context.Context, where string, arg any) (store.GateRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gateColumns+` FROM gates WHERE `+where+`;`, arg)
	rec, err := scanGate(row.Scan)
	if err == sql.ErrNoRows {
		return store.GateRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.GateRecord{}, fmt.Errorf("get gate: %w", err)
	}
	return rec, nil
}

func (s *GateStore) GetGateByCode(ctx context.Context, code string) (store.GateRecord, error) {
	return s.getGate(ctx, "gate_code = ?", code)
}

func (s *GateStore) GetGateByDoorID(ctx context.Context, doorID string) (store.GateRecord, error) {
	return s.getGate(ctx, "door_id = ?", doorID)
}

func (s *GateStore) GetGatesByIDs(ctx context.Context, ids []int64) ([]store.GateRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gateColumns+` FROM gates WHERE id IN (`+placeholders(len(ids))+`);`, args...)
	if err != nil {
		return nil, fmt.Errorf("GetGatesByIDs: %w", err)
	}
	defer rows.Close()

	var out []store.GateRecord
	for rows.Next() {
		rec, err := scanGate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("GetGatesByIDs scan: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecordHeartbeat is a last-write-wins upsert of the gate's heartbeat
// snapshot. An unknown door id is an error, not a no-op: gates are
// provisioned by operators, never self-registered by devices.
func (s *GateStore) RecordHeartbeat(ctx context.Context, doorID string, at time.Time) (store.GateRecord, error) {
	atMs := timeToMs(at)

	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE gates
SET last_heartbeat_at_ms = ?,
    integration_status = ?,
    updated_at_ms = ?
WHERE door_id = ?;
`, atMs, string(types.IntegrationActive), atMs, doorID)
		if err != nil {
			return fmt.Errorf("RecordHeartbeat update: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return store.GateRecord{}, err
	}

	return s.GetGateByDoorID(ctx, doorID)
}
