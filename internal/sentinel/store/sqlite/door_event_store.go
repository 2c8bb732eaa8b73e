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

type DoorEventStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewDoorEventStore(conn *sql.DB, writer *dbpkg.Worker) *DoorEventStore {
	return &DoorEventStore{db: conn, writer: writer}
}

func (s *DoorEventStore) RecordEvent(ctx context.Context, rec store.DoorEventRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	details, err := encodeDetails(rec.Details)
	if err != nil {
		return 0, err
	}

	var reason, sessionID, clientIP any
	if rec.Reason != "" {
		reason = rec.Reason
	}
	if rec.SessionID != "" {
		sessionID = rec.SessionID
	}
	if rec.ClientIP != "" {
		clientIP = rec.ClientIP
	}

	var id int64
	err = s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO door_access_logs(
  gate_id, task_id, vendor_id, pic_id, event_type, reason, session_id, details, client_ip, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
			rec.GateID, nullableID(rec.TaskID), nullableID(rec.VendorID), nullableID(rec.PICID),
			string(rec.EventType), reason, sessionID, details, clientIP, timeToMs(rec.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("RecordEvent insert: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (s *DoorEventStore) ListForGate(ctx context.Context, f store.DoorEventFilter) ([]store.DoorEventRecord, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	q := `
SELECT id, gate_id, task_id, vendor_id, pic_id, event_type, reason, session_id, details, client_ip, created_at_ms
FROM door_access_logs
WHERE gate_id = ?`
	args := []any{f.GateID}
	if !f.Since.IsZero() {
		q += " AND created_at_ms > ?"
		args = append(args, timeToMs(f.Since))
	}
	q += " ORDER BY created_at_ms DESC, id DESC LIMIT ?;"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListForGate: %w", err)
	}
	defer rows.Close()

	var out []store.DoorEventRecord
	for rows.Next() {
		var (
			rec       store.DoorEventRecord
			taskID    sql.NullInt64
			vendorID  sql.NullInt64
			picID     sql.NullInt64
			eventType string
			reason    sql.NullString
			sessionID sql.NullString
			details   []byte
			clientIP  sql.NullString
			createdMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.GateID, &taskID, &vendorID, &picID, &eventType, &reason, &sessionID, &details, &clientIP, &createdMs); err != nil {
			return nil, fmt.Errorf("ListForGate scan: %w", err)
		}
		if taskID.Valid {
			rec.TaskID = &taskID.Int64
		}
		if vendorID.Valid {
			rec.VendorID = &vendorID.Int64
		}
		if picID.Valid {
			rec.PICID = &picID.Int64
		}
		rec.EventType = types.DoorEventType(eventType)
		rec.Reason = reason.String
		rec.SessionID = sessionID.String
		if rec.Details, err = decodeDetails(details); err != nil {
			return nil, err
		}
		rec.ClientIP = clientIP.String
		rec.CreatedAt = msToTime(createdMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}
