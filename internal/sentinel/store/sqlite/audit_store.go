package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbpkg "github.com/sentinel-dc/sentinel/internal/db"
	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

type AuditStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAuditStore(conn *sql.DB, writer *dbpkg.Worker) *AuditStore {
	return &AuditStore{db: conn, writer: writer}
}

// insertAuditTx writes one audit row inside an existing transaction.
// Shared with the task store so lifecycle transitions and their audit
// entries commit as one unit.
func insertAuditTx(ctx context.Context, tx *sql.Tx, rec store.AuditRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	details, err := encodeDetails(rec.Details)
	if err != nil {
		return 0, err
	}

	success := 0
	if rec.Success {
		success = 1
	}

	var reason any
	if rec.Reason != "" {
		reason = rec.Reason
	}
	var sourceIP any
	if rec.SourceIP != "" {
		sourceIP = rec.SourceIP
	}

	res, err := tx.ExecContext(ctx, `
INSERT INTO audit_logs(
  action, entity_type, entity_id, actor_id, details, source_ip, success, reason, created_at_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		string(rec.Action), rec.EntityType, nullableID(rec.EntityID), nullableID(rec.ActorID),
		details, sourceIP, success, reason, timeToMs(rec.CreatedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}
	return res.LastInsertId()
}

func (s *AuditStore) Append(ctx context.Context, rec store.AuditRecord) (int64, error) {
	var id int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		id, err = insertAuditTx(ctx, tx, rec)
		return err
	})
	return id, err
}

func (s *AuditStore) Query(ctx context.Context, f store.AuditFilter) ([]store.AuditRecord, error) {
	var conds []string
	var args []any

	if f.Action != "" {
		conds = append(conds, "action = ?")
		args = append(args, string(f.Action))
	}
	if f.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, f.EntityType)
	}
	if f.EntityID != nil {
		conds = append(conds, "entity_id = ?")
		args = append(args, *f.EntityID)
	}
	if f.Success != nil {
		v := 0
		if *f.Success {
			v = 1
		}
		conds = append(conds, "success = ?")
		args = append(args, v)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "created_at_ms > ?")
		args = append(args, timeToMs(f.Since))
	}
	if !f.Until.IsZero() {
		conds = append(conds, "created_at_ms <= ?")
		args = append(args, timeToMs(f.Until))
	}

	q := `SELECT id, action, entity_type, entity_id, actor_id, details, source_ip, success, reason, created_at_ms FROM audit_logs`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at_ms DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q+";", args...)
	if err != nil {
		return nil, fmt.Errorf("audit query: %w", err)
	}
	defer rows.Close()

	var out []store.AuditRecord
	for rows.Next() {
		var (
			rec       store.AuditRecord
			action    string
			entityID  sql.NullInt64
			actorID   sql.NullInt64
			details   []byte
			sourceIP  sql.NullString
			success   int
			reason    sql.NullString
			createdMs int64
		)
		if err := rows.Scan(&rec.ID, &action, &rec.EntityType, &entityID, &actorID, &details, &sourceIP, &success, &reason, &createdMs); err != nil {
			return nil, fmt.Errorf("audit query scan: %w", err)
		}
		rec.Action = types.AuditAction(action)
		if entityID.Valid {
			rec.EntityID = &entityID.Int64
		}
		if actorID.Valid {
			rec.ActorID = &actorID.Int64
		}
		if rec.Details, err = decodeDetails(details); err != nil {
			return nil, err
		}
		rec.SourceIP = sourceIP.String
		rec.Success = success != 0
		rec.Reason = reason.String
		rec.CreatedAt = msToTime(createdMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}
