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

type TaskStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewTaskStore(conn *sql.DB, writer *dbpkg.Worker) *TaskStore {
	return &TaskStore{db: conn, writer: writer}
}

// CreateTask writes the task row, both membership sets, and the audit
// entry in one transaction. A failure on any statement (including a
// foreign-key violation on a membership row) rolls the whole unit back.
func (s *TaskStore) CreateTask(ctx context.Context, nt store.NewTask, audit store.AuditRecord) (store.TaskRecord, error) {
	now := time.Now().UTC()
	nowMs := timeToMs(now)

	var taskID int64
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT INTO tasks(title, pic_id, start_time_ms, end_time_ms, status, created_by, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`,
			nt.Title, nt.PICID, timeToMs(nt.StartTime), timeToMs(nt.EndTime),
			string(types.TaskActive), nt.CreatedBy, nowMs, nowMs,
		)
		if err != nil {
			return fmt.Errorf("CreateTask insert task: %w", err)
		}
		taskID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("CreateTask last insert id: %w", err)
		}

		for _, vendorID := range nt.VendorIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_vendors(task_id, user_id) VALUES (?, ?);`, taskID, vendorID,
			); err != nil {
				return fmt.Errorf("CreateTask attach vendor %d: %w", vendorID, err)
			}
		}

		for _, gateID := range nt.GateIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO task_gates(task_id, gate_id) VALUES (?, ?);`, taskID, gateID,
			); err != nil {
				return fmt.Errorf("CreateTask attach gate %d: %w", gateID, err)
			}
		}

		audit.EntityID = &taskID
		if _, err := insertAuditTx(ctx, tx, audit); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return store.TaskRecord{}, err
	}

	return s.GetTask(ctx, taskID)
}

const taskColumns = `id, title, pic_id, start_time_ms, end_time_ms, status, created_by, created_at_ms`

func scanTask(scan func(...any) error) (store.TaskRecord, error) {
	var (
		rec       store.TaskRecord
		startMs   int64
		endMs     int64
		status    string
		createdMs int64
	)
	if err := scan(&rec.ID, &rec.Title, &rec.PICID, &startMs, &endMs, &status, &rec.CreatedBy, &createdMs); err != nil {
		return store.TaskRecord{}, err
	}
	rec.StartTime = msToTime(startMs)
	rec.EndTime = msToTime(endMs)
	rec.Status = types.TaskStatus(status)
	rec.CreatedAt = msToTime(createdMs)
	return rec, nil
}

func (s *TaskStore) GetTask(ctx context.Context, id int64) (store.TaskRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?;`, id)
	rec, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return store.TaskRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.TaskRecord{}, fmt.Errorf("GetTask %d: %w", id, err)
	}
	if err := s.loadMemberships(ctx, &rec); err != nil {
		return store.TaskRecord{}, err
	}
	return rec, nil
}

func (s *TaskStore) loadMemberships(ctx context.Context, rec *store.TaskRecord) error {
	vendors, err := s.memberIDs(ctx, `SELECT user_id FROM task_vendors WHERE task_id = ? ORDER BY user_id;`, rec.ID)
	if err != nil {
		return fmt.Errorf("load vendors for task %d: %w", rec.ID, err)
	}
	gates, err := s.memberIDs(ctx, `SELECT gate_id FROM task_gates WHERE task_id = ? ORDER BY gate_id;`, rec.ID)
	if err != nil {
		return fmt.Errorf("load gates for task %d: %w", rec.ID, err)
	}
	rec.VendorIDs = vendors
	rec.GateIDs = gates
	return nil
}

func (s *TaskStore) memberIDs(ctx context.Context, q string, taskID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, q, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *TaskStore) FindActiveForPair(ctx context.Context, vendorID, picID int64) (store.TaskRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+taskColumns+` FROM tasks
WHERE status = ? AND pic_id = ?
  AND id IN (SELECT task_id FROM task_vendors WHERE user_id = ?)
ORDER BY id
LIMIT 1;
`, string(types.TaskActive), picID, vendorID)

	rec, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return store.TaskRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.TaskRecord{}, fmt.Errorf("FindActiveForPair: %w", err)
	}
	if err := s.loadMemberships(ctx, &rec); err != nil {
		return store.TaskRecord{}, err
	}
	return rec, nil
}

// SetStatus performs the active -> terminal transition as a compare-and-
// swap on the status column. Zero rows affected means the task is either
// missing or already terminal; nothing (including the audit entry) is
// written in that case.
func (s *TaskStore) SetStatus(ctx context.Context, id int64, to types.TaskStatus, audit *store.AuditRecord) error {
	if !to.Terminal() {
		return fmt.Errorf("SetStatus: %q is not a terminal status", to)
	}

	return s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE tasks SET status = ?, updated_at_ms = ? WHERE id = ? AND status = ?;
`, string(to), timeToMs(time.Now().UTC()), id, string(types.TaskActive))
		if err != nil {
			return fmt.Errorf("SetStatus update: %w", err)
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?;`, id).Scan(&exists)
			if err == sql.ErrNoRows {
				return store.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("SetStatus check: %w", err)
			}
			return store.ErrTaskNotActive
		}

		if audit != nil {
			a := *audit
			a.EntityID = &id
			if _, err := insertAuditTx(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TaskStore) ListTasks(ctx context.Context, f store.TaskFilter) ([]store.TaskRecord, error) {
	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.VendorID != 0 {
		conds = append(conds, "id IN (SELECT task_id FROM task_vendors WHERE user_id = ?)")
		args = append(args, f.VendorID)
	}
	if !f.StartedAfter.IsZero() {
		conds = append(conds, "start_time_ms >= ?")
		args = append(args, timeToMs(f.StartedAfter))
	}
	if !f.EndedBefore.IsZero() {
		conds = append(conds, "end_time_ms <= ?")
		args = append(args, timeToMs(f.EndedBefore))
	}

	q := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY created_at_ms DESC, id DESC;"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ListTasks: %w", err)
	}
	defer rows.Close()

	var out []store.TaskRecord
	for rows.Next() {
		rec, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("ListTasks scan: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := s.loadMemberships(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *TaskStore) CountActiveForGate(ctx context.Context, gateID int64, now time.Time) (int, error) {
	nowMs := timeToMs(now)
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM tasks
WHERE status = ?
  AND start_time_ms <= ? AND end_time_ms >= ?
  AND id IN (SELECT task_id FROM task_gates WHERE gate_id = ?);
`, string(types.TaskActive), nowMs, nowMs, gateID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountActiveForGate: %w", err)
	}
	return n, nil
}
