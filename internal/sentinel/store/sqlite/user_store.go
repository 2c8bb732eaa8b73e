package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sentinel-dc/sentinel/internal/sentinel/store"
	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(conn *sql.DB) *UserStore {
	return &UserStore{db: conn}
}

func (s *UserStore) GetUser(ctx context.Context, id int64) (store.UserRecord, error) {
	var (
		rec       store.UserRecord
		role      string
		createdMs int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, name, email, role, created_at_ms FROM users WHERE id = ?;
`, id).Scan(&rec.ID, &rec.Name, &rec.Email, &role, &createdMs)
	if err == sql.ErrNoRows {
		return store.UserRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.UserRecord{}, fmt.Errorf("GetUser %d: %w", id, err)
	}
	rec.Role = types.Role(role)
	rec.CreatedAt = msToTime(createdMs)
	return rec, nil
}

func (s *UserStore) GetUsersByIDs(ctx context.Context, ids []int64) ([]store.UserRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, name, email, role, created_at_ms FROM users WHERE id IN (`+placeholders(len(ids))+`);
`, args...)
	if err != nil {
		return nil, fmt.Errorf("GetUsersByIDs: %w", err)
	}
	defer rows.Close()

	var out []store.UserRecord
	for rows.Next() {
		var (
			rec       store.UserRecord
			role      string
			createdMs int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &role, &createdMs); err != nil {
			return nil, fmt.Errorf("GetUsersByIDs scan: %w", err)
		}
		rec.Role = types.Role(role)
		rec.CreatedAt = msToTime(createdMs)
		out = append(out, rec)
	}
	return out, rows.Err()
}
