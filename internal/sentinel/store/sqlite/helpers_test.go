package sqlite_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sentinel-dc/sentinel/internal/db"
)

// openTestDB returns an in-memory SQLite connection with the same
// PRAGMAs and schema as production. Closed automatically when the test
// finishes.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// Each call gets a unique in-memory database. The shared-cache URI
	// keeps it alive for the lifetime of the connection pool.
	dsn := fmt.Sprintf(
		"file:test_%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)",
		t.Name(),
	)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("openTestDB: sql.Open: %v", err)
	}

	// Match production: single connection.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: ping: %v", err)
	}

	if err := db.Migrate(context.Background(), conn); err != nil {
		conn.Close()
		t.Fatalf("openTestDB: migrate: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// newTestWriter returns a db.Worker backed by conn, closed when the
// test finishes.
func newTestWriter(t *testing.T, conn *sql.DB) *db.Worker {
	t.Helper()

	w := db.NewWorker(conn)
	t.Cleanup(func() { w.Close() })
	return w
}

// insertUser seeds one user row and returns its id.
func insertUser(t *testing.T, conn *sql.DB, name, email, role string) int64 {
	t.Helper()

	now := time.Now().UTC().UnixMilli()
	res, err := conn.Exec(`
INSERT INTO users(name, email, role, created_at_ms, updated_at_ms) VALUES (?, ?, ?, ?, ?);
`, name, email, role, now, now)
	if err != nil {
		t.Fatalf("insertUser %s: %v", email, err)
	}
	id, _ := res.LastInsertId()
	return id
}

// insertGate seeds one gate row and returns its id. doorID may be
// empty for gates without a door binding.
func insertGate(t *testing.T, conn *sql.DB, code, doorID string, active bool) int64 {
	t.Helper()

	now := time.Now().UTC().UnixMilli()
	activeInt := 0
	if active {
		activeInt = 1
	}
	var door any
	if doorID != "" {
		door = doorID
	}
	res, err := conn.Exec(`
INSERT INTO gates(gate_code, name, location, is_active, door_id, created_at_ms, updated_at_ms)
VALUES (?, ?, '', ?, ?, ?, ?);
`, code, code, activeInt, door, now, now)
	if err != nil {
		t.Fatalf("insertGate %s: %v", code, err)
	}
	id, _ := res.LastInsertId()
	return id
}
