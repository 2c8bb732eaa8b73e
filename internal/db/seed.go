package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SeedFile is the dev fixture format: a YAML document listing users and
// gates to provision on startup. Existing rows (matched by email / gate
// code) are left untouched.
type SeedFile struct {
	Users []SeedUser `yaml:"users"`
	Gates []SeedGate `yaml:"gates"`
}

type SeedUser struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

type SeedGate struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	Location      string `yaml:"location"`
	Active        *bool  `yaml:"active"` // nil = active
	DoorID        string `yaml:"door_id"`
	DoorIPAddress string `yaml:"door_ip_address"`
}

// SeedFromFile loads a YAML fixture and inserts any users and gates not
// already present. Intended for dev environments only.
func SeedFromFile(ctx context.Context, conn *sql.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var sf SeedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	now := time.Now().UTC().UnixMilli()

	for _, u := range sf.Users {
		if u.Email == "" || u.Role == "" {
			return fmt.Errorf("seed user %q: email and role are required", u.Name)
		}
		if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO users(name, email, role, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?);`,
			u.Name, u.Email, u.Role, now, now,
		); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	for _, g := range sf.Gates {
		if g.Code == "" {
			return fmt.Errorf("seed gate %q: code is required", g.Name)
		}
		active := 1
		if g.Active != nil && !*g.Active {
			active = 0
		}
		var doorID any
		if g.DoorID != "" {
			doorID = g.DoorID
		}
		if _, err := conn.ExecContext(ctx, `
INSERT OR IGNORE INTO gates(gate_code, name, location, is_active, door_id, door_ip_address, created_at_ms, updated_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
			g.Code, g.Name, g.Location, active, doorID, g.DoorIPAddress, now, now,
		); err != nil {
			return fmt.Errorf("seed gate %s: %w", g.Code, err)
		}
	}

	return nil
}
