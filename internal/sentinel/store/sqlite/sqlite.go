// Package sqlite implements the sentinel stores on SQLite. All writes
// go through the db.Worker so multi-statement transactions are
// serialized on a single connection.
package sqlite

import (
	"encoding/json"
	"fmt"
	"time"
)

func timeToMs(t time.Time) int64 { return t.UTC().UnixMilli() }

func msToTime(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// nullableID converts an optional id to a bind value.
func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// encodeDetails marshals a details payload to its JSON column value,
// or nil when the payload is empty.
func encodeDetails(details map[string]any) (any, error) {
	if len(details) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("encode details: %w", err)
	}
	return string(b), nil
}

func decodeDetails(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}
	return m, nil
}

// placeholders returns "?, ?, ..., ?" with n slots for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	s := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		if i > 0 {
			s = append(s, ", "...)
		}
		s = append(s, '?')
	}
	return string(s)
}
