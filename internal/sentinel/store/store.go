// Package store defines the persistence interfaces and record types for
// the sentinel core. Implementations live in the sqlite and memory
// subpackages.
package store

import "errors"

var (
	// ErrNotFound is returned when a referenced user, gate, or task does
	// not resolve.
	ErrNotFound = errors.New("not found")

	// ErrTaskNotActive is returned by status transitions attempted on a
	// task that is already in a terminal state.
	ErrTaskNotActive = errors.New("task is not active")
)
