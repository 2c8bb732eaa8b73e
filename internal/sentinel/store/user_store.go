package store

import (
	"context"
	"time"

	"github.com/sentinel-dc/sentinel/internal/sentinel/types"
)

type UserRecord struct {
	ID        int64
	Name      string
	Email     string
	Role      types.Role
	CreatedAt time.Time
}

type UserStore interface {
	// GetUser resolves a user by id. Returns ErrNotFound if no such user
	// exists.
	GetUser(ctx context.Context, id int64) (UserRecord, error)

	// GetUsersByIDs returns the users whose ids appear in ids. Missing
	// ids are simply absent from the result; callers that care compare
	// lengths.
	GetUsersByIDs(ctx context.Context, ids []int64) ([]UserRecord, error)
}
