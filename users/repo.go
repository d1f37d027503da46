package users

import (
	"context"
	"time"
)

// Repo persists users. Lookups of absent users return an error wrapping errors.ErrNotFound.
type Repo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, username string) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	SetBlocked(ctx context.Context, username string, blocked bool) error
	SetLastLogin(ctx context.Context, username string, at time.Time) error
}
