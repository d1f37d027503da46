package scopes

import "context"

// Repo persists scopes. FindScope returns an error wrapping ErrNotFound when the
// scope does not exist.
type Repo interface {
	StoreScope(ctx context.Context, scope *Scope) error
	FindScope(ctx context.Context, name string) (*Scope, error)
	ListScopes(ctx context.Context) ([]*Scope, error)
}
