// Package storage defines the persistence contract of the authorization server. Backends live
// in the memory and redis subpackages; exactly one is constructed at start up and injected.
package storage

import (
	"context"

	"github.com/jrsteele09/go-oauth20-server/clients"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/token"
)

// ErrNotFound is returned, wrapped, by every lookup of an absent record.
var ErrNotFound = apperrors.ErrNotFound

// ErrAlreadyExists is returned, wrapped, when storing a client or scope under a taken key.
var ErrAlreadyExists = apperrors.ErrAlreadyExists

// Storage must provide per-key atomicity for consuming authorization codes, updating access
// token validity, renewing and deleting access tokens.
type Storage interface {
	clients.Repo
	scopes.Repo
	token.Repo

	Ping(ctx context.Context) error
	Close() error
}
