// Package storagetest holds the behaviour every storage.Storage backend must share.
package storagetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/token"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store for one sub test.
type Factory func(t *testing.T) storage.Storage

var created = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func Run(t *testing.T, newStore Factory) {
	t.Run("clients", func(t *testing.T) { testClients(t, newStore(t)) })
	t.Run("scopes", func(t *testing.T) { testScopes(t, newStore(t)) })
	t.Run("access tokens", func(t *testing.T) { testAccessTokens(t, newStore(t)) })
	t.Run("renew access token", func(t *testing.T) { testRenew(t, newStore(t)) })
	t.Run("auth codes", func(t *testing.T) { testAuthCodes(t, newStore(t)) })
	t.Run("concurrent auth code consumption", func(t *testing.T) { testConcurrentConsume(t, newStore(t)) })
	t.Run("concurrent invalidation", func(t *testing.T) { testConcurrentInvalidate(t, newStore(t)) })
}

func testClients(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	c := &clients.ClientCredentials{
		ID:                 "b-client",
		Secret:             "secret",
		Name:               "app",
		RedirectURI:        "http://example.com",
		Scope:              "basic",
		Status:             clients.StatusActive,
		ApplicationDetails: map[string]string{"my": "data"},
		CreatedAt:          created,
	}
	require.NoError(t, s.StoreClientCredentials(ctx, c))
	require.ErrorIs(t, s.StoreClientCredentials(ctx, c), storage.ErrAlreadyExists)
	require.NoError(t, s.StoreClientCredentials(ctx, &clients.ClientCredentials{ID: "a-client", Secret: "s2", Name: "other"}))

	found, err := s.FindClientCredentials(ctx, "b-client")
	require.NoError(t, err)
	require.Equal(t, "app", found.Name)
	require.Equal(t, "data", found.ApplicationDetails["my"])
	require.True(t, found.CreatedAt.Equal(created))

	_, err = s.FindClientCredentials(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	valid, err := s.ValidClient(ctx, "b-client", "secret")
	require.NoError(t, err)
	require.True(t, valid)
	valid, err = s.ValidClient(ctx, "b-client", "wrong")
	require.NoError(t, err)
	require.False(t, valid)
	_, err = s.ValidClient(ctx, "missing", "secret")
	require.ErrorIs(t, err, storage.ErrNotFound)

	found.Status = clients.StatusInactive
	require.NoError(t, s.UpdateClientCredentials(ctx, found))
	updated, err := s.FindClientCredentials(ctx, "b-client")
	require.NoError(t, err)
	require.Equal(t, clients.StatusInactive, updated.Status)
	require.ErrorIs(t, s.UpdateClientCredentials(ctx, &clients.ClientCredentials{ID: "missing"}), storage.ErrNotFound)

	list, err := s.ListClientCredentials(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a-client", list[0].ID)

	require.NoError(t, s.DeleteClientApp(ctx, "b-client"))
	require.ErrorIs(t, s.DeleteClientApp(ctx, "b-client"), storage.ErrNotFound)
	_, err = s.FindClientCredentials(ctx, "b-client")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testScopes(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.StoreScope(ctx, &scopes.Scope{Name: "extended", CCExpiresIn: 1800}))
	require.NoError(t, s.StoreScope(ctx, &scopes.Scope{Name: "basic", Description: "basic access", PassExpiresIn: 900}))

	sc, err := s.FindScope(ctx, "basic")
	require.NoError(t, err)
	require.Equal(t, 900, sc.PassExpiresIn)
	require.Equal(t, "basic access", sc.Description)

	_, err = s.FindScope(ctx, "admin")
	require.ErrorIs(t, err, storage.ErrNotFound)

	list, err := s.ListScopes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "basic", list[0].Name)
}

func newAccessToken(value, refresh string) *token.AccessToken {
	return &token.AccessToken{
		Token:            value,
		RefreshToken:     refresh,
		ExpiresIn:        "900",
		RefreshExpiresIn: "3600",
		Type:             "bearer",
		Scope:            "basic",
		Valid:            true,
		ClientID:         "client",
		UserID:           "user",
		Details:          map[string]string{"k": "v"},
		CreatedAt:        created,
		RefreshCreatedAt: created,
	}
}

func testAccessTokens(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.StoreAccessToken(ctx, newAccessToken("access-1", "refresh-1")))

	found, err := s.FindAccessToken(ctx, "access-1")
	require.NoError(t, err)
	require.True(t, found.Valid)
	require.Equal(t, "v", found.Details["k"])
	require.Equal(t, "refresh-1", found.RefreshToken)

	_, err = s.FindAccessToken(ctx, "nope")
	require.ErrorIs(t, err, storage.ErrNotFound)

	byRefresh, err := s.FindAccessTokenByRefreshToken(ctx, "refresh-1", "client")
	require.NoError(t, err)
	require.Equal(t, "access-1", byRefresh.Token)

	_, err = s.FindAccessTokenByRefreshToken(ctx, "refresh-1", "other-client")
	require.ErrorIs(t, err, storage.ErrNotFound)

	changed, err := s.UpdateAccessTokenValidStatus(ctx, "access-1", false)
	require.NoError(t, err)
	require.True(t, changed)
	changed, err = s.UpdateAccessTokenValidStatus(ctx, "access-1", false)
	require.NoError(t, err)
	require.False(t, changed)
	found, err = s.FindAccessToken(ctx, "access-1")
	require.NoError(t, err)
	require.False(t, found.Valid)

	_, err = s.UpdateAccessTokenValidStatus(ctx, "nope", false)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.RemoveAccessToken(ctx, "access-1"))
	_, err = s.FindAccessToken(ctx, "access-1")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.FindAccessTokenByRefreshToken(ctx, "refresh-1", "client")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, s.RemoveAccessToken(ctx, "access-1"), storage.ErrNotFound)

	// Client credentials tokens have no refresh token.
	require.NoError(t, s.StoreAccessToken(ctx, newAccessToken("access-2", "")))
	_, err = s.FindAccessTokenByRefreshToken(ctx, "", "client")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testRenew(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	first := newAccessToken("access-1", "refresh-1")
	require.NoError(t, s.StoreAccessToken(ctx, first))

	second := newAccessToken("access-2", "refresh-1")
	renewed, err := s.RenewAccessToken(ctx, first, second)
	require.NoError(t, err)
	require.True(t, renewed)

	old, err := s.FindAccessToken(ctx, "access-1")
	require.NoError(t, err)
	require.False(t, old.Valid)

	latest, err := s.FindAccessTokenByRefreshToken(ctx, "refresh-1", "client")
	require.NoError(t, err)
	require.Equal(t, "access-2", latest.Token)
	require.True(t, latest.Valid)

	// A second renewal from the superseded token loses.
	renewed, err = s.RenewAccessToken(ctx, first, newAccessToken("access-3", "refresh-1"))
	require.NoError(t, err)
	require.False(t, renewed)
	_, err = s.FindAccessToken(ctx, "access-3")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testAuthCodes(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	code := &token.AuthCode{
		Code:        "code-1",
		ClientID:    "client",
		RedirectURI: "http://example.com/cb",
		Scope:       "basic",
		State:       "xyz",
		Valid:       true,
		CreatedAt:   created,
	}
	require.NoError(t, s.StoreAuthCode(ctx, code))

	mismatch, err := s.FindAuthCode(ctx, "code-1", "http://other.example.com/cb")
	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb", mismatch.RedirectURI)

	found, err := s.FindAuthCode(ctx, "code-1", "http://example.com/cb")
	require.NoError(t, err)
	require.Equal(t, "client", found.ClientID)
	require.Equal(t, "basic", found.Scope)
	require.Equal(t, "xyz", found.State)
	require.True(t, found.CreatedAt.Equal(created))

	_, err = s.FindAuthCode(ctx, "code-1", "http://example.com/cb")
	require.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.FindAuthCode(ctx, "unknown", "http://example.com/cb")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testConcurrentConsume(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.StoreAuthCode(ctx, &token.AuthCode{
		Code: "race", ClientID: "client", RedirectURI: "http://example.com", Valid: true, CreatedAt: created,
	}))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.FindAuthCode(ctx, "race", "http://example.com"); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins.Load())
}

func testConcurrentInvalidate(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	require.NoError(t, s.StoreAccessToken(ctx, newAccessToken("shared", "refresh")))

	var changes atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if changed, err := s.UpdateAccessTokenValidStatus(ctx, "shared", false); err == nil && changed {
				changes.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), changes.Load())
}
