package redisstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/storage/redisstore"
	"github.com/jrsteele09/go-oauth20-server/storage/storagetest"
	"github.com/jrsteele09/go-oauth20-server/token"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testPrefix = "test:oauth20:"

func newTestStorage(t *testing.T) (*redisstore.RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := redisstore.NewRedisStorageWithClient(client, testPrefix, redisstore.WithAuthCodeTTL(time.Minute))
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStorage(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s, _ := newTestStorage(t)
		return s
	})
}

func TestRedisStorage_KeyPrefix(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreAccessToken(ctx, &token.AccessToken{Token: "abc", RefreshToken: "r", ClientID: "c", Valid: true}))

	require.True(t, mr.Exists(testPrefix+"token:abc"))
	require.Equal(t, "1", mr.HGet(testPrefix+"token:abc", "valid"))
	got, err := mr.Get(testPrefix + "refresh:1:c:r")
	require.NoError(t, err)
	require.Equal(t, "abc", got)
}

func TestRedisStorage_RefreshKeysOfSeparatorClientIDsDoNotCollide(t *testing.T) {
	s, _ := newTestStorage(t)
	ctx := context.Background()

	// Unprefixed, both would map to refresh:a:b:c.
	require.NoError(t, s.StoreAccessToken(ctx, &token.AccessToken{Token: "t1", RefreshToken: "b:c", ClientID: "a", Valid: true}))
	require.NoError(t, s.StoreAccessToken(ctx, &token.AccessToken{Token: "t2", RefreshToken: "c", ClientID: "a:b", Valid: true}))

	found, err := s.FindAccessTokenByRefreshToken(ctx, "b:c", "a")
	require.NoError(t, err)
	require.Equal(t, "t1", found.Token)

	found, err = s.FindAccessTokenByRefreshToken(ctx, "c", "a:b")
	require.NoError(t, err)
	require.Equal(t, "t2", found.Token)
}

func TestRedisStorage_RemoveAccessToken(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreAccessToken(ctx, &token.AccessToken{Token: "plain", ClientID: "c", Valid: true}))
	require.NoError(t, s.RemoveAccessToken(ctx, "plain"))
	require.False(t, mr.Exists(testPrefix+"token:plain"))

	require.NoError(t, s.StoreAccessToken(ctx, &token.AccessToken{Token: "abc", RefreshToken: "r", ClientID: "c", Valid: true}))
	require.NoError(t, s.RemoveAccessToken(ctx, "abc"))
	require.False(t, mr.Exists(testPrefix+"token:abc"))
	require.False(t, mr.Exists(testPrefix+"refresh:1:c:r"))

	require.ErrorIs(t, s.RemoveAccessToken(ctx, "abc"), storage.ErrNotFound)
}

func TestRedisStorage_AuthCodeExpires(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.StoreAuthCode(ctx, &token.AuthCode{Code: "c1", ClientID: "client", RedirectURI: "http://example.com", Valid: true}))
	require.Equal(t, time.Minute, mr.TTL(testPrefix+"code:c1"))

	mr.FastForward(2 * time.Minute)

	_, err := s.FindAuthCode(ctx, "c1", "http://example.com")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRedisStorage_PingAndFailure(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	mr.Close()
	require.Error(t, s.Ping(ctx))

	_, err := s.FindAccessToken(ctx, "abc")
	require.Error(t, err)
	require.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestNewRedisStorage_RequiresAddress(t *testing.T) {
	_, err := redisstore.NewRedisStorage(context.Background(), redisstore.Config{})
	require.Error(t, err)
}

func TestNewRedisStorage_Connects(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := redisstore.NewRedisStorage(context.Background(), redisstore.Config{Addr: mr.Addr(), KeyPrefix: testPrefix})
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
