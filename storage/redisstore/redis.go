// Package redisstore implements storage.Storage on Redis. Access tokens and authorization codes are
// hashes holding the JSON record plus the fields Lua scripts compare and swap atomically.
package redisstore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jrsteele09/go-oauth20-server/clients"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second
	DefaultAuthCodeTTL  = 15 * time.Minute
)

// Key types
const (
	keyTypeClient  = "client"
	keyTypeClients = "clients"
	keyTypeScope   = "scope"
	keyTypeScopes  = "scopes"
	keyTypeToken   = "token"
	keyTypeRefresh = "refresh"
	keyTypeCode    = "code"
)

// Hash fields of token and code records.
const (
	fieldData        = "data"
	fieldValid       = "valid"
	fieldRedirectURI = "redirect_uri"
)

var _ storage.Storage = (*RedisStorage)(nil)

// Config holds Redis connection configuration.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string

	// Timeouts (defaults: Dial=5s, Read=3s, Write=3s).
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AuthCodeTTL bounds how long an unredeemed authorization code is kept.
	AuthCodeTTL time.Duration
}

// RedisStorage implements storage.Storage with a Redis backend, allowing several server
// instances to share state.
type RedisStorage struct {
	client      redis.UniversalClient
	keyPrefix   string
	authCodeTTL time.Duration
}

// Option configures a RedisStorage.
type Option func(*RedisStorage)

// WithAuthCodeTTL sets the expiry applied to stored authorization codes.
func WithAuthCodeTTL(ttl time.Duration) Option {
	return func(s *RedisStorage) {
		if ttl > 0 {
			s.authCodeTTL = ttl
		}
	}
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(ctx context.Context, cfg Config) (*RedisStorage, error) {
	if cfg.Addr == "" {
		return nil, errors.New("invalid redis configuration: address is required")
	}

	// Apply defaults
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		// Close the client to prevent resource leak
		_ = client.Close()
		return nil, apperrors.Wrapf(err, "failed to connect to redis")
	}

	return NewRedisStorageWithClient(client, cfg.KeyPrefix, WithAuthCodeTTL(cfg.AuthCodeTTL)), nil
}

// NewRedisStorageWithClient creates a RedisStorage with a pre-configured client.
// This is useful for testing with miniredis.
func NewRedisStorageWithClient(client redis.UniversalClient, keyPrefix string, options ...Option) *RedisStorage {
	s := &RedisStorage{
		client:      client,
		keyPrefix:   keyPrefix,
		authCodeTTL: DefaultAuthCodeTTL,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Close closes the Redis client connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Ping checks Redis connectivity (health check).
func (s *RedisStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStorage) key(keyType string, parts ...string) string {
	k := s.keyPrefix + keyType
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func notFound(what string) error {
	return apperrors.Wrapf(storage.ErrNotFound, "%s", what)
}

// -----------------------
// clients.Repo
// -----------------------

func (s *RedisStorage) StoreClientCredentials(ctx context.Context, creds *clients.ClientCredentials) error {
	if creds == nil {
		return apperrors.ErrNilRecord
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return apperrors.Wrapf(err, "failed to marshal client")
	}

	stored, err := s.client.SetNX(ctx, s.key(keyTypeClient, creds.ID), data, 0).Result()
	if err != nil {
		return apperrors.Wrapf(err, "failed to store client")
	}
	if !stored {
		return apperrors.Wrapf(storage.ErrAlreadyExists, "client %s", creds.ID)
	}
	if err := s.client.SAdd(ctx, s.key(keyTypeClients), creds.ID).Err(); err != nil {
		// Compensating transaction: delete the client we just stored
		_ = s.client.Del(ctx, s.key(keyTypeClient, creds.ID)).Err()
		return apperrors.Wrapf(err, "failed to index client")
	}
	return nil
}

func (s *RedisStorage) FindClientCredentials(ctx context.Context, clientID string) (*clients.ClientCredentials, error) {
	data, err := s.client.Get(ctx, s.key(keyTypeClient, clientID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound("client " + clientID)
		}
		return nil, apperrors.Wrapf(err, "failed to get client")
	}

	var creds clients.ClientCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, apperrors.Wrapf(err, "failed to unmarshal client")
	}
	return &creds, nil
}

func (s *RedisStorage) UpdateClientCredentials(ctx context.Context, creds *clients.ClientCredentials) error {
	if creds == nil {
		return apperrors.ErrNilRecord
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return apperrors.Wrapf(err, "failed to marshal client")
	}

	updated, err := s.client.SetXX(ctx, s.key(keyTypeClient, creds.ID), data, 0).Result()
	if err != nil {
		return apperrors.Wrapf(err, "failed to update client")
	}
	if !updated {
		return notFound("client " + creds.ID)
	}
	return nil
}

func (s *RedisStorage) DeleteClientApp(ctx context.Context, clientID string) error {
	deleted, err := s.client.Del(ctx, s.key(keyTypeClient, clientID)).Result()
	if err != nil {
		return apperrors.Wrapf(err, "failed to delete client")
	}
	if deleted == 0 {
		return notFound("client " + clientID)
	}
	// Ignore error - index cleanup is best effort, List skips dangling ids
	_ = s.client.SRem(ctx, s.key(keyTypeClients), clientID).Err()
	return nil
}

func (s *RedisStorage) ListClientCredentials(ctx context.Context) ([]*clients.ClientCredentials, error) {
	ids, err := s.client.SMembers(ctx, s.key(keyTypeClients)).Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to list clients")
	}

	records, err := s.getAll(ctx, keyTypeClient, ids)
	if err != nil {
		return nil, err
	}
	list := make([]*clients.ClientCredentials, 0, len(records))
	for _, raw := range records {
		var creds clients.ClientCredentials
		if err := json.Unmarshal(raw, &creds); err != nil {
			return nil, apperrors.Wrapf(err, "failed to unmarshal client")
		}
		list = append(list, &creds)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *RedisStorage) ValidClient(ctx context.Context, clientID, clientSecret string) (bool, error) {
	creds, err := s.FindClientCredentials(ctx, clientID)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(creds.Secret), []byte(clientSecret)) == 1, nil
}

// getAll fetches the string records of ids, skipping ids whose record has gone.
func (s *RedisStorage) getAll(ctx context.Context, keyType string, ids []string) ([][]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(keyType, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to get %s records", keyType)
	}
	out := make([][]byte, 0, len(values))
	for _, v := range values {
		if str, ok := v.(string); ok {
			out = append(out, []byte(str))
		}
	}
	return out, nil
}

// -----------------------
// scopes.Repo
// -----------------------

func (s *RedisStorage) StoreScope(ctx context.Context, scope *scopes.Scope) error {
	if scope == nil {
		return apperrors.ErrNilRecord
	}
	data, err := json.Marshal(scope)
	if err != nil {
		return apperrors.Wrapf(err, "failed to marshal scope")
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyTypeScope, scope.Name), data, 0)
		pipe.SAdd(ctx, s.key(keyTypeScopes), scope.Name)
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(err, "failed to store scope")
	}
	return nil
}

func (s *RedisStorage) FindScope(ctx context.Context, name string) (*scopes.Scope, error) {
	data, err := s.client.Get(ctx, s.key(keyTypeScope, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound("scope " + name)
		}
		return nil, apperrors.Wrapf(err, "failed to get scope")
	}
	var sc scopes.Scope
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, apperrors.Wrapf(err, "failed to unmarshal scope")
	}
	return &sc, nil
}

func (s *RedisStorage) ListScopes(ctx context.Context) ([]*scopes.Scope, error) {
	names, err := s.client.SMembers(ctx, s.key(keyTypeScopes)).Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to list scopes")
	}
	records, err := s.getAll(ctx, keyTypeScope, names)
	if err != nil {
		return nil, err
	}
	list := make([]*scopes.Scope, 0, len(records))
	for _, raw := range records {
		var sc scopes.Scope
		if err := json.Unmarshal(raw, &sc); err != nil {
			return nil, apperrors.Wrapf(err, "failed to unmarshal scope")
		}
		list = append(list, &sc)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}
