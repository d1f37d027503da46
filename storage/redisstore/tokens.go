package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/token"
	"github.com/redis/go-redis/v9"
)

// consumeCodeScript consumes a valid authorization code when the redirect URI matches.
// Returns {0, ""} when the code is absent or consumed, {2, data} on a redirect mismatch
// (the code stays valid) and {1, data} once consumed.
var consumeCodeScript = redis.NewScript(`
local fields = redis.call('HMGET', KEYS[1], 'data', 'valid', 'redirect_uri')
if not fields[1] or fields[2] ~= '1' then
	return {0, ''}
end
if fields[3] ~= ARGV[1] then
	return {2, fields[1]}
end
redis.call('HSET', KEYS[1], 'valid', '0')
return {1, fields[1]}
`)

// setValidScript sets the validity flag of an access token.
// Returns -1 when the token is absent, 0 when unchanged, 1 when changed.
var setValidScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'valid')
if not current then
	return -1
end
if current == ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'valid', ARGV[1])
return 1
`)

// renewScript replaces the latest token of a refresh token.
// KEYS: refresh index, previous token, renewed token. ARGV: previous value, renewed value,
// renewed record. Returns 0 when the index no longer points at the previous token.
var renewScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) ~= ARGV[1] then
	return 0
end
if redis.call('EXISTS', KEYS[2]) == 1 then
	redis.call('HSET', KEYS[2], 'valid', '0')
end
redis.call('HSET', KEYS[3], 'data', ARGV[3], 'valid', '1')
redis.call('SET', KEYS[1], ARGV[2])
return 1
`)

// removeRefreshableTokenScript deletes an access token and, when it is still the latest token
// of its refresh token, the refresh index entry. KEYS: token, refresh index. ARGV: token value.
var removeRefreshableTokenScript = redis.NewScript(`
if redis.call('DEL', KEYS[1]) == 0 then
	return 0
end
if redis.call('GET', KEYS[2]) == ARGV[1] then
	redis.call('DEL', KEYS[2])
end
return 1
`)

func validFlag(valid bool) string {
	if valid {
		return "1"
	}
	return "0"
}

// refreshKey length-prefixes the client ID so IDs containing the separator cannot collide.
func (s *RedisStorage) refreshKey(clientID, refreshToken string) string {
	return s.key(keyTypeRefresh, strconv.Itoa(len(clientID)), clientID, refreshToken)
}

// -----------------------
// token.Repo
// -----------------------

func (s *RedisStorage) StoreAccessToken(ctx context.Context, at *token.AccessToken) error {
	if at == nil {
		return apperrors.ErrNilRecord
	}
	data, err := json.Marshal(at)
	if err != nil {
		return apperrors.Wrapf(err, "failed to marshal access token")
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key(keyTypeToken, at.Token), fieldData, data, fieldValid, validFlag(at.Valid))
		if at.RefreshToken != "" {
			pipe.Set(ctx, s.refreshKey(at.ClientID, at.RefreshToken), at.Token, 0)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(err, "failed to store access token")
	}
	return nil
}

func (s *RedisStorage) FindAccessToken(ctx context.Context, value string) (*token.AccessToken, error) {
	fields, err := s.client.HMGet(ctx, s.key(keyTypeToken, value), fieldData, fieldValid).Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to get access token")
	}
	data, ok := fields[0].(string)
	if !ok {
		return nil, notFound("access token")
	}

	var at token.AccessToken
	if err := json.Unmarshal([]byte(data), &at); err != nil {
		return nil, apperrors.Wrapf(err, "failed to unmarshal access token")
	}
	at.Valid = fields[1] == "1"
	return &at, nil
}

func (s *RedisStorage) FindAccessTokenByRefreshToken(ctx context.Context, refreshToken, clientID string) (*token.AccessToken, error) {
	if refreshToken == "" {
		return nil, notFound("refresh token")
	}
	value, err := s.client.Get(ctx, s.refreshKey(clientID, refreshToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, notFound("refresh token")
		}
		return nil, apperrors.Wrapf(err, "failed to get refresh token")
	}
	return s.FindAccessToken(ctx, value)
}

func (s *RedisStorage) UpdateAccessTokenValidStatus(ctx context.Context, value string, valid bool) (bool, error) {
	result, err := setValidScript.Run(ctx, s.client, []string{s.key(keyTypeToken, value)}, validFlag(valid)).Int()
	if err != nil {
		return false, apperrors.Wrapf(err, "failed to update access token")
	}
	if result < 0 {
		return false, notFound("access token")
	}
	return result == 1, nil
}

func (s *RedisStorage) RenewAccessToken(ctx context.Context, previous, renewed *token.AccessToken) (bool, error) {
	if previous == nil || renewed == nil {
		return false, apperrors.ErrNilRecord
	}
	renewed.Valid = true
	data, err := json.Marshal(renewed)
	if err != nil {
		return false, apperrors.Wrapf(err, "failed to marshal access token")
	}

	keys := []string{
		s.refreshKey(previous.ClientID, previous.RefreshToken),
		s.key(keyTypeToken, previous.Token),
		s.key(keyTypeToken, renewed.Token),
	}
	result, err := renewScript.Run(ctx, s.client, keys, previous.Token, renewed.Token, data).Int()
	if err != nil {
		return false, apperrors.Wrapf(err, "failed to renew access token")
	}
	return result == 1, nil
}

func (s *RedisStorage) RemoveAccessToken(ctx context.Context, value string) error {
	at, err := s.FindAccessToken(ctx, value)
	if err != nil {
		return err
	}
	tokenKey := s.key(keyTypeToken, value)
	var result int64
	if at.RefreshToken != "" {
		keys := []string{tokenKey, s.refreshKey(at.ClientID, at.RefreshToken)}
		result, err = removeRefreshableTokenScript.Run(ctx, s.client, keys, value).Int64()
	} else {
		result, err = s.client.Del(ctx, tokenKey).Result()
	}
	if err != nil {
		return apperrors.Wrapf(err, "failed to remove access token")
	}
	if result == 0 {
		return notFound("access token")
	}
	return nil
}

func (s *RedisStorage) StoreAuthCode(ctx context.Context, code *token.AuthCode) error {
	if code == nil {
		return apperrors.ErrNilRecord
	}
	data, err := json.Marshal(code)
	if err != nil {
		return apperrors.Wrapf(err, "failed to marshal auth code")
	}

	key := s.key(keyTypeCode, code.Code)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldData, data, fieldValid, validFlag(code.Valid), fieldRedirectURI, code.RedirectURI)
		pipe.Expire(ctx, key, s.authCodeTTL)
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(err, "failed to store auth code")
	}
	return nil
}

func (s *RedisStorage) FindAuthCode(ctx context.Context, code, redirectURI string) (*token.AuthCode, error) {
	result, err := consumeCodeScript.Run(ctx, s.client, []string{s.key(keyTypeCode, code)}, redirectURI).Slice()
	if err != nil {
		return nil, apperrors.Wrapf(err, "failed to consume auth code")
	}
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected auth code script result: %v", result)
	}
	status, _ := result[0].(int64)
	data, _ := result[1].(string)
	if status == 0 || data == "" {
		return nil, notFound("auth code")
	}

	var ac token.AuthCode
	if err := json.Unmarshal([]byte(data), &ac); err != nil {
		return nil, apperrors.Wrapf(err, "failed to unmarshal auth code")
	}
	ac.Valid = true
	return &ac, nil
}
