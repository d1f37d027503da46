package memory

import (
	"context"
	"crypto/subtle"
	"maps"
	"sort"
	"sync"

	"github.com/jrsteele09/go-oauth20-server/clients"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/token"
)

var _ storage.Storage = (*Store)(nil)

// Store is an in-memory storage.Storage. A single lock guards every map, which makes each
// compound operation (code consumption, validity updates, renewals) atomic.
type Store struct {
	clients      map[string]*clients.ClientCredentials
	scopes       map[string]*scopes.Scope
	accessTokens map[string]*token.AccessToken
	refreshIndex map[string]string // clientID + refresh token -> latest access token
	authCodes    map[string]*token.AuthCode
	lock         sync.RWMutex
}

func New() *Store {
	return &Store{
		clients:      make(map[string]*clients.ClientCredentials),
		scopes:       make(map[string]*scopes.Scope),
		accessTokens: make(map[string]*token.AccessToken),
		refreshIndex: make(map[string]string),
		authCodes:    make(map[string]*token.AuthCode),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func refreshKey(clientID, refreshToken string) string {
	return clientID + "\x00" + refreshToken
}

func copyClient(c *clients.ClientCredentials) *clients.ClientCredentials {
	cp := *c
	cp.ApplicationDetails = maps.Clone(c.ApplicationDetails)
	return &cp
}

// -----------------------
// clients.Repo
// -----------------------

func (s *Store) StoreClientCredentials(_ context.Context, creds *clients.ClientCredentials) error {
	if creds == nil {
		return apperrors.ErrNilRecord
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.clients[creds.ID]; ok {
		return apperrors.Wrapf(storage.ErrAlreadyExists, "client %s", creds.ID)
	}
	s.clients[creds.ID] = copyClient(creds)
	return nil
}

func (s *Store) FindClientCredentials(_ context.Context, clientID string) (*clients.ClientCredentials, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return nil, apperrors.Wrapf(storage.ErrNotFound, "client %s", clientID)
	}
	return copyClient(c), nil
}

func (s *Store) UpdateClientCredentials(_ context.Context, creds *clients.ClientCredentials) error {
	if creds == nil {
		return apperrors.ErrNilRecord
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.clients[creds.ID]; !ok {
		return apperrors.Wrapf(storage.ErrNotFound, "client %s", creds.ID)
	}
	s.clients[creds.ID] = copyClient(creds)
	return nil
}

func (s *Store) DeleteClientApp(_ context.Context, clientID string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.clients[clientID]; !ok {
		return apperrors.Wrapf(storage.ErrNotFound, "client %s", clientID)
	}
	delete(s.clients, clientID)
	return nil
}

func (s *Store) ListClientCredentials(context.Context) ([]*clients.ClientCredentials, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	list := make([]*clients.ClientCredentials, 0, len(s.clients))
	for _, c := range s.clients {
		list = append(list, copyClient(c))
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *Store) ValidClient(_ context.Context, clientID, clientSecret string) (bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	c, ok := s.clients[clientID]
	if !ok {
		return false, apperrors.Wrapf(storage.ErrNotFound, "client %s", clientID)
	}
	return subtle.ConstantTimeCompare([]byte(c.Secret), []byte(clientSecret)) == 1, nil
}

// -----------------------
// scopes.Repo
// -----------------------

func (s *Store) StoreScope(_ context.Context, scope *scopes.Scope) error {
	if scope == nil {
		return apperrors.ErrNilRecord
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	cp := *scope
	s.scopes[scope.Name] = &cp
	return nil
}

func (s *Store) FindScope(_ context.Context, name string) (*scopes.Scope, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	sc, ok := s.scopes[name]
	if !ok {
		return nil, apperrors.Wrapf(storage.ErrNotFound, "scope %s", name)
	}
	cp := *sc
	return &cp, nil
}

func (s *Store) ListScopes(context.Context) ([]*scopes.Scope, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	list := make([]*scopes.Scope, 0, len(s.scopes))
	for _, sc := range s.scopes {
		cp := *sc
		list = append(list, &cp)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list, nil
}

// -----------------------
// token.Repo
// -----------------------

func (s *Store) StoreAccessToken(_ context.Context, at *token.AccessToken) error {
	if at == nil {
		return apperrors.ErrNilRecord
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.storeAccessTokenLocked(at)
	return nil
}

func (s *Store) storeAccessTokenLocked(at *token.AccessToken) {
	s.accessTokens[at.Token] = at.Copy()
	if at.RefreshToken != "" {
		s.refreshIndex[refreshKey(at.ClientID, at.RefreshToken)] = at.Token
	}
}

func (s *Store) FindAccessToken(_ context.Context, value string) (*token.AccessToken, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	at, ok := s.accessTokens[value]
	if !ok {
		return nil, apperrors.Wrapf(storage.ErrNotFound, "access token")
	}
	return at.Copy(), nil
}

func (s *Store) FindAccessTokenByRefreshToken(_ context.Context, refreshToken, clientID string) (*token.AccessToken, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	value, ok := s.refreshIndex[refreshKey(clientID, refreshToken)]
	if !ok {
		return nil, apperrors.Wrapf(storage.ErrNotFound, "refresh token")
	}
	at, ok := s.accessTokens[value]
	if !ok {
		return nil, apperrors.Wrapf(storage.ErrNotFound, "access token for refresh token")
	}
	return at.Copy(), nil
}

func (s *Store) UpdateAccessTokenValidStatus(_ context.Context, value string, valid bool) (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	at, ok := s.accessTokens[value]
	if !ok {
		return false, apperrors.Wrapf(storage.ErrNotFound, "access token")
	}
	if at.Valid == valid {
		return false, nil
	}
	at.Valid = valid
	return true, nil
}

func (s *Store) RenewAccessToken(_ context.Context, previous, renewed *token.AccessToken) (bool, error) {
	if previous == nil || renewed == nil {
		return false, apperrors.ErrNilRecord
	}
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.refreshIndex[refreshKey(previous.ClientID, previous.RefreshToken)] != previous.Token {
		return false, nil
	}
	if old, ok := s.accessTokens[previous.Token]; ok {
		old.Valid = false
	}
	s.storeAccessTokenLocked(renewed)
	return true, nil
}

func (s *Store) RemoveAccessToken(_ context.Context, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	at, ok := s.accessTokens[value]
	if !ok {
		return apperrors.Wrapf(storage.ErrNotFound, "access token")
	}
	delete(s.accessTokens, value)
	key := refreshKey(at.ClientID, at.RefreshToken)
	if at.RefreshToken != "" && s.refreshIndex[key] == value {
		delete(s.refreshIndex, key)
	}
	return nil
}

func (s *Store) StoreAuthCode(_ context.Context, code *token.AuthCode) error {
	if code == nil {
		return apperrors.ErrNilRecord
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.authCodes[code.Code] = code.Copy()
	return nil
}

func (s *Store) FindAuthCode(_ context.Context, code, redirectURI string) (*token.AuthCode, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	ac, ok := s.authCodes[code]
	if !ok || !ac.Valid {
		return nil, apperrors.Wrapf(storage.ErrNotFound, "auth code")
	}
	if ac.RedirectURI != redirectURI {
		return ac.Copy(), nil
	}
	ac.Valid = false
	found := ac.Copy()
	found.Valid = true
	return found, nil
}
