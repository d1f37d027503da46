package scopes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
)

var (
	ErrScopeExists       = errors.New("scope already exists")
	ErrInvalidScopeName  = errors.New("invalid scope name")
	ErrNegativeExpiresIn = errors.New("expires in values must not be negative")
)

// ClientFinder is the part of the client store the scope engine needs.
type ClientFinder interface {
	FindClientCredentials(ctx context.Context, clientID string) (*clients.ClientCredentials, error)
}

// Service validates requested scopes and resolves token lifetimes.
type Service struct {
	repo    Repo
	clients ClientFinder
	config  config.OAuthConfig
}

func NewService(repo Repo, clientFinder ClientFinder, cfg config.OAuthConfig) *Service {
	return &Service{
		repo:    repo,
		clients: clientFinder,
		config:  cfg,
	}
}

// ValidScopeForClient returns the normalized requested scope when every token is a registered
// scope allowed to the client. An empty request yields the client's registered scope.
// An empty result with a nil error means the scope is not valid.
func (s *Service) ValidScopeForClient(ctx context.Context, requested, clientID string) (string, error) {
	client, err := s.clients.FindClientCredentials(ctx, clientID)
	if apperrors.IsNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[Service.ValidScopeForClient] %w", err)
	}
	return s.ValidScopeByScopeString(ctx, requested, client.Scope)
}

// ValidScopeByScopeString is ValidScopeForClient with the ceiling given explicitly.
func (s *Service) ValidScopeByScopeString(ctx context.Context, requested, available string) (string, error) {
	if oauthmodel.NormalizeScope(requested) == "" {
		return oauthmodel.NormalizeScope(available), nil
	}
	if !oauthmodel.ScopeContains(requested, available) {
		return "", nil
	}
	exist, err := s.ScopesExist(ctx, requested)
	if err != nil {
		return "", fmt.Errorf("[Service.ValidScopeByScopeString] %w", err)
	}
	if !exist {
		return "", nil
	}
	return oauthmodel.NormalizeScope(requested), nil
}

// ScopeAllowed reports whether requested narrows tokenScope.
func (s *Service) ScopeAllowed(requested, tokenScope string) bool {
	return oauthmodel.ScopeContains(requested, tokenScope)
}

// ScopesExist reports whether every token of scope is a registered Scope.
// An empty scope does not exist.
func (s *Service) ScopesExist(ctx context.Context, scope string) (bool, error) {
	names := oauthmodel.SplitScope(scope)
	if len(names) == 0 {
		return false, nil
	}
	for _, name := range names {
		_, err := s.repo.FindScope(ctx, name)
		if apperrors.IsNotFound(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// ExpiresIn resolves the access token lifetime for grantType from the first scope token with
// a lifetime configured for it, falling back to the configured default. The value is returned
// as decimal seconds.
func (s *Service) ExpiresIn(ctx context.Context, grantType oauth2.GrantType, scope string) (string, error) {
	for _, name := range oauthmodel.SplitScope(scope) {
		sc, err := s.repo.FindScope(ctx, name)
		if apperrors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("[Service.ExpiresIn] %w", err)
		}
		if secs := sc.ExpiresIn(grantType); secs > 0 {
			return strconv.Itoa(secs), nil
		}
	}

	fallback := s.config.GetDefaultAccessTokenExpiry()
	if grantType == oauth2.RefreshTokenGrant {
		fallback = s.config.GetDefaultRefreshTokenExpiry()
	}
	return strconv.Itoa(int(fallback / time.Second)), nil
}

// Register stores a new scope.
func (s *Service) Register(ctx context.Context, scope *Scope) error {
	if err := oauthmodel.ValidateScopeName(scope.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidScopeName, err)
	}
	if scope.CCExpiresIn < 0 || scope.PassExpiresIn < 0 || scope.RefreshExpiresIn < 0 || scope.AuthCodeExpiresIn < 0 {
		return ErrNegativeExpiresIn
	}

	_, err := s.repo.FindScope(ctx, scope.Name)
	if err == nil {
		return ErrScopeExists
	}
	if !apperrors.IsNotFound(err) {
		return fmt.Errorf("[Service.Register] %w", err)
	}

	if err := s.repo.StoreScope(ctx, scope); err != nil {
		return fmt.Errorf("[Service.Register] failed to store scope %s: %w", scope.Name, err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, name string) (*Scope, error) {
	return s.repo.FindScope(ctx, name)
}

func (s *Service) List(ctx context.Context) ([]*Scope, error) {
	return s.repo.ListScopes(ctx)
}
