package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/token"
)

// Operation names reported to the Recorder.
const (
	OpAuthorize = "authorize"
	OpToken     = "token"
	OpRevoke    = "revoke"
)

type grantHandler func(ctx context.Context, tr *oauthmodel.TokenRequest, client *clients.ClientCredentials, r *http.Request) (*token.AccessToken, error)

// AuthorizationServer issues, validates, refreshes and revokes credentials against the
// injected store.
type AuthorizationServer struct {
	store           storage.Storage
	clients         *clients.Manager
	scopes          *scopes.Service
	generator       *token.Generator
	authCodeTimeout time.Duration
	authenticator   UserAuthenticator
	customGrantType string
	customHandler   GrantTypeHandler
	grants          map[oauth2.GrantType]grantHandler
	metrics         Recorder
	clientOptions   []clients.ManagerOption
	nowTime         func() time.Time
}

// Option defines a function type to modify the AuthorizationServer instance.
type Option func(*AuthorizationServer)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(as *AuthorizationServer) {
		as.nowTime = nowFunc
	}
}

// WithUserAuthenticator enables the password grant.
func WithUserAuthenticator(authenticator UserAuthenticator) Option {
	return func(as *AuthorizationServer) {
		as.authenticator = authenticator
	}
}

// WithCustomGrantType enables a deployment specific grant type handled by handler. An empty name
// falls back to the configured custom grant type.
func WithCustomGrantType(name string, handler GrantTypeHandler) Option {
	return func(as *AuthorizationServer) {
		if name != "" {
			as.customGrantType = name
		}
		as.customHandler = handler
	}
}

// WithClientOptions configures the client application manager.
func WithClientOptions(options ...clients.ManagerOption) Option {
	return func(as *AuthorizationServer) {
		as.clientOptions = append(as.clientOptions, options...)
	}
}

// WithMetrics reports issued tokens and codes, revocations and failed requests to recorder.
// A nil recorder keeps the no-op default.
func WithMetrics(recorder Recorder) Option {
	return func(as *AuthorizationServer) {
		if recorder != nil {
			as.metrics = recorder
		}
	}
}

// NewAuthorizationServer builds the engine and its grant dispatch table. The password grant is
// only dispatched with a UserAuthenticator and the custom grant only with a handler.
func NewAuthorizationServer(store storage.Storage, cfg config.OAuthConfig, options ...Option) (*AuthorizationServer, error) {
	if store == nil {
		return nil, errors.New("[NewAuthorizationServer] store is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewAuthorizationServer] oauth config is required")
	}

	as := &AuthorizationServer{
		store:           store,
		generator:       token.NewGenerator(cfg.GetTokenLength(), cfg.GetCodeGenerationLength()),
		authCodeTimeout: cfg.GetAuthCodeTimeout(),
		customGrantType: cfg.GetCustomGrantType(),
		metrics:         noopRecorder{},
		nowTime:         time.Now,
	}
	for _, opt := range options {
		opt(as)
	}

	as.scopes = scopes.NewService(store, store, cfg)
	clientOptions := append([]clients.ManagerOption{clients.WithNowTime(func() time.Time { return as.nowTime() })}, as.clientOptions...)
	manager, err := clients.NewManager(store, as.scopes, clientOptions...)
	if err != nil {
		return nil, err
	}
	as.clients = manager

	as.grants = map[oauth2.GrantType]grantHandler{
		oauth2.AuthorizationCodeGrant: as.authorizationCodeGrant,
		oauth2.RefreshTokenGrant:      as.refreshTokenGrant,
		oauth2.ClientCredentialsGrant: as.clientCredentialsGrant,
	}
	if as.authenticator != nil {
		as.grants[oauth2.PasswordGrant] = as.passwordGrant
	}
	if as.customHandler != nil && as.customGrantType != "" {
		as.grants[oauth2.GrantType(as.customGrantType)] = as.customGrant
	}
	return as, nil
}

// Clients exposes the client application manager to the transport.
func (as *AuthorizationServer) Clients() *clients.Manager {
	return as.clients
}

// Scopes exposes the scope service to the transport.
func (as *AuthorizationServer) Scopes() *scopes.Service {
	return as.scopes
}

// SupportsGrantType reports whether grantType has a handler.
func (as *AuthorizationServer) SupportsGrantType(grantType oauth2.GrantType) bool {
	_, ok := as.grants[grantType]
	return ok
}

// fail reports err to the metrics recorder and returns it.
func (as *AuthorizationServer) fail(operation string, err error) error {
	code := oauthmodel.CodeServerError
	if te, ok := oauthmodel.AsTokenError(err); ok {
		code = te.Code
	}
	as.metrics.RequestFailed(operation, code)
	return err
}
