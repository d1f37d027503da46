package auth

import (
	"context"
	"maps"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-oauth20-server/clients"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/token"
)

// IssueAccessToken handles a token endpoint request. values are the request parameters and
// authorizationHeader the raw Authorization header, whose Basic credentials only fill client
// credentials missing from values. r is handed to the user authenticator and custom grant handler.
func (as *AuthorizationServer) IssueAccessToken(ctx context.Context, values url.Values, authorizationHeader string, r *http.Request) (*token.AccessToken, error) {
	tr := oauthmodel.NewTokenRequest(values, oauthmodel.BasicCredentials(authorizationHeader))
	at, err := as.issueAccessToken(ctx, tr, r)
	if err != nil {
		return nil, as.fail(OpToken, err)
	}
	as.metrics.TokenIssued(tr.GrantType)
	return at, nil
}

func (as *AuthorizationServer) issueAccessToken(ctx context.Context, tr *oauthmodel.TokenRequest, r *http.Request) (*token.AccessToken, error) {
	if err := tr.Validate(as.customGrantType); err != nil {
		return nil, err
	}
	if tr.ClientSecret == "" {
		return nil, oauthmodel.MissingParameter(oauthmodel.ParamClientSecret)
	}

	client, err := as.clients.ActiveClient(ctx, tr.ClientID, tr.ClientSecret)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, oauthmodel.ErrInvalidClientCredentials
	}

	handler, ok := as.grants[oauth2.GrantType(tr.GrantType)]
	if !ok {
		return nil, oauthmodel.ErrUnsupportedGrantType
	}
	return handler(ctx, tr, client, r)
}

func (as *AuthorizationServer) authorizationCodeGrant(ctx context.Context, tr *oauthmodel.TokenRequest, _ *clients.ClientCredentials, _ *http.Request) (*token.AccessToken, error) {
	code, err := as.store.FindAuthCode(ctx, tr.Code, tr.RedirectURI)
	if apperrors.IsNotFound(err) {
		return nil, oauthmodel.ErrInvalidAuthCode
	}
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.authorizationCodeGrant", err)
	}
	if code.IsExpired(as.nowTime(), as.authCodeTimeout) {
		return nil, oauthmodel.ErrInvalidAuthCode
	}
	if code.ClientID != tr.ClientID {
		return nil, oauthmodel.ErrInvalidClientCredentials
	}
	if code.RedirectURI != tr.RedirectURI {
		return nil, oauthmodel.ErrInvalidRedirectURI
	}

	return as.issueToken(ctx, oauth2.AuthorizationCodeGrant, tr.ClientID, tr.UserID, code.Scope, nil, true)
}

func (as *AuthorizationServer) refreshTokenGrant(ctx context.Context, tr *oauthmodel.TokenRequest, _ *clients.ClientCredentials, _ *http.Request) (*token.AccessToken, error) {
	previous, err := as.store.FindAccessTokenByRefreshToken(ctx, tr.RefreshToken, tr.ClientID)
	if apperrors.IsNotFound(err) {
		return nil, oauthmodel.ErrInvalidRefreshToken
	}
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.refreshTokenGrant", err)
	}

	now := as.nowTime()
	if previous.RefreshExpired(now) {
		if err := as.store.RemoveAccessToken(ctx, previous.Token); err != nil && !apperrors.IsNotFound(err) {
			return nil, oauthmodel.Infrastructure("AuthorizationServer.refreshTokenGrant", err)
		}
		return nil, oauthmodel.ErrRefreshTokenExpired
	}

	scope := previous.Scope
	if requested := oauthmodel.NormalizeScope(tr.Scope); requested != "" {
		if !as.scopes.ScopeAllowed(requested, previous.Scope) {
			return nil, oauthmodel.ErrInvalidScope
		}
		scope = requested
	}

	expiresIn, err := as.scopes.ExpiresIn(ctx, oauth2.PasswordGrant, scope)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.refreshTokenGrant", err)
	}
	value, err := as.generator.NewToken()
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.refreshTokenGrant", err)
	}

	refreshCreatedAt := previous.RefreshCreatedAt
	if refreshCreatedAt.IsZero() {
		refreshCreatedAt = previous.CreatedAt
	}
	renewed := &token.AccessToken{
		Token:            value,
		RefreshToken:     previous.RefreshToken,
		ExpiresIn:        expiresIn,
		RefreshExpiresIn: previous.RefreshExpiresIn,
		Type:             oauth2.TokenTypeBearer,
		Scope:            scope,
		Valid:            true,
		ClientID:         previous.ClientID,
		UserID:           previous.UserID,
		Details:          maps.Clone(previous.Details),
		CreatedAt:        now,
		RefreshCreatedAt: refreshCreatedAt,
	}

	// Renewal invalidates previous and moves the refresh token over in one step, losing to a
	// concurrent refresh of the same token.
	renewedOK, err := as.store.RenewAccessToken(ctx, previous, renewed)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.refreshTokenGrant", err)
	}
	if !renewedOK {
		return nil, oauthmodel.ErrInvalidRefreshToken
	}
	return renewed, nil
}

func (as *AuthorizationServer) clientCredentialsGrant(ctx context.Context, tr *oauthmodel.TokenRequest, client *clients.ClientCredentials, _ *http.Request) (*token.AccessToken, error) {
	scope, err := as.scopes.ValidScopeByScopeString(ctx, tr.Scope, client.Scope)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.clientCredentialsGrant", err)
	}
	if scope == "" {
		return nil, oauthmodel.ErrInvalidScope
	}
	return as.issueToken(ctx, oauth2.ClientCredentialsGrant, client.ID, "", scope, client.ApplicationDetails, false)
}

func (as *AuthorizationServer) passwordGrant(ctx context.Context, tr *oauthmodel.TokenRequest, _ *clients.ClientCredentials, r *http.Request) (*token.AccessToken, error) {
	user, err := as.authenticator.Authenticate(ctx, tr.Username, tr.Password, r)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.passwordGrant", err)
	}
	if user == nil {
		return nil, oauthmodel.ErrInvalidUsernamePassword
	}
	return as.resourceOwnerToken(ctx, tr, user)
}

func (as *AuthorizationServer) customGrant(ctx context.Context, tr *oauthmodel.TokenRequest, _ *clients.ClientCredentials, r *http.Request) (*token.AccessToken, error) {
	user, err := as.customHandler.Handle(ctx, r)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.customGrant", err)
	}
	if user == nil {
		return nil, oauthmodel.ErrInvalidScope
	}
	return as.resourceOwnerToken(ctx, tr, user)
}

// resourceOwnerToken issues a token with a refresh token for an authenticated user.
func (as *AuthorizationServer) resourceOwnerToken(ctx context.Context, tr *oauthmodel.TokenRequest, user *UserDetails) (*token.AccessToken, error) {
	tr.UserID = user.UserID

	scope, err := as.scopes.ValidScopeForClient(ctx, tr.Scope, tr.ClientID)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.resourceOwnerToken", err)
	}
	if scope == "" {
		return nil, oauthmodel.ErrInvalidScope
	}
	return as.issueToken(ctx, oauth2.PasswordGrant, tr.ClientID, tr.UserID, scope, user.Details, true)
}

// issueToken builds and stores a new access token whose lifetime is resolved for grantType.
func (as *AuthorizationServer) issueToken(ctx context.Context, grantType oauth2.GrantType, clientID, userID, scope string, details map[string]string, withRefresh bool) (*token.AccessToken, error) {
	expiresIn, err := as.scopes.ExpiresIn(ctx, grantType, scope)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.issueToken", err)
	}
	value, err := as.generator.NewToken()
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.issueToken", err)
	}

	now := as.nowTime()
	at := &token.AccessToken{
		Token:     value,
		ExpiresIn: expiresIn,
		Type:      oauth2.TokenTypeBearer,
		Scope:     scope,
		Valid:     true,
		ClientID:  clientID,
		UserID:    userID,
		Details:   maps.Clone(details),
		CreatedAt: now,
	}

	if withRefresh {
		if at.RefreshToken, err = as.generator.NewToken(); err != nil {
			return nil, oauthmodel.Infrastructure("AuthorizationServer.issueToken", err)
		}
		if at.RefreshExpiresIn, err = as.scopes.ExpiresIn(ctx, oauth2.RefreshTokenGrant, scope); err != nil {
			return nil, oauthmodel.Infrastructure("AuthorizationServer.issueToken", err)
		}
		at.RefreshCreatedAt = now
	}

	if err := as.store.StoreAccessToken(ctx, at); err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.issueToken", err)
	}
	return at, nil
}
