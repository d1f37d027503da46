package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-oauth20-server/clients"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/token"
)

// IsValidToken returns the token when it exists, is valid and has not expired, nil otherwise.
// An expired token is invalidated on first sight.
func (as *AuthorizationServer) IsValidToken(ctx context.Context, value string) (*token.AccessToken, error) {
	if value == "" {
		return nil, nil
	}
	at, err := as.store.FindAccessToken(ctx, value)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.IsValidToken", err)
	}
	if !at.Valid {
		return nil, nil
	}
	if at.IsExpired(as.nowTime()) {
		if _, err := as.store.UpdateAccessTokenValidStatus(ctx, at.Token, false); err != nil && !apperrors.IsNotFound(err) {
			return nil, oauthmodel.Infrastructure("AuthorizationServer.IsValidToken", err)
		}
		return nil, nil
	}
	return at, nil
}

// RevokeToken removes an access token held by the requesting client. It reports false when the
// token does not exist or belongs to another client. Expired tokens count as revoked.
func (as *AuthorizationServer) RevokeToken(ctx context.Context, req *oauthmodel.RevokeRequest) (bool, error) {
	revoked, err := as.revokeToken(ctx, req)
	if err != nil {
		return false, as.fail(OpRevoke, err)
	}
	as.metrics.TokenRevoked(revoked)
	return revoked, nil
}

func (as *AuthorizationServer) revokeToken(ctx context.Context, req *oauthmodel.RevokeRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}

	var (
		known bool
		err   error
	)
	if req.ClientSecret != "" {
		known, err = as.clients.IsValidClientCredentials(ctx, req.ClientID, req.ClientSecret)
	} else {
		known, err = as.clients.IsExistingClient(ctx, req.ClientID)
	}
	if err != nil {
		return false, err
	}
	if !known {
		return false, oauthmodel.ErrInactiveClientCredentials
	}

	at, err := as.store.FindAccessToken(ctx, req.AccessToken)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, oauthmodel.Infrastructure("AuthorizationServer.RevokeToken", err)
	}
	if at.IsExpired(as.nowTime()) {
		return true, nil
	}
	if at.ClientID != req.ClientID {
		return false, nil
	}

	err = as.store.RemoveAccessToken(ctx, at.Token)
	if apperrors.IsNotFound(err) {
		// Removed concurrently.
		return true, nil
	}
	if err != nil {
		return false, oauthmodel.Infrastructure("AuthorizationServer.RevokeToken", err)
	}
	return true, nil
}

// GetApplicationInfo returns the public details of a client application, nil when it does not exist.
func (as *AuthorizationServer) GetApplicationInfo(ctx context.Context, clientID string) (*oauth2.ApplicationInfo, error) {
	creds, err := as.clients.Get(ctx, clientID)
	if err != nil || creds == nil {
		return nil, err
	}
	return ApplicationInfoOf(creds), nil
}

// ApplicationInfoOf projects creds onto the fields that may be shown to anyone.
func ApplicationInfoOf(creds *clients.ClientCredentials) *oauth2.ApplicationInfo {
	return &oauth2.ApplicationInfo{
		ID:          creds.ID,
		Name:        creds.Name,
		Description: creds.Description,
		Status:      int(creds.Status),
		Registered:  creds.CreatedAt.UTC().Format(time.RFC3339),
	}
}
