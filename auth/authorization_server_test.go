package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/storage/memory"
	"github.com/jrsteele09/go-oauth20-server/token"
	"github.com/jrsteele09/go-oauth20-server/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestNewAuthorizationServer_RequiresDependencies(t *testing.T) {
	_, err := auth.NewAuthorizationServer(nil, testConfig{})
	require.Error(t, err)
	_, err = auth.NewAuthorizationServer(memory.New(), nil)
	require.Error(t, err)
}

func TestIssueAccessToken_MissingParameters(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.server.IssueAccessToken(ctx, url.Values{"grant_type": {"client_credentials"}}, "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrMissingParameter)
	require.Contains(t, err.Error(), "client_id")

	_, err = f.server.IssueAccessToken(ctx, url.Values{"client_id": {testClientID}}, "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrMissingParameter)
	require.Contains(t, err.Error(), "grant_type")

	_, err = f.server.IssueAccessToken(ctx, tokenValues("authorization_code", "client_id", testClientID, "redirect_uri", testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrMissingParameter)

	// no secret in the body and no Basic header
	_, err = f.server.IssueAccessToken(ctx, tokenValues("client_credentials", "client_id", testClientID), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrMissingParameter)
	require.NotErrorIs(t, err, oauthmodel.ErrInvalidClientCredentials)
	require.Contains(t, err.Error(), "client_secret")

	require.Equal(t, 4, f.metrics.failures[auth.OpToken+":invalid_request"])
}

func TestIssueAccessToken_UnsupportedGrantType(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.server.IssueAccessToken(ctx, tokenValues("implicit", "client_id", testClientID, "client_secret", testClientSecret), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrUnsupportedGrantType)

	// Without an authenticator the password grant is not dispatched.
	_, err = f.server.IssueAccessToken(ctx, tokenValues("password",
		"client_id", testClientID, "client_secret", testClientSecret, "username", testUsername, "password", testPassword), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrUnsupportedGrantType)
	require.False(t, f.server.SupportsGrantType("password"))
}

func TestIssueAccessToken_ClientAuthentication(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		values url.Values
		header string
		err    error
	}{
		{
			name:   "wrong secret",
			values: tokenValues("client_credentials", "client_id", testClientID, "client_secret", "wrong"),
			err:    oauthmodel.ErrInvalidClientCredentials,
		},
		{
			name:   "inactive client",
			values: tokenValues("client_credentials", "client_id", inactiveClientID, "client_secret", inactiveSecret),
			err:    oauthmodel.ErrInvalidClientCredentials,
		},
		{
			name:   "unknown client",
			values: tokenValues("client_credentials", "client_id", "nobody", "client_secret", "secret"),
			err:    oauthmodel.ErrInvalidClientCredentials,
		},
		{
			name:   "basic header supplies credentials",
			values: tokenValues("client_credentials"),
			header: basicHeader(testClientID, testClientSecret),
		},
		{
			name:   "basic header fills the missing secret",
			values: tokenValues("client_credentials", "client_id", testClientID),
			header: basicHeader(otherClientID, testClientSecret),
		},
		{
			name:   "body credentials win over the header",
			values: tokenValues("client_credentials", "client_id", testClientID, "client_secret", "wrong"),
			header: basicHeader(testClientID, testClientSecret),
			err:    oauthmodel.ErrInvalidClientCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, err := f.server.IssueAccessToken(ctx, tt.values, tt.header, nil)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				require.Nil(t, at)
				return
			}
			require.NoError(t, err)
			require.Equal(t, testClientID, at.ClientID)
		})
	}
}

func TestClientCredentialsGrant(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	at, err := f.server.IssueAccessToken(ctx, tokenValues("client_credentials",
		"client_id", testClientID, "client_secret", testClientSecret, "scope", "basic"), "", nil)
	require.NoError(t, err)
	require.Len(t, at.Token, 64)
	require.Empty(t, at.RefreshToken)
	require.Empty(t, at.UserID)
	require.Equal(t, "bearer", at.Type)
	require.Equal(t, "basic", at.Scope)
	require.Equal(t, "1800", at.ExpiresIn)
	require.Equal(t, "data", at.Details["my"])
	require.Equal(t, 1, f.metrics.issued["client_credentials"])

	// The client's registered scope is used when none is requested.
	at, err = f.server.IssueAccessToken(ctx, tokenValues("client_credentials",
		"client_id", testClientID, "client_secret", testClientSecret), "", nil)
	require.NoError(t, err)
	require.Equal(t, "basic extended", at.Scope)

	_, err = f.server.IssueAccessToken(ctx, tokenValues("client_credentials",
		"client_id", otherClientID, "client_secret", otherClientSecret, "scope", "extended"), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidScope)

	stored, err := f.store.FindAccessToken(ctx, at.Token)
	require.NoError(t, err)
	require.True(t, stored.Valid)
}

func TestIssueAuthorizationCode(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	request := func(edit func(r *oauthmodel.AuthorizationRequest)) *oauthmodel.AuthorizationRequest {
		r := &oauthmodel.AuthorizationRequest{
			ClientID:     testClientID,
			ResponseType: "code",
			RedirectURI:  testRedirectURI,
			State:        testState,
			Scope:        "basic",
		}
		if edit != nil {
			edit(r)
		}
		return r
	}

	code, err := f.server.IssueAuthorizationCode(ctx, request(nil))
	require.NoError(t, err)
	require.NotEmpty(t, code.Code)
	require.Equal(t, "basic", code.Scope)
	require.Equal(t, testState, code.State)
	require.Equal(t, 1, f.metrics.codes)

	tests := []struct {
		name string
		edit func(r *oauthmodel.AuthorizationRequest)
		err  error
	}{
		{name: "missing client id", edit: func(r *oauthmodel.AuthorizationRequest) { r.ClientID = "" }, err: oauthmodel.ErrMissingParameter},
		{name: "missing response type", edit: func(r *oauthmodel.AuthorizationRequest) { r.ResponseType = "" }, err: oauthmodel.ErrMissingParameter},
		{name: "inactive client", edit: func(r *oauthmodel.AuthorizationRequest) { r.ClientID = inactiveClientID }, err: oauthmodel.ErrInactiveClientCredentials},
		{name: "unknown client", edit: func(r *oauthmodel.AuthorizationRequest) { r.ClientID = "nobody" }, err: oauthmodel.ErrInactiveClientCredentials},
		{name: "token response type", edit: func(r *oauthmodel.AuthorizationRequest) { r.ResponseType = "token" }, err: oauthmodel.ErrUnsupportedResponseType},
		{name: "malformed redirect", edit: func(r *oauthmodel.AuthorizationRequest) { r.RedirectURI = "not a uri" }, err: oauthmodel.ErrInvalidRedirectURI},
		{name: "scope outside client", edit: func(r *oauthmodel.AuthorizationRequest) { r.Scope = "admin" }, err: oauthmodel.ErrInvalidScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.server.IssueAuthorizationCode(ctx, request(tt.edit))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestBuildRedirectURI(t *testing.T) {
	uri, err := auth.BuildRedirectURI(&token.AuthCode{Code: "abc", RedirectURI: "http://example.com/cb?x=1", State: "s t"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb?code=abc&state=s+t&x=1", uri)

	uri, err = auth.BuildRedirectURI(&token.AuthCode{Code: "abc", RedirectURI: "http://example.com/cb"})
	require.NoError(t, err)
	require.Equal(t, "http://example.com/cb?code=abc", uri)
}

func issueCode(t *testing.T, f *testFixture, scope string) *token.AuthCode {
	t.Helper()
	code, err := f.server.IssueAuthorizationCode(context.Background(), &oauthmodel.AuthorizationRequest{
		ClientID:     testClientID,
		ResponseType: "code",
		RedirectURI:  testRedirectURI,
		State:        testState,
		Scope:        scope,
	})
	require.NoError(t, err)
	return code
}

func redeemValues(code, redirectURI string) url.Values {
	return tokenValues("authorization_code",
		"client_id", testClientID, "client_secret", testClientSecret, "code", code, "redirect_uri", redirectURI)
}

func TestAuthorizationCodeGrant(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	code := issueCode(t, f, "basic")

	at, err := f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.NoError(t, err)
	require.Equal(t, "basic", at.Scope)
	require.Equal(t, "600", at.ExpiresIn)
	require.NotEmpty(t, at.RefreshToken)
	require.Equal(t, "3600", at.RefreshExpiresIn)
	require.Empty(t, at.UserID)

	_, err = f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidAuthCode)

	_, err = f.server.IssueAccessToken(ctx, redeemValues("unknown", testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidAuthCode)
}

func TestAuthorizationCodeGrant_RedirectMismatchKeepsCode(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	code := issueCode(t, f, "basic")

	_, err := f.server.IssueAccessToken(ctx, redeemValues(code.Code, "http://localhost:3000/other"), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidRedirectURI)

	at, err := f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, at.Token)
}

func TestAuthorizationCodeGrant_ConsumedCodeWithDifferentRedirect(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	code := issueCode(t, f, "basic")

	f.store.rewriteAuthCode = func(ac *token.AuthCode) *token.AuthCode {
		ac.RedirectURI = "http://elsewhere.example.com/cb"
		return ac
	}
	_, err := f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidRedirectURI)
}

func TestAuthorizationCodeGrant_OtherClient(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	code := issueCode(t, f, "basic")

	_, err := f.server.IssueAccessToken(ctx, tokenValues("authorization_code",
		"client_id", otherClientID, "client_secret", otherClientSecret, "code", code.Code, "redirect_uri", testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidClientCredentials)

	// A redemption by the wrong client consumes the code.
	_, err = f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidAuthCode)
}

func TestAuthorizationCodeGrant_ExpiredCodeIsConsumed(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	code := issueCode(t, f, "basic")

	f.advance(testAuthCodeExpiry + time.Second)
	_, err := f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidAuthCode)

	f.advance(-(testAuthCodeExpiry + time.Second))
	_, err = f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidAuthCode)
}

func TestAuthorizationCodeGrant_ExpiredCode(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	code := issueCode(t, f, "basic")

	f.advance(testAuthCodeExpiry + time.Second)
	_, err := f.server.IssueAccessToken(ctx, redeemValues(code.Code, testRedirectURI), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidAuthCode)
}

func issueRefreshable(t *testing.T, f *testFixture, scope string) *token.AccessToken {
	t.Helper()
	code := issueCode(t, f, scope)
	at, err := f.server.IssueAccessToken(context.Background(), redeemValues(code.Code, testRedirectURI), "", nil)
	require.NoError(t, err)
	return at
}

func refreshValues(refreshToken, scope string) url.Values {
	values := tokenValues("refresh_token", "client_id", testClientID, "client_secret", testClientSecret, "refresh_token", refreshToken)
	if scope != "" {
		values.Set("scope", scope)
	}
	return values
}

func TestRefreshTokenGrant_NeverRotates(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	original := issueRefreshable(t, f, "basic")

	first, err := f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, ""), "", nil)
	require.NoError(t, err)
	second, err := f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, ""), "", nil)
	require.NoError(t, err)

	require.NotEqual(t, first.Token, second.Token)
	require.NotEqual(t, original.Token, first.Token)
	require.Equal(t, original.RefreshToken, first.RefreshToken)
	require.Equal(t, original.RefreshToken, second.RefreshToken)
	require.Equal(t, original.RefreshExpiresIn, second.RefreshExpiresIn)
	require.Equal(t, "900", second.ExpiresIn)

	valid, err := f.server.IsValidToken(ctx, original.Token)
	require.NoError(t, err)
	require.Nil(t, valid, "refreshed tokens are invalidated")

	valid, err = f.server.IsValidToken(ctx, first.Token)
	require.NoError(t, err)
	require.Nil(t, valid)

	valid, err = f.server.IsValidToken(ctx, second.Token)
	require.NoError(t, err)
	require.NotNil(t, valid)
}

func TestRefreshTokenGrant_Scope(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	original := issueRefreshable(t, f, "basic, extended")
	require.Equal(t, "basic extended", original.Scope)

	_, err := f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, "admin"), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidScope)

	narrowed, err := f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, "extended"), "", nil)
	require.NoError(t, err)
	require.Equal(t, "extended", narrowed.Scope)
	require.Equal(t, "300", narrowed.ExpiresIn)

	// Once narrowed the scope cannot widen again.
	_, err = f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, "basic"), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidScope)
}

func TestRefreshTokenGrant_Invalid(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	original := issueRefreshable(t, f, "basic")

	_, err := f.server.IssueAccessToken(ctx, refreshValues("unknown", ""), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidRefreshToken)

	_, err = f.server.IssueAccessToken(ctx, tokenValues("refresh_token",
		"client_id", otherClientID, "client_secret", otherClientSecret, "refresh_token", original.RefreshToken), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidRefreshToken)
}

func TestRefreshTokenGrant_Expired(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	original := issueRefreshable(t, f, "basic")

	f.advance(30 * time.Minute)
	_, err := f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, ""), "", nil)
	require.NoError(t, err)

	// Refresh expiry counts from the first issue, not from the latest renewal.
	f.advance(31 * time.Minute)
	_, err = f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, ""), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrRefreshTokenExpired)
	require.Equal(t, 1, f.store.removedTokens)

	_, err = f.server.IssueAccessToken(ctx, refreshValues(original.RefreshToken, ""), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidRefreshToken)
}

func setupPasswordFixture(t *testing.T) *testFixture {
	t.Helper()
	repo := users.NewInMemoryRepo()
	u, err := users.NewUser(testUsername, "rossi@example.com", testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	u.ID = "user-1"
	u.Details = map[string]string{"team": "red"}
	require.NoError(t, repo.Upsert(context.Background(), u))
	return setupTestFixture(t, auth.WithUserAuthenticator(users.NewAuthenticator(repo)))
}

func passwordValues(username, password, scope string) url.Values {
	values := tokenValues("password",
		"client_id", testClientID, "client_secret", testClientSecret, "username", username, "password", password)
	if scope != "" {
		values.Set("scope", scope)
	}
	return values
}

func TestPasswordGrant(t *testing.T) {
	f := setupPasswordFixture(t)
	ctx := context.Background()

	at, err := f.server.IssueAccessToken(ctx, passwordValues(testUsername, testPassword, "basic"), "", nil)
	require.NoError(t, err)
	require.Equal(t, "user-1", at.UserID)
	require.Equal(t, "basic", at.Scope)
	require.Equal(t, "900", at.ExpiresIn)
	require.NotEmpty(t, at.RefreshToken)
	require.Equal(t, "3600", at.RefreshExpiresIn)
	require.Equal(t, "red", at.Details["team"])

	refreshed, err := f.server.IssueAccessToken(ctx, refreshValues(at.RefreshToken, ""), "", nil)
	require.NoError(t, err)
	require.Equal(t, "user-1", refreshed.UserID)
	require.Equal(t, "red", refreshed.Details["team"])

	_, err = f.server.IssueAccessToken(ctx, passwordValues(testUsername, "Wrong1234", ""), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidUsernamePassword)

	_, err = f.server.IssueAccessToken(ctx, passwordValues(testUsername, testPassword, "admin"), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidScope)

	_, err = f.server.IssueAccessToken(ctx, tokenValues("password", "client_id", testClientID, "client_secret", testClientSecret, "username", testUsername), "", nil)
	require.ErrorIs(t, err, oauthmodel.ErrMissingParameter)
}

func TestCustomGrant(t *testing.T) {
	ctx := context.Background()
	var received *http.Request
	handler := auth.GrantTypeHandlerFunc(func(_ context.Context, r *http.Request) (*auth.UserDetails, error) {
		received = r
		if r.Header.Get("X-Device") == "" {
			return nil, nil
		}
		return &auth.UserDetails{UserID: testCustomUserID, Details: map[string]string{"device": r.Header.Get("X-Device")}}, nil
	})
	f := setupTestFixture(t, auth.WithCustomGrantType(testCustomGrant, handler))
	require.True(t, f.server.SupportsGrantType(testCustomGrant))

	values := tokenValues(testCustomGrant, "client_id", testClientID, "client_secret", testClientSecret)
	req, err := http.NewRequest(http.MethodPost, "http://localhost/oauth20/tokens", nil)
	require.NoError(t, err)
	req.Header.Set("X-Device", "tv-1")

	at, err := f.server.IssueAccessToken(ctx, values, "", req)
	require.NoError(t, err)
	require.Same(t, req, received)
	require.Equal(t, testCustomUserID, at.UserID)
	require.Equal(t, "tv-1", at.Details["device"])
	require.NotEmpty(t, at.RefreshToken)
	require.Equal(t, "900", at.ExpiresIn)

	anonymous, err := http.NewRequest(http.MethodPost, "http://localhost/oauth20/tokens", nil)
	require.NoError(t, err)
	_, err = f.server.IssueAccessToken(ctx, values, "", anonymous)
	require.ErrorIs(t, err, oauthmodel.ErrInvalidScope)
}

func TestCustomGrant_HandlerFailureIsInfrastructure(t *testing.T) {
	handler := auth.GrantTypeHandlerFunc(func(context.Context, *http.Request) (*auth.UserDetails, error) {
		return nil, errors.New("device registry unavailable")
	})
	f := setupTestFixture(t, auth.WithCustomGrantType(testCustomGrant, handler))

	_, err := f.server.IssueAccessToken(context.Background(), tokenValues(testCustomGrant, "client_id", testClientID, "client_secret", testClientSecret), "", nil)
	require.Error(t, err)
	require.True(t, oauthmodel.IsInfrastructure(err))
	_, isTokenError := oauthmodel.AsTokenError(err)
	require.False(t, isTokenError)
	require.Equal(t, 1, f.metrics.failures[auth.OpToken+":server_error"])
}

func TestIsValidToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	at, err := f.server.IssueAccessToken(ctx, tokenValues("client_credentials",
		"client_id", testClientID, "client_secret", testClientSecret, "scope", "basic"), "", nil)
	require.NoError(t, err)

	valid, err := f.server.IsValidToken(ctx, at.Token)
	require.NoError(t, err)
	require.Equal(t, at.Token, valid.Token)

	valid, err = f.server.IsValidToken(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, valid)
	require.Zero(t, f.store.validStatusUpdates)

	f.advance(1800 * time.Second)
	valid, err = f.server.IsValidToken(ctx, at.Token)
	require.NoError(t, err)
	require.Nil(t, valid)
	require.Equal(t, 1, f.store.validStatusUpdates)

	valid, err = f.server.IsValidToken(ctx, at.Token)
	require.NoError(t, err)
	require.Nil(t, valid)
	require.Equal(t, 1, f.store.validStatusUpdates)

	stored, err := f.store.FindAccessToken(ctx, at.Token)
	require.NoError(t, err)
	require.False(t, stored.Valid)
}

func TestRevokeToken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	issue := func(clientID, secret string) *token.AccessToken {
		at, err := f.server.IssueAccessToken(ctx, tokenValues("client_credentials", "client_id", clientID, "client_secret", secret), "", nil)
		require.NoError(t, err)
		return at
	}
	mine := issue(testClientID, testClientSecret)
	theirs := issue(otherClientID, otherClientSecret)

	revoked, err := f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: theirs.Token, ClientID: testClientID, ClientSecret: testClientSecret})
	require.NoError(t, err)
	require.False(t, revoked)
	require.Zero(t, f.store.removedTokens)
	still, err := f.server.IsValidToken(ctx, theirs.Token)
	require.NoError(t, err)
	require.NotNil(t, still)

	revoked, err = f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: "unknown", ClientID: testClientID})
	require.NoError(t, err)
	require.False(t, revoked)

	revoked, err = f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: mine.Token, ClientID: testClientID, ClientSecret: testClientSecret})
	require.NoError(t, err)
	require.True(t, revoked)
	gone, err := f.server.IsValidToken(ctx, mine.Token)
	require.NoError(t, err)
	require.Nil(t, gone)
	require.Equal(t, 1, f.metrics.revoked)

	_, err = f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: mine.Token})
	require.ErrorIs(t, err, oauthmodel.ErrMissingParameter)

	_, err = f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: mine.Token, ClientID: testClientID, ClientSecret: "wrong"})
	require.ErrorIs(t, err, oauthmodel.ErrInactiveClientCredentials)

	_, err = f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: mine.Token, ClientID: "nobody"})
	require.ErrorIs(t, err, oauthmodel.ErrInactiveClientCredentials)

	// Inactive clients may still revoke their tokens.
	revoked, err = f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: "unknown", ClientID: inactiveClientID, ClientSecret: inactiveSecret})
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestRevokeToken_ExpiredTokenIsNotTouched(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	at, err := f.server.IssueAccessToken(ctx, tokenValues("client_credentials", "client_id", otherClientID, "client_secret", otherClientSecret), "", nil)
	require.NoError(t, err)

	f.advance(time.Hour)
	revoked, err := f.server.RevokeToken(ctx, &oauthmodel.RevokeRequest{AccessToken: at.Token, ClientID: otherClientID})
	require.NoError(t, err)
	require.True(t, revoked)
	require.Zero(t, f.store.removedTokens)

	_, err = f.store.FindAccessToken(ctx, at.Token)
	require.NoError(t, err)
}

func TestGetApplicationInfo(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	info, err := f.server.GetApplicationInfo(ctx, testClientID)
	require.NoError(t, err)
	require.Equal(t, testClientID, info.ID)
	require.Equal(t, "test app", info.Name)
	require.Equal(t, int(clients.StatusActive), info.Status)
	require.Equal(t, "2024-06-01T10:00:00Z", info.Registered)

	info, err = f.server.GetApplicationInfo(ctx, "nobody")
	require.NoError(t, err)
	require.Nil(t, info)
}

func TestRegisterClient_UnknownScopeStoresNothing(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.server.Clients().IssueClientCredentials(context.Background(), &clients.Registration{
		Name:        "new app",
		RedirectURI: testRedirectURI,
		Scope:       "basic admin",
	})
	require.ErrorIs(t, err, oauthmodel.ErrScopeDoesNotExist)
	require.Zero(t, f.store.storedClients)
}
