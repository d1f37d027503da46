package oauthmodel

import (
	"net/url"

	"github.com/jrsteele09/go-oauth20-server/oauth2"
)

// Request parameter names shared by the token, authorization and revoke endpoints.
const (
	ParamGrantType    = "grant_type"
	ParamCode         = "code"
	ParamRedirectURI  = "redirect_uri"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamRefreshToken = "refresh_token"
	ParamScope        = "scope"
	ParamUsername     = "username"
	ParamPassword     = "password"
	ParamState        = "state"
	ParamResponseType = "response_type"
	ParamAccessToken  = "access_token"
	ParamToken        = "token"
)

// TokenRequest holds parameters for the OAuth2 token request.
// This represents the request body sent to the /oauth20/tokens endpoint.
// Supports grant types: authorization_code, refresh_token, client_credentials, password
// and one deployment configured custom grant type.
type TokenRequest struct {
	// GrantType selects the protocol used to obtain the token.
	// Required: Yes
	// Example: "authorization_code"
	GrantType string

	// Code is the authorization code received from the authorization endpoint.
	// Required: Yes (only for authorization_code grant)
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string

	// RedirectURI must equal the redirect_uri the code was issued under.
	// Required: Yes (only for authorization_code grant)
	RedirectURI string

	// ClientID identifies the OAuth2 client making the request.
	// Required: Yes (for all grant types), from the body or a Basic Authorization header
	// Example: "203598599234220"
	ClientID string

	// ClientSecret is the secret credential of the client.
	// Security: Never log or expose this value
	ClientSecret string

	// RefreshToken is used to obtain a new access token without re-authentication.
	// Required: Yes (only for refresh_token grant)
	// Behavior: Not rotated, the same value is handed back on every refresh
	RefreshToken string

	// Scope is the requested scope, space or comma separated.
	// Required: No, the client's registered scope (or the refreshed token's scope) is used when absent
	Scope string

	// Username and Password are the end user's credentials.
	// Required: Yes (only for password grant)
	Username string
	Password string

	// State is echoed back unchanged.
	State string

	// UserID is back-filled after the end user has been authenticated.
	UserID string
}

// NewTokenRequest builds a TokenRequest from the primary request parameters, then fills
// any field still empty from secondary (for example Basic Authorization credentials).
// Values already set are never overwritten, so the first source wins.
func NewTokenRequest(primary, secondary url.Values) *TokenRequest {
	tr := &TokenRequest{}
	tr.assign(primary)
	tr.assign(secondary)
	return tr
}

func (tr *TokenRequest) assign(values url.Values) {
	assignIfEmpty(&tr.GrantType, values, ParamGrantType)
	assignIfEmpty(&tr.Code, values, ParamCode)
	assignIfEmpty(&tr.RedirectURI, values, ParamRedirectURI)
	assignIfEmpty(&tr.ClientID, values, ParamClientID)
	assignIfEmpty(&tr.ClientSecret, values, ParamClientSecret)
	assignIfEmpty(&tr.RefreshToken, values, ParamRefreshToken)
	assignIfEmpty(&tr.Scope, values, ParamScope)
	assignIfEmpty(&tr.Username, values, ParamUsername)
	assignIfEmpty(&tr.Password, values, ParamPassword)
	assignIfEmpty(&tr.State, values, ParamState)
}

func assignIfEmpty(field *string, values url.Values, key string) {
	if *field != "" {
		return
	}
	*field = values.Get(key)
}

// Validate checks the grant independent parameters first (client_id, grant_type) and then the
// parameters of the requested grant type. customGrantType may be empty when no custom grant is
// configured.
func (tr *TokenRequest) Validate(customGrantType string) error {
	if tr.ClientID == "" {
		return MissingParameter(ParamClientID)
	}
	if tr.GrantType == "" {
		return MissingParameter(ParamGrantType)
	}

	switch oauth2.GrantType(tr.GrantType) {
	case oauth2.AuthorizationCodeGrant:
		if tr.Code == "" {
			return MissingParameter(ParamCode)
		}
		if tr.RedirectURI == "" {
			return MissingParameter(ParamRedirectURI)
		}
	case oauth2.RefreshTokenGrant:
		if tr.RefreshToken == "" {
			return MissingParameter(ParamRefreshToken)
		}
	case oauth2.PasswordGrant:
		if tr.Username == "" {
			return MissingParameter(ParamUsername)
		}
		if tr.Password == "" {
			return MissingParameter(ParamPassword)
		}
	case oauth2.ClientCredentialsGrant:
	default:
		if customGrantType == "" || tr.GrantType != customGrantType {
			return ErrUnsupportedGrantType
		}
	}
	return nil
}
