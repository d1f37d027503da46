package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Returns: authorization code (exchanged for tokens at /oauth20/tokens)
	// The only response type this server issues.
	CodeResponseType ResponseType = "code"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, redirect_uri, client_id, client_secret
	// Returns: access_token, refresh_token
	AuthorizationCodeGrant GrantType = "authorization_code"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Token request includes: client_id, client_secret, scope
	// Returns: access_token only, carrying the client's application details
	ClientCredentialsGrant GrantType = "client_credentials"

	// RefreshTokenGrant exchanges a refresh token for a new access token.
	// Token request includes: refresh_token, client_id, client_secret, scope (optional narrowing)
	// Returns: new access_token and the SAME refresh_token (refresh tokens are not rotated)
	RefreshTokenGrant GrantType = "refresh_token"

	// PasswordGrant exchanges end user credentials for tokens.
	// Token request includes: username, password, client_id, client_secret
	// Returns: access_token, refresh_token
	PasswordGrant GrantType = "password"
)

// StandardGrantTypes lists the grant types every deployment supports.
var StandardGrantTypes = []GrantType{
	AuthorizationCodeGrant,
	RefreshTokenGrant,
	ClientCredentialsGrant,
	PasswordGrant,
}

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = "bearer"
