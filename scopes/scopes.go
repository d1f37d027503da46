package scopes

import "github.com/jrsteele09/go-oauth20-server/oauth2"

// Scope is a named permission together with the access token lifetime, in seconds,
// granted for it under each grant type.
type Scope struct {
	Name              string `json:"scope"`
	Description       string `json:"description"`
	CCExpiresIn       int    `json:"cc_expires_in"`
	PassExpiresIn     int    `json:"pass_expires_in"`
	RefreshExpiresIn  int    `json:"refresh_expires_in"`
	AuthCodeExpiresIn int    `json:"auth_code_expires_in"`
	Default           bool   `json:"default,omitempty"`
}

// ExpiresIn returns the lifetime configured for grantType, zero when not configured.
// Custom grant types share the password lifetime.
func (s *Scope) ExpiresIn(grantType oauth2.GrantType) int {
	switch grantType {
	case oauth2.ClientCredentialsGrant:
		return s.CCExpiresIn
	case oauth2.RefreshTokenGrant:
		return s.RefreshExpiresIn
	case oauth2.AuthorizationCodeGrant:
		return s.AuthCodeExpiresIn
	default:
		return s.PassExpiresIn
	}
}
