package oauth2

import "encoding/json"

// TokenResponse represents the response from an OAuth2 token request.
// Returned from the /oauth20/tokens endpoint for all grant types.
type TokenResponse struct {
	// AccessToken is the opaque token used to access protected resources.
	// Example: "02d31ca13a0e448802b063ca2e16010b74b0e96ce9e05e953e"
	// Usage: Include in Authorization header: "Bearer <access_token>"
	AccessToken string `json:"access_token"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Only present: authorization_code, password and custom grants
	// Behavior: Reused verbatim on every refresh, never rotated
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Example: "900"
	// Note: Serialized as a string, existing clients parse it that way
	ExpiresIn string `json:"expires_in"`

	// RefreshExpiresIn is the lifetime in seconds of the refresh token.
	RefreshExpiresIn *string `json:"refresh_expires_in,omitempty"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// Scope indicates the access token's granted permissions, space separated.
	Scope string `json:"scope"`

	// Details holds user or application details, merged into the top level object.
	// A detail never overrides one of the standard fields above.
	Details map[string]string `json:"-"`
}

type tokenResponseAlias TokenResponse

// MarshalJSON flattens Details into the token response object.
func (tr TokenResponse) MarshalJSON() ([]byte, error) {
	standard, err := json.Marshal(tokenResponseAlias(tr))
	if err != nil {
		return nil, err
	}
	if len(tr.Details) == 0 {
		return standard, nil
	}

	merged := make(map[string]any, len(tr.Details)+6)
	for k, v := range tr.Details {
		merged[k] = v
	}
	var fields map[string]any
	if err := json.Unmarshal(standard, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// ErrorResponse is the body written for every failed OAuth2 request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ApplicationInfo is the public projection of a registered client application.
type ApplicationInfo struct {
	ID          string `json:"client_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      int    `json:"status"`
	Registered  string `json:"registered,omitempty"`
}
