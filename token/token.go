package token

import (
	"maps"
	"strconv"
	"time"

	"github.com/jrsteele09/go-oauth20-server/internal/utils"
	"github.com/jrsteele09/go-oauth20-server/oauth2"
)

// AccessToken is an issued bearer token together with its (optional) refresh token.
// ExpiresIn and RefreshExpiresIn are decimal seconds, the format of the token response.
type AccessToken struct {
	Token            string            `json:"token"`
	RefreshToken     string            `json:"refresh_token,omitempty"`
	ExpiresIn        string            `json:"expires_in"`
	RefreshExpiresIn string            `json:"refresh_expires_in,omitempty"`
	Type             string            `json:"type"`
	Scope            string            `json:"scope"`
	Valid            bool              `json:"valid"`
	ClientID         string            `json:"client_id"`
	UserID           string            `json:"user_id,omitempty"`
	Details          map[string]string `json:"details,omitempty"`
	CreatedAt        time.Time         `json:"created"`
	// RefreshCreatedAt is carried over on every renewal, refresh expiry is absolute.
	RefreshCreatedAt time.Time `json:"refresh_created,omitempty"`
}

// IsExpired reports whether now is at or past CreatedAt + ExpiresIn.
// A token with an unreadable lifetime is treated as expired.
func (t *AccessToken) IsExpired(now time.Time) bool {
	secs, err := strconv.Atoi(t.ExpiresIn)
	if err != nil {
		return true
	}
	return !now.Before(t.CreatedAt.Add(time.Duration(secs) * time.Second))
}

// RefreshExpired reports whether the refresh token can no longer be used.
func (t *AccessToken) RefreshExpired(now time.Time) bool {
	if t.RefreshToken == "" {
		return true
	}
	secs, err := strconv.Atoi(t.RefreshExpiresIn)
	if err != nil {
		return true
	}
	issued := t.RefreshCreatedAt
	if issued.IsZero() {
		issued = t.CreatedAt
	}
	return !now.Before(issued.Add(time.Duration(secs) * time.Second))
}

// Copy returns a deep copy, storage backends never hand out shared records.
func (t *AccessToken) Copy() *AccessToken {
	if t == nil {
		return nil
	}
	c := *t
	c.Details = maps.Clone(t.Details)
	return &c
}

// Response builds the token endpoint response body.
func (t *AccessToken) Response() oauth2.TokenResponse {
	resp := oauth2.TokenResponse{
		AccessToken: t.Token,
		ExpiresIn:   t.ExpiresIn,
		TokenType:   t.Type,
		Scope:       t.Scope,
		Details:     t.Details,
	}
	if t.RefreshToken != "" {
		resp.RefreshToken = utils.Ptr(t.RefreshToken)
		resp.RefreshExpiresIn = utils.Ptr(t.RefreshExpiresIn)
	}
	return resp
}

// AuthCode is an authorization code bound to the client and redirect URI it was issued for.
type AuthCode struct {
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri"`
	Scope       string    `json:"scope"`
	State       string    `json:"state,omitempty"`
	Valid       bool      `json:"valid"`
	CreatedAt   time.Time `json:"created"`
}

// IsExpired reports whether the code is older than timeout.
func (c *AuthCode) IsExpired(now time.Time, timeout time.Duration) bool {
	return !now.Before(c.CreatedAt.Add(timeout))
}

func (c *AuthCode) Copy() *AuthCode {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
