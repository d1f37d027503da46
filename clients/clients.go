package clients

import (
	"time"

	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
)

type Status int

const (
	StatusInactive Status = 0 // Registered but not allowed to obtain tokens
	StatusActive   Status = 1
)

// ClientCredentials is a registered client application.
type ClientCredentials struct {
	ID                 string            `json:"client_id"`
	Secret             string            `json:"client_secret"`
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	RedirectURI        string            `json:"redirect_uri"`
	Scope              string            `json:"scope"` // Space separated, allowed scopes for this client
	Status             Status            `json:"status"`
	ApplicationDetails map[string]string `json:"application_details,omitempty"`
	CreatedAt          time.Time         `json:"created"`
}

// IsActive returns true if the client may obtain tokens
func (c *ClientCredentials) IsActive() bool {
	return c.Status == StatusActive
}

// HasScope checks if the client has permission for a specific scope
func (c *ClientCredentials) HasScope(scope string) bool {
	for _, s := range oauthmodel.SplitScope(c.Scope) {
		if s == scope {
			return true
		}
	}
	return false
}

// Registration is the payload of a client registration request. ClientID and ClientSecret are
// only honoured when both are supplied.
type Registration struct {
	Name               string            `json:"name"`
	Description        string            `json:"description,omitempty"`
	RedirectURI        string            `json:"redirect_uri"`
	Scope              string            `json:"scope"`
	ClientID           string            `json:"client_id,omitempty"`
	ClientSecret       string            `json:"client_secret,omitempty"`
	ApplicationDetails map[string]string `json:"application_details,omitempty"`
}

// Update lists the mutable fields of a registered client, nil fields are left unchanged.
type Update struct {
	Description        *string           `json:"description,omitempty"`
	RedirectURI        *string           `json:"redirect_uri,omitempty"`
	Scope              *string           `json:"scope,omitempty"`
	Status             *Status           `json:"status,omitempty"`
	ApplicationDetails map[string]string `json:"application_details,omitempty"`
}
