package auth

import (
	"context"
	"net/http"
)

// UserDetails identifies the resource owner a token is issued for. Details are copied into the
// token and merged into the token response.
type UserDetails struct {
	UserID  string
	Details map[string]string
}

// UserAuthenticator checks resource owner credentials for the password grant. A nil result with
// a nil error means the credentials were rejected.
type UserAuthenticator interface {
	Authenticate(ctx context.Context, username, password string, r *http.Request) (*UserDetails, error)
}

// GrantTypeHandler resolves the resource owner of a deployment specific grant type. A nil result
// with a nil error rejects the request.
type GrantTypeHandler interface {
	Handle(ctx context.Context, r *http.Request) (*UserDetails, error)
}

// GrantTypeHandlerFunc adapts a function to GrantTypeHandler.
type GrantTypeHandlerFunc func(ctx context.Context, r *http.Request) (*UserDetails, error)

func (f GrantTypeHandlerFunc) Handle(ctx context.Context, r *http.Request) (*UserDetails, error) {
	return f(ctx, r)
}

// Recorder receives the outcome of every engine operation.
type Recorder interface {
	TokenIssued(grantType string)
	AuthCodeIssued()
	TokenRevoked(revoked bool)
	RequestFailed(operation, code string)
}

type noopRecorder struct{}

func (noopRecorder) TokenIssued(string)           {}
func (noopRecorder) AuthCodeIssued()              {}
func (noopRecorder) TokenRevoked(bool)            {}
func (noopRecorder) RequestFailed(string, string) {}
