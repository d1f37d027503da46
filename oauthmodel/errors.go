package oauthmodel

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind identifies a TokenError independently of its description, so errors.Is
// matches a MissingParameter("code") against ErrMissingParameter.
type ErrorKind string

const (
	KindMissingParameter          ErrorKind = "missing_parameter"
	KindUnsupportedGrantType      ErrorKind = "unsupported_grant_type"
	KindUnsupportedResponseType   ErrorKind = "unsupported_response_type"
	KindInvalidRedirectURI        ErrorKind = "invalid_redirect_uri"
	KindInactiveClientCredentials ErrorKind = "inactive_client_credentials"
	KindInvalidClientCredentials  ErrorKind = "invalid_client_credentials"
	KindInvalidAuthCode           ErrorKind = "invalid_auth_code"
	KindInvalidUsernamePassword   ErrorKind = "invalid_username_password"
	KindInvalidScope              ErrorKind = "invalid_scope"
	KindScopeDoesNotExist         ErrorKind = "scope_does_not_exist"
	KindAlreadyRegistered         ErrorKind = "already_registered"
	KindClientDoesNotExist        ErrorKind = "client_does_not_exist"
	KindMissingRegistrationField  ErrorKind = "missing_registration_field"
	KindInvalidRefreshToken       ErrorKind = "invalid_refresh_token"
	KindRefreshTokenExpired       ErrorKind = "refresh_token_expired"
)

// OAuth2 error codes written in the "error" field of an error response.
const (
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidClient           = "invalid_client"
	CodeInvalidGrant            = "invalid_grant"
	CodeInvalidScope            = "invalid_scope"
	CodeUnsupportedGrantType    = "unsupported_grant_type"
	CodeUnsupportedResponseType = "unsupported_response_type"
	CodeInvalidRedirectURI      = "invalid_redirect_uri"
	CodeInvalidToken            = "invalid_token"
	CodeServerError             = "server_error"
)

const (
	MissingParameterMessage         = "mandatory parameter %s is missing"
	MissingRegistrationFieldMessage = "mandatory field %s is missing or invalid"
)

// TokenError is a protocol error raised while validating or serving an OAuth2 request.
// Every TokenError maps to a single HTTP status, always 400 for the kinds defined here.
type TokenError struct {
	Kind        ErrorKind
	Code        string
	Description string
	Status      int
}

func (e *TokenError) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches on Kind so parameterised errors compare equal to their sentinel.
func (e *TokenError) Is(target error) bool {
	t, ok := target.(*TokenError)
	return ok && t.Kind == e.Kind
}

func newTokenError(kind ErrorKind, code, description string) *TokenError {
	return &TokenError{Kind: kind, Code: code, Description: description, Status: http.StatusBadRequest}
}

var (
	ErrMissingParameter          = newTokenError(KindMissingParameter, CodeInvalidRequest, "mandatory parameter is missing")
	ErrUnsupportedGrantType      = newTokenError(KindUnsupportedGrantType, CodeUnsupportedGrantType, "unsupported grant_type")
	ErrUnsupportedResponseType   = newTokenError(KindUnsupportedResponseType, CodeUnsupportedResponseType, "unsupported response_type")
	ErrInvalidRedirectURI        = newTokenError(KindInvalidRedirectURI, CodeInvalidRedirectURI, "invalid redirect_uri")
	ErrInactiveClientCredentials = newTokenError(KindInactiveClientCredentials, CodeInvalidClient, "invalid client_id/client_secret or client is inactive")
	ErrInvalidClientCredentials  = newTokenError(KindInvalidClientCredentials, CodeInvalidClient, "invalid client_id or client_secret")
	ErrInvalidAuthCode           = newTokenError(KindInvalidAuthCode, CodeInvalidGrant, "invalid auth_code")
	ErrInvalidUsernamePassword   = newTokenError(KindInvalidUsernamePassword, CodeInvalidGrant, "invalid username/password")
	ErrInvalidScope              = newTokenError(KindInvalidScope, CodeInvalidScope, "scope not valid")
	ErrScopeDoesNotExist         = newTokenError(KindScopeDoesNotExist, CodeInvalidScope, "scope does not exist")
	ErrAlreadyRegistered         = newTokenError(KindAlreadyRegistered, CodeInvalidRequest, "client_id already registered")
	ErrClientDoesNotExist        = newTokenError(KindClientDoesNotExist, CodeInvalidRequest, "client application does not exist")
	ErrMissingRegistrationField  = newTokenError(KindMissingRegistrationField, CodeInvalidRequest, "mandatory field is missing or invalid")
	ErrInvalidRefreshToken       = newTokenError(KindInvalidRefreshToken, CodeInvalidGrant, "invalid refresh_token")
	ErrRefreshTokenExpired       = newTokenError(KindRefreshTokenExpired, CodeInvalidGrant, "refresh_token has expired")
)

// MissingParameter reports a mandatory request parameter that was not supplied.
func MissingParameter(name string) error {
	return newTokenError(KindMissingParameter, CodeInvalidRequest, fmt.Sprintf(MissingParameterMessage, name))
}

// MissingRegistrationField reports an absent or malformed client registration field.
func MissingRegistrationField(field string) error {
	return newTokenError(KindMissingRegistrationField, CodeInvalidRequest, fmt.Sprintf(MissingRegistrationFieldMessage, field))
}

// AsTokenError extracts the TokenError from err's chain.
func AsTokenError(err error) (*TokenError, bool) {
	var te *TokenError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// InfrastructureError wraps a storage or collaborator failure. It is never a protocol
// error and is served as a 500.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("[%s] infrastructure failure: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// Infrastructure wraps err as an InfrastructureError, leaving TokenErrors and nil untouched.
func Infrastructure(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsTokenError(err); ok {
		return err
	}
	var ie *InfrastructureError
	if errors.As(err, &ie) {
		return err
	}
	return &InfrastructureError{Op: op, Err: err}
}

// IsInfrastructure reports whether err is, or wraps, an InfrastructureError.
func IsInfrastructure(err error) bool {
	var ie *InfrastructureError
	return errors.As(err, &ie)
}
