package auth

import (
	"context"
	"net/url"

	"github.com/jrsteele09/go-oauth20-server/oauth2"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/token"
)

// IssueAuthorizationCode validates an authorization request and stores a new single use code
// bound to the client and redirect URI.
func (as *AuthorizationServer) IssueAuthorizationCode(ctx context.Context, req *oauthmodel.AuthorizationRequest) (*token.AuthCode, error) {
	code, err := as.issueAuthorizationCode(ctx, req)
	if err != nil {
		return nil, as.fail(OpAuthorize, err)
	}
	as.metrics.AuthCodeIssued()
	return code, nil
}

func (as *AuthorizationServer) issueAuthorizationCode(ctx context.Context, req *oauthmodel.AuthorizationRequest) (*token.AuthCode, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	active, err := as.clients.IsActiveClientID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, oauthmodel.ErrInactiveClientCredentials
	}

	if oauth2.ResponseType(req.ResponseType) != oauth2.CodeResponseType {
		return nil, oauthmodel.ErrUnsupportedResponseType
	}
	if !oauthmodel.IsValidRedirectURI(req.RedirectURI) {
		return nil, oauthmodel.ErrInvalidRedirectURI
	}

	scope, err := as.scopes.ValidScopeForClient(ctx, req.Scope, req.ClientID)
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.IssueAuthorizationCode", err)
	}
	if scope == "" {
		return nil, oauthmodel.ErrInvalidScope
	}

	value, err := as.generator.NewCode()
	if err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.IssueAuthorizationCode", err)
	}
	code := &token.AuthCode{
		Code:        value,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       scope,
		State:       req.State,
		Valid:       true,
		CreatedAt:   as.nowTime(),
	}
	if err := as.store.StoreAuthCode(ctx, code); err != nil {
		return nil, oauthmodel.Infrastructure("AuthorizationServer.IssueAuthorizationCode", err)
	}
	return code, nil
}

// BuildRedirectURI appends the code and, when present, the state to the code's redirect URI.
func BuildRedirectURI(code *token.AuthCode) (string, error) {
	u, err := url.Parse(code.RedirectURI)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(oauthmodel.ParamCode, code.Code)
	if code.State != "" {
		q.Set(oauthmodel.ParamState, code.State)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
