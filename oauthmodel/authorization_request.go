package oauthmodel

import "net/url"

// AuthorizationRequest holds the query parameters of a request to the authorization endpoint.
type AuthorizationRequest struct {
	ClientID     string
	ResponseType string
	RedirectURI  string
	State        string
	Scope        string
}

func NewAuthorizationRequest(values url.Values) *AuthorizationRequest {
	return &AuthorizationRequest{
		ClientID:     values.Get(ParamClientID),
		ResponseType: values.Get(ParamResponseType),
		RedirectURI:  values.Get(ParamRedirectURI),
		State:        values.Get(ParamState),
		Scope:        values.Get(ParamScope),
	}
}

// Validate only checks presence, the engine decides whether the values are acceptable.
func (ar *AuthorizationRequest) Validate() error {
	if ar.ClientID == "" {
		return MissingParameter(ParamClientID)
	}
	if ar.ResponseType == "" {
		return MissingParameter(ParamResponseType)
	}
	return nil
}
