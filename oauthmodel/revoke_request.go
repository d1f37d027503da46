package oauthmodel

import "net/url"

// RevokeRequest holds the parameters of a token revocation request.
type RevokeRequest struct {
	AccessToken  string `json:"access_token"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
}

// NewRevokeRequest accepts both "access_token" and the RFC 7009 "token" parameter name.
func NewRevokeRequest(values url.Values) *RevokeRequest {
	rr := &RevokeRequest{
		AccessToken:  values.Get(ParamAccessToken),
		ClientID:     values.Get(ParamClientID),
		ClientSecret: values.Get(ParamClientSecret),
	}
	if rr.AccessToken == "" {
		rr.AccessToken = values.Get(ParamToken)
	}
	return rr
}

func (rr *RevokeRequest) Validate() error {
	if rr.AccessToken == "" {
		return MissingParameter(ParamAccessToken)
	}
	if rr.ClientID == "" {
		return MissingParameter(ParamClientID)
	}
	return nil
}
