package oauthmodel

import (
	"encoding/base64"
	"net/url"
	"strings"
)

const basicPrefix = "Basic "

// ParseBasicAuthorization decodes "Basic base64(client_id:client_secret)". Any other value,
// including a header that does not decode, yields empty credentials.
func ParseBasicAuthorization(header string) (clientID, clientSecret string) {
	if !strings.HasPrefix(header, basicPrefix) {
		return "", ""
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(basicPrefix):]))
	if err != nil {
		return "", ""
	}
	id, secret, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", ""
	}
	return id, secret
}

// BasicCredentials returns the Basic Authorization credentials as request parameters,
// for use as the secondary source of NewTokenRequest.
func BasicCredentials(header string) url.Values {
	id, secret := ParseBasicAuthorization(header)
	values := url.Values{}
	if id != "" {
		values.Set(ParamClientID, id)
	}
	if secret != "" {
		values.Set(ParamClientSecret, secret)
	}
	return values
}
