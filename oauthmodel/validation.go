package oauthmodel

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateRedirectURI validates redirect URI syntax: an http or https scheme and a host.
// It does not compare against the client's registered URI.
func ValidateRedirectURI(uri string) error {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return fmt.Errorf("redirect_uri is required")
	}

	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("redirect_uri is not a valid uri: %w", err)
	}

	// Must use http:// or https://
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("redirect_uri must use http or https scheme")
	}

	if u.Host == "" {
		return fmt.Errorf("redirect_uri must contain a host")
	}

	// Should not contain fragments
	if u.Fragment != "" || strings.Contains(uri, "#") {
		return fmt.Errorf("redirect_uri must not contain fragments")
	}

	return nil
}

// IsValidRedirectURI is the boolean form of ValidateRedirectURI.
func IsValidRedirectURI(uri string) bool {
	return ValidateRedirectURI(uri) == nil
}

// ValidateScopeName checks a single scope name as registered by an administrator.
func ValidateScopeName(name string) error {
	if name == "" {
		return fmt.Errorf("scope name is required")
	}
	if strings.ContainsAny(name, " ,\t\n\r") {
		return fmt.Errorf("scope name must not contain whitespace or commas")
	}
	return nil
}
