package config

import "time"

const (
	authCodeTimeoutVar     = "AUTH_CODE_TIMEOUT"
	codeLengthVar          = "CODE_GENERATION_LENGTH"
	tokenLengthVar         = "TOKEN_LENGTH"
	accessTokenExpiryVar   = "DEFAULT_ACCESS_TOKEN_EXPIRY"
	refreshTokenExpiryVar  = "DEFAULT_REFRESH_TOKEN_EXPIRY"
	customGrantTypeVar     = "CUSTOM_GRANT_TYPE"
	defaultCodeLength      = 32
	defaultTokenLength     = 32 // 32 bytes = 256 bits
	defaultAuthCodeTimeout = 15 * time.Minute
)

type OAuthConfig interface {
	GetAuthCodeTimeout() time.Duration
	GetCodeGenerationLength() int
	GetTokenLength() int
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
	GetCustomGrantType() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAuthCodeTimeout() time.Duration {
	return GetEnvDuration(authCodeTimeoutVar, defaultAuthCodeTimeout)
}

func (OAuth) GetCodeGenerationLength() int {
	return GetEnvInt(codeLengthVar, defaultCodeLength)
}

func (OAuth) GetTokenLength() int {
	return GetEnvInt(tokenLengthVar, defaultTokenLength)
}

// GetDefaultAccessTokenExpiry is used when no scope record defines a lifetime for the grant type.
func (OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return GetEnvDuration(accessTokenExpiryVar, 1*time.Hour)
}

func (OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return GetEnvDuration(refreshTokenExpiryVar, 7*24*time.Hour) // 7 days
}

// GetCustomGrantType is the name of the deployment specific grant type, empty when disabled.
func (OAuth) GetCustomGrantType() string {
	return GetEnv(customGrantTypeVar, "")
}
