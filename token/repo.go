package token

import "context"

// Repo persists access tokens and authorization codes. Lookups of absent records return an
// error wrapping ErrNotFound.
type Repo interface {
	StoreAccessToken(ctx context.Context, token *AccessToken) error
	FindAccessToken(ctx context.Context, token string) (*AccessToken, error)

	// FindAccessTokenByRefreshToken returns the most recent access token issued with
	// refreshToken to clientID.
	FindAccessTokenByRefreshToken(ctx context.Context, refreshToken, clientID string) (*AccessToken, error)

	// UpdateAccessTokenValidStatus atomically sets the validity flag and reports whether it changed.
	UpdateAccessTokenValidStatus(ctx context.Context, token string, valid bool) (bool, error)

	// RenewAccessToken atomically invalidates previous and stores renewed in its place, provided
	// previous is still the latest token for its refresh token. It returns false, storing
	// nothing, when another renewal got there first.
	RenewAccessToken(ctx context.Context, previous, renewed *AccessToken) (bool, error)

	RemoveAccessToken(ctx context.Context, token string) error

	StoreAuthCode(ctx context.Context, code *AuthCode) error

	// FindAuthCode atomically consumes a valid code when redirectURI matches the one it was
	// issued for. On a redirect mismatch the code is returned unconsumed so the caller can
	// report it; consumed or unknown codes return ErrNotFound.
	FindAuthCode(ctx context.Context, code, redirectURI string) (*AuthCode, error)
}
