package users

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/jrsteele09/go-oauth20-server/auth"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/rs/zerolog/log"
)

var _ auth.UserAuthenticator = (*Authenticator)(nil)

// Authenticator checks resource owner credentials for the password grant.
type Authenticator struct {
	repo    Repo
	nowTime func() time.Time
}

// AuthenticatorOption defines a function type to modify the Authenticator instance.
type AuthenticatorOption func(*Authenticator)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		a.nowTime = nowFunc
	}
}

func NewAuthenticator(repo Repo, options ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		repo:    repo,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(a)
	}
	return a
}

// Authenticate returns the user's details, or nil when the username is unknown, the password
// does not match or the user is blocked.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string, _ *http.Request) (*auth.UserDetails, error) {
	user, err := a.repo.GetByUsername(ctx, username)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Blocked || !user.CheckPassword(password) {
		return nil, nil
	}

	if err := a.repo.SetLastLogin(ctx, username, a.nowTime()); err != nil {
		log.Warn().Err(err).Str("username", username).Msg("failed to record last login")
	}

	details := maps.Clone(user.Details)
	if details == nil {
		details = make(map[string]string)
	}
	details["username"] = user.Username
	return &auth.UserDetails{UserID: user.ID, Details: details}, nil
}
