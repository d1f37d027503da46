package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/users"
	"github.com/rs/zerolog/log"
)

// BootstrapUser is a user seeded at start up, the password is hashed before it is stored.
type BootstrapUser struct {
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Password string            `json:"password"`
	Details  map[string]string `json:"details,omitempty"`
}

// Bootstrap is the content of the BOOTSTRAP_FILE seed. A client is only seeded once across
// restarts when it carries both client_id and client_secret.
type Bootstrap struct {
	Scopes  []*scopes.Scope         `json:"scopes"`
	Clients []*clients.Registration `json:"clients"`
	Users   []*BootstrapUser        `json:"users"`
}

// InitialiseSystem seeds scopes, client applications and users from the bootstrap file, when
// one is configured. Records that already exist are left untouched so restarts are harmless.
func (s *Server) InitialiseSystem(ctx context.Context, cfg config.Config) error {
	path := cfg.GetBootstrapFile()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to read bootstrap file: %w", err)
	}
	var seed Bootstrap
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to parse bootstrap file %s: %w", path, err)
	}
	return s.Seed(ctx, &seed, cfg.GetPasswordHashCost())
}

// Seed applies a bootstrap seed. Scopes go first, clients reference them.
func (s *Server) Seed(ctx context.Context, seed *Bootstrap, passwordCost int) error {
	for _, scope := range seed.Scopes {
		if err := s.seedScope(ctx, scope); err != nil {
			return err
		}
	}
	for _, reg := range seed.Clients {
		if err := s.seedClient(ctx, reg); err != nil {
			return err
		}
	}
	for _, user := range seed.Users {
		if err := s.seedUser(ctx, user, passwordCost); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) seedScope(ctx context.Context, scope *scopes.Scope) error {
	err := s.auth.Scopes().Register(ctx, scope)
	if errors.Is(err, scopes.ErrScopeExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[Server seedScope] failed to register scope %s: %w", scope.Name, err)
	}
	log.Info().Str("scope", scope.Name).Msg("bootstrap scope created")
	return nil
}

func (s *Server) seedClient(ctx context.Context, reg *clients.Registration) error {
	creds, err := s.auth.Clients().IssueClientCredentials(ctx, reg)
	if errors.Is(err, oauthmodel.ErrAlreadyRegistered) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("[Server seedClient] failed to register client %s: %w", reg.Name, err)
	}
	log.Info().Str("client_id", creds.ID).Str("name", creds.Name).Msg("bootstrap client created")
	return nil
}

func (s *Server) seedUser(ctx context.Context, seed *BootstrapUser, passwordCost int) error {
	if s.users == nil {
		return errors.New("[Server seedUser] bootstrap users need a user repository")
	}

	_, err := s.users.GetByUsername(ctx, seed.Username)
	if err == nil {
		return nil
	}
	if !apperrors.IsNotFound(err) {
		return fmt.Errorf("[Server seedUser] %w", err)
	}

	user, err := users.NewUser(seed.Username, seed.Email, seed.Password, passwordCost)
	if err != nil {
		return fmt.Errorf("[Server seedUser] invalid user %s: %w", seed.Username, err)
	}
	user.Details = seed.Details
	user.Verified = true
	if err := s.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("[Server seedUser] failed to store user %s: %w", seed.Username, err)
	}
	log.Info().Str("username", user.Username).Msg("bootstrap user created")
	return nil
}
