package clients

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-oauth20-server/internal/errors"
	"github.com/jrsteele09/go-oauth20-server/oauthmodel"
)

const (
	maxIDGenerationAttempts = 5
	defaultSecretLength     = 32
)

var ErrIDGenerationExhausted = errors.New("could not generate a unique client id")

// ScopeChecker reports whether every token of a scope string is a registered scope.
type ScopeChecker interface {
	ScopesExist(ctx context.Context, scope string) (bool, error)
}

// Manager registers, authenticates and looks up client applications.
type Manager struct {
	repo         Repo
	scopes       ScopeChecker
	secretLength int
	newID        func() string
	nowTime      func() time.Time
}

// ManagerOption defines a function type to modify the Manager instance.
type ManagerOption func(*Manager)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

// WithIDGenerator replaces the client id generator (primarily for testing collisions)
func WithIDGenerator(gen func() string) ManagerOption {
	return func(m *Manager) {
		m.newID = gen
	}
}

// WithSecretLength sets the number of random bytes in a generated secret
func WithSecretLength(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.secretLength = n
		}
	}
}

func NewManager(repo Repo, scopes ScopeChecker, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[NewManager] client repo is required")
	}
	if scopes == nil {
		return nil, errors.New("[NewManager] scope checker is required")
	}

	m := &Manager{
		repo:         repo,
		scopes:       scopes,
		secretLength: defaultSecretLength,
		newID:        func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		nowTime:      time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// find returns nil without an error when the client is not registered.
func (m *Manager) find(ctx context.Context, clientID string) (*ClientCredentials, error) {
	if clientID == "" {
		return nil, nil
	}
	creds, err := m.repo.FindClientCredentials(ctx, clientID)
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, oauthmodel.Infrastructure("Manager.find", err)
	}
	return creds, nil
}

// ActiveClient authenticates the client and returns it when it is active, nil otherwise.
func (m *Manager) ActiveClient(ctx context.Context, clientID, clientSecret string) (*ClientCredentials, error) {
	creds, err := m.find(ctx, clientID)
	if err != nil || creds == nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(creds.Secret), []byte(clientSecret)) != 1 || !creds.IsActive() {
		return nil, nil
	}
	return creds, nil
}

// IsActiveClient authenticates the client and requires it to be active.
func (m *Manager) IsActiveClient(ctx context.Context, clientID, clientSecret string) (bool, error) {
	creds, err := m.ActiveClient(ctx, clientID, clientSecret)
	return creds != nil, err
}

// IsValidClientCredentials authenticates the client regardless of its status.
func (m *Manager) IsValidClientCredentials(ctx context.Context, clientID, clientSecret string) (bool, error) {
	if clientID == "" {
		return false, nil
	}
	valid, err := m.repo.ValidClient(ctx, clientID, clientSecret)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, oauthmodel.Infrastructure("Manager.IsValidClientCredentials", err)
	}
	return valid, nil
}

func (m *Manager) IsActiveClientID(ctx context.Context, clientID string) (bool, error) {
	creds, err := m.find(ctx, clientID)
	if err != nil || creds == nil {
		return false, err
	}
	return creds.IsActive(), nil
}

func (m *Manager) IsExistingClient(ctx context.Context, clientID string) (bool, error) {
	creds, err := m.find(ctx, clientID)
	return creds != nil, err
}

// IssueClientCredentials validates and stores a new client application.
func (m *Manager) IssueClientCredentials(ctx context.Context, reg *Registration) (*ClientCredentials, error) {
	if reg == nil || reg.Name == "" {
		return nil, oauthmodel.MissingRegistrationField("name")
	}
	if oauthmodel.NormalizeScope(reg.Scope) == "" {
		return nil, oauthmodel.MissingRegistrationField("scope")
	}
	if !oauthmodel.IsValidRedirectURI(reg.RedirectURI) {
		return nil, oauthmodel.MissingRegistrationField("redirect_uri")
	}

	exist, err := m.scopes.ScopesExist(ctx, reg.Scope)
	if err != nil {
		return nil, oauthmodel.Infrastructure("Manager.IssueClientCredentials", err)
	}
	if !exist {
		return nil, oauthmodel.ErrScopeDoesNotExist
	}

	clientID, clientSecret := reg.ClientID, reg.ClientSecret
	if clientID != "" && clientSecret != "" {
		existing, err := m.IsExistingClient(ctx, clientID)
		if err != nil {
			return nil, err
		}
		if existing {
			return nil, oauthmodel.ErrAlreadyRegistered
		}
	} else {
		// Partial credentials are ignored, both halves are generated.
		if clientID, err = m.generateClientID(ctx); err != nil {
			return nil, err
		}
		if clientSecret, err = m.generateSecret(); err != nil {
			return nil, err
		}
	}

	creds := &ClientCredentials{
		ID:                 clientID,
		Secret:             clientSecret,
		Name:               reg.Name,
		Description:        reg.Description,
		RedirectURI:        reg.RedirectURI,
		Scope:              oauthmodel.NormalizeScope(reg.Scope),
		Status:             StatusActive,
		ApplicationDetails: reg.ApplicationDetails,
		CreatedAt:          m.nowTime(),
	}
	if err := m.repo.StoreClientCredentials(ctx, creds); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, oauthmodel.ErrAlreadyRegistered
		}
		return nil, oauthmodel.Infrastructure("Manager.IssueClientCredentials", err)
	}
	return creds, nil
}

// UpdateClientCredentials applies upd to an existing client application.
func (m *Manager) UpdateClientCredentials(ctx context.Context, clientID string, upd *Update) (*ClientCredentials, error) {
	creds, err := m.find(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, oauthmodel.ErrClientDoesNotExist
	}
	if upd == nil {
		return creds, nil
	}

	if upd.Scope != nil {
		scope := oauthmodel.NormalizeScope(*upd.Scope)
		if scope == "" {
			return nil, oauthmodel.MissingRegistrationField("scope")
		}
		exist, err := m.scopes.ScopesExist(ctx, scope)
		if err != nil {
			return nil, oauthmodel.Infrastructure("Manager.UpdateClientCredentials", err)
		}
		if !exist {
			return nil, oauthmodel.ErrScopeDoesNotExist
		}
		creds.Scope = scope
	}
	if upd.RedirectURI != nil {
		if !oauthmodel.IsValidRedirectURI(*upd.RedirectURI) {
			return nil, oauthmodel.MissingRegistrationField("redirect_uri")
		}
		creds.RedirectURI = *upd.RedirectURI
	}
	if upd.Status != nil {
		if *upd.Status != StatusActive && *upd.Status != StatusInactive {
			return nil, oauthmodel.MissingRegistrationField("status")
		}
		creds.Status = *upd.Status
	}
	if upd.Description != nil {
		creds.Description = *upd.Description
	}
	if upd.ApplicationDetails != nil {
		creds.ApplicationDetails = upd.ApplicationDetails
	}

	if err := m.repo.UpdateClientCredentials(ctx, creds); err != nil {
		return nil, oauthmodel.Infrastructure("Manager.UpdateClientCredentials", err)
	}
	return creds, nil
}

func (m *Manager) DeleteClientCredentials(ctx context.Context, clientID string) error {
	existing, err := m.IsExistingClient(ctx, clientID)
	if err != nil {
		return err
	}
	if !existing {
		return oauthmodel.ErrClientDoesNotExist
	}
	if err := m.repo.DeleteClientApp(ctx, clientID); err != nil {
		return oauthmodel.Infrastructure("Manager.DeleteClientCredentials", err)
	}
	return nil
}

// Get returns the client application, nil when it is not registered.
func (m *Manager) Get(ctx context.Context, clientID string) (*ClientCredentials, error) {
	return m.find(ctx, clientID)
}

func (m *Manager) List(ctx context.Context) ([]*ClientCredentials, error) {
	list, err := m.repo.ListClientCredentials(ctx)
	if err != nil {
		return nil, oauthmodel.Infrastructure("Manager.List", err)
	}
	return list, nil
}

func (m *Manager) generateClientID(ctx context.Context) (string, error) {
	for i := 0; i < maxIDGenerationAttempts; i++ {
		id := m.newID()
		existing, err := m.IsExistingClient(ctx, id)
		if err != nil {
			return "", err
		}
		if !existing {
			return id, nil
		}
	}
	return "", fmt.Errorf("[Manager.generateClientID] %w after %d attempts", ErrIDGenerationExhausted, maxIDGenerationAttempts)
}

func (m *Manager) generateSecret() (string, error) {
	b := make([]byte, m.secretLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[Manager.generateSecret] failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
