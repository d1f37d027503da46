package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/instrumentation"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/server"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/storage/memory"
	"github.com/jrsteele09/go-oauth20-server/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testClientID     = "web-app"
	testClientSecret = "web-app-secret"
	testRedirectURI  = "http://localhost:3000/callback"
	testUsername     = "rossi"
	testPassword     = "Password123"
	allowedOrigin    = "https://app.example.com"
	testCustomGrant  = "urn:example:device"
)

type testConfig struct {
	config.Config
	bootstrapFile string
}

func (testConfig) GetEnv() string             { return "TEST" }
func (testConfig) GetPasswordHashCost() int   { return bcrypt.MinCost }
func (testConfig) GetCustomGrantType() string { return "" }
func (c testConfig) GetBootstrapFile() string { return c.bootstrapFile }
func (testConfig) GetAllowedOrigins() config.AllowedOrigins {
	return config.AllowedOrigins{allowedOrigin: {}}
}

type testFixture struct {
	server  *server.Server
	store   *memory.Store
	users   *users.InMemoryRepo
	metrics *instrumentation.Metrics
	http    *httptest.Server
}

// seed holds one scope, one confidential client and one user.
func seed() *server.Bootstrap {
	return &server.Bootstrap{
		Scopes: []*scopes.Scope{{
			Name:              "basic",
			Description:       "basic access",
			CCExpiresIn:       1800,
			PassExpiresIn:     900,
			RefreshExpiresIn:  3600,
			AuthCodeExpiresIn: 600,
		}},
		Clients: []*clients.Registration{{
			Name:         "web app",
			RedirectURI:  testRedirectURI,
			Scope:        "basic",
			ClientID:     testClientID,
			ClientSecret: testClientSecret,
		}},
		Users: []*server.BootstrapUser{{
			Username: testUsername,
			Email:    "rossi@example.com",
			Password: testPassword,
			Details:  map[string]string{"role": "rider"},
		}},
	}
}

func setupTestFixture(t *testing.T, options ...auth.Option) *testFixture {
	t.Helper()
	return setupTestFixtureWithStore(t, memory.New(), options...)
}

func setupTestFixtureWithStore(t *testing.T, store storage.Storage, options ...auth.Option) *testFixture {
	t.Helper()

	userRepo := users.NewInMemoryRepo()
	metrics := instrumentation.New(instrumentation.Config{ServiceName: "test"})
	s, err := server.New(testConfig{Config: config.New()}, store, userRepo, metrics, options...)
	require.NoError(t, err)
	require.NoError(t, s.Seed(context.Background(), seed(), bcrypt.MinCost))

	f := &testFixture{
		server:  s,
		users:   userRepo,
		metrics: metrics,
		http:    httptest.NewServer(s),
	}
	if m, ok := store.(*memory.Store); ok {
		f.store = m
	}
	t.Cleanup(f.http.Close)
	return f
}

// downStore fails every health check.
type downStore struct {
	*memory.Store
}

func (downStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func (f *testFixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}
