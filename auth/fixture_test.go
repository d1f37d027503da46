package auth_test

import (
	"context"
	"encoding/base64"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	"github.com/jrsteele09/go-oauth20-server/scopes"
	"github.com/jrsteele09/go-oauth20-server/storage/memory"
	"github.com/jrsteele09/go-oauth20-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testClientID       = "test-client-1"
	testClientSecret   = "test-secret-1"
	otherClientID      = "test-client-2"
	otherClientSecret  = "test-secret-2"
	inactiveClientID   = "inactive-client"
	inactiveSecret     = "inactive-secret"
	testRedirectURI    = "http://localhost:3000/callback"
	testState          = "random-state-value"
	testUsername       = "rossi"
	testPassword       = "Password123"
	testCustomGrant    = "device"
	testCustomUserID   = "device-user"
	testAuthCodeExpiry = 15 * time.Minute
)

var startTime = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type testConfig struct {
	config.OAuth
}

func (testConfig) GetAuthCodeTimeout() time.Duration           { return testAuthCodeExpiry }
func (testConfig) GetDefaultAccessTokenExpiry() time.Duration  { return time.Hour }
func (testConfig) GetDefaultRefreshTokenExpiry() time.Duration { return 24 * time.Hour }
func (testConfig) GetCustomGrantType() string                  { return "" }

// countingStore wraps the memory store to observe the calls the engine makes.
type countingStore struct {
	*memory.Store

	mu                 sync.Mutex
	validStatusUpdates int
	storedClients      int
	removedTokens      int
	rewriteAuthCode    func(*token.AuthCode) *token.AuthCode
}

func (s *countingStore) UpdateAccessTokenValidStatus(ctx context.Context, value string, valid bool) (bool, error) {
	s.mu.Lock()
	s.validStatusUpdates++
	s.mu.Unlock()
	return s.Store.UpdateAccessTokenValidStatus(ctx, value, valid)
}

func (s *countingStore) StoreClientCredentials(ctx context.Context, creds *clients.ClientCredentials) error {
	s.mu.Lock()
	s.storedClients++
	s.mu.Unlock()
	return s.Store.StoreClientCredentials(ctx, creds)
}

func (s *countingStore) RemoveAccessToken(ctx context.Context, value string) error {
	s.mu.Lock()
	s.removedTokens++
	s.mu.Unlock()
	return s.Store.RemoveAccessToken(ctx, value)
}

func (s *countingStore) FindAuthCode(ctx context.Context, code, redirectURI string) (*token.AuthCode, error) {
	ac, err := s.Store.FindAuthCode(ctx, code, redirectURI)
	if err == nil && s.rewriteAuthCode != nil {
		ac = s.rewriteAuthCode(ac)
	}
	return ac, err
}

type fakeRecorder struct {
	mu       sync.Mutex
	issued   map[string]int
	failures map[string]int
	codes    int
	revoked  int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{issued: make(map[string]int), failures: make(map[string]int)}
}

func (r *fakeRecorder) TokenIssued(grantType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued[grantType]++
}

func (r *fakeRecorder) AuthCodeIssued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes++
}

func (r *fakeRecorder) TokenRevoked(revoked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if revoked {
		r.revoked++
	}
}

func (r *fakeRecorder) RequestFailed(operation, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[operation+":"+code]++
}

// testFixture holds all test dependencies
type testFixture struct {
	store   *countingStore
	server  *auth.AuthorizationServer
	metrics *fakeRecorder
	now     time.Time
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// setupTestFixture creates a server over a seeded memory store
func setupTestFixture(t *testing.T, options ...auth.Option) *testFixture {
	t.Helper()
	ctx := context.Background()

	store := &countingStore{Store: memory.New()}
	require.NoError(t, store.Store.StoreScope(ctx, &scopes.Scope{
		Name:              "basic",
		CCExpiresIn:       1800,
		PassExpiresIn:     900,
		RefreshExpiresIn:  3600,
		AuthCodeExpiresIn: 600,
	}))
	require.NoError(t, store.Store.StoreScope(ctx, &scopes.Scope{Name: "extended", PassExpiresIn: 300}))

	seedClients := []*clients.ClientCredentials{
		{
			ID:                 testClientID,
			Secret:             testClientSecret,
			Name:               "test app",
			RedirectURI:        testRedirectURI,
			Scope:              "basic extended",
			Status:             clients.StatusActive,
			ApplicationDetails: map[string]string{"my": "data"},
			CreatedAt:          startTime,
		},
		{ID: otherClientID, Secret: otherClientSecret, Name: "other app", RedirectURI: testRedirectURI, Scope: "basic", Status: clients.StatusActive},
		{ID: inactiveClientID, Secret: inactiveSecret, Name: "inactive app", RedirectURI: testRedirectURI, Scope: "basic", Status: clients.StatusInactive},
	}
	for _, c := range seedClients {
		require.NoError(t, store.Store.StoreClientCredentials(ctx, c))
	}

	f := &testFixture{store: store, metrics: newFakeRecorder(), now: startTime}
	opts := append([]auth.Option{
		auth.WithNowTime(func() time.Time { return f.now }),
		auth.WithMetrics(f.metrics),
	}, options...)

	server, err := auth.NewAuthorizationServer(store, testConfig{}, opts...)
	require.NoError(t, err)
	f.server = server
	return f
}

func tokenValues(grantType string, pairs ...string) url.Values {
	values := url.Values{"grant_type": {grantType}}
	for i := 0; i+1 < len(pairs); i += 2 {
		values.Set(pairs[i], pairs[i+1])
	}
	return values
}

func basicHeader(id, secret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(id+":"+secret))
}
