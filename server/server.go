package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-oauth20-server/auth"
	"github.com/jrsteele09/go-oauth20-server/clients"
	"github.com/jrsteele09/go-oauth20-server/instrumentation"
	"github.com/jrsteele09/go-oauth20-server/internal/config"
	"github.com/jrsteele09/go-oauth20-server/storage"
	"github.com/jrsteele09/go-oauth20-server/users"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	routes  []string
	config  config.Config
	store   storage.Storage
	users   users.Repo
	auth    *auth.AuthorizationServer
	metrics *instrumentation.Metrics
}

// New builds the HTTP transport around a freshly constructed authorization server. userRepo and
// metrics are optional: without a user repository the password grant is not offered.
func New(cfg config.Config, store storage.Storage, userRepo users.Repo, metrics *instrumentation.Metrics, authOptions ...auth.Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if store == nil {
		return nil, errors.New("[Server New] storage is required")
	}

	options := []auth.Option{auth.WithClientOptions(clients.WithSecretLength(cfg.GetClientSecretLength()))}
	if userRepo != nil {
		options = append(options, auth.WithUserAuthenticator(users.NewAuthenticator(userRepo)))
	}
	if metrics != nil {
		options = append(options, auth.WithMetrics(metrics))
	}
	options = append(options, authOptions...)

	authServer, err := auth.NewAuthorizationServer(store, cfg, options...)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create authorization server: %w", err)
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		store:   store,
		users:   userRepo,
		auth:    authServer,
		metrics: metrics,
	}

	if err := s.InitialiseSystem(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Auth returns the authorization server behind the HTTP routes.
func (s *Server) Auth() *auth.AuthorizationServer {
	return s.auth
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}
