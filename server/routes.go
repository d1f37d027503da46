package server

import "net/http"

func (s *Server) initRoutes() {
	// OAuth2 API routes
	s.RegisterRouteHandler("GET "+RouteAuthCodes, ChainMiddleware(s.AuthCodes(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokens, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokensRevoke, ChainMiddleware(s.Revoke(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteTokenValidate, ChainMiddleware(s.ValidateToken(), s.APIMiddleware()...))

	// Client application management
	s.RegisterRouteHandler("POST "+RouteApplications, ChainMiddleware(s.RegisterApplication(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteApplications, ChainMiddleware(s.ListApplications(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteApplication, ChainMiddleware(s.GetApplication(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteApplication, ChainMiddleware(s.UpdateApplication(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteApplication, ChainMiddleware(s.DeleteApplication(), s.APIMiddleware()...))

	// Scope management
	s.RegisterRouteHandler("POST "+RouteScopes, ChainMiddleware(s.CreateScope(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteScopes, ChainMiddleware(s.ListScopes(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteScope, ChainMiddleware(s.GetScope(), s.APIMiddleware()...))

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS "+RouteAPIPrefix, ChainMiddleware(preflight, s.CorsMiddleware))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.Health(), s.LoggingMiddleware, s.RecoverMiddleware, s.MetricsMiddleware))
	if s.metrics != nil {
		s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
	}
}

func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
