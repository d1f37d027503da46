package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 Routes
	RouteAPIPrefix     = "/oauth20/"
	RouteAuthCodes     = "/oauth20/auth-codes"
	RouteTokens        = "/oauth20/tokens"
	RouteTokensRevoke  = "/oauth20/tokens/revoke"
	RouteTokenValidate = "/oauth20/tokens/validate"

	// Client Application Routes
	RouteApplications = "/oauth20/applications"
	RouteApplication  = "/oauth20/applications/{id}"

	// Scope Routes
	RouteScopes = "/oauth20/scopes"
	RouteScope  = "/oauth20/scopes/{name}"

	// Operational Routes
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"
)
