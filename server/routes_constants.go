package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 Routes
	RouteOAuth2Token = "/oauth2/token"

	// Operational Routes
	RouteHealthz = "/healthz"
	RouteMetrics = "/metrics"
)
