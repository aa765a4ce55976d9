package server

func (s *Server) initRoutes() {
	// Token endpoint. OPTIONS is registered so browser preflights reach the
	// CORS middleware instead of the mux's 405.
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))

	// Operational routes
	s.RegisterRouteHandler("GET "+RouteHealthz, ChainMiddleware(s.Healthz(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, ChainMiddleware(s.metrics.Handler().ServeHTTP, s.APIMiddleware()...))
}
