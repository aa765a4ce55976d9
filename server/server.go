package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-token-server/grants"
	"github.com/jrsteele09/go-token-server/handler"
	"github.com/jrsteele09/go-token-server/internal/config"
	"github.com/jrsteele09/go-token-server/internal/utils"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/jrsteele09/go-token-server/token"
)

// Server exposes the token endpoint over HTTP, alongside health and metrics
// routes. It owns the token handler and the Prometheus registry; everything
// protocol-level lives in the handler package.
type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	tokens     *handler.TokenHandler
	metrics    *Metrics
	grantTypes map[string]struct{}
}

// Option customises a Server beyond what config covers.
type Option func(*serverOptions)

type serverOptions struct {
	extendedGrantTypes map[string]grants.Factory
	accessTokenFormat  token.Format
}

// WithExtendedGrantTypes registers extension grant handlers keyed by their
// absolute grant-type URI.
func WithExtendedGrantTypes(extensions map[string]grants.Factory) Option {
	return func(o *serverOptions) {
		o.extendedGrantTypes = extensions
	}
}

// WithAccessTokenFormat overrides the default opaque access-token format.
func WithAccessTokenFormat(format token.Format) Option {
	return func(o *serverOptions) {
		o.accessTokenFormat = format
	}
}

func New(config config.Config, m model.Model, options ...Option) (*Server, error) {
	var opts serverOptions
	for _, option := range options {
		option(&opts)
	}

	tokenHandler, err := handler.New(handler.Config{
		AccessTokenLifetime:        config.GetAccessTokenLifetime(),
		RefreshTokenLifetime:       config.GetRefreshTokenLifetime(),
		Model:                      m,
		ExtendedGrantTypes:         opts.extendedGrantTypes,
		AlwaysIssueNewRefreshToken: utils.Ptr(config.GetAlwaysIssueNewRefreshToken()),
		AccessTokenFormat:          opts.accessTokenFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create token handler: %w", err)
	}

	s := &Server{
		mux:        http.NewServeMux(),
		config:     config,
		tokens:     tokenHandler,
		metrics:    NewMetrics(),
		grantTypes: knownGrantTypes(opts.extendedGrantTypes),
	}
	s.env = config.GetEnv()

	// Bootstrap: seed a demo client and user the first time an empty DEV store comes up
	if err := s.seedDevData(context.Background(), m); err != nil {
		return nil, fmt.Errorf("[Server New] failed to seed dev data: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// knownGrantTypes is the bounded label set for the grant_type metric
// dimension: the built-ins plus whatever extensions were registered.
func knownGrantTypes(extensions map[string]grants.Factory) map[string]struct{} {
	known := map[string]struct{}{
		string(oauth2.PasswordGrant):          {},
		string(oauth2.ClientCredentialsGrant): {},
		string(oauth2.AuthorizationCodeGrant): {},
		string(oauth2.RefreshTokenGrant):      {},
	}
	for grantType := range extensions {
		known[grantType] = struct{}{}
	}
	return known
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
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
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
