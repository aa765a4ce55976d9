// Package handler implements the token-issuance pipeline: it authenticates
// the requesting client, dispatches the grant strategy named by the request,
// assembles and persists the token, and renders the terminal success or
// error response. One handler instance keeps no per-request state and serves
// concurrent requests.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-token-server/grants"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/jrsteele09/go-token-server/token"
)

// Config carries the token handler's construction parameters.
// AccessTokenLifetime, RefreshTokenLifetime and Model are required.
type Config struct {
	AccessTokenLifetime  time.Duration
	RefreshTokenLifetime time.Duration
	Model                model.Model

	// ExtendedGrantTypes registers extension grants by URI. Extensions never
	// override the built-in grant names.
	ExtendedGrantTypes map[string]grants.Factory

	// AlwaysIssueNewRefreshToken controls refresh-token rotation and
	// defaults to true. When false, the refresh_token grant carries the
	// presented token and its expiry over to the newly issued token.
	AlwaysIssueNewRefreshToken *bool

	// AccessTokenFormat overrides the default opaque access-token strings.
	// A model implementing GenerateAccessToken takes precedence over both.
	AccessTokenFormat token.Format
}

// TokenHandler drives token requests end to end.
type TokenHandler struct {
	cfg      Config
	rotate   bool
	registry grants.Registry
	nowFunc  func() time.Time
}

// TokenHandlerOption defines a function type to modify the TokenHandler
// instance.
type TokenHandlerOption func(*TokenHandler)

// WithNowFunc sets the time source (primarily for testing).
func WithNowFunc(nowFunc func() time.Time) TokenHandlerOption {
	return func(h *TokenHandler) {
		h.nowFunc = nowFunc
	}
}

// New validates the configuration and builds a TokenHandler. Missing required
// configuration fails with InvalidArgument naming the parameter.
func New(cfg Config, options ...TokenHandlerOption) (*TokenHandler, error) {
	if cfg.AccessTokenLifetime <= 0 {
		return nil, oauth2.NewInvalidArgumentError("missing parameter: accessTokenLifetime")
	}
	if cfg.RefreshTokenLifetime <= 0 {
		return nil, oauth2.NewInvalidArgumentError("missing parameter: refreshTokenLifetime")
	}
	if cfg.Model == nil {
		return nil, oauth2.NewInvalidArgumentError("missing parameter: model")
	}

	rotate := true
	if cfg.AlwaysIssueNewRefreshToken != nil {
		rotate = *cfg.AlwaysIssueNewRefreshToken
	}

	h := &TokenHandler{
		cfg:      cfg,
		rotate:   rotate,
		registry: grants.BuiltIns().Merge(cfg.ExtendedGrantTypes),
		nowFunc:  time.Now,
	}
	for _, option := range options {
		option(h)
	}
	return h, nil
}

// Handle runs the pipeline over the given request and writes the terminal
// state into resp: exactly one render happens per invocation, success or
// error. The persisted token is returned on success; on failure the returned
// error is the normalized protocol error, so callers can inspect its kind,
// status and inner cause in addition to the rendered response.
func (h *TokenHandler) Handle(ctx context.Context, req *oauth2.Request, resp *oauth2.Response) (*model.Token, error) {
	if req == nil {
		return nil, oauth2.NewInvalidArgumentError("missing parameter: request")
	}
	if resp == nil {
		return nil, oauth2.NewInvalidArgumentError("missing parameter: response")
	}

	issued, err := h.handle(ctx, req)
	if err != nil {
		oauthErr := oauth2.NormalizeError(err)
		renderError(resp, oauthErr, req.Header.Get("Authorization") != "")
		return nil, oauthErr
	}

	renderSuccess(resp, issued, h.nowFunc())
	return issued, nil
}

func (h *TokenHandler) handle(ctx context.Context, req *oauth2.Request) (*model.Token, error) {
	if req.Method != http.MethodPost {
		return nil, oauth2.NewInvalidRequestError("method must be POST")
	}
	if !isFormURLEncoded(req.Header.Get("Content-Type")) {
		return nil, oauth2.NewInvalidRequestError("content must be application/x-www-form-urlencoded")
	}

	client, err := h.getClient(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := h.handleGrantType(ctx, req, client)
	if err != nil {
		return nil, err
	}

	scope, err := getScope(req)
	if err != nil {
		return nil, err
	}

	issued, err := h.assembleToken(ctx, client, result, scope)
	if err != nil {
		return nil, err
	}

	saved, err := h.cfg.Model.SaveToken(ctx, issued)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, oauth2.NewServerError("failed to store token")
	}
	return saved, nil
}

// getClient authenticates the requesting client against the model. Lookup
// failures stay indistinguishable from secret mismatches; a client record
// without grants is a configuration fault, not a protocol one.
func (h *TokenHandler) getClient(ctx context.Context, req *oauth2.Request) (*model.Client, error) {
	creds, err := getClientCredentials(req)
	if err != nil {
		return nil, err
	}

	client, err := h.cfg.Model.GetClient(ctx, creds.ID, creds.Secret)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, oauth2.NewInvalidClientError("client is invalid")
	}
	if client.Grants == nil {
		return nil, oauth2.NewServerError("missing client `grants`")
	}
	return client, nil
}

// handleGrantType validates the grant_type parameter, checks the client is
// registered for it, constructs the strategy and runs it. The checks happen
// in a fixed order: presence, shape, known grant, client authorization.
func (h *TokenHandler) handleGrantType(ctx context.Context, req *oauth2.Request, client *model.Client) (*grants.Result, error) {
	grantType := req.Body.Get("grant_type")
	if grantType == "" {
		return nil, oauth2.NewInvalidRequestError("missing parameter: grant_type")
	}
	if !uriPattern.MatchString(grantType) && !grantNamePattern.MatchString(grantType) {
		return nil, oauth2.NewInvalidRequestError("invalid parameter: grant_type")
	}

	factory, ok := h.registry.Lookup(grantType)
	if !ok {
		return nil, oauth2.NewUnsupportedGrantTypeError("unsupported grant_type: " + grantType)
	}
	if !client.HasGrant(grantType) {
		return nil, oauth2.NewUnauthorizedClientError("client is not authorized to use grant_type: " + grantType)
	}

	grant, err := factory(grants.Config{
		AccessTokenLifetime:        h.cfg.AccessTokenLifetime,
		RefreshTokenLifetime:       h.cfg.RefreshTokenLifetime,
		Model:                      h.cfg.Model,
		AlwaysIssueNewRefreshToken: h.rotate,
		Now:                        h.nowFunc,
	})
	if err != nil {
		return nil, err
	}

	result, err := grant.Handle(ctx, req, client)
	if err != nil {
		// Strategy failures that are not protocol errors surface as
		// invalid_grant carrying the strategy's message, not as 5xx.
		if _, ok := oauth2.AsError(err); ok {
			return nil, err
		}
		oauthErr := oauth2.NewInvalidGrantError(err.Error())
		oauthErr.Inner = err
		return nil, oauthErr
	}
	return result, nil
}

// getScope reads the optional scope parameter. A scope outside the printable
// set fails with InvalidArgument rather than InvalidRequest.
func getScope(req *oauth2.Request) (string, error) {
	scope := req.Body.Get("scope")
	if scope == "" {
		return "", nil
	}
	if !scopePattern.MatchString(scope) {
		return "", oauth2.NewInvalidArgumentError("invalid parameter: scope")
	}
	return scope, nil
}

// assembleToken builds the token to persist: the access token string and its
// expiry always, the refresh token half only when the client's registration
// includes the refresh_token grant.
func (h *TokenHandler) assembleToken(ctx context.Context, client *model.Client, result *grants.Result, scope string) (*model.Token, error) {
	now := h.nowFunc()
	user := result.ResolveUser()

	accessToken, err := h.generateAccessToken(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}

	issued := &model.Token{
		AccessToken:          accessToken,
		AccessTokenExpiresAt: now.Add(h.cfg.AccessTokenLifetime),
		Scope:                scope,
		Client:               client,
		User:                 user,
	}

	if !client.HasGrant(string(oauth2.RefreshTokenGrant)) {
		return issued, nil
	}

	if result.RefreshToken != nil && !h.rotate {
		issued.RefreshToken = result.RefreshToken.Token
		issued.RefreshTokenExpiresAt = result.RefreshToken.ExpiresAt
		return issued, nil
	}

	refreshToken, err := h.generateRefreshToken(ctx, client, user, scope)
	if err != nil {
		return nil, err
	}
	issued.RefreshToken = refreshToken
	issued.RefreshTokenExpiresAt = now.Add(h.cfg.RefreshTokenLifetime)
	return issued, nil
}

func (h *TokenHandler) generateAccessToken(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error) {
	if generator, ok := h.cfg.Model.(model.AccessTokenGenerator); ok {
		return generator.GenerateAccessToken(ctx, client, user, scope)
	}
	if h.cfg.AccessTokenFormat != nil {
		return h.cfg.AccessTokenFormat.GenerateAccessToken(ctx, client, user, scope)
	}
	return token.NewOpaque()
}

func (h *TokenHandler) generateRefreshToken(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error) {
	if generator, ok := h.cfg.Model.(model.RefreshTokenGenerator); ok {
		return generator.GenerateRefreshToken(ctx, client, user, scope)
	}
	return token.NewOpaque()
}

// isFormURLEncoded checks the media type, ignoring parameters such as
// charset.
func isFormURLEncoded(contentType string) bool {
	mediaType := strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])
	return strings.EqualFold(mediaType, "application/x-www-form-urlencoded")
}
