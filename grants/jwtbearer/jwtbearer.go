// Package jwtbearer implements the urn:ietf:params:oauth:grant-type:jwt-bearer
// extension grant: the request presents a signed JWT assertion from a trusted
// issuer and the model maps the assertion subject to a local user. It plugs
// into the engine through the extension-grant registry.
package jwtbearer

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-token-server/grants"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

// GrantType is the RFC 7523 grant type URI this package registers under.
const GrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// Options configures assertion verification. Issuer and KeySet are required.
// When Audience is empty the audience claim is not checked.
type Options struct {
	Issuer   string
	Audience string
	KeySet   oidc.KeySet
}

// Factory returns a grants.Factory for registration under GrantType.
func Factory(opts Options) grants.Factory {
	return func(cfg grants.Config) (grants.Handler, error) {
		return New(opts, cfg)
	}
}

var _ grants.Handler = (*Grant)(nil)

// Grant verifies bearer assertions and resolves their subjects to users.
type Grant struct {
	verifier *oidc.IDTokenVerifier
	issuer   string
	users    model.SubjectUserGetter
}

// New builds the jwt-bearer grant. The model must implement GetUserBySubject.
func New(opts Options, cfg grants.Config) (*Grant, error) {
	users, ok := cfg.Model.(model.SubjectUserGetter)
	if !ok {
		return nil, oauth2.NewServerError("model does not implement GetUserBySubject")
	}
	if opts.Issuer == "" || opts.KeySet == nil {
		return nil, oauth2.NewServerError("jwt-bearer grant requires an issuer and a key set")
	}

	verifier := oidc.NewVerifier(opts.Issuer, opts.KeySet, &oidc.Config{
		ClientID:          opts.Audience,
		SkipClientIDCheck: opts.Audience == "",
	})
	return &Grant{verifier: verifier, issuer: opts.Issuer, users: users}, nil
}

func (g *Grant) Handle(ctx context.Context, req *oauth2.Request, _ *model.Client) (*grants.Result, error) {
	assertion := req.Body.Get("assertion")
	if assertion == "" {
		return nil, oauth2.NewInvalidRequestError("missing parameter: assertion")
	}

	token, err := g.verifier.Verify(ctx, assertion)
	if err != nil {
		oauthErr := oauth2.NewInvalidGrantError("assertion is invalid")
		oauthErr.Inner = err
		return nil, oauthErr
	}

	user, err := g.users.GetUserBySubject(ctx, g.issuer, token.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, oauth2.NewInvalidGrantError("assertion subject is unknown")
	}

	return &grants.Result{User: user}, nil
}
