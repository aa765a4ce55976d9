package grants

import (
	"context"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

var _ Handler = (*AuthorizationCode)(nil)

// AuthorizationCode implements the authorization_code grant: the request
// presents a one-time code previously issued to the client, and the stored
// record resolves the user who approved it.
type AuthorizationCode struct {
	codes   model.AuthCodeGetter
	revoker model.AuthCodeRevoker
	now     func() time.Time
}

// NewAuthorizationCode builds the authorization_code grant. The model must
// implement GetAuthCode; when it also implements RevokeAuthCode, codes are
// consumed on use.
func NewAuthorizationCode(cfg Config) (*AuthorizationCode, error) {
	codes, ok := cfg.Model.(model.AuthCodeGetter)
	if !ok {
		return nil, oauth2.NewServerError("model does not implement GetAuthCode")
	}

	g := &AuthorizationCode{codes: codes, now: cfg.now()}
	if revoker, ok := cfg.Model.(model.AuthCodeRevoker); ok {
		g.revoker = revoker
	}
	return g, nil
}

func (g *AuthorizationCode) Handle(ctx context.Context, req *oauth2.Request, client *model.Client) (*Result, error) {
	codeValue := req.Body.Get("code")
	if codeValue == "" {
		return nil, oauth2.NewInvalidRequestError("missing parameter: code")
	}

	code, err := g.codes.GetAuthCode(ctx, codeValue)
	if err != nil {
		return nil, err
	}
	// An unknown code and a code issued to another client look the same to
	// the caller.
	if code == nil || code.Client == nil || code.Client.ID != client.ID {
		return nil, oauth2.NewInvalidGrantError("authorization code is invalid")
	}
	if code.Expired(g.now()) {
		return nil, oauth2.NewInvalidGrantError("authorization code has expired")
	}
	if code.RedirectURI != "" && req.Body.Get("redirect_uri") != code.RedirectURI {
		return nil, oauth2.NewInvalidRequestError("invalid parameter: redirect_uri")
	}

	if g.revoker != nil {
		if err := g.revoker.RevokeAuthCode(ctx, codeValue); err != nil {
			return nil, err
		}
	}

	return &Result{Code: code}, nil
}
