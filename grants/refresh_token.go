package grants

import (
	"context"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

var _ Handler = (*RefreshToken)(nil)

// RefreshToken implements the refresh_token grant: the request presents a
// previously issued refresh token and receives a fresh access token for the
// same user.
type RefreshToken struct {
	tokens  model.RefreshTokenGetter
	revoker model.RefreshTokenRevoker
	rotate  bool
	now     func() time.Time
}

// NewRefreshToken builds the refresh_token grant. The model must implement
// GetRefreshToken, and additionally RevokeRefreshToken when rotation is on,
// since rotation retires the presented token.
func NewRefreshToken(cfg Config) (*RefreshToken, error) {
	tokens, ok := cfg.Model.(model.RefreshTokenGetter)
	if !ok {
		return nil, oauth2.NewServerError("model does not implement GetRefreshToken")
	}

	g := &RefreshToken{tokens: tokens, rotate: cfg.AlwaysIssueNewRefreshToken, now: cfg.now()}
	if g.rotate {
		revoker, ok := cfg.Model.(model.RefreshTokenRevoker)
		if !ok {
			return nil, oauth2.NewServerError("model does not implement RevokeRefreshToken")
		}
		g.revoker = revoker
	}
	return g, nil
}

func (g *RefreshToken) Handle(ctx context.Context, req *oauth2.Request, client *model.Client) (*Result, error) {
	tokenValue := req.Body.Get("refresh_token")
	if tokenValue == "" {
		return nil, oauth2.NewInvalidRequestError("missing parameter: refresh_token")
	}

	record, err := g.tokens.GetRefreshToken(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	if record == nil || record.Client == nil || record.Client.ID != client.ID {
		return nil, oauth2.NewInvalidGrantError("refresh token is invalid")
	}
	if record.Expired(g.now()) {
		return nil, oauth2.NewInvalidGrantError("refresh token has expired")
	}

	if g.rotate {
		if err := g.revoker.RevokeRefreshToken(ctx, tokenValue); err != nil {
			return nil, err
		}
	}

	return &Result{RefreshToken: record}, nil
}
