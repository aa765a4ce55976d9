// Package grants implements the grant-strategy layer of the token engine:
// the contract every grant type satisfies, the registry the engine dispatches
// through, and the four built-in strategies. Strategies validate what the
// request presents (credentials, codes, tokens) and resolve it to a user;
// token assembly and persistence stay with the engine.
package grants

import (
	"context"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

// Config carries the engine configuration a grant strategy is constructed
// with on every dispatch.
type Config struct {
	AccessTokenLifetime        time.Duration
	RefreshTokenLifetime       time.Duration
	Model                      model.Model
	AlwaysIssueNewRefreshToken bool

	// Now overrides the time source for expiry checks. Defaults to time.Now.
	Now func() time.Time
}

func (c Config) now() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// Factory builds a grant strategy from the engine configuration. Factories
// probe the model for the capabilities their strategy calls and fail with a
// protocol error naming the missing capability.
type Factory func(Config) (Handler, error)

// Handler is the grant strategy contract. Handle validates the request
// against the authenticated client and resolves it to a Result, failing with
// InvalidGrant when the presented credentials, code or token do not hold up.
type Handler interface {
	Handle(ctx context.Context, req *oauth2.Request, client *model.Client) (*Result, error)
}

// Result is what a grant strategy resolves to. Exactly one field is set:
// password, client_credentials and extension grants resolve a user directly,
// authorization_code resolves the stored code record, refresh_token resolves
// the stored refresh-token record.
type Result struct {
	User         *model.User
	Code         *model.Code
	RefreshToken *model.RefreshToken
}

// ResolveUser applies the per-grant extraction rule: code and refresh-token
// records carry their user, every other grant returns the user directly.
func (r *Result) ResolveUser() *model.User {
	switch {
	case r == nil:
		return nil
	case r.User != nil:
		return r.User
	case r.Code != nil:
		return r.Code.User
	case r.RefreshToken != nil:
		return r.RefreshToken.User
	default:
		return nil
	}
}
