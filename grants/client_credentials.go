package grants

import (
	"context"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

var _ Handler = (*ClientCredentials)(nil)

// ClientCredentials implements the client_credentials grant: the client
// itself is the authenticated party and the model resolves the service
// account it acts as. Client authentication already happened in the engine,
// so there is nothing further to read from the request.
type ClientCredentials struct {
	users model.ClientUserGetter
}

// NewClientCredentials builds the client_credentials grant. The model must
// implement GetUserFromClient.
func NewClientCredentials(cfg Config) (*ClientCredentials, error) {
	users, ok := cfg.Model.(model.ClientUserGetter)
	if !ok {
		return nil, oauth2.NewServerError("model does not implement GetUserFromClient")
	}
	return &ClientCredentials{users: users}, nil
}

func (g *ClientCredentials) Handle(ctx context.Context, _ *oauth2.Request, client *model.Client) (*Result, error) {
	user, err := g.users.GetUserFromClient(ctx, client)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, oauth2.NewInvalidGrantError("client credentials are invalid")
	}

	return &Result{User: user}, nil
}
