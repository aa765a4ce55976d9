package grants

import (
	"context"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
)

var _ Handler = (*Password)(nil)

// Password implements the resource-owner password credentials grant: the
// request carries the end user's username and password and the model
// authenticates them.
type Password struct {
	users model.UserGetter
}

// NewPassword builds the password grant. The model must implement GetUser.
func NewPassword(cfg Config) (*Password, error) {
	users, ok := cfg.Model.(model.UserGetter)
	if !ok {
		return nil, oauth2.NewServerError("model does not implement GetUser")
	}
	return &Password{users: users}, nil
}

func (g *Password) Handle(ctx context.Context, req *oauth2.Request, _ *model.Client) (*Result, error) {
	username := req.Body.Get("username")
	if username == "" {
		return nil, oauth2.NewInvalidRequestError("missing parameter: username")
	}
	password := req.Body.Get("password")
	if password == "" {
		return nil, oauth2.NewInvalidRequestError("missing parameter: password")
	}

	user, err := g.users.GetUser(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, oauth2.NewInvalidGrantError("user credentials are invalid")
	}

	return &Result{User: user}, nil
}
