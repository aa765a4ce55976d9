// Package model defines the persistence contract the token engine calls into
// and the entity types that cross it. The mandatory contract is the Model
// interface; everything else is an optional capability probed with a type
// assertion by the grant strategy (or engine step) that needs it, so a store
// only implements what the grants it serves require.
package model

import "context"

// Model is the mandatory capability set. Every token request authenticates a
// client and persists the issued token, so no store can omit these.
type Model interface {
	// GetClient authenticates a client by id and secret. Implementations
	// return (nil, nil) when the id is unknown or the secret does not match,
	// keeping lookup failures indistinguishable; an error return is reserved
	// for infrastructure failures.
	GetClient(ctx context.Context, clientID, clientSecret string) (*Client, error)

	// SaveToken persists an issued token and returns the stored value. The
	// returned token is what the engine resolves with, so implementations may
	// enrich or override fields.
	SaveToken(ctx context.Context, token *Token) (*Token, error)
}

// UserGetter authenticates resource-owner credentials. Required by the
// password grant. A (nil, nil) return means the credentials do not match.
type UserGetter interface {
	GetUser(ctx context.Context, username, password string) (*User, error)
}

// ClientUserGetter resolves the service account behind a client. Required by
// the client_credentials grant.
type ClientUserGetter interface {
	GetUserFromClient(ctx context.Context, client *Client) (*User, error)
}

// AuthCodeGetter looks up an authorization-code record by its code value.
// Required by the authorization_code grant. A (nil, nil) return means the
// code is unknown.
type AuthCodeGetter interface {
	GetAuthCode(ctx context.Context, code string) (*Code, error)
}

// AuthCodeRevoker consumes an authorization code after a successful exchange.
// Optional: models that implement it get one-shot codes.
type AuthCodeRevoker interface {
	RevokeAuthCode(ctx context.Context, code string) error
}

// RefreshTokenGetter looks up a refresh-token record by its token value.
// Required by the refresh_token grant. A (nil, nil) return means the token is
// unknown.
type RefreshTokenGetter interface {
	GetRefreshToken(ctx context.Context, refreshToken string) (*RefreshToken, error)
}

// RefreshTokenRevoker invalidates a refresh token. Required by the
// refresh_token grant when rotation is enabled, so a used token cannot be
// replayed.
type RefreshTokenRevoker interface {
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
}

// AccessTokenGenerator overrides the engine's access-token string generation.
type AccessTokenGenerator interface {
	GenerateAccessToken(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

// RefreshTokenGenerator overrides the engine's refresh-token string generation.
type RefreshTokenGenerator interface {
	GenerateRefreshToken(ctx context.Context, client *Client, user *User, scope string) (string, error)
}

// SubjectUserGetter resolves a federated subject to a local user. Assertion
// based extension grants probe for it.
type SubjectUserGetter interface {
	GetUserBySubject(ctx context.Context, issuer, subject string) (*User, error)
}
