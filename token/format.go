// Package token generates token strings for the issuance engine: opaque
// crypto-random values by default, self-contained JWTs when a signer is
// configured.
package token

import (
	"context"

	"github.com/jrsteele09/go-token-server/model"
)

// Format mints the access-token string for an issued token. The engine uses
// OpaqueFormat unless the handler is configured with another Format or the
// model implements the AccessTokenGenerator capability.
type Format interface {
	GenerateAccessToken(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error)
}
