package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/pkg/errors"
)

const defaultOpaqueBytes = 32

// NewOpaque returns a hex-encoded token from 32 bytes of crypto/rand.
func NewOpaque() (string, error) {
	return NewOpaqueN(defaultOpaqueBytes)
}

// NewOpaqueN returns a hex-encoded token from n bytes of crypto/rand.
func NewOpaqueN(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[NewOpaqueN] failed to read random bytes")
	}
	return hex.EncodeToString(buf), nil
}

var _ Format = OpaqueFormat{}

// OpaqueFormat mints opaque random access tokens. Resource servers must
// introspect or look these up; nothing is encoded in the string itself.
type OpaqueFormat struct{}

func (OpaqueFormat) GenerateAccessToken(_ context.Context, _ *model.Client, _ *model.User, _ string) (string, error) {
	return NewOpaque()
}
