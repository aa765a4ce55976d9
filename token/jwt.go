package token

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/pkg/errors"
)

var _ Format = (*JWTFormat)(nil)

// JWTFormat mints self-contained JWT access tokens. The expiry baked into the
// exp claim should match the handler's access-token lifetime so the claim and
// the stored expiry agree.
type JWTFormat struct {
	signer   Signer
	expiry   time.Duration
	issuer   string
	audience string
	nowFunc  func() time.Time
}

// JWTFormatOption configures a JWTFormat.
type JWTFormatOption func(*JWTFormat)

// WithIssuer sets the iss claim on minted tokens.
func WithIssuer(issuer string) JWTFormatOption {
	return func(f *JWTFormat) {
		f.issuer = issuer
	}
}

// WithAudience sets the aud claim on minted tokens.
func WithAudience(audience string) JWTFormatOption {
	return func(f *JWTFormat) {
		f.audience = audience
	}
}

// WithNowFunc overrides the time source, for tests.
func WithNowFunc(now func() time.Time) JWTFormatOption {
	return func(f *JWTFormat) {
		f.nowFunc = now
	}
}

// NewJWTFormat creates a JWT access-token format signed by the given signer.
func NewJWTFormat(signer Signer, expiry time.Duration, options ...JWTFormatOption) *JWTFormat {
	f := &JWTFormat{
		signer: signer,
		expiry: expiry,
	}

	for _, opt := range options {
		opt(f)
	}

	if f.nowFunc == nil {
		f.nowFunc = time.Now
	}

	return f
}

func (f *JWTFormat) GenerateAccessToken(_ context.Context, client *model.Client, user *model.User, scope string) (string, error) {
	now := f.nowFunc()

	claims := jwt.MapClaims{
		"jti":       uuid.New().String(),
		"client_id": client.ID,
		"iat":       now.Unix(),
		"exp":       now.Add(f.expiry).Unix(),
	}
	if f.issuer != "" {
		claims["iss"] = f.issuer
	}
	if f.audience != "" {
		claims["aud"] = f.audience
	}
	if user != nil && user.ID != "" {
		claims["sub"] = user.ID
	}
	if scope != "" {
		claims["scope"] = scope
	}

	signed, err := f.signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[GenerateAccessToken] failed to sign access token")
	}
	return signed, nil
}

// ParseClaims verifies a JWT produced by the given signer and returns its
// claims. Used by resource-side callers and tests; the engine itself never
// parses the tokens it mints.
func ParseClaims(signer Signer, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, signer.VerificationKey, jwt.WithValidMethods([]string{signer.Method().Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "[ParseClaims] failed to parse token")
	}
	return claims, nil
}
