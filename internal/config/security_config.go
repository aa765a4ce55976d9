package config

type SecurityConfig interface {
	GetTokenFormat() string
	GetJWTSigningSecret() string
	GetJWTIssuer() string
}

const (
	TokenFormatOpaque = "opaque"
	TokenFormatJWT    = "jwt"
)

type Security struct{}

var _ SecurityConfig = Security{}

// GetTokenFormat selects the access token representation: opaque random
// strings (the default) or signed JWTs.
func (Security) GetTokenFormat() string {
	return GetEnv("TOKEN_FORMAT", TokenFormatOpaque)
}

func (Security) GetJWTSigningSecret() string {
	return GetEnv("JWT_SIGNING_SECRET", "")
}

// GetJWTIssuer returns the "iss" claim for JWT access tokens. Empty means
// fall back to the base URL.
func (Security) GetJWTIssuer() string {
	return GetEnv("JWT_ISSUER", "")
}
