package oauth2

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are exchanged for tokens.
type GrantType string

const (
	// PasswordGrant exchanges resource-owner credentials for tokens.
	// Token request includes: username, password, client credentials
	// Returns: access_token, refresh_token (if the client's grants allow it)
	// Example: first-party login forms
	PasswordGrant GrantType = "password"

	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Token request includes: client_id, client_secret, scope
	// Returns: access_token (no user context beyond the client's service account)
	// Example: microservice calling another microservice
	ClientCredentialsGrant GrantType = "client_credentials"

	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: code, client credentials, redirect_uri (when the
	// code was issued with one)
	// Returns: access_token, refresh_token (if the client's grants allow it)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Token request includes: refresh_token, client credentials
	// Returns: new access_token and, with rotation enabled, a new refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// BearerTokenType is the token_type value rendered for every issued token,
// per RFC 6749 §7.1.
const BearerTokenType = "bearer"
