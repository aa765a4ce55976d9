package oauth2

// TokenResponse is the success body of a token request.
// This is the standard OAuth2 token endpoint response format as defined in RFC 6749 §5.1.
// Returned from the /token endpoint for all grant types.
type TokenResponse struct {
	// AccessToken is the token used to access protected resources.
	// Example: "86ae23d88c514b5f7d24b22bbca1e193..."
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Format: opaque random string by default, a JWT when a token format is configured
	AccessToken string `json:"access_token"`

	// TokenType indicates how to use the access token (always "bearer" in this implementation).
	// Example: "bearer"
	// Standard: OAuth2 spec requires this field
	// Usage: Tells the client to send "Authorization: Bearer <token>"
	TokenType string `json:"token_type"`

	// ExpiresIn is the remaining lifetime of the access token in seconds.
	// Example: 3600 (for 1 hour)
	// Usage: Client should refresh the token before expiration
	// Omitted when the access token has no recorded expiry
	ExpiresIn int `json:"expires_in,omitempty"`

	// RefreshToken is an opaque token used to obtain new access tokens.
	// Example: "tGzv3JOkF0XG5Qx2TlKWIA"
	// Usage: Send to /token with grant_type=refresh_token
	// Omitted unless the client's registration includes the refresh_token grant
	RefreshToken string `json:"refresh_token,omitempty"`

	// Scope indicates the access token's granted permissions.
	// Example: "profile email api.read"
	// Usage: Space-separated list of scopes
	// Omitted when the request carried no scope
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is the failure body of a token request, per RFC 6749 §5.2.
type ErrorResponse struct {
	// Error is the RFC 6749 error code, e.g. "invalid_request".
	Error string `json:"error"`

	// ErrorDescription is the human-readable detail for the error.
	// Omitted when the error carries no message.
	ErrorDescription string `json:"error_description,omitempty"`
}
