package model

import "time"

// Token is an issued token as built by the engine and persisted by the model.
// RefreshToken and RefreshTokenExpiresAt are populated only when the client's
// grants include refresh_token; otherwise both stay zero and are omitted from
// the rendered response.
type Token struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitzero"`
	Scope                 string    `json:"scope,omitempty"`
	Client                *Client   `json:"client"`
	User                  *User     `json:"user"`
}

// Code is an authorization-code record: the one-time code, the client and
// user it was issued to, the scope and redirect URI bound at issue time, and
// its expiry.
type Code struct {
	Code        string    `json:"code"`
	Client      *Client   `json:"client"`
	User        *User     `json:"user"`
	Scope       string    `json:"scope,omitempty"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RefreshToken is a stored refresh-token record: the token value, the client
// and user it belongs to, the scope it carries and its expiry.
type RefreshToken struct {
	Token     string    `json:"token"`
	Client    *Client   `json:"client"`
	User      *User     `json:"user"`
	Scope     string    `json:"scope,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *Code) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Expired reports whether the refresh token is past its expiry at the given
// instant. A zero expiry never expires.
func (r *RefreshToken) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}
