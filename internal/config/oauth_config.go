package config

import "time"

type OAuthConfig interface {
	GetAccessTokenLifetime() time.Duration
	GetRefreshTokenLifetime() time.Duration
	GetAlwaysIssueNewRefreshToken() bool
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetAccessTokenLifetime() time.Duration {
	return GetDurationEnv("ACCESS_TOKEN_LIFETIME", 1*time.Hour)
}

func (OAuth) GetRefreshTokenLifetime() time.Duration {
	return GetDurationEnv("REFRESH_TOKEN_LIFETIME", 7*24*time.Hour) // 7 days
}

// GetAlwaysIssueNewRefreshToken reports whether refresh_token grants rotate
// the refresh token on every use. Set ROTATE_REFRESH_TOKENS=false to keep
// re-issuing the presented token until it expires.
func (OAuth) GetAlwaysIssueNewRefreshToken() bool {
	return GetEnv("ROTATE_REFRESH_TOKENS", "true") != "false"
}
