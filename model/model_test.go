package model_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/stretchr/testify/require"
)

func TestClientHasGrant(t *testing.T) {
	client := &model.Client{
		ID:     "app",
		Grants: []string{"password", "refresh_token", "urn:ietf:params:oauth:grant-type:jwt-bearer"},
	}

	require.True(t, client.HasGrant("password"))
	require.True(t, client.HasGrant("urn:ietf:params:oauth:grant-type:jwt-bearer"))
	require.False(t, client.HasGrant("client_credentials"))
	require.False(t, client.HasGrant("PASSWORD"))
}

func TestCodeExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	fresh := &model.Code{Code: "abc", ExpiresAt: now.Add(time.Minute)}
	stale := &model.Code{Code: "def", ExpiresAt: now.Add(-time.Minute)}

	require.False(t, fresh.Expired(now))
	require.True(t, stale.Expired(now))
}

func TestRefreshTokenExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("zero expiry never expires", func(t *testing.T) {
		rt := &model.RefreshToken{Token: "abc"}
		require.False(t, rt.Expired(now))
	})

	t.Run("past expiry expires", func(t *testing.T) {
		rt := &model.RefreshToken{Token: "abc", ExpiresAt: now.Add(-time.Second)}
		require.True(t, rt.Expired(now))
	})
}
