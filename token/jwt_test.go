package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/token"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://issuer.example.com"
	testAudience = "https://api.example.com"
	testSecret   = "test-signing-secret"
)

func testClient() *model.Client {
	return &model.Client{ID: "test-client", Grants: []string{"password"}}
}

func testUser() *model.User {
	return &model.User{ID: "user-1", Username: "testuser"}
}

func TestJWTFormatGenerateAccessToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	signer := token.NewHMACSigner(testSecret)
	format := token.NewJWTFormat(signer, time.Hour,
		token.WithIssuer(testIssuer),
		token.WithAudience(testAudience),
		token.WithNowFunc(func() time.Time { return now }),
	)

	raw, err := format.GenerateAccessToken(context.Background(), testClient(), testUser(), "read write")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := token.ParseClaims(signer, raw)
	require.NoError(t, err)
	require.Equal(t, "test-client", claims["client_id"])
	require.Equal(t, "user-1", claims["sub"])
	require.Equal(t, "read write", claims["scope"])
	require.Equal(t, testIssuer, claims["iss"])
	require.Equal(t, testAudience, claims["aud"])
	require.Equal(t, float64(now.Unix()), claims["iat"])
	require.Equal(t, float64(now.Add(time.Hour).Unix()), claims["exp"])
	require.NotEmpty(t, claims["jti"])
}

func TestJWTFormatOmitsEmptyClaims(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	format := token.NewJWTFormat(signer, time.Hour)

	raw, err := format.GenerateAccessToken(context.Background(), testClient(), nil, "")
	require.NoError(t, err)

	claims, err := token.ParseClaims(signer, raw)
	require.NoError(t, err)
	require.NotContains(t, claims, "sub")
	require.NotContains(t, claims, "scope")
	require.NotContains(t, claims, "iss")
	require.NotContains(t, claims, "aud")
}

func TestJWTFormatWithKeyPairSigners(t *testing.T) {
	t.Run("RSA", func(t *testing.T) {
		keyPair, err := token.GenerateRSAKeyPair("test-rsa", 2048)
		require.NoError(t, err)

		signer := token.NewKeyPairSigner(keyPair)
		format := token.NewJWTFormat(signer, time.Hour)

		raw, err := format.GenerateAccessToken(context.Background(), testClient(), testUser(), "read")
		require.NoError(t, err)

		claims, err := token.ParseClaims(signer, raw)
		require.NoError(t, err)
		require.Equal(t, "test-client", claims["client_id"])
	})

	t.Run("ECDSA", func(t *testing.T) {
		keyPair, err := token.GenerateECDSAKeyPair("test-ec")
		require.NoError(t, err)

		signer := token.NewKeyPairSigner(keyPair)
		format := token.NewJWTFormat(signer, time.Hour)

		raw, err := format.GenerateAccessToken(context.Background(), testClient(), testUser(), "")
		require.NoError(t, err)

		claims, err := token.ParseClaims(signer, raw)
		require.NoError(t, err)
		require.Equal(t, "user-1", claims["sub"])
	})
}

func TestParseClaimsRejectsForeignTokens(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	other := token.NewHMACSigner("a-different-secret")
	format := token.NewJWTFormat(other, time.Hour)

	raw, err := format.GenerateAccessToken(context.Background(), testClient(), testUser(), "")
	require.NoError(t, err)

	_, err = token.ParseClaims(signer, raw)
	require.Error(t, err)
}

func TestParseClaimsRejectsExpiredTokens(t *testing.T) {
	signer := token.NewHMACSigner(testSecret)
	format := token.NewJWTFormat(signer, time.Hour,
		token.WithNowFunc(func() time.Time { return time.Now().Add(-2 * time.Hour) }),
	)

	raw, err := format.GenerateAccessToken(context.Background(), testClient(), testUser(), "")
	require.NoError(t, err)

	_, err = token.ParseClaims(signer, raw)
	require.Error(t, err)
}

func TestNewOpaque(t *testing.T) {
	first, err := token.NewOpaque()
	require.NoError(t, err)
	require.Len(t, first, 64)

	second, err := token.NewOpaque()
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	short, err := token.NewOpaqueN(16)
	require.NoError(t, err)
	require.Len(t, short, 32)
}

func TestLoadRSAKeyPairFromPEM(t *testing.T) {
	t.Run("rejects garbage", func(t *testing.T) {
		_, err := token.LoadRSAKeyPairFromPEM("kid", "not a pem block")
		require.Error(t, err)
	})
}
