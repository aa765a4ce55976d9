package jwtbearer_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-token-server/grants"
	"github.com/jrsteele09/go-token-server/grants/jwtbearer"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/model/modelfakes"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

const trustedIssuer = "https://idp.example.com"

func assertionRequest(assertion string) *oauth2.Request {
	body := url.Values{}
	if assertion != "" {
		body.Set("assertion", assertion)
	}
	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")
	return oauth2.NewRequest(http.MethodPost, header, body, nil)
}

func mintAssertion(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestJWTBearerGrant(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}

	alice := &model.User{ID: "u-1", Username: "alice"}
	client := &model.Client{ID: "partner-app", Grants: []string{jwtbearer.GrantType}}

	newFake := func() *modelfakes.FakeModel {
		fake := modelfakes.NewFakeModel()
		fake.AddSubject(trustedIssuer, "idp-user-42", alice)
		return fake
	}

	newGrant := func(t *testing.T, fake *modelfakes.FakeModel, audience string) grants.Handler {
		t.Helper()
		factory := jwtbearer.Factory(jwtbearer.Options{
			Issuer:   trustedIssuer,
			Audience: audience,
			KeySet:   keySet,
		})
		grant, err := factory(grants.Config{Model: fake})
		require.NoError(t, err)
		return grant
	}

	validClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss": trustedIssuer,
			"sub": "idp-user-42",
			"aud": "token-server",
			"iat": time.Now().Unix(),
			"exp": time.Now().Add(time.Minute).Unix(),
		}
	}

	t.Run("valid assertion resolves the mapped user", func(t *testing.T) {
		grant := newGrant(t, newFake(), "")

		result, err := grant.Handle(context.Background(), assertionRequest(mintAssertion(t, key, validClaims())), client)
		require.NoError(t, err)
		require.Equal(t, alice, result.ResolveUser())
	})

	t.Run("audience is enforced when configured", func(t *testing.T) {
		grant := newGrant(t, newFake(), "token-server")

		_, err := grant.Handle(context.Background(), assertionRequest(mintAssertion(t, key, validClaims())), client)
		require.NoError(t, err)

		claims := validClaims()
		claims["aud"] = "someone-else"
		_, err = grant.Handle(context.Background(), assertionRequest(mintAssertion(t, key, claims)), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "assertion is invalid")
	})

	t.Run("missing assertion parameter", func(t *testing.T) {
		grant := newGrant(t, newFake(), "")

		_, err := grant.Handle(context.Background(), assertionRequest(""), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing parameter: assertion")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidRequest, oauthErr.Kind)
	})

	t.Run("assertion signed by an untrusted key", func(t *testing.T) {
		grant := newGrant(t, newFake(), "")

		foreignKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		_, err = grant.Handle(context.Background(), assertionRequest(mintAssertion(t, foreignKey, validClaims())), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "assertion is invalid")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidGrant, oauthErr.Kind)
		require.Error(t, oauthErr.Inner)
	})

	t.Run("expired assertion", func(t *testing.T) {
		grant := newGrant(t, newFake(), "")

		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		_, err := grant.Handle(context.Background(), assertionRequest(mintAssertion(t, key, claims)), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "assertion is invalid")
	})

	t.Run("assertion from the wrong issuer", func(t *testing.T) {
		grant := newGrant(t, newFake(), "")

		claims := validClaims()
		claims["iss"] = "https://other-idp.example.com"
		_, err := grant.Handle(context.Background(), assertionRequest(mintAssertion(t, key, claims)), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "assertion is invalid")
	})

	t.Run("unknown subject", func(t *testing.T) {
		grant := newGrant(t, newFake(), "")

		claims := validClaims()
		claims["sub"] = "idp-user-unmapped"
		_, err := grant.Handle(context.Background(), assertionRequest(mintAssertion(t, key, claims)), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "assertion subject is unknown")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidGrant, oauthErr.Kind)
	})

	t.Run("model without GetUserBySubject", func(t *testing.T) {
		factory := jwtbearer.Factory(jwtbearer.Options{Issuer: trustedIssuer, KeySet: keySet})

		_, err := factory(grants.Config{Model: &modelfakes.MinimalModel{}})
		require.Error(t, err)
		require.Contains(t, err.Error(), "model does not implement GetUserBySubject")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindServerError, oauthErr.Kind)
	})

	t.Run("issuer and key set are required", func(t *testing.T) {
		_, err := jwtbearer.Factory(jwtbearer.Options{})(grants.Config{Model: newFake()})
		require.Error(t, err)
		require.Contains(t, err.Error(), "requires an issuer and a key set")
	})
}
