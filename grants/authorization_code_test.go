package grants_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-server/grants"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/model/modelfakes"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationCodeGrant(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	alice := &model.User{ID: "u-1", Username: "alice"}
	client := &model.Client{ID: "web-app", Grants: []string{"authorization_code"}}

	newGrant := func(t *testing.T, fake *modelfakes.FakeModel) *grants.AuthorizationCode {
		t.Helper()
		grant, err := grants.NewAuthorizationCode(grants.Config{
			Model: fake,
			Now:   func() time.Time { return now },
		})
		require.NoError(t, err)
		return grant
	}

	validCode := func() *model.Code {
		return &model.Code{
			Code:      "splxlOBeZQQYbYS6WxSbIA",
			Client:    client,
			User:      alice,
			Scope:     "read",
			ExpiresAt: now.Add(time.Minute),
		}
	}

	t.Run("valid code resolves the stored record", func(t *testing.T) {
		fake := modelfakes.NewFakeModel()
		code := validCode()
		fake.AddAuthCode(code)
		grant := newGrant(t, fake)

		result, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code": {code.Code},
		}), client)
		require.NoError(t, err)
		require.Equal(t, code, result.Code)
		require.Equal(t, alice, result.ResolveUser())
	})

	t.Run("code is consumed on use", func(t *testing.T) {
		fake := modelfakes.NewFakeModel()
		code := validCode()
		fake.AddAuthCode(code)
		grant := newGrant(t, fake)

		_, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code": {code.Code},
		}), client)
		require.NoError(t, err)
		require.Equal(t, []string{code.Code}, fake.RevokedAuthCodes())

		_, err = grant.Handle(context.Background(), formRequest(url.Values{
			"code": {code.Code},
		}), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "authorization code is invalid")
	})

	t.Run("missing code parameter", func(t *testing.T) {
		grant := newGrant(t, modelfakes.NewFakeModel())

		_, err := grant.Handle(context.Background(), formRequest(url.Values{}), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing parameter: code")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidRequest, oauthErr.Kind)
	})

	t.Run("unknown code", func(t *testing.T) {
		grant := newGrant(t, modelfakes.NewFakeModel())

		_, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code": {"no-such-code"},
		}), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "authorization code is invalid")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidGrant, oauthErr.Kind)
	})

	t.Run("code issued to another client", func(t *testing.T) {
		fake := modelfakes.NewFakeModel()
		code := validCode()
		code.Client = &model.Client{ID: "other-app"}
		fake.AddAuthCode(code)
		grant := newGrant(t, fake)

		_, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code": {code.Code},
		}), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "authorization code is invalid")
		require.Empty(t, fake.RevokedAuthCodes())
	})

	t.Run("expired code", func(t *testing.T) {
		fake := modelfakes.NewFakeModel()
		code := validCode()
		code.ExpiresAt = now.Add(-time.Second)
		fake.AddAuthCode(code)
		grant := newGrant(t, fake)

		_, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code": {code.Code},
		}), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "authorization code has expired")
	})

	t.Run("redirect URI must match when the code bound one", func(t *testing.T) {
		fake := modelfakes.NewFakeModel()
		code := validCode()
		code.RedirectURI = "https://app.example.com/callback"
		fake.AddAuthCode(code)
		grant := newGrant(t, fake)

		_, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code":         {code.Code},
			"redirect_uri": {"https://evil.example.com/callback"},
		}), client)
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid parameter: redirect_uri")

		oauthErr, ok := oauth2.AsError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.KindInvalidRequest, oauthErr.Kind)

		result, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code":         {code.Code},
			"redirect_uri": {"https://app.example.com/callback"},
		}), client)
		require.NoError(t, err)
		require.Equal(t, code, result.Code)
	})

	t.Run("redirect URI ignored when the code bound none", func(t *testing.T) {
		fake := modelfakes.NewFakeModel()
		code := validCode()
		fake.AddAuthCode(code)
		grant := newGrant(t, fake)

		_, err := grant.Handle(context.Background(), formRequest(url.Values{
			"code":         {code.Code},
			"redirect_uri": {"https://anything.example.com"},
		}), client)
		require.NoError(t, err)
	})
}
