package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/store/memory"
	"github.com/stretchr/testify/require"
)

func TestClientLookup(t *testing.T) {
	store := memory.New()
	client := &model.Client{ID: "web-app", Grants: []string{"password"}}
	require.NoError(t, store.AddClient(context.Background(), client, "s3cret"))

	t.Run("valid credentials", func(t *testing.T) {
		got, err := store.GetClient(context.Background(), "web-app", "s3cret")
		require.NoError(t, err)
		require.Equal(t, client, got)
	})

	t.Run("wrong secret is indistinguishable from unknown id", func(t *testing.T) {
		got, err := store.GetClient(context.Background(), "web-app", "wrong")
		require.NoError(t, err)
		require.Nil(t, got)

		got, err = store.GetClient(context.Background(), "no-such-client", "s3cret")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("empty reports seeded state", func(t *testing.T) {
		empty, err := store.Empty(context.Background())
		require.NoError(t, err)
		require.False(t, empty)

		empty, err = memory.New().Empty(context.Background())
		require.NoError(t, err)
		require.True(t, empty)
	})
}

func TestUserLookup(t *testing.T) {
	store := memory.New()
	alice := &model.User{ID: "u-1", Username: "alice"}
	require.NoError(t, store.AddUser(context.Background(), "alice", "pa55word", alice))

	got, err := store.GetUser(context.Background(), "alice", "pa55word")
	require.NoError(t, err)
	require.Equal(t, alice, got)

	got, err = store.GetUser(context.Background(), "alice", "wrong")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestServiceAccounts(t *testing.T) {
	store := memory.New()
	robot := &model.User{ID: "svc-1"}
	require.NoError(t, store.LinkServiceAccount(context.Background(), "batch-worker", robot))

	got, err := store.GetUserFromClient(context.Background(), &model.Client{ID: "batch-worker"})
	require.NoError(t, err)
	require.Equal(t, robot, got)

	got, err = store.GetUserFromClient(context.Background(), &model.Client{ID: "other"})
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSubjects(t *testing.T) {
	store := memory.New()
	alice := &model.User{ID: "u-1"}
	require.NoError(t, store.LinkSubject(context.Background(), "https://idp.example.com", "idp-42", alice))

	got, err := store.GetUserBySubject(context.Background(), "https://idp.example.com", "idp-42")
	require.NoError(t, err)
	require.Equal(t, alice, got)

	got, err = store.GetUserBySubject(context.Background(), "https://idp.example.com", "idp-unknown")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestSaveTokenIndexesRefreshToken(t *testing.T) {
	store := memory.New()
	client := &model.Client{ID: "web-app", Grants: []string{"password", "refresh_token"}}
	alice := &model.User{ID: "u-1"}
	expiresAt := time.Now().Add(24 * time.Hour).Truncate(time.Second)

	issued := &model.Token{
		AccessToken:           "access-1",
		AccessTokenExpiresAt:  time.Now().Add(time.Minute),
		RefreshToken:          "refresh-1",
		RefreshTokenExpiresAt: expiresAt,
		Scope:                 "read",
		Client:                client,
		User:                  alice,
	}
	saved, err := store.SaveToken(context.Background(), issued)
	require.NoError(t, err)
	require.Same(t, issued, saved)

	token, err := store.GetToken(context.Background(), "access-1")
	require.NoError(t, err)
	require.Same(t, issued, token)

	record, err := store.GetRefreshToken(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, client, record.Client)
	require.Equal(t, alice, record.User)
	require.Equal(t, "read", record.Scope)
	require.Equal(t, expiresAt, record.ExpiresAt)

	require.NoError(t, store.RevokeRefreshToken(context.Background(), "refresh-1"))
	record, err = store.GetRefreshToken(context.Background(), "refresh-1")
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestAuthCodes(t *testing.T) {
	store := memory.New()
	client := &model.Client{ID: "web-app", Grants: []string{"authorization_code"}}

	t.Run("round trip and revoke", func(t *testing.T) {
		code := &model.Code{
			Code:      "one-time-code",
			Client:    client,
			User:      &model.User{ID: "u-1"},
			ExpiresAt: time.Now().Add(time.Minute),
		}
		require.NoError(t, store.SaveAuthCode(context.Background(), code))

		got, err := store.GetAuthCode(context.Background(), "one-time-code")
		require.NoError(t, err)
		require.Same(t, code, got)

		require.NoError(t, store.RevokeAuthCode(context.Background(), "one-time-code"))
		got, err = store.GetAuthCode(context.Background(), "one-time-code")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("already expired codes are rejected", func(t *testing.T) {
		err := store.SaveAuthCode(context.Background(), &model.Code{
			Code:      "stale-code",
			ExpiresAt: time.Now().Add(-time.Second),
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "already expired")
	})

	t.Run("expired entries disappear", func(t *testing.T) {
		code := &model.Code{
			Code:      "short-lived",
			ExpiresAt: time.Now().Add(20 * time.Millisecond),
		}
		require.NoError(t, store.SaveAuthCode(context.Background(), code))
		time.Sleep(50 * time.Millisecond)

		got, err := store.GetAuthCode(context.Background(), "short-lived")
		require.NoError(t, err)
		require.Nil(t, got)
	})
}
