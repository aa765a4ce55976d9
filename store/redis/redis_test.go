package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-server/model"
	redisstore "github.com/jrsteele09/go-token-server/store/redis"
	"github.com/stretchr/testify/require"
)

// setupStore connects to the Redis instance named by REDIS_ADDR and skips
// the test when none is configured.
func setupStore(t *testing.T) *redisstore.Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping redis integration test")
	}

	store, err := redisstore.New("redis://" + addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestClientRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	clientID := "client-" + uuid.NewString()
	client := &model.Client{ID: clientID, Grants: []string{"password", "refresh_token"}}
	require.NoError(t, store.AddClient(ctx, client, "s3cret"))

	got, err := store.GetClient(ctx, clientID, "s3cret")
	require.NoError(t, err)
	require.Equal(t, client, got)

	got, err = store.GetClient(ctx, clientID, "wrong")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = store.GetClient(ctx, "unknown-"+uuid.NewString(), "s3cret")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUserRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	username := "user-" + uuid.NewString()
	alice := &model.User{ID: uuid.NewString(), Username: username}
	require.NoError(t, store.AddUser(ctx, username, "pa55word", alice))

	got, err := store.GetUser(ctx, username, "pa55word")
	require.NoError(t, err)
	require.Equal(t, alice, got)

	got, err = store.GetUser(ctx, username, "wrong")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTokenPersistenceAndRefreshIndex(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	client := &model.Client{ID: "client-" + uuid.NewString(), Grants: []string{"refresh_token"}}
	user := &model.User{ID: uuid.NewString()}
	issued := &model.Token{
		AccessToken:           "access-" + uuid.NewString(),
		AccessTokenExpiresAt:  time.Now().Add(time.Minute),
		RefreshToken:          "refresh-" + uuid.NewString(),
		RefreshTokenExpiresAt: time.Now().Add(time.Hour),
		Scope:                 "read",
		Client:                client,
		User:                  user,
	}

	saved, err := store.SaveToken(ctx, issued)
	require.NoError(t, err)
	require.Same(t, issued, saved)

	token, err := store.GetToken(ctx, issued.AccessToken)
	require.NoError(t, err)
	require.NotNil(t, token)
	require.Equal(t, issued.AccessToken, token.AccessToken)
	require.Equal(t, client.ID, token.Client.ID)

	record, err := store.GetRefreshToken(ctx, issued.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, record)
	require.Equal(t, user.ID, record.User.ID)
	require.Equal(t, "read", record.Scope)

	require.NoError(t, store.RevokeRefreshToken(ctx, issued.RefreshToken))
	record, err = store.GetRefreshToken(ctx, issued.RefreshToken)
	require.NoError(t, err)
	require.Nil(t, record)
}

func TestAuthCodeTTL(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	code := &model.Code{
		Code:      "code-" + uuid.NewString(),
		Client:    &model.Client{ID: "client-" + uuid.NewString()},
		User:      &model.User{ID: uuid.NewString()},
		ExpiresAt: time.Now().Add(time.Second),
	}
	require.NoError(t, store.SaveAuthCode(ctx, code))

	got, err := store.GetAuthCode(ctx, code.Code)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, store.RevokeAuthCode(ctx, code.Code))
	got, err = store.GetAuthCode(ctx, code.Code)
	require.NoError(t, err)
	require.Nil(t, got)

	err = store.SaveAuthCode(ctx, &model.Code{
		Code:      "stale-" + uuid.NewString(),
		ExpiresAt: time.Now().Add(-time.Second),
	})
	require.Error(t, err)
}

func TestSubjectsAndServiceAccounts(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	issuer := "https://idp.example.com"
	subject := "subject-" + uuid.NewString()
	alice := &model.User{ID: uuid.NewString()}
	require.NoError(t, store.LinkSubject(ctx, issuer, subject, alice))

	got, err := store.GetUserBySubject(ctx, issuer, subject)
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	clientID := "client-" + uuid.NewString()
	require.NoError(t, store.LinkServiceAccount(ctx, clientID, alice))

	got, err = store.GetUserFromClient(ctx, &model.Client{ID: clientID})
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	got, err = store.GetUserFromClient(ctx, &model.Client{ID: "unlinked-" + uuid.NewString()})
	require.NoError(t, err)
	require.Nil(t, got)
}
