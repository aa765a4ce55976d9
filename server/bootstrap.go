package server

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/oauth2"
	"github.com/jrsteele09/go-token-server/token"
)

const (
	// Demo credentials seeded into an empty DEV store
	DevClientID   = "dev-client"
	DevClientName = "Dev Bootstrap Client"
	DevUsername   = "dev"
)

// SeedStore is the writable surface a model must expose for bootstrap
// seeding. All three bundled stores implement it.
type SeedStore interface {
	AddClient(ctx context.Context, client *model.Client, secret string) error
	AddUser(ctx context.Context, username, password string, user *model.User) error
	LinkServiceAccount(ctx context.Context, clientID string, user *model.User) error
	Empty(ctx context.Context) (bool, error)
}

// seedDevData creates a demo client and user the first time an empty store
// comes up in DEV. Generated secrets are logged once and never stored in
// clear. Non-DEV environments and models without a seeding surface are left
// untouched.
func (s *Server) seedDevData(ctx context.Context, m model.Model) error {
	if s.env != "DEV" {
		return nil
	}
	store, ok := m.(SeedStore)
	if !ok {
		return nil
	}

	empty, err := store.Empty(ctx)
	if err != nil {
		return fmt.Errorf("failed to check store state: %w", err)
	}
	if !empty {
		log.Printf("✅ Bootstrap: store already seeded")
		return nil
	}

	clientSecret, err := token.NewOpaqueN(16)
	if err != nil {
		return fmt.Errorf("failed to generate client secret: %w", err)
	}
	password, err := token.NewOpaqueN(8)
	if err != nil {
		return fmt.Errorf("failed to generate user password: %w", err)
	}

	client := &model.Client{
		ID:          DevClientID,
		Description: DevClientName,
		Grants: []string{
			string(oauth2.PasswordGrant),
			string(oauth2.ClientCredentialsGrant),
			string(oauth2.AuthorizationCodeGrant),
			string(oauth2.RefreshTokenGrant),
		},
	}
	if err := store.AddClient(ctx, client, clientSecret); err != nil {
		return fmt.Errorf("failed to seed dev client: %w", err)
	}

	user := &model.User{ID: uuid.NewString(), Username: DevUsername, Email: "dev@localhost"}
	if err := store.AddUser(ctx, DevUsername, password, user); err != nil {
		return fmt.Errorf("failed to seed dev user: %w", err)
	}
	if err := store.LinkServiceAccount(ctx, client.ID, user); err != nil {
		return fmt.Errorf("failed to link dev service account: %w", err)
	}

	log.Printf("✅ Bootstrap complete: DEV store seeded")
	log.Printf("")
	log.Printf("🔐 Demo OAuth2 Client:")
	log.Printf("   client_id:     %s", client.ID)
	log.Printf("   client_secret: %s", clientSecret)
	log.Printf("   grants:        %v", client.Grants)
	log.Printf("")
	log.Printf("👤 Demo User:")
	log.Printf("   username: %s", DevUsername)
	log.Printf("   password: %s", password)
	log.Printf("   ⚠️  SAVE THESE CREDENTIALS - they will not be displayed again!")
	log.Printf("")
	log.Printf("   Token endpoint: %s%s", s.config.GetBaseURL(), RouteOAuth2Token)

	return nil
}
