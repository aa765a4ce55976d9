// Command seed provisions OAuth2 clients and users into the configured
// store. It reads STORE_BACKEND the same way the server does; the memory
// backend lives in-process and cannot be seeded from outside.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-token-server/internal/config"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/store/postgres"
	"github.com/jrsteele09/go-token-server/store/redis"
	"github.com/jrsteele09/go-token-server/token"
)

// seedStore is the writable surface this tool needs; the redis and postgres
// stores both provide it.
type seedStore interface {
	AddClient(ctx context.Context, client *model.Client, secret string) error
	AddUser(ctx context.Context, username, password string, user *model.User) error
	LinkServiceAccount(ctx context.Context, clientID string, user *model.User) error
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error seeding store: %s\n", err)
	}
}

func run() error {
	clientID := flag.String("client-id", "", "client identifier to create (required)")
	clientSecret := flag.String("client-secret", "", "client secret; generated when empty")
	grantsCSV := flag.String("grants", "password,refresh_token", "comma-separated grant types the client may use")
	description := flag.String("description", "", "client description")
	username := flag.String("username", "", "user to create (optional)")
	password := flag.String("password", "", "user password; generated when empty")
	email := flag.String("email", "", "user email")
	serviceAccount := flag.Bool("service-account", false, "link the user to the client for the client_credentials grant")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is\n")
	}

	if *clientID == "" {
		flag.Usage()
		return errors.New("client-id is required")
	}

	c := config.New()
	store, cleanup, err := openStore(c)
	if err != nil {
		return fmt.Errorf("openStore: %w", err)
	}
	defer cleanup()

	ctx := context.Background()

	secret := *clientSecret
	generatedSecret := secret == ""
	if generatedSecret {
		if secret, err = token.NewOpaqueN(16); err != nil {
			return fmt.Errorf("failed to generate client secret: %w", err)
		}
	}

	client := &model.Client{ID: *clientID, Description: *description, Grants: splitCSV(*grantsCSV)}
	if err := store.AddClient(ctx, client, secret); err != nil {
		return fmt.Errorf("AddClient: %w", err)
	}
	log.Printf("Created client %q with grants: %s", client.ID, strings.Join(client.Grants, ", "))
	if generatedSecret {
		log.Printf("   client_secret: %s  (generated, shown once)", secret)
	}

	if *username == "" {
		return nil
	}

	pass := *password
	generatedPassword := pass == ""
	if generatedPassword {
		if pass, err = token.NewOpaqueN(8); err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
	}

	user := &model.User{ID: uuid.NewString(), Username: *username, Email: *email}
	if err := store.AddUser(ctx, *username, pass, user); err != nil {
		return fmt.Errorf("AddUser: %w", err)
	}
	log.Printf("Created user %q", *username)
	if generatedPassword {
		log.Printf("   password: %s  (generated, shown once)", pass)
	}

	if *serviceAccount {
		if err := store.LinkServiceAccount(ctx, client.ID, user); err != nil {
			return fmt.Errorf("LinkServiceAccount: %w", err)
		}
		log.Printf("Linked %q as the service account for client %q", *username, client.ID)
	}

	return nil
}

func openStore(c config.Config) (seedStore, func(), error) {
	switch c.GetStoreBackend() {
	case config.StoreBackendRedis:
		store, err := redis.New(c.GetRedisURL())
		if err != nil {
			return nil, nil, fmt.Errorf("redis.New: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	case config.StoreBackendPostgres:
		databaseURL := c.GetDatabaseURL()
		if databaseURL == "" {
			return nil, nil, errors.New("DATABASE_URL must be set when STORE_BACKEND=postgres")
		}
		if err := postgres.Migrate(databaseURL); err != nil {
			return nil, nil, fmt.Errorf("postgres.Migrate: %w", err)
		}
		db, err := postgres.Open(databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres.Open: %w", err)
		}
		return postgres.New(db), func() { _ = db.Close() }, nil

	case config.StoreBackendMemory:
		return nil, nil, errors.New("the memory store lives in-process and cannot be seeded externally")

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", c.GetStoreBackend())
	}
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
