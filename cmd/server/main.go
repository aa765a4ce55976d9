package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-token-server/internal/config"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/jrsteele09/go-token-server/server"
	"github.com/jrsteele09/go-token-server/store/memory"
	"github.com/jrsteele09/go-token-server/store/postgres"
	"github.com/jrsteele09/go-token-server/store/redis"
	"github.com/jrsteele09/go-token-server/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is\n")
	}

	c := config.New()
	displayAppname(c.GetAppName())

	store, cleanup, err := openStore(c)
	if err != nil {
		return fmt.Errorf("openStore: %w", err)
	}
	defer cleanup()

	options, err := serverOptions(c)
	if err != nil {
		return fmt.Errorf("serverOptions: %w", err)
	}

	tokenServer, err := server.New(c, store, options...)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: tokenServer}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

// openStore builds the model named by STORE_BACKEND. The returned cleanup
// closes whatever connections the store holds.
func openStore(c config.Config) (model.Model, func(), error) {
	switch c.GetStoreBackend() {
	case config.StoreBackendMemory:
		return memory.New(), func() {}, nil

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

	default:
		return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", c.GetStoreBackend())
	}
}

// serverOptions translates TOKEN_FORMAT into server options. Opaque tokens
// need no configuration; JWTs need a signing secret and pick up the issuer
// from JWT_ISSUER or the base URL.
func serverOptions(c config.Config) ([]server.Option, error) {
	if c.GetTokenFormat() != config.TokenFormatJWT {
		return nil, nil
	}

	secret := c.GetJWTSigningSecret()
	if secret == "" {
		return nil, errors.New("JWT_SIGNING_SECRET must be set when TOKEN_FORMAT=jwt")
	}
	issuer := c.GetJWTIssuer()
	if issuer == "" {
		issuer = c.GetBaseURL()
	}

	format := token.NewJWTFormat(token.NewHMACSigner(secret), c.GetAccessTokenLifetime(), token.WithIssuer(issuer))
	return []server.Option{server.WithAccessTokenFormat(format)}, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
