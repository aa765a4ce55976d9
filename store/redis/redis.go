// Package redis provides a Redis-backed model implementation for deployments
// where token state is shared across instances. Records are stored as JSON
// values under typed key prefixes; tokens, refresh tokens and authorization
// codes carry a TTL derived from their expiry so Redis retires them itself.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	clientKeyPrefix       = "oauth:client:"
	userKeyPrefix         = "oauth:user:"
	serviceAccountPrefix  = "oauth:svc:"
	subjectKeyPrefix      = "oauth:subject:"
	tokenKeyPrefix        = "oauth:token:"
	refreshTokenKeyPrefix = "oauth:refresh:"
	codeKeyPrefix         = "oauth:code:"
)

var (
	_ model.Model               = (*Store)(nil)
	_ model.UserGetter          = (*Store)(nil)
	_ model.ClientUserGetter    = (*Store)(nil)
	_ model.AuthCodeGetter      = (*Store)(nil)
	_ model.AuthCodeRevoker     = (*Store)(nil)
	_ model.RefreshTokenGetter  = (*Store)(nil)
	_ model.RefreshTokenRevoker = (*Store)(nil)
	_ model.SubjectUserGetter   = (*Store)(nil)
)

type clientRecord struct {
	Client     *model.Client `json:"client"`
	SecretHash []byte        `json:"secret_hash"`
}

type userRecord struct {
	User         *model.User `json:"user"`
	PasswordHash []byte      `json:"password_hash"`
}

// Store is the Redis-backed model.
type Store struct {
	client *redis.Client
}

// New connects to the Redis instance named by url (redis://host:port/db) and
// verifies the connection with a ping.
func New(url string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "[New] failed to parse redis URL")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "[New] redis ping failed")
	}
	return &Store{client: client}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

// AddClient registers a client. The secret is bcrypt-hashed before storage.
func (s *Store) AddClient(ctx context.Context, client *model.Client, secret string) error {
	if client == nil || client.ID == "" {
		return errors.New("[AddClient] client with an ID is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "[AddClient] failed to hash client secret")
	}
	return s.setJSON(ctx, clientKeyPrefix+client.ID, clientRecord{Client: client, SecretHash: hash}, 0)
}

// AddUser registers a user under the given username and password.
func (s *Store) AddUser(ctx context.Context, username, password string, user *model.User) error {
	if username == "" || user == nil {
		return errors.New("[AddUser] username and user are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "[AddUser] failed to hash password")
	}
	return s.setJSON(ctx, userKeyPrefix+username, userRecord{User: user, PasswordHash: hash}, 0)
}

// LinkServiceAccount maps a client to the user it acts as under the
// client_credentials grant.
func (s *Store) LinkServiceAccount(ctx context.Context, clientID string, user *model.User) error {
	return s.setJSON(ctx, serviceAccountPrefix+clientID, user, 0)
}

// LinkSubject maps a federated issuer/subject pair to a local user.
func (s *Store) LinkSubject(ctx context.Context, issuer, subject string, user *model.User) error {
	return s.setJSON(ctx, subjectKeyPrefix+issuer+"|"+subject, user, 0)
}

// SaveAuthCode stores a one-time authorization code until its expiry.
func (s *Store) SaveAuthCode(ctx context.Context, code *model.Code) error {
	if code == nil || code.Code == "" {
		return errors.New("[SaveAuthCode] code with a value is required")
	}
	var ttl time.Duration
	if !code.ExpiresAt.IsZero() {
		ttl = time.Until(code.ExpiresAt)
		if ttl <= 0 {
			return errors.New("[SaveAuthCode] code is already expired")
		}
	}
	return s.setJSON(ctx, codeKeyPrefix+code.Code, code, ttl)
}

func (s *Store) GetClient(ctx context.Context, clientID, clientSecret string) (*model.Client, error) {
	var record clientRecord
	found, err := s.getJSON(ctx, clientKeyPrefix+clientID, &record)
	if err != nil || !found {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(record.SecretHash, []byte(clientSecret)) != nil {
		return nil, nil
	}
	return record.Client, nil
}

func (s *Store) SaveToken(ctx context.Context, token *model.Token) (*model.Token, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("[SaveToken] token with an access token is required")
	}

	if err := s.setJSON(ctx, tokenKeyPrefix+token.AccessToken, token, ttlUntil(token.AccessTokenExpiresAt)); err != nil {
		return nil, err
	}
	if token.RefreshToken != "" {
		record := &model.RefreshToken{
			Token:     token.RefreshToken,
			Client:    token.Client,
			User:      token.User,
			Scope:     token.Scope,
			ExpiresAt: token.RefreshTokenExpiresAt,
		}
		if err := s.setJSON(ctx, refreshTokenKeyPrefix+token.RefreshToken, record, ttlUntil(record.ExpiresAt)); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// GetToken looks an issued token up by its access token value.
func (s *Store) GetToken(ctx context.Context, accessToken string) (*model.Token, error) {
	var token model.Token
	found, err := s.getJSON(ctx, tokenKeyPrefix+accessToken, &token)
	if err != nil || !found {
		return nil, err
	}
	return &token, nil
}

func (s *Store) GetUser(ctx context.Context, username, password string) (*model.User, error) {
	var record userRecord
	found, err := s.getJSON(ctx, userKeyPrefix+username, &record)
	if err != nil || !found {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword(record.PasswordHash, []byte(password)) != nil {
		return nil, nil
	}
	return record.User, nil
}

func (s *Store) GetUserFromClient(ctx context.Context, client *model.Client) (*model.User, error) {
	if client == nil {
		return nil, nil
	}
	var user model.User
	found, err := s.getJSON(ctx, serviceAccountPrefix+client.ID, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetAuthCode(ctx context.Context, code string) (*model.Code, error) {
	var record model.Code
	found, err := s.getJSON(ctx, codeKeyPrefix+code, &record)
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

func (s *Store) RevokeAuthCode(ctx context.Context, code string) error {
	return errors.Wrap(s.client.Del(ctx, codeKeyPrefix+code).Err(), "[RevokeAuthCode] delete failed")
}

func (s *Store) GetRefreshToken(ctx context.Context, refreshToken string) (*model.RefreshToken, error) {
	var record model.RefreshToken
	found, err := s.getJSON(ctx, refreshTokenKeyPrefix+refreshToken, &record)
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return errors.Wrap(s.client.Del(ctx, refreshTokenKeyPrefix+refreshToken).Err(), "[RevokeRefreshToken] delete failed")
}

func (s *Store) GetUserBySubject(ctx context.Context, issuer, subject string) (*model.User, error) {
	var user model.User
	found, err := s.getJSON(ctx, subjectKeyPrefix+issuer+"|"+subject, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// Empty reports whether no clients are stored, as found on first boot.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	keys, err := s.client.Keys(ctx, clientKeyPrefix+"*").Result()
	if err != nil {
		return false, errors.Wrap(err, "[Empty] keys scan failed")
	}
	return len(keys) == 0, nil
}

func (s *Store) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "[setJSON] failed to marshal %q", key)
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return errors.Wrapf(err, "[setJSON] failed to set %q", key)
	}
	return nil
}

// getJSON reads and unmarshals key into dest, reporting a miss as found=false
// rather than an error.
func (s *Store) getJSON(ctx context.Context, key string, dest any) (found bool, err error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "[getJSON] failed to get %q", key)
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return false, errors.Wrapf(err, "[getJSON] failed to unmarshal %q", key)
	}
	return true, nil
}

// ttlUntil converts an absolute expiry to a Set TTL; zero means no expiry.
func ttlUntil(expiresAt time.Time) time.Duration {
	if expiresAt.IsZero() {
		return 0
	}
	ttl := time.Until(expiresAt)
	if ttl < 0 {
		return time.Millisecond
	}
	return ttl
}
