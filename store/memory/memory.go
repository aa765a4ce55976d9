// Package memory provides an in-memory model implementation for development
// and tests. Clients, users, issued tokens and refresh tokens live in
// mutex-guarded maps; authorization codes live in a TTL cache and expire on
// their own. Client secrets and user passwords are stored as bcrypt hashes.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-token-server/model"
	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const codeCleanupInterval = time.Minute

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
	client     *model.Client
	secretHash []byte
}

type userRecord struct {
	user         *model.User
	passwordHash []byte
}

// Store is the in-memory model.
type Store struct {
	mu              sync.RWMutex
	clients         map[string]clientRecord
	users           map[string]userRecord
	serviceAccounts map[string]*model.User
	subjects        map[string]*model.User
	tokens          map[string]*model.Token
	refreshTokens   map[string]*model.RefreshToken
	codes           *gocache.Cache
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		clients:         make(map[string]clientRecord),
		users:           make(map[string]userRecord),
		serviceAccounts: make(map[string]*model.User),
		subjects:        make(map[string]*model.User),
		tokens:          make(map[string]*model.Token),
		refreshTokens:   make(map[string]*model.RefreshToken),
		codes:           gocache.New(gocache.NoExpiration, codeCleanupInterval),
	}
}

// AddClient registers a client. The secret is bcrypt-hashed before storage
// and never kept in clear.
func (s *Store) AddClient(_ context.Context, client *model.Client, secret string) error {
	if client == nil || client.ID == "" {
		return errors.New("[AddClient] client with an ID is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "[AddClient] failed to hash client secret")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client.ID] = clientRecord{client: client, secretHash: hash}
	return nil
}

// AddUser registers a user under the given username and password.
func (s *Store) AddUser(_ context.Context, username, password string, user *model.User) error {
	if username == "" || user == nil {
		return errors.New("[AddUser] username and user are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "[AddUser] failed to hash password")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = userRecord{user: user, passwordHash: hash}
	return nil
}

// LinkServiceAccount maps a client to the user it acts as under the
// client_credentials grant.
func (s *Store) LinkServiceAccount(_ context.Context, clientID string, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serviceAccounts[clientID] = user
	return nil
}

// LinkSubject maps a federated issuer/subject pair to a local user for the
// jwt-bearer grant.
func (s *Store) LinkSubject(_ context.Context, issuer, subject string, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects[subjectKey(issuer, subject)] = user
	return nil
}

// SaveAuthCode stores a one-time authorization code until its expiry.
func (s *Store) SaveAuthCode(_ context.Context, code *model.Code) error {
	if code == nil || code.Code == "" {
		return errors.New("[SaveAuthCode] code with a value is required")
	}
	ttl := gocache.NoExpiration
	if !code.ExpiresAt.IsZero() {
		ttl = time.Until(code.ExpiresAt)
		if ttl <= 0 {
			return errors.New("[SaveAuthCode] code is already expired")
		}
	}
	s.codes.Set(code.Code, code, ttl)
	return nil
}

func (s *Store) GetClient(_ context.Context, clientID, clientSecret string) (*model.Client, error) {
	s.mu.RLock()
	record, ok := s.clients[clientID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	// Wrong secret and unknown client look the same to the caller.
	if bcrypt.CompareHashAndPassword(record.secretHash, []byte(clientSecret)) != nil {
		return nil, nil
	}
	return record.client, nil
}

func (s *Store) SaveToken(_ context.Context, token *model.Token) (*model.Token, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("[SaveToken] token with an access token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token.AccessToken] = token
	if token.RefreshToken != "" {
		s.refreshTokens[token.RefreshToken] = &model.RefreshToken{
			Token:     token.RefreshToken,
			Client:    token.Client,
			User:      token.User,
			Scope:     token.Scope,
			ExpiresAt: token.RefreshTokenExpiresAt,
		}
	}
	return token, nil
}

// GetToken looks an issued token up by its access token value.
func (s *Store) GetToken(_ context.Context, accessToken string) (*model.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens[accessToken], nil
}

func (s *Store) GetUser(_ context.Context, username, password string) (*model.User, error) {
	s.mu.RLock()
	record, ok := s.users[username]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if bcrypt.CompareHashAndPassword(record.passwordHash, []byte(password)) != nil {
		return nil, nil
	}
	return record.user, nil
}

func (s *Store) GetUserFromClient(_ context.Context, client *model.Client) (*model.User, error) {
	if client == nil {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serviceAccounts[client.ID], nil
}

func (s *Store) GetAuthCode(_ context.Context, code string) (*model.Code, error) {
	value, ok := s.codes.Get(code)
	if !ok {
		return nil, nil
	}
	record, ok := value.(*model.Code)
	if !ok {
		return nil, errors.Errorf("[GetAuthCode] unexpected cache entry type %T", value)
	}
	return record, nil
}

func (s *Store) RevokeAuthCode(_ context.Context, code string) error {
	s.codes.Delete(code)
	return nil
}

func (s *Store) GetRefreshToken(_ context.Context, refreshToken string) (*model.RefreshToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshTokens[refreshToken], nil
}

func (s *Store) RevokeRefreshToken(_ context.Context, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refreshTokens, refreshToken)
	return nil
}

func (s *Store) GetUserBySubject(_ context.Context, issuer, subject string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subjects[subjectKey(issuer, subject)], nil
}

// Empty reports whether the store holds no clients, as found on first boot.
func (s *Store) Empty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients) == 0, nil
}

func subjectKey(issuer, subject string) string {
	return issuer + "|" + subject
}
