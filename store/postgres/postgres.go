// Package postgres provides a Postgres-backed model implementation over
// database/sql with the lib/pq driver. The schema lives in embedded SQL
// migrations applied with golang-migrate.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jrsteele09/go-token-server/model"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

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

// Open connects to the database named by databaseURL and verifies the
// connection. The caller owns the returned handle.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "[Open] failed to open database")
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "[Open] database ping failed")
	}
	return db, nil
}

// Migrate applies all pending schema migrations to the database named by
// databaseURL.
func Migrate(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return errors.Wrap(err, "[Migrate] failed to load embedded migrations")
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return errors.Wrap(err, "[Migrate] failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "[Migrate] failed to run migrations")
	}
	return nil
}

// Store is the Postgres-backed model.
type Store struct {
	db *sql.DB
}

// New builds a Store over an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
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

	query := `INSERT INTO oauth_clients (id, description, secret_hash, grants)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, client.ID, client.Description, hash, pq.Array(client.Grants)); err != nil {
		return errors.Wrap(err, "[AddClient] insert failed")
	}
	return nil
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

	query := `INSERT INTO oauth_users (id, username, email, password_hash)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, user.ID, username, user.Email, hash); err != nil {
		return errors.Wrap(err, "[AddUser] insert failed")
	}
	return nil
}

// LinkServiceAccount maps a client to the user it acts as under the
// client_credentials grant.
func (s *Store) LinkServiceAccount(ctx context.Context, clientID string, user *model.User) error {
	if user == nil {
		return errors.New("[LinkServiceAccount] user is required")
	}
	query := `UPDATE oauth_clients SET service_user_id = $2 WHERE id = $1`
	if _, err := s.db.ExecContext(ctx, query, clientID, user.ID); err != nil {
		return errors.Wrap(err, "[LinkServiceAccount] update failed")
	}
	return nil
}

// LinkSubject maps a federated issuer/subject pair to a local user.
func (s *Store) LinkSubject(ctx context.Context, issuer, subject string, user *model.User) error {
	if user == nil {
		return errors.New("[LinkSubject] user is required")
	}
	query := `INSERT INTO oauth_subjects (issuer, subject, user_id)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (issuer, subject) DO UPDATE SET user_id = EXCLUDED.user_id`
	if _, err := s.db.ExecContext(ctx, query, issuer, subject, user.ID); err != nil {
		return errors.Wrap(err, "[LinkSubject] upsert failed")
	}
	return nil
}

// SaveAuthCode stores a one-time authorization code.
func (s *Store) SaveAuthCode(ctx context.Context, code *model.Code) error {
	if code == nil || code.Code == "" {
		return errors.New("[SaveAuthCode] code with a value is required")
	}
	query := `INSERT INTO oauth_auth_codes (code, client_id, user_id, scope, redirect_uri, expires_at)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.db.ExecContext(ctx, query,
		code.Code, code.Client.ID, code.User.ID, code.Scope, code.RedirectURI, code.ExpiresAt)
	return errors.Wrap(err, "[SaveAuthCode] insert failed")
}

func (s *Store) GetClient(ctx context.Context, clientID, clientSecret string) (*model.Client, error) {
	query := `SELECT description, secret_hash, grants
			  FROM oauth_clients WHERE id = $1`

	var (
		description string
		secretHash  []byte
		grants      []string
	)
	err := s.db.QueryRowContext(ctx, query, clientID).Scan(&description, &secretHash, pq.Array(&grants))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetClient] query failed")
	}
	// Wrong secret and unknown client look the same to the caller.
	if bcrypt.CompareHashAndPassword(secretHash, []byte(clientSecret)) != nil {
		return nil, nil
	}
	return &model.Client{ID: clientID, Description: description, Grants: grants}, nil
}

func (s *Store) SaveToken(ctx context.Context, token *model.Token) (*model.Token, error) {
	if token == nil || token.AccessToken == "" {
		return nil, errors.New("[SaveToken] token with an access token is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[SaveToken] begin failed")
	}
	defer func() { _ = tx.Rollback() }()

	tokenQuery := `INSERT INTO oauth_tokens
			  (access_token, access_token_expires_at, refresh_token, refresh_token_expires_at, scope, client_id, user_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.ExecContext(ctx, tokenQuery,
		token.AccessToken,
		token.AccessTokenExpiresAt,
		token.RefreshToken,
		nullableTime(token.RefreshTokenExpiresAt),
		token.Scope,
		clientID(token.Client),
		nullableUserID(token.User),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[SaveToken] token insert failed")
	}

	if token.RefreshToken != "" {
		refreshQuery := `INSERT INTO oauth_refresh_tokens (token, client_id, user_id, scope, expires_at)
			  VALUES ($1, $2, $3, $4, $5)`
		_, err = tx.ExecContext(ctx, refreshQuery,
			token.RefreshToken,
			clientID(token.Client),
			nullableUserID(token.User),
			token.Scope,
			nullableTime(token.RefreshTokenExpiresAt),
		)
		if err != nil {
			return nil, errors.Wrap(err, "[SaveToken] refresh token insert failed")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "[SaveToken] commit failed")
	}
	return token, nil
}

// GetToken looks up a stored token by its access token value.
func (s *Store) GetToken(ctx context.Context, accessToken string) (*model.Token, error) {
	query := `SELECT t.access_token_expires_at, t.refresh_token, t.refresh_token_expires_at, t.scope,
			  c.id, c.description, c.grants,
			  u.id, u.username, u.email
			  FROM oauth_tokens t
			  JOIN oauth_clients c ON c.id = t.client_id
			  LEFT JOIN oauth_users u ON u.id = t.user_id
			  WHERE t.access_token = $1`

	var (
		token            model.Token
		refreshExpiresAt sql.NullTime
		client           model.Client
		grants           []string
		userID           sql.NullString
		username         sql.NullString
		email            sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, accessToken).Scan(
		&token.AccessTokenExpiresAt, &token.RefreshToken, &refreshExpiresAt, &token.Scope,
		&client.ID, &client.Description, pq.Array(&grants),
		&userID, &username, &email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetToken] query failed")
	}

	token.AccessToken = accessToken
	if refreshExpiresAt.Valid {
		token.RefreshTokenExpiresAt = refreshExpiresAt.Time
	}
	client.Grants = grants
	token.Client = &client
	if userID.Valid {
		token.User = &model.User{ID: userID.String, Username: username.String, Email: email.String}
	}
	return &token, nil
}

func (s *Store) GetUser(ctx context.Context, username, password string) (*model.User, error) {
	query := `SELECT id, email, password_hash
			  FROM oauth_users WHERE username = $1`

	var (
		id           string
		email        string
		passwordHash []byte
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(&id, &email, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetUser] query failed")
	}
	if bcrypt.CompareHashAndPassword(passwordHash, []byte(password)) != nil {
		return nil, nil
	}
	return &model.User{ID: id, Username: username, Email: email}, nil
}

func (s *Store) GetUserFromClient(ctx context.Context, client *model.Client) (*model.User, error) {
	if client == nil {
		return nil, nil
	}
	query := `SELECT u.id, u.username, u.email
			  FROM oauth_users u
			  JOIN oauth_clients c ON c.service_user_id = u.id
			  WHERE c.id = $1`

	var user model.User
	err := s.db.QueryRowContext(ctx, query, client.ID).Scan(&user.ID, &user.Username, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetUserFromClient] query failed")
	}
	return &user, nil
}

func (s *Store) GetAuthCode(ctx context.Context, code string) (*model.Code, error) {
	query := `SELECT ac.scope, ac.redirect_uri, ac.expires_at,
			  c.id, c.description, c.grants,
			  u.id, u.username, u.email
			  FROM oauth_auth_codes ac
			  JOIN oauth_clients c ON c.id = ac.client_id
			  JOIN oauth_users u ON u.id = ac.user_id
			  WHERE ac.code = $1`

	var (
		record model.Code
		client model.Client
		user   model.User
		grants []string
	)
	err := s.db.QueryRowContext(ctx, query, code).Scan(
		&record.Scope, &record.RedirectURI, &record.ExpiresAt,
		&client.ID, &client.Description, pq.Array(&grants),
		&user.ID, &user.Username, &user.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetAuthCode] query failed")
	}

	record.Code = code
	client.Grants = grants
	record.Client = &client
	record.User = &user
	return &record, nil
}

func (s *Store) RevokeAuthCode(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM oauth_auth_codes WHERE code = $1`, code)
	return errors.Wrap(err, "[RevokeAuthCode] delete failed")
}

func (s *Store) GetRefreshToken(ctx context.Context, refreshToken string) (*model.RefreshToken, error) {
	query := `SELECT rt.scope, rt.expires_at,
			  c.id, c.description, c.grants,
			  u.id, u.username, u.email
			  FROM oauth_refresh_tokens rt
			  JOIN oauth_clients c ON c.id = rt.client_id
			  LEFT JOIN oauth_users u ON u.id = rt.user_id
			  WHERE rt.token = $1`

	var (
		record    model.RefreshToken
		expiresAt sql.NullTime
		client    model.Client
		grants    []string
		userID    sql.NullString
		username  sql.NullString
		email     sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, refreshToken).Scan(
		&record.Scope, &expiresAt,
		&client.ID, &client.Description, pq.Array(&grants),
		&userID, &username, &email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetRefreshToken] query failed")
	}

	record.Token = refreshToken
	if expiresAt.Valid {
		record.ExpiresAt = expiresAt.Time
	}
	client.Grants = grants
	record.Client = &client
	if userID.Valid {
		record.User = &model.User{ID: userID.String, Username: username.String, Email: email.String}
	}
	return &record, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM oauth_refresh_tokens WHERE token = $1`, refreshToken)
	return errors.Wrap(err, "[RevokeRefreshToken] delete failed")
}

func (s *Store) GetUserBySubject(ctx context.Context, issuer, subject string) (*model.User, error) {
	query := `SELECT u.id, u.username, u.email
			  FROM oauth_users u
			  JOIN oauth_subjects s ON s.user_id = u.id
			  WHERE s.issuer = $1 AND s.subject = $2`

	var user model.User
	err := s.db.QueryRowContext(ctx, query, issuer, subject).Scan(&user.ID, &user.Username, &user.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "[GetUserBySubject] query failed")
	}
	return &user, nil
}

// DeleteExpired removes tokens, refresh tokens and authorization codes whose
// expiry has passed, returning how many rows went away.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	var total int64
	statements := []string{
		`DELETE FROM oauth_auth_codes WHERE expires_at < NOW()`,
		`DELETE FROM oauth_refresh_tokens WHERE expires_at IS NOT NULL AND expires_at < NOW()`,
		`DELETE FROM oauth_tokens WHERE access_token_expires_at < NOW()
			 AND (refresh_token_expires_at IS NULL OR refresh_token_expires_at < NOW())`,
	}
	for _, statement := range statements {
		result, err := s.db.ExecContext(ctx, statement)
		if err != nil {
			return total, errors.Wrap(err, "[DeleteExpired] delete failed")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return total, errors.Wrap(err, "[DeleteExpired] rows affected failed")
		}
		total += affected
	}
	return total, nil
}

// Empty reports whether no clients are stored, as found on first boot.
func (s *Store) Empty(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM oauth_clients`).Scan(&count); err != nil {
		return false, errors.Wrap(err, "[Empty] count failed")
	}
	return count == 0, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func clientID(client *model.Client) string {
	if client == nil {
		return ""
	}
	return client.ID
}

func nullableUserID(user *model.User) sql.NullString {
	if user == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: user.ID, Valid: true}
}
