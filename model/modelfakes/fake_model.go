// Package modelfakes provides hand-written model implementations for tests:
// FakeModel covers the storage capabilities over in-memory maps with
// per-call overrides, GeneratorModel adds the token-generation capabilities,
// and MinimalModel implements only the mandatory contract.
package modelfakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-token-server/model"
)

var (
	_ model.Model               = (*FakeModel)(nil)
	_ model.UserGetter          = (*FakeModel)(nil)
	_ model.ClientUserGetter    = (*FakeModel)(nil)
	_ model.AuthCodeGetter      = (*FakeModel)(nil)
	_ model.AuthCodeRevoker     = (*FakeModel)(nil)
	_ model.RefreshTokenGetter  = (*FakeModel)(nil)
	_ model.RefreshTokenRevoker = (*FakeModel)(nil)
	_ model.SubjectUserGetter   = (*FakeModel)(nil)
)

type fakeClient struct {
	secret string
	client *model.Client
}

type fakeUser struct {
	password string
	user     *model.User
}

// FakeModel is a map-backed model covering every storage capability. Any call
// can be overridden per test by setting the matching Fn field; unset fields
// fall back to the map-backed behavior. The token-generation capabilities are
// deliberately left off so the engine's default generation stays reachable;
// wrap with GeneratorModel to exercise the model-generator path.
type FakeModel struct {
	lock          sync.RWMutex
	clients       map[string]fakeClient
	users         map[string]fakeUser
	subjects      map[string]*model.User
	codes         map[string]*model.Code
	refreshTokens map[string]*model.RefreshToken

	savedTokens          []*model.Token
	revokedCodes         []string
	revokedRefreshTokens []string

	GetClientFn         func(ctx context.Context, clientID, clientSecret string) (*model.Client, error)
	SaveTokenFn         func(ctx context.Context, token *model.Token) (*model.Token, error)
	GetUserFn           func(ctx context.Context, username, password string) (*model.User, error)
	GetUserFromClientFn func(ctx context.Context, client *model.Client) (*model.User, error)
	GetAuthCodeFn       func(ctx context.Context, code string) (*model.Code, error)
	GetRefreshTokenFn   func(ctx context.Context, refreshToken string) (*model.RefreshToken, error)
	GetUserBySubjectFn  func(ctx context.Context, issuer, subject string) (*model.User, error)
}

// NewFakeModel returns an empty FakeModel.
func NewFakeModel() *FakeModel {
	return &FakeModel{
		clients:       make(map[string]fakeClient),
		users:         make(map[string]fakeUser),
		subjects:      make(map[string]*model.User),
		codes:         make(map[string]*model.Code),
		refreshTokens: make(map[string]*model.RefreshToken),
	}
}

// AddClient registers a client under the given plain secret.
func (f *FakeModel) AddClient(client *model.Client, secret string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.clients[client.ID] = fakeClient{secret: secret, client: client}
}

// AddUser registers a user under the given username and plain password.
func (f *FakeModel) AddUser(username, password string, user *model.User) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.users[username] = fakeUser{password: password, user: user}
}

// AddSubject registers a federated subject resolving to the given user.
func (f *FakeModel) AddSubject(issuer, subject string, user *model.User) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.subjects[issuer+"|"+subject] = user
}

// AddAuthCode registers an authorization-code record.
func (f *FakeModel) AddAuthCode(code *model.Code) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.codes[code.Code] = code
}

// AddRefreshToken registers a refresh-token record.
func (f *FakeModel) AddRefreshToken(token *model.RefreshToken) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.refreshTokens[token.Token] = token
}

// SavedTokens returns every token passed to SaveToken, in call order.
func (f *FakeModel) SavedTokens() []*model.Token {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]*model.Token(nil), f.savedTokens...)
}

// RevokedRefreshTokens returns every refresh token value revoked so far.
func (f *FakeModel) RevokedRefreshTokens() []string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]string(nil), f.revokedRefreshTokens...)
}

// RevokedAuthCodes returns every code value revoked so far.
func (f *FakeModel) RevokedAuthCodes() []string {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return append([]string(nil), f.revokedCodes...)
}

func (f *FakeModel) GetClient(ctx context.Context, clientID, clientSecret string) (*model.Client, error) {
	if f.GetClientFn != nil {
		return f.GetClientFn(ctx, clientID, clientSecret)
	}
	f.lock.RLock()
	defer f.lock.RUnlock()
	entry, ok := f.clients[clientID]
	if !ok || entry.secret != clientSecret {
		return nil, nil
	}
	return entry.client, nil
}

func (f *FakeModel) SaveToken(ctx context.Context, token *model.Token) (*model.Token, error) {
	if f.SaveTokenFn != nil {
		return f.SaveTokenFn(ctx, token)
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	f.savedTokens = append(f.savedTokens, token)
	return token, nil
}

func (f *FakeModel) GetUser(ctx context.Context, username, password string) (*model.User, error) {
	if f.GetUserFn != nil {
		return f.GetUserFn(ctx, username, password)
	}
	f.lock.RLock()
	defer f.lock.RUnlock()
	entry, ok := f.users[username]
	if !ok || entry.password != password {
		return nil, nil
	}
	return entry.user, nil
}

func (f *FakeModel) GetUserFromClient(ctx context.Context, client *model.Client) (*model.User, error) {
	if f.GetUserFromClientFn != nil {
		return f.GetUserFromClientFn(ctx, client)
	}
	return &model.User{ID: "service-account-" + client.ID, Username: client.ID}, nil
}

func (f *FakeModel) GetAuthCode(ctx context.Context, code string) (*model.Code, error) {
	if f.GetAuthCodeFn != nil {
		return f.GetAuthCodeFn(ctx, code)
	}
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.codes[code], nil
}

func (f *FakeModel) RevokeAuthCode(ctx context.Context, code string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.codes, code)
	f.revokedCodes = append(f.revokedCodes, code)
	return nil
}

func (f *FakeModel) GetRefreshToken(ctx context.Context, refreshToken string) (*model.RefreshToken, error) {
	if f.GetRefreshTokenFn != nil {
		return f.GetRefreshTokenFn(ctx, refreshToken)
	}
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.refreshTokens[refreshToken], nil
}

func (f *FakeModel) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	delete(f.refreshTokens, refreshToken)
	f.revokedRefreshTokens = append(f.revokedRefreshTokens, refreshToken)
	return nil
}

func (f *FakeModel) GetUserBySubject(ctx context.Context, issuer, subject string) (*model.User, error) {
	if f.GetUserBySubjectFn != nil {
		return f.GetUserBySubjectFn(ctx, issuer, subject)
	}
	f.lock.RLock()
	defer f.lock.RUnlock()
	return f.subjects[issuer+"|"+subject], nil
}

var (
	_ model.Model                 = (*GeneratorModel)(nil)
	_ model.AccessTokenGenerator  = (*GeneratorModel)(nil)
	_ model.RefreshTokenGenerator = (*GeneratorModel)(nil)
)

// GeneratorModel layers the token-generation capabilities on top of a
// FakeModel so tests can exercise the model-generator override path.
type GeneratorModel struct {
	*FakeModel

	GenerateAccessTokenFn  func(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error)
	GenerateRefreshTokenFn func(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error)
}

func (g *GeneratorModel) GenerateAccessToken(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error) {
	if g.GenerateAccessTokenFn != nil {
		return g.GenerateAccessTokenFn(ctx, client, user, scope)
	}
	return "model-access-token", nil
}

func (g *GeneratorModel) GenerateRefreshToken(ctx context.Context, client *model.Client, user *model.User, scope string) (string, error) {
	if g.GenerateRefreshTokenFn != nil {
		return g.GenerateRefreshTokenFn(ctx, client, user, scope)
	}
	return "model-refresh-token", nil
}

var _ model.Model = (*MinimalModel)(nil)

// MinimalModel implements only the mandatory contract. Grants that probe for
// optional capabilities fail against it, which is exactly what the
// missing-capability tests need.
type MinimalModel struct {
	GetClientFn func(ctx context.Context, clientID, clientSecret string) (*model.Client, error)
	SaveTokenFn func(ctx context.Context, token *model.Token) (*model.Token, error)
}

func (m *MinimalModel) GetClient(ctx context.Context, clientID, clientSecret string) (*model.Client, error) {
	if m.GetClientFn != nil {
		return m.GetClientFn(ctx, clientID, clientSecret)
	}
	return nil, nil
}

func (m *MinimalModel) SaveToken(ctx context.Context, token *model.Token) (*model.Token, error) {
	if m.SaveTokenFn != nil {
		return m.SaveTokenFn(ctx, token)
	}
	return token, nil
}
