// Package auth manages the bearer token of a ResumeIQ session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
)

// TokenKey is the fixed storage key of the bearer token.
const TokenKey = "access_token"

// ErrNotAuthenticated is returned when no usable token is stored.
var ErrNotAuthenticated = errors.New("not authenticated")

// TokenStore persists a single bearer token.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Manager implements login, registration and identity lookup on top of a token
// store. It never retries.
type Manager struct {
	api    *apiclient.Client
	public *apiclient.Client
	store  TokenStore
}

// NewManager binds api to store. Every request issued through the manager
// reads the token from store at send time.
func NewManager(api *apiclient.Client, store TokenStore) *Manager {
	return &Manager{
		api:    api.WithTokens(storeTokenSource{store: store}),
		public: api.WithTokens(nil),
		store:  store,
	}
}

// API returns the client bound to the manager's token store.
func (m *Manager) API() *apiclient.Client {
	return m.api
}

// Login submits credentials and persists the returned token. A stale or
// unreadable stored token does not prevent logging in.
func (m *Manager) Login(ctx context.Context, creds apiclient.Credentials) (apiclient.LoginResponse, error) {
	resp, err := m.public.Login(ctx, creds)
	if err != nil {
		return apiclient.LoginResponse{}, err
	}
	token := strings.TrimSpace(resp.AccessToken)
	if token == "" {
		return apiclient.LoginResponse{}, errors.New("login response did not include an access token")
	}
	if err := m.store.Save(token); err != nil {
		return apiclient.LoginResponse{}, fmt.Errorf("store access token: %w", err)
	}
	return resp, nil
}

// Register creates an account without touching the stored token.
func (m *Manager) Register(ctx context.Context, input apiclient.RegisterInput) (apiclient.User, error) {
	return m.public.Register(ctx, input)
}

// CurrentUser fetches the identity owning the stored token.
func (m *Manager) CurrentUser(ctx context.Context) (apiclient.User, error) {
	token, err := m.store.Load()
	if err != nil {
		return apiclient.User{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}
	if strings.TrimSpace(token) == "" {
		return apiclient.User{}, ErrNotAuthenticated
	}
	return m.api.Me(ctx)
}

// Logout forgets the stored token. Redirecting to the login screen is up to
// the caller.
func (m *Manager) Logout() error {
	return m.store.Clear()
}

// IsAuthenticated reports whether a token is present. It does not check the
// token with the API.
func (m *Manager) IsAuthenticated() bool {
	token, err := m.store.Load()
	return err == nil && strings.TrimSpace(token) != ""
}

// IsAuthFailure reports whether err means the session must re-authenticate:
// a missing token or a 401/403 from the API.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) || apiclient.IsAuthError(err)
}

type storeTokenSource struct {
	store TokenStore
}

func (s storeTokenSource) Token() (string, error) {
	return s.store.Load()
}
