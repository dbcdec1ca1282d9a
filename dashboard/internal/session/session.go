// Package session keeps the API bearer token in an encrypted browser cookie.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mbd888/resumeiq-web/pkg/crypto"
	"github.com/mbd888/resumeiq-web/pkg/jwt"
)

var (
	// ErrInvalidCookie is returned when a session cookie cannot be decrypted.
	ErrInvalidCookie = errors.New("session: invalid cookie")
	// ErrTokenExpired is returned when asked to store a token that already expired.
	ErrTokenExpired = errors.New("session: token expired")
)

// Manager seals and opens session cookies.
type Manager struct {
	secret     string
	cookieName string
	secure     bool
	now        func() time.Time
}

// New constructs a Manager. secret must be non-empty.
func New(secret, cookieName string, secure bool) (Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return Manager{}, errors.New("session secret must not be empty")
	}
	if strings.TrimSpace(cookieName) == "" {
		return Manager{}, errors.New("session cookie name must not be empty")
	}
	return Manager{secret: secret, cookieName: cookieName, secure: secure, now: time.Now}, nil
}

// CookieName returns the name of the session cookie.
func (m Manager) CookieName() string {
	return m.cookieName
}

// TokenFromRequest returns the bearer token carried by r. It returns
// http.ErrNoCookie when no session cookie is present.
func (m Manager) TokenFromRequest(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return "", err
	}
	token, err := crypto.Open(m.secret, cookie.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCookie, err)
	}
	return token, nil
}

// MakeCookie seals token into a cookie. The cookie lives as long as the token
// when it is a JWT with an exp claim, and for the browser session otherwise.
func (m Manager) MakeCookie(token string) (*http.Cookie, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("session token must not be empty")
	}
	value, err := crypto.Seal(m.secret, token)
	if err != nil {
		return nil, fmt.Errorf("seal session: %w", err)
	}
	cookie := m.baseCookie()
	cookie.Value = value
	if exp, ok := jwt.ExpiresAt(token); ok {
		ttl := exp.Sub(m.now())
		if ttl <= 0 {
			return nil, ErrTokenExpired
		}
		cookie.MaxAge = int(ttl.Seconds())
		cookie.Expires = exp
	}
	return cookie, nil
}

// ExpireCookie returns a cookie that removes the session from the browser.
func (m Manager) ExpireCookie() *http.Cookie {
	cookie := m.baseCookie()
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

func (m Manager) baseCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// CookieStore is the token store of a single request: Load reads the incoming
// cookie, Save and Clear set the outgoing one.
type CookieStore struct {
	mgr     Manager
	w       http.ResponseWriter
	r       *http.Request
	written bool
	token   string
}

// Store binds the manager to one request/response pair.
func (m Manager) Store(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{mgr: m, w: w, r: r}
}

// Load returns the stored token. A missing cookie yields an empty token.
func (s *CookieStore) Load() (string, error) {
	if s.written {
		return s.token, nil
	}
	token, err := s.mgr.TokenFromRequest(s.r)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	return token, err
}

// Save writes token to the response cookie.
func (s *CookieStore) Save(token string) error {
	cookie, err := s.mgr.MakeCookie(token)
	if err != nil {
		return err
	}
	http.SetCookie(s.w, cookie)
	s.written = true
	s.token = strings.TrimSpace(token)
	return nil
}

// Clear expires the response cookie.
func (s *CookieStore) Clear() error {
	http.SetCookie(s.w, s.mgr.ExpireCookie())
	s.written = true
	s.token = ""
	return nil
}
