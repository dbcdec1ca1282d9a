// Package jwt reads the bearer tokens issued by the ResumeIQ API. The client
// never holds the signing secret, so claims are decoded without verification
// and used only to size cookie lifetimes and label sessions.
package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token cannot be decoded.
var ErrMalformed = errors.New("malformed token")

// Claims defines the API token payload.
type Claims struct {
	UserType string `json:"user_type,omitempty"`
	jwtlib.RegisteredClaims
}

// GenerateToken issues a signed JWT shaped like the API's tokens. Tests use it
// as a fixture.
func GenerateToken(subject, userType, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserType: userType,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			Issuer:    "resumeiq",
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseUnverified decodes claims without checking the signature.
func ParseUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwtlib.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	return claims, nil
}

// ExpiresAt returns the exp claim of token. ok is false when the token is not
// a JWT or carries no expiry.
func ExpiresAt(token string) (exp time.Time, ok bool) {
	claims, err := ParseUnverified(token)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
