package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestExpiresAtReadsUnverifiedClaims(t *testing.T) {
	token, err := GenerateToken("user-1", "recruiter", "backend-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	exp, ok := ExpiresAt(token)
	if !ok {
		t.Fatalf("expected expiry to be present")
	}
	if d := time.Until(exp); d < 59*time.Minute || d > time.Hour+time.Minute {
		t.Fatalf("unexpected expiry distance %s", d)
	}

	claims, err := ParseUnverified(token)
	if err != nil {
		t.Fatalf("parse unverified: %v", err)
	}
	if claims.Subject != "user-1" || claims.UserType != "recruiter" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestExpiresAtRejectsOpaqueTokens(t *testing.T) {
	if _, ok := ExpiresAt("not-a-jwt"); ok {
		t.Fatalf("opaque token must not report an expiry")
	}
	if _, err := ParseUnverified("not-a-jwt"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}
