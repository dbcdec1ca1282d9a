package forms

import (
	"errors"
	"strings"
	"testing"

	apiclient "github.com/mbd888/resumeiq-web/pkg/api/client"
)

func TestValidateRegisterInput(t *testing.T) {
	v := New()
	err := v.Validate(apiclient.RegisterInput{
		Email:    "not-an-email",
		Username: "ab",
		Password: "short",
		FullName: "",
		UserType: "admin",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "username", "password", "full_name", "user_type"} {
		if _, ok := verr.Errors[field]; !ok {
			t.Fatalf("expected error for %s, got %v", field, verr.Errors)
		}
	}
	if got := verr.Errors["password"]; got != "password must be at least 8 characters" {
		t.Fatalf("unexpected password message %q", got)
	}
	if !strings.Contains(verr.Error(), "full name is required") {
		t.Fatalf("unexpected error text %q", verr.Error())
	}
}

func TestValidateAcceptsValidInput(t *testing.T) {
	v := New()
	err := v.Validate(apiclient.RegisterInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct-horse",
		FullName: "Ada Lovelace",
		UserType: apiclient.RoleRecruiter,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.Validate(apiclient.Credentials{Username: "ada", Password: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
