package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/rent-finder/internal/db"
)

func testLocal(t *testing.T) (*LocalAuth, *SQLRoles) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	a := NewLocalAuth(d)
	a.cost = bcrypt.MinCost
	return a, NewSQLRoles(d)
}

func TestLocalSignUpAndSignIn(t *testing.T) {
	a, _ := testLocal(t)
	ctx := context.Background()

	cred, err := a.SignUp(ctx, " Dana@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if cred.UID == "" {
		t.Error("expected generated UID")
	}
	if cred.Email != "dana@example.com" {
		t.Errorf("email = %q, want normalized", cred.Email)
	}

	got, err := a.SignIn(ctx, "dana@example.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if got.UID != cred.UID {
		t.Errorf("uid = %q, want %q", got.UID, cred.UID)
	}

	looked, err := a.Lookup(ctx, cred.UID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if looked.Email != "dana@example.com" {
		t.Errorf("lookup email = %q", looked.Email)
	}
	if looked.CreatedAt.IsZero() {
		t.Error("expected creation time")
	}
}

func TestLocalSignUpErrors(t *testing.T) {
	a, _ := testLocal(t)
	ctx := context.Background()

	if _, err := a.SignUp(ctx, "dana@example.com", "secret1"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		code     string
	}{
		{"duplicate", "dana@example.com", "secret2", CodeEmailInUse},
		{"bad email", "not-an-email", "secret1", CodeInvalidEmail},
		{"short password", "lee@example.com", "abc", CodeWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.SignUp(ctx, tt.email, tt.password)
			var rerr *RegistrationError
			if !errors.As(err, &rerr) {
				t.Fatalf("err = %v, want *RegistrationError", err)
			}
			if rerr.Code != tt.code {
				t.Errorf("code = %q, want %q", rerr.Code, tt.code)
			}
		})
	}
}

func TestLocalSignInErrors(t *testing.T) {
	a, _ := testLocal(t)
	ctx := context.Background()

	if _, err := a.SignUp(ctx, "dana@example.com", "secret1"); err != nil {
		t.Fatalf("sign up: %v", err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"unknown user", "lee@example.com", "secret1", "No user found with this email."},
		{"wrong password", "dana@example.com", "secret2", "Incorrect password."},
		{"bad email", "dana", "secret1", "Invalid email format."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.SignIn(ctx, tt.email, tt.password)
			if err == nil {
				t.Fatal("expected error")
			}
			if err.Error() != tt.want {
				t.Errorf("message = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestLocalLookupUnknown(t *testing.T) {
	a, _ := testLocal(t)
	_, err := a.Lookup(context.Background(), "missing")
	if !errors.Is(err, ErrUnknownUser) {
		t.Errorf("err = %v, want ErrUnknownUser", err)
	}
}

func TestSQLRoles(t *testing.T) {
	_, roles := testLocal(t)
	ctx := context.Background()

	if _, err := roles.Role(ctx, "u1"); !errors.Is(err, ErrNoRole) {
		t.Fatalf("err = %v, want ErrNoRole", err)
	}

	if err := roles.PutRole(ctx, "u1", RoleRecord{Email: "dana@example.com", Role: RoleUser}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := roles.PutRole(ctx, "u1", RoleRecord{Email: "dana@example.com", Role: RoleAdmin}); err != nil {
		t.Fatalf("put again: %v", err)
	}

	rec, err := roles.Role(ctx, "u1")
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	if rec.Role != RoleAdmin {
		t.Errorf("role = %q, want admin", rec.Role)
	}
	if rec.Email != "dana@example.com" {
		t.Errorf("email = %q", rec.Email)
	}

	if err := roles.PutRole(ctx, "u2", RoleRecord{Email: "x@example.com", Role: "owner"}); err == nil {
		t.Error("expected error for invalid role")
	}
}
