package identity

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 6

// Credential is an account known to an Authenticator.
type Credential struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	CreatedAt   time.Time
}

// Authenticator creates and checks email/password credentials. SignUp
// fails with *RegistrationError and SignIn with *AuthError.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) (Credential, error)
	SignIn(ctx context.Context, email, password string) (Credential, error)
	Lookup(ctx context.Context, uid string) (Credential, error)
}

// RoleRecord is the side-table entry stored per identity.
type RoleRecord struct {
	Email string `json:"email" firestore:"email"`
	Role  Role   `json:"role" firestore:"role"`
}

// RoleStore persists role records keyed by UID. Role returns ErrNoRole
// when nothing is stored.
type RoleStore interface {
	PutRole(ctx context.Context, uid string, rec RoleRecord) error
	Role(ctx context.Context, uid string) (RoleRecord, error)
}

var validate = validator.New()

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

// checkSignUp applies the rules every provider shares before creating an
// account.
func checkSignUp(email, password string) error {
	if !validEmail(email) {
		return &RegistrationError{Code: CodeInvalidEmail}
	}
	if len(password) < MinPasswordLength {
		return &RegistrationError{Code: CodeWeakPassword}
	}
	return nil
}
