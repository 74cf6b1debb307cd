package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// LocalAuth keeps accounts in the SQLite users table with bcrypt hashes.
type LocalAuth struct {
	db   *sql.DB
	cost int
}

var _ Authenticator = (*LocalAuth)(nil)

// NewLocalAuth creates a SQLite authenticator.
func NewLocalAuth(db *sql.DB) *LocalAuth {
	return &LocalAuth{db: db, cost: bcrypt.DefaultCost}
}

// SignUp creates an account.
func (a *LocalAuth) SignUp(ctx context.Context, email, password string) (Credential, error) {
	email = normalizeEmail(email)
	if err := checkSignUp(email, password); err != nil {
		return Credential{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return Credential{}, &RegistrationError{Code: CodeWeakPassword, Err: err}
	}

	cred := Credential{UID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	_, err = a.db.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)",
		cred.UID, cred.Email, string(hash), cred.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return Credential{}, &RegistrationError{Code: CodeEmailInUse, Err: err}
		}
		return Credential{}, &RegistrationError{Code: CodeInternal, Err: fmt.Errorf("inserting user: %w", err)}
	}

	return cred, nil
}

// SignIn checks an email and password.
func (a *LocalAuth) SignIn(ctx context.Context, email, password string) (Credential, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Credential{}, &AuthError{Code: CodeInvalidEmail}
	}

	var cred Credential
	var hash string
	err := a.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, password_hash, created_at FROM users WHERE email = ?", email,
	).Scan(&cred.UID, &cred.Email, &cred.DisplayName, &hash, &cred.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, &AuthError{Code: CodeUserNotFound}
	}
	if err != nil {
		return Credential{}, &AuthError{Code: CodeInternal, Err: fmt.Errorf("querying user: %w", err)}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Credential{}, &AuthError{Code: CodeWrongPassword, Err: err}
	}

	return cred, nil
}

// Lookup returns the account with uid.
func (a *LocalAuth) Lookup(ctx context.Context, uid string) (Credential, error) {
	var cred Credential
	err := a.db.QueryRowContext(ctx,
		"SELECT id, email, display_name, created_at FROM users WHERE id = ?", uid,
	).Scan(&cred.UID, &cred.Email, &cred.DisplayName, &cred.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, fmt.Errorf("user %s: %w", uid, ErrUnknownUser)
	}
	if err != nil {
		return Credential{}, fmt.Errorf("querying user %s: %w", uid, err)
	}
	return cred, nil
}

// SQLRoles keeps role records in the SQLite user_roles table.
type SQLRoles struct {
	db *sql.DB
}

var _ RoleStore = (*SQLRoles)(nil)

// NewSQLRoles creates a SQLite role store.
func NewSQLRoles(db *sql.DB) *SQLRoles {
	return &SQLRoles{db: db}
}

// PutRole stores or replaces the role record for uid.
func (s *SQLRoles) PutRole(ctx context.Context, uid string, rec RoleRecord) error {
	if !rec.Role.Valid() {
		return fmt.Errorf("invalid role %q", rec.Role)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_roles (uid, email, role) VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET email = excluded.email, role = excluded.role`,
		uid, rec.Email, string(rec.Role),
	)
	if err != nil {
		return fmt.Errorf("storing role: %w", err)
	}
	return nil
}

// Role returns the role record for uid.
func (s *SQLRoles) Role(ctx context.Context, uid string) (RoleRecord, error) {
	var rec RoleRecord
	var role string
	err := s.db.QueryRowContext(ctx, "SELECT email, role FROM user_roles WHERE uid = ?", uid).Scan(&rec.Email, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return RoleRecord{}, ErrNoRole
	}
	if err != nil {
		return RoleRecord{}, fmt.Errorf("querying role: %w", err)
	}
	rec.Role = Role(role)
	return rec, nil
}
