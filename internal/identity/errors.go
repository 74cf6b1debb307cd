package identity

import (
	"errors"
	"fmt"
)

// Provider reason codes.
const (
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidEmail      = "auth/invalid-email"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeInternal          = "auth/internal-error"
)

// ErrUnknownUser is returned by Lookup for a UID with no account.
var ErrUnknownUser = errors.New("unknown user")

// ErrNoRole is returned by a RoleStore when a UID has no role record.
var ErrNoRole = errors.New("no role record")

// AuthError is a failed sign-in. Error returns the user-facing message.
type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	return LoginMessage(e.Code)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// LoginMessage maps a sign-in reason code to a message.
func LoginMessage(code string) string {
	switch code {
	case CodeUserNotFound:
		return "No user found with this email."
	case CodeWrongPassword:
		return "Incorrect password."
	case CodeInvalidEmail:
		return "Invalid email format."
	default:
		return "Invalid credentials"
	}
}

// RegistrationError is a failed sign-up. Error returns the user-facing message.
type RegistrationError struct {
	Code string
	Err  error
}

func (e *RegistrationError) Error() string {
	return RegistrationMessage(e.Code)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// RegistrationMessage maps a sign-up reason code to a message.
func RegistrationMessage(code string) string {
	switch code {
	case CodeEmailInUse:
		return "This email address is already registered."
	case CodeInvalidEmail:
		return "Please enter a valid email address."
	case CodeWeakPassword:
		return "Password is too weak. Please use a stronger password."
	default:
		return "Registration failed. Please try again later."
	}
}

func asAuthError(err error) error {
	var aerr *AuthError
	if errors.As(err, &aerr) {
		return aerr
	}
	return &AuthError{Code: CodeInternal, Err: fmt.Errorf("signing in: %w", err)}
}

func asRegistrationError(err error) error {
	var rerr *RegistrationError
	if errors.As(err, &rerr) {
		return rerr
	}
	return &RegistrationError{Code: CodeInternal, Err: fmt.Errorf("signing up: %w", err)}
}
