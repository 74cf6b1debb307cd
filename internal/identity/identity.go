// Package identity provides sign-up, sign-in and the current signed-in
// identity with its role.
package identity

import (
	"context"
	"time"
)

// Role determines what a signed-in user may do.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Identity is either SignedOut or SignedIn. A nil Identity is signed out.
type Identity interface {
	isIdentity()
}

// SignedOut is the identity of nobody.
type SignedOut struct{}

// SignedIn is an authenticated user and their role.
type SignedIn struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	DisplayName string    `json:"displayName,omitempty"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (SignedOut) isIdentity() {}
func (SignedIn) isIdentity()  {}

// User returns the signed-in user, if any.
func User(id Identity) (SignedIn, bool) {
	u, ok := id.(SignedIn)
	return u, ok
}

// IsAdmin reports whether id is a signed-in administrator.
func IsAdmin(id Identity) bool {
	u, ok := User(id)
	return ok && u.Role == RoleAdmin
}

// Name is how the user is shown next to their comments.
func (u SignedIn) Name() string {
	if u.Email != "" {
		return u.Email
	}
	return "Anonymous"
}

type ctxKey struct{}

// NewContext returns a context carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored in ctx, or SignedOut.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(ctxKey{}).(Identity); ok && id != nil {
		return id
	}
	return SignedOut{}
}
