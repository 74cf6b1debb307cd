package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evcraddock/rent-finder/internal/live"
)

type failingRoles struct {
	RoleStore
	err error
}

func (f failingRoles) Role(context.Context, string) (RoleRecord, error) {
	return RoleRecord{}, f.err
}

func testSession(t *testing.T, opts ...SessionOption) (*Session, *SQLRoles) {
	t.Helper()
	a, roles := testLocal(t)
	return NewSession(a, roles, NewTokens("test-secret", time.Hour), opts...), roles
}

func recordIdentities(s *Session) (*[]Identity, live.Subscription) {
	var got []Identity
	sub := s.Current(live.Observer[Identity]{Next: func(id Identity) { got = append(got, id) }})
	return &got, sub
}

func TestRegisterStoresRoleAndSignsIn(t *testing.T) {
	s, roles := testSession(t)
	ctx := context.Background()
	got, sub := recordIdentities(s)
	defer sub.Release()

	user, err := s.Register(ctx, "dana@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleUser {
		t.Errorf("role = %q, want user", user.Role)
	}

	rec, err := roles.Role(ctx, user.UID)
	if err != nil {
		t.Fatalf("role: %v", err)
	}
	if rec.Email != "dana@example.com" || rec.Role != RoleUser {
		t.Errorf("role record = %+v", rec)
	}

	if len(*got) != 2 {
		t.Fatalf("got %d identities, want 2", len(*got))
	}
	if _, ok := (*got)[0].(SignedOut); !ok {
		t.Errorf("first identity = %#v, want signed out replay", (*got)[0])
	}
	if u, ok := User((*got)[1]); !ok || u.UID != user.UID {
		t.Errorf("second identity = %#v, want registered user", (*got)[1])
	}
	if s.Token() == "" {
		t.Error("expected token after register")
	}
}

func TestRegisterAdminEmail(t *testing.T) {
	s, _ := testSession(t, WithAdmins("Owner@Example.com"))

	user, err := s.Register(context.Background(), "owner@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleAdmin {
		t.Errorf("role = %q, want admin", user.Role)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "dana@example.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	s.Logout()

	_, err := s.Register(ctx, "dana@example.com", "secret1")
	if err == nil || err.Error() != "This email address is already registered." {
		t.Errorf("err = %v, want email in use message", err)
	}
	if _, ok := s.Identity().(SignedOut); !ok {
		t.Error("failed register should leave session signed out")
	}
}

func TestLoginUsesStoredRole(t *testing.T) {
	s, roles := testSession(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "dana@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := roles.PutRole(ctx, user.UID, RoleRecord{Email: user.Email, Role: RoleAdmin}); err != nil {
		t.Fatalf("put role: %v", err)
	}
	s.Logout()

	got, err := s.Login(ctx, "dana@example.com", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("role = %q, want admin", got.Role)
	}
}

func TestLoginFailure(t *testing.T) {
	s, _ := testSession(t)

	_, err := s.Login(context.Background(), "nobody@example.com", "secret1")
	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("err = %v, want *AuthError", err)
	}
	if aerr.Error() != "No user found with this email." {
		t.Errorf("message = %q", aerr.Error())
	}
}

func TestLogoutPublishesSignedOut(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	if _, err := s.Register(ctx, "dana@example.com", "secret1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	got, sub := recordIdentities(s)
	defer sub.Release()

	s.Logout()

	if len(*got) != 2 {
		t.Fatalf("got %d identities, want 2", len(*got))
	}
	if _, ok := (*got)[1].(SignedOut); !ok {
		t.Errorf("after logout = %#v, want signed out", (*got)[1])
	}
	if s.Token() != "" {
		t.Error("expected token cleared")
	}
}

func TestReleasedObserverStopsReceiving(t *testing.T) {
	s, _ := testSession(t)
	got, sub := recordIdentities(s)
	sub.Release()
	sub.Release()

	s.Logout()
	if len(*got) != 1 {
		t.Errorf("got %d identities, want only the replay", len(*got))
	}
}

func TestLoadedEmitsOnce(t *testing.T) {
	s, _ := testSession(t)

	var got []bool
	sub := s.Loaded(live.Observer[bool]{Next: func(v bool) { got = append(got, v) }})
	defer sub.Release()

	if err := s.Restore(context.Background(), ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	s.Logout()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("loaded = %v, want [false true]", got)
	}

	var late []bool
	s.Loaded(live.Observer[bool]{Next: func(v bool) { late = append(late, v) }})
	if len(late) != 1 || !late[0] {
		t.Errorf("late loaded = %v, want [true]", late)
	}
}

func TestRestore(t *testing.T) {
	s, _ := testSession(t)
	ctx := context.Background()

	user, err := s.Register(ctx, "dana@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token := s.Token()

	other := NewSession(s.auth, s.roles, s.tokens)
	if err := other.Restore(ctx, token); err != nil {
		t.Fatalf("restore: %v", err)
	}
	got, ok := User(other.Identity())
	if !ok || got.UID != user.UID || got.Email != user.Email {
		t.Errorf("restored identity = %#v", other.Identity())
	}

	if err := other.Restore(ctx, "bogus"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
	if _, ok := other.Identity().(SignedOut); !ok {
		t.Error("bad token should sign out")
	}
}

func TestCurrentWithRole(t *testing.T) {
	s, roles := testSession(t)
	ctx := context.Background()

	if _, ok := s.CurrentWithRole(ctx).(SignedOut); !ok {
		t.Error("expected signed out before login")
	}

	user, err := s.Register(ctx, "dana@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := roles.PutRole(ctx, user.UID, RoleRecord{Email: user.Email, Role: RoleAdmin}); err != nil {
		t.Fatalf("put role: %v", err)
	}
	if !IsAdmin(s.CurrentWithRole(ctx)) {
		t.Error("expected fresh admin role")
	}

	s.roles = failingRoles{err: errors.New("permission denied")}
	if _, ok := s.CurrentWithRole(ctx).(SignedOut); !ok {
		t.Error("role lookup failure should resolve to signed out")
	}
}
