package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/evcraddock/rent-finder/internal/live"
)

// Session tracks who is signed in on one client. Observers are called
// synchronously and must not call back into the Session.
type Session struct {
	auth   Authenticator
	roles  RoleStore
	tokens *Tokens
	admins map[string]bool

	// deliver orders replays and updates so every observer sees the same
	// sequence.
	deliver sync.Mutex

	mu      sync.Mutex
	current Identity
	token   string
	loaded  bool
	idObs   map[string]live.Observer[Identity]
	loadObs map[string]live.Observer[bool]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithAdmins grants the admin role to these emails when they register.
func WithAdmins(emails ...string) SessionOption {
	return func(s *Session) {
		for _, e := range emails {
			if e = normalizeEmail(e); e != "" {
				s.admins[e] = true
			}
		}
	}
}

// NewSession creates a signed-out, not yet loaded session.
func NewSession(a Authenticator, r RoleStore, t *Tokens, opts ...SessionOption) *Session {
	s := &Session{
		auth:    a,
		roles:   r,
		tokens:  t,
		admins:  make(map[string]bool),
		current: SignedOut{},
		idObs:   make(map[string]live.Observer[Identity]),
		loadObs: make(map[string]live.Observer[bool]),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current delivers the current identity now and again on every change.
func (s *Session) Current(obs live.Observer[Identity]) live.Subscription {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	key := uuid.NewString()
	s.mu.Lock()
	s.idObs[key] = obs
	id := s.current
	s.mu.Unlock()

	obs.Emit(id)

	return live.Func(func() {
		s.mu.Lock()
		delete(s.idObs, key)
		s.mu.Unlock()
	})
}

// Loaded delivers false until the first identity is known, then true once.
// A subscriber arriving after that sees only true.
func (s *Session) Loaded(obs live.Observer[bool]) live.Subscription {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	key := uuid.NewString()
	s.mu.Lock()
	loaded := s.loaded
	if !loaded {
		s.loadObs[key] = obs
	}
	s.mu.Unlock()

	obs.Emit(loaded)
	if loaded {
		return live.Released
	}

	return live.Func(func() {
		s.mu.Lock()
		delete(s.loadObs, key)
		s.mu.Unlock()
	})
}

// Identity returns the current identity.
func (s *Session) Identity() Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Token returns the bearer token for the current identity, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Register creates an account, stores its role record and signs it in.
func (s *Session) Register(ctx context.Context, email, password string) (SignedIn, error) {
	cred, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		return SignedIn{}, asRegistrationError(err)
	}

	role := RoleUser
	if s.admins[normalizeEmail(cred.Email)] {
		role = RoleAdmin
	}
	if err := s.roles.PutRole(ctx, cred.UID, RoleRecord{Email: cred.Email, Role: role}); err != nil {
		return SignedIn{}, &RegistrationError{Code: CodeInternal, Err: err}
	}

	user := signedIn(cred, role)
	token, err := s.tokens.Issue(user.UID)
	if err != nil {
		return SignedIn{}, &RegistrationError{Code: CodeInternal, Err: err}
	}

	slog.Info("user registered", "uid", user.UID, "role", role)
	s.set(user, token)
	return user, nil
}

// Login checks credentials and signs the account in.
func (s *Session) Login(ctx context.Context, email, password string) (SignedIn, error) {
	cred, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		return SignedIn{}, asAuthError(err)
	}

	role := RoleUser
	rec, err := s.roles.Role(ctx, cred.UID)
	switch {
	case err == nil && rec.Role.Valid():
		role = rec.Role
	case err != nil && !errors.Is(err, ErrNoRole):
		slog.Warn("role lookup failed at login", "uid", cred.UID, "error", err)
	}

	user := signedIn(cred, role)
	token, err := s.tokens.Issue(user.UID)
	if err != nil {
		return SignedIn{}, &AuthError{Code: CodeInternal, Err: err}
	}

	s.set(user, token)
	return user, nil
}

// Logout signs out.
func (s *Session) Logout() {
	s.set(SignedOut{}, "")
}

// Restore resumes the session a token was issued for. An empty token leaves
// the session signed out.
func (s *Session) Restore(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		s.set(SignedOut{}, "")
		return nil
	}

	uid, err := s.tokens.Parse(token)
	if err != nil {
		s.set(SignedOut{}, "")
		return err
	}

	cred, err := s.auth.Lookup(ctx, uid)
	if err != nil {
		s.set(SignedOut{}, "")
		return fmt.Errorf("restoring session: %w", err)
	}

	role := RoleUser
	rec, err := s.roles.Role(ctx, uid)
	switch {
	case err == nil && rec.Role.Valid():
		role = rec.Role
	case err != nil && !errors.Is(err, ErrNoRole):
		s.set(SignedOut{}, "")
		return fmt.Errorf("restoring role: %w", err)
	}

	s.set(signedIn(cred, role), token)
	return nil
}

// CurrentWithRole looks up the role of the signed-in user again. It returns
// SignedOut when nobody is signed in or the lookup fails.
func (s *Session) CurrentWithRole(ctx context.Context) Identity {
	user, ok := User(s.Identity())
	if !ok {
		return SignedOut{}
	}

	rec, err := s.roles.Role(ctx, user.UID)
	if err != nil {
		slog.Error("fetching user role", "uid", user.UID, "error", err)
		return SignedOut{}
	}
	if !rec.Role.Valid() {
		slog.Error("invalid user role", "uid", user.UID, "role", rec.Role)
		return SignedOut{}
	}

	user.Role = rec.Role
	return user
}

func (s *Session) set(id Identity, token string) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	s.current = id
	s.token = token
	firstLoad := !s.loaded
	s.loaded = true

	idObs := make([]live.Observer[Identity], 0, len(s.idObs))
	for _, o := range s.idObs {
		idObs = append(idObs, o)
	}
	var loadObs []live.Observer[bool]
	if firstLoad {
		for _, o := range s.loadObs {
			loadObs = append(loadObs, o)
		}
		s.loadObs = make(map[string]live.Observer[bool])
	}
	s.mu.Unlock()

	for _, o := range idObs {
		o.Emit(id)
	}
	for _, o := range loadObs {
		o.Emit(true)
	}
}

func signedIn(cred Credential, role Role) SignedIn {
	return SignedIn{
		UID:         cred.UID,
		Email:       cred.Email,
		Role:        role,
		DisplayName: cred.DisplayName,
		PhotoURL:    cred.PhotoURL,
		CreatedAt:   cred.CreatedAt,
	}
}
