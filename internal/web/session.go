package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/rent-finder/internal/identity"
)

type sessionKey struct{}

// withSession restores the caller's session from a bearer token. Requests
// without a token get a signed-out session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := identity.NewSession(s.deps.Auth, s.deps.Roles, s.deps.Tokens, identity.WithAdmins(s.deps.Admins...))

		if token, ok := bearer(r); ok {
			if err := sess.Restore(r.Context(), token); err != nil {
				slog.Warn("rejected bearer token", "error", err)
				apiError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}
		} else if err := sess.Restore(r.Context(), ""); err != nil {
			apiError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = identity.NewContext(ctx, sess.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *identity.Session {
	sess, _ := ctx.Value(sessionKey{}).(*identity.Session)
	return sess
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

// rateLimiter tracks failed login attempts per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	window   time.Duration
	max      int
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{
		attempts: make(map[string][]time.Time),
		window:   time.Minute,
		max:      10,
	}
}

// limited reports whether ip has used up its failures in the window.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip)) >= rl.max
}

// fail records a failed attempt.
func (rl *rateLimiter) fail(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.attempts[ip] = append(rl.prune(ip), time.Now())
}

func (rl *rateLimiter) prune(ip string) []time.Time {
	cutoff := time.Now().Add(-rl.window)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
