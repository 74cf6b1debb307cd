package web

import (
	"net/http"
	"strings"

	"github.com/evcraddock/rent-finder/internal/identity"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  identity.SignedIn `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := sessionFrom(r.Context())
	user, err := sess.Register(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		apiFail(w, err)
		return
	}
	apiJSON(w, authResponse{Token: sess.Token(), User: user}, http.StatusCreated)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if s.logins.limited(ip) {
		apiError(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	sess := sessionFrom(r.Context())
	user, err := sess.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		s.logins.fail(ip)
		apiFail(w, err)
		return
	}
	apiJSON(w, authResponse{Token: sess.Token(), User: user}, http.StatusOK)
}

// handleLogout ends the session. Tokens are stateless, so the client drops
// its copy.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).Logout()
	apiJSON(w, map[string]string{"status": "signed out"}, http.StatusOK)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.User(sessionFrom(r.Context()).CurrentWithRole(r.Context()))
	if !ok {
		apiError(w, "Not signed in", http.StatusUnauthorized)
		return
	}
	apiJSON(w, user, http.StatusOK)
}
