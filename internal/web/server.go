// Package web provides the HTTP API for rent-finder.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/evcraddock/rent-finder/internal/config"
	"github.com/evcraddock/rent-finder/internal/gateway"
	"github.com/evcraddock/rent-finder/internal/identity"
	"github.com/evcraddock/rent-finder/internal/logging"
	"github.com/evcraddock/rent-finder/internal/posting"
)

// Deps are the collaborators the server needs.
type Deps struct {
	Gateway  gateway.Gateway
	Auth     identity.Authenticator
	Roles    identity.RoleStore
	Tokens   *identity.Tokens
	Uploader posting.Uploader // nil disables uploads

	Admins           []string
	CORSOrigins      []string
	DefaultImage     string
	DefaultUserImage string
}

// Server is the rent-finder HTTP server.
type Server struct {
	deps    Deps
	poster  *posting.Poster
	logins  *rateLimiter
	router  *mux.Router
	handler http.Handler
}

// NewServer creates a server and registers its routes.
func NewServer(d Deps) *Server {
	if d.DefaultImage == "" {
		d.DefaultImage = config.DefaultApartmentImage
	}
	if d.DefaultUserImage == "" {
		d.DefaultUserImage = config.DefaultUserImage
	}
	if len(d.CORSOrigins) == 0 {
		d.CORSOrigins = []string{"*"}
	}

	s := &Server{
		deps:   d,
		poster: posting.NewPoster(d.Gateway, d.Uploader),
		logins: newRateLimiter(),
		router: mux.NewRouter(),
	}
	s.routes()

	c := cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	s.handler = logging.RequestLogger(c.Handler(s.router))
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.withSession)

	api.HandleFunc("/catalogue", s.handleCatalogue).Methods(http.MethodGet)

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)

	api.HandleFunc("/apartments", s.handleListApartments).Methods(http.MethodGet)
	api.HandleFunc("/apartments", s.handlePostApartment).Methods(http.MethodPost)
	api.HandleFunc("/apartments/events", s.handleApartmentEvents).Methods(http.MethodGet)
	api.HandleFunc("/apartments/preview", s.handlePreview).Methods(http.MethodPost)
	api.HandleFunc("/apartments/{id}", s.handleGetApartment).Methods(http.MethodGet)
	api.HandleFunc("/apartments/{id}/favorite", s.handleToggleFavorite).Methods(http.MethodPost)
	api.HandleFunc("/apartments/{id}/comments", s.handleListComments).Methods(http.MethodGet)
	api.HandleFunc("/apartments/{id}/comments", s.handleAddComment).Methods(http.MethodPost)
	api.HandleFunc("/apartments/{id}/comments/events", s.handleCommentEvents).Methods(http.MethodGet)

	api.HandleFunc("/uploads", s.handleUpload).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	apiJSON(w, posting.Choices(), http.StatusOK)
}
