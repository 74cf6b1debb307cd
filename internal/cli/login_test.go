package cli

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/evcraddock/rent-finder/internal/client"
)

func TestPromptIfEmpty(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("dana@example.com\n"))

	got, err := promptIfEmpty(r, "Email: ", "flag@example.com")
	if err != nil || got != "flag@example.com" {
		t.Errorf("flag value: got %q, %v", got, err)
	}

	got, err = promptIfEmpty(r, "Email: ", "")
	if err != nil || got != "dana@example.com" {
		t.Errorf("prompted value: got %q, %v", got, err)
	}

	if _, err := promptIfEmpty(r, "Password: ", ""); err == nil {
		t.Error("expected error at end of input")
	}
}

func TestRunAuthSavesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "jwt-token",
			"user":  map[string]string{"uid": "u1", "email": "dana@example.com", "role": "user"},
		}); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("RF_SERVER_URL", "")

	flags := authFlags{server: srv.URL, email: "dana@example.com"}
	if err := runAuth(flags, strings.NewReader("secret1\n"), (*client.Client).Login); err != nil {
		t.Fatalf("login: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Token != "jwt-token" || cfg.Email != "dana@example.com" || cfg.ServerURL != srv.URL {
		t.Errorf("config = %+v", cfg)
	}
}

func TestRunAuthFailureKeepsConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, err := w.Write([]byte(`{"error":"Incorrect password."}`)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	if err := saveConfig(CLIConfig{Token: "old"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	flags := authFlags{server: srv.URL, email: "dana@example.com", password: "nope"}
	err := runAuth(flags, strings.NewReader(""), (*client.Client).Login)
	if err == nil || err.Error() != "Incorrect password." {
		t.Fatalf("err = %v, want Incorrect password.", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Token != "old" {
		t.Errorf("token = %q, want old", cfg.Token)
	}
}

func TestWhoami(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"uid":"u1","email":"dana@example.com","role":"admin"}`))
	}))
	defer srv.Close()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("RF_SERVER_URL", srv.URL)

	for _, token := range []string{"", "good", "bad"} {
		t.Setenv("RF_TOKEN", token)
		if err := runWhoami(); err != nil {
			t.Errorf("whoami with token %q: %v", token, err)
		}
	}
}
