// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects where apartments and comments are stored.
type Backend string

const (
	BackendSQLite    Backend = "sqlite"
	BackendFirestore Backend = "firestore"
)

// Provider selects the identity provider.
type Provider string

const (
	ProviderLocal    Provider = "local"
	ProviderFirebase Provider = "firebase"
)

const (
	// DefaultApartmentImage replaces an empty image list.
	DefaultApartmentImage = "/assets/images/default-apartment.jpg"
	// DefaultUserImage is used for comment authors without a photo.
	DefaultUserImage = "https://res.cloudinary.com/dzinsxvvw/image/upload/v1748085949/default-user_ehi2qk.png"
)

// Config holds server configuration.
type Config struct {
	Addr        string
	DBPath      string // empty = db.DefaultPath()
	Backend     Backend
	Identity    Provider
	DevMode     bool
	JWTSecret   string
	TokenTTL    time.Duration
	RedisAddr   string // empty disables cross-process notifications
	RedisPass   string
	CORSOrigins []string
	AdminEmails []string

	CloudinaryCloud  string
	CloudinaryPreset string

	FirebaseCredentials string
	FirebaseProjectID   string
	FirebaseAPIKey      string

	DefaultImage     string
	DefaultUserImage string
}

// Load reads an optional .env file, then builds a Config from the environment.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		} else if err == nil {
			slog.Debug("loaded env file", "path", f)
		}
	}

	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv creates a Config from environment variables.
func FromEnv() Config {
	ttl, err := time.ParseDuration(envOrDefault("RF_TOKEN_TTL", "720h"))
	if err != nil {
		ttl = 720 * time.Hour
	}

	return Config{
		Addr:        envOrDefault("RF_ADDR", ":8080"),
		DBPath:      os.Getenv("RF_DB_PATH"),
		Backend:     Backend(envOrDefault("RF_BACKEND", string(BackendSQLite))),
		Identity:    Provider(envOrDefault("RF_IDENTITY", string(ProviderLocal))),
		DevMode:     os.Getenv("RF_DEV_MODE") == "true",
		JWTSecret:   os.Getenv("RF_JWT_SECRET"),
		TokenTTL:    ttl,
		RedisAddr:   os.Getenv("RF_REDIS_ADDR"),
		RedisPass:   os.Getenv("RF_REDIS_PASS"),
		CORSOrigins: splitList(envOrDefault("RF_CORS_ORIGINS", "*")),
		AdminEmails: splitList(os.Getenv("RF_ADMIN_EMAILS")),

		CloudinaryCloud:  os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),

		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseAPIKey:      os.Getenv("FIREBASE_API_KEY"),

		DefaultImage:     envOrDefault("RF_DEFAULT_IMAGE", DefaultApartmentImage),
		DefaultUserImage: envOrDefault("RF_DEFAULT_USER_IMAGE", DefaultUserImage),
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendFirestore:
	default:
		return fmt.Errorf("unknown backend %q (want sqlite or firestore)", c.Backend)
	}
	switch c.Identity {
	case ProviderLocal, ProviderFirebase:
	default:
		return fmt.Errorf("unknown identity provider %q (want local or firebase)", c.Identity)
	}

	if c.UsesFirebase() && c.FirebaseCredentials == "" {
		return fmt.Errorf("FIREBASE_CREDENTIALS_FILE is required for %s/%s", c.Backend, c.Identity)
	}
	if c.Identity == ProviderFirebase && c.FirebaseAPIKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY is required for firebase sign-in")
	}
	if c.JWTSecret == "" && !c.DevMode {
		return fmt.Errorf("RF_JWT_SECRET is required outside dev mode")
	}
	return nil
}

// UsesFirebase reports whether a Firebase app must be initialized.
func (c Config) UsesFirebase() bool {
	return c.Backend == BackendFirestore || c.Identity == ProviderFirebase
}

// Secret returns the JWT signing secret, with a fixed fallback in dev mode.
func (c Config) Secret() string {
	if c.JWTSecret == "" && c.DevMode {
		return "rent-finder-dev-secret"
	}
	return c.JWTSecret
}

// IsAdmin reports whether email is configured as an administrator.
func (c Config) IsAdmin(email string) bool {
	for _, a := range c.AdminEmails {
		if strings.EqualFold(a, email) {
			return true
		}
	}
	return false
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
