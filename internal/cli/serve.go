package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/config"
	"github.com/evcraddock/rent-finder/internal/identity"
	"github.com/evcraddock/rent-finder/internal/live"
	"github.com/evcraddock/rent-finder/internal/logging"
	"github.com/evcraddock/rent-finder/internal/media"
	"github.com/evcraddock/rent-finder/internal/store"
	"github.com/evcraddock/rent-finder/internal/web"
)

func newServeCmd() *cobra.Command {
	var addr, envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the HTTP API server. Storage, identity and uploads are configured
from the environment (RF_*, FIREBASE_*, CLOUDINARY_*), optionally read from
an env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, envFile)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: RF_ADDR or :8080)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "env file to load before reading the environment")

	return cmd
}

func runServe(addr, envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	logging.Setup(cfg.DevMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	slog.Info("starting rent-finder",
		"version", Version,
		"commit", currentBuild().shortCommit(),
		"backend", cfg.Backend,
		"identity", cfg.Identity,
		"uploads", deps.Uploader != nil,
	)
	return web.NewServer(deps).ListenAndServe(ctx, cfg.Addr)
}

// buildDeps wires the storage, identity and upload backends cfg selects.
// The returned func closes whatever was opened.
func buildDeps(ctx context.Context, cfg config.Config) (web.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (web.Deps, func(), error) {
		cleanup()
		return web.Deps{}, func() {}, err
	}

	deps := web.Deps{
		Tokens:           identity.NewTokens(cfg.Secret(), cfg.TokenTTL),
		Admins:           cfg.AdminEmails,
		CORSOrigins:      cfg.CORSOrigins,
		DefaultImage:     cfg.DefaultImage,
		DefaultUserImage: cfg.DefaultUserImage,
	}

	var app *firebase.App
	var fs *firestore.Client
	if cfg.UsesFirebase() {
		var err error
		app, err = identity.NewFirebaseApp(ctx, cfg.FirebaseCredentials, cfg.FirebaseProjectID)
		if err != nil {
			return fail(err)
		}
		fs, err = app.Firestore(ctx)
		if err != nil {
			return fail(fmt.Errorf("opening firestore: %w", err))
		}
		closers = append(closers, func() {
			if err := fs.Close(); err != nil {
				slog.Warn("closing firestore", "error", err)
			}
		})
	}

	var database *sql.DB
	if cfg.Backend == config.BackendSQLite || cfg.Identity == config.ProviderLocal {
		var err error
		database, err = openDB(cfg.DBPath)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { closeDB(database) })
	}

	switch cfg.Backend {
	case config.BackendFirestore:
		deps.Gateway = store.NewFirestore(fs)
	default:
		gw, err := localGateway(ctx, cfg, database, &closers)
		if err != nil {
			return fail(err)
		}
		deps.Gateway = gw
	}

	switch cfg.Identity {
	case config.ProviderFirebase:
		ac, err := app.Auth(ctx)
		if err != nil {
			return fail(fmt.Errorf("opening firebase auth: %w", err))
		}
		deps.Auth = identity.NewFirebaseAuth(ac, cfg.FirebaseAPIKey)
		deps.Roles = identity.NewFirestoreRoles(fs)
	default:
		deps.Auth = identity.NewLocalAuth(database)
		deps.Roles = identity.NewSQLRoles(database)
	}

	if cfg.CloudinaryCloud != "" && cfg.CloudinaryPreset != "" {
		deps.Uploader = media.NewCloudinary(cfg.CloudinaryCloud, cfg.CloudinaryPreset)
	}

	return deps, cleanup, nil
}

// localGateway builds the SQLite gateway. With Redis configured, change
// notifications travel through Redis so every server sharing the database
// sees them.
func localGateway(ctx context.Context, cfg config.Config, database *sql.DB, closers *[]func()) (*store.Local, error) {
	hub := live.NewHub()
	if cfg.RedisAddr == "" {
		return store.NewLocal(database, hub), nil
	}

	rc, err := store.Connect(ctx, cfg.RedisAddr, cfg.RedisPass)
	if err != nil {
		return nil, err
	}
	*closers = append(*closers, func() {
		if err := rc.Close(); err != nil {
			slog.Warn("closing redis client", "error", err)
		}
	})

	pub := store.NewRedis(rc, store.DefaultChannel, hub)
	go func() {
		if err := pub.Run(ctx); err != nil {
			slog.Error("redis change listener stopped", "error", err)
		}
	}()
	return store.NewLocal(database, hub, store.WithPublisher(pub)), nil
}
