// Package cli defines the cobra command tree for rent-finder.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/client"
	"github.com/evcraddock/rent-finder/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rf",
		Short:         "Find and share apartments for rent",
		Long:          "A tool to browse, favorite and discuss apartment listings. Admins can post new listings. Runs the API server or talks to one.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path for serve (default: ~/.config/rf/rent-finder.db)")

	root.AddCommand(
		newListCmd(),
		newShowCmd(),
		newFavoriteCmd(),
		newCommentsCmd(),
		newCommentCmd(),
		newPostCmd(),
		newCatalogueCmd(),
		newServeCmd(),
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB(path string) (*sql.DB, error) {
	if flagDB != "" {
		path = flagDB
	}
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the rent-finder API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getToken())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
