package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session token",
		Long:  "Ends the session on the server and removes the stored token from the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogout() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg.Token == "" {
		fmt.Println(warnColor.Sprint("Not logged in."))
		return nil
	}

	// Tokens are stateless; a server error here only means it was not told.
	if err := newAPIClient().Logout(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: server logout: %v\n", err)
	}

	cfg.Token = ""
	cfg.Email = ""
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	printOK("Logged out. Token removed.")
	return nil
}
