package cli

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/client"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Check connection and the signed-in user",
		Long:  "Tests the connection to the server and shows who the stored token belongs to.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami()
		},
	}
}

func runWhoami() error {
	fmt.Printf("Server:  %s\n", getServerURL())

	if getToken() == "" {
		fmt.Println("User:    " + warnColor.Sprint("not logged in"))
		fmt.Println("\nRun 'rf login' to authenticate.")
		return nil
	}

	user, err := newAPIClient().Me()
	var apiErr *client.APIError
	switch {
	case err == nil:
		fmt.Printf("User:    %s\n", user.Email)
		fmt.Printf("Role:    %s\n", user.Role)
		fmt.Println("Status:  " + okColor.Sprint("✓ connected and authenticated"))
	case errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized:
		fmt.Println("Status:  " + warnColor.Sprint("✗ token rejected"))
		fmt.Println("\nRun 'rf login' to re-authenticate.")
	case errors.As(err, &apiErr):
		fmt.Printf("Status:  ✗ unexpected response (%d)\n", apiErr.Status)
	default:
		fmt.Printf("Status:  ✗ cannot reach server (%v)\n", err)
	}

	return nil
}
