package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/rent-finder/internal/client"
)

type authFlags struct {
	server   string
	email    string
	password string
}

func (f *authFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&f.email, "email", "", "account email (prompted if empty)")
	cmd.Flags().StringVar(&f.password, "password", "", "account password (prompted if empty)")
}

func newLoginCmd() *cobra.Command {
	var flags authFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store a session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(flags, os.Stdin, (*client.Client).Login)
		},
	}
	flags.register(cmd)

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var flags authFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store its session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(flags, os.Stdin, (*client.Client).Register)
		},
	}
	flags.register(cmd)

	return cmd
}

type authFunc func(c *client.Client, email, password string) (*client.AuthResponse, error)

func runAuth(flags authFlags, in io.Reader, auth authFunc) error {
	serverURL := flags.server
	if serverURL == "" {
		serverURL = getServerURL()
	}

	reader := bufio.NewReader(in)
	email, err := promptIfEmpty(reader, "Email: ", flags.email)
	if err != nil {
		return err
	}
	password, err := promptIfEmpty(reader, "Password: ", flags.password)
	if err != nil {
		return err
	}

	resp, err := auth(client.New(serverURL, ""), email, password)
	if err != nil {
		return err
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}
	cfg.Token = resp.Token
	cfg.Email = resp.User.Email
	if flags.server != "" {
		cfg.ServerURL = flags.server
	}
	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	printOK("Signed in as %s (%s).", resp.User.Email, resp.User.Role)
	return nil
}

func promptIfEmpty(r *bufio.Reader, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Print(label)
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(strings.TrimSuffix(label, ": ")))
	}
	return line, nil
}
