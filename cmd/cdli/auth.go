package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cdli/pkg/auth"
	"cdli/pkg/catalogue"
	"cdli/pkg/ui"
)

var verifyLogin bool

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored catalogue credentials",
	Long: `Manage the credentials used by --auth.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables CDLI_USERNAME and CDLI_PASSWORD (read only)

The 2FA token is never stored; --auth always asks for it.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store credentials for the catalogue host",
	Example: `  # Store credentials, prompting for everything
  cdli auth login

  # Store and check them against the catalogue
  cdli auth login alice --verify`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&verifyLogin, "verify", false, "log in to the catalogue before storing")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		if username, err = prompt(reader, "username: "); err != nil {
			return err
		}
	}
	if username == "" {
		return errors.New("username is required")
	}

	password, err := promptHidden(reader, "password: ")
	if err != nil {
		return err
	}

	account := &auth.Account{
		Host:     cfg.Catalogue.Host,
		Username: username,
		Password: password,
	}

	if verifyLogin {
		code, err := prompt(reader, "2FA token: ")
		if err != nil {
			return err
		}

		client, err := catalogue.New(account.Host, catalogue.WithLogger(log))
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()
		if err := client.Login(ctx, username, password, code); err != nil {
			return fmt.Errorf("credentials rejected: %w", err)
		}
	}

	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Stored credentials for %s on %s", username, account.Host))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}

	ui.PrintSuccess("Removed credentials for " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored accounts. Use 'cdli auth login' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stderr, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tHOST\tPASSWORD\tUPDATED")
	for _, account := range accounts {
		a := auth.SanitizeAccount(account)
		updated := "-"
		if !a.LastModified.IsZero() {
			updated = a.LastModified.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Username, a.Host, a.Password, updated)
	}
	return w.Flush()
}
