package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flickrgrid/pkg/auth"
	"flickrgrid/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Flickr API credentials",
	Long: `Manage stored Flickr API key pairs.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables FLICKR_API_KEY and FLICKR_API_SECRET (read only)

Never share your API secret or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a Flickr API key pair securely",
	Long: `Store a Flickr API key pair in the system keychain or encrypted file.

You will be prompted for the API key and secret. The secret is hidden as
you type. Without a name the pair is stored as the 'default' account, which
every command uses unless --account is given.`,
	Example: `  # Store the default key pair
  flickrgrid auth login

  # Store a second key pair under its own name
  flickrgrid auth login research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Long: `Remove a stored Flickr API key pair.

If no name is provided, you will be shown a list of stored accounts to
choose from.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored Flickr API key pairs with masked values.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showGuide bool

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)

	loginCmd.Flags().BoolVar(&showGuide, "guide", false, "show how to obtain a Flickr API key first")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	name := auth.DefaultAccount
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	if showGuide {
		auth.ShowAPIKeyGuide(out)
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Fprintf(out, "Account '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprint(out, "API key: ")
	key, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		ui.PrintError("Failed to read API key", err)
		return err
	}
	key = strings.TrimSpace(key)

	fmt.Fprint(out, "API secret (hidden): ")
	secret, err := readSecret(reader)
	if err != nil {
		ui.PrintError("Failed to read API secret", err)
		return err
	}

	account := &auth.Account{Name: name, APIKey: key, APISecret: secret}
	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err)
		return err
	}

	masked := auth.SanitizeAccount(account)
	ui.PrintSuccess(fmt.Sprintf("Account saved: %s", name))
	fmt.Fprintf(out, "   API key: %s\n", masked.APIKey)
	fmt.Fprintf(out, "   API secret: %s\n", masked.APISecret)
	if name != auth.DefaultAccount {
		fmt.Fprintf(out, "\nUse it with: flickrgrid download-grid --account %s ...\n", name)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	out := cmd.OutOrStdout()
	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil || len(accounts) == 0 {
			ui.PrintWarning("No stored accounts found")
			return nil
		}

		fmt.Fprintln(out, "Select account to remove:")
		for i, account := range accounts {
			fmt.Fprintf(out, "  %d. %s\n", i+1, account.Name)
		}
		fmt.Fprint(out, "  0. Cancel\n\nChoice: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)
		if choice == 0 {
			return nil
		}
		if choice < 0 || choice > len(accounts) {
			ui.PrintError("Invalid choice")
			return fmt.Errorf("invalid choice %d", choice)
		}
		name = accounts[choice-1].Name
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove account", err)
		return err
	}
	ui.PrintSuccess("Account removed: " + name)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err)
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list accounts", err)
		return err
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'flickrgrid auth login' to add an account")
		return nil
	}

	out := cmd.OutOrStdout()
	ui.PrintHighlight("Stored Accounts")
	fmt.Fprintln(out)

	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(out, "%d. Name: %s\n", i+1, sanitized.Name)
		fmt.Fprintf(out, "   API key: %s\n", sanitized.APIKey)
		fmt.Fprintf(out, "   API secret: %s\n", sanitized.APISecret)
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(out)
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal, and falls
// back to a plain read otherwise.
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
