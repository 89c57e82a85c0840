package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tweetcloud/pkg/auth"
	"tweetcloud/pkg/ui"
)

var (
	// Auth command flags
	logoutAll bool
	assumeYes bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage stored Twitter API credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)

Never share your credentials or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store Twitter API credentials securely",
	Long: `Store the four OAuth 1.0a secrets of a Twitter app under a name.

You will be prompted for:
  - Account name (if not provided)
  - API key and API secret key
  - Access token and access token secret

Run 'tweetcloud auth guide' to see where to find these values.`,
	Example: `  # Interactive login
  tweetcloud auth login

  # Store under a name
  tweetcloud auth login research`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove stored credentials",
	Long: `Remove stored Twitter API credentials.

Without a name the only stored account is removed. Use --all to remove
every account.`,
	Example: `  # Logout specific account
  tweetcloud auth logout research

  # Remove everything without asking
  tweetcloud auth logout --all --yes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	Long:  `List all stored accounts with masked credentials, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// guideCmd represents the auth guide command
var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show how to obtain Twitter API credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.ShowCredentialGuide(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(guideCmd)

	logoutCmd.Flags().BoolVar(&logoutAll, "all", false, "remove all stored accounts")
	logoutCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
}

// prompter reads answers from the terminal. Secrets are read without echo
// when stdin is a terminal.
type prompter struct {
	in     *bufio.Reader
	out    io.Writer
	fd     int
	isTerm bool
}

func newPrompter() *prompter {
	fd := int(os.Stdin.Fd())
	return &prompter{
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		fd:     fd,
		isTerm: term.IsTerminal(fd),
	}
}

func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	input, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	if !p.isTerm {
		return p.line(prompt)
	}

	fmt.Fprint(p.out, prompt)
	value, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(value)), nil
}

func (p *prompter) confirm(prompt string) bool {
	answer, err := p.line(prompt)
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(answer), "y")
}

// promptAccount asks for the four secrets of account name
func promptAccount(p *prompter, name string) (*auth.Account, error) {
	account := &auth.Account{Name: name}

	fields := []struct {
		label string
		dst   *string
	}{
		{"API key: ", &account.APIKey},
		{"API secret key: ", &account.APISecretKey},
		{"Access token: ", &account.AccessToken},
		{"Access token secret: ", &account.AccessTokenSecret},
	}

	for _, f := range fields {
		value, err := p.secret(f.label)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(f.label, ": "), err)
		}
		*f.dst = value
	}

	account.LastModified = time.Now()
	if err := account.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidCredentials, err)
	}
	return account, nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	p := newPrompter()
	auth.ShowQuickGuide(p.out)
	fmt.Fprintln(p.out)

	var name string
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		if name, err = p.line("Account name (default): "); err != nil {
			return fmt.Errorf("failed to read account name: %w", err)
		}
		if name == "" {
			name = "default"
		}
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		if !p.confirm(fmt.Sprintf("Account '%s' already exists. Update credentials? (y/N): ", name)) {
			return nil
		}
	}

	fmt.Fprintln(p.out, "\n🔐 Enter your secrets (they will be hidden as you type):")
	account, err := promptAccount(p, name)
	if err != nil {
		return err
	}

	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	ui.PrintSuccess("Account saved: " + name)
	fmt.Fprintln(ui.Out, "\n📖 Quick Start:")
	fmt.Fprintln(ui.Out, "   $ tweetcloud collect --query \"ラーメン\"")
	fmt.Fprintf(ui.Out, "   $ tweetcloud collect --query \"ラーメン\" --account %s\n", name)
	fmt.Fprintln(ui.Out, "\n⚠️  Never share your credentials or config files!")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	p := newPrompter()

	if logoutAll {
		if !assumeYes && !p.confirm("Remove ALL accounts? This cannot be undone! (y/N): ") {
			return nil
		}
		if err := manager.DeleteAll(); err != nil {
			return fmt.Errorf("failed to remove all accounts: %w", err)
		}
		ui.PrintSuccess("All accounts removed")
		return nil
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	} else {
		accounts, err := manager.List()
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}
		switch len(accounts) {
		case 0:
			return auth.ErrCredentialsNotFound
		case 1:
			name = accounts[0].Name
		default:
			fmt.Fprintln(ui.Out, accountsTable(accounts))
			return errors.New("several accounts are stored; name one or use --all")
		}
	}

	if !assumeYes && !p.confirm(fmt.Sprintf("Remove account '%s'? (y/N): ", name)) {
		return nil
	}
	if err := manager.Delete(name); err != nil {
		return fmt.Errorf("failed to remove account %q: %w", name, err)
	}
	ui.PrintSuccess("Account removed: " + name)
	return nil
}

// accountsTable renders accounts with masked secrets
func accountsTable(accounts []*auth.Account) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Name", "API Key", "Access Token", "Modified"})

	for i, account := range accounts {
		s := auth.SanitizeAccount(account)
		modified := "-"
		if !s.LastModified.IsZero() {
			modified = humanize.Time(s.LastModified)
		}
		t.AppendRow(table.Row{i + 1, s.Name, s.APIKey, s.AccessToken, modified})
	}
	return t.Render()
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'tweetcloud auth login' to add an account")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	fmt.Fprintln(ui.Out, accountsTable(accounts))
	return nil
}
