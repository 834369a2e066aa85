package cmd

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jonandersen/sch/internal/config"
	"github.com/jonandersen/sch/internal/keyring"
)

// passwordReader abstracts terminal password input for testing.
type passwordReader interface {
	ReadPassword() (string, error)
	IsTerminal() bool
}

// terminalReader reads passwords from the terminal using golang.org/x/term.
type terminalReader struct {
	fd int
}

// newTerminalReader creates a reader for the given file descriptor.
func newTerminalReader(fd int) *terminalReader {
	return &terminalReader{fd: fd}
}

func (r *terminalReader) ReadPassword() (string, error) {
	password, err := term.ReadPassword(r.fd)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

func (r *terminalReader) IsTerminal() bool {
	return term.IsTerminal(r.fd)
}

// prompter abstracts interactive menu selection for testing.
type prompter interface {
	SelectOption(options []string) (int, error)
	ReadLine(prompt string) (string, error)
}

// terminalPrompter implements prompter on a line reader. A single scanner
// is kept so buffered input is not lost between prompts.
type terminalPrompter struct {
	scanner *bufio.Scanner
	writer  io.Writer
}

func newTerminalPrompter(r io.Reader, w io.Writer) *terminalPrompter {
	return &terminalPrompter{scanner: bufio.NewScanner(r), writer: w}
}

func (p *terminalPrompter) SelectOption(options []string) (int, error) {
	for {
		if !p.scanner.Scan() {
			if err := p.scanner.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("no input")
		}
		input := strings.TrimSpace(p.scanner.Text())
		idx, err := strconv.Atoi(input)
		if err != nil || idx < 1 || idx > len(options) {
			_, _ = fmt.Fprintf(p.writer, "Please enter a number between 1 and %d: ", len(options))
			continue
		}
		return idx - 1, nil // Convert to 0-indexed
	}
}

func (p *terminalPrompter) ReadLine(prompt string) (string, error) {
	_, _ = fmt.Fprint(p.writer, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// configureOptions holds dependencies for the configure command.
// This allows for dependency injection in tests.
type configureOptions struct {
	configPath     string
	store          keyring.Store
	passwordReader passwordReader
	prompt         prompter
}

// newConfigureCmd creates the configure command with the given options.
func newConfigureCmd(opts configureOptions) *cobra.Command {
	var (
		callbackURL string
		account     string
	)

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Configure app credentials",
		Long: `Configure the CLI with the app key and secret of your Schwab developer app.

The app key is read as a line, the secret is read without echo. Both are
stored in the system keyring. SCHWAB_APP_KEY and SCHWAB_APP_SECRET (also
read from a .env file) take precedence over the keyring.

Create an app at: https://developer.schwab.com

Example:
  sch configure
  sch configure --callback-url https://127.0.0.1:8182 --account 12345678`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure(cmd, opts, callbackURL, account)
		},
	}

	cmd.Flags().StringVar(&callbackURL, "callback-url", "", "Callback URL registered with the app (default "+config.DefaultCallbackURL+")")
	cmd.Flags().StringVar(&account, "account", "", "Default account number (optional)")

	// Don't show usage info on validation errors - just show the error
	cmd.SilenceUsage = true

	return cmd
}

// reconfigureMenuOptions defines the menu options when already configured.
var reconfigureMenuOptions = []string{
	"Configure new app credentials",
	"View current configuration",
	"Clear app credentials",
}

func runConfigure(cmd *cobra.Command, opts configureOptions, callbackURL, account string) error {
	// Verify we're running in an interactive terminal
	if !opts.passwordReader.IsTerminal() {
		return fmt.Errorf("configure requires an interactive terminal\nRun this command directly in your terminal (not piped or in a script)")
	}

	if callbackURL != "" {
		if err := validateCallbackURL(callbackURL); err != nil {
			return err
		}
	}

	if _, err := keyring.LoadCredentials(opts.store); err == nil {
		return runReconfigureMenu(cmd, opts, callbackURL, account)
	}

	return runInitialSetup(cmd, opts, callbackURL, account)
}

// validateCallbackURL checks that the callback is an absolute https URL,
// the only form the authorization server accepts.
func validateCallbackURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme != "https" {
		return fmt.Errorf("invalid callback URL %q: must be an https URL", raw)
	}
	return nil
}

// runReconfigureMenu shows the reconfigure menu when already configured.
func runReconfigureMenu(cmd *cobra.Command, opts configureOptions, callbackURL, account string) error {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "CLI is already configured. What would you like to do?")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for i, opt := range reconfigureMenuOptions {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  %d. %s\n", i+1, opt)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout())
	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Select option: ")

	choice, err := opts.prompt.SelectOption(reconfigureMenuOptions)
	if err != nil {
		return fmt.Errorf("failed to read selection: %w", err)
	}

	switch choice {
	case 0:
		return runInitialSetup(cmd, opts, callbackURL, account)
	case 1:
		return runViewConfiguration(cmd, opts)
	case 2:
		return runClearCredentials(cmd, opts)
	default:
		return fmt.Errorf("invalid selection")
	}
}

// runInitialSetup prompts for the app credentials and stores them.
func runInitialSetup(cmd *cobra.Command, opts configureOptions, callbackURL, account string) error {
	appKey, err := opts.prompt.ReadLine("Enter your app key: ")
	if err != nil {
		return fmt.Errorf("failed to read app key: %w", err)
	}
	if appKey == "" {
		return fmt.Errorf("app key cannot be empty")
	}

	_, _ = fmt.Fprint(cmd.OutOrStdout(), "Enter your app secret: ")
	appSecret, err := opts.passwordReader.ReadPassword()
	if err != nil {
		return fmt.Errorf("failed to read app secret: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout()) // Print newline after hidden input

	if appSecret == "" {
		return fmt.Errorf("app secret cannot be empty")
	}

	creds := keyring.Credentials{AppKey: appKey, AppSecret: strings.TrimSpace(appSecret)}
	if err := keyring.SaveCredentials(opts.store, creds); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}

	// Load existing config or create new one
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if callbackURL != "" {
		cfg.CallbackURL = callbackURL
	}
	if account != "" {
		cfg.DefaultAccount = account
	}

	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration saved successfully!")
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'sch login' to authorize the CLI.")
	return nil
}

// runViewConfiguration displays the current configuration.
func runViewConfiguration(cmd *cobra.Command, opts configureOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		cfg = config.DefaultConfig()
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Current Configuration:")
	_, _ = fmt.Fprintln(w, "----------------------")

	if creds, err := keyring.LoadCredentials(opts.store); err == nil {
		_, _ = fmt.Fprintf(w, "App key: %s\n", maskKey(creds.AppKey))
		_, _ = fmt.Fprintln(w, "App secret: Configured")
	} else {
		_, _ = fmt.Fprintln(w, "App credentials: Not configured")
	}

	if cfg.DefaultAccount != "" {
		_, _ = fmt.Fprintf(w, "Default account: %s\n", cfg.DefaultAccount)
	} else {
		_, _ = fmt.Fprintln(w, "Default account: Not set")
	}

	_, _ = fmt.Fprintf(w, "Callback URL: %s\n", cfg.CallbackURL)
	_, _ = fmt.Fprintf(w, "API base URL: %s\n", cfg.APIBaseURL)
	_, _ = fmt.Fprintf(w, "Request timeout: %d seconds\n", cfg.TimeoutSeconds)
	_, _ = fmt.Fprintf(w, "Log level: %s\n", cfg.LogLevel)

	return nil
}

// maskKey shows only the last four characters of a key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// runClearCredentials removes the stored app credentials.
func runClearCredentials(cmd *cobra.Command, opts configureOptions) error {
	if err := keyring.DeleteCredentials(opts.store); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "App credentials cleared successfully.")
	return nil
}

func init() {
	// Create configure command with production dependencies
	configureCmd := newConfigureCmd(configureOptions{
		configPath:     config.ConfigPath(),
		store:          keyring.NewEnvStore(keyring.NewSystemStore()),
		passwordReader: newTerminalReader(int(os.Stdin.Fd())),
		prompt:         newTerminalPrompter(os.Stdin, os.Stdout),
	})
	rootCmd.AddCommand(configureCmd)
}
