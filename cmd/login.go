package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/internal/auth"
	"github.com/jonandersen/sch/internal/config"
	"github.com/jonandersen/sch/internal/keyring"
	"github.com/jonandersen/sch/pkg/schwabapi"
)

// loginOptions holds dependencies for the login and logout commands.
type loginOptions struct {
	configPath string
	cachePath  string
	store      keyring.Store
	prompt     prompter
}

// newLoginCmd creates the login command with the given options.
func newLoginCmd(opts loginOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authorize the CLI with your Schwab account",
		Long: `Authorize the CLI through the Schwab OAuth flow.

Open the printed URL, log in, approve access, and paste the URL your browser
was redirected to. The page at the callback URL does not need to load.

The refresh token is valid for 7 days; run 'sch login' again after that.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, opts)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func runLogin(cmd *cobra.Command, opts loginOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := keyring.LoadCredentials(opts.store)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("app credentials not configured: run 'sch configure'")
		}
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	oauthCfg := auth.OAuthConfig(creds.AppKey, creds.AppSecret, cfg.CallbackURL, cfg.APIBaseURL)

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w, "Open this URL in your browser and approve access:")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "  %s\n\n", auth.AuthorizeURL(oauthCfg))

	redirected, err := opts.prompt.ReadLine("Paste the redirected URL: ")
	if err != nil {
		return fmt.Errorf("failed to read redirect URL: %w", err)
	}
	if redirected == "" {
		return fmt.Errorf("redirect URL cannot be empty")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	token, err := auth.ExchangeCode(ctx, oauthCfg, redirected)
	if err != nil {
		return err
	}
	if err := auth.SaveToken(opts.cachePath, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	_, _ = fmt.Fprintln(w, "Login successful!")
	_, _ = fmt.Fprintf(w, "Refresh token expires %s\n", token.RefreshExpiresAt().Local().Format(time.DateTime))

	if cfg.DefaultAccount != "" {
		return nil
	}

	client := schwabapi.NewClientWithToken(cfg.APIBaseURL, token.AccessToken)
	selected, err := promptAccountSelection(cmd, opts.prompt, client)
	if err != nil {
		// Non-fatal: just skip account selection
		_, _ = fmt.Fprintf(w, "Note: Could not fetch accounts: %v\n", err)
		return nil
	}
	if selected == "" {
		return nil
	}

	cfg.DefaultAccount = selected
	if err := config.Save(opts.configPath, cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Default account set to: %s\n", selected)
	return nil
}

// promptAccountSelection lists the linked accounts and prompts the user to
// select one. It returns "" when the user skips or no accounts are linked.
func promptAccountSelection(cmd *cobra.Command, prompt prompter, client *schwabapi.Client) (string, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	numbers, err := client.GetAccountNumbers(ctx)
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Select a default account:")

	options := make([]string, 0, len(numbers)+1)
	for i, n := range numbers {
		options = append(options, n.AccountNumber)
		_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, n.AccountNumber)
	}
	options = append(options, "Skip")
	_, _ = fmt.Fprintf(w, "  %d. Skip\n", len(numbers)+1)
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprint(w, "Select account: ")

	choice, err := prompt.SelectOption(options)
	if err != nil {
		return "", err
	}

	// If "Skip" was selected
	if choice >= len(numbers) {
		return "", nil
	}

	return numbers[choice].AccountNumber, nil
}

// newLogoutCmd creates the logout command with the given options.
func newLogoutCmd(opts loginOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove cached tokens",
		Long: `Remove the cached access and refresh tokens. App credentials stay in the
keyring; use 'sch configure' to clear them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := auth.DeleteToken(opts.cachePath); err != nil {
				return fmt.Errorf("failed to remove token cache: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	opts := loginOptions{
		configPath: config.ConfigPath(),
		cachePath:  auth.TokenCachePath(),
		store:      keyring.NewEnvStore(keyring.NewSystemStore()),
		prompt:     newTerminalPrompter(os.Stdin, os.Stdout),
	}
	rootCmd.AddCommand(newLoginCmd(opts))
	rootCmd.AddCommand(newLogoutCmd(opts))
}
