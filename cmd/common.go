package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/internal/auth"
	"github.com/jonandersen/sch/internal/config"
	"github.com/jonandersen/sch/internal/keyring"
	"github.com/jonandersen/sch/internal/logger"
	"github.com/jonandersen/sch/internal/output"
	"github.com/jonandersen/sch/pkg/schwabapi"
)

// apiOptions holds dependencies for commands that call the API.
// Tests fill it directly; production commands get it from loadAPIOptions.
type apiOptions struct {
	client         *schwabapi.Client
	jsonMode       bool
	defaultAccount string
}

func (o *apiOptions) formatter(cmd *cobra.Command) *output.Formatter {
	return output.New(cmd.OutOrStdout(), o.jsonMode)
}

// resolveAccount turns an --account value (number, hash, or empty for the
// configured default) into an account hash.
func (o *apiOptions) resolveAccount(ctx context.Context, account string) (string, error) {
	if account == "" {
		account = o.defaultAccount
	}
	return o.client.ResolveAccountHash(ctx, account)
}

// commandContext bounds a command's API calls.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 2*time.Minute)
}

// newLogger builds the logger from --log-level/--log-json, falling back to
// the configured level.
func newLogger(cfg *config.Config) (logger.Logger, error) {
	name := logLevel
	if name == "" {
		name = cfg.LogLevel
	}
	level, err := logger.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return logger.New(&logger.Config{Level: level, Output: os.Stderr, JSON: logJSON}), nil
}

// loadAPIOptions fills opts from the config file, keyring, and token cache.
func loadAPIOptions(opts *apiOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.ConfigPath())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		store := keyring.NewEnvStore(keyring.NewSystemStore())
		creds, err := keyring.LoadCredentials(store)
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				return fmt.Errorf("app credentials not configured: run 'sch configure'")
			}
			return fmt.Errorf("failed to read credentials: %w", err)
		}

		oauthCfg := auth.OAuthConfig(creds.AppKey, creds.AppSecret, cfg.CallbackURL, cfg.APIBaseURL)
		provider := auth.NewProvider(cmd.Context(), oauthCfg, auth.TokenCachePath(), log)

		opts.client = schwabapi.NewClient(cfg.APIBaseURL, provider).
			WithLogger(log).
			WithTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)
		opts.jsonMode = GetJSONMode()
		opts.defaultAccount = cfg.DefaultAccount
		return nil
	}
}

// addAPICommand registers a command built around apiOptions on the root.
func addAPICommand(build func(*apiOptions) *cobra.Command) {
	opts := &apiOptions{}
	cmd := build(opts)
	cmd.PersistentPreRunE = loadAPIOptions(opts)
	rootCmd.AddCommand(cmd)
}

// parsePositive parses a decimal flag that must be greater than zero.
func parsePositive(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid %s %q", name, value)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

// intFlag returns a pointer to the flag value when the user set it.
func intFlag(cmd *cobra.Command, name string, value int) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

// boolFlag returns a pointer to the flag value when the user set it.
func boolFlag(cmd *cobra.Command, name string, value bool) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &value
}

// isoWindow returns from/to timestamps covering the last days days.
func isoWindow(now time.Time, days int) (string, string) {
	const layout = "2006-01-02T15:04:05.000Z"
	now = now.UTC()
	return now.AddDate(0, 0, -days).Format(layout), now.Format(layout)
}

// fillWindow defaults a missing window end: to becomes now and from becomes
// days before to.
func fillWindow(now time.Time, days int, from, to string) (string, string, error) {
	if from == "" && to == "" {
		f, t := isoWindow(now, days)
		return f, t, nil
	}
	if to == "" {
		_, to = isoWindow(now, 0)
	}
	if from == "" {
		end, err := schwabapi.NormalizeTime(to, schwabapi.ExtendedTimestamp)
		if err != nil {
			return "", "", fmt.Errorf("to: %w", err)
		}
		from, _ = isoWindow(end.Time, days)
	}
	return from, to, nil
}

// parseDayFlag parses a yyyy-MM-dd flag into midnight UTC.
func parseDayFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	n, err := schwabapi.NormalizeTime(value, schwabapi.CalendarDate)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(n.Date.Year, n.Date.Month, n.Date.Day, 0, 0, 0, 0, time.UTC), nil
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
