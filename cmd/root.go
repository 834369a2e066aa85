package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var Version = "dev"

// jsonOutput controls whether output is formatted as JSON
var jsonOutput bool

// Logging flags. An empty level defers to the config file.
var (
	logLevel string
	logJSON  bool
)

var rootCmd = &cobra.Command{
	Use:     "sch",
	Short:   "Charles Schwab Trading CLI",
	Long:    `A CLI for accounts, market data, orders, and transactions via the Charles Schwab Trader API.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Credentials may come from a .env file in the working directory.
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	},
}

func init() {
	cobra.EnableTraverseRunHooks = true

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON")
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	Version = v
	rootCmd.Version = v
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
