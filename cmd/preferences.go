package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newPreferencesCmd creates the preferences command with the given options.
func newPreferencesCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preferences",
		Short: "Show user preferences",
		Long: `Show the accounts, market data entitlements, and streamer details
attached to the logged in user.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			pref, err := opts.client.GetUserPreference(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch preferences: %w", err)
			}

			formatter := opts.formatter(cmd)
			return formatter.Result(pref, func() error {
				rows := make([][]string, 0, len(pref.Accounts))
				for _, a := range pref.Accounts {
					rows = append(rows, []string{
						a.AccountNumber,
						a.NickName,
						a.Type,
						fmt.Sprintf("%t", a.PrimaryAccount),
					})
				}
				if err := formatter.Table([]string{"Account", "Nickname", "Type", "Primary"}, rows); err != nil {
					return err
				}

				for _, o := range pref.Offers {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nMarket data: %s (level 2: %t)\n", o.MktDataPermission, o.Level2Permissions)
				}
				for _, s := range pref.StreamerInfo {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Streamer:    %s\n", s.StreamerSocketURL)
				}
				return nil
			})
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	addAPICommand(newPreferencesCmd)
}
