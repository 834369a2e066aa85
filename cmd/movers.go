package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newMoversCmd creates the movers command with the given options.
func newMoversCmd(opts *apiOptions) *cobra.Command {
	var (
		sort      string
		frequency int
	)

	cmd := &cobra.Command{
		Use:   "movers INDEX",
		Short: "Show top movers of an index",
		Long: `Show the top movers of an index or market.

INDEX is one of $DJI, $COMPX, $SPX, NYSE, NASDAQ, OTCBB, INDEX_ALL,
EQUITY_ALL, OPTION_ALL, OPTION_PUT, OPTION_CALL.

Examples:
  sch movers '$SPX'                       # Top movers of the S&P 500
  sch movers NYSE --sort PERCENT_CHANGE_UP
  sch movers NASDAQ --frequency 5         # Moves of at least 5%`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			movers, err := opts.client.GetMovers(ctx, strings.ToUpper(args[0]), strings.ToUpper(sort), intFlag(cmd, "frequency", frequency))
			if err != nil {
				return fmt.Errorf("failed to fetch movers: %w", err)
			}

			formatter := opts.formatter(cmd)
			if opts.jsonMode {
				return formatter.Print(movers)
			}
			if len(movers) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No movers found")
				return nil
			}

			headers := []string{"Symbol", "Description", "Last", "Change", "Change %", "Volume"}
			rows := make([][]string, 0, len(movers))
			for _, m := range movers {
				rows = append(rows, []string{
					m.Symbol,
					m.Description,
					m.LastPrice.StringFixed(2),
					schwabapi.FormatGainLoss(m.NetChange),
					schwabapi.FormatPercent(m.NetPercentChange.Shift(2)),
					schwabapi.FormatVolume(m.Volume),
				})
			}
			return formatter.Table(headers, rows)
		},
	}

	cmd.Flags().StringVar(&sort, "sort", "", "Sort by VOLUME, TRADES, PERCENT_CHANGE_UP or PERCENT_CHANGE_DOWN")
	cmd.Flags().IntVar(&frequency, "frequency", 0, "Minimum percent change: 0, 1, 5, 10, 30 or 60")
	cmd.SilenceUsage = true

	return cmd
}

func init() {
	addAPICommand(newMoversCmd)
}
