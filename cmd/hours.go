package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newHoursCmd creates the hours command with the given options.
func newHoursCmd(opts *apiOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "hours MARKET [MARKET...]",
		Short: "Show market hours",
		Long: `Show trading sessions for one or more markets.

MARKET is one of equity, option, bond, future, forex.

Examples:
  sch hours equity
  sch hours equity option --date 2024-07-03`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			markets := make([]string, 0, len(args))
			for _, a := range args {
				markets = append(markets, strings.ToLower(a))
			}

			var (
				hours schwabapi.MarketHoursResponse
				err   error
			)
			if len(markets) == 1 {
				hours, err = opts.client.GetMarketHour(ctx, markets[0], date)
			} else {
				hours, err = opts.client.GetMarketHours(ctx, markets, date)
			}
			if err != nil {
				return fmt.Errorf("failed to fetch market hours: %w", err)
			}

			formatter := opts.formatter(cmd)
			if opts.jsonMode {
				return formatter.Print(hours)
			}
			rows := marketHoursRows(hours)
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No market hours returned")
				return nil
			}
			return formatter.Table([]string{"Market", "Product", "Date", "Open", "Session", "Start", "End"}, rows)
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Date (yyyy-MM-dd), defaults to today")
	cmd.SilenceUsage = true

	return cmd
}

// marketHoursRows flattens the nested response into one row per session,
// sorted by market and product.
func marketHoursRows(hours schwabapi.MarketHoursResponse) [][]string {
	var rows [][]string
	for _, market := range sortedKeys(hours) {
		products := hours[market]
		for _, product := range sortedKeys(products) {
			h := products[product]
			open := "closed"
			if h.IsOpen {
				open = "open"
			}
			if len(h.SessionHours) == 0 {
				rows = append(rows, []string{market, product, h.Date, open, "-", "-", "-"})
				continue
			}
			for _, session := range sortedKeys(h.SessionHours) {
				for _, span := range h.SessionHours[session] {
					rows = append(rows, []string{market, product, h.Date, open, session, span.Start, span.End})
				}
			}
		}
	}
	return rows
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func init() {
	addAPICommand(newHoursCmd)
}
