package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newQuoteCmd creates the quote command with the given options.
func newQuoteCmd(opts *apiOptions) *cobra.Command {
	var (
		fields     string
		indicative bool
	)

	cmd := &cobra.Command{
		Use:   "quote SYMBOL [SYMBOL...]",
		Short: "Get quotes",
		Long: `Get real-time quotes for one or more symbols.

Examples:
  sch quote AAPL                # Get quote for Apple
  sch quote AAPL GOOGL MSFT     # Get quotes for multiple symbols
  sch quote AAPL --fields all   # Include fundamentals and reference data
  sch quote AAPL --json         # Output the full API response`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := make([]string, 0, len(args))
			for _, a := range args {
				symbols = append(symbols, strings.ToUpper(a))
			}
			return runQuote(cmd, opts, symbols, fields, indicative)
		},
	}

	cmd.Flags().StringVar(&fields, "fields", "", "Response blocks: quote, fundamental, extended, reference, regular, all")
	cmd.Flags().BoolVar(&indicative, "indicative", false, "Include indicative quotes for ETF symbols")
	cmd.SilenceUsage = true

	return cmd
}

func runQuote(cmd *cobra.Command, opts *apiOptions, symbols []string, fields string, indicative bool) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var (
		quotes map[string]schwabapi.Quote
		err    error
	)
	if len(symbols) == 1 && !indicative {
		quotes, err = opts.client.GetQuote(ctx, symbols[0], fields)
	} else {
		quotes, err = opts.client.GetQuotes(ctx, symbols, fields, indicative)
	}
	if err != nil {
		return fmt.Errorf("failed to fetch quotes: %w", err)
	}

	formatter := opts.formatter(cmd)
	if opts.jsonMode {
		return formatter.Print(quotes)
	}
	if len(quotes) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No quotes returned")
		return nil
	}

	headers := []string{"Symbol", "Last", "Bid", "Ask", "Change", "Change %", "Volume"}
	rows := make([][]string, 0, len(symbols))
	for _, sym := range symbols {
		q, ok := quotes[sym]
		if !ok {
			rows = append(rows, []string{sym, "NOT_FOUND", "-", "-", "-", "-", "-"})
			continue
		}
		rows = append(rows, []string{
			sym,
			q.Quote.LastPrice.StringFixed(2),
			q.Quote.BidPrice.StringFixed(2),
			q.Quote.AskPrice.StringFixed(2),
			schwabapi.FormatGainLoss(q.Quote.NetChange),
			schwabapi.FormatPercent(q.Quote.NetPercentChange),
			schwabapi.FormatVolume(q.Quote.TotalVolume),
		})
	}

	return formatter.Table(headers, rows)
}

func init() {
	addAPICommand(newQuoteCmd)
}
