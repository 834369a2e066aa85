package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newInstrumentsCmd creates the instruments command with the given options.
func newInstrumentsCmd(opts *apiOptions) *cobra.Command {
	var projection string

	cmd := &cobra.Command{
		Use:   "instruments SYMBOL",
		Short: "Search instruments",
		Long: `Search instruments by symbol or description.

Projections:
  symbol-search   Exact symbol match (default)
  symbol-regex    Regular expression over symbols
  desc-search     Keyword search over descriptions
  desc-regex      Regular expression over descriptions
  search          Search either field
  fundamental     Include fundamental data

Examples:
  sch instruments AAPL
  sch instruments 'AA.*' --projection symbol-regex
  sch instruments cusip 037833100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			instruments, err := opts.client.GetInstruments(ctx, args[0], projection)
			if err != nil {
				return fmt.Errorf("failed to search instruments: %w", err)
			}
			return printInstruments(cmd, opts, instruments)
		},
	}

	cmd.Flags().StringVarP(&projection, "projection", "p", "symbol-search", "Search projection")
	cmd.SilenceUsage = true

	cmd.AddCommand(newInstrumentCUSIPCmd(opts))

	return cmd
}

func newInstrumentCUSIPCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cusip CUSIP",
		Short: "Look up an instrument by CUSIP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			instruments, err := opts.client.GetInstrumentByCUSIP(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch instrument: %w", err)
			}
			return printInstruments(cmd, opts, instruments)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func printInstruments(cmd *cobra.Command, opts *apiOptions, instruments []schwabapi.Instrument) error {
	formatter := opts.formatter(cmd)
	if opts.jsonMode {
		return formatter.Print(instruments)
	}
	if len(instruments) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No instruments found")
		return nil
	}

	headers := []string{"Symbol", "Type", "CUSIP", "Exchange", "Description"}
	rows := make([][]string, 0, len(instruments))
	for _, inst := range instruments {
		rows = append(rows, []string{
			inst.Symbol,
			inst.AssetType,
			inst.CUSIP,
			inst.Exchange,
			inst.Description,
		})
	}
	return formatter.Table(headers, rows)
}

func init() {
	addAPICommand(newInstrumentsCmd)
}
