package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newHistoryCmd creates the history command with the given options.
func newHistoryCmd(opts *apiOptions) *cobra.Command {
	var (
		periodType    string
		period        int
		frequencyType string
		frequency     int
		start         string
		end           string
		extended      bool
	)

	cmd := &cobra.Command{
		Use:   "history SYMBOL",
		Short: "Show price history",
		Long: `Show OHLCV candles for a symbol.

Period types: day, month, year, ytd. Frequency types: minute, daily, weekly, monthly.

Examples:
  sch history AAPL                                          # Default period for the symbol
  sch history AAPL --period-type month --period 3 --frequency-type daily
  sch history AAPL --start 2025-01-01 --end 2025-01-31 --frequency-type daily
  sch history AAPL --period-type day --frequency 5 --extended`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDayFlag(start)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			endDate, err := parseDayFlag(end)
			if err != nil {
				return fmt.Errorf("end: %w", err)
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			history, err := opts.client.GetPriceHistory(ctx, schwabapi.PriceHistoryParams{
				Symbol:                strings.ToUpper(args[0]),
				PeriodType:            strings.ToLower(periodType),
				Period:                intFlag(cmd, "period", period),
				FrequencyType:         strings.ToLower(frequencyType),
				Frequency:             intFlag(cmd, "frequency", frequency),
				StartDate:             startDate,
				EndDate:               endDate,
				NeedExtendedHoursData: boolFlag(cmd, "extended", extended),
			})
			if err != nil {
				return fmt.Errorf("failed to fetch price history: %w", err)
			}

			formatter := opts.formatter(cmd)
			if opts.jsonMode {
				return formatter.Print(history)
			}
			if history.Empty || len(history.Candles) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No price history for %s\n", history.Symbol)
				return nil
			}

			headers := []string{"Time", "Open", "High", "Low", "Close", "Volume"}
			rows := make([][]string, 0, len(history.Candles))
			for _, c := range history.Candles {
				rows = append(rows, []string{
					formatMillis(c.Datetime),
					c.Open.StringFixed(2),
					c.High.StringFixed(2),
					c.Low.StringFixed(2),
					c.Close.StringFixed(2),
					schwabapi.FormatVolume(c.Volume),
				})
			}
			return formatter.Table(headers, rows)
		},
	}

	cmd.Flags().StringVar(&periodType, "period-type", "", "Period type: day, month, year, ytd")
	cmd.Flags().IntVar(&period, "period", 0, "Number of periods")
	cmd.Flags().StringVar(&frequencyType, "frequency-type", "", "Frequency type: minute, daily, weekly, monthly")
	cmd.Flags().IntVar(&frequency, "frequency", 0, "Candle size in frequency-type units")
	cmd.Flags().StringVar(&start, "start", "", "Start date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&end, "end", "", "End date (yyyy-MM-dd)")
	cmd.Flags().BoolVar(&extended, "extended", false, "Include extended hours candles")
	cmd.SilenceUsage = true

	return cmd
}

func init() {
	addAPICommand(newHistoryCmd)
}
