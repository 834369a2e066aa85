package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newOptionsCmd creates the options command with the given options.
func newOptionsCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Option chains and expirations",
		Long: `Look up option chains and expiration series.

Examples:
  sch options expirations AAPL
  sch options chain AAPL --type CALL --strikes 5
  sch options chain AAPL --from 2025-01-01 --to 2025-01-31`,
	}

	cmd.AddCommand(newOptionsChainCmd(opts))
	cmd.AddCommand(newOptionsExpirationsCmd(opts))

	return cmd
}

func newOptionsExpirationsCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expirations SYMBOL",
		Short: "List option expiration dates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			chain, err := opts.client.GetOptionExpirationChain(ctx, symbol)
			if err != nil {
				return fmt.Errorf("failed to fetch expirations: %w", err)
			}

			formatter := opts.formatter(cmd)
			if opts.jsonMode {
				return formatter.Print(chain)
			}
			if len(chain.ExpirationList) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No expirations available for %s\n", symbol)
				return nil
			}

			headers := []string{"Expiration", "DTE", "Type", "Settlement", "Standard"}
			rows := make([][]string, 0, len(chain.ExpirationList))
			for _, e := range chain.ExpirationList {
				rows = append(rows, []string{
					e.ExpirationDate,
					fmt.Sprint(e.DaysToExpiration),
					e.ExpirationType,
					e.SettlementType,
					fmt.Sprintf("%t", e.Standard),
				})
			}
			return formatter.Table(headers, rows)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func newOptionsChainCmd(opts *apiOptions) *cobra.Command {
	var (
		contractType string
		strikes      int
		from         string
		to           string
		strategy     string
		strikeRange  string
		days         int
	)

	cmd := &cobra.Command{
		Use:   "chain SYMBOL",
		Short: "Display option chain",
		Long: `Display the option chain for an underlying symbol.

Contracts are grouped by expiration and sorted by strike.

Examples:
  sch options chain AAPL                          # Full chain
  sch options chain AAPL --type PUT --strikes 10  # 10 put strikes around the money
  sch options chain AAPL --range ITM --days 30    # In the money, 30 days out`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			chain, err := opts.client.GetOptionChain(ctx, schwabapi.OptionChainParams{
				Symbol:           strings.ToUpper(args[0]),
				ContractType:     strings.ToUpper(contractType),
				StrikeCount:      intFlag(cmd, "strikes", strikes),
				Strategy:         strings.ToUpper(strategy),
				Range:            strings.ToUpper(strikeRange),
				FromDate:         from,
				ToDate:           to,
				DaysToExpiration: intFlag(cmd, "days", days),
			})
			if err != nil {
				return fmt.Errorf("failed to fetch option chain: %w", err)
			}

			formatter := opts.formatter(cmd)
			if opts.jsonMode {
				return formatter.Print(chain)
			}

			rows := append(chainRows(chain.CallExpDateMap), chainRows(chain.PutExpDateMap)...)
			if len(rows) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No contracts found for %s\n", chain.Symbol)
				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  underlying %s\n\n", chain.Symbol, chain.UnderlyingPrice.StringFixed(2))
			headers := []string{"Expiration", "Strike", "Type", "Symbol", "Bid", "Ask", "Last", "Volume", "OI", "Delta", "IV"}
			return formatter.Table(headers, rows)
		},
	}

	cmd.Flags().StringVarP(&contractType, "type", "t", "", "Contract type: CALL, PUT or ALL")
	cmd.Flags().IntVar(&strikes, "strikes", 0, "Number of strikes around the money")
	cmd.Flags().StringVar(&from, "from", "", "First expiration date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&to, "to", "", "Last expiration date (yyyy-MM-dd)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Chain strategy: SINGLE, ANALYTICAL, COVERED, VERTICAL, ...")
	cmd.Flags().StringVar(&strikeRange, "range", "", "Strike range: ITM, NTM, OTM, ...")
	cmd.Flags().IntVar(&days, "days", 0, "Days to expiration")
	cmd.SilenceUsage = true

	return cmd
}

// chainRows flattens an expiration map. Keys have the form "yyyy-MM-dd:DTE",
// so sorting them as strings orders by date.
func chainRows(expirations map[string]map[string][]schwabapi.OptionContract) [][]string {
	var rows [][]string
	for _, exp := range sortedKeys(expirations) {
		date, _, _ := strings.Cut(exp, ":")
		byStrike := expirations[exp]

		strikes := make([]string, 0, len(byStrike))
		for k := range byStrike {
			strikes = append(strikes, k)
		}
		slices.SortFunc(strikes, compareStrikes)

		for _, strike := range strikes {
			for _, c := range byStrike[strike] {
				rows = append(rows, []string{
					date,
					c.StrikePrice.String(),
					c.PutCall,
					c.Symbol,
					c.Bid.StringFixed(2),
					c.Ask.StringFixed(2),
					c.Last.StringFixed(2),
					fmt.Sprint(c.TotalVolume),
					fmt.Sprint(c.OpenInterest),
					c.Delta.StringFixed(3),
					c.Volatility.StringFixed(1),
				})
			}
		}
	}
	return rows
}

func compareStrikes(a, b string) int {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return da.Cmp(db)
}

func init() {
	addAPICommand(newOptionsCmd)
}
