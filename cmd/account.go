package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/internal/output"
	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newAccountCmd creates the account command with the given options.
func newAccountCmd(opts *apiOptions) *cobra.Command {
	var withPositions bool

	cmd := &cobra.Command{
		Use:   "account",
		Short: "View account balances and positions",
		Long: `View your linked Schwab accounts, balances, and positions.

Examples:
  sch account                      # List all accounts with balances
  sch account --positions          # Include positions
  sch account numbers              # Show account numbers and their hashes
  sch account show -a 12345678     # Show one account in detail`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountList(cmd, opts, withPositions)
		},
	}

	cmd.Flags().BoolVarP(&withPositions, "positions", "p", false, "Include positions")
	cmd.SilenceUsage = true

	cmd.AddCommand(newAccountNumbersCmd(opts))
	cmd.AddCommand(newAccountShowCmd(opts))

	return cmd
}

func runAccountList(cmd *cobra.Command, opts *apiOptions, withPositions bool) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	fields := ""
	if withPositions {
		fields = "positions"
	}
	accounts, err := opts.client.GetAccounts(ctx, fields)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}

	formatter := opts.formatter(cmd)
	if opts.jsonMode {
		return formatter.Print(accounts)
	}
	if len(accounts) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No accounts found")
		return nil
	}

	headers := []string{"Account", "Type", "Liquidation Value", "Cash", "Buying Power", "Day Trader"}
	rows := make([][]string, 0, len(accounts))
	for _, acc := range accounts {
		sa := acc.SecuritiesAccount
		rows = append(rows, []string{
			sa.AccountNumber,
			sa.Type,
			schwabapi.FormatMoney(sa.CurrentBalances.LiquidationValue),
			schwabapi.FormatMoney(sa.CurrentBalances.CashBalance),
			schwabapi.FormatMoney(sa.CurrentBalances.BuyingPower),
			fmt.Sprintf("%t", sa.IsDayTrader),
		})
	}
	if err := formatter.Table(headers, rows); err != nil {
		return err
	}

	if !withPositions {
		return nil
	}
	for _, acc := range accounts {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nPositions for %s:\n", acc.SecuritiesAccount.AccountNumber)
		if err := printPositions(cmd, formatter, acc.SecuritiesAccount.Positions); err != nil {
			return err
		}
	}
	return nil
}

func printPositions(cmd *cobra.Command, formatter *output.Formatter, positions []schwabapi.Position) error {
	if len(positions) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No positions")
		return nil
	}

	headers := []string{"Symbol", "Type", "Qty", "Avg Price", "Market Value", "Day P/L", "Day %"}
	rows := make([][]string, 0, len(positions))
	for _, pos := range positions {
		rows = append(rows, []string{
			pos.Instrument.Symbol,
			pos.Instrument.AssetType,
			pos.LongQuantity.Sub(pos.ShortQuantity).String(),
			schwabapi.FormatMoney(pos.AveragePrice),
			schwabapi.FormatMoney(pos.MarketValue),
			schwabapi.FormatGainLoss(pos.CurrentDayProfitLoss),
			schwabapi.FormatPercent(pos.CurrentDayProfitLossPercentage),
		})
	}
	return formatter.Table(headers, rows)
}

func newAccountNumbersCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "numbers",
		Short: "List account numbers and their hashes",
		Long: `List plain account numbers with the encrypted hash values the API uses
in account-scoped requests. Either form is accepted by --account.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			numbers, err := opts.client.GetAccountNumbers(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch account numbers: %w", err)
			}

			rows := make([][]string, 0, len(numbers))
			for _, n := range numbers {
				rows = append(rows, []string{n.AccountNumber, n.HashValue})
			}
			return opts.formatter(cmd).Table([]string{"Account Number", "Hash"}, rows)
		},
	}
	cmd.SilenceUsage = true
	return cmd
}

func newAccountShowCmd(opts *apiOptions) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show balances and positions of one account",
		Long: `Show balances and positions of a single account.

Uses the default account from config if --account is not specified.

Examples:
  sch account show
  sch account show --account 12345678`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, account)
			if err != nil {
				return err
			}
			acc, err := opts.client.GetAccount(ctx, hash, "positions")
			if err != nil {
				return fmt.Errorf("failed to fetch account: %w", err)
			}

			formatter := opts.formatter(cmd)
			return formatter.Result(acc, func() error {
				sa := acc.SecuritiesAccount
				b := sa.CurrentBalances
				err := formatter.Details([]output.Field{
					{Label: "Account", Value: sa.AccountNumber},
					{Label: "Type", Value: sa.Type},
					{Label: "Liquidation Value", Value: schwabapi.FormatMoney(b.LiquidationValue)},
					{Label: "Cash", Value: schwabapi.FormatMoney(b.CashBalance)},
					{Label: "Available For Trading", Value: schwabapi.FormatMoney(b.CashAvailableForTrading)},
					{Label: "Buying Power", Value: schwabapi.FormatMoney(b.BuyingPower)},
					{Label: "Long Market Value", Value: schwabapi.FormatMoney(b.LongMarketValue)},
					{Label: "Round Trips", Value: fmt.Sprint(sa.RoundTrips)},
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return printPositions(cmd, formatter, sa.Positions)
			})
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account number or hash (uses default if configured)")
	cmd.SilenceUsage = true
	return cmd
}

func init() {
	addAPICommand(newAccountCmd)
}
