package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/internal/output"
	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newTransactionsCmd creates the transactions command with the given options.
func newTransactionsCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"txn"},
		Short:   "View account transactions",
		Long: `View trades, deposits, withdrawals, and dividends of an account.

Uses the default account from config if --account is not specified.

Examples:
  sch transactions list                                   # Trades of the last 30 days
  sch transactions list --types DIVIDEND_OR_INTEREST
  sch transactions list --start 2025-01-01 --end 2025-01-31
  sch transactions get 81234567890`,
	}

	cmd.AddCommand(newTransactionsListCmd(opts))
	cmd.AddCommand(newTransactionsGetCmd(opts))

	return cmd
}

func newTransactionsListCmd(opts *apiOptions) *cobra.Command {
	var (
		account string
		start   string
		end     string
		types   []string
		symbol  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, account)
			if err != nil {
				return err
			}

			from, to, err := fillWindow(time.Now(), 30, start, end)
			if err != nil {
				return err
			}
			upper := make([]string, 0, len(types))
			for _, t := range types {
				upper = append(upper, strings.ToUpper(t))
			}

			txns, err := opts.client.GetTransactions(ctx, hash, schwabapi.TransactionQuery{
				Start:  from,
				End:    to,
				Types:  upper,
				Symbol: strings.ToUpper(symbol),
			})
			if err != nil {
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			formatter := opts.formatter(cmd)
			if opts.jsonMode {
				return formatter.Print(txns)
			}
			if len(txns) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No transactions found")
				return nil
			}

			headers := []string{"ID", "Date", "Type", "Symbol", "Description", "Amount"}
			rows := make([][]string, 0, len(txns))
			for _, tx := range txns {
				rows = append(rows, []string{
					fmt.Sprint(tx.ActivityID),
					formatTransactionDate(tx.Time),
					tx.Type,
					transactionSymbol(tx),
					truncateString(tx.Description, 30),
					schwabapi.FormatMoney(tx.NetAmount),
				})
			}
			return formatter.Table(headers, rows)
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account number or hash (uses default if configured)")
	cmd.Flags().StringVar(&start, "start", "", "Start (yyyy-MM-dd or ISO-8601), defaults to 30 days ago")
	cmd.Flags().StringVar(&end, "end", "", "End (yyyy-MM-dd or ISO-8601), defaults to now")
	cmd.Flags().StringSliceVar(&types, "types", nil, "Transaction types (default TRADE)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Only transactions for this symbol")
	cmd.SilenceUsage = true

	return cmd
}

func newTransactionsGetCmd(opts *apiOptions) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, account)
			if err != nil {
				return err
			}
			tx, err := opts.client.GetTransaction(ctx, hash, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch transaction: %w", err)
			}

			formatter := opts.formatter(cmd)
			return formatter.Result(tx, func() error {
				err := formatter.Details([]output.Field{
					{Label: "ID", Value: fmt.Sprint(tx.ActivityID)},
					{Label: "Time", Value: tx.Time},
					{Label: "Type", Value: tx.Type},
					{Label: "Status", Value: tx.Status},
					{Label: "Description", Value: tx.Description},
					{Label: "Net Amount", Value: schwabapi.FormatMoney(tx.NetAmount)},
				})
				if err != nil || len(tx.TransferItems) == 0 {
					return err
				}

				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				rows := make([][]string, 0, len(tx.TransferItems))
				for _, item := range tx.TransferItems {
					rows = append(rows, []string{
						item.Instrument.Symbol,
						item.Instrument.AssetType,
						item.Amount.String(),
						schwabapi.FormatMoney(item.Price),
						schwabapi.FormatMoney(item.Cost),
						item.PositionEffect,
					})
				}
				return formatter.Table([]string{"Symbol", "Type", "Amount", "Price", "Cost", "Effect"}, rows)
			})
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account number or hash (uses default if configured)")
	cmd.SilenceUsage = true

	return cmd
}

// transactionSymbol returns the first non-currency symbol of a transaction.
func transactionSymbol(tx schwabapi.Transaction) string {
	for _, item := range tx.TransferItems {
		if item.Instrument.AssetType != "CURRENCY" && item.Instrument.Symbol != "" {
			return item.Instrument.Symbol
		}
	}
	return ""
}

// formatTransactionDate formats an API timestamp to a readable date.
func formatTransactionDate(timestamp string) string {
	for _, layout := range []string{"2006-01-02T15:04:05-0700", time.RFC3339} {
		if t, err := time.Parse(layout, timestamp); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return timestamp
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func init() {
	addAPICommand(newTransactionsCmd)
}
