package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonandersen/sch/internal/output"
	"github.com/jonandersen/sch/pkg/schwabapi"
)

// newOrderCmd creates the parent order command.
func newOrderCmd(opts *apiOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Place and manage orders",
		Long: `Place buy and sell orders for stocks and ETFs, review, replace, and cancel orders.

Uses the default account from config if --account is not specified.

Examples:
  sch order buy AAPL --quantity 10                    # Market order (requires --yes)
  sch order sell AAPL --quantity 5 --limit 190 --yes  # Limit order
  sch order preview AAPL --side buy --quantity 10     # Validate without placing
  sch order list                                      # Orders of the last 7 days
  sch order get 1000001                               # Show one order
  sch order cancel 1000001 --yes                      # Cancel an order`,
	}

	cmd.AddCommand(newOrderListCmd(opts))
	cmd.AddCommand(newOrderAllCmd(opts))
	cmd.AddCommand(newOrderGetCmd(opts))
	cmd.AddCommand(newOrderBuyCmd(opts))
	cmd.AddCommand(newOrderSellCmd(opts))
	cmd.AddCommand(newOrderCancelCmd(opts))
	cmd.AddCommand(newOrderReplaceCmd(opts))
	cmd.AddCommand(newOrderPreviewCmd(opts))

	return cmd
}

// orderParams holds the parameters for an order.
type orderParams struct {
	account    string
	quantity   string
	limitPrice string
}

// orderQueryFlags holds the listing filters shared by list and all.
type orderQueryFlags struct {
	from   string
	to     string
	status string
	max    int
}

func (f *orderQueryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Entered on or after (yyyy-MM-dd or ISO-8601), defaults to 7 days ago")
	cmd.Flags().StringVar(&f.to, "to", "", "Entered on or before (yyyy-MM-dd or ISO-8601), defaults to now")
	cmd.Flags().StringVar(&f.status, "status", "", "Only orders with this status (e.g. WORKING, FILLED)")
	cmd.Flags().IntVar(&f.max, "max", 0, "Maximum number of orders")
}

func (f *orderQueryFlags) query(cmd *cobra.Command) (schwabapi.OrderQuery, error) {
	from, to, err := fillWindow(time.Now(), 7, f.from, f.to)
	if err != nil {
		return schwabapi.OrderQuery{}, err
	}
	return schwabapi.OrderQuery{
		From:       from,
		To:         to,
		Status:     strings.ToUpper(f.status),
		MaxResults: intFlag(cmd, "max", f.max),
	}, nil
}

func newOrderListCmd(opts *apiOptions) *cobra.Command {
	var (
		account string
		flags   orderQueryFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders of an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, account)
			if err != nil {
				return err
			}
			query, err := flags.query(cmd)
			if err != nil {
				return err
			}
			orders, err := opts.client.GetOrders(ctx, hash, query)
			if err != nil {
				return fmt.Errorf("failed to fetch orders: %w", err)
			}
			return printOrders(cmd, opts, orders)
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account number or hash (uses default if configured)")
	flags.register(cmd)
	cmd.SilenceUsage = true

	return cmd
}

func newOrderAllCmd(opts *apiOptions) *cobra.Command {
	var flags orderQueryFlags

	cmd := &cobra.Command{
		Use:   "all",
		Short: "List orders across all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			query, err := flags.query(cmd)
			if err != nil {
				return err
			}
			orders, err := opts.client.GetAllOrders(ctx, query)
			if err != nil {
				return fmt.Errorf("failed to fetch orders: %w", err)
			}
			return printOrders(cmd, opts, orders)
		},
	}

	flags.register(cmd)
	cmd.SilenceUsage = true

	return cmd
}

func printOrders(cmd *cobra.Command, opts *apiOptions, orders []schwabapi.Order) error {
	formatter := opts.formatter(cmd)
	if opts.jsonMode {
		return formatter.Print(orders)
	}
	if len(orders) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No orders found")
		return nil
	}

	headers := []string{"Order ID", "Entered", "Side", "Symbol", "Qty", "Filled", "Type", "Price", "Status"}
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		side, symbol := orderLegSummary(o)
		rows = append(rows, []string{
			fmt.Sprint(o.OrderID),
			formatTransactionDate(o.EnteredTime),
			side,
			symbol,
			numberString(o.Quantity),
			numberString(o.FilledQuantity),
			o.OrderType,
			priceString(o.Price),
			o.Status,
		})
	}
	return formatter.Table(headers, rows)
}

func newOrderGetCmd(opts *apiOptions) *cobra.Command {
	var account string

	cmd := &cobra.Command{
		Use:   "get ORDER_ID",
		Short: "Show one order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, account)
			if err != nil {
				return err
			}
			order, err := opts.client.GetOrder(ctx, hash, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch order: %w", err)
			}

			formatter := opts.formatter(cmd)
			return formatter.Result(order, func() error {
				side, symbol := orderLegSummary(*order)
				return formatter.Details([]output.Field{
					{Label: "Order ID", Value: fmt.Sprint(order.OrderID)},
					{Label: "Status", Value: order.Status},
					{Label: "Side", Value: side},
					{Label: "Symbol", Value: symbol},
					{Label: "Type", Value: order.OrderType},
					{Label: "Quantity", Value: numberString(order.Quantity)},
					{Label: "Filled", Value: numberString(order.FilledQuantity)},
					{Label: "Remaining", Value: numberString(order.RemainingQuantity)},
					{Label: "Price", Value: priceString(order.Price)},
					{Label: "Duration", Value: order.Duration},
					{Label: "Entered", Value: order.EnteredTime},
					{Label: "Closed", Value: order.CloseTime},
					{Label: "Cancelable", Value: fmt.Sprintf("%t", order.Cancelable)},
				})
			})
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account number or hash (uses default if configured)")
	cmd.SilenceUsage = true

	return cmd
}

// newOrderBuyCmd creates the buy subcommand with the given options.
func newOrderBuyCmd(opts *apiOptions) *cobra.Command {
	return newOrderSideCmd(opts, schwabapi.InstructionBuy)
}

// newOrderSellCmd creates the sell subcommand with the given options.
func newOrderSellCmd(opts *apiOptions) *cobra.Command {
	return newOrderSideCmd(opts, schwabapi.InstructionSell)
}

func newOrderSideCmd(opts *apiOptions, side string) *cobra.Command {
	var (
		params      orderParams
		skipConfirm bool
	)

	verb := strings.ToLower(side)
	cmd := &cobra.Command{
		Use:   verb + " SYMBOL",
		Short: fmt.Sprintf("%s shares of a stock", strings.ToUpper(verb[:1])+verb[1:]),
		Long: fmt.Sprintf(`Place a day order to %[1]s shares of a stock.

Without --limit the order is a MARKET order; with --limit it is a LIMIT order.
The order is only sent when --yes is given.

Examples:
  sch order %[1]s AAPL --quantity 10 --yes               # Market order
  sch order %[1]s AAPL --quantity 10 --limit 175 --yes   # Limit order`, verb),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(cmd, opts, args[0], side, params, skipConfirm)
		},
	}

	params.register(cmd)
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	cmd.SilenceUsage = true

	return cmd
}

func (p *orderParams) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.account, "account", "a", "", "Account number or hash (uses default if configured)")
	cmd.Flags().StringVarP(&p.quantity, "quantity", "q", "", "Number of shares (required)")
	cmd.Flags().StringVarP(&p.limitPrice, "limit", "l", "", "Limit price (omit for a market order)")
}

// buildOrder validates params and returns the equity order they describe.
func (p orderParams) buildOrder(symbol, side string) (schwabapi.Order, error) {
	if p.quantity == "" {
		return schwabapi.Order{}, fmt.Errorf("quantity is required (use --quantity flag)")
	}
	qty, err := parsePositive("quantity", p.quantity)
	if err != nil {
		return schwabapi.Order{}, err
	}

	switch side {
	case schwabapi.InstructionBuy, schwabapi.InstructionSell:
	default:
		return schwabapi.Order{}, fmt.Errorf("invalid side %q (use BUY or SELL)", side)
	}

	if p.limitPrice == "" {
		if side == schwabapi.InstructionBuy {
			return schwabapi.EquityMarketBuy(symbol, qty)
		}
		return schwabapi.EquityMarketSell(symbol, qty)
	}

	price, err := parsePositive("limit price", p.limitPrice)
	if err != nil {
		return schwabapi.Order{}, err
	}
	if side == schwabapi.InstructionBuy {
		return schwabapi.EquityLimitBuy(symbol, qty, price)
	}
	return schwabapi.EquityLimitSell(symbol, qty, price)
}

// printOrderPreview writes the order summary shown before confirmation.
func printOrderPreview(cmd *cobra.Command, title string, order schwabapi.Order) {
	side, symbol := orderLegSummary(order)
	qty := ""
	if len(order.OrderLegCollection) > 0 {
		qty = order.OrderLegCollection[0].Quantity.String()
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "\n%s:\n", title)
	_, _ = fmt.Fprintf(w, "  Action:   %s\n", side)
	_, _ = fmt.Fprintf(w, "  Symbol:   %s\n", symbol)
	_, _ = fmt.Fprintf(w, "  Quantity: %s shares\n", qty)
	_, _ = fmt.Fprintf(w, "  Type:     %s\n", order.OrderType)
	if order.Price != nil {
		_, _ = fmt.Fprintf(w, "  Limit:    %s\n", priceString(order.Price))
	}
	_, _ = fmt.Fprintf(w, "  Expires:  %s\n\n", order.Duration)
}

func runOrder(cmd *cobra.Command, opts *apiOptions, symbol, side string, params orderParams, skipConfirm bool) error {
	order, err := params.buildOrder(symbol, side)
	if err != nil {
		return err
	}

	if !opts.jsonMode {
		printOrderPreview(cmd, "Order Preview", order)
	}

	// Require confirmation unless --yes flag is set
	if !skipConfirm {
		return fmt.Errorf("order requires confirmation (use --yes to confirm)")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	hash, err := opts.resolveAccount(ctx, params.account)
	if err != nil {
		return err
	}
	orderID, err := opts.client.PlaceOrder(ctx, hash, order)
	if err != nil {
		return fmt.Errorf("failed to place order: %w", err)
	}

	return printOrderResult(cmd, opts, "placed", orderID, order)
}

func printOrderResult(cmd *cobra.Command, opts *apiOptions, status, orderID string, order schwabapi.Order) error {
	side, symbol := orderLegSummary(order)
	if opts.jsonMode {
		result := map[string]any{
			"orderId":   orderID,
			"status":    status,
			"symbol":    symbol,
			"side":      side,
			"orderType": order.OrderType,
		}
		if len(order.OrderLegCollection) > 0 {
			result["quantity"] = order.OrderLegCollection[0].Quantity.String()
		}
		if order.Price != nil {
			result["limitPrice"] = order.Price.String()
		}
		return opts.formatter(cmd).Print(result)
	}

	if orderID == "" {
		orderID = "(not returned)"
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Order %s successfully\n", status)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Order ID: %s\n", orderID)
	return nil
}

func newOrderCancelCmd(opts *apiOptions) *cobra.Command {
	var (
		account     string
		skipConfirm bool
	)

	cmd := &cobra.Command{
		Use:   "cancel ORDER_ID",
		Short: "Cancel an open order",
		Long: `Cancel an open order by its ID.

Examples:
  sch order cancel 1000001        # Cancel order (requires confirmation)
  sch order cancel 1000001 --yes  # Skip confirmation`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orderID := args[0]
			if !opts.jsonMode {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nCancel Order:\n")
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  Order ID: %s\n\n", orderID)
			}

			// Require confirmation unless --yes flag is set
			if !skipConfirm {
				return fmt.Errorf("cancel requires confirmation (use --yes to confirm)")
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, account)
			if err != nil {
				return err
			}
			if err := opts.client.CancelOrder(ctx, hash, orderID); err != nil {
				return fmt.Errorf("failed to cancel order: %w", err)
			}

			if opts.jsonMode {
				return opts.formatter(cmd).Print(map[string]any{
					"orderId": orderID,
					"status":  "cancel_requested",
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cancel requested for order %s\n", orderID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&account, "account", "a", "", "Account number or hash (uses default if configured)")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	cmd.SilenceUsage = true

	return cmd
}

func newOrderReplaceCmd(opts *apiOptions) *cobra.Command {
	var (
		params      orderParams
		side        string
		skipConfirm bool
	)

	cmd := &cobra.Command{
		Use:   "replace ORDER_ID SYMBOL",
		Short: "Replace an open order",
		Long: `Replace an open order with a new one. The server cancels the original and
returns the ID of the replacement.

Examples:
  sch order replace 1000001 AAPL --side buy --quantity 10 --limit 174 --yes`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := params.buildOrder(args[1], strings.ToUpper(side))
			if err != nil {
				return err
			}

			if !opts.jsonMode {
				printOrderPreview(cmd, "Replace Order "+args[0], order)
			}
			if !skipConfirm {
				return fmt.Errorf("order requires confirmation (use --yes to confirm)")
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, params.account)
			if err != nil {
				return err
			}
			newID, err := opts.client.ReplaceOrder(ctx, hash, args[0], order)
			if err != nil {
				return fmt.Errorf("failed to replace order: %w", err)
			}
			return printOrderResult(cmd, opts, "replaced", newID, order)
		},
	}

	params.register(cmd)
	cmd.Flags().StringVar(&side, "side", "", "BUY or SELL (required)")
	cmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Skip confirmation prompt")
	cmd.SilenceUsage = true

	return cmd
}

func newOrderPreviewCmd(opts *apiOptions) *cobra.Command {
	var (
		params orderParams
		side   string
	)

	cmd := &cobra.Command{
		Use:   "preview SYMBOL",
		Short: "Validate an order without placing it",
		Long: `Send an order to the preview endpoint and show the validation result.
Nothing is placed.

Examples:
  sch order preview AAPL --side buy --quantity 10
  sch order preview AAPL --side sell --quantity 5 --limit 190`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := params.buildOrder(args[0], strings.ToUpper(side))
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			hash, err := opts.resolveAccount(ctx, params.account)
			if err != nil {
				return err
			}
			preview, err := opts.client.PreviewOrder(ctx, hash, order)
			if err != nil {
				return fmt.Errorf("failed to preview order: %w", err)
			}

			formatter := opts.formatter(cmd)
			return formatter.Result(preview, func() error {
				printOrderPreview(cmd, "Order Preview", order)

				v := preview.OrderValidationResult
				groups := []struct {
					name     string
					messages []schwabapi.ValidationMessage
				}{
					{"REJECT", v.Rejects},
					{"WARN", v.Warns},
					{"REVIEW", v.Reviews},
					{"ALERT", v.Alerts},
					{"ACCEPT", v.Accepts},
				}

				var rows [][]string
				for _, g := range groups {
					for _, m := range g.messages {
						rows = append(rows, []string{g.name, m.ValidationRuleName, m.Message})
					}
				}
				if len(rows) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No validation messages")
					return nil
				}
				return formatter.Table([]string{"Level", "Rule", "Message"}, rows)
			})
		},
	}

	params.register(cmd)
	cmd.Flags().StringVar(&side, "side", "", "BUY or SELL (required)")
	cmd.SilenceUsage = true

	return cmd
}

// orderLegSummary returns the instruction and symbol of the first leg.
func orderLegSummary(o schwabapi.Order) (string, string) {
	if len(o.OrderLegCollection) == 0 {
		return "", ""
	}
	leg := o.OrderLegCollection[0]
	return leg.Instruction, leg.Instrument.Symbol
}

func numberString(n *schwabapi.Number) string {
	if n == nil {
		return "-"
	}
	return n.String()
}

func priceString(n *schwabapi.Number) string {
	if n == nil {
		return "-"
	}
	return schwabapi.FormatMoney(n.Decimal)
}

func init() {
	addAPICommand(newOrderCmd)
}
