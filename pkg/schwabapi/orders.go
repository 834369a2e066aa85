package schwabapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// OrderStatuses lists the values accepted by the status filter.
var OrderStatuses = []string{
	"AWAITING_PARENT_ORDER", "AWAITING_CONDITION", "AWAITING_STOP_CONDITION",
	"AWAITING_MANUAL_REVIEW", "ACCEPTED", "AWAITING_UR_OUT", "PENDING_ACTIVATION",
	"QUEUED", "WORKING", "REJECTED", "PENDING_CANCEL", "CANCELED", "PENDING_REPLACE",
	"REPLACED", "FILLED", "EXPIRED", "NEW", "AWAITING_RELEASE_TIME",
	"PENDING_ACKNOWLEDGEMENT", "PENDING_RECALL", "UNKNOWN",
}

// OrderQuery filters the order listing endpoints.
// From and To are ISO-8601 values; a bare date means midnight UTC.
type OrderQuery struct {
	From       string
	To         string
	MaxResults *int
	Status     string
}

func (q OrderQuery) params() (Params, error) {
	if q.From == "" || q.To == "" {
		return nil, fmt.Errorf("both from and to entered times are required")
	}
	from, err := NormalizeTime(q.From, ExtendedTimestamp)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := NormalizeTime(q.To, ExtendedTimestamp)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	if q.Status != "" && !slices.Contains(OrderStatuses, q.Status) {
		return nil, fmt.Errorf("invalid status %q", q.Status)
	}
	return Params{
		"fromEnteredTime": from.String(),
		"toEnteredTime":   to.String(),
		"maxResults":      q.MaxResults,
		"status":          q.Status,
	}, nil
}

func accountPath(accountHash string, parts ...string) string {
	p := traderPrefix + "/accounts/" + url.PathEscape(accountHash)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// GetOrders retrieves orders of one account entered within the query window.
func (c *Client) GetOrders(ctx context.Context, accountHash string, q OrderQuery) ([]Order, error) {
	if accountHash == "" {
		return nil, fmt.Errorf("accountHash is required")
	}
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := c.getJSON(ctx, accountPath(accountHash, "orders"), params, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetAllOrders retrieves orders across all linked accounts.
func (c *Client) GetAllOrders(ctx context.Context, q OrderQuery) ([]Order, error) {
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := c.getJSON(ctx, traderPrefix+"/orders", params, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder retrieves a single order.
func (c *Client) GetOrder(ctx context.Context, accountHash, orderID string) (*Order, error) {
	if accountHash == "" || orderID == "" {
		return nil, fmt.Errorf("accountHash and orderID are required")
	}

	var order Order
	if err := c.getJSON(ctx, accountPath(accountHash, "orders", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// PlaceOrder submits an order and returns the ID assigned by the server.
// The ID is taken from the Location header and may be empty if the server omits it.
func (c *Client) PlaceOrder(ctx context.Context, accountHash string, order Order) (string, error) {
	if accountHash == "" {
		return "", fmt.Errorf("accountHash is required")
	}
	p := accountPath(accountHash, "orders")
	return c.sendOrder(ctx, http.MethodPost, p, order)
}

// ReplaceOrder replaces an existing order. The old order is canceled and a
// new one created; the new ID is returned.
func (c *Client) ReplaceOrder(ctx context.Context, accountHash, orderID string, order Order) (string, error) {
	if accountHash == "" || orderID == "" {
		return "", fmt.Errorf("accountHash and orderID are required")
	}
	p := accountPath(accountHash, "orders", orderID)
	return c.sendOrder(ctx, http.MethodPut, p, order)
}

// CancelOrder cancels an open order.
func (c *Client) CancelOrder(ctx context.Context, accountHash, orderID string) error {
	if accountHash == "" || orderID == "" {
		return fmt.Errorf("accountHash and orderID are required")
	}

	p := accountPath(accountHash, "orders", orderID)
	resp, err := c.Delete(ctx, p)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	return c.check(resp, http.MethodDelete, p)
}

// PreviewOrder validates an order without placing it.
func (c *Client) PreviewOrder(ctx context.Context, accountHash string, order Order) (*OrderPreview, error) {
	if accountHash == "" {
		return nil, fmt.Errorf("accountHash is required")
	}

	body, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order: %w", err)
	}

	p := accountPath(accountHash, "previewOrder")
	resp, err := c.Post(ctx, p, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.check(resp, http.MethodPost, p); err != nil {
		return nil, err
	}

	var preview OrderPreview
	if err := DecodeJSON(resp, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

func (c *Client) sendOrder(ctx context.Context, method, p string, order Order) (string, error) {
	body, err := json.Marshal(order)
	if err != nil {
		return "", fmt.Errorf("failed to encode order: %w", err)
	}

	var resp *http.Response
	if method == http.MethodPut {
		resp, err = c.Put(ctx, p, bytes.NewReader(body))
	} else {
		resp, err = c.Post(ctx, p, bytes.NewReader(body))
	}
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := c.check(resp, method, p); err != nil {
		return "", err
	}
	return orderIDFromLocation(resp.Header.Get("Location")), nil
}

// orderIDFromLocation returns the last path segment of a Location header.
func orderIDFromLocation(location string) string {
	if location == "" {
		return ""
	}
	if u, err := url.Parse(location); err == nil {
		location = u.Path
	}
	return path.Base(strings.TrimSuffix(location, "/"))
}

// Order instructions.
const (
	InstructionBuy  = "BUY"
	InstructionSell = "SELL"
)

// EquityLimitBuy builds a day limit order to buy shares.
func EquityLimitBuy(symbol string, quantity, price decimal.Decimal) (Order, error) {
	return equityOrder(symbol, InstructionBuy, quantity, &price)
}

// EquityLimitSell builds a day limit order to sell shares.
func EquityLimitSell(symbol string, quantity, price decimal.Decimal) (Order, error) {
	return equityOrder(symbol, InstructionSell, quantity, &price)
}

// EquityMarketBuy builds a day market order to buy shares.
func EquityMarketBuy(symbol string, quantity decimal.Decimal) (Order, error) {
	return equityOrder(symbol, InstructionBuy, quantity, nil)
}

// EquityMarketSell builds a day market order to sell shares.
func EquityMarketSell(symbol string, quantity decimal.Decimal) (Order, error) {
	return equityOrder(symbol, InstructionSell, quantity, nil)
}

func equityOrder(symbol, instruction string, quantity decimal.Decimal, price *decimal.Decimal) (Order, error) {
	if symbol == "" {
		return Order{}, fmt.Errorf("symbol is required")
	}
	if !quantity.IsPositive() {
		return Order{}, fmt.Errorf("quantity must be positive")
	}

	order := Order{
		OrderType:         "MARKET",
		Session:           "NORMAL",
		Duration:          "DAY",
		OrderStrategyType: "SINGLE",
		OrderLegCollection: []OrderLeg{{
			Instruction: instruction,
			Quantity:    Number{Decimal: quantity},
			Instrument: Instrument{
				Symbol:    strings.ToUpper(symbol),
				AssetType: "EQUITY",
			},
		}},
	}
	if price != nil {
		if !price.IsPositive() {
			return Order{}, fmt.Errorf("limit price must be positive")
		}
		order.OrderType = "LIMIT"
		order.Price = NewNumber(*price)
	}
	return order, nil
}
