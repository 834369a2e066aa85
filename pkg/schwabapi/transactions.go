package schwabapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
)

// TransactionTypes lists the values accepted by the types filter.
var TransactionTypes = []string{
	"TRADE", "RECEIVE_AND_DELIVER", "DIVIDEND_OR_INTEREST", "ACH_RECEIPT",
	"ACH_DISBURSEMENT", "CASH_RECEIPT", "CASH_DISBURSEMENT", "ELECTRONIC_FUND",
	"WIRE_OUT", "WIRE_IN", "JOURNAL", "MEMORANDUM", "MARGIN_CALL", "MONEY_MARKET",
	"SMA_ADJUSTMENT",
}

// TransactionQuery filters GetTransactions. Start and End are ISO-8601
// values; the API allows at most a one year window and 3000 results.
type TransactionQuery struct {
	Start  string
	End    string
	Types  []string // defaults to TRADE
	Symbol string
}

// GetTransactions retrieves the transactions of one account.
func (c *Client) GetTransactions(ctx context.Context, accountHash string, q TransactionQuery) ([]Transaction, error) {
	if accountHash == "" {
		return nil, fmt.Errorf("accountHash is required")
	}
	if q.Start == "" || q.End == "" {
		return nil, fmt.Errorf("both start and end dates are required")
	}
	start, err := NormalizeTime(q.Start, ExtendedTimestamp)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	end, err := NormalizeTime(q.End, ExtendedTimestamp)
	if err != nil {
		return nil, fmt.Errorf("end: %w", err)
	}

	types := q.Types
	if len(types) == 0 {
		types = []string{"TRADE"}
	}
	for _, t := range types {
		if !slices.Contains(TransactionTypes, t) {
			return nil, fmt.Errorf("invalid transaction type %q", t)
		}
	}

	params := Params{
		"startDate": start.String(),
		"endDate":   end.String(),
		"types":     types,
		"symbol":    q.Symbol,
	}

	var txns []Transaction
	if err := c.getJSON(ctx, accountPath(accountHash, "transactions"), params, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

// GetTransaction retrieves a single transaction.
func (c *Client) GetTransaction(ctx context.Context, accountHash, transactionID string) (*Transaction, error) {
	if accountHash == "" || transactionID == "" {
		return nil, fmt.Errorf("accountHash and transactionID are required")
	}

	// The endpoint may answer with an object or a one-element list.
	var raw json.RawMessage
	if err := c.getJSON(ctx, accountPath(accountHash, "transactions", transactionID), nil, &raw); err != nil {
		return nil, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var txns []Transaction
		if err := json.Unmarshal(raw, &txns); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		if len(txns) == 0 {
			return nil, &APIError{StatusCode: http.StatusNotFound, Message: "transaction not found"}
		}
		return &txns[0], nil
	}

	var txn Transaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &txn, nil
}
