package schwabapi

import (
	"context"
	"fmt"
	"net/url"
)

const traderPrefix = "/trader/v1"

// GetAccountNumbers retrieves the account numbers and their encrypted hashes.
func (c *Client) GetAccountNumbers(ctx context.Context) ([]AccountNumber, error) {
	var result []AccountNumber
	if err := c.getJSON(ctx, traderPrefix+"/accounts/accountNumbers", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccounts retrieves balances for all linked accounts.
// fields may be "positions" to include holdings, or empty.
func (c *Client) GetAccounts(ctx context.Context, fields string) ([]Account, error) {
	var result []Account
	if err := c.getJSON(ctx, traderPrefix+"/accounts", Params{"fields": fields}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetAccount retrieves a single account by its encrypted hash.
func (c *Client) GetAccount(ctx context.Context, accountHash, fields string) (*Account, error) {
	if accountHash == "" {
		return nil, fmt.Errorf("accountHash is required")
	}

	var account Account
	path := traderPrefix + "/accounts/" + url.PathEscape(accountHash)
	if err := c.getJSON(ctx, path, Params{"fields": fields}, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetUserPreference retrieves preferences and streamer info for the logged in user.
func (c *Client) GetUserPreference(ctx context.Context) (*UserPreference, error) {
	var pref UserPreference
	if err := c.getJSON(ctx, traderPrefix+"/userPreference", nil, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// AccountHashes maps plain account numbers to the hashes used in request paths.
type AccountHashes struct {
	order  []string
	byNum  map[string]string
	hashes map[string]bool
}

// NewAccountHashes indexes the result of GetAccountNumbers.
func NewAccountHashes(numbers []AccountNumber) *AccountHashes {
	h := &AccountHashes{
		byNum:  make(map[string]string, len(numbers)),
		hashes: make(map[string]bool, len(numbers)),
	}
	for _, n := range numbers {
		h.order = append(h.order, n.AccountNumber)
		h.byNum[n.AccountNumber] = n.HashValue
		h.hashes[n.HashValue] = true
	}
	return h
}

// Hash returns the hash for an account number.
func (h *AccountHashes) Hash(accountNumber string) (string, bool) {
	v, ok := h.byNum[accountNumber]
	return v, ok
}

// Default returns the hash of the first listed account.
func (h *AccountHashes) Default() (string, bool) {
	if len(h.order) == 0 {
		return "", false
	}
	return h.byNum[h.order[0]], true
}

// Resolve accepts an account number or a hash and returns the hash.
// An empty input resolves to the default account.
func (h *AccountHashes) Resolve(numberOrHash string) (string, error) {
	if numberOrHash == "" {
		if v, ok := h.Default(); ok {
			return v, nil
		}
		return "", fmt.Errorf("no linked accounts")
	}
	if h.hashes[numberOrHash] {
		return numberOrHash, nil
	}
	if v, ok := h.Hash(numberOrHash); ok {
		return v, nil
	}
	return "", fmt.Errorf("unknown account %q", numberOrHash)
}

// ResolveAccountHash fetches the account numbers and resolves numberOrHash.
func (c *Client) ResolveAccountHash(ctx context.Context, numberOrHash string) (string, error) {
	numbers, err := c.GetAccountNumbers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch account numbers: %w", err)
	}
	return NewAccountHashes(numbers).Resolve(numberOrHash)
}
