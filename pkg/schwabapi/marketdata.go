package schwabapi

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

const marketDataPrefix = "/marketdata/v1"

var (
	moverIndexes = []string{
		"$DJI", "$COMPX", "$SPX", "NYSE", "NASDAQ", "OTCBB",
		"INDEX_ALL", "EQUITY_ALL", "OPTION_ALL", "OPTION_PUT", "OPTION_CALL",
	}
	moverSorts       = []string{"VOLUME", "TRADES", "PERCENT_CHANGE_UP", "PERCENT_CHANGE_DOWN"}
	moverFrequencies = []int{0, 1, 5, 10, 30, 60}
	projections      = []string{"symbol-search", "symbol-regex", "desc-search", "desc-regex", "search", "fundamental"}
	markets          = []string{"equity", "option", "bond", "future", "forex"}
)

// GetQuote retrieves the quote for a single symbol.
// fields selects the returned blocks (quote, fundamental, extended, reference, regular, all).
func (c *Client) GetQuote(ctx context.Context, symbol, fields string) (map[string]Quote, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	result := make(map[string]Quote)
	path := marketDataPrefix + "/" + url.PathEscape(symbol) + "/quotes"
	if err := c.getJSON(ctx, path, Params{"fields": fields}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetQuotes retrieves quotes for several symbols in one request.
func (c *Client) GetQuotes(ctx context.Context, symbols []string, fields string, indicative bool) (map[string]Quote, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol is required")
	}

	result := make(map[string]Quote)
	params := Params{
		"symbols":    symbols,
		"fields":     fields,
		"indicative": indicative,
	}
	if err := c.getJSON(ctx, marketDataPrefix+"/quotes", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetMovers retrieves the largest movers of an index. sort and frequency are optional.
func (c *Client) GetMovers(ctx context.Context, index, sort string, frequency *int) ([]Mover, error) {
	if !slices.Contains(moverIndexes, index) {
		return nil, fmt.Errorf("invalid index %q (valid: %s)", index, strings.Join(moverIndexes, ", "))
	}
	if sort != "" && !slices.Contains(moverSorts, sort) {
		return nil, fmt.Errorf("invalid sort %q (valid: %s)", sort, strings.Join(moverSorts, ", "))
	}
	if frequency != nil && !slices.Contains(moverFrequencies, *frequency) {
		return nil, fmt.Errorf("invalid frequency %d (valid: 0, 1, 5, 10, 30, 60)", *frequency)
	}

	var result MoversResponse
	path := marketDataPrefix + "/movers/" + url.PathEscape(index)
	if err := c.getJSON(ctx, path, Params{"sort": sort, "frequency": frequency}, &result); err != nil {
		return nil, err
	}
	return result.Screeners, nil
}

// GetInstruments searches instruments by symbol or description.
func (c *Client) GetInstruments(ctx context.Context, symbol, projection string) ([]Instrument, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !slices.Contains(projections, projection) {
		return nil, fmt.Errorf("invalid projection %q (valid: %s)", projection, strings.Join(projections, ", "))
	}

	var result InstrumentsResponse
	params := Params{"symbol": symbol, "projection": projection}
	if err := c.getJSON(ctx, marketDataPrefix+"/instruments", params, &result); err != nil {
		return nil, err
	}
	return result.Instruments, nil
}

// GetInstrumentByCUSIP retrieves an instrument by its CUSIP.
func (c *Client) GetInstrumentByCUSIP(ctx context.Context, cusip string) ([]Instrument, error) {
	if cusip == "" {
		return nil, fmt.Errorf("cusip is required")
	}

	var result InstrumentsResponse
	path := marketDataPrefix + "/instruments/" + url.PathEscape(cusip)
	if err := c.getJSON(ctx, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Instruments, nil
}

// GetMarketHours retrieves hours for several markets. date is yyyy-MM-dd or empty for today.
func (c *Client) GetMarketHours(ctx context.Context, marketIDs []string, date string) (MarketHoursResponse, error) {
	if len(marketIDs) == 0 {
		return nil, fmt.Errorf("at least one market is required")
	}
	for _, m := range marketIDs {
		if !slices.Contains(markets, m) {
			return nil, fmt.Errorf("invalid market %q (valid: %s)", m, strings.Join(markets, ", "))
		}
	}
	d, err := optionalDate(date)
	if err != nil {
		return nil, err
	}

	var result MarketHoursResponse
	if err := c.getJSON(ctx, marketDataPrefix+"/markets", Params{"markets": marketIDs, "date": d}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetMarketHour retrieves hours for a single market.
func (c *Client) GetMarketHour(ctx context.Context, marketID, date string) (MarketHoursResponse, error) {
	if !slices.Contains(markets, marketID) {
		return nil, fmt.Errorf("invalid market %q (valid: %s)", marketID, strings.Join(markets, ", "))
	}
	d, err := optionalDate(date)
	if err != nil {
		return nil, err
	}

	var result MarketHoursResponse
	path := marketDataPrefix + "/markets/" + marketID
	if err := c.getJSON(ctx, path, Params{"date": d}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// OptionChainParams are the query options of GetOptionChain.
// Nil pointers and empty strings are omitted from the request.
type OptionChainParams struct {
	Symbol                 string
	ContractType           string // CALL, PUT or ALL
	StrikeCount            *int
	IncludeUnderlyingQuote *bool
	Strategy               string // SINGLE, ANALYTICAL, COVERED, VERTICAL, ...
	Interval               *float64
	Strike                 *float64
	Range                  string // ITM, NTM, OTM, ...
	FromDate               string // yyyy-MM-dd
	ToDate                 string // yyyy-MM-dd
	Volatility             *float64
	UnderlyingPrice        *float64
	InterestRate           *float64
	DaysToExpiration       *int
	ExpMonth               string // JAN..DEC or ALL
	OptionType             string
	Entitlement            string // PN, NP, PP
}

// GetOptionChain retrieves the option chain for a symbol.
func (c *Client) GetOptionChain(ctx context.Context, p OptionChainParams) (*OptionChain, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	from, err := optionalDate(p.FromDate)
	if err != nil {
		return nil, err
	}
	to, err := optionalDate(p.ToDate)
	if err != nil {
		return nil, err
	}

	params := Params{
		"symbol":                 p.Symbol,
		"contractType":           p.ContractType,
		"strikeCount":            p.StrikeCount,
		"includeUnderlyingQuote": p.IncludeUnderlyingQuote,
		"strategy":               p.Strategy,
		"interval":               p.Interval,
		"strike":                 p.Strike,
		"range":                  p.Range,
		"fromDate":               from,
		"toDate":                 to,
		"volatility":             p.Volatility,
		"underlyingPrice":        p.UnderlyingPrice,
		"interestRate":           p.InterestRate,
		"daysToExpiration":       p.DaysToExpiration,
		"expMonth":               p.ExpMonth,
		"optionType":             p.OptionType,
		"entitlement":            p.Entitlement,
	}

	var chain OptionChain
	if err := c.getJSON(ctx, marketDataPrefix+"/chains", params, &chain); err != nil {
		return nil, err
	}
	return &chain, nil
}

// GetOptionExpirationChain retrieves the expiration series for an optionable symbol.
func (c *Client) GetOptionExpirationChain(ctx context.Context, symbol string) (*ExpirationChain, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	var chain ExpirationChain
	if err := c.getJSON(ctx, marketDataPrefix+"/expirationchain", Params{"symbol": symbol}, &chain); err != nil {
		return nil, err
	}
	return &chain, nil
}

// PriceHistoryParams are the query options of GetPriceHistory.
type PriceHistoryParams struct {
	Symbol                string
	PeriodType            string // day, month, year, ytd
	Period                *int
	FrequencyType         string // minute, daily, weekly, monthly
	Frequency             *int
	StartDate             time.Time
	EndDate               time.Time
	NeedExtendedHoursData *bool
	NeedPreviousClose     *bool
}

// GetPriceHistory retrieves candles for a symbol. Zero start/end dates are omitted.
func (c *Client) GetPriceHistory(ctx context.Context, p PriceHistoryParams) (*PriceHistory, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return nil, fmt.Errorf("end date must not be before start date")
	}

	params := Params{
		"symbol":                p.Symbol,
		"periodType":            p.PeriodType,
		"period":                p.Period,
		"frequencyType":         p.FrequencyType,
		"frequency":             p.Frequency,
		"startDate":             p.StartDate,
		"endDate":               p.EndDate,
		"needExtendedHoursData": p.NeedExtendedHoursData,
		"needPreviousClose":     p.NeedPreviousClose,
	}

	var history PriceHistory
	if err := c.getJSON(ctx, marketDataPrefix+"/pricehistory", params, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// optionalDate normalizes a yyyy-MM-dd value; empty stays empty.
func optionalDate(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	n, err := NormalizeTime(value, CalendarDate)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}
