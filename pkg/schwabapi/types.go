package schwabapi

import "github.com/shopspring/decimal"

// AccountNumber pairs a plain account number with the encrypted hash the
// API expects in account-scoped paths.
type AccountNumber struct {
	AccountNumber string `json:"accountNumber"`
	HashValue     string `json:"hashValue"`
}

// Account is one entry of the accounts endpoints.
type Account struct {
	SecuritiesAccount SecuritiesAccount `json:"securitiesAccount"`
}

// SecuritiesAccount holds the balances and optional positions of an account.
type SecuritiesAccount struct {
	Type                    string     `json:"type"`
	AccountNumber           string     `json:"accountNumber"`
	RoundTrips              int        `json:"roundTrips"`
	IsDayTrader             bool       `json:"isDayTrader"`
	IsClosingOnlyRestricted bool       `json:"isClosingOnlyRestricted"`
	Positions               []Position `json:"positions,omitempty"`
	InitialBalances         Balances   `json:"initialBalances"`
	CurrentBalances         Balances   `json:"currentBalances"`
}

// Balances is the subset of balance fields shared by cash and margin accounts.
type Balances struct {
	CashBalance             decimal.Decimal `json:"cashBalance"`
	CashAvailableForTrading decimal.Decimal `json:"cashAvailableForTrading"`
	LiquidationValue        decimal.Decimal `json:"liquidationValue"`
	BuyingPower             decimal.Decimal `json:"buyingPower"`
	AvailableFunds          decimal.Decimal `json:"availableFunds"`
	LongMarketValue         decimal.Decimal `json:"longMarketValue"`
	ShortMarketValue        decimal.Decimal `json:"shortMarketValue"`
	Equity                  decimal.Decimal `json:"equity"`
}

// Position is a single holding.
type Position struct {
	ShortQuantity                  decimal.Decimal `json:"shortQuantity"`
	LongQuantity                   decimal.Decimal `json:"longQuantity"`
	AveragePrice                   decimal.Decimal `json:"averagePrice"`
	MarketValue                    decimal.Decimal `json:"marketValue"`
	CurrentDayProfitLoss           decimal.Decimal `json:"currentDayProfitLoss"`
	CurrentDayProfitLossPercentage decimal.Decimal `json:"currentDayProfitLossPercentage"`
	LongOpenProfitLoss             decimal.Decimal `json:"longOpenProfitLoss"`
	Instrument                     Instrument      `json:"instrument"`
}

// Instrument identifies a security.
type Instrument struct {
	AssetType   string `json:"assetType"`
	CUSIP       string `json:"cusip,omitempty"`
	Symbol      string `json:"symbol"`
	Description string `json:"description,omitempty"`
	Exchange    string `json:"exchange,omitempty"`
}

// InstrumentsResponse wraps the instruments endpoints.
type InstrumentsResponse struct {
	Instruments []Instrument `json:"instruments"`
}

// Quote is one entry of the quotes response, keyed by symbol.
type Quote struct {
	AssetMainType string         `json:"assetMainType"`
	Symbol        string         `json:"symbol"`
	QuoteType     string         `json:"quoteType"`
	Realtime      bool           `json:"realtime"`
	SSID          int64          `json:"ssid"`
	Quote         QuoteData      `json:"quote"`
	Reference     QuoteReference `json:"reference"`
}

// QuoteData holds the price fields of a quote.
type QuoteData struct {
	LastPrice        decimal.Decimal `json:"lastPrice"`
	BidPrice         decimal.Decimal `json:"bidPrice"`
	AskPrice         decimal.Decimal `json:"askPrice"`
	BidSize          int64           `json:"bidSize"`
	AskSize          int64           `json:"askSize"`
	OpenPrice        decimal.Decimal `json:"openPrice"`
	HighPrice        decimal.Decimal `json:"highPrice"`
	LowPrice         decimal.Decimal `json:"lowPrice"`
	ClosePrice       decimal.Decimal `json:"closePrice"`
	NetChange        decimal.Decimal `json:"netChange"`
	NetPercentChange decimal.Decimal `json:"netPercentChange"`
	TotalVolume      int64           `json:"totalVolume"`
	QuoteTime        int64           `json:"quoteTime"`
	TradeTime        int64           `json:"tradeTime"`
}

// QuoteReference holds descriptive fields of a quote.
type QuoteReference struct {
	CUSIP        string `json:"cusip"`
	Description  string `json:"description"`
	Exchange     string `json:"exchange"`
	ExchangeName string `json:"exchangeName"`
}

// MoversResponse is the movers endpoint payload.
type MoversResponse struct {
	Screeners []Mover `json:"screeners"`
}

// Mover is one entry of the movers list.
type Mover struct {
	Symbol           string          `json:"symbol"`
	Description      string          `json:"description"`
	Volume           int64           `json:"volume"`
	TotalVolume      int64           `json:"totalVolume"`
	Trades           int64           `json:"trades"`
	LastPrice        decimal.Decimal `json:"lastPrice"`
	NetChange        decimal.Decimal `json:"netChange"`
	NetPercentChange decimal.Decimal `json:"netPercentChange"`
}

// MarketHours holds the trading sessions of one product on one date.
type MarketHours struct {
	Date         string                   `json:"date"`
	MarketType   string                   `json:"marketType"`
	Product      string                   `json:"product"`
	ProductName  string                   `json:"productName"`
	IsOpen       bool                     `json:"isOpen"`
	SessionHours map[string][]SessionSpan `json:"sessionHours,omitempty"`
}

// SessionSpan is a start/end pair of a trading session.
type SessionSpan struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MarketHoursResponse maps market (equity, option, ...) to product code to hours.
type MarketHoursResponse map[string]map[string]MarketHours

// OptionChain is the chains endpoint payload.
type OptionChain struct {
	Symbol            string          `json:"symbol"`
	Status            string          `json:"status"`
	Strategy          string          `json:"strategy"`
	Interval          decimal.Decimal `json:"interval"`
	IsDelayed         bool            `json:"isDelayed"`
	IsIndex           bool            `json:"isIndex"`
	UnderlyingPrice   decimal.Decimal `json:"underlyingPrice"`
	Volatility        decimal.Decimal `json:"volatility"`
	NumberOfContracts int             `json:"numberOfContracts"`
	Underlying        *Underlying     `json:"underlying,omitempty"`
	// CallExpDateMap maps "yyyy-MM-dd:DTE" to strike to contracts.
	CallExpDateMap map[string]map[string][]OptionContract `json:"callExpDateMap"`
	PutExpDateMap  map[string]map[string][]OptionContract `json:"putExpDateMap"`
}

// Underlying is the underlying quote included with includeUnderlyingQuote.
type Underlying struct {
	Symbol      string          `json:"symbol"`
	Description string          `json:"description"`
	Last        decimal.Decimal `json:"last"`
	Bid         decimal.Decimal `json:"bid"`
	Ask         decimal.Decimal `json:"ask"`
	Mark        decimal.Decimal `json:"mark"`
}

// OptionContract is a single option in a chain.
type OptionContract struct {
	PutCall          string          `json:"putCall"`
	Symbol           string          `json:"symbol"`
	Description      string          `json:"description"`
	Bid              decimal.Decimal `json:"bid"`
	Ask              decimal.Decimal `json:"ask"`
	Last             decimal.Decimal `json:"last"`
	Mark             decimal.Decimal `json:"mark"`
	TotalVolume      int64           `json:"totalVolume"`
	OpenInterest     int64           `json:"openInterest"`
	Volatility       decimal.Decimal `json:"volatility"`
	Delta            decimal.Decimal `json:"delta"`
	Gamma            decimal.Decimal `json:"gamma"`
	Theta            decimal.Decimal `json:"theta"`
	Vega             decimal.Decimal `json:"vega"`
	StrikePrice      decimal.Decimal `json:"strikePrice"`
	ExpirationDate   string          `json:"expirationDate"`
	DaysToExpiration int             `json:"daysToExpiration"`
	InTheMoney       bool            `json:"inTheMoney"`
}

// ExpirationChain is the expirationchain endpoint payload.
type ExpirationChain struct {
	ExpirationList []Expiration `json:"expirationList"`
}

// Expiration is one option series expiration.
type Expiration struct {
	ExpirationDate   string `json:"expirationDate"`
	DaysToExpiration int    `json:"daysToExpiration"`
	ExpirationType   string `json:"expirationType"`
	SettlementType   string `json:"settlementType"`
	OptionRoots      string `json:"optionRoots"`
	Standard         bool   `json:"standard"`
}

// PriceHistory is the pricehistory endpoint payload.
type PriceHistory struct {
	Symbol            string          `json:"symbol"`
	Empty             bool            `json:"empty"`
	PreviousClose     decimal.Decimal `json:"previousClose"`
	PreviousCloseDate int64           `json:"previousCloseDate"`
	Candles           []Candle        `json:"candles"`
}

// Candle is one OHLCV bar. Datetime is epoch milliseconds.
type Candle struct {
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	Volume   int64           `json:"volume"`
	Datetime int64           `json:"datetime"`
}

// Number is a decimal that marshals as a bare JSON number, the form the
// order endpoints expect.
type Number struct {
	decimal.Decimal
}

// NewNumber wraps d.
func NewNumber(d decimal.Decimal) *Number {
	return &Number{Decimal: d}
}

// MarshalJSON renders the value unquoted.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

// Order is both the request and response shape of the orders endpoints.
type Order struct {
	Session                  string     `json:"session,omitempty"`
	Duration                 string     `json:"duration,omitempty"`
	OrderType                string     `json:"orderType,omitempty"`
	ComplexOrderStrategyType string     `json:"complexOrderStrategyType,omitempty"`
	Quantity                 *Number    `json:"quantity,omitempty"`
	FilledQuantity           *Number    `json:"filledQuantity,omitempty"`
	RemainingQuantity        *Number    `json:"remainingQuantity,omitempty"`
	Price                    *Number    `json:"price,omitempty"`
	StopPrice                *Number    `json:"stopPrice,omitempty"`
	OrderStrategyType        string     `json:"orderStrategyType,omitempty"`
	OrderLegCollection       []OrderLeg `json:"orderLegCollection,omitempty"`
	OrderID                  int64      `json:"orderId,omitempty"`
	Cancelable               bool       `json:"cancelable,omitempty"`
	Editable                 bool       `json:"editable,omitempty"`
	Status                   string     `json:"status,omitempty"`
	EnteredTime              string     `json:"enteredTime,omitempty"`
	CloseTime                string     `json:"closeTime,omitempty"`
	AccountNumber            int64      `json:"accountNumber,omitempty"`
	ChildOrderStrategies     []Order    `json:"childOrderStrategies,omitempty"`
}

// OrderLeg is one instruction within an order.
type OrderLeg struct {
	OrderLegType   string     `json:"orderLegType,omitempty"`
	LegID          int64      `json:"legId,omitempty"`
	Instrument     Instrument `json:"instrument"`
	Instruction    string     `json:"instruction"`
	PositionEffect string     `json:"positionEffect,omitempty"`
	Quantity       Number     `json:"quantity"`
}

// OrderPreview is the previewOrder endpoint payload.
type OrderPreview struct {
	OrderID               int64                 `json:"orderId"`
	OrderStrategy         Order                 `json:"orderStrategy"`
	OrderValidationResult OrderValidationResult `json:"orderValidationResult"`
}

// OrderValidationResult groups the validation messages of a preview.
type OrderValidationResult struct {
	Alerts  []ValidationMessage `json:"alerts"`
	Accepts []ValidationMessage `json:"accepts"`
	Rejects []ValidationMessage `json:"rejects"`
	Reviews []ValidationMessage `json:"reviews"`
	Warns   []ValidationMessage `json:"warns"`
}

// ValidationMessage is one preview validation entry.
type ValidationMessage struct {
	ValidationRuleName string `json:"validationRuleName"`
	Message            string `json:"message"`
	ActivityMessage    string `json:"activityMessage"`
}

// Transaction is one account activity record.
type Transaction struct {
	ActivityID    int64           `json:"activityId"`
	Time          string          `json:"time"`
	AccountNumber string          `json:"accountNumber"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	SubAccount    string          `json:"subAccount"`
	TradeDate     string          `json:"tradeDate"`
	OrderID       int64           `json:"orderId"`
	NetAmount     decimal.Decimal `json:"netAmount"`
	Description   string          `json:"description"`
	TransferItems []TransferItem  `json:"transferItems"`
}

// TransferItem is a single instrument movement within a transaction.
type TransferItem struct {
	Instrument     Instrument      `json:"instrument"`
	Amount         decimal.Decimal `json:"amount"`
	Cost           decimal.Decimal `json:"cost"`
	Price          decimal.Decimal `json:"price"`
	PositionEffect string          `json:"positionEffect"`
}

// UserPreference is the userPreference endpoint payload.
type UserPreference struct {
	Accounts     []PreferenceAccount `json:"accounts"`
	StreamerInfo []StreamerInfo      `json:"streamerInfo"`
	Offers       []Offer             `json:"offers"`
}

// PreferenceAccount is an account as listed in user preferences.
type PreferenceAccount struct {
	AccountNumber  string `json:"accountNumber"`
	PrimaryAccount bool   `json:"primaryAccount"`
	Type           string `json:"type"`
	NickName       string `json:"nickName"`
	DisplayAcctID  string `json:"displayAcctId"`
}

// StreamerInfo holds the streaming connection details.
type StreamerInfo struct {
	StreamerSocketURL      string `json:"streamerSocketUrl"`
	SchwabClientCustomerID string `json:"schwabClientCustomerId"`
	SchwabClientCorrelID   string `json:"schwabClientCorrelId"`
	SchwabClientChannel    string `json:"schwabClientChannel"`
	SchwabClientFunctionID string `json:"schwabClientFunctionId"`
}

// Offer holds market data entitlements.
type Offer struct {
	Level2Permissions bool   `json:"level2Permissions"`
	MktDataPermission string `json:"mktDataPermission"`
}
