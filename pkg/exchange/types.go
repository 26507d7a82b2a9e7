package exchange

// Wire-level trading types. The field shapes mirror the Hyperliquid API while
// staying venue-agnostic at the interface layer.

// Grouping tags how a batch of orders is related.
type Grouping string

const (
	// GroupingNA marks independent orders.
	GroupingNA Grouping = "na"
	// GroupingNormalTpsl marks an entry order with attached TP/SL triggers.
	GroupingNormalTpsl Grouping = "normalTpsl"
)

// TIF enumerates limit order time-in-force modes.
const (
	TifGtc = "Gtc"
	TifIoc = "Ioc"
	TifAlo = "Alo"
)

// LimitOrderType carries limit-specific parameters.
type LimitOrderType struct {
	TIF string `json:"tif"`
}

// TriggerOrderType carries trigger-specific parameters.
type TriggerOrderType struct {
	IsMarket  bool   `json:"isMarket"`
	TriggerPx string `json:"triggerPx"`
	Tpsl      string `json:"tpsl"` // "tp" or "sl"
}

/// OrderType is a tagged variant: exactly one of Limit or Trigger is set.
type OrderType struct {
	Limit   *LimitOrderType   `json:"limit,omitempty"`
	Trigger *TriggerOrderType `json:"trigger,omitempty"`
}

// Order is a fully resolved order ready for upstream submission. Prices and
// sizes stay strings to avoid precision loss.
type Order struct {
	Asset      int       `json:"asset"`
	IsBuy      bool      `json:"isBuy"`
	LimitPx    string    `json:"limitPx"`
	Sz         string    `json:"sz"`
	ReduceOnly bool      `json:"reduceOnly"`
	OrderType  OrderType `json:"orderType"`
	Cloid      string    `json:"cloid,omitempty"`
}

// Cancel identifies a resting order to cancel.
type Cancel struct {
	Asset int   `json:"asset"`
	Oid   int64 `json:"oid"`
}

// OrderResponse is the upstream reply to an order or cancel action.
type OrderResponse struct {
	Status   string            `json:"status"` // "ok" or "err"
	Response OrderResponseData `json:"response"`
}

// OrderResponseData wraps the response payload.
type OrderResponseData struct {
	Type string                  `json:"type"`
	Data OrderResponseDataDetail `json:"data"`
}

// OrderResponseDataDetail holds per-order statuses.
type OrderResponseDataDetail struct {
	Statuses []OrderStatusResponse `json:"statuses"`
}

// OrderStatusResponse reports the fate of one submitted order.
type OrderStatusResponse struct {
	Resting *RestingOrder `json:"resting,omitempty"`
	Filled  *FilledOrder  `json:"filled,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// RestingOrder identifies an order now resting on the book.
type RestingOrder struct {
	Oid int64 `json:"oid"`
}

// FilledOrder describes a matched order.
type FilledOrder struct {
	TotalSz string `json:"totalSz"`
	AvgPx   string `json:"avgPx"`
	Oid     int64  `json:"oid"`
}

// UniverseEntry describes one listed asset from the meta endpoint. The asset
// id used in order payloads is the entry's index in the universe list.
type UniverseEntry struct {
	Name         string  `json:"name"`
	SzDecimals   int     `json:"szDecimals"`
	MaxLeverage  float64 `json:"maxLeverage"`
	OnlyIsolated bool    `json:"onlyIsolated"`
	IsDelisted   bool    `json:"isDelisted"`
}

// Meta is the upstream asset listing.
type Meta struct {
	Universe []UniverseEntry `json:"universe"`
}

// AllMids maps coin names to current mid prices.
type AllMids map[string]string

// Leverage describes per-position leverage settings.
type Leverage struct {
	Type  string `json:"type"` // "cross" or "isolated"
	Value int    `json:"value"`
}

// Position is one open perpetual position.
type Position struct {
	Coin           string   `json:"coin"`
	EntryPx        string   `json:"entryPx"`
	PositionValue  string   `json:"positionValue"`
	Szi            string   `json:"szi"`
	UnrealizedPnl  string   `json:"unrealizedPnl"`
	ReturnOnEquity string   `json:"returnOnEquity"`
	Leverage       Leverage `json:"leverage"`
	LiquidationPx  string   `json:"liquidationPx,omitempty"`
	MarginUsed     string   `json:"marginUsed,omitempty"`
	MaxLeverage    int      `json:"maxLeverage,omitempty"`
}

// AssetPosition wraps a position the way clearinghouseState nests it.
type AssetPosition struct {
	Type     string   `json:"type"`
	Position Position `json:"position"`
}

// MarginSummary consolidates account margin metrics.
type MarginSummary struct {
	AccountValue    string `json:"accountValue"`
	TotalMarginUsed string `json:"totalMarginUsed"`
	TotalNtlPos     string `json:"totalNtlPos"`
	TotalRawUSD     string `json:"totalRawUsd"`
}

// AccountState summarizes a clearinghouse account.
type AccountState struct {
	MarginSummary      MarginSummary   `json:"marginSummary"`
	CrossMarginSummary MarginSummary   `json:"crossMarginSummary"`
	Withdrawable       string          `json:"withdrawable"`
	AssetPositions     []AssetPosition `json:"assetPositions"`
}

// SpotBalance is one coin balance from spotClearinghouseState.
type SpotBalance struct {
	Coin     string `json:"coin"`
	Token    int    `json:"token"`
	Total    string `json:"total"`
	Hold     string `json:"hold"`
	EntryNtl string `json:"entryNtl"`
}

// SpotState wraps spot balances.
type SpotState struct {
	Balances []SpotBalance `json:"balances"`
}

// OpenOrder is one resting order from the openOrders endpoint.
type OpenOrder struct {
	Coin      string `json:"coin"`
	Side      string `json:"side"`
	LimitPx   string `json:"limitPx"`
	Sz        string `json:"sz"`
	OrigSz    string `json:"origSz"`
	Oid       int64  `json:"oid"`
	Timestamp int64  `json:"timestamp"`
	Cloid     string `json:"cloid,omitempty"`
}
