package orders

import (
	"github.com/shopspring/decimal"

	"hypergate/pkg/precision"
)

// fallbackMids are per-symbol stand-in prices used when an order arrives with
// no price and no live mid is available. They only need to land inside the
// exchange's acceptance band; fills still happen at the book price.
var fallbackMids = map[string]decimal.Decimal{
	"BTC":   decimal.NewFromInt(100000),
	"ETH":   decimal.NewFromInt(3500),
	"SOL":   decimal.NewFromInt(150),
	"AVAX":  decimal.NewFromInt(30),
	"BNB":   decimal.NewFromInt(600),
	"LTC":   decimal.NewFromInt(90),
	"LINK":  decimal.NewFromInt(15),
	"INJ":   decimal.NewFromInt(25),
	"ARB":   decimal.RequireFromString("0.8"),
	"OP":    decimal.RequireFromString("1.8"),
	"SUI":   decimal.RequireFromString("2"),
	"DOGE":  decimal.RequireFromString("0.15"),
	"KPEPE": decimal.RequireFromString("0.01"),
}

// FallbackMid returns the stand-in mid for a symbol, if one is defined.
func FallbackMid(symbol string) (decimal.Decimal, bool) {
	mid, ok := fallbackMids[precision.Canonical(symbol)]
	return mid, ok
}
