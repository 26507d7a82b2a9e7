package precision

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SizeIncrement returns 10^(-szDecimals), the smallest size step for a symbol.
// It doubles as the minimum order size.
func (t *Table) SizeIncrement(symbol string) decimal.Decimal {
	spec := t.Get(symbol)
	return decimal.New(1, -int32(spec.SzDecimals))
}

// MinOrderSize returns the minimum order size for a symbol.
func (t *Table) MinOrderSize(symbol string) decimal.Decimal {
	return t.SizeIncrement(symbol)
}

// FormatSize rounds half-up to the symbol's szDecimals and renders the size
// with exactly szDecimals fractional digits.
func (t *Table) FormatSize(symbol string, size decimal.Decimal) string {
	spec := t.Get(symbol)
	places := int32(spec.SzDecimals)
	return size.Abs().Round(places).StringFixed(places)
}

// FormatPrice enforces the two price rules for a symbol:
// non-integer prices carry at most MaxSignificantDigits significant digits,
// and at most MAX_DECIMALS(isPerp)-szDecimals decimal places. Excess digits
// are truncated toward zero rather than rounded. Integer prices are exempt
// from the significant-figure rule.
func (t *Table) FormatPrice(symbol string, price decimal.Decimal) string {
	spec := t.Get(symbol)
	return formatPrice(price, spec)
}

func formatPrice(price decimal.Decimal, spec Spec) string {
	if price.IsInteger() {
		return price.Truncate(0).String()
	}
	p := price.Truncate(int32(spec.PriceDecimals()))
	p = truncateSigFigs(p, MaxSignificantDigits)
	return trimZeros(p.String())
}

// truncateSigFigs truncates d toward zero so it carries at most sig
// significant digits. Values that already fit are returned unchanged.
func truncateSigFigs(d decimal.Decimal, sig int) decimal.Decimal {
	if d.IsZero() {
		return d
	}
	abs := d.Abs()
	// floor(log10(|d|)): coefficient digits plus the exponent.
	mag := int(abs.NumDigits()) + int(abs.Exponent()) - 1
	places := sig - 1 - mag
	if places >= 0 {
		return d.Truncate(int32(places))
	}
	// Truncating left of the decimal point: scale down, chop, scale back.
	shift := decimal.New(1, int32(-places))
	return d.DivRound(shift, 8).Truncate(0).Mul(shift)
}

func trimZeros(s string) string {
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// tickTable lists per-symbol price ticks used when the order pipeline rounds a
// synthesized price. Symbols without an entry use defaultTick.
var tickTable = map[string]decimal.Decimal{
	"BTC":   decimal.NewFromInt(1),
	"ETH":   decimal.RequireFromString("0.1"),
	"SOL":   decimal.RequireFromString("0.01"),
	"AVAX":  decimal.RequireFromString("0.01"),
	"BNB":   decimal.RequireFromString("0.1"),
	"LTC":   decimal.RequireFromString("0.01"),
	"LINK":  decimal.RequireFromString("0.001"),
	"ARB":   decimal.RequireFromString("0.0001"),
	"OP":    decimal.RequireFromString("0.0001"),
	"SUI":   decimal.RequireFromString("0.0001"),
	"DOGE":  decimal.RequireFromString("0.00001"),
	"KPEPE": decimal.RequireFromString("0.000001"),
}

var defaultTick = decimal.RequireFromString("0.0001")

// TickSize returns the price tick for a symbol.
func TickSize(symbol string) decimal.Decimal {
	if tick, ok := tickTable[Canonical(symbol)]; ok {
		return tick
	}
	return defaultTick
}

// RoundToTick quantizes a price to the symbol's tick, rounding half-up.
func RoundToTick(symbol string, price decimal.Decimal) decimal.Decimal {
	tick := TickSize(symbol)
	if tick.IsZero() {
		return price
	}
	return price.Div(tick).Round(0).Mul(tick)
}
