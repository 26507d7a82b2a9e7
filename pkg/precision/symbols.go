package precision

import "strings"

const (
	perpSuffix = "-PERP"
	spotSuffix = "-SPOT"
)

// Canonical reduces any accepted symbol alias to its upper-case base coin.
// "btc", "BTC-PERP" and "Btc-Spot" all map to "BTC". Empty input stays empty.
func Canonical(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, perpSuffix)
	s = strings.TrimSuffix(s, spotSuffix)
	return s
}

// PerpKey returns the canonical perpetual market key for a symbol.
func PerpKey(symbol string) string {
	base := Canonical(symbol)
	if base == "" {
		return ""
	}
	return base + perpSuffix
}

// IsSpot reports whether the symbol names a spot market.
func IsSpot(symbol string) bool {
	return strings.HasSuffix(strings.ToUpper(strings.TrimSpace(symbol)), spotSuffix)
}

// SameSymbol compares two symbols after normalization.
func SameSymbol(a, b string) bool {
	return Canonical(a) == Canonical(b) && Canonical(a) != ""
}

// NormalizeCoinKeys rewrites a string-keyed map so that every entry is
// reachable under both its base form and its -PERP form. Existing entries win
// over derived aliases, which makes the operation idempotent.
func NormalizeCoinKeys[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in)*2)
	for key, val := range in {
		base := Canonical(key)
		if base == "" {
			continue
		}
		if _, ok := out[base]; !ok {
			out[base] = val
		}
		perp := base + perpSuffix
		if _, ok := out[perp]; !ok {
			out[perp] = val
		}
	}
	// Direct entries take precedence over aliases derived from other keys.
	for key, val := range in {
		base := Canonical(key)
		if base == "" {
			continue
		}
		if key == base || key == base+perpSuffix {
			out[key] = val
		}
	}
	return out
}
