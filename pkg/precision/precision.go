package precision

import (
	"sync"
)

// Global price rules shared by every formatter.
const (
	// MaxDecimalsPerp bounds decimal places for perpetual prices.
	MaxDecimalsPerp = 6
	// MaxDecimalsSpot bounds decimal places for spot prices.
	MaxDecimalsSpot = 8
	// MaxSignificantDigits bounds significant digits for non-integer prices.
	MaxSignificantDigits = 5
)

// Spec captures per-symbol precision parameters.
// The size tick and minimum order size are both 10^(-SzDecimals).
type Spec struct {
	SzDecimals int
	PxDecimals int
	IsPerp     bool
}

// MaxDecimals returns the decimal ceiling for this market type.
func (s Spec) MaxDecimals() int {
	if s.IsPerp {
		return MaxDecimalsPerp
	}
	return MaxDecimalsSpot
}

// PriceDecimals returns the decimal places allowed for prices of this symbol,
// MAX_DECIMALS(isPerp) - szDecimals, floored at zero.
func (s Spec) PriceDecimals() int {
	d := s.MaxDecimals() - s.SzDecimals
	if d < 0 {
		return 0
	}
	return d
}

// defaultSpecs covers the majors so the gateway stays usable before the first
// successful meta fetch. SzDecimals values mirror the upstream listings.
var defaultSpecs = map[string]Spec{
	"BTC":   {SzDecimals: 5, PxDecimals: 1, IsPerp: true},
	"ETH":   {SzDecimals: 4, PxDecimals: 2, IsPerp: true},
	"SOL":   {SzDecimals: 2, PxDecimals: 4, IsPerp: true},
	"AVAX":  {SzDecimals: 2, PxDecimals: 4, IsPerp: true},
	"BNB":   {SzDecimals: 3, PxDecimals: 3, IsPerp: true},
	"DOGE":  {SzDecimals: 0, PxDecimals: 6, IsPerp: true},
	"KPEPE": {SzDecimals: 0, PxDecimals: 6, IsPerp: true},
	"ARB":   {SzDecimals: 1, PxDecimals: 5, IsPerp: true},
	"OP":    {SzDecimals: 1, PxDecimals: 5, IsPerp: true},
	"LINK":  {SzDecimals: 1, PxDecimals: 5, IsPerp: true},
	"SUI":   {SzDecimals: 1, PxDecimals: 5, IsPerp: true},
	"LTC":   {SzDecimals: 2, PxDecimals: 4, IsPerp: true},
	"INJ":   {SzDecimals: 1, PxDecimals: 5, IsPerp: true},
}

const fallbackSzDecimals = 2

// Table holds per-symbol precision specs. It is primed once from upstream meta
// and read-only afterwards apart from re-priming on network switches.
type Table struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewTable builds a table seeded with the built-in defaults.
func NewTable() *Table {
	specs := make(map[string]Spec, len(defaultSpecs))
	for k, v := range defaultSpecs {
		specs[k] = v
	}
	return &Table{specs: specs}
}

// Get returns the precision spec for a symbol. Unknown symbols fall back to a
// generic perp spec with two size decimals.
func (t *Table) Get(symbol string) Spec {
	base := Canonical(symbol)
	t.mu.RLock()
	spec, ok := t.specs[base]
	t.mu.RUnlock()
	if ok {
		return spec
	}
	fallback := Spec{SzDecimals: fallbackSzDecimals, IsPerp: !IsSpot(symbol)}
	fallback.PxDecimals = fallback.PriceDecimals()
	return fallback
}

// Prime installs specs learned from an upstream meta response. Entries with a
// negative szDecimals are ignored.
func (t *Table) Prime(entries map[string]int) {
	if len(entries) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for symbol, szDecimals := range entries {
		base := Canonical(symbol)
		if base == "" || szDecimals < 0 {
			continue
		}
		spec := Spec{SzDecimals: szDecimals, IsPerp: true}
		spec.PxDecimals = spec.PriceDecimals()
		t.specs[base] = spec
	}
}
