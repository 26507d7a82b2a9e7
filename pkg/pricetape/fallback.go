package pricetape

// fallbackAssetIDs mirrors the upstream perp listing order for the majors. It
// is consulted only when the upstream meta endpoint is unreachable, and a hit
// is never recorded as a cache refresh.
var fallbackAssetIDs = map[string]int{
	"BTC":   0,
	"ETH":   1,
	"ATOM":  2,
	"MATIC": 3,
	"DYDX":  4,
	"SOL":   5,
	"AVAX":  6,
	"BNB":   7,
	"APE":   8,
	"OP":    9,
	"LTC":   10,
	"ARB":   11,
	"DOGE":  12,
	"INJ":   13,
	"SUI":   14,
	"KPEPE": 15,
	"CRV":   16,
	"LDO":   17,
	"LINK":  18,
	"STX":   19,
	"RNDR":  20,
	"CFX":   21,
}
