package twap

import (
	"github.com/shopspring/decimal"
)

// roundingTolerance separates "totalSize is a clean multiple of the size
// increment" from "it is not": within tolerance the unit count rounds,
// beyond it the fractional remainder is dropped.
var roundingTolerance = decimal.RequireFromString("0.000001")

// distributeSizes splits totalSize into intervals sub-order sizes, each an
// exact multiple of increment = 10^(-szDecimals), front-loading the remainder
// so earlier sub-orders are never smaller than later ones.
func distributeSizes(totalSize decimal.Decimal, szDecimals, intervals int) ([]decimal.Decimal, error) {
	increment := decimal.New(1, -int32(szDecimals))

	exact := totalSize.Div(increment)
	rounded := exact.Round(0)
	if exact.Sub(rounded).Abs().GreaterThan(roundingTolerance) {
		rounded = exact.Floor()
	}
	totalUnits := rounded.IntPart()

	// One unit is the minimum order size, so every sub-order needs a unit.
	if totalUnits < int64(intervals) || totalUnits < 1 {
		return nil, ErrSizeTooSmall
	}

	base := totalUnits / int64(intervals)
	remainder := totalUnits - base*int64(intervals)

	sizes := make([]decimal.Decimal, intervals)
	for i := range sizes {
		units := base
		if int64(i) < remainder {
			units++
		}
		sizes[i] = decimal.NewFromInt(units).Mul(increment)
	}
	return sizes, nil
}
