package liquidation

import (
	"errors"
	"fmt"
	"math"

	"hypergate/pkg/precision"
)

// Side mirrors order direction: long positions are entered with buys.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// MarginMode selects which equity pool backs the position.
type MarginMode string

const (
	MarginCross    MarginMode = "cross"
	MarginIsolated MarginMode = "isolated"
)

const (
	maxIterations      = 8
	probeEpsilon       = 1e-8
	rateEpsilon        = 1e-9
	deductionEpsilon   = 1e-3
	denominatorEpsilon = 1e-12

	fallbackMaintenanceRate = 1.0 / 20.0
)

var (
	ErrNoConvergence = errors.New("liquidation: solver did not converge")
	ErrDegenerate    = errors.New("liquidation: degenerate denominator")
)

// Inputs carries everything the solver needs. The calculation is pure: no
// I/O, no global reads. PositionSize == 0 means "absent" and triggers the
// initial-margin backfill.
type Inputs struct {
	EntryPrice float64
	Leverage   float64
	Side       Side
	MarginMode MarginMode

	PositionSize        float64
	AccountValue        float64
	IsolatedMargin      float64
	WalletBalance       float64
	TransferRequirement float64

	// Tiers supplies the maintenance schedule. When empty the solver falls
	// back to a flat rate derived from MaxLeverage (or 1/20).
	Tiers       []precision.MarginTier
	MaxLeverage int
}

// Result reports the converged price along with the tier parameters in force
// at that price.
type Result struct {
	LiquidationPrice float64
	Rate             float64
	Deduction        float64
	Iterations       int
	PositionSize     float64
	AccountValue     float64
}

// Price runs the fixed-point liquidation solver.
func Price(in Inputs) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	schedule := BuildSchedule(in.Tiers)
	fallbackRate := flatRate(in)

	sideMul := 1.0
	if in.Side == SideSell {
		sideMul = -1.0
	}

	size := math.Abs(in.PositionSize)
	accountValue := in.AccountValue
	if size == 0 {
		derived, err := backfillPosition(in)
		if err != nil {
			return nil, err
		}
		size = derived
	}
	if in.MarginMode == MarginCross {
		accountValue = resolveAccountValue(in, size)
	}

	equity := accountValue
	if in.MarginMode == MarginIsolated {
		equity = in.IsolatedMargin
	}

	probe := in.EntryPrice
	prevRate := math.NaN()
	prevDeduction := math.NaN()
	for iter := 1; iter <= maxIterations; iter++ {
		rate, deduction := marginParamsAt(schedule, fallbackRate, size*probe)
		if rate <= 0 || rate >= 1 {
			return nil, fmt.Errorf("liquidation: maintenance fraction %v outside (0,1)", rate)
		}

		denominator := size * (1 - rate*sideMul)
		if math.Abs(denominator) < denominatorEpsilon {
			return nil, ErrDegenerate
		}
		next := (size*in.EntryPrice - sideMul*(equity+deduction)) / denominator
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return nil, fmt.Errorf("liquidation: non-finite probe at iteration %d", iter)
		}
		if next <= 0 {
			return &Result{
				LiquidationPrice: next,
				Rate:             rate,
				Deduction:        deduction,
				Iterations:       iter,
				PositionSize:     size,
				AccountValue:     accountValue,
			}, nil
		}

		converged := math.Abs(next-probe) < probeEpsilon &&
			math.Abs(rate-prevRate) < rateEpsilon &&
			math.Abs(deduction-prevDeduction) < deductionEpsilon
		probe = next
		prevRate = rate
		prevDeduction = deduction
		if converged {
			return &Result{
				LiquidationPrice: probe,
				Rate:             rate,
				Deduction:        deduction,
				Iterations:       iter,
				PositionSize:     size,
				AccountValue:     accountValue,
			}, nil
		}
	}
	return nil, ErrNoConvergence
}

func validate(in Inputs) error {
	switch {
	case !isFinite(in.EntryPrice) || in.EntryPrice <= 0:
		return fmt.Errorf("liquidation: entry price must be positive and finite")
	case !isFinite(in.Leverage) || in.Leverage <= 0:
		return fmt.Errorf("liquidation: leverage must be positive")
	case in.Side != SideBuy && in.Side != SideSell:
		return fmt.Errorf("liquidation: side must be buy or sell")
	case in.MarginMode != MarginCross && in.MarginMode != MarginIsolated:
		return fmt.Errorf("liquidation: margin mode must be cross or isolated")
	case !isFinite(in.PositionSize) || in.PositionSize < 0:
		return fmt.Errorf("liquidation: position size must be non-negative and finite")
	case !isFinite(in.AccountValue) || !isFinite(in.IsolatedMargin) || !isFinite(in.WalletBalance):
		return fmt.Errorf("liquidation: margin inputs must be finite")
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// flatRate picks the schedule-less fallback maintenance rate.
func flatRate(in Inputs) float64 {
	if in.MaxLeverage > 0 {
		return 1.0 / float64(2*in.MaxLeverage)
	}
	return fallbackMaintenanceRate
}

func marginParamsAt(schedule []ScheduleTier, fallbackRate, notional float64) (rate, deduction float64) {
	if len(schedule) == 0 {
		return fallbackRate, 0
	}
	tier := tierAt(schedule, notional)
	return tier.Rate, tier.Deduction
}

// backfillPosition derives the position size from margin equity and leverage
// when the caller did not provide one.
func backfillPosition(in Inputs) (float64, error) {
	equity := in.AccountValue
	if in.MarginMode == MarginIsolated {
		equity = in.IsolatedMargin
	}
	if equity <= 0 {
		equity = in.WalletBalance - in.TransferRequirement
	}
	if equity <= 0 {
		return 0, fmt.Errorf("liquidation: cannot derive position size without margin equity")
	}
	leverage := in.Leverage
	if in.MarginMode == MarginCross {
		// Clip to the tier-allowed leverage at the entry notional, not the
		// user-requested leverage.
		notional := equity * leverage
		if allowed := maxLeverageAt(in.Tiers, notional); allowed > 0 && leverage > allowed {
			leverage = allowed
		}
	}
	return equity * leverage / in.EntryPrice, nil
}

// resolveAccountValue enforces the cross-mode initial margin requirement:
// the reported account value can never be below the margin the position needs.
func resolveAccountValue(in Inputs, size float64) float64 {
	notional := size * in.EntryPrice
	leverage := in.Leverage
	if allowed := maxLeverageAt(in.Tiers, notional); allowed > 0 && leverage > allowed {
		leverage = allowed
	}
	if leverage <= 0 {
		return in.AccountValue
	}
	required := notional / leverage
	if required > in.AccountValue {
		return required
	}
	return in.AccountValue
}
