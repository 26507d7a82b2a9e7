package liquidation

import (
	"hypergate/pkg/precision"
)

// ScheduleTier is one band of the maintenance-margin schedule derived from a
// leverage tier: rate = 1/(2*maxLeverage), with a deduction chosen so the
// maintenance margin stays continuous across tier boundaries.
type ScheduleTier struct {
	LowerBound float64
	Rate       float64
	Deduction  float64
}

// BuildSchedule converts margin tiers into a maintenance schedule.
//
//	tier 0: deduction = 0
//	tier i: deduction_i = deduction_{i-1} + lowerBound_i * (rate_i - rate_{i-1})
func BuildSchedule(tiers []precision.MarginTier) []ScheduleTier {
	if len(tiers) == 0 {
		return nil
	}
	schedule := make([]ScheduleTier, len(tiers))
	for i, tier := range tiers {
		rate := 1.0 / float64(2*tier.MaxLeverage)
		deduction := 0.0
		if i > 0 {
			prev := schedule[i-1]
			deduction = prev.Deduction + tier.LowerBound*(rate-prev.Rate)
		}
		schedule[i] = ScheduleTier{
			LowerBound: tier.LowerBound,
			Rate:       rate,
			Deduction:  deduction,
		}
	}
	return schedule
}

// tierAt selects the highest tier whose lowerBound does not exceed notional.
func tierAt(schedule []ScheduleTier, notional float64) ScheduleTier {
	selected := schedule[0]
	for _, tier := range schedule[1:] {
		if tier.LowerBound <= notional {
			selected = tier
		}
	}
	return selected
}

// maxLeverageAt returns the tier-allowed leverage at the given notional.
func maxLeverageAt(tiers []precision.MarginTier, notional float64) float64 {
	if len(tiers) == 0 {
		return 0
	}
	selected := tiers[0]
	for _, tier := range tiers[1:] {
		if tier.LowerBound <= notional {
			selected = tier
		}
	}
	return float64(selected.MaxLeverage)
}
