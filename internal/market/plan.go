package market

import "math"

// NoResistanceNote is attached when no resistance zone sits above price.
const NoResistanceNote = "No valid resistance zone above price."

// PlanNote is attached to every generated plan.
const PlanNote = "Trade plan generated based on support/resistance levels."

// TradePlan is a rule-based long setup derived from clustered levels.
type TradePlan struct {
	Direction  string   `json:"direction"`
	Entry      float64  `json:"entry"`
	StopLoss   float64  `json:"stop_loss"`
	TakeProfit float64  `json:"take_profit"`
	RiskReward float64  `json:"risk_reward"`
	Resistance bool     `json:"resistance_found"`
	Notes      []string `json:"notes"`
}

// BuildTradePlan picks the nearest support below the last close as the stop
// and the nearest resistance above it as the target. Without any support
// below price the lowest support is used; without resistance the plan is
// flagged and the target left at zero.
func BuildTradePlan(close float64, levels Levels) TradePlan {
	plan := TradePlan{Direction: "NONE", Entry: round2(close)}

	stop := 0.0
	if len(levels.Support) > 0 {
		below := math.Inf(-1)
		for _, z := range levels.Support {
			if z.Level < close && z.Level > below {
				below = z.Level
			}
		}
		if math.IsInf(below, -1) {
			stop = levels.Support[0].Level
		} else {
			stop = below
		}
	}

	target := math.Inf(1)
	for _, z := range levels.Resistance {
		if z.Level > close && z.Level < target {
			target = z.Level
		}
	}
	if math.IsInf(target, 1) {
		target = 0
		plan.Notes = append(plan.Notes, NoResistanceNote)
	} else {
		plan.Resistance = true
	}

	plan.StopLoss = stop
	plan.TakeProfit = target

	if stop > 0 && close > stop {
		plan.RiskReward = round2((target - close) / (close - stop))
	}
	if stop < close && close < target {
		plan.Direction = "LONG"
	}
	plan.Notes = append(plan.Notes, PlanNote)
	return plan
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
