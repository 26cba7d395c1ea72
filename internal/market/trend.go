package market

import "math"

// Trend classification thresholds on the normalized SMA50/SMA200 gap.
const (
	neutralBand  = 0.005 // below 0.5% the averages are effectively crossed
	moderateBand = 0.015
	strongBand   = 0.03
)

// Trend labels the SMA50/SMA200 relationship with a confidence grade.
type Trend struct {
	Trend    string  `json:"trend"` // Bullish, Bearish, Neutral, Unknown
	Strength string  `json:"strength"`
	SMA50    float64 `json:"sma50"`
	SMA200   float64 `json:"sma200"`
}

// Classify grades the trend from the latest SMA values.
func Classify(sma50, sma200 float64) Trend {
	if sma200 == 0 {
		return Trend{Trend: "Unknown", Strength: "Unknown", SMA50: sma50, SMA200: sma200}
	}

	trend := "Neutral"
	if sma50 > sma200 {
		trend = "Bullish"
	} else if sma50 < sma200 {
		trend = "Bearish"
	}

	gap := math.Abs(sma50-sma200) / sma200
	strength := "Weak"
	switch {
	case gap < neutralBand:
		trend = "Neutral"
	case gap >= strongBand:
		strength = "Strong"
	case gap >= moderateBand:
		strength = "Moderate"
	}

	return Trend{Trend: trend, Strength: strength, SMA50: sma50, SMA200: sma200}
}

// TrendOf classifies the trend of a whole series.
func TrendOf(s *Series) Trend {
	return Classify(last(SMA(s.Close, 50)), last(SMA(s.Close, 200)))
}
