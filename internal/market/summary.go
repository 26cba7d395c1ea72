package market

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MACDValues holds the latest MACD line, signal and histogram readings.
type MACDValues struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// BollingerValues holds the latest band readings.
type BollingerValues struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// Indicators collects the latest value of each computed indicator.
type Indicators struct {
	RSI       float64         `json:"rsi"`
	MACD      MACDValues      `json:"macd"`
	Bollinger BollingerValues `json:"bollinger"`
	ATR       float64         `json:"atr"`
}

// Summary is the merged technical picture of one price series.
type Summary struct {
	LastClose  float64    `json:"last_close"`
	Indicators Indicators `json:"indicators"`
	Trend      Trend      `json:"trend"`
	Levels     Levels     `json:"support_resistance"`
	Plan       TradePlan  `json:"trade_plan"`
}

// JSON renders the summary for prompt embedding.
func (s Summary) JSON() (string, error) {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode summary: %w", err)
	}
	return string(b), nil
}

// Compute runs the indicator, trend and level computations concurrently over
// a read-only series and merges them once all branches finish. Branch results
// land in distinct fields guarded by mu, so no branch observes another's
// output before the merge.
func Compute(ctx context.Context, series *Series) (Summary, error) {
	if err := series.Validate(); err != nil {
		return Summary{}, err
	}

	var (
		mu  sync.Mutex
		out Summary
	)
	out.LastClose = series.LastClose()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	branches := []func() error{
		func() error {
			ind := computeIndicators(series)
			mu.Lock()
			out.Indicators = ind
			mu.Unlock()
			return nil
		},
		func() error {
			tr := TrendOf(series)
			mu.Lock()
			out.Trend = tr
			mu.Unlock()
			return nil
		},
		func() error {
			lv := SupportResistance(series, 0)
			mu.Lock()
			out.Levels = lv
			mu.Unlock()
			return nil
		},
	}
	for _, branch := range branches {
		branch := branch
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return branch()
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	// trade plan depends on the merged levels
	out.Plan = BuildTradePlan(out.LastClose, out.Levels)
	return out, nil
}

func computeIndicators(series *Series) Indicators {
	macd, signal, hist := MACD(series.Close, 12, 26, 9)
	mid, upper, lower := Bollinger(series.Close, 20, 2)
	return Indicators{
		RSI: last(RSI(series.Close, 14)),
		MACD: MACDValues{
			MACD:      last(macd),
			Signal:    last(signal),
			Histogram: last(hist),
		},
		Bollinger: BollingerValues{
			Upper:  last(upper),
			Middle: last(mid),
			Lower:  last(lower),
		},
		ATR: last(ATR(series, 14)),
	}
}
