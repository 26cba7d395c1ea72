package market

import (
	"context"
	"encoding/json"
	"math"
	"testing"
)

func sineSeries(n int) *Series {
	s := &Series{}
	for i := 0; i < n; i++ {
		c := 100 + math.Sin(float64(i)/7)*10
		s.Close = append(s.Close, c)
		s.High = append(s.High, c+1)
		s.Low = append(s.Low, c-1)
	}
	return s
}

func TestCompute_MergesAllBranches(t *testing.T) {
	series := sineSeries(120)
	sum, err := Compute(context.Background(), series)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if sum.LastClose != series.LastClose() {
		t.Errorf("LastClose = %v, want %v", sum.LastClose, series.LastClose())
	}
	if sum.Indicators.RSI <= 0 || sum.Indicators.RSI >= 100 {
		t.Errorf("RSI = %v, want in (0,100) for oscillating prices", sum.Indicators.RSI)
	}
	if sum.Indicators.Bollinger.Upper < sum.Indicators.Bollinger.Lower {
		t.Error("Bollinger bands inverted")
	}
	if sum.Indicators.ATR <= 0 {
		t.Errorf("ATR = %v, want positive", sum.Indicators.ATR)
	}
	if sum.Trend.Trend == "" || sum.Trend.Strength == "" {
		t.Errorf("trend not populated: %+v", sum.Trend)
	}
	if len(sum.Levels.Support) == 0 || len(sum.Levels.Resistance) == 0 {
		t.Errorf("levels not populated: %+v", sum.Levels)
	}
	if len(sum.Plan.Notes) == 0 {
		t.Error("trade plan not populated")
	}
}

func TestCompute_EmptySeries(t *testing.T) {
	if _, err := Compute(context.Background(), &Series{}); err == nil {
		t.Fatal("empty series accepted")
	}
}

func TestCompute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Compute(ctx, sineSeries(50)); err == nil {
		t.Fatal("cancelled compute returned no error")
	}
}

func TestSummary_JSONShape(t *testing.T) {
	sum, err := Compute(context.Background(), sineSeries(120))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	text, err := sum.JSON()
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("summary JSON not decodable: %v", err)
	}
	for _, key := range []string{"last_close", "indicators", "trend", "support_resistance", "trade_plan"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("summary JSON missing %q", key)
		}
	}

	var roundTrip Summary
	if err := json.Unmarshal([]byte(text), &roundTrip); err != nil {
		t.Fatalf("summary does not round-trip: %v", err)
	}
	if roundTrip.LastClose != sum.LastClose {
		t.Errorf("round-trip LastClose = %v, want %v", roundTrip.LastClose, sum.LastClose)
	}
}
