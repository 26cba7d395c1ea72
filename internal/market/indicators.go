package market

import "math"

// SMA returns the simple moving average with the given window. Early bars
// average over however many values are available, so the output has no
// leading gap.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// RSI returns the Relative Strength Index using Wilder's smoothing. With
// fewer than two bars the output is the neutral 50.
func RSI(closes []float64, window int) []float64 {
	out := make([]float64, len(closes))
	if len(closes) < 2 {
		for i := range out {
			out[i] = 50
		}
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	alpha := 1.0 / float64(window)
	for i := range closes {
		if i == 0 {
			out[i] = 50
			continue
		}
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = avgGain*(1-alpha) + gain*alpha
		avgLoss = avgLoss*(1-alpha) + loss*alpha

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = clamp(100-100/(1+rs), 0, 100)
		}
	}
	return out
}

// MACD returns the MACD line, its signal line, and the histogram.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(closes)
	line = make([]float64, n)
	sig = make([]float64, n)
	hist = make([]float64, n)
	if n < slow {
		return line, sig, hist
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// EMA returns the exponential moving average with the standard span alpha
// 2/(span+1), seeded at the first value.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// Bollinger returns the middle, upper and lower bands: a rolling mean with
// population-standard-deviation envelopes.
func Bollinger(closes []float64, window int, numStd float64) (mid, upper, lower []float64) {
	n := len(closes)
	mid = make([]float64, n)
	upper = make([]float64, n)
	lower = make([]float64, n)

	for i := range closes {
		start := 0
		if i+1 > window {
			start = i + 1 - window
		}
		seg := closes[start : i+1]
		m := mean(seg)
		sd := 0.0
		for _, v := range seg {
			sd += (v - m) * (v - m)
		}
		sd = math.Sqrt(sd / float64(len(seg)))
		mid[i] = m
		upper[i] = m + sd*numStd
		lower[i] = m - sd*numStd
	}
	return mid, upper, lower
}

// ATR returns the Average True Range with Wilder's smoothing.
func ATR(s *Series, window int) []float64 {
	n := s.Len()
	out := make([]float64, n)
	if n < 2 {
		return out
	}

	alpha := 1.0 / float64(window)
	tr0 := s.High[0] - s.Low[0]
	out[0] = tr0
	prev := tr0
	for i := 1; i < n; i++ {
		hl := s.High[i] - s.Low[i]
		hc := math.Abs(s.High[i] - s.Close[i-1])
		lc := math.Abs(s.Low[i] - s.Close[i-1])
		tr := math.Max(hl, math.Max(hc, lc))
		prev = prev*(1-alpha) + tr*alpha
		out[i] = math.Max(prev, 0)
	}
	return out
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}
