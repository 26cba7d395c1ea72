// Package market supplies the numeric layer behind the market-interpretation
// pipeline: technical indicators, trend classification, support/resistance
// zones, and the trade plan they imply. Indicator computations are mutually
// independent and read-only over the price series, so the summary builder
// fans them out to a bounded worker pool with a single merge point.
package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Series holds aligned OHLC price history, oldest first.
type Series struct {
	High  []float64
	Low   []float64
	Close []float64
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Close) }

// Validate checks the series is non-empty and column-aligned.
func (s *Series) Validate() error {
	if len(s.Close) == 0 {
		return fmt.Errorf("market: empty series")
	}
	if len(s.High) != len(s.Close) || len(s.Low) != len(s.Close) {
		return fmt.Errorf("market: misaligned series columns (high=%d low=%d close=%d)",
			len(s.High), len(s.Low), len(s.Close))
	}
	return nil
}

// LastClose returns the most recent closing price.
func (s *Series) LastClose() float64 {
	return s.Close[len(s.Close)-1]
}

// Tail returns the last n bars (or the whole series when shorter).
func (s *Series) Tail(n int) *Series {
	if n >= s.Len() {
		return s
	}
	off := s.Len() - n
	return &Series{High: s.High[off:], Low: s.Low[off:], Close: s.Close[off:]}
}

// ReadCSV parses OHLC history from CSV with a header line containing at least
// High, Low and Close columns (case-insensitive), oldest row first.
func ReadCSV(r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("market: read csv header: %w", err)
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	hi, okH := cols["high"]
	lo, okL := cols["low"]
	cl, okC := cols["close"]
	if !okH || !okL || !okC {
		return nil, fmt.Errorf("market: csv must have High, Low and Close columns, got %v", header)
	}

	s := &Series{}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("market: read csv row: %w", err)
		}
		h, errH := strconv.ParseFloat(rec[hi], 64)
		l, errL := strconv.ParseFloat(rec[lo], 64)
		c, errC := strconv.ParseFloat(rec[cl], 64)
		if errH != nil || errL != nil || errC != nil {
			continue // skip non-numeric rows
		}
		s.High = append(s.High, h)
		s.Low = append(s.Low, l)
		s.Close = append(s.Close, c)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func normalizeHeader(h string) string {
	out := make([]rune, 0, len(h))
	for _, r := range h {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r >= 'a' && r <= 'z' {
			out = append(out, r)
		}
	}
	return string(out)
}

// ReadCSVFile loads a series from a CSV file on disk.
func ReadCSVFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price history: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}
