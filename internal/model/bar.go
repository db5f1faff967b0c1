package model

import (
	"fmt"
	"math"
	"time"

	"github.com/guregu/null/v6"
)

// Column names shared by providers, the augmenter and savers.
const (
	ColDatetime = "datetime"
	ColSymbol   = "symbol"
	ColOpen     = "open"
	ColHigh     = "high"
	ColLow      = "low"
	ColClose    = "close"
	ColVolume   = "volume"
)

// Bar represents one OHLCV bar.
// Symbol is the provider's qualified symbol, e.g. "OANDA:XAUUSD".
type Bar struct {
	Time   time.Time
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume null.Float
}

// Validate checks positive prices and the OHLC envelope.
func (b Bar) Validate() error {
	for _, p := range [...]struct {
		name string
		v    float64
	}{{ColOpen, b.Open}, {ColHigh, b.High}, {ColLow, b.Low}, {ColClose, b.Close}} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) || p.v <= 0 {
			return fmt.Errorf("bar %s: %s must be a positive number, got %v", b.Time.Format(time.RFC3339), p.name, p.v)
		}
	}
	if b.High < math.Max(b.Open, b.Close) {
		return fmt.Errorf("bar %s: high %v below max(open, close)", b.Time.Format(time.RFC3339), b.High)
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("bar %s: low %v above min(open, close)", b.Time.Format(time.RFC3339), b.Low)
	}
	return nil
}

// Series is an ordered run of bars for one instrument and interval.
// Columns lists the fields the source actually delivered.
type Series struct {
	Symbol   string
	Exchange string
	Interval Interval
	Columns  []string
	Bars     []Bar
}

// QualifiedSymbol returns "EXCHANGE:SYMBOL".
func (s *Series) QualifiedSymbol() string {
	if s.Exchange == "" {
		return s.Symbol
	}
	return s.Exchange + ":" + s.Symbol
}

// HasColumn reports whether the source delivered the named column.
func (s *Series) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks every bar and strictly increasing timestamps.
// One bad bar invalidates the whole series.
func (s *Series) Validate() error {
	for i, b := range s.Bars {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("bar %d: timestamp %s not after %s", i, b.Time.Format(time.RFC3339), s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes, Highs and Lows extract price columns for indicator input.
func (s *Series) Closes() []float64 { return s.extract(func(b Bar) float64 { return b.Close }) }
func (s *Series) Highs() []float64 { return s.extract(func(b Bar) float64 { return b.High }) }
func (s *Series) Lows() []float64 { return s.extract(func(b Bar) float64 { return b.Low }) }

func (s *Series) extract(f func(Bar) float64) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = f(b)
	}
	return out
}
