// Package candle classifies a single OHLC bar into one of ten shape classes:
// five shapes (doji, full body, normal, long upper wick, long lower wick)
// crossed with direction.
package candle

import "math"

// Type is a candle class in [0, 9]. Even values are bullish, odd are bearish.
type Type int

const (
	DojiBullish Type = iota
	DojiBearish
	FullBodyBullish
	FullBodyBearish
	NormalBullish
	NormalBearish
	LongUpperWickBullish
	LongUpperWickBearish
	LongLowerWickBullish
	LongLowerWickBearish
)

// Thresholds are exclusive: a ratio exactly at the threshold falls through
// to the next rule.
const (
	DojiBodyMax     = 0.10
	FullBodyMin     = 0.70
	LongWickMinimum = 0.40
)

var names = [...]string{
	DojiBullish:          "Doji Bullish",
	DojiBearish:          "Doji Bearish",
	FullBodyBullish:      "Full Body Bullish",
	FullBodyBearish:      "Full Body Bearish",
	NormalBullish:        "Normal Candle Bullish",
	NormalBearish:        "Normal Candle Bearish",
	LongUpperWickBullish: "Long Upper Wick Bullish",
	LongUpperWickBearish: "Long Upper Wick Bearish",
	LongLowerWickBullish: "Long Lower Wick Bullish",
	LongLowerWickBearish: "Long Lower Wick Bearish",
}

// String returns the display label, e.g. "Doji Bullish".
func (t Type) String() string {
	if t < 0 || int(t) >= len(names) {
		return "Unknown"
	}
	return names[t]
}

// Classify maps one bar to its class. A zero-range bar is DojiBullish.
// Direction is bullish only when close > open; a flat bar counts as bearish.
func Classify(open, high, low, close float64) Type {
	total := high - low
	if total == 0 {
		return DojiBullish
	}

	body := math.Abs(close-open) / total
	upper := (high - math.Max(open, close)) / total
	lower := (math.Min(open, close) - low) / total

	var base Type
	switch {
	case body < DojiBodyMax:
		base = DojiBullish
	case body > FullBodyMin:
		base = FullBodyBullish
	case upper > LongWickMinimum:
		base = LongUpperWickBullish
	case lower > LongWickMinimum:
		base = LongLowerWickBullish
	default:
		base = NormalBullish
	}
	if close > open {
		return base
	}
	return base + 1
}
