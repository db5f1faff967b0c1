// Package indicator wraps go-talib so every function returns a series of the
// same length as its input, with nulls where the indicator is still warming up.
package indicator

import (
	"github.com/guregu/null/v6"
	talib "github.com/markcheno/go-talib"
)

// Default parameters, matching TA-Lib's defaults.
const (
	MACDFast     = 12
	MACDSlow     = 26
	MACDSignal   = 9
	BBandsPeriod = 5
	BBandsDevUp  = 2.0
	BBandsDevDn  = 2.0
)

// MACDResult holds the three MACD outputs.
type MACDResult struct {
	Line   []null.Float
	Signal []null.Float
	Hist   []null.Float
}

// Bands holds Bollinger band outputs.
type Bands struct {
	Upper  []null.Float
	Middle []null.Float
	Lower  []null.Float
}

// Lookbacks, i.e. the number of leading values without a result.
func smaLookback(period int) int { return period - 1 }
func rsiLookback(period int) int { return period }
func atrLookback(period int) int { return period }
func macdLookback(slow, signal int) int { return (slow - 1) + (signal - 1) }

// SMA is the simple moving average.
func SMA(in []float64, period int) []null.Float {
	lb := smaLookback(period)
	if len(in) <= lb {
		return nulls(len(in))
	}
	return mask(talib.Sma(in, period), lb)
}

// EMA is the exponential moving average, seeded with the SMA of the first period.
func EMA(in []float64, period int) []null.Float {
	lb := smaLookback(period)
	if len(in) <= lb {
		return nulls(len(in))
	}
	return mask(talib.Ema(in, period), lb)
}

// RSI is Wilder's relative strength index.
func RSI(in []float64, period int) []null.Float {
	lb := rsiLookback(period)
	if len(in) <= lb {
		return nulls(len(in))
	}
	return mask(talib.Rsi(in, period), lb)
}

// ATR is Wilder's average true range.
func ATR(high, low, close []float64, period int) []null.Float {
	lb := atrLookback(period)
	if len(close) <= lb {
		return nulls(len(close))
	}
	return mask(talib.Atr(high, low, close, period), lb)
}

// MACD computes the line, signal and histogram with the default 12/26/9
// periods. The signal EMA is seeded from the first nine real line values.
func MACD(in []float64) MACDResult {
	n := len(in)
	res := MACDResult{Line: nulls(n), Signal: nulls(n), Hist: nulls(n)}
	if n <= macdLookback(MACDSlow, MACDSignal) {
		return res
	}
	fast := talib.Ema(in, MACDFast)
	slow := talib.Ema(in, MACDSlow)
	start := smaLookback(MACDSlow)
	line := make([]float64, n-start)
	for i := range line {
		line[i] = fast[start+i] - slow[start+i]
	}
	signal := talib.Ema(line, MACDSignal)
	for i := smaLookback(MACDSignal); i < len(line); i++ {
		j := start + i
		res.Line[j] = null.FloatFrom(line[i])
		res.Signal[j] = null.FloatFrom(signal[i])
		res.Hist[j] = null.FloatFrom(line[i] - signal[i])
	}
	return res
}

// BollingerBands computes 5-period, 2-deviation bands around an SMA.
func BollingerBands(in []float64) Bands {
	lb := smaLookback(BBandsPeriod)
	if len(in) <= lb {
		return Bands{Upper: nulls(len(in)), Middle: nulls(len(in)), Lower: nulls(len(in))}
	}
	upper, middle, lower := talib.BBands(in, BBandsPeriod, BBandsDevUp, BBandsDevDn, talib.SMA)
	return Bands{Upper: mask(upper, lb), Middle: mask(middle, lb), Lower: mask(lower, lb)}
}

func nulls(n int) []null.Float {
	return make([]null.Float, n)
}

// mask converts talib output to nullable values; indices below lookback are null.
func mask(values []float64, lookback int) []null.Float {
	out := make([]null.Float, len(values))
	for i := lookback; i < len(values); i++ {
		out[i] = null.FloatFrom(values[i])
	}
	return out
}
