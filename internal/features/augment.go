// Package features turns a raw bar series into an enriched series: technical
// indicators, candle geometry, candle class and the classes of the three
// preceding bars.
package features

import (
	"math"
	"slices"

	"github.com/guregu/null/v6"

	"gold-data/internal/apperr"
	"gold-data/internal/candle"
	"gold-data/internal/indicator"
	"gold-data/internal/model"
)

// MinBars is the longest indicator period in use (MA26/EMA26).
const MinBars = 26

// Indicator periods.
const (
	shortPeriod = 12
	longPeriod  = 26
	rsiPeriod   = 14
	atrPeriod   = 14
)

var requiredColumns = []string{model.ColOpen, model.ColHigh, model.ColLow, model.ColClose}

// Augment computes every derived column for s. It fails with a schema error
// when a price column is missing or not finite, and with an insufficient-data
// error when s has fewer than MinBars bars. No partial output is returned.
func Augment(s *model.Series) (*model.EnrichedSeries, error) {
	const op = "augment"
	if s == nil || len(s.Bars) == 0 {
		return nil, apperr.New(apperr.KindInsufficientData, op, "empty series")
	}
	for _, c := range requiredColumns {
		if !s.HasColumn(c) {
			return nil, apperr.New(apperr.KindSchema, op, "missing required column %q", c)
		}
	}
	if len(s.Bars) < MinBars {
		return nil, apperr.New(apperr.KindInsufficientData, op, "%d bars, need at least %d", len(s.Bars), MinBars)
	}
	for i, b := range s.Bars {
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, apperr.New(apperr.KindSchema, op, "bar %d: non-numeric price %v", i, v)
			}
		}
	}

	closes, highs, lows := s.Closes(), s.Highs(), s.Lows()
	ma12 := indicator.SMA(closes, shortPeriod)
	ma26 := indicator.SMA(closes, longPeriod)
	rsi := indicator.RSI(closes, rsiPeriod)
	atr := indicator.ATR(highs, lows, closes, atrPeriod)
	ema12 := indicator.EMA(closes, shortPeriod)
	ema26 := indicator.EMA(closes, longPeriod)
	macd := indicator.MACD(closes)
	bb := indicator.BollingerBands(closes)

	out := &model.EnrichedSeries{
		Symbol:   s.Symbol,
		Exchange: s.Exchange,
		Interval: s.Interval,
		Columns:  append(slices.Clone(s.Columns), model.DerivedColumns...),
		Bars:     make([]model.EnrichedBar, len(s.Bars)),
	}
	for i, b := range s.Bars {
		row := &out.Bars[i]
		row.Bar = b
		row.Indicators = model.Indicators{
			MA12:       ma12[i],
			MA26:       ma26[i],
			RSI14:      rsi[i],
			ATR14:      atr[i],
			EMA12:      ema12[i],
			EMA26:      ema26[i],
			MACD:       macd.Line[i],
			MACDSignal: macd.Signal[i],
			MACDHist:   macd.Hist[i],
			BBUpper:    bb.Upper[i],
			BBMiddle:   bb.Middle[i],
			BBLower:    bb.Lower[i],
		}
		row.CandleFeatures = Geometry(b.Open, b.High, b.Low, b.Close)
		row.PrevCandle1 = lag(out.Bars, i, 1)
		row.PrevCandle2 = lag(out.Bars, i, 2)
		row.PrevCandle3 = lag(out.Bars, i, 3)
	}
	return out, nil
}

// Geometry returns the body/wick sizes, ratios and class of one bar.
// Lag fields are left null.
func Geometry(open, high, low, close float64) model.CandleFeatures {
	body := math.Abs(close - open)
	upper := high - math.Max(open, close)
	lower := math.Min(open, close) - low
	total := high - low

	f := model.CandleFeatures{
		HighOpenDist: high - open,
		OpenLowDist:  open - low,
		BodySize:     body,
		UpperWick:    upper,
		LowerWick:    lower,
	}
	if total != 0 {
		f.BodyRatio = body / total
		f.WickRatioUpper = upper / total
		f.WickRatioLower = lower / total
	}
	f.CandleType = candle.Classify(open, high, low, close)
	f.CandleTypeName = f.CandleType.String()
	return f
}

// lag returns the class of the bar n positions before i, null at the start.
func lag(rows []model.EnrichedBar, i, n int) null.Int {
	if i < n {
		return null.Int{}
	}
	return null.IntFrom(int64(rows[i-n].CandleType))
}
