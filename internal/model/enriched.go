package model

import (
	"github.com/guregu/null/v6"

	"gold-data/internal/candle"
)

// Indicators holds the technical indicator values for one bar.
// Values are null during each indicator's warm-up period.
type Indicators struct {
	MA12       null.Float
	MA26       null.Float
	RSI14      null.Float
	ATR14      null.Float
	EMA12      null.Float
	EMA26      null.Float
	MACD       null.Float
	MACDSignal null.Float
	MACDHist   null.Float
	BBUpper    null.Float
	BBMiddle   null.Float
	BBLower    null.Float
}

// CandleFeatures holds the geometric features and classification of one bar.
// Ratios are 0 when the bar has zero range.
type CandleFeatures struct {
	HighOpenDist   float64
	OpenLowDist    float64
	BodySize       float64
	UpperWick      float64
	LowerWick      float64
	BodyRatio      float64
	WickRatioUpper float64
	WickRatioLower float64
	CandleType     candle.Type
	CandleTypeName string
	PrevCandle1    null.Int
	PrevCandle2    null.Int
	PrevCandle3    null.Int
}

// EnrichedBar is a bar with its indicators and candle features.
type EnrichedBar struct {
	Bar
	Indicators
	CandleFeatures
}

// EnrichedSeries is a Series after feature augmentation. Columns lists the
// source columns followed by every derived column.
type EnrichedSeries struct {
	Symbol   string
	Exchange string
	Interval Interval
	Columns  []string
	Bars     []EnrichedBar
}
