package model

import (
	"strconv"
	"time"

	"github.com/guregu/null/v6"
)

// Derived column names, in output order.
const (
	ColMA12           = "MA12"
	ColMA26           = "MA26"
	ColRSI14          = "RSI14"
	ColATR14          = "ATR14"
	ColEMA12          = "EMA12"
	ColEMA26          = "EMA26"
	ColMACD           = "MACD"
	ColMACDSignal     = "MACD_signal"
	ColMACDHist       = "MACD_hist"
	ColBBUpper        = "BB_upper"
	ColBBMiddle       = "BB_middle"
	ColBBLower        = "BB_lower"
	ColHighOpenDist   = "high_open_dist"
	ColOpenLowDist    = "open_low_dist"
	ColBodySize       = "body_size"
	ColUpperWick      = "upper_wick"
	ColLowerWick      = "lower_wick"
	ColBodyRatio      = "body_ratio"
	ColWickRatioUpper = "wick_ratio_upper"
	ColWickRatioLower = "wick_ratio_lower"
	ColCandleType     = "candle_type"
	ColCandleTypeName = "candle_type_name"
	ColPrevCandle1    = "prev_candle_1"
	ColPrevCandle2    = "prev_candle_2"
	ColPrevCandle3    = "prev_candle_3"
)

// DerivedColumns is the stable order of columns appended by augmentation.
var DerivedColumns = []string{
	ColMA12, ColMA26, ColRSI14, ColATR14, ColEMA12, ColEMA26,
	ColMACD, ColMACDSignal, ColMACDHist,
	ColBBUpper, ColBBMiddle, ColBBLower,
	ColHighOpenDist, ColOpenLowDist,
	ColBodySize, ColUpperWick, ColLowerWick,
	ColBodyRatio, ColWickRatioUpper, ColWickRatioLower,
	ColCandleType, ColCandleTypeName,
	ColPrevCandle1, ColPrevCandle2, ColPrevCandle3,
}

// Dataset is the finalized, filtered result for one instrument.
// Times are in the target zone; Columns never contains volume.
type Dataset struct {
	Key      string
	Symbol   string
	Interval Interval
	Columns  []string
	Rows     []EnrichedBar
}

// OpenDayRecord is the opening price of the still-forming bar removed from a dataset.
type OpenDayRecord struct {
	Date   string  `json:"date"`
	Symbol string  `json:"symbol"`
	Open   float64 `json:"open"`
}

// CellFunc formats one column of a row for delimited output. Null is "".
type CellFunc func(r *EnrichedBar, layout string) string

var cells = map[string]CellFunc{
	ColDatetime:       func(r *EnrichedBar, layout string) string { return r.Time.Format(layout) },
	ColSymbol:         func(r *EnrichedBar, _ string) string { return r.Symbol },
	ColOpen:           num(func(r *EnrichedBar) float64 { return r.Open }),
	ColHigh:           num(func(r *EnrichedBar) float64 { return r.High }),
	ColLow:            num(func(r *EnrichedBar) float64 { return r.Low }),
	ColClose:          num(func(r *EnrichedBar) float64 { return r.Close }),
	ColVolume:         nullNum(func(r *EnrichedBar) null.Float { return r.Volume }),
	ColMA12:           nullNum(func(r *EnrichedBar) null.Float { return r.MA12 }),
	ColMA26:           nullNum(func(r *EnrichedBar) null.Float { return r.MA26 }),
	ColRSI14:          nullNum(func(r *EnrichedBar) null.Float { return r.RSI14 }),
	ColATR14:          nullNum(func(r *EnrichedBar) null.Float { return r.ATR14 }),
	ColEMA12:          nullNum(func(r *EnrichedBar) null.Float { return r.EMA12 }),
	ColEMA26:          nullNum(func(r *EnrichedBar) null.Float { return r.EMA26 }),
	ColMACD:           nullNum(func(r *EnrichedBar) null.Float { return r.MACD }),
	ColMACDSignal:     nullNum(func(r *EnrichedBar) null.Float { return r.MACDSignal }),
	ColMACDHist:       nullNum(func(r *EnrichedBar) null.Float { return r.MACDHist }),
	ColBBUpper:        nullNum(func(r *EnrichedBar) null.Float { return r.BBUpper }),
	ColBBMiddle:       nullNum(func(r *EnrichedBar) null.Float { return r.BBMiddle }),
	ColBBLower:        nullNum(func(r *EnrichedBar) null.Float { return r.BBLower }),
	ColHighOpenDist:   num(func(r *EnrichedBar) float64 { return r.HighOpenDist }),
	ColOpenLowDist:    num(func(r *EnrichedBar) float64 { return r.OpenLowDist }),
	ColBodySize:       num(func(r *EnrichedBar) float64 { return r.BodySize }),
	ColUpperWick:      num(func(r *EnrichedBar) float64 { return r.UpperWick }),
	ColLowerWick:      num(func(r *EnrichedBar) float64 { return r.LowerWick }),
	ColBodyRatio:      num(func(r *EnrichedBar) float64 { return r.BodyRatio }),
	ColWickRatioUpper: num(func(r *EnrichedBar) float64 { return r.WickRatioUpper }),
	ColWickRatioLower: num(func(r *EnrichedBar) float64 { return r.WickRatioLower }),
	ColCandleType:     func(r *EnrichedBar, _ string) string { return strconv.Itoa(int(r.CandleType)) },
	ColCandleTypeName: func(r *EnrichedBar, _ string) string { return r.CandleTypeName },
	ColPrevCandle1:    nullInt(func(r *EnrichedBar) null.Int { return r.PrevCandle1 }),
	ColPrevCandle2:    nullInt(func(r *EnrichedBar) null.Int { return r.PrevCandle2 }),
	ColPrevCandle3:    nullInt(func(r *EnrichedBar) null.Int { return r.PrevCandle3 }),
}

// Cell returns the formatter for a column, or false if the column is unknown.
func Cell(column string) (CellFunc, bool) {
	f, ok := cells[column]
	return f, ok
}

// FormatFloat renders a price or feature value without trailing zeros.
func FormatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func num(get func(*EnrichedBar) float64) CellFunc {
	return func(r *EnrichedBar, _ string) string { return FormatFloat(get(r)) }
}

func nullNum(get func(*EnrichedBar) null.Float) CellFunc {
	return func(r *EnrichedBar, _ string) string {
		v := get(r)
		if !v.Valid {
			return ""
		}
		return FormatFloat(v.Float64)
	}
}

func nullInt(get func(*EnrichedBar) null.Int) CellFunc {
	return func(r *EnrichedBar, _ string) string {
		v := get(r)
		if !v.Valid {
			return ""
		}
		return strconv.FormatInt(v.Int64, 10)
	}
}

// FirstTime and LastTime return the dataset's time bounds, zero when empty.
func (d *Dataset) FirstTime() time.Time {
	if len(d.Rows) == 0 {
		return time.Time{}
	}
	return d.Rows[0].Time
}

func (d *Dataset) LastTime() time.Time {
	if len(d.Rows) == 0 {
		return time.Time{}
	}
	return d.Rows[len(d.Rows)-1].Time
}
