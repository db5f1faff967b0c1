package saver

import "gold-data/internal/model"

// Record is the flat row layout used by the JSON and Parquet savers.
// Nullable columns are pointers: null in JSON, optional in Parquet.
type Record struct {
	Datetime       string   `json:"datetime" parquet:"datetime"`
	Symbol         string   `json:"symbol" parquet:"symbol"`
	Open           float64  `json:"open" parquet:"open"`
	High           float64  `json:"high" parquet:"high"`
	Low            float64  `json:"low" parquet:"low"`
	Close          float64  `json:"close" parquet:"close"`
	MA12           *float64 `json:"MA12" parquet:"MA12,optional"`
	MA26           *float64 `json:"MA26" parquet:"MA26,optional"`
	RSI14          *float64 `json:"RSI14" parquet:"RSI14,optional"`
	ATR14          *float64 `json:"ATR14" parquet:"ATR14,optional"`
	EMA12          *float64 `json:"EMA12" parquet:"EMA12,optional"`
	EMA26          *float64 `json:"EMA26" parquet:"EMA26,optional"`
	MACD           *float64 `json:"MACD" parquet:"MACD,optional"`
	MACDSignal     *float64 `json:"MACD_signal" parquet:"MACD_signal,optional"`
	MACDHist       *float64 `json:"MACD_hist" parquet:"MACD_hist,optional"`
	BBUpper        *float64 `json:"BB_upper" parquet:"BB_upper,optional"`
	BBMiddle       *float64 `json:"BB_middle" parquet:"BB_middle,optional"`
	BBLower        *float64 `json:"BB_lower" parquet:"BB_lower,optional"`
	HighOpenDist   float64  `json:"high_open_dist" parquet:"high_open_dist"`
	OpenLowDist    float64  `json:"open_low_dist" parquet:"open_low_dist"`
	BodySize       float64  `json:"body_size" parquet:"body_size"`
	UpperWick      float64  `json:"upper_wick" parquet:"upper_wick"`
	LowerWick      float64  `json:"lower_wick" parquet:"lower_wick"`
	BodyRatio      float64  `json:"body_ratio" parquet:"body_ratio"`
	WickRatioUpper float64  `json:"wick_ratio_upper" parquet:"wick_ratio_upper"`
	WickRatioLower float64  `json:"wick_ratio_lower" parquet:"wick_ratio_lower"`
	CandleType     int      `json:"candle_type" parquet:"candle_type"`
	CandleTypeName string   `json:"candle_type_name" parquet:"candle_type_name"`
	PrevCandle1    *int64   `json:"prev_candle_1" parquet:"prev_candle_1,optional"`
	PrevCandle2    *int64   `json:"prev_candle_2" parquet:"prev_candle_2,optional"`
	PrevCandle3    *int64   `json:"prev_candle_3" parquet:"prev_candle_3,optional"`
}

// Records flattens ds into Records.
func Records(ds *model.Dataset) []Record {
	layout := ds.Interval.DateLayout()
	out := make([]Record, len(ds.Rows))
	for i := range ds.Rows {
		r := &ds.Rows[i]
		out[i] = Record{
			Datetime:       r.Time.Format(layout),
			Symbol:         r.Symbol,
			Open:           r.Open,
			High:           r.High,
			Low:            r.Low,
			Close:          r.Close,
			MA12:           r.MA12.Ptr(),
			MA26:           r.MA26.Ptr(),
			RSI14:          r.RSI14.Ptr(),
			ATR14:          r.ATR14.Ptr(),
			EMA12:          r.EMA12.Ptr(),
			EMA26:          r.EMA26.Ptr(),
			MACD:           r.MACD.Ptr(),
			MACDSignal:     r.MACDSignal.Ptr(),
			MACDHist:       r.MACDHist.Ptr(),
			BBUpper:        r.BBUpper.Ptr(),
			BBMiddle:       r.BBMiddle.Ptr(),
			BBLower:        r.BBLower.Ptr(),
			HighOpenDist:   r.HighOpenDist,
			OpenLowDist:    r.OpenLowDist,
			BodySize:       r.BodySize,
			UpperWick:      r.UpperWick,
			LowerWick:      r.LowerWick,
			BodyRatio:      r.BodyRatio,
			WickRatioUpper: r.WickRatioUpper,
			WickRatioLower: r.WickRatioLower,
			CandleType:     int(r.CandleType),
			CandleTypeName: r.CandleTypeName,
			PrevCandle1:    r.PrevCandle1.Ptr(),
			PrevCandle2:    r.PrevCandle2.Ptr(),
			PrevCandle3:    r.PrevCandle3.Ptr(),
		}
	}
	return out
}
