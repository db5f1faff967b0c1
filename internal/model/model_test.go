package model

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gold-data/internal/candle"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestBarValidate(t *testing.T) {
	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{"valid", Bar{Time: day0, Open: 100, High: 105, Low: 99, Close: 104}, false},
		{"flat", Bar{Time: day0, Open: 100, High: 100, Low: 100, Close: 100}, false},
		{"zero price", Bar{Time: day0, Open: 0, High: 105, Low: 99, Close: 104}, true},
		{"high below close", Bar{Time: day0, Open: 100, High: 103, Low: 99, Close: 104}, true},
		{"low above open", Bar{Time: day0, Open: 100, High: 105, Low: 101, Close: 104}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSeriesValidateOrdering(t *testing.T) {
	s := &Series{Bars: []Bar{
		{Time: day0, Open: 1, High: 2, Low: 1, Close: 2},
		{Time: day0, Open: 1, High: 2, Low: 1, Close: 2},
	}}
	assert.Error(t, s.Validate())

	s.Bars[1].Time = day0.AddDate(0, 0, 3)
	assert.NoError(t, s.Validate())
}

func TestSeriesHelpers(t *testing.T) {
	s := &Series{
		Symbol:   "XAUUSD",
		Exchange: "OANDA",
		Columns:  []string{ColDatetime, ColOpen, ColHigh, ColLow, ColClose},
		Bars: []Bar{
			{Time: day0, Open: 1, High: 3, Low: 0.5, Close: 2},
			{Time: day0.Add(time.Hour), Open: 2, High: 4, Low: 1.5, Close: 3},
		},
	}
	assert.Equal(t, "OANDA:XAUUSD", s.QualifiedSymbol())
	assert.True(t, s.HasColumn(ColClose))
	assert.False(t, s.HasColumn(ColVolume))
	assert.Equal(t, []float64{2, 3}, s.Closes())
	assert.Equal(t, []float64{3, 4}, s.Highs())
	assert.Equal(t, []float64{0.5, 1.5}, s.Lows())
}

func TestParseInterval(t *testing.T) {
	for in, want := range map[string]Interval{
		"h1": IntervalHourly, "60": IntervalHourly, "daily": IntervalDaily,
		"1D": IntervalDaily, "": IntervalDaily, "W": IntervalWeekly, "4h": Interval4Hour,
	} {
		got, err := ParseInterval(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseInterval("tick")
	assert.Error(t, err)
}

func TestIntervalDateLayout(t *testing.T) {
	ts := time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-04", ts.Format(IntervalDaily.DateLayout()))
	assert.Equal(t, "2024-03-04 13:00:00", ts.Format(IntervalHourly.DateLayout()))
}

func TestCellFormatting(t *testing.T) {
	r := &EnrichedBar{
		Bar: Bar{Time: day0, Symbol: "COMEX:GC1!", Open: 2050.5, High: 2061, Low: 2040.25, Close: 2060},
		Indicators: Indicators{
			MA12: null.FloatFrom(2055.125),
		},
		CandleFeatures: CandleFeatures{
			CandleType:     candle.FullBodyBullish,
			CandleTypeName: candle.FullBodyBullish.String(),
			PrevCandle1:    null.IntFrom(5),
		},
	}
	layout := IntervalDaily.DateLayout()
	want := map[string]string{
		ColDatetime:       "2024-01-02",
		ColSymbol:         "COMEX:GC1!",
		ColOpen:           "2050.5",
		ColMA12:           "2055.125",
		ColMA26:           "",
		ColCandleType:     "2",
		ColCandleTypeName: "Full Body Bullish",
		ColPrevCandle1:    "5",
		ColPrevCandle2:    "",
	}
	for col, w := range want {
		f, ok := Cell(col)
		require.True(t, ok, col)
		assert.Equal(t, w, f(r, layout), col)
	}
	_, ok := Cell("nope")
	assert.False(t, ok)
}

func TestEveryDerivedColumnHasCell(t *testing.T) {
	for _, c := range DerivedColumns {
		_, ok := Cell(c)
		assert.True(t, ok, c)
	}
}
