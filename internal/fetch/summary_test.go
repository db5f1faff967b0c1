package fetch

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gold-data/internal/instrument"
	"gold-data/internal/model"
)

func dataset(key, symbol string, closes ...float64) *model.Dataset {
	rows := make([]model.EnrichedBar, len(closes))
	for i, c := range closes {
		rows[i].Bar = model.Bar{
			Time:   time.Date(2014, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*1826),
			Symbol: symbol,
			Open:   c, High: c + 10, Low: c - 10, Close: c,
		}
	}
	return &model.Dataset{Key: key, Symbol: symbol, Interval: model.IntervalDaily, Rows: rows}
}

func TestSummarize(t *testing.T) {
	res := &Result{
		Datasets: map[string]*model.Dataset{
			"xauusd": dataset("xauusd", "OANDA:XAUUSD", 1200, 1500, 2400.5),
			"gc1":    dataset("gc1", "COMEX:GC1!", 1210, 1520, 2420.75),
		},
		Outcomes: []Outcome{
			{Key: "xauusd", Stage: StagePersisted},
			{Key: "gc1", Stage: StagePersisted},
			{Key: "gc1_h1", Stage: StageFailed},
		},
	}
	pairs := []instrument.BasisPair{{Spot: "xauusd", Futures: "gc1"}, {Spot: "xauusd_h1", Futures: "gc1_h1"}}

	s := Summarize(res, pairs)
	require.Len(t, s.Instruments, 2)
	x := s.Instruments[0]
	assert.Equal(t, "xauusd", x.Key)
	assert.Equal(t, 3, x.Rows)
	assert.True(t, x.Change.Equal(decimal.RequireFromString("1200.5")), x.Change.String())
	assert.True(t, x.ChangePct.Equal(decimal.RequireFromString("100.04")), x.ChangePct.String())
	assert.True(t, x.High.Equal(decimal.RequireFromString("2410.5")))
	assert.True(t, x.Low.Equal(decimal.NewFromInt(1190)))
	assert.True(t, x.Years.Equal(decimal.NewFromInt(10)), x.Years.String())

	require.Len(t, s.Basis, 1, "pairs with a failed side are skipped")
	b := s.Basis[0]
	assert.True(t, b.Spread.Equal(decimal.RequireFromString("20.25")), b.Spread.String())
	assert.True(t, b.SpreadPct.Equal(decimal.RequireFromString("0.844")), b.SpreadPct.String())

	var buf bytes.Buffer
	s.Log(slog.New(slog.NewTextHandler(&buf, nil)))
	assert.Contains(t, buf.String(), "spread=20.25")
	assert.Contains(t, buf.String(), "latest_close=2400.50")
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(&Result{Datasets: map[string]*model.Dataset{}}, nil)
	assert.Empty(t, s.Instruments)
	assert.Empty(t, s.Basis)
}
