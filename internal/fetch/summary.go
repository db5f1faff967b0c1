package fetch

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"gold-data/internal/instrument"
	"gold-data/internal/model"
)

var (
	hundred      = decimal.NewFromInt(100)
	daysPerYear  = decimal.NewFromFloat(365.25)
	pricePlaces  = int32(2)
	pctPlaces    = int32(2)
	spreadPlaces = int32(3)
)

// InstrumentSummary describes one persisted dataset.
type InstrumentSummary struct {
	Key        string
	Symbol     string
	Rows       int
	First      time.Time
	Last       time.Time
	FirstClose decimal.Decimal
	LastClose  decimal.Decimal
	Change     decimal.Decimal
	ChangePct  decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Years      decimal.Decimal
}

// BasisSummary is the latest futures minus spot close of a basis pair.
type BasisSummary struct {
	Spot         string
	Futures      string
	SpotClose    decimal.Decimal
	FuturesClose decimal.Decimal
	Spread       decimal.Decimal
	SpreadPct    decimal.Decimal
}

// Summary is the end-of-run report.
type Summary struct {
	Instruments []InstrumentSummary
	Basis       []BasisSummary
}

// Summarize computes per-instrument statistics in run order and the basis
// of every pair whose two datasets both succeeded.
func Summarize(res *Result, pairs []instrument.BasisPair) Summary {
	var s Summary
	for _, o := range res.Outcomes {
		ds, ok := res.Datasets[o.Key]
		if !ok || len(ds.Rows) == 0 {
			continue
		}
		s.Instruments = append(s.Instruments, summarizeDataset(ds))
	}
	for _, p := range pairs {
		spot, ok1 := res.Datasets[p.Spot]
		fut, ok2 := res.Datasets[p.Futures]
		if !ok1 || !ok2 || len(spot.Rows) == 0 || len(fut.Rows) == 0 {
			continue
		}
		sc := decimal.NewFromFloat(spot.Rows[len(spot.Rows)-1].Close)
		fc := decimal.NewFromFloat(fut.Rows[len(fut.Rows)-1].Close)
		b := BasisSummary{Spot: p.Spot, Futures: p.Futures, SpotClose: sc, FuturesClose: fc, Spread: fc.Sub(sc).Round(pricePlaces)}
		if !sc.IsZero() {
			b.SpreadPct = fc.Sub(sc).Div(sc).Mul(hundred).Round(spreadPlaces)
		}
		s.Basis = append(s.Basis, b)
	}
	return s
}

func summarizeDataset(ds *model.Dataset) InstrumentSummary {
	first, last := ds.Rows[0], ds.Rows[len(ds.Rows)-1]
	high, low := first.High, first.Low
	for _, r := range ds.Rows[1:] {
		if r.High > high {
			high = r.High
		}
		if r.Low < low {
			low = r.Low
		}
	}
	fc := decimal.NewFromFloat(first.Close)
	lc := decimal.NewFromFloat(last.Close)
	change := lc.Sub(fc)

	sum := InstrumentSummary{
		Key:        ds.Key,
		Symbol:     first.Symbol,
		Rows:       len(ds.Rows),
		First:      first.Time,
		Last:       last.Time,
		FirstClose: fc,
		LastClose:  lc,
		Change:     change.Round(pricePlaces),
		High:       decimal.NewFromFloat(high),
		Low:        decimal.NewFromFloat(low),
	}
	if !fc.IsZero() {
		sum.ChangePct = change.Div(fc).Mul(hundred).Round(pctPlaces)
	}
	days := decimal.NewFromFloat(last.Time.Sub(first.Time).Hours() / 24)
	sum.Years = days.Div(daysPerYear).Round(1)
	return sum
}

// Log writes the summary as structured records.
func (s Summary) Log(logger *slog.Logger) {
	for _, in := range s.Instruments {
		logger.Info("summary",
			"instrument", in.Key,
			"symbol", in.Symbol,
			"rows", in.Rows,
			"first", in.First.Format(time.DateOnly),
			"last", in.Last.Format(time.DateOnly),
			"first_close", in.FirstClose.StringFixed(pricePlaces),
			"latest_close", in.LastClose.StringFixed(pricePlaces),
			"change", in.Change.StringFixed(pricePlaces),
			"change_pct", in.ChangePct.StringFixed(pctPlaces),
			"high", in.High.StringFixed(pricePlaces),
			"low", in.Low.StringFixed(pricePlaces),
			"years", in.Years.StringFixed(1),
		)
	}
	for _, b := range s.Basis {
		logger.Info("summary basis",
			"spot", b.Spot,
			"futures", b.Futures,
			"spot_close", b.SpotClose.StringFixed(pricePlaces),
			"futures_close", b.FuturesClose.StringFixed(pricePlaces),
			"spread", b.Spread.StringFixed(pricePlaces),
			"spread_pct", b.SpreadPct.StringFixed(spreadPlaces),
		)
	}
}
