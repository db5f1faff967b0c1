package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gold-data/internal/apperr"
	"gold-data/internal/instrument"
	"gold-data/internal/model"
	"gold-data/internal/provider"
	"gold-data/internal/saver"
)

var seriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeProvider serves n synthetic daily bars per symbol. Entries in errs
// fail GetBars for that symbol; failConnects fails the first Connect calls.
type fakeProvider struct {
	n            map[string]int
	base         map[string]float64
	errs         map[string]error
	broken       map[string]bool
	failConnects int

	connected bool
	connects  int
	requests  []provider.Request
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		n:      map[string]int{},
		base:   map[string]float64{"XAUUSD": 2000, "GC1!": 2010},
		errs:   map[string]error{},
		broken: map[string]bool{},
	}
}

func (f *fakeProvider) Name() string    { return "fake" }
func (f *fakeProvider) Connected() bool { return f.connected }
func (f *fakeProvider) Close() error    { f.connected = false; return nil }

func (f *fakeProvider) Connect(context.Context) error {
	f.connects++
	if f.connects <= f.failConnects {
		return errors.New("dial: connection refused")
	}
	f.connected = true
	return nil
}

func (f *fakeProvider) GetBars(ctx context.Context, req provider.Request) (*model.Series, error) {
	f.requests = append(f.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[req.Symbol]; err != nil {
		return nil, err
	}
	n, ok := f.n[req.Symbol]
	if !ok {
		n = 40
	}
	bars := make([]model.Bar, n)
	for i := range bars {
		o := f.base[req.Symbol] + float64(i%6)
		c := o + float64(i%3) - 1
		bars[i] = model.Bar{
			Time:   seriesStart.AddDate(0, 0, i),
			Symbol: req.Exchange + ":" + req.Symbol,
			Open:   o,
			High:   math.Max(o, c) + 3,
			Low:    math.Min(o, c) - 2,
			Close:  c,
			Volume: null.FloatFrom(10),
		}
	}
	if f.broken[req.Symbol] && n > 0 {
		bars[n/2].High = bars[n/2].Low - 1
	}
	return &model.Series{
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		Interval: req.Interval,
		Columns: []string{model.ColDatetime, model.ColSymbol, model.ColOpen, model.ColHigh,
			model.ColLow, model.ColClose, model.ColVolume},
		Bars: bars,
	}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }

func newTestOrchestrator(t *testing.T, p provider.BarsProvider, cat *instrument.Catalog) (*Orchestrator, string) {
	t.Helper()
	dir := t.TempDir()
	if cat == nil {
		cat = instrument.Default()
	}
	o := New(p, cat, saver.CSVSaver{}, Options{
		OutputDir: dir,
		Location:  time.UTC,
		Now:       fixedNow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}, quietLogger())
	return o, dir
}

func TestRunPersistsEveryInstrument(t *testing.T) {
	p := newFakeProvider()
	o, dir := newTestOrchestrator(t, p, nil)

	res := o.Run(context.Background(), []string{"xauusd", "gc1"})
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, 2, res.Succeeded())
	assert.Empty(t, res.Failed())

	for _, out := range res.Outcomes {
		assert.Equal(t, StagePersisted, out.Stage)
		assert.NoError(t, out.Err)
		assert.Equal(t, 40, out.Rows)
	}
	ds := res.Datasets["gc1"]
	require.NotNil(t, ds)
	assert.Equal(t, "gc1", ds.Key)
	assert.NotContains(t, ds.Columns, model.ColVolume)

	tbl, err := saver.ReadCSV(filepath.Join(dir, "gc1_10years_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, 40, tbl.Len())
	assert.Equal(t, "COMEX:GC1!", tbl.Records[0][1])

	assert.Equal(t, 1, p.connects, "connection is reused")
	require.Len(t, p.requests, 2)
	assert.Equal(t, provider.Request{Symbol: "GC1!", Exchange: "COMEX", Interval: model.IntervalDaily, MaxBars: 5000}, p.requests[1])

	b, err := os.ReadFile(filepath.Join(dir, ".lastrun.success.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `["xauusd","gc1"]`, string(b))
	_, err = os.Stat(filepath.Join(dir, ".lastrun.failed.json"))
	assert.True(t, os.IsNotExist(err))

	progress := loadProgress(filepath.Join(dir, ".lastday.json"))
	assert.Equal(t, "2024-02-09", progress["gc1"])
}

func TestRunIsolatesFailures(t *testing.T) {
	p := newFakeProvider()
	p.errs["GC1!"] = errors.New("symbol_error: invalid symbol")
	o, dir := newTestOrchestrator(t, p, nil)

	res := o.Run(context.Background(), []string{"gc1", "silver", "xauusd"})
	require.Len(t, res.Outcomes, 3)
	assert.Equal(t, 1, res.Succeeded())

	gc1 := res.Outcomes[0]
	assert.Equal(t, StageFailed, gc1.Stage)
	assert.Equal(t, StagePending, gc1.Reached)
	assert.True(t, errors.Is(gc1.Err, apperr.ErrRetrieval))

	silver := res.Outcomes[1]
	assert.Equal(t, StageFailed, silver.Stage)
	assert.True(t, errors.Is(silver.Err, apperr.ErrConfiguration))

	assert.True(t, res.Outcomes[2].OK())
	assert.Contains(t, res.Datasets, "xauusd")
	assert.NotContains(t, res.Datasets, "gc1")

	b, err := os.ReadFile(filepath.Join(dir, ".lastrun.failed.json"))
	require.NoError(t, err)
	var failed []failedEntry
	require.NoError(t, json.Unmarshal(b, &failed))
	require.Len(t, failed, 2)
	assert.Equal(t, "gc1", failed[0].Instrument)
	assert.Equal(t, "retrieval", failed[0].Kind)
	assert.Equal(t, "configuration", failed[1].Kind)
}

func TestRunStageFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(p *fakeProvider)
		target  error
		reached Stage
	}{
		{"empty series", func(p *fakeProvider) { p.n["XAUUSD"] = 0 }, apperr.ErrRetrieval, StagePending},
		{"invalid bar", func(p *fakeProvider) { p.broken["XAUUSD"] = true }, apperr.ErrRetrieval, StagePending},
		{"too few bars", func(p *fakeProvider) { p.n["XAUUSD"] = 25 }, apperr.ErrInsufficientData, StageFetched},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			tt.setup(p)
			o, _ := newTestOrchestrator(t, p, nil)

			res := o.Run(context.Background(), []string{"xauusd"})
			require.Len(t, res.Outcomes, 1)
			out := res.Outcomes[0]
			assert.Equal(t, StageFailed, out.Stage)
			assert.Equal(t, tt.reached, out.Reached)
			assert.True(t, errors.Is(out.Err, tt.target), "got %v", out.Err)
			assert.Equal(t, 0, res.Succeeded())
		})
	}
}

func TestRunInvalidRange(t *testing.T) {
	p := newFakeProvider()
	o, _ := newTestOrchestrator(t, p, nil)
	o.opts.Start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	o.opts.End = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	res := o.Run(context.Background(), []string{"xauusd"})
	out := res.Outcomes[0]
	assert.True(t, errors.Is(out.Err, apperr.ErrInvalidRange))
	assert.Equal(t, StageAugmented, out.Reached)
}

func TestRunRetriesConnectOnNextInstrument(t *testing.T) {
	p := newFakeProvider()
	p.failConnects = 1
	o, _ := newTestOrchestrator(t, p, nil)

	res := o.Run(context.Background(), []string{"xauusd", "gc1"})
	assert.True(t, errors.Is(res.Outcomes[0].Err, apperr.ErrRetrieval))
	assert.True(t, res.Outcomes[1].OK())
	assert.Equal(t, 2, p.connects)
}

func TestRunRemovesTodaysBar(t *testing.T) {
	p := newFakeProvider()
	o, dir := newTestOrchestrator(t, p, nil)
	o.opts.Now = fixedNow(time.Date(2024, 2, 9, 15, 0, 0, 0, time.UTC))

	res := o.Run(context.Background(), []string{"xauusd"})
	out := res.Outcomes[0]
	require.True(t, out.OK(), "err: %v", out.Err)
	assert.Equal(t, 39, out.Rows)
	require.NotNil(t, out.OpenDay)

	b, err := os.ReadFile(filepath.Join(dir, "open_day_xauusd.json"))
	require.NoError(t, err)
	var rec model.OpenDayRecord
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "2024-02-09", rec.Date)
	assert.Equal(t, "OANDA:XAUUSD", rec.Symbol)
	assert.Equal(t, *out.OpenDay, rec)
}

func TestRunOpenDayFailureOnlyWarns(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	cat, err := instrument.New(instrument.File{Instruments: []instrument.Instrument{{
		Key: "xauusd", Symbol: "XAUUSD", Exchange: "OANDA",
		OutputFile: "spot.csv", OpenDayFile: "blocked/open.json",
	}}})
	require.NoError(t, err)

	o := New(newFakeProvider(), cat, saver.CSVSaver{}, Options{
		OutputDir: dir,
		Now:       fixedNow(time.Date(2024, 2, 9, 15, 0, 0, 0, time.UTC)),
	}, quietLogger())

	res := o.Run(context.Background(), nil)
	require.Len(t, res.Outcomes, 1)
	assert.True(t, res.Outcomes[0].OK())
	assert.NotNil(t, res.Outcomes[0].OpenDay)
}

func TestRunPersistenceFailure(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "not-a-dir")
	require.NoError(t, os.WriteFile(out, nil, 0o644))

	o := New(newFakeProvider(), instrument.Default(), saver.CSVSaver{}, Options{
		OutputDir: out,
		Now:       fixedNow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}, quietLogger())

	res := o.Run(context.Background(), []string{"xauusd"})
	assert.True(t, errors.Is(res.Outcomes[0].Err, apperr.ErrPersistence))
	assert.Equal(t, StageFiltered, res.Outcomes[0].Reached)
}

func TestRunOtherFormats(t *testing.T) {
	for _, s := range []saver.DatasetSaver{saver.JSONSaver{}, saver.ParquetSaver{}} {
		t.Run(s.Extension(), func(t *testing.T) {
			dir := t.TempDir()
			o := New(newFakeProvider(), instrument.Default(), s, Options{
				OutputDir: dir,
				Now:       fixedNow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
			}, quietLogger())
			res := o.Run(context.Background(), []string{"gc1"})
			require.True(t, res.Outcomes[0].OK(), "err: %v", res.Outcomes[0].Err)
			assert.Equal(t, filepath.Join(dir, "gc1_10years_data."+s.Extension()), res.Outcomes[0].Path)
		})
	}
}

func TestRunCancelledContextStartsNothing(t *testing.T) {
	p := newFakeProvider()
	o, _ := newTestOrchestrator(t, p, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := o.Run(ctx, []string{"all"})
	require.Len(t, res.Outcomes, 4)
	for _, out := range res.Outcomes {
		assert.Equal(t, StageFailed, out.Stage)
		assert.True(t, IsCanceled(out.Err))
	}
	assert.Empty(t, p.requests)
	assert.Equal(t, 0, p.connects)
}

func TestRunCountsNewRowsSincePreviousRun(t *testing.T) {
	p := newFakeProvider()
	o, dir := newTestOrchestrator(t, p, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".lastday.json"), []byte(`{"gc1":"2024-02-06"}`), 0o644))

	res := o.Run(context.Background(), []string{"gc1", "xauusd"})
	require.Equal(t, 2, res.Succeeded())
	assert.Equal(t, 3, res.Outcomes[0].NewRows)
	assert.Equal(t, 40, res.Outcomes[1].NewRows, "no previous run counts every row")

	res = o.Run(context.Background(), []string{"gc1"})
	require.Equal(t, 1, res.Succeeded())
	assert.Equal(t, 0, res.Outcomes[0].NewRows)
}

func TestRunLeavesNoTempFiles(t *testing.T) {
	p := newFakeProvider()
	p.errs["GC1!"] = errors.New("series_error")
	o, dir := newTestOrchestrator(t, p, nil)

	res := o.Run(context.Background(), []string{"xauusd", "gc1"})
	require.Equal(t, 1, res.Succeeded())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
	assert.ElementsMatch(t, []string{
		"xauusd_10years_data.csv", ".lastday.json", ".lastrun.success.json", ".lastrun.failed.json",
	}, names)
}

func TestRunReportLogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	p := newFakeProvider()
	p.errs["GC1!"] = errors.New("symbol_error: invalid symbol")
	o := New(p, instrument.Default(), saver.CSVSaver{}, Options{
		OutputDir: t.TempDir(),
		Now:       fixedNow(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	}, slog.New(slog.NewTextHandler(&buf, nil)))

	o.Run(context.Background(), []string{"gc1"})
	assert.Contains(t, buf.String(), "report wrote failed")
	assert.Contains(t, buf.String(), "gc1: ")
}
