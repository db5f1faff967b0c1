// Package fetch runs the per-instrument pipeline: retrieve bars, augment,
// filter to the date window and persist. Instruments run one after another
// and a failure in one never stops the batch.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gold-data/internal/apperr"
	"gold-data/internal/daterange"
	"gold-data/internal/features"
	"gold-data/internal/instrument"
	"gold-data/internal/model"
	"gold-data/internal/provider"
	"gold-data/internal/saver"
)

// Stage is the position of one instrument in the pipeline.
type Stage string

const (
	StagePending   Stage = "PENDING"
	StageFetched   Stage = "FETCHED"
	StageAugmented Stage = "AUGMENTED"
	StageFiltered  Stage = "FILTERED"
	StagePersisted Stage = "PERSISTED"
	StageFailed    Stage = "FAILED"
)

// Outcome is the final state of one instrument.
type Outcome struct {
	Key string
	// Stage is StagePersisted on success, StageFailed otherwise.
	Stage Stage
	// Reached is the last stage completed before a failure.
	Reached Stage
	Err     error
	Rows    int
	// NewRows counts rows after the last bar persisted by the previous run.
	NewRows  int
	Path     string
	OpenDay  *model.OpenDayRecord
	Duration time.Duration
}

// OK reports whether the dataset was persisted.
func (o Outcome) OK() bool { return o.Stage == StagePersisted }

// Result is the outcome of a batch.
type Result struct {
	// Datasets holds successful instruments only, by key.
	Datasets map[string]*model.Dataset
	// Outcomes lists every requested instrument in run order.
	Outcomes []Outcome
}

// Succeeded is the number of persisted datasets.
func (r *Result) Succeeded() int { return len(r.Datasets) }

// Failed returns the failed outcomes.
func (r *Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Options controls the date window and output location.
type Options struct {
	OutputDir string
	Start     time.Time
	End       time.Time
	Location  *time.Location
	Now       func() time.Time
}

// Orchestrator owns the provider handle for the duration of a run.
type Orchestrator struct {
	provider provider.BarsProvider
	catalog  *instrument.Catalog
	saver    saver.DatasetSaver
	opts     Options
	logger   *slog.Logger
}

// New returns an Orchestrator. A nil logger uses slog.Default.
func New(p provider.BarsProvider, cat *instrument.Catalog, s saver.DatasetSaver, opts Options, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{provider: p, catalog: cat, saver: s, opts: opts, logger: logger}
}

// Run processes keys in order ("all" expands to the whole catalog). Once ctx
// is done no further instrument starts; the remaining ones are recorded as
// failed.
func (o *Orchestrator) Run(ctx context.Context, keys []string) *Result {
	keys = o.catalog.Expand(keys)
	res := &Result{Datasets: make(map[string]*model.Dataset)}
	progress := loadProgress(o.progressPath())

	o.logger.Info("run start", "instruments", len(keys), "provider", o.provider.Name(), "output_dir", o.opts.OutputDir)
	for i, key := range keys {
		log := o.logger.With("instrument", key)
		if err := ctx.Err(); err != nil {
			log.Warn("not started", "error", err)
			res.Outcomes = append(res.Outcomes, Outcome{Key: key, Stage: StageFailed, Reached: StagePending, Err: err})
			continue
		}
		log.Info("instrument start", "n", i+1, "of", len(keys))
		start := time.Now()
		out, ds := o.runOne(ctx, key, log)
		out.Duration = time.Since(start)

		if out.OK() {
			res.Datasets[key] = ds
			layout := ds.Interval.DateLayout()
			out.NewRows = newRowsSince(ds, progress[key])
			progress[key] = ds.LastTime().Format(layout)
			log.Info("instrument done", "stage", out.Stage, "rows", out.Rows, "new_rows", out.NewRows,
				"path", out.Path, "took", out.Duration.Round(time.Millisecond))
		} else {
			log.Error("instrument failed", "stage", out.Stage, "reached", out.Reached,
				"kind", apperr.KindOf(out.Err), "error", out.Err)
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	if res.Succeeded() > 0 {
		if err := writeProgress(o.progressPath(), progress); err != nil {
			o.logger.Warn("could not write progress", "error", err)
		}
	}
	if err := writeRunReport(o.opts.OutputDir, res.Outcomes, o.logger); err != nil {
		o.logger.Warn("could not write run report", "error", err)
	}
	o.logger.Info("run done", "success", res.Succeeded(), "failed", len(res.Failed()))
	return res
}

// newRowsSince counts rows stamped after prev, the last bar recorded by the
// previous run in the dataset's date layout. An empty prev counts every row.
func newRowsSince(ds *model.Dataset, prev string) int {
	if prev == "" {
		return len(ds.Rows)
	}
	layout := ds.Interval.DateLayout()
	n := 0
	for i := len(ds.Rows) - 1; i >= 0; i-- {
		if ds.Rows[i].Time.Format(layout) <= prev {
			break
		}
		n++
	}
	return n
}

func (o *Orchestrator) progressPath() string {
	return filepath.Join(o.opts.OutputDir, ".lastday.json")
}

// runOne drives one instrument through PENDING → FETCHED → AUGMENTED →
// FILTERED → PERSISTED, stopping at the first failure.
func (o *Orchestrator) runOne(ctx context.Context, key string, log *slog.Logger) (Outcome, *model.Dataset) {
	out := Outcome{Key: key, Stage: StagePending, Reached: StagePending}
	fail := func(err error) (Outcome, *model.Dataset) {
		out.Reached = out.Stage
		out.Stage = StageFailed
		out.Err = err
		return out, nil
	}
	advance := func(s Stage, args ...any) {
		out.Stage = s
		log.Debug("stage", append([]any{"stage", s}, args...)...)
	}

	inst, err := o.catalog.Lookup(key)
	if err != nil {
		return fail(err)
	}

	series, err := o.fetch(ctx, inst)
	if err != nil {
		return fail(err)
	}
	advance(StageFetched, "bars", len(series.Bars), "first", series.Bars[0].Time, "last", series.Bars[len(series.Bars)-1].Time)

	es, err := features.Augment(series)
	if err != nil {
		return fail(err)
	}
	advance(StageAugmented, "columns", len(es.Columns))

	ds, rec, err := daterange.Filter(es, daterange.Options{
		Start:    o.opts.Start,
		End:      o.opts.End,
		Location: o.opts.Location,
		Now:      o.opts.Now,
	})
	if rec != nil {
		out.OpenDay = rec
		o.saveOpenDay(inst, rec, log)
	}
	if err != nil {
		return fail(err)
	}
	ds.Key = key
	out.Rows = len(ds.Rows)
	advance(StageFiltered, "rows", out.Rows, "from", ds.FirstTime(), "to", ds.LastTime())

	path, err := o.persist(inst, ds)
	if err != nil {
		return fail(err)
	}
	out.Path = path
	advance(StagePersisted)
	return out, ds
}

// fetch connects the provider on first need and retrieves the raw series.
func (o *Orchestrator) fetch(ctx context.Context, inst instrument.Instrument) (*model.Series, error) {
	const op = "fetch"
	if !o.provider.Connected() {
		if err := o.provider.Connect(ctx); err != nil {
			return nil, apperr.Wrap(apperr.KindRetrieval, op, err)
		}
	}
	series, err := o.provider.GetBars(ctx, provider.Request{
		Symbol:   inst.Symbol,
		Exchange: inst.Exchange,
		Interval: inst.Interval,
		MaxBars:  inst.MaxBars,
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindRetrieval, op, err)
	}
	if series == nil || len(series.Bars) == 0 {
		return nil, apperr.New(apperr.KindRetrieval, op, "no data for %s", inst.QualifiedSymbol())
	}
	if err := series.Validate(); err != nil {
		return nil, apperr.New(apperr.KindRetrieval, op, "%s: %v", inst.QualifiedSymbol(), err)
	}
	if series.Interval == "" {
		series.Interval = inst.Interval
	}
	return series, nil
}

// saveOpenDay writes the side file. Failures are logged, never fatal.
func (o *Orchestrator) saveOpenDay(inst instrument.Instrument, rec *model.OpenDayRecord, log *slog.Logger) {
	path := filepath.Join(o.opts.OutputDir, inst.OpenDayFile)
	if err := saver.SaveOpenDay(rec, path); err != nil {
		log.Warn("could not save open-day record", "path", path, "error", err)
		return
	}
	log.Info("open-day record saved", "path", path, "date", rec.Date, "open", rec.Open)
}

// persist writes ds and verifies the file. CSV output is read back and its
// row count and header compared; other formats must be non-empty.
func (o *Orchestrator) persist(inst instrument.Instrument, ds *model.Dataset) (string, error) {
	const op = "persist"
	path := filepath.Join(o.opts.OutputDir, saver.WithExtension(inst.OutputFile, o.saver.Extension()))
	if err := o.saver.Save(ds, path); err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, op, err)
	}

	if _, isCSV := o.saver.(saver.CSVSaver); isCSV {
		tbl, err := saver.ReadCSV(path)
		if err != nil {
			return "", apperr.Wrap(apperr.KindPersistence, op, fmt.Errorf("verify: %w", err))
		}
		if tbl.Len() != len(ds.Rows) {
			return "", apperr.New(apperr.KindPersistence, op, "verify %s: wrote %d rows, read %d", path, len(ds.Rows), tbl.Len())
		}
		if len(tbl.Header) != len(ds.Columns) {
			return "", apperr.New(apperr.KindPersistence, op, "verify %s: header has %d columns, want %d", path, len(tbl.Header), len(ds.Columns))
		}
		return path, nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, op, fmt.Errorf("verify: %w", err))
	}
	if fi.Size() == 0 {
		return "", apperr.New(apperr.KindPersistence, op, "verify %s: empty file", path)
	}
	return path, nil
}

// IsCanceled reports whether err stems from a cancelled or expired run context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
