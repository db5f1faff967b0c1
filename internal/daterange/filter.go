// Package daterange normalizes an enriched series to a target time zone,
// truncates it to a date window and finalizes it: the volume column is
// dropped and a still-forming bar dated today (or later) is removed, keeping
// only its opening price as an OpenDayRecord.
package daterange

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"gold-data/internal/apperr"
	"gold-data/internal/model"
)

// DefaultLookbackDays is the window used when no start date is given.
const DefaultLookbackDays = 365 * 10

const dateLayout = "2006-01-02"

// Options controls Filter. Zero Start or End means omitted.
type Options struct {
	Start    time.Time
	End      time.Time
	Location *time.Location
	Now      func() time.Time
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o Options) location() *time.Location {
	if o.Location != nil {
		return o.Location
	}
	return time.UTC
}

// DefaultStart is the start of the local day DefaultLookbackDays before now.
func DefaultStart(now time.Time, loc *time.Location) time.Time {
	d := now.In(loc).AddDate(0, 0, -DefaultLookbackDays)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD bound as midnight in loc. An empty string
// yields the zero time (omitted).
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// Filter returns the rows of es with start <= time <= end, in loc.
//
// When the last retained row is dated today or later in loc it is removed
// and its open returned as an OpenDayRecord. If that removal empties the
// dataset the record is still returned together with an empty-result error.
func Filter(es *model.EnrichedSeries, opts Options) (*model.Dataset, *model.OpenDayRecord, error) {
	const op = "filter"
	if es == nil || len(es.Bars) == 0 {
		return nil, nil, apperr.New(apperr.KindEmptyResult, op, "no data to filter")
	}
	loc := opts.location()
	now := opts.now().In(loc)

	rows := make([]model.EnrichedBar, len(es.Bars))
	var maxTime time.Time
	for i, b := range es.Bars {
		rows[i] = b
		rows[i].Time = b.Time.In(loc)
		if rows[i].Time.After(maxTime) {
			maxTime = rows[i].Time
		}
	}

	start := opts.Start
	if start.IsZero() {
		start = DefaultStart(now, loc)
	}
	end := opts.End
	if end.IsZero() {
		end = maxTime
	}
	if !start.Before(end) {
		return nil, nil, apperr.New(apperr.KindInvalidRange, op, "start %s must be before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	kept := rows[:0]
	for _, r := range rows {
		if r.Time.Before(start) || r.Time.After(end) {
			continue
		}
		r.Volume = null.Float{}
		kept = append(kept, r)
	}
	if len(kept) == 0 {
		return nil, nil, apperr.New(apperr.KindEmptyResult, op, "no rows between %s and %s",
			start.Format(dateLayout), end.Format(dateLayout))
	}

	ds := &model.Dataset{
		Symbol:   es.Symbol,
		Interval: es.Interval,
		Columns:  dropColumn(es.Columns, model.ColVolume),
		Rows:     kept,
	}

	var record *model.OpenDayRecord
	last := kept[len(kept)-1]
	if !localDate(last.Time).Before(localDate(now)) {
		record = &model.OpenDayRecord{
			Date:   last.Time.Format(dateLayout),
			Symbol: last.Symbol,
			Open:   last.Open,
		}
		ds.Rows = kept[:len(kept)-1]
		if len(ds.Rows) == 0 {
			return nil, record, apperr.New(apperr.KindEmptyResult, op, "only the incomplete bar of %s was in range", record.Date)
		}
	}
	return ds, record, nil
}

// localDate truncates t to midnight in its own location.
func localDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dropColumn(cols []string, name string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != name {
			out = append(out, c)
		}
	}
	return out
}
