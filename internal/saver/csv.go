package saver

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"gold-data/internal/apperr"
	"gold-data/internal/model"
)

// CSVSaver writes a dataset as CSV with a header of ds.Columns. Nulls are empty cells.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) Save(ds *model.Dataset, path string) error {
	fns := make([]model.CellFunc, len(ds.Columns))
	for i, col := range ds.Columns {
		fn, ok := model.Cell(col)
		if !ok {
			return apperr.New(apperr.KindPersistence, "save", "unknown column %q", col)
		}
		fns[i] = fn
	}
	layout := ds.Interval.DateLayout()

	return writeAtomic(path, func(out io.Writer) error {
		w := csv.NewWriter(out)
		if err := w.Write(ds.Columns); err != nil {
			return err
		}
		row := make([]string, len(fns))
		for i := range ds.Rows {
			r := &ds.Rows[i]
			for j, fn := range fns {
				row[j] = fn(r, layout)
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// Table is a CSV file read back: the header and the data records.
type Table struct {
	Header  []string
	Records [][]string
}

// Len is the number of data records.
func (t *Table) Len() int { return len(t.Records) }

// Column returns the values of the named column, or false if absent.
func (t *Table) Column(name string) ([]string, bool) {
	idx := -1
	for i, h := range t.Header {
		if h == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(t.Records))
	for i, rec := range t.Records {
		out[i] = rec[idx]
	}
	return out, true
}

// ReadCSV loads a CSV file written by CSVSaver.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}
	return &Table{Header: all[0], Records: all[1:]}, nil
}
