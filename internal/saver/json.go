package saver

import (
	"encoding/json"
	"io"

	"gold-data/internal/model"
)

// JSONSaver writes a dataset as a JSON array of Records (indent).
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) Save(ds *model.Dataset, path string) error {
	recs := Records(ds)
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	})
}

// SaveOpenDay writes rec as {date, symbol, open}, replacing any previous file.
func SaveOpenDay(rec *model.OpenDayRecord, path string) error {
	return WriteJSON(path, rec)
}

// WriteJSON writes v as indented JSON through a temp file and rename.
func WriteJSON(path string, v any) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}
