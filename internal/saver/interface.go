package saver

import (
	"path/filepath"
	"strings"

	"gold-data/internal/model"
)

// DatasetSaver persists one finalized dataset. Implementations write
// all-or-nothing: on error the target path is left as it was.
// High-level (app) injects the implementation; the fetch orchestrator only depends on the interface.
type DatasetSaver interface {
	Save(ds *model.Dataset, path string) error
	Extension() string
}

// NewDatasetSaver creates an implementation by format (csv, parquet, json).
// Returns nil if format not supported.
func NewDatasetSaver(format string) DatasetSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// WithExtension replaces the extension of path with ext (no leading dot).
func WithExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}
