package saver

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"gold-data/internal/model"
)

// ParquetSaver writes a dataset as Parquet with the Record schema.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(ds *model.Dataset, path string) error {
	recs := Records(ds)
	return writeAtomic(path, func(w io.Writer) error {
		return parquet.Write(w, recs)
	})
}
