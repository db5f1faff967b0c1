package saver

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gold-data/internal/apperr"
)

// writeAtomic streams write into a temp file beside path and renames it into
// place, so readers never see a partial file.
func writeAtomic(path string, write func(w io.Writer) error) (err error) {
	const op = "save"
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, fmt.Errorf("create dir %s: %w", dir, err))
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = write(bw); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, fmt.Errorf("write %s: %w", path, err))
	}
	if err = bw.Flush(); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	if err = tmp.Sync(); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	if err = tmp.Close(); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return apperr.Wrap(apperr.KindPersistence, op, err)
	}
	return nil
}
