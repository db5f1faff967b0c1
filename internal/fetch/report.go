package fetch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gold-data/internal/apperr"
	"gold-data/internal/saver"
)

type failedEntry struct {
	Instrument string `json:"instrument"`
	Stage      Stage  `json:"stage"`
	Kind       string `json:"kind"`
	Reason     string `json:"reason"`
}

// writeRunReport writes .lastrun.success.json (keys) and .lastrun.failed.json
// (entries) into dir. A list that is empty this run removes its stale file.
func writeRunReport(dir string, outcomes []Outcome, logger *slog.Logger) error {
	if len(outcomes) == 0 {
		return nil
	}
	var successList []string
	var failedList []failedEntry
	for _, o := range outcomes {
		if o.OK() {
			successList = appendSuccess(successList, o.Key)
			continue
		}
		reason := ""
		if o.Err != nil {
			reason = o.Err.Error()
		}
		failedList = append(failedList, failedEntry{
			Instrument: o.Key,
			Stage:      o.Reached,
			Kind:       string(apperr.KindOf(o.Err)),
			Reason:     reason,
		})
	}

	successPath := filepath.Join(dir, ".lastrun.success.json")
	failedPath := filepath.Join(dir, ".lastrun.failed.json")
	if err := writeOrRemove(successPath, successList, len(successList)); err != nil {
		return err
	}
	if err := writeOrRemove(failedPath, failedList, len(failedList)); err != nil {
		return err
	}
	if len(failedList) > 0 {
		logger.Info("report wrote failed", "path", failedPath, "count", len(failedList), "reasons", joinFailedReasons(failedList))
	}
	return nil
}

func writeOrRemove(path string, v any, n int) error {
	if n == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return saver.WriteJSON(path, v)
}

func appendSuccess(list []string, key string) []string {
	for _, k := range list {
		if k == key {
			return list
		}
	}
	return append(list, key)
}

func joinFailedReasons(failedList []failedEntry) string {
	var b strings.Builder
	for i, f := range failedList {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Instrument)
		b.WriteString(": ")
		b.WriteString(f.Reason)
		if i >= 4 && len(failedList) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failedList)-5))
			break
		}
	}
	return b.String()
}
