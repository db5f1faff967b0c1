package app

import (
	"context"
	"errors"
	"log/slog"

	"gold-data/internal/fetch"
)

// ErrNoDatasets is returned by RunFlow when no instrument was persisted.
var ErrNoDatasets = errors.New("no dataset was produced")

// RunFlow runs the batch for cfg.Symbols, logs the summary and reports
// failures. Partial success is success.
func RunFlow(ctx context.Context, a *App, logger *slog.Logger) (*fetch.Result, error) {
	res := a.Orchestrator.Run(ctx, a.Config.Symbols)

	fetch.Summarize(res, a.Catalog.BasisPairs()).Log(logger)
	for _, o := range res.Failed() {
		if fetch.IsCanceled(o.Err) {
			logger.Warn("interrupted", "instrument", o.Key, "stage", o.Reached)
			continue
		}
		logger.Warn("failed", "instrument", o.Key, "stage", o.Reached, "error", o.Err)
	}

	if res.Succeeded() == 0 {
		logger.Error("failed to fetch and process data for any instrument",
			"hint", "check network access and TRADINGVIEW_USERNAME / TRADINGVIEW_PASSWORD in .env")
		return res, ErrNoDatasets
	}
	logger.Info("analysis complete", "datasets", res.Succeeded(), "failed", len(res.Failed()))
	return res, nil
}
