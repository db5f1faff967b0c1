package app

import (
	"fmt"
	"log/slog"

	"gold-data/internal/apperr"
	"gold-data/internal/fetch"
	"gold-data/internal/instrument"
	"gold-data/internal/provider/tradingview"
	"gold-data/internal/saver"
)

// ProvideDatasetSaver creates DatasetSaver from config (for Wire).
// Returns error if SaveFormat is not supported.
func ProvideDatasetSaver(cfg *Config) (saver.DatasetSaver, error) {
	s := saver.NewDatasetSaver(cfg.SaveFormat)
	if s == nil {
		return nil, apperr.New(apperr.KindConfiguration, "config",
			"unsupported SAVE_FORMAT %q (use: csv, parquet, json)", cfg.SaveFormat)
	}
	return s, nil
}

// ProvideCatalog returns the built-in instrument catalog, or the YAML
// catalog named by cfg.InstrumentsFile (for Wire).
func ProvideCatalog(cfg *Config) (*instrument.Catalog, error) {
	if cfg.InstrumentsFile == "" {
		return instrument.Default(), nil
	}
	c, err := instrument.LoadYAML(cfg.InstrumentsFile)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, "config", err)
	}
	return c, nil
}

// ProvideTradingView creates a disconnected TradingView client (for Wire).
// Credentials are checked on first connect, not here.
// Caller must call Close() when shutting down.
func ProvideTradingView(cfg *Config, logger *slog.Logger) (*tradingview.Client, error) {
	c, err := tradingview.New(tradingview.Config{
		Username: cfg.Username,
		Password: cfg.Password,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("tradingview: %w", err)
	}
	return c, nil
}

// ProvideFetchOptions maps config onto the orchestrator options (for Wire).
func ProvideFetchOptions(cfg *Config) fetch.Options {
	return fetch.Options{
		OutputDir: cfg.OutputDir,
		Start:     cfg.Start,
		End:       cfg.End,
		Location:  cfg.Location,
	}
}
