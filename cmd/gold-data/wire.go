//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"gold-data/internal/app"
	"gold-data/internal/fetch"
	"gold-data/internal/provider"
	"gold-data/internal/provider/tradingview"

	"github.com/google/wire"
)

// InitializeApp builds App (Config + provider + catalog + orchestrator) via Wire.
// Caller must call a.Close() when done.
func InitializeApp(cfg *app.Config, logger *slog.Logger) (*app.App, error) {
	wire.Build(
		app.ProvideDatasetSaver,
		app.ProvideCatalog,
		app.ProvideTradingView,
		app.ProvideFetchOptions,
		wire.Bind(new(provider.BarsProvider), new(*tradingview.Client)),
		fetch.New,
		wire.Struct(new(app.App), "Config", "Provider", "Catalog", "Orchestrator"),
	)
	return nil, nil
}
