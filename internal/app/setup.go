package app

import (
	"gold-data/internal/fetch"
	"gold-data/internal/instrument"
	"gold-data/internal/provider"
)

// App holds application dependencies built by Wire.
type App struct {
	Config       *Config
	Provider     provider.BarsProvider
	Catalog      *instrument.Catalog
	Orchestrator *fetch.Orchestrator
}

// Close releases the provider connection.
func (a *App) Close() error {
	if a.Provider == nil {
		return nil
	}
	return a.Provider.Close()
}
