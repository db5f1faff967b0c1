package provider

import (
	"context"

	"gold-data/internal/model"
)

// Request identifies the bars to retrieve.
type Request struct {
	Symbol   string
	Exchange string
	Interval model.Interval
	MaxBars  int
}

// BarsProvider is the abstraction used by the application when accessing a data source.
// Implementations are responsible for their own session handling and resource cleanup.
// Connect must be called before GetBars; a failed Connect leaves the provider
// disconnected so it can be retried.
type BarsProvider interface {
	Name() string
	Connected() bool
	Connect(ctx context.Context) error
	// GetBars returns at most MaxBars of the most recent bars, oldest first.
	GetBars(ctx context.Context, req Request) (*model.Series, error)
	Close() error
}
