// Package instrument holds the fixed set of instruments the fetcher knows
// about. The built-in catalog covers spot gold (OANDA:XAUUSD) and COMEX gold
// futures (GC1!) on daily and hourly bars; a YAML file may replace it.
package instrument

import (
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"

	"gold-data/internal/model"
)

// Market types.
const (
	MarketCFD     = "CFD"
	MarketFutures = "Futures"
)

// DefaultMaxBars is the number of bars requested when an instrument does not set one.
const DefaultMaxBars = 5000

// Instrument is one provider symbol at one interval and where its outputs go.
type Instrument struct {
	Key         string         `yaml:"key" validate:"required,lowercase"`
	Symbol      string         `yaml:"symbol" validate:"required"`
	Exchange    string         `yaml:"exchange" validate:"required"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	MarketType  string         `yaml:"market_type" default:"CFD" validate:"oneof=CFD Futures"`
	Interval    model.Interval `yaml:"interval" default:"1D" validate:"oneof=60 240 1D 1W 1M"`
	MaxBars     int            `yaml:"max_bars" default:"5000" validate:"gte=1,lte=10000"`
	OutputFile  string         `yaml:"output_file" validate:"required"`
	OpenDayFile string         `yaml:"open_day_file" validate:"required"`
}

// QualifiedSymbol is EXCHANGE:SYMBOL, the form stored in the symbol column.
func (in Instrument) QualifiedSymbol() string {
	return in.Exchange + ":" + in.Symbol
}

// BasisPair names a spot and a futures instrument whose close difference is
// reported after a run.
type BasisPair struct {
	Spot    string `yaml:"spot" validate:"required"`
	Futures string `yaml:"futures" validate:"required,nefield=Spot"`
}

var validate = validator.New()

// normalize fills defaults, canonicalizes the interval and derives the
// open-day file name, then validates.
func (in *Instrument) normalize() error {
	in.Key = strings.ToLower(strings.TrimSpace(in.Key))
	if err := defaults.Set(in); err != nil {
		return fmt.Errorf("instrument %q: defaults: %w", in.Key, err)
	}
	iv, err := model.ParseInterval(string(in.Interval))
	if err != nil {
		return fmt.Errorf("instrument %q: %w", in.Key, err)
	}
	in.Interval = iv
	if in.OpenDayFile == "" && in.Key != "" {
		in.OpenDayFile = "open_day_" + in.Key + ".json"
	}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("instrument %q: %w", in.Key, err)
	}
	return nil
}
