package instrument

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"gold-data/internal/apperr"
	"gold-data/internal/model"
)

// All selects every instrument in the catalog.
const All = "all"

// Catalog is an immutable, ordered set of instruments. Build it with New,
// Default or LoadYAML.
type Catalog struct {
	order []string
	byKey map[string]Instrument
	pairs []BasisPair
}

// File is the YAML layout of a catalog override.
type File struct {
	Instruments []Instrument `yaml:"instruments"`
	Basis       []BasisPair  `yaml:"basis"`
}

// Default is the built-in catalog: daily and hourly spot gold and gold futures.
func Default() *Catalog {
	c, err := New(defaultFile())
	if err != nil {
		panic(fmt.Sprintf("instrument: built-in catalog invalid: %v", err))
	}
	return c
}

func defaultFile() File {
	return File{
		Instruments: []Instrument{
			{
				Key: "xauusd", Symbol: "XAUUSD", Exchange: "OANDA",
				Name: "Gold Spot CFD", Description: "XAUUSD CFD from OANDA (Spot Gold)",
				MarketType: MarketCFD, Interval: model.IntervalDaily,
				OutputFile: "xauusd_10years_data.csv", OpenDayFile: "open_day_xauusd.json",
			},
			{
				Key: "gc1", Symbol: "GC1!", Exchange: "COMEX",
				Name: "Gold Futures", Description: "GC1! Gold Futures from COMEX (Continuous Contract)",
				MarketType: MarketFutures, Interval: model.IntervalDaily,
				OutputFile: "gc1_10years_data.csv", OpenDayFile: "open_day_gc1.json",
			},
			{
				Key: "xauusd_h1", Symbol: "XAUUSD", Exchange: "OANDA",
				Name: "Gold Spot CFD (H1)", Description: "XAUUSD H1 for Basis & Session Analysis",
				MarketType: MarketCFD, Interval: model.IntervalHourly,
				OutputFile: "xauusd_h1_data.csv", OpenDayFile: "open_day_xauusd_h1.json",
			},
			{
				Key: "gc1_h1", Symbol: "GC1!", Exchange: "COMEX",
				Name: "Gold Futures (H1)", Description: "GC1! H1 for Basis & Session Analysis",
				MarketType: MarketFutures, Interval: model.IntervalHourly,
				OutputFile: "gc1_h1_data.csv", OpenDayFile: "open_day_gc1_h1.json",
			},
		},
		Basis: []BasisPair{
			{Spot: "xauusd", Futures: "gc1"},
			{Spot: "xauusd_h1", Futures: "gc1_h1"},
		},
	}
}

// New validates f and builds a catalog from it. Instruments keep file order.
func New(f File) (*Catalog, error) {
	if len(f.Instruments) == 0 {
		return nil, fmt.Errorf("catalog: no instruments")
	}
	c := &Catalog{byKey: make(map[string]Instrument, len(f.Instruments))}
	for _, in := range f.Instruments {
		if err := in.normalize(); err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if in.Key == All {
			return nil, fmt.Errorf("catalog: %q is reserved", All)
		}
		if _, dup := c.byKey[in.Key]; dup {
			return nil, fmt.Errorf("catalog: duplicate key %q", in.Key)
		}
		c.byKey[in.Key] = in
		c.order = append(c.order, in.Key)
	}
	for _, p := range f.Basis {
		if err := validate.Struct(p); err != nil {
			return nil, fmt.Errorf("catalog: basis %s/%s: %w", p.Spot, p.Futures, err)
		}
		for _, k := range []string{p.Spot, p.Futures} {
			if _, ok := c.byKey[k]; !ok {
				return nil, fmt.Errorf("catalog: basis references unknown instrument %q", k)
			}
		}
		c.pairs = append(c.pairs, p)
	}
	return c, nil
}

// LoadYAML reads a catalog from path.
func LoadYAML(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return New(f)
}

// Keys returns instrument keys in catalog order.
func (c *Catalog) Keys() []string { return slices.Clone(c.order) }

// BasisPairs returns the configured spot/futures pairs.
func (c *Catalog) BasisPairs() []BasisPair { return slices.Clone(c.pairs) }

// Lookup returns the instrument for key, or a configuration error listing
// the known keys.
func (c *Catalog) Lookup(key string) (Instrument, error) {
	in, ok := c.byKey[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Instrument{}, apperr.New(apperr.KindConfiguration, "lookup",
			"unknown instrument %q (available: %s)", key, strings.Join(c.order, ", "))
	}
	return in, nil
}

// Expand normalizes a key selection: "all" (or an empty selection) becomes
// every key in catalog order, duplicates are dropped and unknown keys are
// kept so the caller can report them per instrument.
func (c *Catalog) Expand(keys []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(k string) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, k)
	}
	if len(keys) == 0 {
		keys = []string{All}
	}
	for _, raw := range keys {
		for _, k := range strings.Split(raw, ",") {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == All {
				for _, ck := range c.order {
					add(ck)
				}
				continue
			}
			add(k)
		}
	}
	return out
}
