package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"gold-data/internal/apperr"
	"gold-data/internal/daterange"
)

// DefaultTimezone is the zone datasets are expressed in when none is configured.
const DefaultTimezone = "Asia/Bangkok"

// Config keys. Each is bound to a command-line flag of the same name and to
// the environment variable in envKeys.
const (
	KeySymbols     = "symbols"
	KeyOutputDir   = "output-dir"
	KeyStart       = "start"
	KeyEnd         = "end"
	KeyTimezone    = "timezone"
	KeyFormat      = "format"
	KeyInstruments = "instruments"
	KeyUsername    = "username"
	KeyPassword    = "password"
	KeyLogLevel    = "log-level"
	KeyLogFile     = "log-file"
)

var envKeys = map[string]string{
	KeySymbols:     "SYMBOLS",
	KeyOutputDir:   "DATA_DIR",
	KeyStart:       "START_DATE",
	KeyEnd:         "END_DATE",
	KeyTimezone:    "TIMEZONE",
	KeyFormat:      "SAVE_FORMAT",
	KeyInstruments: "INSTRUMENTS_FILE",
	KeyUsername:    "TRADINGVIEW_USERNAME",
	KeyPassword:    "TRADINGVIEW_PASSWORD",
	KeyLogLevel:    "LOG_LEVEL",
	KeyLogFile:     "LOG_FILE",
}

// Config holds application configuration from flags and environment.
type Config struct {
	Symbols         []string
	OutputDir       string
	StartDate       string // YYYY-MM-DD, empty = ten years back
	EndDate         string // YYYY-MM-DD, empty = latest bar
	Timezone        string
	SaveFormat      string // csv | json | parquet
	InstrumentsFile string // optional YAML catalog
	Username        string
	Password        string
	LogLevel        string // debug | info | warn | error
	LogFile         string

	// Resolved from the fields above by LoadConfig.
	Location *time.Location
	Start    time.Time
	End      time.Time
}

// LoadEnvFiles loads the first of paths that exists (default .env, then
// ../.env) into the process environment without overriding set variables.
func LoadEnvFiles(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{".env", "../.env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("load %s: %w", p, err)
		}
	}
	return "", nil
}

// BindEnv binds every config key to its environment variable.
func BindEnv(v *viper.Viper) error {
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

// LoadConfig reads config from v: a flag set on the command line wins over
// the environment, which wins over the flag default.
func LoadConfig(v *viper.Viper) (*Config, error) {
	const op = "config"
	cfg := &Config{
		Symbols:         splitList(v.GetStringSlice(KeySymbols)),
		OutputDir:       v.GetString(KeyOutputDir),
		StartDate:       strings.TrimSpace(v.GetString(KeyStart)),
		EndDate:         strings.TrimSpace(v.GetString(KeyEnd)),
		Timezone:        strings.TrimSpace(v.GetString(KeyTimezone)),
		SaveFormat:      strings.ToLower(strings.TrimSpace(v.GetString(KeyFormat))),
		InstrumentsFile: v.GetString(KeyInstruments),
		Username:        strings.TrimSpace(v.GetString(KeyUsername)),
		Password:        v.GetString(KeyPassword),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "data"
	}
	if cfg.SaveFormat == "" {
		cfg.SaveFormat = "csv"
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"all"}
	}

	cfg.Location = ResolveLocation(cfg.Timezone)

	var err error
	if cfg.Start, err = daterange.ParseDate(cfg.StartDate, cfg.Location); err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, op, err)
	}
	if cfg.End, err = daterange.ParseDate(cfg.EndDate, cfg.Location); err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, op, err)
	}
	return cfg, nil
}

// ResolveLocation loads tz (DefaultTimezone when empty). An unknown zone
// falls back to UTC with a warning.
func ResolveLocation(tz string) *time.Location {
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		slog.Warn("unknown timezone, using UTC", "timezone", tz, "error", err)
		return time.UTC
	}
	return loc
}

// splitList accepts both repeated values and comma-separated lists.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
