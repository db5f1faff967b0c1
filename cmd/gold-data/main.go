package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gold-data/internal/app"
	"gold-data/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:   "gold-data",
		Short: "Build ten-year gold price datasets with indicators and candle features",
		Long: `gold-data fetches daily and hourly bars for spot gold (OANDA:XAUUSD) and
COMEX gold futures (GC1!) from TradingView, adds technical indicators and
candlestick classifications, trims them to a date window and writes one
dataset file per instrument.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	f := cmd.Flags()
	f.StringSlice(app.KeySymbols, []string{"all"}, "instrument keys to fetch (xauusd, gc1, xauusd_h1, gc1_h1 or all)")
	f.String(app.KeyOutputDir, "data", "output directory for dataset files")
	f.String(app.KeyStart, "", "first date to keep, YYYY-MM-DD (default ten years back)")
	f.String(app.KeyEnd, "", "last date to keep, YYYY-MM-DD (default latest bar)")
	f.String(app.KeyTimezone, app.DefaultTimezone, "IANA zone of the persisted datetimes")
	f.String(app.KeyFormat, "csv", "dataset format: csv, json or parquet")
	f.String(app.KeyInstruments, "", "YAML instrument catalog replacing the built-in one")
	f.String(app.KeyUsername, "", "TradingView username (default $TRADINGVIEW_USERNAME)")
	f.String(app.KeyPassword, "", "TradingView password (default $TRADINGVIEW_PASSWORD)")
	f.String(app.KeyLogLevel, "info", "log level: debug, info, warn, error")
	f.String(app.KeyLogFile, "", "also log to this rotating file")

	if err := v.BindPFlags(f); err != nil {
		panic(err)
	}
	if err := app.BindEnv(v); err != nil {
		panic(err)
	}
	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	if path, err := app.LoadEnvFiles(); err != nil {
		slog.Warn("could not load env file", "error", err)
	} else if path != "" {
		slog.Debug("loaded env file", "path", path)
	}

	cfg, err := app.LoadConfig(v)
	if err != nil {
		return err
	}

	logger, logCloser := slogx.NewWithFile(cfg.LogLevel, slogx.FileOptions{Path: cfg.LogFile})
	defer logCloser.Close()
	slog.SetDefault(logger)

	a, err := InitializeApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	logger.Info("gold historical dataset build",
		"instruments", cfg.Symbols,
		"output_dir", cfg.OutputDir,
		"format", cfg.SaveFormat,
		"timezone", cfg.Location.String(),
		"start", cfg.StartDate,
		"end", cfg.EndDate,
	)
	_, err = app.RunFlow(ctx, a, logger)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, app.ErrNoDatasets) {
			slog.Error("gold-data failed", "error", err)
		}
		os.Exit(1)
	}
}
