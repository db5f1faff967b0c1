package model

import (
	"fmt"
	"strings"
)

// Interval is a bar timeframe, using TradingView resolution codes.
type Interval string

const (
	IntervalHourly  Interval = "60"
	Interval4Hour   Interval = "240"
	IntervalDaily   Interval = "1D"
	IntervalWeekly  Interval = "1W"
	IntervalMonthly Interval = "1M"
)

// ParseInterval accepts resolution codes and the aliases h1, h4, d1, daily, hourly, weekly, monthly.
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "60", "h1", "1h", "hourly":
		return IntervalHourly, nil
	case "240", "h4", "4h":
		return Interval4Hour, nil
	case "1d", "d", "d1", "daily", "":
		return IntervalDaily, nil
	case "1w", "w", "w1", "weekly":
		return IntervalWeekly, nil
	case "1m", "m", "monthly":
		return IntervalMonthly, nil
	default:
		return "", fmt.Errorf("unsupported interval %q (use: h1, h4, daily, weekly, monthly)", s)
	}
}

// Intraday reports whether bars are shorter than one day.
func (i Interval) Intraday() bool {
	return i == IntervalHourly || i == Interval4Hour
}

// DateLayout is the persisted datetime format for this interval.
func (i Interval) DateLayout() string {
	if i.Intraday() {
		return "2006-01-02 15:04:05"
	}
	return "2006-01-02"
}
