package tradingview

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gold-data/internal/model"
)

// timescalePayload builds a timescale_update carrying n daily bars.
func timescalePayload(n int) string {
	start := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]string, n)
	for i := range pts {
		o := 2000 + float64(i%50)
		pts[i] = fmt.Sprintf(`{"i":%d,"v":[%d,%g,%g,%g,%g,%d]}`, i, start.AddDate(0, 0, i).Unix(), o, o+4, o-3, o+1, 1000+i)
	}
	return fmt.Sprintf(`{"m":"timescale_update","p":["cs_bench",{"s1":{"s":[%s]}}]}`, strings.Join(pts, ","))
}

// BenchmarkDecodeFullSeries measures one MaxBarsLimit series from frame to bars.
func BenchmarkDecodeFullSeries(b *testing.B) {
	raw := encodeFrame(timescalePayload(MaxBarsLimit))
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payloads, err := decodeFrames(raw)
		if err != nil {
			b.Fatal(err)
		}
		ev, ok := parseEvent(payloads[0])
		if !ok {
			b.Fatal("no event")
		}
		bars, err := parseBars(ev, seriesID, "OANDA:XAUUSD")
		if err != nil || len(bars) != MaxBarsLimit {
			b.Fatalf("bars=%d err=%v", len(bars), err)
		}
	}
}

// BenchmarkNormalizeBars measures sort and de-duplication of a reversed series.
func BenchmarkNormalizeBars(b *testing.B) {
	ev, _ := parseEvent(timescalePayload(MaxBarsLimit))
	src, err := parseBars(ev, seriesID, "OANDA:XAUUSD")
	if err != nil {
		b.Fatal(err)
	}
	for i, j := 0, len(src)-1; i < j; i, j = i+1, j-1 {
		src[i], src[j] = src[j], src[i]
	}
	work := make([]model.Bar, len(src))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(work, src)
		_ = normalizeBars(work)
	}
}
