package tradingview

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"

	"gold-data/internal/model"
)

// Wire framing: every payload is sent as ~m~<len>~m~<payload>; several frames
// may arrive in one websocket message. Heartbeats carry ~h~<n> and must be
// echoed back.
const (
	frameMarker     = "~m~"
	heartbeatMarker = "~h~"
)

// Server events.
const (
	evTimescaleUpdate = "timescale_update"
	evDataUpdate      = "du"
	evSeriesCompleted = "series_completed"
	evSymbolResolved  = "symbol_resolved"
	evSymbolError     = "symbol_error"
	evSeriesError     = "series_error"
	evCriticalError   = "critical_error"
	evProtocolError   = "protocol_error"
)

// outbound is a client request: {"m": method, "p": params}.
type outbound struct {
	M string `json:"m"`
	P []any  `json:"p"`
}

func encodeFrame(payload string) string {
	return frameMarker + strconv.Itoa(len(payload)) + frameMarker + payload
}

func encodeMessage(method string, params ...any) (string, error) {
	if params == nil {
		params = []any{}
	}
	b, err := json.Marshal(outbound{M: method, P: params})
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", method, err)
	}
	return encodeFrame(string(b)), nil
}

// decodeFrames splits a raw websocket message into its payloads.
func decodeFrames(raw string) ([]string, error) {
	var out []string
	for rest := raw; rest != ""; {
		if !strings.HasPrefix(rest, frameMarker) {
			return out, fmt.Errorf("malformed frame at %q", clip(rest))
		}
		rest = rest[len(frameMarker):]
		end := strings.Index(rest, frameMarker)
		if end < 0 {
			return out, fmt.Errorf("malformed frame length in %q", clip(rest))
		}
		n, err := strconv.Atoi(rest[:end])
		if err != nil || n < 0 {
			return out, fmt.Errorf("malformed frame length %q", rest[:end])
		}
		rest = rest[end+len(frameMarker):]
		if n > len(rest) {
			return out, fmt.Errorf("truncated frame: want %d bytes, have %d", n, len(rest))
		}
		out = append(out, rest[:n])
		rest = rest[n:]
	}
	return out, nil
}

func isHeartbeat(payload string) bool {
	return strings.HasPrefix(payload, heartbeatMarker)
}

func clip(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// event is a decoded server payload. Payloads without "m" (the server hello)
// yield ok == false.
type event struct {
	Method string
	Params gjson.Result
}

func parseEvent(payload string) (event, bool) {
	if !gjson.Valid(payload) {
		return event{}, false
	}
	res := gjson.Parse(payload)
	m := res.Get("m")
	if !m.Exists() {
		return event{}, false
	}
	return event{Method: m.String(), Params: res.Get("p")}, true
}

// Session is the session id the event belongs to (first param).
func (e event) Session() string { return e.Params.Get("0").String() }

// errorText renders the params of an error event for logging.
func (e event) errorText() string {
	parts := e.Params.Array()
	if len(parts) > 1 {
		parts = parts[1:]
	}
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(p.String())
	}
	return sb.String()
}

// parseBars reads the bars of seriesID from a timescale_update or du event:
// p[1].<series>.s[].v = [unix, open, high, low, close, volume?].
func parseBars(e event, seriesID, qualified string) ([]model.Bar, error) {
	points := e.Params.Get("1").Get(seriesID).Get("s")
	if !points.Exists() {
		return nil, nil
	}
	var bars []model.Bar
	var perr error
	points.ForEach(func(_, p gjson.Result) bool {
		v := p.Get("v").Array()
		if len(v) < 5 {
			perr = fmt.Errorf("bar %s: want at least 5 values, got %d", p.Get("i").String(), len(v))
			return false
		}
		sec, frac := math.Modf(v[0].Float())
		b := model.Bar{
			Time:   time.Unix(int64(sec), int64(frac*1e9)).UTC(),
			Symbol: qualified,
			Open:   v[1].Float(),
			High:   v[2].Float(),
			Low:    v[3].Float(),
			Close:  v[4].Float(),
		}
		if len(v) > 5 && v[5].Type == gjson.Number {
			b.Volume = null.FloatFrom(v[5].Float())
		}
		bars = append(bars, b)
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return bars, nil
}
