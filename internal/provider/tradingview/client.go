// Package tradingview retrieves historical bars from TradingView: an account
// sign-in over HTTPS for the auth token, then a chart session over the data
// websocket.
package tradingview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"gold-data/internal/apperr"
	"gold-data/internal/model"
	"gold-data/internal/provider"
)

const (
	// MaxBarsLimit is the largest series the chart session serves.
	MaxBarsLimit = 10000
	// DefaultBars is requested when Request.MaxBars is zero.
	DefaultBars = 5000

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	seriesID = "s1"
	symbolID = "symbol_1"
)

// Config configures a Client. Zero fields take the defaults below.
type Config struct {
	Username string
	Password string

	SignInURL string `default:"https://www.tradingview.com/accounts/signin/"`
	Referer   string `default:"https://www.tradingview.com"`
	SocketURL string `default:"wss://data.tradingview.com/socket.io/websocket"`
	Origin    string `default:"https://data.tradingview.com"`
	// Timezone is the chart session zone; bar timestamps are UTC regardless.
	Timezone string `default:"Etc/UTC"`

	HTTPTimeout      time.Duration `default:"30s"`
	HandshakeTimeout time.Duration `default:"15s"`
	ReadTimeout      time.Duration `default:"60s"`
	DialAttempts     int           `default:"3"`
	DialBackoff      time.Duration `default:"1s"`
	// RequestsPerSecond paces outgoing websocket messages.
	RequestsPerSecond float64 `default:"20"`
}

// Client is a provider.BarsProvider backed by TradingView. It is not safe
// for concurrent use; the fetch orchestrator drives it from one goroutine.
type Client struct {
	cfg     Config
	http    *resty.Client
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	logger  *slog.Logger

	token string
	conn  *websocket.Conn
}

var _ provider.BarsProvider = (*Client)(nil)

// New constructs a disconnected Client.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("tradingview config: %w", err)
	}
	if cfg.DialAttempts < 1 {
		cfg.DialAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		http:    newHTTPClient(cfg),
		dialer:  newDialer(cfg),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:  logger,
	}, nil
}

// Name returns provider name
func (c *Client) Name() string { return "TradingView" }

// Connected reports whether a chart websocket is open.
func (c *Client) Connected() bool { return c.conn != nil }

// Connect signs in (once per Client) and opens the chart websocket.
// Missing credentials are a configuration error.
func (c *Client) Connect(ctx context.Context) error {
	const op = "tradingview connect"
	if c.conn != nil {
		return nil
	}
	if strings.TrimSpace(c.cfg.Username) == "" {
		return apperr.New(apperr.KindConfiguration, op, "TradingView username is not set")
	}
	if c.token == "" {
		token, err := c.signIn(ctx)
		if err != nil {
			return err
		}
		c.token = token
	}
	conn, err := c.dial(ctx)
	if err != nil {
		return apperr.Wrap(apperr.KindRetrieval, op, err)
	}
	c.conn = conn
	if err := c.send(ctx, "set_auth_token", c.token); err != nil {
		c.drop()
		return apperr.Wrap(apperr.KindRetrieval, op, err)
	}
	c.logger.Info("tradingview connected", "url", c.cfg.SocketURL)
	return nil
}

type signInResponse struct {
	Error string `json:"error"`
	User  struct {
		AuthToken string `json:"auth_token"`
	} `json:"user"`
}

func (c *Client) signIn(ctx context.Context) (string, error) {
	const op = "tradingview sign-in"
	var out signInResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"username": c.cfg.Username,
			"password": c.cfg.Password,
			"remember": "on",
		}).
		SetResult(&out).
		Post(c.cfg.SignInURL)
	if err != nil {
		return "", apperr.Wrap(apperr.KindRetrieval, op, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", apperr.New(apperr.KindRetrieval, op, "status %d: %s", resp.StatusCode(), clip(resp.String()))
	}
	if out.Error != "" {
		return "", apperr.New(apperr.KindConfiguration, op, "%s", out.Error)
	}
	if out.User.AuthToken == "" {
		// Some responses are served as text/html; fall back to raw parsing.
		out.User.AuthToken = gjson.GetBytes(resp.Body(), "user.auth_token").String()
	}
	if out.User.AuthToken == "" {
		return "", apperr.New(apperr.KindRetrieval, op, "no auth token in response")
	}
	return out.User.AuthToken, nil
}

// Close closes the websocket. The auth token is kept for reconnects.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	err := c.conn.Close()
	c.conn = nil
	return err
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) send(ctx context.Context, method string, params ...any) error {
	frame, err := encodeMessage(method, params...)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.writeRaw(frame)
}

func (c *Client) writeRaw(frame string) error {
	if c.conn == nil {
		return errors.New("not connected")
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ClampBars bounds n to 1..MaxBarsLimit; zero means DefaultBars.
func ClampBars(n int) int {
	switch {
	case n == 0:
		return DefaultBars
	case n < 1:
		return 1
	case n > MaxBarsLimit:
		return MaxBarsLimit
	default:
		return n
	}
}

func newSessionID(prefix string) string {
	return prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// GetBars opens a chart session for req and reads bars until the series
// completes. A transport failure drops the connection so the next call
// reconnects.
func (c *Client) GetBars(ctx context.Context, req provider.Request) (*model.Series, error) {
	op := "tradingview get bars " + req.Exchange + ":" + req.Symbol
	if c.conn == nil {
		return nil, apperr.New(apperr.KindRetrieval, op, "not connected")
	}
	if req.Symbol == "" {
		return nil, apperr.New(apperr.KindConfiguration, op, "empty symbol")
	}
	interval := req.Interval
	if interval == "" {
		interval = model.IntervalDaily
	}
	n := ClampBars(req.MaxBars)
	qualified := req.Symbol
	if req.Exchange != "" {
		qualified = req.Exchange + ":" + req.Symbol
	}

	bars, err := c.fetchSeries(ctx, qualified, interval, n)
	if err != nil {
		var ae *apperr.Error
		if !errors.As(err, &ae) {
			c.drop()
		}
		return nil, apperr.Wrap(apperr.KindRetrieval, op, err)
	}

	bars = normalizeBars(bars)
	if len(bars) == 0 {
		return nil, apperr.New(apperr.KindRetrieval, op, "no data returned")
	}
	for i := range bars {
		if err := bars[i].Validate(); err != nil {
			return nil, apperr.New(apperr.KindRetrieval, op, "invalid bar: %v", err)
		}
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}

	return &model.Series{
		Symbol:   req.Symbol,
		Exchange: req.Exchange,
		Interval: interval,
		Columns: []string{model.ColDatetime, model.ColSymbol, model.ColOpen, model.ColHigh,
			model.ColLow, model.ColClose, model.ColVolume},
		Bars: bars,
	}, nil
}

func (c *Client) fetchSeries(ctx context.Context, qualified string, interval model.Interval, n int) ([]model.Bar, error) {
	chart := newSessionID("cs_")
	quote := newSessionID("qs_")
	symbolSpec := fmt.Sprintf(`={"symbol":%q,"adjustment":"splits"}`, qualified)

	msgs := []struct {
		method string
		params []any
	}{
		{"chart_create_session", []any{chart, ""}},
		{"quote_create_session", []any{quote}},
		{"quote_add_symbols", []any{quote, qualified}},
		{"resolve_symbol", []any{chart, symbolID, symbolSpec}},
		{"create_series", []any{chart, seriesID, seriesID, symbolID, string(interval), n}},
		{"switch_timezone", []any{chart, c.cfg.Timezone}},
	}
	for _, m := range msgs {
		if err := c.send(ctx, m.method, m.params...); err != nil {
			return nil, err
		}
	}
	defer func() {
		if c.conn != nil {
			_ = c.send(context.Background(), "chart_delete_session", chart)
			_ = c.send(context.Background(), "quote_delete_session", quote)
		}
	}()

	conn := c.conn
	stop := context.AfterFunc(ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	var bars []model.Bar
	for {
		if err := armRead(ctx, conn, c.cfg.ReadTimeout); err != nil {
			return nil, err
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		payloads, err := decodeFrames(string(data))
		if err != nil {
			return nil, err
		}
		for _, p := range payloads {
			if isHeartbeat(p) {
				if err := c.writeRaw(encodeFrame(p)); err != nil {
					return nil, err
				}
				continue
			}
			ev, ok := parseEvent(p)
			if !ok {
				continue
			}
			if ev.Method == evCriticalError || ev.Method == evProtocolError {
				return nil, fmt.Errorf("%s: %s", ev.Method, ev.errorText())
			}
			if ev.Session() != chart {
				continue
			}
			switch ev.Method {
			case evTimescaleUpdate, evDataUpdate:
				got, err := parseBars(ev, seriesID, qualified)
				if err != nil {
					return nil, apperr.Wrap(apperr.KindRetrieval, ev.Method, err)
				}
				bars = append(bars, got...)
			case evSymbolResolved:
				c.logger.Debug("tradingview symbol resolved", "symbol", qualified,
					"description", ev.Params.Get("2.description").String())
			case evSymbolError, evSeriesError:
				return nil, apperr.New(apperr.KindRetrieval, ev.Method, "%s", ev.errorText())
			case evSeriesCompleted:
				c.logger.Debug("tradingview series completed", "symbol", qualified, "bars", len(bars))
				return bars, nil
			}
		}
	}
}

// normalizeBars sorts by time and keeps the last bar for duplicate timestamps.
func normalizeBars(bars []model.Bar) []model.Bar {
	slices.SortStableFunc(bars, func(a, b model.Bar) int { return a.Time.Compare(b.Time) })
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Time.Equal(b.Time) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// armRead sets the next read deadline. ctx is checked again afterwards, since
// a cancellation landing in between would have its immediate deadline
// overwritten.
func armRead(ctx context.Context, conn readDeadliner, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return ctx.Err()
}
