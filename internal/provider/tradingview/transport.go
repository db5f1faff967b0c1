package tradingview

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
)

// baseTransportConfig returns the shared HTTP transport configuration used by the sign-in client.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		DisableKeepAlives:     true,
	}
}

// newHTTPClient creates a resty client configured for TradingView account requests.
func newHTTPClient(cfg Config) *resty.Client {
	return resty.New().
		SetTransport(baseTransportConfig()).
		SetTimeout(cfg.HTTPTimeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Referer", cfg.Referer)
}

func newDialer(cfg Config) *websocket.Dialer {
	return &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: cfg.HandshakeTimeout,
	}
}

// dial opens the chart websocket, retrying transient failures with
// exponential backoff until DialAttempts is exhausted or ctx ends.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("Origin", c.cfg.Origin)
	header.Set("User-Agent", userAgent)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.DialBackoff
	b.MaxInterval = 10 * c.cfg.DialBackoff
	b.MaxElapsedTime = 0

	var conn *websocket.Conn
	attempt := 0
	op := func() error {
		attempt++
		ws, resp, err := c.dialer.DialContext(ctx, c.cfg.SocketURL, header)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return backoff.Permanent(fmt.Errorf("websocket handshake: status %d", resp.StatusCode))
			}
			return fmt.Errorf("websocket dial: %w", err)
		}
		conn = ws
		return nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("tradingview dial failed, retrying", "attempt", attempt, "wait", wait, "error", err)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.DialAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return nil, err
	}
	return conn, nil
}
