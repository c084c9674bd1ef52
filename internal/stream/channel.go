package stream

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dialdesk/internal/domain"
	"dialdesk/internal/ports"
)

// Config controls push-stream connections.
type Config struct {
	BaseURL          string
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// Dialer opens one websocket channel per watched call.
type Dialer struct {
	cfg Config
	log *slog.Logger
}

func NewDialer(cfg Config, log *slog.Logger) *Dialer {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dialer{cfg: cfg, log: log}
}

func (d *Dialer) Open(ctx context.Context, callID string) (ports.StreamChannel, error) {
	streamURL, err := buildStreamURL(d.cfg.BaseURL, callID)
	if err != nil {
		return nil, err
	}

	ch := &channel{
		dialer:  &websocket.Dialer{HandshakeTimeout: d.cfg.HandshakeTimeout},
		url:     streamURL,
		callID:  callID,
		delay:   d.cfg.ReconnectDelay,
		log:     d.log,
		events:  make(chan domain.StreamEvent, 64),
		closeCh: make(chan struct{}),
	}
	go ch.run(ctx)
	return ch, nil
}

type subscribeMessage struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
}

// channel is one live push-stream connection. It reconnects after a fixed
// delay, forever, until Close is called; Close cancels a pending reconnect
// timer atomically, so no reconnect can happen after it returns.
type channel struct {
	dialer *websocket.Dialer
	url    string
	callID string
	delay  time.Duration
	log    *slog.Logger

	events  chan domain.StreamEvent
	closeCh chan struct{}

	closeOnce sync.Once

	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *channel) Events() <-chan domain.StreamEvent {
	return c.events
}

func (c *channel) Close() error {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.mu.Lock()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.mu.Unlock()
	})
	return nil
}

func (c *channel) run(ctx context.Context) {
	defer close(c.events)

	for {
		conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if c.done(ctx) {
				return
			}
			c.log.Warn("stream connect failed",
				slog.String("call_id", c.callID),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", c.delay),
			)
		} else {
			if !c.track(conn) {
				_ = conn.Close()
				return
			}
			err = c.consume(conn)
			c.untrack()
			_ = conn.Close()
			if c.done(ctx) {
				return
			}
			c.log.Warn("stream disconnected",
				slog.String("call_id", c.callID),
				slog.String("error", err.Error()),
				slog.Duration("retry_in", c.delay),
			)
		}

		timer := time.NewTimer(c.delay)
		select {
		case <-timer.C:
		case <-c.closeCh:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// consume subscribes and pumps inbound messages into the events channel
// until the connection drops.
func (c *channel) consume(conn *websocket.Conn) error {
	if err := conn.WriteJSON(subscribeMessage{Type: "subscribe", CallID: c.callID}); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		evt, ok := normalize(payload, c.callID)
		if !ok {
			c.log.Debug("dropped stream message",
				slog.String("call_id", c.callID),
				slog.Int("bytes", len(payload)),
			)
			continue
		}

		select {
		case c.events <- evt:
		case <-c.closeCh:
			return nil
		}
	}
}

// track publishes the live connection so Close can tear it down. Returns
// false when Close already won the race.
func (c *channel) track(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closeCh:
		return false
	default:
	}
	c.conn = conn
	return true
}

func (c *channel) untrack() {
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
}

func (c *channel) done(ctx context.Context) bool {
	select {
	case <-c.closeCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func buildStreamURL(base string, callID string) (string, error) {
	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	streamURL, err := url.Parse(base + "/ws/call/" + url.PathEscape(callID))
	if err != nil {
		return "", fmt.Errorf("invalid stream base URL: %w", err)
	}
	if streamURL.Scheme != "ws" && streamURL.Scheme != "wss" {
		return "", fmt.Errorf("invalid stream scheme %q", streamURL.Scheme)
	}
	return streamURL.String(), nil
}
