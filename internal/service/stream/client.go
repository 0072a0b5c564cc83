package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a TickStream backed by the broker's WebSocket API.
type Client struct {
	appID          string
	apiToken       string
	websocketURL   string
	markets        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new broker TickStream. apiToken may be empty for
// public tick streams.
func New(appID, apiToken, websocketURL string, markets []string, reconnectDelay, pingInterval time.Duration) drepo.TickStream {
	return &Client{
		appID:          appID,
		apiToken:       apiToken,
		websocketURL:   websocketURL,
		markets:        markets,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection and authorizes when a
// token is configured.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?app_id=%s", c.websocketURL, c.appID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true

	if c.apiToken != "" {
		if err := conn.WriteJSON(map[string]interface{}{"authorize": c.apiToken}); err != nil {
			_ = c.Close()
			return fmt.Errorf("stream authorize: %w", err)
		}
	}
	return nil
}

// Subscribe requests tick streams for the configured markets.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("stream not connected")
	}
	for _, m := range c.markets {
		msg := map[string]interface{}{"ticks": m, "subscribe": 1}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", m, err)
		}
	}
	return nil
}

type wsTick struct {
	Symbol string  `json:"symbol"`
	Quote  float64 `json:"quote"`
	Epoch  int64   `json:"epoch"` // seconds
}

type wsMessage struct {
	MsgType string  `json:"msg_type"`
	Tick    *wsTick `json:"tick"`
}

// Read streams Tick events and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// ping loop, stops with the read loop so reconnects do not pile up
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("stream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-tick frames
					continue
				}
				if m.MsgType != "tick" || m.Tick == nil {
					continue
				}
				tick := &models.Tick{
					Market:    m.Tick.Symbol,
					Quote:     m.Tick.Quote,
					Timestamp: m.Tick.Epoch * 1000,
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
