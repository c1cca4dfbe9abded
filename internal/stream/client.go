// Package stream provides a WebSocket client for Kalshi's real-time ticker
// channel, authenticated with the same signed headers as the REST client.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/epunzal2/kalshi-dashboard/internal/auth"
)

// TimestampedMessage is a raw message with its local receive time.
type TimestampedMessage struct {
	ReceivedAt time.Time
	Data       []byte
}

// Config holds stream client settings.
type Config struct {
	URL              string // base WebSocket URL, e.g. wss://api.elections.kalshi.com
	Tickers          []string
	BufferSize       int
	HandshakeTimeout time.Duration
	PingInterval     time.Duration
}

// Client is a single WebSocket connection subscribed to the ticker channel.
type Client struct {
	cfg    Config
	creds  *auth.Credentials
	logger *slog.Logger

	conn     *websocket.Conn
	messages chan TimestampedMessage
	errors   chan error
	done     chan struct{}

	writeMu sync.Mutex

	mu        sync.RWMutex
	connected bool
	msgID     int
}

// NewClient creates a stream client.
func NewClient(cfg Config, creds *auth.Credentials, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}

	return &Client{
		cfg:      cfg,
		creds:    creds,
		logger:   logger,
		messages: make(chan TimestampedMessage, cfg.BufferSize),
		errors:   make(chan error, 1),
		done:     make(chan struct{}),
		msgID:    1,
	}
}

// Connect dials the venue, subscribes to the ticker channel, and starts the
// read loop.
func (c *Client) Connect(ctx context.Context) error {
	headers, err := c.creds.SignWebSocket()
	if err != nil {
		return fmt.Errorf("sign websocket handshake: %w", err)
	}

	header := http.Header{}
	for k, v := range headers {
		header.Set(k, v)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, c.cfg.URL+auth.WebSocketPath, header)
	if err != nil {
		return fmt.Errorf("dial websocket: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.subscribe(); err != nil {
		c.Close()
		return err
	}

	go c.readLoop()
	if c.cfg.PingInterval > 0 {
		go c.pingLoop()
	}

	c.logger.Info("ticker stream connected",
		"url", c.cfg.URL,
		"tickers", len(c.cfg.Tickers),
	)

	return nil
}

// subscribe sends the ticker channel subscription command.
func (c *Client) subscribe() error {
	params := map[string]any{
		"channels": []string{"ticker"},
	}
	if len(c.cfg.Tickers) > 0 {
		params["market_tickers"] = c.cfg.Tickers
	}

	c.mu.Lock()
	id := c.msgID
	c.msgID++
	c.mu.Unlock()

	cmd := map[string]any{
		"id":     id,
		"cmd":    "subscribe",
		"params": params,
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode subscribe command: %w", err)
	}

	return c.send(data)
}

func (c *Client) send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Messages returns the channel of raw received messages.
func (c *Client) Messages() <-chan TimestampedMessage {
	return c.messages
}

// Errors returns the channel of connection errors.
func (c *Client) Errors() <-chan error {
	return c.errors
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// Close tears down the connection and stops the read loop.
func (c *Client) Close() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	conn := c.conn
	c.mu.Unlock()

	close(c.done)
	return conn.Close()
}

func (c *Client) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			case c.errors <- err:
			}
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			return
		}

		msg := TimestampedMessage{
			ReceivedAt: time.Now(),
			Data:       data,
		}

		select {
		case c.messages <- msg:
		case <-c.done:
			return
		default:
			c.logger.Warn("stream buffer full, dropping message")
		}
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				c.logger.Warn("ping failed", "error", err)
				return
			}
		}
	}
}
