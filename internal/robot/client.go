package robot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Callbacks represents a callbacks.
type Callbacks struct {
	OnState      func(state string)
	OnMotionDone func(behavior string)
	OnSpeechDone func(wavFilename string)
	OnGoodbye    func()
	OnError      func(err error)
}

// Client represents a client.
type Client struct {
	cfg       Config
	logger    *zap.Logger
	callbacks Callbacks

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	writeMu sync.Mutex
}

// NewClient executes the newClient function.
func NewClient(cfg Config, callbacks Callbacks, logger *zap.Logger) *Client {
	return &Client{
		cfg:       cfg,
		logger:    logger,
		callbacks: callbacks,
	}
}

// Connect executes the connect method.
func (c *Client) Connect(ctx context.Context) {
	go c.run(ctx)
}

// Close executes the close method.
func (c *Client) Close() {
	c.mu.Lock()
	c.closed = true
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

// SendAction executes the sendAction method.
func (c *Client) SendAction(ctx context.Context, action Action) error {
	payload := map[string]any{
		"type":      "action",
		"device_id": c.cfg.DeviceID,
		"action":    action,
	}
	return c.sendJSON(ctx, payload)
}

func (c *Client) sendJSON(ctx context.Context, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("robot connection not ready")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(payload); err != nil {
		return err
	}
	return nil
}

func (c *Client) run(ctx context.Context) {
	delay := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		if c.isClosed() {
			return
		}
		c.logger.Info("robot connecting",
			zap.String("backend_url", c.cfg.BackendURL),
			zap.String("device_id", c.cfg.DeviceID),
			zap.String("client_id", c.cfg.ClientID),
		)
		if err := c.connectOnce(ctx); err != nil {
			c.reportError(err)
			c.logger.Warn("robot connect failed", zap.Error(err))
			time.Sleep(delay)
			delay = nextBackoff(delay)
			continue
		}
		c.logger.Info("robot connected",
			zap.String("backend_url", c.cfg.BackendURL),
			zap.String("device_id", c.cfg.DeviceID),
			zap.String("client_id", c.cfg.ClientID),
		)
		delay = time.Second
		if err := c.readLoop(); err != nil {
			c.reportError(err)
			c.logger.Warn("robot connection lost", zap.Error(err))
			time.Sleep(delay)
			delay = nextBackoff(delay)
			continue
		}
	}
}

func (c *Client) connectOnce(ctx context.Context) error {
	if c.cfg.BackendURL == "" {
		return errors.New("robot backend url is empty")
	}
	headers := http.Header{}
	headers.Set("Protocol-Version", intToString(c.cfg.ProtocolVersion))
	headers.Set("Client-Id", c.cfg.ClientID)
	headers.Set("Device-Id", c.cfg.DeviceID)
	if c.cfg.AccessToken != "" {
		headers.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.cfg.BackendURL, headers)
	if err != nil {
		return err
	}
	conn.SetPingHandler(func(appData string) error {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return errors.New("client closed")
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.conn = conn
	c.mu.Unlock()

	return c.sendHello(ctx)
}

func (c *Client) sendHello(ctx context.Context) error {
	payload := map[string]any{
		"type":      "hello",
		"device_id": c.cfg.DeviceID,
		"version":   c.cfg.ProtocolVersion,
		"features":  map[string]any{"actions": true, "speech": true},
		"transport": "websocket",
	}
	return c.sendJSON(ctx, payload)
}

func (c *Client) readLoop() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("robot connection not ready")
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			if c.conn == conn {
				_ = c.conn.Close()
				c.conn = nil
			}
			c.mu.Unlock()
			return err
		}

		if msgType == websocket.TextMessage {
			c.handleTextMessage(data)
		}
	}
}

func (c *Client) handleTextMessage(data []byte) {
	var payload struct {
		Type     string `json:"type"`
		State    string `json:"state"`
		Behavior string `json:"behavior"`
		Wav      string `json:"wav_filename"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		c.reportError(err)
		return
	}

	switch payload.Type {
	case "hello":
		return
	case "state":
		if payload.State != "" && c.callbacks.OnState != nil {
			c.callbacks.OnState(payload.State)
		}
	case "action_done":
		if c.callbacks.OnMotionDone != nil {
			c.callbacks.OnMotionDone(payload.Behavior)
		}
	case "speech_done":
		if c.callbacks.OnSpeechDone != nil {
			c.callbacks.OnSpeechDone(payload.Wav)
		}
	case "goodbye":
		if c.callbacks.OnGoodbye != nil {
			c.callbacks.OnGoodbye()
		}
	}
}

func (c *Client) reportError(err error) {
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(err)
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	return closed
}

func nextBackoff(delay time.Duration) time.Duration {
	if delay >= 30*time.Second {
		return 30 * time.Second
	}
	return delay * 2
}

func intToString(value int) string {
	if value == 0 {
		return "0"
	}
	buf := [20]byte{}
	i := len(buf)
	for value > 0 {
		i--
		buf[i] = byte('0' + value%10)
		value /= 10
	}
	return string(buf[i:])
}
