package gameclient

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/eyzhang1221/unity-game-controllers/internal/protocol"
	"github.com/eyzhang1221/unity-game-controllers/internal/transport/unity/codec"
	"github.com/eyzhang1221/unity-game-controllers/pkg/audio"
)

// Session roles accepted by the game controller server.
const (
	RoleTablet   = "tablet"
	RoleObserver = "observer"
)

// AudioFrame represents a audioFrame.
type AudioFrame struct {
	PCM        []byte
	SampleRate int
	Channels   int
}

// Callbacks represents a callbacks.
type Callbacks struct {
	OnCommand      func(cmd protocol.GameCommand)
	OnAudio        func(frame AudioFrame)
	OnRoomOpened   func(roomID string)
	OnRoomUpdate   func(update RoomUpdate)
	OnTranscript   func(sourceUID string, entry json.RawMessage)
	OnMessage      func(msgType string, payload json.RawMessage)
	OnConnected    func()
	OnDisconnected func(err error)
	OnError        func(err error)
}

// Client represents a client.
type Client struct {
	cfg       Config
	logger    *zap.Logger
	callbacks Callbacks

	mu sync.Mutex

	conn       *websocket.Conn
	closed     bool
	sessionID  string
	helloReady bool

	decoder   *audio.OpusDecoder
	decoderSR int
	decoderCH int

	seq     uint32
	writeMu sync.Mutex
}

// NewClient executes the newClient function.
func NewClient(cfg Config, callbacks Callbacks, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg.ProtocolVersion = codec.NormalizeVersion(cfg.ProtocolVersion)
	cfg.Role = normalizeRole(cfg.Role)

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

// SessionID returns the server-assigned session identifier, empty until the
// hello is acknowledged.
func (c *Client) SessionID() string {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	return sessionID
}

// SendEvent executes the sendEvent method.
func (c *Client) SendEvent(ctx context.Context, code protocol.EventCode, message string) error {
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}
	return c.sendEventFrame(ctx, code, message)
}

// SendEventPayload encodes payload as the event message before sending.
func (c *Client) SendEventPayload(ctx context.Context, code protocol.EventCode, payload any) error {
	message, err := protocol.EncodePayload(payload)
	if err != nil {
		return err
	}
	return c.SendEvent(ctx, code, message)
}

// SendAudioFrame executes the sendAudioFrame method.
func (c *Client) SendAudioFrame(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("game connection not ready")
	}

	packed := codec.Pack(c.cfg.ProtocolVersion, codec.PayloadKindAudio, frame)

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, packed); err != nil {
		return err
	}
	return nil
}

// EndAudio executes the endAudio method.
func (c *Client) EndAudio(ctx context.Context) error {
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}
	return c.sendJSON(ctx, map[string]any{"type": "mic-audio-end"})
}

// RestartGame executes the restartGame method.
func (c *Client) RestartGame(ctx context.Context) error {
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}
	return c.sendJSON(ctx, map[string]any{"type": "restart-game"})
}

// JoinRoom executes the joinRoom method.
func (c *Client) JoinRoom(ctx context.Context, roomID string) error {
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}
	return c.sendJSON(ctx, map[string]any{"type": "join-room", "room_id": roomID})
}

// LeaveRoom executes the leaveRoom method.
func (c *Client) LeaveRoom(ctx context.Context) error {
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}
	return c.sendJSON(ctx, map[string]any{"type": "leave-room"})
}

// Heartbeat executes the heartbeat method.
func (c *Client) Heartbeat(ctx context.Context) error {
	if err := c.waitHelloReady(ctx); err != nil {
		return err
	}
	return c.sendJSON(ctx, map[string]any{"type": "heartbeat"})
}

func (c *Client) sendEventFrame(ctx context.Context, code protocol.EventCode, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("game connection not ready")
	}

	header := protocol.Header{
		Seq:    atomic.AddUint32(&c.seq, 1),
		Stamp:  protocol.Now(),
		Origin: c.cfg.Role,
	}
	frame, err := buildEventFrame(c.cfg.ProtocolVersion, header, code, message)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return err
	}
	return nil
}

func (c *Client) sendJSON(ctx context.Context, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("game connection not ready")
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteJSON(payload); err != nil {
		return err
	}
	return nil
}

func (c *Client) waitHelloReady(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(5 * time.Second)
	defer timer.Stop()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		c.mu.Lock()
		connReady := c.conn != nil
		helloReady := c.helloReady
		c.mu.Unlock()

		if !connReady {
			return errors.New("game connection not ready")
		}
		if helloReady {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.New("game hello not acknowledged")
		case <-ticker.C:
		}
	}
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
		c.logger.Info("game client connecting",
			zap.String("server_url", c.cfg.ServerURL),
			zap.String("role", c.cfg.Role),
		)
		if err := c.connectOnce(ctx); err != nil {
			c.reportError(err)
			c.logger.Warn("game client connect failed", zap.Error(err))
			time.Sleep(delay)
			delay = nextBackoff(delay)
			continue
		}
		c.logger.Info("game client connected",
			zap.String("server_url", c.cfg.ServerURL),
			zap.String("role", c.cfg.Role),
			zap.Int("protocol_version", c.cfg.ProtocolVersion),
		)
		delay = time.Second
		if err := c.readLoop(); err != nil {
			if c.callbacks.OnDisconnected != nil {
				c.callbacks.OnDisconnected(err)
			}
			c.reportError(err)
			c.logger.Warn("game client connection lost", zap.Error(err))
			time.Sleep(delay)
			delay = nextBackoff(delay)
			continue
		}
	}
}

func (c *Client) connectOnce(ctx context.Context) error {
	if c.cfg.ServerURL == "" {
		return errors.New("game server url is empty")
	}

	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.cfg.ServerURL, nil)
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
	c.sessionID = ""
	c.helloReady = false
	c.mu.Unlock()

	return c.sendHello(ctx)
}

// sendHello opens the session. Observers declare themselves over JSON so the
// server never treats them as a game driver; tablets open with the hello
// event so scene and audio parameters arrive before the game starts.
func (c *Client) sendHello(ctx context.Context) error {
	if c.cfg.Role == RoleObserver {
		payload := map[string]any{
			"type": "hello",
			"role": RoleObserver,
		}
		if c.cfg.RoomID != "" {
			payload["room_id"] = c.cfg.RoomID
		}
		return c.sendJSON(ctx, payload)
	}
	message, err := helloPayload(c.cfg)
	if err != nil {
		return err
	}
	return c.sendEventFrame(ctx, protocol.EventHello, message)
}

func (c *Client) readLoop() error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("game connection not ready")
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

		switch msgType {
		case websocket.TextMessage:
			c.handleTextMessage(data)
		case websocket.BinaryMessage:
			c.handleBinaryFrame(data)
		}
	}
}

func (c *Client) handleTextMessage(data []byte) {
	var envelope struct {
		Type      string          `json:"type"`
		SessionID string          `json:"session_id"`
		Role      string          `json:"role"`
		Message   string          `json:"message"`
		RoomID    string          `json:"room_id"`
		Members   []string        `json:"members"`
		IsOwner   bool            `json:"is_owner"`
		SourceUID string          `json:"source_uid"`
		Entry     json.RawMessage `json:"entry"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.reportError(err)
		return
	}

	switch envelope.Type {
	case "hello-ack":
		c.setSessionID(envelope.SessionID)
		c.logger.Info("game hello acknowledged",
			zap.String("session_id", envelope.SessionID),
			zap.String("role", envelope.Role),
		)
		if c.markHelloReady() && c.callbacks.OnConnected != nil {
			c.callbacks.OnConnected()
		}
	case "error":
		c.reportError(errors.New("game server error: " + envelope.Message))
	case "room-opened":
		if c.callbacks.OnRoomOpened != nil {
			c.callbacks.OnRoomOpened(envelope.RoomID)
		}
	case "room-update":
		if c.callbacks.OnRoomUpdate != nil {
			c.callbacks.OnRoomUpdate(RoomUpdate{
				RoomID:  envelope.RoomID,
				Members: envelope.Members,
				IsOwner: envelope.IsOwner,
			})
		}
	case "transcript-entry":
		if c.callbacks.OnTranscript != nil {
			c.callbacks.OnTranscript(envelope.SourceUID, envelope.Entry)
		}
	default:
		if c.callbacks.OnMessage != nil {
			c.callbacks.OnMessage(envelope.Type, json.RawMessage(data))
		}
	}
}

func (c *Client) handleBinaryFrame(frame []byte) {
	payload, kind, err := codec.Decode(c.cfg.ProtocolVersion, frame)
	if err != nil {
		c.reportError(err)
		return
	}
	if len(payload) == 0 {
		return
	}

	switch kind {
	case codec.PayloadKindCommand:
		cmd, err := protocol.DecodeGameCommand(payload)
		if err != nil {
			c.reportError(err)
			return
		}
		if c.callbacks.OnCommand != nil {
			c.callbacks.OnCommand(cmd)
		}
	case codec.PayloadKindAudio:
		c.handleAudioFrame(payload)
	}
}

// handleAudioFrame decodes a mirrored room microphone frame. Mirror frames
// are always opus; the decoder emits at the client's configured rate.
func (c *Client) handleAudioFrame(frame []byte) {
	if c.callbacks.OnAudio == nil {
		return
	}

	sampleRate, channels := monitorParams(c.cfg.AudioParams)
	pcm, err := c.decodeOpus(frame, sampleRate, channels)
	if err != nil {
		c.reportError(err)
		return
	}
	if len(pcm) == 0 {
		return
	}
	c.callbacks.OnAudio(AudioFrame{PCM: pcm, SampleRate: sampleRate, Channels: channels})
}

func (c *Client) decodeOpus(frame []byte, sampleRate int, channels int) ([]byte, error) {
	c.mu.Lock()
	if err := c.ensureDecoderLocked(sampleRate, channels); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	decoder := c.decoder
	c.mu.Unlock()
	if decoder == nil {
		return nil, errors.New("opus decoder is not initialized")
	}

	pcm, err := decoder.Decode(frame)
	if err != nil {
		return nil, err
	}
	if len(pcm) == 0 {
		return nil, nil
	}
	return audio.Int16SliceToBytesInto(nil, pcm), nil
}

func (c *Client) ensureDecoderLocked(sampleRate int, channels int) error {
	if c.decoder != nil && c.decoderSR == sampleRate && c.decoderCH == channels {
		return nil
	}
	decoder, err := audio.NewOpusDecoder(sampleRate, channels)
	if err != nil {
		return err
	}
	c.decoder = decoder
	c.decoderSR = sampleRate
	c.decoderCH = channels
	return nil
}

func (c *Client) setSessionID(sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
}

func (c *Client) markHelloReady() bool {
	c.mu.Lock()
	if c.helloReady {
		c.mu.Unlock()
		return false
	}
	c.helloReady = true
	c.mu.Unlock()
	return true
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

// buildEventFrame renders an event as a codec frame ready for the wire.
func buildEventFrame(version int, header protocol.Header, code protocol.EventCode, message string) ([]byte, error) {
	data, err := protocol.EncodeGameEvent(protocol.NewGameEvent(header, code, message))
	if err != nil {
		return nil, err
	}
	return codec.Pack(version, codec.PayloadKindEvent, data), nil
}

// helloPayload renders the hello event message. An all-default config yields
// an empty message and keeps every server default.
func helloPayload(cfg Config) (string, error) {
	info := struct {
		Scene         string `json:"scene,omitempty"`
		AudioFormat   string `json:"audio_format,omitempty"`
		SampleRate    int    `json:"sample_rate,omitempty"`
		Channels      int    `json:"channels,omitempty"`
		FrameDuration int    `json:"frame_duration,omitempty"`
	}{
		Scene:         cfg.Scene,
		AudioFormat:   cfg.AudioParams.Format,
		SampleRate:    cfg.AudioParams.SampleRate,
		Channels:      cfg.AudioParams.Channels,
		FrameDuration: cfg.AudioParams.FrameDuration,
	}
	if info.Scene == "" && info.AudioFormat == "" && info.SampleRate <= 0 && info.Channels <= 0 && info.FrameDuration <= 0 {
		return "", nil
	}
	return protocol.EncodePayload(info)
}

func monitorParams(params AudioParams) (sampleRate int, channels int) {
	sampleRate = params.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}
	channels = params.Channels
	if channels <= 0 {
		channels = 1
	}
	return sampleRate, channels
}

func normalizeRole(role string) string {
	switch strings.TrimSpace(strings.ToLower(role)) {
	case RoleObserver:
		return RoleObserver
	default:
		return RoleTablet
	}
}

func nextBackoff(delay time.Duration) time.Duration {
	if delay >= 30*time.Second {
		return 30 * time.Second
	}
	return delay * 2
}
