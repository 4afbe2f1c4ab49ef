package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	appconfig "github.com/eyzhang1221/unity-game-controllers/internal/config"
	"github.com/eyzhang1221/unity-game-controllers/internal/protocol"
	"github.com/eyzhang1221/unity-game-controllers/internal/robot"
	"github.com/eyzhang1221/unity-game-controllers/internal/room"
	"github.com/eyzhang1221/unity-game-controllers/internal/session/fsm"
	"github.com/eyzhang1221/unity-game-controllers/internal/speech"
	"github.com/eyzhang1221/unity-game-controllers/internal/storage"
	"github.com/eyzhang1221/unity-game-controllers/internal/tasks"
	"github.com/eyzhang1221/unity-game-controllers/internal/transport/unity/codec"
	"github.com/eyzhang1221/unity-game-controllers/pkg/audio"
)

// Handler bridges tablet game sessions to the robot backend and the
// speech pipeline.
type Handler struct {
	logger    *zap.Logger
	upgrader  websocket.Upgrader
	config    appconfig.Config
	rooms     *room.Manager
	tasks     tasks.Repo
	scorer    *speech.Scorer
	speech    *speech.ScoreClient
	behaviors *robot.RolesBehaviorsMap
	questions *robot.QuestionBank
	sessions  map[string]*session
	mu        sync.Mutex
}

type incomingMessage struct {
	Type       string `json:"type"`
	Role       string `json:"role,omitempty"`
	Scene      string `json:"scene,omitempty"`
	File       string `json:"file,omitempty"`
	RoomID     string `json:"room_id,omitempty"`
	TargetUID  string `json:"target_uid,omitempty"`
	HistoryUID string `json:"history_uid,omitempty"`
	Event      *int   `json:"event,omitempty"`
	Message    string `json:"message,omitempty"`
}

const (
	roleTablet   = "tablet"
	roleObserver = "observer"

	audioFormatOpus = "opus"

	commandOrigin = "game-controller"
)

// Scene names become directories under the history and recordings roots.
var scenePattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)

type session struct {
	conn    *websocket.Conn
	sendMu  sync.Mutex
	histMu  sync.Mutex
	logger  *zap.Logger
	handler *Handler

	clientUID string
	role      string
	started   bool

	scene       string
	profileName string
	robotRole   string
	words       []string
	historyUID  string

	protocolVersion int
	audioFormat     string
	sampleRate      int
	channels        int
	frameDuration   int

	seq uint32

	machine        *fsm.Machine
	robot          *robot.Client
	recorder       *speech.Recorder
	decoder        *audio.OpusDecoder
	monitor        *audio.OpusEncoder
	monitorScratch []int16

	currentWord     string
	currentTaskID   int64
	pendingQuestion string
}

// SessionInfo describes a connected session for the HTTP API.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Scene     string `json:"scene,omitempty"`
	State     string `json:"state"`
	Turn      string `json:"turn"`
	RoomID    string `json:"room_id,omitempty"`
}

// NewHandler loads the embedded behavior and question tables and wires
// the pronunciation scorer.
func NewHandler(logger *zap.Logger, cfg appconfig.Config, taskRepo tasks.Repo) (*Handler, error) {
	behaviors, err := robot.NewRolesBehaviorsMap()
	if err != nil {
		return nil, fmt.Errorf("load behavior map: %w", err)
	}
	questions, err := robot.NewQuestionBank()
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	scorer, err := speech.NewScorer(float64(cfg.SpeechPassThreshold))
	if err != nil {
		return nil, fmt.Errorf("load pronunciation scorer: %w", err)
	}
	h := &Handler{
		logger:    logger,
		config:    cfg,
		rooms:     room.NewManager(),
		tasks:     taskRepo,
		scorer:    scorer,
		behaviors: behaviors,
		questions: questions,
		sessions:  make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	if cfg.SpeechAPIURL != "" {
		h.speech = speech.NewScoreClient(cfg.SpeechAPIURL, cfg.SpeechAPIKey, cfg.SpeechDialect)
	}
	return h, nil
}

// Handle executes the handle method.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := &session{
		conn:            conn,
		logger:          h.logger,
		handler:         h,
		clientUID:       strings.ReplaceAll(uuid.NewString(), "-", ""),
		role:            roleTablet,
		machine:         fsm.New(),
		protocolVersion: codec.NormalizeVersion(h.config.GameProtocolVersion),
		audioFormat:     h.config.GameAudioFormat,
		sampleRate:      h.config.GameSampleRate,
		channels:        h.config.GameChannels,
		frameDuration:   h.config.GameFrameDuration,
	}

	sess.logger.Info("ws session opened",
		zap.String("session_id", sess.clientUID),
		zap.String("remote_addr", r.RemoteAddr),
		zap.Int("protocol_version", sess.protocolVersion),
		zap.String("audio_format", sess.audioFormat),
		zap.Int("sample_rate", sess.sampleRate),
		zap.Int("channels", sess.channels),
		zap.Int("frame_duration", sess.frameDuration),
	)

	h.registerSession(sess)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			sess.logger.Debug("ws connection closed", zap.Error(err))
			break
		}
		if mt == websocket.BinaryMessage {
			sess.handleBinaryFrame(ctx, data)
			continue
		}
		var msg incomingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.sendJSON(map[string]any{"type": "error", "message": "invalid json"})
			continue
		}
		if msg.Type != "heartbeat" {
			sess.logger.Debug("ws incoming message",
				zap.String("session_id", sess.clientUID),
				zap.String("type", msg.Type),
			)
		}
		sess.dispatchIncoming(ctx, msg)
	}

	sess.shutdown()
	sess.logger.Info("ws session closed", zap.String("session_id", sess.clientUID))
	h.unregisterSession(sess.clientUID)
}

// handleBinaryFrame unpacks a codec frame from the tablet. Audio feeds the
// recorder and the room monitor, events feed the game flow. Commands only
// travel server to tablet.
func (s *session) handleBinaryFrame(ctx context.Context, frame []byte) {
	payload, kind, err := codec.Decode(s.protocolVersion, frame)
	if err != nil {
		s.logger.Debug("binary frame rejected",
			zap.String("session_id", s.clientUID),
			zap.Error(err),
		)
		return
	}
	switch kind {
	case codec.PayloadKindAudio:
		s.handleMicFrame(ctx, payload)
	case codec.PayloadKindEvent:
		ev, err := protocol.DecodeGameEvent(payload)
		if err != nil {
			s.logger.Warn("event frame rejected",
				zap.String("session_id", s.clientUID),
				zap.Error(err),
			)
			return
		}
		s.handleGameEvent(ctx, ev)
	case codec.PayloadKindCommand:
		s.logger.Warn("client sent command frame", zap.String("session_id", s.clientUID))
	}
}

func (s *session) handleMicFrame(ctx context.Context, payload []byte) {
	if len(payload) == 0 {
		return
	}
	recording := s.recorder != nil && s.recorder.Active()
	monitoring := s.handler.config.AudioMonitor
	if !recording && !monitoring {
		return
	}

	var pcm []int16
	switch {
	case s.decoder != nil:
		decoded, err := s.decoder.Decode(payload)
		if err != nil {
			s.logger.Debug("mic frame decode failed", zap.Error(err))
			return
		}
		pcm = decoded
		if monitoring {
			s.handler.mirrorAudio(s, payload)
		}
	case s.audioFormat == audioFormatOpus:
		return
	default:
		pcm = audio.BytesToInt16Slice(payload)
		if monitoring {
			s.mirrorPCM(payload)
		}
	}

	if !recording {
		return
	}
	if err := s.recorder.Append(pcm); err != nil {
		s.logger.Debug("recorder append failed", zap.Error(err))
	}
}

// mirrorPCM re-encodes a raw mic frame for observers. Opus sessions mirror
// the wire payload unchanged.
func (s *session) mirrorPCM(payload []byte) {
	if s.monitor == nil {
		return
	}
	frame, err := s.monitor.EncodeWithScratch(payload, s.monitorScratch)
	if err != nil {
		s.logger.Debug("monitor encode failed", zap.Error(err))
		return
	}
	s.handler.mirrorAudio(s, frame)
}

func (s *session) sendJSON(payload any) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.WriteJSON(payload); err != nil {
		s.logger.Debug("ws send failed", zap.Error(err))
	}
}

func (s *session) sendBinary(frame []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		s.logger.Debug("ws send failed", zap.Error(err))
	}
}

// sendCommand stamps the delivery header and ships a command to the tablet.
// The session owns the header: producers hand over code and properties only.
func (s *session) sendCommand(code protocol.CommandCode, properties string) {
	header := protocol.Header{
		Seq:    atomic.AddUint32(&s.seq, 1),
		Stamp:  protocol.Now(),
		Origin: commandOrigin,
	}
	data, err := protocol.EncodeGameCommand(protocol.NewGameCommand(header, code, properties))
	if err != nil {
		s.logger.Warn("command encode failed",
			zap.String("session_id", s.clientUID),
			zap.Int8("command", int8(code)),
			zap.Error(err),
		)
		return
	}
	s.sendBinary(codec.Pack(s.protocolVersion, codec.PayloadKindCommand, data))
	s.logger.Debug("command sent",
		zap.String("session_id", s.clientUID),
		zap.Uint32("seq", header.Seq),
		zap.String("command", code.String()),
	)
	s.recordEntry(storage.TranscriptEntry{
		Kind:      storage.KindCommand,
		Direction: storage.DirectionToTablet,
		Code:      int(code),
		Name:      code.String(),
		Detail:    properties,
	})
}

// recordEntry appends to the session transcript and mirrors the entry to
// room observers.
func (s *session) recordEntry(entry storage.TranscriptEntry) {
	if s.historyUID != "" {
		s.histMu.Lock()
		err := storage.AppendTranscript(s.handler.config.HistoryDir, s.scene, s.historyUID, entry)
		s.histMu.Unlock()
		if err != nil {
			s.logger.Warn("transcript append failed", zap.Error(err))
		}
	}
	s.handler.mirrorEntry(s, entry)
}

func (s *session) saveRecording(word string, wav []byte) string {
	dir := filepath.Join(s.handler.config.RecordingsDir, s.scene)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Warn("recordings dir unavailable", zap.Error(err))
		return ""
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", word, time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		s.logger.Warn("recording write failed", zap.Error(err))
		return ""
	}
	return path
}

func (s *session) abortRecording() {
	if s.recorder == nil || !s.recorder.Active() {
		return
	}
	if _, _, err := s.recorder.Stop(); err != nil {
		s.logger.Debug("recorder stop failed", zap.Error(err))
	}
}

func (s *session) shutdown() {
	s.abortRecording()
	if s.robot != nil {
		s.robot.Close()
	}
	if s.monitor != nil {
		audio.ReleaseOpusEncoder(s.monitor)
		s.monitor = nil
	}
	s.decoder = nil
}

func (s *session) sceneOrDefault() string {
	if s.scene != "" {
		return s.scene
	}
	return s.handler.config.DefaultScene
}

func (s *session) handleFetchProfiles(ctx context.Context) {
	files, err := appconfig.ScanGameProfiles(s.handler.config.GameProfilesDir)
	if err != nil {
		s.sendJSON(map[string]any{"type": "error", "message": err.Error()})
		return
	}
	s.sendJSON(map[string]any{"type": "profile-files", "profiles": files})
}

func (s *session) handleSwitchProfile(ctx context.Context, filename string) {
	if filename == "" {
		return
	}
	profile, err := appconfig.FindGameProfile(s.handler.config.GameProfilesDir, filepath.Base(filename))
	if err != nil {
		s.sendJSON(map[string]any{"type": "error", "message": err.Error()})
		return
	}
	s.applyProfile(profile)
	s.machine.SetRole(s.robotRole)
	s.sendJSON(map[string]any{
		"type":    "profile-switched",
		"profile": s.profileName,
		"scene":   s.scene,
	})
	if !s.started {
		return
	}

	// Mid-game switch: the running transcript stays with the old scene.
	if uid, err := storage.CreateTranscript(s.handler.config.HistoryDir, s.scene); err != nil {
		s.logger.Warn("transcript create failed", zap.Error(err))
		s.historyUID = ""
	} else {
		s.historyUID = uid
	}
	s.sendCommand(protocol.CmdSetGameScene, s.scene)
	if properties, err := protocol.EncodeTaskList(s.seedTasks()); err != nil {
		s.logger.Warn("task list encode failed", zap.Error(err))
	} else {
		s.sendCommand(protocol.CmdSendTasks, properties)
	}
}

func (s *session) handleHistoryList(ctx context.Context) {
	histories := storage.GetTranscriptList(s.handler.config.HistoryDir, s.sceneOrDefault())
	s.sendJSON(map[string]any{"type": "history-list", "histories": histories})
}

func (s *session) handleFetchHistory(ctx context.Context, historyUID string) {
	if historyUID == "" {
		return
	}
	entries, err := storage.GetTranscript(s.handler.config.HistoryDir, s.sceneOrDefault(), historyUID)
	if err != nil {
		s.sendJSON(map[string]any{"type": "error", "message": err.Error()})
		return
	}
	s.sendJSON(map[string]any{"type": "history-data", "history_uid": historyUID, "entries": entries})
}

func (s *session) handleDeleteHistory(ctx context.Context, historyUID string) {
	if historyUID == "" {
		return
	}
	success := storage.DeleteTranscript(s.handler.config.HistoryDir, s.sceneOrDefault(), historyUID)
	s.sendJSON(map[string]any{"type": "history-deleted", "success": success, "history_uid": historyUID})
	if success && s.historyUID == historyUID {
		s.historyUID = ""
	}
}

func (s *session) handleRoomInfo(ctx context.Context) {
	s.handler.sendRoomUpdate(s.clientUID)
}

func (s *session) joinRoom(roomID string) {
	success, message, members := s.handler.rooms.JoinRoom(s.clientUID, roomID)
	s.sendJSON(map[string]any{"type": "room-operation-result", "success": success, "message": message})
	if success {
		s.handler.broadcastRoomUpdate(members)
	}
}

func (s *session) handleLeaveRoom(ctx context.Context, targetUID string) {
	if targetUID == "" {
		targetUID = s.clientUID
	}
	success, message, members := s.handler.rooms.LeaveRoom(s.clientUID, targetUID)
	s.sendJSON(map[string]any{"type": "room-operation-result", "success": success, "message": message})
	if success {
		s.handler.broadcastRoomUpdate(members)
	}
}

// SendCommand pushes a command into a connected session. Serves the HTTP API.
func (h *Handler) SendCommand(sessionID string, code protocol.CommandCode, properties string) error {
	if !code.Known() {
		return protocol.ErrUnknownCommand
	}
	h.mu.Lock()
	sess := h.sessions[sessionID]
	h.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("no session: %s", sessionID)
	}
	sess.sendCommand(code, properties)
	return nil
}

// Sessions lists connected sessions sorted by id.
func (h *Handler) Sessions() []SessionInfo {
	h.mu.Lock()
	defer h.mu.Unlock()
	infos := make([]SessionInfo, 0, len(h.sessions))
	for _, sess := range h.sessions {
		infos = append(infos, SessionInfo{
			SessionID: sess.clientUID,
			Role:      sess.role,
			Scene:     sess.scene,
			State:     string(sess.machine.State()),
			Turn:      string(sess.machine.Turn()),
			RoomID:    h.rooms.RoomOf(sess.clientUID),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].SessionID < infos[j].SessionID })
	return infos
}

// Session reports one connected session.
func (h *Handler) Session(sessionID string) (SessionInfo, bool) {
	h.mu.Lock()
	sess := h.sessions[sessionID]
	h.mu.Unlock()
	if sess == nil {
		return SessionInfo{}, false
	}
	return SessionInfo{
		SessionID: sess.clientUID,
		Role:      sess.role,
		Scene:     sess.scene,
		State:     string(sess.machine.State()),
		Turn:      string(sess.machine.Turn()),
		RoomID:    h.rooms.RoomOf(sess.clientUID),
	}, true
}

// CloseSession drops a session's connection. The read loop tears the
// session down.
func (h *Handler) CloseSession(sessionID string) bool {
	h.mu.Lock()
	sess := h.sessions[sessionID]
	h.mu.Unlock()
	if sess == nil {
		return false
	}
	sess.sendJSON(map[string]any{"type": "error", "message": "session closed by operator"})
	_ = sess.conn.Close()
	return true
}

// Rooms lists open rooms for the HTTP API.
func (h *Handler) Rooms() []room.Info {
	return h.rooms.Rooms()
}

func (h *Handler) registerSession(sess *session) {
	h.mu.Lock()
	h.sessions[sess.clientUID] = sess
	h.mu.Unlock()
	h.rooms.RegisterSession(sess.clientUID)
}

func (h *Handler) unregisterSession(clientUID string) {
	h.mu.Lock()
	delete(h.sessions, clientUID)
	h.mu.Unlock()
	affected := h.rooms.RemoveSession(clientUID)
	h.broadcastRoomUpdate(affected)
}

func (h *Handler) sendRoomUpdate(clientUID string) {
	h.mu.Lock()
	sess := h.sessions[clientUID]
	h.mu.Unlock()
	if sess == nil {
		return
	}
	members := h.rooms.Members(clientUID)
	isOwner := h.rooms.IsOwner(clientUID)
	sess.sendJSON(map[string]any{
		"type":     "room-update",
		"room_id":  h.rooms.RoomOf(clientUID),
		"members":  members,
		"is_owner": isOwner,
	})
}

func (h *Handler) broadcastRoomUpdate(memberIDs []string) {
	for _, memberID := range memberIDs {
		h.sendRoomUpdate(memberID)
	}
}

// mirrorEntry fans a transcript entry out to the other room members.
func (h *Handler) mirrorEntry(src *session, entry storage.TranscriptEntry) {
	for _, memberID := range h.rooms.Members(src.clientUID) {
		if memberID == src.clientUID {
			continue
		}
		h.mu.Lock()
		member := h.sessions[memberID]
		h.mu.Unlock()
		if member == nil {
			continue
		}
		member.sendJSON(map[string]any{
			"type":       "transcript-entry",
			"source_uid": src.clientUID,
			"entry":      entry,
		})
	}
}

// mirrorAudio fans an opus mic frame out to the other room members.
func (h *Handler) mirrorAudio(src *session, opusFrame []byte) {
	members := h.rooms.Members(src.clientUID)
	if len(members) == 0 {
		return
	}
	frame := codec.Pack(src.protocolVersion, codec.PayloadKindAudio, opusFrame)
	for _, memberID := range members {
		if memberID == src.clientUID {
			continue
		}
		h.mu.Lock()
		member := h.sessions[memberID]
		h.mu.Unlock()
		if member == nil {
			continue
		}
		member.sendBinary(frame)
	}
}

func fallbackID(value string, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
