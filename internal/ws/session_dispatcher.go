package ws

import "context"
import "go.uber.org/zap"

type incomingHandler func(context.Context, incomingMessage)

func (s *session) dispatchIncoming(ctx context.Context, msg incomingMessage) {
	handlers := map[string]incomingHandler{
		"hello":              s.onHello,
		"game-event":         s.onGameEvent,
		"mic-audio-end":      s.onMicAudioEnd,
		"restart-game":       s.onRestartGame,
		"fetch-profiles":     s.onFetchProfiles,
		"switch-profile":     s.onSwitchProfile,
		"fetch-history-list": s.onFetchHistoryList,
		"fetch-history":      s.onFetchHistory,
		"delete-history":     s.onDeleteHistory,
		"join-room":          s.onJoinRoom,
		"leave-room":         s.onLeaveRoom,
		"request-room-info":  s.onRequestRoomInfo,
		"heartbeat":          s.onNoop,
	}

	if handler, ok := handlers[msg.Type]; ok {
		handler(ctx, msg)
		return
	}
	s.logger.Debug("ws unknown message type",
		zap.String("session_id", s.clientUID),
		zap.String("type", msg.Type),
	)
}

func (s *session) onHello(ctx context.Context, msg incomingMessage) {
	s.handleHello(ctx, msg)
}

func (s *session) onGameEvent(ctx context.Context, msg incomingMessage) {
	s.handleGameEventEnvelope(ctx, msg)
}

func (s *session) onMicAudioEnd(ctx context.Context, _ incomingMessage) {
	s.finishRecording(ctx)
}

func (s *session) onRestartGame(ctx context.Context, _ incomingMessage) {
	s.handleRestartGame(ctx)
}

func (s *session) onFetchProfiles(ctx context.Context, _ incomingMessage) {
	s.handleFetchProfiles(ctx)
}

func (s *session) onSwitchProfile(ctx context.Context, msg incomingMessage) {
	s.handleSwitchProfile(ctx, msg.File)
}

func (s *session) onFetchHistoryList(ctx context.Context, _ incomingMessage) {
	s.handleHistoryList(ctx)
}

func (s *session) onFetchHistory(ctx context.Context, msg incomingMessage) {
	s.handleFetchHistory(ctx, msg.HistoryUID)
}

func (s *session) onDeleteHistory(ctx context.Context, msg incomingMessage) {
	s.handleDeleteHistory(ctx, msg.HistoryUID)
}

func (s *session) onJoinRoom(_ context.Context, msg incomingMessage) {
	if msg.RoomID == "" {
		return
	}
	s.joinRoom(msg.RoomID)
}

func (s *session) onLeaveRoom(ctx context.Context, msg incomingMessage) {
	s.handleLeaveRoom(ctx, msg.TargetUID)
}

func (s *session) onRequestRoomInfo(ctx context.Context, _ incomingMessage) {
	s.handleRoomInfo(ctx)
}

func (s *session) onNoop(_ context.Context, _ incomingMessage) {}
