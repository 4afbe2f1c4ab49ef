package ws

import (
	"context"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.uber.org/zap"

	appconfig "github.com/eyzhang1221/unity-game-controllers/internal/config"
	"github.com/eyzhang1221/unity-game-controllers/internal/protocol"
	"github.com/eyzhang1221/unity-game-controllers/internal/robot"
	"github.com/eyzhang1221/unity-game-controllers/internal/session/fsm"
	"github.com/eyzhang1221/unity-game-controllers/internal/speech"
	"github.com/eyzhang1221/unity-game-controllers/internal/storage"
	"github.com/eyzhang1221/unity-game-controllers/internal/tasks"
	"github.com/eyzhang1221/unity-game-controllers/pkg/audio"
)

// Wire version of the robot backend hello, unrelated to the game codec.
const robotProtocolVersion = 1

type eventHandler func(context.Context, protocol.GameEvent)

// helloInfo is the optional payload of the hello event. Missing fields keep
// the configured defaults.
type helloInfo struct {
	Scene         string `json:"scene,omitempty"`
	AudioFormat   string `json:"audio_format,omitempty"`
	SampleRate    int    `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	FrameDuration int    `json:"frame_duration,omitempty"`
}

func (s *session) handleHello(ctx context.Context, msg incomingMessage) {
	if strings.EqualFold(strings.TrimSpace(msg.Role), roleObserver) {
		s.role = roleObserver
		s.sendJSON(map[string]any{"type": "hello-ack", "session_id": s.clientUID, "role": s.role})
		if msg.RoomID != "" {
			s.joinRoom(msg.RoomID)
		}
		return
	}
	s.role = roleTablet
	s.sendJSON(map[string]any{"type": "hello-ack", "session_id": s.clientUID, "role": s.role})
	s.startGame(ctx, msg.Scene)
}

func (s *session) handleGameEventEnvelope(ctx context.Context, msg incomingMessage) {
	if msg.Event == nil {
		s.sendJSON(map[string]any{"type": "error", "message": "missing event code"})
		return
	}
	if *msg.Event < math.MinInt8 || *msg.Event > math.MaxInt8 {
		s.logger.Warn("event code out of range",
			zap.String("session_id", s.clientUID),
			zap.Int("event", *msg.Event),
		)
		return
	}
	s.handleGameEvent(ctx, protocol.GameEvent{
		Event:   protocol.EventCode(*msg.Event),
		Message: msg.Message,
	})
}

// handleGameEvent runs one tablet notification through the game flow.
// Unknown codes are logged and dropped, never guessed at.
func (s *session) handleGameEvent(ctx context.Context, ev protocol.GameEvent) {
	if !ev.Event.Known() {
		s.logger.Warn("unknown game event",
			zap.String("session_id", s.clientUID),
			zap.Int8("event", int8(ev.Event)),
		)
		return
	}
	if s.role != roleTablet {
		s.logger.Debug("event from observer dropped",
			zap.String("session_id", s.clientUID),
			zap.String("event", ev.Event.String()),
		)
		return
	}
	if !s.started && ev.Event != protocol.EventHello {
		s.logger.Debug("event before hello dropped",
			zap.String("session_id", s.clientUID),
			zap.String("event", ev.Event.String()),
		)
		return
	}
	s.logger.Debug("game event",
		zap.String("session_id", s.clientUID),
		zap.Uint32("seq", ev.Header.Seq),
		zap.String("event", ev.Event.String()),
	)
	s.recordEntry(storage.TranscriptEntry{
		Kind:      storage.KindEvent,
		Direction: storage.DirectionFromTablet,
		Code:      int(ev.Event),
		Name:      ev.Event.String(),
		Detail:    ev.Message,
	})

	handlers := map[protocol.EventCode]eventHandler{
		protocol.EventHello:            s.onEventHello,
		protocol.EventSceneLoaded:      s.onEventSceneLoaded,
		protocol.EventRecordComplete:   s.onEventRecordComplete,
		protocol.EventSpeechHeard:      s.onEventSpeechHeard,
		protocol.EventTaskChosen:       s.onEventTaskChosen,
		protocol.EventTaskDone:         s.onEventTaskDone,
		protocol.EventObjectFound:      s.onEventObjectFound,
		protocol.EventObjectClicked:    s.onEventObjectClicked,
		protocol.EventObjectPronounced: s.onEventObjectPronounced,
		protocol.EventButtonPressed:    s.onEventButtonPressed,
		protocol.EventTurnFinished:     s.onEventTurnFinished,
		protocol.EventGameQuit:         s.onEventGameQuit,
	}
	if handler, ok := handlers[ev.Event]; ok {
		handler(ctx, ev)
	}
}

func (s *session) startGame(ctx context.Context, scene string) {
	if s.started {
		s.sendJSON(map[string]any{"type": "error", "message": "game already started"})
		return
	}
	scene = strings.TrimSpace(scene)
	if scene == "" {
		scene = s.handler.config.DefaultScene
	}
	if !scenePattern.MatchString(scene) {
		s.sendJSON(map[string]any{"type": "error", "message": "invalid scene"})
		return
	}
	s.started = true
	s.scene = scene
	s.robotRole = s.handler.config.RobotRole

	profile, err := appconfig.FindGameProfile(s.handler.config.GameProfilesDir, scene+".yaml")
	if err != nil {
		s.logger.Info("no profile for scene, using config defaults", zap.String("scene", scene))
	} else {
		s.applyProfile(profile)
	}
	s.machine.SetRole(s.robotRole)

	if uid, err := storage.CreateTranscript(s.handler.config.HistoryDir, s.scene); err != nil {
		s.logger.Warn("transcript create failed", zap.Error(err))
	} else {
		s.historyUID = uid
	}

	if ok, result := s.handler.rooms.OpenRoom(s.clientUID, s.scene); ok {
		s.sendJSON(map[string]any{"type": "room-opened", "room_id": result})
	} else {
		s.logger.Debug("room not opened",
			zap.String("session_id", s.clientUID),
			zap.String("reason", result),
		)
	}

	s.setupAudio()
	s.connectRobot(ctx)

	s.machine.OnGameStart()
	s.sendCommand(protocol.CmdSetGameScene, s.scene)
	if properties, err := protocol.EncodeTaskList(s.seedTasks()); err != nil {
		s.logger.Warn("task list encode failed", zap.Error(err))
	} else {
		s.sendCommand(protocol.CmdSendTasks, properties)
	}

	s.runBehaviors(ctx, []string{robot.LookCenter, robot.BeforeGameSpeech})
	s.machine.OnIntroDone()
	s.announceTurn(ctx)
}

func (s *session) applyProfile(profile appconfig.GameProfile) {
	if profile.Scene != "" && scenePattern.MatchString(profile.Scene) {
		s.scene = profile.Scene
	}
	if profile.RobotRole != "" {
		s.robotRole = profile.RobotRole
	}
	s.profileName = profile.Name
	s.words = profile.Words
}

func (s *session) applyAudioParams(info helloInfo) {
	if info.AudioFormat != "" {
		s.audioFormat = info.AudioFormat
	}
	if info.SampleRate > 0 {
		s.sampleRate = info.SampleRate
	}
	if info.Channels > 0 {
		s.channels = info.Channels
	}
	if info.FrameDuration > 0 {
		s.frameDuration = info.FrameDuration
	}
}

func (s *session) setupAudio() {
	s.recorder = speech.NewRecorder(s.sampleRate, s.channels)
	if s.audioFormat == audioFormatOpus {
		dec, err := audio.NewOpusDecoder(s.sampleRate, s.channels)
		if err != nil {
			s.logger.Warn("opus decoder unavailable", zap.Error(err))
		} else {
			s.decoder = dec
		}
	}
	if s.handler.config.AudioMonitor && s.audioFormat != audioFormatOpus {
		enc, err := audio.AcquireOpusEncoder(s.sampleRate, s.channels, s.frameDuration)
		if err != nil {
			s.logger.Warn("monitor encoder unavailable", zap.Error(err))
		} else {
			s.monitor = enc
			s.monitorScratch = make([]int16, s.sampleRate*s.frameDuration/1000*s.channels)
		}
	}
}

func (s *session) connectRobot(ctx context.Context) {
	backendURL := s.handler.config.RobotBackendURL
	if backendURL == "" {
		s.logger.Info("robot backend disabled", zap.String("session_id", s.clientUID))
		return
	}
	cfg := robot.Config{
		BackendURL:      backendURL,
		ProtocolVersion: robotProtocolVersion,
		DeviceID:        fallbackID(s.handler.config.RobotDeviceID, "ugc-device-"+s.clientUID),
		ClientID:        fallbackID(s.handler.config.RobotClientID, "ugc-client-"+s.clientUID),
		AccessToken:     s.handler.config.RobotAccessToken,
	}
	callbacks := robot.Callbacks{
		OnState: func(state string) {
			s.logger.Debug("robot state",
				zap.String("session_id", s.clientUID),
				zap.String("state", state),
			)
		},
		OnMotionDone: func(behavior string) {
			s.logger.Debug("robot motion done",
				zap.String("session_id", s.clientUID),
				zap.String("behavior", behavior),
			)
		},
		OnSpeechDone: func(wavFilename string) {
			s.logger.Debug("robot speech done",
				zap.String("session_id", s.clientUID),
				zap.String("clip", wavFilename),
			)
		},
		OnGoodbye: func() {
			s.sendJSON(map[string]any{"type": "error", "message": "robot backend disconnected"})
		},
		OnError: func(err error) {
			s.logger.Warn("robot error", zap.Error(err))
		},
	}
	s.robot = robot.NewClient(cfg, callbacks, s.logger)
	s.robot.Connect(ctx)
}

// seedTasks fills an empty scene from the profile word list and returns the
// open tasks in tablet form.
func (s *session) seedTasks() []protocol.Task {
	existing, err := s.handler.tasks.ListByScene(s.scene)
	if err != nil {
		s.logger.Warn("task list failed", zap.Error(err))
		return nil
	}
	if len(existing) == 0 && len(s.words) > 0 {
		for _, word := range s.words {
			task := &tasks.Task{
				Word:        word,
				Description: "Find the " + word + ".",
				Scene:       s.scene,
			}
			if err := s.handler.tasks.Save(task); err != nil {
				s.logger.Warn("task save failed", zap.String("word", word), zap.Error(err))
			}
		}
		existing, err = s.handler.tasks.ListByScene(s.scene)
		if err != nil {
			s.logger.Warn("task list failed", zap.Error(err))
			return nil
		}
	}
	list := make([]protocol.Task, 0, len(existing))
	for _, task := range existing {
		if task.Done {
			continue
		}
		list = append(list, protocol.Task{TaskID: int(task.ID), Description: task.Description})
	}
	return list
}

func (s *session) announceTurn(ctx context.Context) {
	s.sendCommand(protocol.CmdWhoseTurn, string(s.machine.Turn()))
}

// playTurn acts out the current turn holder. Robot turns pick one in-app
// move at random on top of the physical behaviors.
func (s *session) playTurn(ctx context.Context) {
	role := string(s.machine.Role())
	turn := string(s.machine.Turn())
	s.runBehaviors(ctx, s.handler.behaviors.Physical(role, turn))
	if s.machine.Turn() != fsm.TurnRobot {
		return
	}
	virtual := s.handler.behaviors.Virtual(role, turn)
	if len(virtual) > 0 {
		s.sendCommand(protocol.CmdRobotVirtualAction, virtual[rand.IntN(len(virtual))])
	}
}

func (s *session) onEventHello(ctx context.Context, ev protocol.GameEvent) {
	var info helloInfo
	if ev.Message != "" {
		if err := protocol.DecodePayload(ev.Message, &info); err != nil {
			s.logger.Warn("hello payload invalid", zap.Error(err))
		}
	}
	s.applyAudioParams(info)
	s.sendJSON(map[string]any{"type": "hello-ack", "session_id": s.clientUID, "role": s.role})
	s.startGame(ctx, info.Scene)
}

func (s *session) onEventSceneLoaded(ctx context.Context, _ protocol.GameEvent) {
	s.playTurn(ctx)
}

func (s *session) onEventRecordComplete(ctx context.Context, ev protocol.GameEvent) {
	var info protocol.RecordInfo
	if ev.Message != "" {
		if err := protocol.DecodePayload(ev.Message, &info); err != nil {
			s.logger.Debug("record payload invalid", zap.Error(err))
		}
	}
	if info.Word != "" && s.recorder != nil && s.recorder.Active() &&
		!strings.EqualFold(info.Word, s.recorder.Word()) {
		s.logger.Warn("record word mismatch",
			zap.String("event_word", info.Word),
			zap.String("recording", s.recorder.Word()),
		)
	}
	s.finishRecording(ctx)
}

func (s *session) onEventSpeechHeard(ctx context.Context, ev protocol.GameEvent) {
	text := strings.TrimSpace(ev.Message)
	if text == "" {
		return
	}
	if s.pendingQuestion == "" {
		s.robotDo(ctx, robot.Interested)
		return
	}
	behaviors, err := s.handler.questions.ResponseTo(s.pendingQuestion, text)
	s.pendingQuestion = ""
	if err != nil {
		s.logger.Warn("question response failed", zap.Error(err))
		return
	}
	if len(behaviors) == 0 {
		s.robotDo(ctx, robot.Unsure)
		return
	}
	s.runBehaviors(ctx, behaviors)
}

func (s *session) onEventTaskChosen(ctx context.Context, ev protocol.GameEvent) {
	var ref protocol.TaskRef
	if err := protocol.DecodePayload(ev.Message, &ref); err != nil {
		s.logger.Warn("task payload invalid", zap.Error(err))
		return
	}
	task, err := s.handler.tasks.Get(int64(ref.TaskID))
	if err != nil {
		s.logger.Warn("task lookup failed", zap.Int("task_id", ref.TaskID), zap.Error(err))
		return
	}
	s.currentTaskID = task.ID
	s.currentWord = task.Word
	s.sendCommand(protocol.CmdShowObjectDescrPanel, task.Description)
}

func (s *session) onEventTaskDone(ctx context.Context, ev protocol.GameEvent) {
	var ref protocol.TaskRef
	if err := protocol.DecodePayload(ev.Message, &ref); err != nil {
		s.logger.Warn("task payload invalid", zap.Error(err))
		return
	}
	if err := s.handler.tasks.MarkDone(int64(ref.TaskID)); err != nil {
		s.logger.Warn("task mark done failed", zap.Int("task_id", ref.TaskID), zap.Error(err))
		return
	}
	s.sendCommand(protocol.CmdTaskCompleted, strconv.Itoa(ref.TaskID))
	if int64(ref.TaskID) == s.currentTaskID {
		s.currentTaskID = 0
	}
	remaining, err := s.handler.tasks.ListByScene(s.scene)
	if err != nil {
		return
	}
	for _, task := range remaining {
		if !task.Done {
			return
		}
	}
	s.finishGame(ctx)
}

func (s *session) onEventObjectFound(ctx context.Context, _ protocol.GameEvent) {
	s.robotDo(ctx, robot.Excited)
}

func (s *session) onEventObjectClicked(ctx context.Context, ev protocol.GameEvent) {
	var click protocol.ClickInfo
	if err := protocol.DecodePayload(ev.Message, &click); err != nil {
		s.logger.Warn("click payload invalid", zap.Error(err))
		return
	}
	if !click.Correct {
		s.robotDo(ctx, robot.Encouraging)
		return
	}
	s.currentWord = strings.ToLower(strings.TrimSpace(click.Object))
	s.sendCommand(protocol.CmdShowPronunciationPanel, click.Object)
	s.startListening(ctx, s.currentWord)
}

func (s *session) onEventObjectPronounced(ctx context.Context, _ protocol.GameEvent) {
	s.robotDo(ctx, robot.Yes)
}

func (s *session) onEventButtonPressed(ctx context.Context, ev protocol.GameEvent) {
	button := strings.TrimSpace(ev.Message)
	switch button {
	case "help":
		s.askQuestion(ctx, robot.QuestionOfferHelp)
	case "hint":
		s.robotDo(ctx, robot.HintSpeech, s.currentWord)
	default:
		s.logger.Debug("button pressed",
			zap.String("session_id", s.clientUID),
			zap.String("button", button),
		)
	}
}

// onEventTurnFinished hands the turn over. The event message names the
// holder that just ran; when it disagrees with the tracked turn the tablet
// wins, since it rendered the turn.
func (s *session) onEventTurnFinished(ctx context.Context, ev protocol.GameEvent) {
	reported := fsm.Turn(strings.TrimSpace(strings.ToLower(ev.Message)))
	if (reported == fsm.TurnChild || reported == fsm.TurnRobot) && reported != s.machine.Turn() {
		s.logger.Warn("turn holder out of sync",
			zap.String("session_id", s.clientUID),
			zap.String("reported", string(reported)),
			zap.String("tracked", string(s.machine.Turn())),
		)
		s.machine.OnTurnStart(reported)
	}
	s.machine.OnTurnFinished()
	s.announceTurn(ctx)
	s.playTurn(ctx)
}

func (s *session) onEventGameQuit(ctx context.Context, _ protocol.GameEvent) {
	s.finishGame(ctx)
}

func (s *session) startListening(ctx context.Context, word string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Start(word); err != nil {
		s.logger.Warn("recorder start failed", zap.String("word", word), zap.Error(err))
		return
	}
	s.machine.OnListenStart()
	s.sendCommand(protocol.CmdButtonDisabled, "say_button")
	s.robotDo(ctx, robot.Attention)
}

// finishRecording closes the utterance and hands it to the scoring
// pipeline. Safe to call when nothing is recording.
func (s *session) finishRecording(ctx context.Context) {
	if s.recorder == nil || !s.recorder.Active() {
		return
	}
	s.machine.OnRecordComplete()
	word, wav, err := s.recorder.Stop()
	if err != nil {
		s.logger.Warn("recording unusable", zap.Error(err))
		s.sendJSON(map[string]any{"type": "error", "message": err.Error()})
		s.machine.OnScoreReady()
		return
	}
	if path := s.saveRecording(word, wav); path != "" {
		s.recordEntry(storage.TranscriptEntry{Kind: storage.KindNote, Name: word, Detail: path})
	}
	if !s.handler.config.SpeechEnabled || s.handler.speech == nil {
		s.logger.Info("speech scoring disabled", zap.String("word", word))
		s.machine.OnScoreReady()
		return
	}
	if !s.handler.scorer.Knows(word) {
		s.logger.Warn("no alignment for word", zap.String("word", word))
		s.machine.OnScoreReady()
		return
	}
	go s.scoreAttempt(ctx, word, wav)
}

// scoreAttempt runs off the read loop: the speech API round trip takes
// seconds.
func (s *session) scoreAttempt(ctx context.Context, word string, wav []byte) {
	phones, err := s.handler.speech.Score(ctx, word, wav)
	if err != nil {
		s.logger.Warn("speech scoring failed", zap.String("word", word), zap.Error(err))
		s.machine.OnScoreReady()
		s.robotDo(ctx, robot.Comfort)
		return
	}
	result, err := s.handler.scorer.Score(word, phones)
	if err != nil {
		s.logger.Warn("pronunciation scoring failed", zap.String("word", word), zap.Error(err))
		s.machine.OnScoreReady()
		s.robotDo(ctx, robot.Comfort)
		return
	}
	properties, err := protocol.EncodeAccuracyMap(result.Letters)
	if err != nil {
		s.logger.Warn("accuracy encode failed", zap.Error(err))
		s.machine.OnScoreReady()
		return
	}
	s.sendCommand(protocol.CmdSendPronunciationAccuracy, properties)
	s.machine.OnScoreReady()
	if result.Passed() {
		s.robotDo(ctx, robot.HappyDance)
		return
	}
	s.robotDo(ctx, robot.Comfort)
	s.robotDo(ctx, robot.SayWord, word)
}

func (s *session) askQuestion(ctx context.Context, queryPath string) {
	clip, err := s.handler.questions.Question(queryPath)
	if err != nil {
		s.logger.Warn("question lookup failed", zap.String("query", queryPath), zap.Error(err))
		return
	}
	s.pendingQuestion = queryPath
	s.robotDo(ctx, robot.CustomSpeech, clip)
}

// runBehaviors sends physical behaviors to the robot and virtual ones to
// the tablet. Word speech is skipped until a target word exists.
func (s *session) runBehaviors(ctx context.Context, behaviors []string) {
	for _, behavior := range behaviors {
		if robot.IsVirtual(behavior) {
			s.sendCommand(protocol.CmdRobotVirtualAction, behavior)
			continue
		}
		if needsWord(behavior) && s.currentWord == "" {
			continue
		}
		s.robotDo(ctx, behavior, s.currentWord)
	}
}

func needsWord(behavior string) bool {
	switch behavior {
	case robot.SayWord, robot.VocabExplanation, robot.HintSpeech, robot.KeywordDefinition:
		return true
	}
	return false
}

func (s *session) robotDo(ctx context.Context, behavior string, args ...string) {
	if s.robot == nil {
		return
	}
	action, err := robot.ActionForBehavior(behavior, args...)
	if err != nil {
		s.logger.Warn("behavior not mapped", zap.String("behavior", behavior), zap.Error(err))
		return
	}
	if err := s.robot.SendAction(ctx, action); err != nil {
		s.logger.Warn("robot action failed", zap.String("behavior", behavior), zap.Error(err))
	}
}

func (s *session) finishGame(ctx context.Context) {
	if s.machine.State() == fsm.StateFinished {
		return
	}
	s.abortRecording()
	s.machine.OnGameFinished()
	s.sendCommand(protocol.CmdGameFinished, "")
	s.robotDo(ctx, robot.Celebration)
	s.recordEntry(storage.TranscriptEntry{Kind: storage.KindNote, Detail: "game finished"})
}

// handleRestartGame rolls the session back to idle. The next hello starts a
// fresh game and transcript.
func (s *session) handleRestartGame(ctx context.Context) {
	if !s.started {
		return
	}
	s.abortRecording()
	s.sendCommand(protocol.CmdReset, "")
	if err := s.machine.Force(fsm.StateIdle); err != nil {
		s.logger.Warn("state reset failed", zap.Error(err))
	}
	s.recordEntry(storage.TranscriptEntry{Kind: storage.KindNote, Detail: "game reset"})
	s.started = false
	s.historyUID = ""
	s.currentWord = ""
	s.currentTaskID = 0
	s.pendingQuestion = ""
}
