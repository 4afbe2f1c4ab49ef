package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventCode identifies a notification the tablet app reports back to the
// controller. Events mirror commands: 8-bit signed codes, free-form
// message payload.
type EventCode int8

// Event codes reported by the tablet game.
const (
	EventHello            EventCode = 0
	EventSceneLoaded      EventCode = 1
	EventRecordComplete   EventCode = 10
	EventSpeechHeard      EventCode = 11
	EventTaskChosen       EventCode = 20
	EventTaskDone         EventCode = 21
	EventObjectFound      EventCode = 30
	EventObjectClicked    EventCode = 31
	EventObjectPronounced EventCode = 32
	EventButtonPressed    EventCode = 33
	EventTurnFinished     EventCode = 34
	EventGameQuit         EventCode = 99
)

// ErrUnknownEvent reports an event code outside the shared table.
var ErrUnknownEvent = errors.New("unknown event code")

var eventNames = map[EventCode]string{
	EventHello:            "hello",
	EventSceneLoaded:      "scene_loaded",
	EventRecordComplete:   "record_complete",
	EventSpeechHeard:      "speech_heard",
	EventTaskChosen:       "task_chosen",
	EventTaskDone:         "task_done",
	EventObjectFound:      "object_found",
	EventObjectClicked:    "object_clicked",
	EventObjectPronounced: "object_pronounced",
	EventButtonPressed:    "button_pressed",
	EventTurnFinished:     "turn_finished",
	EventGameQuit:         "game_quit",
}

// Known reports whether the code appears in the shared event table.
func (e EventCode) Known() bool {
	_, ok := eventNames[e]
	return ok
}

// String returns the stable lowercase name of the code, or a marker form
// for codes outside the table.
func (e EventCode) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int8(e))
}

// GameEvent is one notification from the tablet app. Message carries the
// event-specific payload verbatim, JSON or plain text by convention of the
// event's consumer.
type GameEvent struct {
	Header  Header    `json:"header"`
	Event   EventCode `json:"event"`
	Message string    `json:"message"`
}

// NewGameEvent builds an event message.
func NewGameEvent(header Header, code EventCode, message string) GameEvent {
	return GameEvent{Header: header, Event: code, Message: message}
}

// EncodeGameEvent renders the event as JSON for the wire.
func EncodeGameEvent(ev GameEvent) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode game event: %w", err)
	}
	return data, nil
}

// DecodeGameEvent parses a JSON event frame. Unknown codes decode
// structurally and return ErrUnknownEvent, mirroring command decoding.
func DecodeGameEvent(data []byte) (GameEvent, error) {
	var ev GameEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return GameEvent{}, fmt.Errorf("decode game event: %w", err)
	}
	if !ev.Event.Known() {
		return ev, fmt.Errorf("%w: %d", ErrUnknownEvent, int8(ev.Event))
	}
	return ev, nil
}
