package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CommandCode selects the action a game command asks the tablet app to
// perform. Codes are 8-bit signed integers shared with the app side.
type CommandCode int8

// Command codes understood by the tablet game. The literal values are the
// wire contract and must not change.
const (
	CmdReset                     CommandCode = 0
	CmdShowPronunciationPanel    CommandCode = 1
	CmdShowObjectDescrPanel      CommandCode = 2
	CmdSendPronunciationAccuracy CommandCode = 10
	CmdSendTasks                 CommandCode = 20
	CmdRobotVirtualAction        CommandCode = 30
	CmdButtonDisabled            CommandCode = 31
	CmdTaskCompleted             CommandCode = 32
	CmdWhoseTurn                 CommandCode = 33
	CmdSetGameScene              CommandCode = 34
	CmdGameFinished              CommandCode = 99
)

// ErrUnknownCommand reports a command code outside the shared table.
// Receivers branch on this explicitly instead of guessing an action.
var ErrUnknownCommand = errors.New("unknown command code")

var commandNames = map[CommandCode]string{
	CmdReset:                     "reset",
	CmdShowPronunciationPanel:    "show_pronunciation_panel",
	CmdShowObjectDescrPanel:      "show_object_descr_panel",
	CmdSendPronunciationAccuracy: "send_pronunciation_accuracy",
	CmdSendTasks:                 "send_tasks",
	CmdRobotVirtualAction:        "robot_virtual_action",
	CmdButtonDisabled:            "button_disabled",
	CmdTaskCompleted:             "task_completed",
	CmdWhoseTurn:                 "whose_turn",
	CmdSetGameScene:              "set_game_scene",
	CmdGameFinished:              "game_finished",
}

// Known reports whether the code appears in the shared command table.
func (c CommandCode) Known() bool {
	_, ok := commandNames[c]
	return ok
}

// String returns the stable lowercase name of the code, or a marker form
// for codes outside the table.
func (c CommandCode) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int8(c))
}

// GameCommand asks the tablet app to perform one action. It is a value:
// construct it once and treat it as read-only afterwards. Command selects
// the action; Properties carries the command-specific payload, usually
// JSON, which this type stores verbatim and never interprets. Payload
// shape is a documented convention per code, owned by each command's
// consumer, not enforced here.
type GameCommand struct {
	Header     Header      `json:"header"`
	Command    CommandCode `json:"command"`
	Properties string      `json:"properties"`
}

// NewGameCommand builds a command message. Producers usually pass a zero
// header and let the sending session stamp it.
func NewGameCommand(header Header, code CommandCode, properties string) GameCommand {
	return GameCommand{Header: header, Command: code, Properties: properties}
}

// EncodeGameCommand renders the command as JSON for the wire.
func EncodeGameCommand(cmd GameCommand) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode game command: %w", err)
	}
	return data, nil
}

// DecodeGameCommand parses a JSON command frame. A frame whose code is not
// in the shared table still decodes structurally but returns
// ErrUnknownCommand, so callers can route it to the unknown-command path
// with the offending value in hand.
func DecodeGameCommand(data []byte) (GameCommand, error) {
	var cmd GameCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return GameCommand{}, fmt.Errorf("decode game command: %w", err)
	}
	if !cmd.Command.Known() {
		return cmd, fmt.Errorf("%w: %d", ErrUnknownCommand, int8(cmd.Command))
	}
	return cmd, nil
}
