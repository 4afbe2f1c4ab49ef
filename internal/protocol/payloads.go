package protocol

import (
	"encoding/json"
	"fmt"
)

// Task describes one activity the tablet app offers during a game session.
// A CmdSendTasks properties payload is a JSON list of these.
type Task struct {
	TaskID      int    `json:"task_id"`
	Description string `json:"description"`
}

// EncodeTaskList renders tasks as a CmdSendTasks properties payload.
// Order is preserved on the wire.
func EncodeTaskList(tasks []Task) (string, error) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", fmt.Errorf("encode task list: %w", err)
	}
	return string(data), nil
}

// DecodeTaskList parses a CmdSendTasks properties payload, preserving
// order.
func DecodeTaskList(properties string) ([]Task, error) {
	var tasks []Task
	if err := json.Unmarshal([]byte(properties), &tasks); err != nil {
		return nil, fmt.Errorf("decode task list: %w", err)
	}
	return tasks, nil
}

// PhonemeResult is one ordered scoring outcome for a phoneme occurrence in
// an attempted word.
type PhonemeResult struct {
	Phoneme string
	Passed  bool
}

// EncodeAccuracyMap collapses ordered phoneme results into the
// CmdSendPronunciationAccuracy properties payload, a JSON map of phoneme
// to pass/fail. A phoneme occurring several times passes only if every
// occurrence passed.
func EncodeAccuracyMap(results []PhonemeResult) (string, error) {
	accuracy := make(map[string]bool, len(results))
	for _, r := range results {
		passed, seen := accuracy[r.Phoneme]
		if !seen {
			accuracy[r.Phoneme] = r.Passed
			continue
		}
		accuracy[r.Phoneme] = passed && r.Passed
	}
	data, err := json.Marshal(accuracy)
	if err != nil {
		return "", fmt.Errorf("encode accuracy map: %w", err)
	}
	return string(data), nil
}

// DecodeAccuracyMap parses a CmdSendPronunciationAccuracy properties
// payload.
func DecodeAccuracyMap(properties string) (map[string]bool, error) {
	accuracy := make(map[string]bool)
	if err := json.Unmarshal([]byte(properties), &accuracy); err != nil {
		return nil, fmt.Errorf("decode accuracy map: %w", err)
	}
	return accuracy, nil
}

// ClickInfo is the EventObjectClicked message payload.
type ClickInfo struct {
	Object  string `json:"object"`
	Correct bool   `json:"correct"`
}

// RecordInfo is the EventRecordComplete message payload.
type RecordInfo struct {
	Word string `json:"word"`
}

// TaskRef is the message payload for task lifecycle events.
type TaskRef struct {
	TaskID int `json:"task_id"`
}

// EncodePayload renders a typed payload as a properties or message string.
func EncodePayload(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(data), nil
}

// DecodePayload parses a properties or message string into v.
func DecodePayload(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
