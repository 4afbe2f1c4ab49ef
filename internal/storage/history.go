package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry kinds recorded in a game transcript.
const (
	KindMeta    = "meta"
	KindCommand = "command"
	KindEvent   = "event"
	KindNote    = "note"
)

// Traffic directions relative to the tablet app.
const (
	DirectionToTablet   = "to_tablet"
	DirectionFromTablet = "from_tablet"
)

// TranscriptEntry represents a transcriptEntry.
type TranscriptEntry struct {
	Kind      string `json:"kind"`
	Direction string `json:"direction,omitempty"`
	Code      int    `json:"code"`
	Name      string `json:"name,omitempty"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

// TranscriptInfo represents a transcriptInfo.
type TranscriptInfo struct {
	UID         string          `json:"uid"`
	LatestEntry TranscriptEntry `json:"latest_entry"`
	Timestamp   string          `json:"timestamp"`
}

var safeNamePattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]+$`)

// CreateTranscript executes the createTranscript function.
func CreateTranscript(baseDir string, scene string) (string, error) {
	if scene == "" {
		return "", errors.New("scene is empty")
	}
	dir, err := ensureSceneDir(baseDir, scene)
	if err != nil {
		return "", err
	}
	uid := time.Now().Format("2006-01-02_15-04-05") + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	path := filepath.Join(dir, uid+".json")
	meta := []TranscriptEntry{{Kind: KindMeta, Timestamp: time.Now().Format(time.RFC3339)}}
	if err := writeTranscript(path, meta); err != nil {
		return "", err
	}
	return uid, nil
}

// AppendTranscript executes the appendTranscript function.
func AppendTranscript(baseDir string, scene string, transcriptUID string, entry TranscriptEntry) error {
	path, err := transcriptPath(baseDir, scene, transcriptUID)
	if err != nil {
		return err
	}
	entries, err := readTranscript(path)
	if err != nil {
		return err
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().Format(time.RFC3339)
	}
	entries = append(entries, entry)
	return writeTranscript(path, entries)
}

// GetTranscript executes the getTranscript function.
func GetTranscript(baseDir string, scene string, transcriptUID string) ([]TranscriptEntry, error) {
	path, err := transcriptPath(baseDir, scene, transcriptUID)
	if err != nil {
		return nil, err
	}
	entries, err := readTranscript(path)
	if err != nil {
		return nil, err
	}
	filtered := []TranscriptEntry{}
	for _, entry := range entries {
		if entry.Kind == KindMeta {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

// DeleteTranscript executes the deleteTranscript function.
func DeleteTranscript(baseDir string, scene string, transcriptUID string) bool {
	path, err := transcriptPath(baseDir, scene, transcriptUID)
	if err != nil {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		return false
	}
	return true
}

// GetTranscriptList executes the getTranscriptList function.
func GetTranscriptList(baseDir string, scene string) []TranscriptInfo {
	list := []TranscriptInfo{}
	dir, err := ensureSceneDir(baseDir, scene)
	if err != nil {
		return list
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return list
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		transcriptUID := strings.TrimSuffix(entry.Name(), ".json")
		items, err := readTranscript(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var latest *TranscriptEntry
		for i := len(items) - 1; i >= 0; i-- {
			if items[i].Kind == KindMeta {
				continue
			}
			item := items[i]
			latest = &item
			break
		}
		if latest == nil {
			continue
		}
		list = append(list, TranscriptInfo{
			UID:         transcriptUID,
			LatestEntry: *latest,
			Timestamp:   latest.Timestamp,
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Timestamp > list[j].Timestamp
	})

	return list
}

func ensureSceneDir(baseDir string, scene string) (string, error) {
	if baseDir == "" {
		return "", errors.New("game history base dir is empty")
	}
	if !safeNamePattern.MatchString(scene) {
		return "", errors.New("invalid scene")
	}
	path := filepath.Join(baseDir, scene)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", err
	}
	return path, nil
}

func transcriptPath(baseDir string, scene string, transcriptUID string) (string, error) {
	if baseDir == "" {
		return "", errors.New("game history base dir is empty")
	}
	if !safeNamePattern.MatchString(scene) || !safeNamePattern.MatchString(transcriptUID) {
		return "", errors.New("invalid transcript path")
	}
	return filepath.Join(baseDir, scene, transcriptUID+".json"), nil
}

func readTranscript(path string) ([]TranscriptEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []TranscriptEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeTranscript(path string, entries []TranscriptEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
