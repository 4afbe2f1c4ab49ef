package storage

import (
	"testing"
)

func TestTranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()

	uid, err := CreateTranscript(dir, "jungle")
	if err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	if uid == "" {
		t.Fatalf("CreateTranscript returned empty uid")
	}

	first := TranscriptEntry{
		Kind:      KindCommand,
		Direction: DirectionToTablet,
		Code:      34,
		Name:      "SET_GAME_SCENE",
		Detail:    "jungle",
	}
	if err := AppendTranscript(dir, "jungle", uid, first); err != nil {
		t.Fatalf("AppendTranscript: %v", err)
	}
	second := TranscriptEntry{
		Kind:      KindEvent,
		Direction: DirectionFromTablet,
		Code:      31,
		Name:      "OBJECT_CLICKED",
		Detail:    `{"object":"lion","correct":true}`,
	}
	if err := AppendTranscript(dir, "jungle", uid, second); err != nil {
		t.Fatalf("AppendTranscript: %v", err)
	}

	entries, err := GetTranscript(dir, "jungle", uid)
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries=%d, want 2 (meta filtered)", len(entries))
	}
	if entries[0].Name != "SET_GAME_SCENE" || entries[1].Name != "OBJECT_CLICKED" {
		t.Errorf("order=%q,%q, want SET_GAME_SCENE,OBJECT_CLICKED", entries[0].Name, entries[1].Name)
	}
	if entries[1].Timestamp == "" {
		t.Errorf("append left timestamp empty")
	}
}

func TestTranscriptListNewestFirst(t *testing.T) {
	dir := t.TempDir()

	oldUID, err := CreateTranscript(dir, "beach")
	if err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	newUID, err := CreateTranscript(dir, "beach")
	if err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}

	older := TranscriptEntry{Kind: KindNote, Name: "start", Timestamp: "2026-01-01T10:00:00Z"}
	newer := TranscriptEntry{Kind: KindNote, Name: "start", Timestamp: "2026-01-02T10:00:00Z"}
	if err := AppendTranscript(dir, "beach", oldUID, older); err != nil {
		t.Fatalf("AppendTranscript: %v", err)
	}
	if err := AppendTranscript(dir, "beach", newUID, newer); err != nil {
		t.Fatalf("AppendTranscript: %v", err)
	}

	list := GetTranscriptList(dir, "beach")
	if len(list) != 2 {
		t.Fatalf("list=%d, want 2", len(list))
	}
	if list[0].UID != newUID {
		t.Errorf("list[0]=%s, want %s", list[0].UID, newUID)
	}
}

func TestTranscriptListSkipsEmpty(t *testing.T) {
	dir := t.TempDir()
	if _, err := CreateTranscript(dir, "farm"); err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	list := GetTranscriptList(dir, "farm")
	if len(list) != 0 {
		t.Errorf("list=%d, want 0 for meta-only transcript", len(list))
	}
}

func TestDeleteTranscript(t *testing.T) {
	dir := t.TempDir()
	uid, err := CreateTranscript(dir, "jungle")
	if err != nil {
		t.Fatalf("CreateTranscript: %v", err)
	}
	if !DeleteTranscript(dir, "jungle", uid) {
		t.Errorf("DeleteTranscript=false for existing transcript")
	}
	if DeleteTranscript(dir, "jungle", uid) {
		t.Errorf("DeleteTranscript=true for missing transcript")
	}
}

func TestTranscriptRejectsUnsafeNames(t *testing.T) {
	dir := t.TempDir()
	if _, err := CreateTranscript(dir, "../escape"); err == nil {
		t.Errorf("CreateTranscript accepted traversal scene")
	}
	if _, err := GetTranscript(dir, "jungle", "../../etc/passwd"); err == nil {
		t.Errorf("GetTranscript accepted traversal uid")
	}
	if err := AppendTranscript(dir, "jungle", "no such uid", TranscriptEntry{}); err == nil {
		t.Errorf("AppendTranscript accepted uid with spaces")
	}
}
