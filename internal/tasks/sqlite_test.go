package tasks

import (
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	r, err := NewSQLiteRepo(filepath.Join(t.TempDir(), "tasks.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepo() error = %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSaveAssignsID(t *testing.T) {
	r := newTestRepo(t)

	task := &Task{Word: "giraffe", Description: "I spy a tall animal", Scene: "jungle"}
	if err := r.Save(task); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if task.ID == 0 {
		t.Fatalf("Save() left ID unset")
	}

	got, err := r.Get(task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Word != "giraffe" || got.Scene != "jungle" || got.Done {
		t.Fatalf("Get() = %+v, want saved task", got)
	}
}

func TestSaveRejectsEmpty(t *testing.T) {
	r := newTestRepo(t)

	if err := r.Save(&Task{Description: "no word", Scene: "jungle"}); err == nil {
		t.Fatalf("Save() with empty word expected error")
	}
	if err := r.Save(&Task{Word: "giraffe"}); err == nil {
		t.Fatalf("Save() with empty scene expected error")
	}
}

func TestSaveUpsertsSameWord(t *testing.T) {
	r := newTestRepo(t)

	first := &Task{Word: "lion", Description: "old prompt", Scene: "jungle"}
	if err := r.Save(first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := r.MarkDone(first.ID); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}

	second := &Task{Word: "lion", Description: "new prompt", Scene: "jungle"}
	if err := r.Save(second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert ID = %d, want %d", second.ID, first.ID)
	}

	got, err := r.Get(first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Description != "new prompt" {
		t.Fatalf("Description = %q, want %q", got.Description, "new prompt")
	}
	if got.Done {
		t.Fatalf("upsert should reset done flag")
	}
}

func TestListBySceneOrdered(t *testing.T) {
	r := newTestRepo(t)

	words := []string{"boat", "dolphin", "seashell"}
	for _, w := range words {
		if err := r.Save(&Task{Word: w, Description: "find the " + w, Scene: "beach"}); err != nil {
			t.Fatalf("Save(%q) error = %v", w, err)
		}
	}
	if err := r.Save(&Task{Word: "lion", Description: "find the lion", Scene: "jungle"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := r.ListByScene("beach")
	if err != nil {
		t.Fatalf("ListByScene() error = %v", err)
	}
	if len(got) != len(words) {
		t.Fatalf("len = %d, want %d", len(got), len(words))
	}
	for i, w := range words {
		if got[i].Word != w {
			t.Fatalf("got[%d].Word = %q, want %q", i, got[i].Word, w)
		}
	}
}

func TestMarkDoneAndDelete(t *testing.T) {
	r := newTestRepo(t)

	task := &Task{Word: "duck", Description: "find the duck", Scene: "farm"}
	if err := r.Save(task); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := r.MarkDone(task.ID); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}
	got, err := r.Get(task.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Done {
		t.Fatalf("Done = false, want true")
	}

	if err := r.Delete(task.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := r.Get(task.ID); err == nil {
		t.Fatalf("Get() after delete expected error")
	}
	if err := r.MarkDone(task.ID); err == nil {
		t.Fatalf("MarkDone() on missing task expected error")
	}
	if err := r.Delete(task.ID); err == nil {
		t.Fatalf("Delete() on missing task expected error")
	}
}
