package speech

import (
	"testing"

	"github.com/eyzhang1221/unity-game-controllers/pkg/audio"
)

func TestRecorderRoundTrip(t *testing.T) {
	r := NewRecorder(ScoringSampleRate, 1)

	if err := r.Start("Cat"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !r.Active() {
		t.Fatalf("Active()=false after Start")
	}
	if got := r.Word(); got != "cat" {
		t.Errorf("Word()=%q, want cat", got)
	}

	if err := r.Append([]int16{1, 2, 3}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Append([]int16{4, 5}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	word, wav, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if word != "cat" {
		t.Errorf("word=%q, want cat", word)
	}

	pcm, rate, channels, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != ScoringSampleRate || channels != 1 {
		t.Errorf("rate=%d channels=%d, want %d/1", rate, channels, ScoringSampleRate)
	}
	want := []int16{1, 2, 3, 4, 5}
	if len(pcm) != len(want) {
		t.Fatalf("samples=%d, want %d", len(pcm), len(want))
	}
	for i := range want {
		if pcm[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, pcm[i], want[i])
		}
	}
}

func TestRecorderRejectsDoubleStart(t *testing.T) {
	r := NewRecorder(ScoringSampleRate, 1)
	if err := r.Start("cat"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start("dog"); err == nil {
		t.Errorf("Start accepted while active")
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	r := NewRecorder(ScoringSampleRate, 1)
	if _, _, err := r.Stop(); err == nil {
		t.Errorf("Stop accepted while idle")
	}
}

func TestRecorderStopWithoutAudio(t *testing.T) {
	r := NewRecorder(ScoringSampleRate, 1)
	if err := r.Start("cat"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := r.Stop(); err == nil {
		t.Errorf("Stop accepted an empty utterance")
	}
}

func TestRecorderDropsIdleFrames(t *testing.T) {
	r := NewRecorder(ScoringSampleRate, 1)
	if err := r.Append([]int16{1, 2}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := r.Start("cat"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Append([]int16{3}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	_, wav, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	pcm, _, _, err := audio.DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if len(pcm) != 1 || pcm[0] != 3 {
		t.Errorf("samples=%v, want [3]", pcm)
	}
}

func TestDownmixMono(t *testing.T) {
	stereo := []int16{10, 20, 30, 50}
	mono := downmixMono(stereo, 2)
	if len(mono) != 2 {
		t.Fatalf("len=%d, want 2", len(mono))
	}
	if mono[0] != 15 || mono[1] != 40 {
		t.Errorf("mono=%v, want [15 40]", mono)
	}
}
