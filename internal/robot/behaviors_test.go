package robot

import (
	"strings"
	"testing"
	"time"
)

func TestActionForBehaviorMotions(t *testing.T) {
	tests := []struct {
		behavior string
		motion   string
	}{
		{behavior: Excited, motion: MotionExcited},
		{behavior: HappyDance, motion: MotionHappyDance},
		{behavior: Curious, motion: MotionPoseForward},
		{behavior: Celebration, motion: MotionCircling},
		{behavior: Wink, motion: MotionNod},
		{behavior: Sad, motion: MotionSad},
		{behavior: Comfort, motion: MotionFlatAgreement},
		{behavior: Disappointed, motion: MotionFrustrated},
	}
	for _, tt := range tests {
		action, err := ActionForBehavior(tt.behavior)
		if err != nil {
			t.Fatalf("ActionForBehavior(%q) error = %v", tt.behavior, err)
		}
		if action.Motion != tt.motion {
			t.Fatalf("ActionForBehavior(%q).Motion = %q, want %q", tt.behavior, action.Motion, tt.motion)
		}
		if action.Behavior != tt.behavior {
			t.Fatalf("ActionForBehavior(%q).Behavior = %q", tt.behavior, action.Behavior)
		}
	}
}

func TestActionForBehaviorLookAt(t *testing.T) {
	action, err := ActionForBehavior(LookAtTablet)
	if err != nil {
		t.Fatalf("ActionForBehavior() error = %v", err)
	}
	if action.LookAt == nil {
		t.Fatal("LookAt = nil, want vector")
	}
	if action.LookAt.Y != -10 || action.LookAt.Z != 20 {
		t.Fatalf("LookAt = %+v, want {0 -10 20}", *action.LookAt)
	}
}

func TestActionForBehaviorSayWord(t *testing.T) {
	action, err := ActionForBehavior(SayWord, "Giraffe")
	if err != nil {
		t.Fatalf("ActionForBehavior() error = %v", err)
	}
	want := "game_speech/object_words/giraffe.mp3"
	if action.Speech != want {
		t.Fatalf("Speech = %q, want %q", action.Speech, want)
	}
	if !action.Enqueue {
		t.Fatal("Enqueue = false, want true")
	}
}

func TestActionForBehaviorSpeechRequiresArg(t *testing.T) {
	for _, behavior := range []string{CustomSpeech, SayWord, VocabExplanation, HintSpeech, KeywordDefinition} {
		if _, err := ActionForBehavior(behavior); err == nil {
			t.Fatalf("ActionForBehavior(%q) without args expected error", behavior)
		}
	}
}

func TestActionForBehaviorVirtualRejected(t *testing.T) {
	if _, err := ActionForBehavior(VirtualClickCorrect); err == nil {
		t.Fatal("ActionForBehavior(virtual) expected error")
	}
}

func TestActionForBehaviorUnknown(t *testing.T) {
	if _, err := ActionForBehavior("ROBOT_BACKFLIP"); err == nil {
		t.Fatal("ActionForBehavior(unknown) expected error")
	}
}

func TestIsVirtual(t *testing.T) {
	if !IsVirtual(VirtualExplore) {
		t.Fatal("IsVirtual(EXPLORING) = false, want true")
	}
	if IsVirtual(HappyDance) {
		t.Fatal("IsVirtual(ROBOT_HAPPY_DANCE) = true, want false")
	}
}

func TestRolesBehaviorsMap(t *testing.T) {
	m, err := NewRolesBehaviorsMap()
	if err != nil {
		t.Fatalf("NewRolesBehaviorsMap() error = %v", err)
	}

	physical := m.Physical("expert", "robot")
	if len(physical) == 0 {
		t.Fatal("expert robot turn has no physical behaviors")
	}
	found := false
	for _, b := range physical {
		if b == SayWord {
			found = true
		}
	}
	if !found {
		t.Fatalf("expert robot turn physical = %v, want %q present", physical, SayWord)
	}

	virtual := m.Virtual("novice", "robot")
	for _, b := range virtual {
		if !IsVirtual(b) {
			t.Fatalf("novice robot turn virtual contains non-virtual behavior %q", b)
		}
	}
}

func TestRolesBehaviorsMapFallsBackToBackup(t *testing.T) {
	m, err := NewRolesBehaviorsMap()
	if err != nil {
		t.Fatalf("NewRolesBehaviorsMap() error = %v", err)
	}

	physical := m.Physical("wizard", "robot")
	backup := m.Physical("backup", "robot")
	if len(physical) != len(backup) {
		t.Fatalf("unknown role physical = %v, want backup %v", physical, backup)
	}
	for i := range physical {
		if physical[i] != backup[i] {
			t.Fatalf("unknown role physical = %v, want backup %v", physical, backup)
		}
	}
}

func TestRolesBehaviorsMapActionsResolvable(t *testing.T) {
	m, err := NewRolesBehaviorsMap()
	if err != nil {
		t.Fatalf("NewRolesBehaviorsMap() error = %v", err)
	}

	for _, role := range []string{"expert", "novice", "backup"} {
		for _, turn := range []string{"robot", "child"} {
			for _, behavior := range m.Physical(role, turn) {
				if _, err := ActionForBehavior(behavior, "word"); err != nil {
					t.Fatalf("behavior %q for %s/%s not resolvable: %v", behavior, role, turn, err)
				}
			}
			for _, behavior := range m.Virtual(role, turn) {
				if !IsVirtual(behavior) {
					t.Fatalf("virtual list for %s/%s contains %q", role, turn, behavior)
				}
			}
		}
	}
}

func TestNextBackoffCaps(t *testing.T) {
	if got := nextBackoff(time.Second); got != 2*time.Second {
		t.Fatalf("nextBackoff(1s) = %v, want 2s", got)
	}
	if got := nextBackoff(20 * time.Second); got != 30*time.Second {
		t.Fatalf("nextBackoff(20s) = %v, want 30s", got)
	}
	if got := nextBackoff(30 * time.Second); got != 30*time.Second {
		t.Fatalf("nextBackoff(30s) = %v, want 30s", got)
	}
}

func TestIntToString(t *testing.T) {
	if got := intToString(0); got != "0" {
		t.Fatalf("intToString(0) = %q, want %q", got, "0")
	}
	if got := intToString(213); got != "213" {
		t.Fatalf("intToString(213) = %q, want %q", got, "213")
	}
}

func TestSpeechPathsShareRoot(t *testing.T) {
	action, err := ActionForBehavior(VocabExplanation, "lion")
	if err != nil {
		t.Fatalf("ActionForBehavior() error = %v", err)
	}
	if !strings.HasPrefix(action.Speech, speechRoot) {
		t.Fatalf("Speech = %q, want prefix %q", action.Speech, speechRoot)
	}
}
