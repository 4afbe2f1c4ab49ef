package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestTopLevelSpeechEnabledExplicitFromConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader("speech_enabled: false\n")); err != nil {
		t.Fatalf("ReadConfig error: %v", err)
	}

	if !isTopLevelSpeechEnabledExplicit(v) {
		t.Fatal("isTopLevelSpeechEnabledExplicit=false, want true")
	}
	if isSystemSpeechEnabledExplicit(v) {
		t.Fatal("isSystemSpeechEnabledExplicit=true, want false")
	}
}

func TestSystemSpeechEnabledExplicitFromConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader("system_config:\n  speech_enabled: false\n")); err != nil {
		t.Fatalf("ReadConfig error: %v", err)
	}

	if isTopLevelSpeechEnabledExplicit(v) {
		t.Fatal("isTopLevelSpeechEnabledExplicit=true, want false")
	}
	if !isSystemSpeechEnabledExplicit(v) {
		t.Fatal("isSystemSpeechEnabledExplicit=false, want true")
	}
}

func TestSpeechEnabledExplicitFromEnv(t *testing.T) {
	v := viper.New()

	t.Setenv("UGC_SPEECH_ENABLED", "false")
	if !isTopLevelSpeechEnabledExplicit(v) {
		t.Fatal("isTopLevelSpeechEnabledExplicit=false with env, want true")
	}

	t.Setenv("UGC_SYSTEM_CONFIG_SPEECH_ENABLED", "false")
	if !isSystemSpeechEnabledExplicit(v) {
		t.Fatal("isSystemSpeechEnabledExplicit=false with env, want true")
	}
}

func TestAudioMonitorExplicitFromEnv(t *testing.T) {
	v := viper.New()

	if isTopLevelAudioMonitorExplicit(v) {
		t.Fatal("isTopLevelAudioMonitorExplicit=true without env, want false")
	}

	t.Setenv("UGC_AUDIO_MONITOR", "true")
	if !isTopLevelAudioMonitorExplicit(v) {
		t.Fatal("isTopLevelAudioMonitorExplicit=false with env, want true")
	}

	t.Setenv("UGC_SYSTEM_CONFIG_AUDIO_MONITOR", "true")
	if !isSystemAudioMonitorExplicit(v) {
		t.Fatal("isSystemAudioMonitorExplicit=false with env, want true")
	}
}

func TestReadGameProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jungle.yaml")
	body := "name: Jungle Hunt\nscene: jungle\nrobot_role: expert\nwords:\n  - giraffe\n  - lion\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	profile, err := ReadGameProfile(path)
	if err != nil {
		t.Fatalf("ReadGameProfile error: %v", err)
	}
	if profile.Name != "Jungle Hunt" || profile.Scene != "jungle" || profile.RobotRole != "expert" {
		t.Fatalf("profile = %+v, want parsed fields", profile)
	}
	if len(profile.Words) != 2 || profile.Words[0] != "giraffe" {
		t.Fatalf("Words = %v, want [giraffe lion]", profile.Words)
	}
}

func TestReadGameProfileDefaultsNameAndScene(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beach.yaml")
	if err := os.WriteFile(path, []byte("words:\n  - boat\n"), 0o644); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	profile, err := ReadGameProfile(path)
	if err != nil {
		t.Fatalf("ReadGameProfile error: %v", err)
	}
	if profile.Name != "beach" {
		t.Fatalf("Name = %q, want %q", profile.Name, "beach")
	}
	if profile.Scene != "beach" {
		t.Fatalf("Scene = %q, want %q", profile.Scene, "beach")
	}
}

func TestScanGameProfiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"jungle.yaml": "name: Jungle Hunt\nscene: jungle\n",
		"beach.yaml":  "scene: beach\n",
		"notes.txt":   "ignore me",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("WriteFile error: %v", err)
		}
	}

	profiles, err := ScanGameProfiles(dir)
	if err != nil {
		t.Fatalf("ScanGameProfiles error: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("len = %d, want 2", len(profiles))
	}
	for _, p := range profiles {
		if p.Scene == "" {
			t.Fatalf("profile %q has empty scene", p.Filename)
		}
	}
}

func TestFindGameProfileRejectsPathTraversal(t *testing.T) {
	if _, err := FindGameProfile(t.TempDir(), "../conf"); err == nil {
		t.Fatal("FindGameProfile with path separator expected error")
	}
	if _, err := FindGameProfile(t.TempDir(), ""); err == nil {
		t.Fatal("FindGameProfile with empty name expected error")
	}
}

func TestSanitizeSceneName(t *testing.T) {
	if got := sanitizeSceneName("Deep Sea!"); got != "Deep_Sea" {
		t.Fatalf("sanitizeSceneName = %q, want %q", got, "Deep_Sea")
	}
	if got := sanitizeSceneName("  "); got != "default" {
		t.Fatalf("sanitizeSceneName = %q, want %q", got, "default")
	}
}
