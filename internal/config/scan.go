package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProfileInfo represents a profileInfo.
type ProfileInfo struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Scene    string `json:"scene"`
}

// GameProfile represents a gameProfile.
type GameProfile struct {
	Name      string   `yaml:"name" json:"name"`
	Scene     string   `yaml:"scene" json:"scene"`
	RobotRole string   `yaml:"robot_role" json:"robot_role"`
	Words     []string `yaml:"words" json:"words"`
}

// ScanGameProfiles executes the scanGameProfiles function.
func ScanGameProfiles(profilesDir string) ([]ProfileInfo, error) {
	profiles := []ProfileInfo{}
	if profilesDir == "" {
		return profiles, nil
	}

	_ = filepath.WalkDir(profilesDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || d == nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".yaml") {
			return nil
		}
		profile, err := ReadGameProfile(path)
		name := d.Name()
		scene := ""
		if err == nil {
			if profile.Name != "" {
				name = profile.Name
			}
			scene = profile.Scene
		}
		profiles = append(profiles, ProfileInfo{Filename: d.Name(), Name: name, Scene: scene})
		return nil
	})

	return profiles, nil
}

// ReadGameProfile executes the readGameProfile function.
func ReadGameProfile(path string) (GameProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameProfile{}, err
	}
	var profile GameProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return GameProfile{}, err
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(path), ".yaml")
	}
	if profile.Scene == "" {
		profile.Scene = profile.Name
	}
	return profile, nil
}

// FindGameProfile executes the findGameProfile function.
func FindGameProfile(profilesDir string, filename string) (GameProfile, error) {
	if strings.ContainsAny(filename, "/\\") || filename == "" {
		return GameProfile{}, errors.New("invalid profile filename")
	}
	if !strings.HasSuffix(filename, ".yaml") {
		filename += ".yaml"
	}
	return ReadGameProfile(filepath.Join(profilesDir, filename))
}
