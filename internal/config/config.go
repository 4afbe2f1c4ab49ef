package config

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	appdefaults "github.com/eyzhang1221/unity-game-controllers/config"

	"github.com/eyzhang1221/unity-game-controllers/internal/logger"
	"github.com/spf13/viper"
)

// SystemConfig represents a systemConfig.
type SystemConfig struct {
	Host                string `mapstructure:"host"`
	Port                int    `mapstructure:"port"`
	GameProfilesDir     string `mapstructure:"game_profiles_dir"`
	GameProtocolVersion int    `mapstructure:"game_protocol_version"`
	GameAudioFormat     string `mapstructure:"game_audio_format"`
	GameSampleRate      int    `mapstructure:"game_sample_rate"`
	GameChannels        int    `mapstructure:"game_channels"`
	GameFrameDuration   int    `mapstructure:"game_frame_duration"`
	RobotBackendURL     string `mapstructure:"robot_backend_url"`
	RobotRole           string `mapstructure:"robot_role"`
	RobotDeviceID       string `mapstructure:"robot_device_id"`
	RobotClientID       string `mapstructure:"robot_client_id"`
	RobotAccessToken    string `mapstructure:"robot_access_token"`
	SpeechAPIURL        string `mapstructure:"speech_api_url"`
	SpeechAPIKey        string `mapstructure:"speech_api_key"`
	SpeechDialect       string `mapstructure:"speech_dialect"`
	SpeechPassThreshold int    `mapstructure:"speech_pass_threshold"`
	SpeechEnabled       bool   `mapstructure:"speech_enabled"`
	AudioMonitor        bool   `mapstructure:"audio_monitor"`
}

// Config represents a config.
type Config struct {
	RootDir             string        `mapstructure:"-"`
	HTTPAddr            string        `mapstructure:"http_addr"`
	GameProtocolVersion int           `mapstructure:"game_protocol_version"`
	GameAudioFormat     string        `mapstructure:"game_audio_format"`
	GameSampleRate      int           `mapstructure:"game_sample_rate"`
	GameChannels        int           `mapstructure:"game_channels"`
	GameFrameDuration   int           `mapstructure:"game_frame_duration"`
	DefaultScene        string        `mapstructure:"default_scene"`
	RobotBackendURL     string        `mapstructure:"robot_backend_url"`
	RobotRole           string        `mapstructure:"robot_role"`
	RobotDeviceID       string        `mapstructure:"robot_device_id"`
	RobotClientID       string        `mapstructure:"robot_client_id"`
	RobotAccessToken    string        `mapstructure:"robot_access_token"`
	SpeechAPIURL        string        `mapstructure:"speech_api_url"`
	SpeechAPIKey        string        `mapstructure:"speech_api_key"`
	SpeechDialect       string        `mapstructure:"speech_dialect"`
	SpeechPassThreshold int           `mapstructure:"speech_pass_threshold"`
	SpeechEnabled       bool          `mapstructure:"speech_enabled"`
	AudioMonitor        bool          `mapstructure:"audio_monitor"`
	GameProfilesDir     string        `mapstructure:"game_profiles_dir"`
	HistoryDir          string        `mapstructure:"history_dir"`
	RecordingsDir       string        `mapstructure:"recordings_dir"`
	TaskDBPath          string        `mapstructure:"task_db_path"`
	TLSCertPath         string        `mapstructure:"tls_cert_path"`
	TLSKeyPath          string        `mapstructure:"tls_key_path"`
	TLSRequired         bool          `mapstructure:"tls_required"`
	TLSDisable          bool          `mapstructure:"tls_disable"`
	SystemConfig        SystemConfig  `mapstructure:"system_config"`
	Log                 logger.Config `mapstructure:"log"`
}

// Load executes the load function.
func Load() (Config, error) {
	rootDir, err := resolveRootDir()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigName("conf")
	v.SetConfigType("yaml")
	v.AddConfigPath(rootDir)

	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return Config{}, fmt.Errorf("load embedded config: %w", err)
	}

	v.SetDefault("http_addr", "")
	v.SetDefault("game_protocol_version", 2)
	v.SetDefault("game_audio_format", "opus")
	v.SetDefault("game_sample_rate", 16000)
	v.SetDefault("game_channels", 1)
	v.SetDefault("game_frame_duration", 20)
	v.SetDefault("robot_role", "novice")
	v.SetDefault("speech_dialect", "en-us")
	v.SetDefault("speech_pass_threshold", 70)
	v.SetDefault("speech_enabled", true)
	v.SetDefault("audio_monitor", false)
	v.SetDefault("tls_required", false)
	v.SetDefault("tls_disable", false)
	v.SetDefault("tls_cert_path", "")
	v.SetDefault("tls_key_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)
	v.SetDefault("log.file.enabled", true)
	v.SetDefault("log.file.path", "./data/logs")
	v.SetDefault("log.file.name", "game-controllers.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.compress", true)

	v.SetEnvPrefix("ugc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RootDir = rootDir
	applySystemConfig(&cfg, v)
	deriveHTTPAddr(&cfg)
	derivePaths(&cfg)
	deriveSceneConfig(&cfg)

	return cfg, nil
}

// LoadConfig executes the loadConfig function.
func LoadConfig(configPath string) (Config, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		return Load()
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, err
	}

	rootDir := strings.TrimSpace(os.Getenv("UGC_ROOT_DIR"))
	if rootDir == "" {
		rootDir = filepath.Dir(absPath)
		if filepath.Base(rootDir) == "config" {
			rootDir = filepath.Dir(rootDir)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(appdefaults.Default)); err != nil {
		return Config{}, fmt.Errorf("load embedded config: %w", err)
	}

	v.SetDefault("http_addr", "")
	v.SetDefault("game_protocol_version", 2)
	v.SetDefault("game_audio_format", "opus")
	v.SetDefault("game_sample_rate", 16000)
	v.SetDefault("game_channels", 1)
	v.SetDefault("game_frame_duration", 20)
	v.SetDefault("robot_role", "novice")
	v.SetDefault("speech_dialect", "en-us")
	v.SetDefault("speech_pass_threshold", 70)
	v.SetDefault("speech_enabled", true)
	v.SetDefault("audio_monitor", false)
	v.SetDefault("tls_required", false)
	v.SetDefault("tls_disable", false)
	v.SetDefault("tls_cert_path", "")
	v.SetDefault("tls_key_path", "")

	v.SetEnvPrefix("ugc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(absPath)
	if err := v.MergeInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	cfg.RootDir = rootDir
	applySystemConfig(&cfg, v)
	deriveHTTPAddr(&cfg)
	derivePaths(&cfg)
	deriveSceneConfig(&cfg)

	return cfg, nil
}

func applySystemConfig(cfg *Config, v *viper.Viper) {
	system := cfg.SystemConfig
	if cfg.GameProtocolVersion == 0 {
		cfg.GameProtocolVersion = system.GameProtocolVersion
	}
	if cfg.GameAudioFormat == "" {
		cfg.GameAudioFormat = system.GameAudioFormat
	}
	if cfg.GameSampleRate == 0 {
		cfg.GameSampleRate = system.GameSampleRate
	}
	if cfg.GameChannels == 0 {
		cfg.GameChannels = system.GameChannels
	}
	if cfg.GameFrameDuration == 0 {
		cfg.GameFrameDuration = system.GameFrameDuration
	}
	if cfg.RobotBackendURL == "" {
		cfg.RobotBackendURL = system.RobotBackendURL
	}
	if cfg.RobotRole == "" {
		cfg.RobotRole = system.RobotRole
	}
	if cfg.RobotDeviceID == "" {
		cfg.RobotDeviceID = system.RobotDeviceID
	}
	if cfg.RobotClientID == "" {
		cfg.RobotClientID = system.RobotClientID
	}
	if cfg.RobotAccessToken == "" {
		cfg.RobotAccessToken = system.RobotAccessToken
	}
	if cfg.SpeechAPIURL == "" {
		cfg.SpeechAPIURL = system.SpeechAPIURL
	}
	if cfg.SpeechAPIKey == "" {
		cfg.SpeechAPIKey = system.SpeechAPIKey
	}
	if cfg.SpeechDialect == "" {
		cfg.SpeechDialect = system.SpeechDialect
	}
	if cfg.SpeechPassThreshold == 0 {
		cfg.SpeechPassThreshold = system.SpeechPassThreshold
	}
	if !isTopLevelSpeechEnabledExplicit(v) && isSystemSpeechEnabledExplicit(v) {
		cfg.SpeechEnabled = system.SpeechEnabled
	}
	if !isTopLevelAudioMonitorExplicit(v) && isSystemAudioMonitorExplicit(v) {
		cfg.AudioMonitor = system.AudioMonitor
	}
}

func isTopLevelSpeechEnabledExplicit(v *viper.Viper) bool {
	if _, ok := os.LookupEnv("UGC_SPEECH_ENABLED"); ok {
		return true
	}
	return v.InConfig("speech_enabled")
}

func isSystemSpeechEnabledExplicit(v *viper.Viper) bool {
	if _, ok := os.LookupEnv("UGC_SYSTEM_CONFIG_SPEECH_ENABLED"); ok {
		return true
	}
	return v.InConfig("system_config.speech_enabled")
}

func isTopLevelAudioMonitorExplicit(v *viper.Viper) bool {
	if _, ok := os.LookupEnv("UGC_AUDIO_MONITOR"); ok {
		return true
	}
	return v.InConfig("audio_monitor")
}

func isSystemAudioMonitorExplicit(v *viper.Viper) bool {
	if _, ok := os.LookupEnv("UGC_SYSTEM_CONFIG_AUDIO_MONITOR"); ok {
		return true
	}
	return v.InConfig("system_config.audio_monitor")
}

func deriveHTTPAddr(cfg *Config) {
	if cfg.HTTPAddr != "" {
		return
	}
	host := cfg.SystemConfig.Host
	port := cfg.SystemConfig.Port
	if port == 0 {
		port = 8110
	}
	if host == "" {
		cfg.HTTPAddr = fmt.Sprintf(":%d", port)
		return
	}
	cfg.HTTPAddr = net.JoinHostPort(host, strconv.Itoa(port))
}

func resolveRootDir() (string, error) {
	if root := strings.TrimSpace(os.Getenv("UGC_ROOT_DIR")); root != "" {
		return filepath.Abs(root)
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := wd
	for i := 0; i < 6; i++ {
		if fileExists(filepath.Join(dir, "conf.yaml")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return wd, nil
}

func derivePaths(cfg *Config) {
	profiles := cfg.GameProfilesDir
	if profiles == "" {
		profiles = cfg.SystemConfig.GameProfilesDir
	}
	cfg.GameProfilesDir = resolvePath(cfg.RootDir, profiles, "game_profiles")
	cfg.HistoryDir = resolvePath(cfg.RootDir, cfg.HistoryDir, filepath.Join("data", "game", "history"))
	cfg.RecordingsDir = resolvePath(cfg.RootDir, cfg.RecordingsDir, filepath.Join("data", "game", "recordings"))
	cfg.TaskDBPath = resolvePath(cfg.RootDir, cfg.TaskDBPath, filepath.Join("data", "game", "tasks.db"))
	cfg.TLSCertPath = resolvePath(cfg.RootDir, cfg.TLSCertPath, filepath.Join("certs", "server.crt"))
	cfg.TLSKeyPath = resolvePath(cfg.RootDir, cfg.TLSKeyPath, filepath.Join("certs", "server.key"))
}

func deriveSceneConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.DefaultScene == "" {
		if scene, err := loadFirstSceneName(cfg.GameProfilesDir); err == nil {
			cfg.DefaultScene = scene
		}
	}
	if cfg.DefaultScene == "" {
		cfg.DefaultScene = "jungle"
	}
	cfg.DefaultScene = sanitizeSceneName(cfg.DefaultScene)
	if cfg.RobotRole == "" {
		cfg.RobotRole = "novice"
	}
}

func loadFirstSceneName(profilesDir string) (string, error) {
	profiles, err := ScanGameProfiles(profilesDir)
	if err != nil {
		return "", err
	}
	for _, profile := range profiles {
		if profile.Scene != "" {
			return profile.Scene, nil
		}
	}
	return "", fmt.Errorf("no scene found in %s", profilesDir)
}

func sanitizeSceneName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "._-")
	if out == "" {
		return "default"
	}
	return out
}

func resolvePath(rootDir string, configured string, fallback string) string {
	path := strings.TrimSpace(configured)
	if path == "" {
		path = fallback
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(rootDir, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
