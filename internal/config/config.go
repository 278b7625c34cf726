package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds client settings plus the [server] table.
type Config struct {
	ServerURL          string
	SessionPath        string
	KeepSession        bool
	LogPath            string
	Debug              bool
	FlashcardSeconds   int
	AudioOutput        string
	AudioDevice        string
	FFmpegPath         string
	Theme              string
	ResultsPollSeconds int

	Server Server
}

// Server holds settings for kavita-server.
type Server struct {
	Listen        string
	Mode          string
	ResultsDriver string
	ResultsPath   string
	ContentPath   string
	TTSCacheDir   string
	VoiceID       string
	ModelID       string
	APIKey        string
	TTSPerMinute  int
	LogPath       string
}

const (
	defaultConfigPath   = "~/.config/kavita/config.toml"
	defaultServerURL    = "127.0.0.1:8787"
	defaultSessionPath  = "~/.local/state/kavita/session.toml"
	defaultLogPath      = "~/.local/state/kavita/kavita.log"
	defaultFlashcardSec = 7
	defaultAudioOutput  = "pulse"
	defaultAudioDevice  = "default"
	defaultTheme        = "Nightfox"
	defaultPollSeconds  = 10

	defaultListen        = "127.0.0.1:8787"
	defaultMode          = "release"
	defaultResultsDriver = "file"
	defaultResultsPath   = "~/.local/share/kavita/results.json"
	defaultContentPath   = "~/.local/share/kavita/content.json"
	defaultTTSCacheDir   = "~/.cache/kavita/tts"
	defaultTTSPerMinute  = 30
	defaultServerLogPath = "~/.local/state/kavita/server.log"
)

// Environment variables that override the [server] table.
const (
	EnvAPIKey  = "ELEVENLABS_API_KEY"
	EnvVoiceID = "ELEVENLABS_VOICE_ID"
	EnvModelID = "ELEVENLABS_MODEL_ID"
)

type rawConfig struct {
	ServerURL          string    `toml:"server_url"`
	SessionPath        string    `toml:"session_path"`
	KeepSession        bool      `toml:"keep_session"`
	LogPath            string    `toml:"log_path"`
	Debug              bool      `toml:"debug"`
	FlashcardSeconds   int       `toml:"flashcard_seconds"`
	AudioOutput        string    `toml:"audio_output"`
	AudioDevice        string    `toml:"audio_device"`
	FFmpegPath         string    `toml:"ffmpeg_path"`
	Theme              string    `toml:"theme"`
	ResultsPollSeconds int       `toml:"results_poll_seconds"`
	Server             rawServer `toml:"server"`
}

type rawServer struct {
	Listen        string `toml:"listen"`
	Mode          string `toml:"mode"`
	ResultsDriver string `toml:"results_driver"`
	ResultsPath   string `toml:"results_path"`
	ContentPath   string `toml:"content_path"`
	TTSCacheDir   string `toml:"tts_cache_dir"`
	VoiceID       string `toml:"voice_id"`
	ModelID       string `toml:"model_id"`
	TTSPerMinute  int    `toml:"tts_per_minute"`
	LogPath       string `toml:"log_path"`
}

// Load parses the config at path, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw rawConfig
	file, err := os.Open(resolved)
	switch {
	case err == nil:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("open config: %w", err)
	}

	cfg := Config{
		ServerURL:          orDefault(raw.ServerURL, defaultServerURL),
		SessionPath:        mustExpand(orDefault(raw.SessionPath, defaultSessionPath)),
		KeepSession:        raw.KeepSession,
		LogPath:            mustExpand(orDefault(raw.LogPath, defaultLogPath)),
		Debug:              raw.Debug,
		FlashcardSeconds:   positiveOr(raw.FlashcardSeconds, defaultFlashcardSec),
		AudioOutput:        strings.ToLower(orDefault(raw.AudioOutput, defaultAudioOutput)),
		AudioDevice:        orDefault(raw.AudioDevice, defaultAudioDevice),
		FFmpegPath:         strings.TrimSpace(raw.FFmpegPath),
		Theme:              orDefault(raw.Theme, defaultTheme),
		ResultsPollSeconds: positiveOr(raw.ResultsPollSeconds, defaultPollSeconds),
		Server: Server{
			Listen:        orDefault(raw.Server.Listen, defaultListen),
			Mode:          orDefault(raw.Server.Mode, defaultMode),
			ResultsDriver: orDefault(raw.Server.ResultsDriver, defaultResultsDriver),
			ResultsPath:   mustExpand(orDefault(raw.Server.ResultsPath, defaultResultsPath)),
			ContentPath:   mustExpand(orDefault(raw.Server.ContentPath, defaultContentPath)),
			TTSCacheDir:   mustExpand(orDefault(raw.Server.TTSCacheDir, defaultTTSCacheDir)),
			VoiceID:       strings.TrimSpace(raw.Server.VoiceID),
			ModelID:       strings.TrimSpace(raw.Server.ModelID),
			TTSPerMinute:  positiveOr(raw.Server.TTSPerMinute, defaultTTSPerMinute),
			LogPath:       mustExpand(orDefault(raw.Server.LogPath, defaultServerLogPath)),
		},
	}
	if cfg.FFmpegPath != "" {
		cfg.FFmpegPath = mustExpand(cfg.FFmpegPath)
	}
	applyEnv(&cfg.Server)
	return cfg, nil
}

func applyEnv(s *Server) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		s.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvVoiceID)); v != "" {
		s.VoiceID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvModelID)); v != "" {
		s.ModelID = v
	}
}

// FlashcardPeriod returns the carousel interval.
func (c Config) FlashcardPeriod() time.Duration {
	return time.Duration(positiveOr(c.FlashcardSeconds, defaultFlashcardSec)) * time.Second
}

// PollInterval returns the dashboard refresh interval.
func (c Config) PollInterval() time.Duration {
	return time.Duration(positiveOr(c.ResultsPollSeconds, defaultPollSeconds)) * time.Second
}

// ClientLogPath returns the client log file, defaulting when unset.
func (c Config) ClientLogPath() string {
	if strings.TrimSpace(c.LogPath) == "" {
		return mustExpand(defaultLogPath)
	}
	return c.LogPath
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
