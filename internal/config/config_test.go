package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIKey, "")

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != defaultServerURL {
		t.Fatalf("ServerURL = %q, want %q", cfg.ServerURL, defaultServerURL)
	}
	wantSession, err := expandPath(defaultSessionPath)
	if err != nil {
		t.Fatalf("expandPath(defaultSessionPath) returned error: %v", err)
	}
	if cfg.SessionPath != wantSession {
		t.Fatalf("SessionPath = %q, want %q", cfg.SessionPath, wantSession)
	}
	if cfg.FlashcardPeriod() != 7*time.Second {
		t.Fatalf("FlashcardPeriod = %v, want 7s", cfg.FlashcardPeriod())
	}
	if cfg.AudioOutput != "pulse" || cfg.Theme != defaultTheme {
		t.Fatalf("AudioOutput/Theme = %q/%q", cfg.AudioOutput, cfg.Theme)
	}
	if cfg.Server.ResultsDriver != "file" || cfg.Server.TTSPerMinute != 30 {
		t.Fatalf("Server = %+v", cfg.Server)
	}
	if !strings.HasPrefix(cfg.Server.ResultsPath, home) {
		t.Fatalf("ResultsPath = %q, want it under HOME %q", cfg.Server.ResultsPath, home)
	}
	if cfg.Server.APIKey != "" {
		t.Fatalf("APIKey = %q, want empty", cfg.Server.APIKey)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
server_url = "  10.0.0.5:9999  "
session_path = "  ~/kavita/session.toml  "
keep_session = true
flashcard_seconds = 3
audio_output = "NONE"
theme = "Slate"

[server]
listen = ":9000"
results_driver = "sqlite3"
results_path = "~/kavita/results.db"
tts_per_minute = 5
voice_id = "abc"
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "10.0.0.5:9999" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.SessionPath != filepath.Join(home, "kavita", "session.toml") {
		t.Fatalf("SessionPath = %q", cfg.SessionPath)
	}
	if !cfg.KeepSession || cfg.FlashcardPeriod() != 3*time.Second || cfg.AudioOutput != "none" || cfg.Theme != "Slate" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Server.Listen != ":9000" || cfg.Server.ResultsDriver != "sqlite3" || cfg.Server.TTSPerMinute != 5 || cfg.Server.VoiceID != "abc" {
		t.Fatalf("Server = %+v", cfg.Server)
	}
	if cfg.Server.ResultsPath != filepath.Join(home, "kavita", "results.db") {
		t.Fatalf("ResultsPath = %q", cfg.Server.ResultsPath)
	}
}

func TestLoad_EnvOverridesServerTable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvAPIKey, " key-123 ")
	t.Setenv(EnvVoiceID, "voice-env")
	t.Setenv(EnvModelID, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server]\nvoice_id = \"voice-file\"\nmodel_id = \"model-file\"\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.APIKey != "key-123" || cfg.Server.VoiceID != "voice-env" || cfg.Server.ModelID != "model-file" {
		t.Fatalf("Server = %+v", cfg.Server)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`
server_url = "   "
flashcard_seconds = -4
[server]
mode = ""
`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != defaultServerURL {
		t.Fatalf("ServerURL = %q, want %q", cfg.ServerURL, defaultServerURL)
	}
	if cfg.FlashcardSeconds != defaultFlashcardSec {
		t.Fatalf("FlashcardSeconds = %d", cfg.FlashcardSeconds)
	}
	if cfg.Server.Mode != defaultMode {
		t.Fatalf("Mode = %q", cfg.Server.Mode)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`server_url = [`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestClientLogPath_DefaultsWhenEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.ClientLogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("ClientLogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/kavita.log")) {
		t.Fatalf("ClientLogPath = %q, want it to end with /kavita.log", got)
	}
}
