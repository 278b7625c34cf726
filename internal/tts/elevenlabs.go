// Package tts synthesises narration audio through ElevenLabs with a disk
// cache in front of it.
package tts

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModelID = "eleven_multilingual_v2"
	defaultBaseURL = "https://api.elevenlabs.io"
	stability      = 0.4
	similarity     = 0.85
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("tts api key not configured")

// UpstreamError reports a non-200 answer from the voice provider.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("tts upstream returned status %d", e.Status)
}

// Options configure a Client.
type Options struct {
	APIKey   string
	VoiceID  string
	ModelID  string
	CacheDir string
	BaseURL  string
	HTTP     *http.Client
	Logger   *zap.Logger
}

// Client calls the ElevenLabs text-to-speech API.
type Client struct {
	apiKey   string
	voiceID  string
	modelID  string
	cacheDir string
	baseURL  string
	http     *http.Client
	log      *zap.Logger
	mu       sync.Mutex
}

// NewClient builds a client. A blank CacheDir disables caching.
func NewClient(opts Options) *Client {
	c := &Client{
		apiKey:   strings.TrimSpace(opts.APIKey),
		voiceID:  strings.TrimSpace(opts.VoiceID),
		modelID:  strings.TrimSpace(opts.ModelID),
		cacheDir: strings.TrimSpace(opts.CacheDir),
		baseURL:  strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		http:     opts.HTTP,
		log:      opts.Logger,
	}
	if c.voiceID == "" {
		c.voiceID = DefaultVoiceID
	}
	if c.modelID == "" {
		c.modelID = DefaultModelID
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 30 * time.Second}
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.cacheDir != "" {
		if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
			c.log.Warn("tts cache disabled", zap.String("dir", c.cacheDir), zap.Error(err))
			c.cacheDir = ""
		}
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) cacheKey(text string) string {
	h := sha256.Sum256([]byte(c.voiceID + ":" + c.modelID + ":" + text))
	return hex.EncodeToString(h[:16])
}

// Synthesize returns MP3 audio for text, from cache when possible.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is empty")
	}

	var cachePath string
	if c.cacheDir != "" {
		cachePath = filepath.Join(c.cacheDir, c.cacheKey(text)+".mp3")
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cachePath != "" {
		if data, err := os.ReadFile(cachePath); err == nil {
			return data, nil
		}
	}

	data, err := c.call(ctx, text)
	if err != nil {
		return nil, err
	}
	if cachePath != "" {
		if err := os.WriteFile(cachePath, data, 0o644); err != nil {
			c.log.Warn("tts cache write failed", zap.Error(err))
		}
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, text string) ([]byte, error) {
	reqBody := map[string]any{
		"text":     text,
		"model_id": c.modelID,
		"voice_settings": map[string]float64{
			"stability":        stability,
			"similarity_boost": similarity,
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Warn("tts upstream error", zap.Int("status", resp.StatusCode), zap.Int("body_bytes", len(body)))
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
