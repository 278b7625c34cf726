package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSynthesizeNotConfigured(t *testing.T) {
	c := NewClient(Options{})
	if _, err := c.Synthesize(context.Background(), "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSynthesizeCallsUpstreamAndCaches(t *testing.T) {
	var calls atomic.Int32
	var gotKey, gotPath string
	var gotBody struct {
		Text          string             `json:"text"`
		ModelID       string             `json:"model_id"`
		VoiceSettings map[string]float64 `json:"voice_settings"`
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotKey = r.Header.Get("xi-api-key")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	t.Cleanup(upstream.Close)

	c := NewClient(Options{APIKey: "secret", BaseURL: upstream.URL, CacheDir: t.TempDir()})
	for i := 0; i < 2; i++ {
		audio, err := c.Synthesize(context.Background(), "  a line  ")
		if err != nil {
			t.Fatalf("Synthesize: %v", err)
		}
		if string(audio) != "mp3-bytes" {
			t.Fatalf("audio = %q", audio)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream calls = %d, want 1 (second served from cache)", calls.Load())
	}
	if gotKey != "secret" {
		t.Fatalf("xi-api-key = %q", gotKey)
	}
	if gotPath != "/v1/text-to-speech/"+DefaultVoiceID {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody.Text != "a line" || gotBody.ModelID != DefaultModelID {
		t.Fatalf("body = %+v", gotBody)
	}
	if gotBody.VoiceSettings["stability"] != 0.4 || gotBody.VoiceSettings["similarity_boost"] != 0.85 {
		t.Fatalf("voice settings = %v", gotBody.VoiceSettings)
	}
}

func TestSynthesizeUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusUnauthorized)
	}))
	t.Cleanup(upstream.Close)

	c := NewClient(Options{APIKey: "k", BaseURL: upstream.URL})
	_, err := c.Synthesize(context.Background(), "hi")
	var up *UpstreamError
	if !errors.As(err, &up) || up.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want UpstreamError 401", err)
	}
}

func TestCacheKeyDependsOnVoice(t *testing.T) {
	a := NewClient(Options{VoiceID: "v1"})
	b := NewClient(Options{VoiceID: "v2"})
	if a.cacheKey("x") == b.cacheKey("x") {
		t.Fatalf("cache key ignores voice id")
	}
}
