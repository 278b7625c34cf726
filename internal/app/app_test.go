package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/five82/kavita/internal/api"
	"github.com/five82/kavita/internal/config"
	"github.com/five82/kavita/internal/narration"
)

func contentServer(t *testing.T, status int, body string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/content" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	client, err := api.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestLoadCatalogMergesOverride(t *testing.T) {
	client := contentServer(t, http.StatusOK, `{
		"class_9": {"id": "class_9", "name": "Class 9", "chapters": [{"id": "ch1", "name": "Chapter 1: Dust of Snow", "poem": "The way a crow"}]},
		"class_6": {"name": "Grade Six"}
	}`)
	cat, err := loadCatalog(context.Background(), client, zap.NewNop())
	if err != nil {
		t.Fatalf("loadCatalog: %v", err)
	}
	if _, ok := cat.ByID("class_9"); !ok {
		t.Fatal("override class missing")
	}
	six, ok := cat.ByID("class_6")
	if !ok || six.Name != "Grade Six" {
		t.Fatalf("class_6 = %+v", six)
	}
	if len(six.Chapters) != 3 {
		t.Fatalf("class_6 chapters = %d, want built-in 3 kept", len(six.Chapters))
	}
}

func TestLoadCatalogKeepsBuiltinOnFailure(t *testing.T) {
	cases := map[string]*api.Client{
		"server error": contentServer(t, http.StatusInternalServerError, `{"error":"boom"}`),
		"not object":   contentServer(t, http.StatusOK, `["nope"]`),
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			cat, err := loadCatalog(context.Background(), client, zap.NewNop())
			if err != nil {
				t.Fatalf("loadCatalog: %v", err)
			}
			if cat.Len() != 3 {
				t.Fatalf("classes = %d, want built-in 3", cat.Len())
			}
		})
	}
}

func TestNewPlayer(t *testing.T) {
	if _, ok := newPlayer(config.Config{AudioOutput: "none"}).(narration.SilentPlayer); !ok {
		t.Fatal("audio_output none should use the silent player")
	}
	p, ok := newPlayer(config.Config{AudioOutput: "alsa", AudioDevice: "hw:0"}).(*narration.FFmpegPlayer)
	if !ok {
		t.Fatal("expected ffmpeg player")
	}
	if p.Format != "alsa" || p.Device != "hw:0" {
		t.Fatalf("player = %+v", p)
	}
}
