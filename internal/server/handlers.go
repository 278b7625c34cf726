package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/five82/kavita/internal/catalog"
	"github.com/five82/kavita/internal/results"
	"github.com/five82/kavita/internal/tts"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": s.now().UTC()})
}

func (s *Server) saveResult(c *gin.Context) {
	var rec results.Record
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&rec); err != nil {
		s.log.Warn("save-result decode failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "Invalid data"})
		return
	}
	if err := rec.Validate(); err != nil {
		s.log.Warn("save-result rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "message": "Invalid data"})
		return
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now().UTC()
	}
	if err := s.store.Append(c.Request.Context(), rec); err != nil {
		s.log.Error("save-result append failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "message": "Could not save result"})
		return
	}
	s.log.Info("result saved",
		zap.String("id", rec.ID),
		zap.String("class", rec.ClassID),
		zap.String("chapter", rec.ChapterID),
		zap.Int("score", rec.Score),
		zap.Int("total", rec.TotalQuestions),
	)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) listResults(c *gin.Context) {
	records, err := s.store.List(c.Request.Context())
	if err != nil {
		s.log.Error("list results failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load results"})
		return
	}
	if records == nil {
		records = []results.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// content serves the override document. A missing or malformed file is
// served as an empty object so clients keep their built-in catalog.
func (s *Server) content(c *gin.Context) {
	empty := []byte("{}")
	path := strings.TrimSpace(s.contentPath)
	if path == "" {
		c.Data(http.StatusOK, "application/json; charset=utf-8", empty)
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("read content failed", zap.String("path", path), zap.Error(err))
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", empty)
		return
	}
	if _, err := catalog.ParseOverride(data); err != nil {
		s.log.Warn("content override ignored", zap.String("path", path), zap.Error(err))
		c.Data(http.StatusOK, "application/json; charset=utf-8", empty)
		return
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		data = empty
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

type ttsRequest struct {
	Text string `json:"text"`
}

func (s *Server) synthesize(c *gin.Context) {
	var req ttsRequest
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text provided"})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No text provided"})
		return
	}
	if s.tts == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server misconfigured: text-to-speech is not set up"})
		return
	}

	audio, err := s.tts.Synthesize(c.Request.Context(), text)
	if err != nil {
		var upstream *tts.UpstreamError
		switch {
		case errors.Is(err, tts.ErrNotConfigured):
			s.log.Error("tts not configured")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server misconfigured: ELEVENLABS_API_KEY not set"})
		case errors.As(err, &upstream):
			s.log.Warn("tts upstream failed", zap.Int("status", upstream.Status))
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "ElevenLabs TTS failed",
				"status":  upstream.Status,
				"details": upstream.Body,
			})
		default:
			s.log.Warn("tts request failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to contact ElevenLabs"})
		}
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}
