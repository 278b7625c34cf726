package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/five82/kavita/internal/results"
)

const (
	shutdownTimeout     = 5 * time.Second
	defaultTTSPerMinute = 30
	maxBodyBytes        = 1 << 20
)

// Synthesizer turns text into MP3 bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Options configure a Server.
type Options struct {
	Store        results.Store
	TTS          Synthesizer
	ContentPath  string
	TTSPerMinute int
	Mode         string
	Logger       *zap.Logger
	// Registry receives the HTTP metrics. Nil uses a private registry.
	Registry *prometheus.Registry
	Now      func() time.Time
}

// Server is the kavita HTTP API.
type Server struct {
	store       results.Store
	tts         Synthesizer
	contentPath string
	log         *zap.Logger
	now         func() time.Time
	registry    *prometheus.Registry
	engine      *gin.Engine
}

// New builds the router and registers every route.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("results store is required")
	}
	mode := strings.TrimSpace(opts.Mode)
	if mode == "" {
		mode = gin.ReleaseMode
	}
	gin.SetMode(mode)

	s := &Server{
		store:       opts.Store,
		tts:         opts.TTS,
		contentPath: opts.ContentPath,
		log:         opts.Logger,
		now:         opts.Now,
		registry:    opts.Registry,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	metrics, err := newMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	perMinute := opts.TTSPerMinute
	if perMinute <= 0 {
		perMinute = defaultTTSPerMinute
	}

	router := gin.New()
	router.Use(recovery(s.log), requestLogger(s.log), metrics.middleware())

	router.GET("/metrics", metrics.handler())
	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.POST("/save-result", s.saveResult)
		api.GET("/results", s.listResults)
		api.GET("/content", s.content)
		api.POST("/tts", rateLimiter(perMinute, time.Minute), s.synthesize)
	}
	s.engine = router
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
