package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/five82/kavita/internal/config"
	"github.com/five82/kavita/internal/logging"
	"github.com/five82/kavita/internal/results"
	"github.com/five82/kavita/internal/server"
	"github.com/five82/kavita/internal/tts"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override kavita config path (optional)")
	listen := flag.String("listen", "", "listen address (optional, defaults to [server].listen)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := serve(ctx, *configPath, *listen); err != nil {
		fmt.Fprintf(os.Stderr, "kavita-server: %v\n", err)
		return 1
	}
	return 0
}

func serve(ctx context.Context, configPath, listen string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listen != "" {
		cfg.Server.Listen = listen
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:    cfg.Server.LogPath,
		Console: true,
		Debug:   cfg.Debug,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	logger = logger.Named("kavita-server")

	store, err := results.Open(cfg.Server.ResultsDriver, cfg.Server.ResultsPath)
	if err != nil {
		return fmt.Errorf("open results store: %w", err)
	}
	defer store.Close()

	synth := tts.NewClient(tts.Options{
		APIKey:   cfg.Server.APIKey,
		VoiceID:  cfg.Server.VoiceID,
		ModelID:  cfg.Server.ModelID,
		CacheDir: cfg.Server.TTSCacheDir,
		Logger:   logger.Named("tts"),
	})
	if !synth.Configured() {
		logger.Warn("no ElevenLabs API key, narration serves cached audio only")
	}

	srv, err := server.New(server.Options{
		Store:        store,
		TTS:          synth,
		ContentPath:  cfg.Server.ContentPath,
		TTSPerMinute: cfg.Server.TTSPerMinute,
		Mode:         cfg.Server.Mode,
		Logger:       logger,
		Registry:     prometheus.NewRegistry(),
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	logger.Info("kavita-server listening",
		zap.String("addr", cfg.Server.Listen),
		zap.String("results_driver", cfg.Server.ResultsDriver),
	)
	return srv.Run(ctx, cfg.Server.Listen)
}
