package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/five82/kavita/internal/api"
	"github.com/five82/kavita/internal/catalog"
	"github.com/five82/kavita/internal/completion"
	"github.com/five82/kavita/internal/config"
	"github.com/five82/kavita/internal/dashboard"
	"github.com/five82/kavita/internal/flashcards"
	"github.com/five82/kavita/internal/logging"
	"github.com/five82/kavita/internal/narration"
	"github.com/five82/kavita/internal/session"
	"github.com/five82/kavita/internal/state"
	"github.com/five82/kavita/internal/ui"
)

const contentFetchTimeout = 3 * time.Second

// Options configure the Kavita application.
type Options struct {
	ConfigPath string
	// ServerURL overrides server_url from the config file when set.
	ServerURL string
	Debug     bool
}

// Run boots the Kavita TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.ServerURL != "" {
		cfg.ServerURL = opts.ServerURL
	}

	logger, closeLog, err := logging.New(logging.Options{
		Path:  cfg.ClientLogPath(),
		Debug: cfg.Debug || opts.Debug,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closeLog()
	logger = logger.Named("kavita")

	store, err := session.OpenFile(cfg.SessionPath, !cfg.KeepSession)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	client, err := api.NewClient(cfg.ServerURL)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	cat, err := loadCatalog(ctx, client, logger)
	if err != nil {
		return err
	}

	curated, err := flashcards.DefaultCurated()
	if err != nil {
		return fmt.Errorf("load flashcards: %w", err)
	}

	// Both channels are drained by the UI loop; a full buffer drops the
	// signal because the next read sees the latest state anyway.
	ticks := make(chan uint64, 1)
	changes := make(chan struct{}, 1)

	carousel := flashcards.NewCarousel(flashcards.Options{
		Scheduler: flashcards.TickerScheduler{},
		Period:    cfg.FlashcardPeriod(),
		OnTick: func(gen uint64) {
			select {
			case ticks <- gen:
			default:
			}
		},
	})
	carousel.SetDecks(flashcards.BuildDecks(cat, curated))

	narrator := narration.NewController(narration.Options{
		Synthesizer: client,
		Player:      newPlayer(cfg),
		Guard:       carousel.Active,
		OnChange: func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		},
		Logger: logger.Named("narration"),
	})
	defer narrator.Teardown()

	machine := state.New(state.Options{
		Catalog:  cat,
		Session:  store,
		Tracker:  completion.NewTracker(store),
		Carousel: carousel,
		Narrator: narrator,
		Logger:   logger.Named("state"),
	})
	if err := machine.Bootstrap(); err != nil {
		logger.Warn("bootstrap without a class", zap.Error(err))
	}
	defer carousel.Stop()

	results := &dashboard.Store{}
	StartPoller(ctx, results, client, cfg.PollInterval(), logger.Named("poller"))

	exportDir, err := os.Getwd()
	if err != nil {
		exportDir = "."
	}

	logger.Info("kavita started",
		zap.String("server", client.BaseURL()),
		zap.String("session", cfg.SessionPath),
		zap.Int("classes", cat.Len()),
	)

	return ui.Run(ctx, ui.Options{
		Context:   ctx,
		Machine:   machine,
		Narrator:  narrator,
		Deck:      carousel,
		Session:   store,
		Saver:     client,
		Results:   results,
		Ticks:     ticks,
		Changes:   changes,
		LogPath:   cfg.ClientLogPath(),
		ExportDir: exportDir,
		ThemeName: cfg.Theme,
		Logger:    logger.Named("ui"),
	})
}

// loadCatalog merges the server's content override into the built-in
// catalog. A failed fetch or a malformed override keeps the built-in.
func loadCatalog(ctx context.Context, client *api.Client, logger *zap.Logger) (*catalog.Catalog, error) {
	cat, err := catalog.Builtin()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, contentFetchTimeout)
	defer cancel()
	data, err := client.FetchContent(fetchCtx)
	if err != nil {
		logger.Warn("content override unavailable, using built-in catalog",
			zap.Error(fmt.Errorf("%w: %v", catalog.ErrContentMerge, err)))
		return cat, nil
	}
	ov, err := catalog.ParseOverride(data)
	if err != nil {
		if !errors.Is(err, catalog.ErrContentMerge) {
			err = fmt.Errorf("%w: %v", catalog.ErrContentMerge, err)
		}
		logger.Warn("content override rejected, using built-in catalog", zap.Error(err))
		return cat, nil
	}
	merged := catalog.Merge(cat, ov)
	logger.Debug("content override merged", zap.Strings("classes", ov.Keys()))
	return merged, nil
}

func newPlayer(cfg config.Config) narration.Player {
	if cfg.AudioOutput == "none" {
		return narration.SilentPlayer{}
	}
	return &narration.FFmpegPlayer{
		Format:     cfg.AudioOutput,
		Device:     cfg.AudioDevice,
		FFmpegPath: cfg.FFmpegPath,
	}
}
