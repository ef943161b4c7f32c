package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Nuarka/FinTrackO/internal/bot"
	"github.com/Nuarka/FinTrackO/internal/config"
	"github.com/Nuarka/FinTrackO/internal/database"
	"github.com/Nuarka/FinTrackO/internal/health"
	"github.com/Nuarka/FinTrackO/internal/logger"
	"github.com/Nuarka/FinTrackO/internal/rates"
	"github.com/Nuarka/FinTrackO/internal/storage"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("fintracko: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
	})

	startedAt := time.Now()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	store := storage.New(db, storage.Defaults{
		BaseCurrency: cfg.Finance.BaseCurrency,
		Tracked:      cfg.Finance.DefaultTracked,
		Timezone:     cfg.Finance.Timezone,
	})
	provider := rates.New(store.FXCache)

	app, err := bot.New(cfg, store, provider)
	if err != nil {
		return err
	}
	liveness := health.New(fmt.Sprintf("%s:%d", cfg.Health.Listen, cfg.Health.Port))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.L.Info("app ready",
		slog.String("event", "ready"),
		slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return liveness.Run(ctx) })
	g.Go(func() error { return app.Run(ctx) })

	err = g.Wait()
	logger.L.Info("shutting down", slog.String("event", "shutdown"))
	return err
}
