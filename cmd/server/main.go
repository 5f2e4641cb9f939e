package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "resume-filler/internal/adapter/http"
	repo "resume-filler/internal/adapter/repository"
	"resume-filler/internal/config"
	"resume-filler/internal/extractor"
	"resume-filler/internal/filler"
	"resume-filler/internal/infrastructure/migration"
	"resume-filler/internal/janitor"
	"resume-filler/internal/layout"
	"resume-filler/internal/usecase"
	"resume-filler/pkg/ai"
	infra "resume-filler/pkg/infrastructure"
	"resume-filler/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := ai.New(ctx, cfg.AIOptions())
	if err != nil {
		return err
	}
	defer ai.Close(gen)

	var store usecase.Storage
	if cfg.DatabaseURL != "" {
		pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := migration.RunMigrations(ctx, pool); err != nil {
			return err
		}
		store = repo.NewStore(pool)
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory storage")
		store = repo.NewMemoryStore()
	}

	var views usecase.ViewCounter
	if cfg.RedisURL != "" {
		rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		views = repo.NewRedisViews(rdb)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o700); err != nil {
		return err
	}

	processor := usecase.NewProcessor(usecase.Config{
		Records: extractor.New(gen, cfg.ExtractTimeout),
		Templates: layout.New(gen, layout.Options{
			Strategy: cfg.TemplateStrategy,
			Refine:   cfg.TemplateRefine,
			Timeout:  cfg.TemplateTimeout,
		}),
		Filler:        filler.New(gen, cfg.FillTimeout),
		Store:         store,
		Views:         views,
		Renderer:      infra.NewChromedpRenderer(cfg.ChromePath, ""),
		UploadDir:     cfg.UploadDir,
		RenderTimeout: cfg.RenderTimeout,
	})

	sweeper := janitor.New(cfg.UploadDir, usecase.UploadPrefix, cfg.UploadMaxAge, cfg.JanitorSchedule)
	if err := sweeper.Start(); err != nil {
		return err
	}
	defer sweeper.Stop()

	app := httpadapter.NewApp(httpadapter.NewHandler(processor), cfg.UploadMaxBytes)

	errc := make(chan error, 1)
	go func() {
		slog.Info("listening", "port", cfg.Port, "ai_backend", cfg.AIBackend, "template_strategy", string(cfg.TemplateStrategy))
		errc <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
