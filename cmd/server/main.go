package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Simplici0/koshtorys/internal/catalog"
	"github.com/Simplici0/koshtorys/internal/config"
	"github.com/Simplici0/koshtorys/internal/db"
	"github.com/Simplici0/koshtorys/internal/logging"
	"github.com/Simplici0/koshtorys/internal/migrations"
	"github.com/Simplici0/koshtorys/internal/obs"
	"github.com/Simplici0/koshtorys/internal/quoteform"
	"github.com/Simplici0/koshtorys/internal/rates"
	"github.com/Simplici0/koshtorys/internal/render"
	"github.com/Simplici0/koshtorys/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := logging.New(cfg.LogFormat, cfg.LogLevel)
	for _, w := range cfg.Warnings() {
		logger.Warn().Msg(w)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(database); err != nil {
			logger.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	stats, err := seed.Run(database, seed.Config{AdminEmail: cfg.AdminEmail, AdminPassword: cfg.AdminPassword})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to seed database")
	}
	logger.Info().Int("inserts", stats.Inserts).Int("updates", stats.Updates).Msg("seed complete")

	rateOpts := []rates.Option{rates.WithURL(cfg.RateURL), rates.WithLogger(logger)}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		rateOpts = append(rateOpts, rates.WithCache(rdb, cfg.RateCacheTTL))
	}

	srv := &server{
		auth:      newAuthService(database, cfg.SessionSecret),
		catalog:   catalog.NewStore(database),
		rates:     rates.NewClient(rateOpts...),
		validator: quoteform.NewValidator(),
		renderer:  render.New(render.Config{FontDir: cfg.FontDir, Logger: logger}),
		metrics:   obs.NewMetrics(cfg.MetricsNamespace, nil),
		log:       logger,
		assetsDir: cfg.AssetsDir,
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
