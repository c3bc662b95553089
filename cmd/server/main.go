package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/pollsite/internal/bootstrap"
	"github.com/vncsmyrnk/pollsite/internal/config"
	"github.com/vncsmyrnk/pollsite/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "pollsite"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := bootstrap.OpenRepositories(ctx, cfg, true)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.DatabaseType).Msg("failed to open repositories")
	}
	defer repos.Close()

	guard, closeGuard, err := bootstrap.NewVoteGuard(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to set up vote guard")
	}
	defer closeGuard()

	svc := bootstrap.NewServices(cfg, repos)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           bootstrap.NewRouter(cfg, svc, guard),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("database", cfg.DatabaseType).Bool("vote_guard", guard != nil).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
		os.Exit(1)
	}
}
