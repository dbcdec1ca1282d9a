package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mbd888/resumeiq-web/dashboard/internal/server"
	"github.com/mbd888/resumeiq-web/pkg/config"
	"github.com/mbd888/resumeiq-web/pkg/logger"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Default().Warn("failed to load .env", "error", err)
	}
	cfg, err := config.LoadDashboardConfig()
	log := logger.New("dashboard", logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.SessionSecret == config.DefaultSessionSecret {
		log.Warn("using the development session secret; set SESSION_SECRET")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{server.WithLogger(log)}
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		limiter, err := server.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			opts = append(opts, server.WithRateLimiter(limiter))
		}
	}

	handler, err := server.New(cfg, opts...)
	if err != nil {
		log.Error("failed to initialise dashboard", "error", err)
		os.Exit(1)
	}
	defer handler.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("dashboard starting", "addr", cfg.Addr, "api", cfg.APIBaseURL, "env", cfg.Environment)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("dashboard stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
