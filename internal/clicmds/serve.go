// Copyright (c) 2024-2026 IT Help San Diego Inc.
// Licensed under BUSL-1.1 — See LICENSE for terms.
package clicmds

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"phishscore/internal/handlers"
	"phishscore/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 15 * time.Second

func Serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	setupLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	comp, err := build(ctx, cfg, true, !c.Bool("no-save"))
	if err != nil {
		return err
	}
	defer comp.Close()

	limiter := middleware.NewIPRateLimiter(c.Int("rate"), middleware.RateLimitWindow)
	slog.Info("Rate limiter initialized", "backend", "token-bucket", "max_requests", c.Int("rate"), "window", middleware.RateLimitWindow)

	routes := handlers.RouterConfig{
		Analyze: handlers.NewAnalyzeHandler(comp.analyzer, comp.sink),
		Health:  handlers.NewHealthHandler(nil, comp.telemetry, cfg.AppVersion, comp.ageCache),
		Metrics: comp.metrics,
		Limiter: limiter,
	}
	if comp.db != nil {
		routes.Health.DB = comp.db
		routes.Reports = &handlers.ReportsHandler{Store: comp.db}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", cfg.Port),
		Handler:           handlers.NewRouter(routes),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.FetchTimeout + cfg.WhoisTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", srv.Addr, "version", cfg.AppVersion)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
