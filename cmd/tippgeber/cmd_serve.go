// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tippgeber/tippgeber/services/answers"
	"github.com/tippgeber/tippgeber/services/config"
	"github.com/tippgeber/tippgeber/services/pool"
	"github.com/tippgeber/tippgeber/services/web"
	"github.com/tippgeber/tippgeber/services/web/observability"
)

var (
	serveAddr string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the answer server",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":5000", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	// The generate path is wrapped once here so every caller (web, timer,
	// replenisher) shares the same batch counter.
	generate := func(ctx context.Context, cfg *config.Config, count int) ([]string, error) {
		batch, err := answers.GenerateAnswers(ctx, cfg, count)
		metrics.GenerationBatches.WithLabelValues(observability.Outcome(err)).Inc()
		return batch, err
	}

	store := pool.NewStore(poolPath)
	svc := pool.NewService(store, generate)
	queue := pool.NewQueue(store)

	// The scheduler's rotate closure reads the live config through the
	// server, so the server pointer is declared ahead of construction.
	var server *web.Server
	scheduler := pool.NewRotationScheduler(cfg.RotateInterval(), func(ctx context.Context) error {
		_, err := svc.Rotate(ctx, server.Config())
		metrics.MaintenanceRuns.WithLabelValues("rotate", observability.Outcome(err)).Inc()
		metrics.PoolSize.Set(float64(store.Status().Count))
		return err
	})

	server = web.NewServer(web.Options{
		ConfigPath: configPath,
		EnvPath:    envPath,
		Config:     cfg,
		Pool:       svc,
		Queue:      queue,
		Scheduler:  scheduler,
		Ring:       ring,
		Metrics:    metrics,
	})

	if cfg.Speech.GenerateOnStartup {
		slog.Info("checking answer pool on startup")
		if result, err := svc.EnsurePool(ctx, cfg); err != nil {
			// The server still starts; it serves whatever the pool holds
			// and the admin can fix credentials without a restart.
			slog.Warn("startup pool fill failed, continuing anyway", "error", err)
		} else {
			slog.Info("startup pool check done", "action", result.Action, "total", result.Total)
		}
	}
	metrics.PoolSize.Set(float64(store.Status().Count))

	scheduler.Start(ctx)
	defer scheduler.Stop()

	watcher, err := config.NewWatcher(configPath, func() {
		if _, err := server.Reload(ctx); err != nil {
			slog.Warn("config hot-reload failed, keeping previous config", "error", err)
		}
	})
	if err != nil {
		slog.Warn("config watcher unavailable", "error", err)
	} else {
		go watcher.Start(ctx)
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              serveAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	slog.Info("tippgeber listening", "addr", serveAddr, "provider", cfg.AI.Provider)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
