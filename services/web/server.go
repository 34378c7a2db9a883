// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package web is the HTTP surface over the answer pool engine: the public
// answer/stream/status API, the rate-limited generation endpoints and the
// token-authenticated admin API. It holds no pool logic of its own; every
// route delegates to the pool service and the generation dispatcher.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tippgeber/tippgeber/pkg/logging"
	"github.com/tippgeber/tippgeber/services/config"
	"github.com/tippgeber/tippgeber/services/pool"
	"github.com/tippgeber/tippgeber/services/web/observability"
)

// Server wires the HTTP routes to the engine. The active configuration is
// swapped atomically under a read-write lock on reload; handlers always
// read a consistent snapshot pointer and never mutate it in place.
type Server struct {
	configPath string
	envPath    string

	cfgMu sync.RWMutex
	cfg   *config.Config

	pool      *pool.Service
	queue     *pool.Queue
	scheduler *pool.RotationScheduler
	ring      *logging.Ring
	sessions  *SessionStore
	metrics   *observability.Metrics
}

// Options collects the collaborators a Server needs.
type Options struct {
	ConfigPath string
	EnvPath    string
	Config     *config.Config
	Pool       *pool.Service
	Queue      *pool.Queue
	Scheduler  *pool.RotationScheduler
	Ring       *logging.Ring
	Metrics    *observability.Metrics
}

// NewServer creates the HTTP layer over an already-constructed engine.
func NewServer(opts Options) *Server {
	return &Server{
		configPath: opts.ConfigPath,
		envPath:    opts.EnvPath,
		cfg:        opts.Config,
		pool:       opts.Pool,
		queue:      opts.Queue,
		scheduler:  opts.Scheduler,
		ring:       opts.Ring,
		sessions:   NewSessionStore(),
		metrics:    opts.Metrics,
	}
}

// Config returns the active configuration snapshot.
func (s *Server) Config() *config.Config {
	s.cfgMu.RLock()
	defer s.cfgMu.RUnlock()
	return s.cfg
}

func (s *Server) setConfig(cfg *config.Config) {
	s.cfgMu.Lock()
	s.cfg = cfg
	s.cfgMu.Unlock()
}

// Reload re-reads the config file, swaps the active snapshot and
// reconfigures the rotation scheduler. Returns the new config.
func (s *Server) Reload(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return nil, err
	}
	s.setConfig(cfg)
	if s.scheduler != nil {
		s.scheduler.Reconfigure(ctx, cfg.RotateInterval())
	}
	slog.Info("configuration reloaded", "provider", cfg.AI.Provider)
	return cfg, nil
}

// adminPassword is read from the environment per request so key rotation
// does not require a restart.
func (s *Server) adminPassword() string {
	return os.Getenv("ADMIN_PASSWORD")
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/answer", s.handleAnswer)
		api.GET("/stream", s.handleStream)
		api.GET("/status", s.handleStatus)
		api.POST("/generate", rateLimit(5), s.handleGenerate)
		api.POST("/rotate", rateLimit(10), s.handleRotate)
	}

	router.POST("/admin/api/login", rateLimit(10), s.handleLogin)
	router.POST("/admin/api/logout", s.handleLogout)

	admin := router.Group("/admin/api", requireAdmin(s.sessions))
	{
		admin.GET("/pool", s.handleAdminPool)
		admin.DELETE("/pool/:index", s.handleAdminPoolDelete)
		admin.POST("/generate", rateLimit(5), s.handleAdminGenerate)
		admin.POST("/rotate", rateLimit(10), s.handleAdminRotate)
		admin.POST("/provider", s.handleAdminProvider)
		admin.POST("/fallback", s.handleAdminFallback)
		admin.POST("/keys", s.handleAdminKeys)
		admin.GET("/prompt", s.handleAdminPromptGet)
		admin.POST("/prompt", s.handleAdminPromptSet)
		admin.GET("/config", s.handleAdminConfigGet)
		admin.POST("/config", s.handleAdminConfigSet)
		admin.POST("/reload", s.handleAdminReload)
		admin.GET("/logs", s.handleAdminLogs)
	}

	return router
}

// requestLogger logs each request through slog, keeping gin's default
// writer out of the structured stream.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			return
		}
		slog.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status())
	}
}

// audit records an admin action for the log viewer.
func audit(action, detail string) {
	slog.Info("[AUDIT] admin action", "action", action, "detail", detail)
}
