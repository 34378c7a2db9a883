// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tippgeber/tippgeber/services/pool"
	"github.com/tippgeber/tippgeber/services/web/observability"
)

// handleAnswer pops one answer from the serving queue.
func (s *Server) handleAnswer(c *gin.Context) {
	popped := s.queue.Pop()
	s.metrics.AnswersServed.Inc()
	c.JSON(http.StatusOK, popped)
}

// handleStream pushes one answer immediately and then one every
// auto_refresh_seconds over Server-Sent Events until the client leaves.
func (s *Server) handleStream(c *gin.Context) {
	interval := s.Config().RefreshInterval()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	write := func() bool {
		popped := s.queue.Pop()
		s.metrics.AnswersServed.Inc()
		data, err := json.Marshal(popped)
		if err != nil {
			return false
		}
		if _, err := c.Writer.WriteString("data: " + string(data) + "\n\n"); err != nil {
			return false
		}
		c.Writer.Flush()
		return true
	}

	if !write() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			if !write() {
				return
			}
		}
	}
}

// handleStatus exposes the persisted pool summary plus the active pool
// tuning so the UI can render fill levels.
func (s *Server) handleStatus(c *gin.Context) {
	cfg := s.Config()
	status := s.pool.Status()
	c.JSON(http.StatusOK, gin.H{
		"count":        status.Count,
		"last_updated": status.LastUpdated,
		"pool_config":  cfg.Speech.Pool,
	})
}

// handleGenerate fills the pool to max_size, or rebuilds it from scratch up
// to min_size when ?reset=true.
func (s *Server) handleGenerate(c *gin.Context) {
	cfg := s.Config()
	ctx := c.Request.Context()

	var result pool.Result
	var err error
	if c.Query("reset") == "true" {
		result, err = s.pool.Reset(ctx, cfg)
	} else {
		result, err = s.pool.EnsurePool(ctx, cfg)
	}
	s.recordMaintenance("replenish", err)
	if err != nil {
		slog.Error("pool generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "generation failed"})
		return
	}

	if result.Action == pool.ActionSkipped {
		c.JSON(http.StatusOK, gin.H{"status": "pool_full", "total": result.Total, "generated": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "generated": result.Generated, "total": result.Total})
}

// handleRotate swaps the oldest answers for a fresh batch.
func (s *Server) handleRotate(c *gin.Context) {
	result, err := s.pool.Rotate(c.Request.Context(), s.Config())
	s.recordMaintenance("rotate", err)
	if err != nil {
		slog.Error("pool rotation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "rotation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"removed": result.Removed,
		"added":   result.Added,
		"total":   result.Total,
	})
}

// recordMaintenance updates the maintenance counters and pool size gauge.
func (s *Server) recordMaintenance(kind string, err error) {
	s.metrics.MaintenanceRuns.WithLabelValues(kind, observability.Outcome(err)).Inc()
	s.metrics.PoolSize.Set(float64(s.pool.Status().Count))
}
