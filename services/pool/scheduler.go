// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pool

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RotationScheduler runs Rotate on a fixed interval. It uses the
// ticker-plus-done-channel pattern: Start spawns one goroutine, Stop or
// context cancellation shuts it down, and Reconfigure swaps the interval at
// runtime (the admin config editor changes auto_rotate_hours live).
//
// All public methods are safe for concurrent use.
type RotationScheduler struct {
	rotate func(ctx context.Context) error

	mu       sync.Mutex
	interval time.Duration
	done     chan struct{}
	running  bool
}

// NewRotationScheduler creates a scheduler that invokes rotate every
// interval. An interval of zero creates a disabled scheduler; Reconfigure
// can enable it later.
func NewRotationScheduler(interval time.Duration, rotate func(ctx context.Context) error) *RotationScheduler {
	return &RotationScheduler{
		rotate:   rotate,
		interval: interval,
	}
}

// Start launches the background rotation loop. Calling Start on a running
// or zero-interval scheduler is a no-op.
func (s *RotationScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.interval <= 0 {
		return
	}
	s.running = true
	s.done = make(chan struct{})

	slog.Info("auto-rotation enabled", "interval", s.interval.String())
	go s.run(ctx, s.interval, s.done)
}

func (s *RotationScheduler) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.rotate(ctx); err != nil {
				// A failed rotation keeps the old answers; the next tick
				// tries again.
				slog.Error("auto-rotation failed", "error", err)
			}
		case <-done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the rotation loop. Safe to call when not running.
func (s *RotationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *RotationScheduler) stopLocked() {
	if !s.running {
		return
	}
	close(s.done)
	s.running = false
	slog.Info("auto-rotation disabled")
}

// Reconfigure applies a new interval. Identical intervals are left alone;
// otherwise the loop is restarted (or stopped, for interval zero).
func (s *RotationScheduler) Reconfigure(ctx context.Context, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if interval == s.interval && s.running == (interval > 0) {
		return
	}
	s.stopLocked()
	s.interval = interval
	if interval <= 0 {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	slog.Info("auto-rotation reconfigured", "interval", interval.String())
	go s.run(ctx, interval, s.done)
}

// Running reports whether the rotation loop is active.
func (s *RotationScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
