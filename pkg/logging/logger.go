// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging wires structured logging for tippgeber.
//
// The process logs JSON to stderr via log/slog. In addition, a bounded
// in-memory ring buffer retains the most recent records so the admin panel
// can show a live log view without touching files. Both destinations hang
// off one fan-out slog.Handler installed as the process default.
//
// # Basic Usage
//
//	ring := logging.Setup(logging.Config{Level: slog.LevelInfo})
//	slog.Info("pool replenished", "generated", 10)
//	entries := ring.Entries() // newest last, for the admin log viewer
//
// This package does NOT redact sensitive data. Callers must keep API keys
// and admin credentials out of log attributes.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// DefaultRingSize is how many recent records the admin log view retains.
const DefaultRingSize = 200

// Config controls the process-wide logging setup.
type Config struct {
	// Level is the minimum severity written anywhere. Default: Info.
	Level slog.Level

	// RingSize caps the in-memory buffer. Default: DefaultRingSize.
	RingSize int

	// Writer overrides the stderr destination, used by tests.
	Writer io.Writer
}

// Entry is one buffered record, shaped for the admin panel JSON API.
type Entry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Setup installs the default slog logger (JSON to stderr plus ring buffer)
// and returns the ring for the admin log viewer.
func Setup(cfg Config) *Ring {
	if cfg.RingSize <= 0 {
		cfg.RingSize = DefaultRingSize
	}
	w := cfg.Writer
	if w == nil {
		w = os.Stderr
	}

	ring := NewRing(cfg.RingSize)
	stderr := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: cfg.Level})
	slog.SetDefault(slog.New(&fanoutHandler{
		handlers: []slog.Handler{stderr, ring.handler(cfg.Level)},
	}))
	return ring
}

// Ring is a fixed-capacity buffer of recent log records. Safe for
// concurrent use; writers never block on readers.
type Ring struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRing creates a ring retaining the last size records.
func NewRing(size int) *Ring {
	return &Ring{entries: make([]Entry, size)}
}

// Entries returns the buffered records, oldest first.
func (r *Ring) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.full {
		out := make([]Entry, r.next)
		copy(out, r.entries[:r.next])
		return out
	}
	out := make([]Entry, 0, len(r.entries))
	out = append(out, r.entries[r.next:]...)
	out = append(out, r.entries[:r.next]...)
	return out
}

func (r *Ring) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[r.next] = e
	r.next++
	if r.next == len(r.entries) {
		r.next = 0
		r.full = true
	}
}

func (r *Ring) handler(level slog.Level) slog.Handler {
	return &ringHandler{ring: r, level: level}
}

// ringHandler adapts the ring to the slog.Handler interface. Attrs and
// groups are accepted but not rendered; the admin view only shows the
// timestamp, level and message line.
type ringHandler struct {
	ring  *Ring
	level slog.Level
}

func (h *ringHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *ringHandler) Handle(_ context.Context, rec slog.Record) error {
	h.ring.add(Entry{
		Time:    rec.Time.Format(time.TimeOnly),
		Level:   rec.Level.String(),
		Message: rec.Message,
	})
	return nil
}

func (h *ringHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *ringHandler) WithGroup(string) slog.Handler      { return h }

// fanoutHandler dispatches each record to every child handler.
type fanoutHandler struct {
	handlers []slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, child := range h.handlers {
		if child.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanoutHandler) Handle(ctx context.Context, rec slog.Record) error {
	var firstErr error
	for _, child := range h.handlers {
		if !child.Enabled(ctx, rec.Level) {
			continue
		}
		if err := child.Handle(ctx, rec.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	children := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		children[i] = child.WithAttrs(attrs)
	}
	return &fanoutHandler{handlers: children}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	children := make([]slog.Handler, len(h.handlers))
	for i, child := range h.handlers {
		children[i] = child.WithGroup(name)
	}
	return &fanoutHandler{handlers: children}
}
