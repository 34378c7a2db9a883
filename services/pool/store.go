// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package pool maintains the persisted answer pool: durable storage,
// fill-to-target replenishment, oldest-out rotation, the in-memory serving
// queue, and the timer that drives periodic rotation.
package pool

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// poolFile is the persisted pool format. The answers slice is
// insertion-ordered, oldest first.
type poolFile struct {
	Answers     []string `json:"answers"`
	LastUpdated string   `json:"last_updated"`
	Count       int      `json:"count"`
}

// Status summarizes the persisted pool without exposing its contents.
type Status struct {
	Count       int    `json:"count"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Store persists the answer pool as a single JSON file with atomic
// replace-on-write semantics. A missing or corrupt file always reads as an
// empty pool; the store never surfaces read errors to callers because the
// engine can regenerate content but must not crash over a bad file.
type Store struct {
	path string
	now  func() time.Time
}

// NewStore creates a store backed by the JSON file at path.
func NewStore(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Load returns the current pool, oldest answer first. Missing or unreadable
// state yields an empty slice.
func (s *Store) Load() []string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("answer pool not readable, treating as empty", "path", s.path, "error", err)
		}
		return nil
	}
	var f poolFile
	if err := json.Unmarshal(data, &f); err != nil {
		slog.Warn("answer pool corrupt, treating as empty", "path", s.path, "error", err)
		return nil
	}
	return f.Answers
}

// Save atomically replaces the persisted pool. The write goes to a
// temporary file first and is renamed into place, so a concurrent Load
// observes either the old state or the new one, never a torn file.
func (s *Store) Save(answers []string) error {
	f := poolFile{
		Answers:     answers,
		LastUpdated: s.now().Format(time.RFC3339),
		Count:       len(answers),
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer pool: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write answer pool: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace answer pool: %w", err)
	}
	return nil
}

// Status reports the persisted count and last-updated timestamp with the
// same corruption tolerance as Load.
func (s *Store) Status() Status {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Status{}
	}
	var f poolFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Status{}
	}
	return Status{Count: f.Count, LastUpdated: f.LastUpdated}
}
