// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/tippgeber/tippgeber/services/answers"
	"github.com/tippgeber/tippgeber/services/config"
)

// GenerateFunc produces a batch of answers through the configured provider
// chain. Injected so tests can fake providers without network access.
type GenerateFunc func(ctx context.Context, cfg *config.Config, count int) ([]string, error)

// Service owns every read-modify-write cycle on the persisted pool. All
// mutations run under one exclusive lock, so a timer-driven rotation cannot
// race an admin-triggered replenishment into a lost update.
type Service struct {
	store    *Store
	generate GenerateFunc

	mu sync.Mutex
}

// NewService creates a pool service over the given store. A nil generate
// function uses the real provider dispatcher.
func NewService(store *Store, generate GenerateFunc) *Service {
	if generate == nil {
		generate = answers.GenerateAnswers
	}
	return &Service{store: store, generate: generate}
}

// Store exposes the underlying store for read-only collaborators such as
// the serving queue.
func (s *Service) Store() *Store { return s.store }

// Status reports the persisted pool summary.
func (s *Service) Status() Status { return s.store.Status() }

// Answers returns the current pool contents, oldest first.
func (s *Service) Answers() []string { return s.store.Load() }

// DeleteAt removes the answer at index and persists the result. Used by the
// admin pool editor.
func (s *Service) DeleteAt(index int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.store.Load()
	if index < 0 || index >= len(current) {
		return len(current), fmt.Errorf("index %d out of range (pool has %d answers)", index, len(current))
	}
	current = append(current[:index], current[index+1:]...)
	if err := s.store.Save(current); err != nil {
		return len(current), err
	}
	return len(current), nil
}

// AppendBatch generates one batch of answers_per_request answers, appends
// them and trims the pool to the newest max_size entries. This is the admin
// "generate now" action; unlike EnsurePool it always performs exactly one
// provider call.
func (s *Service) AppendBatch(ctx context.Context, cfg *config.Config) (added, total int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	poolCfg := cfg.Speech.Pool
	current := s.store.Load()

	batch, err := s.generate(ctx, cfg, poolCfg.AnswersPerRequest)
	if err != nil {
		return 0, len(current), err
	}

	current = append(current, batch...)
	if len(current) > poolCfg.MaxSize {
		current = current[len(current)-poolCfg.MaxSize:]
	}
	if err := s.store.Save(current); err != nil {
		return 0, len(current), err
	}
	return len(batch), len(current), nil
}
