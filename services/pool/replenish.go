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

	"github.com/tippgeber/tippgeber/services/answers"
	"github.com/tippgeber/tippgeber/services/config"
)

// Result reports the outcome of a replenishment run.
type Result struct {
	Generated int    `json:"generated"`
	Total     int    `json:"total"`
	Action    string `json:"action"`
}

const (
	// ActionSkipped means the pool was already at or above target.
	ActionSkipped = "skipped"
	// ActionGenerated means new answers were produced and persisted.
	ActionGenerated = "generated"
)

// EnsurePool fills the pool up to max_size. Batches are requested at
// answers_per_request but never beyond remaining capacity, and every batch
// is deduplicated against all answers accumulated so far. A provider that
// keeps returning near-duplicates would loop forever, so after
// max_dedup_failures consecutive zero-survivor batches the last raw batch
// is force-accepted (truncated to what was needed) and the run stops. That
// trades pool quality for liveness, deliberately.
//
// The pool is persisted exactly once, after the loop finishes.
func (s *Service) EnsurePool(ctx context.Context, cfg *config.Config) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fillLocked(ctx, cfg, s.store.Load(), cfg.Speech.Pool.MaxSize)
}

// Reset discards the pool and refills it up to min_size. Backs the admin
// "regenerate from scratch" action.
func (s *Service) Reset(ctx context.Context, cfg *config.Config) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fillLocked(ctx, cfg, nil, cfg.Speech.Pool.MinSize)
}

func (s *Service) fillLocked(ctx context.Context, cfg *config.Config, combined []string, target int) (Result, error) {
	poolCfg := cfg.Speech.Pool

	if len(combined) >= target {
		return Result{Generated: 0, Total: len(combined), Action: ActionSkipped}, nil
	}

	generated := 0
	failures := 0

	for len(combined) < target {
		needed := min(poolCfg.AnswersPerRequest, target-len(combined))

		raw, err := s.generate(ctx, cfg, needed)
		if err != nil {
			return Result{Generated: generated, Total: len(combined)}, err
		}

		unique := answers.Deduplicate(raw, combined, poolCfg.DedupThreshold)
		if len(unique) == 0 {
			failures++
			if failures >= poolCfg.MaxDedupFailures {
				// Liveness over quality: accept near-duplicates rather than
				// hammer the provider indefinitely.
				forced := raw[:min(len(raw), max(1, needed))]
				slog.Warn("giving up on deduplication, force-accepting raw answers",
					"consecutive_failures", failures,
					"forced", len(forced))
				combined = append(combined, forced...)
				generated += len(forced)
				break
			}
			continue
		}

		failures = 0
		combined = append(combined, unique...)
		generated += len(unique)
	}

	if err := s.store.Save(combined); err != nil {
		return Result{Generated: generated, Total: len(combined)}, err
	}
	slog.Info("answer pool replenished", "generated", generated, "total", len(combined))
	return Result{Generated: generated, Total: len(combined), Action: ActionGenerated}, nil
}
