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

// RotateResult reports the outcome of one rotation cycle.
type RotateResult struct {
	Removed int `json:"removed"`
	Added   int `json:"added"`
	Total   int `json:"total"`
}

// Rotate drops the oldest answers_per_request answers (all of them when the
// pool is smaller) and refills with one freshly generated, deduplicated
// batch of that size. When deduplication rejects the whole batch the raw
// batch is accepted instead, truncated to the request size, so rotation
// never shrinks the pool below what it removed plus at least one new
// answer. Admin clicks, the public auto-rotate endpoint and the background
// timer all go through this one method.
func (s *Service) Rotate(ctx context.Context, cfg *config.Config) (RotateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perRequest := cfg.Speech.Pool.AnswersPerRequest

	current := s.store.Load()
	removed := min(perRequest, len(current))
	current = current[removed:]

	raw, err := s.generate(ctx, cfg, perRequest)
	if err != nil {
		return RotateResult{}, err
	}

	fresh := answers.Deduplicate(raw, current, cfg.Speech.Pool.DedupThreshold)
	if len(fresh) == 0 {
		fresh = raw[:min(len(raw), max(1, perRequest))]
		slog.Warn("rotation batch fully deduplicated away, accepting raw answers", "accepted", len(fresh))
	}

	current = append(current, fresh...)
	if err := s.store.Save(current); err != nil {
		return RotateResult{}, err
	}

	slog.Info("answer pool rotated", "removed", removed, "added", len(fresh), "total", len(current))
	return RotateResult{Removed: removed, Added: len(fresh), Total: len(current)}, nil
}
