// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pool

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tippgeber/tippgeber/services/config"
)

// testConfig returns a small pool configuration the generation fakes can
// fill in a handful of batches.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Speech.Pool = config.PoolConfig{
		MinSize:           4,
		MaxSize:           10,
		AnswersPerRequest: 5,
		DedupThreshold:    0.6,
		MaxDedupFailures:  2,
	}
	return cfg
}

// scriptedGenerator returns the queued batches in order and records the
// count requested for each call.
type scriptedGenerator struct {
	batches [][]string
	err     error
	calls   []int
}

func (g *scriptedGenerator) generate(_ context.Context, _ *config.Config, count int) ([]string, error) {
	g.calls = append(g.calls, count)
	if g.err != nil {
		return nil, g.err
	}
	if len(g.batches) == 0 {
		return nil, errors.New("scripted generator ran dry")
	}
	batch := g.batches[0]
	g.batches = g.batches[1:]
	if len(batch) > count {
		batch = batch[:count]
	}
	return batch, nil
}

// distinctBatch produces n answers with disjoint word sets so deduplication
// never rejects them.
func distinctBatch(prefix string, n int) []string {
	batch := make([]string, n)
	for i := range batch {
		batch[i] = fmt.Sprintf("%s nummer %s%d", prefix, prefix, i)
	}
	return batch
}

func newTestService(t *testing.T, seed []string, gen GenerateFunc) (*Service, *Store) {
	t.Helper()
	store := newTestStore(t)
	if len(seed) > 0 {
		require.NoError(t, store.Save(seed))
	}
	return NewService(store, gen), store
}

// =============================================================================
// DeleteAt Tests
// =============================================================================

func TestService_DeleteAt(t *testing.T) {
	svc, store := newTestService(t, []string{"a b c", "d e f", "g h i"}, nil)

	remaining, err := svc.DeleteAt(1)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, []string{"a b c", "g h i"}, store.Load())
}

func TestService_DeleteAt_OutOfRange(t *testing.T) {
	svc, store := newTestService(t, []string{"a b c"}, nil)

	for _, index := range []int{-1, 1, 99} {
		_, err := svc.DeleteAt(index)
		assert.Error(t, err, "index %d", index)
	}
	assert.Equal(t, []string{"a b c"}, store.Load())
}

// =============================================================================
// AppendBatch Tests
// =============================================================================

func TestService_AppendBatch(t *testing.T) {
	gen := &scriptedGenerator{batches: [][]string{distinctBatch("neu", 5)}}
	svc, store := newTestService(t, []string{"alt eins", "alt zwei"}, gen.generate)

	added, total, err := svc.AppendBatch(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, 7, total)
	assert.Len(t, store.Load(), 7)
	assert.Equal(t, []int{5}, gen.calls)
}

func TestService_AppendBatch_TrimsToMaxSize(t *testing.T) {
	seed := distinctBatch("alt", 8)
	gen := &scriptedGenerator{batches: [][]string{distinctBatch("neu", 5)}}
	svc, store := newTestService(t, seed, gen.generate)

	added, total, err := svc.AppendBatch(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 5, added)
	assert.Equal(t, 10, total)

	// The oldest three seeds fell off the front.
	current := store.Load()
	require.Len(t, current, 10)
	assert.Equal(t, seed[3], current[0])
}

func TestService_AppendBatch_GeneratorError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("provider down")}
	svc, store := newTestService(t, []string{"alt eins"}, gen.generate)

	added, total, err := svc.AppendBatch(context.Background(), testConfig())
	require.Error(t, err)
	assert.Equal(t, 0, added)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"alt eins"}, store.Load())
}
