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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePool_SkipsWhenFull(t *testing.T) {
	gen := &scriptedGenerator{}
	svc, _ := newTestService(t, distinctBatch("voll", 10), gen.generate)

	result, err := svc.EnsurePool(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)
	assert.Equal(t, 0, result.Generated)
	assert.Equal(t, 10, result.Total)
	assert.Empty(t, gen.calls, "a full pool must not trigger provider calls")
}

func TestEnsurePool_FillsEmptyPoolInBatches(t *testing.T) {
	gen := &scriptedGenerator{batches: [][]string{
		distinctBatch("erste", 5),
		distinctBatch("zweite", 5),
	}}
	svc, store := newTestService(t, nil, gen.generate)

	result, err := svc.EnsurePool(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, ActionGenerated, result.Action)
	assert.Equal(t, 10, result.Generated)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, []int{5, 5}, gen.calls)
	assert.Len(t, store.Load(), 10)
}

func TestEnsurePool_LastBatchCappedToRemainingCapacity(t *testing.T) {
	// 8 of 10 present, answers_per_request 5: the single needed batch is
	// requested at 2, not 5.
	gen := &scriptedGenerator{batches: [][]string{distinctBatch("rest", 5)}}
	svc, _ := newTestService(t, distinctBatch("alt", 8), gen.generate)

	result, err := svc.EnsurePool(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, []int{2}, gen.calls)
}

func TestEnsurePool_DeduplicatesAgainstExistingAndBatch(t *testing.T) {
	seed := distinctBatch("alt", 8)
	// Batch of 2: one duplicates a seeded answer, one is genuinely new,
	// so a second call is needed for the last slot.
	gen := &scriptedGenerator{batches: [][]string{
		{seed[0], "etwas völlig anderes hier"},
		{"noch ein frischer Gedanke"},
	}}
	svc, _ := newTestService(t, seed, gen.generate)

	result, err := svc.EnsurePool(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, []int{2, 1}, gen.calls)
}

func TestEnsurePool_ForcesRawAfterRepeatedDedupFailure(t *testing.T) {
	seed := distinctBatch("alt", 8)
	// Every batch is a rehash of existing answers. MaxDedupFailures is 2 in
	// testConfig, so the second zero-survivor batch gets force-accepted,
	// truncated to the 2 needed.
	gen := &scriptedGenerator{batches: [][]string{
		{seed[0], seed[1]},
		{seed[2], seed[3]},
	}}
	svc, store := newTestService(t, seed, gen.generate)

	result, err := svc.EnsurePool(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, ActionGenerated, result.Action)
	assert.Equal(t, 2, result.Generated)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, []int{2, 2}, gen.calls)

	// The forced answers are the raw near-duplicates.
	current := store.Load()
	require.Len(t, current, 10)
	assert.Equal(t, seed[2], current[8])
	assert.Equal(t, seed[3], current[9])
}

func TestEnsurePool_GeneratorErrorLeavesPoolUntouched(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("provider down")}
	seed := distinctBatch("alt", 3)
	svc, store := newTestService(t, seed, gen.generate)

	_, err := svc.EnsurePool(context.Background(), testConfig())
	require.Error(t, err)
	assert.Equal(t, seed, store.Load())
}

func TestReset_DiscardsPoolAndFillsToMinSize(t *testing.T) {
	gen := &scriptedGenerator{batches: [][]string{distinctBatch("frisch", 5)}}
	svc, store := newTestService(t, distinctBatch("alt", 10), gen.generate)

	result, err := svc.Reset(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, ActionGenerated, result.Action)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, []int{4}, gen.calls)

	for _, answer := range store.Load() {
		assert.Contains(t, answer, "frisch")
	}
}
