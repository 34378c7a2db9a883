// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package pool

import (
	"math/rand"
	"sync"
)

// WarmupAnswer is served while the pool is still empty, typically right
// after first boot before the initial replenishment finishes.
const WarmupAnswer = "Ich denke gerade nach… Bitte kurz warten!"

// Popped is one serving-queue draw.
type Popped struct {
	Answer   string `json:"answer"`
	PoolSize int    `json:"pool_size"`
}

// Queue hands out pool answers one at a time in shuffled order. It is pure
// cache over the store: when it runs dry it takes a fresh snapshot,
// shuffles once and drains it, so every persisted answer is served at most
// once per shuffle cycle. The store stays the source of truth; the queue
// never writes.
type Queue struct {
	store *Store

	mu      sync.Mutex
	pending []string
	shuffle func([]string)
}

// NewQueue creates a serving queue over the store.
func NewQueue(store *Store) *Queue {
	return &Queue{
		store: store,
		shuffle: func(items []string) {
			rand.Shuffle(len(items), func(i, j int) {
				items[i], items[j] = items[j], items[i]
			})
		},
	}
}

// Pop returns the next answer and the in-memory count remaining in this
// shuffle cycle. An empty persisted pool yields the warmup sentinel with
// size 0 and touches nothing.
func (q *Queue) Pop() Popped {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) == 0 {
		snapshot := q.store.Load()
		if len(snapshot) == 0 {
			return Popped{Answer: WarmupAnswer, PoolSize: 0}
		}
		q.pending = make([]string, len(snapshot))
		copy(q.pending, snapshot)
		q.shuffle(q.pending)
	}

	last := len(q.pending) - 1
	answer := q.pending[last]
	q.pending = q.pending[:last]
	return Popped{Answer: answer, PoolSize: len(q.pending)}
}
