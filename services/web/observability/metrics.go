// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability exposes Prometheus metrics for the answer service.
//
// Metrics cover the serving path (answers popped), the generation engine
// (provider batches by outcome, pool maintenance cycles) and the current
// pool size. All operations are thread-safe via Prometheus's internal
// locking. Scrape via GET /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "tippgeber"

// Metrics holds all Prometheus collectors for the answer service.
// Initialize once at startup via NewMetrics().
type Metrics struct {
	// AnswersServed counts pops from the serving queue.
	AnswersServed prometheus.Counter

	// GenerationBatches counts provider batch requests by outcome
	// ("ok" or "error").
	GenerationBatches *prometheus.CounterVec

	// MaintenanceRuns counts replenish/rotate cycles by kind and outcome.
	MaintenanceRuns *prometheus.CounterVec

	// PoolSize tracks the persisted pool size after the last mutation.
	PoolSize prometheus.Gauge
}

// NewMetrics registers all collectors on the given registerer (pass
// prometheus.DefaultRegisterer in production, a fresh registry in tests).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AnswersServed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "answers_served_total",
			Help:      "Answers handed out by the serving queue.",
		}),
		GenerationBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generation_batches_total",
			Help:      "Provider batch requests by outcome.",
		}, []string{"outcome"}),
		MaintenanceRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pool_maintenance_runs_total",
			Help:      "Pool replenish and rotate cycles by kind and outcome.",
		}, []string{"kind", "outcome"}),
		PoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "pool_size",
			Help:      "Answers currently in the persisted pool.",
		}),
	}
}

// Outcome converts an error to the metric label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
