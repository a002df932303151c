// Callograph - Call Log Ingestion and Reporting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/callograph

// Package metrics provides Prometheus instrumentation for the ingestion
// pipeline: agent fetches, sync runs, detector decisions, and store writes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Agent fetch metrics
	AgentFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_fetch_total",
			Help: "Total agent log fetch attempts by agent and outcome",
		},
		[]string{"agent", "outcome"}, // outcome: ok, http_error, network_error, empty, breaker_open
	)

	AgentFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_fetch_duration_seconds",
			Help:    "Duration of agent log fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"agent"},
	)

	LogsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logs_fetched_total",
			Help: "Total log records fetched from agent servers, pre-dedup",
		},
		[]string{"agent", "format"}, // format: json, text
	)

	CrossAgentDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cross_agent_duplicates_total",
			Help: "Records dropped because another agent already returned the same content hash",
		},
	)

	// Sync metrics
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total sync runs by mode and outcome",
		},
		[]string{"mode", "outcome"}, // mode: user, bulk; outcome: ok, skipped, not_found, error
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{"mode"},
	)

	DetectorShortCircuits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "detector_short_circuits_total",
			Help: "Sync runs skipped by the count-based fast path without a store hash read",
		},
	)

	// Persistence metrics
	LogsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logs_persisted_total",
			Help: "Total new log records written to the store",
		},
	)

	PersistDuplicates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persist_duplicates_total",
			Help: "Inserts skipped because the log hash already existed",
		},
	)

	PersistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "persist_errors_total",
			Help: "Log records that failed both insert and upsert fallback",
		},
	)

	// Store metrics
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of DuckDB store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// ObserveSyncRun records the outcome and duration of a sync run.
func ObserveSyncRun(mode, outcome string, start time.Time) {
	SyncRuns.WithLabelValues(mode, outcome).Inc()
	SyncDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
