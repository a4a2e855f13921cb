// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics supplements spec.md's silence on observability (SPEC_FULL
// §7): Prometheus counters/histograms for pipeline passes, matches, and
// indexer errors, exposed by component L on /metrics. Styled on the
// registry-plus-collectors wiring of internal/metrics/manager.go, simplified
// down to plain CounterVec/HistogramVec metrics since this daemon has no
// per-instance qBittorrent fleet to describe via a custom Collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the process's metrics registry and xseed's pipeline
// counters. The pipeline and scheduler do not call its Record* methods, so
// those counters only change when a caller invokes them directly.
type Manager struct {
	registry *prometheus.Registry

	passesTotal       *prometheus.CounterVec
	passDuration      *prometheus.HistogramVec
	matchesTotal      *prometheus.CounterVec
	indexerErrorTotal *prometheus.CounterVec
}

// NewManager builds a Manager with the Go/process collectors and xseed's
// own pipeline metrics registered.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		passesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xseed",
			Name:      "passes_total",
			Help:      "Completed pipeline passes by job and outcome.",
		}, []string{"job", "outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "xseed",
			Name:      "pass_duration_seconds",
			Help:      "Wall-clock duration of a pipeline pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		matchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xseed",
			Name:      "matches_total",
			Help:      "Decisions recorded by verdict.",
		}, []string{"verdict"}),
		indexerErrorTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xseed",
			Name:      "indexer_errors_total",
			Help:      "Indexer query failures by indexer name and status.",
		}, []string{"indexer", "status"}),
	}

	registry.MustRegister(m.passesTotal, m.passDuration, m.matchesTotal, m.indexerErrorTotal)
	return m
}

// RecordPass records one completed pipeline pass (job is "search" or "rss").
func (m *Manager) RecordPass(job, outcome string, seconds float64) {
	m.passesTotal.WithLabelValues(job, outcome).Inc()
	m.passDuration.WithLabelValues(job).Observe(seconds)
}

// RecordMatch records one recorded decision's verdict.
func (m *Manager) RecordMatch(verdict string) {
	m.matchesTotal.WithLabelValues(verdict).Inc()
}

// RecordIndexerError records one failed indexer query.
func (m *Manager) RecordIndexerError(indexerName, status string) {
	m.indexerErrorTotal.WithLabelValues(indexerName, status).Inc()
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
