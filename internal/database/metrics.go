// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var writeQueueDepthPeak atomic.Uint64

func recordWriteQueueDepth(depth int) {
	for {
		cur := writeQueueDepthPeak.Load()
		if uint64(depth) <= cur || writeQueueDepthPeak.CompareAndSwap(cur, uint64(depth)) {
			return
		}
	}
}

// MetricsCollector exposes the write-queue high-water mark as a Prometheus
// gauge so an operator can tell whether the single writer goroutine is
// keeping up with the configured search concurrency.
type MetricsCollector struct {
	writeQueueDepthDesc *prometheus.Desc
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		writeQueueDepthDesc: prometheus.NewDesc(
			"xseed_db_write_queue_depth_peak",
			"High-water mark of the database write queue depth since process start",
			nil,
			nil,
		),
	}
}

func (c *MetricsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.writeQueueDepthDesc
}

func (c *MetricsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		c.writeQueueDepthDesc,
		prometheus.GaugeValue,
		float64(writeQueueDepthPeak.Load()),
	)
}
