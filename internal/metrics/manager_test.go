// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerRegistersCollectors(t *testing.T) {
	m := NewManager()
	require.NotNil(t, m)
	require.NotNil(t, m.registry)
}

func TestRecordPassAndHandlerExposesMetric(t *testing.T) {
	m := NewManager()
	m.RecordPass("search", "ok", 1.5)
	m.RecordMatch("MATCH")
	m.RecordIndexerError("demo-indexer", "RATE_LIMITED")

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rr, req)

	assert.Equal(t, 200, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "xseed_passes_total")
	assert.Contains(t, body, "xseed_matches_total")
	assert.Contains(t, body, "xseed_indexer_errors_total")
}
