// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/clientadapter"
	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/metrics"
	"github.com/xseed/xseed/internal/notifier"
	"github.com/xseed/xseed/internal/pipeline"
	"github.com/xseed/xseed/internal/testdb"
	"github.com/xseed/xseed/internal/torznab"
)

func newTestDeps(t *testing.T) *Dependencies {
	db := testdb.New(t, "api-router")
	indexerStore, err := indexer.NewStore(db, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	cfg := &domain.Config{APIKey: "secret", SearchTimeout: time.Second, SnatchTimeout: time.Second}
	p := pipeline.New(cfg, db, indexerStore, clientadapter.NewSaveOnlyAdapter(), notifier.New("", zerolog.Nop()), zerolog.Nop())

	return &Dependencies{
		Config:         cfg,
		IndexerStore:   indexerStore,
		TorznabClient:  torznab.NewClient(time.Second, time.Second),
		Pipeline:       p,
		MetricsManager: metrics.NewManager(),
		Logger:         zerolog.Nop(),
	}
}

func TestHealthEndpointIsUnauthenticated(t *testing.T) {
	r := NewRouter(newTestDeps(t))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, 200, rr.Code)
}

func TestAPIRoutesRequireBearerAuth(t *testing.T) {
	r := NewRouter(newTestDeps(t))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/indexers", nil))
	assert.Equal(t, 401, rr.Code)
}

func TestAPIRoutesAcceptValidBearerToken(t *testing.T) {
	r := NewRouter(newTestDeps(t))

	req := httptest.NewRequest("GET", "/api/indexers", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, 200, rr.Code)
}

func TestNoPortSkipsAPIRoutes(t *testing.T) {
	deps := newTestDeps(t)
	deps.Config.NoPort = true
	r := NewRouter(deps)

	req := httptest.NewRequest("GET", "/api/indexers", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, 404, rr.Code)
}
