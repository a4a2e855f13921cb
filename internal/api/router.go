// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package api implements component L, the HTTP admin API of spec §6:
// bearer-auth, JSON responses, enumerate/test indexers, trigger a single
// search, trigger a manual inject, plus the /api/jobs and /metrics
// endpoints SPEC_FULL §7 supplements. Routing/middleware shape is styled
// on the teacher's internal/api/router.go, simplified to this daemon's
// much smaller surface (no sessions, no qBittorrent proxy, no web UI).
package api

import (
	"net/http"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/xseed/xseed/internal/api/handlers"
	apimiddleware "github.com/xseed/xseed/internal/api/middleware"
	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/metrics"
	"github.com/xseed/xseed/internal/pipeline"
	"github.com/xseed/xseed/internal/torznab"
)

// Dependencies holds everything the router needs to build its handlers.
type Dependencies struct {
	Config         *domain.Config
	IndexerStore   *indexer.Store
	TorznabClient  *torznab.Client
	Pipeline       *pipeline.Pipeline
	MetricsManager *metrics.Manager
	Logger         zerolog.Logger
}

// NewRouter builds the admin API router.
func NewRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	compressor, err := httpcompression.DefaultAdapter()
	if err != nil {
		deps.Logger.Error().Err(err).Msg("api: failed to create HTTP compression adapter")
	} else {
		r.Use(compressor)
	}

	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	indexersHandler := handlers.NewIndexersHandler(deps.IndexerStore, deps.TorznabClient)
	searchHandler := handlers.NewSearchHandler(deps.Pipeline)
	injectHandler := handlers.NewInjectHandler(deps.Pipeline)
	jobsHandler := handlers.NewJobsHandler(deps.Pipeline)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.MetricsManager != nil {
		r.Handle("/metrics", deps.MetricsManager.Handler())
	}

	if deps.Config.NoPort {
		return r
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(apimiddleware.Bearer(deps.Config.APIKey))

		r.Get("/indexers", indexersHandler.List)
		r.Post("/indexers/{id}/test", indexersHandler.Test)
		r.Post("/search", searchHandler.Search)
		r.Post("/inject", injectHandler.Inject)
		r.Get("/jobs", jobsHandler.List)
	})

	return r
}
