// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/torznab"
)

// IndexersHandler backs GET /api/indexers and POST /api/indexers/{id}/test.
type IndexersHandler struct {
	store  *indexer.Store
	client *torznab.Client
}

func NewIndexersHandler(store *indexer.Store, client *torznab.Client) *IndexersHandler {
	return &IndexersHandler{store: store, client: client}
}

type indexerView struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
	Status string `json:"status"`
}

// List handles GET /api/indexers.
func (h *IndexersHandler) List(w http.ResponseWriter, r *http.Request) {
	indexers, err := h.store.ListAll(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to list indexers")
		return
	}

	views := make([]indexerView, 0, len(indexers))
	for _, ind := range indexers {
		views = append(views, indexerView{
			ID:     ind.ID,
			Name:   ind.Name,
			URL:    ind.URL,
			Active: ind.Active,
			Status: string(ind.Status),
		})
	}
	RespondJSON(w, http.StatusOK, views)
}

// Test handles POST /api/indexers/{id}/test: fetches the indexer's caps
// document and reports success/failure, without mutating stored status
// (that only ever happens inside a real pass, per component C).
func (h *IndexersHandler) Test(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid indexer id")
		return
	}

	indexers, err := h.store.ListAll(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to load indexer")
		return
	}

	var target *indexer.Indexer
	for _, ind := range indexers {
		if ind.ID == id {
			target = ind
			break
		}
	}
	if target == nil {
		RespondError(w, http.StatusNotFound, "indexer not found")
		return
	}

	apiKey, err := h.store.DecryptAPIKey(target)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, "failed to decrypt indexer api key")
		return
	}

	caps, status, err := h.client.FetchCaps(r.Context(), target, apiKey)
	if err != nil {
		RespondJSON(w, http.StatusOK, map[string]any{"ok": false, "status": string(status), "error": err.Error()})
		return
	}
	RespondJSON(w, http.StatusOK, map[string]any{"ok": true, "status": string(status), "caps": caps})
}
