// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/xseed/xseed/internal/pipeline"
)

// SearchHandler backs POST /api/search: body {"path": "..."} or
// {"info_hash": "..."} identifies exactly one searchee to run through the
// normal search+decision flow immediately, outside the scheduler's cadence.
type SearchHandler struct {
	pipeline *pipeline.Pipeline
}

func NewSearchHandler(p *pipeline.Pipeline) *SearchHandler {
	return &SearchHandler{pipeline: p}
}

type searchRequest struct {
	Path     string `json:"path"`
	InfoHash string `json:"info_hash"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" && req.InfoHash == "" {
		RespondError(w, http.StatusBadRequest, "path or info_hash is required")
		return
	}

	if err := h.pipeline.SearchOne(r.Context(), req.Path, req.InfoHash); err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"status": "searched"})
}
