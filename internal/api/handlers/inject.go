// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/xseed/xseed/internal/pipeline"
)

// InjectHandler backs POST /api/inject: body {"artifact_path": "...",
// "save_path": "..."} hands an already-written cross-seed artifact torrent
// to the active client adapter, for operators running action=save who want
// a specific match injected without waiting for the next pass.
type InjectHandler struct {
	pipeline *pipeline.Pipeline
}

func NewInjectHandler(p *pipeline.Pipeline) *InjectHandler {
	return &InjectHandler{pipeline: p}
}

type injectRequest struct {
	ArtifactPath string `json:"artifact_path"`
	SavePath     string `json:"save_path"`
}

func (h *InjectHandler) Inject(w http.ResponseWriter, r *http.Request) {
	var req injectRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.ArtifactPath == "" {
		RespondError(w, http.StatusBadRequest, "artifact_path is required")
		return
	}

	result, err := h.pipeline.InjectArtifact(r.Context(), req.ArtifactPath, req.SavePath)
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, map[string]string{"result": string(result)})
}
