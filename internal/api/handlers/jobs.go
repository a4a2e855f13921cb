// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http"

	"github.com/xseed/xseed/internal/pipeline"
)

// JobsHandler backs GET /api/jobs: the scheduler's job_state table
// (last_run/next_run/running), a read surface supplementing spec §3's
// Job state model (SPEC_FULL §7).
type JobsHandler struct {
	pipeline *pipeline.Pipeline
}

func NewJobsHandler(p *pipeline.Pipeline) *JobsHandler {
	return &JobsHandler{pipeline: p}
}

func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	states, err := h.pipeline.JobStates(r.Context())
	if err != nil {
		RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	RespondJSON(w, http.StatusOK, states)
}
