// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/xseed/xseed/internal/clientadapter"
	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

// InjectArtifact hands an already-written cross-seed artifact torrent
// (outputDir/[tracker/]<name>.cross-seed.torrent, per spec §6) to the
// active client adapter. It backs the admin API's POST /api/inject, for
// operators who ran with action=save and now want a specific match
// injected without waiting for the next pass. savePath is passed through
// as-is: unlike the automatic handleMatch/injectMatch flow, this entry
// point never runs the linker, since the artifact already implies the
// operator placed (or will place) the data themselves.
func (p *Pipeline) InjectArtifact(ctx context.Context, artifactPath, savePath string) (clientadapter.InjectResult, error) {
	data, err := os.ReadFile(artifactPath)
	if err != nil {
		return clientadapter.InjectFailure, fmt.Errorf("read artifact: %w", err)
	}

	m, err := metafile.Parse(data)
	if err != nil {
		return clientadapter.InjectFailure, fmt.Errorf("parse artifact: %w", err)
	}

	s, err := searchee.FromMetafile(m, time.Now())
	if err != nil {
		return clientadapter.InjectFailure, fmt.Errorf("build searchee: %w", err)
	}

	d := decision.Decision{
		SearcheeName: s.Name,
		InfoHash:     m.InfoHash,
		Verdict:      decision.VerdictMatch,
	}
	res, err := p.adapter.Inject(ctx, m, s, d, savePath)
	if err != nil {
		return res, fmt.Errorf("inject: %w", err)
	}
	return res, nil
}
