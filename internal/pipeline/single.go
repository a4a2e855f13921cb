// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xseed/xseed/internal/searchee"
)

// SearchOne runs the full per-searchee search+decision flow (the same
// single-writer-per-searchee dispatch RunBulkSearch uses) against exactly
// one searchee, identified by its on-disk path (exact match on SavePath or
// Name) or
// infohash. It backs the admin API's POST /api/search (component L).
func (p *Pipeline) SearchOne(ctx context.Context, path, infoHash string) error {
	searchees, err := p.gatherSearchees(ctx)
	if err != nil {
		return fmt.Errorf("gather searchees: %w", err)
	}

	target := findSearchee(searchees, path, infoHash)
	if target == nil {
		return fmt.Errorf("no matching searchee for path=%q infoHash=%q", path, infoHash)
	}

	indexers, err := p.indexerStore.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active indexers: %w", err)
	}
	if len(indexers) == 0 {
		return fmt.Errorf("no active indexers configured")
	}

	existingHashes := p.existingInfoHashes(ctx)
	p.searchSearcheeBulk(ctx, target, indexers, p.policy(), existingHashes)
	return nil
}

func findSearchee(searchees []*searchee.Searchee, path, infoHash string) *searchee.Searchee {
	for _, s := range searchees {
		if infoHash != "" && strings.EqualFold(s.InfoHash, infoHash) {
			return s
		}
		if path != "" && (s.SavePath == path || s.Name == path) {
			return s
		}
	}
	return nil
}
