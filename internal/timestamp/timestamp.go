// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package timestamp persists the per-(searchee, indexer) search history
// (spec §3 Timestamps) the bulk-search pass filters against: excludeOlder
// and excludeRecentSearch.
package timestamp

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xseed/xseed/internal/dbinterface"
)

// Store persists first/last-searched timestamps keyed by
// (searchee_name, indexer_id).
type Store struct {
	db dbinterface.Querier
}

func NewStore(db dbinterface.Querier) *Store {
	return &Store{db: db}
}

// ShouldSearch reports whether (searcheeName, indexerID) should be queried
// this pass, per spec §4.H's two exclusion windows. A pair never searched
// before is always eligible. excludeOlderMinutes <= 0 and
// excludeRecentSearchMinutes <= 0 disable their respective window.
func (s *Store) ShouldSearch(ctx context.Context, searcheeName string, indexerID int, excludeOlderMinutes, excludeRecentSearchMinutes int) (bool, error) {
	var firstSearched, lastSearched time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT first_searched, last_searched FROM timestamp WHERE searchee_name = ? AND indexer_id = ?
	`, searcheeName, indexerID).Scan(&firstSearched, &lastSearched)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup timestamp: %w", err)
	}

	now := time.Now()
	if excludeOlderMinutes > 0 && firstSearched.Before(now.Add(-time.Duration(excludeOlderMinutes)*time.Minute)) {
		return false, nil
	}
	if excludeRecentSearchMinutes > 0 && lastSearched.After(now.Add(-time.Duration(excludeRecentSearchMinutes)*time.Minute)) {
		return false, nil
	}
	return true, nil
}

// RecordSearch upserts the (searcheeName, indexerID) row: first_searched is
// written only on insert, last_searched is always bumped to now.
func (s *Store) RecordSearch(ctx context.Context, searcheeName string, indexerID int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO timestamp (searchee_name, indexer_id, first_searched, last_searched)
		VALUES (?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(searchee_name, indexer_id) DO UPDATE SET last_searched = CURRENT_TIMESTAMP
	`, searcheeName, indexerID)
	if err != nil {
		return fmt.Errorf("record search timestamp: %w", err)
	}
	return nil
}
