// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xseed/xseed/internal/dbinterface"
)

// Cursor is one indexer's RSS scan position, per SPEC_FULL §8(a): a linear
// scan for last_guid against the current (newest-first) page. LastPubDate
// is persisted alongside the guid for operator visibility only — NewItems
// never reads it, so there is no pubDate-based fallback or guid LRU.
type Cursor struct {
	LastGUID    string
	LastPubDate time.Time
}

// CursorStore persists the rss_cursor table (component H's RSS scan).
type CursorStore struct {
	db dbinterface.Querier
}

func NewCursorStore(db dbinterface.Querier) *CursorStore {
	return &CursorStore{db: db}
}

// Get returns the stored cursor for indexerID, if any.
func (s *CursorStore) Get(ctx context.Context, indexerID int) (Cursor, bool, error) {
	var guid sql.NullString
	var pubDate sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT last_guid, last_pub_date FROM rss_cursor WHERE indexer_id = ?
	`, indexerID).Scan(&guid, &pubDate)
	if err == sql.ErrNoRows {
		return Cursor{}, false, nil
	}
	if err != nil {
		return Cursor{}, false, fmt.Errorf("lookup rss cursor: %w", err)
	}
	c := Cursor{LastGUID: guid.String}
	if pubDate.Valid {
		c.LastPubDate = pubDate.Time
	}
	return c, true, nil
}

// Save persists the cursor reached at the end of one RSS scan pass.
func (s *CursorStore) Save(ctx context.Context, indexerID int, c Cursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rss_cursor (indexer_id, last_guid, last_pub_date)
		VALUES (?, ?, ?)
		ON CONFLICT(indexer_id) DO UPDATE SET last_guid = excluded.last_guid, last_pub_date = excluded.last_pub_date
	`, indexerID, nullableString(c.LastGUID), nullableTime(c.LastPubDate))
	if err != nil {
		return fmt.Errorf("save rss cursor: %w", err)
	}
	return nil
}

// NewItems returns the prefix of items (assumed newest-first, as Torznab
// RSS feeds are ordered) that are newer than the stored cursor. An unset
// cursor (never scanned before) returns every item.
func (c Cursor) NewItems(items []Item) []Item {
	if c.LastGUID == "" {
		return items
	}
	for i, item := range items {
		if item.GUID == c.LastGUID {
			return items[:i]
		}
	}
	return items
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
