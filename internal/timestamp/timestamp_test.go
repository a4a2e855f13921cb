// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package timestamp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/testdb"
)

func TestShouldSearchNeverSearchedIsEligible(t *testing.T) {
	db := testdb.New(t, "timestamp")
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO indexer (url, name, api_key_enc) VALUES ('https://a.example', 'a', X'00')`)
	require.NoError(t, err)

	store := NewStore(db)
	ok, err := store.ShouldSearch(ctx, "Show.S01E01", 1, 0, 0)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRecordSearchThenExcludeRecentSearch(t *testing.T) {
	db := testdb.New(t, "timestamp")
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO indexer (url, name, api_key_enc) VALUES ('https://a.example', 'a', X'00')`)
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.RecordSearch(ctx, "Show.S01E01", 1))

	ok, err := store.ShouldSearch(ctx, "Show.S01E01", 1, 0, 60)
	require.NoError(t, err)
	require.False(t, ok, "a pair searched seconds ago should be excluded by a 60-minute recent-search window")

	ok, err = store.ShouldSearch(ctx, "Show.S01E01", 1, 0, 0)
	require.NoError(t, err)
	require.True(t, ok, "a disabled (<=0) window never excludes")
}

func TestRecordSearchExcludeOlderNotYetTriggered(t *testing.T) {
	db := testdb.New(t, "timestamp")
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO indexer (url, name, api_key_enc) VALUES ('https://a.example', 'a', X'00')`)
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.RecordSearch(ctx, "Show.S01E01", 1))

	// first_searched is seconds old, nowhere near a 1-week excludeOlder cutoff.
	ok, err := store.ShouldSearch(ctx, "Show.S01E01", 1, 7*24*60, 0)
	require.NoError(t, err)
	require.True(t, ok)
}
