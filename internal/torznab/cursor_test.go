// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/testdb"
)

func TestCursorStoreGetMissingReturnsNotFound(t *testing.T) {
	db := testdb.New(t, "torznab-cursor")
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO indexer (url, name, api_key_enc) VALUES ('https://a.example', 'a', X'00')`)
	require.NoError(t, err)

	store := NewCursorStore(db)
	_, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, found)
}

func TestCursorStoreSaveThenGetRoundTrips(t *testing.T) {
	db := testdb.New(t, "torznab-cursor")
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `INSERT INTO indexer (url, name, api_key_enc) VALUES ('https://a.example', 'a', X'00')`)
	require.NoError(t, err)

	store := NewCursorStore(db)
	want := Cursor{LastGUID: "guid-2", LastPubDate: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, store.Save(ctx, 1, want))

	got, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, want.LastGUID, got.LastGUID)
	require.WithinDuration(t, want.LastPubDate, got.LastPubDate, time.Second)

	// Saving again (the next scan's cursor) overwrites in place.
	require.NoError(t, store.Save(ctx, 1, Cursor{LastGUID: "guid-5"}))
	got, found, err = store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "guid-5", got.LastGUID)
}

func TestCursorNewItemsStopsAtKnownGUID(t *testing.T) {
	items := []Item{
		{GUID: "guid-5"},
		{GUID: "guid-4"},
		{GUID: "guid-3"},
		{GUID: "guid-2"}, // cursor
		{GUID: "guid-1"},
	}
	c := Cursor{LastGUID: "guid-2"}
	fresh := c.NewItems(items)
	require.Len(t, fresh, 3)
	require.Equal(t, "guid-5", fresh[0].GUID)
	require.Equal(t, "guid-3", fresh[2].GUID)
}

func TestCursorNewItemsUnsetCursorReturnsAll(t *testing.T) {
	items := []Item{{GUID: "guid-1"}, {GUID: "guid-2"}}
	require.Equal(t, items, Cursor{}.NewItems(items))
}
