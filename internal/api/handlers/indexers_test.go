// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/testdb"
	"github.com/xseed/xseed/internal/torznab"
)

func TestIndexersListReturnsStoredIndexers(t *testing.T) {
	db := testdb.New(t, "api-indexers")
	store, err := indexer.NewStore(db, []byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	_, err = store.Upsert(t.Context(), "demo", "https://demo.example/api", "key", true)
	require.NoError(t, err)

	h := NewIndexersHandler(store, torznab.NewClient(time.Second, time.Second))

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest("GET", "/api/indexers", nil))

	require.Equal(t, 200, rr.Code)
	require.Contains(t, rr.Body.String(), "demo")
}
