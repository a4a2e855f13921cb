// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyDeliversJSONBody(t *testing.T) {
	received := make(chan Event, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var e Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&e))
		received <- e
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n.Start(ctx)

	n.Notify(ctx, Event{Title: "match found", Body: "show.s01e01"})

	select {
	case e := <-received:
		assert.Equal(t, "match found", e.Title)
		assert.Equal(t, "show.s01e01", e.Body)
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not called")
	}
}

func TestNotifyNoOpWithoutURL(t *testing.T) {
	n := New("", zerolog.Nop())
	n.Start(context.Background())
	n.Notify(context.Background(), Event{Title: "x"})
	// no assertion beyond "does not panic or block"
}

func TestTestDeliversSynchronously(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, zerolog.Nop())
	err := n.Test(context.Background(), Event{Title: "test"})
	require.NoError(t, err)
}

func TestTestErrorsWithoutURL(t *testing.T) {
	n := New("", zerolog.Nop())
	err := n.Test(context.Background(), Event{Title: "test"})
	assert.Error(t, err)
}
