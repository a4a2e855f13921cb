// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package clientadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/domain"
)

func TestSelectDefaultsToSaveOnly(t *testing.T) {
	a, err := Select(&domain.Config{})
	require.NoError(t, err)
	assert.Equal(t, "none", a.Name())
	assert.NoError(t, a.ValidateConfig(context.Background()))
}

func TestSelectPrefersRTorrentFirst(t *testing.T) {
	a, err := Select(&domain.Config{
		RTorrentURL:     "http://localhost:5000/RPC2",
		TransmissionURL: "http://localhost:9091/transmission/rpc",
	})
	require.NoError(t, err)
	assert.Equal(t, "rtorrent", a.Name())
}

func TestSelectFallsBackInOrder(t *testing.T) {
	a, err := Select(&domain.Config{DelugeURL: "http://localhost:8112/json"})
	require.NoError(t, err)
	assert.Equal(t, "deluge", a.Name())
}

func TestSaveOnlyAdapterNeverInjects(t *testing.T) {
	a := NewSaveOnlyAdapter()
	_, err := a.Inject(context.Background(), nil, nil, decision.Decision{}, "")
	assert.ErrorIs(t, err, ErrNoClientConfigured)
}
