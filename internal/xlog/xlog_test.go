// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package xlog

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsToInfoLevel(t *testing.T) {
	logger := New(Options{})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewVerboseForcesDebug(t *testing.T) {
	logger := New(Options{Level: "ERROR", Verbose: true})
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
}

func TestNewRotatesToFileWhenPathSet(t *testing.T) {
	logger := New(Options{Path: t.TempDir() + "/xseed.log"})
	logger.Info().Msg("hello")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, parseLevel("trace"))
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("ERROR"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}
