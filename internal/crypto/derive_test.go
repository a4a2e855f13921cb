// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveKeyIs32BytesAndDeterministic(t *testing.T) {
	a := DeriveKey("my-api-key")
	b := DeriveKey("my-api-key")
	c := DeriveKey("different-key")

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
