// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crypto

import "crypto/sha256"

// DeriveKey turns an arbitrary-length secret into a 32-byte AES-256 key,
// so a single operator-facing secret (xseed's API key) can also serve as
// the indexer store's at-rest encryption key without a second config field.
func DeriveKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
