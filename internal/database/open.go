// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"errors"
	"strings"
)

// OpenFromPath opens (or creates) the SQLite database at path, running
// pending migrations. SQLite is the only engine the daemon runs against;
// Postgres is reachable only as a one-shot export target via the
// `db migrate` command in cmd/xseed, see MigrateSQLiteToPostgres.
func OpenFromPath(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path is required")
	}
	return New(path)
}
