// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// migratedTables lists the tables copied by MigrateSQLiteToPostgres, in
// foreign-key-safe insert order.
var migratedTables = []string{"indexer", "decision", "timestamp", "rss_cursor", "searchee", "settings", "job_state"}

// SQLiteToPostgresMigrationOptions configures a one-shot offline export.
type SQLiteToPostgresMigrationOptions struct {
	SQLitePath  string
	PostgresDSN string
	// Apply performs the import; when false this is a dry-run that only
	// reports row counts on both sides.
	Apply bool
}

// TableMigrationReport is the per-table row-count outcome of one export.
type TableMigrationReport struct {
	Table        string
	SQLiteRows   int
	PostgresRows int
}

// MigrationReport is the full outcome returned to the `db migrate` command.
type MigrationReport struct {
	Tables                 []TableMigrationReport
	MissingPostgresTables []string
}

// MigrateSQLiteToPostgres copies every row of every table in migratedTables
// from the SQLite database at opts.SQLitePath into a Postgres database
// reachable at opts.PostgresDSN, which must already have the same schema
// applied (operators run their own Postgres migration tooling first; this
// is a data mover, not a schema translator). With Apply=false it only
// counts rows on both sides so an operator can sanity-check before
// committing to the real import.
func MigrateSQLiteToPostgres(ctx context.Context, opts SQLiteToPostgresMigrationOptions) (*MigrationReport, error) {
	src, err := New(opts.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open source sqlite database: %w", err)
	}
	defer src.Close()

	dst, err := sql.Open("pgx", opts.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open destination postgres database: %w", err)
	}
	defer dst.Close()
	if err := dst.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping destination postgres database: %w", err)
	}

	report := &MigrationReport{}

	for _, table := range migratedTables {
		var sqliteCount int
		if err := src.conn.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&sqliteCount); err != nil {
			return nil, fmt.Errorf("count sqlite rows in %s: %w", table, err)
		}

		exists, err := postgresTableExists(ctx, dst, table)
		if err != nil {
			return nil, fmt.Errorf("check postgres table %s: %w", table, err)
		}
		if !exists {
			report.MissingPostgresTables = append(report.MissingPostgresTables, table)
			report.Tables = append(report.Tables, TableMigrationReport{Table: table, SQLiteRows: sqliteCount})
			continue
		}

		if opts.Apply {
			if err := copyTableRows(ctx, src, dst, table); err != nil {
				return nil, fmt.Errorf("copy table %s: %w", table, err)
			}
		}

		var postgresCount int
		if err := dst.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&postgresCount); err != nil {
			return nil, fmt.Errorf("count postgres rows in %s: %w", table, err)
		}

		report.Tables = append(report.Tables, TableMigrationReport{
			Table:        table,
			SQLiteRows:   sqliteCount,
			PostgresRows: postgresCount,
		})
	}

	return report, nil
}

func postgresTableExists(ctx context.Context, dst *sql.DB, table string) (bool, error) {
	var exists bool
	err := dst.QueryRowContext(ctx, `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables WHERE table_name = $1
	)`, table).Scan(&exists)
	return exists, err
}

// copyTableRows clears table in dst, then streams every row of table from
// src into it, inserting by the column names the SQLite side reports.
func copyTableRows(ctx context.Context, src *DB, dst *sql.DB, table string) error {
	rows, err := src.conn.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("clear destination table %s: %w", table, err)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, joinColumns(cols), joinColumns(placeholders))

	values := make([]any, len(cols))
	scanDest := make([]any, len(cols))
	for i := range values {
		scanDest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanDest...); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertQuery, values...); err != nil {
			return fmt.Errorf("insert row into %s: %w", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return tx.Commit()
}

func joinColumns(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
