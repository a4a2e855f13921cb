// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package decision implements the decision cache (component D): the record
// of every (searchee, candidate) verdict a pass has already reached, so a
// later pass can skip re-matching a candidate it has already ruled on.
package decision

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xseed/xseed/internal/dbinterface"
)

// Verdict is the terminal classification of one (searchee, candidate) pair,
// per spec §3 Decision / §4.F.
type Verdict string

const (
	VerdictMatch                 Verdict = "MATCH"
	VerdictMatchSizeOnly         Verdict = "MATCH_SIZE_ONLY"
	VerdictMatchPartial          Verdict = "MATCH_PARTIAL"
	VerdictRateLimited           Verdict = "RATE_LIMITED"
	VerdictInfoHashAlreadyExists Verdict = "INFO_HASH_ALREADY_EXISTS"
	VerdictFileTreeMismatch      Verdict = "FILE_TREE_MISMATCH"
	VerdictSizeMismatch          Verdict = "SIZE_MISMATCH"
	VerdictNoDownloadLink        Verdict = "NO_DOWNLOAD_LINK"
	VerdictBlockedRelease        Verdict = "BLOCKED_RELEASE"
)

// IsMatch reports whether v is one of the three permitting (MATCH*) verdicts,
// which spec §3 declares terminal — never downgraded by a later pass.
func (v Verdict) IsMatch() bool {
	switch v {
	case VerdictMatch, VerdictMatchSizeOnly, VerdictMatchPartial:
		return true
	default:
		return false
	}
}

// Decision is one row of the cache.
type Decision struct {
	SearcheeName    string
	CandidateGUID   string
	InfoHash        string // empty if the candidate was never snatched
	IndexerID       int
	Verdict         Verdict
	FuzzySizeFactor *float64
	FirstSeen       time.Time
	LastSeen        time.Time
}

// Store persists decisions.
type Store struct {
	db dbinterface.Querier
}

func NewStore(db dbinterface.Querier) *Store {
	return &Store{db: db}
}

// Record is idempotent on (searchee_name, candidate_guid): first_seen is
// written only on insert, last_seen is always bumped to now. Per spec §4.D.
func (s *Store) Record(ctx context.Context, d Decision) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decision (searchee_name, candidate_guid, info_hash, indexer_id, verdict, fuzzy_size_factor, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(searchee_name, candidate_guid) DO UPDATE SET
			info_hash = excluded.info_hash,
			indexer_id = excluded.indexer_id,
			verdict = excluded.verdict,
			fuzzy_size_factor = excluded.fuzzy_size_factor,
			last_seen = CURRENT_TIMESTAMP
	`, d.SearcheeName, d.CandidateGUID, nullableString(d.InfoHash), d.IndexerID, d.Verdict, d.FuzzySizeFactor)
	if err != nil {
		return fmt.Errorf("record decision: %w", err)
	}
	return nil
}

// HasDecision returns the cached verdict for (searcheeName, candidateGUID),
// if any, so the pipeline can short-circuit re-matching.
func (s *Store) HasDecision(ctx context.Context, searcheeName, candidateGUID string) (Verdict, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `
		SELECT verdict FROM decision WHERE searchee_name = ? AND candidate_guid = ?
	`, searcheeName, candidateGUID).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup decision: %w", err)
	}
	return Verdict(v), true, nil
}

// ClearCache deletes decisions that never ended in a download, i.e. rows
// with no recorded info_hash — per spec §4.D clear-cache semantics.
func (s *Store) ClearCache(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM decision WHERE info_hash IS NULL OR info_hash = ''`)
	if err != nil {
		return 0, fmt.Errorf("clear decision cache: %w", err)
	}
	return res.RowsAffected()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
