// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/xseed/xseed/internal/dbinterface"
)

// jobStateStore persists the scheduler's single-flight/next-run bookkeeping
// (spec §3 Job state) keyed by job name ("search", "rss").
type jobStateStore struct {
	db dbinterface.Querier
}

func newJobStateStore(db dbinterface.Querier) *jobStateStore {
	return &jobStateStore{db: db}
}

// tryStart reports whether the named job may start now: it must not already
// be marked running, and now must be at or after its stored next_run (a
// zero next_run, meaning never scheduled, always permits starting). On
// success the row is marked running.
func (j *jobStateStore) tryStart(ctx context.Context, name string, now time.Time) (bool, error) {
	var running bool
	var nextRun sql.NullTime
	err := j.db.QueryRowContext(ctx, `SELECT running, next_run FROM job_state WHERE name = ?`, name).Scan(&running, &nextRun)
	switch {
	case err == sql.ErrNoRows:
		// fall through to insert-and-start below
	case err != nil:
		return false, fmt.Errorf("lookup job state: %w", err)
	default:
		if running {
			return false, nil
		}
		if nextRun.Valid && now.Before(nextRun.Time) {
			return false, nil
		}
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO job_state (name, running) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET running = 1
	`, name)
	if err != nil {
		return false, fmt.Errorf("mark job running: %w", err)
	}
	return true, nil
}

// nextWait returns how long the caller should sleep before its next
// tryStart attempt: 0 if the job has never run or is already due, otherwise
// the time remaining until its stored next_run. A lookup failure degrades
// to "due now" rather than blocking the loop forever.
func (j *jobStateStore) nextWait(ctx context.Context, name string, logger zerolog.Logger) time.Duration {
	var nextRun sql.NullTime
	err := j.db.QueryRowContext(ctx, `SELECT next_run FROM job_state WHERE name = ?`, name).Scan(&nextRun)
	if err == sql.ErrNoRows {
		return 0
	}
	if err != nil {
		logger.Warn().Err(err).Str("job", name).Msg("scheduler: next_run lookup failed, running now")
		return 0
	}
	if !nextRun.Valid {
		return 0
	}
	if wait := time.Until(nextRun.Time); wait > 0 {
		return wait
	}
	return 0
}

// clearStuckRunning resets a "running" flag left set by a crash mid-pass,
// without disturbing last_run/next_run. A no-op if the row doesn't exist
// yet (the job has never run).
func (j *jobStateStore) clearStuckRunning(ctx context.Context, name string) error {
	_, err := j.db.ExecContext(ctx, `UPDATE job_state SET running = 0 WHERE name = ? AND running = 1`, name)
	if err != nil {
		return fmt.Errorf("clear stuck job state: %w", err)
	}
	return nil
}

// finish clears the running flag and schedules the next run at
// runEnd+cadence, per spec §4.I.
func (j *jobStateStore) finish(ctx context.Context, name string, runEnd time.Time, cadence time.Duration) error {
	_, err := j.db.ExecContext(ctx, `
		UPDATE job_state SET running = 0, last_run = ?, next_run = ? WHERE name = ?
	`, runEnd, runEnd.Add(cadence), name)
	if err != nil {
		return fmt.Errorf("finish job state: %w", err)
	}
	return nil
}

// JobState is one row of the scheduler's job_state table, read-only, for
// the admin API's GET /api/jobs (SPEC_FULL §7).
type JobState struct {
	Name    string     `json:"name"`
	Running bool       `json:"running"`
	LastRun *time.Time `json:"last_run,omitempty"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

func (j *jobStateStore) list(ctx context.Context) ([]JobState, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT name, running, last_run, next_run FROM job_state ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list job state: %w", err)
	}
	defer rows.Close()

	var states []JobState
	for rows.Next() {
		var s JobState
		var lastRun, nextRun sql.NullTime
		if err := rows.Scan(&s.Name, &s.Running, &lastRun, &nextRun); err != nil {
			return nil, fmt.Errorf("scan job state: %w", err)
		}
		if lastRun.Valid {
			s.LastRun = &lastRun.Time
		}
		if nextRun.Valid {
			s.NextRun = &nextRun.Time
		}
		states = append(states, s)
	}
	return states, rows.Err()
}

// JobStates reports the current state of every scheduled job.
func (p *Pipeline) JobStates(ctx context.Context) ([]JobState, error) {
	return p.jobs.list(ctx)
}
