// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xseed/xseed/internal/dbinterface"
)

const (
	jobSearch = "search"
	jobRSS    = "rss"
)

// Scheduler drives the two independent cadence loops of spec §4.I: bulk
// search and RSS scan, each single-flighted against job_state so a crash
// mid-run or an overrunning previous pass can never overlap with itself.
// Styled on internal/services/dirscan/service.go's Start/Stop/runScheduler.
type Scheduler struct {
	jobs   *jobStateStore
	logger zerolog.Logger

	searchCadence time.Duration
	rssCadence    time.Duration
	runSearch     func(context.Context) error
	runRSS        func(context.Context) error

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler builds a Scheduler. runSearch/runRSS are ordinarily
// Pipeline.RunBulkSearch/Pipeline.RunRSSScan; accepting plain funcs rather
// than a *Pipeline keeps the loop itself independently testable.
func NewScheduler(db dbinterface.Querier, searchCadence, rssCadence time.Duration, runSearch, runRSS func(context.Context) error, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		jobs:          newJobStateStore(db),
		logger:        logger,
		searchCadence: searchCadence,
		rssCadence:    rssCadence,
		runSearch:     runSearch,
		runRSS:        runRSS,
	}
}

// Start clears any job_state left "running" by a prior crash, then launches
// the two cadence loops. It returns immediately; the loops run until Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.jobs.clearStuckRunning(ctx, jobSearch); err != nil {
		s.logger.Warn().Err(err).Str("job", jobSearch).Msg("scheduler: recover stuck job state failed")
	}
	if err := s.jobs.clearStuckRunning(ctx, jobRSS); err != nil {
		s.logger.Warn().Err(err).Str("job", jobRSS).Msg("scheduler: recover stuck job state failed")
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(2)
	go s.runLoop(runCtx, jobSearch, s.searchCadence, s.runSearch)
	go s.runLoop(runCtx, jobRSS, s.rssCadence, s.runRSS)

	s.logger.Info().Dur("searchCadence", s.searchCadence).Dur("rssCadence", s.rssCadence).Msg("scheduler: started")
	return nil
}

// Stop cancels both loops and waits for the in-flight passes to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info().Msg("scheduler: stopped")
}

// runLoop waits until the job's persisted next_run, then runs it, never
// returning on error: a fatal pass just logs and the next_run set by
// finish pushes the retry out by one cadence, per spec §4.I.
func (s *Scheduler) runLoop(ctx context.Context, name string, cadence time.Duration, run func(context.Context) error) {
	defer s.wg.Done()

	for {
		wait := s.jobs.nextWait(ctx, name, s.logger)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if ctx.Err() != nil {
			return
		}

		now := time.Now()
		started, err := s.jobs.tryStart(ctx, name, now)
		if err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("scheduler: job state lookup failed, retrying after cadence")
			if err := s.jobs.finish(ctx, name, now, cadence); err != nil {
				s.logger.Warn().Err(err).Str("job", name).Msg("scheduler: failed to reschedule after lookup error")
			}
			continue
		}
		if !started {
			continue
		}

		runErr := run(ctx)
		runEnd := time.Now()
		if runErr != nil && ctx.Err() == nil {
			s.logger.Error().Err(runErr).Str("job", name).Msg("scheduler: pass failed, retrying next cadence")
		}
		if err := s.jobs.finish(ctx, name, runEnd, cadence); err != nil {
			s.logger.Warn().Err(err).Str("job", name).Msg("scheduler: finish job state failed")
		}
	}
}
