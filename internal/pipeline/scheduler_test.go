// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/testdb"
)

func TestJobStateTryStartFirstRunAlwaysPermitted(t *testing.T) {
	db := testdb.New(t, "pipeline-jobstate")
	ctx := context.Background()
	jobs := newJobStateStore(db)

	started, err := jobs.tryStart(ctx, "search", time.Now())
	require.NoError(t, err)
	require.True(t, started)
}

func TestJobStateTryStartBlocksWhileRunning(t *testing.T) {
	db := testdb.New(t, "pipeline-jobstate")
	ctx := context.Background()
	jobs := newJobStateStore(db)

	started, err := jobs.tryStart(ctx, "search", time.Now())
	require.NoError(t, err)
	require.True(t, started)

	// A second start attempt while still marked running must be dropped,
	// per spec §4.I's single-flight guarantee.
	started, err = jobs.tryStart(ctx, "search", time.Now())
	require.NoError(t, err)
	require.False(t, started)
}

func TestJobStateFinishSchedulesNextRunAndClearsRunning(t *testing.T) {
	db := testdb.New(t, "pipeline-jobstate")
	ctx := context.Background()
	jobs := newJobStateStore(db)

	now := time.Now().UTC().Truncate(time.Second)
	started, err := jobs.tryStart(ctx, "search", now)
	require.NoError(t, err)
	require.True(t, started)

	require.NoError(t, jobs.finish(ctx, "search", now, time.Hour))

	// running is cleared, so a new start attempt is only blocked by next_run.
	started, err = jobs.tryStart(ctx, "search", now)
	require.NoError(t, err)
	require.False(t, started, "next_run is an hour out, so an immediate retry must be refused")

	started, err = jobs.tryStart(ctx, "search", now.Add(2*time.Hour))
	require.NoError(t, err)
	require.True(t, started, "once next_run has passed, starting must succeed")
}

func TestJobStateClearStuckRunningIsNoopWithoutRow(t *testing.T) {
	db := testdb.New(t, "pipeline-jobstate")
	jobs := newJobStateStore(db)
	require.NoError(t, jobs.clearStuckRunning(context.Background(), "search"))
}

func TestJobStateClearStuckRunningUnblocksNextStart(t *testing.T) {
	db := testdb.New(t, "pipeline-jobstate")
	ctx := context.Background()
	jobs := newJobStateStore(db)

	started, err := jobs.tryStart(ctx, "search", time.Now())
	require.NoError(t, err)
	require.True(t, started)

	require.NoError(t, jobs.clearStuckRunning(ctx, "search"))

	started, err = jobs.tryStart(ctx, "search", time.Now())
	require.NoError(t, err)
	require.True(t, started, "clearing a stuck running flag must let the loop recover after a crash")
}

// --- Scheduler -------------------------------------------------------------

func TestSchedulerRunsBothLoopsOnStart(t *testing.T) {
	db := testdb.New(t, "pipeline-scheduler")

	var searchRuns, rssRuns int32
	runSearch := func(context.Context) error { atomic.AddInt32(&searchRuns, 1); return nil }
	runRSS := func(context.Context) error { atomic.AddInt32(&rssRuns, 1); return nil }

	sched := NewScheduler(db, 50*time.Millisecond, 50*time.Millisecond, runSearch, runRSS, zerolog.Nop())
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&searchRuns) >= 1 && atomic.LoadInt32(&rssRuns) >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulerStopWaitsForInFlightPass(t *testing.T) {
	db := testdb.New(t, "pipeline-scheduler")

	started := make(chan struct{})
	release := make(chan struct{})
	runSearch := func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}
	runRSS := func(context.Context) error { return nil }

	sched := NewScheduler(db, 10*time.Millisecond, time.Hour, runSearch, runRSS, zerolog.Nop())
	require.NoError(t, sched.Start(context.Background()))

	<-started
	stopped := make(chan struct{})
	go func() {
		sched.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop must not return while a pass is still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-stopped
}
