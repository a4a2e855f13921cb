// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/api"
	"github.com/xseed/xseed/internal/metrics"
	"github.com/xseed/xseed/internal/pipeline"
)

const shutdownGracePeriod = 10 * time.Second

func newDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run xseed's scheduler and admin API until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := a.validateStartup(ctx); err != nil {
				return fmt.Errorf("startup validation: %w", err)
			}

			var metricsManager *metrics.Manager
			if a.cfg.MetricsEnabled {
				metricsManager = metrics.NewManager()
			}

			scheduler := pipeline.NewScheduler(a.db, a.cfg.EffectiveSearchCadence(), a.cfg.EffectiveRSSCadence(), a.pipeline.RunBulkSearch, a.pipeline.RunRSSScan, a.logger)
			if err := scheduler.Start(ctx); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer scheduler.Stop()

			a.notifier.Start(ctx)

			router := api.NewRouter(&api.Dependencies{
				Config:         a.cfg,
				IndexerStore:   a.indexers,
				TorznabClient:  a.torznabClient(),
				Pipeline:       a.pipeline,
				MetricsManager: metricsManager,
				Logger:         a.logger,
			})

			addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.Port)
			srv := &http.Server{Addr: addr, Handler: router}

			serveErr := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", addr).Msg("daemon: admin API listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
					return
				}
				serveErr <- nil
			}()

			select {
			case <-ctx.Done():
				a.logger.Info().Msg("daemon: shutting down")
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("admin API: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn().Err(err).Msg("daemon: admin API shutdown did not complete cleanly")
			}

			return nil
		},
	}
}

// validateStartup probes the active client adapter and every active
// indexer once before the daemon enters its scheduling loops, so a
// misconfigured client/indexer URL fails fast instead of surfacing only
// on the next scheduled pass.
func (a *app) validateStartup(ctx context.Context) error {
	if err := a.adapter.ValidateConfig(ctx); err != nil {
		return fmt.Errorf("client adapter %s: %w", a.adapter.Name(), err)
	}

	indexers, err := a.indexers.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active indexers: %w", err)
	}
	if len(indexers) == 0 {
		a.logger.Warn().Msg("daemon: no active indexers configured")
		return nil
	}

	client := a.torznabClient()
	for _, ind := range indexers {
		apiKey, err := a.indexers.DecryptAPIKey(ind)
		if err != nil {
			return fmt.Errorf("indexer %s: decrypt api key: %w", ind.Name, err)
		}
		if _, status, err := client.FetchCaps(ctx, ind, apiKey); err != nil {
			a.logger.Warn().Err(err).Str("indexer", ind.Name).Str("status", string(status)).Msg("daemon: indexer caps probe failed at startup")
		}
	}
	return nil
}
