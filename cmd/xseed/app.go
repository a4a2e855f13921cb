// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/clientadapter"
	"github.com/xseed/xseed/internal/config"
	"github.com/xseed/xseed/internal/crypto"
	"github.com/xseed/xseed/internal/database"
	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/notifier"
	"github.com/xseed/xseed/internal/pipeline"
	"github.com/xseed/xseed/internal/torznab"
	"github.com/xseed/xseed/internal/xlog"
)

// app bundles every long-lived dependency a subcommand might need,
// built by newApp from the layered config (file < env < flags) at the
// start of each subcommand's RunE, mirroring cmd/qui's pattern of threading a single
// assembled context through RunE closures instead of package globals.
type app struct {
	cfg      *domain.Config
	logger   zerolog.Logger
	db       *database.DB
	indexers *indexer.Store
	adapter  clientadapter.Adapter
	notifier *notifier.Notifier
	pipeline *pipeline.Pipeline
	torznab  *torznab.Client
}

// loadConfig layers the TOML file, environment, and any explicitly-set
// CLI flags (spec §3.2/§6) into a single Config.
func loadConfig(cmd *cobra.Command) (*domain.Config, error) {
	cfg, err := config.New(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, fmt.Errorf("apply flag overrides: %w", err)
	}
	return cfg, nil
}

// newApp opens the database, builds the indexer store (deriving its
// at-rest encryption key from the API key, since xseed has no separate
// secret field, per DESIGN.md), the client adapter, the notifier, and the
// pipeline. Every daemon/one-shot subcommand shares this wiring.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger := xlog.New(xlog.Options{
		Level:      cfg.LogLevel,
		Path:       cfg.LogPath,
		MaxSizeMB:  cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		Verbose:    cfg.Verbose,
	})

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	indexerKey := deriveIndexerKey(cfg.APIKey)
	indexers, err := indexer.NewStore(db, indexerKey)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build indexer store: %w", err)
	}

	adapter, err := clientadapter.Select(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("select client adapter: %w", err)
	}

	notif := notifier.New(cfg.NotificationWebhookURL, logger)

	p := pipeline.New(cfg, db, indexers, adapter, notif, logger)
	client := torznab.NewClient(cfg.SearchTimeout, cfg.SnatchTimeout)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		indexers: indexers,
		adapter:  adapter,
		notifier: notif,
		pipeline: p,
		torznab:  client,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// torznabClient exposes the Torznab client the pipeline already built one
// of internally, for callers (the admin API router, startup validation)
// that need to probe indexers directly rather than through a pipeline run.
func (a *app) torznabClient() *torznab.Client {
	return a.torznab
}

// deriveIndexerKey turns the operator's single API key into the 32-byte
// AES-256 key the indexer store needs to encrypt API keys at rest, so
// config doesn't need a second secret field just for this.
func deriveIndexerKey(apiKey string) []byte {
	return crypto.DeriveKey(apiKey)
}
