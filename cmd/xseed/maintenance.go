// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/decision"
)

func newClearCacheCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Delete every cached (searchee, candidate) decision",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := decision.NewStore(a.db).ClearCache(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			cmd.Printf("Cleared %d cached decisions.\n", n)
			return nil
		},
	}
}

func newClearIndexerFailuresCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-indexer-failures",
		Short: "Reset every indexer's status and retry-after cooldown",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.indexers.ClearFailures(cmd.Context()); err != nil {
				return fmt.Errorf("clear indexer failures: %w", err)
			}
			cmd.Println("Cleared indexer failure state.")
			return nil
		},
	}
}
