// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRSSCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rss",
		Short: "Run a single RSS scan across every active indexer and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.pipeline.RunRSSScan(cmd.Context()); err != nil {
				return fmt.Errorf("rss scan: %w", err)
			}
			cmd.Println("RSS scan complete.")
			return nil
		},
	}
}
