// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSearchCommand() *cobra.Command {
	var path, infoHash string

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a single bulk search pass, or search one local torrent, and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if path == "" && infoHash == "" {
				if err := a.pipeline.RunBulkSearch(cmd.Context()); err != nil {
					return fmt.Errorf("bulk search: %w", err)
				}
				cmd.Println("Bulk search complete.")
				return nil
			}

			if err := a.pipeline.SearchOne(cmd.Context(), path, infoHash); err != nil {
				return fmt.Errorf("search: %w", err)
			}
			cmd.Println("Search complete.")
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Search only the local torrent at this save path or name")
	cmd.Flags().StringVar(&infoHash, "info-hash", "", "Search only the local torrent with this infohash")
	return cmd
}
