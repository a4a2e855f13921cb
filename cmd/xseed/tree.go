// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/metafile"
)

func newTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree <torrent>",
		Short: "Print a .torrent file's contents as a directory tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read torrent: %w", err)
			}
			m, err := metafile.Parse(data)
			if err != nil {
				return fmt.Errorf("parse torrent: %w", err)
			}
			cmd.Print(m.Tree())
			return nil
		},
	}
}
