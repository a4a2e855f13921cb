// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Command xseed is the cross-seed automation daemon of spec §6: it finds
// alternate trackers hosting torrents already present locally, matches
// candidates under a configurable strictness, and optionally injects the
// confirmed matches into a torrent client.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/buildinfo"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "xseed",
		Short:         "Cross-seed automation daemon",
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	registerSharedFlags(cmd)

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml")

	cmd.AddCommand(
		newGenConfigCommand(),
		newClearCacheCommand(),
		newClearIndexerFailuresCommand(),
		newTestNotificationCommand(),
		newDiffCommand(),
		newTreeCommand(),
		newAPIKeyCommand(),
		newResetAPIKeyCommand(),
		newDaemonCommand(),
		newRSSCommand(),
		newSearchCommand(),
		newInjectCommand(),
		newDBCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), buildinfo.String())
			return err
		},
	}
}
