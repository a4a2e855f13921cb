// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInjectCommand() *cobra.Command {
	var savePath string

	cmd := &cobra.Command{
		Use:   "inject <artifact.torrent>",
		Short: "Hand a cross-seed artifact torrent to the active client adapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.pipeline.InjectArtifact(cmd.Context(), args[0], savePath)
			if err != nil {
				return fmt.Errorf("inject: %w", err)
			}
			cmd.Printf("Result: %s\n", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&savePath, "save-path", "", "Save path to pass to the client adapter")
	return cmd
}
