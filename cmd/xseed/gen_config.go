// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/config"
)

func newGenConfigCommand() *cobra.Command {
	var docker bool

	cmd := &cobra.Command{
		Use:   "gen-config",
		Short: "Render a commented config.toml template",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tmpl := config.GenerateTemplate(docker)
			if configPath == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), tmpl)
				return err
			}
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", configPath)
			}
			if err := os.WriteFile(configPath, []byte(tmpl), 0o600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			cmd.Printf("Wrote %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&docker, "docker", false, "Render container-friendly defaults (0.0.0.0, /config)")
	return cmd
}
