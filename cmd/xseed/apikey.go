// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/config"
	"github.com/xseed/xseed/internal/crypto"
)

func newAPIKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "api-key",
		Short: "Print the configured admin API key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.APIKey == "" {
				return fmt.Errorf("no apiKey configured in %s", configPath)
			}
			cmd.Println(cfg.APIKey)
			return nil
		},
	}
}

func newResetAPIKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-api-key",
		Short: "Generate a new admin API key and persist it to config.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if configPath == "" {
				return fmt.Errorf("--config must point at an existing config.toml to reset its apiKey")
			}

			key, err := crypto.GenerateSecureToken(32)
			if err != nil {
				return fmt.Errorf("generate api key: %w", err)
			}

			raw, err := os.ReadFile(configPath)
			if err != nil {
				return fmt.Errorf("read config: %w", err)
			}

			updated := config.SetAPIKey(string(raw), key)
			if err := os.WriteFile(configPath, []byte(updated), 0o600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			cmd.Println(key)
			return nil
		},
	}
}
