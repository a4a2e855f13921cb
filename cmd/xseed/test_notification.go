// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/notifier"
)

func newTestNotificationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test-notification",
		Short: "Send a test event to the configured notification webhook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			n := notifier.New(cfg.NotificationWebhookURL, zerolog.Nop())
			event := notifier.Event{
				Title: "xseed test notification",
				Body:  "If you can read this, your webhook is configured correctly.",
			}
			if err := n.Test(cmd.Context(), event); err != nil {
				return fmt.Errorf("test notification: %w", err)
			}

			cmd.Println("Test notification delivered successfully.")
			return nil
		},
	}
}
