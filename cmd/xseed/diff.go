// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/matcher"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

func newDiffCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "diff <a.torrent> <b.torrent>",
		Short: "Report whether two torrents are SAFE/RISKY/PARTIAL equivalent",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if mode != "" {
				cfg.MatchMode = mode
			}

			a, err := parseMetafile(args[0])
			if err != nil {
				return err
			}
			b, err := parseMetafile(args[1])
			if err != nil {
				return err
			}

			s, err := searchee.FromMetafile(a, time.Time{})
			if err != nil {
				return fmt.Errorf("build searchee from %s: %w", args[0], err)
			}

			policy := matcher.Policy{
				MatchMode:           matcherModeFromString(cfg.EffectiveMatchMode()),
				FuzzySizeThreshold:  cfg.FuzzySizeThreshold,
				IgnorableExtensions: cfg.EffectiveIgnorableExtensions(),
				BlockList:           cfg.BlockList,
			}

			verdict := matcher.Evaluate(s, b, policy, nil)
			cmd.Println(string(verdict))
			if !verdict.IsMatch() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "Override matchMode for this comparison (safe|risky|partial)")
	return cmd
}

func parseMetafile(path string) (*metafile.Metafile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	m, err := metafile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func matcherModeFromString(m domain.MatchMode) matcher.MatchMode {
	switch m {
	case domain.MatchModeRisky:
		return matcher.ModeRisky
	case domain.MatchModePartial:
		return matcher.ModePartial
	default:
		return matcher.ModeSafe
	}
}
