// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package update

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/xseed/xseed/pkg/version"
)

// Config names the repository and current version Run checks.
type Config struct {
	Repository string
	Version    string
}

// Updater reports whether a newer release of Config.Repository exists.
// Unlike the teacher's go-selfupdate-backed counterpart, it never
// downloads or replaces the running binary — self-update is out of
// scope, operators roll the daemon through their own deployment pipeline.
type Updater struct {
	config Config
}

func NewUpdater(config Config) *Updater {
	return &Updater{config: config}
}

// Run reports whether a newer release than the configured version is
// available, printing a notice when one is found.
func (u *Updater) Run(ctx context.Context) (bool, error) {
	if _, err := semver.NewVersion(u.config.Version); err != nil {
		return false, fmt.Errorf("could not parse version: %w", err)
	}

	owner, repo, ok := strings.Cut(u.config.Repository, "/")
	if !ok {
		return false, fmt.Errorf("repository must be in owner/name form, got %q", u.config.Repository)
	}

	checker := version.NewChecker(owner, repo, "xseed/"+u.config.Version)
	release, newer, err := checker.CheckForUpdate(ctx, u.config.Version)
	if err != nil {
		return false, fmt.Errorf("error occurred while checking for a newer release: %w", err)
	}
	if !newer {
		return false, nil
	}

	fmt.Printf("Newer version available: %s (current: %s)\n", release.TagName, u.config.Version)
	return true, nil
}
