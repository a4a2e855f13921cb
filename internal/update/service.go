// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package update

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xseed/xseed/pkg/version"
)

const (
	repoOwner = "xseed"
	repoName  = "xseed"

	checkInterval = 24 * time.Hour
)

// releaseChecker is the subset of *version.Checker the service depends on,
// so tests can stub it without reaching the network.
type releaseChecker interface {
	CheckForUpdate(ctx context.Context, currentVersion string) (*version.Release, bool, error)
}

// Service periodically checks GitHub for a newer release and caches the
// result for GetLatestRelease to return, mirroring the teacher's own
// background update-check service minus the self-update step.
type Service struct {
	mu sync.RWMutex

	log            zerolog.Logger
	currentVersion string
	isEnabled      bool
	releaseChecker releaseChecker
	latestRelease  *version.Release
}

// NewService builds a Service for currentVersion, identifying its HTTP
// requests as userAgent. enabled controls whether CheckUpdates/Start
// actually reach out to GitHub.
func NewService(log zerolog.Logger, enabled bool, currentVersion, userAgent string) *Service {
	return &Service{
		log:            log,
		currentVersion: currentVersion,
		isEnabled:      enabled,
		releaseChecker: version.NewChecker(repoOwner, repoName, userAgent),
	}
}

// SetEnabled toggles whether future checks run.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isEnabled = enabled
}

// CanSelfUpdate reports whether the current platform supports in-place
// self-update (false on Windows). The Service itself only checks for and
// reports releases; it never replaces the running binary.
func (s *Service) CanSelfUpdate() bool {
	return isSelfUpdateSupportedPlatform()
}

// GetLatestRelease returns the most recently discovered newer release, or
// nil if none has been found yet (or updates are disabled).
func (s *Service) GetLatestRelease(ctx context.Context) *version.Release {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latestRelease
}

// CheckUpdates runs a single check against GitHub and caches the result.
// It is a no-op while disabled.
func (s *Service) CheckUpdates(ctx context.Context) {
	s.mu.RLock()
	enabled := s.isEnabled
	current := s.currentVersion
	s.mu.RUnlock()
	if !enabled {
		return
	}

	release, newer, err := s.releaseChecker.CheckForUpdate(ctx, current)
	if err != nil {
		s.log.Warn().Err(err).Msg("update: failed to check for a newer release")
		return
	}
	if !newer {
		return
	}

	s.mu.Lock()
	s.latestRelease = release
	s.mu.Unlock()

	s.log.Info().Str("version", release.TagName).Msg("update: newer release available")
}

// Start runs CheckUpdates immediately and then on checkInterval until ctx
// is canceled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		s.CheckUpdates(ctx)

		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CheckUpdates(ctx)
			}
		}
	}()
}
