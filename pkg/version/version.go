// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package version checks GitHub releases for newer tagged versions. It
// carries only the semver-compare half of the teacher's update story —
// downloading and replacing the running binary is out of scope here.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Asset mirrors the fields of a GitHub release asset this package reads.
type Asset struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	ContentType        string `json:"content_type"`
	State              string `json:"state"`
	Size               int64  `json:"size"`
	DownloadCount      int64  `json:"download_count"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release mirrors the fields of a GitHub release this package reads.
type Release struct {
	ID         int64   `json:"id"`
	TagName    string  `json:"tag_name"`
	Name       *string `json:"name"`
	Body       *string `json:"body"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// isDevelop reports whether version names a development build rather than
// a tagged release, so such builds are never offered an "update".
func isDevelop(version string) bool {
	v := strings.ToLower(strings.TrimSpace(version))
	switch v {
	case "", "dev", "develop", "main", "latest":
		return true
	}
	if strings.HasPrefix(v, "pr-") {
		return true
	}
	return strings.HasSuffix(v, "-dev") || strings.HasSuffix(v, "-develop")
}

// Checker polls a single GitHub repository's releases for a newer version.
type Checker struct {
	Owner     string
	Repo      string
	UserAgent string

	httpClient *http.Client
}

// NewChecker builds a Checker for owner/repo, identifying itself as userAgent.
func NewChecker(owner, repo, userAgent string) *Checker {
	return &Checker{
		Owner:      owner,
		Repo:       repo,
		UserAgent:  userAgent,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Latest fetches the repository's most recent published release.
func (c *Checker) Latest(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", c.Owner, c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github returned status %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	return &release, nil
}

// compareVersions reports whether release is a version newer than
// currentVersion. A prerelease is only ever offered to a currentVersion
// that is itself a prerelease, so stable installs don't get nudged toward
// release candidates.
func (c *Checker) compareVersions(currentVersion string, release *Release) (bool, *semver.Version, error) {
	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return false, nil, fmt.Errorf("parse current version: %w", err)
	}
	latest, err := semver.NewVersion(release.TagName)
	if err != nil {
		return false, nil, fmt.Errorf("parse release version: %w", err)
	}

	if latest.Prerelease() != "" && current.Prerelease() == "" {
		return false, latest, nil
	}
	return latest.GreaterThan(current), latest, nil
}

// CheckForUpdate fetches the latest release and reports whether it is
// newer than currentVersion. Development builds (isDevelop) are never
// offered an update.
func (c *Checker) CheckForUpdate(ctx context.Context, currentVersion string) (*Release, bool, error) {
	if isDevelop(currentVersion) {
		return nil, false, nil
	}

	release, err := c.Latest(ctx)
	if err != nil {
		return nil, false, err
	}

	newer, _, err := c.compareVersions(currentVersion, release)
	if err != nil {
		return nil, false, err
	}
	return release, newer, nil
}
