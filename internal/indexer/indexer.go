// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package indexer implements the persistent registry of Torznab endpoints
// (component C): per-indexer capabilities, health, and rate-limit cooldown.
package indexer

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Status is the indexer's last-observed health classification.
type Status string

const (
	StatusOK           Status = "OK"
	StatusUnknownError Status = "UNKNOWN_ERROR"
	StatusRateLimited  Status = "RATE_LIMITED"
	StatusInvalidAuth  Status = "INVALID_AUTH"
)

// Caps records what a Torznab endpoint advertises via a caps query.
type Caps struct {
	Search bool
	TV     bool
	Movie  bool
	Music  bool
	Audio  bool
	Book   bool

	IDCaps  []string // e.g. "imdbid", "tvdbid"
	CatCaps []int

	MaxLimit     int
	DefaultLimit int
}

// Indexer is one row of the registry.
type Indexer struct {
	ID              int
	URL             string // canonicalized, no query string
	APIKeyEncrypted string
	Name            string
	Active          bool
	Status          Status
	RetryAfter      *time.Time // absolute instant, nil when not cooling down
	Caps            Caps

	// statusCount tracks consecutive rate-limit offenses for exponential
	// backoff; it resets to zero on a successful pass.
	statusCount int
}

// CanonicalizeURL strips the query string and trailing slash from a Torznab
// base URL so two config entries that only differ by apikey= don't create
// duplicate registry rows.
func CanonicalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}

// Cooldown durations, capped at the last entry repeating (§4.C design default).
var backoffSteps = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	1 * time.Hour,
}

// Backoff returns the cooldown duration for the nth (1-indexed) consecutive
// rate-limit offense, capped at backoffSteps' ceiling.
func Backoff(offenseCount int) time.Duration {
	if offenseCount <= 0 {
		offenseCount = 1
	}
	idx := offenseCount - 1
	if idx >= len(backoffSteps) {
		idx = len(backoffSteps) - 1
	}
	return backoffSteps[idx]
}

// IsOnCooldown reports whether the indexer is presently rate-limited.
func (i *Indexer) IsOnCooldown(now time.Time) bool {
	return i.RetryAfter != nil && i.RetryAfter.After(now)
}

// MarkRateLimited records an HTTP 429, advancing the exponential backoff.
func (i *Indexer) MarkRateLimited(now time.Time) {
	i.statusCount++
	wait := Backoff(i.statusCount)
	until := now.Add(wait)
	i.RetryAfter = &until
	i.Status = StatusRateLimited
}

// MarkAuthFailure records an HTTP 401; the indexer stays skipped until the
// operator changes its configured API key.
func (i *Indexer) MarkAuthFailure() {
	i.Status = StatusInvalidAuth
	i.RetryAfter = nil
}

// MarkUnknownError records a non-401/429/2xx response.
func (i *Indexer) MarkUnknownError() {
	i.Status = StatusUnknownError
}

// MarkSuccess records a 2xx response, resetting the backoff counter.
func (i *Indexer) MarkSuccess() {
	i.Status = StatusOK
	i.RetryAfter = nil
	i.statusCount = 0
}

// ClassifyHTTPStatus maps an observed HTTP status code to an Indexer
// Status, per the test-connection and query-response rules of §4.C/§4.E.
func ClassifyHTTPStatus(code int) Status {
	switch {
	case code == 401:
		return StatusInvalidAuth
	case code == 429:
		return StatusRateLimited
	case code >= 200 && code < 300:
		return StatusOK
	default:
		return StatusUnknownError
	}
}

// SupportsKind reports whether the indexer advertises the given Torznab
// search kind.
func (c Caps) SupportsKind(kind string) bool {
	switch kind {
	case "tvsearch":
		return c.TV
	case "movie":
		return c.Movie
	case "music":
		return c.Music
	case "audio":
		return c.Audio
	case "book":
		return c.Book
	case "search":
		return c.Search
	default:
		return false
	}
}

// SupportsID reports whether the indexer advertises the given Torznab id
// parameter (e.g. "imdbid").
func (c Caps) SupportsID(id string) bool {
	for _, v := range c.IDCaps {
		if v == id {
			return true
		}
	}
	return false
}

// SortByPriority orders indexers by name for deterministic iteration in
// tests and CLI listings; operational query fan-out is unordered.
func SortByPriority(list []*Indexer) {
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
}
