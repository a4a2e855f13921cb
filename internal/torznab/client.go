// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torznab implements the Torznab client (component E): query
// planning against an indexer's advertised capabilities, RSS+Torznab
// response parsing, and snatch (torrent-download) retrieval.
package torznab

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go"

	"github.com/xseed/xseed/internal/buildinfo"
	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/normalize"
	"github.com/xseed/xseed/internal/searchee"
	"github.com/xseed/xseed/internal/titleparse"
)

const (
	defaultQueryTimeout   = 30 * time.Second
	defaultSnatchTimeout  = 30 * time.Second
	maxTorrentDownload    = 16 << 20 // 16 MiB safety limit, mirrors the teacher's jackett client
)

// Client issues Torznab queries against a single indexer endpoint.
type Client struct {
	httpClient    *http.Client
	queryTimeout  time.Duration
	snatchTimeout time.Duration
}

// NewClient builds a Client. Zero durations fall back to the spec defaults.
func NewClient(queryTimeout, snatchTimeout time.Duration) *Client {
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}
	if snatchTimeout <= 0 {
		snatchTimeout = defaultSnatchTimeout
	}
	return &Client{
		httpClient:    &http.Client{},
		queryTimeout:  queryTimeout,
		snatchTimeout: snatchTimeout,
	}
}

// Kind is a Torznab search mode.
type Kind string

const (
	KindTVSearch Kind = "tvsearch"
	KindMovie    Kind = "movie"
	KindMusic    Kind = "music"
	KindBook     Kind = "book"
	KindGeneric  Kind = "search"
)

// PlanQuery selects the query kind from the searchee's parsed title,
// intersected with the indexer's advertised caps, per spec §4.E. Returns
// false if the indexer lacks the capability entirely.
func PlanQuery(s *searchee.Searchee, caps indexer.Caps) (Kind, map[string]string, bool) {
	info := titleparse.Parse(s.Name)

	kind := KindGeneric
	switch info.Kind {
	case titleparse.KindTV:
		kind = KindTVSearch
	case titleparse.KindMovie:
		kind = KindMovie
	case titleparse.KindMusic:
		kind = KindMusic
	case titleparse.KindBook:
		kind = KindBook
	}

	if !caps.SupportsKind(string(kind)) {
		if kind == KindGeneric || !caps.SupportsKind(string(KindGeneric)) {
			return "", nil, false
		}
		kind = KindGeneric
	}

	params := map[string]string{
		"t": string(kind),
		"q": normalize.ForMatching(info.Title),
	}
	if info.Season > 0 && kind == KindTVSearch {
		params["season"] = fmt.Sprintf("%d", info.Season)
	}
	if info.Episode > 0 && kind == KindTVSearch {
		params["ep"] = fmt.Sprintf("%d", info.Episode)
	}
	if info.Year > 0 {
		params["year"] = fmt.Sprintf("%d", info.Year)
	}
	return kind, params, true
}

// GenericSearch builds the no-terms RSS-scan query, per spec §4.H RSS scan.
func GenericSearch() (Kind, map[string]string) {
	return KindGeneric, map[string]string{"t": string(KindGeneric), "q": ""}
}

// Search issues a Torznab query against ind and parses the RSS response.
// Failures are classified with indexer.ClassifyHTTPStatus; a 429 is the
// caller's responsibility to feed into indexer.MarkRateLimited.
func (c *Client) Search(ctx context.Context, ind *indexer.Indexer, apiKey string, params map[string]string) ([]Item, indexer.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	endpoint, err := buildURL(ind.URL, apiKey, params)
	if err != nil {
		return nil, indexer.StatusUnknownError, fmt.Errorf("build search url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, indexer.StatusUnknownError, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, indexer.StatusUnknownError, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	status := indexer.ClassifyHTTPStatus(resp.StatusCode)
	if status != indexer.StatusOK {
		return nil, status, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	items, err := ParseItems(resp.Body)
	if err != nil {
		return nil, indexer.StatusUnknownError, err
	}
	return items, indexer.StatusOK, nil
}

// FetchCaps retrieves and parses an indexer's caps document.
func (c *Client) FetchCaps(ctx context.Context, ind *indexer.Indexer, apiKey string) (indexer.Caps, indexer.Status, error) {
	ctx, cancel := context.WithTimeout(ctx, c.queryTimeout)
	defer cancel()

	endpoint, err := buildURL(ind.URL, apiKey, map[string]string{"t": "caps"})
	if err != nil {
		return indexer.Caps{}, indexer.StatusUnknownError, fmt.Errorf("build caps url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return indexer.Caps{}, indexer.StatusUnknownError, err
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return indexer.Caps{}, indexer.StatusUnknownError, fmt.Errorf("caps request failed: %w", err)
	}
	defer resp.Body.Close()

	status := indexer.ClassifyHTTPStatus(resp.StatusCode)
	if status != indexer.StatusOK {
		return indexer.Caps{}, status, fmt.Errorf("caps returned status %d", resp.StatusCode)
	}

	caps, err := ParseCaps(resp.Body)
	return caps, indexer.StatusOK, err
}

// SnatchResult is the outcome of Snatch.
type SnatchResult struct {
	Metafile *metafile.Metafile
	NoLink   bool // true if the response wasn't a valid bencoded metafile
}

// Snatch fetches a candidate's torrent bytes and parses it as a metafile,
// retrying transient network failures via retry-go. A non-bencode response
// is NOT an error: the caller records NO_DOWNLOAD_LINK, per spec §4.E.
func (c *Client) Snatch(ctx context.Context, link string) (*SnatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.snatchTimeout)
	defer cancel()

	var body []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("User-Agent", buildinfo.UserAgent)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return fmt.Errorf("snatch returned status %d", resp.StatusCode)
			}

			data, err := io.ReadAll(io.LimitReader(resp.Body, maxTorrentDownload))
			if err != nil {
				return err
			}
			body = data
			return nil
		},
		retry.Attempts(3),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("snatch %s: %w", link, err)
	}

	m, err := metafile.Parse(body)
	if err != nil {
		return &SnatchResult{NoLink: true}, nil
	}
	return &SnatchResult{Metafile: m}, nil
}

func buildURL(base, apiKey string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		if v == "" && k != "q" {
			continue
		}
		q.Set(k, v)
	}
	if apiKey != "" {
		q.Set("apikey", apiKey)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
