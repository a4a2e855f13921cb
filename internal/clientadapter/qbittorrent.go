// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package clientadapter

import (
	"context"
	"fmt"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"

	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

// qbittorrentAdapter is grounded on internal/qbittorrent's own construction
// pattern (qbt.Config + NewClient + LoginCtx), trimmed to the single-
// instance, capability-only surface this daemon needs.
type qbittorrentAdapter struct {
	client *qbt.Client
}

// NewQBittorrentAdapter builds and logs into a qBittorrent Web API client.
func NewQBittorrentAdapter(rpcURL string) (Adapter, error) {
	host, username, password := splitRPCURL(rpcURL)
	client := qbt.NewClient(qbt.Config{
		Host:     host,
		Username: username,
		Password: password,
		Timeout:  30,
	})
	if err := client.LoginCtx(context.Background()); err != nil {
		return nil, fmt.Errorf("qbittorrent: login: %w", err)
	}
	return &qbittorrentAdapter{client: client}, nil
}

func (a *qbittorrentAdapter) Name() string { return "qbittorrent" }

func (a *qbittorrentAdapter) ValidateConfig(ctx context.Context) error {
	_, err := a.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("qbittorrent: validate config: %w", err)
	}
	return nil
}

func (a *qbittorrentAdapter) IsTorrentComplete(ctx context.Context, infoHash string) (bool, error) {
	torrents, err := a.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{infoHash}})
	if err != nil {
		return false, fmt.Errorf("qbittorrent: get torrent %s: %w", infoHash, err)
	}
	if len(torrents) == 0 {
		return false, nil
	}
	return torrents[0].Progress >= 1, nil
}

func (a *qbittorrentAdapter) GetAllTorrents(ctx context.Context) ([]TorrentSummary, error) {
	torrents, err := a.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{})
	if err != nil {
		return nil, fmt.Errorf("qbittorrent: get all torrents: %w", err)
	}
	out := make([]TorrentSummary, 0, len(torrents))
	for _, t := range torrents {
		trackers, err := a.client.GetTorrentTrackersCtx(ctx, t.Hash)
		var trackerURLs []string
		if err == nil {
			for _, tr := range trackers {
				trackerURLs = append(trackerURLs, tr.Url)
			}
		}
		var tags []string
		if t.Tags != "" {
			tags = strings.Split(t.Tags, ", ")
		}
		out = append(out, TorrentSummary{
			InfoHash: strings.ToLower(t.Hash),
			Category: t.Category,
			Tags:     tags,
			Trackers: [][]string{trackerURLs},
		})
	}
	return out, nil
}

func (a *qbittorrentAdapter) GetDownloadDir(ctx context.Context, m *metafile.Metafile, onlyCompleted bool) (string, DownloadDirResult, error) {
	torrents, err := a.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{m.InfoHash}})
	if err != nil {
		return "", DownloadDirUnknownError, fmt.Errorf("qbittorrent: get download dir: %w", err)
	}
	if len(torrents) == 0 {
		return "", DownloadDirNotFound, nil
	}
	t := torrents[0]
	if onlyCompleted && t.Progress < 1 {
		return "", DownloadDirNotComplete, nil
	}
	return t.SavePath, DownloadDirFound, nil
}

func (a *qbittorrentAdapter) Inject(ctx context.Context, m *metafile.Metafile, s *searchee.Searchee, d decision.Decision, savePath string) (InjectResult, error) {
	existing, err := a.client.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{m.InfoHash}})
	if err == nil && len(existing) > 0 {
		return InjectAlreadyExists, nil
	}

	body, err := m.Serialize(nil)
	if err != nil {
		return InjectFailure, fmt.Errorf("qbittorrent: serialize candidate: %w", err)
	}

	options := map[string]string{"skip_checking": "true"}
	if savePath != "" {
		options["savepath"] = savePath
	}
	if d.IndexerID != 0 {
		options["category"] = s.Name
	}

	if err := a.client.AddTorrentFromMemoryCtx(ctx, body, options); err != nil {
		return InjectFailure, fmt.Errorf("qbittorrent: add torrent: %w", err)
	}
	return InjectSuccess, nil
}

func (a *qbittorrentAdapter) RecheckTorrent(ctx context.Context, infoHash string) error {
	if err := a.client.RecheckCtx(ctx, []string{infoHash}); err != nil {
		return fmt.Errorf("qbittorrent: recheck %s: %w", infoHash, err)
	}
	return nil
}

// splitRPCURL separates a configured *RpcUrl of the form
// "[scheme://][user:pass@]host:port[/path]" into the URL without its
// userinfo (scheme defaulting to http://) and the credentials.
func splitRPCURL(raw string) (host, username, password string) {
	scheme, rest := "http://", raw
	if i := strings.Index(raw, "://"); i != -1 {
		scheme, rest = raw[:i+3], raw[i+3:]
	}
	host = rest
	if idx := strings.Index(rest, "@"); idx != -1 {
		cred := rest[:idx]
		host = rest[idx+1:]
		if ci := strings.Index(cred, ":"); ci != -1 {
			username, password = cred[:ci], cred[ci+1:]
		} else {
			username = cred
		}
	}
	return scheme + host, username, password
}
