// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package clientadapter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

// transmissionAdapter speaks transmission-rpc's JSON-over-HTTP protocol.
// The example pack carries no transmission RPC client, so this is a
// minimal hand-rolled client on encoding/json + net/http, following the
// session-id handshake (409 + X-Transmission-Session-Id) transmission-rpc
// documents.
type transmissionAdapter struct {
	endpoint string
	http     *http.Client

	mu        sync.Mutex
	sessionID string
}

// NewTransmissionAdapter builds an adapter against a transmission-daemon
// RPC endpoint (typically ".../transmission/rpc").
func NewTransmissionAdapter(rpcURL string) Adapter {
	return &transmissionAdapter{endpoint: rpcURL, http: &http.Client{}}
}

func (a *transmissionAdapter) Name() string { return "transmission" }

type rpcRequest struct {
	Method    string `json:"method"`
	Arguments any    `json:"arguments,omitempty"`
}

type rpcResponse struct {
	Result    string          `json:"result"`
	Arguments json.RawMessage `json:"arguments"`
}

func (a *transmissionAdapter) do(ctx context.Context, method string, args any, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Arguments: args})
	if err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		a.mu.Lock()
		if a.sessionID != "" {
			req.Header.Set("X-Transmission-Session-Id", a.sessionID)
		}
		a.mu.Unlock()

		resp, err := a.http.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusConflict {
			a.mu.Lock()
			a.sessionID = resp.Header.Get("X-Transmission-Session-Id")
			a.mu.Unlock()
			resp.Body.Close()
			continue
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return err
		}

		var parsed rpcResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("decode transmission response: %w", err)
		}
		if parsed.Result != "success" {
			return fmt.Errorf("transmission rpc %s failed: %s", method, parsed.Result)
		}
		if out != nil && len(parsed.Arguments) > 0 {
			return json.Unmarshal(parsed.Arguments, out)
		}
		return nil
	}
	return fmt.Errorf("transmission: session negotiation failed for %s", method)
}

type transmissionTorrent struct {
	HashString  string   `json:"hashString"`
	Labels      []string `json:"labels"`
	DownloadDir string `json:"downloadDir"`
	IsFinished  bool   `json:"isFinished"`
	PercentDone float64 `json:"percentDone"`
	Trackers    []struct {
		Announce string `json:"announce"`
	} `json:"trackers"`
}

func (a *transmissionAdapter) getTorrents(ctx context.Context, ids ...string) ([]transmissionTorrent, error) {
	var resp struct {
		Torrents []transmissionTorrent `json:"torrents"`
	}
	args := map[string]any{
		"fields": []string{"hashString", "labels", "downloadDir", "isFinished", "percentDone", "trackers"},
	}
	if len(ids) > 0 {
		args["ids"] = ids
	}
	if err := a.do(ctx, "torrent-get", args, &resp); err != nil {
		return nil, err
	}
	return resp.Torrents, nil
}

func (a *transmissionAdapter) ValidateConfig(ctx context.Context) error {
	if _, err := a.getTorrents(ctx); err != nil {
		return fmt.Errorf("transmission: validate config: %w", err)
	}
	return nil
}

func (a *transmissionAdapter) IsTorrentComplete(ctx context.Context, infoHash string) (bool, error) {
	torrents, err := a.getTorrents(ctx, infoHash)
	if err != nil {
		return false, fmt.Errorf("transmission: get torrent %s: %w", infoHash, err)
	}
	if len(torrents) == 0 {
		return false, nil
	}
	return torrents[0].IsFinished || torrents[0].PercentDone >= 1, nil
}

func (a *transmissionAdapter) GetAllTorrents(ctx context.Context) ([]TorrentSummary, error) {
	torrents, err := a.getTorrents(ctx)
	if err != nil {
		return nil, fmt.Errorf("transmission: get all torrents: %w", err)
	}
	out := make([]TorrentSummary, 0, len(torrents))
	for _, t := range torrents {
		var trackers []string
		for _, tr := range t.Trackers {
			trackers = append(trackers, tr.Announce)
		}
		out = append(out, TorrentSummary{
			InfoHash: strings.ToLower(t.HashString),
			Tags:     t.Labels,
			Trackers: [][]string{trackers},
		})
	}
	return out, nil
}

func (a *transmissionAdapter) GetDownloadDir(ctx context.Context, m *metafile.Metafile, onlyCompleted bool) (string, DownloadDirResult, error) {
	torrents, err := a.getTorrents(ctx, m.InfoHash)
	if err != nil {
		return "", DownloadDirUnknownError, fmt.Errorf("transmission: get download dir: %w", err)
	}
	if len(torrents) == 0 {
		return "", DownloadDirNotFound, nil
	}
	t := torrents[0]
	if onlyCompleted && !t.IsFinished && t.PercentDone < 1 {
		return "", DownloadDirNotComplete, nil
	}
	return t.DownloadDir, DownloadDirFound, nil
}

func (a *transmissionAdapter) Inject(ctx context.Context, m *metafile.Metafile, s *searchee.Searchee, d decision.Decision, savePath string) (InjectResult, error) {
	existing, err := a.getTorrents(ctx, m.InfoHash)
	if err == nil && len(existing) > 0 {
		return InjectAlreadyExists, nil
	}

	body, err := m.Serialize(nil)
	if err != nil {
		return InjectFailure, fmt.Errorf("transmission: serialize candidate: %w", err)
	}

	args := map[string]any{
		"metainfo": base64.StdEncoding.EncodeToString(body),
		"paused":   false,
	}
	if savePath != "" {
		args["download-dir"] = savePath
	}

	var resp struct {
		TorrentAdded *struct {
			HashString string `json:"hashString"`
		} `json:"torrent-added"`
		TorrentDuplicate *struct{} `json:"torrent-duplicate"`
	}
	if err := a.do(ctx, "torrent-add", args, &resp); err != nil {
		return InjectFailure, fmt.Errorf("transmission: torrent-add: %w", err)
	}
	if resp.TorrentDuplicate != nil {
		return InjectAlreadyExists, nil
	}
	return InjectSuccess, nil
}

func (a *transmissionAdapter) RecheckTorrent(ctx context.Context, infoHash string) error {
	if err := a.do(ctx, "torrent-verify", map[string]any{"ids": []string{infoHash}}, nil); err != nil {
		return fmt.Errorf("transmission: torrent-verify %s: %w", infoHash, err)
	}
	return nil
}
