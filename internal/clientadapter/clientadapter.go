// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package clientadapter implements component J: a capability interface over
// the torrent client that owns a searchee's data, with one concrete
// implementation per supported client. Exactly one adapter is active per
// process, chosen statically at startup by which *RpcUrl is configured.
package clientadapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

// DownloadDirResult is the outcome of GetDownloadDir.
type DownloadDirResult string

const (
	DownloadDirFound         DownloadDirResult = "FOUND"
	DownloadDirNotFound      DownloadDirResult = "NOT_FOUND"
	DownloadDirNotComplete   DownloadDirResult = "TORRENT_NOT_COMPLETE"
	DownloadDirUnknownError  DownloadDirResult = "UNKNOWN_ERROR"
)

// InjectResult is the outcome of Inject.
type InjectResult string

const (
	InjectSuccess          InjectResult = "SUCCESS"
	InjectAlreadyExists    InjectResult = "ALREADY_EXISTS"
	InjectTorrentNotComplete InjectResult = "TORRENT_NOT_COMPLETE"
	InjectFailure          InjectResult = "FAILURE"
)

// TorrentSummary is one entry of GetAllTorrents.
type TorrentSummary struct {
	InfoHash string
	Category string
	Tags     []string
	Trackers [][]string
}

// Adapter is the capability contract every torrent client implementation
// satisfies, per spec §4.J.
type Adapter interface {
	Name() string
	ValidateConfig(ctx context.Context) error
	IsTorrentComplete(ctx context.Context, infoHash string) (bool, error)
	GetAllTorrents(ctx context.Context) ([]TorrentSummary, error)
	GetDownloadDir(ctx context.Context, m *metafile.Metafile, onlyCompleted bool) (string, DownloadDirResult, error)
	Inject(ctx context.Context, m *metafile.Metafile, s *searchee.Searchee, d decision.Decision, savePath string) (InjectResult, error)
	RecheckTorrent(ctx context.Context, infoHash string) error
}

// ErrNoClientConfigured is returned by the save-only stub's Inject and
// RecheckTorrent.
var ErrNoClientConfigured = errors.New("clientadapter: no *RpcUrl is configured")

// Select picks the active adapter by first-match-wins priority over the
// configured RPC URLs: rtorrent, qbittorrent, transmission, deluge. When
// none are configured, the save-only stub is returned so the pipeline never
// has to special-case a nil client.
func Select(cfg *domain.Config) (Adapter, error) {
	switch {
	case cfg.RTorrentURL != "":
		return NewRTorrentAdapter(cfg.RTorrentURL), nil
	case cfg.QBittorrentURL != "":
		return NewQBittorrentAdapter(cfg.QBittorrentURL)
	case cfg.TransmissionURL != "":
		return NewTransmissionAdapter(cfg.TransmissionURL), nil
	case cfg.DelugeURL != "":
		return NewDelugeAdapter(cfg.DelugeURL), nil
	default:
		return NewSaveOnlyAdapter(), nil
	}
}

// saveOnlyAdapter is the default when no *RpcUrl is configured: every
// injection attempt resolves to FAILURE with ErrNoClientConfigured, consistent with
// action=save semantics never calling Inject for real.
type saveOnlyAdapter struct{}

// NewSaveOnlyAdapter builds the stub adapter used when action=save and no
// client is configured.
func NewSaveOnlyAdapter() Adapter { return saveOnlyAdapter{} }

func (saveOnlyAdapter) Name() string { return "none" }

func (saveOnlyAdapter) ValidateConfig(context.Context) error { return nil }

func (saveOnlyAdapter) IsTorrentComplete(context.Context, string) (bool, error) {
	return false, nil
}

func (saveOnlyAdapter) GetAllTorrents(context.Context) ([]TorrentSummary, error) {
	return nil, nil
}

func (saveOnlyAdapter) GetDownloadDir(context.Context, *metafile.Metafile, bool) (string, DownloadDirResult, error) {
	return "", DownloadDirNotFound, nil
}

func (saveOnlyAdapter) Inject(context.Context, *metafile.Metafile, *searchee.Searchee, decision.Decision, string) (InjectResult, error) {
	return InjectFailure, fmt.Errorf("clientadapter: %w", ErrNoClientConfigured)
}

func (saveOnlyAdapter) RecheckTorrent(context.Context, string) error {
	return ErrNoClientConfigured
}
