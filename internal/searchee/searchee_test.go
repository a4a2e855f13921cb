// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package searchee

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"

	"github.com/xseed/xseed/internal/metafile"
)

type rawFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type rawInfo struct {
	Name        string    `bencode:"name"`
	PieceLength int64     `bencode:"piece length"`
	Pieces      string    `bencode:"pieces"`
	Length      int64     `bencode:"length,omitempty"`
	Files       []rawFile `bencode:"files,omitempty"`
}

type rawTorrent struct {
	Announce string             `bencode:"announce,omitempty"`
	Info     bencode.RawMessage `bencode:"info"`
}

func writeTorrentFixture(t *testing.T, path, name string, length int64) {
	t.Helper()
	info, err := bencode.EncodeBytes(&rawInfo{Name: name, PieceLength: 16384, Pieces: "01234567890123456789", Length: length})
	require.NoError(t, err)
	data, err := bencode.EncodeBytes(&rawTorrent{Announce: "https://tracker.example/announce", Info: info})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestFromMetafileRejectsEscapingPaths(t *testing.T) {
	m := &metafile.Metafile{
		Name: "evil",
		Files: []metafile.FileEntry{
			{PathSegments: []string{"..", "etc", "passwd"}, Length: 10},
		},
	}
	_, err := FromMetafile(m, time.Time{})
	assert.Error(t, err)
}

func TestFromMetafileBuildsFlatFileList(t *testing.T) {
	m := &metafile.Metafile{
		Name: "Show.S01",
		Files: []metafile.FileEntry{
			{PathSegments: []string{"Show.S01E01.mkv"}, Length: 1_000_000_000},
			{PathSegments: []string{"Show.S01E02.mkv"}, Length: 500_000_000},
		},
	}
	s, err := FromMetafile(m, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000_000), s.TotalSize)
	assert.Len(t, s.Files, 2)
	assert.Equal(t, OriginTorrent, s.Origin)
}

func TestIsSingleEpisode(t *testing.T) {
	pack := &Searchee{Name: "Show.S01.1080p.WEB-DL"}
	ep := &Searchee{Name: "Show.S01E03.1080p.WEB-DL"}

	assert.False(t, pack.IsSingleEpisode())
	assert.True(t, ep.IsSingleEpisode())
}

func TestAcceptFilters(t *testing.T) {
	videoExt := []string{".mkv"}

	nonVideo := &Searchee{Name: "Album", Files: []File{{RelPath: "a.flac", Size: 1}}}
	assert.False(t, Accept(nonVideo, FilterOptions{VideoExtensions: videoExt}))
	assert.True(t, Accept(nonVideo, FilterOptions{VideoExtensions: videoExt, IncludeNonVideos: true}))

	singleEp := &Searchee{Name: "Show.S01E01.1080p", Files: []File{{RelPath: "ep.mkv", Size: 1}}}
	assert.False(t, Accept(singleEp, FilterOptions{VideoExtensions: videoExt}))
	assert.True(t, Accept(singleEp, FilterOptions{VideoExtensions: videoExt, IncludeSingleEpisodes: true}))
}

func TestScanDirectoriesBuildsLeafSearchees(t *testing.T) {
	root := t.TempDir()
	showDir := filepath.Join(root, "Show.S01")
	require.NoError(t, os.MkdirAll(showDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(showDir, "Show.S01E01.mkv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(showDir, ".hidden"), []byte("x"), 0o644))

	found, err := ScanDirectories(context.Background(), []string{root}, ScanOptions{MaxDataDepth: 2})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Show.S01", found[0].Name)
	assert.Len(t, found[0].Files, 1)
	assert.Equal(t, showDir, found[0].SavePath)
	assert.Equal(t, "Show.S01E01.mkv", found[0].Files[0].RelPath)
}

func TestScanTorrentDirBuildsTorrentSearchees(t *testing.T) {
	dir := t.TempDir()
	writeTorrentFixture(t, filepath.Join(dir, "a.torrent"), "Show.S01E01.mkv", 1_000_000_000)
	writeTorrentFixture(t, filepath.Join(dir, "b.torrent"), "Show.S01E02.mkv", 500_000_000)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "not-a-torrent.txt"), []byte("x"), 0o644))

	found, err := ScanTorrentDir(dir)
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, s := range found {
		assert.Equal(t, OriginTorrent, s.Origin)
		assert.Len(t, s.InfoHash, 40)
	}
}

func TestScanTorrentDirSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	writeTorrentFixture(t, filepath.Join(dir, "good.torrent"), "good.mkv", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.torrent"), []byte("not bencode"), 0o644))

	found, err := ScanTorrentDir(dir)
	assert.Error(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "good.mkv", found[0].Name)
}

func TestScanDirectoriesHonorsBlockList(t *testing.T) {
	root := t.TempDir()
	blocked := filepath.Join(root, "sample")
	require.NoError(t, os.MkdirAll(blocked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(blocked, "f.mkv"), []byte("x"), 0o644))

	found, err := ScanDirectories(context.Background(), []string{root}, ScanOptions{MaxDataDepth: 2, BlockList: []string{"sample"}})
	require.NoError(t, err)
	assert.Empty(t, found)
}
