// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"

	"github.com/xseed/xseed/internal/clientadapter"
	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/matcher"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/notifier"
	"github.com/xseed/xseed/internal/searchee"
	"github.com/xseed/xseed/internal/testdb"
	"github.com/xseed/xseed/internal/torznab"
)

// --- fixture helpers -------------------------------------------------------

type fixtureFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

type fixtureInfo struct {
	Name        string         `bencode:"name"`
	PieceLength int64          `bencode:"piece length"`
	Pieces      string         `bencode:"pieces"`
	Length      int64          `bencode:"length,omitempty"`
	Files       []fixtureFile  `bencode:"files,omitempty"`
}

type fixtureTorrent struct {
	Announce string             `bencode:"announce,omitempty"`
	Info     bencode.RawMessage `bencode:"info"`
}

func singleFileTorrentBytes(t *testing.T, name string, size int64) []byte {
	t.Helper()
	infoBytes, err := bencode.EncodeBytes(&fixtureInfo{
		Name:        name,
		PieceLength: 16384,
		Pieces:      "01234567890123456789",
		Length:      size,
	})
	require.NoError(t, err)
	data, err := bencode.EncodeBytes(&fixtureTorrent{
		Announce: "https://tracker.example/announce",
		Info:     infoBytes,
	})
	require.NoError(t, err)
	return data
}

func newTestPipeline(t *testing.T, cfg *domain.Config) (*Pipeline, *indexer.Store) {
	t.Helper()
	db := testdb.New(t, "pipeline")
	indexerStore, err := indexer.NewStore(db, make([]byte, 32))
	require.NoError(t, err)
	p := New(cfg, db, indexerStore, clientadapter.NewSaveOnlyAdapter(), notifier.New("", zerolog.Nop()), zerolog.Nop())
	return p, indexerStore
}

func testPolicy() matcher.Policy {
	return matcher.Policy{MatchMode: matcher.ModeSafe}
}

// --- pure unit tests ---------------------------------------------------

func TestFuzzySizeFactorIdenticalSizesIsNil(t *testing.T) {
	require.Nil(t, fuzzySizeFactor(1000, 1000))
}

func TestFuzzySizeFactorComputesRelativeDelta(t *testing.T) {
	f := fuzzySizeFactor(1000, 1100)
	require.NotNil(t, f)
	require.InDelta(t, 0.0909, *f, 0.001)
}

func TestWorkerPoolSizeCapsAtFour(t *testing.T) {
	require.Equal(t, 1, workerPoolSize(0))
	require.Equal(t, 2, workerPoolSize(2))
	require.Equal(t, 4, workerPoolSize(9))
}

func TestSanitizePathComponentStripsSeparators(t *testing.T) {
	require.Equal(t, "a_b", sanitizePathComponent("a/b"))
}

// --- processCandidate --------------------------------------------------

func TestProcessCandidateDecisionCacheShortCircuitsSnatch(t *testing.T) {
	var snatchHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&snatchHits, 1)
		w.Write(singleFileTorrentBytes(t, "whatever.mkv", 1000))
	}))
	defer srv.Close()

	cfg := &domain.Config{OutputDir: t.TempDir(), SearchTimeout: 5 * time.Second, SnatchTimeout: 5 * time.Second}
	p, indexerStore := newTestPipeline(t, cfg)
	ctx := context.Background()

	id, err := indexerStore.Upsert(ctx, "test-indexer", "https://indexer.example/api", "key", true)
	require.NoError(t, err)
	ind := &indexer.Indexer{ID: id, Name: "test-indexer"}

	s := &searchee.Searchee{Name: "Example.Movie.2024.1080p.BluRay", Origin: searchee.OriginTorrent, TotalSize: 1000, Files: []searchee.File{{RelPath: "Example.Movie.2024.1080p.BluRay.mkv", Size: 1000}}}
	item := torznab.Item{Title: s.Name, GUID: "guid-1", Link: srv.URL, Size: 1000}

	require.NoError(t, p.decisions.Record(ctx, decision.Decision{
		SearcheeName:  s.Name,
		CandidateGUID: item.GUID,
		IndexerID:     ind.ID,
		Verdict:       decision.VerdictSizeMismatch,
	}))

	p.processCandidate(ctx, s, ind, item, testPolicy(), map[string]bool{})
	require.Equal(t, int32(0), atomic.LoadInt32(&snatchHits), "a cached decision must never trigger a snatch")
}

func TestProcessCandidateSizeMismatchNeverSnatches(t *testing.T) {
	var snatchHits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&snatchHits, 1)
	}))
	defer srv.Close()

	cfg := &domain.Config{OutputDir: t.TempDir(), SearchTimeout: 5 * time.Second, SnatchTimeout: 5 * time.Second}
	p, indexerStore := newTestPipeline(t, cfg)
	ctx := context.Background()

	id, err := indexerStore.Upsert(ctx, "test-indexer", "https://indexer.example/api", "key", true)
	require.NoError(t, err)
	ind := &indexer.Indexer{ID: id, Name: "test-indexer"}

	s := &searchee.Searchee{Name: "Example.Movie.2024.1080p.BluRay", Origin: searchee.OriginTorrent, TotalSize: 1_000_000_000, Files: []searchee.File{{RelPath: "Example.Movie.2024.1080p.BluRay.mkv", Size: 1_000_000_000}}}
	item := torznab.Item{Title: s.Name, GUID: "guid-1", Link: srv.URL, Size: 1000} // wildly smaller

	p.processCandidate(ctx, s, ind, item, testPolicy(), map[string]bool{})
	require.Equal(t, int32(0), atomic.LoadInt32(&snatchHits), "a size-mismatched candidate must never be snatched")

	v, found, err := p.decisions.HasDecision(ctx, s.Name, item.GUID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, decision.VerdictSizeMismatch, v)
}

func TestProcessCandidateMatchRecordsDecisionAndWritesArtifact(t *testing.T) {
	const size = 1_000_000_000
	name := "Example.Movie.2024.1080p.BluRay.mkv"
	torrentBytes := singleFileTorrentBytes(t, name, size)
	m, err := metafile.Parse(torrentBytes)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(torrentBytes)
	}))
	defer srv.Close()

	cfg := &domain.Config{OutputDir: t.TempDir(), SearchTimeout: 5 * time.Second, SnatchTimeout: 5 * time.Second}
	p, indexerStore := newTestPipeline(t, cfg)
	ctx := context.Background()

	id, err := indexerStore.Upsert(ctx, "test-indexer", "https://indexer.example/api", "key", true)
	require.NoError(t, err)
	ind := &indexer.Indexer{ID: id, Name: "test-indexer"}

	s := &searchee.Searchee{Name: name, Origin: searchee.OriginTorrent, TotalSize: size, Files: []searchee.File{{RelPath: name, Size: size}}}
	item := torznab.Item{Title: name, GUID: "guid-1", Link: srv.URL, Size: size}

	p.processCandidate(ctx, s, ind, item, testPolicy(), map[string]bool{})

	v, found, err := p.decisions.HasDecision(ctx, s.Name, item.GUID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, decision.VerdictMatch, v)

	artifactPath := filepath.Join(cfg.OutputDir, "test-indexer", m.Name+".cross-seed.torrent")
	_, err = os.Stat(artifactPath)
	require.NoError(t, err, "expected artifact written at %s", artifactPath)
}

// --- RunRSSScan ----------------------------------------------------------

func TestRunRSSScanAdvancesCursorAndSkipsOnSecondPass(t *testing.T) {
	const size = 500_000_000
	name := "Another.Movie.2024.1080p.WEB.mkv"
	torrentBytes := singleFileTorrentBytes(t, name, size)

	var snatchHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss><channel>
<item>
  <title>%s</title>
  <guid>guid-1</guid>
  <pubDate>%s</pubDate>
  <enclosure url="http://%s/download" length="%d"/>
</item>
</channel></rss>`, name, time.Now().UTC().Format(time.RFC1123Z), r.Host, size)
	})
	mux.HandleFunc("/download", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&snatchHits, 1)
		w.Write(torrentBytes)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	torrentDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(torrentDir, "local.torrent"), torrentBytes, 0o644))

	cfg := &domain.Config{OutputDir: t.TempDir(), TorrentDir: torrentDir, SearchTimeout: 5 * time.Second, SnatchTimeout: 5 * time.Second, IncludeSingleEpisodes: true}
	p, indexerStore := newTestPipeline(t, cfg)
	ctx := context.Background()

	id, err := indexerStore.Upsert(ctx, "rss-indexer", srv.URL+"/api", "key", true)
	require.NoError(t, err)
	require.NoError(t, indexerStore.SaveCaps(ctx, id, indexer.Caps{Search: true}))

	require.NoError(t, p.RunRSSScan(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(&snatchHits))

	cursor, found, err := p.cursors.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "guid-1", cursor.LastGUID)

	// Second pass: same feed, same guid — the cursor must stop it before
	// the candidate is even looked at again.
	require.NoError(t, p.RunRSSScan(ctx))
	require.Equal(t, int32(1), atomic.LoadInt32(&snatchHits), "a second scan of the same feed must not re-snatch")
}
