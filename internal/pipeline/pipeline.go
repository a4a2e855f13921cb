// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pipeline implements component H: the two search entry points
// (bulk search over torrentDir/dataDirs, and RSS scan over each indexer's
// newest items) and the shared per-(searchee, candidate) decision flow of
// spec §4.H, styled on the phased orchestration of
// internal/services/dirscan/service.go's executeScan.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xseed/xseed/internal/clientadapter"
	"github.com/xseed/xseed/internal/dbinterface"
	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/indexer"
	"github.com/xseed/xseed/internal/linker"
	"github.com/xseed/xseed/internal/matcher"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/notifier"
	"github.com/xseed/xseed/internal/searchee"
	"github.com/xseed/xseed/internal/timestamp"
	"github.com/xseed/xseed/internal/torznab"
)

const maxWorkerPool = 4

// Pipeline wires every component into the two search entry points of
// spec §4.H.
type Pipeline struct {
	cfg          *domain.Config
	indexerStore *indexer.Store
	decisions    *decision.Store
	timestamps   *timestamp.Store
	cursors      *torznab.CursorStore
	client       *torznab.Client
	adapter      clientadapter.Adapter
	notifier     *notifier.Notifier
	jobs         *jobStateStore
	logger       zerolog.Logger

	// searcheeMu serializes all decision-cache activity for one searchee
	// name, matching the single-writer-per-searchee rule of spec §5: bulk
	// search only ever has one goroutine touch a given searchee at a time,
	// but RSS scan's per-indexer fan-out can have several indexer
	// goroutines reach the same local searchee concurrently.
	searcheeMu   map[string]*sync.Mutex
	searcheeMuMu sync.Mutex
}

// New builds a Pipeline. indexerStore is constructed by the caller since
// it owns the at-rest API-key encryption key, which isn't part of Config.
func New(cfg *domain.Config, db dbinterface.Querier, indexerStore *indexer.Store, adapter clientadapter.Adapter, notif *notifier.Notifier, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		indexerStore: indexerStore,
		decisions:    decision.NewStore(db),
		timestamps:   timestamp.NewStore(db),
		cursors:      torznab.NewCursorStore(db),
		client:       torznab.NewClient(cfg.SearchTimeout, cfg.SnatchTimeout),
		adapter:      adapter,
		notifier:     notif,
		jobs:         newJobStateStore(db),
		logger:       logger,
		searcheeMu:   make(map[string]*sync.Mutex),
	}
}

func (p *Pipeline) lockFor(searcheeName string) *sync.Mutex {
	p.searcheeMuMu.Lock()
	defer p.searcheeMuMu.Unlock()
	m, ok := p.searcheeMu[searcheeName]
	if !ok {
		m = &sync.Mutex{}
		p.searcheeMu[searcheeName] = m
	}
	return m
}

func (p *Pipeline) policy() matcher.Policy {
	return matcher.Policy{
		MatchMode:           matcherModeFrom(p.cfg.EffectiveMatchMode()),
		FuzzySizeThreshold:  p.cfg.FuzzySizeThreshold,
		IgnorableExtensions: p.cfg.EffectiveIgnorableExtensions(),
		BlockList:           p.cfg.BlockList,
	}
}

func matcherModeFrom(m domain.MatchMode) matcher.MatchMode {
	switch m {
	case domain.MatchModeRisky:
		return matcher.ModeRisky
	case domain.MatchModePartial:
		return matcher.ModePartial
	default:
		return matcher.ModeSafe
	}
}

// gatherSearchees enumerates torrentDir and dataDirs and applies the
// non-video/single-episode filters of component B.
func (p *Pipeline) gatherSearchees(ctx context.Context) ([]*searchee.Searchee, error) {
	var all []*searchee.Searchee

	if p.cfg.TorrentDir != "" {
		found, err := searchee.ScanTorrentDir(p.cfg.TorrentDir)
		if err != nil {
			p.logger.Warn().Err(err).Msg("pipeline: some torrent files failed to parse, continuing with the rest")
		}
		all = append(all, found...)
	}

	if len(p.cfg.DataDirs) > 0 {
		found, err := searchee.ScanDirectories(ctx, p.cfg.DataDirs, searchee.ScanOptions{
			MaxDataDepth: p.cfg.MaxDataDepth,
			BlockList:    p.cfg.BlockList,
		})
		if err != nil {
			return all, fmt.Errorf("scan data dirs: %w", err)
		}
		all = append(all, found...)
	}

	opts := searchee.FilterOptions{
		VideoExtensions:       p.cfg.EffectiveVideoExtensions(),
		IncludeNonVideos:      p.cfg.IncludeNonVideos,
		IncludeSingleEpisodes: p.cfg.IncludeSingleEpisodes,
	}
	filtered := make([]*searchee.Searchee, 0, len(all))
	for _, s := range all {
		if searchee.Accept(s, opts) {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// existingInfoHashes asks the active client adapter what it already has,
// for the matcher's INFO_HASH_ALREADY_EXISTS check. A failure here doesn't
// abort the pass: it just means that check degrades to infohash-only.
func (p *Pipeline) existingInfoHashes(ctx context.Context) map[string]bool {
	out := make(map[string]bool)
	summaries, err := p.adapter.GetAllTorrents(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("pipeline: list client torrents failed, continuing without existing-hash filter")
		return out
	}
	for _, t := range summaries {
		if t.InfoHash != "" {
			out[strings.ToLower(t.InfoHash)] = true
		}
	}
	return out
}

func workerPoolSize(n int) int {
	if n > maxWorkerPool {
		return maxWorkerPool
	}
	if n < 1 {
		return 1
	}
	return n
}

// RunBulkSearch is the bulk-search entry point of spec §4.H.
func (p *Pipeline) RunBulkSearch(ctx context.Context) error {
	searchees, err := p.gatherSearchees(ctx)
	if err != nil {
		return fmt.Errorf("gather searchees: %w", err)
	}
	if p.cfg.SearchLimit > 0 && len(searchees) > p.cfg.SearchLimit {
		searchees = searchees[:p.cfg.SearchLimit]
	}

	indexers, err := p.indexerStore.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active indexers: %w", err)
	}
	if len(indexers) == 0 {
		p.logger.Warn().Msg("pipeline: no active indexers configured, skipping bulk search")
		return nil
	}

	existingHashes := p.existingInfoHashes(ctx)
	policy := p.policy()

	sem := make(chan struct{}, workerPoolSize(len(indexers)))
	var wg sync.WaitGroup
	for _, s := range searchees {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(s *searchee.Searchee) {
			defer wg.Done()
			defer func() { <-sem }()
			p.searchSearcheeBulk(ctx, s, indexers, policy, existingHashes)
		}(s)
	}
	wg.Wait()
	return ctx.Err()
}

type queryResult struct {
	ind    *indexer.Indexer
	items  []torznab.Item
	status indexer.Status
	err    error
}

// searchSearcheeBulk queries every eligible indexer for one searchee
// concurrently, then processes the results sequentially (single-writer-
// per-searchee), and pauses delay seconds before this worker slot takes
// the next searchee.
func (p *Pipeline) searchSearcheeBulk(ctx context.Context, s *searchee.Searchee, indexers []*indexer.Indexer, policy matcher.Policy, existingHashes map[string]bool) {
	now := time.Now()
	resCh := make(chan queryResult, len(indexers))
	var iwg sync.WaitGroup
	dispatched := 0

	for _, ind := range indexers {
		if ind.Status == indexer.StatusInvalidAuth || ind.IsOnCooldown(now) {
			continue
		}
		should, err := p.timestamps.ShouldSearch(ctx, s.Name, ind.ID, p.cfg.ExcludeOlder, p.cfg.ExcludeRecentSearch)
		if err != nil {
			p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: timestamp lookup failed, searching anyway")
			should = true
		}
		if !should {
			continue
		}
		_, params, ok := torznab.PlanQuery(s, ind.Caps)
		if !ok {
			continue
		}

		dispatched++
		iwg.Add(1)
		go func(ind *indexer.Indexer, params map[string]string) {
			defer iwg.Done()
			apiKey, err := p.indexerStore.DecryptAPIKey(ind)
			if err != nil {
				resCh <- queryResult{ind: ind, err: fmt.Errorf("decrypt api key: %w", err)}
				return
			}
			items, status, err := p.client.Search(ctx, ind, apiKey, params)
			resCh <- queryResult{ind: ind, items: items, status: status, err: err}
		}(ind, params)
	}
	iwg.Wait()
	close(resCh)

	for res := range resCh {
		if err := p.timestamps.RecordSearch(ctx, s.Name, res.ind.ID); err != nil {
			p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: record search timestamp failed")
		}
		if res.status != "" {
			p.applyIndexerStatus(ctx, res.ind, res.status)
		}
		if res.err != nil {
			p.logger.Warn().Err(res.err).Str("indexer", res.ind.Name).Str("searchee", s.Name).Msg("pipeline: indexer query failed")
			continue
		}
		for _, item := range res.items {
			p.processCandidate(ctx, s, res.ind, item, policy, existingHashes)
		}
	}

	if dispatched > 0 && p.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(p.cfg.Delay) * time.Second):
		}
	}
}

func (p *Pipeline) applyIndexerStatus(ctx context.Context, ind *indexer.Indexer, status indexer.Status) {
	switch status {
	case indexer.StatusRateLimited:
		ind.MarkRateLimited(time.Now())
	case indexer.StatusInvalidAuth:
		ind.MarkAuthFailure()
	case indexer.StatusOK:
		ind.MarkSuccess()
	default:
		ind.MarkUnknownError()
	}
	if err := p.indexerStore.SaveStatus(ctx, ind); err != nil {
		p.logger.Warn().Err(err).Str("indexer", ind.Name).Msg("pipeline: save indexer status failed")
	}
}

// RunRSSScan is the RSS-scan entry point of spec §4.H: each indexer's
// newest items are matched against every known local searchee, stopping at
// the stored per-indexer cursor.
func (p *Pipeline) RunRSSScan(ctx context.Context) error {
	searchees, err := p.gatherSearchees(ctx)
	if err != nil {
		return fmt.Errorf("gather searchees: %w", err)
	}
	indexers, err := p.indexerStore.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active indexers: %w", err)
	}
	if len(indexers) == 0 {
		return nil
	}

	existingHashes := p.existingInfoHashes(ctx)
	policy := p.policy()

	sem := make(chan struct{}, workerPoolSize(len(indexers)))
	var wg sync.WaitGroup
	for _, ind := range indexers {
		if ind.Status == indexer.StatusInvalidAuth || ind.IsOnCooldown(time.Now()) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(ind *indexer.Indexer) {
			defer wg.Done()
			defer func() { <-sem }()
			p.scanIndexerRSS(ctx, ind, searchees, policy, existingHashes)
		}(ind)
	}
	wg.Wait()
	return ctx.Err()
}

func (p *Pipeline) scanIndexerRSS(ctx context.Context, ind *indexer.Indexer, searchees []*searchee.Searchee, policy matcher.Policy, existingHashes map[string]bool) {
	apiKey, err := p.indexerStore.DecryptAPIKey(ind)
	if err != nil {
		p.logger.Warn().Err(err).Str("indexer", ind.Name).Msg("pipeline: decrypt api key failed")
		return
	}

	_, params := torznab.GenericSearch()
	items, status, err := p.client.Search(ctx, ind, apiKey, params)
	p.applyIndexerStatus(ctx, ind, status)
	if err != nil {
		p.logger.Warn().Err(err).Str("indexer", ind.Name).Msg("pipeline: rss query failed")
		return
	}
	if len(items) == 0 {
		return
	}

	cursor, _, err := p.cursors.Get(ctx, ind.ID)
	if err != nil {
		p.logger.Warn().Err(err).Str("indexer", ind.Name).Msg("pipeline: rss cursor lookup failed, scanning full feed")
	}

	fresh := cursor.NewItems(items)
	for _, item := range fresh {
		for _, s := range searchees {
			p.processCandidate(ctx, s, ind, item, policy, existingHashes)
		}
	}

	newest := items[0]
	if err := p.cursors.Save(ctx, ind.ID, torznab.Cursor{LastGUID: newest.GUID, LastPubDate: newest.PubDate}); err != nil {
		p.logger.Warn().Err(err).Str("indexer", ind.Name).Msg("pipeline: save rss cursor failed")
	}
}

// processCandidate runs the shared 8-step flow of spec §4.H for one
// (searchee, candidate) pair. Every candidate's failure is isolated here:
// nothing it does can abort the enclosing pass.
func (p *Pipeline) processCandidate(ctx context.Context, s *searchee.Searchee, ind *indexer.Indexer, item torznab.Item, policy matcher.Policy, existingHashes map[string]bool) {
	lock := p.lockFor(s.Name)
	lock.Lock()
	defer lock.Unlock()

	if _, found, err := p.decisions.HasDecision(ctx, s.Name, item.GUID); err != nil {
		p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: decision cache lookup failed, proceeding to match")
	} else if found {
		return
	}

	// Step ii: a cheap pre-snatch match against only what the search result
	// advertises (title, size, infohash) — there's no file list yet, so the
	// file-tree comparison itself waits for step iv. This still catches a
	// blocked, duplicate, or size-mismatched candidate before it costs a
	// snatch request.
	if ok, verdict := p.preFilter(s, item, policy, existingHashes); !ok {
		p.recordDecision(ctx, s, item, ind, "", verdict)
		return
	}

	p.logger.Debug().Str("searchee", s.Name).Str("candidate", item.Title).
		Int("titleRank", matcher.TitleSimilarity(s.Name, item.Title)).
		Msg("pipeline: candidate passed pre-filter")

	// Step iii: snatch.
	result, err := p.client.Snatch(ctx, item.Link)
	if err != nil {
		p.logger.Warn().Err(err).Str("searchee", s.Name).Str("candidate", item.Title).Msg("pipeline: snatch failed")
		p.notifier.Notify(ctx, notifier.Event{
			Title: "xseed: snatch failed",
			Body:  fmt.Sprintf("%s <- %s (%s): %v", s.Name, item.Title, ind.Name, err),
		})
		return
	}
	if result.NoLink {
		p.recordDecision(ctx, s, item, ind, "", decision.VerdictNoDownloadLink)
		return
	}

	// Step iv: re-match against the now-known full file list.
	finalVerdict := matcher.Evaluate(s, result.Metafile, policy, existingHashes)
	// Step v.
	p.recordDecision(ctx, s, item, ind, result.Metafile.InfoHash, finalVerdict)
	if !finalVerdict.IsMatch() {
		return
	}

	p.handleMatch(ctx, s, ind, item, result.Metafile, finalVerdict)
}

// preFilter runs the size/infohash/blockList checks of matcher.Evaluate's
// ordered list against a pre-snatch candidate, which only has a title, a
// size, and maybe an infohash to go on.
func (p *Pipeline) preFilter(s *searchee.Searchee, item torznab.Item, policy matcher.Policy, existingHashes map[string]bool) (bool, decision.Verdict) {
	if item.InfoHash != "" {
		if s.InfoHash != "" && strings.EqualFold(item.InfoHash, s.InfoHash) {
			return false, decision.VerdictInfoHashAlreadyExists
		}
		if existingHashes[strings.ToLower(item.InfoHash)] {
			return false, decision.VerdictInfoHashAlreadyExists
		}
	}
	if matcher.IsBlocked(item.Title, item.InfoHash, policy.BlockList) {
		return false, decision.VerdictBlockedRelease
	}
	if !matcher.WithinFuzzySize(s.TotalSize, item.Size, policy.Threshold()) {
		return false, decision.VerdictSizeMismatch
	}
	return true, ""
}

func (p *Pipeline) recordDecision(ctx context.Context, s *searchee.Searchee, item torznab.Item, ind *indexer.Indexer, infoHash string, v decision.Verdict) {
	d := decision.Decision{
		SearcheeName:    s.Name,
		CandidateGUID:   item.GUID,
		InfoHash:        infoHash,
		IndexerID:       ind.ID,
		Verdict:         v,
		FuzzySizeFactor: fuzzySizeFactor(s.TotalSize, item.Size),
	}
	if err := p.decisions.Record(ctx, d); err != nil {
		p.logger.Warn().Err(err).Str("searchee", s.Name).Str("verdict", string(v)).Msg("pipeline: record decision failed")
	}
}

func fuzzySizeFactor(a, b int64) *float64 {
	if a == 0 || b == 0 || a == b {
		return nil
	}
	delta := float64(abs64(a-b)) / float64(max(a, b))
	return &delta
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// handleMatch performs steps vi-viii for a confirmed match: writing the
// artifact, injecting (linking data-origin files first) when configured,
// and notifying.
func (p *Pipeline) handleMatch(ctx context.Context, s *searchee.Searchee, ind *indexer.Indexer, item torznab.Item, m *metafile.Metafile, v decision.Verdict) {
	artifactPath, err := p.writeArtifact(m, ind.Name)
	if err != nil {
		p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: write artifact failed")
		p.notifier.Notify(ctx, notifier.Event{
			Title: "xseed: artifact write failed",
			Body:  fmt.Sprintf("%s: %v", s.Name, err),
		})
		return
	}

	injectResult := clientadapter.InjectResult("NOT_ATTEMPTED")
	if p.cfg.EffectiveAction() == domain.ActionInject {
		injectResult = p.injectMatch(ctx, s, ind, item, m, v)
	}

	p.notifier.Notify(ctx, notifier.Event{
		Title: fmt.Sprintf("xseed: match found for %s", s.Name),
		Body:  fmt.Sprintf("indexer=%s verdict=%s action=%s inject=%s artifact=%s", ind.Name, v, p.cfg.EffectiveAction(), injectResult, artifactPath),
	})
}

func (p *Pipeline) injectMatch(ctx context.Context, s *searchee.Searchee, ind *indexer.Indexer, item torznab.Item, m *metafile.Metafile, v decision.Verdict) clientadapter.InjectResult {
	savePath := ""
	if s.Origin == searchee.OriginData {
		linkRes, err := linker.Link(linker.Request{
			Searchee:  s,
			Candidate: m,
			LinkDir:   p.cfg.LinkDir,
			Tracker:   ind.Name,
			Flat:      p.cfg.FlatLinking,
			Kind:      p.cfg.EffectiveLinkType(),
		})
		if err != nil {
			if errors.Is(err, linker.ErrCrossDevice) {
				p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: cross-device link failure, leaving match for manual remediation")
			} else {
				p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: link failed")
			}
			return clientadapter.InjectFailure
		}
		savePath = linkRes.Root
	}

	d := decision.Decision{
		SearcheeName:  s.Name,
		CandidateGUID: item.GUID,
		InfoHash:      m.InfoHash,
		IndexerID:     ind.ID,
		Verdict:       v,
	}
	res, err := p.adapter.Inject(ctx, m, s, d, savePath)
	if err != nil {
		p.logger.Warn().Err(err).Str("searchee", s.Name).Str("client", p.adapter.Name()).Msg("pipeline: inject failed, continuing with save-only result")
		return res
	}
	if res == clientadapter.InjectSuccess && matcher.ShouldRecheck(s, v, domain.DiscExtensions) {
		if err := p.adapter.RecheckTorrent(ctx, m.InfoHash); err != nil {
			p.logger.Warn().Err(err).Str("searchee", s.Name).Msg("pipeline: recheck failed")
		}
	}
	return res
}

func (p *Pipeline) writeArtifact(m *metafile.Metafile, trackerName string) (string, error) {
	data, err := m.Serialize(nil)
	if err != nil {
		return "", fmt.Errorf("serialize artifact: %w", err)
	}

	dir := p.cfg.OutputDir
	if trackerName != "" {
		dir = filepath.Join(dir, sanitizePathComponent(trackerName))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, sanitizePathComponent(m.Name)+".cross-seed.torrent")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	return path, nil
}

func sanitizePathComponent(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, string(filepath.Separator), "_")
	return s
}
