// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package matcher implements the core match decision procedure (component
// F): given a searchee and a candidate metafile, decide whether they are
// SAFE, RISKY, or PARTIAL equivalent under the configured policy.
package matcher

import (
	"math"
	"path"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/normalize"
	"github.com/xseed/xseed/internal/searchee"
)

// MatchMode is the strictness ladder of spec §4.F, strict to lenient.
type MatchMode string

const (
	ModeSafe    MatchMode = "SAFE"
	ModeRisky   MatchMode = "RISKY"
	ModePartial MatchMode = "PARTIAL"
)

const defaultFuzzySizeThreshold = 0.02

// Policy is the runtime configuration the matcher evaluates against.
type Policy struct {
	MatchMode          MatchMode
	FuzzySizeThreshold float64 // relative delta, default 0.02 (2%)
	IgnorableExtensions []string
	BlockList          []string // titles or infohashes that are always rejected
}

func (p Policy) threshold() float64 {
	if p.FuzzySizeThreshold <= 0 {
		return defaultFuzzySizeThreshold
	}
	return p.FuzzySizeThreshold
}

// Threshold exposes the effective fuzzy-size threshold (defaulted when
// unset), for pre-snatch filtering that can't build a full *metafile.Metafile
// to pass through Evaluate.
func (p Policy) Threshold() float64 {
	return p.threshold()
}

// IsBlocked exposes the blockList check independent of Evaluate, for
// pre-snatch filtering against a search result's title/infohash alone.
func IsBlocked(name, infoHash string, blockList []string) bool {
	return isBlocked(name, infoHash, blockList)
}

// WithinFuzzySize exposes the size-mismatch check independent of Evaluate,
// for pre-snatch filtering against a search result's advertised size alone.
func WithinFuzzySize(a, b int64, threshold float64) bool {
	return withinFuzzy(a, b, threshold)
}

// TitleSimilarity ranks how close two release titles are (lower is closer,
// -1 means no match at all). Evaluate's verdict never depends on this — the
// pipeline only logs it, at debug level, for each candidate that passes the
// pre-snatch filter.
func TitleSimilarity(a, b string) int {
	return fuzzy.RankMatchNormalizedFold(a, b)
}

// fileEntry is the flattened, comparable shape of one file on either side.
type fileEntry struct {
	relPath string // normalized, relative to the release root
	size    int64
}

// Evaluate runs the ordered check list of spec §4.F and returns the
// recorded verdict. existingInfoHashes is the set of infohashes already
// present in the active client, for the INFO_HASH_ALREADY_EXISTS check.
func Evaluate(s *searchee.Searchee, c *metafile.Metafile, policy Policy, existingInfoHashes map[string]bool) decision.Verdict {
	// 1. INFO_HASH_ALREADY_EXISTS
	if c.InfoHash != "" {
		if s.InfoHash != "" && strings.EqualFold(c.InfoHash, s.InfoHash) {
			return decision.VerdictInfoHashAlreadyExists
		}
		if existingInfoHashes[strings.ToLower(c.InfoHash)] {
			return decision.VerdictInfoHashAlreadyExists
		}
	}

	// 2. BLOCKED_RELEASE
	if isBlocked(c.Name, c.InfoHash, policy.BlockList) {
		return decision.VerdictBlockedRelease
	}

	// 3. SIZE_MISMATCH
	if !withinFuzzy(s.TotalSize, c.TotalSize(), policy.threshold()) {
		return decision.VerdictSizeMismatch
	}

	// 4. FILE_TREE_MISMATCH (policy-dependent), else 5. permitting verdict.
	return evaluateFileTree(s, c, policy)
}

func isBlocked(name, infoHash string, blockList []string) bool {
	for _, b := range blockList {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if strings.EqualFold(b, infoHash) {
			return true
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(b)) {
			return true
		}
	}
	return false
}

func withinFuzzy(a, b int64, threshold float64) bool {
	if a == b {
		return true
	}
	if a == 0 || b == 0 {
		return false
	}
	delta := math.Abs(float64(a-b)) / float64(max64(a, b))
	return delta <= threshold
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func evaluateFileTree(s *searchee.Searchee, c *metafile.Metafile, policy Policy) decision.Verdict {
	sFiles := normalizeSearcheeFiles(s)
	cFiles := normalizeCandidateFiles(c)

	if safeMatch(sFiles, cFiles) {
		return decision.VerdictMatch
	}

	if policy.MatchMode == ModeSafe {
		return decision.VerdictFileTreeMismatch
	}

	if riskyMatch(sFiles, cFiles) {
		return decision.VerdictMatchSizeOnly
	}

	if policy.MatchMode == ModePartial {
		sVideo, _ := splitIgnorable(sFiles, policy.IgnorableExtensions)
		cVideo, _ := splitIgnorable(cFiles, policy.IgnorableExtensions)
		if riskyMatch(sVideo, cVideo) {
			return decision.VerdictMatchPartial
		}
	}

	return decision.VerdictFileTreeMismatch
}

// normalizeSearcheeFiles builds comparable file entries from a searchee.
// File.RelPath is already relative to the release root (FromMetafile joins
// metafile.FileEntry.PathSegments, which bencode stores relative to the
// torrent's info.name rather than including it; buildLeafSearchee walks
// relative to the leaf directory itself) — there is no redundant top-level
// release-name segment to strip on either side of a comparison.
func normalizeSearcheeFiles(s *searchee.Searchee) []fileEntry {
	out := make([]fileEntry, 0, len(s.Files))
	for _, f := range s.Files {
		out = append(out, fileEntry{relPath: normalize.RelPath(f.RelPath), size: f.Size})
	}
	return out
}

func normalizeCandidateFiles(c *metafile.Metafile) []fileEntry {
	out := make([]fileEntry, 0, len(c.Files))
	for _, f := range c.Files {
		rel := strings.Join(f.PathSegments, "/")
		out = append(out, fileEntry{relPath: normalize.RelPath(rel), size: f.Length})
	}
	return out
}

// safeMatch requires an identical file list: same normalized relative path
// and length for every file on both sides.
func safeMatch(a, b []fileEntry) bool {
	if len(a) != len(b) {
		return false
	}
	am := map[fileEntry]int{}
	for _, f := range a {
		am[f]++
	}
	for _, f := range b {
		if am[f] == 0 {
			return false
		}
		am[f]--
	}
	return true
}

// riskyMatch requires equal file counts and a size bijection, ignoring path
// (renamed files are allowed).
func riskyMatch(a, b []fileEntry) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	aSizes := sizesOf(a)
	bSizes := sizesOf(b)
	sort.Slice(aSizes, func(i, j int) bool { return aSizes[i] < aSizes[j] })
	sort.Slice(bSizes, func(i, j int) bool { return bSizes[i] < bSizes[j] })
	for i := range aSizes {
		if aSizes[i] != bSizes[i] {
			return false
		}
	}
	return true
}

func sizesOf(files []fileEntry) []int64 {
	out := make([]int64, len(files))
	for i, f := range files {
		out[i] = f.size
	}
	return out
}

// splitIgnorable partitions files into (non-ignorable, ignorable) by
// extension, per spec §4.F's PARTIAL policy.
func splitIgnorable(files []fileEntry, ignorable []string) (video, aux []fileEntry) {
	for _, f := range files {
		ext := strings.ToLower(path.Ext(f.relPath))
		isIgnorable := false
		for _, ig := range ignorable {
			if ext == ig {
				isIgnorable = true
				break
			}
		}
		if isIgnorable {
			aux = append(aux, f)
		} else {
			video = append(video, f)
		}
	}
	return
}

// ShouldRecheck reports whether a post-injection recheck is required, per
// spec §4.F/§4.J: disc-image searchees and MATCH_PARTIAL verdicts both
// force a recheck since the matcher couldn't fully verify file contents.
func ShouldRecheck(s *searchee.Searchee, v decision.Verdict, discExtensions []string) bool {
	return v == decision.VerdictMatchPartial || s.HasDiscLayout(discExtensions)
}
