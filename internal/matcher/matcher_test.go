// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xseed/xseed/internal/decision"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

func candidate(name string, files ...metafile.FileEntry) *metafile.Metafile {
	return &metafile.Metafile{Name: name, Files: files}
}

func TestEvaluateSafeMatch(t *testing.T) {
	s := &searchee.Searchee{
		Name:      "Show.S01E01.1080p",
		TotalSize: 100,
		Files:     []searchee.File{{RelPath: "video.mkv", Size: 100}},
	}
	c := candidate("Show.S01E01.1080p-GRP", metafile.FileEntry{PathSegments: []string{"video.mkv"}, Length: 100})

	v := Evaluate(s, c, Policy{MatchMode: ModeSafe}, nil)
	assert.Equal(t, decision.VerdictMatch, v)
}

func TestEvaluateSizeMismatch(t *testing.T) {
	s := &searchee.Searchee{TotalSize: 100, Files: []searchee.File{{RelPath: "video.mkv", Size: 100}}}
	c := candidate("a", metafile.FileEntry{PathSegments: []string{"video.mkv"}, Length: 50})

	v := Evaluate(s, c, Policy{MatchMode: ModeSafe}, nil)
	assert.Equal(t, decision.VerdictSizeMismatch, v)
}

func TestEvaluateInfoHashAlreadyExists(t *testing.T) {
	s := &searchee.Searchee{InfoHash: "abc123", TotalSize: 1, Files: []searchee.File{{RelPath: "f", Size: 1}}}
	c := candidate("a", metafile.FileEntry{PathSegments: []string{"f"}, Length: 1})
	c.InfoHash = "ABC123"

	v := Evaluate(s, c, Policy{MatchMode: ModeSafe}, nil)
	assert.Equal(t, decision.VerdictInfoHashAlreadyExists, v)
}

func TestEvaluateRiskyAllowsRenamedFiles(t *testing.T) {
	s := &searchee.Searchee{TotalSize: 300, Files: []searchee.File{
		{RelPath: "one.mkv", Size: 100},
		{RelPath: "two.mkv", Size: 200},
	}}
	c := candidate("b",
		metafile.FileEntry{PathSegments: []string{"renamed-one.mkv"}, Length: 200},
		metafile.FileEntry{PathSegments: []string{"renamed-two.mkv"}, Length: 100},
	)

	assert.Equal(t, decision.VerdictFileTreeMismatch, Evaluate(s, c, Policy{MatchMode: ModeSafe}, nil))
	assert.Equal(t, decision.VerdictMatchSizeOnly, Evaluate(s, c, Policy{MatchMode: ModeRisky}, nil))
}

func TestEvaluatePartialAllowsIgnorableAsymmetry(t *testing.T) {
	s := &searchee.Searchee{TotalSize: 100, Files: []searchee.File{{RelPath: "video.mkv", Size: 100}}}
	c := candidate("b",
		metafile.FileEntry{PathSegments: []string{"video.mkv"}, Length: 100},
		metafile.FileEntry{PathSegments: []string{"sample.nfo"}, Length: 1},
	)
	policy := Policy{MatchMode: ModePartial, IgnorableExtensions: []string{".nfo"}, FuzzySizeThreshold: 0.5}

	assert.Equal(t, decision.VerdictMatchPartial, Evaluate(s, c, policy, nil))
}

func TestEvaluateBlockedRelease(t *testing.T) {
	s := &searchee.Searchee{TotalSize: 1, Files: []searchee.File{{RelPath: "f", Size: 1}}}
	c := candidate("banned-group-release", metafile.FileEntry{PathSegments: []string{"f"}, Length: 1})

	v := Evaluate(s, c, Policy{MatchMode: ModeSafe, BlockList: []string{"banned-group"}}, nil)
	assert.Equal(t, decision.VerdictBlockedRelease, v)
}

func TestShouldRecheck(t *testing.T) {
	discSearchee := &searchee.Searchee{Files: []searchee.File{{RelPath: "VIDEO_TS.VOB", Size: 1}}}
	assert.True(t, ShouldRecheck(discSearchee, decision.VerdictMatch, []string{".vob"}))

	plain := &searchee.Searchee{Files: []searchee.File{{RelPath: "video.mkv", Size: 1}}}
	assert.False(t, ShouldRecheck(plain, decision.VerdictMatch, []string{".vob"}))
	assert.True(t, ShouldRecheck(plain, decision.VerdictMatchPartial, []string{".vob"}))
}
