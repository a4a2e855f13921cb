// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package linker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/searchee"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func TestLinkHardlinkExactLayout(t *testing.T) {
	root := t.TempDir()
	linkDir := t.TempDir()

	leaf := filepath.Join(root, "Show.S01E01")
	writeFile(t, filepath.Join(leaf, "video.mkv"), 100)

	s := &searchee.Searchee{
		Name:     "Show.S01E01",
		SavePath: leaf,
		Files:    []searchee.File{{RelPath: "video.mkv", Size: 100}},
	}
	c := &metafile.Metafile{
		Name:  "Show.S01E01-GRP",
		Files: []metafile.FileEntry{{PathSegments: []string{"video.mkv"}, Length: 100}},
	}

	res, err := Link(Request{Searchee: s, Candidate: c, LinkDir: linkDir, Tracker: "mytracker", Kind: domain.LinkTypeHardlink})
	require.NoError(t, err)
	require.Len(t, res.Paths, 1)

	dst := filepath.Join(linkDir, "mytracker", "Show.S01E01-GRP", "video.mkv")
	assert.Equal(t, dst, res.Paths[0])

	srcInfo, err := os.Stat(filepath.Join(root, "Show.S01E01", "video.mkv"))
	require.NoError(t, err)
	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))
}

func TestLinkFlatLinkingOmitsTracker(t *testing.T) {
	root := t.TempDir()
	linkDir := t.TempDir()
	leaf := filepath.Join(root, "a")
	writeFile(t, filepath.Join(leaf, "f"), 1)

	s := &searchee.Searchee{Name: "a", SavePath: leaf, Files: []searchee.File{{RelPath: "f", Size: 1}}}
	c := &metafile.Metafile{Name: "a", Files: []metafile.FileEntry{{PathSegments: []string{"f"}, Length: 1}}}

	res, err := Link(Request{Searchee: s, Candidate: c, LinkDir: linkDir, Tracker: "mytracker", Flat: true, Kind: domain.LinkTypeHardlink})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(linkDir, "a"), res.Root)
}

func TestLinkSizeBijectionForRenamedFiles(t *testing.T) {
	root := t.TempDir()
	linkDir := t.TempDir()
	leaf := filepath.Join(root, "a")
	writeFile(t, filepath.Join(leaf, "one.mkv"), 100)
	writeFile(t, filepath.Join(leaf, "two.mkv"), 200)

	s := &searchee.Searchee{
		Name:     "a",
		SavePath: leaf,
		Files: []searchee.File{
			{RelPath: "one.mkv", Size: 100},
			{RelPath: "two.mkv", Size: 200},
		},
	}
	c := &metafile.Metafile{
		Name: "b",
		Files: []metafile.FileEntry{
			{PathSegments: []string{"renamed-two.mkv"}, Length: 200},
			{PathSegments: []string{"renamed-one.mkv"}, Length: 100},
		},
	}

	res, err := Link(Request{Searchee: s, Candidate: c, LinkDir: linkDir, Flat: true, Kind: domain.LinkTypeHardlink})
	require.NoError(t, err)
	assert.Len(t, res.Paths, 2)

	info1, err := os.Stat(filepath.Join(root, "a", "one.mkv"))
	require.NoError(t, err)
	linked1, err := os.Stat(filepath.Join(linkDir, "b", "renamed-one.mkv"))
	require.NoError(t, err)
	assert.True(t, os.SameFile(info1, linked1))
}

func TestLinkSymlink(t *testing.T) {
	root := t.TempDir()
	linkDir := t.TempDir()
	leaf := filepath.Join(root, "a")
	writeFile(t, filepath.Join(leaf, "f"), 1)

	s := &searchee.Searchee{Name: "a", SavePath: leaf, Files: []searchee.File{{RelPath: "f", Size: 1}}}
	c := &metafile.Metafile{Name: "a", Files: []metafile.FileEntry{{PathSegments: []string{"f"}, Length: 1}}}

	res, err := Link(Request{Searchee: s, Candidate: c, LinkDir: linkDir, Flat: true, Kind: domain.LinkTypeSymlink})
	require.NoError(t, err)

	target, err := os.Readlink(res.Paths[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(leaf, "f"), target)
}

func TestLinkMissingSavePath(t *testing.T) {
	s := &searchee.Searchee{Name: "a"}
	c := &metafile.Metafile{Name: "a"}
	_, err := Link(Request{Searchee: s, Candidate: c, LinkDir: t.TempDir()})
	assert.Error(t, err)
}
