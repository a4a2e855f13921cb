// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package linker implements component G: materializing a matched
// candidate's file tree on disk as a hardlink, symlink, or reflink tree
// rooted at the searchee's data, for data-origin matches only.
package linker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"syscall"

	"github.com/xseed/xseed/internal/domain"
	"github.com/xseed/xseed/internal/metafile"
	"github.com/xseed/xseed/internal/normalize"
	"github.com/xseed/xseed/internal/searchee"
	"github.com/xseed/xseed/pkg/hardlink"
	"github.com/xseed/xseed/pkg/reflinktree"
)

// ErrCrossDevice is returned when LinkTypeHardlink is requested but the
// source and destination live on different filesystems. There is no
// automatic fallback. The pipeline logs the failure and the inject attempt
// ends as FAILURE; no UNKNOWN_ERROR verdict is recorded, so the MATCH
// decision written before linking stays in the decision cache.
var ErrCrossDevice = errors.New("linker: source and destination are on different filesystems")

// Request describes one candidate's link tree to create.
type Request struct {
	Searchee  *searchee.Searchee
	Candidate *metafile.Metafile
	LinkDir   string
	Tracker   string // indexer name; omitted from the path when FlatLinking is set
	Flat      bool
	Kind      domain.LinkType
}

// Result is the set of paths created by Link.
type Result struct {
	Root  string // linkDir/[tracker/]candidate.Name
	Paths []string
}

// Link creates, under req.LinkDir, a directory tree mirroring req.Candidate's
// internal layout, with every leaf linked back to its source file inside
// req.Searchee.SavePath. The source for each candidate file is resolved by
// the name-and-size bijection the matcher already established: an exact
// normalized-path match first, falling back to a sorted-by-size pairing for
// renamed candidates (RISKY/PARTIAL matches).
func Link(req Request) (*Result, error) {
	if req.Searchee.SavePath == "" {
		return nil, errors.New("linker: searchee has no on-disk root (not a data-origin match)")
	}

	sources, err := mapSources(req.Searchee, req.Candidate)
	if err != nil {
		return nil, err
	}

	root := req.LinkDir
	if !req.Flat && req.Tracker != "" {
		root = filepath.Join(root, sanitizeComponent(req.Tracker))
	}
	root = filepath.Join(root, sanitizeComponent(req.Candidate.Name))

	result := &Result{Root: root}
	for _, f := range req.Candidate.Files {
		relPath := filepath.Join(f.PathSegments...)
		src, ok := sources[candidateKey(f)]
		if !ok {
			return nil, fmt.Errorf("linker: no source mapped for %s", relPath)
		}

		dst := filepath.Join(root, relPath)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return nil, fmt.Errorf("linker: create parent dir for %s: %w", relPath, err)
		}

		if err := linkOne(req.Kind, src, dst); err != nil {
			return nil, err
		}
		result.Paths = append(result.Paths, dst)
	}
	return result, nil
}

func linkOne(kind domain.LinkType, src, dst string) error {
	switch kind {
	case domain.LinkTypeSymlink:
		if err := os.Symlink(src, dst); err != nil {
			return fmt.Errorf("linker: symlink %s: %w", dst, err)
		}
		return nil
	case domain.LinkTypeReflink:
		if runtime.GOOS != "linux" {
			return fmt.Errorf("linker: reflink is only supported on linux, got %s", runtime.GOOS)
		}
		if err := reflinktree.Clone(src, dst); err != nil {
			return fmt.Errorf("linker: reflink %s: %w", dst, err)
		}
		return nil
	default: // domain.LinkTypeHardlink, and the zero value
		if err := os.Link(src, dst); err != nil {
			if errors.Is(err, syscall.EXDEV) {
				return fmt.Errorf("%w: %s -> %s", ErrCrossDevice, src, dst)
			}
			return fmt.Errorf("linker: hardlink %s: %w", dst, err)
		}
		return verifySameFile(src, dst)
	}
}

// verifySameFile confirms the hardlink actually landed on the same inode,
// catching filesystems that silently copy instead of linking.
func verifySameFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("linker: stat source %s: %w", src, err)
	}
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("linker: stat destination %s: %w", dst, err)
	}
	srcID, _, err := hardlink.GetFileID(srcInfo, src)
	if err != nil {
		return nil // best-effort; not every platform supports identity checks
	}
	dstID, _, err := hardlink.GetFileID(dstInfo, dst)
	if err != nil {
		return nil
	}
	if srcID != dstID {
		return fmt.Errorf("%w: %s -> %s", ErrCrossDevice, src, dst)
	}
	return nil
}

// candKey identifies a candidate file by its normalized relative path and
// size, used as the source-map key.
type candKey struct {
	relPath string
	size    int64
}

func candidateKey(f metafile.FileEntry) candKey {
	rel := strings.Join(f.PathSegments, "/")
	return candKey{relPath: normalize.RelPath(rel), size: f.Length}
}

// mapSources builds the candidate-file -> searchee-source-path mapping.
// Exact normalized-path-and-size matches are paired first; any remaining
// candidate files are paired against remaining searchee files by sorting
// both by size, tolerating the renames a RISKY/PARTIAL match allows.
func mapSources(s *searchee.Searchee, c *metafile.Metafile) (map[candKey]string, error) {
	type srcFile struct {
		relPath string
		size    int64
		abs     string
	}

	remaining := make([]srcFile, 0, len(s.Files))
	for _, f := range s.Files {
		remaining = append(remaining, srcFile{
			relPath: normalize.RelPath(f.RelPath),
			size:    f.Size,
			abs:     filepath.Join(s.SavePath, filepath.FromSlash(f.RelPath)),
		})
	}

	out := make(map[candKey]string, len(c.Files))
	var unmatched []metafile.FileEntry

	for _, f := range c.Files {
		key := candidateKey(f)
		matched := false
		for i, r := range remaining {
			if r.relPath == key.relPath && r.size == key.size {
				out[key] = r.abs
				remaining = append(remaining[:i], remaining[i+1:]...)
				matched = true
				break
			}
		}
		if !matched {
			unmatched = append(unmatched, f)
		}
	}

	if len(unmatched) == 0 {
		return out, nil
	}
	if len(unmatched) != len(remaining) {
		return nil, fmt.Errorf("linker: cannot resolve sources for %d of %d candidate files", len(unmatched), len(c.Files))
	}

	sort.Slice(unmatched, func(i, j int) bool { return unmatched[i].Length < unmatched[j].Length })
	sort.Slice(remaining, func(i, j int) bool { return remaining[i].size < remaining[j].size })
	for i, f := range unmatched {
		if remaining[i].size != f.Length {
			return nil, fmt.Errorf("linker: size bijection failed for %s", strings.Join(f.PathSegments, "/"))
		}
		out[candidateKey(f)] = remaining[i].abs
	}
	return out, nil
}


// sanitizeComponent strips path separators from a single path component
// (tracker name, candidate name) so it can't escape the link tree root.
func sanitizeComponent(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, string(filepath.Separator), "_")
	return s
}
