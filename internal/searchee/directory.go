// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package searchee

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xseed/xseed/internal/metafile"
)

// ScanOptions configures a directory walk.
type ScanOptions struct {
	MaxDataDepth int
	BlockList    []string
}

// ScanDirectories walks each root in roots and returns one DataSearchee per
// leaf directory at or below MaxDataDepth, per component B's construction
// rule. Hidden files and blockList matches are excluded. Symlinks are never
// followed.
func ScanDirectories(ctx context.Context, roots []string, opts ScanOptions) ([]*Searchee, error) {
	var out []*Searchee
	for _, root := range roots {
		found, err := scanOneRoot(ctx, root, opts)
		if err != nil {
			return out, err
		}
		out = append(out, found...)
	}
	return out, nil
}

func scanOneRoot(ctx context.Context, root string, opts ScanOptions) ([]*Searchee, error) {
	root = filepath.Clean(root)
	maxDepth := opts.MaxDataDepth
	if maxDepth <= 0 {
		maxDepth = 2
	}

	var out []*Searchee
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		var subdirs []os.DirEntry
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), ".") {
				continue
			}
			if e.IsDir() {
				subdirs = append(subdirs, e)
			}
		}

		// A directory becomes a leaf searchee when it has no eligible
		// subdirectories left to descend into, or the depth bound is hit.
		if len(subdirs) == 0 || depth >= maxDepth {
			s, err := buildLeafSearchee(dir, opts.BlockList)
			if err != nil {
				return err
			}
			if s != nil {
				out = append(out, s)
			}
			return nil
		}

		for _, sub := range subdirs {
			if isBlocked(sub.Name(), opts.BlockList) {
				continue
			}
			if err := walk(filepath.Join(dir, sub.Name()), depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return out, err
	}
	return out, nil
}

func buildLeafSearchee(dir string, blockList []string) (*Searchee, error) {
	var files []File
	var total int64
	var newest time.Time

	err := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") || isBlocked(info.Name(), blockList) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		files = append(files, File{RelPath: rel, Size: info.Size()})
		total += info.Size()
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })

	name := filepath.Base(dir)
	s := &Searchee{
		Name:      name,
		Origin:    OriginData,
		Files:     files,
		TotalSize: total,
		SavePath:  dir,
		CreatedAt: newest,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ScanTorrentDir parses every *.torrent file directly under torrentDir and
// builds a TorrentSearchee from each, per component B's torrent-origin
// construction rule. A file that fails to parse is skipped with its error
// collected rather than aborting the whole scan, so one corrupt .torrent
// dropped by a client doesn't block discovery for the rest.
func ScanTorrentDir(torrentDir string) ([]*Searchee, error) {
	entries, err := os.ReadDir(torrentDir)
	if err != nil {
		return nil, fmt.Errorf("searchee: read torrent dir %s: %w", torrentDir, err)
	}

	var out []*Searchee
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".torrent") {
			continue
		}
		p := filepath.Join(torrentDir, e.Name())

		data, err := os.ReadFile(p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		m, err := metafile.Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}

		info, err := e.Info()
		var createdAt time.Time
		if err == nil {
			createdAt = info.ModTime()
		}

		s, err := FromMetafile(m, createdAt)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		out = append(out, s)
	}

	if len(errs) > 0 {
		return out, fmt.Errorf("searchee: %d of %d torrent files failed to parse: %w", len(errs), len(entries), errors.Join(errs...))
	}
	return out, nil
}

func isBlocked(name string, blockList []string) bool {
	for _, b := range blockList {
		if strings.EqualFold(b, name) {
			return true
		}
	}
	return false
}
