// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package searchee implements the uniform view of "something we want to
// cross-seed" (component B): a tagged union over a locally-parsed torrent,
// a torrent client's reported entry, or a directory of data files.
package searchee

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/xseed/xseed/internal/metafile"
)

// Origin identifies which of the three constructors produced a Searchee.
type Origin int

const (
	OriginTorrent Origin = iota
	OriginClient
	OriginData
)

func (o Origin) String() string {
	switch o {
	case OriginTorrent:
		return "torrent"
	case OriginClient:
		return "client"
	case OriginData:
		return "data"
	default:
		return "unknown"
	}
}

// File is one leaf of a Searchee's flat file list.
type File struct {
	RelPath string
	Size    int64
}

// Searchee is the uniform shape every origin exposes to the rest of the
// pipeline: a display name, a flat file list, a total size, and a creation
// timestamp if known.
type Searchee struct {
	Name      string
	Origin    Origin
	Files     []File
	TotalSize int64
	CreatedAt time.Time // zero value if unknown

	// InfoHash is set for TorrentSearchee and ClientSearchee.
	InfoHash string
	// SavePath is the root directory on disk; set for ClientSearchee and
	// DataSearchee.
	SavePath string
	// ClientCompleted records the client's reported completion state;
	// meaningful only for ClientSearchee.
	ClientCompleted bool
}

// Validate enforces the §3 Searchee invariant: non-empty file list, and
// relative paths that never traverse outside the root.
func (s *Searchee) Validate() error {
	if len(s.Files) == 0 {
		return fmt.Errorf("searchee %q has no files", s.Name)
	}
	for _, f := range s.Files {
		clean := path.Clean(f.RelPath)
		if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
			return fmt.Errorf("searchee %q file %q escapes root", s.Name, f.RelPath)
		}
	}
	return nil
}

// FromMetafile builds a TorrentSearchee from a parsed local .torrent file.
func FromMetafile(m *metafile.Metafile, createdAt time.Time) (*Searchee, error) {
	s := &Searchee{
		Name:      m.Name,
		Origin:    OriginTorrent,
		InfoHash:  m.InfoHash,
		CreatedAt: createdAt,
	}
	for _, f := range m.Files {
		rel := strings.Join(f.PathSegments, "/")
		s.Files = append(s.Files, File{RelPath: rel, Size: f.Length})
		s.TotalSize += f.Length
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// ClientEntry is what a client adapter reports back for a torrent already
// managed by the client, sufficient to build a ClientSearchee.
type ClientEntry struct {
	Name      string
	InfoHash  string
	SavePath  string
	Files     []File
	Completed bool
	AddedAt   time.Time
}

// FromClientEntry builds a ClientSearchee from a client adapter's report.
func FromClientEntry(e ClientEntry) (*Searchee, error) {
	s := &Searchee{
		Name:            e.Name,
		Origin:          OriginClient,
		InfoHash:        e.InfoHash,
		SavePath:        e.SavePath,
		Files:           e.Files,
		ClientCompleted: e.Completed,
		CreatedAt:       e.AddedAt,
	}
	for _, f := range e.Files {
		s.TotalSize += f.Size
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// HasDiscLayout reports whether any file carries one of the configured
// video-disc extensions, which forces a post-injection recheck (§4.F, §4.J).
func (s *Searchee) HasDiscLayout(discExtensions []string) bool {
	for _, f := range s.Files {
		ext := strings.ToLower(path.Ext(f.RelPath))
		for _, d := range discExtensions {
			if ext == d {
				return true
			}
		}
	}
	return false
}
