// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metafile implements the bencoded .torrent codec (component A):
// parsing, infohash computation, and re-serialization for artifact
// emission. The info dictionary's exact byte span is retained across a
// parse so the infohash can be recomputed and verified, and so a
// re-serialized file with a swapped announce URL still hashes identically.
package metafile

import (
	"crypto/sha1" //nolint:gosec // infohash is defined as SHA-1 by the BitTorrent spec
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/zeebo/bencode"
)

// FileEntry is one leaf in a metafile's file tree.
type FileEntry struct {
	PathSegments []string
	Length       int64
}

// Metafile is the parsed, validated view of a .torrent file.
type Metafile struct {
	InfoHash string // lowercase hex, SHA-1 of the info dictionary
	Announce []string
	Name     string
	Files    []FileEntry

	rawInfo bencode.RawMessage // exact byte span of the info dictionary as observed
}

type rawTorrent struct {
	Announce     string             `bencode:"announce,omitempty"`
	AnnounceList [][]string         `bencode:"announce-list,omitempty"`
	Info         bencode.RawMessage `bencode:"info"`
	CreationDate int64              `bencode:"creation date,omitempty"`
	Comment      string             `bencode:"comment,omitempty"`
	CreatedBy    string             `bencode:"created by,omitempty"`
}

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
	Private     int       `bencode:"private,omitempty"`
}

// Parse decodes a bencoded .torrent byte slice into a Metafile, rejecting
// malformed structure and verifying the observed infohash is a pure
// function of the info dictionary.
func Parse(data []byte) (*Metafile, error) {
	// Reject anything whose root isn't a dictionary before attempting the
	// typed decode, which otherwise tolerates a scalar/list root silently
	// by leaving every field zero.
	var probe interface{}
	if err := bencode.DecodeBytes(data, &probe); err != nil {
		return nil, fmt.Errorf("decode bencode: %w", err)
	}
	if _, ok := probe.(map[string]interface{}); !ok {
		return nil, fmt.Errorf("metafile root is not a dictionary")
	}

	var raw rawTorrent
	if err := bencode.DecodeBytes(data, &raw); err != nil {
		return nil, fmt.Errorf("decode metafile: %w", err)
	}
	if len(raw.Info) == 0 {
		return nil, fmt.Errorf("metafile missing info dictionary")
	}

	var info rawInfo
	if err := bencode.DecodeBytes(raw.Info, &info); err != nil {
		return nil, fmt.Errorf("decode info dictionary: %w", err)
	}
	if info.Name == "" {
		return nil, fmt.Errorf("metafile info.name is required")
	}

	hasFiles := len(info.Files) > 0
	hasLength := info.Length > 0
	if hasFiles && hasLength {
		return nil, fmt.Errorf("metafile mixes single-file and multi-file modes")
	}

	var files []FileEntry
	if hasFiles {
		for _, f := range info.Files {
			if len(f.Path) == 0 {
				return nil, fmt.Errorf("metafile file entry has empty path")
			}
			files = append(files, FileEntry{PathSegments: append([]string(nil), f.Path...), Length: f.Length})
		}
	} else {
		files = []FileEntry{{PathSegments: []string{info.Name}, Length: info.Length}}
	}

	sum := sha1.Sum(raw.Info) //nolint:gosec
	hash := hex.EncodeToString(sum[:])

	announce := collectAnnounce(raw)

	return &Metafile{
		InfoHash: hash,
		Announce: announce,
		Name:     info.Name,
		Files:    files,
		rawInfo:  raw.Info,
	}, nil
}

func collectAnnounce(raw rawTorrent) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	add(raw.Announce)
	for _, tier := range raw.AnnounceList {
		for _, u := range tier {
			add(u)
		}
	}
	return out
}

// TotalSize returns the sum of all file lengths.
func (m *Metafile) TotalSize() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Length
	}
	return total
}

// IsSingleFile reports whether this metafile describes exactly one file
// named after the torrent itself (no subdirectory).
func (m *Metafile) IsSingleFile() bool {
	return len(m.Files) == 1 && len(m.Files[0].PathSegments) == 1 && m.Files[0].PathSegments[0] == m.Name
}

// Serialize re-encodes the metafile, optionally replacing the announce
// list. The info dictionary bytes are reused verbatim from the parse, so
// the infohash of the output is guaranteed identical to m.InfoHash
// regardless of the announce override.
func (m *Metafile) Serialize(announceOverride []string) ([]byte, error) {
	if m.rawInfo == nil {
		return nil, fmt.Errorf("metafile has no retained info bytes; build via Parse")
	}

	announce := m.Announce
	if announceOverride != nil {
		announce = announceOverride
	}

	out := rawTorrent{Info: m.rawInfo}
	if len(announce) > 0 {
		out.Announce = announce[0]
		out.AnnounceList = [][]string{append([]string(nil), announce...)}
	}

	return bencode.EncodeBytes(&out)
}

// SortedFiles returns a copy of Files sorted by joined path, used for
// deterministic tree printing.
func (m *Metafile) SortedFiles() []FileEntry {
	files := append([]FileEntry(nil), m.Files...)
	sort.Slice(files, func(i, j int) bool {
		return joinPath(files[i].PathSegments) < joinPath(files[j].PathSegments)
	})
	return files
}

func joinPath(segments []string) string {
	out := ""
	for i, s := range segments {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}
