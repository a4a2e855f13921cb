// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package titleparse classifies a release name (searchee or candidate) so
// the Torznab client can pick a query kind (component E) and the searchee
// constructor can detect single-episode releases (component B).
package titleparse

import "github.com/moistari/rls"

// Kind is the detected content shape of a release name.
type Kind int

const (
	KindUnknown Kind = iota
	KindTV
	KindMovie
	KindMusic
	KindBook
)

// Info is the parsed shape of a release name relevant to query planning.
type Info struct {
	Kind Kind

	Title   string
	Year    int
	Season  int
	Episode int

	// IsSeasonPack is true when the release names a season with no single
	// episode number (e.g. "Show.S01" vs "Show.S01E03").
	IsSeasonPack bool
	// IsSingleEpisode is true when the release names exactly one episode
	// with no pack indication.
	IsSingleEpisode bool
}

// Parse classifies a release name using the corpus's release-name parser.
func Parse(name string) Info {
	r := rls.ParseString(name)

	info := Info{Title: r.Title, Year: r.Year}

	switch r.Type {
	case rls.Episode, rls.Series:
		info.Kind = KindTV
		info.Season = r.Series
		info.Episode = r.Episode
		if r.Episode > 0 {
			info.IsSingleEpisode = true
		} else if r.Series > 0 {
			info.IsSeasonPack = true
		}
	case rls.Movie:
		info.Kind = KindMovie
	case rls.Music, rls.Audiobook:
		info.Kind = KindMusic
	case rls.Book, rls.Comic, rls.Magazine:
		info.Kind = KindBook
	default:
		info.Kind = KindUnknown
		if r.Year > 0 {
			info.Kind = KindMovie
		}
	}

	return info
}
