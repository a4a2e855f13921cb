// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package searchee

import (
	"path"
	"strings"

	"github.com/xseed/xseed/internal/titleparse"
)

// HasVideoFile reports whether any file in s carries one of the configured
// video extensions.
func (s *Searchee) HasVideoFile(videoExtensions []string) bool {
	for _, f := range s.Files {
		ext := strings.ToLower(path.Ext(f.RelPath))
		for _, v := range videoExtensions {
			if ext == v {
				return true
			}
		}
	}
	return false
}

// IsSingleEpisode reports whether this searchee's name parses as exactly
// one TV episode with no season-pack indication, per component B.
func (s *Searchee) IsSingleEpisode() bool {
	info := titleparse.Parse(s.Name)
	return info.Kind == titleparse.KindTV && info.IsSingleEpisode
}

// FilterOptions controls the non-video and single-episode drop rules.
type FilterOptions struct {
	VideoExtensions       []string
	IncludeNonVideos      bool
	IncludeSingleEpisodes bool
}

// Accept applies component B's non-video and single-episode filters,
// returning false if the searchee should be dropped from the pass.
func Accept(s *Searchee, opts FilterOptions) bool {
	if !opts.IncludeNonVideos && !s.HasVideoFile(opts.VideoExtensions) {
		return false
	}
	if !opts.IncludeSingleEpisodes && s.IsSingleEpisode() {
		return false
	}
	return true
}
