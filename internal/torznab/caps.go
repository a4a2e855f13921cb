// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xseed/xseed/internal/indexer"
)

type capsResponse struct {
	XMLName    xml.Name      `xml:"caps"`
	Searching  searchingCaps `xml:"searching"`
	Categories []categoryNode `xml:"categories>category"`
}

type searchingCaps struct {
	Search      searchNode `xml:"search"`
	TVSearch    searchNode `xml:"tv-search"`
	MovieSearch searchNode `xml:"movie-search"`
	MusicSearch searchNode `xml:"music-search"`
	AudioSearch searchNode `xml:"audio-search"`
	BookSearch  searchNode `xml:"book-search"`
}

type searchNode struct {
	Available   string `xml:"available,attr"`
	SupportedParams string `xml:"supportedParams,attr"`
}

type categoryNode struct {
	ID      string        `xml:"id,attr"`
	Subcats []subcatNode `xml:"subcat"`
}

type subcatNode struct {
	ID string `xml:"id,attr"`
}

// ParseCaps decodes a Torznab caps XML document into an indexer.Caps value.
func ParseCaps(r io.Reader) (indexer.Caps, error) {
	var resp capsResponse
	if err := xml.NewDecoder(r).Decode(&resp); err != nil {
		return indexer.Caps{}, fmt.Errorf("decode caps response: %w", err)
	}

	caps := indexer.Caps{
		Search: isAvailable(resp.Searching.Search.Available),
		TV:     isAvailable(resp.Searching.TVSearch.Available),
		Movie:  isAvailable(resp.Searching.MovieSearch.Available),
		Music:  isAvailable(resp.Searching.MusicSearch.Available),
		Audio:  isAvailable(resp.Searching.AudioSearch.Available),
		Book:   isAvailable(resp.Searching.BookSearch.Available),
	}

	caps.IDCaps = collectIDCaps(resp.Searching)

	for _, cat := range resp.Categories {
		if id, err := strconv.Atoi(strings.TrimSpace(cat.ID)); err == nil {
			caps.CatCaps = append(caps.CatCaps, id)
		}
		for _, sub := range cat.Subcats {
			if id, err := strconv.Atoi(strings.TrimSpace(sub.ID)); err == nil {
				caps.CatCaps = append(caps.CatCaps, id)
			}
		}
	}

	return caps, nil
}

func collectIDCaps(s searchingCaps) []string {
	seen := map[string]bool{}
	var out []string
	for _, node := range []searchNode{s.TVSearch, s.MovieSearch, s.MusicSearch, s.AudioSearch, s.BookSearch} {
		for _, p := range strings.Split(node.SupportedParams, ",") {
			p = strings.TrimSpace(p)
			if p == "" || p == "q" || p == "season" || p == "ep" || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

func isAvailable(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}
