// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package torznab

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Item is one parsed RSS-with-Torznab-extensions search result, per
// spec §4.E.
type Item struct {
	Title      string
	GUID       string
	Link       string
	Size       int64
	PubDate    time.Time
	InfoHash   string // empty if the indexer didn't advertise one
	Categories []int
}

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string          `xml:"title"`
	GUID    string          `xml:"guid"`
	Link    string          `xml:"link"`
	PubDate string          `xml:"pubDate"`
	Attrs   []torznabAttr   `xml:"attr"`
	Enclosure rssEnclosure  `xml:"enclosure"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ParseItems decodes an RSS+Torznab response into a flat item list.
func ParseItems(r io.Reader) ([]Item, error) {
	var feed rssFeed
	if err := xml.NewDecoder(r).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode rss response: %w", err)
	}

	out := make([]Item, 0, len(feed.Channel.Items))
	for _, raw := range feed.Channel.Items {
		item := Item{
			Title: raw.Title,
			GUID:  firstNonEmpty(raw.GUID, raw.Link),
			Link:  raw.Link,
		}
		if raw.Enclosure.URL != "" {
			item.Link = raw.Enclosure.URL
		}
		if raw.Enclosure.Length != "" {
			if sz, err := strconv.ParseInt(raw.Enclosure.Length, 10, 64); err == nil {
				item.Size = sz
			}
		}
		if t, err := parsePubDate(raw.PubDate); err == nil {
			item.PubDate = t
		}

		for _, a := range raw.Attrs {
			name := strings.ToLower(a.Name)
			switch name {
			case "size":
				if sz, err := strconv.ParseInt(a.Value, 10, 64); err == nil {
					item.Size = sz
				}
			case "infohash":
				item.InfoHash = strings.ToLower(a.Value)
			case "category":
				if cat, err := strconv.Atoi(a.Value); err == nil {
					item.Categories = append(item.Categories, cat)
				}
			}
		}

		out = append(out, item)
	}
	return out, nil
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

func parsePubDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
