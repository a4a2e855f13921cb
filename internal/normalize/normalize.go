// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package normalize provides cached, interned string normalization shared
// by the matcher, the Torznab query builder, and the decision cache —
// anywhere two titles or paths need a case/diacritic-insensitive compare.
package normalize

import (
	"strings"
	"time"
	"unicode"
	"unique"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/autobrr/autobrr/pkg/ttlcache"
)

const cacheTTL = 5 * time.Minute

var titleCache = ttlcache.New(ttlcache.Options[string, string]{}.SetDefaultTTL(cacheTTL))

// Intern returns a canonical, memory-shared representation of s.
func Intern(s string) string {
	if s == "" {
		return ""
	}
	return unique.Make(s).Value()
}

// ForMatching lowercases, strips diacritics and punctuation, and collapses
// whitespace so two differently-styled release titles compare equal. The
// result is cached and interned since it sits on the matcher's hot path.
func ForMatching(s string) string {
	if cached, ok := titleCache.Get(s); ok {
		return cached
	}
	out := Intern(forMatching(s))
	titleCache.Set(s, out, ttlcache.DefaultTTL)
	return out
}

func forMatching(s string) string {
	s = stripDiacritics(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "'", "")

	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func stripDiacritics(s string) string {
	s = strings.NewReplacer(
		"æ", "ae", "Æ", "AE",
		"œ", "oe", "Œ", "OE",
		"ø", "o", "Ø", "O",
		"ß", "ss",
		"ð", "d", "Ð", "D",
		"þ", "th", "Þ", "TH",
	).Replace(s)

	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// RelPath normalizes a relative file path for layout comparisons: forward
// slashes, case preserved (file systems we target are case-sensitive), no
// leading/trailing separators.
func RelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	return p
}
