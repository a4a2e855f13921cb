// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metafile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"
)

func encodeFixture(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := bencode.EncodeBytes(v)
	require.NoError(t, err)
	return data
}

func singleFileFixture(t *testing.T) []byte {
	return encodeFixture(t, &rawTorrent{
		Announce: "https://trackerA.example/announce",
		Info: encodeFixture(t, &rawInfo{
			Name:        "foo.mkv",
			PieceLength: 16384,
			Pieces:      "01234567890123456789",
			Length:      1_000_000_000,
		}),
	})
}

func TestParseSingleFile(t *testing.T) {
	data := singleFileFixture(t)

	m, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "foo.mkv", m.Name)
	assert.Len(t, m.Files, 1)
	assert.Equal(t, []string{"foo.mkv"}, m.Files[0].PathSegments)
	assert.Equal(t, int64(1_000_000_000), m.Files[0].Length)
	assert.True(t, m.IsSingleFile())
	assert.Len(t, m.InfoHash, 40)
	assert.Equal(t, []string{"https://trackerA.example/announce"}, m.Announce)
}

func TestParseMultiFile(t *testing.T) {
	data := encodeFixture(t, &rawTorrent{
		Announce: "https://tracker.example/announce",
		Info: encodeFixture(t, &rawInfo{
			Name:        "Show.S01",
			PieceLength: 16384,
			Pieces:      "01234567890123456789",
			Files: []rawFile{
				{Length: 1_000_000_000, Path: []string{"Show.S01E01.mkv"}},
				{Length: 500_000_000, Path: []string{"Show.S01E02.mkv"}},
			},
		}),
	})

	m, err := Parse(data)
	require.NoError(t, err)
	assert.Len(t, m.Files, 2)
	assert.Equal(t, int64(1_500_000_000), m.TotalSize())
}

func TestParseRejectsNonDictRoot(t *testing.T) {
	data := encodeFixture(t, []string{"not", "a", "dict"})
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParseRejectsMissingInfo(t *testing.T) {
	data := encodeFixture(t, &struct {
		Announce string `bencode:"announce"`
	}{Announce: "https://tracker.example"})
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestParseRejectsMixedMode(t *testing.T) {
	data := encodeFixture(t, &rawTorrent{
		Info: encodeFixture(t, &rawInfo{
			Name:   "mixed",
			Length: 100,
			Files:  []rawFile{{Length: 100, Path: []string{"a"}}},
		}),
	})
	_, err := Parse(data)
	assert.Error(t, err)
}

func TestInfohashIsPureFunctionOfInfoDict(t *testing.T) {
	data := singleFileFixture(t)
	m1, err := Parse(data)
	require.NoError(t, err)
	m2, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, m1.InfoHash, m2.InfoHash)
}

func TestRoundTripPreservesInfohash(t *testing.T) {
	data := singleFileFixture(t)
	m, err := Parse(data)
	require.NoError(t, err)

	out, err := m.Serialize([]string{"https://trackerB.example/announce"})
	require.NoError(t, err)

	m2, err := Parse(out)
	require.NoError(t, err)

	assert.Equal(t, m.InfoHash, m2.InfoHash)
	assert.Equal(t, []string{"https://trackerB.example/announce"}, m2.Announce)
}

func TestTreeIsDeterministic(t *testing.T) {
	data := encodeFixture(t, &rawTorrent{
		Info: encodeFixture(t, &rawInfo{
			Name:        "Show.S01",
			PieceLength: 16384,
			Pieces:      "01234567890123456789",
			Files: []rawFile{
				{Length: 200, Path: []string{"b.mkv"}},
				{Length: 100, Path: []string{"a.mkv"}},
			},
		}),
	})
	m, err := Parse(data)
	require.NoError(t, err)

	out1 := m.Tree()
	out2 := m.Tree()
	assert.Equal(t, out1, out2)
	assert.Contains(t, out1, "a.mkv (100)")
	assert.Contains(t, out1, "b.mkv (200)")
}
