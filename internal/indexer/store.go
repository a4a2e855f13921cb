// Copyright (c) 2025-2026, the xseed contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package indexer

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xseed/xseed/internal/dbinterface"
)

// Store persists the indexer registry (component C, spec §3 Indexer).
// Each row's API key is stored AES-GCM encrypted at rest, styled on
// internal/models/torznab_indexer.go.
type Store struct {
	db  dbinterface.Querier
	key [32]byte
}

// NewStore builds a Store; encryptionKey must be exactly 32 bytes (AES-256).
func NewStore(db dbinterface.Querier, encryptionKey []byte) (*Store, error) {
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("indexer store: encryption key must be 32 bytes, got %d", len(encryptionKey))
	}
	s := &Store{db: db}
	copy(s.key[:], encryptionKey)
	return s, nil
}

func (s *Store) encrypt(plaintext string) ([]byte, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (s *Store) decrypt(ciphertext []byte) (string, error) {
	block, err := aes.NewCipher(s.key[:])
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("indexer store: ciphertext too short")
	}
	nonce, data := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, data, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// Upsert inserts or updates an indexer row keyed by its canonicalized URL.
// apiKey is the plaintext key; it's encrypted before storage.
func (s *Store) Upsert(ctx context.Context, name, url, apiKey string, active bool) (int, error) {
	canonical, err := CanonicalizeURL(url)
	if err != nil {
		return 0, fmt.Errorf("canonicalize url: %w", err)
	}
	enc, err := s.encrypt(apiKey)
	if err != nil {
		return 0, fmt.Errorf("encrypt api key: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO indexer (url, name, api_key_enc, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			name = excluded.name,
			api_key_enc = excluded.api_key_enc,
			active = excluded.active,
			updated_at = CURRENT_TIMESTAMP
	`, canonical, name, enc, active)
	if err != nil {
		return 0, fmt.Errorf("upsert indexer: %w", err)
	}

	var id int
	if err := s.db.QueryRowContext(ctx, "SELECT id FROM indexer WHERE url = ?", canonical).Scan(&id); err != nil {
		return 0, fmt.Errorf("read back indexer id: %w", err)
	}
	return id, nil
}

// ListActive returns every indexer with active = true, leaving each API key
// as ciphertext in Indexer.APIKeyEncrypted — the plaintext key is available
// only through DecryptAPIKey, so callers that never issue a request never
// touch it.
func (s *Store) ListActive(ctx context.Context) ([]*Indexer, error) {
	return s.list(ctx, "SELECT id, url, name, api_key_enc, active, status, retry_after, status_count, caps_search, caps_tv, caps_movie, caps_music, caps_audio, caps_book, caps_id_list, caps_cat_list, caps_max_limit, caps_def_limit FROM indexer WHERE active = 1")
}

// ListAll returns every indexer row regardless of active state, for CLI
// listings and the admin API.
func (s *Store) ListAll(ctx context.Context) ([]*Indexer, error) {
	return s.list(ctx, "SELECT id, url, name, api_key_enc, active, status, retry_after, status_count, caps_search, caps_tv, caps_movie, caps_music, caps_audio, caps_book, caps_id_list, caps_cat_list, caps_max_limit, caps_def_limit FROM indexer")
}

func (s *Store) list(ctx context.Context, query string) ([]*Indexer, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query indexers: %w", err)
	}
	defer rows.Close()

	var out []*Indexer
	for rows.Next() {
		ind, apiKeyEnc, err := s.scanIndexer(rows)
		if err != nil {
			return nil, err
		}
		ind.APIKeyEncrypted = string(apiKeyEnc)
		out = append(out, ind)
	}
	return out, rows.Err()
}

func (s *Store) scanIndexer(rows *sql.Rows) (*Indexer, []byte, error) {
	var (
		ind          Indexer
		apiKeyEnc    []byte
		retryAfter   sql.NullTime
		idCapsJoined string
		catCapsJoin  string
	)
	if err := rows.Scan(
		&ind.ID, &ind.URL, &ind.Name, &apiKeyEnc, &ind.Active, &ind.Status, &retryAfter, &ind.statusCount,
		&ind.Caps.Search, &ind.Caps.TV, &ind.Caps.Movie, &ind.Caps.Music, &ind.Caps.Audio, &ind.Caps.Book,
		&idCapsJoined, &catCapsJoin, &ind.Caps.MaxLimit, &ind.Caps.DefaultLimit,
	); err != nil {
		return nil, nil, fmt.Errorf("scan indexer row: %w", err)
	}
	if retryAfter.Valid {
		t := retryAfter.Time
		ind.RetryAfter = &t
	}
	if idCapsJoined != "" {
		ind.Caps.IDCaps = strings.Split(idCapsJoined, ",")
	}
	return &ind, apiKeyEnc, nil
}

// DecryptAPIKey returns the plaintext API key for an indexer whose
// APIKeyEncrypted field holds raw ciphertext bytes (as returned by List*).
func (s *Store) DecryptAPIKey(ind *Indexer) (string, error) {
	return s.decrypt([]byte(ind.APIKeyEncrypted))
}

// SaveStatus persists an indexer's post-query health classification.
func (s *Store) SaveStatus(ctx context.Context, ind *Indexer) error {
	var retryAfter any
	if ind.RetryAfter != nil {
		retryAfter = *ind.RetryAfter
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE indexer SET status = ?, retry_after = ?, status_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, ind.Status, retryAfter, ind.statusCount, ind.ID)
	return err
}

// SaveCaps persists a freshly queried caps response.
func (s *Store) SaveCaps(ctx context.Context, id int, caps Caps) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE indexer SET
			caps_search = ?, caps_tv = ?, caps_movie = ?, caps_music = ?, caps_audio = ?, caps_book = ?,
			caps_id_list = ?, caps_cat_list = ?, caps_max_limit = ?, caps_def_limit = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, caps.Search, caps.TV, caps.Movie, caps.Music, caps.Audio, caps.Book,
		strings.Join(caps.IDCaps, ","), joinInts(caps.CatCaps), caps.MaxLimit, caps.DefaultLimit, id)
	return err
}

// ClearFailures resets status and retry_after for every indexer row,
// grounded on spec §4.C's clearIndexerFailures operation.
func (s *Store) ClearFailures(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE indexer SET status = ?, retry_after = NULL, status_count = 0, updated_at = CURRENT_TIMESTAMP
	`, StatusOK)
	return err
}

func joinInts(vals []int) string {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(strs, ",")
}
