// Package store keeps fetched assets in a local SQLite database so repeat
// inspections of the same item do not go back to the asset server.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/ernie/skin-inspect/internal/assets"
)

// Store is an assets.Fetcher that answers from the database and falls back
// to an inner fetcher, writing successful fetches back. Misses are never
// stored, so an asset published later is still found.
type Store struct {
	db    *sql.DB
	inner assets.Fetcher
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// Open opens (creating if needed) the database at path. Use ":memory:" for
// a throwaway store.
func Open(path string, inner assets.Fetcher) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open asset store: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serializes writes.
	db.SetMaxOpenConns(1)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	s := &Store{db: db, inner: inner, enc: enc, dec: dec}
	if err := s.migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate asset store: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.dec.Close()
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS assets (
			path TEXT PRIMARY KEY,
			content_type TEXT NOT NULL,
			body BLOB NOT NULL,
			size INTEGER NOT NULL,
			digest TEXT NOT NULL,
			fetched_at DATETIME NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Fetch returns the stored asset for p, or fetches and stores it.
func (s *Store) Fetch(ctx context.Context, p string) (*assets.Asset, error) {
	p = assets.NormalizePath(p)
	a, err := s.Get(ctx, p)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, assets.ErrNotFound) {
		log.Printf("Asset store read %s: %v", p, err)
	}

	a, err = s.inner.Fetch(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, a); err != nil {
		log.Printf("Asset store write %s: %v", p, err)
	}
	return a, nil
}

// Get reads a stored asset. A path that was never stored is ErrNotFound.
func (s *Store) Get(ctx context.Context, p string) (*assets.Asset, error) {
	var contentType, digest string
	var compressed []byte
	var size int
	err := s.db.QueryRowContext(ctx,
		`SELECT content_type, body, size, digest FROM assets WHERE path = ?`,
		assets.NormalizePath(p)).Scan(&contentType, &compressed, &size, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s not stored", assets.ErrNotFound, p)
	}
	if err != nil {
		return nil, err
	}

	body, err := s.dec.DecodeAll(compressed, make([]byte, 0, size))
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", p, err)
	}
	if assets.Digest(body) != digest {
		return nil, fmt.Errorf("%s: stored digest mismatch", p)
	}
	return &assets.Asset{Path: assets.NormalizePath(p), ContentType: contentType, Body: body}, nil
}

// Put stores an asset, replacing any earlier copy.
func (s *Store) Put(ctx context.Context, a *assets.Asset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (path, content_type, body, size, digest, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_type = excluded.content_type,
			body = excluded.body,
			size = excluded.size,
			digest = excluded.digest,
			fetched_at = excluded.fetched_at
	`, assets.NormalizePath(a.Path), a.ContentType, s.enc.EncodeAll(a.Body, nil),
		len(a.Body), assets.Digest(a.Body), time.Now().UTC())
	return err
}

// Count returns the number of stored assets.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n)
	return n, err
}
