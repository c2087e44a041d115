package sync

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jmoiron/sqlx"

	"github.com/inkpress/inkpress/internal/manifest"
)

const manifestSchemaSQL = `
CREATE TABLE IF NOT EXISTS manifest_commits (
	commit_hash TEXT PRIMARY KEY,
	file_count  INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS manifest_files (
	commit_hash  TEXT NOT NULL,
	path         TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	size         INTEGER NOT NULL,
	PRIMARY KEY (commit_hash, path)
);
`

// recent manifests stay in memory; the table is the durable copy
const manifestCacheSize = 64

// ManifestStore persists the manifest reachable at each commit, so a later
// sync round can use it as its merge base. Backed by SQLite with a small
// in-memory cache in front.
type ManifestStore struct {
	db    *sqlx.DB
	cache *expirable.LRU[string, manifest.Manifest]
}

// NewManifestStore initializes the schema on an existing database connection.
func NewManifestStore(db *sqlx.DB) (*ManifestStore, error) {
	if _, err := db.Exec(manifestSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize manifest store: %w", err)
	}

	return &ManifestStore{
		db:    db,
		cache: expirable.NewLRU[string, manifest.Manifest](manifestCacheSize, nil, 0), // 0 = no expiry
	}, nil
}

// Get returns the manifest recorded for commitHash, or ErrManifestNotFound.
func (ms *ManifestStore) Get(commitHash string) (manifest.Manifest, error) {
	if m, ok := ms.cache.Get(commitHash); ok {
		return m, nil
	}

	var count int
	err := ms.db.Get(&count, "SELECT file_count FROM manifest_commits WHERE commit_hash = ?", commitHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, commitHash)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest %s: %w", commitHash, err)
	}

	var entries []*manifest.FileEntry
	err = ms.db.Select(&entries,
		"SELECT path, content_hash, size FROM manifest_files WHERE commit_hash = ?", commitHash)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest files %s: %w", commitHash, err)
	}

	m := make(manifest.Manifest, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}

	ms.cache.Add(commitHash, m)
	return m, nil
}

// Put records the manifest for commitHash, replacing any previous record.
func (ms *ManifestStore) Put(commitHash string, m manifest.Manifest) error {
	tx, err := ms.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO manifest_commits (commit_hash, file_count, created_at) VALUES (?, ?, ?)`,
		commitHash, len(m), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record manifest commit: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM manifest_files WHERE commit_hash = ?", commitHash); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear manifest files: %w", err)
	}

	stmt, err := tx.Preparex(
		`INSERT INTO manifest_files (commit_hash, path, content_hash, size) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}

	for _, path := range m.Paths() {
		e := m[path]
		if _, err := stmt.Exec(commitHash, path, e.ContentHash, e.Size); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert manifest file %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	ms.cache.Add(commitHash, m)
	return nil
}

// Has reports whether a manifest is recorded for commitHash.
func (ms *ManifestStore) Has(commitHash string) bool {
	if ms.cache.Contains(commitHash) {
		return true
	}

	var count int
	if err := ms.db.Get(&count, "SELECT COUNT(*) FROM manifest_commits WHERE commit_hash = ?", commitHash); err != nil {
		return false
	}
	return count > 0
}
