// Package journal persists what the client last synced: one row per file
// with the content hash the server acknowledged, plus the commit reference
// the tree was synced against. The next round diffs the workspace against
// this to know what moved locally while the client was away.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/inkpress/inkpress/internal/db"
	"github.com/inkpress/inkpress/internal/manifest"
)

const schema = `
CREATE TABLE IF NOT EXISTS synced_files (
	path         TEXT PRIMARY KEY,
	content_hash TEXT NOT NULL,
	size         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const lastCommitKey = "last_known_commit"

// Journal is the client's durable record of the last completed sync round.
type Journal struct {
	db *sqlx.DB
	mu sync.RWMutex
}

// Open creates or opens the journal database at dbPath.
func Open(dbPath string) (*Journal, error) {
	database, err := db.NewSqliteDB(db.WithPath(dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal at %s: %w", dbPath, err)
	}

	if _, err := database.Exec(schema); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return &Journal{db: database}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// LastKnownCommit returns the commit the workspace was last synced against,
// or "" when no round has completed yet.
func (j *Journal) LastKnownCommit() (string, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var value string
	err := j.db.Get(&value, "SELECT value FROM sync_state WHERE key = ?", lastCommitKey)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read last known commit: %w", err)
	}
	return value, nil
}

// Get returns the last synced entry for a path, or nil when the path has
// never been synced.
func (j *Journal) Get(path string) (*manifest.FileEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var entry manifest.FileEntry
	err := j.db.Get(&entry, "SELECT path, content_hash, size FROM synced_files WHERE path = ?", path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query path %s: %w", path, err)
	}
	return &entry, nil
}

// Manifest returns the full last-synced state.
func (j *Journal) Manifest() (manifest.Manifest, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var entries []*manifest.FileEntry
	if err := j.db.Select(&entries, "SELECT path, content_hash, size FROM synced_files"); err != nil {
		return nil, fmt.Errorf("failed to load journal state: %w", err)
	}

	m := make(manifest.Manifest, len(entries))
	for _, e := range entries {
		m[e.Path] = e
	}
	return m, nil
}

// Count returns the number of files the journal knows about.
func (j *Journal) Count() (int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var count int
	if err := j.db.Get(&count, "SELECT COUNT(*) FROM synced_files"); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Checkpoint atomically replaces the journal with the state of a completed
// round. A half-applied round never survives a crash: either the old
// checkpoint is intact or the new one is.
func (j *Journal) Checkpoint(commitHash string, m manifest.Manifest) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	tx, err := j.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM synced_files"); err != nil {
		return fmt.Errorf("failed to clear journal: %w", err)
	}

	for _, entry := range m {
		_, err := tx.Exec(
			"INSERT INTO synced_files (path, content_hash, size) VALUES (?, ?, ?)",
			entry.Path, entry.ContentHash, entry.Size,
		)
		if err != nil {
			return fmt.Errorf("failed to record %s: %w", entry.Path, err)
		}
	}

	_, err = tx.Exec(
		"INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)",
		lastCommitKey, commitHash,
	)
	if err != nil {
		return fmt.Errorf("failed to record last known commit: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}
	return nil
}

// Delete removes one path from the journal.
func (j *Journal) Delete(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.db.Exec("DELETE FROM synced_files WHERE path = ?", path); err != nil {
		return fmt.Errorf("failed to delete path %s: %w", path, err)
	}
	return nil
}
