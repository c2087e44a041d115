// Package publish maintains the rendered-post index: after every sync
// commit it re-renders the changed markdown into HTML and updates the posts
// and labels tables the site endpoints read from.
package publish

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/jmoiron/sqlx"

	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/post"
)

var ErrPostNotFound = errors.New("publish: post not found")

const postsSchemaSQL = `
CREATE TABLE IF NOT EXISTS posts (
	path        TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	author      TEXT NOT NULL DEFAULT '',
	date        TEXT NOT NULL DEFAULT '',
	updated     TEXT NOT NULL DEFAULT '',
	html        TEXT NOT NULL,
	commit_hash TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS post_labels (
	path  TEXT NOT NULL,
	label TEXT NOT NULL,
	PRIMARY KEY (path, label)
);

CREATE INDEX IF NOT EXISTS idx_post_labels_label ON post_labels(label);
`

var defaultPostGlobs = []string{"posts/**/*.md"}

// Config locates the content to publish.
type Config struct {
	// Root is the server's content root, shared with the sync engine.
	Root string
	// PostGlobs select which paths are posts. Defaults to posts/**/*.md.
	PostGlobs []string
}

// Service renders and indexes posts. It implements the sync engine's
// publisher hook.
type Service struct {
	db       *sqlx.DB
	renderer *Renderer
	root     string
	globs    []string
}

func NewService(database *sqlx.DB, cfg *Config) (*Service, error) {
	if _, err := database.Exec(postsSchemaSQL); err != nil {
		return nil, fmt.Errorf("failed to initialize post index: %w", err)
	}

	globs := cfg.PostGlobs
	if len(globs) == 0 {
		globs = defaultPostGlobs
	}

	return &Service{
		db:       database,
		renderer: NewRenderer(),
		root:     cfg.Root,
		globs:    globs,
	}, nil
}

// IsPost reports whether relPath falls under the configured post globs.
func (s *Service) IsPost(relPath string) bool {
	for _, g := range s.globs {
		if ok, err := doublestar.Match(g, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// Publish updates the index for one commit's changed and deleted paths.
// Per-post trouble is logged and skipped; one bad post never blocks the
// rest of the batch.
func (s *Service) Publish(commit string, changed, deleted []string) error {
	for _, p := range deleted {
		if !s.IsPost(p) {
			continue
		}
		if err := s.removePost(p); err != nil {
			return err
		}
	}

	for _, p := range changed {
		if !s.IsPost(p) {
			continue
		}
		if err := s.indexPost(p, commit); err != nil {
			slog.Warn("publish: skipping post", "path", p, "error", err)
		}
	}

	slog.Debug("publish: index updated", "commit", commit, "changed", len(changed), "deleted", len(deleted))
	return nil
}

// Reindex rebuilds the whole index from the content root. Used at startup so
// the index never drifts from the tree across restarts.
func (s *Service) Reindex(commit string) error {
	man, err := manifest.Scan(s.root)
	if err != nil {
		return fmt.Errorf("scan content root: %w", err)
	}

	if _, err := s.db.Exec("DELETE FROM posts"); err != nil {
		return fmt.Errorf("failed to clear post index: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM post_labels"); err != nil {
		return fmt.Errorf("failed to clear post labels: %w", err)
	}

	indexed := 0
	for _, p := range man.Paths() {
		if !s.IsPost(p) {
			continue
		}
		if err := s.indexPost(p, commit); err != nil {
			slog.Warn("publish: skipping post", "path", p, "error", err)
			continue
		}
		indexed++
	}

	slog.Info("publish: reindexed", "posts", indexed, "commit", commit)
	return nil
}

// indexPost renders one post and upserts it. Drafts and unreadable documents
// are removed from the index instead; a reader should never see them.
func (s *Service) indexPost(relPath, commit string) error {
	raw, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if errors.Is(err, fs.ErrNotExist) {
		return s.removePost(relPath)
	}
	if err != nil {
		return err
	}

	doc, err := post.Parse(raw)
	if err != nil {
		if rmErr := s.removePost(relPath); rmErr != nil {
			return rmErr
		}
		return fmt.Errorf("parse %s: %w", relPath, err)
	}

	if doc.Draft != nil && *doc.Draft {
		return s.removePost(relPath)
	}

	htmlBody, err := s.renderer.Render([]byte(doc.Body))
	if err != nil {
		return fmt.Errorf("render %s: %w", relPath, err)
	}

	var title, author, date, updated string
	if doc.Title != nil {
		title = *doc.Title
	}
	if doc.Author != nil {
		author = *doc.Author
	}
	if doc.Date != nil {
		date = doc.Date.UTC().Format(time.RFC3339)
	}
	if doc.Updated != nil {
		updated = doc.Updated.UTC().Format(time.RFC3339)
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO posts (path, title, author, date, updated, html, commit_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		relPath, title, author, date, updated, string(htmlBody), commit,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to upsert post %s: %w", relPath, err)
	}

	if _, err := tx.Exec("DELETE FROM post_labels WHERE path = ?", relPath); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear labels for %s: %w", relPath, err)
	}
	for _, label := range doc.Labels {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO post_labels (path, label) VALUES (?, ?)", relPath, label,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert label %s for %s: %w", label, relPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) removePost(relPath string) error {
	if _, err := s.db.Exec("DELETE FROM posts WHERE path = ?", relPath); err != nil {
		return fmt.Errorf("failed to remove post %s: %w", relPath, err)
	}
	if _, err := s.db.Exec("DELETE FROM post_labels WHERE path = ?", relPath); err != nil {
		return fmt.Errorf("failed to remove labels %s: %w", relPath, err)
	}
	return nil
}

// PostInfo is one published post as listed by the site endpoints.
type PostInfo struct {
	Path    string   `db:"path" json:"path"`
	Title   string   `db:"title" json:"title"`
	Author  string   `db:"author" json:"author,omitempty"`
	Date    string   `db:"date" json:"date,omitempty"`
	Updated string   `db:"updated" json:"updated,omitempty"`
	Labels  []string `db:"-" json:"labels,omitempty"`
}

// RenderedPost is a post with its rendered HTML.
type RenderedPost struct {
	PostInfo
	HTML string `db:"html" json:"html"`
}

// List returns published posts, newest first, optionally filtered by label.
func (s *Service) List(label string) ([]*PostInfo, error) {
	var posts []*PostInfo
	var err error
	if label == "" {
		err = s.db.Select(&posts,
			"SELECT path, title, author, date, updated FROM posts ORDER BY date DESC, path ASC")
	} else {
		err = s.db.Select(&posts,
			`SELECT p.path, p.title, p.author, p.date, p.updated
			 FROM posts p JOIN post_labels l ON l.path = p.path
			 WHERE l.label = ?
			 ORDER BY p.date DESC, p.path ASC`, label)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if err := s.attachLabels(posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get returns one published post with its HTML, or ErrPostNotFound.
func (s *Service) Get(relPath string) (*RenderedPost, error) {
	var rp RenderedPost
	err := s.db.Get(&rp,
		"SELECT path, title, author, date, updated, html FROM posts WHERE path = ?", relPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, relPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %s: %w", relPath, err)
	}

	var labels []string
	err = s.db.Select(&labels,
		"SELECT label FROM post_labels WHERE path = ? ORDER BY label", relPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels %s: %w", relPath, err)
	}
	rp.Labels = labels
	return &rp, nil
}

func (s *Service) attachLabels(posts []*PostInfo) error {
	if len(posts) == 0 {
		return nil
	}

	var rows []struct {
		Path  string `db:"path"`
		Label string `db:"label"`
	}
	if err := s.db.Select(&rows, "SELECT path, label FROM post_labels ORDER BY label"); err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}

	byPath := make(map[string][]string, len(posts))
	for _, r := range rows {
		byPath[r.Path] = append(byPath[r.Path], r.Label)
	}
	for _, p := range posts {
		p.Labels = byPath[p.Path]
	}
	return nil
}
