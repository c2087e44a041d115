// Package history wraps an embedded git repository as the append-only
// versioned store of the server's content tree. Callers only ever see opaque
// commit references; the backing choice never leaks.
package history

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/inkpress/inkpress/internal/utils"
)

// Config for opening a content history store.
type Config struct {
	// Root is the content tree directory. Store state lives in a hidden
	// subdirectory beneath it.
	Root string

	// AuthorName and AuthorEmail sign every commit. Both have defaults.
	AuthorName  string
	AuthorEmail string
}

// Store is a content history store rooted at one directory.
type Store struct {
	root        string
	repo        *git.Repository
	worktree    *git.Worktree
	authorName  string
	authorEmail string
}

// Open opens the store at cfg.Root, creating it when absent. Creation records
// an initial snapshot of whatever the root already contains, so Head is valid
// from the first call on. Idempotent.
func Open(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, errors.New("history: root is required")
	}
	if err := utils.EnsureDir(cfg.Root); err != nil {
		return nil, fmt.Errorf("ensure root: %w", err)
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = "inkpress"
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = "inkpress@localhost"
	}

	worktreeFS := osfs.New(cfg.Root)
	dotGitFS, err := worktreeFS.Chroot(git.GitDirName)
	if err != nil {
		return nil, fmt.Errorf("chroot %s: %w", git.GitDirName, err)
	}
	storage := filesystem.NewStorage(dotGitFS, cache.NewObjectLRUDefault())

	fresh := false
	repo, err := git.Open(storage, worktreeFS)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.Init(storage, worktreeFS)
		fresh = true
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	s := &Store{
		root:        cfg.Root,
		repo:        repo,
		worktree:    worktree,
		authorName:  cfg.AuthorName,
		authorEmail: cfg.AuthorEmail,
	}

	if fresh {
		ref, err := s.commit("initialize content store", true)
		if err != nil {
			return nil, fmt.Errorf("initial snapshot: %w", err)
		}
		slog.Info("content store initialized", "root", cfg.Root, "commit", ref)
	}

	return s, nil
}

// Root returns the content tree directory.
func (s *Store) Root() string {
	return s.root
}

// Head returns the current head commit reference.
func (s *Store) Head() (string, error) {
	ref, err := s.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", ErrNoCommits
		}
		return "", fmt.Errorf("resolve head: %w", err)
	}
	return ref.Hash().String(), nil
}

// Exists reports whether ref resolves to a commit in this store.
func (s *Store) Exists(ref string) bool {
	if !plumbing.IsHash(ref) {
		return false
	}
	_, err := s.repo.CommitObject(plumbing.NewHash(ref))
	return err == nil
}

// ReadFileAt returns the exact bytes of path in the tree at ref.
// Returns ErrFileNotFound when the path was absent there.
func (s *Store) ReadFileAt(ref, path string) ([]byte, error) {
	if !plumbing.IsHash(ref) {
		return nil, fmt.Errorf("%w: %q", ErrCommitNotFound, ref)
	}
	commit, err := s.repo.CommitObject(plumbing.NewHash(ref))
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrCommitNotFound, ref)
		}
		return nil, fmt.Errorf("resolve commit %q: %w", ref, err)
	}

	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %q@%q", ErrFileNotFound, path, ref)
		}
		return nil, fmt.Errorf("lookup %q at %q: %w", path, ref, err)
	}

	reader, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("open %q at %q: %w", path, ref, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read %q at %q: %w", path, ref, err)
	}
	return data, nil
}

// CommitAll stages every working-tree change (additions, modifications,
// deletions) and snapshots them in a single commit. Returns ok=false when the
// tree was clean and no commit was created.
func (s *Store) CommitAll(message string) (string, bool, error) {
	status, err := s.worktree.Status()
	if err != nil {
		return "", false, fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		return "", false, nil
	}

	ref, err := s.commit(message, false)
	if err != nil {
		return "", false, err
	}
	return ref, true, nil
}

// ResetWorktree discards every uncommitted change, including files never
// committed, restoring the tree at head. Recovery path for failed rounds.
func (s *Store) ResetWorktree() error {
	head, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("resolve head: %w", err)
	}

	status, err := s.worktree.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	for path, st := range status {
		if st.Worktree == git.Untracked {
			if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path))); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove untracked %q: %w", path, err)
			}
		}
	}

	if err := s.worktree.Reset(&git.ResetOptions{
		Mode:   git.HardReset,
		Commit: head.Hash(),
	}); err != nil {
		return fmt.Errorf("hard reset: %w", err)
	}
	return nil
}

func (s *Store) commit(message string, allowEmpty bool) (string, error) {
	if err := s.worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("stage changes: %w", err)
	}

	sig := &object.Signature{
		Name:  s.authorName,
		Email: s.authorEmail,
		When:  time.Now(),
	}
	hash, err := s.worktree.Commit(message, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		AllowEmptyCommits: allowEmpty,
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}
