// Package workspace lays out and guards the local blog directory. Content
// lives at the root; everything the client needs to run (config, journal,
// lock, logs) sits under the .ink metadata dir, which sync never touches.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/inkpress/inkpress/internal/utils"
)

const (
	MetadataDir = ".ink"

	logsDir     = "logs"
	configFile  = "config.json"
	journalFile = "journal.db"
	lockFile    = "ink.lock"
)

var ErrWorkspaceLocked = errors.New("workspace locked by another process")

type Workspace struct {
	Root        string
	MetadataDir string
	LogsDir     string
	ConfigPath  string
	JournalPath string

	flock *flock.Flock
}

func NewWorkspace(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	metaDir := filepath.Join(root, MetadataDir)

	return &Workspace{
		Root:        root,
		MetadataDir: metaDir,
		LogsDir:     filepath.Join(metaDir, logsDir),
		ConfigPath:  filepath.Join(metaDir, configFile),
		JournalPath: filepath.Join(metaDir, journalFile),
		flock:       flock.New(filepath.Join(metaDir, lockFile)),
	}, nil
}

// Lock claims the workspace for this process. A second instance syncing the
// same tree would race the journal, so it is turned away instead.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.MetadataDir); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.MetadataDir, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}

	return nil
}

func (w *Workspace) Unlock() error {
	// never remove a lock file some other process holds
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock workspace: %w", err)
	}

	return os.Remove(w.flock.Path())
}

// Setup creates the workspace directories and takes the lock.
func (w *Workspace) Setup() error {
	if err := w.Lock(); err != nil {
		return err
	}

	for _, dir := range []string{w.Root, w.LogsDir} {
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Initialized reports whether a config file already exists for this tree.
func (w *Workspace) Initialized() bool {
	return utils.FileExists(w.ConfigPath)
}

// AbsPath maps a sync-relative path to its location on disk.
func (w *Workspace) AbsPath(relPath string) string {
	return filepath.Join(w.Root, filepath.FromSlash(relPath))
}

// RelPath maps an absolute path inside the workspace back to its
// sync-relative slash form.
func (w *Workspace) RelPath(absPath string) (string, error) {
	relPath, err := filepath.Rel(w.Root, absPath)
	if err != nil {
		return "", err
	}
	return NormPath(relPath), nil
}

// NormPath cleans a path into the slash-separated relative form used on the
// wire.
func NormPath(path string) string {
	path = filepath.Clean(path)
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	return path
}
