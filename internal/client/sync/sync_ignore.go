package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-workspace ignore file, gitignore syntax.
const IgnoreFileName = ".inkignore"

var defaultIgnoreLines = []string{
	".*",
	".ink/",
	".git/",
	"*.tmp",
	"*.swp",
	"*.swo",
	"~*",
	".DS_Store",
	"Thumbs.db",
}

// IgnoreList filters paths out of the sync set. Hidden paths and workspace
// metadata never sync; the rest comes from the workspace's .inkignore.
type IgnoreList struct {
	ignore *gitignore.GitIgnore
}

// LoadIgnoreList compiles the default rules plus the workspace's .inkignore,
// when one exists.
func LoadIgnoreList(rootDir string) (*IgnoreList, error) {
	lines := make([]string, len(defaultIgnoreLines))
	copy(lines, defaultIgnoreLines)

	data, err := os.ReadFile(filepath.Join(rootDir, IgnoreFileName))
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", IgnoreFileName, err)
	}
	if err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}

	return &IgnoreList{
		ignore: gitignore.CompileIgnoreLines(lines...),
	}, nil
}

// ShouldIgnore reports whether a sync-relative path stays local.
func (l *IgnoreList) ShouldIgnore(relPath string) bool {
	return l.ignore.MatchesPath(relPath)
}
