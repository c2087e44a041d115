// Package manifest implements content-addressed manifests of a content tree
// and the three-way sync planning over them.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

var (
	ErrEmptyPath    = errors.New("path is empty")
	ErrInvalidPath  = errors.New("invalid path")
	ErrReservedPath = errors.New("reserved path")
	ErrInvalidHash  = errors.New("invalid content hash")
)

// FileEntry describes one file by content. ContentHash is the lowercase hex
// SHA-256 of the file's exact bytes; equal hashes mean byte-identical
// content. Size is informational only and never used for equality.
type FileEntry struct {
	Path        string `json:"path" db:"path"`
	ContentHash string `json:"content_hash" db:"content_hash"`
	Size        int64  `json:"size" db:"size"`
}

// Manifest maps a slash-separated relative path to its entry.
type Manifest map[string]*FileEntry

// Paths returns all manifest keys in sorted order.
func (m Manifest) Paths() []string {
	paths := make([]string, 0, len(m))
	for p := range m {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// HashOf returns the content hash for path, or "" when absent.
func (m Manifest) HashOf(path string) string {
	if e, ok := m[path]; ok {
		return e.ContentHash
	}
	return ""
}

// Validate checks every entry: key matches entry path, path is acceptable,
// hash is well-formed.
func (m Manifest) Validate() error {
	for path, entry := range m {
		if entry == nil {
			return fmt.Errorf("%w: nil entry for %q", ErrInvalidPath, path)
		}
		if entry.Path != "" && entry.Path != path {
			return fmt.Errorf("%w: key %q does not match entry path %q", ErrInvalidPath, path, entry.Path)
		}
		if err := ValidatePath(path); err != nil {
			return err
		}
		if err := ValidateHash(entry.ContentHash); err != nil {
			return fmt.Errorf("%w for %q", err, path)
		}
	}
	return nil
}

// ValidatePath checks that relPath is usable as a manifest key: a clean,
// slash-separated relative path that cannot escape the content root. Segments
// starting with "." are reserved for store and workspace metadata.
func ValidatePath(relPath string) error {
	if relPath == "" {
		return ErrEmptyPath
	}
	if strings.HasPrefix(relPath, "/") {
		return fmt.Errorf("%w: absolute path %q", ErrInvalidPath, relPath)
	}
	if strings.Contains(relPath, `\`) {
		return fmt.Errorf("%w: backslash in %q", ErrInvalidPath, relPath)
	}
	for _, seg := range strings.Split(relPath, "/") {
		switch {
		case seg == "":
			return fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, relPath)
		case seg == "." || seg == "..":
			return fmt.Errorf("%w: %q escapes the content root", ErrInvalidPath, relPath)
		case strings.HasPrefix(seg, "."):
			return fmt.Errorf("%w: hidden segment in %q", ErrReservedPath, relPath)
		}
	}
	return nil
}

// ValidateHash checks for a lowercase hex SHA-256 digest.
func ValidateHash(hash string) error {
	if len(hash) != sha256.Size*2 {
		return fmt.Errorf("%w: want %d hex chars, got %d", ErrInvalidHash, sha256.Size*2, len(hash))
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: non-hex character", ErrInvalidHash)
		}
	}
	return nil
}

// HashBytes returns the content hash of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashReader streams r through SHA-256.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile hashes the file's exact bytes.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	hash, err := HashReader(f)
	if err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	return hash, nil
}
