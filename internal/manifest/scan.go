package manifest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
)

// Scan walks the tree rooted at root and builds its manifest. Directories and
// files whose name starts with "." are skipped so version-control and
// workspace metadata never pollute comparisons. Every regular file is hashed
// over its exact bytes on every scan; size and mtime are recorded but carry
// no weight in comparisons.
func Scan(root string) (Manifest, error) {
	m := make(Manifest)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk error: %w", walkErr)
		}

		if strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("scan: stat failed, skipping", "path", path, "error", err)
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("rel path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		hash, err := HashFile(path)
		if err != nil {
			slog.Warn("scan: hash failed, skipping", "path", path, "error", err)
			return nil
		}

		m[relPath] = &FileEntry{
			Path:        relPath,
			ContentHash: hash,
			Size:        info.Size(),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", root, err)
	}

	return m, nil
}
