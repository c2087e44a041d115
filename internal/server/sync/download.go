package sync

import (
	"fmt"
	"os"

	"github.com/inkpress/inkpress/internal/manifest"
)

// Download returns the committed content of one path plus its content hash.
// Takes the read lock, so it never observes a commit round's half-written
// tree. The hash doubles as the ETag on the wire.
func (s *Service) Download(relPath string) ([]byte, string, error) {
	if err := manifest.ValidatePath(relPath); err != nil {
		return nil, "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.treePath(relPath))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %q: %w", relPath, err)
	}
	return data, manifest.HashBytes(data), nil
}
