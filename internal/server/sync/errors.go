package sync

import "errors"

var (
	// ErrSyncInProgress is returned when a commit request arrives while
	// another commit holds the content root.
	ErrSyncInProgress = errors.New("sync: another sync is in progress")

	// ErrManifestNotFound is returned when no manifest is recorded for a
	// commit reference.
	ErrManifestNotFound = errors.New("sync: manifest not found")
)
