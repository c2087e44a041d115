package sync

import (
	"time"

	"github.com/inkpress/inkpress/internal/inksdk"
)

// RoundSummary reports what one sync round moved in each direction.
type RoundSummary struct {
	Commit        string
	Uploaded      int
	UploadBytes   int64
	Downloaded    int
	DownloadBytes int64
	DeletesPushed int // removed on the server because this client deleted them
	DeletesPulled int // removed locally because the server deleted them
	Conflicts     []inksdk.SyncConflict
	Took          time.Duration
}

// InSync reports whether the round found nothing to move.
func (r *RoundSummary) InSync() bool {
	return r.Uploaded == 0 && r.Downloaded == 0 &&
		r.DeletesPushed == 0 && r.DeletesPulled == 0
}

// ShortCommit is the abbreviated commit hash for display.
func (r *RoundSummary) ShortCommit() string {
	return shortRef(r.Commit)
}

// LocalChanges is the workspace diff against the last completed round,
// computed without a server round-trip.
type LocalChanges struct {
	Added    []string
	Modified []string
	Deleted  []string
}

func (c *LocalChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

func shortRef(ref string) string {
	if len(ref) > 7 {
		return ref[:7]
	}
	return ref
}
