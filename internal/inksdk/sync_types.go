package inksdk

import (
	"github.com/inkpress/inkpress/internal/manifest"
)

type SyncStatusRequest struct {
	Manifest        manifest.Manifest `json:"manifest"`
	LastKnownCommit string            `json:"last_known_commit"`
}

// SyncStatusResponse is the plan for one round. ToUpload includes
// both-modified paths; the server merges those after the upload.
// ToDeleteLocal echoes the paths this client deleted (send them back as
// DeletedFiles on commit); ToDeleteRemote names paths deleted on the server
// (drop the local copy).
type SyncStatusResponse struct {
	ServerCommit   string   `json:"server_commit"`
	ToUpload       []string `json:"to_upload"`
	ToDownload     []string `json:"to_download"`
	ToDeleteLocal  []string `json:"to_delete_local"`
	ToDeleteRemote []string `json:"to_delete_remote"`
}

// InSync reports whether the round requires no transfers at all.
func (r *SyncStatusResponse) InSync() bool {
	return len(r.ToUpload) == 0 && len(r.ToDownload) == 0 &&
		len(r.ToDeleteLocal) == 0 && len(r.ToDeleteRemote) == 0
}

type SyncUpload struct {
	Path string
	Data []byte
}

type SyncCommitParams struct {
	LastKnownCommit string
	Message         string
	DeletedFiles    []string
	Uploads         []SyncUpload
}

type commitMeta struct {
	DeletedFiles    []string `json:"deleted_files"`
	LastKnownCommit string   `json:"last_known_commit"`
	Message         string   `json:"message"`
}

type SyncConflict struct {
	Path           string   `json:"path"`
	Status         string   `json:"status"`
	FieldConflicts []string `json:"field_conflicts,omitempty"`
	BodyConflicted bool     `json:"body_conflicted,omitempty"`
	Reason         string   `json:"reason"`
}

type SyncCommitResponse struct {
	CommitHash string         `json:"commit_hash"`
	ToDownload []string       `json:"to_download"`
	Conflicts  []SyncConflict `json:"conflicts"`
}
