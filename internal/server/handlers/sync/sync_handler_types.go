package sync

import (
	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/server/merge"
)

// StatusRequest carries the client's scanned manifest and the commit it last
// synced against. An empty commit means no common ancestor.
type StatusRequest struct {
	Manifest        manifest.Manifest `json:"manifest"`
	LastKnownCommit string            `json:"last_known_commit"`
}

// StatusResponse is the sync plan from the server's seat. ToUpload includes
// both-modified paths: the client sends bytes for those too, and the server
// merges. ToDeleteLocal lists paths the client deleted (echo them back as
// deleted_files on commit); ToDeleteRemote lists paths the server deleted
// (remove the local copy).
type StatusResponse struct {
	ServerCommit   string   `json:"server_commit"`
	ToUpload       []string `json:"to_upload"`
	ToDownload     []string `json:"to_download"`
	ToDeleteLocal  []string `json:"to_delete_local"`
	ToDeleteRemote []string `json:"to_delete_remote"`
}

// CommitMeta is the JSON "meta" part of a multipart commit request. Uploaded
// files ride alongside as "files" parts, one per path, filename = relative
// path.
type CommitMeta struct {
	DeletedFiles    []string `json:"deleted_files"`
	LastKnownCommit string   `json:"last_known_commit"`
	Message         string   `json:"message"`
}

// ConflictInfo reports one path that needed the author's eye after a commit
// round.
type ConflictInfo struct {
	Path           string   `json:"path"`
	Status         string   `json:"status"`
	FieldConflicts []string `json:"field_conflicts,omitempty"`
	BodyConflicted bool     `json:"body_conflicted,omitempty"`
	Reason         string   `json:"reason"`
}

// CommitResponse reports a finished round: the commit now at head, what the
// client must download to match it, and every conflict resolved on the way.
type CommitResponse struct {
	CommitHash string         `json:"commit_hash"`
	ToDownload []string       `json:"to_download"`
	Conflicts  []ConflictInfo `json:"conflicts"`
}

func toConflictInfos(results []*merge.Result) []ConflictInfo {
	infos := make([]ConflictInfo, 0, len(results))
	for _, r := range results {
		infos = append(infos, ConflictInfo{
			Path:           r.Path,
			Status:         string(r.Status),
			FieldConflicts: r.FieldConflicts,
			BodyConflicted: r.BodyConflicted,
			Reason:         r.Reason,
		})
	}
	return infos
}
