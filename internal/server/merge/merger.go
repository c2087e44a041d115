// Package merge resolves a single path carrying divergent server and client
// edits into one document: a structured merge over front-matter fields plus a
// line-based three-way merge over the body. Conflicted regions keep the
// server side; nothing is ever lost silently, every concession is reported.
package merge

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkpress/inkpress/internal/post"
	"github.com/inkpress/inkpress/internal/server/history"
)

// ContentHistory is the slice of the history store the merger needs.
type ContentHistory interface {
	Exists(ref string) bool
	ReadFileAt(ref, path string) ([]byte, error)
	MergeFile(base, ours, theirs []byte) ([]byte, bool)
}

// Input describes one both-modified path. Server is the content at the
// round's pre-commit head, Client the uploaded bytes. A nil side means that
// side deleted the path (the delete/modify case).
type Input struct {
	Path    string
	BaseRef string
	Server  []byte
	Client  []byte
}

// Merger resolves both-modified paths against a content history store.
type Merger struct {
	store         ContentHistory
	defaultAuthor string
	now           func() time.Time
}

func New(store ContentHistory, defaultAuthor string) *Merger {
	return &Merger{
		store:         store,
		defaultAuthor: defaultAuthor,
		now:           time.Now,
	}
}

// Resolve merges one path. Content-level trouble (unparseable documents,
// conflicts) degrades per file and is reported in the Result; only store I/O
// failures return an error.
func (m *Merger) Resolve(in Input) (*Result, error) {
	if in.Server == nil || in.Client == nil {
		return m.resolveDeleteModify(in), nil
	}

	// No usable merge base: first-time sync or stale client state.
	// Keep the server version wholesale.
	if in.BaseRef == "" || !m.store.Exists(in.BaseRef) {
		slog.Debug("merge: no merge base", "path", in.Path, "base", in.BaseRef)
		return &Result{
			Path:     in.Path,
			Status:   StatusConflicted,
			Reason:   ReasonNoMergeBase,
			Resolved: in.Server,
		}, nil
	}

	baseBytes, err := m.store.ReadFileAt(in.BaseRef, in.Path)
	if err != nil {
		if !errors.Is(err, history.ErrFileNotFound) {
			return nil, fmt.Errorf("read base of %q: %w", in.Path, err)
		}
		// Path did not exist at the base commit: created independently on
		// both sides. Merge against an empty document.
		baseBytes = nil
	}

	// Only markdown documents get the structural merge; for anything else
	// with divergent edits the server copy stands.
	if !post.IsMarkdown(in.Path) {
		return &Result{
			Path:     in.Path,
			Status:   StatusConflicted,
			Reason:   ReasonNotMergeable,
			Resolved: in.Server,
		}, nil
	}

	return m.resolveDocument(in.Path, baseBytes, in.Server, in.Client), nil
}

// resolveDeleteModify keeps the modified side when the other side deleted the
// path. No field or body algorithm runs.
func (m *Merger) resolveDeleteModify(in Input) *Result {
	kept := in.Server
	if kept == nil {
		kept = in.Client
	}
	return &Result{
		Path:     in.Path,
		Status:   StatusConflicted,
		Reason:   ReasonDeleteModify,
		Resolved: kept,
	}
}

// resolveDocument runs the hybrid merge: front-matter fields structurally,
// body by three-way line merge, then normalization over the reassembled
// document.
func (m *Merger) resolveDocument(relPath string, base, server, client []byte) *Result {
	baseDoc, errB := post.Parse(base)
	serverDoc, errS := post.Parse(server)
	clientDoc, errC := post.Parse(client)
	if errB != nil || errS != nil || errC != nil {
		// A malformed front-matter block on any side defeats the structured
		// merge; fall back to a whole-file line merge.
		slog.Debug("merge: front matter unparseable, raw merge",
			"path", relPath, "base_err", errB, "server_err", errS, "client_err", errC)
		merged, conflicted := m.store.MergeFile(base, server, client)
		status := StatusMerged
		reason := ""
		if conflicted {
			status = StatusConflicted
			reason = ReasonBody
		}
		return &Result{
			Path:           relPath,
			Status:         status,
			BodyConflicted: conflicted,
			Reason:         reason,
			Resolved:       merged,
		}
	}

	// The edit stamp carries no reconcilable meaning; normalization restamps
	// it after the merge.
	baseDoc.Updated = nil
	serverDoc.Updated = nil
	clientDoc.Updated = nil

	merged := serverDoc.Clone()
	fieldConflicts := mergeScalars(merged, baseDoc, serverDoc, clientDoc)
	merged.Labels = mergeLabels(baseDoc.Labels, serverDoc.Labels, clientDoc.Labels)

	mergedBody, bodyConflicted := m.store.MergeFile(
		[]byte(baseDoc.Body), []byte(serverDoc.Body), []byte(clientDoc.Body))
	merged.Body = string(mergedBody)

	post.Normalize(merged, relPath, false, m.defaultAuthor, m.now())

	resolved, err := merged.Serialize()
	if err != nil {
		slog.Warn("merge: serialization failed, keeping server version", "path", relPath, "error", err)
		return &Result{
			Path:     relPath,
			Status:   StatusConflicted,
			Reason:   ReasonNotMergeable,
			Resolved: server,
		}
	}

	status := StatusMerged
	if len(fieldConflicts) > 0 || bodyConflicted {
		status = StatusConflicted
	}
	return &Result{
		Path:           relPath,
		Status:         status,
		FieldConflicts: fieldConflicts,
		BodyConflicted: bodyConflicted,
		Reason:         conflictReason(fieldConflicts, bodyConflicted),
		Resolved:       resolved,
	}
}
