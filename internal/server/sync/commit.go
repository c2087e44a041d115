package sync

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/post"
	"github.com/inkpress/inkpress/internal/server/merge"
	"github.com/inkpress/inkpress/internal/utils"
)

// Upload is one file the client sends in a commit request.
type Upload struct {
	Path string
	Data []byte
}

// CommitArgs is one commit request: every uploaded file, every client-side
// deletion, and the commit reference the client last synced against.
type CommitArgs struct {
	LastKnownCommit string
	Message         string
	Deleted         []string
	Uploads         []Upload
}

func (a *CommitArgs) validate() error {
	seen := make(map[string]struct{}, len(a.Uploads))
	for i := range a.Uploads {
		p := a.Uploads[i].Path
		if err := manifest.ValidatePath(p); err != nil {
			return fmt.Errorf("upload %q: %w", p, err)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate upload %q", manifest.ErrInvalidPath, p)
		}
		seen[p] = struct{}{}
	}
	for _, p := range a.Deleted {
		if err := manifest.ValidatePath(p); err != nil {
			return fmt.Errorf("delete %q: %w", p, err)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %q both uploaded and deleted", manifest.ErrInvalidPath, p)
		}
	}
	return nil
}

// CommitResult reports one finished round: the commit now at head, the paths
// the client must download to match it, and every conflict resolved along
// the way.
type CommitResult struct {
	Commit    string
	Downloads []string
	Conflicts []*merge.Result
}

// Commit runs one full sync round: validate, apply deletions, write uploads,
// merge both-modified paths, snapshot the tree as a single commit, persist
// its manifest, report what the client must download. The working tree is
// held exclusively for the whole round; a second concurrent commit is
// rejected with ErrSyncInProgress. Any write failure rolls the tree back to
// the previous head and fails the whole request.
func (s *Service) Commit(args *CommitArgs) (*CommitResult, error) {
	if err := args.validate(); err != nil {
		return nil, err
	}

	if !s.mu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer s.mu.Unlock()

	preHead, err := s.history.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	serverMan, err := manifest.Scan(s.history.Root())
	if err != nil {
		return nil, fmt.Errorf("scan content root: %w", err)
	}

	base := s.baseManifest(args.LastKnownCommit)

	fail := func(step string, err error) (*CommitResult, error) {
		if resetErr := s.history.ResetWorktree(); resetErr != nil {
			slog.Error("sync: worktree rollback failed", "error", resetErr)
		}
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	var conflicts []*merge.Result

	// Deletions first. A deletion only applies when the server copy still
	// matches base; a server-side edit since then wins and the deletion is
	// dropped.
	var removed []string
	for _, p := range args.Deleted {
		sEntry, inServer := serverMan[p]
		if !inServer {
			continue
		}
		if base.HashOf(p) == sEntry.ContentHash {
			if err := os.Remove(s.treePath(p)); err != nil {
				return fail("apply deletion", err)
			}
			removed = append(removed, p)
			continue
		}
		conflicts = append(conflicts, &merge.Result{
			Path:   p,
			Status: merge.StatusConflicted,
			Reason: merge.ReasonDeleteModify,
		})
	}

	// Uploads: plain writes where only the client changed the path, merges
	// where both sides did.
	written := make([]string, 0, len(args.Uploads))
	uploadedHash := make(map[string]string, len(args.Uploads))
	for _, u := range args.Uploads {
		h := manifest.HashBytes(u.Data)
		uploadedHash[u.Path] = h

		sEntry, inServer := serverMan[u.Path]
		baseHash := base.HashOf(u.Path)

		switch {
		case inServer && sEntry.ContentHash == h:
			// server already holds these exact bytes

		case !inServer && baseHash == h:
			// server deleted it and the client copy is unchanged from
			// base, so the deletion stands

		case !inServer && baseHash == "":
			// brand new on the client
			if err := s.writeDocument(u.Path, u.Data, true); err != nil {
				return fail("write upload", err)
			}
			written = append(written, u.Path)

		case !inServer:
			// server deleted, client modified: the client edit survives
			res, rerr := s.merger.Resolve(merge.Input{
				Path:    u.Path,
				BaseRef: args.LastKnownCommit,
				Client:  u.Data,
			})
			if rerr != nil {
				return fail("resolve delete-modify", rerr)
			}
			conflicts = append(conflicts, res)
			if err := s.writeDocument(u.Path, res.Resolved, false); err != nil {
				return fail("write upload", err)
			}
			written = append(written, u.Path)

		case sEntry.ContentHash == baseHash:
			// only the client changed it
			if err := s.writeDocument(u.Path, u.Data, false); err != nil {
				return fail("write upload", err)
			}
			written = append(written, u.Path)

		default:
			// modified on both sides
			serverBytes, rerr := s.history.ReadFileAt(preHead, u.Path)
			if rerr != nil {
				return fail("read server version", rerr)
			}
			res, rerr := s.merger.Resolve(merge.Input{
				Path:    u.Path,
				BaseRef: args.LastKnownCommit,
				Server:  serverBytes,
				Client:  u.Data,
			})
			if rerr != nil {
				return fail("merge", rerr)
			}
			if res.Conflicted() {
				conflicts = append(conflicts, res)
			}
			// the merger's output is final, normalization included
			if err := s.writeFile(u.Path, res.Resolved); err != nil {
				return fail("write merged file", err)
			}
			written = append(written, u.Path)
		}
	}

	msg := args.Message
	if msg == "" {
		msg = fmt.Sprintf("sync: %d uploaded, %d deleted", len(args.Uploads), len(args.Deleted))
	}

	newRef, committed, err := s.history.CommitAll(msg)
	if err != nil {
		return fail("commit", err)
	}
	if !committed {
		// nothing actually changed; the previous head still describes the
		// tree and the round degenerates to a no-op
		newRef = preHead
	}

	finalMan, err := manifest.Scan(s.history.Root())
	if err != nil {
		return nil, fmt.Errorf("scan committed tree: %w", err)
	}
	if err := s.manifests.Put(newRef, finalMan); err != nil {
		return nil, fmt.Errorf("persist manifest: %w", err)
	}

	// Everything whose committed content differs from what the client is
	// known to hold: uploads the server rewrote, paths only the server
	// changed, and every path when no base is known.
	downloads := make([]string, 0)
	for p, fe := range finalMan {
		if uh, ok := uploadedHash[p]; ok {
			if fe.ContentHash != uh {
				downloads = append(downloads, p)
			}
			continue
		}
		if base.HashOf(p) == fe.ContentHash {
			continue
		}
		downloads = append(downloads, p)
	}
	sort.Strings(downloads)

	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Path < conflicts[j].Path })

	if committed && s.publisher != nil {
		// still inside the commit lock, so updates reach the publisher in
		// commit order
		if perr := s.publisher.Publish(newRef, written, removed); perr != nil {
			slog.Error("sync: publish pipeline failed", "commit", newRef, "error", perr)
		}
	}

	slog.Info("sync: commit complete",
		"commit", newRef,
		"written", len(written),
		"deleted", len(removed),
		"conflicts", len(conflicts),
		"downloads", len(downloads))

	return &CommitResult{
		Commit:    newRef,
		Downloads: downloads,
		Conflicts: conflicts,
	}, nil
}

func (s *Service) treePath(relPath string) string {
	return filepath.Join(s.history.Root(), filepath.FromSlash(relPath))
}

// writeFile writes raw bytes into the working tree.
func (s *Service) writeFile(relPath string, data []byte) error {
	return utils.WriteFileAtomic(s.treePath(relPath), data, 0o644)
}

// writeDocument writes an upload, normalizing markdown front matter on the
// way in: new files get their missing fields filled, edited ones get the
// update stamp. Unparseable or non-markdown content is written as-is.
func (s *Service) writeDocument(relPath string, data []byte, isNew bool) error {
	if !post.IsMarkdown(relPath) {
		return s.writeFile(relPath, data)
	}

	doc, err := post.Parse(data)
	if err != nil {
		slog.Debug("sync: unparseable front matter, storing raw", "path", relPath, "error", err)
		return s.writeFile(relPath, data)
	}

	warnings := post.Normalize(doc, relPath, isNew, s.defaultAuthor, s.now())
	for _, w := range warnings {
		slog.Debug("sync: normalized", "path", relPath, "note", w)
	}

	out, err := doc.Serialize()
	if err != nil {
		slog.Warn("sync: serialization failed, storing raw", "path", relPath, "error", err)
		return s.writeFile(relPath, data)
	}
	return s.writeFile(relPath, out)
}

