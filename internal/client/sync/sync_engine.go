package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/inkpress/inkpress/internal/client/journal"
	"github.com/inkpress/inkpress/internal/client/workspace"
	"github.com/inkpress/inkpress/internal/inksdk"
	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/utils"
)

const maxParallelDownloads = 4

var ErrSyncInProgress = errors.New("sync already in progress")

// Engine runs sync rounds against the server: scan the workspace, fetch the
// plan, push local changes as one commit, then pull whatever the server now
// holds. One round at a time; the journal records each completed round.
type Engine struct {
	ws      *workspace.Workspace
	sdk     *inksdk.InkSDK
	journal *journal.Journal
	ignore  *IgnoreList

	// invoked before the engine writes or removes a workspace file, so the
	// watcher can tell the engine's own writes from the author's
	selfWrite func(absPath string)

	muSync sync.Mutex
}

func NewEngine(ws *workspace.Workspace, sdk *inksdk.InkSDK, ignore *IgnoreList) (*Engine, error) {
	jrnl, err := journal.Open(ws.JournalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sync journal: %w", err)
	}

	return &Engine{
		ws:      ws,
		sdk:     sdk,
		journal: jrnl,
		ignore:  ignore,
	}, nil
}

func (e *Engine) Close() error {
	return e.journal.Close()
}

// OnSelfWrite registers the hook called with the absolute path of every file
// the engine is about to write or remove.
func (e *Engine) OnSelfWrite(fn func(absPath string)) {
	e.selfWrite = fn
}

// Sync runs one guarded round. A round already in flight is reported as
// ErrSyncInProgress rather than queued.
func (e *Engine) Sync(ctx context.Context) (*RoundSummary, error) {
	if !e.muSync.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer e.muSync.Unlock()

	return e.runRound(ctx)
}

// Status fetches the server's plan for the current workspace state without
// moving anything.
func (e *Engine) Status(ctx context.Context) (*inksdk.SyncStatusResponse, error) {
	local, err := e.scanLocal()
	if err != nil {
		return nil, err
	}

	lastCommit, err := e.journal.LastKnownCommit()
	if err != nil {
		return nil, err
	}

	return e.sdk.Sync.Status(ctx, &inksdk.SyncStatusRequest{
		Manifest:        local,
		LastKnownCommit: lastCommit,
	})
}

// LocalChanges diffs the workspace against the journal. Purely local; shows
// what the next round would push.
func (e *Engine) LocalChanges() (*LocalChanges, error) {
	local, err := e.scanLocal()
	if err != nil {
		return nil, err
	}

	last, err := e.journal.Manifest()
	if err != nil {
		return nil, err
	}

	changes := &LocalChanges{}
	for path, entry := range local {
		synced, ok := last[path]
		switch {
		case !ok:
			changes.Added = append(changes.Added, path)
		case synced.ContentHash != entry.ContentHash:
			changes.Modified = append(changes.Modified, path)
		}
	}
	for path := range last {
		if _, ok := local[path]; !ok {
			changes.Deleted = append(changes.Deleted, path)
		}
	}

	sort.Strings(changes.Added)
	sort.Strings(changes.Modified)
	sort.Strings(changes.Deleted)
	return changes, nil
}

func (e *Engine) runRound(ctx context.Context) (*RoundSummary, error) {
	tstart := time.Now()

	local, err := e.scanLocal()
	if err != nil {
		return nil, err
	}

	lastCommit, err := e.journal.LastKnownCommit()
	if err != nil {
		return nil, err
	}

	plan, err := e.sdk.Sync.Status(ctx, &inksdk.SyncStatusRequest{
		Manifest:        local,
		LastKnownCommit: lastCommit,
	})
	if err != nil {
		return nil, fmt.Errorf("sync status: %w", err)
	}

	summary := &RoundSummary{Commit: plan.ServerCommit}

	if plan.InSync() {
		if err := e.journal.Checkpoint(plan.ServerCommit, local); err != nil {
			return nil, fmt.Errorf("journal checkpoint: %w", err)
		}
		summary.Took = time.Since(tstart)
		return summary, nil
	}

	downloads := plan.ToDownload

	// push phase: uploads and deletions travel as one commit request, so the
	// server applies them as a single revision
	if len(plan.ToUpload) > 0 || len(plan.ToDeleteLocal) > 0 {
		uploads, err := e.readUploads(plan.ToUpload)
		if err != nil {
			return nil, err
		}

		res, err := e.sdk.Sync.Commit(ctx, &inksdk.SyncCommitParams{
			LastKnownCommit: lastCommit,
			DeletedFiles:    plan.ToDeleteLocal,
			Uploads:         uploads,
		})
		if err != nil {
			return nil, fmt.Errorf("sync commit: %w", err)
		}

		summary.Commit = res.CommitHash
		summary.Uploaded = len(uploads)
		for _, up := range uploads {
			summary.UploadBytes += int64(len(up.Data))
		}
		summary.DeletesPushed = len(plan.ToDeleteLocal)
		summary.Conflicts = res.Conflicts

		// the commit response supersedes the plan: it reflects merges and
		// rewrites the server made while applying the push
		downloads = res.ToDownload
	}

	// pull phase
	removed, err := e.removeLocal(plan.ToDeleteRemote, local)
	if err != nil {
		return nil, err
	}
	summary.DeletesPulled = removed

	if err := e.downloadAll(ctx, downloads, local, summary); err != nil {
		return nil, err
	}
	summary.Downloaded = len(downloads)

	// the round is complete only now; record it
	if err := e.journal.Checkpoint(summary.Commit, local); err != nil {
		return nil, fmt.Errorf("journal checkpoint: %w", err)
	}

	summary.Took = time.Since(tstart)
	slog.Info("sync: round complete",
		"commit", shortRef(summary.Commit),
		"uploads", summary.Uploaded,
		"up", humanize.Bytes(uint64(summary.UploadBytes)),
		"downloads", summary.Downloaded,
		"down", humanize.Bytes(uint64(summary.DownloadBytes)),
		"conflicts", len(summary.Conflicts),
		"took", summary.Took.Round(time.Millisecond))
	return summary, nil
}

// scanLocal builds the workspace manifest minus ignored paths.
func (e *Engine) scanLocal() (manifest.Manifest, error) {
	m, err := manifest.Scan(e.ws.Root)
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	for path := range m {
		if e.ignore.ShouldIgnore(path) {
			delete(m, path)
		}
	}
	return m, nil
}

func (e *Engine) readUploads(paths []string) ([]inksdk.SyncUpload, error) {
	uploads := make([]inksdk.SyncUpload, 0, len(paths))
	for _, relPath := range paths {
		data, err := os.ReadFile(e.ws.AbsPath(relPath))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// deleted between scan and push; the next round reports it
				slog.Warn("sync: upload vanished, skipping", "path", relPath)
				continue
			}
			return nil, fmt.Errorf("read upload %s: %w", relPath, err)
		}
		uploads = append(uploads, inksdk.SyncUpload{Path: relPath, Data: data})
	}
	return uploads, nil
}

// removeLocal applies server-side deletions to the workspace and prunes
// directories they emptied.
func (e *Engine) removeLocal(paths []string, local manifest.Manifest) (int, error) {
	removed := 0
	for _, relPath := range paths {
		absPath := e.ws.AbsPath(relPath)
		e.markSelfWrite(absPath)

		if err := os.Remove(absPath); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				delete(local, relPath)
				continue
			}
			return removed, fmt.Errorf("remove %s: %w", relPath, err)
		}
		delete(local, relPath)
		removed++
		slog.Debug("sync: removed", "path", relPath)

		for dir := filepath.Dir(absPath); dir != e.ws.Root; dir = filepath.Dir(dir) {
			if os.Remove(dir) != nil {
				break
			}
		}
	}
	return removed, nil
}

func (e *Engine) downloadAll(ctx context.Context, paths []string, local manifest.Manifest, summary *RoundSummary) error {
	if len(paths) == 0 {
		return nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelDownloads)

	for _, relPath := range paths {
		g.Go(func() error {
			data, err := e.sdk.Content.Download(gctx, relPath)
			if err != nil {
				return fmt.Errorf("download %s: %w", relPath, err)
			}

			absPath := e.ws.AbsPath(relPath)
			e.markSelfWrite(absPath)
			if err := utils.WriteFileAtomic(absPath, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", relPath, err)
			}

			mu.Lock()
			local[relPath] = &manifest.FileEntry{
				Path:        relPath,
				ContentHash: manifest.HashBytes(data),
				Size:        int64(len(data)),
			}
			summary.DownloadBytes += int64(len(data))
			mu.Unlock()

			slog.Debug("sync: pulled", "path", relPath, "size", len(data))
			return nil
		})
	}

	return g.Wait()
}

func (e *Engine) markSelfWrite(absPath string) {
	if e.selfWrite != nil {
		e.selfWrite(absPath)
	}
}
