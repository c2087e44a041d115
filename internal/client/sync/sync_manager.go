package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkpress/inkpress/internal/client/workspace"
	"github.com/inkpress/inkpress/internal/inksdk"
)

const (
	// quiet period after the last filesystem event before a round starts
	watchDebounce = 500 * time.Millisecond

	// periodic pull so server-side edits land even when nothing changes here
	resyncInterval = 30 * time.Second
)

// Manager owns the sync machinery for one workspace: the engine, the ignore
// rules, and the watcher driving rounds in watch mode.
type Manager struct {
	ws      *workspace.Workspace
	engine  *Engine
	watcher *FileWatcher
	ignore  *IgnoreList
}

func NewManager(ws *workspace.Workspace, sdk *inksdk.InkSDK) (*Manager, error) {
	ignore, err := LoadIgnoreList(ws.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	engine, err := NewEngine(ws, sdk, ignore)
	if err != nil {
		return nil, err
	}

	watcher := NewFileWatcher(ws.Root)
	watcher.FilterPaths(func(absPath string) bool {
		relPath, err := ws.RelPath(absPath)
		if err != nil {
			return true
		}
		return ignore.ShouldIgnore(relPath)
	})
	engine.OnSelfWrite(watcher.IgnoreOnce)

	return &Manager{
		ws:      ws,
		engine:  engine,
		watcher: watcher,
		ignore:  ignore,
	}, nil
}

// SyncNow runs a single round.
func (m *Manager) SyncNow(ctx context.Context) (*RoundSummary, error) {
	return m.engine.Sync(ctx)
}

// Status fetches the server's plan without syncing.
func (m *Manager) Status(ctx context.Context) (*inksdk.SyncStatusResponse, error) {
	return m.engine.Status(ctx)
}

// LocalChanges diffs the workspace against the last completed round.
func (m *Manager) LocalChanges() (*LocalChanges, error) {
	return m.engine.LocalChanges()
}

func (m *Manager) Close() error {
	return m.engine.Close()
}

// Watch blocks, running a round after every quiet period of workspace
// activity and on a periodic timer to pick up server-side edits. Returns
// when ctx ends.
func (m *Manager) Watch(ctx context.Context) error {
	slog.Info("watch start", "dir", m.ws.Root)

	// converge once before watching
	m.syncQuietly(ctx)

	if err := m.watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	defer m.watcher.Stop()

	// a timer, not a ticker: a round can outlast the interval and ticks
	// must not queue behind it
	resync := time.NewTimer(resyncInterval)
	defer resync.Stop()

	var debounce <-chan time.Time
	events := m.watcher.Events()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			slog.Debug("watch: change", "path", ev.Path(), "event", ev.Event())
			debounce = time.After(watchDebounce)

		case <-debounce:
			debounce = nil
			m.syncQuietly(ctx)

		case <-resync.C:
			m.syncQuietly(ctx)
			resync.Reset(resyncInterval)
		}
	}
}

// syncQuietly runs a round and logs instead of failing; watch mode outlives
// transient server trouble.
func (m *Manager) syncQuietly(ctx context.Context) {
	_, err := m.engine.Sync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrSyncInProgress):
		// the running round will pick the changes up, or the next tick will
	case errors.Is(err, context.Canceled):
	default:
		slog.Error("sync round failed", "error", err)
	}
}
