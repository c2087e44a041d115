package sync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

const ignoreOnceWindow = 2 * time.Second

// FileWatcher surfaces workspace changes as filtered filesystem events.
// Paths the engine itself writes are suppressed for a short window so a
// round's own downloads do not trigger the next round.
type FileWatcher struct {
	watchDir string
	raw      chan notify.EventInfo
	events   chan notify.EventInfo
	done     chan struct{}
	filter   func(path string) bool

	ignoreMu sync.Mutex
	ignore   map[string]time.Time

	wg sync.WaitGroup
}

func NewFileWatcher(watchDir string) *FileWatcher {
	return &FileWatcher{
		watchDir: watchDir,
		raw:      make(chan notify.EventInfo, 64),
		events:   make(chan notify.EventInfo),
		done:     make(chan struct{}),
		ignore:   make(map[string]time.Time),
	}
}

// FilterPaths installs a drop predicate, called with the absolute path of
// every raw event. Must be set before Start.
func (fw *FileWatcher) FilterPaths(fn func(path string) bool) {
	fw.filter = fn
}

// IgnoreOnce suppresses events for an absolute path until the window passes.
func (fw *FileWatcher) IgnoreOnce(path string) {
	fw.ignoreMu.Lock()
	defer fw.ignoreMu.Unlock()
	fw.ignore[path] = time.Now().Add(ignoreOnceWindow)
}

func (fw *FileWatcher) shouldDrop(path string) bool {
	if fw.filter != nil && fw.filter(path) {
		return true
	}

	fw.ignoreMu.Lock()
	defer fw.ignoreMu.Unlock()
	expiry, ok := fw.ignore[path]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(fw.ignore, path)
		return false
	}
	return true
}

func (fw *FileWatcher) Start(ctx context.Context) error {
	slog.Info("file watcher start", "dir", fw.watchDir)

	recursivePath := fw.watchDir + "/..."
	events := notify.Write | notify.Create | notify.Remove | notify.Rename
	if err := notify.Watch(recursivePath, fw.raw, events); err != nil {
		return err
	}

	fw.wg.Add(1)
	go func() {
		defer fw.wg.Done()
		defer close(fw.events)
		for {
			select {
			case <-ctx.Done():
				return
			case <-fw.done:
				return
			case ev := <-fw.raw:
				if fw.shouldDrop(ev.Path()) {
					continue
				}
				select {
				case fw.events <- ev:
				case <-ctx.Done():
					return
				case <-fw.done:
					return
				}
			}
		}
	}()

	return nil
}

func (fw *FileWatcher) Stop() {
	notify.Stop(fw.raw)
	close(fw.done)
	fw.wg.Wait()
	slog.Info("file watcher stop")
}

// Events returns the filtered event stream. The channel closes on Stop or
// when the Start context ends.
func (fw *FileWatcher) Events() <-chan notify.EventInfo {
	return fw.events
}
