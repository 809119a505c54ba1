package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of filesystem events into one rescan.
const watchDebounce = 250 * time.Millisecond

// Watcher hot-reloads plugins when a watched directory changes. A new
// or rewritten manifest loads (or reloads) its plugin; a removed
// plugin directory unloads it.
type Watcher struct {
	mgr *Manager
	log *slog.Logger
	fsw *fsnotify.Watcher

	dirs   []string
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu    sync.Mutex
	owned map[string]string // plugin dir -> plugin name
}

// NewWatcher creates a watcher over the given plugin directories.
func NewWatcher(mgr *Manager, log *slog.Logger, dirs []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating plugin watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching plugin dir %s: %w", dir, err)
		}
	}
	return &Watcher{
		mgr:    mgr,
		log:    log,
		fsw:    fsw,
		dirs:   dirs,
		stopCh: make(chan struct{}),
		owned:  make(map[string]string),
	}, nil
}

// Start begins processing events in the background.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop ends event processing and releases the filesystem watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.fsw.Close()
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	debounce := time.NewTimer(0)
	<-debounce.C

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			w.rescan()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("plugin watcher error", "error", err)
		}
	}
}

// rescan reconciles loaded plugins against what is on disk.
func (w *Watcher) rescan() {
	present := make(map[string]bool)
	for _, dir := range w.dirs {
		subs, err := Discover(dir)
		if err != nil {
			w.log.Warn("rescanning plugin dir", "dir", dir, "error", err)
			continue
		}
		for _, sub := range subs {
			present[sub] = true
			w.maybeLoad(sub)
		}
	}

	w.mu.Lock()
	var gone []string
	for dir := range w.owned {
		if !present[dir] {
			gone = append(gone, dir)
		}
	}
	w.mu.Unlock()

	for _, dir := range gone {
		w.unloadDir(dir)
	}
}

func (w *Watcher) maybeLoad(dir string) {
	w.mu.Lock()
	_, have := w.owned[dir]
	w.mu.Unlock()
	if have {
		return
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err != nil {
		return
	}

	in, err := w.mgr.Load(dir)
	if err != nil {
		w.log.Warn("hot load failed", "dir", dir, "error", err)
		return
	}
	w.mu.Lock()
	w.owned[dir] = in.Manifest.Name
	w.mu.Unlock()
}

func (w *Watcher) unloadDir(dir string) {
	w.mu.Lock()
	name, ok := w.owned[dir]
	if ok {
		delete(w.owned, dir)
	}
	w.mu.Unlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := w.mgr.Unload(ctx, name); err != nil {
		w.log.Warn("hot unload failed", "plugin", name, "error", err)
	}
}
