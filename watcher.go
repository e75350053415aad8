package texted

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

// Watcher follows the content directories and, after a quiet period, rescans
// the Store and drops cached renderings of the links that changed.
type Watcher struct {
	store    *Store
	cache    *PostCache
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	pending  map[string]struct{}
	purgeAll bool

	trigger  chan struct{}
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for the directories of s.
func NewWatcher(s *Store, pc *PostCache, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("texted: create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		store:    s,
		cache:    pc,
		watcher:  fw,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		trigger:  make(chan struct{}, 1),
		stopChan: make(chan struct{}),
	}, nil
}

// Start watches the post and page directories and one level of
// subdirectories, which is where directory posts keep their files.
func (w *Watcher) Start(ctx context.Context) error {
	for _, kind := range []Kind{KindPost, KindPage} {
		dir := w.store.Dir(kind)
		if dir == "" {
			continue
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("texted: watch %s: %w", dir, err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("texted: watch %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				w.addDir(filepath.Join(dir, e.Name()))
			}
		}
	}
	slog.Info("Starting content watcher", "posts", w.store.Dir(KindPost), "pages", w.store.Dir(KindPage))

	w.wg.Add(2)
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

// Close stops the watcher goroutines.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) addDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		slog.Warn("cannot watch directory", "dir", dir, "error", err)
	}
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.isTopLevel(event.Name) {
					w.addDir(event.Name)
				}
			}
			slog.Debug("content change detected", "file", event.Name, "op", event.Op.String())
			w.note(event.Name)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Content watcher error", "error", err)
		}
	}
}

func (w *Watcher) isTopLevel(path string) bool {
	parent := filepath.Clean(filepath.Dir(path))
	return parent == filepath.Clean(w.store.Dir(KindPost)) || parent == filepath.Clean(w.store.Dir(KindPage))
}

// note records the link behind path and schedules a reload.
func (w *Watcher) note(path string) {
	w.mu.Lock()
	if _, link, ok := w.store.LinkFor(path); ok {
		w.pending[link] = struct{}{}
	} else {
		w.purgeAll = true
	}
	w.mu.Unlock()

	select {
	case w.trigger <- struct{}{}:
	default:
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.wg.Done()
	var timer *time.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
		}
	}
	for {
		select {
		case <-ctx.Done():
			stop()
			return
		case <-w.stopChan:
			stop()
			return
		case <-w.trigger:
			stop()
			timer = time.AfterFunc(w.debounce, w.apply)
		}
	}
}

// apply rescans the store and invalidates what changed since the last call.
func (w *Watcher) apply() {
	w.mu.Lock()
	links := w.pending
	purgeAll := w.purgeAll
	w.pending = make(map[string]struct{})
	w.purgeAll = false
	w.mu.Unlock()

	if err := w.store.Rescan(); err != nil {
		slog.Error("Failed to rescan content", "error", err)
		return
	}
	if purgeAll {
		w.cache.Purge()
		slog.Info("Content rescanned, cache purged")
		return
	}
	for link := range links {
		w.cache.Invalidate(link)
	}
	slog.Info("Content rescanned", "changed", len(links))
}
