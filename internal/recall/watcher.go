package recall

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the notes directory and keeps the index fresh. Events are
// debounced so a burst of writes to the same note costs one reindex.
type Watcher struct {
	index         *Index
	watcher       *fsnotify.Watcher
	debounceTime  time.Duration
	mu            sync.Mutex
	pendingEvents map[string]bool
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewWatcher creates a watcher over the index's notes directory.
func NewWatcher(index *Index) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Watcher{
		index:         index,
		watcher:       watcher,
		debounceTime:  500 * time.Millisecond,
		pendingEvents: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start begins watching the notes directory and its subdirectories.
func (w *Watcher) Start() error {
	err := filepath.WalkDir(w.index.NotesDir(), func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != w.index.NotesDir() {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Printf("⚠️  Failed to watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk notes directory: %w", err)
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop stops the watcher and waits for its goroutines.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("⚠️  Notes watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	relPath, err := filepath.Rel(w.index.NotesDir(), event.Name)
	if err != nil {
		return
	}

	if strings.HasPrefix(filepath.Base(relPath), ".") {
		return
	}

	// New directory: watch it so notes created inside are seen.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				log.Printf("⚠️  Failed to watch new directory %s: %v", event.Name, err)
			}
			return
		}
	}

	// Extension survives deletion, so this also filters Remove events.
	if !IsNote(relPath) {
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.pendingEvents[relPath] = true
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			w.processPendingEvents()
		}
	}
}

func (w *Watcher) processPendingEvents() {
	w.mu.Lock()
	if len(w.pendingEvents) == 0 {
		w.mu.Unlock()
		return
	}

	paths := make([]string, 0, len(w.pendingEvents))
	for path := range w.pendingEvents {
		paths = append(paths, path)
	}
	w.pendingEvents = make(map[string]bool)
	w.mu.Unlock()

	for _, relPath := range paths {
		if _, err := os.Stat(filepath.Join(w.index.NotesDir(), relPath)); err != nil {
			if err := w.index.Remove(relPath); err != nil {
				log.Printf("⚠️  Failed to remove note %s from index: %v", relPath, err)
			}
			continue
		}
		if err := w.index.IndexFile(relPath); err != nil {
			log.Printf("⚠️  Failed to reindex note %s: %v", relPath, err)
		}
	}

	log.Printf("📝 Notes watcher updated %d notes", len(paths))
}
