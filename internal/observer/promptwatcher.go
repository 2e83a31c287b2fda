// Package observer provides runtime observation helpers: a filesystem
// watcher that picks up prompt template overrides as they are edited, and a
// process-wide metrics collector for workflow outcomes.
package observer

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// PromptChangeCallback is called with the batch of template files that
// changed since the last flush
type PromptChangeCallback func(changedFiles []string)

// PromptWatcher monitors prompt override directories so edited templates
// take effect without a restart. Rapid saves are debounced into one callback.
type PromptWatcher struct {
	watcher  *fsnotify.Watcher
	callback PromptChangeCallback
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer

	done chan struct{}
}

// NewPromptWatcher creates a watcher for the given override directories.
// Directories that do not exist are skipped silently.
func NewPromptWatcher(dirs []string, callback PromptChangeCallback) (*PromptWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	pw := &PromptWatcher{
		watcher:  watcher,
		callback: callback,
		debounce: 500 * time.Millisecond,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	return pw, nil
}

// Start begins watching in a background goroutine
func (pw *PromptWatcher) Start() {
	go func() {
		for {
			select {
			case <-pw.done:
				return
			case event, ok := <-pw.watcher.Events:
				if !ok {
					return
				}
				pw.handleEvent(event)
			case err, ok := <-pw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("prompt watcher: %v", err)
			}
		}
	}()
}

// Stop stops watching
func (pw *PromptWatcher) Stop() {
	close(pw.done)
	pw.watcher.Close()
}

// SetDebounce sets the debounce window for batching file changes
func (pw *PromptWatcher) SetDebounce(d time.Duration) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.debounce = d
}

func (pw *PromptWatcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".md") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()

	pw.pending[event.Name] = struct{}{}

	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.debounce, pw.flush)
}

func (pw *PromptWatcher) flush() {
	pw.mu.Lock()
	pending := pw.pending
	pw.pending = make(map[string]struct{})
	pw.mu.Unlock()

	if pw.callback == nil || len(pending) == 0 {
		return
	}

	files := make([]string, 0, len(pending))
	for f := range pending {
		files = append(files, f)
	}
	pw.callback(files)
}
