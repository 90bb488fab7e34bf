package config

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/thinkier/dfr-io-hat/internal/models"
)

// Watcher reloads a JSONStore's file when it changes on disk and hands
// the result to a callback.
type Watcher struct {
	store    *JSONStore
	onChange func(models.State)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWatcher starts watching the store's directory. The callback runs on
// the watcher goroutine.
func NewWatcher(store *JSONStore, onChange func(models.State)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}
	// Watch the directory: atomic renames replace the file's inode.
	if err := fw.Add(filepath.Dir(store.Path())); err != nil {
		fw.Close()
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(store.Path()), err)
	}
	w := &Watcher{
		store:    store,
		onChange: onChange,
		watcher:  fw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	path := w.store.Path()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != path || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			st, err := w.store.Load()
			if err != nil {
				slog.Warn("config: failed to reload state", "path", path, "err", err)
				continue
			}
			if w.store.ownWrite(*st) {
				continue
			}
			slog.Debug("config: state file changed", "path", path)
			w.onChange(*st)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config: watcher error", "err", err)
		}
	}
}
