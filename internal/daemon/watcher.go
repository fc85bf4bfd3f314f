package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/doccbuild/internal/logfields"
	"git.home.luguber.info/inful/doccbuild/internal/snippet"
)

// Watcher monitors snippet roots for source changes. Directories created
// while watching are picked up so new snippet folders trigger rebuilds too.
type Watcher struct {
	watcher *fsnotify.Watcher
	exts    map[string]struct{}
	changes chan string
}

// NewWatcher watches every directory under the given roots. Roots that do
// not exist yet are skipped with a warning, matching discovery behavior.
func NewWatcher(roots, extensions []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	w := &Watcher{
		watcher: fsw,
		exts:    snippet.ExtensionSet(extensions),
		changes: make(chan string, 64),
	}

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			slog.Warn("Snippet root does not exist, not watching", logfields.Path(root))
			continue
		}
		if err := w.addRecursive(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")) {
			return fs.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Changes delivers the paths of changed snippet sources.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Run pumps file system events until the context is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Snippet watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			base := filepath.Base(event.Name)
			if !strings.HasPrefix(base, ".") && !strings.HasPrefix(base, "_") {
				if err := w.addRecursive(event.Name); err != nil {
					slog.Warn("Failed to watch new directory",
						logfields.Path(event.Name), logfields.Error(err))
				}
			}
			return
		}
	}

	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if _, ok := w.exts[ext]; !ok {
		return
	}

	select {
	case w.changes <- event.Name:
	default:
		// A rebuild is already pending; dropping the event loses nothing.
	}
}

// Close shuts down the underlying file system watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
