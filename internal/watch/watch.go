// Package watch rebuilds a source tree when its documents change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgallion1/vimhelp/internal/parser"
	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a source directory tree. Bursts of changes to
// supported documents are coalesced into one callback.
type Watcher struct {
	root     string
	skip     string
	debounce time.Duration
	log      *slog.Logger
	fsw      *fsnotify.Watcher
}

// New watches every directory below root except hidden ones and skipDir,
// which is usually the output directory.
func New(root, skipDir string, debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	skip := ""
	if skipDir != "" {
		if skip, err = filepath.Abs(skipDir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", skipDir, err)
		}
	}
	w := &Watcher{root: root, skip: skip, debounce: debounce, log: log, fsw: fsw}
	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree recursively adds all directories to the watcher.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignoredDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) ignoredDir(path string) bool {
	if path != w.root && strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	if w.skip == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	return err == nil && abs == w.skip && path != w.root
}

// relevant reports whether ev may change the build output. New
// directories are added to the watch set.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return false
	}
	if ev.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if w.ignoredDir(ev.Name) {
				return false
			}
			w.log.Debug("new directory", "path", ev.Name)
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("error watching new directory", "path", ev.Name, "error", err)
			}
			return true
		}
	}
	return parser.IsSupportedExtension(ev.Name)
}

// Run calls fn after each debounced burst of changes until ctx is done.
// fn runs on the watcher goroutine, so changes made while it runs are
// picked up afterwards.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	defer w.fsw.Close()

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			fn(ctx)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("watcher error", "error", err)
		}
	}
}
