// Package filesystem provides file system implementations of the core ports.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lapidist/tokenforge/internal/core/usecases"
)

// Watcher monitors a set of paths for token document changes, debouncing
// rapid successive events and rejecting any watched path that resolves,
// through a symlink, outside the directories it was asked to watch
// (spec §9 "Symlink safety").
type Watcher struct{}

// NewWatcher creates a file system Watcher.
func NewWatcher() *Watcher {
	return &Watcher{}
}

type subscription struct {
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func (s *subscription) Close() error {
	s.cancel()
	err := s.watcher.Close()
	s.wg.Wait()
	return err
}

// Watch implements usecases.Watcher.
func (w *Watcher) Watch(ctx context.Context, paths []string, options usecases.WatchOptions, onEvent func(usecases.WatchEvent), onError func(error)) (usecases.WatchSubscription, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	roots := make([]string, 0, len(paths))
	for _, p := range paths {
		root, err := resolveWatchRoot(p)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		roots = append(roots, root)
		if err := addRecursive(fsw, root, root, options.Ignored); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("watching %q: %w", p, err)
		}
	}

	watchCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{watcher: fsw, cancel: cancel}

	sub.wg.Add(1)
	go func() {
		defer sub.wg.Done()
		processEvents(watchCtx, fsw, roots, options, onEvent, onError)
	}()

	return sub, nil
}

// resolveWatchRoot validates path exists, is a directory, and resolves any
// symlinks so later events can be checked for escape.
func resolveWatchRoot(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving watch path %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving watch path %q: %w", path, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("watch path %q: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("watch path %q is not a directory", path)
	}
	return real, nil
}

func addRecursive(fsw *fsnotify.Watcher, dir, root string, ignored []string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if shouldIgnoreDir(path, root, ignored) {
			return filepath.SkipDir
		}
		_ = fsw.Add(path)
		return nil
	})
}

func shouldIgnoreDir(path, root string, ignored []string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	parts := strings.Split(rel, "/")
	for _, part := range parts {
		if part == ".git" || part == "node_modules" {
			return true
		}
	}
	for _, pattern := range ignored {
		if matched, _ := filepath.Match(pattern, rel); matched {
			return true
		}
	}
	return false
}

func withinAnyRoot(roots []string, candidate string) bool {
	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		real = candidate
	}
	for _, root := range roots {
		rel, err := filepath.Rel(root, real)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)) {
			return true
		}
	}
	return false
}

func processEvents(ctx context.Context, fsw *fsnotify.Watcher, roots []string, options usecases.WatchOptions, onEvent func(usecases.WatchEvent), onError func(error)) {
	debounceTimer := time.NewTimer(time.Hour)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}

	pending := make(map[string]usecases.WatchEvent)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsw.Add(event.Name)
				}
			}

			if !withinAnyRoot(roots, event.Name) {
				continue
			}

			pending[event.Name] = usecases.WatchEvent{
				Type: mapOperation(event.Op),
				Path: event.Name,
			}
			debounceTimer.Reset(100 * time.Millisecond)

		case <-debounceTimer.C:
			for _, evt := range pending {
				onEvent(evt)
			}
			pending = make(map[string]usecases.WatchEvent)

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

func mapOperation(op fsnotify.Op) usecases.WatchEventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return usecases.WatchEventCreated
	case op&fsnotify.Remove == fsnotify.Remove, op&fsnotify.Rename == fsnotify.Rename:
		return usecases.WatchEventDeleted
	default:
		return usecases.WatchEventUpdated
	}
}
