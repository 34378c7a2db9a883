// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the config file for external edits and invokes a reload
// callback. Edits made through the admin API also land here, which is fine:
// reloading an already-applied config is a no-op for the caller.
//
// Start should only be called once; run it in a goroutine.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	callback func()
}

// NewWatcher creates a watcher for the config file at path. The callback
// runs on the watcher goroutine, so it must be quick or dispatch elsewhere.
func NewWatcher(path string, callback func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{path: path, watcher: fw, callback: callback}, nil
}

// Start blocks until the context is cancelled, firing the callback on every
// write or rename of the config file. Watching the parent directory instead
// of the file itself survives atomic replace-by-rename edits.
func (w *Watcher) Start(ctx context.Context) {
	defer w.watcher.Close()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		slog.Warn("failed to watch config directory", "dir", dir, "error", err)
		return
	}
	slog.Debug("watching config file", "path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)

		case <-ctx.Done():
			slog.Debug("config watcher stopping")
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	slog.Info("config file changed, triggering reload", "path", event.Name)
	if w.callback != nil {
		w.callback()
	}
}
