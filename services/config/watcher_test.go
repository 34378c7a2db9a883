// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, path string) (fired chan struct{}, stop func()) {
	t.Helper()
	fired = make(chan struct{}, 8)
	w, err := NewWatcher(path, func() { fired <- struct{}{} })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()
	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)

	return fired, func() {
		cancel()
		<-done
	}
}

func waitFired(t *testing.T, fired chan struct{}) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected reload callback, got none")
	}
}

func TestWatcher_FiresOnWrite(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	fired, stop := startWatcher(t, path)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(minimalYAML+"\n# edit\n"), 0o644))
	waitFired(t, fired)
}

func TestWatcher_FiresOnAtomicReplace(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	fired, stop := startWatcher(t, path)
	defer stop()

	// Replace-by-rename, the way PatchValue and most editors save.
	tmp := path + ".tmp"
	require.NoError(t, os.WriteFile(tmp, []byte(minimalYAML), 0o644))
	require.NoError(t, os.Rename(tmp, path))
	waitFired(t, fired)
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	fired, stop := startWatcher(t, path)
	defer stop()

	sibling := filepath.Join(filepath.Dir(path), "unrelated.txt")
	require.NoError(t, os.WriteFile(sibling, []byte("hallo"), 0o644))

	select {
	case <-fired:
		t.Fatal("sibling file edits must not trigger a reload")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	path := writeConfig(t, minimalYAML)
	_, stop := startWatcher(t, path)

	finished := make(chan struct{})
	go func() {
		stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}

func TestHandleEvent_Filtering(t *testing.T) {
	calls := 0
	w := &Watcher{path: "/etc/tippgeber/tippgeber.yaml", callback: func() { calls++ }}

	w.handleEvent(fsnotify.Event{Name: "/etc/tippgeber/tippgeber.yaml", Op: fsnotify.Write})
	assert.Equal(t, 1, calls)

	// Wrong file, and non-write ops on the right file, are ignored.
	w.handleEvent(fsnotify.Event{Name: "/etc/tippgeber/other.yaml", Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: "/etc/tippgeber/tippgeber.yaml", Op: fsnotify.Chmod})
	assert.Equal(t, 1, calls)
}
