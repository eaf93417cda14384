// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/traylinx/truthscore/internal/util"
)

// watchDebounce collapses the burst of events produced by one atomic rename.
const watchDebounce = 100 * time.Millisecond

// File stores all keys as string members of a single JSON object on disk.
// Writes go through util.SecureWrite, so readers never observe a torn file.
type File struct {
	sb   *util.StateBox
	path string

	mu          sync.Mutex
	lastWritten []byte
}

// NewFile opens (without creating) the document at path.
// A relative path is resolved against the State Box root.
func NewFile(sb *util.StateBox, path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("file backend path cannot be empty")
	}
	if sb != nil {
		path = sb.ResolvePath(path)
		if err := sb.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("file backend: %w", err)
		}
	}
	return &File{sb: sb, path: filepath.Clean(path)}, nil
}

// Path returns the resolved document path.
func (f *File) Path() string { return f.path }

func (f *File) readDoc() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, f.path, err)
	}
	return data, nil
}

// Get implements Backend.
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	doc, err := f.readDoc()
	if err != nil {
		return "", false, err
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		return "", false, nil
	}
	if !gjson.ValidBytes(doc) {
		return "", false, fmt.Errorf("%w: %s is not valid JSON", ErrCorrupt, f.path)
	}
	res := gjson.GetBytes(doc, gjson.Escape(key))
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

// Set implements Backend.
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.readDoc()
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		doc = []byte("{}")
	} else if !gjson.ValidBytes(doc) {
		log.Warnf("file backend: replacing corrupt document %s", f.path)
		doc = []byte("{}")
	}

	updated, err := sjson.SetBytes(doc, gjson.Escape(key), value)
	if err != nil {
		return fmt.Errorf("file backend: set %s: %w", key, err)
	}
	if err := util.SecureWrite(f.sb, f.path, updated, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	f.lastWritten = updated
	return nil
}

// Close implements Backend.
func (f *File) Close() error { return nil }

// Watch reports modifications of the document made by other processes.
// Writes made through this File are filtered out.
func (f *File) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("file backend watch: %w", err)
	}
	defer watcher.Close()

	// Atomic renames replace the inode, so watch the directory and filter by name.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("file backend watch %s: %w", dir, err)
	}
	log.Debugf("watching %s for external ledger changes", f.path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				pending = time.After(watchDebounce)
			}
		case <-pending:
			pending = nil
			if f.isOwnWrite() {
				continue
			}
			log.Infof("ledger document %s changed externally", f.path)
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				onChange()
				continue
			}
			log.Errorf("file backend watcher error: %v", err)
		}
	}
}

func (f *File) isOwnWrite() bool {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return bytes.Equal(data, f.lastWritten)
}
