// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package util provides filesystem helpers shared by the truthscore server and CLI.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// StateBox manages the canonical state directory for truthscore.
// All mutable data (the file-backed ledger, the archive database, rotated
// logs) resolves relative to its root.
type StateBox struct {
	rootPath string
	readOnly bool
	mu       sync.RWMutex
}

// NewStateBox creates a StateBox from TRUTHSCORE_STATE_DIR and TRUTHSCORE_READONLY.
// The root defaults to ~/.truthscore; TRUTHSCORE_READONLY=1 disables writes.
func NewStateBox() (*StateBox, error) {
	stateDir := os.Getenv("TRUTHSCORE_STATE_DIR")
	if stateDir == "" {
		stateDir = "~/.truthscore"
	}
	return NewStateBoxAt(stateDir, os.Getenv("TRUTHSCORE_READONLY") == "1")
}

// NewStateBoxAt creates a StateBox rooted at dir.
func NewStateBoxAt(dir string, readOnly bool) (*StateBox, error) {
	resolvedPath, err := ExpandPath(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state directory: %w", err)
	}
	return &StateBox{
		rootPath: resolvedPath,
		readOnly: readOnly,
	}, nil
}

// RootPath returns the resolved State Box root directory.
func (sb *StateBox) RootPath() string {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.rootPath
}

// IsReadOnly returns whether the State Box is in read-only mode.
func (sb *StateBox) IsReadOnly() bool {
	sb.mu.RLock()
	defer sb.mu.RUnlock()
	return sb.readOnly
}

// LedgerDir returns the directory holding the file-backed ledger.
func (sb *StateBox) LedgerDir() string {
	return filepath.Join(sb.RootPath(), "ledger")
}

// ArchiveDir returns the directory holding the verification archive database.
func (sb *StateBox) ArchiveDir() string {
	return filepath.Join(sb.RootPath(), "archive")
}

// LogsDir returns the directory used for rotated log files.
func (sb *StateBox) LogsDir() string {
	return filepath.Join(sb.RootPath(), "logs")
}

// ResolvePath joins a relative path with the State Box root.
// Absolute paths and paths starting with a tilde are expanded and returned as-is.
func (sb *StateBox) ResolvePath(relativePath string) string {
	if relativePath == "" {
		return sb.RootPath()
	}

	if strings.HasPrefix(relativePath, "~") || filepath.IsAbs(relativePath) {
		cleaned, err := ExpandPath(relativePath)
		if err != nil {
			return filepath.Clean(relativePath)
		}
		return cleaned
	}

	return filepath.Join(sb.RootPath(), relativePath)
}

// EnsureDir creates a directory with 0700 permissions if it doesn't exist.
func (sb *StateBox) EnsureDir(path string) error {
	if sb.IsReadOnly() {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("directory %s unavailable in read-only mode: %w", path, err)
		}
		return nil
	}

	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path exists but is not a directory: %s", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat directory %s: %w", path, err)
	}

	if err := os.MkdirAll(path, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// ExpandPath expands a leading tilde to the user's home directory and cleans the result.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
