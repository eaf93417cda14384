// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// AuditResult describes one directory or sensitive file in the State Box.
type AuditResult struct {
	Path         string
	CurrentMode  os.FileMode
	RequiredMode os.FileMode
	WasCorrected bool
	Error        error
}

// NeedsCorrection reports whether the entry is more permissive than required.
func (r AuditResult) NeedsCorrection() bool {
	return r.Error == nil && r.CurrentMode != r.RequiredMode
}

// requiredMode returns the mode a State Box entry must have, or 0 when the
// entry is not checked. Directories need 0700; ledger documents, archive
// databases and their SQLite sidecars need 0600.
func requiredMode(path string, info os.FileInfo) os.FileMode {
	if info.IsDir() {
		return 0700
	}
	if isSensitiveFile(path) {
		return 0600
	}
	return 0
}

func isSensitiveFile(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".db", ".json", ".db-wal", ".db-shm", ".db-journal"} {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func walkPermissions(sb *StateBox, fix bool) ([]AuditResult, error) {
	if sb == nil {
		return nil, fmt.Errorf("StateBox cannot be nil")
	}
	rootPath := sb.RootPath()
	if _, err := os.Stat(rootPath); os.IsNotExist(err) {
		return nil, nil
	}

	var results []AuditResult
	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Warnf("permission audit: failed to access %s: %v", path, err)
			results = append(results, AuditResult{Path: path, Error: err})
			return nil
		}
		want := requiredMode(path, info)
		if want == 0 {
			return nil
		}

		r := AuditResult{Path: path, CurrentMode: info.Mode().Perm(), RequiredMode: want}
		if fix && r.NeedsCorrection() {
			if err := os.Chmod(path, want); err != nil {
				r.Error = err
			} else {
				r.WasCorrected = true
			}
		}
		results = append(results, r)
		return nil
	})
	if err != nil {
		return results, fmt.Errorf("failed to walk State Box directory: %w", err)
	}
	return results, nil
}

// AuditPermissions reports the mode of every directory and sensitive file
// without changing anything.
func AuditPermissions(sb *StateBox) ([]AuditResult, error) {
	return walkPermissions(sb, false)
}

// HardenPermissions tightens State Box modes in place. Individual chmod
// failures are logged and counted; only a nil StateBox or a failed walk is
// returned as an error. It is a no-op in read-only mode.
func HardenPermissions(sb *StateBox) error {
	if sb != nil && sb.IsReadOnly() {
		return nil
	}
	results, err := walkPermissions(sb, true)
	if err != nil {
		return err
	}

	corrected, failed := 0, 0
	for _, r := range results {
		switch {
		case r.WasCorrected:
			corrected++
			log.Infof("security audit: corrected permissions for %s from %04o to %04o", r.Path, r.CurrentMode, r.RequiredMode)
		case r.Error != nil:
			failed++
			log.Warnf("permission hardening: %s: %v", r.Path, r.Error)
		}
	}
	if corrected > 0 {
		log.Infof("permission hardening: corrected %d file/directory permissions", corrected)
	}
	if failed > 0 {
		log.Warnf("permission hardening: encountered %d errors during hardening", failed)
	}
	return nil
}
