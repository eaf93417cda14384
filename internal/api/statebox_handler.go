// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/truthscore/internal/util"
)

// StateBoxStatus represents the State Box status for API responses.
type StateBoxStatus struct {
	RootPath         string      `json:"root_path"`
	ReadOnly         bool        `json:"read_only"`
	Initialized      bool        `json:"initialized"`
	LedgerDocument   *FileStatus `json:"ledger_document,omitempty"`
	ArchiveDatabase  *FileStatus `json:"archive_database,omitempty"`
	PermissionStatus string      `json:"permission_status"` // "ok", "warning", "error"
	Warnings         []string    `json:"warnings,omitempty"`
	Errors           []string    `json:"errors,omitempty"`
}

// FileStatus represents the status of a State Box file.
type FileStatus struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	Mode    string    `json:"mode"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

func getFileStatus(path string) *FileStatus {
	status := &FileStatus{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return status
	}

	status.Exists = true
	status.Size = info.Size()
	status.Mode = info.Mode().String()
	status.ModTime = info.ModTime()
	return status
}

// checkPermissions downgrades status when a file is readable by group or others.
func (s *StateBoxStatus) checkPermissions(file *FileStatus, label string) {
	if file == nil || !file.Exists {
		return
	}
	info, err := os.Stat(file.Path)
	if err != nil {
		return
	}
	if info.Mode().Perm()&0077 != 0 {
		s.Warnings = append(s.Warnings, label+" has overly permissive permissions")
		if s.PermissionStatus == "ok" {
			s.PermissionStatus = "warning"
		}
	}
}

// StateBoxStatusHandler returns a handler for /api/state-box/status.
// ledgerPath and archivePath are reported when non-empty; relative paths
// resolve against the State Box root.
func StateBoxStatusHandler(sb *util.StateBox, ledgerPath, archivePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sb == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "State Box not initialized",
			})
			return
		}

		status := &StateBoxStatus{
			RootPath:         sb.RootPath(),
			ReadOnly:         sb.IsReadOnly(),
			Initialized:      true,
			PermissionStatus: "ok",
			Warnings:         []string{},
			Errors:           []string{},
		}

		if _, err := os.Stat(sb.RootPath()); err != nil {
			if os.IsNotExist(err) {
				status.Warnings = append(status.Warnings, "State Box root directory does not exist")
				status.PermissionStatus = "warning"
			} else {
				status.Errors = append(status.Errors, "Failed to access State Box root directory")
				status.PermissionStatus = "error"
			}
		}

		if ledgerPath != "" {
			status.LedgerDocument = getFileStatus(sb.ResolvePath(ledgerPath))
			status.checkPermissions(status.LedgerDocument, "Ledger document")
		}
		if archivePath != "" {
			status.ArchiveDatabase = getFileStatus(sb.ResolvePath(archivePath))
			status.checkPermissions(status.ArchiveDatabase, "Archive database")
		}

		c.JSON(http.StatusOK, status)
	}
}
