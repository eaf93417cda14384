// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/truthscore/internal/util"
)

func serveStatus(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/state-box/status", handler)

	req, err := http.NewRequest("GET", "/api/state-box/status", nil)
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestStateBoxStatusHandler_Success(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("TRUTHSCORE_STATE_DIR", tempDir)
	t.Setenv("TRUTHSCORE_READONLY", "0")

	sb, err := util.NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	for _, dir := range []string{"ledger", "archive"} {
		if err := os.MkdirAll(filepath.Join(tempDir, dir), 0700); err != nil {
			t.Fatalf("Failed to create %s directory: %v", dir, err)
		}
	}
	if err := os.WriteFile(filepath.Join(tempDir, "ledger", "ledger.json"), []byte(`{"verificationScore":"10"}`), 0600); err != nil {
		t.Fatalf("Failed to create ledger file: %v", err)
	}
	// Group-readable on purpose.
	if err := os.WriteFile(filepath.Join(tempDir, "archive", "verifications.db"), []byte("test db"), 0644); err != nil {
		t.Fatalf("Failed to create database file: %v", err)
	}

	w := serveStatus(t, StateBoxStatusHandler(sb, "ledger/ledger.json", "archive/verifications.db"))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var status StateBoxStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if status.RootPath != tempDir {
		t.Errorf("Expected root path %s, got %s", tempDir, status.RootPath)
	}
	if status.ReadOnly {
		t.Error("Expected read-only to be false")
	}
	if status.LedgerDocument == nil || !status.LedgerDocument.Exists {
		t.Fatal("Expected ledger document to exist")
	}
	if status.ArchiveDatabase == nil || !status.ArchiveDatabase.Exists {
		t.Fatal("Expected archive database to exist")
	}
	if status.PermissionStatus != "warning" {
		t.Errorf("Expected permission status 'warning', got '%s'", status.PermissionStatus)
	}
	if len(status.Warnings) != 1 {
		t.Errorf("Expected one warning, got %v", status.Warnings)
	}
}

func TestStateBoxStatusHandler_ReadOnlyMode(t *testing.T) {
	t.Setenv("TRUTHSCORE_STATE_DIR", t.TempDir())
	t.Setenv("TRUTHSCORE_READONLY", "1")

	sb, err := util.NewStateBox()
	if err != nil {
		t.Fatalf("Failed to create StateBox: %v", err)
	}

	w := serveStatus(t, StateBoxStatusHandler(sb, "ledger/ledger.json", ""))
	if w.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, w.Code)
	}

	var status StateBoxStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !status.ReadOnly {
		t.Error("Expected read-only to be true")
	}
	if status.LedgerDocument == nil || status.LedgerDocument.Exists {
		t.Error("Expected ledger document to be reported as missing")
	}
	if status.ArchiveDatabase != nil {
		t.Error("Expected no archive database entry")
	}
}

func TestStateBoxStatusHandler_NilStateBox(t *testing.T) {
	w := serveStatus(t, StateBoxStatusHandler(nil, "", ""))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status code %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}
