// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestSecureWrite_SuccessfulWrite(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "ledger.json")

	sb, err := NewStateBoxAt(tempDir, false)
	if err != nil {
		t.Fatalf("NewStateBoxAt() failed: %v", err)
	}

	testData := []byte(`{"verificationScore":"10"}`)
	if err := SecureWrite(sb, testFile, testData, nil); err != nil {
		t.Fatalf("SecureWrite() failed: %v", err)
	}

	content, err := os.ReadFile(testFile)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(content) != string(testData) {
		t.Errorf("Expected content %s, got %s", testData, content)
	}

	// No temp files may remain after the rename.
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != "ledger.json" {
			t.Errorf("Unexpected file in directory: %s", entry.Name())
		}
	}
}

func TestSecureWrite_ReadOnlyMode(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "ledger.json")

	sb, err := NewStateBoxAt(tempDir, true)
	if err != nil {
		t.Fatalf("NewStateBoxAt() failed: %v", err)
	}

	err = SecureWrite(sb, testFile, []byte("data"), nil)
	if !errors.Is(err, ErrReadOnlyMode) {
		t.Fatalf("Expected ErrReadOnlyMode, got %v", err)
	}
	if _, err := os.Stat(testFile); !os.IsNotExist(err) {
		t.Error("File should not exist in read-only mode")
	}
}

func TestSecureWrite_BackupCreation(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "ledger.json")

	if err := os.WriteFile(testFile, []byte("original"), 0600); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	opts := &SecureWriteOptions{CreateBackup: true}
	if err := SecureWrite(nil, testFile, []byte("updated"), opts); err != nil {
		t.Fatalf("SecureWrite() failed: %v", err)
	}

	backup, err := os.ReadFile(testFile + ".bak")
	if err != nil {
		t.Fatalf("Failed to read backup: %v", err)
	}
	if string(backup) != "original" {
		t.Errorf("Expected backup content 'original', got %q", backup)
	}
}

func TestSecureWrite_Permissions(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "ledger.json")

	if err := SecureWrite(nil, testFile, []byte("x"), nil); err != nil {
		t.Fatalf("SecureWrite() failed: %v", err)
	}

	info, err := os.Stat(testFile)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}
}

func TestSecureWrite_CreateParentDirectories(t *testing.T) {
	tempDir := t.TempDir()
	testFile := filepath.Join(tempDir, "a", "b", "ledger.json")

	if err := SecureWrite(nil, testFile, []byte("x"), nil); err != nil {
		t.Fatalf("SecureWrite() failed: %v", err)
	}
	if _, err := os.Stat(testFile); err != nil {
		t.Errorf("Expected file to exist: %v", err)
	}
}
