// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestStorageConfigParsing loads one complete file per backend.
func TestStorageConfigParsing(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, s StorageConfig)
	}{
		{
			name: "file",
			content: `
storage:
  backend: file
  path: "  custom/ledger.json "
  watch: false
`,
			check: func(t *testing.T, s StorageConfig) {
				if s.Path != "custom/ledger.json" {
					t.Errorf("Expected trimmed path, got '%s'", s.Path)
				}
				if s.Watch {
					t.Error("Watch should be disabled")
				}
			},
		},
		{
			name: "redis",
			content: `
storage:
  backend: Redis
  namespace: " team-a "
  redis-url: redis://localhost:6379/2
`,
			check: func(t *testing.T, s StorageConfig) {
				if s.Backend != BackendRedis {
					t.Errorf("Expected backend redis, got '%s'", s.Backend)
				}
				if s.Namespace != "team-a" {
					t.Errorf("Expected namespace 'team-a', got '%s'", s.Namespace)
				}
				if s.RedisURL != "redis://localhost:6379/2" {
					t.Errorf("Unexpected redis URL '%s'", s.RedisURL)
				}
			},
		},
		{
			name: "sqlite",
			content: `
storage:
  backend: sql
  sql-driver: sqlite
  sql-dsn: ledger/ledger.db
`,
			check: func(t *testing.T, s StorageConfig) {
				if s.SQLDriver != "sqlite3" {
					t.Errorf("Expected driver sqlite3, got '%s'", s.SQLDriver)
				}
			},
		},
		{
			name: "objectstore",
			content: `
storage:
  backend: objectstore
  objectstore:
    endpoint: " minio.local:9000 "
    bucket: ""
    access-key: key
    secret-key: secret
    use-ssl: true
`,
			check: func(t *testing.T, s StorageConfig) {
				o := s.ObjectStore
				if o.Endpoint != "minio.local:9000" {
					t.Errorf("Expected trimmed endpoint, got '%s'", o.Endpoint)
				}
				if o.Bucket != "truthscore" {
					t.Errorf("Expected default bucket, got '%s'", o.Bucket)
				}
				if o.AccessKey != "key" || o.SecretKey != "secret" || !o.UseSSL {
					t.Errorf("Unexpected credentials: %+v", o)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configFile, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			cfg, err := LoadConfig(configFile)
			if err != nil {
				t.Fatalf("Failed to load config: %v", err)
			}
			tt.check(t, cfg.Storage)
		})
	}
}

// TestArchiveAndLoggingParsing verifies the archive and logging sections.
func TestArchiveAndLoggingParsing(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging-to-file: true
logs-max-size-mb: 0
state-dir: ~/truth-state
archive:
  enabled: false
  path: " "
  retention-days: 7
`
	if err := os.WriteFile(configFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(configFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if !cfg.LoggingToFile {
		t.Error("LoggingToFile should be enabled")
	}
	if cfg.LogsMaxSizeMB != 10 {
		t.Errorf("Expected LogsMaxSizeMB 10, got %d", cfg.LogsMaxSizeMB)
	}
	if cfg.StateDir != "~/truth-state" {
		t.Errorf("Expected StateDir '~/truth-state', got '%s'", cfg.StateDir)
	}
	if cfg.Archive.Enabled {
		t.Error("Archive should be disabled")
	}
	if cfg.Archive.Path != "archive/verifications.db" {
		t.Errorf("Expected default archive path, got '%s'", cfg.Archive.Path)
	}
	if cfg.Archive.RetentionDays != 7 {
		t.Errorf("Expected RetentionDays 7, got %d", cfg.Archive.RetentionDays)
	}
}

// TestSanitizeCORS verifies order is kept while blanks and duplicates go.
func TestSanitizeCORS(t *testing.T) {
	cfg := &Config{CORS: CORSConfig{AllowOrigins: []string{
		"http://b.example/", " http://a.example ", "", "http://b.example", "*",
	}}}
	cfg.SanitizeCORS()

	want := []string{"http://b.example", "http://a.example", "*"}
	if len(cfg.CORS.AllowOrigins) != len(want) {
		t.Fatalf("Expected %v, got %v", want, cfg.CORS.AllowOrigins)
	}
	for i := range want {
		if cfg.CORS.AllowOrigins[i] != want[i] {
			t.Errorf("Origin %d: expected '%s', got '%s'", i, want[i], cfg.CORS.AllowOrigins[i])
		}
	}
}
