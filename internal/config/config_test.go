// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8317, cfg.Port)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.True(t, cfg.Storage.Watch)
	assert.Equal(t, 1500*time.Millisecond, cfg.SimulatedDelay())
	assert.True(t, cfg.Archive.Enabled)
	assert.Equal(t, 90, cfg.Archive.RetentionDays)
	assert.Equal(t, "127.0.0.1:8317", cfg.Address())
}

func TestLoadConfig_Overrides(t *testing.T) {
	content := `
host: ""
port: 9000
debug: true
simulated-delay-ms: 0
storage:
  backend: " SQL "
  namespace: demo
  sql-driver: postgres
  sql-dsn: postgres://localhost/truth
cors:
  allow-origins:
    - "https://truth.example/"
    - "https://truth.example"
    - " "
rate-limit:
  requests-per-second: 5
  burst: 0
`
	cfg, err := LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, time.Duration(0), cfg.SimulatedDelay())
	assert.Equal(t, BackendSQL, cfg.Storage.Backend)
	assert.Equal(t, "demo", cfg.Storage.Namespace)
	assert.Equal(t, "pgx", cfg.Storage.SQLDriver)
	assert.Equal(t, []string{"https://truth.example"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
}

func TestLoadConfig_InvalidBackend(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown backend", "storage:\n  backend: floppy\n"},
		{"redis without url", "storage:\n  backend: redis\n"},
		{"sql without dsn", "storage:\n  backend: sql\n"},
		{"sql bad driver", "storage:\n  backend: sql\n  sql-driver: oracle\n  sql-dsn: x\n"},
		{"objectstore without endpoint", "storage:\n  backend: objectstore\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_ParseError(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "port: [unterminated"))
	assert.Error(t, err)
}

func TestLoadConfigOptional_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg, err := LoadConfigOptional(missing, true)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = LoadConfigOptional(missing, false)
	assert.Error(t, err)
}

func TestSanitize_ClampsNegativeValues(t *testing.T) {
	cfg := &Config{
		Port:             -1,
		SimulatedDelayMs: -50,
		RateLimit:        RateLimitConfig{RequestsPerSecond: -3},
		Archive:          ArchiveConfig{RetentionDays: -1},
	}
	cfg.Sanitize()

	assert.Equal(t, 8317, cfg.Port)
	assert.Equal(t, 0, cfg.SimulatedDelayMs)
	assert.Equal(t, 0.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1, cfg.RateLimit.Burst)
	assert.Equal(t, 90, cfg.Archive.RetentionDays)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "sqlite3", cfg.Storage.SQLDriver)
}
