// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config provides configuration management for the truthscore server.
// It loads a YAML file, applies defaults for absent keys, and sanitizes the
// storage, archive, CORS, and rate-limit sections before use.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backend identifiers accepted in storage.backend.
const (
	BackendMemory      = "memory"
	BackendFile        = "file"
	BackendRedis       = "redis"
	BackendSQL         = "sql"
	BackendObjectStore = "objectstore"
)

// DefaultSimulatedDelayMs mirrors the fixed analysis latency shown to users.
const DefaultSimulatedDelayMs = 1500

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Host is the interface the API server binds to. Empty binds all interfaces.
	Host string `yaml:"host" json:"host"`
	// Port is the API server port.
	Port int `yaml:"port" json:"port"`

	// Debug enables debug-level logging and gin debug mode.
	Debug bool `yaml:"debug" json:"debug"`

	// LoggingToFile writes logs to a rotating file under the state dir instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// LogsMaxSizeMB bounds a single log file before lumberjack rotates it.
	LogsMaxSizeMB int `yaml:"logs-max-size-mb" json:"logs-max-size-mb"`

	// StateDir overrides the State Box root (default ~/.truthscore).
	StateDir string `yaml:"state-dir" json:"state-dir"`

	// SimulatedDelayMs is the artificial latency before each evaluation. 0 disables it.
	SimulatedDelayMs int `yaml:"simulated-delay-ms" json:"simulated-delay-ms"`

	// Storage selects and configures the ledger's key-value backend.
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Archive configures the append-only SQLite archive of every verification.
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// CORS lists the browser origins allowed to call the API.
	CORS CORSConfig `yaml:"cors" json:"cors"`

	// RateLimit throttles the verify endpoints per client address.
	RateLimit RateLimitConfig `yaml:"rate-limit" json:"rate-limit"`
}

// StorageConfig holds ledger persistence settings.
type StorageConfig struct {
	// Backend is one of memory, file, redis, sql, objectstore.
	Backend string `yaml:"backend" json:"backend"`
	// Namespace prefixes every key so several storage areas can share one backend.
	Namespace string `yaml:"namespace" json:"namespace"`
	// Path is the file backend document, relative to the state dir.
	Path string `yaml:"path" json:"path"`
	// Watch enables fsnotify change notifications for the file backend.
	Watch bool `yaml:"watch" json:"watch"`
	// RedisURL is a redis:// URL for the redis backend.
	RedisURL string `yaml:"redis-url" json:"-"`
	// SQLDriver is sqlite3 or pgx.
	SQLDriver string `yaml:"sql-driver" json:"sql-driver"`
	// SQLDSN is the driver-specific data source name.
	SQLDSN string `yaml:"sql-dsn" json:"-"`
	// ObjectStore configures the S3-compatible backend.
	ObjectStore ObjectStoreConfig `yaml:"objectstore" json:"objectstore"`
}

// ObjectStoreConfig configures the minio-backed key-value store.
type ObjectStoreConfig struct {
	Endpoint  string `yaml:"endpoint" json:"endpoint"`
	Bucket    string `yaml:"bucket" json:"bucket"`
	AccessKey string `yaml:"access-key" json:"-"`
	SecretKey string `yaml:"secret-key" json:"-"`
	UseSSL    bool   `yaml:"use-ssl" json:"use-ssl"`
}

// ArchiveConfig configures the verification archive.
type ArchiveConfig struct {
	Enabled       bool   `yaml:"enabled" json:"enabled"`
	Path          string `yaml:"path" json:"path"`
	RetentionDays int    `yaml:"retention-days" json:"retention-days"`
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow-origins" json:"allow-origins"`
}

// RateLimitConfig is a token bucket per client address.
type RateLimitConfig struct {
	// RequestsPerSecond is the refill rate. 0 disables limiting.
	RequestsPerSecond float64 `yaml:"requests-per-second" json:"requests-per-second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Sanitize()
	return cfg
}

func applyDefaults(cfg *Config) {
	cfg.Host = "127.0.0.1"
	cfg.Port = 8317
	cfg.LogsMaxSizeMB = 10
	cfg.SimulatedDelayMs = DefaultSimulatedDelayMs
	cfg.Storage.Backend = BackendFile
	cfg.Storage.Path = "ledger/ledger.json"
	cfg.Storage.Watch = true
	cfg.Storage.SQLDriver = "sqlite3"
	cfg.Storage.ObjectStore.Bucket = "truthscore"
	cfg.Archive.Enabled = true
	cfg.Archive.Path = "archive/verifications.db"
	cfg.Archive.RetentionDays = 90
	cfg.CORS.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	cfg.RateLimit.RequestsPerSecond = 2
	cfg.RateLimit.Burst = 5
}

// LoadConfig reads and validates the YAML file at configFile.
func LoadConfig(configFile string) (*Config, error) {
	return LoadConfigOptional(configFile, false)
}

// LoadConfigOptional reads YAML from configFile.
// If optional is true and the file is missing or empty, it returns the defaults.
func LoadConfigOptional(configFile string, optional bool) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		if optional && (os.IsNotExist(err) || errors.Is(err, syscall.EISDIR)) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	// Set defaults before unmarshal so that absent keys keep defaults.
	applyDefaults(&cfg)

	if len(strings.TrimSpace(string(data))) > 0 {
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sanitize normalizes every section in place.
func (cfg *Config) Sanitize() {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = 8317
	}
	if cfg.LogsMaxSizeMB <= 0 {
		cfg.LogsMaxSizeMB = 10
	}
	if cfg.SimulatedDelayMs < 0 {
		cfg.SimulatedDelayMs = 0
	}
	cfg.SanitizeStorage()
	cfg.SanitizeArchive()
	cfg.SanitizeCORS()
	if cfg.RateLimit.RequestsPerSecond < 0 {
		cfg.RateLimit.RequestsPerSecond = 0
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 1
	}
}

// SanitizeStorage lower-cases the backend name and trims connection settings.
func (cfg *Config) SanitizeStorage() {
	s := &cfg.Storage
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = BackendFile
	}
	s.Namespace = strings.TrimSpace(s.Namespace)
	s.Path = strings.TrimSpace(s.Path)
	if s.Path == "" {
		s.Path = "ledger/ledger.json"
	}
	s.RedisURL = strings.TrimSpace(s.RedisURL)
	s.SQLDriver = strings.ToLower(strings.TrimSpace(s.SQLDriver))
	switch s.SQLDriver {
	case "", "sqlite":
		s.SQLDriver = "sqlite3"
	case "postgres", "postgresql", "pg":
		s.SQLDriver = "pgx"
	}
	s.SQLDSN = strings.TrimSpace(s.SQLDSN)
	s.ObjectStore.Endpoint = strings.TrimSpace(s.ObjectStore.Endpoint)
	s.ObjectStore.Bucket = strings.TrimSpace(s.ObjectStore.Bucket)
	if s.ObjectStore.Bucket == "" {
		s.ObjectStore.Bucket = "truthscore"
	}
}

// SanitizeArchive fills in the archive path and retention.
func (cfg *Config) SanitizeArchive() {
	cfg.Archive.Path = strings.TrimSpace(cfg.Archive.Path)
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = "archive/verifications.db"
	}
	if cfg.Archive.RetentionDays <= 0 {
		cfg.Archive.RetentionDays = 90
	}
}

// SanitizeCORS trims origins, drops blanks and duplicates, and keeps order.
func (cfg *Config) SanitizeCORS() {
	seen := make(map[string]struct{}, len(cfg.CORS.AllowOrigins))
	out := make([]string, 0, len(cfg.CORS.AllowOrigins))
	for _, origin := range cfg.CORS.AllowOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if _, ok := seen[origin]; ok {
			continue
		}
		seen[origin] = struct{}{}
		out = append(out, origin)
	}
	cfg.CORS.AllowOrigins = out
}

// Validate reports settings that cannot be repaired by sanitizing.
func (cfg *Config) Validate() error {
	switch cfg.Storage.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if cfg.Storage.RedisURL == "" {
			return fmt.Errorf("storage.redis-url is required for the redis backend")
		}
	case BackendSQL:
		if cfg.Storage.SQLDriver != "sqlite3" && cfg.Storage.SQLDriver != "pgx" {
			return fmt.Errorf("storage.sql-driver %q is not supported", cfg.Storage.SQLDriver)
		}
		if cfg.Storage.SQLDSN == "" {
			return fmt.Errorf("storage.sql-dsn is required for the sql backend")
		}
	case BackendObjectStore:
		if cfg.Storage.ObjectStore.Endpoint == "" {
			return fmt.Errorf("storage.objectstore.endpoint is required for the objectstore backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return nil
}

// SimulatedDelay returns the configured evaluation latency.
func (cfg *Config) SimulatedDelay() time.Duration {
	return time.Duration(cfg.SimulatedDelayMs) * time.Millisecond
}

// Address returns host:port for the HTTP listener.
func (cfg *Config) Address() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
