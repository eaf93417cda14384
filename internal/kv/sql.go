// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
)

const sqlSchema = `CREATE TABLE IF NOT EXISTS kv_store (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQL stores keys in a kv_store table. Supported drivers are sqlite3 and pgx.
// The table is created on first use if the database was unreachable when
// the backend was opened.
type SQL struct {
	db       *sql.DB
	getQuery string
	setQuery string

	schemaMu    sync.Mutex
	schemaReady bool
}

// NewSQL opens the database and creates the kv_store table if it can. An
// unreachable database is not an error here; Get and Set report it.
func NewSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql backend: open %s: %w", driver, err)
	}
	if driver == "sqlite3" {
		db.SetMaxOpenConns(1) // SQLite works best with single connection
	}
	return newSQLWithDB(ctx, db, driver), nil
}

func newSQLWithDB(ctx context.Context, db *sql.DB, driver string) *SQL {
	s := &SQL{db: db}
	switch driver {
	case "pgx":
		s.getQuery = `SELECT value FROM kv_store WHERE key = $1`
		s.setQuery = `INSERT INTO kv_store (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	default:
		s.getQuery = `SELECT value FROM kv_store WHERE key = ?`
		s.setQuery = `INSERT INTO kv_store (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	}
	if err := s.ensureSchema(ctx); err != nil {
		log.Warnf("sql backend unreachable, will retry on first use: %v", err)
	}
	return s
}

func (s *SQL) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, sqlSchema); err != nil {
		return fmt.Errorf("%w: create kv_store: %v", ErrUnavailable, err)
	}
	s.schemaReady = true
	return nil
}

// Get implements Backend.
func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return "", false, err
	}
	var value string
	err := s.db.QueryRowContext(ctx, s.getQuery, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: sql get %s: %v", ErrUnavailable, key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (s *SQL) Set(ctx context.Context, key, value string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, s.setQuery, key, value); err != nil {
		return fmt.Errorf("%w: sql set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Close implements Backend.
func (s *SQL) Close() error { return s.db.Close() }
