// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package archive keeps a durable log of every verification, including
// company checks that never reach the ledger.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/ledger"
	"github.com/traylinx/truthscore/internal/util"
)

// DefaultRetentionDays applies when a non-positive retention is configured.
const DefaultRetentionDays = 90

// Entry is one archived verification.
type Entry struct {
	ID             string      `json:"id"`
	Kind           ledger.Kind `json:"kind"`
	Source         string      `json:"source"`
	Content        string      `json:"content"`
	Verdict        bool        `json:"verdict"`
	Confidence     int         `json:"confidence"`
	Explanation    string      `json:"explanation"`
	RiskFactors    []string    `json:"riskFactors,omitempty"`
	RegistrationID string      `json:"registrationId,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// EntryFromRecord builds an archive entry. The full content is kept.
func EntryFromRecord(rec ledger.Record, registrationID string) Entry {
	return Entry{
		ID:             rec.ID,
		Kind:           rec.Kind,
		Source:         rec.Source,
		Content:        rec.Content,
		Verdict:        rec.Verdict,
		Confidence:     rec.Confidence,
		Explanation:    rec.Explanation,
		RiskFactors:    rec.RiskFactors,
		RegistrationID: registrationID,
		CreatedAt:      rec.Timestamp,
	}
}

// Archive stores entries in a SQLite database.
type Archive struct {
	db            *sql.DB
	dbPath        string
	retentionDays int
	enabled       bool
	stateBox      *util.StateBox
	mu            sync.RWMutex
}

// New creates an archive for dbPath. Call Initialize before use.
func New(dbPath string, retentionDays int) (*Archive, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Archive{
		dbPath:        dbPath,
		retentionDays: retentionDays,
	}, nil
}

// SetStateBox makes relative database paths resolve under the State Box.
// A bare file name goes into the archive directory.
func (a *Archive) SetStateBox(sb *util.StateBox) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stateBox = sb
}

// Path returns the database path, resolved once Initialize has run.
func (a *Archive) Path() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dbPath
}

// Initialize opens the database and creates the schema. In read-only mode
// the database is opened with mode=ro and nothing is created.
func (a *Archive) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stateBox != nil {
		if filepath.Base(a.dbPath) == a.dbPath {
			a.dbPath = filepath.Join(a.stateBox.ArchiveDir(), a.dbPath)
		} else {
			a.dbPath = a.stateBox.ResolvePath(a.dbPath)
		}
	}

	readOnly := a.stateBox != nil && a.stateBox.IsReadOnly()
	dir := filepath.Dir(a.dbPath)
	switch {
	case readOnly:
		if _, err := os.Stat(a.dbPath); err != nil {
			return fmt.Errorf("archive database does not exist in read-only mode: %w", err)
		}
	case a.stateBox != nil:
		if err := a.stateBox.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	default:
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	if readOnly {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", a.dbPath))
		if err != nil {
			return fmt.Errorf("failed to open archive in read-only mode: %w", err)
		}
		a.db = db
		a.enabled = true
		log.Infof("verification archive opened read-only (db: %s)", a.dbPath)
		return nil
	}

	db, err := sql.Open("sqlite3", a.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS verifications (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		verdict INTEGER NOT NULL,
		confidence INTEGER NOT NULL,
		explanation TEXT,
		risk_factors TEXT,
		registration_id TEXT,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_verifications_created_at ON verifications(created_at);
	CREATE INDEX IF NOT EXISTS idx_verifications_kind ON verifications(kind);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return fmt.Errorf("failed to create schema: %w", err)
	}

	a.db = db
	a.enabled = true
	log.Infof("verification archive initialized (db: %s, retention: %d days)", a.dbPath, a.retentionDays)
	return nil
}

// IsEnabled reports whether Initialize succeeded and Shutdown has not run.
func (a *Archive) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// Record stores e. A zero CreatedAt is set to now.
func (a *Archive) Record(ctx context.Context, e Entry) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.enabled {
		return fmt.Errorf("archive not enabled")
	}
	if a.stateBox != nil && a.stateBox.IsReadOnly() {
		return util.ErrReadOnlyMode
	}
	if e.ID == "" {
		return fmt.Errorf("entry id cannot be empty")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var factors []byte
	if len(e.RiskFactors) > 0 {
		var err error
		factors, err = json.Marshal(e.RiskFactors)
		if err != nil {
			log.Warnf("failed to marshal risk factors: %v", err)
			factors = []byte("[]")
		}
	}

	_, err := a.db.ExecContext(ctx, `
	INSERT INTO verifications (
		id, kind, source, content, verdict, confidence,
		explanation, risk_factors, registration_id, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		string(e.Kind),
		e.Source,
		e.Content,
		boolToInt(e.Verdict),
		e.Confidence,
		e.Explanation,
		string(factors),
		e.RegistrationID,
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// means 50.
func (a *Archive) Recent(ctx context.Context, limit int) ([]Entry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.enabled {
		return nil, fmt.Errorf("archive not enabled")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx, `
	SELECT id, kind, source, content, verdict, confidence,
	       explanation, risk_factors, registration_id, created_at
	FROM verifications
	ORDER BY created_at DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verifications: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			log.Warnf("failed to scan verification: %v", err)
			continue
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verifications: %w", err)
	}
	return entries, nil
}

// Stats aggregates the archive.
func (a *Archive) Stats(ctx context.Context) (map[string]interface{}, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.enabled {
		return nil, fmt.Errorf("archive not enabled")
	}

	stats := make(map[string]interface{})

	var total, verified int64
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verifications").Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}
	if err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM verifications WHERE verdict = 1").Scan(&verified); err != nil {
		return nil, fmt.Errorf("failed to get verified count: %w", err)
	}
	stats["total_records"] = total
	stats["verified_records"] = verified
	if total > 0 {
		stats["verified_rate"] = float64(verified) / float64(total)
	} else {
		stats["verified_rate"] = 0.0
	}

	rows, err := a.db.QueryContext(ctx, "SELECT kind, COUNT(*) FROM verifications GROUP BY kind")
	if err != nil {
		return nil, fmt.Errorf("failed to get kind distribution: %w", err)
	}
	defer rows.Close()

	kinds := make(map[string]int64)
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			continue
		}
		kinds[kind] = count
	}
	stats["kind_distribution"] = kinds

	var avg sql.NullFloat64
	if err := a.db.QueryRowContext(ctx, "SELECT AVG(confidence) FROM verifications").Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to get average confidence: %w", err)
	}
	stats["avg_confidence"] = avg.Float64

	return stats, nil
}

// Cleanup removes entries older than the retention period and returns how
// many were deleted.
func (a *Archive) Cleanup(ctx context.Context) (int64, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.enabled || (a.stateBox != nil && a.stateBox.IsReadOnly()) {
		return 0, nil
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -a.retentionDays)
	result, err := a.db.ExecContext(ctx, "DELETE FROM verifications WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old verifications: %w", err)
	}
	n, err := result.RowsAffected()
	if err == nil && n > 0 {
		log.Infof("cleaned up %d old verifications (older than %d days)", n, a.retentionDays)
	}
	return n, nil
}

// RunRetention runs Cleanup immediately and then every interval until ctx
// is done.
func (a *Archive) RunRetention(ctx context.Context, interval time.Duration) error {
	if _, err := a.Cleanup(ctx); err != nil {
		log.Warn(err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := a.Cleanup(ctx); err != nil {
				log.Warn(err)
			}
		}
	}
}

// Shutdown closes the database.
func (a *Archive) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.enabled {
		return nil
	}
	a.enabled = false
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("failed to close archive: %w", err)
		}
	}
	log.Info("verification archive shut down")
	return nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var e Entry
	var kind string
	var verdict int
	var explanation, factors, registration sql.NullString

	err := rows.Scan(
		&e.ID,
		&kind,
		&e.Source,
		&e.Content,
		&verdict,
		&e.Confidence,
		&explanation,
		&factors,
		&registration,
		&e.CreatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	e.Kind = ledger.Kind(kind)
	e.Verdict = verdict == 1
	e.Explanation = explanation.String
	e.RegistrationID = registration.String
	if factors.Valid && factors.String != "" {
		if err := json.Unmarshal([]byte(factors.String), &e.RiskFactors); err != nil {
			log.Warnf("failed to unmarshal risk factors: %v", err)
		}
	}
	return e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
