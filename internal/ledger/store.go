// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/kv"
)

var (
	// ErrStorageUnavailable wraps failures to reach or write the backend.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")

	// ErrStorageCorrupt marks persisted values that could not be parsed.
	ErrStorageCorrupt = errors.New("ledger storage corrupt")

	// ErrNotScored is returned when recording a kind that the ledger does not track.
	ErrNotScored = errors.New("record kind is not scored")
)

// Store is the shared ledger. RecordResult is serialized by an internal
// mutex; subscribers are notified after the mutex is released and never see
// an older snapshot after a newer one.
type Store struct {
	backend kv.Backend

	mu      sync.Mutex
	cache   Ledger
	version uint64

	bus notifier
}

// NewStore returns a store persisting through backend.
func NewStore(backend kv.Backend) *Store {
	return &Store{
		backend: backend,
		cache:   Ledger{History: []Record{}},
	}
}

// Read returns the current ledger. It never fails: missing values yield
// defaults, corrupt values are reset to defaults individually, and an
// unreachable backend yields the last snapshot this store saw.
func (s *Store) Read(ctx context.Context) Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx).Clone()
}

func (s *Store) loadLocked(ctx context.Context) Ledger {
	score, scoreOK, scoreErr := s.backend.Get(ctx, ScoreKey)
	history, historyOK, historyErr := s.backend.Get(ctx, HistoryKey)
	for _, err := range []error{scoreErr, historyErr} {
		if err != nil && !errors.Is(err, kv.ErrCorrupt) {
			log.Warnf("ledger read failed, using cached snapshot: %v", err)
			return s.cache
		}
	}
	if errors.Is(scoreErr, kv.ErrCorrupt) || errors.Is(historyErr, kv.ErrCorrupt) {
		log.Warnf("ledger storage corrupt, reinitializing: %v", errors.Join(scoreErr, historyErr))
		s.cache = Ledger{History: []Record{}}
		return s.cache
	}

	if !scoreOK {
		score = ""
	}
	if !historyOK {
		history = ""
	}
	l, err := Decode(score, history)
	if err != nil {
		log.Warnf("discarding unreadable ledger values: %v", err)
	}
	s.cache = l
	return s.cache
}

// RecordResult adds rec to the ledger: the score grows by Reward when the
// verdict is true, the record (content summarized) is prepended and the
// history is capped at MaxHistory. The updated snapshot is always returned;
// a persistence failure is reported alongside it wrapped in
// ErrStorageUnavailable.
func (s *Store) RecordResult(ctx context.Context, rec Record) (Ledger, error) {
	if !rec.Kind.Scored() {
		return s.Read(ctx), fmt.Errorf("%w: %s", ErrNotScored, rec.Kind)
	}
	rec.Content = Summarize(rec.Content)

	s.mu.Lock()
	current := s.loadLocked(ctx)

	next := Ledger{TotalScore: current.TotalScore}
	if rec.Verdict {
		next.TotalScore += Reward
	}
	next.History = make([]Record, 0, MaxHistory)
	next.History = append(next.History, rec)
	for _, h := range current.History {
		if len(next.History) == MaxHistory {
			break
		}
		next.History = append(next.History, h)
	}

	persistErr := s.persistLocked(ctx, next)
	s.cache = next
	s.version++
	version, snapshot := s.version, next.Clone()
	s.mu.Unlock()

	s.bus.publish(version, snapshot)

	return snapshot, persistErr
}

func (s *Store) persistLocked(ctx context.Context, l Ledger) error {
	score, history, err := Encode(l)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := s.backend.Set(ctx, ScoreKey, score); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if err := s.backend.Set(ctx, HistoryKey, history); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Subscribe registers fn for every committed or externally observed change.
// fn runs synchronously on the committing goroutine and must not call
// RecordResult. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(Ledger)) func() {
	return s.bus.subscribe(fn)
}

// Subscribers returns the number of registered subscribers.
func (s *Store) Subscribers() int {
	return s.bus.count()
}

// Refresh re-reads the backend and notifies subscribers.
func (s *Store) Refresh(ctx context.Context) Ledger {
	s.mu.Lock()
	snapshot := s.loadLocked(ctx).Clone()
	s.version++
	version := s.version
	s.mu.Unlock()

	s.bus.publish(version, snapshot)
	return snapshot
}

// Watch blocks until ctx is done, refreshing subscribers whenever the
// backend reports a change made by another process. Backends that cannot
// watch simply block.
func (s *Store) Watch(ctx context.Context) error {
	w, ok := s.backend.(kv.Watcher)
	if !ok {
		<-ctx.Done()
		return nil
	}
	return w.Watch(ctx, func() {
		l := s.Refresh(ctx)
		log.WithField("total_score", l.TotalScore).Debug("ledger refreshed after external change")
	})
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
