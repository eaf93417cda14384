// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"sync"

	"github.com/traylinx/truthscore/internal/ledger"
)

// Stats counts checks handled by a Verifier since it started.
type Stats struct {
	mu sync.RWMutex

	checks          map[ledger.Kind]int
	verified        int
	flagged         int
	rejected        int
	storageFailures int
}

// NewStats creates an empty counter set.
func NewStats() *Stats {
	return &Stats{checks: make(map[ledger.Kind]int)}
}

func (s *Stats) recordVerdict(kind ledger.Kind, verdict bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks[kind]++
	if verdict {
		s.verified++
	} else {
		s.flagged++
	}
}

func (s *Stats) recordRejected() {
	s.mu.Lock()
	s.rejected++
	s.mu.Unlock()
}

func (s *Stats) recordStorageFailure() {
	s.mu.Lock()
	s.storageFailures++
	s.mu.Unlock()
}

// Snapshot returns the counters.
func (s *Stats) Snapshot() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.verified + s.flagged
	verifiedRate := 0.0
	if total > 0 {
		verifiedRate = float64(s.verified) / float64(total)
	}

	return map[string]interface{}{
		"total_checks":     total,
		"news_checks":      s.checks[ledger.KindNews],
		"website_checks":   s.checks[ledger.KindWebsite],
		"company_checks":   s.checks[ledger.KindCompany],
		"verified_count":   s.verified,
		"flagged_count":    s.flagged,
		"verified_rate":    verifiedRate,
		"rejected_inputs":  s.rejected,
		"storage_failures": s.storageFailures,
	}
}
