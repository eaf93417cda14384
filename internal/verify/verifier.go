// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/truthscore/internal/archive"
	"github.com/traylinx/truthscore/internal/ledger"
)

// Archiver stores every verdict, including unscored company checks.
type Archiver interface {
	Record(ctx context.Context, entry archive.Entry) error
}

// Outcome is the result of one check.
type Outcome struct {
	Record  ledger.Record
	Company *CompanyResult
	Ledger  ledger.Ledger
	// Awarded is the number of points this check added to the ledger.
	Awarded int
}

// Verifier validates submissions, simulates analysis latency, evaluates,
// and records verdicts in the ledger and the archive. Storage failures are
// logged and counted; they never fail a check.
type Verifier struct {
	store    *ledger.Store
	archiver Archiver
	delay    atomic.Int64
	stats    *Stats
}

// NewVerifier creates a Verifier. archiver may be nil.
func NewVerifier(store *ledger.Store, archiver Archiver, delay time.Duration) *Verifier {
	v := &Verifier{
		store:    store,
		archiver: archiver,
		stats:    NewStats(),
	}
	v.delay.Store(int64(delay))
	return v
}

// Stats returns the verifier's counters.
func (v *Verifier) Stats() *Stats { return v.stats }

// Store returns the ledger the verifier records into.
func (v *Verifier) Store() *ledger.Store { return v.store }

// SetDelay changes the simulated latency for subsequent checks.
func (v *Verifier) SetDelay(d time.Duration) { v.delay.Store(int64(d)) }

// CheckNews evaluates a news snippet. source is "text" or "url".
func (v *Verifier) CheckNews(ctx context.Context, content, source string) (Outcome, error) {
	content, err := v.validate(content)
	if err != nil {
		return Outcome{}, err
	}
	if err := v.wait(ctx); err != nil {
		return Outcome{}, err
	}
	return v.commit(ctx, EvaluateNews(content, source), ""), nil
}

// CheckWebsite evaluates a website URL.
func (v *Verifier) CheckWebsite(ctx context.Context, rawURL string) (Outcome, error) {
	rawURL, err := v.validate(rawURL)
	if err != nil {
		return Outcome{}, err
	}
	if err := v.wait(ctx); err != nil {
		return Outcome{}, err
	}
	rec, err := EvaluateWebsite(rawURL)
	if err != nil {
		v.stats.recordRejected()
		return Outcome{}, err
	}
	return v.commit(ctx, rec, ""), nil
}

// CheckCompany evaluates a company name. The verdict is archived but not
// scored; the returned Ledger is the current one.
func (v *Verifier) CheckCompany(ctx context.Context, name string) (Outcome, error) {
	name, err := v.validate(name)
	if err != nil {
		return Outcome{}, err
	}
	if err := v.wait(ctx); err != nil {
		return Outcome{}, err
	}
	res := EvaluateCompany(name)
	out := v.commit(ctx, res.Record(), res.RegistrationID)
	out.Company = &res
	return out, nil
}

func (v *Verifier) validate(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		v.stats.recordRejected()
		return "", ErrInvalidInput
	}
	return trimmed, nil
}

func (v *Verifier) wait(ctx context.Context) error {
	delay := time.Duration(v.delay.Load())
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (v *Verifier) commit(ctx context.Context, rec ledger.Record, registrationID string) Outcome {
	v.stats.recordVerdict(rec.Kind, rec.Verdict)
	out := Outcome{Record: rec}

	entry := log.WithFields(log.Fields{
		"kind":       rec.Kind,
		"verdict":    rec.Verdict,
		"confidence": rec.Confidence,
	})

	if rec.Kind.Scored() {
		l, err := v.store.RecordResult(ctx, rec)
		if err != nil {
			v.stats.recordStorageFailure()
			entry.Warnf("ledger persist failed, verdict kept in memory: %v", err)
		}
		out.Ledger = l
		if rec.Verdict {
			out.Awarded = ledger.Reward
		}
	} else {
		out.Ledger = v.store.Read(ctx)
	}

	if v.archiver != nil {
		if err := v.archiver.Record(ctx, archive.EntryFromRecord(rec, registrationID)); err != nil {
			v.stats.recordStorageFailure()
			entry.Warnf("archive write failed: %v", err)
		}
	}

	entry.Info("verification completed")
	return out
}

// IsClientError reports whether err was caused by the submitted input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidURL)
}
