// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ledger keeps the verification ledger: a cumulative score and a
// bounded, newest-first history of recent verdicts, persisted through a
// kv.Backend and observable through change notifications.
package ledger

import (
	"time"
	"unicode/utf8"
)

const (
	// ScoreKey holds the decimal total score.
	ScoreKey = "verificationScore"
	// HistoryKey holds the JSON history array.
	HistoryKey = "verificationHistory"

	// Reward is added to the total score for every true verdict.
	Reward = 10
	// MaxHistory caps the number of records kept in the history.
	MaxHistory = 10
	// SummaryLimit is the number of characters of input kept per record.
	SummaryLimit = 100
)

// Kind identifies which evaluator produced a record.
type Kind string

const (
	KindNews    Kind = "news"
	KindWebsite Kind = "website"
	KindCompany Kind = "company"
)

// Source values stored in the wire "type" field.
const (
	SourceText    = "text"
	SourceURL     = "url"
	SourceWebsite = "website"
)

// Record is one verification result. Records are immutable once built.
type Record struct {
	ID          string
	Kind        Kind
	Source      string
	Content     string
	Verdict     bool
	Confidence  int
	Explanation string
	RiskFactors []string
	Timestamp   time.Time
}

// Scored reports whether records of this kind count towards the ledger.
func (k Kind) Scored() bool {
	return k == KindNews || k == KindWebsite
}

// KindForSource maps a wire "type" value back to the evaluator kind.
func KindForSource(source string) Kind {
	if source == SourceWebsite {
		return KindWebsite
	}
	return KindNews
}

// Summarize truncates s to SummaryLimit characters, appending "..." when
// anything was cut.
func Summarize(s string) string {
	if utf8.RuneCountInString(s) <= SummaryLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:SummaryLimit]) + "..."
}

// Ledger is a snapshot of the persisted state.
type Ledger struct {
	TotalScore int      `json:"totalScore"`
	History    []Record `json:"history"`
}

// Clone returns a copy whose History can be modified independently.
func (l Ledger) Clone() Ledger {
	out := Ledger{TotalScore: l.TotalScore, History: make([]Record, len(l.History))}
	copy(out.History, l.History)
	return out
}
