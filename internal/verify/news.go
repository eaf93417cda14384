// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package verify holds the heuristic evaluators for news, websites and
// companies, and the Verifier that runs them and records their verdicts.
package verify

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/traylinx/truthscore/internal/ledger"
)

// now stamps new records; tests replace it.
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

var (
	clickbaitPhrases = []string{"shocking", "unbelievable", "miracle", "secret", "doctors hate"}
	sourcePhrases    = []string{"source", "study", "research"}
)

const (
	newsBaseScore      = 80
	clickbaitPenalty   = 20
	sourceBonus        = 10
	sensationalPenalty = 15
	maxExclamations    = 3
	credibleThreshold  = 70
	minNewsConfidence  = 50
	maxNewsConfidence  = 95
)

// NewsSignals are the heuristics that fired for one piece of content.
type NewsSignals struct {
	Clickbait   bool
	HasSources  bool
	Sensational bool
	Score       int
}

// AnalyzeNews computes the raw signals and score for content.
func AnalyzeNews(content string) NewsSignals {
	lower := strings.ToLower(content)
	sig := NewsSignals{
		Clickbait:   containsAny(lower, clickbaitPhrases),
		HasSources:  containsAny(lower, sourcePhrases),
		Sensational: strings.Count(content, "!") > maxExclamations,
	}

	sig.Score = newsBaseScore
	if sig.Clickbait {
		sig.Score -= clickbaitPenalty
	}
	if sig.HasSources {
		sig.Score += sourceBonus
	}
	if sig.Sensational {
		sig.Score -= sensationalPenalty
	}
	return sig
}

// Credible reports whether the score reaches the credibility threshold.
func (s NewsSignals) Credible() bool { return s.Score >= credibleThreshold }

// Confidence is the score clamped to the reported range.
func (s NewsSignals) Confidence() int {
	return clamp(s.Score, minNewsConfidence, maxNewsConfidence)
}

// Explanation lists the signals that fired, in the order the UI shows them.
func (s NewsSignals) Explanation() string {
	var b strings.Builder
	if s.Credible() {
		b.WriteString("This content appears credible. ")
		if s.HasSources {
			b.WriteString("It references sources or research. ")
		}
		b.WriteString("No obvious clickbait patterns detected.")
		return b.String()
	}

	b.WriteString("This content may lack credibility. ")
	if s.Clickbait {
		b.WriteString("Contains clickbait language. ")
	}
	if !s.HasSources {
		b.WriteString("No clear sources cited. ")
	}
	if s.Sensational {
		b.WriteString("Excessive sensational language detected.")
	}
	return strings.TrimSpace(b.String())
}

// EvaluateNews scores content. source is the wire type ("text" or "url");
// anything else is recorded as "text". content must already be trimmed
// and non-empty.
func EvaluateNews(content, source string) ledger.Record {
	sig := AnalyzeNews(content)
	if source != ledger.SourceURL {
		source = ledger.SourceText
	}
	return ledger.Record{
		ID:          uuid.NewString(),
		Kind:        ledger.KindNews,
		Source:      source,
		Content:     content,
		Verdict:     sig.Credible(),
		Confidence:  sig.Confidence(),
		Explanation: sig.Explanation(),
		Timestamp:   now(),
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
