// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// wireRecord is the persisted form of a history item. News items carry
// isTrue, website items carry isLegitimate.
type wireRecord struct {
	ID           string   `json:"id,omitempty"`
	IsTrue       *bool    `json:"isTrue,omitempty"`
	IsLegitimate *bool    `json:"isLegitimate,omitempty"`
	Confidence   int      `json:"confidence"`
	Content      string   `json:"content"`
	Type         string   `json:"type"`
	Timestamp    string   `json:"timestamp"`
	Analysis     string   `json:"analysis,omitempty"`
	RiskFactors  []string `json:"riskFactors,omitempty"`
}

var errNoVerdict = errors.New("history item has no verdict")

// MarshalJSON encodes the record in the persisted history format.
func (r Record) MarshalJSON() ([]byte, error) {
	verdict := r.Verdict
	w := wireRecord{
		ID:          r.ID,
		Confidence:  r.Confidence,
		Content:     r.Content,
		Type:        r.Source,
		Timestamp:   r.Timestamp.UTC().Format(time.RFC3339Nano),
		Analysis:    r.Explanation,
		RiskFactors: r.RiskFactors,
	}
	if w.Type == "" {
		w.Type = defaultSource(r.Kind)
	}
	if r.Kind == KindWebsite || w.Type == SourceWebsite {
		w.IsLegitimate = &verdict
	} else {
		w.IsTrue = &verdict
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a persisted history item, ignoring unknown fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid history item")
	}
	rec, err := decodeRecord(gjson.ParseBytes(data))
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

func defaultSource(k Kind) string {
	if k == KindWebsite {
		return SourceWebsite
	}
	return SourceText
}

func decodeRecord(item gjson.Result) (Record, error) {
	if !item.IsObject() {
		return Record{}, errNoVerdict
	}
	verdict := item.Get("isTrue")
	if !isBool(verdict) {
		verdict = item.Get("isLegitimate")
	}
	if !isBool(verdict) {
		return Record{}, errNoVerdict
	}

	source := item.Get("type").String()
	rec := Record{
		ID:          item.Get("id").String(),
		Kind:        KindForSource(source),
		Source:      source,
		Content:     item.Get("content").String(),
		Verdict:     verdict.Bool(),
		Confidence:  int(item.Get("confidence").Int()),
		Explanation: item.Get("analysis").String(),
	}
	if ts := item.Get("timestamp").String(); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t.UTC()
		}
	}
	if factors := item.Get("riskFactors"); factors.IsArray() {
		for _, f := range factors.Array() {
			rec.RiskFactors = append(rec.RiskFactors, f.String())
		}
	}
	return rec, nil
}

func isBool(r gjson.Result) bool {
	return r.Type == gjson.True || r.Type == gjson.False
}

func encodeScore(score int) string {
	return strconv.Itoa(score)
}

func decodeScore(raw string) (int, error) {
	score, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: score %q", ErrStorageCorrupt, raw)
	}
	if score < 0 {
		return 0, fmt.Errorf("%w: negative score %d", ErrStorageCorrupt, score)
	}
	return score, nil
}

func encodeHistory(history []Record) (string, error) {
	if history == nil {
		history = []Record{}
	}
	data, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(data), nil
}

// decodeHistory parses the stored array. Items without a verdict are
// skipped; a document that is not an array is corrupt.
func decodeHistory(raw string) ([]Record, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: history is not valid JSON", ErrStorageCorrupt)
	}
	doc := gjson.Parse(raw)
	if !doc.IsArray() {
		return nil, fmt.Errorf("%w: history is not an array", ErrStorageCorrupt)
	}

	history := make([]Record, 0, MaxHistory)
	doc.ForEach(func(_, item gjson.Result) bool {
		rec, err := decodeRecord(item)
		if err == nil {
			history = append(history, rec)
		}
		return len(history) < MaxHistory
	})
	return history, nil
}

// Encode serializes a ledger into its two persisted values.
func Encode(l Ledger) (score, history string, err error) {
	history, err = encodeHistory(l.History)
	if err != nil {
		return "", "", err
	}
	return encodeScore(l.TotalScore), history, nil
}

// Decode parses the two persisted values. Each one degrades to its zero
// value independently; the returned error reports what was discarded.
func Decode(score, history string) (Ledger, error) {
	var l Ledger
	var errs []error
	if score != "" {
		s, err := decodeScore(score)
		if err != nil {
			errs = append(errs, err)
		}
		l.TotalScore = s
	}
	if history != "" {
		h, err := decodeHistory(history)
		if err != nil {
			errs = append(errs, err)
		}
		l.History = h
	}
	if l.History == nil {
		l.History = []Record{}
	}
	return l, errors.Join(errs...)
}
