// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/traylinx/truthscore/internal/ledger"
)

var (
	suspiciousHostPatterns = []string{"bit.ly", "tinyurl", "free", "promo", "win", "click"}
	commonTLDs             = []string{".com", ".org", ".net", ".edu", ".gov"}
)

// Risk factor labels.
const (
	RiskHTTPSEnabled     = "HTTPS enabled"
	RiskStandardDomain   = "Standard domain structure"
	RiskNoSuspicious     = "No suspicious patterns"
	RiskNoHTTPS          = "No HTTPS encryption"
	RiskSuspiciousDomain = "Suspicious domain pattern"
	RiskUnusualDomainExt = "Unusual domain extension"
)

// WebsiteSignals are the heuristics computed for one URL.
type WebsiteSignals struct {
	Host       string
	Secure     bool
	Suspicious bool
	CommonTLD  bool
}

// AnalyzeWebsite parses rawURL and computes its signals. The URL must be
// absolute: both scheme and host are required.
func AnalyzeWebsite(rawURL string) (WebsiteSignals, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return WebsiteSignals{}, &InvalidURLError{Input: rawURL, Err: err}
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return WebsiteSignals{}, &InvalidURLError{Input: rawURL, Err: errors.New("scheme and host are required")}
	}

	host := strings.ToLower(u.Hostname())
	return WebsiteSignals{
		Host:       host,
		Secure:     strings.EqualFold(u.Scheme, "https"),
		Suspicious: containsAny(host, suspiciousHostPatterns),
		CommonTLD:  hasAnySuffix(host, commonTLDs),
	}, nil
}

// Legitimate reports the website verdict.
func (s WebsiteSignals) Legitimate() bool {
	return s.Secure && !s.Suspicious && s.CommonTLD
}

// Confidence depends only on the scheme and the suspicious-pattern check.
func (s WebsiteSignals) Confidence() int {
	switch {
	case !s.Secure:
		return 50
	case s.Suspicious:
		return 60
	default:
		return 85
	}
}

// RiskFactors returns the affirmative list for a legitimate site, or the
// failing checks in fixed order otherwise.
func (s WebsiteSignals) RiskFactors() []string {
	if s.Legitimate() {
		return []string{RiskHTTPSEnabled, RiskStandardDomain, RiskNoSuspicious}
	}
	factors := make([]string, 0, 3)
	if !s.Secure {
		factors = append(factors, RiskNoHTTPS)
	}
	if s.Suspicious {
		factors = append(factors, RiskSuspiciousDomain)
	}
	if !s.CommonTLD {
		factors = append(factors, RiskUnusualDomainExt)
	}
	return factors
}

// Explanation summarizes the verdict for display.
func (s WebsiteSignals) Explanation() string {
	if s.Legitimate() {
		return "This website uses HTTPS and has a standard domain structure. It appears to follow security best practices."
	}
	var b strings.Builder
	b.WriteString("This website may have security concerns. ")
	if !s.Secure {
		b.WriteString("No HTTPS encryption detected. ")
	}
	if s.Suspicious {
		b.WriteString("Domain patterns suggest caution. ")
	}
	return strings.TrimSpace(b.String())
}

// EvaluateWebsite scores rawURL. It fails with *InvalidURLError when the
// input is not an absolute URL.
func EvaluateWebsite(rawURL string) (ledger.Record, error) {
	sig, err := AnalyzeWebsite(rawURL)
	if err != nil {
		return ledger.Record{}, err
	}
	return ledger.Record{
		ID:          uuid.NewString(),
		Kind:        ledger.KindWebsite,
		Source:      ledger.SourceWebsite,
		Content:     rawURL,
		Verdict:     sig.Legitimate(),
		Confidence:  sig.Confidence(),
		Explanation: sig.Explanation(),
		RiskFactors: sig.RiskFactors(),
		Timestamp:   now(),
	}, nil
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
