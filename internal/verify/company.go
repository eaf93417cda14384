// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package verify

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/traylinx/truthscore/internal/ledger"
)

// Company status strings.
const (
	StatusLegitimate   = "Appears Legitimate"
	StatusCannotVerify = "Cannot Verify"
)

const (
	registrationPrefix   = "CIN-"
	registrationLength   = 9
	registrationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	companySuffixes = []string{"LIMITED", "LTD", "PVT", "PRIVATE", "PUBLIC"}
	knownCompanies  = []string{
		"RELIANCE", "TATA", "INFOSYS", "TCS", "WIPRO", "HDFC", "ICICI", "SBI",
		"BHARTI", "ADANI", "MAHINDRA", "BAJAJ", "MARUTI", "HINDUSTAN", "ITC",
		"LARSEN", "TOUBRO", "AXIS", "KOTAK",
	}
	stockSymbolPattern = regexp.MustCompile(`^[A-Z]+\.?(?:NS|BO)?$`)

	namePolicy = bluemonday.StrictPolicy()
)

// CompanySignals are the heuristics computed for one company name.
type CompanySignals struct {
	ValidSuffix  bool
	StockSymbol  bool
	KnownCompany bool
}

// Legitimate reports whether any signal holds.
func (s CompanySignals) Legitimate() bool {
	return s.ValidSuffix || s.StockSymbol || s.KnownCompany
}

// CompanyResult is the advisory outcome of a company check. It never
// enters the ledger.
type CompanyResult struct {
	ID      string
	Name    string
	Verdict bool
	Status  string
	// RegistrationID is a random placeholder in CIN format. It does not
	// identify any real registration.
	RegistrationID string
	Details        string
	Signals        CompanySignals
	Timestamp      time.Time
}

// AnalyzeCompany computes the signals for name.
func AnalyzeCompany(name string) CompanySignals {
	upper := strings.ToUpper(strings.TrimSpace(name))
	return CompanySignals{
		ValidSuffix:  containsAny(upper, companySuffixes),
		StockSymbol:  stockSymbolPattern.MatchString(stripSpace(upper)),
		KnownCompany: containsAny(upper, knownCompanies),
	}
}

// EvaluateCompany checks name against naming heuristics.
func EvaluateCompany(name string) CompanyResult {
	name = strings.TrimSpace(name)
	sig := AnalyzeCompany(name)
	res := CompanyResult{
		ID:        uuid.NewString(),
		Name:      name,
		Verdict:   sig.Legitimate(),
		Signals:   sig,
		Timestamp: now(),
	}
	if res.Verdict {
		res.Status = StatusLegitimate
		res.RegistrationID = FakeRegistrationID()
		res.Details = namePolicy.Sanitize(name) + " matches common company naming patterns and appears to be legitimate."
	} else {
		res.Status = StatusCannotVerify
		res.Details = "Company name doesn't match standard formats. Please verify the spelling or check official SEBI records."
	}
	return res
}

// Record converts the result into a ledger record for archiving.
func (r CompanyResult) Record() ledger.Record {
	confidence := 50
	if r.Verdict {
		confidence = 85
	}
	return ledger.Record{
		ID:          r.ID,
		Kind:        ledger.KindCompany,
		Source:      string(ledger.KindCompany),
		Content:     r.Name,
		Verdict:     r.Verdict,
		Confidence:  confidence,
		Explanation: r.Details,
		Timestamp:   r.Timestamp,
	}
}

// FakeRegistrationID returns "CIN-" followed by nine random characters
// from [A-Z0-9]. The value is cosmetic and not cryptographically random.
func FakeRegistrationID() string {
	b := make([]byte, registrationLength)
	for i := range b {
		b[i] = registrationAlphabet[rand.IntN(len(registrationAlphabet))]
	}
	return registrationPrefix + string(b)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
