// Package risk turns a sequence of findings into a bounded risk score and
// a coarse risk tier.
package risk

import (
	"fmt"
	"strings"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
)

// MaxScore is the saturation point of the score. Once enough findings
// accumulate the score stops growing.
const MaxScore = 100

// Tier is the coarse bucket derived from a score.
type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// Profile names a severity weight table.
type Profile string

const (
	// ProfileLenient weighs WARNING=5, CRITICAL=10.
	ProfileLenient Profile = "lenient"
	// ProfileStrict weighs WARNING=10, CRITICAL=30.
	ProfileStrict Profile = "strict"
)

// DefaultProfile is the profile used when none is configured.
const DefaultProfile = ProfileLenient

// Weights maps each severity to the points it adds. PASS is always 0.
type Weights struct {
	Warning  int `json:"warning" yaml:"warning"`
	Critical int `json:"critical" yaml:"critical"`
}

var profiles = map[Profile]Weights{
	ProfileLenient: {Warning: 5, Critical: 10},
	ProfileStrict:  {Warning: 10, Critical: 30},
}

func ParseProfile(s string) (Profile, error) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return DefaultProfile, nil
	}
	if _, ok := profiles[p]; !ok {
		return "", fmt.Errorf("unknown scoring profile %q (want %s or %s)", s, ProfileLenient, ProfileStrict)
	}
	return p, nil
}

// Weights returns the table for p; an unknown profile falls back to the
// default one.
func (p Profile) Weights() Weights {
	if w, ok := profiles[p]; ok {
		return w
	}
	return profiles[DefaultProfile]
}

func (w Weights) Of(s finding.Severity) int {
	switch s {
	case finding.Warning:
		return w.Warning
	case finding.Critical:
		return w.Critical
	default:
		return 0
	}
}

// Report is the read-only result of one scan.
type Report struct {
	Findings []finding.Finding `json:"findings" yaml:"findings"`
	Score    int               `json:"risk_score" yaml:"risk_score"`
	Tier     Tier              `json:"risk_tier" yaml:"risk_tier"`
	Profile  Profile           `json:"profile" yaml:"profile"`
}

// Aggregate scores findings under profile. It cannot fail; an empty input
// yields score 0 and tier LOW.
func Aggregate(findings []finding.Finding, profile Profile) Report {
	if _, ok := profiles[profile]; !ok {
		profile = DefaultProfile
	}
	fs := make([]finding.Finding, len(findings))
	copy(fs, findings)
	score := Score(fs, profile.Weights())
	return Report{
		Findings: fs,
		Score:    score,
		Tier:     TierFor(score),
		Profile:  profile,
	}
}

// Score sums the weights of findings and clamps the total to MaxScore.
func Score(findings []finding.Finding, w Weights) int {
	total := 0
	for _, f := range findings {
		total += w.Of(f.Severity)
	}
	if total > MaxScore {
		total = MaxScore
	}
	return total
}

// TierFor classifies a score: LOW below 30, MEDIUM below 60, HIGH otherwise.
func TierFor(score int) Tier {
	switch {
	case score < 30:
		return TierLow
	case score < 60:
		return TierMedium
	default:
		return TierHigh
	}
}

// Count returns how many findings carry severity s.
func (r Report) Count(s finding.Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == s {
			n++
		}
	}
	return n
}
