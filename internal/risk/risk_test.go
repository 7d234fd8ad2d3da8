package risk

import (
	"testing"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
)

func findings(sevs ...finding.Severity) []finding.Finding {
	out := make([]finding.Finding, len(sevs))
	for i, s := range sevs {
		out[i] = finding.Finding{Rule: string(rune('a' + i)), Severity: s}
	}
	return out
}

func repeat(s finding.Severity, n int) []finding.Severity {
	out := make([]finding.Severity, n)
	for i := range out {
		out[i] = s
	}
	return out
}

func TestTierBoundaries(t *testing.T) {
	tests := []struct {
		score int
		want  Tier
	}{
		{0, TierLow},
		{29, TierLow},
		{30, TierMedium},
		{59, TierMedium},
		{60, TierHigh},
		{100, TierHigh},
	}
	for _, tt := range tests {
		if got := TierFor(tt.score); got != tt.want {
			t.Errorf("TierFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAggregateProfiles(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		sevs    []finding.Severity
		score   int
		tier    Tier
	}{
		{"empty", ProfileLenient, nil, 0, TierLow},
		{"all_pass", ProfileLenient, repeat(finding.Pass, 11), 0, TierLow},
		{"lenient_mixed", ProfileLenient, []finding.Severity{finding.Warning, finding.Critical, finding.Pass}, 15, TierLow},
		{"lenient_thirty", ProfileLenient, repeat(finding.Critical, 3), 30, TierMedium},
		{"lenient_clamped", ProfileLenient, repeat(finding.Critical, 11), 100, TierHigh},
		{"strict_mixed", ProfileStrict, []finding.Severity{finding.Warning, finding.Critical, finding.Pass}, 40, TierMedium},
		{"strict_two_critical", ProfileStrict, repeat(finding.Critical, 2), 60, TierHigh},
		{"strict_clamped", ProfileStrict, repeat(finding.Critical, 4), 100, TierHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Aggregate(findings(tt.sevs...), tt.profile)
			if r.Score != tt.score || r.Tier != tt.tier {
				t.Errorf("got %d/%s, want %d/%s", r.Score, r.Tier, tt.score, tt.tier)
			}
			if len(r.Findings) != len(tt.sevs) {
				t.Errorf("report carries %d findings, want %d", len(r.Findings), len(tt.sevs))
			}
		})
	}
}

func TestAggregateExactBoundaryScores(t *testing.T) {
	// Lenient weights reach every boundary with warnings and criticals.
	tests := []struct {
		warn, crit int
		score      int
		tier       Tier
	}{
		{1, 2, 25, TierLow},
		{2, 2, 30, TierMedium},
		{1, 5, 55, TierMedium},
		{0, 6, 60, TierHigh},
	}
	for _, tt := range tests {
		sevs := append(repeat(finding.Warning, tt.warn), repeat(finding.Critical, tt.crit)...)
		r := Aggregate(findings(sevs...), ProfileLenient)
		if r.Score != tt.score || r.Tier != tt.tier {
			t.Errorf("%dW+%dC = %d/%s, want %d/%s", tt.warn, tt.crit, r.Score, r.Tier, tt.score, tt.tier)
		}
	}
}

func TestAggregateMonotonic(t *testing.T) {
	base := findings(finding.Warning, finding.Pass, finding.Critical)
	for _, p := range []Profile{ProfileLenient, ProfileStrict} {
		prev := Aggregate(base, p).Score
		fs := base
		for i := 0; i < 12; i++ {
			fs = append(fs, finding.Finding{Rule: "extra", Severity: finding.Critical})
			got := Aggregate(fs, p).Score
			if got < prev {
				t.Fatalf("%s: score dropped from %d to %d", p, prev, got)
			}
			if got > MaxScore {
				t.Fatalf("%s: score %d exceeds %d", p, got, MaxScore)
			}
			prev = got
		}
	}
}

func TestAggregateDoesNotAliasInput(t *testing.T) {
	in := findings(finding.Critical)
	r := Aggregate(in, ProfileLenient)
	in[0].Severity = finding.Pass
	if r.Findings[0].Severity != finding.Critical {
		t.Error("report shares its findings slice with the caller")
	}
}

func TestUnknownProfileFallsBack(t *testing.T) {
	r := Aggregate(findings(finding.Warning), Profile("mystery"))
	if r.Profile != DefaultProfile || r.Score != 5 {
		t.Errorf("got %s/%d, want %s/5", r.Profile, r.Score, DefaultProfile)
	}
}

func TestParseProfile(t *testing.T) {
	for in, want := range map[string]Profile{"": ProfileLenient, "STRICT": ProfileStrict, " lenient ": ProfileLenient} {
		got, err := ParseProfile(in)
		if err != nil || got != want {
			t.Errorf("ParseProfile(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseProfile("paranoid"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestCount(t *testing.T) {
	r := Aggregate(findings(finding.Warning, finding.Critical, finding.Warning), ProfileLenient)
	if r.Count(finding.Warning) != 2 || r.Count(finding.Critical) != 1 || r.Count(finding.Pass) != 0 {
		t.Errorf("counts = %d/%d/%d", r.Count(finding.Pass), r.Count(finding.Warning), r.Count(finding.Critical))
	}
}
