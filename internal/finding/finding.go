package finding

import (
	"fmt"
	"strings"
)

// Severity is the verdict of a single rule. Members are ordered by
// increasing risk; the order is used for display grouping only.
type Severity string

const (
	Pass     Severity = "PASS"
	Warning  Severity = "WARNING"
	Critical Severity = "CRITICAL"
)

// Severities lists every member in increasing order of risk.
var Severities = []Severity{Pass, Warning, Critical}

// Rank returns the display position of s, or -1 for an unknown value.
func (s Severity) Rank() int {
	for i, m := range Severities {
		if m == s {
			return i
		}
	}
	return -1
}

func (s Severity) Valid() bool { return s.Rank() >= 0 }

// ParseSeverity accepts any letter case and the WARN shorthand.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASS":
		return Pass, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "CRITICAL":
		return Critical, nil
	}
	return "", fmt.Errorf("unknown severity %q (want PASS, WARNING or CRITICAL)", s)
}

// EvaluationFailed prefixes Finding.Error when a rule could not be evaluated.
const EvaluationFailed = "rule evaluation failed"

// Finding is one rule's verdict against one configuration text.
type Finding struct {
	Rule        string   `json:"rule" yaml:"rule"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	// Error is set only when the rule failed and Severity was degraded.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (f Finding) Failed() bool { return f.Error != "" }

// Label renders "<rule name>: <SEVERITY>", marking degraded findings.
func (f Finding) Label() string {
	if f.Failed() {
		return fmt.Sprintf("%s: %s (%s)", f.Rule, f.Severity, EvaluationFailed)
	}
	return fmt.Sprintf("%s: %s", f.Rule, f.Severity)
}
