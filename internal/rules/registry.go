package rules

import (
	"fmt"
	"strings"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
)

// Registry holds rules in registration order. It is built once at start-up
// and only read afterwards, so concurrent Evaluate calls need no locking.
type Registry struct {
	rules []Rule
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register appends r. Names are unique, compared case-insensitively.
func (reg *Registry) Register(r Rule) error {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return fmt.Errorf("rule has no name")
	}
	if r.Eval == nil {
		return fmt.Errorf("rule %q has no evaluation function", name)
	}
	key := strings.ToUpper(name)
	if _, dup := reg.index[key]; dup {
		return fmt.Errorf("rule %q already registered", name)
	}
	r.Name = name
	reg.rules = append(reg.rules, r)
	reg.index[key] = len(reg.rules) - 1
	return nil
}

func (reg *Registry) List() []Rule {
	out := make([]Rule, len(reg.rules))
	copy(out, reg.rules)
	return out
}

func (reg *Registry) Len() int { return len(reg.rules) }

// Get returns a rule by name, used for description lookup.
func (reg *Registry) Get(name string) (Rule, bool) {
	idx, ok := reg.index[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Rule{}, false
	}
	return reg.rules[idx], true
}

// Evaluate applies every rule to text and returns one finding per rule in
// registration order. A rule that errors or panics reports WARNING with the
// evaluation-failed marker; the remaining rules still run.
func (reg *Registry) Evaluate(text string) []finding.Finding {
	out := make([]finding.Finding, 0, len(reg.rules))
	for _, r := range reg.rules {
		out = append(out, evaluate(r, text))
	}
	return out
}

func evaluate(r Rule, text string) (f finding.Finding) {
	f = finding.Finding{Rule: r.Name, Description: r.Description}
	defer func() {
		if rec := recover(); rec != nil {
			f.Severity = finding.Warning
			f.Error = fmt.Sprintf("%s: %v", finding.EvaluationFailed, rec)
		}
	}()

	sev, err := r.Eval(text)
	switch {
	case err != nil:
		f.Severity = finding.Warning
		f.Error = fmt.Sprintf("%s: %v", finding.EvaluationFailed, err)
	case !sev.Valid():
		f.Severity = finding.Warning
		f.Error = fmt.Sprintf("%s: invalid severity %q", finding.EvaluationFailed, sev)
	default:
		f.Severity = sev
	}
	return f
}
