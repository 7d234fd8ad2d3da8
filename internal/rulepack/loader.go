// Package rulepack compiles YAML pattern rules into extra registry rules.
// Packs are read once at start-up, before any scan runs.
package rulepack

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/rules"
)

type pack struct {
	Rules []packRule `yaml:"rules"`
}

type packRule struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Pattern     string `yaml:"pattern"`    // Go regexp, matched against the full text
	Severity    string `yaml:"severity"`   // when the pattern matches
	Otherwise   string `yaml:"otherwise"`  // when it does not (default PASS)
	IgnoreCase  bool   `yaml:"ignore_case"`
}

// LoadInto reads the pack at path and registers its rules after the ones
// already in reg. It returns the number of rules added.
func LoadInto(reg *rules.Registry, path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read rule pack: %w", err)
	}
	rs, err := Parse(b)
	if err != nil {
		return 0, fmt.Errorf("rule pack %s: %w", path, err)
	}
	for i, r := range rs {
		if err := reg.Register(r); err != nil {
			return i, fmt.Errorf("rule pack %s: %w", path, err)
		}
	}
	return len(rs), nil
}

// Parse compiles pack rules. A pattern that does not compile still yields a
// rule; evaluating it reports the compile error so the scan degrades that
// one finding instead of refusing the pack.
func Parse(data []byte) ([]rules.Rule, error) {
	var p pack
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out := make([]rules.Rule, 0, len(p.Rules))
	for i, pr := range p.Rules {
		r, err := compile(pr)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i+1, pr.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func compile(pr packRule) (rules.Rule, error) {
	if strings.TrimSpace(pr.Name) == "" || pr.Pattern == "" || pr.Severity == "" {
		return rules.Rule{}, fmt.Errorf("missing required fields (name/pattern/severity)")
	}
	onMatch, err := finding.ParseSeverity(pr.Severity)
	if err != nil {
		return rules.Rule{}, err
	}
	otherwise := finding.Pass
	if pr.Otherwise != "" {
		if otherwise, err = finding.ParseSeverity(pr.Otherwise); err != nil {
			return rules.Rule{}, err
		}
	}

	expr := pr.Pattern
	if pr.IgnoreCase {
		expr = "(?i)" + expr
	}
	re, compileErr := regexp.Compile(expr)

	return rules.Rule{
		Name:        pr.Name,
		Description: pr.Description,
		Eval: func(text string) (finding.Severity, error) {
			if compileErr != nil {
				return "", fmt.Errorf("pattern: %w", compileErr)
			}
			if re.MatchString(text) {
				return onMatch, nil
			}
			return otherwise, nil
		},
	}, nil
}
