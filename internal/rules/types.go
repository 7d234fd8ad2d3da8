package rules

import "github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"

// Rule is a named, pure predicate over the raw Dockerfile text.
type Rule struct {
	Name        string
	Description string
	// Eval returns exactly one severity. A non-nil error degrades the
	// finding to WARNING instead of aborting the scan.
	Eval func(text string) (finding.Severity, error)
}
