package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/audit"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/risk"
)

// Formats lists the values accepted by Export.
var Formats = []string{"text", "json", "yaml", "markdown", "gha", "sarif"}

// Document is everything a report renders: one or more scanned files and,
// optionally, the verbatim narrative returned by the advisor.
type Document struct {
	Generated time.Time
	Files     []audit.FileReport
	Analysis  string
}

func NewDocument(files []audit.FileReport, now time.Time) Document {
	return Document{Generated: now.UTC(), Files: files}
}

// Export renders doc in the named format.
func Export(format string, doc Document) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return ExportText(doc)
	case "json":
		return ExportJSON(doc)
	case "yaml":
		return ExportYAML(doc)
	case "markdown", "md":
		return ExportMarkdown(doc)
	case "gha":
		return ExportGitHubActions(doc)
	case "sarif":
		return ExportSARIF(doc)
	}
	return "", fmt.Errorf("unknown report format %q (want one of %s)", format, strings.Join(Formats, ", "))
}

// ExportText returns the plain-text audit report: a timestamp, then for
// each file the score and tier followed by one "<rule>: <SEVERITY>" line
// per finding.
func ExportText(doc Document) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Dockerfile Security Audit Report\n")
	fmt.Fprintf(&b, "Generated: %s\n", doc.Generated.Format(time.RFC3339))

	for _, fr := range doc.Files {
		b.WriteString("\n")
		if fr.Path != "" {
			fmt.Fprintf(&b, "File: %s\n", fr.Path)
		}
		if fr.Err != nil {
			fmt.Fprintf(&b, "Skipped: %v\n", fr.Err)
			continue
		}
		fmt.Fprintf(&b, "Risk Score: %d/100 (%s)\n", fr.Report.Score, fr.Report.Tier)
		for _, f := range fr.Report.Findings {
			b.WriteString(f.Label())
			b.WriteString("\n")
		}
	}

	if doc.Analysis != "" {
		b.WriteString("\nAI Analysis\n-----------\n")
		b.WriteString(doc.Analysis)
		if !strings.HasSuffix(doc.Analysis, "\n") {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

type docView struct {
	Generated string     `json:"generated" yaml:"generated"`
	Files     []fileView `json:"files" yaml:"files"`
	Analysis  string     `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

type fileView struct {
	Path     string            `json:"path,omitempty" yaml:"path,omitempty"`
	Score    int               `json:"risk_score" yaml:"risk_score"`
	Tier     risk.Tier         `json:"risk_tier,omitempty" yaml:"risk_tier,omitempty"`
	Profile  risk.Profile      `json:"profile,omitempty" yaml:"profile,omitempty"`
	Findings []finding.Finding `json:"findings" yaml:"findings"`
	Error    string            `json:"error,omitempty" yaml:"error,omitempty"`
}

func view(doc Document) docView {
	v := docView{
		Generated: doc.Generated.Format(time.RFC3339),
		Files:     make([]fileView, 0, len(doc.Files)),
		Analysis:  doc.Analysis,
	}
	for _, fr := range doc.Files {
		fv := fileView{Path: fr.Path, Error: fr.Error(), Findings: []finding.Finding{}}
		if fr.Err == nil {
			fv.Score = fr.Report.Score
			fv.Tier = fr.Report.Tier
			fv.Profile = fr.Report.Profile
			fv.Findings = fr.Report.Findings
		}
		v.Files = append(v.Files, fv)
	}
	return v
}

// ExportJSON returns the JSON formatted report string.
func ExportJSON(doc Document) (string, error) {
	data, err := json.MarshalIndent(view(doc), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func ExportYAML(doc Document) (string, error) {
	data, err := yaml.Marshal(view(doc))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ExportMarkdown returns a Markdown formatted report string.
func ExportMarkdown(doc Document) (string, error) {
	var b strings.Builder
	b.WriteString("# Dockerfile Security Audit\n\n")
	fmt.Fprintf(&b, "_Generated %s_\n", doc.Generated.Format(time.RFC3339))

	for _, fr := range doc.Files {
		b.WriteString("\n")
		if fr.Path != "" {
			fmt.Fprintf(&b, "## `%s`\n\n", fr.Path)
		}
		if fr.Err != nil {
			fmt.Fprintf(&b, "⚠️ Skipped: %v\n", fr.Err)
			continue
		}
		fmt.Fprintf(&b, "**Risk: %d/100 (%s)**\n\n", fr.Report.Score, fr.Report.Tier)
		b.WriteString("| Check | Status | Why it matters |\n|---|---|---|\n")
		for _, f := range fr.Report.Findings {
			why := ""
			if f.Severity != finding.Pass {
				why = f.Description
			}
			if f.Failed() {
				why = f.Error
			}
			fmt.Fprintf(&b, "| %s | %s %s | %s |\n", escapeCell(f.Rule), icon(f.Severity), f.Severity, escapeCell(why))
		}
	}

	if doc.Analysis != "" {
		b.WriteString("\n## AI Analysis\n\n")
		b.WriteString(doc.Analysis)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// ExportGitHubActions returns a GitHub Actions annotation formatted string.
// PASS findings produce no annotation.
func ExportGitHubActions(doc Document) (string, error) {
	var b strings.Builder
	for _, fr := range doc.Files {
		if fr.Err != nil {
			fmt.Fprintf(&b, "::notice file=%s::%s\n", escapeProperty(fr.Path), escapeGHA("skipped: "+fr.Error()))
			continue
		}
		for _, f := range fr.Report.Findings {
			level := ""
			switch f.Severity {
			case finding.Critical:
				level = "error"
			case finding.Warning:
				level = "warning"
			default:
				continue
			}
			msg := f.Rule
			if f.Description != "" {
				msg += ": " + f.Description
			}
			if f.Failed() {
				msg += " (" + f.Error + ")"
			}
			fmt.Fprintf(&b, "::%s file=%s,title=%s::%s\n", level, escapeProperty(fr.Path), escapeProperty(f.Rule), escapeGHA(msg))
		}
		fmt.Fprintf(&b, "::notice file=%s::%s\n", escapeProperty(fr.Path),
			escapeGHA(fmt.Sprintf("risk score %d/100 (%s)", fr.Report.Score, fr.Report.Tier)))
	}
	return b.String(), nil
}

// escapeGHA escapes annotation message data.
// GitHub Actions supports annotations using special logs:
// ::error file=Dockerfile,title=Secrets in environment::Secrets in ENV can leak sensitive data.
func escapeGHA(msg string) string {
	replacements := []struct{ old, new string }{
		{"%", "%25"},
		{"\r", "%0D"},
		{"\n", "%0A"},
	}
	for _, r := range replacements {
		msg = strings.ReplaceAll(msg, r.old, r.new)
	}
	return msg
}

// escapeProperty additionally escapes the separators of annotation
// properties.
func escapeProperty(s string) string {
	s = escapeGHA(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func icon(s finding.Severity) string {
	switch s {
	case finding.Pass:
		return "🟢"
	case finding.Warning:
		return "🟡"
	default:
		return "🔴"
	}
}
