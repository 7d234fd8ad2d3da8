package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
)

// ToolName and ToolVersion identify the analyzer in SARIF output.
const (
	ToolName    = "dockaudit"
	ToolVersion = "0.1.0"
)

const sarifSchema = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"` // error, warning, note
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// ExportSARIF renders non-PASS findings as a SARIF 2.1.0 log. Findings carry
// no line information, so every result points at line 1 of its file.
func ExportSARIF(doc Document) (string, error) {
	results := []sarifResult{}
	var driverRules []sarifRule
	seen := map[string]bool{}

	for _, fr := range doc.Files {
		if fr.Err != nil {
			continue
		}
		uri := toURI(fr.Path)
		if uri == "" {
			uri = "Dockerfile"
		}
		for _, f := range fr.Report.Findings {
			if f.Severity == finding.Pass {
				continue
			}
			id := ruleID(f.Rule)
			if !seen[id] {
				seen[id] = true
				driverRules = append(driverRules, sarifRule{ID: id, ShortDescription: sarifMessage{Text: f.Rule}})
			}
			text := f.Rule
			if f.Description != "" {
				text = fmt.Sprintf("%s: %s", f.Rule, f.Description)
			}
			if f.Failed() {
				text += " (" + f.Error + ")"
			}
			results = append(results, sarifResult{
				RuleID:  id,
				Level:   sevToLevel(f.Severity),
				Message: sarifMessage{Text: text},
				Locations: []sarifLocation{{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: uri},
						Region:           sarifRegion{StartLine: 1},
					},
				}},
			})
		}
	}

	log := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool:    sarifTool{Driver: sarifDriver{Name: ToolName, Version: ToolVersion, Rules: driverRules}},
			Results: results,
		}},
	}
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sarif: %w", err)
	}
	return string(data), nil
}

func sevToLevel(s finding.Severity) string {
	switch s {
	case finding.Critical:
		return "error"
	case finding.Warning:
		return "warning"
	default:
		return "note"
	}
}

// ruleID turns a display name into a stable kebab-case identifier.
func ruleID(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func toURI(p string) string {
	p = strings.TrimSpace(p)
	p = filepath.ToSlash(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	return strings.TrimPrefix(p, "./")
}
