package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/risk"
)

var (
	passColor     = color.New(color.FgGreen)
	warningColor  = color.New(color.FgYellow)
	criticalColor = color.New(color.FgRed, color.Bold)
	headingColor  = color.New(color.FgCyan, color.Bold)
	dimColor      = color.New(color.Faint)
)

const barWidth = 20

// WriteConsole renders doc as colored status lines with a risk bar.
// Color is governed by color.NoColor, which callers disable when the
// output is not a terminal.
func WriteConsole(w io.Writer, doc Document) {
	for i, fr := range doc.Files {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if fr.Path != "" {
			headingColor.Fprintf(w, "📄 %s\n", fr.Path)
		}
		if fr.Err != nil {
			warningColor.Fprintf(w, "⚠ %v\n", fr.Err)
			continue
		}

		rep := fr.Report
		fmt.Fprintf(w, "🔐 Overall Risk Level: %d%% %s\n", rep.Score, bar(rep.Score))
		tierColor(rep.Tier).Fprintf(w, "%s %s RISK\n", tierIcon(rep.Tier), rep.Tier)
		fmt.Fprintln(w)

		for _, f := range rep.Findings {
			switch f.Severity {
			case finding.Pass:
				passColor.Fprintf(w, "🟢 %s → Secure configuration detected\n", f.Rule)
			case finding.Warning:
				warningColor.Fprintf(w, "🟡 %s\n", f.Rule)
				writeDetail(w, f)
			default:
				criticalColor.Fprintf(w, "🔴 %s\n", f.Rule)
				writeDetail(w, f)
			}
		}
	}

	if doc.Analysis != "" {
		fmt.Fprintln(w)
		headingColor.Fprintln(w, "🤖 AI Analysis")
		fmt.Fprintln(w, doc.Analysis)
	}
}

func writeDetail(w io.Writer, f finding.Finding) {
	if f.Description != "" {
		fmt.Fprintf(w, "   👉 %s\n", f.Description)
	}
	if f.Failed() {
		dimColor.Fprintf(w, "   %s\n", f.Error)
	}
}

func bar(score int) string {
	filled := score * barWidth / risk.MaxScore
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "]"
}

func tierColor(t risk.Tier) *color.Color {
	switch t {
	case risk.TierLow:
		return passColor
	case risk.TierMedium:
		return warningColor
	default:
		return criticalColor
	}
}

func tierIcon(t risk.Tier) string {
	switch t {
	case risk.TierLow:
		return "🟢"
	case risk.TierMedium:
		return "🟡"
	default:
		return "🔴"
	}
}
