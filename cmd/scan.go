package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/audit"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/report"
)

// scanCmd scans a Dockerfile, a directory of Dockerfiles, or stdin.
var scanCmd = &cobra.Command{
	Use:   "scan [path|-]",
	Short: "Scan a Dockerfile, every Dockerfile under a directory, or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "."
		if len(args) == 1 {
			path = args[0]
		}

		var files []audit.FileReport
		if path == "-" {
			fr, err := app.scanner.ScanReader("<stdin>", cmd.InOrStdin())
			if err != nil {
				return err
			}
			files = []audit.FileReport{fr}
		} else {
			var err error
			files, err = app.scanner.ScanPath(path)
			if err != nil {
				return err
			}
		}

		if emptyNotice(cmd, files) {
			return nil
		}
		app.log.Debugw("scan complete", "path", path, "files", len(files), "profile", app.scanner.Profile())
		return emit(cmd, report.NewDocument(files, time.Now()))
	},
}

// scanText is shared by the advisor commands, which need the source text as
// well as its report.
func scanText(name, text string) audit.FileReport {
	fr, _ := app.scanner.ScanReader(name, strings.NewReader(text))
	return fr
}

func init() {
	addReportFlags(scanCmd)
	rootCmd.AddCommand(scanCmd)
}
