package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/audit"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/bake"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/report"
)

var bakeCmd = &cobra.Command{
	Use:   "bake [file]",
	Short: "Scan the Dockerfile of every target in a Buildx bake file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "docker-bake.hcl"
		if len(args) == 1 {
			path = args[0]
		}

		targets, err := bake.Parse(path)
		if err != nil {
			return err
		}
		app.log.Debugw("bake file parsed", "file", path, "targets", len(targets))

		files := make([]audit.FileReport, 0, len(targets))
		for _, t := range targets {
			files = append(files, scanTarget(path, t))
		}
		return emit(cmd, report.NewDocument(files, time.Now()))
	},
}

func scanTarget(bakeFile string, t bake.Target) audit.FileReport {
	if t.Inline != "" {
		fr, _ := app.scanner.ScanReader(bakeFile+"#"+t.Name, strings.NewReader(t.Inline))
		return fr
	}
	fr, err := app.scanner.ScanFile(t.Path())
	if err != nil {
		fr.Err = err
		app.log.Warnw("bake target skipped", "target", t.Name, "dockerfile", t.Path(), "error", err)
	}
	return fr
}

func init() {
	addReportFlags(bakeCmd)
	rootCmd.AddCommand(bakeCmd)
}
