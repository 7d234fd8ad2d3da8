package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/audit"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/report"
)

// explainCmd prints the static report followed by the advisor's narrative.
// The static report never waits on, or depends on, the advisor succeeding.
var explainCmd = &cobra.Command{
	Use:   "explain [file|-]",
	Short: "Scan a Dockerfile and ask the configured model to explain the risks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		name := args[0]
		if name == "-" {
			name = "<stdin>"
		}
		fr := scanText(name, text)
		files := []audit.FileReport{fr}
		if emptyNotice(cmd, files) {
			return nil
		}

		doc := report.NewDocument(files, time.Now())
		res := app.advisor.Explain(cmd.Context(), text)
		doc.Analysis = res.Display()
		return emit(cmd, doc)
	},
}

func init() {
	addReportFlags(explainCmd)
	rootCmd.AddCommand(explainCmd)
}
