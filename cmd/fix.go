package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/audit"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/report"
)

var fixOut string

// fixCmd writes the model's rewrite exactly as received and re-scans it.
// Nothing about the rewrite is trusted: it gets the same report as any
// other input.
var fixCmd = &cobra.Command{
	Use:   "fix [file]",
	Short: "Ask the configured model for a hardened Dockerfile and re-scan it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if path == "-" && fixOut == "" {
			return fmt.Errorf("--out is required when reading from stdin")
		}
		text, err := readInput(cmd, path)
		if err != nil {
			return err
		}
		if emptyNotice(cmd, []audit.FileReport{scanText(path, text)}) {
			return nil
		}

		res := app.advisor.Rewrite(cmd.Context(), text)
		if !res.Available {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Display())
			return fmt.Errorf("no rewrite produced for %s: %w", path, res.Err)
		}

		out := fixOut
		if out == "" {
			out = path + ".secure"
		}
		if err := os.WriteFile(out, []byte(res.Text), 0o644); err != nil {
			return fmt.Errorf("write rewrite: %w", err)
		}
		app.log.Infow("rewrite written", "file", out, "elapsed", res.Elapsed)

		fr, err := app.scanner.ScanFile(out)
		if err != nil {
			return err
		}
		return emit(cmd, report.NewDocument([]audit.FileReport{fr}, time.Now()))
	},
}

func init() {
	fixCmd.Flags().StringVar(&fixOut, "out", "", "where to write the rewrite (default <file>.secure)")
	addReportFlags(fixCmd)
	rootCmd.AddCommand(fixCmd)
}
