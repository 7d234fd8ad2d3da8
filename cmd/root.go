package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/advisor"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/audit"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/config"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/logging"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/report"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/rulepack"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/rules"
)

var (
	cfgFile string
	debug   bool
	noColor bool

	reportFormat string
	outputFile   string
)

// env carries what every command needs. It is built once per invocation in
// the root command's PersistentPreRunE.
type env struct {
	cfg     *config.Config
	log     *zap.SugaredLogger
	scanner *audit.Scanner
	advisor *advisor.Advisor
}

var app *env

var rootCmd = &cobra.Command{
	Use:   "dockaudit",
	Short: "Static security analysis for Dockerfiles",
	Long: `dockaudit checks Dockerfiles against a fixed set of security rules,
scores the result into a LOW, MEDIUM or HIGH risk tier, and can ask an
external language model to explain the findings or propose a hardened file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		app = e
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			_ = app.log.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default .dockaudit.yaml in the working directory or $HOME)")
	pf.String("profile", "", "scoring profile: lenient|strict")
	pf.String("user-policy", "", "non-root user rule: require-user|explicit-root")
	pf.String("rules", "", "YAML rule pack appended to the built-in rules")
	pf.String("provider", "", "advisor provider: openai|ollama|none")
	pf.String("model", "", "advisor model name")
	pf.Duration("timeout", 0, "advisor request timeout")
	pf.String("log-level", "", "log level: debug|info|warn|error")
	pf.String("log-format", "", "log format: console|json")
	pf.BoolVar(&debug, "debug", false, "shorthand for --log-level debug")
	pf.BoolVar(&noColor, "no-color", false, "disable colored console output")
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		log.Debugw("loaded config", "file", cfg.File)
	}

	opts, err := cfg.RuleOptions()
	if err != nil {
		return nil, err
	}
	reg := rules.Builtin(opts)
	if cfg.Rules.Pack != "" {
		n, err := rulepack.LoadInto(reg, cfg.Rules.Pack)
		if err != nil {
			return nil, err
		}
		log.Infow("loaded rule pack", "file", cfg.Rules.Pack, "rules", n)
	}

	profile, err := cfg.ScoringProfile()
	if err != nil {
		return nil, err
	}

	client, err := advisor.NewClient(cfg.AdvisorConfig())
	if err != nil {
		return nil, err
	}

	if noColor {
		color.NoColor = true
	}

	return &env{
		cfg:     cfg,
		log:     log,
		scanner: audit.NewScanner(reg, profile, log),
		advisor: advisor.New(client, cfg.Advisor.Timeout, log),
	}, nil
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&reportFormat, "format", "f", "", "Output format: "+strings.Join(report.Formats, "|")+" (default console on a terminal, text otherwise)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "write the report to a file instead of stdout")
}

// emit renders doc using the --format and --output flags. With neither set
// and stdout attached to a terminal, the colored console view is used.
func emit(cmd *cobra.Command, doc report.Document) error {
	if reportFormat == "" && outputFile == "" && isTerminal(os.Stdout) {
		report.WriteConsole(cmd.OutOrStdout(), doc)
		return nil
	}

	out, err := report.Export(reportFormat, doc)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	if outputFile == "" {
		_, err = io.WriteString(cmd.OutOrStdout(), out)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	app.log.Infow("report written", "file", outputFile, "format", reportFormat)
	return nil
}

// emptyNotice reports blank input the way an interactive user expects and
// reports whether it did.
func emptyNotice(cmd *cobra.Command, files []audit.FileReport) bool {
	if len(files) != 1 || !errors.Is(files[0].Err, audit.ErrEmptyInput) {
		return false
	}
	fmt.Fprintln(cmd.ErrOrStderr(), "No Dockerfile content found. Please provide a Dockerfile first.")
	return true
}

// readInput returns the text of path, or of stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
