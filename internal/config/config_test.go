package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/risk"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/rules"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dockaudit.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadDefaults(t *testing.T) {
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if p, _ := cfg.ScoringProfile(); p != risk.ProfileLenient {
		t.Errorf("profile = %s", p)
	}
	opts, _ := cfg.RuleOptions()
	if opts.UserPolicy != rules.UserPolicyRequireUser || opts.LayerThreshold != 5 || len(opts.SensitivePorts) != 3 {
		t.Errorf("rule options = %+v", opts)
	}
	if cfg.Advisor.Provider != "none" || cfg.Advisor.Timeout != 60*time.Second {
		t.Errorf("advisor = %+v", cfg.Advisor)
	}
	if cfg.File != "" {
		t.Errorf("config file = %q, want none", cfg.File)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
scoring:
  profile: strict
rules:
  user_policy: explicit-root
  layer_threshold: 8
  sensitive_ports: [22, 3389]
advisor:
  provider: ollama
  timeout: 5s
logging:
  level: debug
`)
	t.Setenv("DOCKAUDIT_RULES_LAYER_THRESHOLD", "12")
	t.Setenv("DOCKAUDIT_ADVISOR_MODEL", "qwen2.5")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("profile", "", "")
	flags.Duration("timeout", 0, "")
	if err := flags.Parse([]string{"--profile", "lenient"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Scoring.Profile != "lenient" {
		t.Errorf("flag did not override profile: %q", cfg.Scoring.Profile)
	}
	if cfg.Advisor.Timeout != 5*time.Second {
		t.Errorf("unchanged flag overrode file timeout: %s", cfg.Advisor.Timeout)
	}
	if cfg.Rules.LayerThreshold != 12 || cfg.Advisor.Model != "qwen2.5" {
		t.Errorf("env overrides = %d, %q", cfg.Rules.LayerThreshold, cfg.Advisor.Model)
	}
	opts, err := cfg.RuleOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.UserPolicy != rules.UserPolicyExplicitRoot || len(opts.SensitivePorts) != 2 || opts.SensitivePorts[1] != 3389 {
		t.Errorf("rule options = %+v", opts)
	}
	if cfg.File != path {
		t.Errorf("File = %q", cfg.File)
	}
}

func TestLoadOpenAIKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg, err := Load(writeConfig(t, "advisor:\n  provider: openai\n"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Advisor.APIKey != "sk-env" {
		t.Errorf("api key = %q", cfg.Advisor.APIKey)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"profile": "scoring:\n  profile: paranoid\n",
		"policy":  "rules:\n  user_policy: anyone\n",
		"port":    "rules:\n  sensitive_ports: [0]\n",
		"layers":  "rules:\n  layer_threshold: -1\n",
		"zero":    "rules:\n  layer_threshold: 0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content), nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
