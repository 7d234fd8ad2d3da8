package rules

import (
	"strings"
	"testing"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
)

const hardened = `# syntax=docker/dockerfile:1
FROM debian:12-slim
RUN apt-get update && \
    apt-get install -y --no-install-recommends ca-certificates && \
    rm -rf /var/lib/apt/lists/*
COPY app /usr/local/bin/app
EXPOSE 8080
USER app
HEALTHCHECK CMD ["/usr/local/bin/app", "health"]
ENTRYPOINT ["/usr/local/bin/app"]
`

func severityOf(t *testing.T, reg *Registry, name, text string) finding.Severity {
	t.Helper()
	for _, f := range reg.Evaluate(text) {
		if f.Rule == name {
			if f.Failed() {
				t.Fatalf("rule %q failed: %s", name, f.Error)
			}
			return f.Severity
		}
	}
	t.Fatalf("rule %q not evaluated", name)
	return ""
}

func TestBuiltinHardenedPasses(t *testing.T) {
	reg := Builtin(DefaultOptions())
	for _, f := range reg.Evaluate(hardened) {
		if f.Severity != finding.Pass {
			t.Errorf("%s = %s, want PASS", f.Rule, f.Severity)
		}
	}
}

func TestBuiltinRules(t *testing.T) {
	tests := []struct {
		name string
		rule string
		text string
		want finding.Severity
	}{
		{"from_present", RuleBaseImage, "FROM alpine:3.19", finding.Pass},
		{"from_lowercase", RuleBaseImage, "from alpine:3.19", finding.Pass},
		{"from_missing", RuleBaseImage, "RUN echo hi", finding.Critical},
		{"from_only_in_comment", RuleBaseImage, "# FROM alpine", finding.Critical},

		{"latest_tag", RuleLatestTag, "FROM nginx:latest", finding.Warning},
		{"pinned_tag", RuleLatestTag, "FROM nginx:1.27", finding.Pass},

		{"user_root", RuleNonRootUser, "FROM a\nUSER root", finding.Critical},
		{"user_uid_zero", RuleNonRootUser, "FROM a\nUSER 0:0", finding.Critical},
		{"user_root_group", RuleNonRootUser, "FROM a\nUSER root:wheel", finding.Critical},
		{"user_switched_back", RuleNonRootUser, "FROM a\nUSER root\nRUN x\nUSER app", finding.Pass},
		{"user_missing", RuleNonRootUser, "FROM a\nCMD x", finding.Critical},
		{"user_only_in_builder", RuleNonRootUser, "FROM a AS build\nUSER app\nFROM b\nCMD x", finding.Critical},
		{"user_rootless_name", RuleNonRootUser, "FROM a\nUSER rootless", finding.Pass},

		{"healthcheck", RuleHealthcheck, "HEALTHCHECK CMD curl -f http://localhost/", finding.Pass},
		{"healthcheck_none", RuleHealthcheck, "HEALTHCHECK NONE", finding.Warning},
		{"healthcheck_missing", RuleHealthcheck, "FROM a", finding.Warning},

		{"add_used", RuleCopyOverAdd, "ADD https://example.com/x.tgz /opt/", finding.Warning},
		{"copy_used", RuleCopyOverAdd, "COPY . /app", finding.Pass},
		{"add_in_word", RuleCopyOverAdd, "RUN useradd app", finding.Pass},

		{"ssh_port", RulePortExposure, "EXPOSE 22", finding.Warning},
		{"telnet_port_proto", RulePortExposure, "EXPOSE 8080 23/tcp", finding.Warning},
		{"port_range", RulePortExposure, "EXPOSE 20-25", finding.Warning},
		{"web_port", RulePortExposure, "EXPOSE 443 8080/udp", finding.Pass},
		{"no_expose", RulePortExposure, "FROM a", finding.Pass},
		{"variable_port", RulePortExposure, "EXPOSE $PORT", finding.Pass},

		{"cmd", RuleStartup, "CMD [\"app\"]", finding.Pass},
		{"entrypoint", RuleStartup, "ENTRYPOINT app", finding.Pass},
		{"no_startup", RuleStartup, "FROM a\nRUN make", finding.Critical},

		{"env_password", RuleEnvSecrets, "ENV DB_PASSWORD=hunter2", finding.Critical},
		{"env_legacy_token", RuleEnvSecrets, "ENV GITHUB_TOKEN abc", finding.Critical},
		{"env_multi", RuleEnvSecrets, "ENV A=1 AWS_SECRET_ACCESS_KEY=x", finding.Critical},
		{"env_benign", RuleEnvSecrets, "ENV PATH=/usr/local/bin:$PATH LANG=C.UTF-8", finding.Pass},
		{"secret_outside_env", RuleEnvSecrets, "RUN echo SECRET", finding.Pass},

		{"five_runs", RuleLayerCount, strings.Repeat("RUN true\n", 5), finding.Pass},
		{"six_runs", RuleLayerCount, strings.Repeat("RUN true\n", 6), finding.Warning},

		{"heredoc_body_user", RuleNonRootUser, "FROM a\nUSER app\nRUN <<EOF\necho hi\nUSER root\nEOF", finding.Pass},
		{"curl_sh", RuleRemoteScript, "RUN curl -fsSL https://get.example.com | sh", finding.Critical},
		{"wget_sudo_bash", RuleRemoteScript, "RUN wget -qO- https://x.io/i | sudo bash -", finding.Critical},
		{"continued_pipe", RuleRemoteScript, "RUN curl -sL https://x.io/i \\\n  | bash", finding.Critical},
		{"absolute_shell", RuleRemoteScript, "RUN curl -fsSL https://x.io/i | /bin/bash", finding.Critical},
		{"sudo_flags", RuleRemoteScript, "RUN curl -fsSL https://x.io/i | sudo -E bash", finding.Critical},
		{"sudo_flags_abs", RuleRemoteScript, "RUN wget -qO- https://x.io/i | sudo -E -H /usr/bin/sh", finding.Critical},
		{"curl_tar", RuleRemoteScript, "RUN curl -sL https://x.io/a.tgz | tar xz", finding.Pass},
		{"curl_shasum", RuleRemoteScript, "RUN curl -sL https://x.io/a | shasum", finding.Pass},

		{"apt_uncleaned", RulePackageCaches, "RUN apt-get update && apt-get install -y curl", finding.Critical},
		{"apt_cleaned", RulePackageCaches, "RUN apt-get install -y curl && rm -rf /var/lib/apt/lists/*", finding.Pass},
		{"apk_no_cache", RulePackageCaches, "RUN apk add --no-cache curl", finding.Pass},
		{"apk_cached", RulePackageCaches, "RUN apk add curl", finding.Critical},
		{"apk_flag_first", RulePackageCaches, "RUN apk --no-cache add curl", finding.Pass},
		{"apk_flag_other_command", RulePackageCaches, "RUN apk add curl && echo --no-cache", finding.Critical},
		{"apk_flag_next_run", RulePackageCaches, "RUN apk add curl\nRUN echo --no-cache", finding.Critical},
		{"heredoc_install", RulePackageCaches, "FROM a\nRUN <<EOF\napt-get update\napt-get install -y curl\nEOF", finding.Critical},
		{"heredoc_cleaned", RulePackageCaches, "FROM a\nRUN <<EOF\napt-get install -y curl\nrm -rf /var/lib/apt/lists/*\nEOF", finding.Pass},
		{"blank_in_continuation", RulePackageCaches, "RUN apt-get install -y curl \\\n\n    && rm -rf /var/lib/apt/lists/*", finding.Pass},
		{"yum_clean", RulePackageCaches, "RUN yum install -y git && yum clean all", finding.Pass},
		{"dnf_uncleaned", RulePackageCaches, "RUN dnf -y install git", finding.Critical},
		{"apt_cleaned_apk_not", RulePackageCaches, "RUN apt-get install -y a && rm -rf /var/lib/apt/lists/*\nRUN apk add b", finding.Critical},
		{"no_install", RulePackageCaches, "RUN make", finding.Pass},
	}

	reg := Builtin(DefaultOptions())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := severityOf(t, reg, tt.rule, tt.text); got != tt.want {
				t.Errorf("%s(%q) = %s, want %s", tt.rule, tt.text, got, tt.want)
			}
		})
	}
}

func TestUserPolicyVariants(t *testing.T) {
	tests := []struct {
		name   string
		policy UserPolicy
		text   string
		want   finding.Severity
	}{
		{"require_missing", UserPolicyRequireUser, "FROM a", finding.Critical},
		{"require_root", UserPolicyRequireUser, "FROM a\nUSER root", finding.Critical},
		{"require_nonroot", UserPolicyRequireUser, "FROM a\nUSER app", finding.Pass},
		{"explicit_missing", UserPolicyExplicitRoot, "FROM a", finding.Pass},
		{"explicit_root", UserPolicyExplicitRoot, "FROM a\nUSER root", finding.Critical},
		{"explicit_nonroot", UserPolicyExplicitRoot, "FROM a\nUSER app", finding.Pass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := Builtin(Options{UserPolicy: tt.policy})
			if got := severityOf(t, reg, RuleNonRootUser, tt.text); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestOptionsOverrideDefaults(t *testing.T) {
	reg := Builtin(Options{LayerThreshold: 1, SensitivePorts: []int{3306}})
	if got := severityOf(t, reg, RuleLayerCount, "RUN a\nRUN b"); got != finding.Warning {
		t.Errorf("layer threshold 1 with 2 RUNs = %s, want WARNING", got)
	}
	if got := severityOf(t, reg, RulePortExposure, "EXPOSE 22"); got != finding.Pass {
		t.Errorf("port 22 with custom list = %s, want PASS", got)
	}
	if got := severityOf(t, reg, RulePortExposure, "EXPOSE 3306"); got != finding.Warning {
		t.Errorf("port 3306 with custom list = %s, want WARNING", got)
	}
}

func TestParseUserPolicy(t *testing.T) {
	for in, want := range map[string]UserPolicy{
		"":              UserPolicyRequireUser,
		"require-user":  UserPolicyRequireUser,
		"Explicit-Root": UserPolicyExplicitRoot,
	} {
		got, err := ParseUserPolicy(in)
		if err != nil || got != want {
			t.Errorf("ParseUserPolicy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseUserPolicy("nobody"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
