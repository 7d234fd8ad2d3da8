package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/finding"
)

const (
	RuleBaseImage     = "Base image defined"
	RuleLatestTag     = `Avoid using an unpinned "latest" tag`
	RuleNonRootUser   = "Non-root user configured"
	RuleHealthcheck   = "Healthcheck present"
	RuleCopyOverAdd   = "COPY preferred over ADD"
	RulePortExposure  = "Port exposure limited"
	RuleStartup       = "Startup command defined"
	RuleEnvSecrets    = "Secrets in environment"
	RuleLayerCount    = "Build-layer count optimized"
	RuleRemoteScript  = "Remote-script execution"
	RulePackageCaches = "Package-cache cleanup"
)

var (
	secretName   = regexp.MustCompile(`(?i)(PASSWORD|PASSWD|SECRET|KEY|TOKEN|CREDENTIAL)`)
	remoteScript = regexp.MustCompile(`(?i)\b(curl|wget)\b[^|]*\|\s*(sudo(\s+-\S+)*\s+)?(\S*/)?(ba|z|da|k)?sh\b`)
)

// packageManager pairs an install command with the cleanup that removes
// the index cache it leaves behind.
type packageManager struct {
	install *regexp.Regexp
	cleanup *regexp.Regexp
}

var packageManagers = []packageManager{
	{
		install: regexp.MustCompile(`\bapt(-get)?\s+(-\S+\s+)*install\b`),
		cleanup: regexp.MustCompile(`rm\s+-(rf|fr)\s+/var/lib/apt/lists`),
	},
	{
		install: regexp.MustCompile(`\bapk\s+(-\S+\s+)*add\b`),
		cleanup: regexp.MustCompile(`\bapk\b[^&;|\n]*\s--no-cache\b|rm\s+-(rf|fr)\s+/var/cache/apk`),
	},
	{
		install: regexp.MustCompile(`\byum\s+(-\S+\s+)*install\b`),
		cleanup: regexp.MustCompile(`yum\s+clean\s+all|rm\s+-(rf|fr)\s+/var/cache/yum`),
	},
	{
		install: regexp.MustCompile(`\bdnf\s+(-\S+\s+)*install\b`),
		cleanup: regexp.MustCompile(`dnf\s+clean\s+all|rm\s+-(rf|fr)\s+/var/cache/dnf`),
	},
}

// Builtin returns a registry holding the canonical rule set in its fixed
// order.
func Builtin(opts Options) *Registry {
	opts = opts.withDefaults()
	reg := NewRegistry()
	for _, r := range builtinRules(opts) {
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
	return reg
}

func builtinRules(opts Options) []Rule {
	return []Rule{
		{
			Name:        RuleBaseImage,
			Description: "Dockerfile must define a secure base image.",
			Eval: func(text string) (finding.Severity, error) {
				return passIf(hasDirective(instructions(text), "FROM"), finding.Critical), nil
			},
		},
		{
			Name:        RuleLatestTag,
			Description: "Using latest tag may introduce unknown vulnerabilities.",
			Eval: func(text string) (finding.Severity, error) {
				return passIf(!strings.Contains(text, ":latest"), finding.Warning), nil
			},
		},
		{
			Name:        RuleNonRootUser,
			Description: "Running container as root increases attack impact.",
			Eval: func(text string) (finding.Severity, error) {
				return checkUser(instructions(text), opts.UserPolicy), nil
			},
		},
		{
			Name:        RuleHealthcheck,
			Description: "Healthcheck ensures container reliability.",
			Eval: func(text string) (finding.Severity, error) {
				for _, args := range argsOf(instructions(text), "HEALTHCHECK") {
					if !strings.EqualFold(strings.TrimSpace(args), "NONE") {
						return finding.Pass, nil
					}
				}
				return finding.Warning, nil
			},
		},
		{
			Name:        RuleCopyOverAdd,
			Description: "ADD may introduce unintended files.",
			Eval: func(text string) (finding.Severity, error) {
				return passIf(!hasDirective(instructions(text), "ADD"), finding.Warning), nil
			},
		},
		{
			Name:        RulePortExposure,
			Description: "Exposed ports increase attack surface.",
			Eval: func(text string) (finding.Severity, error) {
				for _, args := range argsOf(instructions(text), "EXPOSE") {
					if exposesAny(args, opts.SensitivePorts) {
						return finding.Warning, nil
					}
				}
				return finding.Pass, nil
			},
		},
		{
			Name:        RuleStartup,
			Description: "Container must define CMD or ENTRYPOINT.",
			Eval: func(text string) (finding.Severity, error) {
				return passIf(hasDirective(instructions(text), "CMD", "ENTRYPOINT"), finding.Critical), nil
			},
		},
		{
			Name:        RuleEnvSecrets,
			Description: "Secrets in ENV can leak sensitive data.",
			Eval: func(text string) (finding.Severity, error) {
				for _, args := range argsOf(instructions(text), "ENV") {
					for _, name := range envNames(args) {
						if secretName.MatchString(name) {
							return finding.Critical, nil
						}
					}
				}
				return finding.Pass, nil
			},
		},
		{
			Name:        RuleLayerCount,
			Description: "Too many RUN layers increase image size.",
			Eval: func(text string) (finding.Severity, error) {
				n := len(argsOf(instructions(text), "RUN"))
				return passIf(n <= opts.LayerThreshold, finding.Warning), nil
			},
		},
		{
			Name:        RuleRemoteScript,
			Description: "Piping downloaded scripts into a shell runs unverified code.",
			Eval: func(text string) (finding.Severity, error) {
				for _, args := range argsOf(instructions(text), "RUN") {
					if remoteScript.MatchString(args) {
						return finding.Critical, nil
					}
				}
				return finding.Pass, nil
			},
		},
		{
			Name:        RulePackageCaches,
			Description: "Package manager caches must be cleaned to avoid stale, vulnerable indexes.",
			Eval: func(text string) (finding.Severity, error) {
				run := strings.Join(argsOf(instructions(text), "RUN"), "\n")
				for _, pm := range packageManagers {
					if pm.install.MatchString(run) && !pm.cleanup.MatchString(run) {
						return finding.Critical, nil
					}
				}
				return finding.Pass, nil
			},
		},
	}
}

func passIf(ok bool, otherwise finding.Severity) finding.Severity {
	if ok {
		return finding.Pass
	}
	return otherwise
}

// checkUser looks at the USER directives of the final build stage only;
// earlier stages do not produce the runtime image.
func checkUser(ins []instruction, policy UserPolicy) finding.Severity {
	var hasUser, root bool
	for _, in := range ins {
		switch in.Keyword {
		case "FROM":
			hasUser, root = false, false
		case "USER":
			hasUser = true
			root = isRootUser(in.Args)
		}
	}
	if root {
		return finding.Critical
	}
	if !hasUser && policy == UserPolicyRequireUser {
		return finding.Critical
	}
	return finding.Pass
}

func isRootUser(args string) bool {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return false
	}
	user, _, _ := strings.Cut(fields[0], ":")
	return user == "root" || user == "0"
}

// exposesAny reports whether an EXPOSE argument list names one of ports,
// either directly ("22", "22/tcp") or inside a range ("20-23").
func exposesAny(args string, ports []int) bool {
	for _, spec := range strings.Fields(args) {
		spec, _, _ = strings.Cut(spec, "/")
		lo, hi, isRange := strings.Cut(spec, "-")
		from, err := strconv.Atoi(lo)
		if err != nil {
			continue
		}
		to := from
		if isRange {
			if to, err = strconv.Atoi(hi); err != nil {
				continue
			}
		}
		for _, p := range ports {
			if p >= from && p <= to {
				return true
			}
		}
	}
	return false
}

// envNames extracts variable names from both "ENV A=1 B=2" and the legacy
// "ENV A 1" form.
func envNames(args string) []string {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil
	}
	if !strings.Contains(fields[0], "=") {
		return fields[:1]
	}
	var names []string
	for _, f := range fields {
		if name, _, ok := strings.Cut(f, "="); ok && name != "" {
			names = append(names, name)
		}
	}
	return names
}
