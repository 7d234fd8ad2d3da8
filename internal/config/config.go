// Package config layers defaults, an optional YAML file, DOCKAUDIT_*
// environment variables and command-line flags, in increasing order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/advisor"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/risk"
	"github.com/ritmaurya91-a11y/docker-image-security-auditor/internal/rules"
)

const EnvPrefix = "DOCKAUDIT"

type Config struct {
	Scoring struct {
		Profile string `mapstructure:"profile"`
	} `mapstructure:"scoring"`

	Rules struct {
		UserPolicy     string `mapstructure:"user_policy"`
		LayerThreshold int    `mapstructure:"layer_threshold"`
		SensitivePorts []int  `mapstructure:"sensitive_ports"`
		Pack           string `mapstructure:"pack"`
	} `mapstructure:"rules"`

	Advisor struct {
		Provider      string        `mapstructure:"provider"`
		BaseURL       string        `mapstructure:"base_url"`
		Model         string        `mapstructure:"model"`
		APIKey        string        `mapstructure:"api_key"`
		Timeout       time.Duration `mapstructure:"timeout"`
		MaxInputChars int           `mapstructure:"max_input_chars"`
	} `mapstructure:"advisor"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`

	// File is the config file actually read, empty when none was found.
	File string `mapstructure:"-"`
}

// FlagKeys maps command-line flag names to the config keys they override.
var FlagKeys = map[string]string{
	"profile":     "scoring.profile",
	"user-policy": "rules.user_policy",
	"rules":       "rules.pack",
	"provider":    "advisor.provider",
	"model":       "advisor.model",
	"timeout":     "advisor.timeout",
	"log-level":   "logging.level",
	"log-format":  "logging.format",
}

func setDefaults(v *viper.Viper) {
	d := rules.DefaultOptions()
	v.SetDefault("scoring.profile", string(risk.DefaultProfile))

	v.SetDefault("rules.user_policy", string(d.UserPolicy))
	v.SetDefault("rules.layer_threshold", d.LayerThreshold)
	v.SetDefault("rules.sensitive_ports", d.SensitivePorts)
	v.SetDefault("rules.pack", "")

	v.SetDefault("advisor.provider", "none")
	v.SetDefault("advisor.base_url", "")
	v.SetDefault("advisor.model", "")
	v.SetDefault("advisor.api_key", "")
	v.SetDefault("advisor.timeout", advisor.DefaultTimeout)
	v.SetDefault("advisor.max_input_chars", advisor.DefaultMaxInputChars)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads configuration. With an explicit path the file must exist;
// otherwise ".dockaudit.yaml" is looked up in the working directory and
// then $HOME, and a missing file is not an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".dockaudit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if cfg.Advisor.APIKey == "" && strings.EqualFold(cfg.Advisor.Provider, "openai") {
		cfg.Advisor.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown enumerations before any scan runs.
func (c *Config) Validate() error {
	if _, err := c.ScoringProfile(); err != nil {
		return err
	}
	if _, err := c.RuleOptions(); err != nil {
		return err
	}
	if c.Advisor.Timeout < 0 {
		return fmt.Errorf("advisor.timeout must not be negative")
	}
	return nil
}

func (c *Config) ScoringProfile() (risk.Profile, error) {
	return risk.ParseProfile(c.Scoring.Profile)
}

func (c *Config) RuleOptions() (rules.Options, error) {
	policy, err := rules.ParseUserPolicy(c.Rules.UserPolicy)
	if err != nil {
		return rules.Options{}, err
	}
	if c.Rules.LayerThreshold < 1 {
		return rules.Options{}, fmt.Errorf("rules.layer_threshold must be at least 1, got %d", c.Rules.LayerThreshold)
	}
	for _, p := range c.Rules.SensitivePorts {
		if p < 1 || p > 65535 {
			return rules.Options{}, fmt.Errorf("rules.sensitive_ports: %d is not a valid port", p)
		}
	}
	return rules.Options{
		UserPolicy:     policy,
		LayerThreshold: c.Rules.LayerThreshold,
		SensitivePorts: c.Rules.SensitivePorts,
	}, nil
}

func (c *Config) AdvisorConfig() advisor.Config {
	return advisor.Config{
		Provider:      c.Advisor.Provider,
		BaseURL:       c.Advisor.BaseURL,
		Model:         c.Advisor.Model,
		APIKey:        c.Advisor.APIKey,
		Timeout:       c.Advisor.Timeout,
		MaxInputChars: c.Advisor.MaxInputChars,
	}
}
