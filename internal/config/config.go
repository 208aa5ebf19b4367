// Package config loads the optional exrun YAML configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sa6mwa/exrun"
)

// Config holds runner, logging and execution policy settings.
type Config struct {
	LogLevel  string `yaml:"log_level"`  // debug|info|warn|error
	LogFormat string `yaml:"log_format"` // json|text
	SplitArgs bool   `yaml:"split_args"`
	Policy    Policy `yaml:"policy"`
}

// Policy mirrors exrun.WithPolicy and exrun.WithRule.
type Policy struct {
	Default string   `yaml:"default"` // allow|deny, empty means no policy
	Allow   []string `yaml:"allow"`
	Deny    []string `yaml:"deny"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads path on top of Default. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if len(data) == 0 {
		return cfg, errors.New("config file is empty")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be applied.
func (c Config) Validate() error {
	if c.Policy.Default != "" {
		if _, err := exrun.ParseVerdict(c.Policy.Default); err != nil {
			return fmt.Errorf("policy.default: %w", err)
		}
	}
	return nil
}

// Apply returns ctx carrying the configured execution policy. Without a
// default verdict and rules ctx is returned unchanged.
func (p Policy) Apply(ctx context.Context) (context.Context, error) {
	if p.Default != "" {
		v, err := exrun.ParseVerdict(p.Default)
		if err != nil {
			return ctx, fmt.Errorf("policy.default: %w", err)
		}
		ctx = exrun.WithPolicy(ctx, v)
	}
	var err error
	if len(p.Allow) > 0 {
		if ctx, err = exrun.WithRuleCatchError(ctx, exrun.ALLOW, p.Allow); err != nil {
			return ctx, fmt.Errorf("policy.allow: %w", err)
		}
	}
	if len(p.Deny) > 0 {
		if ctx, err = exrun.WithRuleCatchError(ctx, exrun.DENY, p.Deny); err != nil {
			return ctx, fmt.Errorf("policy.deny: %w", err)
		}
	}
	return ctx, nil
}
