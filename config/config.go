// Package config provides YAML configuration parsing for the pollwait CLI.
//
// This package enables running pollwait as a standalone wait-for utility
// with a configuration file, as an alternative to one-shot command flags.
//
// Example configuration:
//
//	max_poll_delay: 5s
//	initial_retry_increment: 100ms
//	timeout: 2m
//
//	targets:
//	  - name: database
//	    tcp: ${DB_HOST:-localhost}:5432
//	  - name: ready marker
//	    file: /var/run/app/ready
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minDelaySetting mirrors the library's floor for both delay settings.
const minDelaySetting = time.Millisecond

// Config is the root configuration structure for the pollwait CLI.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// MaxPollDelay is the upper bound on the wait between empty probes.
	// Accepts duration strings like "10s", "1m", "500ms". Defaults to 5s.
	MaxPollDelay Duration `yaml:"max_poll_delay"`

	// InitialRetryIncrement is the wait after the first empty probe and
	// the seed of the doubling progression. Defaults to 100ms.
	InitialRetryIncrement Duration `yaml:"initial_retry_increment"`

	// Timeout bounds the whole wait. Zero means no deadline.
	Timeout Duration `yaml:"timeout"`

	// Targets defines the conditions to wait for. Each target becomes its
	// own poller; all targets are waited on concurrently.
	Targets []TargetConfig `yaml:"targets"`
}

// TargetConfig defines a single wait condition. Exactly one of File or TCP
// must be set.
type TargetConfig struct {
	// Name is the display name used in logs. Defaults to the file path or
	// TCP address.
	Name string `yaml:"name"`

	// File is a filesystem path; the target is ready once the path exists.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	File string `yaml:"file"`

	// TCP is a host:port address; the target is ready once a connection
	// succeeds. Values support environment variable substitution.
	TCP string `yaml:"tcp"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in File and TCP values. Defaults are
// applied for MaxPollDelay (5s) and InitialRetryIncrement (100ms).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.MaxPollDelay == 0 {
		cfg.MaxPollDelay = Duration(5 * time.Second)
	}
	if cfg.InitialRetryIncrement == 0 {
		cfg.InitialRetryIncrement = Duration(100 * time.Millisecond)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.MaxPollDelay.Duration() < minDelaySetting {
		return fmt.Errorf("max_poll_delay must be at least %s, got %s", minDelaySetting, c.MaxPollDelay.Duration())
	}
	if c.InitialRetryIncrement.Duration() < minDelaySetting {
		return fmt.Errorf("initial_retry_increment must be at least %s, got %s", minDelaySetting, c.InitialRetryIncrement.Duration())
	}
	if c.Timeout.Duration() < 0 {
		return fmt.Errorf("timeout cannot be negative, got %s", c.Timeout.Duration())
	}

	if len(c.Targets) == 0 {
		return errors.New("at least one target must be defined")
	}

	seen := make(map[string]struct{}, len(c.Targets))
	for i := range c.Targets {
		t := &c.Targets[i]

		if t.File == "" && t.TCP == "" {
			return fmt.Errorf("targets[%d]: either file or tcp is required", i)
		}
		if t.File != "" && t.TCP != "" {
			return fmt.Errorf("targets[%d]: file and tcp are mutually exclusive", i)
		}

		if t.File != "" {
			expanded, err := expandEnvVars(t.File)
			if err != nil {
				return fmt.Errorf("targets[%d]: file: %w", i, err)
			}
			t.File = expanded
		}
		if t.TCP != "" {
			expanded, err := expandEnvVars(t.TCP)
			if err != nil {
				return fmt.Errorf("targets[%d]: tcp: %w", i, err)
			}
			t.TCP = expanded
		}

		if t.Name == "" {
			if t.File != "" {
				t.Name = t.File
			} else {
				t.Name = t.TCP
			}
		}

		// name uniqueness keeps per-target log lines unambiguous
		if _, exists := seen[t.Name]; exists {
			return fmt.Errorf("targets[%d]: duplicate target name: %q", i, t.Name)
		}
		seen[t.Name] = struct{}{}
	}

	return nil
}
