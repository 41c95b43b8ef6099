// Package config defines the YAML probe-rule configuration for safety checks.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"zapfleet/internal/zapfleet"
)

//go:embed checks.yaml
var defaultChecks []byte

// Config holds the probe rules for every check kind plus the zap command.
type Config struct {
	Checks map[string]Rule `yaml:"checks"`
	Zap    ZapCommand      `yaml:"zap"`
}

// Rule defines one safety-check probe and its failure criteria. The command
// and the patterns may contain a {device} placeholder; in patterns the device
// name is quoted before substitution so it is matched literally.
type Rule struct {
	Command  string `yaml:"command"`            // probe command template
	Includes string `yaml:"includes,omitempty"` // regex - fail if any line matches
	Excludes string `yaml:"excludes,omitempty"` // regex - fail if no line matches
	ExitCode *int   `yaml:"exitcode,omitempty"` // fail if probe exits with this code
	Reason   string `yaml:"reason"`             // human-readable reason when the rule trips
}

// ZapCommand is the destructive wipe invocation template.
type ZapCommand struct {
	Command string `yaml:"command"`
}

const devicePlaceholder = "{device}"

// CommandFor expands the probe command for a device.
func (r Rule) CommandFor(device string) string {
	return strings.ReplaceAll(r.Command, devicePlaceholder, device)
}

// IncludesFor expands the includes pattern for a device, quoting the device
// name so it matches literally inside the regex.
func (r Rule) IncludesFor(device string) string {
	return strings.ReplaceAll(r.Includes, devicePlaceholder, regexp.QuoteMeta(device))
}

// ExcludesFor expands the excludes pattern for a device.
func (r Rule) ExcludesFor(device string) string {
	return strings.ReplaceAll(r.Excludes, devicePlaceholder, regexp.QuoteMeta(device))
}

// CommandFor expands the zap command for a device.
func (z ZapCommand) CommandFor(device string) string {
	return strings.ReplaceAll(z.Command, devicePlaceholder, device)
}

// Default parses the embedded probe rules.
func Default() (*Config, error) {
	return Parse(defaultChecks)
}

// Load reads probe rules from path, or the embedded defaults when path is
// empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals and validates a probe-rule configuration. Every blocking
// check kind must carry a rule; a missing blocking rule would otherwise make
// the classifier silently permissive.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse checks config: %w", err)
	}

	for _, kind := range zapfleet.BlockingChecks {
		rule, ok := cfg.Checks[string(kind)]
		if !ok {
			return nil, fmt.Errorf("config is missing blocking check %q", kind)
		}
		if rule.Command == "" {
			return nil, fmt.Errorf("check %q has no probe command", kind)
		}
		if rule.Includes == "" && rule.Excludes == "" && rule.ExitCode == nil {
			return nil, fmt.Errorf("check %q has no failure criteria", kind)
		}
		if rule.Reason == "" {
			return nil, fmt.Errorf("check %q has no reason", kind)
		}
	}

	for name, rule := range cfg.Checks {
		if rule.Includes != "" {
			if _, err := regexp.Compile(rule.Includes); err != nil {
				return nil, fmt.Errorf("check %q has invalid includes regex: %w", name, err)
			}
		}
		if rule.Excludes != "" {
			if _, err := regexp.Compile(rule.Excludes); err != nil {
				return nil, fmt.Errorf("check %q has invalid excludes regex: %w", name, err)
			}
		}
	}

	if cfg.Zap.Command == "" {
		return nil, fmt.Errorf("config has no zap command")
	}

	return &cfg, nil
}
