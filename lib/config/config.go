// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the configuration file when --config is
// not given.
const EnvironmentVariable = "TRANSFORMFS_CONFIG"

// DefaultTTL is the attribute validity and refresh interval.
const DefaultTTL = time.Second

// Config is the complete transformfs configuration.
type Config struct {
	// Mountpoint is the directory to mount on.
	Mountpoint string `yaml:"mountpoint"`

	// Inputs are the host files and directories handed to the
	// transform, in order.
	Inputs []string `yaml:"inputs"`

	// Script is the path of the JavaScript transform.
	Script string `yaml:"script"`

	// TTL is both how long the kernel caches entries and attributes
	// and how long a tree generation is served before rebuilding.
	TTL Duration `yaml:"ttl"`

	// Mount configures access and unmount behavior.
	Mount MountConfig `yaml:"mount"`

	// Daemon configures backgrounding.
	Daemon DaemonConfig `yaml:"daemon"`

	// Log configures the process logger.
	Log LogConfig `yaml:"log"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Debug enables a trace of every FUSE request and reply.
	Debug bool `yaml:"debug"`
}

// MountConfig configures mount options.
type MountConfig struct {
	// AllowOther lets every user access the mount.
	AllowOther bool `yaml:"allow_other"`

	// AllowRoot lets root access the mount.
	AllowRoot bool `yaml:"allow_root"`

	// AutoUnmount unmounts when the process exits.
	AutoUnmount bool `yaml:"auto_unmount"`
}

// DaemonConfig configures running in the background.
type DaemonConfig struct {
	// Foreground keeps the process attached to the terminal.
	Foreground bool `yaml:"foreground"`

	// Stdout and Stderr redirect the detached process's output.
	// Empty means /dev/null. Ignored in the foreground.
	Stdout string `yaml:"stdout"`
	Stderr string `yaml:"stderr"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`

	// Format is auto, text or json.
	// Default: auto
	Format string `yaml:"format"`
}

// MetricsConfig configures the metrics endpoint.
type MetricsConfig struct {
	// Address is the host:port to serve /metrics on. Empty disables
	// the endpoint.
	Address string `yaml:"address"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TTL: Duration(DefaultTTL),
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load loads the file named by TRANSFORMFS_CONFIG, or returns the
// defaults if the variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, on top of
// the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// An empty file decodes to io.EOF and leaves the defaults.
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Mountpoint = expandVars(c.Mountpoint, vars)
	c.Script = expandVars(c.Script, vars)
	for index, input := range c.Inputs {
		c.Inputs[index] = expandVars(input, vars)
	}
	c.Daemon.Stdout = expandVars(c.Daemon.Stdout, vars)
	c.Daemon.Stderr = expandVars(c.Daemon.Stderr, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Mountpoint == "" {
		errs = append(errs, errors.New("mountpoint is required"))
	}
	if c.Script == "" {
		errs = append(errs, errors.New("script is required"))
	}
	for index, input := range c.Inputs {
		if input == "" {
			errs = append(errs, fmt.Errorf("inputs[%d] is empty", index))
		}
	}
	if c.TTL <= 0 {
		errs = append(errs, fmt.Errorf("ttl must be positive, got %s", c.TTL))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"auto", "text", "json"}
	if !contains(formats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

// Duration is a time.Duration that unmarshals from a duration string
// or an integer number of seconds.
type Duration time.Duration

// ParseDuration parses "1s"-style durations and bare integers, which
// are seconds.
func ParseDuration(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if seconds, err := strconv.ParseUint(text, 10, 32); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	duration, err := time.ParseDuration(text)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: want a duration like 1s or 500ms, or whole seconds", text)
	}
	return duration, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	duration, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(duration)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}
