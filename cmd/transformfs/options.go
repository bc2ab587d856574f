// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/transformfs/lib/config"
)

// invocation is the parsed command line.
type invocation struct {
	config  *config.Config
	help    bool
	version bool
}

// flagValues holds raw flag values before they are merged over the
// configuration file.
type flagValues struct {
	configPath     string
	inputs         []string
	script         string
	ttl            string
	allowOther     bool
	allowRoot      bool
	autoUnmount    bool
	foreground     bool
	stdout         string
	stderr         string
	logLevel       string
	logFormat      string
	metricsAddress string
	debug          bool
	help           bool
	version        bool
}

func newFlagSet(values *flagValues) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("transformfs", pflag.ContinueOnError)
	flagSet.SortFlags = false
	flagSet.StringVar(&values.configPath, "config", "", "YAML configuration file (default: $"+config.EnvironmentVariable+")")
	flagSet.StringArrayVarP(&values.inputs, "input", "i", nil, "input file or directory handed to the transform (repeatable)")
	flagSet.StringVarP(&values.script, "script", "s", "", "JavaScript transform")
	flagSet.StringVarP(&values.ttl, "ttl", "t", config.DefaultTTL.String(), "attribute validity and refresh interval (duration or whole seconds)")
	flagSet.BoolVar(&values.allowOther, "allow-other", false, "allow all users to access the mount")
	flagSet.BoolVar(&values.allowRoot, "allow-root", false, "allow root to access the mount")
	flagSet.BoolVarP(&values.autoUnmount, "auto-unmount", "a", false, "unmount when the process exits")
	flagSet.BoolVar(&values.foreground, "foreground", false, "stay attached to the terminal")
	flagSet.StringVar(&values.stdout, "stdout", "", "append the background process's stdout to this file")
	flagSet.StringVar(&values.stderr, "stderr", "", "append the background process's stderr to this file")
	flagSet.StringVar(&values.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flagSet.StringVar(&values.logFormat, "log-format", "auto", "log format: auto, text or json")
	flagSet.StringVar(&values.metricsAddress, "metrics-address", "", "serve Prometheus metrics on host:port")
	flagSet.BoolVar(&values.debug, "debug", false, "log every FUSE request and reply")
	flagSet.BoolVarP(&values.help, "help", "h", false, "show help")
	flagSet.BoolVar(&values.version, "version", false, "print version information")
	return flagSet
}

// parseArgs parses args (without the program name) and merges them
// over the configuration file. Only flags given explicitly override
// file values.
func parseArgs(args []string) (*invocation, error) {
	var values flagValues
	flagSet := newFlagSet(&values)
	flagSet.SetOutput(io.Discard)
	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return &invocation{help: true}, nil
		}
		return nil, err
	}
	if values.help || values.version {
		return &invocation{help: values.help, version: values.version}, nil
	}

	positional := flagSet.Args()
	if len(positional) > 1 {
		return nil, fmt.Errorf("unexpected argument: %s", positional[1])
	}

	var cfg *config.Config
	var err error
	if values.configPath != "" {
		cfg, err = config.LoadFile(values.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if len(positional) == 1 {
		cfg.Mountpoint = positional[0]
	}
	if flagSet.Changed("input") {
		cfg.Inputs = values.inputs
	}
	if flagSet.Changed("script") {
		cfg.Script = values.script
	}
	if flagSet.Changed("ttl") {
		ttl, err := config.ParseDuration(values.ttl)
		if err != nil {
			return nil, fmt.Errorf("--ttl: %w", err)
		}
		cfg.TTL = config.Duration(ttl)
	}
	if flagSet.Changed("allow-other") {
		cfg.Mount.AllowOther = values.allowOther
	}
	if flagSet.Changed("allow-root") {
		cfg.Mount.AllowRoot = values.allowRoot
	}
	if flagSet.Changed("auto-unmount") {
		cfg.Mount.AutoUnmount = values.autoUnmount
	}
	if flagSet.Changed("foreground") {
		cfg.Daemon.Foreground = values.foreground
	}
	if flagSet.Changed("stdout") {
		cfg.Daemon.Stdout = values.stdout
	}
	if flagSet.Changed("stderr") {
		cfg.Daemon.Stderr = values.stderr
	}
	if flagSet.Changed("log-level") {
		cfg.Log.Level = values.logLevel
	}
	if flagSet.Changed("log-format") {
		cfg.Log.Format = values.logFormat
	}
	if flagSet.Changed("metrics-address") {
		cfg.Metrics.Address = values.metricsAddress
	}
	if flagSet.Changed("debug") {
		cfg.Debug = values.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &invocation{config: cfg}, nil
}

func printHelp() {
	var values flagValues
	flagSet := newFlagSet(&values)
	fmt.Fprintf(os.Stderr, `transformfs mounts a read-only filesystem computed by a JavaScript
transform over host files.

Usage:
  transformfs [flags] <mountpoint>

Examples:
  # Serve a view of ./data at /mnt/view, staying in the foreground
  transformfs -i ./data -s view.js --foreground /mnt/view

  # Use a configuration file and rebuild at most every five seconds
  transformfs --config view.yaml --ttl 5s

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
