// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bureau-foundation/transformfs/lib/config"
	"github.com/bureau-foundation/transformfs/lib/fuse"
	"github.com/bureau-foundation/transformfs/lib/logging"
	"github.com/bureau-foundation/transformfs/lib/metrics"
	"github.com/bureau-foundation/transformfs/lib/process"
	"github.com/bureau-foundation/transformfs/lib/script"
	"github.com/bureau-foundation/transformfs/lib/version"
	"github.com/bureau-foundation/transformfs/lib/vfs"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

func run(args []string) error {
	invocation, err := parseArgs(args)
	if err != nil {
		return err
	}
	if invocation.version {
		fmt.Println("transformfs " + version.Full())
		return nil
	}
	if invocation.help {
		printHelp()
		return nil
	}
	cfg := invocation.config

	if !cfg.Daemon.Foreground && !process.IsDetached() {
		return process.Detach(process.DetachOptions{
			Args:   args,
			Stdout: cfg.Daemon.Stdout,
			Stderr: cfg.Daemon.Stderr,
		})
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	return serve(cfg, logger)
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(os.Stderr, level, format), nil
}

// serve mounts the filesystem and blocks until it is unmounted, either
// by a termination signal or externally with fusermount -u.
func serve(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var registry *prometheus.Registry
	var recorder *metrics.Metrics
	if cfg.Metrics.Address != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.New(registry)
	}

	transformer, err := script.Load(cfg.Script, script.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("loading script %s: %w", cfg.Script, err)
	}

	session, err := vfs.New(vfs.Options{
		Transformer: transformer,
		Inputs:      cfg.Inputs,
		Interval:    time.Duration(cfg.TTL),
		Metrics:     recorder,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	server, err := fuse.Mount(fuse.Options{
		Mountpoint:  cfg.Mountpoint,
		Session:     session,
		AllowOther:  cfg.Mount.AllowOther,
		AllowRoot:   cfg.Mount.AllowRoot,
		AutoUnmount: cfg.Mount.AutoUnmount,
		Debug:       cfg.Debug,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if registry != nil {
		listener, err := net.Listen("tcp", cfg.Metrics.Address)
		if err != nil {
			server.Unmount()
			return fmt.Errorf("listening for metrics on %s: %w", cfg.Metrics.Address, err)
		}
		go func() {
			if err := metrics.Serve(ctx, listener, registry, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	if err := process.Ready(); err != nil {
		logger.Warn("signalling readiness", "error", err)
	}

	unmounted := make(chan struct{})
	go func() {
		server.Wait()
		close(unmounted)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signals)

	for {
		select {
		case <-unmounted:
			logger.Info("filesystem unmounted", "mountpoint", cfg.Mountpoint)
			return nil
		case received := <-signals:
			if received == syscall.SIGHUP {
				session.Invalidate()
				logger.Info("rebuild requested", "signal", received.String())
				continue
			}
			logger.Info("unmounting", "signal", received.String())
			// A busy mount stays up; the next signal tries again.
			if err := server.Unmount(); err != nil {
				logger.Error("unmount failed", "mountpoint", cfg.Mountpoint, "error", err)
			}
		}
	}
}
