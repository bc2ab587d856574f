// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics defines the Prometheus collectors transformfs
// exports and the HTTP endpoint that serves them.
//
// A nil *Metrics is valid and records nothing, so components take a
// *Metrics unconditionally and the binary only constructs one when
// metrics are enabled.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request results used as the "result" label of RequestsTotal.
const (
	ResultOK               = "ok"
	ResultNotFound         = "not_found"
	ResultInvalidOperation = "invalid_operation"
	ResultHookFailure      = "hook_failure"
)

// Metrics holds the transformfs collectors.
type Metrics struct {
	// RequestsTotal counts kernel requests by operation and result.
	RequestsTotal *prometheus.CounterVec

	// RebuildsTotal counts tree rebuilds by result ("success", "failure").
	RebuildsTotal *prometheus.CounterVec

	// RebuildDuration observes how long transform plus tree
	// construction took, successful or not.
	RebuildDuration prometheus.Histogram

	// TreeNodes is the node count of the tree currently served.
	TreeNodes prometheus.Gauge

	// TreeConflicts is the number of entries dropped while building
	// the tree currently served.
	TreeConflicts prometheus.Gauge

	// HookFailuresTotal counts failed open/read/close hooks.
	HookFailuresTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with registerer. A nil
// registerer means prometheus.DefaultRegisterer. It panics if
// registration fails.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transformfs_requests_total",
				Help: "Filesystem requests by operation and result.",
			},
			[]string{"op", "result"},
		),
		RebuildsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transformfs_rebuilds_total",
				Help: "Tree rebuilds by result.",
			},
			[]string{"result"},
		),
		RebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "transformfs_rebuild_duration_seconds",
				Help:    "Time spent running the transform and building the tree.",
				Buckets: prometheus.DefBuckets,
			},
		),
		TreeNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "transformfs_tree_nodes",
				Help: "Nodes in the tree currently being served, including the root.",
			},
		),
		TreeConflicts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "transformfs_tree_conflicts",
				Help: "Entries dropped as conflicts when the current tree was built.",
			},
		),
		HookFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transformfs_hook_failures_total",
				Help: "Failed content hooks by hook name.",
			},
			[]string{"hook"},
		),
	}

	registerer.MustRegister(
		m.RequestsTotal,
		m.RebuildsTotal,
		m.RebuildDuration,
		m.TreeNodes,
		m.TreeConflicts,
		m.HookFailuresTotal,
	)
	return m
}

// RecordRequest counts one completed request.
func (m *Metrics) RecordRequest(op, result string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(op, result).Inc()
}

// RecordRebuild records a rebuild attempt. The tree gauges change only
// on success, since a failed rebuild leaves the previous tree in
// service.
func (m *Metrics) RecordRebuild(success bool, duration time.Duration, nodes, conflicts int) {
	if m == nil {
		return
	}
	m.RebuildDuration.Observe(duration.Seconds())
	if !success {
		m.RebuildsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.RebuildsTotal.WithLabelValues("success").Inc()
	m.TreeNodes.Set(float64(nodes))
	m.TreeConflicts.Set(float64(conflicts))
}

// RecordHookFailure counts a failed hook ("open", "read" or "close").
func (m *Metrics) RecordHookFailure(hook string) {
	if m == nil {
		return
	}
	m.HookFailuresTotal.WithLabelValues(hook).Inc()
}

// Serve exposes gatherer at /metrics on listener until ctx is done.
// It returns nil after a clean shutdown.
func Serve(ctx context.Context, listener net.Listener, gatherer prometheus.Gatherer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownContext); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}()

	logger.Info("serving metrics", "address", listener.Addr().String())
	err := server.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	return err
}
