// Copyright © 2026 Atelier Labs - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package observability provides Prometheus instrumentation for the
// recommendation pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for the request counter.
const (
	OutcomeSuccess           = "success"
	OutcomeUnsupportedTheme  = "unsupported_theme"
	OutcomeGenerationFailure = "generation_failure"
	OutcomeTimeout           = "timeout"
	OutcomeValidationFailure = "validation_failure"
)

// Collector holds the pipeline metrics. Construct one per process with
// NewCollector and share it; registering the same metrics twice on one
// registry panics inside the client library.
type Collector struct {
	requestsTotal    *prometheus.CounterVec
	workflowDuration *prometheus.HistogramVec
	stageDuration    *prometheus.HistogramVec
	timeoutsTotal    *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics on reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_requests_total",
				Help: "Total number of recommendation requests by theme and outcome",
			},
			[]string{"theme", "outcome"},
		),
		workflowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curio_workflow_duration_seconds",
				Help:    "End-to-end recommendation workflow duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~51s
			},
			[]string{"theme"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "curio_stage_duration_seconds",
				Help:    "Per-stage execution duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"theme", "stage"},
		),
		timeoutsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "curio_workflow_timeouts_total",
				Help: "Total number of workflows that exceeded the run deadline",
			},
			[]string{"theme"},
		),
	}
}

// ObserveRequest records a completed request with its outcome and
// end-to-end duration.
func (c *Collector) ObserveRequest(theme, outcome string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(theme, outcome).Inc()
	c.workflowDuration.WithLabelValues(theme).Observe(duration.Seconds())
	if outcome == OutcomeTimeout {
		c.timeoutsTotal.WithLabelValues(theme).Inc()
	}
}

// ObserveStage records the duration of a single pipeline stage.
func (c *Collector) ObserveStage(theme, stage string, duration time.Duration) {
	c.stageDuration.WithLabelValues(theme, stage).Observe(duration.Seconds())
}
