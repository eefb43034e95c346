// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrInvalidConfig is returned when the Prometheus configuration is invalid.
	ErrInvalidConfig = errors.New("invalid prometheus configuration")

	// ErrRegistrationFailed is returned when metric registration fails.
	ErrRegistrationFailed = errors.New("metric registration failed")
)

// -----------------------------------------------------------------------------
// Configuration
// -----------------------------------------------------------------------------

// PrometheusConfig configures the Prometheus sink.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type PrometheusConfig struct {
	// Namespace is the metrics namespace (e.g. "chaosmeter").
	// Required.
	Namespace string

	// Subsystem is the metrics subsystem (e.g. "analyzer").
	// Required.
	Subsystem string

	// Registry is the Prometheus registry to use.
	// If nil, uses prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// DurationBuckets defines histogram buckets for run duration (seconds).
	// If nil, uses default buckets.
	DurationBuckets []float64

	// VolumeBuckets defines histogram buckets for line/event volumes.
	// If nil, uses default buckets.
	VolumeBuckets []float64
}

// DefaultPrometheusConfig returns a configuration with sensible defaults.
func DefaultPrometheusConfig() *PrometheusConfig {
	return &PrometheusConfig{
		Namespace:       "chaosmeter",
		Subsystem:       "analyzer",
		DurationBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		VolumeBuckets:   []float64{10, 100, 1000, 10000, 100000, 1000000},
	}
}

// Validate checks the configuration for required fields.
func (c *PrometheusConfig) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	if c.Subsystem == "" {
		return errors.New("subsystem is required")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Prometheus Sink
// -----------------------------------------------------------------------------

// PrometheusSink exports analysis run telemetry as Prometheus metrics.
//
// Thread Safety: Safe for concurrent use.
type PrometheusSink struct {
	config   *PrometheusConfig
	registry prometheus.Registerer

	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	linesProcessed  prometheus.Histogram
	eventsExtracted prometheus.Histogram
	raceConditions  prometheus.Counter
	resilienceScore *prometheus.GaugeVec
	errorsTotal     *prometheus.CounterVec

	collectors []prometheus.Collector

	mu     sync.RWMutex
	closed bool
}

// NewPrometheusSink creates a Prometheus-backed telemetry sink.
//
// # Inputs
//
//   - config: Sink configuration. Must not be nil; Namespace and Subsystem
//     are required.
//
// # Outputs
//
//   - *PrometheusSink: The created sink. Never nil on success.
//   - error: ErrInvalidConfig or ErrRegistrationFailed.
//
// Registration against an already-populated registry tolerates
// AlreadyRegisteredError so repeated construction in tests is harmless.
func NewPrometheusSink(config *PrometheusConfig) (*PrometheusSink, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	cfg := *config // Copy to avoid mutating input
	if cfg.DurationBuckets == nil {
		cfg.DurationBuckets = DefaultPrometheusConfig().DurationBuckets
	}
	if cfg.VolumeBuckets == nil {
		cfg.VolumeBuckets = DefaultPrometheusConfig().VolumeBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	sink := &PrometheusSink{
		config:   &cfg,
		registry: registry,
	}

	sink.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "runs_total",
			Help:      "Total analysis runs by resulting grade",
		},
		[]string{"grade"},
	)

	sink.runDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "run_duration_seconds",
			Help:      "Analysis run duration in seconds",
			Buckets:   cfg.DurationBuckets,
		},
	)

	sink.linesProcessed = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "lines_processed",
			Help:      "Raw log lines processed per run",
			Buckets:   cfg.VolumeBuckets,
		},
	)

	sink.eventsExtracted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "events_extracted",
			Help:      "Typed events extracted per run",
			Buckets:   cfg.VolumeBuckets,
		},
	)

	sink.raceConditions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "race_conditions_total",
			Help:      "Total suspected ordering races flagged",
		},
	)

	sink.resilienceScore = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "resilience_score",
			Help:      "Resilience score of the most recent run",
		},
		[]string{"log_file"},
	)

	sink.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "errors_total",
			Help:      "Degraded-path events by component and error type",
		},
		[]string{"component", "error_type"},
	)

	sink.collectors = []prometheus.Collector{
		sink.runsTotal,
		sink.runDuration,
		sink.linesProcessed,
		sink.eventsExtracted,
		sink.raceConditions,
		sink.resilienceScore,
		sink.errorsTotal,
	}

	for _, c := range sink.collectors {
		if err := registry.Register(c); err != nil {
			var alreadyErr prometheus.AlreadyRegisteredError
			if !errors.As(err, &alreadyErr) {
				return nil, errors.Join(ErrRegistrationFailed, err)
			}
		}
	}

	return sink, nil
}

// RecordAnalysis records the metrics of one analysis run.
func (s *PrometheusSink) RecordAnalysis(ctx context.Context, data *AnalysisData) error {
	if ctx == nil {
		return ErrNilContext
	}
	if data == nil {
		return ErrNilData
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrSinkClosed
	}
	s.mu.RUnlock()

	grade := data.Grade
	if grade == "" {
		grade = "unknown"
	}
	logFile := data.LogFile
	if logFile == "" {
		logFile = "none"
	}

	s.runsTotal.WithLabelValues(grade).Inc()
	s.runDuration.Observe(data.Duration.Seconds())
	s.linesProcessed.Observe(float64(data.Lines))
	s.eventsExtracted.Observe(float64(data.Events))
	s.resilienceScore.WithLabelValues(logFile).Set(data.Score)
	if data.RaceConditions > 0 {
		s.raceConditions.Add(float64(data.RaceConditions))
	}

	return nil
}

// RecordError increments the error counter with component and type labels.
func (s *PrometheusSink) RecordError(ctx context.Context, data *ErrorData) error {
	if ctx == nil {
		return ErrNilContext
	}
	if data == nil {
		return ErrNilData
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrSinkClosed
	}
	s.mu.RUnlock()

	component := data.Component
	if component == "" {
		component = "unknown"
	}
	errorType := data.ErrorType
	if errorType == "" {
		errorType = "unknown"
	}

	s.errorsTotal.WithLabelValues(component, errorType).Inc()
	return nil
}

// Flush is a no-op: Prometheus metrics are pull-based and available
// immediately via scraping. Exists for interface compliance.
func (s *PrometheusSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrSinkClosed
	}
	return nil
}

// Close unregisters all collectors. Idempotent.
func (s *PrometheusSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	// DefaultRegisterer exposes Unregister only through the concrete type.
	if registry, ok := s.registry.(*prometheus.Registry); ok {
		for _, c := range s.collectors {
			registry.Unregister(c)
		}
	}

	return nil
}

// Verify interface compliance at compile time.
var _ Sink = (*PrometheusSink)(nil)
