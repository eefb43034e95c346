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
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestSink(t *testing.T) (*PrometheusSink, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	cfg := DefaultPrometheusConfig()
	cfg.Registry = registry
	sink, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("NewPrometheusSink() error: %v", err)
	}
	t.Cleanup(func() { _ = sink.Close() })
	return sink, registry
}

// =============================================================================
// Configuration Tests
// =============================================================================

func TestPrometheusConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  PrometheusConfig
		wantErr bool
	}{
		{
			name:   "valid",
			config: PrometheusConfig{Namespace: "chaosmeter", Subsystem: "analyzer"},
		},
		{
			name:    "missing namespace",
			config:  PrometheusConfig{Subsystem: "analyzer"},
			wantErr: true,
		},
		{
			name:    "missing subsystem",
			config:  PrometheusConfig{Namespace: "chaosmeter"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPrometheusSink_InvalidConfig(t *testing.T) {
	if _, err := NewPrometheusSink(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewPrometheusSink(nil) = %v, want ErrInvalidConfig", err)
	}
	if _, err := NewPrometheusSink(&PrometheusConfig{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewPrometheusSink(empty) = %v, want ErrInvalidConfig", err)
	}
}

func TestNewPrometheusSink_RepeatedRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	cfg := DefaultPrometheusConfig()
	cfg.Registry = registry

	first, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("first NewPrometheusSink() error: %v", err)
	}
	defer first.Close()

	// Same registry, same metrics. AlreadyRegisteredError must be tolerated.
	second, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("second NewPrometheusSink() error: %v", err)
	}
	defer second.Close()
}

func TestNewPrometheusSink_DoesNotMutateInput(t *testing.T) {
	cfg := &PrometheusConfig{
		Namespace: "chaosmeter",
		Subsystem: "analyzer",
		Registry:  prometheus.NewRegistry(),
	}
	sink, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("NewPrometheusSink() error: %v", err)
	}
	defer sink.Close()

	if cfg.DurationBuckets != nil || cfg.VolumeBuckets != nil {
		t.Error("input config buckets should stay nil")
	}
}

// =============================================================================
// Recording Tests
// =============================================================================

func TestPrometheusSink_RecordAnalysis(t *testing.T) {
	sink, _ := newTestSink(t)

	data := &AnalysisData{
		Timestamp:      time.Now(),
		LogFile:        "logs/proxy_traffic.log",
		Duration:       42 * time.Millisecond,
		Lines:          500,
		Events:         120,
		RaceConditions: 2,
		Score:          91.25,
		Grade:          "A",
	}
	if err := sink.RecordAnalysis(context.Background(), data); err != nil {
		t.Fatalf("RecordAnalysis() error: %v", err)
	}

	if got := testutil.ToFloat64(sink.runsTotal.WithLabelValues("A")); got != 1 {
		t.Errorf("runs_total{grade=A} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.raceConditions); got != 2 {
		t.Errorf("race_conditions_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(sink.resilienceScore.WithLabelValues("logs/proxy_traffic.log")); got != 91.25 {
		t.Errorf("resilience_score = %v, want 91.25", got)
	}
}

func TestPrometheusSink_RecordAnalysis_EmptyLabels(t *testing.T) {
	sink, _ := newTestSink(t)

	data := &AnalysisData{Timestamp: time.Now()}
	if err := sink.RecordAnalysis(context.Background(), data); err != nil {
		t.Fatalf("RecordAnalysis() error: %v", err)
	}

	if got := testutil.ToFloat64(sink.runsTotal.WithLabelValues("unknown")); got != 1 {
		t.Errorf("runs_total{grade=unknown} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.resilienceScore.WithLabelValues("none")); got != 0 {
		t.Errorf("resilience_score{log_file=none} = %v, want 0", got)
	}
	if got := testutil.ToFloat64(sink.raceConditions); got != 0 {
		t.Errorf("race_conditions_total = %v, want 0", got)
	}
}

func TestPrometheusSink_RecordError(t *testing.T) {
	sink, _ := newTestSink(t)
	ctx := context.Background()

	if err := sink.RecordError(ctx, sampleError()); err != nil {
		t.Fatalf("RecordError() error: %v", err)
	}
	if err := sink.RecordError(ctx, &ErrorData{Timestamp: time.Now()}); err != nil {
		t.Fatalf("RecordError() error: %v", err)
	}

	if got := testutil.ToFloat64(sink.errorsTotal.WithLabelValues("locator", "not_found")); got != 1 {
		t.Errorf("errors_total{locator,not_found} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(sink.errorsTotal.WithLabelValues("unknown", "unknown")); got != 1 {
		t.Errorf("errors_total{unknown,unknown} = %v, want 1", got)
	}
}

func TestPrometheusSink_NilArguments(t *testing.T) {
	sink, _ := newTestSink(t)
	ctx := context.Background()

	//nolint:staticcheck // deliberately passing nil context
	if err := sink.RecordAnalysis(nil, sampleAnalysis()); !errors.Is(err, ErrNilContext) {
		t.Errorf("RecordAnalysis(nil ctx) = %v, want ErrNilContext", err)
	}
	if err := sink.RecordAnalysis(ctx, nil); !errors.Is(err, ErrNilData) {
		t.Errorf("RecordAnalysis(nil data) = %v, want ErrNilData", err)
	}
	if err := sink.RecordError(ctx, nil); !errors.Is(err, ErrNilData) {
		t.Errorf("RecordError(nil data) = %v, want ErrNilData", err)
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestPrometheusSink_Close(t *testing.T) {
	registry := prometheus.NewRegistry()
	cfg := DefaultPrometheusConfig()
	cfg.Registry = registry
	sink, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("NewPrometheusSink() error: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}

	ctx := context.Background()
	if err := sink.RecordAnalysis(ctx, sampleAnalysis()); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("RecordAnalysis after close = %v, want ErrSinkClosed", err)
	}
	if err := sink.RecordError(ctx, sampleError()); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("RecordError after close = %v, want ErrSinkClosed", err)
	}
	if err := sink.Flush(ctx); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("Flush after close = %v, want ErrSinkClosed", err)
	}

	// Collectors are unregistered, so the same registry accepts a fresh sink.
	count, err := testutil.GatherAndCount(registry)
	if err != nil {
		t.Fatalf("GatherAndCount() error: %v", err)
	}
	if count != 0 {
		t.Errorf("registry metric count after close = %d, want 0", count)
	}
	replacement, err := NewPrometheusSink(cfg)
	if err != nil {
		t.Fatalf("NewPrometheusSink() after close error: %v", err)
	}
	defer replacement.Close()
}

func TestPrometheusSink_Flush(t *testing.T) {
	sink, _ := newTestSink(t)

	if err := sink.Flush(context.Background()); err != nil {
		t.Errorf("Flush() error: %v", err)
	}
	//nolint:staticcheck // deliberately passing nil context
	if err := sink.Flush(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("Flush(nil ctx) = %v, want ErrNilContext", err)
	}
}
