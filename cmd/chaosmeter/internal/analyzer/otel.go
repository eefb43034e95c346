// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyzer

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for analysis operations.
var (
	tracer = otel.Tracer("chaosmeter.analyzer")
	meter  = otel.Meter("chaosmeter.analyzer")
)

// Metrics for analysis operations.
var (
	analyzeLatency  metric.Float64Histogram
	linesProcessed  metric.Int64Counter
	eventsExtracted metric.Int64Counter
	racesDetected   metric.Int64Counter

	instrumentsOnce sync.Once
	instrumentsErr  error
)

// initInstruments initializes the instruments. Safe to call multiple times.
func initInstruments() error {
	instrumentsOnce.Do(func() {
		var err error

		analyzeLatency, err = meter.Float64Histogram(
			"analyzer_run_duration_seconds",
			metric.WithDescription("Duration of full analysis runs"),
			metric.WithUnit("s"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}

		linesProcessed, err = meter.Int64Counter(
			"analyzer_lines_processed_total",
			metric.WithDescription("Total log lines processed"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}

		eventsExtracted, err = meter.Int64Counter(
			"analyzer_events_extracted_total",
			metric.WithDescription("Total events extracted from log lines"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}

		racesDetected, err = meter.Int64Counter(
			"analyzer_race_conditions_total",
			metric.WithDescription("Total suspected race conditions flagged"),
		)
		if err != nil {
			instrumentsErr = err
			return
		}
	})
	return instrumentsErr
}

// startAnalyzeSpan creates a span for a full analysis run.
func startAnalyzeSpan(ctx context.Context, logFile string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Analyzer.Analyze",
		trace.WithAttributes(
			attribute.String("analyzer.log_file", logFile),
		),
	)
}

// setAnalyzeSpanResult sets the result attributes on an analysis span.
func setAnalyzeSpanResult(span trace.Span, eventCount int, grade Grade) {
	span.SetAttributes(
		attribute.Int("analyzer.events", eventCount),
		attribute.String("analyzer.grade", string(grade)),
	)
}
