// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry provides run-telemetry collection for the analyzer.
//
// # Description
//
// One analysis run produces one AnalysisData point (duration, line and
// event volumes, score, grade). Sinks export those points to a backend;
// the Prometheus sink is the only concrete backend today, and NoOpSink is
// the default when telemetry is not configured.
//
// # Thread Safety
//
// All sink implementations are safe for concurrent use.
package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Errors
// -----------------------------------------------------------------------------

var (
	// ErrNilContext is returned when a nil context is provided.
	ErrNilContext = errors.New("context must not be nil")

	// ErrNilData is returned when nil data is provided to a recording method.
	ErrNilData = errors.New("data must not be nil")

	// ErrSinkClosed is returned when attempting to use a closed sink.
	ErrSinkClosed = errors.New("sink has been closed")

	// ErrNoSinks is returned when creating a composite sink with no children.
	ErrNoSinks = errors.New("at least one sink is required")
)

// -----------------------------------------------------------------------------
// Interface
// -----------------------------------------------------------------------------

// Sink defines the interface for analysis run telemetry.
//
// Thread Safety: All implementations must be safe for concurrent use.
//
// Example:
//
//	sink, err := telemetry.NewPrometheusSink(config)
//	if err != nil {
//	    return err
//	}
//	defer sink.Close()
//
//	if err := sink.RecordAnalysis(ctx, data); err != nil {
//	    logger.Warn("telemetry error", "error", err.Error())
//	}
type Sink interface {
	// RecordAnalysis records the outcome of one full analysis run.
	RecordAnalysis(ctx context.Context, data *AnalysisData) error

	// RecordError records a degraded-path event (unreadable log file,
	// skipped correlation, render failure).
	RecordError(ctx context.Context, data *ErrorData) error

	// Flush ensures all buffered data is exported. Called automatically on
	// Close, but can be called explicitly for immediate export.
	Flush(ctx context.Context) error

	// Close releases resources and flushes pending data. Idempotent; after
	// Close all recording methods return ErrSinkClosed.
	Close() error
}

// -----------------------------------------------------------------------------
// Data Types
// -----------------------------------------------------------------------------

// AnalysisData captures the telemetry of one analysis run.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type AnalysisData struct {
	// Timestamp is when the run finished.
	Timestamp time.Time

	// LogFile is the resolved log file path, empty when none was found.
	LogFile string

	// Duration is the wall-clock duration of the run.
	Duration time.Duration

	// Lines is the number of raw lines processed.
	Lines int

	// Events is the number of typed events extracted.
	Events int

	// RaceConditions is the number of suspected ordering races flagged.
	RaceConditions int

	// Score is the weighted resilience score (0-100).
	Score float64

	// Grade is the letter grade derived from the score.
	Grade string

	// Labels are additional key-value pairs for filtering.
	Labels map[string]string
}

// ErrorData captures a degraded-path event.
//
// Thread Safety: Immutable after creation; safe for concurrent read access.
type ErrorData struct {
	// Timestamp is when the error occurred.
	Timestamp time.Time

	// Component is the pipeline stage that degraded (locator, reader,
	// renderer).
	Component string

	// ErrorType categorizes the error (e.g. "not_found", "io", "render").
	ErrorType string

	// Message is the error message (should not contain log payloads).
	Message string
}

// -----------------------------------------------------------------------------
// Composite Sink
// -----------------------------------------------------------------------------

// CompositeSink multiplexes telemetry to multiple sinks.
//
// Thread Safety: Safe for concurrent use.
type CompositeSink struct {
	sinks  []Sink
	mu     sync.RWMutex
	closed bool
}

// NewCompositeSink creates a sink that forwards all telemetry to multiple
// child sinks. Errors from individual sinks are joined; one sink's failure
// does not prevent others from receiving the data.
func NewCompositeSink(sinks ...Sink) (*CompositeSink, error) {
	valid := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoSinks
	}
	return &CompositeSink{sinks: valid}, nil
}

// RecordAnalysis forwards the analysis data to all child sinks.
func (c *CompositeSink) RecordAnalysis(ctx context.Context, data *AnalysisData) error {
	if ctx == nil {
		return ErrNilContext
	}
	if data == nil {
		return ErrNilData
	}

	sinks, err := c.children()
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range sinks {
		if err := sink.RecordAnalysis(ctx, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordError forwards the error data to all child sinks.
func (c *CompositeSink) RecordError(ctx context.Context, data *ErrorData) error {
	if ctx == nil {
		return ErrNilContext
	}
	if data == nil {
		return ErrNilData
	}

	sinks, err := c.children()
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range sinks {
		if err := sink.RecordError(ctx, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes all child sinks.
func (c *CompositeSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	sinks, err := c.children()
	if err != nil {
		return err
	}

	var errs []error
	for _, sink := range sinks {
		if err := sink.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all child sinks. Idempotent.
func (c *CompositeSink) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	sinks := c.sinks
	c.mu.Unlock()

	var errs []error
	for _, sink := range sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *CompositeSink) children() ([]Sink, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrSinkClosed
	}
	return c.sinks, nil
}

// -----------------------------------------------------------------------------
// No-Op Sink
// -----------------------------------------------------------------------------

// NoOpSink is a sink that discards all data. It is the default when no
// telemetry backend is configured, and useful in tests.
//
// Thread Safety: Safe for concurrent use.
type NoOpSink struct{}

// NewNoOpSink creates a new no-op sink.
func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

// RecordAnalysis discards the analysis data.
func (n *NoOpSink) RecordAnalysis(ctx context.Context, data *AnalysisData) error {
	if ctx == nil {
		return ErrNilContext
	}
	if data == nil {
		return ErrNilData
	}
	return nil
}

// RecordError discards the error data.
func (n *NoOpSink) RecordError(ctx context.Context, data *ErrorData) error {
	if ctx == nil {
		return ErrNilContext
	}
	if data == nil {
		return ErrNilData
	}
	return nil
}

// Flush does nothing.
func (n *NoOpSink) Flush(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// Close does nothing.
func (n *NoOpSink) Close() error {
	return nil
}

// Verify interface compliance at compile time.
var (
	_ Sink = (*CompositeSink)(nil)
	_ Sink = (*NoOpSink)(nil)
)
