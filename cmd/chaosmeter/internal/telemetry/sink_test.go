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
	"testing"
	"time"
)

// countingSink records call counts for composite fan-out tests.
type countingSink struct {
	mu       sync.Mutex
	analyses int
	errs     int
	flushes  int
	closes   int
	fail     error
}

func (c *countingSink) RecordAnalysis(ctx context.Context, data *AnalysisData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.analyses++
	return c.fail
}

func (c *countingSink) RecordError(ctx context.Context, data *ErrorData) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs++
	return c.fail
}

func (c *countingSink) Flush(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushes++
	return c.fail
}

func (c *countingSink) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return c.fail
}

func sampleAnalysis() *AnalysisData {
	return &AnalysisData{
		Timestamp: time.Now(),
		LogFile:   "logs/proxy_traffic.log",
		Duration:  25 * time.Millisecond,
		Lines:     1200,
		Events:    340,
		Score:     87.5,
		Grade:     "B",
	}
}

func sampleError() *ErrorData {
	return &ErrorData{
		Timestamp: time.Now(),
		Component: "locator",
		ErrorType: "not_found",
		Message:   "no log file found",
	}
}

// =============================================================================
// NoOpSink Tests
// =============================================================================

func TestNoOpSink(t *testing.T) {
	sink := NewNoOpSink()
	ctx := context.Background()

	if err := sink.RecordAnalysis(ctx, sampleAnalysis()); err != nil {
		t.Errorf("RecordAnalysis() error: %v", err)
	}
	if err := sink.RecordError(ctx, sampleError()); err != nil {
		t.Errorf("RecordError() error: %v", err)
	}
	if err := sink.Flush(ctx); err != nil {
		t.Errorf("Flush() error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNoOpSink_NilArguments(t *testing.T) {
	sink := NewNoOpSink()
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
	//nolint:staticcheck // deliberately passing nil context
	if err := sink.Flush(nil); !errors.Is(err, ErrNilContext) {
		t.Errorf("Flush(nil ctx) = %v, want ErrNilContext", err)
	}
}

// =============================================================================
// CompositeSink Tests
// =============================================================================

func TestNewCompositeSink_NoSinks(t *testing.T) {
	if _, err := NewCompositeSink(); !errors.Is(err, ErrNoSinks) {
		t.Errorf("NewCompositeSink() = %v, want ErrNoSinks", err)
	}
	if _, err := NewCompositeSink(nil, nil); !errors.Is(err, ErrNoSinks) {
		t.Errorf("NewCompositeSink(nil, nil) = %v, want ErrNoSinks", err)
	}
}

func TestCompositeSink_SkipsNilChildren(t *testing.T) {
	child := &countingSink{}
	sink, err := NewCompositeSink(nil, child, nil)
	if err != nil {
		t.Fatalf("NewCompositeSink() error: %v", err)
	}

	if err := sink.RecordAnalysis(context.Background(), sampleAnalysis()); err != nil {
		t.Errorf("RecordAnalysis() error: %v", err)
	}
	if child.analyses != 1 {
		t.Errorf("child analyses = %d, want 1", child.analyses)
	}
}

func TestCompositeSink_FanOut(t *testing.T) {
	a := &countingSink{}
	b := &countingSink{}
	sink, err := NewCompositeSink(a, b)
	if err != nil {
		t.Fatalf("NewCompositeSink() error: %v", err)
	}

	ctx := context.Background()
	if err := sink.RecordAnalysis(ctx, sampleAnalysis()); err != nil {
		t.Errorf("RecordAnalysis() error: %v", err)
	}
	if err := sink.RecordError(ctx, sampleError()); err != nil {
		t.Errorf("RecordError() error: %v", err)
	}
	if err := sink.Flush(ctx); err != nil {
		t.Errorf("Flush() error: %v", err)
	}

	for name, child := range map[string]*countingSink{"a": a, "b": b} {
		if child.analyses != 1 || child.errs != 1 || child.flushes != 1 {
			t.Errorf("child %s counts = %d/%d/%d, want 1/1/1",
				name, child.analyses, child.errs, child.flushes)
		}
	}
}

func TestCompositeSink_OneFailureDoesNotStopOthers(t *testing.T) {
	failErr := errors.New("backend down")
	failing := &countingSink{fail: failErr}
	healthy := &countingSink{}
	sink, err := NewCompositeSink(failing, healthy)
	if err != nil {
		t.Fatalf("NewCompositeSink() error: %v", err)
	}

	err = sink.RecordAnalysis(context.Background(), sampleAnalysis())
	if !errors.Is(err, failErr) {
		t.Errorf("expected joined error to include the child failure, got %v", err)
	}
	if healthy.analyses != 1 {
		t.Errorf("healthy child analyses = %d, want 1", healthy.analyses)
	}
}

func TestCompositeSink_Close(t *testing.T) {
	child := &countingSink{}
	sink, err := NewCompositeSink(child)
	if err != nil {
		t.Fatalf("NewCompositeSink() error: %v", err)
	}

	if err := sink.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second Close() error: %v", err)
	}
	if child.closes != 1 {
		t.Errorf("child closes = %d, want 1", child.closes)
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
}

func TestCompositeSink_NilArguments(t *testing.T) {
	sink, err := NewCompositeSink(&countingSink{})
	if err != nil {
		t.Fatalf("NewCompositeSink() error: %v", err)
	}

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

func TestCompositeSink_ConcurrentUse(t *testing.T) {
	child := &countingSink{}
	sink, err := NewCompositeSink(child)
	if err != nil {
		t.Fatalf("NewCompositeSink() error: %v", err)
	}

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_ = sink.RecordAnalysis(context.Background(), sampleAnalysis())
		}()
	}
	wg.Wait()

	if child.analyses != goroutines {
		t.Errorf("child analyses = %d, want %d", child.analyses, goroutines)
	}
}
