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

import "testing"

// retryFixture builds a line list with a retry at the given 1-based line
// and a "Response: 200" marker at another, padding with noise lines.
func retryFixture(total, retryLine, markerLine int) ([]Event, []string) {
	lines := make([]string, total)
	for i := range lines {
		lines[i] = "noise"
	}
	lines[retryLine-1] = "Retrying request"
	if markerLine > 0 {
		lines[markerLine-1] = "Response: 200 OK"
	}
	events := []Event{RetryEvent{eventBase: eventBase{LineNo: retryLine}}}
	return events, lines
}

// =============================================================================
// Retry Window Tests
// =============================================================================

func TestCorrelateRetries_WindowBounds(t *testing.T) {
	tests := []struct {
		name       string
		retryLine  int
		markerLine int
		want       int
	}{
		// Window is [retryLine, retryLine+lookahead), inclusive of the
		// retry line itself.
		{"marker on retry line", 5, 5, 1},
		{"marker just inside", 5, 14, 1}, // line 5 + 9 offsets, 10th line of window
		{"marker just outside", 5, 15, 0},
		{"marker before retry", 5, 4, 0},
		{"no marker", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			events, lines := retryFixture(20, tt.retryLine, tt.markerLine)
			CorrelateRetries(events, lines, DefaultRetryLookahead, m)
			if m.SuccessfulRetries != tt.want {
				t.Errorf("SuccessfulRetries = %d, want %d", m.SuccessfulRetries, tt.want)
			}
		})
	}
}

func TestCorrelateRetries_WindowTruncatedAtEOF(t *testing.T) {
	m := NewMetrics()
	events, lines := retryFixture(6, 5, 0)
	CorrelateRetries(events, lines, DefaultRetryLookahead, m)
	if m.SuccessfulRetries != 0 {
		t.Errorf("SuccessfulRetries = %d, want 0", m.SuccessfulRetries)
	}
}

func TestCorrelateRetries_OneMarkerPerRetry(t *testing.T) {
	// A retry stops scanning at its first marker; a second marker in the
	// window must not double-count.
	m := NewMetrics()
	lines := []string{
		"Retrying request",
		"Response: 200",
		"Response: 200",
	}
	events := []Event{RetryEvent{eventBase: eventBase{LineNo: 1}}}
	CorrelateRetries(events, lines, DefaultRetryLookahead, m)
	if m.SuccessfulRetries != 1 {
		t.Errorf("SuccessfulRetries = %d, want 1", m.SuccessfulRetries)
	}
}

func TestCorrelateRetries_MultipleRetriesShareMarker(t *testing.T) {
	// Two retries whose windows cover the same success both count: the
	// correlator is a proximity heuristic, not an exclusive assignment.
	m := NewMetrics()
	lines := []string{
		"Retrying request",
		"Retrying request",
		"Response: 200",
	}
	events := []Event{
		RetryEvent{eventBase: eventBase{LineNo: 1}},
		RetryEvent{eventBase: eventBase{LineNo: 2}},
	}
	CorrelateRetries(events, lines, DefaultRetryLookahead, m)
	if m.SuccessfulRetries != 2 {
		t.Errorf("SuccessfulRetries = %d, want 2", m.SuccessfulRetries)
	}
}

func TestCorrelateRetries_IgnoresNonRetryEvents(t *testing.T) {
	m := NewMetrics()
	lines := []string{"Response: 200"}
	events := []Event{ResponseEvent{eventBase: eventBase{LineNo: 1}, StatusCode: 200}}
	CorrelateRetries(events, lines, DefaultRetryLookahead, m)
	if m.SuccessfulRetries != 0 {
		t.Errorf("SuccessfulRetries = %d, want 0", m.SuccessfulRetries)
	}
}

func TestCorrelateRetries_DefaultsLookahead(t *testing.T) {
	m := NewMetrics()
	events, lines := retryFixture(20, 1, 10)
	CorrelateRetries(events, lines, 0, m)
	if m.SuccessfulRetries != 1 {
		t.Errorf("SuccessfulRetries = %d, want 1 with defaulted lookahead", m.SuccessfulRetries)
	}
}
