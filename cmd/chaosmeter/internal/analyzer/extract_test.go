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
	"testing"
)

// =============================================================================
// Structured Extraction Tests
// =============================================================================

func TestExtractRecord_ToolCallWithResponse(t *testing.T) {
	// One record can emit both a ToolCall and a Response event.
	m := NewMetrics()
	rec := ParseRecord(`{"timestamp":"2024-03-01T10:00:00","method":"POST",`+
		`"url":"http://api/search_flights","status_code":200}`, 1)
	if rec == nil {
		t.Fatal("expected a record")
	}

	events := ExtractRecord(rec, m)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind() != EventToolCall {
		t.Errorf("events[0].Kind() = %q, want %q", events[0].Kind(), EventToolCall)
	}
	if events[1].Kind() != EventResponse {
		t.Errorf("events[1].Kind() = %q, want %q", events[1].Kind(), EventResponse)
	}
	if m.TotalToolCalls != 1 || m.SuccessfulToolCalls != 1 || m.FailedToolCalls != 0 {
		t.Errorf("counters = %d/%d/%d, want 1/1/0",
			m.TotalToolCalls, m.SuccessfulToolCalls, m.FailedToolCalls)
	}
}

func TestExtractRecord_GetIsNotAToolCall(t *testing.T) {
	m := NewMetrics()
	rec := ParseRecord(`{"timestamp":"2024-03-01T10:00:00","method":"GET",`+
		`"url":"http://api/search_flights","status_code":200}`, 1)

	events := ExtractRecord(rec, m)
	if m.TotalToolCalls != 0 {
		t.Errorf("TotalToolCalls = %d, want 0", m.TotalToolCalls)
	}
	// The response still counts.
	if len(events) != 1 || events[0].Kind() != EventResponse {
		t.Fatalf("expected one Response event, got %v", events)
	}
	if m.SuccessfulToolCalls != 1 {
		t.Errorf("SuccessfulToolCalls = %d, want 1", m.SuccessfulToolCalls)
	}
}

func TestExtractRecord_FailureClassification(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{400, "validation_error"},
		{404, "not_found"},
		{500, "server_error"},
		{502, "server_error"},
	}

	for _, tt := range tests {
		m := NewMetrics()
		rec := &LogRecord{StatusCode: tt.status, LineNo: 1}
		ExtractRecord(rec, m)
		if m.FailedToolCalls != 1 {
			t.Errorf("status %d: FailedToolCalls = %d, want 1", tt.status, m.FailedToolCalls)
		}
		if m.ToolCallErrors[tt.want] != 1 {
			t.Errorf("status %d: ToolCallErrors[%q] = %d, want 1",
				tt.status, tt.want, m.ToolCallErrors[tt.want])
		}
	}
}

func TestExtractRecord_Fuzzing(t *testing.T) {
	tests := []struct {
		name           string
		line           string
		wantKind       string
		wantFields     int
		wantSuccessful int
	}{
		{
			name:           "fuzzed flag",
			line:           `{"timestamp":"2024-03-01T10:00:00","fuzzed":true}`,
			wantKind:       ToolUnknown,
			wantFields:     1,
			wantSuccessful: 1,
		},
		{
			name:           "chaos fuzzing marker without flag",
			line:           `{"timestamp":"2024-03-01T10:00:00","chaos_applied":"MCP_Fuzzing"}`,
			wantKind:       ToolUnknown,
			wantFields:     0,
			wantSuccessful: 0,
		},
		{
			name:           "chaos kind from list",
			line:           `{"timestamp":"2024-03-01T10:00:00","fuzzed":true,"chaos_applied":["fuzzing","schema_violation"]}`,
			wantKind:       "schema_violation",
			wantFields:     1,
			wantSuccessful: 1,
		},
		{
			name:           "bare null marker",
			line:           `{"timestamp":"2024-03-01T10:00:00","fuzzed":true,"chaos_applied":"null"}`,
			wantKind:       "null_injection",
			wantFields:     1,
			wantSuccessful: 1,
		},
		{
			name:           "bare garbage marker",
			line:           `{"timestamp":"2024-03-01T10:00:00","fuzzed":true,"chaos_applied":"garbage"}`,
			wantKind:       "garbage_value",
			wantFields:     1,
			wantSuccessful: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMetrics()
			rec := ParseRecord(tt.line, 1)
			if rec == nil {
				t.Fatal("expected a record")
			}
			events := ExtractRecord(rec, m)
			var fz *FuzzingEvent
			for _, ev := range events {
				if f, ok := ev.(FuzzingEvent); ok {
					fz = &f
				}
			}
			if fz == nil {
				t.Fatal("expected a FuzzingEvent")
			}
			if fz.FuzzType != tt.wantKind {
				t.Errorf("FuzzType = %q, want %q", fz.FuzzType, tt.wantKind)
			}
			if fz.FieldsFuzzed != tt.wantFields {
				t.Errorf("FieldsFuzzed = %d, want %d", fz.FieldsFuzzed, tt.wantFields)
			}
			if m.FuzzingAttempts != 1 {
				t.Errorf("FuzzingAttempts = %d, want 1", m.FuzzingAttempts)
			}
			if m.FuzzingSuccessful != tt.wantSuccessful {
				t.Errorf("FuzzingSuccessful = %d, want %d", m.FuzzingSuccessful, tt.wantSuccessful)
			}
		})
	}
}

func TestExtractRecord_NoFuzzingSignal(t *testing.T) {
	m := NewMetrics()
	rec := ParseRecord(`{"timestamp":"2024-03-01T10:00:00","chaos_applied":"latency_injection"}`, 1)
	events := ExtractRecord(rec, m)
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
	if m.FuzzingAttempts != 0 {
		t.Errorf("FuzzingAttempts = %d, want 0", m.FuzzingAttempts)
	}
}

// =============================================================================
// Swarm Extraction Tests
// =============================================================================

func TestExtractRecord_Swarm(t *testing.T) {
	m := NewMetrics()
	rec := ParseRecord(`{"timestamp":"2024-03-01T10:00:00","traffic_type":"AGENT_TO_AGENT",`+
		`"traffic_subtype":"broadcast","chaos_applied":["message_mutation","consensus_delay"],`+
		`"status_code":500}`, 1)
	if rec == nil {
		t.Fatal("expected a record")
	}
	ExtractRecord(rec, m)

	if m.AgentToAgentDisruptions != 1 {
		t.Errorf("AgentToAgentDisruptions = %d, want 1", m.AgentToAgentDisruptions)
	}
	if m.MessageMutations != 1 {
		t.Errorf("MessageMutations = %d, want 1", m.MessageMutations)
	}
	if m.ConsensusDelays != 1 {
		t.Errorf("ConsensusDelays = %d, want 1", m.ConsensusDelays)
	}
	if m.AgentIsolations != 0 {
		t.Errorf("AgentIsolations = %d, want 0", m.AgentIsolations)
	}
	if m.SwarmCommunicationErrors["swarm_broadcast"] != 1 {
		t.Errorf("swarm_broadcast tally = %d, want 1", m.SwarmCommunicationErrors["swarm_broadcast"])
	}
	if m.SwarmCommunicationErrors["swarm_error_500"] != 1 {
		t.Errorf("swarm_error_500 tally = %d, want 1", m.SwarmCommunicationErrors["swarm_error_500"])
	}
}

func TestExtractRecord_SwarmDisruptionCountsAsMutation(t *testing.T) {
	m := NewMetrics()
	rec := ParseRecord(`{"timestamp":"2024-03-01T10:00:00","traffic_type":"AGENT_TO_AGENT",`+
		`"chaos_applied":"swarm_disruption"}`, 1)
	ExtractRecord(rec, m)

	if m.MessageMutations != 1 {
		t.Errorf("MessageMutations = %d, want 1", m.MessageMutations)
	}
}

func TestExtractRecord_NonSwarmTrafficIgnored(t *testing.T) {
	m := NewMetrics()
	rec := ParseRecord(`{"timestamp":"2024-03-01T10:00:00","traffic_type":"CLIENT_TO_AGENT",`+
		`"chaos_applied":"message_mutation"}`, 1)
	ExtractRecord(rec, m)

	if m.AgentToAgentDisruptions != 0 || m.MessageMutations != 0 {
		t.Error("swarm counters must only move on AGENT_TO_AGENT traffic")
	}
}
