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
	"fmt"
	"strings"
)

// ExtractRecord derives events from a structured record and updates the
// metrics. Unlike the free-text path, one record can legitimately produce
// several events (a POST tool call that also carries its response status,
// for example).
func ExtractRecord(rec *LogRecord, m *Metrics) []Event {
	base := eventBase{LineNo: rec.LineNo, Timestamp: rec.When}
	var events []Event

	if tool := rec.ResolvedTool(); rec.Method == "POST" && tool != "" {
		m.TotalToolCalls++
		events = append(events, ToolCallEvent{
			eventBase:  base,
			URL:        rec.URL,
			ToolName:   tool,
			StatusCode: rec.StatusCode,
		})
	}

	if rec.HasStatus() {
		if rec.Failed() {
			m.FailedToolCalls++
			m.ToolCallErrors.Add(classifyErrorStatus(rec.StatusCode))
		} else {
			m.SuccessfulToolCalls++
		}
		events = append(events, ResponseEvent{eventBase: base, StatusCode: rec.StatusCode})
	}

	if rec.Fuzzed || rec.Chaos.Contains("fuzzing") || rec.Chaos.Contains("mcp") {
		kind := classifyChaosFuzzKind(rec.Chaos.Joined())
		// Structured records only declare that fuzzing happened, not how
		// many fields were touched; the fuzzed flag stands in for a count.
		fields := 0
		if rec.Fuzzed {
			fields = 1
		}
		m.FuzzingAttempts++
		m.FuzzingTypes.Add(kind)
		if fields > 0 {
			m.FuzzingSuccessful++
		}
		events = append(events, FuzzingEvent{eventBase: base, FuzzType: kind, FieldsFuzzed: fields})
	}

	if rec.TrafficType == TrafficAgentToAgent {
		extractSwarm(rec, m)
	}

	return events
}

// extractSwarm tallies agent-to-agent disruption signals from one record.
func extractSwarm(rec *LogRecord, m *Metrics) {
	m.AgentToAgentDisruptions++

	if rec.TrafficSubtype != "" {
		m.SwarmCommunicationErrors.Add("swarm_" + rec.TrafficSubtype)
	}

	joined := rec.Chaos.Joined()
	if strings.Contains(joined, "swarm_disruption") || strings.Contains(joined, "message_mutation") {
		m.MessageMutations++
	}
	if strings.Contains(joined, "consensus_delay") {
		m.ConsensusDelays++
	}
	if strings.Contains(joined, "agent_isolation") {
		m.AgentIsolations++
	}

	if rec.Failed() {
		m.SwarmCommunicationErrors.Add(fmt.Sprintf("swarm_error_%d", rec.StatusCode))
	}
}

// classifyChaosFuzzKind buckets a normalized chaos_applied string. The
// chaos vocabulary is looser than the free-text one: a bare "null" or
// "garbage" marker is enough to resolve the kind.
func classifyChaosFuzzKind(joined string) string {
	switch {
	case strings.Contains(joined, "schema_violation"):
		return "schema_violation"
	case strings.Contains(joined, "type_mismatch"):
		return "type_mismatch"
	case strings.Contains(joined, "null"):
		return "null_injection"
	case strings.Contains(joined, "garbage"):
		return "garbage_value"
	default:
		return ToolUnknown
	}
}
