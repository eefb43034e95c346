// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/analyzer"
)

// Threshold constants for the recommendation rules. These bind the
// narrative output, not the score itself.
const (
	lowSuccessRateThreshold  = 70.0
	lowRecoveryRateThreshold = 50.0
	lowFuzzingRateThreshold  = 50.0
)

// Recommendations derives an ordered list of remediation hints from a
// finalized scorecard.
//
// Every rule reads only the aggregated metrics; no raw events are
// consulted. Rules are evaluated in a fixed order so reports stay
// diffable across runs. When nothing fires, a single affirmative line is
// emitted so the section is never empty.
func Recommendations(card *analyzer.Scorecard) []string {
	if card.Grade == analyzer.GradeNA {
		return []string{"No log file was analyzed. Point the analyzer at a chaos session log and re-run."}
	}

	m := &card.Metrics
	var recs []string

	if card.Grade == analyzer.GradeD || card.Grade == analyzer.GradeF {
		recs = append(recs, "Overall resilience is low. Review agent error handling and retry behavior before re-running the chaos suite.")
	}
	if m.ToolCallSuccessRate < lowSuccessRateThreshold {
		recs = append(recs, "Tool call success rate is below 70%. Harden tool-call error handling so injected faults do not surface as hard failures.")
	}
	if m.SystemRecoveryRate < lowRecoveryRateThreshold {
		recs = append(recs, "System recovery rate is below 50%. Add or tune retry logic so transient failures are recovered automatically.")
	}
	if m.AgentCrashes > 0 {
		recs = append(recs, "Agent crashes were observed. Wrap tool invocations in exception handling so a single fault cannot terminate the agent.")
	}
	if m.FuzzingAttempts > 0 && m.FuzzingSuccessRate < lowFuzzingRateThreshold {
		recs = append(recs, "Fewer than half of fuzzing attempts were handled gracefully. Review input validation and the fuzzing configuration.")
	}
	if m.RetryAttempts == 0 && m.FailedToolCalls > 0 {
		recs = append(recs, "Tool calls failed but no retries were attempted. The agent appears to have no retry strategy at all.")
	}
	if m.RaceConditionsDetected > 0 {
		recs = append(recs,
			"CRITICAL: Race conditions detected. Execute dependent tool calls sequentially instead of in parallel.",
			"CRITICAL: Validate that dependency results (e.g. search_flights) are present before issuing dependent calls (e.g. book_ticket).")
	}

	if len(recs) == 0 {
		recs = append(recs, "No resilience issues detected. The agent handled the chaos session well.")
	}
	return recs
}
