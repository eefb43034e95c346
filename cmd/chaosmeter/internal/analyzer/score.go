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

import "math"

// Finalize computes the derived rates and the weighted resilience score.
//
// Every quotient is guarded against a zero denominator. Rates yield 0.0 in
// that case, with one deliberate exception: the recovery rate is vacuously
// 100.0 when nothing failed. The recovery formula itself can exceed 100
// (completions plus recovered retries against few failures); the cap is
// applied by the score term, not the rate.
func (m *Metrics) Finalize(weights Weights) {
	m.ToolCallSuccessRate = percentage(m.SuccessfulToolCalls, m.TotalToolCalls)
	m.FuzzingSuccessRate = percentage(m.FuzzingSuccessful, m.FuzzingAttempts)
	m.RetrySuccessRate = percentage(m.SuccessfulRetries, m.RetryAttempts)

	if m.FailedToolCalls == 0 {
		m.SystemRecoveryRate = 100.0
	} else {
		m.SystemRecoveryRate = percentage(m.SuccessfulRetries+m.AgentSuccessfulCompletion, m.FailedToolCalls)
	}

	if weights.Total() == 0 {
		weights = DefaultWeights()
	}

	score := weights.ToolCalls*math.Min(m.ToolCallSuccessRate, 100) +
		weights.Recovery*math.Min(m.SystemRecoveryRate, 100) +
		weights.Completion*m.completionScore()

	m.ResilienceScore = math.Round(score*100) / 100
}

// completionScore grades the agent's final outcome: a clean run scores
// full marks, otherwise completions are weighed against crashes.
func (m *Metrics) completionScore() float64 {
	if m.AgentCrashes == 0 {
		return 100.0
	}
	return percentage(m.AgentSuccessfulCompletion, m.AgentSuccessfulCompletion+m.AgentCrashes)
}

// percentage returns part/total as a percentage, 0.0 when total is zero.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}
