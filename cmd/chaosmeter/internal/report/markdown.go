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
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/analyzer"
)

// summaryKeyOrder fixes the bullet order of the Summary section. Keys not
// listed here are appended alphabetically.
var summaryKeyOrder = []string{
	"tool_calls",
	"fuzzing",
	"retries",
	"recovery",
	"race_conditions",
	"swarm",
	"outcome",
}

// WriteMarkdown renders the narrative document and writes it to path.
func WriteMarkdown(card *analyzer.Scorecard, path string) error {
	if card == nil {
		return ErrNilScorecard
	}
	if err := os.WriteFile(path, []byte(RenderMarkdown(card)), reportFileMode); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown produces the narrative Markdown document for a scorecard.
//
// Section order is fixed: title, grade, score, Summary, Detailed Metrics
// (Tool Calls, Swarm Communication Errors when present, Fuzzing, System
// Recovery, Agent Outcome, Race Conditions when present, Error Breakdown
// when present), Recommendations. Optional sections are omitted entirely
// rather than rendered empty.
func RenderMarkdown(card *analyzer.Scorecard) string {
	m := &card.Metrics
	var b strings.Builder

	b.WriteString("# Chaos Session Resilience Report\n\n")
	fmt.Fprintf(&b, "**Grade: %s**\n\n", card.Grade)
	fmt.Fprintf(&b, "**Resilience Score: %.2f / 100**\n\n", m.ResilienceScore)
	fmt.Fprintf(&b, "Generated: %s | Analyzer %s | Score algorithm %s\n\n",
		card.Metadata.GeneratedAt.Format(time.RFC3339),
		card.Metadata.AnalyzerVersion,
		card.Metadata.ScoreAlgorithmVersion)
	if card.Metadata.LogFile != "" {
		fmt.Fprintf(&b, "Log file: `%s`\n\n", card.Metadata.LogFile)
	}
	if card.Metadata.Warning != "" {
		fmt.Fprintf(&b, "> ⚠️ %s\n\n", card.Metadata.Warning)
	}

	writeSummary(&b, card.Summary)
	b.WriteString("## Detailed Metrics\n\n")
	writeToolCalls(&b, m)
	writeSwarm(&b, m)
	writeFuzzing(&b, m)
	writeRecovery(&b, m)
	writeOutcome(&b, m)
	writeRaces(&b, m)
	writeErrorBreakdown(&b, m)
	writeRecommendations(&b, card)

	return b.String()
}

func writeSummary(b *strings.Builder, summary map[string]string) {
	b.WriteString("## Summary\n\n")
	for _, key := range orderedSummaryKeys(summary) {
		fmt.Fprintf(b, "- %s\n", summary[key])
	}
	b.WriteString("\n")
}

// orderedSummaryKeys returns the summary keys in render order.
func orderedSummaryKeys(summary map[string]string) []string {
	seen := make(map[string]bool, len(summary))
	var keys []string
	for _, key := range summaryKeyOrder {
		if _, ok := summary[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	var rest []string
	for key := range summary {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func writeToolCalls(b *strings.Builder, m *analyzer.Metrics) {
	b.WriteString("### Tool Calls\n\n")
	fmt.Fprintf(b, "- Total: %d\n", m.TotalToolCalls)
	fmt.Fprintf(b, "- Successful: %d\n", m.SuccessfulToolCalls)
	fmt.Fprintf(b, "- Failed: %d\n", m.FailedToolCalls)
	fmt.Fprintf(b, "- Success rate: %.1f%%\n\n", m.ToolCallSuccessRate)
}

func writeSwarm(b *strings.Builder, m *analyzer.Metrics) {
	if m.AgentToAgentDisruptions == 0 && len(m.SwarmCommunicationErrors) == 0 {
		return
	}
	b.WriteString("### Swarm Communication Errors\n\n")
	fmt.Fprintf(b, "- Agent-to-agent disruptions: %d\n", m.AgentToAgentDisruptions)
	fmt.Fprintf(b, "- Message mutations: %d\n", m.MessageMutations)
	fmt.Fprintf(b, "- Consensus delays: %d\n", m.ConsensusDelays)
	fmt.Fprintf(b, "- Agent isolations: %d\n", m.AgentIsolations)
	writeTally(b, m.SwarmCommunicationErrors)
	b.WriteString("\n")
}

func writeFuzzing(b *strings.Builder, m *analyzer.Metrics) {
	b.WriteString("### Fuzzing\n\n")
	fmt.Fprintf(b, "- Attempts: %d\n", m.FuzzingAttempts)
	fmt.Fprintf(b, "- Handled gracefully: %d\n", m.FuzzingSuccessful)
	fmt.Fprintf(b, "- Success rate: %.1f%%\n", m.FuzzingSuccessRate)
	writeTally(b, m.FuzzingTypes)
	b.WriteString("\n")
}

func writeRecovery(b *strings.Builder, m *analyzer.Metrics) {
	b.WriteString("### System Recovery\n\n")
	fmt.Fprintf(b, "- Retry attempts: %d\n", m.RetryAttempts)
	fmt.Fprintf(b, "- Successful retries: %d\n", m.SuccessfulRetries)
	fmt.Fprintf(b, "- Retry success rate: %.1f%%\n", m.RetrySuccessRate)
	fmt.Fprintf(b, "- System recovery rate: %.1f%%\n\n", m.SystemRecoveryRate)
}

func writeOutcome(b *strings.Builder, m *analyzer.Metrics) {
	b.WriteString("### Agent Outcome\n\n")
	fmt.Fprintf(b, "- Successful completions: %d\n", m.AgentSuccessfulCompletion)
	fmt.Fprintf(b, "- Crashes: %d\n\n", m.AgentCrashes)
}

func writeRaces(b *strings.Builder, m *analyzer.Metrics) {
	if m.RaceConditionsDetected == 0 {
		return
	}
	b.WriteString("### Race Conditions\n\n")
	fmt.Fprintf(b, "- Detected: %d\n\n", m.RaceConditionsDetected)
	for _, le := range m.LogicErrors {
		fmt.Fprintf(b, "- `%s`: %s (dependency available: %t, simultaneous: %t)\n",
			le.Type, le.Description, le.DependencyAvailable, le.SimultaneousCalls)
	}
	b.WriteString("\n")
}

func writeErrorBreakdown(b *strings.Builder, m *analyzer.Metrics) {
	if len(m.ToolCallErrors) == 0 {
		return
	}
	b.WriteString("### Error Breakdown\n\n")
	writeTally(b, m.ToolCallErrors)
	b.WriteString("\n")
}

func writeRecommendations(b *strings.Builder, card *analyzer.Scorecard) {
	b.WriteString("## Recommendations\n\n")
	for _, rec := range Recommendations(card) {
		fmt.Fprintf(b, "- %s\n", rec)
	}
}

// writeTally renders an open-keyed counter map as sorted bullets.
func writeTally(b *strings.Builder, t analyzer.Tally) {
	keys := make([]string, 0, len(t))
	for key := range t {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, "- %s: %d\n", key, t[key])
	}
}
