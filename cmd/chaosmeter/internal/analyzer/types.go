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
	"strings"
	"time"
)

// AnalyzerVersion is the version of the analyzer reported in scorecard metadata.
const AnalyzerVersion = "1.2"

// ScoreAlgorithmVersion is the version of the resilience scoring algorithm.
// Increment when making changes that affect score calculations.
const ScoreAlgorithmVersion = "1.0"

// Default weights for the resilience score components.
const (
	DefaultWeightToolCalls  = 0.4
	DefaultWeightRecovery   = 0.4
	DefaultWeightCompletion = 0.2
)

// Correlation window defaults.
const (
	// DefaultRetryLookahead is how many lines (inclusive of the retry line)
	// the retry correlator scans forward for a 200 response.
	DefaultRetryLookahead = 10

	// DefaultSimultaneityWindow is the maximum timestamp distance between a
	// dependency call and a dependent call for them to count as simultaneous.
	DefaultSimultaneityWindow = 2 * time.Second
)

// Grade thresholds on the rounded resilience score.
const (
	ThresholdGradeA = 90.0
	ThresholdGradeB = 80.0
	ThresholdGradeC = 70.0
	ThresholdGradeD = 60.0
)

// Grade is the letter grade derived from the resilience score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"

	// GradeNA is reported when no log file could be located.
	GradeNA Grade = "N/A"
)

// GradeForScore maps a rounded resilience score to a letter grade.
func GradeForScore(score float64) Grade {
	switch {
	case score >= ThresholdGradeA:
		return GradeA
	case score >= ThresholdGradeB:
		return GradeB
	case score >= ThresholdGradeC:
		return GradeC
	case score >= ThresholdGradeD:
		return GradeD
	default:
		return GradeF
	}
}

// Weights holds the weights for the resilience score components.
type Weights struct {
	ToolCalls  float64 `json:"tool_calls" yaml:"tool_calls"`
	Recovery   float64 `json:"recovery" yaml:"recovery"`
	Completion float64 `json:"completion" yaml:"completion"`
}

// DefaultWeights returns the default score weights.
func DefaultWeights() Weights {
	return Weights{
		ToolCalls:  DefaultWeightToolCalls,
		Recovery:   DefaultWeightRecovery,
		Completion: DefaultWeightCompletion,
	}
}

// Total returns the sum of all weights.
func (w Weights) Total() float64 {
	return w.ToolCalls + w.Recovery + w.Completion
}

// Config holds configuration for one analysis run.
//
// # Fields
//
//   - LogFile: Explicit log file path. Takes precedence when it exists.
//   - LogDir: Directory scanned for *.log files when no explicit path resolves.
//   - CandidateFiles: Conventional relative filenames tried before the glob.
//   - Weights: Score component weights.
//   - RetryLookahead: Retry correlation window in lines.
//   - SimultaneityWindow: Race detector simultaneity window.
type Config struct {
	LogFile            string
	LogDir             string
	CandidateFiles     []string
	Weights            Weights
	RetryLookahead     int
	SimultaneityWindow time.Duration
}

// DefaultConfig returns a Config with the documented defaults.
func DefaultConfig() Config {
	return Config{
		LogDir:             "logs",
		CandidateFiles:     DefaultCandidateFiles(),
		Weights:            DefaultWeights(),
		RetryLookahead:     DefaultRetryLookahead,
		SimultaneityWindow: DefaultSimultaneityWindow,
	}
}

// Tally is an open-keyed counter map with a defined zero value on first access.
type Tally map[string]int

// Add increments the counter for key.
func (t Tally) Add(key string) {
	t[key]++
}

// Tool names resolved from log records and free-text lines.
const (
	ToolSearchFlights = "search_flights"
	ToolBookTicket    = "book_ticket"
	ToolFlightRelated = "flight_related"
	ToolLLMRequest    = "llm_request"
	ToolUnknown       = "unknown"
)

// TrafficAgentToAgent marks swarm (agent-to-agent) traffic in log records.
const TrafficAgentToAgent = "AGENT_TO_AGENT"

// ChaosList is the normalized form of the chaos_applied field, which the
// interception layer writes either as a single string or as an ordered list.
type ChaosList []string

// Joined returns the lowercase comma-joined form used for substring checks.
func (c ChaosList) Joined() string {
	return strings.ToLower(strings.Join(c, ","))
}

// Contains reports whether the joined form contains the substring.
func (c ChaosList) Contains(sub string) bool {
	return strings.Contains(c.Joined(), sub)
}

// LogRecord is a structured log line emitted by the interception layer.
// Presence of a timestamp field is the sole discriminator that a line is
// structured; all other fields are optional.
type LogRecord struct {
	// RawTimestamp is the timestamp string exactly as logged.
	RawTimestamp string

	// When is the parsed timestamp. Zero when RawTimestamp did not parse;
	// such records are excluded from temporal correlation but still counted.
	When time.Time

	Method         string
	URL            string
	StatusCode     int // 0 when absent
	ToolName       string
	Chaos          ChaosList
	Fuzzed         bool
	AgentRole      string
	TrafficType    string // "UNKNOWN" when absent
	TrafficSubtype string

	// LineNo is the 1-based source line number.
	LineNo int
}

// HasStatus reports whether the record carried a status_code field.
func (r *LogRecord) HasStatus() bool {
	return r.StatusCode != 0
}

// Failed reports whether the record carries a failing status code.
func (r *LogRecord) Failed() bool {
	return r.StatusCode >= 400
}

// LogicError describes a suspected logic defect found by correlation.
// Only the race detector produces these today.
type LogicError struct {
	Type                string    `json:"type"`
	Description         string    `json:"description"`
	DependentCallTime   time.Time `json:"dependent_call_time"`
	DependentCallStatus int       `json:"dependent_call_status"`
	DependencyAvailable bool      `json:"dependency_available"`
	SimultaneousCalls   bool      `json:"simultaneous_calls"`
}

// LogicErrorRaceCondition is the only LogicError type currently emitted.
const LogicErrorRaceCondition = "race_condition"

// Metrics accumulates all counters, tallies and derived rates for one run.
//
// One Metrics value is threaded explicitly through every extraction and
// correlation step; there is no ambient state. Derived rates are zero until
// Finalize is called.
type Metrics struct {
	TotalToolCalls            int `json:"total_tool_calls"`
	SuccessfulToolCalls       int `json:"successful_tool_calls"`
	FailedToolCalls           int `json:"failed_tool_calls"`
	FuzzingAttempts           int `json:"fuzzing_attempts"`
	FuzzingSuccessful         int `json:"fuzzing_successful"`
	RetryAttempts             int `json:"retry_attempts"`
	SuccessfulRetries         int `json:"successful_retries"`
	AgentCrashes              int `json:"agent_crashes"`
	AgentSuccessfulCompletion int `json:"agent_successful_completion"`
	RaceConditionsDetected    int `json:"race_conditions_detected"`
	AgentToAgentDisruptions   int `json:"agent_to_agent_disruptions"`
	MessageMutations          int `json:"message_mutations"`
	ConsensusDelays           int `json:"consensus_delays"`
	AgentIsolations           int `json:"agent_isolations"`

	ToolCallErrors           Tally `json:"tool_call_errors"`
	FuzzingTypes             Tally `json:"fuzzing_types"`
	SwarmCommunicationErrors Tally `json:"swarm_communication_errors"`

	LogicErrors []LogicError `json:"logic_errors"`

	ToolCallSuccessRate float64 `json:"tool_call_success_rate"`
	FuzzingSuccessRate  float64 `json:"fuzzing_success_rate"`
	SystemRecoveryRate  float64 `json:"system_recovery_rate"`
	RetrySuccessRate    float64 `json:"retry_success_rate"`
	ResilienceScore     float64 `json:"resilience_score"`
}

// NewMetrics returns a Metrics value with all tallies initialized.
func NewMetrics() *Metrics {
	return &Metrics{
		ToolCallErrors:           make(Tally),
		FuzzingTypes:             make(Tally),
		SwarmCommunicationErrors: make(Tally),
		LogicErrors:              make([]LogicError, 0),
	}
}

// Metadata describes one analysis run.
type Metadata struct {
	GeneratedAt           time.Time `json:"generated_at"`
	AnalyzerVersion       string    `json:"analyzer_version"`
	ScoreAlgorithmVersion string    `json:"score_algorithm_version"`
	ReportID              string    `json:"report_id"`
	LogFile               string    `json:"log_file,omitempty"`
	Warning               string    `json:"warning,omitempty"`
}

// Scorecard is the complete, immutable analysis result for one log file.
//
// Both renderers (JSON and Markdown) must consume the same Scorecard value;
// the snapshot is never recomputed between them.
type Scorecard struct {
	Metadata  Metadata          `json:"metadata"`
	Metrics   Metrics           `json:"metrics"`
	Grade     Grade             `json:"grade"`
	Summary   map[string]string `json:"summary"`
	ToolCalls []EventDocument   `json:"tool_calls"`
	Events    []EventDocument   `json:"events"`
}
