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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/telemetry"
	"github.com/AleutianAI/chaosmeter/pkg/logging"
)

// Report list bounds.
const (
	recentToolCallLimit = 10
	recentEventLimit    = 20
)

// Analyzer runs the full analysis pipeline over one log file.
//
// # Thread Safety
//
// Analyzer itself holds no per-run state; it is safe for concurrent use.
// Each Analyze call builds its own Metrics and Scorecard.
type Analyzer struct {
	cfg    Config
	logger *logging.Logger
	sink   telemetry.Sink
}

// New creates a new Analyzer.
//
// # Inputs
//
//   - cfg: Run configuration. Zero-valued fields fall back to defaults.
//   - logger: Structured logger. May be nil; a default stderr logger is used.
//   - sink: Telemetry sink. May be nil; telemetry is discarded.
func New(cfg Config, logger *logging.Logger, sink telemetry.Sink) *Analyzer {
	if logger == nil {
		logger = logging.Default()
	}
	if sink == nil {
		sink = telemetry.NewNoOpSink()
	}
	if len(cfg.CandidateFiles) == 0 {
		cfg.CandidateFiles = DefaultCandidateFiles()
	}
	if cfg.RetryLookahead <= 0 {
		cfg.RetryLookahead = DefaultRetryLookahead
	}
	if cfg.SimultaneityWindow <= 0 {
		cfg.SimultaneityWindow = DefaultSimultaneityWindow
	}
	if cfg.Weights.Total() == 0 {
		cfg.Weights = DefaultWeights()
	}
	return &Analyzer{cfg: cfg, logger: logger, sink: sink}
}

// Analyze runs the pipeline once and returns the scorecard snapshot.
//
// Every failure mode degrades to a smaller, labeled result: a missing log
// file or an unreadable file yields an empty scorecard with grade "N/A"
// and a metadata warning, never an error. The only error return is a nil
// context.
func (a *Analyzer) Analyze(ctx context.Context) (*Scorecard, error) {
	if ctx == nil {
		return nil, fmt.Errorf("ctx must not be nil")
	}

	start := time.Now()

	path := LocateLogFile(a.cfg.LogFile, a.cfg.LogDir, a.cfg.CandidateFiles)
	ctx, span := startAnalyzeSpan(ctx, path)
	defer span.End()

	if err := initInstruments(); err != nil {
		a.logger.Warn("telemetry instruments unavailable", "error", err.Error())
	}

	if path == "" {
		a.logger.Warn("no log file found",
			"log_file", a.cfg.LogFile,
			"log_dir", a.cfg.LogDir,
		)
		a.recordError(ctx, "locator", "not_found", "no log file found")
		return a.emptyScorecard("", "no log file found; analysis skipped"), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		a.logger.Error("failed to read log file", "path", path, "error", err.Error())
		a.recordError(ctx, "reader", "io", err.Error())
		return a.emptyScorecard(path, fmt.Sprintf("log file unreadable: %v", err)), nil
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	metrics := NewMetrics()
	var events []Event
	var records []*LogRecord

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		// Structured records take precedence; a line feeds at most one
		// extraction path.
		if rec := ParseRecord(line, i+1); rec != nil {
			records = append(records, rec)
			events = append(events, ExtractRecord(rec, metrics)...)
			continue
		}

		if ev := ExtractFreeText(line, i+1, metrics); ev != nil {
			events = append(events, ev)
		}
	}

	CorrelateRetries(events, lines, a.cfg.RetryLookahead, metrics)
	DetectRaces(records, a.cfg.SimultaneityWindow, metrics)
	metrics.Finalize(a.cfg.Weights)

	grade := GradeForScore(metrics.ResilienceScore)
	card := &Scorecard{
		Metadata:  a.metadata(path, ""),
		Metrics:   *metrics,
		Grade:     grade,
		Summary:   buildSummary(metrics),
		ToolCalls: recentDocuments(events, EventToolCall, recentToolCallLimit),
		Events:    recentDocuments(events, "", recentEventLimit),
	}

	duration := time.Since(start)
	a.logger.Info("analysis complete",
		"log_file", path,
		"lines", len(lines),
		"events", len(events),
		"score", metrics.ResilienceScore,
		"grade", string(grade),
		"duration_ms", duration.Milliseconds(),
	)

	if instrumentsErr == nil {
		linesProcessed.Add(ctx, int64(len(lines)))
		eventsExtracted.Add(ctx, int64(len(events)))
		racesDetected.Add(ctx, int64(metrics.RaceConditionsDetected))
		analyzeLatency.Record(ctx, duration.Seconds())
	}
	setAnalyzeSpanResult(span, len(events), grade)

	if err := a.sink.RecordAnalysis(ctx, &telemetry.AnalysisData{
		Timestamp:      time.Now(),
		LogFile:        path,
		Duration:       duration,
		Lines:          len(lines),
		Events:         len(events),
		RaceConditions: metrics.RaceConditionsDetected,
		Score:          metrics.ResilienceScore,
		Grade:          string(grade),
	}); err != nil {
		a.logger.Warn("failed to record run telemetry", "error", err.Error())
	}

	return card, nil
}

// emptyScorecard is the degraded result for a run with no usable input.
// All counters stay at zero and no rates are derived, so the grade is
// "N/A" rather than a misleading letter.
func (a *Analyzer) emptyScorecard(path, warning string) *Scorecard {
	return &Scorecard{
		Metadata:  a.metadata(path, warning),
		Metrics:   *NewMetrics(),
		Grade:     GradeNA,
		Summary:   map[string]string{"warning": warning},
		ToolCalls: []EventDocument{},
		Events:    []EventDocument{},
	}
}

func (a *Analyzer) metadata(path, warning string) Metadata {
	return Metadata{
		GeneratedAt:           time.Now().UTC(),
		AnalyzerVersion:       AnalyzerVersion,
		ScoreAlgorithmVersion: ScoreAlgorithmVersion,
		ReportID:              uuid.NewString(),
		LogFile:               path,
		Warning:               warning,
	}
}

func (a *Analyzer) recordError(ctx context.Context, component, errorType, msg string) {
	err := a.sink.RecordError(ctx, &telemetry.ErrorData{
		Timestamp: time.Now(),
		Component: component,
		ErrorType: errorType,
		Message:   msg,
	})
	if err != nil {
		a.logger.Warn("failed to record error telemetry", "error", err.Error())
	}
}

// recentDocuments returns the serialized form of the last n events,
// optionally filtered to one kind. Pass an empty kind to keep all events.
func recentDocuments(events []Event, kind EventKind, n int) []EventDocument {
	filtered := events
	if kind != "" {
		filtered = make([]Event, 0, len(events))
		for _, ev := range events {
			if ev.Kind() == kind {
				filtered = append(filtered, ev)
			}
		}
	}

	if len(filtered) > n {
		filtered = filtered[len(filtered)-n:]
	}

	docs := make([]EventDocument, 0, len(filtered))
	for _, ev := range filtered {
		docs = append(docs, ev.Document())
	}
	return docs
}

// buildSummary renders the human-readable summary strings keyed by metric
// group. Optional groups (races, swarm) appear only when non-zero.
func buildSummary(m *Metrics) map[string]string {
	s := map[string]string{
		"tool_calls": fmt.Sprintf("%d/%d tool calls succeeded (%.1f%%)",
			m.SuccessfulToolCalls, m.TotalToolCalls, m.ToolCallSuccessRate),
		"fuzzing": fmt.Sprintf("%d/%d fuzzing injections mutated at least one field (%.1f%%)",
			m.FuzzingSuccessful, m.FuzzingAttempts, m.FuzzingSuccessRate),
		"retries": fmt.Sprintf("%d/%d retries recovered (%.1f%%)",
			m.SuccessfulRetries, m.RetryAttempts, m.RetrySuccessRate),
		"recovery": fmt.Sprintf("system recovery rate %.1f%%", m.SystemRecoveryRate),
		"outcome": fmt.Sprintf("%d successful completions, %d crashes",
			m.AgentSuccessfulCompletion, m.AgentCrashes),
	}
	if m.RaceConditionsDetected > 0 {
		s["race_conditions"] = fmt.Sprintf("%d suspected ordering races between dependent tool calls",
			m.RaceConditionsDetected)
	}
	if m.AgentToAgentDisruptions > 0 {
		s["swarm"] = fmt.Sprintf("%d agent-to-agent disruptions observed", m.AgentToAgentDisruptions)
	}
	return s
}
