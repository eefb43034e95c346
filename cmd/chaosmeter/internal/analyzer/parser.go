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
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxMessageLen bounds error and crash messages kept in events.
const maxMessageLen = 200

// Free-text extraction patterns.
var (
	postURLPattern      = regexp.MustCompile(`POST\s+(\S+)`)
	fieldsFuzzedPattern = regexp.MustCompile(`(\d+) fields? fuzzed`)
	responsePattern     = regexp.MustCompile(`Response:\s*(\d+)`)

	// Legacy timestamp formats, tried in order; first match wins.
	tsISOPattern     = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})[ T](\d{2}:\d{2}:\d{2})`)
	tsUSPattern      = regexp.MustCompile(`(\d{2}/\d{2}/\d{4}) (\d{2}:\d{2}:\d{2})`)
	tsBracketPattern = regexp.MustCompile(`\[(\d{2}:\d{2}:\d{2})\]`)
)

// Fuzz kinds recognized in both free-text lines and chaos_applied values.
var fuzzKinds = []string{
	"schema_violation",
	"type_mismatch",
	"null_injection",
	"garbage_value",
}

// ExtractFreeText classifies a free-text log line and updates the metrics.
//
// Rules are checked in a fixed priority order and the first match wins, so
// a line produces at most one event. Returns nil for lines that match no
// rule; such lines still participate in the retry correlator's raw-line
// window.
func ExtractFreeText(line string, lineNo int, m *Metrics) Event {
	base := eventBase{LineNo: lineNo, Timestamp: extractTextTimestamp(line)}
	lower := strings.ToLower(line)

	switch {
	case strings.Contains(line, "HTTP Tool") && strings.Contains(line, "POST"):
		url := ""
		if match := postURLPattern.FindStringSubmatch(line); match != nil {
			url = match[1]
		}
		m.TotalToolCalls++
		return ToolCallEvent{eventBase: base, URL: url, ToolName: classifyToolURL(url)}

	case strings.Contains(line, "Schema-aware fuzzing"), strings.Contains(line, "MCP protocol fuzzing"):
		kind := classifyFuzzKind(line)
		fields := 0
		if match := fieldsFuzzedPattern.FindStringSubmatch(line); match != nil {
			fields, _ = strconv.Atoi(match[1])
		}
		m.FuzzingAttempts++
		m.FuzzingTypes.Add(kind)
		if fields > 0 {
			m.FuzzingSuccessful++
		}
		return FuzzingEvent{eventBase: base, FuzzType: kind, FieldsFuzzed: fields}

	case strings.Contains(line, "Error"), strings.Contains(lower, "error"):
		kind := classifyErrorText(line, lower)
		m.FailedToolCalls++
		m.ToolCallErrors.Add(kind)
		return ErrorEvent{eventBase: base, ErrorType: kind, Message: truncate(line, maxMessageLen)}

	case strings.Contains(lower, "retry"):
		m.RetryAttempts++
		return RetryEvent{eventBase: base}

	case strings.Contains(line, "Agent processing complete"), strings.Contains(line, "Workflow Complete"):
		m.AgentSuccessfulCompletion++
		return CompletionEvent{eventBase: base}

	case strings.Contains(line, "Exception"), strings.Contains(line, "Traceback"), strings.Contains(lower, "crash"):
		m.AgentCrashes++
		return CrashEvent{eventBase: base, Message: truncate(line, maxMessageLen)}

	case strings.Contains(line, "Response:") && containsAny(line, "200", "400", "500"):
		match := responsePattern.FindStringSubmatch(line)
		if match == nil {
			return nil
		}
		status, _ := strconv.Atoi(match[1])
		if status == 200 {
			m.SuccessfulToolCalls++
		} else if status >= 400 {
			m.FailedToolCalls++
		}
		return ResponseEvent{eventBase: base, StatusCode: status}
	}

	return nil
}

// classifyToolURL buckets a free-text tool URL. Checks run in priority
// order: the bare "book" substring is deliberately matched after
// "book_ticket" so both spellings land in the same bucket.
func classifyToolURL(url string) string {
	switch {
	case strings.Contains(url, "search_flights"):
		return ToolSearchFlights
	case strings.Contains(url, "book_ticket"), strings.Contains(url, "book"):
		return ToolBookTicket
	case strings.Contains(url, "flight"):
		return ToolFlightRelated
	default:
		return ToolUnknown
	}
}

// classifyFuzzKind returns the first known fuzz kind named in s, else
// "unknown".
func classifyFuzzKind(s string) string {
	lower := strings.ToLower(s)
	for _, kind := range fuzzKinds {
		if strings.Contains(lower, kind) {
			return kind
		}
	}
	return ToolUnknown
}

// classifyErrorText buckets a free-text error line by the first matching
// status hint.
func classifyErrorText(line, lower string) string {
	switch {
	case strings.Contains(line, "400"), strings.Contains(line, "Bad Request"):
		return "validation_error"
	case strings.Contains(line, "404"), strings.Contains(line, "Not Found"):
		return "not_found"
	case strings.Contains(line, "500"), strings.Contains(line, "Internal Server Error"):
		return "server_error"
	case strings.Contains(lower, "timeout"):
		return "timeout"
	case strings.Contains(lower, "network"):
		return "network_error"
	default:
		return ToolUnknown
	}
}

// classifyErrorStatus buckets a numeric status code the same way
// classifyErrorText buckets text hints.
func classifyErrorStatus(status int) string {
	switch {
	case status == 400:
		return "validation_error"
	case status == 404:
		return "not_found"
	case status >= 500:
		return "server_error"
	default:
		return ToolUnknown
	}
}

// extractTextTimestamp pulls an optional timestamp out of a free-text line.
// Three legacy formats are tried in order; absence is permitted and yields
// the zero time.
func extractTextTimestamp(line string) time.Time {
	if match := tsISOPattern.FindStringSubmatch(line); match != nil {
		if t, err := time.Parse("2006-01-02 15:04:05", match[1]+" "+match[2]); err == nil {
			return t
		}
	}
	if match := tsUSPattern.FindStringSubmatch(line); match != nil {
		if t, err := time.Parse("01/02/2006 15:04:05", match[1]+" "+match[2]); err == nil {
			return t
		}
	}
	if match := tsBracketPattern.FindStringSubmatch(line); match != nil {
		if t, err := time.Parse("15:04:05", match[1]); err == nil {
			return t
		}
	}
	return time.Time{}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
