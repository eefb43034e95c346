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

import "time"

// EventKind identifies the event variant.
type EventKind string

const (
	EventToolCall   EventKind = "tool_call"
	EventFuzzing    EventKind = "fuzzing"
	EventError      EventKind = "error"
	EventRetry      EventKind = "retry"
	EventCompletion EventKind = "completion"
	EventCrash      EventKind = "crash"
	EventResponse   EventKind = "response"
)

// Event is one typed occurrence reconstructed from a log line.
//
// Each kind is a distinct struct carrying exactly the fields meaningful to
// it; there is no catch-all record with optional fields.
type Event interface {
	// Kind identifies the variant.
	Kind() EventKind

	// Line is the 1-based source line number the event was extracted from.
	Line() int

	// When is the event timestamp. Zero when the line carried none.
	When() time.Time

	// Document returns the flat serializable form used in reports.
	Document() EventDocument
}

// EventDocument is the flat form of an event in the structured report.
type EventDocument map[string]any

// eventBase carries the fields shared by every event kind.
type eventBase struct {
	LineNo    int
	Timestamp time.Time
}

func (e eventBase) Line() int {
	return e.LineNo
}

func (e eventBase) When() time.Time {
	return e.Timestamp
}

// document builds the common part of an event document.
func (e eventBase) document(kind EventKind) EventDocument {
	doc := EventDocument{
		"type": string(kind),
		"line": e.LineNo,
	}
	if !e.Timestamp.IsZero() {
		doc["timestamp"] = e.Timestamp.Format(time.RFC3339)
	}
	return doc
}

// ToolCallEvent is an outbound tool invocation.
type ToolCallEvent struct {
	eventBase
	URL      string
	ToolName string

	// StatusCode is the response status when the source record carried one,
	// 0 otherwise.
	StatusCode int
}

func (e ToolCallEvent) Kind() EventKind { return EventToolCall }

func (e ToolCallEvent) Document() EventDocument {
	doc := e.document(EventToolCall)
	doc["url"] = e.URL
	doc["tool_name"] = e.ToolName
	if e.StatusCode != 0 {
		doc["status_code"] = e.StatusCode
	}
	return doc
}

// FuzzingEvent is a fault-injection occurrence declared by the interception
// layer.
type FuzzingEvent struct {
	eventBase
	FuzzType     string
	FieldsFuzzed int
}

func (e FuzzingEvent) Kind() EventKind { return EventFuzzing }

func (e FuzzingEvent) Document() EventDocument {
	doc := e.document(EventFuzzing)
	doc["fuzz_type"] = e.FuzzType
	doc["fields_fuzzed"] = e.FieldsFuzzed
	return doc
}

// ErrorEvent is an error line classified by kind.
type ErrorEvent struct {
	eventBase
	ErrorType string

	// Message is the source line truncated for the report.
	Message string
}

func (e ErrorEvent) Kind() EventKind { return EventError }

func (e ErrorEvent) Document() EventDocument {
	doc := e.document(EventError)
	doc["error_type"] = e.ErrorType
	doc["message"] = e.Message
	return doc
}

// RetryEvent is a retry attempt. Correlation with a later success happens in
// a separate pass, so the event itself carries no outcome.
type RetryEvent struct {
	eventBase
}

func (e RetryEvent) Kind() EventKind { return EventRetry }

func (e RetryEvent) Document() EventDocument {
	return e.document(EventRetry)
}

// CompletionEvent marks a successful end of an agent workflow.
type CompletionEvent struct {
	eventBase
}

func (e CompletionEvent) Kind() EventKind { return EventCompletion }

func (e CompletionEvent) Document() EventDocument {
	return e.document(EventCompletion)
}

// CrashEvent is an unhandled failure of the agent process.
type CrashEvent struct {
	eventBase
	Message string
}

func (e CrashEvent) Kind() EventKind { return EventCrash }

func (e CrashEvent) Document() EventDocument {
	doc := e.document(EventCrash)
	doc["message"] = e.Message
	return doc
}

// ResponseEvent is an upstream response with a parsed status code.
type ResponseEvent struct {
	eventBase
	StatusCode int
}

func (e ResponseEvent) Kind() EventKind { return EventResponse }

func (e ResponseEvent) Document() EventDocument {
	doc := e.document(EventResponse)
	doc["status_code"] = e.StatusCode
	return doc
}

// Verify interface compliance at compile time.
var (
	_ Event = ToolCallEvent{}
	_ Event = FuzzingEvent{}
	_ Event = ErrorEvent{}
	_ Event = RetryEvent{}
	_ Event = CompletionEvent{}
	_ Event = CrashEvent{}
	_ Event = ResponseEvent{}
)
