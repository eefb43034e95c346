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

	"github.com/valyala/fastjson"
)

// recordParsers is a pool of fastjson parsers for the per-line hot path.
var recordParsers fastjson.ParserPool

// isoTimestampLayouts are the accepted structured timestamp layouts, most
// specific first. The interception layer writes ISO-8601 with an optional
// timezone suffix.
var isoTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseRecord decodes a structured log line.
//
// A line is structured when it is a JSON object containing a "timestamp"
// key; that key's presence is the sole discriminator. Anything else --
// decode failure, a non-object value, a missing timestamp -- returns nil,
// and the caller falls back to free-text heuristics.
func ParseRecord(line string, lineNo int) *LogRecord {
	p := recordParsers.Get()
	defer recordParsers.Put(p)

	v, err := p.Parse(line)
	if err != nil || v.Type() != fastjson.TypeObject {
		return nil
	}
	if !v.Exists("timestamp") {
		return nil
	}

	rec := &LogRecord{
		RawTimestamp:   string(v.GetStringBytes("timestamp")),
		Method:         string(v.GetStringBytes("method")),
		URL:            string(v.GetStringBytes("url")),
		StatusCode:     v.GetInt("status_code"),
		ToolName:       string(v.GetStringBytes("tool_name")),
		Chaos:          chaosListFrom(v.Get("chaos_applied")),
		Fuzzed:         v.GetBool("fuzzed"),
		AgentRole:      string(v.GetStringBytes("agent_role")),
		TrafficType:    string(v.GetStringBytes("traffic_type")),
		TrafficSubtype: string(v.GetStringBytes("traffic_subtype")),
		LineNo:         lineNo,
	}
	if rec.TrafficType == "" {
		rec.TrafficType = "UNKNOWN"
	}
	rec.When = parseISOTimestamp(rec.RawTimestamp)

	return rec
}

// chaosListFrom normalizes the chaos_applied field, which is written either
// as a single string or as an ordered list of strings.
func chaosListFrom(v *fastjson.Value) ChaosList {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		return ChaosList{string(v.GetStringBytes())}
	case fastjson.TypeArray:
		items, err := v.Array()
		if err != nil {
			return nil
		}
		list := make(ChaosList, 0, len(items))
		for _, item := range items {
			if item.Type() == fastjson.TypeString {
				list = append(list, string(item.GetStringBytes()))
			}
		}
		return list
	default:
		return nil
	}
}

// parseISOTimestamp parses a structured timestamp. Returns the zero time on
// failure; records with unparseable timestamps are excluded from temporal
// correlation but still counted.
func parseISOTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range isoTimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ResolvedTool returns the record's tool name, inferring it from URL
// substrings when the tool_name field is absent. Empty when nothing
// resolves.
func (r *LogRecord) ResolvedTool() string {
	if r.ToolName != "" {
		return r.ToolName
	}
	switch {
	case strings.Contains(r.URL, "/search_flights"):
		return ToolSearchFlights
	case strings.Contains(r.URL, "/book_ticket"), strings.Contains(r.URL, "/book"):
		return ToolBookTicket
	case strings.Contains(r.URL, "/api/"), strings.Contains(r.URL, "/v1/chat"):
		return ToolLLMRequest
	default:
		return ""
	}
}
