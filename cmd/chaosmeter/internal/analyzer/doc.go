// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyzer reconstructs typed events from chaos-session logs and
// reduces them to a weighted resilience scorecard.
//
// The interception proxy records each request it forwards (and each fault
// it injects) as one log line, either as a JSON record or as free text.
// The analyzer re-reads a completed session and grades how well the agent
// pipeline held up.
//
// # Architecture
//
// The pipeline is a strict one-way flow; each stage feeds the next and
// there is no feedback loop:
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                      Analysis Pipeline                         │
//	├────────────────────────────────────────────────────────────────┤
//	│                                                                │
//	│  Log Locator ──▶ Line Parser ──▶ Event Stream                  │
//	│                       │               │                        │
//	│            structured │               ├─▶ Retry Correlator     │
//	│              records  │               │   (10-line lookahead)  │
//	│                       ▼               │                        │
//	│                 Race Detector ◀───────┘                        │
//	│                       │                                        │
//	│                       ▼                                        │
//	│                Metrics Aggregator                              │
//	│                       │                                        │
//	│                       ▼                                        │
//	│            Score & Grade (0.4 / 0.4 / 0.2)                     │
//	│                       │                                        │
//	│                       ▼                                        │
//	│                   Scorecard                                    │
//	│                                                                │
//	└────────────────────────────────────────────────────────────────┘
//
// # Input Formats
//
// A line is structured when it decodes as a JSON object with a timestamp
// key; everything else goes through free-text heuristics that recognize
// the proxy's legacy message phrases. The two formats describe the same
// logical events and feed the same counters.
//
// # Heuristics, Not Proofs
//
// Both correlators are documented approximations. The retry correlator
// links a retry to any 200 response within a fixed line window, and the
// race detector flags a failing dependent call whenever its dependency is
// not evidenced beforehand. Each can misfire on unlucky logs; results are
// reported as signals, never as certified defects.
//
// # Error Handling
//
// There is no fatal error class in this package. Malformed lines are
// skipped, a missing or unreadable log degrades to an empty "N/A"
// scorecard, and timestamp parse failures exclude single records from
// correlation. One bad line never aborts a run.
//
// # Thread Safety
//
// Analyzer is safe for concurrent use; all per-run state lives on values
// created inside Analyze.
package analyzer
