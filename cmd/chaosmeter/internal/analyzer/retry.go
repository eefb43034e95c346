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

import "strings"

// retrySuccessMarker is the literal the correlator scans for after a retry.
const retrySuccessMarker = "Response: 200"

// CorrelateRetries marks retries that were followed by a success within a
// bounded lookahead window.
//
// For each retry event the raw line list is scanned forward, starting at
// the retry line itself, for at most lookahead lines. The first line
// containing "Response: 200" counts the retry as successful and ends the
// scan for that retry.
//
// This is a line-proximity heuristic, not a causal link: two unrelated
// calls inside the window produce a false positive. The fixed line window
// is a documented contract -- switching to a time-based window would change
// observable metrics.
func CorrelateRetries(events []Event, lines []string, lookahead int, m *Metrics) {
	if lookahead <= 0 {
		lookahead = DefaultRetryLookahead
	}

	for _, ev := range events {
		if ev.Kind() != EventRetry {
			continue
		}

		start := ev.Line() - 1 // line numbers are 1-based
		if start < 0 || start >= len(lines) {
			continue
		}

		for i := start; i < start+lookahead && i < len(lines); i++ {
			if strings.Contains(lines[i], retrySuccessMarker) {
				m.SuccessfulRetries++
				break
			}
		}
	}
}
