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
	"fmt"
	"time"
)

// depCall is one dependency-pair participant seen in the structured stream.
type depCall struct {
	when   time.Time
	status int
}

// DetectRaces correlates dependency-pair tool calls across the structured
// records and flags dependent calls that look out of order or unguarded.
//
// The dependency pair is search_flights (producer) and book_ticket
// (consumer): booking presumes a prior successful search. A book call at
// time T with status S is flagged iff
//
//	S is 400 or 404, AND
//	(no successful search completed strictly before T, OR
//	 any search sits within the simultaneity window of T).
//
// Only records with a resolvable tool name and a parseable timestamp
// participate; a record whose timestamp failed to parse is silently
// excluded rather than aborting detection.
//
// This is an ordering heuristic, not a proof of causality: a book call
// whose flight id was simply always invalid satisfies the same condition.
// The rule is reported as a signal and the ambiguity is documented in the
// package tests.
func DetectRaces(records []*LogRecord, window time.Duration, m *Metrics) {
	if window <= 0 {
		window = DefaultSimultaneityWindow
	}

	var searches, books []depCall
	for _, rec := range records {
		if rec.When.IsZero() {
			continue
		}
		switch rec.ResolvedTool() {
		case ToolSearchFlights:
			searches = append(searches, depCall{when: rec.When, status: rec.StatusCode})
		case ToolBookTicket:
			books = append(books, depCall{when: rec.When, status: rec.StatusCode})
		}
	}

	for _, book := range books {
		if book.status != 400 && book.status != 404 {
			continue
		}

		dependencyAvailable := false
		simultaneous := false
		for _, search := range searches {
			if search.status == 200 && search.when.Before(book.when) {
				dependencyAvailable = true
			}
			if absDuration(search.when.Sub(book.when)) < window {
				simultaneous = true
			}
		}

		if dependencyAvailable && !simultaneous {
			continue
		}

		m.RaceConditionsDetected++
		m.LogicErrors = append(m.LogicErrors, LogicError{
			Type: LogicErrorRaceCondition,
			Description: fmt.Sprintf(
				"book_ticket failed with %d without an established search_flights result",
				book.status),
			DependentCallTime:   book.when,
			DependentCallStatus: book.status,
			DependencyAvailable: dependencyAvailable,
			SimultaneousCalls:   simultaneous,
		})
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
