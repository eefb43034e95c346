// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders a finished analyzer.Scorecard to disk.
//
// Two independent serializations of the same snapshot are supported: a
// structured JSON document (resilience_report.json) for machines and a
// narrative Markdown document (resilience_report.md) for humans. Both are
// pure functions of the scorecard; they never re-derive metrics.
package report
