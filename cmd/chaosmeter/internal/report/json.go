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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/analyzer"
)

// Default output filenames, relative to the output directory.
const (
	JSONReportName     = "resilience_report.json"
	MarkdownReportName = "resilience_report.md"
)

// ErrNilScorecard is returned when a nil scorecard is passed to a writer.
var ErrNilScorecard = errors.New("report: scorecard is nil")

const reportFileMode = 0o644

// Writer renders a scorecard to the configured output directory.
//
// The zero value writes both documents to the current directory. Setting
// JSONOnly or MarkdownOnly suppresses the other document; setting both
// suppresses nothing (the flags are independent filters, not a toggle).
type Writer struct {
	// OutputDir is the directory the reports are written under.
	// Empty means the current directory.
	OutputDir string

	// JSONOnly suppresses the Markdown document.
	JSONOnly bool

	// MarkdownOnly suppresses the JSON document.
	MarkdownOnly bool
}

// Write renders the scorecard and returns the paths of the files written.
//
// The output directory is created if missing. A failure writing one
// document aborts the run; partially written sibling documents from the
// same call are left in place for inspection.
func (w *Writer) Write(card *analyzer.Scorecard) ([]string, error) {
	if card == nil {
		return nil, ErrNilScorecard
	}
	dir := w.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("report: create output dir %s: %w", dir, err)
	}

	var written []string
	if !w.MarkdownOnly {
		path := filepath.Join(dir, JSONReportName)
		if err := WriteJSON(card, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if !w.JSONOnly {
		path := filepath.Join(dir, MarkdownReportName)
		if err := WriteMarkdown(card, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// WriteJSON serializes the full scorecard as indented JSON.
func WriteJSON(card *analyzer.Scorecard, path string) error {
	if card == nil {
		return ErrNilScorecard
	}
	data, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal scorecard: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, reportFileMode); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
