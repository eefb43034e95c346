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
	"os"
	"path/filepath"
)

// DefaultCandidateFiles returns the conventional relative filenames the
// interception layer is known to write, in resolution order.
func DefaultCandidateFiles() []string {
	return []string{
		filepath.Join("logs", "proxy_traffic.log"),
		"proxy_traffic.log",
		filepath.Join("logs", "chaos_proxy.log"),
		"chaos_proxy.log",
	}
}

// LocateLogFile resolves the log file for an analysis run.
//
// Resolution order:
//
//  1. The explicit path, when it exists.
//  2. Each conventional candidate filename, in order.
//  3. The first *.log glob match inside logDir (arbitrary order).
//
// An empty return value means "no log found". Callers must treat that as a
// normal outcome and produce an empty scorecard, never an error.
func LocateLogFile(explicit, logDir string, candidates []string) string {
	if explicit != "" && fileExists(explicit) {
		return explicit
	}

	for _, c := range candidates {
		if fileExists(c) {
			return c
		}
	}

	if logDir != "" {
		matches, err := filepath.Glob(filepath.Join(logDir, "*.log"))
		if err == nil && len(matches) > 0 {
			return matches[0]
		}
	}

	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
