// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/analyzer"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "chaosmeter",
	Short: "Score agent resilience from chaos session logs",
	Long: `chaosmeter analyzes the log of a completed chaos-testing session
against an AI-agent tool-calling pipeline and produces a weighted
resilience scorecard.

It correlates tool calls, injected faults, retries, and crash/completion
signals; detects tool-call ordering races; and renders the result as a
JSON report for machines and a Markdown report for humans.`,
	SilenceUsage: true,
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print analyzer and score algorithm versions",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chaosmeter analyzer %s (score algorithm %s)\n",
			analyzer.AnalyzerVersion, analyzer.ScoreAlgorithmVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
