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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/analyzer"
	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/report"
	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/telemetry"
	"github.com/AleutianAI/chaosmeter/pkg/logging"
	"github.com/AleutianAI/chaosmeter/pkg/ux"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	analyzeLogFile     string
	analyzeLogDir      string
	analyzeOutputDir   string
	analyzeJSONOnly    bool
	analyzeMDOnly      bool
	analyzeConfigPath  string
	analyzeQuiet       bool
	analyzeVerbose     bool
	analyzeMetricsAddr string
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a chaos session log and write resilience reports",
	Long: `Analyze an interception-proxy session log and grade agent resilience.

The log is located from --log-file, conventional filenames under
--log-dir, or any *.log file in --log-dir as a last resort. A missing
log is a soft condition: an N/A report is still written and the exit
code stays zero.

Examples:
  chaosmeter analyze                          # Use logs/proxy_traffic.log etc.
  chaosmeter analyze --log-file run7.log      # Analyze a specific file
  chaosmeter analyze --output-dir reports     # Write reports elsewhere
  chaosmeter analyze --json-only              # Skip the Markdown report
  chaosmeter analyze --metrics-addr :9104     # Expose Prometheus metrics`,
	Run: runAnalyzeCommand,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLogFile, "log-file", "",
		"Explicit path to the session log")
	analyzeCmd.Flags().StringVar(&analyzeLogDir, "log-dir", "logs",
		"Directory searched for session logs")
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output-dir", ".",
		"Directory the reports are written to")
	analyzeCmd.Flags().BoolVar(&analyzeJSONOnly, "json-only", false,
		"Write only the JSON report")
	analyzeCmd.Flags().BoolVar(&analyzeMDOnly, "md-only", false,
		"Write only the Markdown report")
	analyzeCmd.Flags().StringVar(&analyzeConfigPath, "config", "",
		"Optional YAML config file (weights, windows, paths)")
	analyzeCmd.Flags().BoolVar(&analyzeQuiet, "quiet", false,
		"Suppress decorative console output")
	analyzeCmd.Flags().BoolVar(&analyzeVerbose, "verbose", false,
		"Enable debug logging")
	analyzeCmd.Flags().StringVar(&analyzeMetricsAddr, "metrics-addr", "",
		"Expose Prometheus metrics on this address (e.g. :9104)")

	rootCmd.AddCommand(analyzeCmd)
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runAnalyzeCommand(cmd *cobra.Command, args []string) {
	ux.SetQuiet(analyzeQuiet)

	level := logging.LevelInfo
	if analyzeVerbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		Service: "chaosmeter",
		Quiet:   analyzeQuiet && !analyzeVerbose,
	})
	defer logger.Close()

	cfg := buildAnalyzeConfig(logger)
	sink := buildSink(logger)
	defer sink.Close()

	a := analyzer.New(cfg, logger, sink)

	ux.Title("chaosmeter")
	card, err := a.Analyze(cmd.Context())
	if err != nil {
		// Analysis never fails hard today; guard for future error paths.
		ux.Error(fmt.Sprintf("analysis failed: %v", err))
		return
	}

	if card.Metadata.Warning != "" {
		ux.Warning(card.Metadata.Warning)
	}

	writer := &report.Writer{
		OutputDir:    analyzeOutputDir,
		JSONOnly:     analyzeJSONOnly,
		MarkdownOnly: analyzeMDOnly,
	}
	written, werr := writer.Write(card)
	for _, path := range written {
		ux.Info("wrote " + path)
	}
	if werr != nil {
		ux.Error(fmt.Sprintf("report write failed: %v", werr))
		logger.Error("report write failed", "error", werr)
	}

	ux.ScoreSummary(string(card.Grade), card.Metrics.ResilienceScore)
}

// buildAnalyzeConfig merges defaults, the optional config file, and
// flags, in that order of precedence (later wins).
func buildAnalyzeConfig(logger *logging.Logger) analyzer.Config {
	cfg := analyzer.DefaultConfig()

	if analyzeConfigPath != "" {
		fileCfg, err := loadFileConfig(analyzeConfigPath)
		if err != nil {
			ux.Warning(fmt.Sprintf("ignoring config: %v", err))
			logger.Warn("config load failed", "path", analyzeConfigPath, "error", err)
		} else {
			fileCfg.apply(&cfg)
			if fileCfg.OutputDir != "" && analyzeOutputDir == "." {
				analyzeOutputDir = fileCfg.OutputDir
			}
		}
	}

	if analyzeLogFile != "" {
		cfg.LogFile = analyzeLogFile
	}
	if analyzeLogDir != "" {
		cfg.LogDir = analyzeLogDir
	}
	return cfg
}

// buildSink wires the telemetry sink. Without --metrics-addr the run
// uses a no-op sink; with it, a Prometheus registry is exposed over
// HTTP for scraping while the process is alive.
func buildSink(logger *logging.Logger) telemetry.Sink {
	if analyzeMetricsAddr == "" {
		return telemetry.NewNoOpSink()
	}

	registry := prometheus.NewRegistry()
	promCfg := telemetry.DefaultPrometheusConfig()
	promCfg.Registry = registry

	sink, err := telemetry.NewPrometheusSink(promCfg)
	if err != nil {
		ux.Warning(fmt.Sprintf("metrics disabled: %v", err))
		logger.Warn("prometheus sink init failed", "error", err)
		return telemetry.NewNoOpSink()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              analyzeMetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	return &serverSink{Sink: sink, server: server}
}

// serverSink ties the metrics HTTP server lifetime to the sink's.
type serverSink struct {
	telemetry.Sink
	server *http.Server
}

func (s *serverSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.server.Shutdown(ctx)
	return s.Sink.Close()
}
