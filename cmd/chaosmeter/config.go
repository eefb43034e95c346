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
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/chaosmeter/cmd/chaosmeter/internal/analyzer"
)

// =============================================================================
// CONFIG FILE
// =============================================================================

// FileConfig is the optional YAML configuration accepted via --config.
//
// Every field has a working default; an absent file or absent field
// falls back to the compiled-in values. Flags override the file.
type FileConfig struct {
	// LogFile is an explicit path to the session log.
	LogFile string `yaml:"log_file"`

	// LogDir is scanned for conventional log filenames when LogFile
	// is unset or missing.
	LogDir string `yaml:"log_dir"`

	// OutputDir receives resilience_report.json and resilience_report.md.
	OutputDir string `yaml:"output_dir"`

	// Weights adjust the score components. They are used as given and
	// are not renormalized; the shipped defaults sum to 1.0.
	Weights analyzer.Weights `yaml:"weights" validate:"omitempty"`

	// RetryLookahead is the retry correlation window in log lines.
	RetryLookahead int `yaml:"retry_lookahead" validate:"gte=0,lte=1000"`

	// SimultaneityWindowSeconds is the race detector window.
	SimultaneityWindowSeconds float64 `yaml:"simultaneity_window_seconds" validate:"gte=0"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// loadFileConfig reads and validates a YAML config file.
func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := configValidator.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Weights.ToolCalls < 0 || cfg.Weights.Recovery < 0 || cfg.Weights.Completion < 0 {
		return nil, fmt.Errorf("invalid config %s: weights must be non-negative", path)
	}
	return &cfg, nil
}

// apply folds the file values into an analyzer config. Zero values are
// treated as "not set" and leave the defaults in place.
func (c *FileConfig) apply(cfg *analyzer.Config) {
	if c.LogFile != "" {
		cfg.LogFile = c.LogFile
	}
	if c.LogDir != "" {
		cfg.LogDir = c.LogDir
	}
	if c.Weights.Total() > 0 {
		cfg.Weights = c.Weights
	}
	if c.RetryLookahead > 0 {
		cfg.RetryLookahead = c.RetryLookahead
	}
	if c.SimultaneityWindowSeconds > 0 {
		cfg.SimultaneityWindow = time.Duration(c.SimultaneityWindowSeconds * float64(time.Second))
	}
}
