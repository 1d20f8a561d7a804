// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd008-declash-interface R2;
//
//	docs/ARCHITECTURE § Declash Interface.
package declash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/petar-djukic/declash/internal/runner"
)

const defaultSuffixStart = 1

// New validates the config and returns a ready-to-use Declasher. It does
// not read any source; that happens in Run.
//
// Implements: prd008-declash-interface R2.1-R2.3.
func New(cfg Config) (Declasher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(&cfg)

	r := runner.NewRunner(runner.Deps{
		WorkDir:         cfg.WorkDir,
		Frontend:        cfg.Frontend,
		Index:           cfg.Index,
		Exclude:         cfg.Exclude,
		Write:           cfg.Write,
		Diff:            cfg.Diff,
		NoGit:           cfg.NoGit,
		AllowDirty:      cfg.AllowDirty,
		SuffixStart:     cfg.SuffixStart,
		Concurrency:     cfg.Concurrency,
		CaseInsensitive: cfg.CaseInsensitive,
		VerifyCmd:       cfg.VerifyCmd,
		VerifyTimeout:   cfg.VerifyTimeout,
		Logger:          cfg.Logger,
	})

	return &declasherAdapter{runner: r}, nil
}

// declasherAdapter adapts internal/runner.Runner to the public Declasher
// interface.
type declasherAdapter struct {
	runner *runner.Runner
}

func (a *declasherAdapter) Run(ctx context.Context) (*Result, error) {
	rr, err := a.runner.Run(ctx)
	if rr == nil {
		return &Result{}, err
	}
	return &Result{
		PassID:        rr.PassID,
		State:         rr.State,
		Renames:       rr.Renames,
		ModifiedFiles: rr.ModifiedFiles,
		Written:       rr.Written,
		Committed:     rr.Committed,
		Summary:       rr.Summary,
		Diff:          rr.Diff,
		Errors:        rr.Errors,
	}, err
}

// validateConfig checks required fields and value ranges.
//
// Implements: prd008-declash-interface R1.6-R1.8.
func validateConfig(cfg Config) error {
	if cfg.WorkDir == "" {
		return fmt.Errorf("WorkDir is required")
	}
	if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("WorkDir %q does not exist or is not a directory", cfg.WorkDir)
	}
	switch cfg.Frontend {
	case "", runner.FrontendGo, runner.FrontendSCIP:
	case runner.FrontendDump:
		if cfg.Index == "" {
			return fmt.Errorf("Index is required for the dump frontend")
		}
	default:
		return fmt.Errorf("unknown Frontend %q", cfg.Frontend)
	}
	if cfg.SuffixStart < 0 {
		return fmt.Errorf("SuffixStart must not be negative")
	}
	if cfg.Concurrency < 0 {
		return fmt.Errorf("Concurrency must not be negative")
	}
	for _, p := range cfg.Exclude {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("bad Exclude pattern %q: %v", p, err)
		}
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Frontend == "" {
		cfg.Frontend = runner.FrontendGo
	}
	if cfg.SuffixStart == 0 {
		cfg.SuffixStart = defaultSuffixStart
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = runtime.NumCPU()
	}
}
