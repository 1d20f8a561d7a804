// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package declash defines the public interface for declash, which renames
// members that share their enclosing container's name and rewrites every
// reference to them in one atomic batch.
// Implements: prd008-declash-interface R1, R3, R4;
//
//	docs/ARCHITECTURE § Declash Interface.
package declash

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/internal/rewrite"
	"github.com/petar-djukic/declash/internal/runner"
	"github.com/petar-djukic/declash/pkg/types"
)

// Error types for the declash API.
//
// Implements: prd008-declash-interface R4.1-R4.4.
var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrUnresolvable    = graph.ErrUnresolvable
	ErrRewriteConflict = rewrite.ErrRewriteConflict
	ErrVerifyFailed    = runner.ErrVerifyFailed
)

// Config configures a Declasher.
//
// Implements: prd008-declash-interface R1.1-R1.8.
type Config struct {
	WorkDir         string        // Source root (required)
	Frontend        string        // go, scip or dump (default go)
	Index           string        // SCIP index or symbol dump; required for dump
	Exclude         []string      // Glob patterns of files that must not be rewritten
	Write           bool          // Write renamed files back (default: dry run)
	Diff            bool          // Include unified diffs in the result
	NoGit           bool          // Disable git operations
	AllowDirty      bool          // Commit uncommitted changes first instead of refusing
	SuffixStart     int           // First numeric suffix for new names (default 1)
	Concurrency     int           // Worker count (default runtime.NumCPU())
	CaseInsensitive bool          // Force case-insensitive reference matching
	VerifyCmd       string        // Command run after writing; failure restores files
	VerifyTimeout   time.Duration // Timeout for VerifyCmd (default 5m)
	Logger          *slog.Logger  // Nil discards logs
}

// Result holds the outcome of a Declasher.Run invocation.
//
// Implements: prd008-declash-interface R3.1-R3.4.
type Result struct {
	PassID        string         `json:"pass_id"`
	State         types.State    `json:"state"`
	Renames       []types.Rename `json:"renames"`
	ModifiedFiles []string       `json:"modified_files"`
	Written       bool           `json:"written"`
	Committed     bool           `json:"committed"`
	Summary       string         `json:"summary,omitempty"`
	Diff          string         `json:"diff,omitempty"`
	Errors        []string       `json:"errors,omitempty"`
}

// Declasher runs one renaming pass against a source tree.
type Declasher interface {
	// Run loads the program, renames clashing members, and returns the
	// result. With Write set the files are rewritten and committed.
	Run(ctx context.Context) (*Result, error)
}
