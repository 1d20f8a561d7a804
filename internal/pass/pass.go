// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package pass runs one collect, plan and apply cycle over a program.
// Implements: prd004-rename-applicator R4 (pass state machine);
//
//	docs/ARCHITECTURE § Renaming Pass.
package pass

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/petar-djukic/declash/internal/clash"
	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/internal/planner"
	"github.com/petar-djukic/declash/internal/rewrite"
	"github.com/petar-djukic/declash/pkg/types"
)

// Config configures a Pass.
type Config struct {
	Concurrency int          // Collector workers; <= 0 means runtime.NumCPU()
	SuffixStart int          // First numeric suffix tried for new names; <= 0 means 1
	Logger      *slog.Logger // Nil discards logs
}

// Outcome describes how a pass ended.
type Outcome struct {
	ID      string         // Pass identifier, unique per run
	State   types.State    // Applied on success, Failed otherwise
	Program *graph.Program // Rewritten program; the input program unless Applied
	Renames []types.Rename // Planned renames, least visible first per container
	Groups  int            // Containers with clashing members
}

// Pass renames clashing symbols. A Pass holds no state between runs and
// may be reused.
type Pass struct {
	cfg     Config
	planner *planner.Planner
	log     *slog.Logger
}

// New creates a Pass.
func New(cfg Config) *Pass {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pass{cfg: cfg, planner: planner.New(cfg.SuffixStart), log: log}
}

// RenameClashingSymbols runs a pass with default settings and returns the
// rewritten program. On failure or cancellation it returns the input
// program together with the error. Running it on its own output plans no
// renames and returns that output unchanged.
func RenameClashingSymbols(ctx context.Context, prog *graph.Program) (*graph.Program, error) {
	out, err := New(Config{}).Run(ctx, prog)
	return out.Program, err
}

// Run executes the pass: collect candidate groups, plan renames, apply
// them as one batch. Cancellation is observed between stages; the rewrite
// itself is not interrupted.
//
// Implements: prd004-rename-applicator R4.1-R4.5.
func (p *Pass) Run(ctx context.Context, prog *graph.Program) (*Outcome, error) {
	out := &Outcome{ID: uuid.NewString(), State: types.StateFailed, Program: prog}
	log := p.log.With("pass", out.ID)

	if prog == nil || prog.Graph == nil {
		return out, fmt.Errorf("%w: program has no symbol graph", graph.ErrUnresolvable)
	}

	groups, err := clash.Collect(ctx, prog.Graph, prog.Unit, p.cfg.Concurrency)
	if err != nil {
		log.Warn("collection aborted", "error", err)
		return out, err
	}
	out.State = types.StateCollected
	out.Groups = len(groups)
	log.Debug("collected", "groups", len(groups), "symbols", prog.Graph.Len(), "unit_files", prog.Unit.Len())

	if err := ctx.Err(); err != nil {
		out.State = types.StateFailed
		return out, err
	}

	out.Renames = p.plan(prog.Graph, prog.Unit, prog.CaseInsensitive, groups, log)
	out.State = types.StatePlanned

	if len(out.Renames) == 0 {
		out.State = types.StateApplied
		log.Info("no clashing symbols")
		return out, nil
	}

	if err := ctx.Err(); err != nil {
		out.State = types.StateFailed
		return out, err
	}

	out.State = types.StateApplying
	next, err := rewrite.Apply(ctx, prog, out.Renames)
	if err != nil {
		out.State = types.StateFailed
		log.Error("rename batch failed", "renames", len(out.Renames), "error", err)
		return out, err
	}

	out.State = types.StateApplied
	out.Program = next
	log.Info("renamed clashing symbols", "renames", len(out.Renames), "groups", out.Groups)
	return out, nil
}
