// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package runner wires the frontends, the renaming pass, file writing,
// verification, reporting and git into one run.
// Implements: prd008-declash-interface R2;
//
//	docs/ARCHITECTURE § Lifecycle.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	gitpkg "github.com/petar-djukic/declash/internal/git"
	"github.com/petar-djukic/declash/internal/golang"
	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/internal/pass"
	"github.com/petar-djukic/declash/internal/report"
	"github.com/petar-djukic/declash/internal/rewrite"
	"github.com/petar-djukic/declash/internal/scip"
	"github.com/petar-djukic/declash/pkg/types"
)

// Frontend names.
const (
	FrontendGo   = "go"
	FrontendSCIP = "scip"
	FrontendDump = "dump"
)

// RunResult holds the outcome of a Runner.Run invocation. pkg/declash
// converts it to the public Result.
type RunResult struct {
	PassID        string
	State         types.State
	Renames       []types.Rename
	ModifiedFiles []string
	Written       bool
	Committed     bool
	Summary       string
	Diff          string
	Errors        []string
}

// Deps holds the runner's settings.
type Deps struct {
	WorkDir         string
	Frontend        string   // go, scip or dump
	Index           string   // SCIP index or symbol dump path; relative to WorkDir
	Exclude         []string // Glob patterns kept out of the unit
	Write           bool     // Write rewritten files back
	Diff            bool     // Render unified diffs
	NoGit           bool
	AllowDirty      bool
	SuffixStart     int
	Concurrency     int
	CaseInsensitive bool
	VerifyCmd       string        // Run after writing; failure restores the files
	VerifyTimeout   time.Duration // Zero means defaultVerifyTimeout
	Logger          *slog.Logger
}

// Runner executes one renaming run.
type Runner struct {
	deps Deps
	log  *slog.Logger
}

// NewRunner creates a Runner with the given dependencies.
func NewRunner(deps Deps) *Runner {
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{deps: deps, log: log}
}

// Run loads the program, runs a pass, and when asked writes, verifies and
// commits the result. Files on disk are only touched after the whole batch
// has been applied in memory.
//
// Implements: prd008-declash-interface R2.1-R2.6.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{State: types.StateFailed}

	var repo *gitpkg.Repo
	if r.deps.Write && !r.deps.NoGit {
		opened, err := gitpkg.Open(gitpkg.Config{WorkDir: r.deps.WorkDir, AllowDirty: r.deps.AllowDirty})
		switch {
		case errors.Is(err, gitpkg.ErrNoGit):
			r.log.Debug("no git repository, changes will not be committed", "workdir", r.deps.WorkDir)
		case err != nil:
			return result, err
		default:
			repo = opened
			if err := repo.HandleDirty(); err != nil {
				return result, fmt.Errorf("handling dirty files: %w", err)
			}
		}
	}

	prog, err := r.load(ctx)
	if err != nil {
		return result, err
	}
	if r.deps.CaseInsensitive {
		prog.CaseInsensitive = true
	}
	r.log.Debug("program loaded", "frontend", r.deps.Frontend, "files", len(prog.Sources), "symbols", prog.Graph.Len())

	out, err := pass.New(pass.Config{
		Concurrency: r.deps.Concurrency,
		SuffixStart: r.deps.SuffixStart,
		Logger:      r.log,
	}).Run(ctx, prog)
	if out != nil {
		result.PassID = out.ID
		result.State = out.State
		result.Renames = out.Renames
	}
	if err != nil {
		return result, err
	}

	result.ModifiedFiles = rewrite.ModifiedFiles(prog, out.Program)
	result.Summary = report.Summary(out.ID, out.Renames, result.ModifiedFiles)
	if r.deps.Diff {
		result.Diff = report.Diffs(prog, out.Program, result.ModifiedFiles, report.Config{})
	}

	if !r.deps.Write || len(result.ModifiedFiles) == 0 {
		return result, nil
	}

	root := r.deps.WorkDir
	if err := rewrite.WriteFiles(root, out.Program, result.ModifiedFiles); err != nil {
		return result, fmt.Errorf("writing renamed files: %w", err)
	}
	result.Written = true

	if r.deps.VerifyCmd != "" {
		vr := Verify(ctx, VerifyConfig{WorkDir: root, Cmd: r.deps.VerifyCmd, Timeout: r.deps.VerifyTimeout})
		if !vr.OK {
			for _, d := range vr.Diagnostics {
				result.Errors = append(result.Errors, d.String())
			}
			if err := rewrite.WriteFiles(root, prog, result.ModifiedFiles); err != nil {
				return result, fmt.Errorf("%w; restoring files: %v", ErrVerifyFailed, err)
			}
			result.Written = false
			r.log.Warn("verification failed, files restored", "pass", out.ID, "cmd", r.deps.VerifyCmd)
			return result, fmt.Errorf("%w: %s", ErrVerifyFailed, firstLine(vr.Output))
		}
	}

	if repo != nil {
		files, err := repoRelative(repo, root, result.ModifiedFiles)
		if err == nil {
			err = repo.CommitRenames(files, out.Renames, out.ID)
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("auto-commit failed: %v", err))
		} else {
			result.Committed = true
		}
	}
	return result, nil
}

// load builds the program with the configured frontend.
func (r *Runner) load(ctx context.Context) (*graph.Program, error) {
	index := r.deps.Index
	if index != "" && !filepath.IsAbs(index) {
		index = filepath.Join(r.deps.WorkDir, index)
	}

	switch r.deps.Frontend {
	case FrontendGo, "":
		return golang.Load(ctx, r.deps.WorkDir, r.deps.Exclude, r.deps.Concurrency)
	case FrontendSCIP:
		if index == "" {
			index = filepath.Join(r.deps.WorkDir, "index.scip")
		}
		return scip.Load(index, r.deps.WorkDir, r.deps.Exclude)
	case FrontendDump:
		if index == "" {
			return nil, fmt.Errorf("dump frontend needs an index path")
		}
		d, err := graph.LoadDump(index)
		if err != nil {
			return nil, err
		}
		return d.Program(r.deps.WorkDir, r.deps.Exclude)
	default:
		return nil, fmt.Errorf("unknown frontend %q", r.deps.Frontend)
	}
}

// repoRelative converts files relative to root into paths relative to the
// repository root.
func repoRelative(repo *gitpkg.Repo, root string, files []string) ([]string, error) {
	repoRoot, err := repo.Root()
	if err != nil {
		return nil, err
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	if resolved, err := filepath.EvalSymlinks(repoRoot); err == nil {
		repoRoot = resolved
	}

	out := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(repoRoot, filepath.Join(absRoot, filepath.FromSlash(f)))
		if err != nil {
			return nil, err
		}
		out = append(out, filepath.ToSlash(rel))
	}
	return out, nil
}
