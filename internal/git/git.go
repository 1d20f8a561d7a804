// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git records renaming passes as commits, guards against renaming
// over uncommitted work, and undoes the last pass.
// Implements: prd006-git-integration R1, R2, R4;
//
//	docs/ARCHITECTURE § Git Integration.
package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

const (
	renamedByTrailer = "Renamed-By: declash"
	passTrailerKey   = "Declash-Pass:"
	dirtyCommitMsg   = "chore: save uncommitted changes before declash"
)

// ErrNotDeclashCommit is returned when undo targets a commit that no
// renaming pass made.
var ErrNotDeclashCommit = errors.New("not a declash commit")

// ErrDirtyWorkTree is returned when uncommitted changes exist and
// AllowDirty is false.
var ErrDirtyWorkTree = errors.New("uncommitted changes exist")

// ErrNoGit is returned when the working directory is not a git repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures git integration.
type Config struct {
	WorkDir    string // Repository working directory
	AllowDirty bool   // Commit uncommitted changes separately instead of refusing
}

// Repo wraps a go-git repository.
type Repo struct {
	repo *gogit.Repository
	cfg  Config
}

// Open opens the git repository at the configured work directory or one
// of its parents. Returns ErrNoGit if there is none.
//
// Implements: prd006-git-integration R1.1.
func Open(cfg Config) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(cfg.WorkDir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	return &Repo{repo: r, cfg: cfg}, nil
}

// Root returns the repository's working tree root.
func (r *Repo) Root() (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// IsDirty reports whether the working tree has staged, unstaged or
// untracked changes.
//
// Implements: prd006-git-integration R2.1.
func (r *Repo) IsDirty() (bool, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return false, fmt.Errorf("getting status: %w", err)
	}

	return !status.IsClean(), nil
}

// IsDeclashCommit reports whether HEAD was made by a renaming pass, and
// returns that pass's ID.
//
// Implements: prd006-git-integration R4.2.
func (r *Repo) IsDeclashCommit() (bool, string, error) {
	msg, err := r.lastCommitMessage()
	if err != nil {
		return false, "", err
	}

	found, passID := false, ""
	for _, line := range strings.Split(msg, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == renamedByTrailer:
			found = true
		case strings.HasPrefix(line, passTrailerKey):
			passID = strings.TrimSpace(strings.TrimPrefix(line, passTrailerKey))
		}
	}
	if !found {
		return false, "", nil
	}
	return true, passID, nil
}

// lastCommitMessage returns the message of the HEAD commit.
func (r *Repo) lastCommitMessage() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("getting commit: %w", err)
	}
	return commit.Message, nil
}
