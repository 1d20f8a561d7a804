// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/petar-djukic/declash/pkg/types"
)

const (
	authorName  = "declash"
	authorEmail = "noreply@declash"
)

// HandleDirty checks for uncommitted changes. With AllowDirty they are
// committed on their own so the pass commit holds only renames; otherwise
// ErrDirtyWorkTree is returned.
//
// Implements: prd006-git-integration R2.2-R2.4.
func (r *Repo) HandleDirty() error {
	dirty, err := r.IsDirty()
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}
	if !r.cfg.AllowDirty {
		return ErrDirtyWorkTree
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return fmt.Errorf("staging dirty files: %w", err)
	}
	if _, err := wt.Commit(dirtyCommitMsg, &gogit.CommitOptions{Author: signature()}); err != nil {
		return fmt.Errorf("committing dirty files: %w", err)
	}
	return nil
}

// CommitRenames stages the files a pass rewrote and commits them with a
// message listing the renames. files are relative to the repository root.
//
// Implements: prd006-git-integration R1.2-R1.4.
func (r *Repo) CommitRenames(files []string, renames []types.Rename, passID string) error {
	if len(files) == 0 {
		return nil
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	for _, f := range files {
		if _, err := wt.Add(f); err != nil {
			return fmt.Errorf("staging %s: %w", f, err)
		}
	}

	msg := GenerateMessage(renames, files, passID)
	if _, err := wt.Commit(msg, &gogit.CommitOptions{Author: signature()}); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

// Undo reverts the last commit if a renaming pass made it, keeping the
// renamed files staged (git reset --soft HEAD~1). It returns the undone
// pass ID.
//
// Implements: prd006-git-integration R4.1-R4.4.
func (r *Repo) Undo() (string, error) {
	ok, passID, err := r.IsDeclashCommit()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotDeclashCommit
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("getting commit: %w", err)
	}
	if commit.NumParents() == 0 {
		return "", fmt.Errorf("cannot undo: HEAD is the initial commit")
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return "", fmt.Errorf("getting parent commit: %w", err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: parent.Hash, Mode: gogit.SoftReset}); err != nil {
		return "", fmt.Errorf("resetting to parent: %w", err)
	}
	return passID, nil
}

func signature() *object.Signature {
	return &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()}
}
