// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/declash/pkg/types"
)

func TestOpen_ValidRepo(t *testing.T) {
	dir := initTestRepo(t)

	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestOpen_Subdirectory(t *testing.T) {
	dir := initTestRepo(t)
	sub := filepath.Join(dir, "pkg", "shapes")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	repo, err := Open(Config{WorkDir: sub})
	require.NoError(t, err)

	root, err := repo.Root()
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestOpen_NotARepo(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(Config{WorkDir: dir})
	assert.ErrorIs(t, err, ErrNoGit)
}

func TestIsDirty_CleanRepo(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.False(t, dirty)
}

func TestIsDirty_WithUnstagedChanges(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shape.go"), []byte("package shapes\n\ntype Shape struct{ Area int }\n"), 0o644))

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestIsDirty_WithUntrackedFiles(t *testing.T) {
	dir := initTestRepo(t)
	repo, err := Open(Config{WorkDir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.go"), []byte("package shapes\n"), 0o644))

	dirty, err := repo.IsDirty()
	require.NoError(t, err)
	assert.True(t, dirty)
}

func TestIsDeclashCommit(t *testing.T) {
	t.Run("declash commit", func(t *testing.T) {
		dir := initTestRepo(t)
		msg := "refactor: rename Shape to Shape1\n\n" + renamedByTrailer + "\n" + passTrailerKey + " abc-123"
		addFileAndCommit(t, dir, "shape.go", "package shapes\n", msg)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, passID, err := repo.IsDeclashCommit()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "abc-123", passID)
	})

	t.Run("other commit", func(t *testing.T) {
		dir := initTestRepo(t)

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, passID, err := repo.IsDeclashCommit()
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, passID)
	})

	t.Run("trailer quoted in body", func(t *testing.T) {
		dir := initTestRepo(t)
		addFileAndCommit(t, dir, "notes.txt", "x\n", "docs: mention the "+renamedByTrailer+" trailer")

		repo, err := Open(Config{WorkDir: dir})
		require.NoError(t, err)

		ok, _, err := repo.IsDeclashCommit()
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestGenerateMessage(t *testing.T) {
	one := []types.Rename{{SymbolID: "field:Shape.Shape", OldName: "Shape", NewName: "Shape1"}}
	many := []types.Rename{
		{SymbolID: "m1", OldName: "Foo", NewName: "Foo1"},
		{SymbolID: "m2", OldName: "Foo", NewName: "Foo2"},
	}

	tests := []struct {
		name        string
		renames     []types.Rename
		files       []string
		passID      string
		wantSubject string
		wantBody    []string
	}{
		{
			name:        "single rename",
			renames:     one,
			files:       []string{"shape.go"},
			passID:      "p1",
			wantSubject: "refactor: rename Shape to Shape1",
			wantBody:    []string{"Shape -> Shape1 (field:Shape.Shape)", "- shape.go", passTrailerKey + " p1"},
		},
		{
			name:        "several renames",
			renames:     many,
			files:       []string{"a.go", "b.go"},
			wantSubject: "refactor: rename 2 clashing symbols",
			wantBody:    []string{"Renamed symbols:", "Modified files:", "- a.go", "- b.go"},
		},
		{
			name:        "long names truncated",
			renames:     []types.Rename{{SymbolID: "x", OldName: strings.Repeat("Name", 20), NewName: strings.Repeat("Name", 20) + "1"}},
			files:       []string{"long.go"},
			wantSubject: ("refactor: rename " + strings.Repeat("Name", 20))[:maxSubjectLength-3] + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := GenerateMessage(tt.renames, tt.files, tt.passID)
			subject := firstLineOf(msg)
			assert.Equal(t, tt.wantSubject, subject)
			assert.LessOrEqual(t, len(subject), maxSubjectLength)
			assert.Contains(t, msg, renamedByTrailer)
			for _, want := range tt.wantBody {
				assert.Contains(t, msg, want)
			}
			if tt.passID == "" {
				assert.NotContains(t, msg, passTrailerKey)
			}
		})
	}
}

func TestGenerateMessage_CapsListedRenames(t *testing.T) {
	renames := make([]types.Rename, maxListedRenames+5)
	for i := range renames {
		renames[i] = types.Rename{SymbolID: "s", OldName: "A", NewName: "A1"}
	}

	msg := GenerateMessage(renames, nil, "")
	assert.Contains(t, msg, "- and 5 more")
	assert.NotContains(t, msg, "Modified files:")
}

// initTestRepo creates a temp dir with a git repo and an initial commit,
// and returns the directory path.
func initTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shape.go"), []byte("package shapes\n\ntype Shape struct{}\n"), 0o644))

	_, err = wt.Add("shape.go")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

// addFileAndCommit writes a file and commits it with the given message.
func addFileAndCommit(t *testing.T, dir, name, content, msg string) {
	t.Helper()

	r, err := gogit.PlainOpen(dir)
	require.NoError(t, err)

	wt, err := r.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))

	_, err = wt.Add(name)
	require.NoError(t, err)

	_, err = wt.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@test.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
}

func firstLineOf(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// commitCount returns the total number of commits reachable from HEAD.
func (r *Repo) commitCount() (int, error) {
	iter, err := r.repo.Log(&gogit.LogOptions{})
	if err != nil {
		return 0, err
	}
	count := 0
	err = iter.ForEach(func(c *object.Commit) error {
		count++
		return nil
	})
	return count, err
}
