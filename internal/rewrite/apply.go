// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package rewrite applies a batch of planned renames to every declaration
// and reference site of a program and produces the next program snapshot.
// Implements: prd004-rename-applicator R1-R3;
//
//	docs/ARCHITECTURE § Rename Applicator.
package rewrite

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

// ErrRewriteConflict is returned when a planned rename cannot be applied:
// the symbol or one of its sites is missing, or a site no longer spells
// the old name.
var ErrRewriteConflict = errors.New("rewrite conflict")

// edit replaces length bytes at offset with text.
type edit struct {
	offset   int
	length   int
	text     string
	symbolID string
}

// Apply rewrites all declaration and reference sites of every renamed
// symbol and returns the new program. Only identifier bytes change; all
// surrounding text is preserved byte for byte.
//
// The batch is all-or-nothing: on any failure Apply returns an error and
// no program, and prog is left untouched. When prog has a Resolver the new
// sources are resolved again; otherwise the graph is rebased onto the
// rewritten sources.
//
// Implements: prd004-rename-applicator R1.1-R1.6.
func Apply(ctx context.Context, prog *graph.Program, renames []types.Rename) (*graph.Program, error) {
	if len(renames) == 0 {
		return prog, nil
	}

	edits, err := collectEdits(prog, renames)
	if err != nil {
		return nil, err
	}

	sources := make(map[string][]byte, len(prog.Sources))
	for f, src := range prog.Sources {
		sources[f] = src
	}
	shifts := make(map[string][]edit, len(edits))
	for file, fileEdits := range edits {
		sources[file] = applyEdits(prog.Sources[file], fileEdits)
		shifts[file] = fileEdits
	}

	var g *graph.Graph
	if prog.Resolver != nil {
		g, err = prog.Resolver.Resolve(ctx, sources)
		if err != nil {
			return nil, fmt.Errorf("resolving rewritten program: %w", err)
		}
	} else {
		g, err = rebase(prog.Graph, renames, sources, shifts)
		if err != nil {
			return nil, fmt.Errorf("rebasing symbol graph: %w", err)
		}
	}

	return &graph.Program{
		Sources:         sources,
		Graph:           g,
		Unit:            prog.Unit,
		CaseInsensitive: prog.CaseInsensitive,
		Resolver:        prog.Resolver,
	}, nil
}

// ModifiedFiles returns the files whose contents differ between two
// snapshots, in sorted order.
func ModifiedFiles(before, after *graph.Program) []string {
	var files []string
	for _, f := range after.Files() {
		if old, ok := before.Sources[f]; !ok || !bytes.Equal(old, after.Sources[f]) {
			files = append(files, f)
		}
	}
	return files
}

// collectEdits locates and verifies every site to rewrite, grouped by file
// and sorted by offset.
func collectEdits(prog *graph.Program, renames []types.Rename) (map[string][]edit, error) {
	type siteKey struct {
		file   string
		offset int
	}
	owners := make(map[siteKey]string)
	planned := make(map[string]bool, len(renames))
	edits := make(map[string][]edit)

	for _, r := range renames {
		if planned[r.SymbolID] {
			return nil, fmt.Errorf("%w: %s renamed twice in one batch", ErrRewriteConflict, r.SymbolID)
		}
		planned[r.SymbolID] = true

		if r.NewName == "" || r.NewName == r.OldName {
			return nil, fmt.Errorf("%w: invalid new name %q for %s", ErrRewriteConflict, r.NewName, r.SymbolID)
		}
		sym, ok := prog.Graph.Lookup(r.SymbolID)
		if !ok {
			return nil, fmt.Errorf("%w: symbol %s not found", ErrRewriteConflict, r.SymbolID)
		}
		if sym.Name != r.OldName {
			return nil, fmt.Errorf("%w: symbol %s is named %q, expected %q", ErrRewriteConflict, r.SymbolID, sym.Name, r.OldName)
		}
		if len(sym.Declarations) == 0 {
			return nil, fmt.Errorf("%w: symbol %s has no declaration", ErrRewriteConflict, r.SymbolID)
		}

		for _, loc := range sym.Sites() {
			e, err := verifySite(prog, sym, loc, r.NewName)
			if err != nil {
				return nil, err
			}
			key := siteKey{file: loc.File, offset: loc.Offset}
			if owner, dup := owners[key]; dup {
				if owner == sym.ID {
					continue
				}
				return nil, fmt.Errorf("%w: %s is shared by %s and %s", ErrRewriteConflict, loc, owner, sym.ID)
			}
			owners[key] = sym.ID
			edits[loc.File] = append(edits[loc.File], e)
		}
	}

	for file, fileEdits := range edits {
		sort.Slice(fileEdits, func(i, j int) bool { return fileEdits[i].offset < fileEdits[j].offset })
		for i := 1; i < len(fileEdits); i++ {
			prev := fileEdits[i-1]
			if fileEdits[i].offset < prev.offset+prev.length {
				return nil, fmt.Errorf("%w: overlapping sites of %s and %s in %s",
					ErrRewriteConflict, prev.symbolID, fileEdits[i].symbolID, file)
			}
		}
	}
	return edits, nil
}

// verifySite checks that loc still spells sym's name and returns the edit
// that renames it.
func verifySite(prog *graph.Program, sym types.Symbol, loc types.Location, newName string) (edit, error) {
	src, ok := prog.Source(loc.File)
	if !ok {
		return edit{}, fmt.Errorf("%w: %s of %s is outside the program", ErrRewriteConflict, loc, sym.ID)
	}
	length := loc.Length
	if length == 0 {
		length = len(sym.Name)
	}
	if loc.Offset < 0 || loc.Offset+length > len(src) {
		return edit{}, fmt.Errorf("%w: %s of %s is out of range", ErrRewriteConflict, loc, sym.ID)
	}

	text := string(src[loc.Offset : loc.Offset+length])
	if !sameName(text, sym.Name, prog.CaseInsensitive) {
		return edit{}, fmt.Errorf("%w: %s spells %q, expected %q", ErrRewriteConflict, loc, text, sym.Name)
	}
	return edit{offset: loc.Offset, length: length, text: newName, symbolID: sym.ID}, nil
}

func sameName(text, name string, caseInsensitive bool) bool {
	if caseInsensitive {
		return bytes.EqualFold([]byte(text), []byte(name))
	}
	return text == name
}

// applyEdits returns a copy of src with the sorted, non-overlapping edits
// applied.
func applyEdits(src []byte, edits []edit) []byte {
	size := len(src)
	for _, e := range edits {
		size += len(e.text) - e.length
	}
	out := make([]byte, 0, size)
	last := 0
	for _, e := range edits {
		out = append(out, src[last:e.offset]...)
		out = append(out, e.text...)
		last = e.offset + e.length
	}
	return append(out, src[last:]...)
}
