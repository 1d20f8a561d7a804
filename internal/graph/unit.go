// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package graph

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/petar-djukic/declash/pkg/types"
)

// Unit is the set of files under transformation. Symbols declared only
// outside the unit belong to code the pass must not break and are never
// renamed.
//
// Implements: prd001-symbol-graph R3.1-R3.3.
type Unit struct {
	files map[string]struct{}
}

// NewUnit creates a unit containing the given files.
func NewUnit(files ...string) Unit {
	u := Unit{files: make(map[string]struct{}, len(files))}
	for _, f := range files {
		u.files[filepath.ToSlash(f)] = struct{}{}
	}
	return u
}

// UnitOf builds a unit from every file of sources that matches none of the
// exclude patterns.
func UnitOf(sources map[string][]byte, exclude []string) Unit {
	ex := excluder{patterns: exclude}
	var files []string
	for f := range sources {
		if !ex.isExcluded(f) {
			files = append(files, f)
		}
	}
	return NewUnit(files...)
}

// Contains reports whether file is part of the unit.
func (u Unit) Contains(file string) bool {
	_, ok := u.files[filepath.ToSlash(file)]
	return ok
}

// ContainsDeclarationIn reports whether sym has at least one declaration
// inside the unit.
func (u Unit) ContainsDeclarationIn(sym types.Symbol) bool {
	for _, loc := range sym.Declarations {
		if u.Contains(loc.File) {
			return true
		}
	}
	return false
}

// Files returns the unit's files in sorted order.
func (u Unit) Files() []string {
	files := make([]string, 0, len(u.files))
	for f := range u.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Len returns the number of files in the unit.
func (u Unit) Len() int {
	return len(u.files)
}

// excluder matches relative paths against glob patterns. A pattern matches
// if it matches the full path or any single path component; a trailing
// slash marks a directory pattern.
type excluder struct {
	patterns []string
}

func (e excluder) isExcluded(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range e.patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		dirPattern := strings.TrimSuffix(pattern, "/")

		for _, part := range strings.Split(relPath, "/") {
			if matched, _ := filepath.Match(dirPattern, part); matched {
				return true
			}
		}

		if matched, _ := filepath.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
