// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package graph

import (
	"bytes"
	"context"
	"sort"
	"unicode/utf8"
)

// Resolver produces a symbol graph from program sources. Frontends that
// can analyze source text implement it so a rewritten program can be
// resolved again.
type Resolver interface {
	Resolve(ctx context.Context, sources map[string][]byte) (*Graph, error)
}

// Program is an immutable snapshot of a program: its sources, the resolved
// symbol graph over them and the unit under transformation. A renaming
// pass never mutates a Program; it returns a new one.
//
// Implements: prd001-symbol-graph R4.1-R4.4.
type Program struct {
	Sources         map[string][]byte // File contents keyed by relative path
	Graph           *Graph            // Resolved symbols
	Unit            Unit              // Files under transformation
	CaseInsensitive bool              // Source language matches names case-insensitively
	Resolver        Resolver          // Optional; nil means the graph is rebased after a rewrite
}

// Source returns the contents of file.
func (p *Program) Source(file string) ([]byte, bool) {
	src, ok := p.Sources[file]
	return src, ok
}

// Files returns the program's file paths in sorted order.
func (p *Program) Files() []string {
	files := make([]string, 0, len(p.Sources))
	for f := range p.Sources {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Position converts a byte offset in src to a 1-based line and byte column.
// Offsets past the end are clamped.
func Position(src []byte, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line = bytes.Count(src[:offset], []byte("\n")) + 1
	lineStart := bytes.LastIndexByte(src[:offset], '\n') + 1
	return line, offset - lineStart + 1
}

// LineOffset returns the byte offset at which the 1-based line starts, or
// -1 if src has fewer lines.
func LineOffset(src []byte, line int) int {
	if line < 1 {
		return -1
	}
	offset := 0
	for l := 1; l < line; l++ {
		idx := bytes.IndexByte(src[offset:], '\n')
		if idx < 0 {
			return -1
		}
		offset += idx + 1
	}
	return offset
}

// RuneOffset converts a column counted in runes from lineStart into a byte
// offset. It returns -1 if the line is shorter than col runes.
func RuneOffset(src []byte, lineStart, col int) int {
	offset := lineStart
	for i := 0; i < col; i++ {
		if offset >= len(src) || src[offset] == '\n' {
			return -1
		}
		_, size := utf8.DecodeRune(src[offset:])
		offset += size
	}
	return offset
}
