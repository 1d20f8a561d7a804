// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package scip

import (
	"fmt"
	"unicode/utf8"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

// location converts a SCIP range into a location. Ranges are
// [line, start, end] or [line, start, endLine, end], zero based, with
// characters counted in the document's position encoding. Declarations in
// documents without source keep only line and column.
func (b *indexBuilder) location(file string, enc scippb.PositionEncoding, rng []int32) (types.Location, error) {
	if len(rng) != 3 && len(rng) != 4 {
		return types.Location{}, fmt.Errorf("%s: range has %d elements", file, len(rng))
	}
	line, char := int(rng[0]), int(rng[1])
	loc := types.Location{File: file, Line: line + 1, Column: char + 1}

	src, ok := b.sources[file]
	if !ok {
		return loc, nil
	}
	lineStart := graph.LineOffset(src, line+1)
	if lineStart < 0 {
		return loc, fmt.Errorf("%s: line %d out of range", file, line+1)
	}
	offset := charOffset(src, lineStart, char, enc)
	if offset < 0 {
		return loc, fmt.Errorf("%s:%d: character %d out of range", file, line+1, char)
	}
	loc.Offset = offset
	loc.Line, loc.Column = graph.Position(src, offset)
	return loc, nil
}

// charOffset converts a character index within the line starting at
// lineStart into a byte offset, or -1 if the line is too short.
func charOffset(src []byte, lineStart, char int, enc scippb.PositionEncoding) int {
	switch enc {
	case scippb.PositionEncoding_UTF16CodeUnitOffsetFromLineStart:
		offset, units := lineStart, 0
		for units < char {
			if offset >= len(src) || src[offset] == '\n' {
				return -1
			}
			r, size := utf8.DecodeRune(src[offset:])
			units++
			if r >= 0x10000 {
				units++
			}
			offset += size
		}
		if units != char {
			return -1
		}
		return offset
	case scippb.PositionEncoding_UTF32CodeUnitOffsetFromLineStart:
		return graph.RuneOffset(src, lineStart, char)
	default:
		for i := lineStart; i < lineStart+char; i++ {
			if i >= len(src) || src[i] == '\n' {
				return -1
			}
		}
		return lineStart + char
	}
}
