// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package rewrite

import (
	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

// rebase carries the old graph over to the rewritten sources: renamed
// symbols take their new names and every location in an edited file moves
// by the size change of the edits before it.
//
// Implements: prd004-rename-applicator R2.
func rebase(old *graph.Graph, renames []types.Rename, sources map[string][]byte, shifts map[string][]edit) (*graph.Graph, error) {
	newNames := make(map[string]string, len(renames))
	for _, r := range renames {
		newNames[r.SymbolID] = r.NewName
	}

	syms := old.All()
	for i := range syms {
		n, renamed := newNames[syms[i].ID]
		if renamed {
			syms[i].Name = n
		}
		syms[i].Declarations = moveAll(syms[i].Declarations, renamed, sources, shifts)
		syms[i].References = moveAll(syms[i].References, renamed, sources, shifts)
	}
	return graph.New(syms)
}

func moveAll(locs []types.Location, renamed bool, sources map[string][]byte, shifts map[string][]edit) []types.Location {
	if locs == nil {
		return nil
	}
	moved := make([]types.Location, len(locs))
	for i, loc := range locs {
		moved[i] = move(loc, renamed, sources, shifts[loc.File])
	}
	return moved
}

// move shifts loc by the edits that precede it in its file. Sites of a
// renamed symbol now span exactly the new name.
func move(loc types.Location, renamed bool, sources map[string][]byte, edits []edit) types.Location {
	if renamed {
		loc.Length = 0
	}
	if len(edits) == 0 {
		return loc
	}
	delta := 0
	for _, e := range edits {
		if e.offset >= loc.Offset {
			break
		}
		delta += len(e.text) - e.length
	}
	loc.Offset += delta
	if src, ok := sources[loc.File]; ok {
		loc.Line, loc.Column = graph.Position(src, loc.Offset)
	}
	return loc
}
