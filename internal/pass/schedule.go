// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package pass

import (
	"log/slog"

	"github.com/petar-djukic/declash/internal/clash"
	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/internal/planner"
	"github.com/petar-djukic/declash/pkg/types"
)

// overlay maps symbol IDs to names decided earlier in the same pass.
type overlay map[string]string

func (o overlay) name(s types.Symbol) string {
	if n, ok := o[s.ID]; ok {
		return n
	}
	return s.Name
}

// plan turns groups into one batch of renames. Groups are planned one at a
// time in container order so that each decision sees the names chosen
// before it; every group still gets its own taken set.
//
// Implements: prd003-rename-planner R3 (per-container scheduling).
func (p *Pass) plan(g *graph.Graph, unit graph.Unit, caseInsensitive bool, groups []clash.Group, log *slog.Logger) []types.Rename {
	decided := make(overlay)
	var renames []types.Rename

	for _, grp := range groups {
		candidates, taken := p.candidates(g, unit, caseInsensitive, grp, decided)
		if candidates == nil {
			continue
		}

		entries := p.planner.Plan(candidates, taken, true)
		for _, e := range entries {
			decided[e.SymbolID] = e.NewName
			renames = append(renames, e)
			log.Debug("planned rename",
				"container", grp.Container.ID,
				"symbol", e.SymbolID,
				"from", e.OldName,
				"to", e.NewName)
		}
	}
	return renames
}

// candidates builds the planner input for one group using the names
// decided so far. It returns nil if earlier renames already resolved the
// group's clash. A container declared outside unit keeps its name. In a
// case-insensitive program names are taken regardless of letter case.
func (p *Pass) candidates(g *graph.Graph, unit graph.Unit, caseInsensitive bool, grp clash.Group, decided overlay) ([]planner.Candidate, *planner.TakenSet) {
	container := grp.Container
	containerName := decided.name(container)

	var members []types.Symbol
	for _, m := range grp.Members {
		if _, done := decided[m.ID]; done {
			continue
		}
		if decided.name(m) == containerName {
			members = append(members, m)
		}
	}
	if len(members) == 0 {
		return nil, nil
	}

	_, containerDone := decided[container.ID]
	containerRenameable := !containerDone && !container.Fixed && unit.ContainsDeclarationIn(container)

	taken := planner.NewTakenSet(grp.Taken...)
	if caseInsensitive {
		taken = planner.NewFoldedTakenSet(grp.Taken...)
	}
	taken.Add(containerName)
	for _, m := range g.Members(container.ID) {
		taken.Add(decided.name(m))
	}
	for _, n := range container.Inherited {
		taken.Add(n)
	}
	if containerRenameable {
		if parent, ok := g.Parent(container); ok {
			taken.Add(decided.name(parent))
			for _, n := range parent.Inherited {
				taken.Add(n)
			}
		}
		for _, s := range g.Siblings(container) {
			taken.Add(decided.name(s))
		}
	}

	candidates := make([]planner.Candidate, 0, len(members)+1)
	candidates = append(candidates, planner.Candidate{
		Symbol:      withName(container, containerName),
		IsContainer: true,
		Pinned:      !containerRenameable,
		Avoid:       memberNames(g, container, decided),
	})
	for _, m := range members {
		c := planner.Candidate{Symbol: m, Pinned: m.Fixed}
		if m.IsContainer() {
			c.Avoid = memberNames(g, m, decided)
		}
		candidates = append(candidates, c)
	}
	return candidates, taken
}

// memberNames returns the effective names of sym's members and the names
// it inherits.
func memberNames(g *graph.Graph, sym types.Symbol, decided overlay) []string {
	var names []string
	for _, m := range g.Members(sym.ID) {
		names = append(names, decided.name(m))
	}
	return append(names, sym.Inherited...)
}

func withName(s types.Symbol, name string) types.Symbol {
	s.Name = name
	return s
}
