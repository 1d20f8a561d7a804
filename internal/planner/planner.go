// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package planner assigns unique replacement names to clashing symbols,
// renaming the least visible symbols first.
// Implements: prd003-rename-planner R1-R5;
//
//	docs/ARCHITECTURE § Rename Planner.
package planner

import (
	"sort"

	"github.com/petar-djukic/declash/pkg/types"
)

// Candidate is one symbol of a candidate set as seen by the planner.
type Candidate struct {
	Symbol      types.Symbol // Symbol with its current (effective) name
	IsContainer bool         // Symbol is the container of the set
	Pinned      bool         // Symbol must keep its current name
	Avoid       []string     // Extra names this symbol must not take
}

// Planner turns candidate sets into rename entries.
type Planner struct {
	Names NameGenerator
}

// New returns a Planner whose generated suffixes start at suffixStart.
func New(suffixStart int) *Planner {
	return &Planner{Names: NameGenerator{Start: suffixStart}}
}

// Plan decides which candidates give up their name and assigns each a
// new one. Candidates sharing a name form a clash; in each clash the most
// visible renameable candidate keeps the name unless a pinned candidate
// already holds it. Entries are returned least visible first (private,
// internal, protected, public); on equal visibility members come before
// the container, then declaration order.
//
// Every new name is absent from taken and from the candidate's Avoid list,
// and is added to taken before the next candidate is considered. taken is
// only ever grown. When renameContainerToo is false the container keeps
// its name.
//
// Implements: prd003-rename-planner R2.1-R2.7.
func (p *Planner) Plan(candidates []Candidate, taken *TakenSet, renameContainerToo bool) []types.Rename {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	for i := range ordered {
		if ordered[i].IsContainer && !renameContainerToo {
			ordered[i].Pinned = true
		}
		if ordered[i].Symbol.Fixed {
			ordered[i].Pinned = true
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	rename := markRenames(ordered)

	var entries []types.Rename
	for i, c := range ordered {
		if !rename[i] {
			continue
		}
		avoid := taken.like(c.Avoid...)
		newName := p.Names.Generate(c.Symbol.Name, func(name string) bool {
			return taken.Has(name) || avoid.Has(name)
		})
		taken.Add(newName)
		entries = append(entries, types.Rename{
			SymbolID: c.Symbol.ID,
			OldName:  c.Symbol.Name,
			NewName:  newName,
		})
	}
	return entries
}

// Plan plans with the default name generator.
func Plan(candidates []Candidate, taken *TakenSet, renameContainerToo bool) []types.Rename {
	return New(0).Plan(candidates, taken, renameContainerToo)
}

// markRenames applies the keeper rule to candidates already in priority
// order and reports which of them must be renamed.
func markRenames(ordered []Candidate) []bool {
	rename := make([]bool, len(ordered))

	byName := make(map[string][]int)
	var names []string
	for i, c := range ordered {
		if _, ok := byName[c.Symbol.Name]; !ok {
			names = append(names, c.Symbol.Name)
		}
		byName[c.Symbol.Name] = append(byName[c.Symbol.Name], i)
	}

	for _, name := range names {
		indices := byName[name]
		if len(indices) < 2 {
			continue
		}

		pinned := false
		keeper := -1
		for _, idx := range indices {
			if ordered[idx].Pinned {
				pinned = true
				continue
			}
			keeper = idx
		}
		if pinned {
			keeper = -1
		}

		for _, idx := range indices {
			if !ordered[idx].Pinned && idx != keeper {
				rename[idx] = true
			}
		}
	}
	return rename
}

// less orders candidates by ascending visibility, members before the
// container, then declaration order and ID.
func less(a, b Candidate) bool {
	if a.Symbol.Accessibility != b.Symbol.Accessibility {
		return a.Symbol.Accessibility < b.Symbol.Accessibility
	}
	if a.IsContainer != b.IsContainer {
		return !a.IsContainer
	}
	if a.Symbol.Order != b.Symbol.Order {
		return a.Symbol.Order < b.Symbol.Order
	}
	return a.Symbol.ID < b.Symbol.ID
}
