// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package graph holds the resolved symbol graph of a program, the
// compilation unit under transformation and the immutable program snapshot
// that a renaming pass consumes and produces.
// Implements: prd001-symbol-graph R2 (Graph), R3 (Unit), R4 (Program);
//
//	docs/ARCHITECTURE § Symbol Graph.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/petar-djukic/declash/pkg/types"
)

// ErrUnresolvable is returned when a symbol graph cannot be produced or is
// internally inconsistent.
var ErrUnresolvable = errors.New("symbol graph unresolvable")

// Graph is a read-only index over the symbols of a program, with lookups
// by ID and container. Symbols returned by the lookups share
// their location slices with the graph and must not be modified.
//
// Implements: prd001-symbol-graph R2.1-R2.6.
type Graph struct {
	symbols     []types.Symbol
	byID        map[string]int
	byContainer map[string][]int
	depth       []int
}

// New builds a Graph from the given symbols. It fails with ErrUnresolvable
// if IDs are duplicated, a name is empty, a container reference dangles,
// a container is not a namespace or type, or the containment chain loops.
func New(symbols []types.Symbol) (*Graph, error) {
	g := &Graph{
		symbols:     make([]types.Symbol, len(symbols)),
		byID:        make(map[string]int, len(symbols)),
		byContainer: make(map[string][]int),
	}
	copy(g.symbols, symbols)

	for idx, sym := range g.symbols {
		if sym.ID == "" {
			return nil, fmt.Errorf("%w: symbol %q has no id", ErrUnresolvable, sym.Name)
		}
		if sym.Name == "" {
			return nil, fmt.Errorf("%w: symbol %s has no name", ErrUnresolvable, sym.ID)
		}
		if _, dup := g.byID[sym.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate symbol id %s", ErrUnresolvable, sym.ID)
		}
		g.byID[sym.ID] = idx
	}

	for idx, sym := range g.symbols {
		if sym.Container == "" {
			g.byContainer[""] = append(g.byContainer[""], idx)
			continue
		}
		cidx, ok := g.byID[sym.Container]
		if !ok {
			return nil, fmt.Errorf("%w: %s refers to unknown container %s", ErrUnresolvable, sym.ID, sym.Container)
		}
		if !g.symbols[cidx].IsContainer() {
			return nil, fmt.Errorf("%w: container %s of %s is a %s", ErrUnresolvable, sym.Container, sym.ID, g.symbols[cidx].Kind)
		}
		g.byContainer[sym.Container] = append(g.byContainer[sym.Container], idx)
	}

	for id, members := range g.byContainer {
		g.sortIndices(members)
		g.byContainer[id] = members
	}

	if err := g.computeDepths(); err != nil {
		return nil, err
	}
	return g, nil
}

// computeDepths records the nesting depth of every symbol and rejects
// containment cycles.
func (g *Graph) computeDepths() error {
	g.depth = make([]int, len(g.symbols))
	for i := range g.depth {
		g.depth[i] = -1
	}

	var visit func(idx int, seen int) (int, error)
	visit = func(idx int, seen int) (int, error) {
		if g.depth[idx] >= 0 {
			return g.depth[idx], nil
		}
		if seen > len(g.symbols) {
			return 0, fmt.Errorf("%w: containment cycle through %s", ErrUnresolvable, g.symbols[idx].ID)
		}
		parent := g.symbols[idx].Container
		if parent == "" {
			g.depth[idx] = 0
			return 0, nil
		}
		d, err := visit(g.byID[parent], seen+1)
		if err != nil {
			return 0, err
		}
		g.depth[idx] = d + 1
		return d + 1, nil
	}

	for idx := range g.symbols {
		if _, err := visit(idx, 0); err != nil {
			return err
		}
	}
	return nil
}

// All returns every symbol in the graph in input order.
func (g *Graph) All() []types.Symbol {
	result := make([]types.Symbol, len(g.symbols))
	copy(result, g.symbols)
	return result
}

// Lookup returns the symbol with the given ID.
func (g *Graph) Lookup(id string) (types.Symbol, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return types.Symbol{}, false
	}
	return g.symbols[idx], true
}

// Members returns the symbols directly contained in the container with
// the given ID, in declaration order. The empty ID yields the roots.
func (g *Graph) Members(containerID string) []types.Symbol {
	return g.lookup(g.byContainer[containerID])
}

// Parent returns the enclosing symbol of sym, if any.
func (g *Graph) Parent(sym types.Symbol) (types.Symbol, bool) {
	if sym.Container == "" {
		return types.Symbol{}, false
	}
	return g.Lookup(sym.Container)
}

// Siblings returns the other members of sym's container. Siblings of a
// root symbol are the other roots.
func (g *Graph) Siblings(sym types.Symbol) []types.Symbol {
	var result []types.Symbol
	for _, idx := range g.byContainer[sym.Container] {
		if g.symbols[idx].ID != sym.ID {
			result = append(result, g.symbols[idx])
		}
	}
	return result
}

// Containers returns every namespace and type, outer scopes first, then in
// declaration order. The order is deterministic for a given graph.
func (g *Graph) Containers() []types.Symbol {
	var indices []int
	for idx, sym := range g.symbols {
		if sym.IsContainer() {
			indices = append(indices, idx)
		}
	}
	sort.SliceStable(indices, func(i, j int) bool {
		a, b := indices[i], indices[j]
		if g.depth[a] != g.depth[b] {
			return g.depth[a] < g.depth[b]
		}
		return g.less(a, b)
	})
	return g.lookup(indices)
}

// Len returns the total number of symbols.
func (g *Graph) Len() int {
	return len(g.symbols)
}

func (g *Graph) sortIndices(indices []int) {
	sort.SliceStable(indices, func(i, j int) bool {
		return g.less(indices[i], indices[j])
	})
}

func (g *Graph) less(a, b int) bool {
	sa, sb := g.symbols[a], g.symbols[b]
	if sa.Order != sb.Order {
		return sa.Order < sb.Order
	}
	return sa.ID < sb.ID
}

// lookup returns symbols at the given indices.
func (g *Graph) lookup(indices []int) []types.Symbol {
	if len(indices) == 0 {
		return nil
	}
	result := make([]types.Symbol, len(indices))
	for i, idx := range indices {
		result[i] = g.symbols[idx]
	}
	return result
}
