// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package clash

import (
	"context"
	"runtime"
	"sync"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

// Group is the candidate set of one container: the container itself and
// its clashing members declared in the unit.
type Group struct {
	Container types.Symbol   // Enclosing type
	Members   []types.Symbol // Members that clash with the container, in declaration order
	Taken     []string       // Names of every symbol in the candidate set
}

// Symbols returns the candidate set: the container followed by its members.
func (g Group) Symbols() []types.Symbol {
	syms := make([]types.Symbol, 0, len(g.Members)+1)
	syms = append(syms, g.Container)
	return append(syms, g.Members...)
}

// Collect walks every container of the graph and returns one Group per
// type that has clashing members declared inside unit. Namespaces never
// produce a group. Members whose declarations all lie outside the unit are
// never candidates.
//
// Containers are examined by a bounded worker pool; concurrency <= 0
// defaults to runtime.NumCPU(). The result follows g.Containers() order
// regardless of scheduling. Collect only reads the graph.
//
// Implements: prd002-clash-detection R2.1-R2.6.
func Collect(ctx context.Context, g *graph.Graph, unit graph.Unit, concurrency int) ([]Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	containers := g.Containers()
	found := make([]*Group, len(containers))

	jobs := make(chan int, len(containers))
	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					continue
				}
				found[idx] = collectContainer(g, unit, containers[idx])
			}
		}()
	}

	for idx := range containers {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var groups []Group
	for _, grp := range found {
		if grp != nil {
			groups = append(groups, *grp)
		}
	}
	return groups, nil
}

// collectContainer builds the group for a single container, or nil if the
// container is a namespace or has no qualifying members.
func collectContainer(g *graph.Graph, unit graph.Unit, container types.Symbol) *Group {
	if container.Kind == types.Namespace {
		return nil
	}

	var members []types.Symbol
	for _, m := range g.Members(container.ID) {
		if !unit.ContainsDeclarationIn(m) {
			continue
		}
		if !ShouldRename(container, m) {
			continue
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		return nil
	}

	grp := &Group{Container: container, Members: members}
	seen := make(map[string]bool)
	for _, s := range grp.Symbols() {
		if !seen[s.Name] {
			seen[s.Name] = true
			grp.Taken = append(grp.Taken, s.Name)
		}
	}
	return grp
}
