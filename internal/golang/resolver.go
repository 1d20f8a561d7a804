// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/importer"
	"go/token"
	gotypes "go/types"

	"github.com/petar-djukic/declash/internal/graph"
)

// Resolver type-checks one Go package and builds its symbol graph. It
// implements graph.Resolver.
type Resolver struct {
	Concurrency int // Parser workers; <= 0 means runtime.NumCPU()
}

var _ graph.Resolver = (*Resolver)(nil)

// Resolve parses and type-checks the package formed by sources. Files of
// external test packages are ignored. Parse and type errors are reported
// as graph.ErrUnresolvable.
//
// Implements: prd005-frontends R1.1-R1.8.
func (r *Resolver) Resolve(ctx context.Context, sources map[string][]byte) (*graph.Graph, error) {
	fset := token.NewFileSet()
	parsed, err := parseAll(ctx, fset, sources, r.Concurrency)
	if err != nil {
		return nil, err
	}

	name := primaryPackage(parsed)
	if name == "" {
		return nil, fmt.Errorf("%w: no Go package in sources", graph.ErrUnresolvable)
	}

	var files []parsedFile
	var astFiles []*ast.File
	for _, f := range parsed {
		if f.file.Name.Name == name {
			files = append(files, f)
			astFiles = append(astFiles, f.file)
		}
	}

	info := &gotypes.Info{
		Types:     make(map[ast.Expr]gotypes.TypeAndValue),
		Defs:      make(map[*ast.Ident]gotypes.Object),
		Uses:      make(map[*ast.Ident]gotypes.Object),
		Implicits: make(map[ast.Node]gotypes.Object),
	}
	conf := gotypes.Config{Importer: importer.ForCompiler(fset, "source", nil)}
	pkg, err := conf.Check(name, fset, astFiles, info)
	if err != nil {
		return nil, fmt.Errorf("%w: type checking %s: %v", graph.ErrUnresolvable, name, err)
	}

	return newBuilder(fset, pkg, info, files).build()
}

// Load reads the Go package in dir and returns a program whose unit is
// every file not matching an exclude pattern. The program keeps the
// resolver so a rewritten program is type-checked again.
func Load(ctx context.Context, dir string, exclude []string, concurrency int) (*graph.Program, error) {
	sources, err := ReadDir(dir)
	if err != nil {
		return nil, err
	}

	r := &Resolver{Concurrency: concurrency}
	g, err := r.Resolve(ctx, sources)
	if err != nil {
		return nil, err
	}

	return &graph.Program{
		Sources:  sources,
		Graph:    g,
		Unit:     graph.UnitOf(sources, exclude),
		Resolver: r,
	}, nil
}
