// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package golang resolves a Go package into a declash symbol graph. It is
// the reference frontend: it can resolve a rewritten program again, which
// lets a pass prove that its renames still type-check.
// Implements: prd005-frontends R1 (Go frontend);
//
//	docs/ARCHITECTURE § Frontends.
package golang

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/petar-djukic/declash/internal/graph"
)

// ParseError records a parse failure for a single file.
type ParseError struct {
	FilePath string
	Err      error
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.FilePath, e.Err)
}

// ReadDir reads the .go files directly inside dir, keyed by file name.
// Subdirectories are other packages and are not read.
func ReadDir(dir string) (map[string][]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving directory: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absDir)
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	sources := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(absDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		sources[e.Name()] = data
	}
	return sources, nil
}

// parsedFile is one parsed source file.
type parsedFile struct {
	name string
	file *ast.File
}

// parseAll parses every .go source using a bounded worker pool and returns
// the files sorted by name. Any parse error fails the whole set.
func parseAll(ctx context.Context, fset *token.FileSet, sources map[string][]byte, concurrency int) ([]parsedFile, error) {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}

	var names []string
	for name := range sources {
		if strings.HasSuffix(name, ".go") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, nil
	}

	type parseResult struct {
		idx  int
		file *ast.File
		err  error
	}

	jobs := make(chan int, len(names))
	results := make(chan parseResult, len(names))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					results <- parseResult{idx: idx, err: err}
					continue
				}
				f, err := parser.ParseFile(fset, names[idx], sources[names[idx]], parser.ParseComments)
				results <- parseResult{idx: idx, file: f, err: err}
			}
		}()
	}

	for idx := range names {
		jobs <- idx
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	files := make([]parsedFile, len(names))
	var errs []ParseError
	for pr := range results {
		if pr.err != nil {
			errs = append(errs, ParseError{FilePath: names[pr.idx], Err: pr.err})
			continue
		}
		files[pr.idx] = parsedFile{name: names[pr.idx], file: pr.file}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].FilePath < errs[j].FilePath })
		return nil, fmt.Errorf("%w: %v", graph.ErrUnresolvable, errs[0])
	}
	return files, nil
}

// primaryPackage picks the package most files declare, ignoring external
// test packages; ties go to the alphabetically first name.
func primaryPackage(files []parsedFile) string {
	counts := make(map[string]int)
	for _, f := range files {
		name := f.file.Name.Name
		if strings.HasSuffix(name, "_test") {
			continue
		}
		counts[name]++
	}
	best := ""
	for name, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && name < best) {
			best = name
		}
	}
	return best
}
