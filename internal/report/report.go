// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report renders the outcome of a renaming pass for people: a
// summary of renames and unified diffs of the rewritten files.
// Implements: prd007-report R1, R2;
//
//	docs/ARCHITECTURE § Reporting.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

const defaultContextLines = 3

// Config configures rendering.
type Config struct {
	ContextLines int // Unchanged lines around each diff hunk (default 3)
}

// Summary lists the renames of a pass grouped by old name, followed by the
// files they touched.
//
// Implements: prd007-report R1.1-R1.3.
func Summary(passID string, renames []types.Rename, modifiedFiles []string) string {
	var buf strings.Builder

	if len(renames) == 0 {
		fmt.Fprintf(&buf, "Pass %s: no clashing symbols.\n", passID)
		return buf.String()
	}
	fmt.Fprintf(&buf, "Pass %s: %d rename(s) in %d file(s).\n\n", passID, len(renames), len(modifiedFiles))

	buf.WriteString("## Renames\n\n")
	sorted := append([]types.Rename(nil), renames...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OldName < sorted[j].OldName })
	for _, r := range sorted {
		fmt.Fprintf(&buf, "- %s -> %s  (%s)\n", r.OldName, r.NewName, r.SymbolID)
	}

	if len(modifiedFiles) > 0 {
		buf.WriteString("\n## Modified Files\n\n")
		for _, f := range modifiedFiles {
			fmt.Fprintf(&buf, "- %s\n", f)
		}
	}
	return buf.String()
}

// Diffs renders a unified diff for every listed file between two program
// snapshots.
//
// Implements: prd007-report R2.1.
func Diffs(before, after *graph.Program, files []string, cfg Config) string {
	var buf strings.Builder
	for _, f := range files {
		old, _ := before.Source(f)
		cur, _ := after.Source(f)
		buf.WriteString(Diff(f, old, cur, cfg))
	}
	return buf.String()
}
