// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// lineOp is one line of a line-level diff: ' ' kept, '-' removed, '+' added.
type lineOp struct {
	kind byte
	text string
}

// Diff renders a unified diff of one file. Identical contents render as
// the empty string.
//
// Implements: prd007-report R2.2-R2.4.
func Diff(file string, before, after []byte, cfg Config) string {
	if string(before) == string(after) {
		return ""
	}
	ctx := cfg.ContextLines
	if ctx <= 0 {
		ctx = defaultContextLines
	}

	ops := lineDiff(string(before), string(after))

	// Line numbers of the old and new file at each op.
	oldAt := make([]int, len(ops)+1)
	newAt := make([]int, len(ops)+1)
	oldAt[0], newAt[0] = 1, 1
	for i, op := range ops {
		oldAt[i+1], newAt[i+1] = oldAt[i], newAt[i]
		if op.kind != '+' {
			oldAt[i+1]++
		}
		if op.kind != '-' {
			newAt[i+1]++
		}
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "--- a/%s\n+++ b/%s\n", file, file)

	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].kind == ' ' {
			i++
		}
		if i == len(ops) {
			break
		}

		// Extend the hunk while kept runs are short enough to share context.
		end := i
		for j := i; j < len(ops); j++ {
			if ops[j].kind != ' ' {
				end = j + 1
				continue
			}
			if j-end >= 2*ctx {
				break
			}
		}
		start := max(i-ctx, 0)
		stop := min(end+ctx, len(ops))

		oldCount := oldAt[stop] - oldAt[start]
		newCount := newAt[stop] - newAt[start]
		fmt.Fprintf(&buf, "@@ -%s +%s @@\n", hunkRange(oldAt[start], oldCount), hunkRange(newAt[start], newCount))
		for _, op := range ops[start:stop] {
			buf.WriteByte(op.kind)
			buf.WriteString(op.text)
			if !strings.HasSuffix(op.text, "\n") {
				buf.WriteString("\n\\ No newline at end of file\n")
			}
		}
		i = stop
	}
	return buf.String()
}

// lineDiff diffs two texts line by line using diffmatchpatch's line mode.
func lineDiff(before, after string) []lineOp {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var ops []lineOp
	for _, d := range diffs {
		kind := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				ops = append(ops, lineOp{kind: kind, text: line})
			}
		}
	}
	return ops
}

func hunkRange(start, count int) string {
	if count == 0 {
		return fmt.Sprintf("%d,0", start-1)
	}
	if count == 1 {
		return fmt.Sprintf("%d", start)
	}
	return fmt.Sprintf("%d,%d", start, count)
}
