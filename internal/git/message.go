// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd006-git-integration R3;
//
//	docs/ARCHITECTURE § Git Integration.
package git

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/declash/pkg/types"
)

const (
	maxSubjectLength = 72
	maxListedRenames = 50
)

// GenerateMessage creates the commit message for one renaming pass: a
// conventional "refactor:" subject, the renames, the modified files and
// the trailers that identify the commit for undo.
//
// Implements: prd006-git-integration R3.1-R3.4.
func GenerateMessage(renames []types.Rename, modifiedFiles []string, passID string) string {
	msg := buildSubject(renames)
	if body := buildBody(renames, modifiedFiles); body != "" {
		msg += "\n\n" + body
	}
	msg += "\n\n" + renamedByTrailer
	if passID != "" {
		msg += "\n" + passTrailerKey + " " + passID
	}
	return msg
}

// buildSubject names the single rename, or counts them.
func buildSubject(renames []types.Rename) string {
	var subject string
	switch len(renames) {
	case 0:
		subject = "refactor: rename clashing symbols"
	case 1:
		subject = fmt.Sprintf("refactor: rename %s to %s", renames[0].OldName, renames[0].NewName)
	default:
		subject = fmt.Sprintf("refactor: rename %d clashing symbols", len(renames))
	}
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}
	return subject
}

func buildBody(renames []types.Rename, modifiedFiles []string) string {
	var buf strings.Builder
	if len(renames) > 0 {
		buf.WriteString("Renamed symbols:\n")
		for i, r := range renames {
			if i == maxListedRenames {
				fmt.Fprintf(&buf, "- and %d more\n", len(renames)-maxListedRenames)
				break
			}
			fmt.Fprintf(&buf, "- %s\n", r)
		}
	}
	if len(modifiedFiles) > 0 {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString("Modified files:\n")
		for _, f := range modifiedFiles {
			fmt.Fprintf(&buf, "- %s\n", f)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
