// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd003-rename-planner R1 (Rename entry);
//
//	prd004-rename-applicator R4 (pass states).
package types

import "fmt"

// Rename is a single planned rename: a symbol and the name it will carry
// after the pass.
type Rename struct {
	SymbolID string // Symbol being renamed
	OldName  string // Name before the pass
	NewName  string // Unique replacement name
}

func (r Rename) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.OldName, r.NewName, r.SymbolID)
}

// State is the phase a renaming pass ended in.
type State int

const (
	StateCollected State = iota // Candidate groups gathered
	StatePlanned                // Rename entries assigned
	StateApplying               // Batch rewrite in progress
	StateApplied                // Batch rewrite committed
	StateFailed                 // Pass aborted; the input program is unchanged
)

func (s State) String() string {
	switch s {
	case StateCollected:
		return "collected"
	case StatePlanned:
		return "planned"
	case StateApplying:
		return "applying"
	case StateApplied:
		return "applied"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText lets states render by name in JSON results.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
