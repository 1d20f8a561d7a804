// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines shared types used across declash packages.
// Implements: prd001-symbol-graph R1 (shared types).
package types

import "fmt"

// SymbolKind identifies the category of a symbol in the resolved graph.
type SymbolKind int

const (
	Namespace SymbolKind = iota // Namespace or package
	Type                        // Class, struct, interface, enum, module
	Member                      // Method, field, property, constant, nested term
)

// String returns the human-readable name of the symbol kind.
func (k SymbolKind) String() string {
	switch k {
	case Namespace:
		return "Namespace"
	case Type:
		return "Type"
	case Member:
		return "Member"
	default:
		return "Unknown"
	}
}

// Accessibility is the declared visibility of a symbol. Values are ordered
// from least to most visible.
type Accessibility int

const (
	Private Accessibility = iota
	Internal
	Protected
	Public
)

func (a Accessibility) String() string {
	switch a {
	case Private:
		return "private"
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case Public:
		return "public"
	default:
		return "unknown"
	}
}

// ParseAccessibility converts a modifier keyword into an Accessibility.
// "friend" is accepted as the Visual Basic spelling of internal.
func ParseAccessibility(s string) (Accessibility, error) {
	switch s {
	case "private", "Private":
		return Private, nil
	case "internal", "Internal", "friend", "Friend":
		return Internal, nil
	case "protected", "Protected":
		return Protected, nil
	case "public", "Public", "":
		return Public, nil
	default:
		return Public, fmt.Errorf("unknown accessibility %q", s)
	}
}

// Location is a single occurrence of a symbol name in a source file.
type Location struct {
	File   string // Path relative to the program root
	Offset int    // Byte offset of the identifier start
	Length int    // Byte length of the identifier; 0 means len(symbol name)
	Line   int    // Line number (1-based)
	Column int    // Column number (1-based, bytes)
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Symbol represents a declared program element in the resolved graph.
// Implements: prd001-symbol-graph R1.1-R1.6.
type Symbol struct {
	ID            string        // Stable identifier, unique within a graph
	Name          string        // Declared name
	Kind          SymbolKind    // Namespace, type or member
	Accessibility Accessibility // Declared visibility
	Container     string        // ID of the enclosing symbol; empty for roots
	Declarations  []Location    // Declaration sites
	References    []Location    // Reference sites, excluding declarations
	IsEnum        bool          // Type is an enumeration
	IsEnumMember  bool          // Member is an enumeration literal
	Fixed         bool          // Name is bound by an override, implementation or interop contract
	Order         int           // Declaration order, used as a stable tie-breaker
	Inherited     []string      // Names visible in this container but declared elsewhere
}

// IsContainer reports whether the symbol can hold members.
func (s Symbol) IsContainer() bool {
	return s.Kind == Namespace || s.Kind == Type
}

// Sites returns declaration sites followed by reference sites.
func (s Symbol) Sites() []Location {
	sites := make([]Location, 0, len(s.Declarations)+len(s.References))
	sites = append(sites, s.Declarations...)
	return append(sites, s.References...)
}
