// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package planner

import (
	"strconv"
	"strings"
)

const defaultSuffixStart = 1

// TakenSet is the set of names already in use in one scope. It only grows.
// A folded set compares names case-insensitively.
type TakenSet struct {
	names map[string]struct{}
	fold  bool
}

// NewTakenSet returns a set seeded with names.
func NewTakenSet(names ...string) *TakenSet {
	return newTakenSet(false, names)
}

// NewFoldedTakenSet returns a case-insensitive set seeded with names, for
// programs whose source language ignores letter case.
func NewFoldedTakenSet(names ...string) *TakenSet {
	return newTakenSet(true, names)
}

func newTakenSet(fold bool, names []string) *TakenSet {
	t := &TakenSet{names: make(map[string]struct{}, len(names)), fold: fold}
	for _, n := range names {
		t.names[t.key(n)] = struct{}{}
	}
	return t
}

// like returns a new set seeded with names that compares like t.
func (t *TakenSet) like(names ...string) *TakenSet {
	return newTakenSet(t.fold, names)
}

func (t *TakenSet) key(name string) string {
	if t.fold {
		return strings.ToLower(name)
	}
	return name
}

// Add inserts name and reports whether it was absent.
func (t *TakenSet) Add(name string) bool {
	k := t.key(name)
	if _, ok := t.names[k]; ok {
		return false
	}
	t.names[k] = struct{}{}
	return true
}

// Has reports whether name is taken.
func (t *TakenSet) Has(name string) bool {
	_, ok := t.names[t.key(name)]
	return ok
}

// Len returns the number of taken names.
func (t *TakenSet) Len() int {
	return len(t.names)
}

// NameGenerator derives replacement names by appending an increasing
// decimal suffix to the original name: Foo1, Foo2, ...
type NameGenerator struct {
	Start int // First suffix tried; values <= 0 mean 1
}

// Generate returns the first decorated form of base for which taken
// reports false. The result always differs from base.
func (n NameGenerator) Generate(base string, taken func(string) bool) string {
	i := n.Start
	if i <= 0 {
		i = defaultSuffixStart
	}
	for ; ; i++ {
		candidate := base + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}
