// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessibility(t *testing.T) {
	tests := []struct {
		in      string
		want    Accessibility
		wantErr bool
	}{
		{"private", Private, false},
		{"Friend", Internal, false},
		{"internal", Internal, false},
		{"protected", Protected, false},
		{"public", Public, false},
		{"", Public, false},
		{"sealed", Public, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAccessibility(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccessibilityOrder(t *testing.T) {
	assert.Less(t, Private, Internal)
	assert.Less(t, Internal, Protected)
	assert.Less(t, Protected, Public)
	assert.Equal(t, "protected", Protected.String())
}

func TestSymbol_SitesAndContainer(t *testing.T) {
	sym := Symbol{
		Kind:         Member,
		Declarations: []Location{{File: "a.cs", Line: 2, Column: 8}},
		References:   []Location{{File: "a.cs", Line: 3, Column: 16}, {File: "b.cs", Line: 1, Column: 1}},
	}

	sites := sym.Sites()
	require.Len(t, sites, 3)
	assert.Equal(t, "a.cs:2:8", sites[0].String())
	assert.Equal(t, "b.cs:1:1", sites[2].String())
	assert.False(t, sym.IsContainer())
	assert.True(t, Symbol{Kind: Namespace}.IsContainer())
	assert.Equal(t, "Member", Member.String())
}

func TestRenameAndState(t *testing.T) {
	r := Rename{SymbolID: "Foo.Foo", OldName: "Foo", NewName: "Foo1"}
	assert.Equal(t, "Foo -> Foo1 (Foo.Foo)", r.String())

	data, err := json.Marshal(map[string]State{"state": StateApplied})
	require.NoError(t, err)
	assert.JSONEq(t, `{"state":"applied"}`, string(data))
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(42).String())
}
