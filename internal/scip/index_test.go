// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package scip

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/internal/pass"
	"github.com/petar-djukic/declash/pkg/types"
)

const (
	prefix    = "scip-dotnet nuget demo 1.0 "
	fooType   = prefix + "Demo/Foo#"
	fooField  = prefix + "Demo/Foo#Foo."
	barMethod = prefix + "Demo/Foo#Bar()."
	colorType = prefix + "Demo/Color#"
	colorLit  = prefix + "Demo/Color#Color."

	fooSource = "public class Foo {\n  private int Foo;\n  void Bar() { Foo = 1; int x = 0; }\n}\n"
)

var definition = int32(scippb.SymbolRole_Definition)

func fooDocument() *scippb.Document {
	return &scippb.Document{
		Language:     "csharp",
		RelativePath: "src/Foo.cs",
		Occurrences: []*scippb.Occurrence{
			{Range: []int32{0, 13, 16}, Symbol: fooType, SymbolRoles: definition},
			{Range: []int32{1, 14, 17}, Symbol: fooField, SymbolRoles: definition},
			{Range: []int32{2, 7, 10}, Symbol: barMethod, SymbolRoles: definition},
			{Range: []int32{2, 15, 18}, Symbol: fooField},
			{Range: []int32{2, 28, 29}, Symbol: "local 0", SymbolRoles: definition},
		},
		Symbols: []*scippb.SymbolInformation{
			{Symbol: fooType, SignatureDocumentation: &scippb.Document{Text: "public class Foo"}},
			{Symbol: fooField, SignatureDocumentation: &scippb.Document{Text: "private int Foo"}},
			{Symbol: barMethod, Documentation: []string{"void Bar()"}},
		},
	}
}

func colorDocument() *scippb.Document {
	return &scippb.Document{
		Language:     "csharp",
		RelativePath: "src/Color.cs",
		Occurrences: []*scippb.Occurrence{
			{Range: []int32{0, 5, 10}, Symbol: colorType, SymbolRoles: definition},
			{Range: []int32{0, 13, 18}, Symbol: colorLit, SymbolRoles: definition},
		},
		Symbols: []*scippb.SymbolInformation{
			{Symbol: colorType, Kind: scippb.SymbolInformation_Enum},
		},
	}
}

const colorSource = "enum Color { Color, Red }\n"

func TestFromIndex_BuildsSymbolGraph(t *testing.T) {
	index := &scippb.Index{Documents: []*scippb.Document{fooDocument(), colorDocument()}}
	sources := map[string][]byte{"src/Foo.cs": []byte(fooSource), "src/Color.cs": []byte(colorSource)}

	prog, err := FromIndex(index, sources, nil)
	require.NoError(t, err)
	g := prog.Graph
	assert.False(t, prog.CaseInsensitive)

	ns, ok := g.Lookup(prefix + "Demo/")
	require.True(t, ok)
	assert.Equal(t, types.Namespace, ns.Kind)
	assert.Equal(t, "Demo", ns.Name)

	foo, ok := g.Lookup(fooType)
	require.True(t, ok)
	assert.Equal(t, types.Type, foo.Kind)
	assert.Equal(t, ns.ID, foo.Container)
	assert.Equal(t, types.Public, foo.Accessibility)

	field, ok := g.Lookup(fooField)
	require.True(t, ok)
	assert.Equal(t, types.Private, field.Accessibility)
	assert.Equal(t, fooType, field.Container)
	assert.Equal(t, []types.Location{{File: "src/Foo.cs", Offset: 33, Line: 2, Column: 15}}, field.Declarations)
	require.Len(t, field.References, 1)
	assert.Equal(t, 3, field.References[0].Line)

	bar, ok := g.Lookup(barMethod)
	require.True(t, ok)
	assert.Equal(t, "Bar", bar.Name)
	assert.Equal(t, types.Public, bar.Accessibility)

	color, ok := g.Lookup(colorType)
	require.True(t, ok)
	assert.True(t, color.IsEnum)
	lit, ok := g.Lookup(colorLit)
	require.True(t, ok)
	assert.True(t, lit.IsEnumMember)

	assert.Equal(t, 6, g.Len(), "locals are not symbols")
}

func TestFromIndex_RenamesWithPass(t *testing.T) {
	index := &scippb.Index{Documents: []*scippb.Document{fooDocument(), colorDocument()}}
	sources := map[string][]byte{"src/Foo.cs": []byte(fooSource), "src/Color.cs": []byte(colorSource)}

	prog, err := FromIndex(index, sources, nil)
	require.NoError(t, err)

	out, err := pass.RenameClashingSymbols(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "public class Foo {\n  private int Foo1;\n  void Bar() { Foo1 = 1; int x = 0; }\n}\n", string(out.Sources["src/Foo.cs"]))
	assert.Equal(t, colorSource, string(out.Sources["src/Color.cs"]))
}

func TestFromIndex_ReferencesWithoutSourceAreDropped(t *testing.T) {
	useDoc := &scippb.Document{
		Language:     "csharp",
		RelativePath: "gen/Use.cs",
		Occurrences: []*scippb.Occurrence{
			{Range: []int32{3, 8, 11}, Symbol: fooField},
		},
	}
	index := &scippb.Index{Documents: []*scippb.Document{fooDocument(), useDoc}}

	prog, err := FromIndex(index, map[string][]byte{"src/Foo.cs": []byte(fooSource)}, nil)
	require.NoError(t, err)

	field, ok := prog.Graph.Lookup(fooField)
	require.True(t, ok)
	require.Len(t, field.References, 1)
	assert.Equal(t, "src/Foo.cs", field.References[0].File)

	out, err := pass.RenameClashingSymbols(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "public class Foo {\n  private int Foo1;\n  void Bar() { Foo1 = 1; int x = 0; }\n}\n", string(out.Sources["src/Foo.cs"]))
}

func TestFromIndex_ExternalAndImplementations(t *testing.T) {
	doc := fooDocument()
	doc.Symbols[1].Relationships = []*scippb.Relationship{{Symbol: prefix + "Demo/IFoo#Foo.", IsImplementation: true}}
	extDoc := &scippb.Document{
		Language:     "csharp",
		RelativePath: "lib/Ext.cs",
		Occurrences: []*scippb.Occurrence{
			{Range: []int32{0, 6, 9}, Symbol: prefix + "Lib/Ext#", SymbolRoles: definition},
		},
	}
	index := &scippb.Index{
		Documents: []*scippb.Document{doc, extDoc},
		ExternalSymbols: []*scippb.SymbolInformation{
			{Symbol: fooType, SignatureDocumentation: &scippb.Document{Text: "internal class Foo"}},
			{Symbol: prefix + "Lib/Ext#", SignatureDocumentation: &scippb.Document{Text: "protected class Ext"}},
		},
	}

	prog, err := FromIndex(index, map[string][]byte{"src/Foo.cs": []byte(fooSource)}, nil)
	require.NoError(t, err)

	field, _ := prog.Graph.Lookup(fooField)
	assert.True(t, field.Fixed)

	foo, _ := prog.Graph.Lookup(fooType)
	assert.Equal(t, types.Public, foo.Accessibility, "document information wins over external information")

	ext, ok := prog.Graph.Lookup(prefix + "Lib/Ext#")
	require.True(t, ok)
	assert.Equal(t, types.Protected, ext.Accessibility)
	assert.Equal(t, 1, ext.Declarations[0].Line)
	assert.False(t, prog.Unit.Contains("lib/Ext.cs"))

	out, err := pass.RenameClashingSymbols(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "public class Foo1 {\n  private int Foo;\n  void Bar() { Foo = 1; int x = 0; }\n}\n", string(out.Sources["src/Foo.cs"]))
}

func TestFromIndex_CaseInsensitiveLanguage(t *testing.T) {
	src := "Class Foo\n  Sub Foo()\n  End Sub\n  Sub Bar()\n    foo()\n  End Sub\nEnd Class\n"
	doc := &scippb.Document{
		Language:     "VB",
		RelativePath: "Foo.vb",
		Occurrences: []*scippb.Occurrence{
			{Range: []int32{0, 6, 9}, Symbol: prefix + "Foo#", SymbolRoles: definition},
			{Range: []int32{1, 6, 9}, Symbol: prefix + "Foo#Foo().", SymbolRoles: definition},
			{Range: []int32{3, 6, 9}, Symbol: prefix + "Foo#Bar().", SymbolRoles: definition},
			{Range: []int32{4, 4, 7}, Symbol: prefix + "Foo#Foo()."},
		},
		Symbols: []*scippb.SymbolInformation{
			{Symbol: prefix + "Foo#Foo().", SignatureDocumentation: &scippb.Document{Text: "Friend Sub Foo()"}},
		},
	}

	prog, err := FromIndex(&scippb.Index{Documents: []*scippb.Document{doc}}, map[string][]byte{"Foo.vb": []byte(src)}, nil)
	require.NoError(t, err)
	assert.True(t, prog.CaseInsensitive)

	method, _ := prog.Graph.Lookup(prefix + "Foo#Foo().")
	assert.Equal(t, types.Internal, method.Accessibility)

	out, err := pass.RenameClashingSymbols(context.Background(), prog)
	require.NoError(t, err)
	assert.Equal(t, "Class Foo\n  Sub Foo1()\n  End Sub\n  Sub Bar()\n    Foo1()\n  End Sub\nEnd Class\n", string(out.Sources["Foo.vb"]))
}

func TestFromIndex_Errors(t *testing.T) {
	tests := []struct {
		name string
		occ  *scippb.Occurrence
	}{
		{"malformed symbol", &scippb.Occurrence{Range: []int32{0, 0, 1}, Symbol: "scip-dotnet"}},
		{"short range", &scippb.Occurrence{Range: []int32{0, 1}, Symbol: fooType}},
		{"line out of range", &scippb.Occurrence{Range: []int32{40, 0, 3}, Symbol: fooType}},
		{"character out of range", &scippb.Occurrence{Range: []int32{0, 90, 93}, Symbol: fooType}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &scippb.Document{RelativePath: "src/Foo.cs", Occurrences: []*scippb.Occurrence{tt.occ}}
			_, err := FromIndex(&scippb.Index{Documents: []*scippb.Document{doc}}, map[string][]byte{"src/Foo.cs": []byte(fooSource)}, nil)
			assert.ErrorIs(t, err, graph.ErrUnresolvable)
		})
	}
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Foo.cs"), []byte(fooSource), 0o644))

	index := &scippb.Index{Documents: []*scippb.Document{fooDocument(), colorDocument()}}
	data, err := proto.Marshal(index)
	require.NoError(t, err)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"plain", "index.scip", data},
		{"gzip", "index.scip.gz", gz.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(root, tt.file)
			require.NoError(t, os.WriteFile(path, tt.data, 0o644))

			prog, err := Load(path, root, []string{"Color.cs"})
			require.NoError(t, err)
			assert.Equal(t, []string{"src/Foo.cs"}, prog.Files(), "documents without source are external")
			assert.True(t, prog.Unit.Contains("src/Foo.cs"))

			_, ok := prog.Graph.Lookup(colorType)
			assert.True(t, ok)
		})
	}

	_, err = Load(filepath.Join(root, "missing.scip"), root, nil)
	assert.Error(t, err)

	bad := filepath.Join(root, "bad.scip")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xff, 0xff}, 0o644))
	_, err = Load(bad, root, nil)
	assert.ErrorIs(t, err, graph.ErrUnresolvable)
}

func TestCharOffset(t *testing.T) {
	src := []byte("a\U0001F600b\n")

	tests := []struct {
		name string
		enc  scippb.PositionEncoding
		char int
		want int
	}{
		{"utf8", scippb.PositionEncoding_UTF8CodeUnitOffsetFromLineStart, 5, 5},
		{"unspecified is utf8", scippb.PositionEncoding_UnspecifiedPositionEncoding, 5, 5},
		{"utf16", scippb.PositionEncoding_UTF16CodeUnitOffsetFromLineStart, 3, 5},
		{"utf16 inside surrogate pair", scippb.PositionEncoding_UTF16CodeUnitOffsetFromLineStart, 2, -1},
		{"utf32", scippb.PositionEncoding_UTF32CodeUnitOffsetFromLineStart, 2, 5},
		{"past end of line", scippb.PositionEncoding_UTF32CodeUnitOffsetFromLineStart, 4, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, charOffset(src, 0, tt.char, tt.enc))
		})
	}
}

func TestAccessibility(t *testing.T) {
	tests := []struct {
		signature string
		want      types.Accessibility
	}{
		{"private int Foo", types.Private},
		{"[Obsolete] internal class Foo", types.Internal},
		{"Friend Sub Foo()", types.Internal},
		{"protected override void Foo()", types.Protected},
		{"public static void Main()", types.Public},
		{"void Bar()", types.Public},
		{"", types.Public},
	}

	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			assert.Equal(t, tt.want, accessibility(tt.signature))
		})
	}
}
