// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/declash/pkg/types"
)

const fooSource = "class Foo\n  void Foo() {}\n  void Bar() { Foo(); }\nend\n"

const yamlDump = `caseInsensitive: false
symbols:
  - id: Foo
    name: Foo
    kind: class
    accessibility: public
    declarations:
      - {file: foo.cs, offset: 6}
  - id: Foo.Foo
    name: Foo
    kind: method
    accessibility: private
    container: Foo
    declarations:
      - {file: foo.cs, line: 2, column: 8}
    references:
      - {file: foo.cs, line: 3, column: 16}
  - id: Foo.Bar
    name: Bar
    kind: method
    container: Foo
    declarations:
      - {file: foo.cs, line: 3, column: 8}
  - id: Base
    name: Base
    kind: class
    declarations:
      - {file: lib/base.cs, line: 1, column: 7}
`

const jsonDump = `{
  "symbols": [
    {"id": "Foo", "name": "Foo", "kind": "class", "declarations": [{"file": "foo.cs", "offset": 6}]},
    {"id": "Foo.Foo", "name": "Foo", "kind": "method", "accessibility": "private", "container": "Foo",
     "declarations": [{"file": "foo.cs", "line": 2, "column": 8}],
     "references": [{"file": "foo.cs", "line": 3, "column": 16}]},
    {"id": "Foo.Bar", "name": "Bar", "kind": "method", "container": "Foo",
     "declarations": [{"file": "foo.cs", "line": 3, "column": 8}]},
    {"id": "Base", "name": "Base", "kind": "class", "declarations": [{"file": "lib/base.cs", "line": 1, "column": 7}]}
  ]
}`

const tomlDump = `
[[symbols]]
id = "Foo"
name = "Foo"
kind = "class"
declarations = [{file = "foo.cs", offset = 6}]

[[symbols]]
id = "Foo.Foo"
name = "Foo"
kind = "method"
accessibility = "private"
container = "Foo"
declarations = [{file = "foo.cs", line = 2, column = 8}]
references = [{file = "foo.cs", line = 3, column = 16}]

[[symbols]]
id = "Foo.Bar"
name = "Bar"
kind = "method"
container = "Foo"
declarations = [{file = "foo.cs", line = 3, column = 8}]

[[symbols]]
id = "Base"
name = "Base"
kind = "class"
declarations = [{file = "lib/base.cs", line = 1, column = 7}]
`

func writeDumpFixture(t *testing.T, name string, data []byte) (root, path string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo.cs"), []byte(fooSource), 0o644))
	path = filepath.Join(root, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return root, path
}

func gzipped(t *testing.T, data string) []byte {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

func TestLoadDump_Formats(t *testing.T) {
	tests := []struct {
		name string
		file string
		data func(t *testing.T) []byte
	}{
		{"yaml", "symbols.yaml", func(*testing.T) []byte { return []byte(yamlDump) }},
		{"yml", "symbols.yml", func(*testing.T) []byte { return []byte(yamlDump) }},
		{"json", "symbols.json", func(*testing.T) []byte { return []byte(jsonDump) }},
		{"toml", "symbols.toml", func(*testing.T) []byte { return []byte(tomlDump) }},
		{"gzip yaml", "symbols.yaml.gz", func(t *testing.T) []byte { return gzipped(t, yamlDump) }},
		{"gzip json", "symbols.json.gz", func(t *testing.T) []byte { return gzipped(t, jsonDump) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, path := writeDumpFixture(t, tt.file, tt.data(t))

			d, err := LoadDump(path)
			require.NoError(t, err)
			require.Len(t, d.Symbols, 4)

			prog, err := d.Program(root, nil)
			require.NoError(t, err)

			assert.Equal(t, []string{"foo.cs"}, prog.Files())
			assert.True(t, prog.Unit.Contains("foo.cs"))
			assert.False(t, prog.Unit.Contains("lib/base.cs"))

			foo, ok := prog.Graph.Lookup("Foo")
			require.True(t, ok)
			assert.Equal(t, types.Type, foo.Kind)
			assert.Equal(t, types.Public, foo.Accessibility)
			assert.Equal(t, types.Location{File: "foo.cs", Offset: 6, Line: 1, Column: 7}, foo.Declarations[0])

			member, ok := prog.Graph.Lookup("Foo.Foo")
			require.True(t, ok)
			assert.Equal(t, types.Member, member.Kind)
			assert.Equal(t, types.Private, member.Accessibility)
			assert.Equal(t, 17, member.Declarations[0].Offset)
			assert.Equal(t, 41, member.References[0].Offset)
			assert.Equal(t, "Foo", fooSource[member.References[0].Offset:member.References[0].Offset+3])

			base, ok := prog.Graph.Lookup("Base")
			require.True(t, ok)
			assert.Equal(t, "lib/base.cs", base.Declarations[0].File)
			assert.Equal(t, 1, base.Declarations[0].Line)
		})
	}
}

func TestDump_ProgramFilesAndExclude(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo.cs"), []byte(fooSource), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "gen.cs"), []byte("x"), 0o644))

	d := &Dump{
		CaseInsensitive: true,
		Files:           []string{"foo.cs", "gen.cs"},
		Symbols: []DumpSymbol{
			{ID: "Foo", Name: "Foo", Kind: "type", Declarations: []DumpLocation{{File: "foo.cs", Line: 1, Column: 7}}},
		},
	}

	prog, err := d.Program(root, []string{"gen.cs"})
	require.NoError(t, err)

	assert.True(t, prog.CaseInsensitive)
	assert.Equal(t, []string{"foo.cs"}, prog.Unit.Files())
	assert.Equal(t, []string{"foo.cs", "gen.cs"}, prog.Files())
}

func TestDecodeDump_Errors(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		data string
	}{
		{"unsupported format", ".xml", "<symbols/>"},
		{"bad yaml", ".yaml", "symbols: [:"},
		{"unknown json field", ".json", `{"symbolz": []}`},
		{"bad toml", ".toml", "symbols = ["},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDump(tt.ext, []byte(tt.data))
			assert.ErrorIs(t, err, ErrUnresolvable)
		})
	}
}

func TestDump_ProgramErrors(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo.cs"), []byte(fooSource), 0o644))

	tests := []struct {
		name string
		sym  DumpSymbol
	}{
		{"unknown kind", DumpSymbol{ID: "x", Name: "x", Kind: "widget"}},
		{"unknown accessibility", DumpSymbol{ID: "x", Name: "x", Kind: "type", Accessibility: "secret"}},
		{"line out of range", DumpSymbol{ID: "x", Name: "x", Kind: "type", Declarations: []DumpLocation{{File: "foo.cs", Line: 99, Column: 1}}}},
		{"no position", DumpSymbol{ID: "x", Name: "x", Kind: "type", Declarations: []DumpLocation{{File: "foo.cs"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dump{Symbols: []DumpSymbol{tt.sym}}
			_, err := d.Program(root, nil)
			assert.ErrorIs(t, err, ErrUnresolvable)
		})
	}
}

func TestDump_EnumKind(t *testing.T) {
	root := t.TempDir()
	src := "enum Color { Color, Red }\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "color.cs"), []byte(src), 0o644))

	d, err := DecodeDump(".yaml", []byte(`symbols:
  - id: Color
    name: Color
    kind: enum
    declarations:
      - {file: color.cs, offset: 5}
  - id: Color.Color
    name: Color
    kind: constant
    container: Color
    declarations:
      - {file: color.cs, offset: 13}
`))
	require.NoError(t, err)

	prog, err := d.Program(root, nil)
	require.NoError(t, err)

	color, ok := prog.Graph.Lookup("Color")
	require.True(t, ok)
	assert.Equal(t, types.Type, color.Kind)
	assert.True(t, color.IsEnum)

	lit, ok := prog.Graph.Lookup("Color.Color")
	require.True(t, ok)
	assert.True(t, lit.IsEnumMember)
}
