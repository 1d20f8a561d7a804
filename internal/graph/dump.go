// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Implements: prd005-frontends R3 (symbol-graph dump);
//
//	docs/ARCHITECTURE § Frontends.
package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/petar-djukic/declash/pkg/types"
)

// Dump is the serialized form of a resolved symbol graph, written by
// resolvers that do not produce SCIP indexes.
type Dump struct {
	CaseInsensitive bool         `yaml:"caseInsensitive" json:"caseInsensitive" toml:"caseInsensitive"`
	Files           []string     `yaml:"files" json:"files" toml:"files"` // Unit files; empty means every readable file
	Symbols         []DumpSymbol `yaml:"symbols" json:"symbols" toml:"symbols"`
}

// DumpSymbol is one symbol of a Dump.
type DumpSymbol struct {
	ID            string         `yaml:"id" json:"id" toml:"id"`
	Name          string         `yaml:"name" json:"name" toml:"name"`
	Kind          string         `yaml:"kind" json:"kind" toml:"kind"` // namespace, type or member
	Accessibility string         `yaml:"accessibility" json:"accessibility" toml:"accessibility"`
	Container     string         `yaml:"container" json:"container" toml:"container"`
	Enum          bool           `yaml:"enum" json:"enum" toml:"enum"`
	EnumMember    bool           `yaml:"enumMember" json:"enumMember" toml:"enumMember"`
	Fixed         bool           `yaml:"fixed" json:"fixed" toml:"fixed"`
	Inherited     []string       `yaml:"inherited" json:"inherited" toml:"inherited"`
	Declarations  []DumpLocation `yaml:"declarations" json:"declarations" toml:"declarations"`
	References    []DumpLocation `yaml:"references" json:"references" toml:"references"`
}

// DumpLocation addresses a name either by byte offset or by 1-based line
// and byte column.
type DumpLocation struct {
	File   string `yaml:"file" json:"file" toml:"file"`
	Offset *int   `yaml:"offset" json:"offset" toml:"offset"`
	Line   int    `yaml:"line" json:"line" toml:"line"`
	Column int    `yaml:"column" json:"column" toml:"column"`
	Length int    `yaml:"length" json:"length" toml:"length"`
}

// LoadDump reads a dump file. The format follows the extension: .yaml,
// .yml, .json or .toml, optionally followed by .gz.
func LoadDump(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening dump: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	name := path
	if strings.HasSuffix(name, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%w: reading gzip dump: %v", ErrUnresolvable, err)
		}
		defer zr.Close()
		r = zr
		name = strings.TrimSuffix(name, ".gz")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading dump: %w", err)
	}
	return DecodeDump(filepath.Ext(name), data)
}

// DecodeDump decodes a dump in the format named by ext.
func DecodeDump(ext string, data []byte) (*Dump, error) {
	var d Dump
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&d)
	case ".toml":
		err = toml.Unmarshal(data, &d)
	default:
		return nil, fmt.Errorf("%w: unsupported dump format %q", ErrUnresolvable, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decoding dump: %v", ErrUnresolvable, err)
	}
	return &d, nil
}

// Program reads the sources referenced by the dump from root and builds a
// program snapshot. Files that do not exist under root are treated as
// external code: their symbols take part in naming decisions but are not
// rewritable. Unit files matching an exclude pattern stay outside the unit.
func (d *Dump) Program(root string, exclude []string) (*Program, error) {
	sources := make(map[string][]byte)
	readFile := func(file string) error {
		file = filepath.ToSlash(file)
		if _, done := sources[file]; done || file == "" {
			return nil
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file)))
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", file, err)
		}
		sources[file] = data
		return nil
	}

	for _, f := range d.Files {
		if err := readFile(f); err != nil {
			return nil, err
		}
	}
	for _, s := range d.Symbols {
		for _, loc := range append(append([]DumpLocation{}, s.Declarations...), s.References...) {
			if err := readFile(loc.File); err != nil {
				return nil, err
			}
		}
	}

	symbols := make([]types.Symbol, 0, len(d.Symbols))
	for i, ds := range d.Symbols {
		sym, err := ds.symbol(i, sources)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, sym)
	}
	markEnumMembers(symbols)

	g, err := New(symbols)
	if err != nil {
		return nil, err
	}

	var unit Unit
	if len(d.Files) > 0 {
		ex := excluder{patterns: exclude}
		var files []string
		for _, f := range d.Files {
			if !ex.isExcluded(f) {
				files = append(files, f)
			}
		}
		unit = NewUnit(files...)
	} else {
		unit = UnitOf(sources, exclude)
	}

	return &Program{
		Sources:         sources,
		Graph:           g,
		Unit:            unit,
		CaseInsensitive: d.CaseInsensitive,
	}, nil
}

// markEnumMembers flags the members of enum types as enum literals.
func markEnumMembers(symbols []types.Symbol) {
	enums := make(map[string]bool)
	for _, sym := range symbols {
		if sym.IsEnum {
			enums[sym.ID] = true
		}
	}
	for i := range symbols {
		if symbols[i].Kind == types.Member && enums[symbols[i].Container] {
			symbols[i].IsEnumMember = true
		}
	}
}

func (ds DumpSymbol) symbol(order int, sources map[string][]byte) (types.Symbol, error) {
	kind, err := parseKind(ds.Kind)
	if err != nil {
		return types.Symbol{}, fmt.Errorf("%w: symbol %s: %v", ErrUnresolvable, ds.ID, err)
	}
	access, err := types.ParseAccessibility(ds.Accessibility)
	if err != nil {
		return types.Symbol{}, fmt.Errorf("%w: symbol %s: %v", ErrUnresolvable, ds.ID, err)
	}

	sym := types.Symbol{
		ID:            ds.ID,
		Name:          ds.Name,
		Kind:          kind,
		Accessibility: access,
		Container:     ds.Container,
		IsEnum:        ds.Enum || strings.EqualFold(ds.Kind, "enum"),
		IsEnumMember:  ds.EnumMember,
		Fixed:         ds.Fixed,
		Order:         order,
		Inherited:     ds.Inherited,
	}
	for _, dl := range ds.Declarations {
		loc, err := dl.location(sources)
		if err != nil {
			return types.Symbol{}, fmt.Errorf("%w: symbol %s: %v", ErrUnresolvable, ds.ID, err)
		}
		sym.Declarations = append(sym.Declarations, loc)
	}
	for _, dl := range ds.References {
		loc, err := dl.location(sources)
		if err != nil {
			return types.Symbol{}, fmt.Errorf("%w: symbol %s: %v", ErrUnresolvable, ds.ID, err)
		}
		sym.References = append(sym.References, loc)
	}
	return sym, nil
}

// location resolves a dump location against the loaded sources. Locations
// in files that were not loaded are kept as given.
func (dl DumpLocation) location(sources map[string][]byte) (types.Location, error) {
	loc := types.Location{
		File:   filepath.ToSlash(dl.File),
		Length: dl.Length,
		Line:   dl.Line,
		Column: dl.Column,
	}
	src, ok := sources[loc.File]

	switch {
	case dl.Offset != nil:
		loc.Offset = *dl.Offset
		if ok {
			loc.Line, loc.Column = Position(src, loc.Offset)
		}
	case dl.Line > 0 && dl.Column > 0:
		if ok {
			start := LineOffset(src, dl.Line)
			if start < 0 {
				return loc, fmt.Errorf("%s: line %d out of range", loc.File, dl.Line)
			}
			loc.Offset = start + dl.Column - 1
		}
	default:
		return loc, fmt.Errorf("%s: location needs an offset or a line and column", loc.File)
	}
	return loc, nil
}

func parseKind(s string) (types.SymbolKind, error) {
	switch strings.ToLower(s) {
	case "namespace", "package":
		return types.Namespace, nil
	case "type", "class", "struct", "interface", "enum", "module":
		return types.Type, nil
	case "member", "method", "field", "property", "event", "constant":
		return types.Member, nil
	default:
		return types.Member, fmt.Errorf("unknown kind %q", s)
	}
}
