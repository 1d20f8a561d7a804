// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package scip builds a declash symbol graph from a SCIP index, which lets
// any language with a SCIP indexer feed the renaming pass.
// Implements: prd005-frontends R2 (SCIP frontend);
//
//	docs/ARCHITECTURE § Frontends.
package scip

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

// Load reads a SCIP index from path (optionally gzip compressed) and the
// documents it covers from root, and returns the program snapshot.
func Load(path, root string, exclude []string) (*graph.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading SCIP index: %w", err)
	}
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: reading gzip index: %v", graph.ErrUnresolvable, err)
		}
		data, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading gzip index: %v", graph.ErrUnresolvable, err)
		}
	}

	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: parsing SCIP index %s: %v", graph.ErrUnresolvable, path, err)
	}

	sources := make(map[string][]byte)
	for _, doc := range index.Documents {
		rel := filepath.ToSlash(doc.RelativePath)
		src, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		sources[rel] = src
	}

	return FromIndex(&index, sources, exclude)
}

// FromIndex converts a decoded index into a program over sources. Documents
// without source text are external: their symbols take part in naming
// decisions but cannot be rewritten, and references they hold are dropped.
//
// Implements: prd005-frontends R2.1-R2.7.
func FromIndex(index *scippb.Index, sources map[string][]byte, exclude []string) (*graph.Program, error) {
	b := newIndexBuilder(sources)

	for _, doc := range index.Documents {
		for _, info := range doc.Symbols {
			b.info[info.Symbol] = info
		}
		if isCaseInsensitive(doc.Language) {
			b.caseInsensitive = true
		}
	}
	for _, info := range index.ExternalSymbols {
		if _, ok := b.info[info.Symbol]; !ok {
			b.info[info.Symbol] = info
		}
	}

	for _, doc := range index.Documents {
		file := filepath.ToSlash(doc.RelativePath)
		for _, occ := range doc.Occurrences {
			if err := b.occurrence(file, doc.PositionEncoding, occ); err != nil {
				return nil, err
			}
		}
		for _, info := range doc.Symbols {
			if _, err := b.ensure(info.Symbol); err != nil {
				return nil, err
			}
		}
	}

	g, err := graph.New(b.symbols())
	if err != nil {
		return nil, err
	}
	return &graph.Program{
		Sources:         sources,
		Graph:           g,
		Unit:            graph.UnitOf(sources, exclude),
		CaseInsensitive: b.caseInsensitive,
	}, nil
}

// indexBuilder accumulates symbols keyed by their canonical descriptor
// path so that containers named only through descriptors are shared.
type indexBuilder struct {
	sources         map[string][]byte
	info            map[string]*scippb.SymbolInformation
	byKey           map[string]*types.Symbol
	order           []string
	caseInsensitive bool
}

func newIndexBuilder(sources map[string][]byte) *indexBuilder {
	return &indexBuilder{
		sources: sources,
		info:    make(map[string]*scippb.SymbolInformation),
		byKey:   make(map[string]*types.Symbol),
	}
}

func (b *indexBuilder) occurrence(file string, enc scippb.PositionEncoding, occ *scippb.Occurrence) error {
	sym, err := b.ensure(occ.Symbol)
	if err != nil || sym == nil {
		return err
	}

	isDefinition := occ.SymbolRoles&int32(scippb.SymbolRole_Definition) != 0
	if _, ok := b.sources[file]; !ok && !isDefinition {
		return nil
	}

	loc, err := b.location(file, enc, occ.Range)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", graph.ErrUnresolvable, occ.Symbol, err)
	}
	if isDefinition {
		sym.Declarations = append(sym.Declarations, loc)
	} else {
		sym.References = append(sym.References, loc)
	}
	return nil
}

// ensure returns the symbol for a SCIP symbol string, creating it and its
// enclosing containers. It returns nil for symbols that are not renamed
// as members: locals, parameters, type parameters and anything nested
// inside a function body.
func (b *indexBuilder) ensure(raw string) (*types.Symbol, error) {
	if raw == "" || scippb.IsLocalSymbol(raw) {
		return nil, nil
	}
	parsed, err := scippb.ParseSymbol(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing symbol %q: %v", graph.ErrUnresolvable, raw, err)
	}
	if len(parsed.Descriptors) == 0 {
		return nil, nil
	}

	container := ""
	var sym *types.Symbol
	for i, d := range parsed.Descriptors {
		kind, ok := descriptorKind(d.Suffix)
		if !ok {
			return nil, nil
		}
		last := i == len(parsed.Descriptors)-1
		if kind == types.Member && !last {
			return nil, nil
		}

		key := symbolKey(parsed, i+1)
		sym = b.byKey[key]
		if sym == nil {
			sym = &types.Symbol{
				ID:            key,
				Name:          d.Name,
				Kind:          kind,
				Accessibility: types.Public,
				Container:     container,
				Order:         len(b.order),
			}
			b.byKey[key] = sym
			b.order = append(b.order, key)
		}
		container = key
	}

	if info, ok := b.info[raw]; ok {
		b.applyInfo(sym, info)
	}
	return sym, nil
}

// applyInfo copies what the symbol information says about enums,
// implementation relationships and visibility.
func (b *indexBuilder) applyInfo(sym *types.Symbol, info *scippb.SymbolInformation) {
	switch info.Kind {
	case scippb.SymbolInformation_Enum:
		sym.IsEnum = true
	case scippb.SymbolInformation_EnumMember:
		sym.IsEnumMember = true
	}
	for _, rel := range info.Relationships {
		if rel.IsImplementation {
			sym.Fixed = true
		}
	}

	text := ""
	if info.SignatureDocumentation != nil {
		text = info.SignatureDocumentation.Text
	}
	if text == "" && len(info.Documentation) > 0 {
		text = info.Documentation[0]
	}
	sym.Accessibility = accessibility(text)
}

// symbols returns the collected symbols in first-seen order, marking the
// members of enum types as enum members.
func (b *indexBuilder) symbols() []types.Symbol {
	out := make([]types.Symbol, 0, len(b.order))
	for _, key := range b.order {
		sym := *b.byKey[key]
		if parent, ok := b.byKey[sym.Container]; ok && parent.IsEnum && sym.Kind == types.Member {
			sym.IsEnumMember = true
		}
		out = append(out, sym)
	}
	return out
}

// descriptorKind maps a descriptor suffix to a symbol kind. It reports
// false for suffixes that never take part in renaming.
func descriptorKind(s scippb.Descriptor_Suffix) (types.SymbolKind, bool) {
	switch s {
	case scippb.Descriptor_Namespace:
		return types.Namespace, true
	case scippb.Descriptor_Type:
		return types.Type, true
	case scippb.Descriptor_Term, scippb.Descriptor_Method, scippb.Descriptor_Meta, scippb.Descriptor_Macro:
		return types.Member, true
	default:
		return types.Member, false
	}
}

// symbolKey formats the first n descriptors of sym in SCIP syntax. Keys
// identify symbols independently of how an indexer escaped the raw string.
func symbolKey(sym *scippb.Symbol, n int) string {
	var sb strings.Builder
	sb.WriteString(sym.Scheme)
	for _, part := range []string{sym.Package.GetManager(), sym.Package.GetName(), sym.Package.GetVersion()} {
		sb.WriteByte(' ')
		if part == "" {
			part = "."
		}
		sb.WriteString(part)
	}
	sb.WriteByte(' ')
	for _, d := range sym.Descriptors[:n] {
		switch d.Suffix {
		case scippb.Descriptor_Namespace:
			sb.WriteString(d.Name + "/")
		case scippb.Descriptor_Type:
			sb.WriteString(d.Name + "#")
		case scippb.Descriptor_Term:
			sb.WriteString(d.Name + ".")
		case scippb.Descriptor_Method:
			sb.WriteString(d.Name + "(" + d.Disambiguator + ").")
		case scippb.Descriptor_Meta:
			sb.WriteString(d.Name + ":")
		case scippb.Descriptor_Macro:
			sb.WriteString(d.Name + "!")
		default:
			sb.WriteString(d.Name)
		}
	}
	return sb.String()
}

// accessibility reads the first visibility modifier in a signature.
// Signatures without one are public.
func accessibility(signature string) types.Accessibility {
	for _, word := range strings.Fields(signature) {
		switch strings.ToLower(strings.Trim(word, "[]()<>:;,")) {
		case "private":
			return types.Private
		case "internal", "friend":
			return types.Internal
		case "protected":
			return types.Protected
		case "public":
			return types.Public
		}
	}
	return types.Public
}

func isCaseInsensitive(language string) bool {
	return strings.EqualFold(language, "vb") || strings.EqualFold(language, "visualbasic")
}
