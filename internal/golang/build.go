// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package golang

import (
	"go/ast"
	"go/token"
	gotypes "go/types"
	"sort"

	"golang.org/x/tools/go/ast/inspector"
	"golang.org/x/tools/go/types/typeutil"

	"github.com/petar-djukic/declash/internal/graph"
	"github.com/petar-djukic/declash/pkg/types"
)

// builder converts a type-checked package into declash symbols.
type builder struct {
	fset      *token.FileSet
	pkg       *gotypes.Package
	info      *gotypes.Info
	files     []parsedFile
	fileIndex map[string]int

	syms  []types.Symbol
	index map[string]int            // symbol ID -> position in syms
	ids   map[gotypes.Object]string // type-checker object -> symbol ID
}

func newBuilder(fset *token.FileSet, pkg *gotypes.Package, info *gotypes.Info, files []parsedFile) *builder {
	b := &builder{
		fset:      fset,
		pkg:       pkg,
		info:      info,
		files:     files,
		fileIndex: make(map[string]int, len(files)),
		index:     make(map[string]int),
		ids:       make(map[gotypes.Object]string),
	}
	for i, f := range files {
		b.fileIndex[f.name] = i
	}
	return b
}

// build emits the package as a namespace, its named types as containers
// and their methods, fields and enum constants as members, then attaches
// every reference recorded by the type checker.
func (b *builder) build() (*graph.Graph, error) {
	nsID := "pkg:" + b.pkg.Name()
	ns := types.Symbol{
		ID:            nsID,
		Name:          b.pkg.Name(),
		Kind:          types.Namespace,
		Accessibility: types.Public,
	}
	for _, f := range b.files {
		ns.Declarations = append(ns.Declarations, b.location(f.file.Name.Pos()))
	}
	ns.Inherited = b.importNames()

	enums := b.enumConsts()
	embedded := b.embeddedTypes()
	inEnum := make(map[*gotypes.Const]bool)
	for _, consts := range enums {
		for _, c := range consts {
			inEnum[c] = true
			ns.Inherited = append(ns.Inherited, c.Name())
		}
	}
	b.add(ns, nil)

	scope := b.pkg.Scope()
	objs := make([]gotypes.Object, 0, scope.Len())
	for _, name := range scope.Names() {
		objs = append(objs, scope.Lookup(name))
	}
	sort.Slice(objs, func(i, j int) bool { return b.order(objs[i].Pos()) < b.order(objs[j].Pos()) })

	for _, obj := range objs {
		if obj.Name() == "_" {
			continue
		}
		switch o := obj.(type) {
		case *gotypes.TypeName:
			b.add(types.Symbol{
				ID:        "type:" + o.Name(),
				Kind:      types.Type,
				Container: nsID,
				IsEnum:    len(enums[o]) > 0,
				Fixed:     embedded[o],
			}, o)
		case *gotypes.Const:
			if !inEnum[o] {
				b.add(types.Symbol{ID: "const:" + o.Name(), Kind: types.Member, Container: nsID}, o)
			}
		case *gotypes.Var:
			b.add(types.Symbol{ID: "var:" + o.Name(), Kind: types.Member, Container: nsID}, o)
		case *gotypes.Func:
			b.add(types.Symbol{ID: "func:" + o.Name(), Kind: types.Member, Container: nsID}, o)
		}
	}

	for _, obj := range objs {
		tn, ok := obj.(*gotypes.TypeName)
		if !ok || tn.Name() == "_" {
			continue
		}
		b.addTypeMembers(tn, enums[tn])
	}
	b.addTypeSpecMembers()
	b.markImplementations()
	b.attachReferences()

	return graph.New(b.syms)
}

// add records sym for obj, filling name, accessibility, order and
// declaration from the object. obj is nil for the package namespace.
func (b *builder) add(sym types.Symbol, obj gotypes.Object) {
	if obj != nil {
		sym.Name = obj.Name()
		sym.Accessibility = accessibility(obj)
		sym.Order = b.order(obj.Pos())
		if obj.Pos().IsValid() {
			sym.Declarations = []types.Location{b.location(obj.Pos())}
		}
		b.ids[obj] = sym.ID
	}
	b.index[sym.ID] = len(b.syms)
	b.syms = append(b.syms, sym)
}

// addTypeMembers adds the declared methods of a named type, the constants
// of an enum type, and the promoted names of embedded fields.
func (b *builder) addTypeMembers(tn *gotypes.TypeName, consts []*gotypes.Const) {
	typeID := b.ids[tn]
	for _, c := range consts {
		b.add(types.Symbol{
			ID:           "const:" + c.Name(),
			Kind:         types.Member,
			Container:    typeID,
			IsEnumMember: true,
		}, c)
	}

	named, ok := tn.Type().(*gotypes.Named)
	if !ok || tn.IsAlias() {
		return
	}
	for i := 0; i < named.NumMethods(); i++ {
		m := named.Method(i)
		if m.Name() == "_" {
			continue
		}
		b.add(types.Symbol{
			ID:        "method:" + tn.Name() + "." + m.Name(),
			Kind:      types.Member,
			Container: typeID,
		}, m)
	}
	b.syms[b.index[typeID]].Inherited = promotedNames(named)
}

// addTypeSpecMembers adds struct fields and interface methods of the
// package-level type declarations. Fields are taken from the syntax so
// that a type defined as another struct type does not claim its fields.
func (b *builder) addTypeSpecMembers() {
	for _, f := range b.files {
		for _, decl := range f.file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				tn, ok := b.info.Defs[ts.Name].(*gotypes.TypeName)
				if !ok || ts.Name.Name == "_" {
					continue
				}
				switch t := ts.Type.(type) {
				case *ast.StructType:
					b.addFields(tn, t)
				case *ast.InterfaceType:
					b.addInterfaceMethods(tn, t)
				}
			}
		}
	}
}

func (b *builder) addFields(tn *gotypes.TypeName, st *ast.StructType) {
	typeID := b.ids[tn]
	for _, field := range st.Fields.List {
		idents := field.Names
		embeddedField := len(idents) == 0
		if embeddedField {
			if id := embeddedIdent(field.Type); id != nil {
				idents = []*ast.Ident{id}
			}
		}
		for _, id := range idents {
			v, ok := b.info.Defs[id].(*gotypes.Var)
			if !ok || v.Name() == "_" {
				continue
			}
			b.add(types.Symbol{
				ID:        "field:" + tn.Name() + "." + v.Name(),
				Kind:      types.Member,
				Container: typeID,
				Fixed:     embeddedField,
			}, v)
		}
	}
}

func (b *builder) addInterfaceMethods(tn *gotypes.TypeName, it *ast.InterfaceType) {
	typeID := b.ids[tn]
	for _, method := range it.Methods.List {
		for _, id := range method.Names {
			fn, ok := b.info.Defs[id].(*gotypes.Func)
			if !ok || fn.Name() == "_" {
				continue
			}
			b.add(types.Symbol{
				ID:        "method:" + tn.Name() + "." + fn.Name(),
				Kind:      types.Member,
				Container: typeID,
				Fixed:     true,
			}, fn)
		}
	}
}

// markImplementations fixes the name of every method that satisfies a
// method of an interface known to the package: its own interfaces, the
// interfaces it refers to from other packages, and error.
func (b *builder) markImplementations() {
	ifaces := b.knownInterfaces()
	for _, sym := range b.syms {
		if sym.Kind != types.Type {
			continue
		}
		tn, ok := b.pkg.Scope().Lookup(sym.Name).(*gotypes.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*gotypes.Named)
		if !ok || named.TypeParams().Len() > 0 || gotypes.IsInterface(named) {
			continue
		}
		for _, it := range ifaces {
			if !gotypes.Implements(named, it) && !gotypes.Implements(gotypes.NewPointer(named), it) {
				continue
			}
			for i := 0; i < it.NumMethods(); i++ {
				id := "method:" + tn.Name() + "." + it.Method(i).Name()
				if idx, ok := b.index[id]; ok {
					b.syms[idx].Fixed = true
				}
			}
		}
	}
}

func (b *builder) knownInterfaces() []*gotypes.Interface {
	seen := make(map[*gotypes.TypeName]bool)
	var result []*gotypes.Interface
	consider := func(tn *gotypes.TypeName) {
		if tn == nil || seen[tn] {
			return
		}
		seen[tn] = true
		named, ok := tn.Type().(*gotypes.Named)
		if !ok || named.TypeParams().Len() > 0 {
			return
		}
		it, ok := named.Underlying().(*gotypes.Interface)
		if !ok || it.NumMethods() == 0 {
			return
		}
		result = append(result, it)
	}

	consider(gotypes.Universe.Lookup("error").(*gotypes.TypeName))
	scope := b.pkg.Scope()
	for _, name := range scope.Names() {
		if tn, ok := scope.Lookup(name).(*gotypes.TypeName); ok {
			consider(tn)
		}
	}

	var used []*gotypes.TypeName
	for _, obj := range b.info.Uses {
		if tn, ok := obj.(*gotypes.TypeName); ok && tn.Pkg() != nil && tn.Pkg() != b.pkg {
			used = append(used, tn)
		}
	}
	sort.Slice(used, func(i, j int) bool {
		if used[i].Pkg().Path() != used[j].Pkg().Path() {
			return used[i].Pkg().Path() < used[j].Pkg().Path()
		}
		return used[i].Name() < used[j].Name()
	})
	for _, tn := range used {
		consider(tn)
	}
	return result
}

// attachReferences records every use of a known object as a reference.
func (b *builder) attachReferences() {
	refs := make(map[string][]types.Location)
	for ident, obj := range b.info.Uses {
		id, ok := b.ids[origin(obj)]
		if !ok {
			continue
		}
		refs[id] = append(refs[id], b.location(ident.Pos()))
	}
	for id, locs := range refs {
		sort.Slice(locs, func(i, j int) bool {
			if locs[i].File != locs[j].File {
				return locs[i].File < locs[j].File
			}
			return locs[i].Offset < locs[j].Offset
		})
		b.syms[b.index[id]].References = locs
	}
}

// enumConsts groups package-level constants by their named type when that
// type has a basic underlying type.
func (b *builder) enumConsts() map[*gotypes.TypeName][]*gotypes.Const {
	enums := make(map[*gotypes.TypeName][]*gotypes.Const)
	scope := b.pkg.Scope()
	for _, name := range scope.Names() {
		c, ok := scope.Lookup(name).(*gotypes.Const)
		if !ok || name == "_" {
			continue
		}
		named, ok := c.Type().(*gotypes.Named)
		if !ok {
			continue
		}
		tn := named.Obj()
		if tn.Pkg() != b.pkg || tn.Parent() != scope {
			continue
		}
		if _, basic := named.Underlying().(*gotypes.Basic); !basic {
			continue
		}
		enums[tn] = append(enums[tn], c)
	}
	for _, consts := range enums {
		sort.Slice(consts, func(i, j int) bool { return b.order(consts[i].Pos()) < b.order(consts[j].Pos()) })
	}
	return enums
}

// embeddedTypes returns the package's types that are embedded in a
// struct anywhere in the package. Their names double as field names.
func (b *builder) embeddedTypes() map[*gotypes.TypeName]bool {
	astFiles := make([]*ast.File, len(b.files))
	for i, f := range b.files {
		astFiles[i] = f.file
	}

	embedded := make(map[*gotypes.TypeName]bool)
	insp := inspector.New(astFiles)
	insp.Preorder([]ast.Node{(*ast.StructType)(nil)}, func(n ast.Node) {
		for _, field := range n.(*ast.StructType).Fields.List {
			if len(field.Names) != 0 {
				continue
			}
			t := b.info.TypeOf(field.Type)
			if ptr, ok := t.(*gotypes.Pointer); ok {
				t = ptr.Elem()
			}
			if named, ok := t.(*gotypes.Named); ok && named.Obj().Pkg() == b.pkg {
				embedded[named.Origin().Obj()] = true
			}
		}
	})
	return embedded
}

// importNames returns the names under which files import packages.
func (b *builder) importNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, f := range b.files {
		for _, spec := range f.file.Imports {
			var obj gotypes.Object
			if spec.Name != nil {
				obj = b.info.Defs[spec.Name]
			} else {
				obj = b.info.Implicits[spec]
			}
			if obj == nil || seen[obj.Name()] || obj.Name() == "_" || obj.Name() == "." {
				continue
			}
			seen[obj.Name()] = true
			names = append(names, obj.Name())
		}
	}
	sort.Strings(names)
	return names
}

// promotedNames returns the names a struct type gains from embedded
// fields: promoted methods and promoted fields.
func promotedNames(named *gotypes.Named) []string {
	seen := make(map[string]bool)
	var names []string
	addName := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	for _, sel := range typeutil.IntuitiveMethodSet(named, nil) {
		if len(sel.Index()) > 1 {
			addName(sel.Obj().Name())
		}
	}

	st, ok := named.Underlying().(*gotypes.Struct)
	if !ok {
		sort.Strings(names)
		return names
	}
	visited := map[gotypes.Type]bool{named: true}
	var walk func(st *gotypes.Struct)
	walk = func(st *gotypes.Struct) {
		for i := 0; i < st.NumFields(); i++ {
			f := st.Field(i)
			if !f.Embedded() {
				continue
			}
			t := f.Type()
			if ptr, ok := t.(*gotypes.Pointer); ok {
				t = ptr.Elem()
			}
			if visited[t] {
				continue
			}
			visited[t] = true
			inner, ok := t.Underlying().(*gotypes.Struct)
			if !ok {
				continue
			}
			for j := 0; j < inner.NumFields(); j++ {
				addName(inner.Field(j).Name())
			}
			walk(inner)
		}
	}
	walk(st)
	sort.Strings(names)
	return names
}

// location converts a position into a declash location.
func (b *builder) location(pos token.Pos) types.Location {
	p := b.fset.Position(pos)
	return types.Location{File: p.Filename, Offset: p.Offset, Line: p.Line, Column: p.Column}
}

// order ranks positions by file name, then offset.
func (b *builder) order(pos token.Pos) int {
	p := b.fset.Position(pos)
	return b.fileIndex[p.Filename]<<32 | p.Offset
}

// embeddedIdent returns the identifier naming an embedded field.
func embeddedIdent(expr ast.Expr) *ast.Ident {
	switch e := expr.(type) {
	case *ast.Ident:
		return e
	case *ast.StarExpr:
		return embeddedIdent(e.X)
	case *ast.SelectorExpr:
		return e.Sel
	case *ast.IndexExpr:
		return embeddedIdent(e.X)
	case *ast.IndexListExpr:
		return embeddedIdent(e.X)
	default:
		return nil
	}
}

func origin(obj gotypes.Object) gotypes.Object {
	switch o := obj.(type) {
	case *gotypes.Func:
		return o.Origin()
	case *gotypes.Var:
		return o.Origin()
	default:
		return obj
	}
}

func accessibility(obj gotypes.Object) types.Accessibility {
	if obj.Exported() {
		return types.Public
	}
	return types.Internal
}
