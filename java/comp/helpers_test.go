package comp

import (
	"context"
	"strings"
	"testing"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// src builds parsed trees for tests. Every node gets its own position so
// diagnostics never collapse onto each other.
type src struct{ pos int }

func (b *src) at() tree.Base {
	b.pos += 10
	return tree.Base{Position: b.pos}
}

func (b *src) ex() tree.ExprBase { return tree.ExprBase{Base: b.at()} }

func (b *src) unit(file, pkg string, imports []*tree.Import, defs ...tree.Node) *tree.CompilationUnit {
	u := &tree.CompilationUnit{Base: b.at(), SourceFile: file, Imports: imports, Defs: defs}
	if pkg != "" {
		u.PackageName = b.name(pkg)
	}
	return u
}

// name builds an identifier or a chain of selects for a dotted name.
func (b *src) name(qualified string) tree.Expr {
	parts := strings.Split(qualified, ".")
	var e tree.Expr = &tree.Ident{ExprBase: b.ex(), Name: parts[0]}
	for _, p := range parts[1:] {
		e = &tree.Select{ExprBase: b.ex(), Selected: e, Name: p}
	}
	return e
}

func (b *src) imp(qualified string, static bool) *tree.Import {
	return &tree.Import{Base: b.at(), Qualid: b.name(qualified), Static: static}
}

func (b *src) mods(flags symbols.Flags, annotations ...*tree.Annotation) *tree.Modifiers {
	return &tree.Modifiers{Base: b.at(), Flags: flags, Annotations: annotations}
}

func (b *src) annotation(name string, args ...tree.Expr) *tree.Annotation {
	return &tree.Annotation{ExprBase: b.ex(), AnnotationType: b.name(name), Args: args}
}

func (b *src) class(flags symbols.Flags, name string, defs ...tree.Node) *tree.ClassDecl {
	return &tree.ClassDecl{Base: b.at(), Mods: b.mods(flags), Name: name, Defs: defs}
}

func (b *src) method(flags symbols.Flags, name string, restype tree.Expr, params []*tree.VarDecl, stats ...tree.Node) *tree.MethodDecl {
	return &tree.MethodDecl{
		Base:    b.at(),
		Mods:    b.mods(flags),
		Name:    name,
		ResType: restype,
		Params:  params,
		Body:    b.block(stats...),
	}
}

func (b *src) ctor(flags symbols.Flags, params []*tree.VarDecl, stats ...tree.Node) *tree.MethodDecl {
	return b.method(flags, symbols.ConstructorName, nil, params, stats...)
}

func (b *src) param(name string, vartype tree.Expr) *tree.VarDecl {
	return &tree.VarDecl{Base: b.at(), Mods: b.mods(symbols.FlagParameter), Name: name, VarType: vartype}
}

func (b *src) field(flags symbols.Flags, name string, vartype, init tree.Expr) *tree.VarDecl {
	return &tree.VarDecl{Base: b.at(), Mods: b.mods(flags), Name: name, VarType: vartype, Init: init}
}

func (b *src) enumConstant(name string) *tree.VarDecl {
	return &tree.VarDecl{Base: b.at(), Mods: b.mods(symbols.FlagEnum), Name: name}
}

func (b *src) block(stats ...tree.Node) *tree.Block {
	return &tree.Block{Base: b.at(), Stats: stats}
}

func (b *src) prim(tag symbols.Tag) *tree.PrimitiveType {
	return &tree.PrimitiveType{ExprBase: b.ex(), TypeTag: tag}
}

func (b *src) void() tree.Expr { return b.prim(symbols.TagVoid) }

func (b *src) intLit(v int) *tree.Literal {
	return &tree.Literal{ExprBase: b.ex(), TypeTag: symbols.TagInt, Value: v}
}

func (b *src) call(meth tree.Expr, args ...tree.Expr) *tree.ExprStmt {
	return &tree.ExprStmt{Base: b.at(), Expr: &tree.Apply{ExprBase: b.ex(), Meth: meth, Args: args}}
}

func (b *src) ret() *tree.Return { return &tree.Return{Base: b.at()} }

func newTestSession(t *testing.T, mutate ...func(*config.Config)) *Session {
	t.Helper()
	cfg := config.Default()
	for _, m := range mutate {
		m(&cfg)
	}
	return NewSession(cfg)
}

func enterUnits(t *testing.T, s *Session, units ...*tree.CompilationUnit) {
	t.Helper()
	if err := s.Enter(context.Background(), units); err != nil {
		t.Fatalf("Enter error = %v", err)
	}
}

func errorKeys(s *Session) []string {
	var keys []string
	for _, d := range s.Log().Diagnostics() {
		if d.Severity == diag.SevError {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

func countKey(s *Session, key string) int {
	n := 0
	for _, d := range s.Log().Diagnostics() {
		if d.Key == key {
			n++
		}
	}
	return n
}

func mustClass(t *testing.T, s *Session, fullName string) *symbols.Symbol {
	t.Helper()
	id, ok := s.Table().LookupClass(fullName)
	if !ok {
		t.Fatalf("class %s not entered", fullName)
	}
	return s.Table().Sym(id)
}

// membersNamed returns the members of class called name, in scope order.
func membersNamed(s *Session, class symbols.SymbolID, name string) []*symbols.Symbol {
	var out []*symbols.Symbol
	for _, e := range s.Table().Members(class).LookupLocal(name) {
		out = append(out, s.Table().Sym(e.Sym))
	}
	return out
}

func methodType(t *testing.T, m *symbols.Symbol) *symbols.MethodType {
	t.Helper()
	mt := symbols.AsMethodType(m.Type)
	if mt == nil {
		t.Fatalf("%s has type %v, want a method type", m.Name, m.Type)
	}
	return mt
}
