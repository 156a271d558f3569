package comp

import (
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// Env is the context a declaration is entered and attributed in. Envs
// form two chains: Next links to the lexically enclosing env, Outer to the
// env just outside the enclosing class. The top-level env of a unit has no
// Outer.
type Env struct {
	Tree       tree.Node
	Unit       *tree.CompilationUnit
	Next       *Env
	Outer      *Env
	EnclClass  *tree.ClassDecl
	EnclMethod *tree.MethodDecl

	Scope       symbols.ScopeID
	StaticLevel int
	// BaseClause is set while attributing extends and implements, where the
	// class's own members are not visible.
	BaseClause bool
}

// Dup returns a copy of e for the subtree t.
func (e *Env) Dup(t tree.Node) *Env {
	d := *e
	d.Tree = t
	d.Next = e
	return &d
}

// DupScope is Dup with a new scope.
func (e *Env) DupScope(t tree.Node, scope symbols.ScopeID) *Env {
	d := e.Dup(t)
	d.Scope = scope
	return d
}

// IsTopLevel reports whether e is the env of a compilation unit.
func (e *Env) IsTopLevel() bool { return e.Outer == nil }

// TopLevel returns the env of the enclosing compilation unit.
func (e *Env) TopLevel() *Env {
	for e.Outer != nil {
		e = e.Outer
	}
	return e
}

// topLevelEnv creates the env a unit's classes and imports are entered in.
// Its scope is the named import scope so top-level classes shadow imports.
func (s *Session) topLevelEnv(unit *tree.CompilationUnit) *Env {
	return &Env{Tree: unit, Unit: unit, Scope: unit.NamedImportScope}
}

// classEnv creates the env for a class body nested in env.
func (s *Session) classEnv(decl *tree.ClassDecl, env *Env) *Env {
	scope := s.table.Scopes.New(symbols.ScopeLocal, decl.Sym)
	local := env.DupScope(decl, scope)
	local.Outer = env
	local.EnclClass = decl
	local.EnclMethod = nil
	local.BaseClause = false
	if (decl.Mods != nil && decl.Mods.Flags.Has(symbols.FlagStatic)) || isInterfaceDecl(decl) {
		local.StaticLevel++
	}
	return local
}

// methodEnv creates the env for a method's signature and body. The class
// env's scope is copied so type parameters of the class stay visible.
func (s *Session) methodEnv(decl *tree.MethodDecl, env *Env) *Env {
	scope := s.table.Scopes.DupUnshared(env.Scope)
	s.table.Scope(scope).Owner = decl.Sym
	local := env.DupScope(decl, scope)
	local.EnclMethod = decl
	if decl.Mods != nil && decl.Mods.Flags.Has(symbols.FlagStatic) {
		local.StaticLevel++
	}
	return local
}

// baseEnv creates the env extends and implements clauses are attributed
// in: the class's type parameters and local classes of the enclosing
// scope, but none of its members.
func (s *Session) baseEnv(decl *tree.ClassDecl, env *Env) *Env {
	c := s.table.Sym(decl.Sym)
	scope := s.table.Scopes.New(symbols.ScopeLocal, decl.Sym)
	base := s.table.Scope(scope)
	outer := env.Outer
	if outer != nil && !outer.IsTopLevel() {
		for _, id := range s.table.Scope(outer.Scope).Elems() {
			if sym := s.table.Sym(id); sym.Kind == symbols.KindClass && s.table.IsLocal(id) {
				base.Enter(id)
			}
		}
	}
	if ct, ok := c.Type.(*symbols.ClassType); ok {
		for _, a := range ct.Args {
			if tv, ok := a.(*symbols.TypeVar); ok {
				base.Enter(tv.Sym)
			}
		}
	}
	local := outer.DupScope(decl, scope)
	local.Outer = outer
	local.BaseClause = true
	return local
}

// enterScope returns the scope declarations in env are entered into: the
// members of the class for class bodies, the env's own scope otherwise.
func (s *Session) enterScope(env *Env) *symbols.Scope {
	if decl, ok := env.Tree.(*tree.ClassDecl); ok && decl.Sym.IsValid() {
		return s.table.Members(decl.Sym)
	}
	return s.table.Scope(env.Scope)
}

func isInterfaceDecl(decl *tree.ClassDecl) bool {
	return decl.Mods != nil && decl.Mods.Flags.Has(symbols.FlagInterface)
}
