package comp

import (
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// kindName renders the kind of a symbol the way diagnostics name it.
func (s *Session) kindName(id symbols.SymbolID) string {
	sym := s.table.Sym(id)
	if sym == nil {
		return ""
	}
	switch sym.Kind {
	case symbols.KindPackage:
		return "package"
	case symbols.KindClass:
		switch {
		case sym.Flags.Has(symbols.FlagAnnotation):
			return "@interface"
		case sym.Flags.Has(symbols.FlagInterface):
			return "interface"
		case sym.Flags.Has(symbols.FlagEnum):
			return "enum"
		}
		return "class"
	case symbols.KindMethod:
		if sym.IsConstructor() {
			return "constructor"
		}
		return "method"
	case symbols.KindVar:
		return "variable"
	case symbols.KindTypeVar:
		return "type variable"
	}
	return sym.Kind.String()
}

func (s *Session) describe(id symbols.SymbolID) string {
	return s.kindName(id) + " " + s.table.Describe(id)
}

// checkFlags validates the modifiers of a declaration and returns the flags
// of its symbol, including the implicit ones.
func (s *Session) checkFlags(n tree.Node, flags symbols.Flags, kind symbols.Kind, name string, owner symbols.SymbolID) symbols.Flags {
	o := s.table.Sym(owner)
	ownerIsClass := o != nil && o.Kind == symbols.KindClass
	ownerInterface := ownerIsClass && o.Flags.Has(symbols.FlagInterface)
	var mask, implicit symbols.Flags

	switch kind {
	case symbols.KindVar:
		switch {
		case !ownerIsClass:
			mask = symbols.FlagFinal
		case ownerInterface:
			mask = symbols.InterfaceVarFlags
			implicit = symbols.InterfaceVarFlags
		default:
			mask = symbols.VarFlags
		}
	case symbols.KindMethod:
		switch {
		case name == symbols.ConstructorName && o != nil && o.Flags.Has(symbols.FlagEnum):
			mask = symbols.FlagPrivate
			implicit = symbols.FlagPrivate
		case name == symbols.ConstructorName:
			mask = symbols.ConstructorFlags
		case ownerInterface:
			mask = symbols.InterfaceMethFlags
			implicit = symbols.FlagPublic
			if !flags.Any(symbols.FlagDefault | symbols.FlagStatic | symbols.FlagPrivate) {
				implicit |= symbols.FlagAbstract
			}
			if flags.Has(symbols.FlagPrivate) {
				implicit &^= symbols.FlagPublic
			}
		default:
			mask = symbols.MethodFlags
		}
		if flags.Has(symbols.FlagVarargs) {
			implicit |= symbols.FlagVarargs
		}
	case symbols.KindClass:
		switch {
		case o == nil || o.Kind == symbols.KindPackage:
			mask = symbols.ClassFlags
		case ownerIsClass:
			mask = symbols.MemberClassFlags
			if ownerInterface {
				implicit = symbols.FlagPublic | symbols.FlagStatic
			}
			if flags.Any(symbols.FlagInterface | symbols.FlagEnum) {
				implicit |= symbols.FlagStatic
			}
		default:
			mask = symbols.LocalClassFlags
		}
		if flags.Has(symbols.FlagInterface) {
			implicit |= symbols.FlagAbstract
		}
		if flags.Has(symbols.FlagEnum) {
			mask &^= symbols.FlagAbstract | symbols.FlagFinal
			implicit |= symbols.FlagFinal
		}
	}

	if illegal := flags & symbols.ModifierFlags &^ mask; illegal != 0 {
		s.log.Error(n, diag.KeyModNotAllowedHere, illegal.String())
	} else {
		s.checkDisjoint(n, flags, kind)
	}
	keep := flags &^ symbols.ModifierFlags
	return keep | (flags & mask) | implicit
}

var disjointModifiers = []struct{ a, b symbols.Flags }{
	{symbols.FlagAbstract, symbols.FlagPrivate | symbols.FlagStatic | symbols.FlagDefault},
	{symbols.FlagStatic, symbols.FlagDefault},
	{symbols.FlagAbstract | symbols.FlagInterface, symbols.FlagFinal | symbols.FlagNative | symbols.FlagSynchronized},
	{symbols.FlagPublic, symbols.FlagPrivate | symbols.FlagProtected},
	{symbols.FlagPrivate, symbols.FlagPublic | symbols.FlagProtected},
	{symbols.FlagFinal, symbols.FlagVolatile},
	{symbols.FlagAbstract | symbols.FlagNative, symbols.FlagStrictfp},
}

// checkDisjoint reports the first pair of mutually exclusive modifiers
// among the declared ones.
func (s *Session) checkDisjoint(n tree.Node, flags symbols.Flags, kind symbols.Kind) bool {
	for i, d := range disjointModifiers {
		// member types may be both abstract and static
		if kind == symbols.KindClass && (i == 0 || i == len(disjointModifiers)-1) {
			continue
		}
		a, b := flags&d.a, flags&d.b
		if a == 0 || b == 0 {
			continue
		}
		s.log.Error(n, diag.KeyIllegalCombination, firstFlag(a), firstFlag(b))
		return false
	}
	return true
}

func firstFlag(f symbols.Flags) string {
	if names := f.Names(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// checkUnique reports a duplicate of sym in scope. Methods only clash
// when their parameter types agree after erasure.
func (s *Session) checkUnique(n tree.Node, id symbols.SymbolID, scope *symbols.Scope) bool {
	sym := s.table.Sym(id)
	if symbols.IsErroneous(sym.Type) {
		return true
	}
	if sym.Name == symbols.ErrorName {
		return false
	}
	for _, e := range scope.LookupLocal(sym.Name) {
		if e.Sym == id {
			continue
		}
		other := s.table.Sym(e.Sym)
		if other.Kind != sym.Kind {
			continue
		}
		if sym.Kind == symbols.KindMethod {
			mt, ot := symbols.AsMethodType(sym.Type), symbols.AsMethodType(other.Type)
			if mt == nil || ot == nil || !symbols.HasSameArgs(erasedMethod(mt), erasedMethod(ot)) {
				continue
			}
			if !sameParams(mt, ot) {
				s.log.Error(n, diag.KeyNameClashSameErasure, s.table.Describe(id), s.table.Describe(e.Sym))
				return false
			}
		}
		s.log.Error(n, diag.KeyAlreadyDefined, s.describe(e.Sym), s.describe(scope.Owner))
		return false
	}
	return true
}

func erasedMethod(mt *symbols.MethodType) *symbols.MethodType {
	return symbols.Erasure(mt).(*symbols.MethodType)
}

func sameParams(a, b *symbols.MethodType) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !symbols.IsSameType(a.Params[i], b.Params[i]) {
			return false
		}
	}
	return true
}

// checkUniqueClassName reports a member or local class that reuses the name
// of a class already declared in scope.
func (s *Session) checkUniqueClassName(n tree.Node, name string, scope *symbols.Scope) bool {
	for _, e := range scope.LookupLocal(name) {
		if sym := s.table.Sym(e.Sym); sym.Kind == symbols.KindClass && sym.Owner == scope.Owner {
			s.log.Error(n, diag.KeyAlreadyDefined, s.describe(e.Sym), s.describe(scope.Owner))
			return false
		}
	}
	return true
}

// checkUniqueImport reports a single-type import that clashes with a class
// of this unit or an earlier single-type import of another class.
func (s *Session) checkUniqueImport(n tree.Node, id symbols.SymbolID, scope *symbols.Scope, static bool) bool {
	sym := s.table.Sym(id)
	for _, e := range scope.LookupLocal(sym.Name) {
		other := s.table.Sym(e.Sym)
		isClassDecl := !e.Origin.IsValid()
		if (isClassDecl || e.Sym != id) && other.Kind == sym.Kind && sym.Name != symbols.ErrorName {
			if !symbols.IsErroneous(other.Type) {
				what := s.table.Describe(e.Sym)
				switch {
				case !isClassDecl && static:
					s.log.Error(n, diag.KeyAlreadyDefinedStaticImport, what)
				case !isClassDecl:
					s.log.Error(n, diag.KeyAlreadyDefinedSingleImport, what)
				case e.Sym != id:
					s.log.Error(n, diag.KeyAlreadyDefinedThisUnit, what)
				}
			}
			return false
		}
	}
	return true
}

func (s *Session) checkUniqueStaticImport(n tree.Node, id symbols.SymbolID, scope *symbols.Scope) bool {
	return s.checkUniqueImport(n, id, scope, true)
}

// checkCanonical reports a member type imported through a subclass rather
// than the class that declares it.
func (s *Session) checkCanonical(e tree.Expr) {
	sel, ok := e.(*tree.Select)
	if !ok {
		return
	}
	s.checkCanonical(sel.Selected)
	sym := s.table.Sym(sel.Sym)
	if sym == nil || sym.Kind != symbols.KindClass {
		return
	}
	qual := tree.SymbolOf(sel.Selected)
	q := s.table.Sym(qual)
	if q == nil || q.Kind != symbols.KindClass {
		return
	}
	if sym.Owner != qual {
		s.log.Error(sel, diag.KeyImportRequiresCanonical, sym.FullName)
	}
}

// checkNotRepeated reports an interface listed twice, comparing erasures.
func (s *Session) checkNotRepeated(n tree.Node, t symbols.Type, seen map[symbols.SymbolID]bool) {
	id, ok := symbols.ClassSymbolOf(symbols.Erasure(t))
	if !ok {
		return
	}
	if seen[id] {
		s.log.Error(n, diag.KeyRepeatedInterface)
		return
	}
	seen[id] = true
}

// checkClassType accepts class types and reports anything else.
func (s *Session) checkClassType(n tree.Node, t symbols.Type) symbols.Type {
	switch t.(type) {
	case *symbols.ClassType, *symbols.ErrorType:
		return t
	}
	s.log.Error(n, diag.KeyTypeFoundReq, t.String(), "class")
	return &symbols.ErrorType{Name: t.String(), Original: t}
}
