package comp

import (
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

const javaLang = "java.lang"

// memberEnterUnit fills the import scopes of a unit: java.lang first, then
// every import declaration in order. It runs once per unit; later calls
// are no-ops.
func (s *Session) memberEnterUnit(unit *tree.CompilationUnit) error {
	star := s.table.Scope(unit.StarImportScope)
	if s.importsDone[unit] || star.HasElems() {
		return nil
	}
	s.importsDone[unit] = true
	env := s.topEnvs[unit]
	if env == nil {
		env = s.topLevelEnv(unit)
		s.topEnvs[unit] = env
	}
	prev := s.log.UseSource(unit)
	defer s.log.UseSource(prev)

	if err := s.checkPackageClash(unit); err != nil {
		return err
	}
	if len(unit.PackageAnnotations) > 0 {
		s.AnnotateLater(unit.PackageAnnotations, env, unit.Packge)
	}

	lang := s.table.EnterPackage(javaLang)
	if err := s.importAll(unit, unit, lang, env); err != nil {
		return err
	}

	for _, imp := range unit.Imports {
		if err := s.enterImport(imp, env); err != nil {
			return err
		}
	}
	s.logger.Debugf("imports of %s entered", unit.SourceFile)
	return nil
}

// checkPackageClash reports a package whose name, or the name of one of
// its enclosing packages, is also a class.
func (s *Session) checkPackageClash(unit *tree.CompilationUnit) error {
	for p := s.table.Sym(unit.Packge); p != nil && p.ID != s.table.RootPackage; p = s.table.Sym(p.Owner) {
		if _, err := s.completeAt(unit.PackageName, p.Owner); err != nil {
			return err
		}
		if _, ok := s.table.LookupClass(p.FullName); ok {
			s.log.Error(unit.PackageName, diag.KeyPkgClashesWithClass, p.FullName)
		}
	}
	return nil
}

func (s *Session) enterImport(imp *tree.Import, env *Env) error {
	sel, ok := imp.Qualid.(*tree.Select)
	if !ok {
		return nil
	}
	local := env.Dup(imp)
	name := sel.Name
	p, err := s.attribQualifier(sel.Selected, local)
	if err != nil {
		return err
	}
	if !p.IsValid() {
		return nil
	}
	unit := env.Unit

	if name == "*" {
		s.checkCanonical(sel.Selected)
		if imp.Static {
			return s.importStaticAll(imp, p, env)
		}
		return s.importAll(imp, unit, p, env)
	}
	if imp.Static {
		if err := s.importNamedStatic(imp, p, name, env); err != nil {
			return err
		}
		s.checkCanonical(sel.Selected)
		return nil
	}

	t, err := s.attribImportType(sel, local)
	if err != nil {
		return err
	}
	s.checkCanonical(sel)
	if id, ok := symbols.ClassSymbolOf(t); ok {
		s.importNamed(imp, id, env)
	} else if et, ok := t.(*symbols.ErrorType); ok && et.Sym.IsValid() {
		s.importNamed(imp, et.Sym, env)
	}
	return nil
}

// attribImportType resolves an imported class without completing source
// classes.
func (s *Session) attribImportType(e tree.Expr, env *Env) (symbols.Type, error) {
	prev := s.completionEnabled
	s.completionEnabled = false
	defer func() { s.completionEnabled = prev }()
	return s.attribType(e, env)
}

// importAll enters the classes of a package or the member classes of a
// class into the star import scope.
func (s *Session) importAll(at tree.Node, unit *tree.CompilationUnit, from symbols.SymbolID, env *Env) error {
	sym := s.table.Sym(from)
	if sym.Kind == symbols.KindPackage {
		if _, err := s.completeAt(at, from); err != nil {
			return err
		}
		if !s.table.Members(from).HasElems() && !s.table.PackageExists(sym.FullName) {
			if sym.FullName == javaLang {
				if s.cfg.Mode.IgnoreNoLang() {
					s.completionError(at, &CompletionError{Sym: from, Name: javaLang})
					return nil
				}
				return newFatalError(s.log.Messages(), diag.KeyFatalNoJavaLang)
			}
			s.log.ErrorWithFlags(diag.FlagRecoverable, importExpr(at), diag.KeyDoesntExist, sym.FullName)
		}
	} else if _, err := s.completeAt(at, from); err != nil {
		return err
	}
	s.table.Scope(unit.StarImportScope).ImportAll(s.table.Members(from))
	return nil
}

func importExpr(n tree.Node) tree.Node {
	if imp, ok := n.(*tree.Import); ok {
		if sel, ok := imp.Qualid.(*tree.Select); ok {
			return sel.Selected
		}
	}
	return n
}

// importNamed enters a single-type import into the named import scope.
func (s *Session) importNamed(imp *tree.Import, id symbols.SymbolID, env *Env) {
	sym := s.table.Sym(id)
	if sym.Kind != symbols.KindClass && sym.Kind != symbols.KindError {
		return
	}
	named := s.table.Scope(env.Unit.NamedImportScope)
	if s.checkUniqueImport(imp, id, named, false) {
		named.EnterFrom(id, s.table.Sym(sym.Owner).Members)
	}
}

// importStaticAll enters the static members of a class and its supertypes
// into the star import scope. Member types are imported at once; fields
// and methods wait until the unit's classes have their shapes, since they
// may be inherited from a class of this compilation.
func (s *Session) importStaticAll(imp *tree.Import, class symbols.SymbolID, env *Env) error {
	star := s.table.Scope(env.Unit.StarImportScope)
	pkg := env.Unit.Packge
	origin := class

	walk := func(types bool) error {
		processed := make(map[symbols.SymbolID]bool)
		var visit func(symbols.SymbolID) error
		visit = func(c symbols.SymbolID) error {
			if !c.IsValid() || processed[c] {
				return nil
			}
			processed[c] = true
			if ok, err := s.completeAt(imp, c); !ok {
				return err
			}
			csym := s.table.Sym(c)
			if id, ok := symbols.ClassSymbolOf(csym.Supertype); ok {
				if err := visit(id); err != nil {
					return err
				}
			}
			for _, i := range csym.Interfaces {
				if id, ok := symbols.ClassSymbolOf(i); ok {
					if err := visit(id); err != nil {
						return err
					}
				}
			}
			members := s.table.Members(c)
			for _, id := range members.Elems() {
				m := s.table.Sym(id)
				if m.Kind.IsType() != types || m.Kind == symbols.KindTypeVar {
					continue
				}
				if m.IsStatic() && s.staticImportAccessible(id, pkg) && s.isMemberOf(id, origin) && !star.Includes(id) {
					star.EnterFrom(id, s.table.Sym(origin).Members)
				}
			}
			return nil
		}
		return visit(class)
	}

	if err := walk(true); err != nil {
		return err
	}
	unit := env.Unit
	s.annotate.Earlier("import static "+s.table.Sym(class).FullName+".*", func() error {
		prev := s.log.UseSource(unit)
		defer s.log.UseSource(prev)
		return walk(false)
	})
	return nil
}

// staticImportAccessible reports whether a member may be statically
// imported into a unit of package pkg.
func (s *Session) staticImportAccessible(id symbols.SymbolID, pkg symbols.SymbolID) bool {
	m := s.table.Sym(id)
	switch {
	case m.Flags.Has(symbols.FlagPublic):
		return true
	case m.Flags.Has(symbols.FlagPrivate):
		return false
	}
	return s.table.PackageOf(id) == pkg
}

// isMemberOf reports whether a member is inherited by class: declared
// there, or not private.
func (s *Session) isMemberOf(id, class symbols.SymbolID) bool {
	m := s.table.Sym(id)
	return m.Owner == class || !m.Flags.Has(symbols.FlagPrivate)
}

// importNamedStatic enters the static members called name of class into the
// named import scope. A member type is entered at once, fields and methods
// once the unit's classes have their shapes.
func (s *Session) importNamedStatic(imp *tree.Import, class symbols.SymbolID, name string, env *Env) error {
	csym := s.table.Sym(class)
	if csym.Kind != symbols.KindClass {
		s.log.ErrorWithFlags(diag.FlagRecoverable, importExpr(imp), diag.KeyStaticImportOnlyClasses)
		return nil
	}
	if ok, err := s.completeAt(imp, class); !ok {
		return err
	}
	named := s.table.Scope(env.Unit.NamedImportScope)
	origin := s.table.Sym(class).Members

	id, err := s.findMemberType(imp, class, name)
	if err != nil {
		return err
	}
	foundType := false
	if id.IsValid() && s.table.Sym(id).IsStatic() {
		foundType = true
		if s.checkUniqueStaticImport(imp, id, named) {
			named.EnterFrom(id, origin)
		}
	}

	unit := env.Unit
	pkg := unit.Packge
	s.annotate.Earlier("import static "+csym.FullName+"."+name, func() error {
		prev := s.log.UseSource(unit)
		defer s.log.UseSource(prev)
		found := foundType
		processed := make(map[symbols.SymbolID]bool)
		var visit func(symbols.SymbolID) error
		visit = func(c symbols.SymbolID) error {
			if !c.IsValid() || processed[c] {
				return nil
			}
			processed[c] = true
			if ok, err := s.completeAt(imp, c); !ok {
				return err
			}
			for _, e := range s.table.Members(c).LookupLocal(name) {
				m := s.table.Sym(e.Sym)
				if m.Kind.IsType() || !m.IsStatic() || !s.staticImportAccessible(e.Sym, pkg) || !s.isMemberOf(e.Sym, class) {
					continue
				}
				found = true
				if named.Includes(e.Sym) {
					continue
				}
				switch m.Kind {
				case symbols.KindMethod:
					named.EnterFrom(e.Sym, origin)
				case symbols.KindVar:
					if s.checkUniqueStaticImport(imp, e.Sym, named) {
						named.EnterFrom(e.Sym, origin)
					}
				}
			}
			sym := s.table.Sym(c)
			if id, ok := symbols.ClassSymbolOf(sym.Supertype); ok {
				if err := visit(id); err != nil {
					return err
				}
			}
			for _, i := range sym.Interfaces {
				if id, ok := symbols.ClassSymbolOf(i); ok {
					if err := visit(id); err != nil {
						return err
					}
				}
			}
			return nil
		}
		if err := visit(class); err != nil {
			return err
		}
		if !found {
			s.log.Error(imp, diag.KeyCantResolveLocation, "static", name, s.describe(class))
		}
		return nil
	})
	return nil
}
