package comp

import (
	"context"
	"path/filepath"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// Enter enters the classes of units into the symbol table and completes
// every class declared in them. Annotations queued along the way are
// processed once all classes have their members.
func (s *Session) Enter(ctx context.Context, units []*tree.CompilationUnit) error {
	defer s.use(ctx)()
	s.annotate.EnterStart()
	err := s.enter(units)
	if err != nil {
		if IsAbort(err) {
			s.annotate.clear()
		}
		s.annotate.EnterDone()
		return err
	}
	return s.annotate.EnterDone()
}

func (s *Session) enter(units []*tree.CompilationUnit) error {
	s.uncompleted = nil
	for _, unit := range units {
		if err := s.topLevelEnter(unit); err != nil {
			return err
		}
	}

	uncompleted := s.uncompleted
	s.uncompleted = nil
	for _, id := range uncompleted {
		if err := checkBreak(s.ctx); err != nil {
			return err
		}
		var at tree.Node
		if decl := s.ClassDecl(id); decl != nil {
			at = decl
		}
		if _, err := s.completeAt(at, id); err != nil {
			return err
		}
	}
	// units without classes still get their imports checked
	for _, unit := range units {
		if err := s.memberEnterUnit(unit); err != nil {
			return err
		}
	}
	s.logger.Infof("entered %d units, %d classes", len(units), len(uncompleted))
	return nil
}

// topLevelEnter sets up the package and import scopes of a unit and enters
// its classes.
func (s *Session) topLevelEnter(unit *tree.CompilationUnit) error {
	prev := s.log.UseSource(unit)
	defer s.log.UseSource(prev)

	for _, e := range unit.PriorErrors {
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = a
		}
		s.log.ErrorPos(e.Pos, e.Key, args...)
	}

	unit.Packge = s.table.RootPackage
	if unit.PackageName != nil {
		unit.Packge = s.table.EnterPackage(tree.QualifiedName(unit.PackageName))
	}
	if _, err := s.completeAt(unit.PackageName, unit.Packge); err != nil {
		return err
	}
	unit.NamedImportScope = s.table.Scopes.New(symbols.ScopeNamedImport, unit.Packge)
	unit.StarImportScope = s.table.Scopes.New(symbols.ScopeStarImport, unit.Packge)
	delete(s.importsDone, unit)
	env := s.topLevelEnv(unit)
	s.topEnvs[unit] = env
	s.units = append(s.units, unit)

	for _, def := range unit.Defs {
		if decl, ok := def.(*tree.ClassDecl); ok {
			if err := s.classEnter(decl, env); err != nil {
				return err
			}
		}
	}
	return nil
}

// classEnter creates the symbol of a class declaration nested in env and
// installs the member entry completer on it. Nested member classes are
// entered recursively.
func (s *Session) classEnter(decl *tree.ClassDecl, env *Env) error {
	if err := checkBreak(s.ctx); err != nil {
		return err
	}
	mods := tree.ModifiersOf(decl)
	var id, owner symbols.SymbolID
	named := false
	switch outer := env.Tree.(type) {
	case *tree.CompilationUnit:
		owner = outer.Packge
		pkg := s.table.Sym(owner)
		full := tree.JoinNames(pkg.FullName, decl.Name)
		if mods.Flags.Has(symbols.FlagPublic) && !nameCompatible(outer.SourceFile, decl.Name) {
			s.log.Error(decl, diag.KeyClassPublicInFile, decl.Name, decl.Name+filepath.Ext(outer.SourceFile))
		}
		if _, dup := s.compiled[full]; dup {
			s.log.Error(decl, diag.KeyDuplicateClass, full)
			id = s.detachedClass(decl.Name, owner)
		} else {
			id = s.table.EnterClass(decl.Name, owner)
			s.table.Members(owner).EnterIfAbsent(id)
			s.table.Scope(outer.NamedImportScope).Enter(id)
			named = true
		}
	case *tree.ClassDecl:
		owner = outer.Sym
		members := s.table.Members(owner)
		full := tree.JoinNames(s.table.Sym(owner).FullName, decl.Name)
		if prior, ok := s.table.LookupClass(full); ok && s.compiled[full] != prior && members.Includes(prior) {
			// a member class loaded with its artifact outer class
			id = prior
			named = true
		} else if s.checkUniqueClassName(decl, decl.Name, members) {
			id = s.table.EnterClass(decl.Name, owner)
			members.EnterIfAbsent(id)
			named = true
		} else {
			id = s.detachedClass(decl.Name, owner)
		}
	default:
		owner = s.localOwner(env)
		scope := s.table.Scope(env.Scope)
		id = s.table.EnterClass(decl.Name, owner)
		if decl.Name != "" && s.checkUniqueClassName(decl, decl.Name, scope) {
			scope.Enter(id)
		}
	}
	decl.Sym = id
	c := s.table.Sym(id)
	if named {
		s.compiled[c.FullName] = id
	}

	s.prepareSourceClass(c)
	c.Flags = s.checkFlags(decl, mods.Flags, symbols.KindClass, decl.Name, owner) |
		c.Flags&(symbols.FlagFromClass|symbols.FlagAptCleaned)
	c.Pos = decl.Pos()
	c.SourceFile = env.Unit.SourceFile
	c.State = symbols.StateUnseen
	s.table.SetCompleter(id, s.completer)

	ct := &symbols.ClassType{Sym: id, Name: c.FullName}
	if o := s.table.Sym(owner); o.Kind == symbols.KindClass && !c.Flags.Has(symbols.FlagStatic) {
		ct.Outer = o.Type
	} else if o.Kind != symbols.KindPackage && o.Kind != symbols.KindClass {
		if encl := s.table.EnclosingClass(owner); encl.IsValid() && env.StaticLevel == 0 {
			ct.Outer = s.table.Sym(encl).Type
		}
	}
	var old []symbols.Type
	if prevType, ok := c.Type.(*symbols.ClassType); ok && c.Flags.Has(symbols.FlagFromClass) {
		old = prevType.Args
	}
	c.Type = ct

	local := s.classEnv(decl, env)
	scope := s.table.Scope(local.Scope)
	if len(old) == len(decl.TypeParams) && len(old) > 0 {
		for i, tp := range decl.TypeParams {
			if tv, ok := old[i].(*symbols.TypeVar); ok {
				tp.Type = tv
				scope.Enter(tv.Sym)
				ct.Args = append(ct.Args, tv)
			}
		}
	}
	if len(ct.Args) != len(decl.TypeParams) {
		ct.Args = nil
		for _, tv := range s.enterTypeParams(decl.TypeParams, local, id) {
			ct.Args = append(ct.Args, tv)
		}
	}

	s.typeEnvs[id] = local
	s.uncompleted = append(s.uncompleted, id)
	s.logger.Debugf("entered class %s", c.FullName)

	for _, def := range decl.Defs {
		if nested, ok := def.(*tree.ClassDecl); ok {
			if err := s.classEnter(nested, local); err != nil {
				return err
			}
		}
	}
	return nil
}

// localOwner is the symbol owning a class declared inside a method body or
// an initializer.
func (s *Session) localOwner(env *Env) symbols.SymbolID {
	if env.EnclMethod != nil && env.EnclMethod.Sym.IsValid() {
		return env.EnclMethod.Sym
	}
	if env.EnclClass != nil {
		return env.EnclClass.Sym
	}
	return env.Unit.Packge
}

// detachedClass creates a class symbol that is not reachable by name, for
// duplicate declarations whose bodies are still checked.
func (s *Session) detachedClass(name string, owner symbols.SymbolID) symbols.SymbolID {
	id := s.table.NewSymbol(symbols.KindClass, name, owner, 0, nil)
	c := s.table.Sym(id)
	c.FullName = tree.JoinNames(s.table.Sym(owner).FullName, name)
	c.Type = &symbols.ClassType{Sym: id, Name: c.FullName}
	c.Members = s.table.Scopes.New(symbols.ScopeMembers, id)
	return id
}

// prepareSourceClass decides what happens to a class symbol that an
// artifact already provided. Reconciling sessions load the artifact and
// keep its members so source declarations can be matched onto them; the
// batch compiler starts over.
func (s *Session) prepareSourceClass(c *symbols.Symbol) {
	if c.Flags.Has(symbols.FlagAptCleaned) {
		return
	}
	_, fromSource := s.table.Completer(c.ID).(memberEnter)
	artifact := (c.HasCompleter() && !fromSource) || c.Flags.Has(symbols.FlagFromClass)
	if artifact && s.cfg.Mode.Reconciles() {
		if err := s.table.Complete(c.ID); err == nil {
			c.Flags |= symbols.FlagFromClass
			s.logger.Debugf("reconciling %s with its artifact", c.FullName)
			return
		}
	}
	c.Flags = 0
	c.Members = s.table.Scopes.New(symbols.ScopeMembers, c.ID)
	c.Supertype = nil
	c.Interfaces = nil
	c.AllInterfaces = nil
	c.Annotations = nil
	c.AnnotationsPending = false
}

// EnterLocal enters a class declared in a method body or the body of an
// anonymous class and completes it. For anonymous classes nc is the
// instance creation expression; it is nil otherwise.
func (s *Session) EnterLocal(ctx context.Context, decl *tree.ClassDecl, nc *tree.NewClass, env *Env) error {
	defer s.use(ctx)()
	outer := env
	if nc != nil {
		outer = env.Dup(nc)
	}
	s.uncompleted = nil
	if err := s.classEnter(decl, outer); err != nil {
		return err
	}
	entered := s.uncompleted
	s.uncompleted = nil
	for _, id := range entered {
		if _, err := s.completeAt(decl, id); err != nil {
			return err
		}
	}
	return nil
}
