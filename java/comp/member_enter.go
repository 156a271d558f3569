package comp

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// memberEnter is the completer installed on every source class. The first
// completion computes the shape; members are entered once the outermost
// completion drains the half-completed queue.
type memberEnter struct{ s *Session }

func (m memberEnter) Complete(_ *symbols.Table, id symbols.SymbolID) error {
	return m.s.completeClass(id)
}

var errNoSourceEnv = errors.New("class has no source environment")

func (s *Session) completeClass(id symbols.SymbolID) error {
	c := s.table.Sym(id)
	if !s.completionEnabled {
		s.table.SetCompleter(id, s.completer)
		return nil
	}
	if err := checkBreak(s.ctx); err != nil {
		s.table.SetCompleter(id, s.completer)
		s.abandon()
		return err
	}
	env := s.typeEnvs[id]
	if env == nil {
		return &CompletionError{Sym: id, Name: c.FullName, Err: errNoSourceEnv}
	}
	decl := env.Tree.(*tree.ClassDecl)

	wasFirst := s.isFirst
	s.isFirst = false
	s.logger.Debugf("shaping %s", c.FullName)

	prev := s.log.UseSource(env.Unit)
	err := s.shape(decl, env)
	s.log.UseSource(prev)
	if err != nil {
		if _, abort := s.handleCompletion(decl, err); abort != nil {
			s.abandon()
			return abort
		}
	}

	if !wasFirst {
		return nil
	}
	for len(s.halfcompleted) > 0 {
		next := s.halfcompleted[0]
		s.halfcompleted = s.halfcompleted[1:]
		if err := s.finish(next); err != nil {
			s.abandon()
			return err
		}
	}
	s.isFirst = true
	return s.annotate.Flush()
}

// abandon drops the pending member queue so a retry starts clean.
func (s *Session) abandon() {
	s.halfcompleted = nil
	s.isFirst = true
}

// shape computes the supertype, interfaces and type parameters of a
// source class and queues it for member entry.
func (s *Session) shape(decl *tree.ClassDecl, env *Env) error {
	id := decl.Sym
	c := s.table.Sym(id)
	s.halfcompleted = append(s.halfcompleted, env)
	c.State = symbols.StateShapePending
	c.Flags |= symbols.FlagUnattributed

	owner := s.table.Sym(c.Owner)
	if owner.Kind == symbols.KindPackage {
		if err := s.memberEnterUnit(env.Unit); err != nil {
			return err
		}
		if c.Flags.Has(symbols.FlagAptCleaned) {
			s.todo.Remove(id)
		}
		s.todo.Append(env)
	}
	if owner.Kind == symbols.KindClass {
		if _, err := s.completeAt(decl, c.Owner); err != nil {
			return err
		}
	}

	base := s.baseEnv(decl, env)
	mods := tree.ModifiersOf(decl)

	var supertype symbols.Type
	var err error
	switch {
	case decl.Extends != nil:
		supertype, err = s.attribBase(decl.Extends, base, true, false, true)
	case c.Flags.Has(symbols.FlagEnum) && !s.cfg.Bootstrap:
		supertype, err = s.attribBase(s.enumBase(decl), base, true, false, false)
	case c.FullName == symbols.ObjectName:
		supertype = symbols.NoType
	default:
		supertype = s.table.PlatformType(symbols.ObjectName)
	}
	if err != nil {
		return err
	}
	c.Supertype = s.modelMissingTypes(supertype, decl.Extends, false)

	ifaceTrees := decl.Implements
	if c.Flags.Has(symbols.FlagEnum) && s.cfg.Bootstrap {
		mk := s.make.At(decl.Pos())
		comparable := s.table.PlatformType(symbols.ComparableName)
		if ct, ok := comparable.(*symbols.ClassType); ok {
			comparable = &symbols.ClassType{Sym: ct.Sym, Name: ct.Name, Args: []symbols.Type{c.Type}}
		}
		ifaceTrees = append([]tree.Expr{
			mk.Type(s.table.PlatformType(symbols.SerializableName)),
			mk.Type(comparable),
		}, ifaceTrees...)
	}
	var interfaces, all []symbols.Type
	seen := make(map[symbols.SymbolID]bool)
	for _, it := range ifaceTrees {
		i, err := s.attribBase(it, base, false, true, true)
		if err != nil {
			return err
		}
		if _, ok := i.(*symbols.ClassType); ok {
			interfaces = append(interfaces, i)
			all = append(all, i)
			s.checkNotRepeated(it, i, seen)
		} else {
			all = append(all, s.modelMissingTypes(i, it, true))
		}
	}
	if c.Flags.Has(symbols.FlagAnnotation) {
		c.Interfaces = []symbols.Type{s.table.PlatformType(symbols.AnnotationName)}
		c.AllInterfaces = c.Interfaces
	} else {
		c.Interfaces = interfaces
		c.AllInterfaces = all
	}

	if c.FullName == symbols.ObjectName {
		if decl.Extends != nil || len(decl.Implements) > 0 {
			s.log.Error(decl, diag.KeyCyclicInheritance, c.FullName)
		}
		c.Supertype = symbols.NoType
		c.Interfaces = nil
		c.AllInterfaces = nil
	}

	if err := s.attribAnnotationTypes(mods.Annotations, base); err != nil {
		return err
	}
	if s.hasDeprecated(mods.Annotations) {
		c.Flags |= symbols.FlagDeprecated
	}
	s.AnnotateLater(mods.Annotations, base, id)

	s.checkNonCyclic(decl, id)

	if err := s.attribTypeVariables(decl.TypeParams, base); err != nil {
		return err
	}

	if !c.Flags.Has(symbols.FlagInterface) && !hasConstructors(decl.Defs) {
		ctor, err := s.defaultConstructor(decl, env)
		if err != nil {
			return err
		}
		if ctor != nil {
			decl.Defs = append([]tree.Node{ctor}, decl.Defs...)
		}
	}

	scope := s.table.Scope(env.Scope)
	thisSym := s.table.NewSymbol(symbols.KindVar, "this", id, symbols.FlagFinal|symbols.FlagHasInit, c.Type)
	scope.Enter(thisSym)
	if _, ok := c.Supertype.(*symbols.ClassType); ok && !c.Flags.Has(symbols.FlagInterface) {
		superSym := s.table.NewSymbol(symbols.KindVar, "super", id, symbols.FlagFinal|symbols.FlagHasInit, c.Supertype)
		scope.Enter(superSym)
	}

	if owner.Kind == symbols.KindPackage {
		if c.Owner != s.table.UnnamedPackage && s.table.PackageExists(c.FullName) {
			s.log.Error(decl, diag.KeyClashWithPkg, c.FullName)
		}
		if !c.Flags.Has(symbols.FlagPublic) && !nameCompatible(env.Unit.SourceFile, c.Name) {
			c.Flags |= symbols.FlagAuxiliary
		}
	}
	c.State = symbols.StateShapeDone
	return nil
}

// enumBase builds Enum<C> for the implicit supertype of an enum.
func (s *Session) enumBase(decl *tree.ClassDecl) tree.Expr {
	mk := s.make.At(decl.Pos())
	enum := symbols.Erasure(s.table.PlatformType(symbols.EnumName))
	return mk.TypeApply(mk.Type(enum), mk.Type(s.table.Sym(decl.Sym).Type))
}

func nameCompatible(sourceFile, name string) bool {
	if sourceFile == "" {
		return true
	}
	base := filepath.Base(sourceFile)
	return strings.TrimSuffix(base, filepath.Ext(base)) == name
}

func hasConstructors(defs []tree.Node) bool {
	for _, d := range defs {
		if m, ok := d.(*tree.MethodDecl); ok && tree.IsConstructor(m) {
			return true
		}
	}
	return false
}

// finish enters the members of a shaped class.
func (s *Session) finish(env *Env) error {
	prev := s.log.UseSource(env.Unit)
	defer s.log.UseSource(prev)
	return s.finishClass(env.Tree.(*tree.ClassDecl), env)
}

func (s *Session) finishClass(decl *tree.ClassDecl, env *Env) error {
	c := s.table.Sym(decl.Sym)
	if c.Flags.Has(symbols.FlagEnum) && !s.hasEnumSupertype(c) && !c.Flags.Has(symbols.FlagFromClass) {
		if err := s.addEnumMembers(decl, env); err != nil {
			return err
		}
	}
	for _, def := range decl.Defs {
		if err := s.memberEnter(def, env); err != nil {
			return err
		}
	}
	c.Flags &^= symbols.FlagFromClass | symbols.FlagAptCleaned
	c.State = symbols.StateMembersDone
	s.logger.Debugf("members of %s entered", c.FullName)
	return nil
}

func (s *Session) hasEnumSupertype(c *symbols.Symbol) bool {
	id, ok := symbols.ClassSymbolOf(c.Supertype)
	return ok && s.table.Sym(id).Flags.Has(symbols.FlagEnum)
}

// memberEnter enters one member declaration. Completion failures are
// reported at the declaration; only aborts are returned.
func (s *Session) memberEnter(def tree.Node, env *Env) error {
	var err error
	switch d := def.(type) {
	case *tree.MethodDecl:
		err = s.memberEnterMethod(d, env)
	case *tree.VarDecl:
		err = s.memberEnterVar(d, env)
	case *tree.Erroneous:
		for _, e := range d.Errs {
			if err := s.memberEnter(e, env); err != nil {
				return err
			}
		}
	}
	_, abort := s.handleCompletion(def, err)
	return abort
}

func (s *Session) memberEnterMethod(d *tree.MethodDecl, env *Env) error {
	enclScope := s.enterScope(env)
	owner := s.table.Sym(enclScope.Owner)
	mods := tree.ModifiersOf(d)

	mid := s.table.NewSymbol(symbols.KindMethod, d.Name, owner.ID, 0, nil)
	m := s.table.Sym(mid)
	m.Pos = d.Pos()
	m.Flags = s.checkFlags(d, mods.Flags, symbols.KindMethod, d.Name, owner.ID)
	if d.DefaultValue != nil {
		m.Flags |= symbols.FlagHasInit
	}
	d.Sym = mid
	if mods.Flags.Has(symbols.FlagDefault) {
		if cls := s.table.Sym(s.table.EnclosingClass(owner.ID)); cls != nil {
			cls.Flags |= symbols.FlagDefault
		}
	}

	local := s.methodEnv(d, env)
	mt, err := s.signature(d, local)
	if err != nil {
		return err
	}
	m.Type = mt

	if owner.Flags.Has(symbols.FlagFromClass) {
		reconciled, renv, duplicate, err := s.reconcileMethod(d, env, enclScope, mt)
		if err != nil {
			return err
		}
		if reconciled != nil {
			local = renv
		} else if !duplicate && !owner.Flags.Has(symbols.FlagAptCleaned) {
			s.couplingWarning(d, owner.ID, d.Name)
		} else {
			s.setParams(d, mid)
			if s.checkUnique(d, mid, enclScope) {
				enclScope.Enter(mid)
			}
		}
	} else {
		s.setParams(d, mid)
		if s.checkUnique(d, mid, enclScope) {
			enclScope.Enter(mid)
		}
	}

	s.AnnotateLater(mods.Annotations, local, d.Sym)
	if d.DefaultValue != nil {
		s.annotateDefaultValueLater(d.DefaultValue, local, d.Sym)
	}
	return nil
}

// reconcileMethod matches a source method against the members of a class
// that was loaded from an artifact. On a match the existing symbol is
// reused and its signature recomputed from source, so references made
// before the source was seen stay valid.
func (s *Session) reconcileMethod(d *tree.MethodDecl, env *Env, enclScope *symbols.Scope, mt *symbols.MethodType) (matched *symbols.Symbol, local *Env, duplicate bool, err error) {
	owner := s.table.Sym(enclScope.Owner)
	cleaned := owner.Flags.Has(symbols.FlagAptCleaned)
	localCtor := d.Name == symbols.ConstructorName && (owner.Name == "" || s.table.IsLocal(owner.ID))
	for _, e := range enclScope.LookupLocal(d.Name) {
		other := s.table.Sym(e.Sym)
		if other.Kind != symbols.KindMethod {
			continue
		}
		same := symbols.IsSameType(mt, other.Type) || len(mt.TypeParams) > 0 && isSameMethod(mt, other.Type)
		if cleaned {
			same = isSameMethod(mt, other.Type)
		}
		if !same && !localCtor {
			continue
		}
		if !other.Flags.Has(symbols.FlagFromClass) {
			return nil, nil, true, nil
		}

		cleanTree(d)
		d.Sym = e.Sym
		local = s.methodEnv(d, env)
		lscope := s.table.Scope(local.Scope)
		mods := tree.ModifiersOf(d)
		other.Flags = s.checkFlags(d, mods.Flags, symbols.KindMethod, d.Name, owner.ID) |
			other.Flags&symbols.FlagAptCleaned | symbols.FlagFromClass
		// parameters line up from the end; leading artifact parameters
		// may be synthetic
		for i, j := len(other.Params)-1, len(d.Params)-1; i >= 0; i-- {
			p := s.table.Sym(other.Params[i])
			if j >= 0 {
				p.Name = d.Params[j].Name
				if tree.Flags(d.Params[j]).Has(symbols.FlagFinal) {
					p.Flags |= symbols.FlagFinal
				}
				j--
			}
			p.Flags |= symbols.FlagFromClass
			lscope.Enter(p.ID)
		}

		rt, err := s.signature(d, local)
		if err != nil {
			return nil, nil, false, err
		}
		other.Type = rt
		other.Flags &^= symbols.FlagFromClass
		s.setParams(d, e.Sym)
		other.Flags &^= symbols.FlagAptCleaned
		s.logger.Debugf("reconciled %s.%s with source", owner.FullName, d.Name)
		return other, local, false, nil
	}
	return nil, nil, false, nil
}

func (s *Session) couplingWarning(n tree.Node, owner symbols.SymbolID, member string) {
	outermost := s.table.OutermostClass(owner)
	s.log.Warning(n, diag.KeyWarnCoupling, s.table.Sym(outermost).FullName, member)
}

// setParams records the parameter symbols of d on its method symbol and
// marks the method varargs when the last parameter is.
func (s *Session) setParams(d *tree.MethodDecl, mid symbols.SymbolID) {
	m := s.table.Sym(mid)
	m.Params = m.Params[:0:0]
	for _, p := range d.Params {
		m.Params = append(m.Params, p.Sym)
	}
	if n := len(d.Params); n > 0 && tree.Flags(d.Params[n-1]).Has(symbols.FlagVarargs) {
		m.Flags |= symbols.FlagVarargs
	}
}

// signature computes a method type. Type parameters are entered and
// attributed first so the rest of the signature can refer to them;
// value parameters are entered into the method scope one by one.
func (s *Session) signature(d *tree.MethodDecl, env *Env) (*symbols.MethodType, error) {
	mt := &symbols.MethodType{TypeParams: s.enterTypeParams(d.TypeParams, env, d.Sym)}
	if err := s.attribTypeVariables(d.TypeParams, env); err != nil {
		return nil, err
	}
	for _, p := range d.Params {
		if err := s.memberEnterVar(p, env); err != nil {
			return nil, err
		}
		s.table.Sym(p.Sym).Flags |= symbols.FlagParameter
		mt.Params = append(mt.Params, exprType(p.VarType))
	}
	if d.ResType == nil {
		mt.Result = symbols.VoidType
	} else {
		rt, err := s.attribType(d.ResType, env)
		if err != nil {
			return nil, err
		}
		mt.Result = rt
	}
	for _, e := range d.Thrown {
		t, err := s.attribType(e, env)
		if err != nil {
			return nil, err
		}
		if _, isVar := t.(*symbols.TypeVar); !isVar {
			t = s.checkClassType(e, t)
			if err := s.checkThrowable(e, t); err != nil {
				return nil, err
			}
		}
		mt.Thrown = append(mt.Thrown, t)
	}
	return mt, nil
}

func (s *Session) checkThrowable(e tree.Expr, t symbols.Type) error {
	ct, ok := t.(*symbols.ClassType)
	if !ok {
		return nil
	}
	throwable, found := s.LookupClass(symbols.ThrowableName)
	if !found {
		return nil
	}
	if ok, err := s.completeAt(e, ct.Sym); !ok {
		return err
	}
	if !s.table.IsSubClass(ct.Sym, throwable) {
		s.log.Error(e, diag.KeyIncompatibleThrown, t.String(), symbols.ThrowableName)
	}
	return nil
}

// enterTypeParams creates the type variables of a generic declaration and
// enters them into env's scope.
func (s *Session) enterTypeParams(params []*tree.TypeParameter, env *Env, owner symbols.SymbolID) []*symbols.TypeVar {
	if len(params) == 0 {
		return nil
	}
	scope := s.table.Scope(env.Scope)
	tvars := make([]*symbols.TypeVar, 0, len(params))
	for _, tp := range params {
		tv := &symbols.TypeVar{Name: tp.Name}
		tv.Sym = s.table.NewSymbol(symbols.KindTypeVar, tp.Name, owner, 0, tv)
		s.table.Sym(tv.Sym).Pos = tp.Pos()
		tp.Type = tv
		if s.checkUnique(tp, tv.Sym, scope) {
			scope.Enter(tv.Sym)
		}
		tvars = append(tvars, tv)
	}
	return tvars
}

func exprType(e tree.Expr) symbols.Type {
	if e == nil || e.ExprType() == nil {
		return &symbols.ErrorType{}
	}
	return e.ExprType()
}

func (s *Session) memberEnterVar(d *tree.VarDecl, env *Env) error {
	enclScope := s.enterScope(env)
	owner := s.table.Sym(enclScope.Owner)
	mods := tree.ModifiersOf(d)

	if tree.IsEnumConstant(d) {
		cls := s.table.Sym(s.table.EnclosingClass(owner.ID))
		if d.VarType == nil {
			d.VarType = s.make.At(d.Pos()).Type(cls.Type)
		} else {
			setSym(d.VarType, cls.ID)
			d.VarType.SetExprType(cls.Type)
		}
		mods.Flags |= symbols.FlagPublic | symbols.FlagStatic | symbols.FlagFinal
	} else if _, err := s.attribType(d.VarType, env); err != nil {
		return err
	}
	vt := exprType(d.VarType)
	if mods.Flags.Has(symbols.FlagVarargs) {
		if at, ok := vt.(*symbols.ArrayType); ok {
			vt = &symbols.ArrayType{Elem: at.Elem, Varargs: true}
			d.VarType.SetExprType(vt)
		}
	}

	var vid symbols.SymbolID
	doEnter := true
	if owner.Flags.Has(symbols.FlagFromClass) {
		cleaned := owner.Flags.Has(symbols.FlagAptCleaned)
		for _, e := range enclScope.LookupLocal(d.Name) {
			other := s.table.Sym(e.Sym)
			if other.Kind == symbols.KindVar && sameVarType(vt, other.Type, cleaned) {
				if other.Flags.Has(symbols.FlagFromClass) {
					vid = e.Sym
					other.Type = vt
					other.Flags &^= symbols.FlagFromClass
				}
				break
			}
		}
		switch {
		case vid.IsValid():
			doEnter = false
		case !cleaned:
			s.couplingWarning(d, owner.ID, d.Name)
			doEnter = false
		}
	}
	if !vid.IsValid() {
		vid = s.table.NewSymbol(symbols.KindVar, d.Name, owner.ID, 0, vt)
	}
	v := s.table.Sym(vid)
	v.Flags = s.checkFlags(d, mods.Flags, symbols.KindVar, d.Name, owner.ID)
	d.Sym = vid
	if d.Init != nil {
		v.Flags |= symbols.FlagHasInit
		if v.Flags.Has(symbols.FlagFinal) {
			if cv, ok := foldLiteral(d.Init); ok {
				v.ConstValue = cv
			}
		}
	}
	if doEnter {
		if s.checkUnique(d, vid, enclScope) {
			enclScope.Enter(vid)
		}
	}
	s.AnnotateLater(mods.Annotations, env, vid)
	v.Pos = d.Pos()
	return nil
}

// foldLiteral folds an initializer built only from literals.
func foldLiteral(e tree.Expr) (any, bool) {
	switch e := e.(type) {
	case *tree.Literal:
		if e.TypeTag == symbols.TagBot {
			return nil, false
		}
		return e.Value, true
	case *tree.Parens:
		return foldLiteral(e.Expr)
	case *tree.Unary:
		if v, ok := foldLiteral(e.Arg); ok {
			return foldUnary(e.Op, v)
		}
	case *tree.Binary:
		l, lok := foldLiteral(e.LHS)
		r, rok := foldLiteral(e.RHS)
		if lok && rok {
			return foldBinary(e.Op, l, r)
		}
	}
	return nil, false
}

// sameVarType matches a source variable against an artifact one. Method
// type variables are fresh for every signature, so they match by name.
func sameVarType(t, old symbols.Type, cleaned bool) bool {
	if cleaned {
		return isSameAPTypeVar(t, old)
	}
	if tv, ok := t.(*symbols.TypeVar); ok {
		if ov, ok := old.(*symbols.TypeVar); ok {
			return tv.Name == ov.Name
		}
	}
	return symbols.IsSameType(t, old)
}

// isSameAPType compares types across annotation processing rounds: an
// erroneous type from an earlier round matches a type of the same simple
// name.
func isSameAPType(t, old symbols.Type) bool {
	if symbols.IsSameType(t, old) {
		return true
	}
	if t == nil || old == nil || !symbols.IsErroneous(old) {
		return false
	}
	return simpleTypeName(t) != "" && simpleTypeName(t) == simpleTypeName(old)
}

func simpleTypeName(t symbols.Type) string {
	var name string
	switch t := t.(type) {
	case *symbols.ClassType:
		name = t.Name
	case *symbols.ErrorType:
		name = t.Name
	case *symbols.TypeVar:
		return t.Name
	case *symbols.ArrayType:
		if elem := simpleTypeName(t.Elem); elem != "" {
			return elem + "[]"
		}
		return ""
	default:
		return ""
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// isSameMethod is the loose signature match used for cleaned classes.
func isSameMethod(t, old symbols.Type) bool {
	mt, ok1 := t.(*symbols.MethodType)
	ot, ok2 := old.(*symbols.MethodType)
	if !ok1 || !ok2 {
		return false
	}
	if len(mt.Params) != len(ot.Params) || len(mt.TypeParams) != len(ot.TypeParams) {
		return false
	}
	for i := range mt.TypeParams {
		if !isSameAPTypeVar(mt.TypeParams[i].Bound, ot.TypeParams[i].Bound) {
			return false
		}
	}
	if !isSameAPTypeVar(mt.Result, ot.Result) {
		return false
	}
	for i := range mt.Params {
		if !isSameAPTypeVar(mt.Params[i], ot.Params[i]) {
			return false
		}
	}
	return true
}

// isSameAPTypeVar is isSameAPType with method type variables matched by
// name, since each round creates fresh ones.
func isSameAPTypeVar(t, old symbols.Type) bool {
	if tv, ok := t.(*symbols.TypeVar); ok {
		if ov, ok := old.(*symbols.TypeVar); ok {
			return tv.Name == ov.Name
		}
	}
	if ta, ok := t.(*symbols.ArrayType); ok {
		if oa, ok := old.(*symbols.ArrayType); ok {
			return isSameAPTypeVar(ta.Elem, oa.Elem)
		}
	}
	return isSameAPType(t, old)
}

func (s *Session) String() string {
	return fmt.Sprintf("session %s (%s)", s.ID, s.cfg.Mode)
}
