package comp

import (
	"strconv"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// attribType resolves a type expression in env and records the result on
// the tree. Unresolvable names are reported and yield error types; only
// aborts are returned as errors.
func (s *Session) attribType(e tree.Expr, env *Env) (symbols.Type, error) {
	if e == nil {
		return symbols.NoType, nil
	}
	if t := e.ExprType(); t != nil {
		return t, nil
	}
	t, err := s.attribTypeTree(e, env)
	if err != nil {
		return nil, err
	}
	e.SetExprType(t)
	return t, nil
}

func (s *Session) attribTypeTree(e tree.Expr, env *Env) (symbols.Type, error) {
	switch e := e.(type) {
	case *tree.PrimitiveType:
		return symbols.PrimitiveByTag(e.TypeTag), nil
	case *tree.Ident:
		if p, ok := symbols.PrimitiveByName(e.Name); ok {
			return p, nil
		}
		id, err := s.findType(e, env, e.Name)
		if err != nil {
			return nil, err
		}
		if !id.IsValid() {
			s.log.Error(e, diag.KeyCantResolveLocation, "class", e.Name, s.location(env))
			return &symbols.ErrorType{Name: e.Name}, nil
		}
		e.Sym = id
		return s.rawType(id), nil
	case *tree.Select:
		return s.attribSelectType(e, env)
	case *tree.TypeApply:
		return s.attribTypeApply(e, env)
	case *tree.ArrayType:
		elem, err := s.attribType(e.Elem, env)
		if err != nil {
			return nil, err
		}
		return &symbols.ArrayType{Elem: elem}, nil
	case *tree.Wildcard:
		w := &symbols.WildcardType{Kind: e.BoundKind}
		if e.Bound != nil {
			b, err := s.attribType(e.Bound, env)
			if err != nil {
				return nil, err
			}
			w.Bound = b
		}
		return w, nil
	case *tree.Erroneous:
		return &symbols.ErrorType{}, nil
	}
	s.log.Error(e, diag.KeyTypeFoundReq, e.Kind().String(), "type")
	return &symbols.ErrorType{}, nil
}

// rawType is the type a bare class name denotes: the erasure of a generic
// class, the declared type otherwise.
func (s *Session) rawType(id symbols.SymbolID) symbols.Type {
	t := s.table.Sym(id).Type
	if t == nil {
		return &symbols.ErrorType{Sym: id, Name: s.table.Sym(id).Name}
	}
	if _, ok := t.(*symbols.TypeVar); ok {
		return t
	}
	return symbols.Erasure(t)
}

func (s *Session) attribSelectType(e *tree.Select, env *Env) (symbols.Type, error) {
	q, err := s.attribQualifier(e.Selected, env)
	if err != nil {
		return nil, err
	}
	qsym := s.table.Sym(q)
	if qsym == nil {
		return &symbols.ErrorType{Name: e.Name}, nil
	}
	var id symbols.SymbolID
	switch qsym.Kind {
	case symbols.KindPackage:
		id, err = s.findPackageMember(e, q, e.Name)
		if err != nil {
			return nil, err
		}
		if !id.IsValid() {
			if !s.table.PackageExists(qsym.FullName) {
				s.log.Error(e.Selected, diag.KeyDoesntExist, qsym.FullName)
			} else {
				s.log.Error(e, diag.KeyCantResolveLocation, "class", e.Name, "package "+qsym.FullName)
			}
			return &symbols.ErrorType{Name: tree.QualifiedName(e)}, nil
		}
	default:
		id, err = s.findMemberType(e, q, e.Name)
		if err != nil {
			return nil, err
		}
		if !id.IsValid() {
			s.log.Error(e, diag.KeyCantResolveLocation, "class", e.Name, s.describe(q))
			return &symbols.ErrorType{Name: tree.QualifiedName(e)}, nil
		}
	}
	e.Sym = id
	return s.rawType(id), nil
}

// attribQualifier resolves the part of a qualified name before the last
// dot. Types win over packages; an unknown simple name is taken to be a
// package so the missing member is reported against it.
func (s *Session) attribQualifier(e tree.Expr, env *Env) (symbols.SymbolID, error) {
	switch e := e.(type) {
	case *tree.Ident:
		id, err := s.findType(e, env, e.Name)
		if err != nil {
			return symbols.NoSymbolID, err
		}
		if !id.IsValid() {
			id = s.table.EnterPackage(e.Name)
		}
		e.Sym = id
		e.SetExprType(s.table.Sym(id).Type)
		return id, nil
	case *tree.Select:
		q, err := s.attribQualifier(e.Selected, env)
		if err != nil || !q.IsValid() {
			return symbols.NoSymbolID, err
		}
		qsym := s.table.Sym(q)
		var id symbols.SymbolID
		if qsym.Kind == symbols.KindPackage {
			id, err = s.findPackageMember(e, q, e.Name)
			if err != nil {
				return symbols.NoSymbolID, err
			}
			if !id.IsValid() {
				id = s.table.EnterPackage(tree.JoinNames(qsym.FullName, e.Name))
			}
		} else {
			id, err = s.findMemberType(e, q, e.Name)
			if err != nil {
				return symbols.NoSymbolID, err
			}
			if !id.IsValid() {
				s.log.Error(e, diag.KeyCantResolveLocation, "class", e.Name, s.describe(q))
				return symbols.NoSymbolID, nil
			}
		}
		e.Sym = id
		e.SetExprType(s.table.Sym(id).Type)
		return id, nil
	case *tree.TypeApply:
		t, err := s.attribType(e, env)
		if err != nil {
			return symbols.NoSymbolID, err
		}
		id, _ := symbols.ClassSymbolOf(t)
		return id, nil
	}
	return symbols.NoSymbolID, nil
}

func (s *Session) attribTypeApply(e *tree.TypeApply, env *Env) (symbols.Type, error) {
	clazz, err := s.attribType(e.Clazz, env)
	if err != nil {
		return nil, err
	}
	args := make([]symbols.Type, len(e.Args))
	for i, a := range e.Args {
		if args[i], err = s.attribType(a, env); err != nil {
			return nil, err
		}
	}
	ct, ok := clazz.(*symbols.ClassType)
	if !ok {
		if et, ok := clazz.(*symbols.ErrorType); ok {
			return &symbols.ErrorType{Sym: et.Sym, Name: et.Name, Original: et.Original, Args: args}, nil
		}
		s.log.Error(e, diag.KeyTypeFoundReq, clazz.String(), "class")
		return &symbols.ErrorType{Name: clazz.String(), Args: args}, nil
	}
	var formals []symbols.Type
	if decl, ok := s.table.Sym(ct.Sym).Type.(*symbols.ClassType); ok {
		formals = decl.Args
	}
	if len(formals) != len(args) {
		s.log.Error(e, diag.KeyWrongNumberTypeArgs, len(formals))
		return &symbols.ErrorType{Sym: ct.Sym, Name: ct.Name, Original: ct, Args: args}, nil
	}
	return &symbols.ClassType{Sym: ct.Sym, Name: ct.Name, Args: args, Outer: ct.Outer}, nil
}

// findType looks a simple type name up the way a declaration in env sees
// it: local scopes and member types of enclosing classes from the inside
// out, then the unit's single-type imports and own classes, the package,
// and finally the on-demand imports.
func (s *Session) findType(n tree.Node, env *Env, name string) (symbols.SymbolID, error) {
	for e := env; e.Outer != nil; e = e.Outer {
		if sc := s.table.Scope(e.Scope); sc != nil {
			for _, ent := range sc.Lookup(name) {
				if s.table.Sym(ent.Sym).Kind.IsType() {
					return ent.Sym, nil
				}
			}
		}
		if e.EnclClass != nil && e.EnclClass.Sym.IsValid() {
			id, err := s.findMemberType(n, e.EnclClass.Sym, name)
			if err != nil || id.IsValid() {
				return id, err
			}
		}
	}

	unit := env.Unit
	if named := s.table.Scope(unit.NamedImportScope); named != nil {
		for _, ent := range named.LookupLocal(name) {
			if s.table.Sym(ent.Sym).Kind == symbols.KindClass {
				return ent.Sym, nil
			}
		}
	}
	if unit.Packge.IsValid() {
		id, err := s.findPackageMember(n, unit.Packge, name)
		if err != nil || id.IsValid() {
			return id, err
		}
	}
	if star := s.table.Scope(unit.StarImportScope); star != nil {
		for _, ent := range star.LookupLocal(name) {
			if s.table.Sym(ent.Sym).Kind == symbols.KindClass {
				return ent.Sym, nil
			}
		}
	}
	return symbols.NoSymbolID, nil
}

// findPackageMember returns the class name in pkg, completing the package
// so classes from artifacts are listed.
func (s *Session) findPackageMember(n tree.Node, pkg symbols.SymbolID, name string) (symbols.SymbolID, error) {
	if _, err := s.completeAt(n, pkg); err != nil {
		return symbols.NoSymbolID, err
	}
	for _, ent := range s.table.Members(pkg).LookupLocal(name) {
		if s.table.Sym(ent.Sym).Kind == symbols.KindClass {
			return ent.Sym, nil
		}
	}
	full := tree.JoinNames(s.table.Sym(pkg).FullName, name)
	if id, ok := s.table.LookupClass(full); ok && s.table.Sym(id).Owner == pkg {
		return id, nil
	}
	return symbols.NoSymbolID, nil
}

// findMemberType finds a member class of class or one of its supertypes.
// Supertypes are completed as needed; cyclic hierarchies terminate.
func (s *Session) findMemberType(n tree.Node, class symbols.SymbolID, name string) (symbols.SymbolID, error) {
	seen := make(map[symbols.SymbolID]bool)
	var walk func(symbols.SymbolID) (symbols.SymbolID, error)
	walk = func(c symbols.SymbolID) (symbols.SymbolID, error) {
		if seen[c] {
			return symbols.NoSymbolID, nil
		}
		seen[c] = true
		if ok, err := s.completeAt(n, c); !ok {
			return symbols.NoSymbolID, err
		}
		if members := s.table.Members(c); members != nil {
			for _, ent := range members.LookupLocal(name) {
				if s.table.Sym(ent.Sym).Kind == symbols.KindClass {
					return ent.Sym, nil
				}
			}
		}
		for _, sup := range s.table.SupertypeSymbols(c) {
			id, err := walk(sup)
			if err != nil || id.IsValid() {
				return id, err
			}
		}
		return symbols.NoSymbolID, nil
	}
	return walk(class)
}

// findField finds a field of class or one of its supertypes.
func (s *Session) findField(n tree.Node, class symbols.SymbolID, name string) (symbols.SymbolID, error) {
	seen := make(map[symbols.SymbolID]bool)
	var walk func(symbols.SymbolID) (symbols.SymbolID, error)
	walk = func(c symbols.SymbolID) (symbols.SymbolID, error) {
		if seen[c] {
			return symbols.NoSymbolID, nil
		}
		seen[c] = true
		if ok, err := s.completeAt(n, c); !ok {
			return symbols.NoSymbolID, err
		}
		if id, ok := s.Member(c, name, symbols.KindVar); ok {
			return id, nil
		}
		for _, sup := range s.table.SupertypeSymbols(c) {
			id, err := walk(sup)
			if err != nil || id.IsValid() {
				return id, err
			}
		}
		return symbols.NoSymbolID, nil
	}
	return walk(class)
}

// findVar resolves a variable name the way an annotation value in env sees
// it: fields of enclosing classes, then static imports.
func (s *Session) findVar(n tree.Node, env *Env, name string) (symbols.SymbolID, error) {
	for e := env; e.Outer != nil; e = e.Outer {
		if e.EnclClass == nil || !e.EnclClass.Sym.IsValid() {
			continue
		}
		id, err := s.findField(n, e.EnclClass.Sym, name)
		if err != nil || id.IsValid() {
			return id, err
		}
	}
	for _, scope := range []symbols.ScopeID{env.Unit.NamedImportScope, env.Unit.StarImportScope} {
		sc := s.table.Scope(scope)
		if sc == nil {
			continue
		}
		for _, ent := range sc.LookupLocal(name) {
			if s.table.Sym(ent.Sym).Kind == symbols.KindVar {
				return ent.Sym, nil
			}
		}
	}
	return symbols.NoSymbolID, nil
}

// location names the place a failed lookup was made from.
func (s *Session) location(env *Env) string {
	if env.EnclClass != nil && env.EnclClass.Sym.IsValid() {
		return s.describe(env.EnclClass.Sym)
	}
	if env.Unit != nil && env.Unit.Packge.IsValid() {
		return s.describe(env.Unit.Packge)
	}
	return "package"
}

// attribBase resolves a type in an extends or implements clause and checks
// that it can be inherited from.
func (s *Session) attribBase(e tree.Expr, env *Env, classExpected, interfaceExpected, checkExtensible bool) (symbols.Type, error) {
	t, err := s.attribType(e, env)
	if err != nil {
		return nil, err
	}
	t = s.checkClassType(e, t)
	if symbols.IsErroneous(t) {
		return t, nil
	}
	ct := t.(*symbols.ClassType)
	if ok, err := s.completeAt(e, ct.Sym); !ok {
		if err != nil {
			return nil, err
		}
		return &symbols.ErrorType{Sym: ct.Sym, Name: ct.Name, Original: ct}, nil
	}
	sym := s.table.Sym(ct.Sym)
	switch {
	case interfaceExpected && !sym.IsInterface():
		s.log.Error(e, diag.KeyIntfExpectedHere)
		return &symbols.ErrorType{Sym: ct.Sym, Name: ct.Name, Original: ct}, nil
	case checkExtensible && classExpected && sym.IsInterface():
		s.log.Error(e, diag.KeyNoIntfExpectedHere)
		return &symbols.ErrorType{Sym: ct.Sym, Name: ct.Name, Original: ct}, nil
	}
	if checkExtensible && sym.Flags&(symbols.FlagFinal|symbols.FlagInterface) == symbols.FlagFinal {
		s.log.Error(e, diag.KeyCantInheritFromFinal, sym.FullName)
	}
	return t, nil
}

// attribTypeVariables resolves the bounds of type parameters. A type
// variable without bounds is bounded by Object.
func (s *Session) attribTypeVariables(params []*tree.TypeParameter, env *Env) error {
	for _, tp := range params {
		tv := tp.Type
		if tv == nil {
			continue
		}
		if len(tp.Bounds) == 0 {
			tv.Bound = s.table.PlatformType(symbols.ObjectName)
			continue
		}
		for i, b := range tp.Bounds {
			bt, err := s.attribType(b, env)
			if err != nil {
				return err
			}
			if i == 0 {
				tv.Bound = bt
				continue
			}
			if id, ok := symbols.ClassSymbolOf(bt); ok && !symbols.IsErroneous(bt) {
				if ok, err := s.completeAt(b, id); ok && !s.table.Sym(id).IsInterface() {
					s.log.Error(b, diag.KeyIntfExpectedHere)
				} else if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// modelMissingTypes attaches a stand-in model to an unresolved base type:
// a synthetic class, an interface when one was expected, with type
// parameters T or T1..Tn matching the type arguments written.
func (s *Session) modelMissingTypes(t symbols.Type, e tree.Expr, interfaceExpected bool) symbols.Type {
	et, ok := t.(*symbols.ErrorType)
	if !ok {
		return t
	}
	name := tree.QualifiedName(e)
	if name == "" {
		name = et.Name
	}
	var nargs int
	if ta, ok := e.(*tree.TypeApply); ok {
		nargs = len(ta.Args)
	}
	et.SetModel(func() symbols.Type {
		var flags symbols.Flags
		if interfaceExpected {
			flags = symbols.FlagInterface | symbols.FlagAbstract
		}
		id := s.table.NewSymbol(symbols.KindClass, name, s.table.NoSymbol, flags, nil)
		c := s.table.Sym(id)
		c.FullName = name
		c.Members = s.table.Scopes.New(symbols.ScopeError, id)
		c.State = symbols.StateMembersDone
		c.Supertype = symbols.NoType
		ct := &symbols.ClassType{Sym: id, Name: name}
		for i := 0; i < nargs; i++ {
			vname := "T"
			if nargs > 1 {
				vname = "T" + strconv.Itoa(i+1)
			}
			tv := &symbols.TypeVar{Name: vname}
			tv.Sym = s.table.NewSymbol(symbols.KindTypeVar, vname, id, 0, tv)
			ct.Args = append(ct.Args, tv)
		}
		c.Type = ct
		return ct
	})
	return et
}

// constantValue folds a constant expression used as an annotation value.
func (s *Session) constantValue(e tree.Expr, env *Env) (any, symbols.Type, bool) {
	switch e := e.(type) {
	case *tree.Literal:
		switch e.TypeTag {
		case symbols.TagBot:
			return nil, nil, false
		case symbols.TagClass:
			return e.Value, s.table.PlatformType(symbols.StringName), true
		}
		return e.Value, symbols.PrimitiveByTag(e.TypeTag), true
	case *tree.Parens:
		return s.constantValue(e.Expr, env)
	case *tree.Unary:
		v, t, ok := s.constantValue(e.Arg, env)
		if !ok {
			return nil, nil, false
		}
		if r, ok := foldUnary(e.Op, v); ok {
			return r, t, true
		}
	case *tree.Binary:
		lv, lt, ok := s.constantValue(e.LHS, env)
		if !ok {
			return nil, nil, false
		}
		rv, _, ok := s.constantValue(e.RHS, env)
		if !ok {
			return nil, nil, false
		}
		if r, ok := foldBinary(e.Op, lv, rv); ok {
			if _, str := r.(string); str {
				lt = s.table.PlatformType(symbols.StringName)
			}
			return r, lt, true
		}
	case *tree.Ident:
		id, err := s.findVar(e, env, e.Name)
		if err != nil || !id.IsValid() {
			return nil, nil, false
		}
		return s.constantField(e, id)
	case *tree.Select:
		q, err := s.attribQualifier(e.Selected, env)
		if err != nil || !q.IsValid() || s.table.Sym(q).Kind != symbols.KindClass {
			return nil, nil, false
		}
		id, err := s.findField(e, q, e.Name)
		if err != nil || !id.IsValid() {
			return nil, nil, false
		}
		return s.constantField(e, id)
	}
	return nil, nil, false
}

func (s *Session) constantField(e tree.Expr, id symbols.SymbolID) (any, symbols.Type, bool) {
	sym := s.table.Sym(id)
	if sym.ConstValue == nil {
		return nil, nil, false
	}
	setSym(e, id)
	return sym.ConstValue, sym.Type, true
}

func foldUnary(op string, v any) (any, bool) {
	switch op {
	case "+":
		return v, true
	case "-":
		switch v := v.(type) {
		case int64:
			return -v, true
		case int:
			return -v, true
		case float64:
			return -v, true
		}
	case "!":
		if b, ok := v.(bool); ok {
			return !b, true
		}
	case "~":
		switch v := v.(type) {
		case int64:
			return ^v, true
		case int:
			return ^v, true
		}
	}
	return nil, false
}

func foldBinary(op string, l, r any) (any, bool) {
	if op == "+" {
		ls, lok := l.(string)
		rs, rok := r.(string)
		switch {
		case lok && rok:
			return ls + rs, true
		case lok:
			return ls + symbols.ConstantAttr{Value: r}.String(), true
		case rok:
			return symbols.ConstantAttr{Value: l}.String() + rs, true
		}
	}
	li, lok := toInt64(l)
	ri, rok := toInt64(r)
	if !lok || !rok {
		return nil, false
	}
	switch op {
	case "+":
		return li + ri, true
	case "-":
		return li - ri, true
	case "*":
		return li * ri, true
	case "|":
		return li | ri, true
	case "&":
		return li & ri, true
	case "<<":
		return li << uint64(ri&63), true
	}
	return nil, false
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	}
	return 0, false
}
