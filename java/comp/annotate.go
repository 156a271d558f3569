package comp

import (
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// Annotator is a deferred action. Each one captures the tree, env and
// symbol it works on.
type Annotator struct {
	Desc string
	Run  func() error
}

// Annotate holds the two deferred queues of annotation linking. Flush
// drains the earlier queue before each normal action, both in enqueue
// order.
type Annotate struct {
	earlier  []Annotator
	normal   []Annotator
	blocked  int
	flushing bool
}

func NewAnnotate() *Annotate { return &Annotate{} }

// Earlier queues an action that must run before any normal action, such
// as resolving annotation types or static imports.
func (a *Annotate) Earlier(desc string, run func() error) {
	a.earlier = append(a.earlier, Annotator{Desc: desc, Run: run})
}

// Normal queues an action that attaches resolved values to a symbol.
func (a *Annotate) Normal(desc string, run func() error) {
	a.normal = append(a.normal, Annotator{Desc: desc, Run: run})
}

// EnterStart blocks flushing until the matching EnterDone.
func (a *Annotate) EnterStart() { a.blocked++ }

// EnterDone unblocks and flushes.
func (a *Annotate) EnterDone() error {
	a.blocked--
	return a.Flush()
}

// Pending reports the number of queued actions.
func (a *Annotate) Pending() int { return len(a.earlier) + len(a.normal) }

// Flush runs queued actions until both queues are empty. Actions may queue
// more actions. Flush is a no-op while blocked or already flushing.
func (a *Annotate) Flush() error {
	if a.blocked > 0 || a.flushing {
		return nil
	}
	a.flushing = true
	defer func() { a.flushing = false }()
	for {
		var next Annotator
		switch {
		case len(a.earlier) > 0:
			next, a.earlier = a.earlier[0], a.earlier[1:]
		case len(a.normal) > 0:
			next, a.normal = a.normal[0], a.normal[1:]
		default:
			return nil
		}
		log.Debugf("annotate: %s", next.Desc)
		if err := next.Run(); err != nil {
			return err
		}
	}
}

// clear drops every queued action.
func (a *Annotate) clear() {
	a.earlier = nil
	a.normal = nil
}

// AnnotateLater queues the annotations of a declaration for linking onto
// sym. Annotation types are resolved on the earlier queue, values on the
// normal queue.
func (s *Session) AnnotateLater(annotations []*tree.Annotation, env *Env, sym symbols.SymbolID) {
	if len(annotations) == 0 {
		return
	}
	target := s.table.Sym(sym)
	if target.Kind != symbols.KindPackage || target.Flags.Has(symbols.FlagAptCleaned) {
		target.Annotations = nil
	}
	target.AnnotationsPending = true
	s.annotate.Earlier("types of annotations on "+target.Name, func() error {
		prev := s.log.UseSource(env.Unit)
		defer s.log.UseSource(prev)
		return s.attribAnnotationTypes(annotations, env)
	})
	s.annotate.Normal("annotations on "+target.Name, func() error {
		prev := s.log.UseSource(env.Unit)
		defer s.log.UseSource(prev)
		if len(target.Annotations) > 0 {
			s.log.Error(annotations[0], diag.KeyAlreadyAnnotated, s.kindName(sym), target.Name)
		}
		return s.enterAnnotations(annotations, env, sym)
	})
}

// annotateDefaultValueLater resolves the default value of an annotation
// element on the normal queue.
func (s *Session) annotateDefaultValueLater(value tree.Expr, env *Env, m symbols.SymbolID) {
	s.annotate.Normal("default value of "+s.table.Sym(m).Name, func() error {
		prev := s.log.UseSource(env.Unit)
		defer s.log.UseSource(prev)
		msym := s.table.Sym(m)
		var result symbols.Type = symbols.NoType
		if mt := symbols.AsMethodType(msym.Type); mt != nil {
			result = mt.Result
		}
		attr, err := s.enterAttributeValue(result, value, env)
		if err != nil {
			return err
		}
		msym.DefaultValue = attr
		return nil
	})
}

// attribAnnotationTypes resolves the type of each annotation.
func (s *Session) attribAnnotationTypes(annotations []*tree.Annotation, env *Env) error {
	for _, a := range annotations {
		if _, err := s.attribType(a.AnnotationType, env); err != nil {
			return err
		}
	}
	return nil
}

// hasDeprecated reports whether a resolved annotation list holds
// @Deprecated.
func (s *Session) hasDeprecated(annotations []*tree.Annotation) bool {
	for _, a := range annotations {
		if len(a.Args) == 0 && s.isClass(a.AnnotationType.ExprType(), symbols.DeprecatedName) {
			return true
		}
	}
	return false
}

func (s *Session) isClass(t symbols.Type, fullName string) bool {
	ct, ok := t.(*symbols.ClassType)
	return ok && s.table.Sym(ct.Sym).FullName == fullName
}

// enterAnnotations links annotations onto sym. Repeats of one type are
// errors unless repeatable annotations are allowed and the type is marked
// @Repeatable, in which case they accumulate into one container.
func (s *Session) enterAnnotations(annotations []*tree.Annotation, env *Env, sym symbols.SymbolID) error {
	target := s.table.Sym(sym)
	var result []*symbols.Compound
	byType := make(map[symbols.SymbolID]*symbols.Compound)
	for _, a := range annotations {
		c, err := s.enterAnnotation(a, env)
		if err != nil {
			return err
		}
		if c == nil {
			continue
		}
		if ct, ok := c.Type.(*symbols.ClassType); ok {
			if first, dup := byType[ct.Sym]; dup {
				switch {
				case !s.cfg.AllowRepeatedAnnotations:
					s.log.Error(a, diag.KeyDuplicateAnnotation)
				case !s.isRepeatable(ct.Sym):
					s.log.Error(a, diag.KeyDuplicateAnnotationNoContainer, ct.String())
				default:
					if len(first.Repeated) == 0 {
						first.Repeated = []*symbols.Compound{{Type: first.Type, Values: first.Values}}
					}
					first.Repeated = append(first.Repeated, c)
				}
				continue
			}
			byType[ct.Sym] = c
			if s.table.Sym(ct.Sym).FullName == symbols.DeprecatedName && target.Kind != symbols.KindMethod {
				target.Flags |= symbols.FlagDeprecated
			}
		}
		result = append(result, c)
	}
	target.Annotations = result
	target.AnnotationsPending = false
	return nil
}

// isRepeatable reports whether an annotation type carries @Repeatable.
func (s *Session) isRepeatable(id symbols.SymbolID) bool {
	for _, c := range s.table.Sym(id).Annotations {
		if s.isClass(c.Type, symbols.RepeatableName) {
			return true
		}
	}
	return false
}

// enterAnnotation resolves one annotation and its element values.
func (s *Session) enterAnnotation(a *tree.Annotation, env *Env) (*symbols.Compound, error) {
	t, err := s.attribType(a.AnnotationType, env)
	if err != nil {
		return nil, err
	}
	c := &symbols.Compound{Type: t}
	a.Attribute = c
	a.SetExprType(t)
	if symbols.IsErroneous(t) {
		return c, nil
	}
	ct, ok := t.(*symbols.ClassType)
	if !ok {
		return c, nil
	}
	if ok, err := s.completeAt(a, ct.Sym); !ok {
		return c, err
	}
	if !s.table.Sym(ct.Sym).Flags.Has(symbols.FlagAnnotation) {
		s.log.Error(a.AnnotationType, diag.KeyNotAnnotationType, ct.String())
		c.Type = &symbols.ErrorType{Sym: ct.Sym, Name: ct.Name, Original: ct}
		return c, nil
	}
	given := make(map[string]bool)
	for _, arg := range a.Args {
		name, value := "value", arg
		if as, ok := arg.(*tree.Assign); ok {
			if id, ok := as.LHS.(*tree.Ident); ok {
				name, value = id.Name, as.RHS
			}
		}
		elem, found := s.annotationElement(ct.Sym, name)
		if !found {
			s.log.Error(arg, diag.KeyCantResolveElement, name, ct.String())
			continue
		}
		given[name] = true
		var result symbols.Type = symbols.NoType
		if mt := symbols.AsMethodType(s.table.Sym(elem).Type); mt != nil {
			result = mt.Result
		}
		attr, err := s.enterAttributeValue(result, value, env)
		if err != nil {
			return c, err
		}
		c.Values = append(c.Values, symbols.ElementValue{Method: elem, Name: name, Value: attr})
	}
	s.checkMissingElements(a, ct, given)
	return c, nil
}

func (s *Session) annotationElement(class symbols.SymbolID, name string) (symbols.SymbolID, bool) {
	for _, e := range s.table.Members(class).LookupLocal(name) {
		sym := s.table.Sym(e.Sym)
		if sym.Kind != symbols.KindMethod {
			continue
		}
		if mt := symbols.AsMethodType(sym.Type); mt == nil || len(mt.Params) == 0 {
			return e.Sym, true
		}
	}
	return symbols.NoSymbolID, false
}

// checkMissingElements reports elements of a source annotation type that
// have no default and were not given. Artifact stubs do not record
// defaults, so their elements are not checked.
func (s *Session) checkMissingElements(a *tree.Annotation, ct *symbols.ClassType, given map[string]bool) {
	if s.typeEnvs[ct.Sym] == nil {
		return
	}
	for _, id := range s.table.Members(ct.Sym).Elems() {
		m := s.table.Sym(id)
		if m.Kind != symbols.KindMethod || m.Flags.Has(symbols.FlagHasInit) || given[m.Name] {
			continue
		}
		s.log.Error(a, diag.KeyAnnotationMissingValue, ct.String(), m.Name)
	}
}

// enterAttributeValue converts an element value expression to an
// attribute of the expected type.
func (s *Session) enterAttributeValue(expected symbols.Type, value tree.Expr, env *Env) (symbols.Attribute, error) {
	if at, ok := expected.(*symbols.ArrayType); ok {
		elems := []tree.Expr{value}
		if na, ok := value.(*tree.NewArray); ok && na.ElemType == nil {
			elems = na.Elems
		}
		arr := symbols.ArrayAttr{Type: at}
		for _, e := range elems {
			v, err := s.enterAttributeValue(at.Elem, e, env)
			if err != nil {
				return nil, err
			}
			arr.Values = append(arr.Values, v)
		}
		value.SetExprType(at)
		return arr, nil
	}
	if na, ok := value.(*tree.NewArray); ok {
		s.log.Error(na, diag.KeyTypeFoundReq, "array", expected.String())
		return symbols.ErrorAttr{}, nil
	}

	if ct, ok := expected.(*symbols.ClassType); ok {
		sym := s.table.Sym(ct.Sym)
		switch {
		case sym.Flags.Has(symbols.FlagAnnotation):
			a, ok := value.(*tree.Annotation)
			if !ok {
				s.log.Error(value, diag.KeyTypeFoundReq, "value", "@"+ct.String())
				return symbols.ErrorAttr{}, nil
			}
			c, err := s.enterAnnotation(a, env)
			if err != nil || c == nil {
				return symbols.ErrorAttr{}, err
			}
			return symbols.CompoundAttr{Compound: c}, nil
		case sym.FullName == "java.lang.Class":
			sel, ok := value.(*tree.Select)
			if !ok || sel.Name != "class" {
				s.log.Error(value, diag.KeyAttributeNotConstant)
				return symbols.ErrorAttr{}, nil
			}
			t, err := s.attribType(sel.Selected, env)
			if err != nil {
				return nil, err
			}
			value.SetExprType(ct)
			return symbols.ClassAttr{ClassType: t}, nil
		case sym.Flags.Has(symbols.FlagEnum):
			name := tree.Name(value)
			if field, ok := s.Member(ct.Sym, name, symbols.KindVar); ok && s.table.Sym(field).Flags.Has(symbols.FlagEnum) {
				setSym(value, field)
				value.SetExprType(ct)
				return symbols.EnumAttr{Type: ct, Field: field, Name: name}, nil
			}
			s.log.Error(value, diag.KeyCantResolveLocation, "variable", name, s.describe(ct.Sym))
			return symbols.ErrorAttr{}, nil
		}
	}

	v, t, ok := s.constantValue(value, env)
	if !ok {
		s.log.Error(value, diag.KeyAttributeNotConstant)
		return symbols.ErrorAttr{}, nil
	}
	if t == nil {
		t = expected
	}
	value.SetExprType(t)
	return symbols.ConstantAttr{Type: t, Value: v}, nil
}

func setSym(e tree.Expr, id symbols.SymbolID) {
	switch e := e.(type) {
	case *tree.Ident:
		e.Sym = id
	case *tree.Select:
		e.Sym = id
	}
}
