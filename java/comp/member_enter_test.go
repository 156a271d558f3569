package comp

import (
	"context"
	"errors"
	"testing"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

func TestDuplicateMethodReportedOnce(t *testing.T) {
	var b src
	first := b.method(0, "m", b.void(), nil)
	second := b.method(0, "m", b.void(), nil)
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", nil, b.class(0, "A", first, second)))

	if got := countKey(s, diag.KeyAlreadyDefined); got != 1 {
		t.Fatalf("already.defined errors = %d, want 1 (all: %v)", got, errorKeys(s))
	}
	if got := s.Log().ErrorCount(); got != 1 {
		t.Errorf("ErrorCount() = %d, want 1: %v", got, errorKeys(s))
	}
	a := mustClass(t, s, "p.A")
	ms := membersNamed(s, a.ID, "m")
	if len(ms) != 1 {
		t.Fatalf("members named m = %d, want 1", len(ms))
	}
	if ms[0].ID != first.Sym {
		t.Errorf("entered m = %d, want the first declaration %d", ms[0].ID, first.Sym)
	}
	if d, ok := s.Log().ErrDiag(second); !ok || d.Key != diag.KeyAlreadyDefined {
		t.Errorf("error at second m = %v, %v; want already.defined", d.Key, ok)
	}
}

func TestOverloadsAreNotDuplicates(t *testing.T) {
	var b src
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", nil, b.class(0, "A",
		b.method(0, "m", b.void(), nil),
		b.method(0, "m", b.void(), []*tree.VarDecl{b.param("x", b.prim(symbols.TagInt))}),
	)))
	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	a := mustClass(t, s, "p.A")
	if got := len(membersNamed(s, a.ID, "m")); got != 2 {
		t.Errorf("members named m = %d, want 2", got)
	}
}

func TestExplicitConstructorSuppressesDefault(t *testing.T) {
	var b src
	decl := b.class(0, "E", b.ctor(0, []*tree.VarDecl{b.param("x", b.prim(symbols.TagInt))}))
	s := newTestSession(t)
	enterUnits(t, s, b.unit("E.java", "p", nil, decl))

	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	if got := len(decl.Defs); got != 1 {
		t.Errorf("len(Defs) = %d, want 1", got)
	}
	e := mustClass(t, s, "p.E")
	ctors := membersNamed(s, e.ID, symbols.ConstructorName)
	if len(ctors) != 1 {
		t.Fatalf("constructors = %d, want 1", len(ctors))
	}
	if ctors[0].Flags.Has(symbols.FlagGeneratedConstr) {
		t.Errorf("constructor flags = %s, want no generated constructor", ctors[0].Flags)
	}
	mt := methodType(t, ctors[0])
	if len(mt.Params) != 1 || mt.Params[0] != symbols.IntType {
		t.Errorf("constructor params = %v, want [int]", mt.Params)
	}
	if len(ctors[0].Params) != 1 || s.Table().Sym(ctors[0].Params[0]).Name != "x" {
		t.Errorf("constructor param symbols = %v, want x", ctors[0].Params)
	}
}

func TestDefaultConstructor(t *testing.T) {
	var b src
	decl := b.class(symbols.FlagPublic, "D")
	s := newTestSession(t)
	enterUnits(t, s, b.unit("D.java", "p", nil, decl))

	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	if len(decl.Defs) != 1 {
		t.Fatalf("len(Defs) = %d, want the generated constructor", len(decl.Defs))
	}
	ctor, ok := decl.Defs[0].(*tree.MethodDecl)
	if !ok || !tree.IsConstructor(ctor) {
		t.Fatalf("Defs[0] = %s, want a constructor", tree.String(decl.Defs[0]))
	}
	if !tree.IsSynthetic(ctor) {
		t.Errorf("generated constructor is not synthetic")
	}
	sym := s.Table().Sym(ctor.Sym)
	want := symbols.FlagPublic | symbols.FlagGeneratedConstr
	if sym.Flags&want != want {
		t.Errorf("constructor flags = %s, want %s", sym.Flags, want)
	}
	if got := len(ctor.Body.Stats); got != 1 || !tree.IsSelfCall(ctor.Body.Stats[0]) {
		t.Errorf("constructor body = %s, want a super() call", tree.String(ctor.Body))
	}
}

func TestObjectHasNoSuperCall(t *testing.T) {
	var b src
	decl := b.class(symbols.FlagPublic, "Object")
	s := newTestSession(t, func(c *config.Config) { c.Bootstrap = true })
	enterUnits(t, s, b.unit("Object.java", "java.lang", nil, decl))

	obj := mustClass(t, s, symbols.ObjectName)
	if obj.Supertype != symbols.NoType {
		t.Errorf("Object supertype = %v, want none", obj.Supertype)
	}
	ctor := decl.Defs[0].(*tree.MethodDecl)
	if len(ctor.Body.Stats) != 0 {
		t.Errorf("Object constructor body = %s, want empty", tree.String(ctor.Body))
	}
}

func TestEnumMembers(t *testing.T) {
	for _, bootstrap := range []bool{false, true} {
		name := "batch"
		if bootstrap {
			name = "bootstrap"
		}
		t.Run(name, func(t *testing.T) {
			var b src
			decl := b.class(symbols.FlagEnum, "Color", b.enumConstant("RED"), b.enumConstant("GREEN"))
			s := newTestSession(t, func(c *config.Config) { c.Bootstrap = bootstrap })
			enterUnits(t, s, b.unit("Color.java", "p", nil, decl))

			if got := s.Log().ErrorCount(); got != 0 {
				t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
			}
			color := mustClass(t, s, "p.Color")
			if !color.Flags.Has(symbols.FlagFinal) {
				t.Errorf("enum flags = %s, want final", color.Flags)
			}

			values := membersNamed(s, color.ID, "values")
			if len(values) != 1 {
				t.Fatalf("values() members = %d, want 1", len(values))
			}
			vt := methodType(t, values[0])
			arr, ok := vt.Result.(*symbols.ArrayType)
			if !ok || !symbols.IsSameType(arr.Elem, color.Type) || len(vt.Params) != 0 {
				t.Errorf("values() = %v, want () Color[]", vt)
			}
			if !values[0].IsStatic() || !values[0].Flags.Has(symbols.FlagPublic) {
				t.Errorf("values() flags = %s, want public static", values[0].Flags)
			}

			valueOf := membersNamed(s, color.ID, "valueOf")
			if len(valueOf) != 1 {
				t.Fatalf("valueOf members = %d, want 1", len(valueOf))
			}
			ot := methodType(t, valueOf[0])
			if len(ot.Params) != 1 || !s.isClass(ot.Params[0], symbols.StringName) || !symbols.IsSameType(ot.Result, color.Type) {
				t.Errorf("valueOf = %v, want (String) Color", ot)
			}

			for _, c := range []string{"RED", "GREEN"} {
				vs := membersNamed(s, color.ID, c)
				if len(vs) != 1 {
					t.Fatalf("constant %s entered %d times", c, len(vs))
				}
				want := symbols.FlagEnum | symbols.FlagPublic | symbols.FlagStatic | symbols.FlagFinal
				if vs[0].Flags&want != want {
					t.Errorf("%s flags = %s, want %s", c, vs[0].Flags, want)
				}
			}

			ctors := membersNamed(s, color.ID, symbols.ConstructorName)
			if len(ctors) != 1 || !ctors[0].Flags.Has(symbols.FlagPrivate) {
				t.Errorf("enum constructor = %v, want one private constructor", ctors)
			}

			for _, m := range []string{"ordinal", "name", "compareTo"} {
				got := len(membersNamed(s, color.ID, m))
				want := 0
				if bootstrap {
					want = 1
				}
				if got != want {
					t.Errorf("members named %s = %d, want %d", m, got, want)
				}
			}
			if bootstrap {
				cmp := methodType(t, membersNamed(s, color.ID, "compareTo")[0])
				if len(cmp.Params) != 1 || !symbols.IsSameType(cmp.Params[0], color.Type) {
					t.Errorf("compareTo params = %v, want [Color]", cmp.Params)
				}
				if len(color.Interfaces) != 2 {
					t.Errorf("interfaces = %v, want Serializable and Comparable<Color>", color.Interfaces)
				}
			} else if !s.isClass(color.Supertype, symbols.EnumName) {
				t.Errorf("supertype = %v, want java.lang.Enum<Color>", color.Supertype)
			}

			if got := len(decl.Defs); got != 3 {
				t.Errorf("len(Defs) = %d, want constants and the constructor only", got)
			}
		})
	}
}

func TestCyclicInheritanceReportedOnce(t *testing.T) {
	var b src
	a := b.class(0, "A")
	a.Extends = b.name("B")
	bb := b.class(0, "B")
	bb.Extends = b.name("A")
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", nil, a, bb))

	if got := countKey(s, diag.KeyCyclicInheritance); got != 1 {
		t.Fatalf("cyclic.inheritance errors = %d, want 1 (all: %v)", got, errorKeys(s))
	}
	for _, name := range []string{"p.A", "p.B"} {
		if c := mustClass(t, s, name); c.State != symbols.StateMembersDone {
			t.Errorf("%s state = %v, want members done", name, c.State)
		}
	}
	if s.Table().IsSubClass(a.Sym, bb.Sym) && s.Table().IsSubClass(bb.Sym, a.Sym) {
		t.Errorf("cycle between A and B was not broken")
	}
}

func TestSupertypeCompletesFirst(t *testing.T) {
	var b src
	sub := b.class(0, "Sub")
	sub.Extends = b.name("Base")
	base := b.class(0, "Base", b.method(0, "m", b.void(), nil))
	s := newTestSession(t)
	enterUnits(t, s, b.unit("Sub.java", "p", nil, sub, base))

	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	st := mustClass(t, s, "p.Sub").Supertype
	if id, ok := symbols.ClassSymbolOf(st); !ok || id != base.Sym {
		t.Errorf("Sub supertype = %v, want p.Base", st)
	}
	if !s.Table().IsSubClass(sub.Sym, base.Sym) {
		t.Errorf("IsSubClass(Sub, Base) = false")
	}
	if got := s.Todo().Len(); got != 2 {
		t.Errorf("todo length = %d, want 2", got)
	}
}

func TestFieldConstantsAndNestedClasses(t *testing.T) {
	var b src
	inner := b.class(symbols.FlagStatic, "Inner", b.field(0, "x", b.prim(symbols.TagInt), nil))
	outer := b.class(0, "Outer",
		b.field(symbols.FlagStatic|symbols.FlagFinal, "N", b.prim(symbols.TagInt), b.intLit(3)),
		inner,
	)
	s := newTestSession(t)
	enterUnits(t, s, b.unit("Outer.java", "p", nil, outer))

	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	o := mustClass(t, s, "p.Outer")
	n := membersNamed(s, o.ID, "N")
	if len(n) != 1 || n[0].ConstValue != 3 {
		t.Fatalf("N = %v, want a constant 3", n)
	}
	if !n[0].Flags.Has(symbols.FlagHasInit) {
		t.Errorf("N flags = %s, want an initializer", n[0].Flags)
	}
	in := mustClass(t, s, "p.Outer.Inner")
	if in.Owner != o.ID {
		t.Errorf("Inner owner = %d, want Outer", in.Owner)
	}
	if !s.Table().Members(o.ID).Includes(in.ID) {
		t.Errorf("Inner is not a member of Outer")
	}
	if got := len(membersNamed(s, in.ID, "x")); got != 1 {
		t.Errorf("Inner members named x = %d, want 1", got)
	}
}

func TestDuplicateTopLevelClass(t *testing.T) {
	var b src
	s := newTestSession(t)
	enterUnits(t, s,
		b.unit("A.java", "p", nil, b.class(0, "A")),
		b.unit("A2.java", "p", nil, b.class(0, "A")),
	)
	if got := countKey(s, diag.KeyDuplicateClass); got != 1 {
		t.Errorf("duplicate.class errors = %d, want 1 (all: %v)", got, errorKeys(s))
	}
}

func TestUnresolvedSupertype(t *testing.T) {
	var b src
	a := b.class(0, "A")
	a.Extends = b.name("Missing")
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", nil, a))

	if d, ok := s.Log().ErrDiag(a.Extends); !ok || d.Key != diag.KeyCantResolveLocation {
		t.Fatalf("error at extends clause = %q, %v; want cant.resolve.location", d.Key, ok)
	}
	c := mustClass(t, s, "p.A")
	if !symbols.IsErroneous(c.Supertype) {
		t.Errorf("supertype = %v, want an error type", c.Supertype)
	}
	if c.State != symbols.StateMembersDone {
		t.Errorf("state = %v, want members done", c.State)
	}
}

func TestCancelledEnterAbandons(t *testing.T) {
	var b src
	s := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Enter(ctx, []*tree.CompilationUnit{b.unit("A.java", "p", nil, b.class(0, "A"))})
	var brk *BreakError
	if !errors.As(err, &brk) {
		t.Fatalf("Enter error = %v, want a BreakError", err)
	}
	if !IsAbort(err) {
		t.Errorf("IsAbort(%v) = false", err)
	}
	if len(s.halfcompleted) != 0 || !s.isFirst {
		t.Errorf("member queue not abandoned: %d pending, isFirst = %v", len(s.halfcompleted), s.isFirst)
	}
}

// cancelWhen is a context that reports cancellation once cond holds.
type cancelWhen struct {
	context.Context
	cond func() bool
}

func (c cancelWhen) Err() error {
	if c.cond() {
		return context.Canceled
	}
	return nil
}

func TestCancelledEnterDropsQueuedAnnotations(t *testing.T) {
	var b src
	a := b.class(0, "A")
	a.Mods.Annotations = []*tree.Annotation{b.annotation("Deprecated")}
	s := newTestSession(t)
	ctx := cancelWhen{Context: context.Background(), cond: func() bool { return s.Annotate().Pending() > 0 }}
	err := s.Enter(ctx, []*tree.CompilationUnit{b.unit("A.java", "p", nil, a, b.class(0, "B"))})
	var brk *BreakError
	if !errors.As(err, &brk) {
		t.Fatalf("Enter error = %v, want a BreakError", err)
	}
	if got := s.Annotate().Pending(); got != 0 {
		t.Errorf("Pending() = %d after abort, want 0", got)
	}
	if got := len(mustClass(t, s, "p.A").Annotations); got != 0 {
		t.Errorf("annotations = %d, want none linked after abort", got)
	}
}

func TestEnterClassWithMethod(t *testing.T) {
	var b src
	m := b.method(0, "m", b.void(), []*tree.VarDecl{b.param("x", b.prim(symbols.TagInt))}, b.ret())
	decl := b.class(0, "A", m)
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", nil, decl))

	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	ms := membersNamed(s, decl.Sym, "m")
	if len(ms) != 1 {
		t.Fatalf("members named m = %d, want 1", len(ms))
	}
	if got := len(ms[0].Params); got != 1 {
		t.Errorf("params = %d, want 1", got)
	}
	env := s.methodEnv(m, s.ClassEnv(decl.Sym))
	if _, ok := s.Table().Scope(env.Scope).LookupFirst("this"); !ok {
		t.Errorf("this is not visible in the method scope")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	var b1, b2 src
	s1 := newTestSession(t)
	s2 := newTestSession(t)
	enterUnits(t, s1, b1.unit("A.java", "p", nil, b1.class(0, "A")))
	enterUnits(t, s2, b2.unit("B.java", "p", nil, b2.class(0, "B")))

	if _, ok := s1.Table().LookupClass("p.B"); ok {
		t.Errorf("p.B leaked into the first session")
	}
	if _, ok := s2.Table().LookupClass("p.A"); ok {
		t.Errorf("p.A leaked into the second session")
	}
	if s1.ID == s2.ID {
		t.Errorf("sessions share id %s", s1.ID)
	}
}

func TestEnterLocalClasses(t *testing.T) {
	var b src
	m := b.method(0, "m", b.void(), nil)
	decl := b.class(0, "A", m)
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", nil, decl))
	env := s.methodEnv(m, s.ClassEnv(decl.Sym))

	t.Run("local", func(t *testing.T) {
		local := b.class(0, "L", b.method(0, "f", b.void(), nil))
		if err := s.EnterLocal(context.Background(), local, nil, env); err != nil {
			t.Fatal(err)
		}
		l := s.Table().Sym(local.Sym)
		if l.Owner != m.Sym {
			t.Errorf("owner = %d, want the method %d", l.Owner, m.Sym)
		}
		if !s.Table().IsLocal(local.Sym) {
			t.Errorf("L is not local")
		}
		if l.State != symbols.StateMembersDone {
			t.Errorf("state = %v, want members done", l.State)
		}
		if got := len(membersNamed(s, local.Sym, "f")); got != 1 {
			t.Errorf("members named f = %d, want 1", got)
		}
		if !s.Table().Scope(env.Scope).Includes(local.Sym) {
			t.Errorf("L was not entered into the method scope")
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		object, _ := s.LookupClass(symbols.ObjectName)
		ctor, ok := s.Member(object, symbols.ConstructorName, symbols.KindMethod)
		if !ok {
			t.Fatal("Object has no constructor")
		}
		anon := b.class(0, "")
		nc := &tree.NewClass{ExprBase: b.ex(), Clazz: b.name("Object"), Def: anon, Constructor: ctor}
		if err := s.EnterLocal(context.Background(), anon, nc, env); err != nil {
			t.Fatal(err)
		}
		if s.Log().ErrorCount() != 0 {
			t.Fatalf("errors: %v", errorKeys(s))
		}
		gen, ok := anon.Defs[0].(*tree.MethodDecl)
		if !ok || !tree.IsConstructor(gen) {
			t.Fatalf("Defs[0] = %s, want the generated constructor", tree.String(anon.Defs[0]))
		}
		want := symbols.FlagAnonConstr | symbols.FlagGeneratedConstr
		if f := s.Table().Sym(gen.Sym).Flags; f&want != want {
			t.Errorf("constructor flags = %s, want %s", f, want)
		}
	})
}
