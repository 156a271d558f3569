package comp

import (
	"context"
	"errors"
	"testing"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/artifact"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

func scopeNames(s *Session, id symbols.ScopeID) map[string]int {
	names := make(map[string]int)
	for _, e := range s.Table().Scope(id).Elems() {
		names[s.Table().Sym(e).Name]++
	}
	return names
}

func TestImportsAreIdempotent(t *testing.T) {
	var b src
	unit := b.unit("A.java", "p",
		[]*tree.Import{b.imp("java.util.List", false), b.imp("java.util.*", false)},
		b.class(0, "A", b.field(0, "xs", b.name("List"), nil)),
	)
	s := newTestSession(t)
	enterUnits(t, s, unit)
	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}

	named := scopeNames(s, unit.NamedImportScope)
	star := scopeNames(s, unit.StarImportScope)
	if named["List"] != 1 {
		t.Errorf("named import scope = %v, want List once", named)
	}
	for _, name := range []string{"Object", "String", "Map"} {
		if star[name] != 1 {
			t.Errorf("star import scope has %s %d times, want 1", name, star[name])
		}
	}

	t.Run("repeat", func(t *testing.T) {
		if err := s.memberEnterUnit(unit); err != nil {
			t.Fatal(err)
		}
		delete(s.importsDone, unit)
		if err := s.memberEnterUnit(unit); err != nil {
			t.Fatal(err)
		}
		if got := scopeNames(s, unit.NamedImportScope); !sameCounts(got, named) {
			t.Errorf("named import scope after repeat = %v, want %v", got, named)
		}
		if got := scopeNames(s, unit.StarImportScope); !sameCounts(got, star) {
			t.Errorf("star import scope after repeat = %v, want %v", got, star)
		}
	})

	t.Run("resolves", func(t *testing.T) {
		a := mustClass(t, s, "p.A")
		xs := membersNamed(s, a.ID, "xs")
		if len(xs) != 1 || !s.isClass(xs[0].Type, "java.util.List") {
			t.Errorf("xs = %v, want a java.util.List field", xs)
		}
	})
}

func sameCounts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name   string
		imp    string
		static bool
		decls  []string
		want   string
	}{
		{"missing package", "nope.*", false, nil, diag.KeyDoesntExist},
		{"missing class", "java.util.Nope", false, nil, diag.KeyCantResolveLocation},
		{"clash with unit class", "java.util.List", false, []string{"List"}, diag.KeyAlreadyDefinedThisUnit},
		{"missing static member", "java.lang.String.nope", true, nil, diag.KeyCantResolveLocation},
		{"static import from package", "java.util.foo", true, nil, diag.KeyStaticImportOnlyClasses},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b src
			var defs []tree.Node
			for _, d := range tt.decls {
				defs = append(defs, b.class(0, d))
			}
			s := newTestSession(t)
			enterUnits(t, s, b.unit("A.java", "p", []*tree.Import{b.imp(tt.imp, tt.static)}, defs...))
			if got := countKey(s, tt.want); got != 1 {
				t.Errorf("%s errors = %d, want 1 (all: %v)", tt.want, got, errorKeys(s))
			}
		})
	}
}

func TestMissingPackageIsRecoverable(t *testing.T) {
	var b src
	imp := b.imp("nope.*", false)
	s := newTestSession(t)
	enterUnits(t, s, b.unit("A.java", "p", []*tree.Import{imp}))

	d, ok := s.Log().ErrDiag(imp.Qualid.(*tree.Select).Selected)
	if !ok {
		t.Fatalf("no error at the package name: %v", errorKeys(s))
	}
	if d.Flags&diag.FlagRecoverable == 0 {
		t.Errorf("flags = %v, want recoverable", d.Flags)
	}
}

func TestStaticImportOnDemandDiamond(t *testing.T) {
	var b src
	iface := b.class(symbols.FlagInterface|symbols.FlagPublic, "I",
		b.field(symbols.FlagPublic|symbols.FlagStatic|symbols.FlagFinal, "K", b.prim(symbols.TagInt), b.intLit(1)),
	)
	base := b.class(symbols.FlagPublic, "B")
	base.Implements = []tree.Expr{b.name("I")}
	derived := b.class(symbols.FlagPublic, "D",
		b.field(symbols.FlagPublic|symbols.FlagStatic, "F", b.prim(symbols.TagInt), nil),
		b.field(symbols.FlagPrivate|symbols.FlagStatic, "hidden", b.prim(symbols.TagInt), nil),
		b.field(symbols.FlagPublic, "instance", b.prim(symbols.TagInt), nil),
	)
	derived.Extends = b.name("B")
	derived.Implements = []tree.Expr{b.name("I")}
	user := b.unit("U.java", "q", []*tree.Import{b.imp("p.D.*", true)}, b.class(0, "U"))

	s := newTestSession(t)
	enterUnits(t, s,
		b.unit("I.java", "p", nil, iface),
		b.unit("B.java", "p", nil, base),
		b.unit("D.java", "p", nil, derived),
		user,
	)
	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	star := scopeNames(s, user.StarImportScope)
	if star["K"] != 1 {
		t.Errorf("K imported %d times, want once", star["K"])
	}
	if star["F"] != 1 {
		t.Errorf("F imported %d times, want once", star["F"])
	}
	for _, name := range []string{"hidden", "instance"} {
		if star[name] != 0 {
			t.Errorf("%s was imported", name)
		}
	}
}

func TestStaticImportNamed(t *testing.T) {
	var b src
	holder := b.class(symbols.FlagPublic, "H",
		b.method(symbols.FlagPublic|symbols.FlagStatic, "f", b.void(), nil),
		b.method(symbols.FlagPublic|symbols.FlagStatic, "f", b.void(), []*tree.VarDecl{b.param("x", b.prim(symbols.TagInt))}),
	)
	user := b.unit("U.java", "q", []*tree.Import{b.imp("p.H.f", true)}, b.class(0, "U"))
	s := newTestSession(t)
	enterUnits(t, s, b.unit("H.java", "p", nil, holder), user)

	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	if got := scopeNames(s, user.NamedImportScope)["f"]; got != 2 {
		t.Errorf("overloads of f imported = %d, want 2", got)
	}
}

func TestMissingJavaLang(t *testing.T) {
	t.Run("batch aborts", func(t *testing.T) {
		var b src
		s := NewSession(config.Default(), WithIndex(artifact.NewIndex()))
		err := s.Enter(context.Background(), []*tree.CompilationUnit{b.unit("A.java", "p", nil)})
		var fatal *FatalError
		if !errors.As(err, &fatal) {
			t.Fatalf("Enter error = %v, want a FatalError", err)
		}
		if fatal.Key != diag.KeyFatalNoJavaLang {
			t.Errorf("fatal key = %q, want %q", fatal.Key, diag.KeyFatalNoJavaLang)
		}
	})
	t.Run("ide reports", func(t *testing.T) {
		var b src
		cfg := config.Default()
		cfg.Mode = config.ModeIDE
		s := NewSession(cfg, WithIndex(artifact.NewIndex()))
		enterUnits(t, s, b.unit("A.java", "p", nil))
		if got := countKey(s, diag.KeyCantAccess); got != 1 {
			t.Errorf("cant.access errors = %d, want 1 (all: %v)", got, errorKeys(s))
		}
	})
}

func TestPackageClashesWithClass(t *testing.T) {
	var b src
	s := newTestSession(t)
	enterUnits(t, s,
		b.unit("A.java", "p", nil, b.class(0, "A")),
		b.unit("B.java", "p.A", nil, b.class(0, "B")),
	)
	if got := countKey(s, diag.KeyPkgClashesWithClass); got != 1 {
		t.Errorf("pkg.clashes errors = %d, want 1 (all: %v)", got, errorKeys(s))
	}
}
