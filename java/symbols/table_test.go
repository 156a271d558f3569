package symbols

import (
	"errors"
	"testing"
)

type fakeLoader struct {
	classes map[string][]string
	loaded  []string
}

func (l *fakeLoader) ClassCompleter(fullName string) (Completer, bool) {
	for pkg, names := range l.classes {
		for _, n := range names {
			if qualify(pkg, n) == fullName {
				return CompleterFunc(func(t *Table, id SymbolID) error {
					l.loaded = append(l.loaded, fullName)
					if n == "Broken" {
						return &CompletionError{Sym: id, Name: fullName, Err: errors.New("bad stub")}
					}
					t.Sym(id).Supertype = NoType
					return nil
				}), true
			}
		}
	}
	return nil, false
}

func (l *fakeLoader) PackageExists(fullName string) bool {
	_, ok := l.classes[fullName]
	return ok
}

func (l *fakeLoader) PackageClasses(fullName string) []string { return l.classes[fullName] }

func TestEnterPackageCreatesChain(t *testing.T) {
	tab := NewTable()
	id := tab.EnterPackage("a.b.c")
	sym := tab.Sym(id)
	if sym.FullName != "a.b.c" || sym.Name != "c" {
		t.Errorf("package = %q (%q), want a.b.c (c)", sym.FullName, sym.Name)
	}
	owner := tab.Sym(sym.Owner)
	if owner.FullName != "a.b" {
		t.Errorf("owner = %q, want a.b", owner.FullName)
	}
	if again := tab.EnterPackage("a.b.c"); again != id {
		t.Errorf("EnterPackage returned %d on second call, want %d", again, id)
	}
	if !tab.PackageExists("a.b") {
		t.Error("PackageExists(a.b) = false, want true")
	}
}

func TestLoadClassRunsCompleterOnce(t *testing.T) {
	tab := NewTable()
	loader := &fakeLoader{classes: map[string][]string{"java.lang": {"Object", "Broken"}}}
	tab.SetLoader(loader)

	id, err := tab.LoadClass("java.lang.Object")
	if err != nil {
		t.Fatalf("LoadClass(Object) error = %v", err)
	}
	if again, _ := tab.LoadClass("java.lang.Object"); again != id {
		t.Errorf("second LoadClass = %d, want %d", again, id)
	}
	if len(loader.loaded) != 1 {
		t.Errorf("completer ran %d times, want 1", len(loader.loaded))
	}

	_, err = tab.LoadClass("java.lang.Broken")
	var cerr *CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("LoadClass(Broken) error = %v, want CompletionError", err)
	}
	if _, err := tab.LoadClass("java.lang.Missing"); err == nil {
		t.Error("LoadClass(Missing) succeeded, want error")
	}
}

func TestPackageCompletionEntersLoaderClasses(t *testing.T) {
	tab := NewTable()
	tab.SetLoader(&fakeLoader{classes: map[string][]string{"java.util": {"List", "Map"}}})
	pkg := tab.EnterPackage("java.util")
	if err := tab.Complete(pkg); err != nil {
		t.Fatal(err)
	}
	if _, ok := tab.Members(pkg).LookupFirst("Map"); !ok {
		t.Error("package members lack Map after completion")
	}
}

func TestIsSubClassTerminatesOnCycle(t *testing.T) {
	tab := NewTable()
	a := tab.EnterClass("A", tab.RootPackage)
	b := tab.EnterClass("B", tab.RootPackage)
	c := tab.EnterClass("C", tab.RootPackage)
	tab.Sym(a).Supertype = tab.ClassType(b)
	tab.Sym(b).Supertype = tab.ClassType(a)

	if !tab.IsSubClass(a, b) {
		t.Error("IsSubClass(A, B) = false, want true")
	}
	if tab.IsSubClass(a, c) {
		t.Error("IsSubClass(A, C) = true, want false")
	}
}

func TestEnterClassNestedNames(t *testing.T) {
	tab := NewTable()
	pkg := tab.EnterPackage("p")
	outer := tab.EnterClass("Outer", pkg)
	inner := tab.EnterClass("Inner", outer)
	if got := tab.Sym(inner).FullName; got != "p.Outer.Inner" {
		t.Errorf("FullName = %q, want p.Outer.Inner", got)
	}
	if got := tab.FlatName(inner); got != "p.Outer$Inner" {
		t.Errorf("FlatName = %q, want p.Outer$Inner", got)
	}
	if !tab.IsInner(inner) {
		t.Error("IsInner(Inner) = false, want true")
	}
}
