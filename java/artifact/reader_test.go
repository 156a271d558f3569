package artifact

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/saic/java/symbols"
)

func newPlatformTable(t *testing.T) (*symbols.Table, *Reader) {
	t.Helper()
	tab := symbols.NewTable()
	r := NewReader(PlatformIndex())
	r.Install(tab)
	return tab, r
}

func TestReaderCompletesPlatformClass(t *testing.T) {
	tab, _ := newPlatformTable(t)
	id, err := tab.LoadClass("java.lang.RuntimeException")
	if err != nil {
		t.Fatalf("LoadClass error = %v", err)
	}
	sym := tab.Sym(id)
	if !sym.Flags.Has(symbols.FlagFromClass | symbols.FlagPublic) {
		t.Errorf("flags = %s, want public fromclass", sym.Flags)
	}
	if got := sym.Supertype.String(); got != "java.lang.Exception" {
		t.Errorf("supertype = %q, want java.lang.Exception", got)
	}
	ctors := tab.Members(id).Lookup(symbols.ConstructorName)
	if len(ctors) != 2 {
		t.Fatalf("constructors = %d, want 2", len(ctors))
	}
	throwable, err := tab.LoadClass(symbols.ThrowableName)
	if err != nil {
		t.Fatal(err)
	}
	if !tab.IsSubClass(id, throwable) {
		t.Error("RuntimeException is not a subclass of Throwable")
	}
}

func TestReaderGenericSignatures(t *testing.T) {
	tab, _ := newPlatformTable(t)
	id, err := tab.LoadClass(symbols.EnumName)
	if err != nil {
		t.Fatal(err)
	}
	sym := tab.Sym(id)
	if got := sym.Type.String(); got != "java.lang.Enum<E>" {
		t.Errorf("type = %q, want java.lang.Enum<E>", got)
	}
	if len(sym.Interfaces) != 2 || sym.Interfaces[0].String() != "java.lang.Comparable<E>" {
		t.Errorf("interfaces = %v", sym.Interfaces)
	}
	compareTo, ok := tab.Members(id).LookupFirst("compareTo")
	if !ok {
		t.Fatal("compareTo missing")
	}
	mt := symbols.AsMethodType(tab.Sym(compareTo).Type)
	tv, ok := mt.Params[0].(*symbols.TypeVar)
	if !ok || tab.Sym(tv.Sym).Owner != id {
		t.Errorf("compareTo parameter = %v, want class type variable E", mt.Params[0])
	}
}

func TestReaderNestedClass(t *testing.T) {
	tab, _ := newPlatformTable(t)
	mapID, err := tab.LoadClass("java.util.Map")
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := tab.Members(mapID).LookupFirst("Entry")
	if !ok {
		t.Fatal("Map.Entry not entered")
	}
	if err := tab.Complete(entry); err != nil {
		t.Fatal(err)
	}
	if got := tab.Sym(entry).FullName; got != "java.util.Map.Entry" {
		t.Errorf("FullName = %q", got)
	}
}

const brokenStubs = `
classes:
  - name: p.Good
    kind: class
    super: java/lang/Object
  - name: p.Broken
    kind: [not, a, kind]
`

func TestBrokenStubYieldsCompletionError(t *testing.T) {
	idx := PlatformIndex()
	if err := idx.LoadYAML(strings.NewReader(brokenStubs)); err != nil {
		t.Fatalf("LoadYAML error = %v", err)
	}
	if got := idx.PackageClasses("p"); len(got) != 2 {
		t.Errorf("PackageClasses(p) = %v, want 2 classes", got)
	}
	tab := symbols.NewTable()
	NewReader(idx).Install(tab)
	if _, err := tab.LoadClass("p.Good"); err != nil {
		t.Errorf("LoadClass(p.Good) error = %v", err)
	}
	_, err := tab.LoadClass("p.Broken")
	var cerr *symbols.CompletionError
	if !errors.As(err, &cerr) {
		t.Fatalf("LoadClass(p.Broken) error = %v, want CompletionError", err)
	}
}

func TestCacheRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := PlatformIndex().WriteCache(&buf); err != nil {
		t.Fatalf("WriteCache error = %v", err)
	}
	idx := NewIndex()
	if err := idx.ReadCache(&buf); err != nil {
		t.Fatalf("ReadCache error = %v", err)
	}
	if idx.Len() != PlatformIndex().Len() {
		t.Errorf("Len() = %d, want %d", idx.Len(), PlatformIndex().Len())
	}
	stub, err := idx.Stub("java.lang.Enum")
	if err != nil {
		t.Fatal(err)
	}
	if stub.Kind != ClassKindClass || len(stub.Methods) != 5 {
		t.Errorf("Enum stub = %+v", stub)
	}
	if !idx.PackageExists("java.lang") {
		t.Error("PackageExists(java.lang) = false")
	}
}
