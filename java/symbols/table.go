package symbols

import (
	"fmt"
	"strings"
)

// Loader supplies classes that are not declared in source.
type Loader interface {
	// ClassCompleter returns the completer for an external class, or false
	// when the loader does not know fullName.
	ClassCompleter(fullName string) (Completer, bool)
	// PackageExists reports whether the loader has any class in the package.
	PackageExists(fullName string) bool
	// PackageClasses lists the simple names of the package's top-level classes.
	PackageClasses(fullName string) []string
}

// CompletionError reports that a symbol could not be completed, typically
// because its external artifact is missing or corrupt.
type CompletionError struct {
	Sym  SymbolID
	Name string
	Err  error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return "cannot complete " + e.Name
	}
	return fmt.Sprintf("cannot complete %s: %v", e.Name, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Table owns every symbol and scope of one compilation.
type Table struct {
	Syms   *Symbols
	Scopes *Scopes

	RootPackage    SymbolID
	UnnamedPackage SymbolID
	// NoSymbol owns synthesized error classes.
	NoSymbol SymbolID

	packages map[string]SymbolID
	classes  map[string]SymbolID
	loader   Loader
}

// NewTable creates a table holding only the root and unnamed packages.
func NewTable() *Table {
	syms := NewSymbols(0)
	t := &Table{
		Syms:     syms,
		Scopes:   NewScopes(syms, 0),
		packages: make(map[string]SymbolID),
		classes:  make(map[string]SymbolID),
	}
	t.NoSymbol = t.NewSymbol(KindNone, "", NoSymbolID, 0, NoType)
	t.RootPackage = t.newPackage("", NoSymbolID)
	t.UnnamedPackage = t.RootPackage
	return t
}

// SetLoader installs the source of external classes.
func (t *Table) SetLoader(l Loader) { t.loader = l }

// Sym returns the symbol for id. It never returns nil for IDs allocated by
// this table.
func (t *Table) Sym(id SymbolID) *Symbol { return t.Syms.Get(id) }

// Scope returns the scope for id.
func (t *Table) Scope(id ScopeID) *Scope { return t.Scopes.Get(id) }

// Members returns the members scope of a class or package without
// completing it.
func (t *Table) Members(id SymbolID) *Scope {
	sym := t.Sym(id)
	if sym == nil {
		return nil
	}
	return t.Scope(sym.Members)
}

// NewSymbol allocates a symbol.
func (t *Table) NewSymbol(kind Kind, name string, owner SymbolID, flags Flags, typ Type) SymbolID {
	return t.Syms.New(&Symbol{Kind: kind, Name: name, Owner: owner, Flags: flags, Type: typ})
}

// SetCompleter installs c as the lazy completer of id.
func (t *Table) SetCompleter(id SymbolID, c Completer) {
	if sym := t.Sym(id); sym != nil {
		sym.completer = c
	}
}

// Completer returns the pending completer of id, or nil.
func (t *Table) Completer(id SymbolID) Completer {
	if sym := t.Sym(id); sym != nil {
		return sym.completer
	}
	return nil
}

// Complete runs the pending completer of id once. The completer is cleared
// before it runs so re-entrant requests return immediately.
func (t *Table) Complete(id SymbolID) error {
	sym := t.Sym(id)
	if sym == nil || sym.completer == nil {
		return nil
	}
	c := sym.completer
	sym.completer = nil
	return c.Complete(t, id)
}

// EnterPackage returns the package named fullName, creating it and its
// enclosing packages on first use.
func (t *Table) EnterPackage(fullName string) SymbolID {
	if fullName == "" {
		return t.RootPackage
	}
	if id, ok := t.packages[fullName]; ok {
		return id
	}
	owner := t.RootPackage
	name := fullName
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		owner = t.EnterPackage(fullName[:i])
		name = fullName[i+1:]
	}
	return t.newPackage(name, owner)
}

func (t *Table) newPackage(name string, owner SymbolID) SymbolID {
	full := name
	if o := t.Sym(owner); o != nil && o.FullName != "" {
		full = o.FullName + "." + name
	}
	id := t.NewSymbol(KindPackage, name, owner, 0, nil)
	sym := t.Sym(id)
	sym.FullName = full
	sym.Type = &PackageType{Sym: id, Name: full}
	sym.Members = t.Scopes.New(ScopeMembers, id)
	sym.completer = CompleterFunc(completePackage)
	t.packages[full] = id
	return id
}

// completePackage enters the loader's classes of a package as not yet
// completed class symbols.
func completePackage(t *Table, id SymbolID) error {
	if t.loader == nil {
		return nil
	}
	pkg := t.Sym(id)
	for _, name := range t.loader.PackageClasses(pkg.FullName) {
		full := qualify(pkg.FullName, name)
		if cls, ok := t.classes[full]; ok {
			if t.Sym(cls).Owner == id {
				t.Members(id).EnterIfAbsent(cls)
			}
			continue
		}
		if c, ok := t.loader.ClassCompleter(full); ok {
			cls := t.EnterClass(name, id)
			t.SetCompleter(cls, c)
			t.Members(id).EnterIfAbsent(cls)
		}
	}
	return nil
}

// LookupPackage returns an already entered package.
func (t *Table) LookupPackage(fullName string) (SymbolID, bool) {
	if fullName == "" {
		return t.RootPackage, true
	}
	id, ok := t.packages[fullName]
	return id, ok
}

// PackageExists reports whether a package is known from source or from
// the loader.
func (t *Table) PackageExists(fullName string) bool {
	if id, ok := t.packages[fullName]; ok {
		if t.Members(id).HasElems() {
			return true
		}
		for _, sub := range t.packages {
			if sub != id && t.Sym(sub).Owner == id {
				return true
			}
		}
	}
	return t.loader != nil && t.loader.PackageExists(fullName)
}

// EnterClass returns the class named name inside owner, creating a fresh
// symbol in state Unseen if none exists. Classes owned by methods are never
// shared by name.
func (t *Table) EnterClass(name string, owner SymbolID) SymbolID {
	o := t.Sym(owner)
	full := ""
	if o != nil && (o.Kind == KindPackage || o.Kind == KindClass) {
		full = qualify(o.FullName, name)
		if id, ok := t.classes[full]; ok {
			return id
		}
	}
	id := t.NewSymbol(KindClass, name, owner, 0, nil)
	sym := t.Sym(id)
	sym.FullName = full
	if full == "" {
		sym.FullName = name
	}
	sym.Type = &ClassType{Sym: id, Name: sym.FullName}
	sym.Members = t.Scopes.New(ScopeMembers, id)
	if full != "" {
		t.classes[full] = id
	}
	return id
}

// ForgetClass drops the name binding of a class so a later EnterClass
// creates a new symbol.
func (t *Table) ForgetClass(id SymbolID) {
	if sym := t.Sym(id); sym != nil && t.classes[sym.FullName] == id {
		delete(t.classes, sym.FullName)
	}
}

// LookupClass returns an entered class by full name without consulting the
// loader.
func (t *Table) LookupClass(fullName string) (SymbolID, bool) {
	id, ok := t.classes[fullName]
	return id, ok
}

// LoadClass finds a class by full name, entering it from the loader on
// first request, and completes it.
func (t *Table) LoadClass(fullName string) (SymbolID, error) {
	id, ok := t.classes[fullName]
	if !ok {
		if t.loader == nil {
			return NoSymbolID, &CompletionError{Name: fullName}
		}
		c, found := t.loader.ClassCompleter(fullName)
		if !found {
			return NoSymbolID, &CompletionError{Name: fullName}
		}
		pkg, name := splitName(fullName)
		owner, isClass := t.classes[pkg]
		if !isClass {
			owner = t.EnterPackage(pkg)
		}
		id = t.EnterClass(name, owner)
		t.SetCompleter(id, c)
		if !isClass {
			t.Members(owner).EnterIfAbsent(id)
		}
	}
	if err := t.Complete(id); err != nil {
		return id, err
	}
	return id, nil
}

// ClassType returns the declared type of a class symbol.
func (t *Table) ClassType(id SymbolID) Type {
	if sym := t.Sym(id); sym != nil && sym.Type != nil {
		return sym.Type
	}
	return NoType
}

// PlatformType loads a well-known class and returns its type, or an error
// type when the class is unavailable.
func (t *Table) PlatformType(fullName string) Type {
	id, err := t.LoadClass(fullName)
	if err != nil || !id.IsValid() {
		return &ErrorType{Sym: id, Name: fullName}
	}
	return t.ClassType(id)
}

// Well-known platform classes.
const (
	ObjectName           = "java.lang.Object"
	StringName           = "java.lang.String"
	EnumName             = "java.lang.Enum"
	ComparableName       = "java.lang.Comparable"
	SerializableName     = "java.io.Serializable"
	ThrowableName        = "java.lang.Throwable"
	RuntimeExceptionName = "java.lang.RuntimeException"
	DeprecatedName       = "java.lang.Deprecated"
	AnnotationName       = "java.lang.annotation.Annotation"
	RepeatableName       = "java.lang.annotation.Repeatable"
)

// EnclosingClass walks owners until it reaches a class symbol.
func (t *Table) EnclosingClass(id SymbolID) SymbolID {
	for sym := t.Sym(id); sym != nil; sym = t.Sym(sym.Owner) {
		if sym.Kind == KindClass {
			return sym.ID
		}
	}
	return NoSymbolID
}

// PackageOf walks owners until it reaches a package symbol.
func (t *Table) PackageOf(id SymbolID) SymbolID {
	for sym := t.Sym(id); sym != nil; sym = t.Sym(sym.Owner) {
		if sym.Kind == KindPackage {
			return sym.ID
		}
	}
	return t.RootPackage
}

// OutermostClass returns the top-level class enclosing id.
func (t *Table) OutermostClass(id SymbolID) SymbolID {
	result := NoSymbolID
	for sym := t.Sym(id); sym != nil && sym.Kind != KindPackage; sym = t.Sym(sym.Owner) {
		if sym.Kind == KindClass {
			result = sym.ID
		}
	}
	return result
}

// IsLocal reports whether a symbol is owned, directly or through classes,
// by a method or variable.
func (t *Table) IsLocal(id SymbolID) bool {
	for sym := t.Sym(t.Sym(id).Owner); sym != nil; sym = t.Sym(sym.Owner) {
		switch sym.Kind {
		case KindMethod, KindVar:
			return true
		case KindPackage:
			return false
		}
	}
	return false
}

// IsInner reports whether a class has an enclosing instance.
func (t *Table) IsInner(id SymbolID) bool {
	sym := t.Sym(id)
	if sym == nil || sym.Kind != KindClass || sym.Flags.Any(FlagStatic|FlagInterface) {
		return false
	}
	owner := t.Sym(sym.Owner)
	return owner != nil && owner.Kind != KindPackage
}

// SupertypeSymbols returns the symbols of a class's supertype and
// interfaces, skipping erroneous entries.
func (t *Table) SupertypeSymbols(id SymbolID) []SymbolID {
	sym := t.Sym(id)
	if sym == nil {
		return nil
	}
	var result []SymbolID
	if s, ok := ClassSymbolOf(sym.Supertype); ok && !IsErroneous(sym.Supertype) {
		result = append(result, s)
	}
	for _, it := range sym.Interfaces {
		if s, ok := ClassSymbolOf(it); ok && !IsErroneous(it) {
			result = append(result, s)
		}
	}
	return result
}

// IsSubClass reports whether sub equals base or inherits from it, completing
// classes along the way. Cyclic hierarchies terminate.
func (t *Table) IsSubClass(sub, base SymbolID) bool {
	seen := make(map[SymbolID]bool)
	var walk func(SymbolID) bool
	walk = func(id SymbolID) bool {
		if id == base {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		if err := t.Complete(id); err != nil {
			return false
		}
		for _, s := range t.SupertypeSymbols(id) {
			if walk(s) {
				return true
			}
		}
		return false
	}
	return walk(sub)
}

// Describe renders a symbol for diagnostics.
func (t *Table) Describe(id SymbolID) string {
	sym := t.Sym(id)
	if sym == nil {
		return "<none>"
	}
	switch sym.Kind {
	case KindPackage, KindClass:
		if sym.FullName != "" {
			return sym.FullName
		}
	case KindMethod:
		name := sym.Name
		if sym.IsConstructor() {
			name = t.Sym(sym.Owner).Name
		}
		if mt := AsMethodType(sym.Type); mt != nil {
			return name + "(" + joinTypes(mt.Params, ",") + ")"
		}
		return name + "()"
	}
	return sym.Name
}

// FlatName renders a class name with '$' separating nested classes.
func (t *Table) FlatName(id SymbolID) string {
	sym := t.Sym(id)
	owner := t.Sym(sym.Owner)
	if owner != nil && owner.Kind == KindClass {
		return t.FlatName(owner.ID) + "$" + sym.Name
	}
	return sym.FullName
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func splitName(fullName string) (string, string) {
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		return fullName[:i], fullName[i+1:]
	}
	return "", fullName
}
