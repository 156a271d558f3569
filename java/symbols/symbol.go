package symbols

import "fmt"

// Completer fills in a symbol lazily, the first time it is needed.
type Completer interface {
	Complete(t *Table, sym SymbolID) error
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(t *Table, sym SymbolID) error

func (f CompleterFunc) Complete(t *Table, sym SymbolID) error { return f(t, sym) }

// Compound is an attributed annotation: its type plus resolved element values.
type Compound struct {
	Type   Type
	Values []ElementValue
	// Repeated holds same-type annotations collected into an implicit
	// container when repeated annotations are allowed.
	Repeated []*Compound
}

// ElementValue pairs an annotation element method with its value.
type ElementValue struct {
	Method SymbolID
	Name   string
	Value  Attribute
}

// Attribute is a resolved annotation element value.
type Attribute interface {
	attribute()
	String() string
}

// ConstantAttr is a primitive or string constant.
type ConstantAttr struct {
	Type  Type
	Value any
}

// EnumAttr refers to an enum constant.
type EnumAttr struct {
	Type  Type
	Field SymbolID
	Name  string
}

// ClassAttr is a class literal.
type ClassAttr struct {
	ClassType Type
}

// ArrayAttr is an array of element values.
type ArrayAttr struct {
	Type   Type
	Values []Attribute
}

// CompoundAttr is a nested annotation.
type CompoundAttr struct {
	Compound *Compound
}

// ErrorAttr marks a value that failed to resolve.
type ErrorAttr struct{}

func (ConstantAttr) attribute() {}
func (EnumAttr) attribute()     {}
func (ClassAttr) attribute()    {}
func (ArrayAttr) attribute()    {}
func (CompoundAttr) attribute() {}
func (ErrorAttr) attribute()    {}

func (a ConstantAttr) String() string { return constantString(a.Value) }
func (a EnumAttr) String() string     { return a.Type.String() + "." + a.Name }
func (a ClassAttr) String() string    { return a.ClassType.String() + ".class" }
func (a CompoundAttr) String() string { return "@" + a.Compound.Type.String() }
func (ErrorAttr) String() string      { return "<error>" }

func (a ArrayAttr) String() string {
	s := "{"
	for i, v := range a.Values {
		if i > 0 {
			s += ", "
		}
		s += v.String()
	}
	return s + "}"
}

// Symbol is one record in the table. A single struct serves every kind;
// fields that do not apply to a kind stay zero.
type Symbol struct {
	ID    SymbolID
	Kind  Kind
	Name  string
	Owner SymbolID
	Flags Flags
	// Type may be nil until the owning class or method completes phase 1.
	Type Type
	Pos  int

	// Classes and packages.
	FullName   string
	Members    ScopeID
	State      CompletionState
	Supertype  Type
	Interfaces []Type
	// AllInterfaces also holds model types for interfaces that failed to
	// resolve.
	AllInterfaces []Type
	SourceFile    string

	// Methods.
	Params       []SymbolID
	DefaultValue Attribute

	// Variables.
	ConstValue any

	Annotations        []*Compound
	AnnotationsPending bool

	completer Completer
}

// IsStatic reports whether the symbol is static, counting interface fields
// and member types of interfaces as implicitly static.
func (s *Symbol) IsStatic() bool {
	return s.Flags.Has(FlagStatic)
}

// IsInterface reports whether the symbol is an interface or annotation type.
func (s *Symbol) IsInterface() bool {
	return s.Kind == KindClass && s.Flags.Has(FlagInterface)
}

// IsConstructor reports whether the symbol is a constructor.
func (s *Symbol) IsConstructor() bool {
	return s.Kind == KindMethod && s.Name == ConstructorName
}

// HasCompleter reports whether completion is still pending.
func (s *Symbol) HasCompleter() bool { return s.completer != nil }

// Reserved member names.
const (
	ConstructorName       = "<init>"
	StaticInitializerName = "<clinit>"
	ErrorName             = "<error>"
)

func constantString(v any) string {
	switch v := v.(type) {
	case string:
		return "\"" + v + "\""
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}
