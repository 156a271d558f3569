package symbols

import "strings"

// Tag classifies a Type.
type Tag uint8

const (
	TagNone Tag = iota
	TagByte
	TagChar
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagBoolean
	TagVoid
	TagClass
	TagArray
	TagMethod
	TagTypeVar
	TagWildcard
	TagBot
	TagError
	TagPackage
)

// Type is the semantic type attached to symbols and attributed trees.
type Type interface {
	Tag() Tag
	String() string
}

// PrimitiveType covers the eight primitive types plus void and the
// internal none/bottom types.
type PrimitiveType struct {
	tag  Tag
	name string
}

func (t *PrimitiveType) Tag() Tag       { return t.tag }
func (t *PrimitiveType) String() string { return t.name }

var (
	ByteType    = &PrimitiveType{TagByte, "byte"}
	CharType    = &PrimitiveType{TagChar, "char"}
	ShortType   = &PrimitiveType{TagShort, "short"}
	IntType     = &PrimitiveType{TagInt, "int"}
	LongType    = &PrimitiveType{TagLong, "long"}
	FloatType   = &PrimitiveType{TagFloat, "float"}
	DoubleType  = &PrimitiveType{TagDouble, "double"}
	BooleanType = &PrimitiveType{TagBoolean, "boolean"}
	VoidType    = &PrimitiveType{TagVoid, "void"}
	NoType      = &PrimitiveType{TagNone, "none"}
	BotType     = &PrimitiveType{TagBot, "<nulltype>"}
)

var primitivesByName = map[string]*PrimitiveType{
	"byte":    ByteType,
	"char":    CharType,
	"short":   ShortType,
	"int":     IntType,
	"long":    LongType,
	"float":   FloatType,
	"double":  DoubleType,
	"boolean": BooleanType,
	"void":    VoidType,
}

// PrimitiveByName returns the primitive (or void) type with the given keyword.
func PrimitiveByName(name string) (*PrimitiveType, bool) {
	t, ok := primitivesByName[name]
	return t, ok
}

// PrimitiveByTag returns the primitive type for tag.
func PrimitiveByTag(tag Tag) *PrimitiveType {
	for _, t := range primitivesByName {
		if t.tag == tag {
			return t
		}
	}
	return NoType
}

// ClassType is a (possibly parameterized) reference to a class symbol.
type ClassType struct {
	Sym   SymbolID
	Name  string
	Args  []Type
	Outer Type
}

func (t *ClassType) Tag() Tag { return TagClass }

func (t *ClassType) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	return t.Name + "<" + joinTypes(t.Args, ",") + ">"
}

// ArrayType is an array of Elem.
type ArrayType struct {
	Elem    Type
	Varargs bool
}

func (t *ArrayType) Tag() Tag { return TagArray }

func (t *ArrayType) String() string {
	if t.Varargs {
		return t.Elem.String() + "..."
	}
	return t.Elem.String() + "[]"
}

// MethodType is the signature of a method; TypeParams is empty for
// non-generic methods.
type MethodType struct {
	TypeParams []*TypeVar
	Params     []Type
	Result     Type
	Thrown     []Type
}

func (t *MethodType) Tag() Tag { return TagMethod }

func (t *MethodType) String() string {
	var sb strings.Builder
	if len(t.TypeParams) > 0 {
		sb.WriteString("<")
		for i, tv := range t.TypeParams {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(tv.Name)
		}
		sb.WriteString(">")
	}
	sb.WriteString("(")
	sb.WriteString(joinTypes(t.Params, ","))
	sb.WriteString(")")
	if t.Result != nil {
		sb.WriteString(t.Result.String())
	}
	return sb.String()
}

// TypeVar is a class or method type parameter. Bound is filled in when the
// declaring type parameter is attributed.
type TypeVar struct {
	Sym   SymbolID
	Name  string
	Bound Type
}

func (t *TypeVar) Tag() Tag       { return TagTypeVar }
func (t *TypeVar) String() string { return t.Name }

// BoundKind is the kind of a wildcard bound.
type BoundKind uint8

const (
	BoundUnbound BoundKind = iota
	BoundExtends
	BoundSuper
)

// WildcardType is a type argument of the form ?, ? extends T or ? super T.
type WildcardType struct {
	Kind  BoundKind
	Bound Type
}

func (t *WildcardType) Tag() Tag { return TagWildcard }

func (t *WildcardType) String() string {
	switch t.Kind {
	case BoundExtends:
		return "? extends " + t.Bound.String()
	case BoundSuper:
		return "? super " + t.Bound.String()
	}
	return "?"
}

// ErrorType stands in for a type that could not be resolved. Original keeps
// the best known type; the model type is synthesized lazily on request.
type ErrorType struct {
	Sym      SymbolID
	Name     string
	Original Type
	Args     []Type

	model     func() Type
	modelType Type
}

func (t *ErrorType) Tag() Tag { return TagError }

func (t *ErrorType) String() string {
	if t.Name == "" {
		return "<any>"
	}
	return t.Name
}

// SetModel installs a lazily evaluated model type.
func (t *ErrorType) SetModel(f func() Type) { t.model = f }

// ModelType returns the synthesized stand-in type, computing it at most once.
// Without a model it returns the error type itself.
func (t *ErrorType) ModelType() Type {
	if t.modelType != nil {
		return t.modelType
	}
	if t.model == nil {
		return t
	}
	t.modelType = t.model()
	t.model = nil
	return t.modelType
}

// PackageType is the type of a package symbol.
type PackageType struct {
	Sym  SymbolID
	Name string
}

func (t *PackageType) Tag() Tag       { return TagPackage }
func (t *PackageType) String() string { return t.Name }

// IsPrimitive reports whether t is one of the eight primitive types.
func IsPrimitive(t Type) bool {
	if t == nil {
		return false
	}
	tag := t.Tag()
	return tag >= TagByte && tag <= TagBoolean
}

// IsErroneous reports whether t is or contains an error type. A nil type is
// considered erroneous.
func IsErroneous(t Type) bool {
	switch t := t.(type) {
	case nil:
		return true
	case *ErrorType:
		return true
	case *ClassType:
		for _, a := range t.Args {
			if IsErroneous(a) {
				return true
			}
		}
		return t.Outer != nil && IsErroneous(t.Outer)
	case *ArrayType:
		return IsErroneous(t.Elem)
	case *WildcardType:
		return t.Bound != nil && IsErroneous(t.Bound)
	case *MethodType:
		if IsErroneous(t.Result) {
			return true
		}
		for _, p := range t.Params {
			if IsErroneous(p) {
				return true
			}
		}
		for _, p := range t.Thrown {
			if IsErroneous(p) {
				return true
			}
		}
	}
	return false
}

// Erasure drops type arguments and replaces type variables by their bounds.
func Erasure(t Type) Type {
	switch t := t.(type) {
	case *ClassType:
		if len(t.Args) == 0 && t.Outer == nil {
			return t
		}
		return &ClassType{Sym: t.Sym, Name: t.Name}
	case *ArrayType:
		return &ArrayType{Elem: Erasure(t.Elem), Varargs: t.Varargs}
	case *TypeVar:
		if t.Bound == nil {
			return t
		}
		return Erasure(t.Bound)
	case *WildcardType:
		if t.Kind == BoundExtends && t.Bound != nil {
			return Erasure(t.Bound)
		}
		return t
	case *MethodType:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = Erasure(p)
		}
		return &MethodType{Params: params, Result: Erasure(t.Result), Thrown: t.Thrown}
	}
	return t
}

// IsSameType compares two types structurally. Type variables compare by
// symbol, error types never equal anything but themselves.
func IsSameType(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	switch a := a.(type) {
	case *PrimitiveType:
		return b.Tag() == a.tag
	case *ClassType:
		bc, ok := b.(*ClassType)
		if !ok || bc.Sym != a.Sym || len(bc.Args) != len(a.Args) {
			return false
		}
		for i := range a.Args {
			if !IsSameType(a.Args[i], bc.Args[i]) {
				return false
			}
		}
		return true
	case *ArrayType:
		ba, ok := b.(*ArrayType)
		return ok && IsSameType(a.Elem, ba.Elem)
	case *TypeVar:
		bt, ok := b.(*TypeVar)
		return ok && bt.Sym == a.Sym
	case *WildcardType:
		bw, ok := b.(*WildcardType)
		return ok && bw.Kind == a.Kind && IsSameType(a.Bound, bw.Bound)
	case *MethodType:
		bm, ok := b.(*MethodType)
		if !ok || len(a.Params) != len(bm.Params) || len(a.TypeParams) != len(bm.TypeParams) {
			return false
		}
		subst := make(map[SymbolID]SymbolID, len(a.TypeParams))
		for i := range a.TypeParams {
			subst[bm.TypeParams[i].Sym] = a.TypeParams[i].Sym
		}
		for i := range a.Params {
			if !isSameUnder(a.Params[i], bm.Params[i], subst) {
				return false
			}
		}
		return isSameUnder(a.Result, bm.Result, subst)
	}
	return false
}

// isSameUnder compares a and b after renaming b's method type variables.
func isSameUnder(a, b Type, subst map[SymbolID]SymbolID) bool {
	if bt, ok := b.(*TypeVar); ok {
		if renamed, ok := subst[bt.Sym]; ok {
			at, ok := a.(*TypeVar)
			return ok && at.Sym == renamed
		}
	}
	if ba, ok := b.(*ArrayType); ok {
		aa, ok := a.(*ArrayType)
		return ok && isSameUnder(aa.Elem, ba.Elem, subst)
	}
	return IsSameType(a, b)
}

// HasSameArgs compares parameter lists of two method types after erasure.
func HasSameArgs(a, b *MethodType) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if !IsSameType(Erasure(a.Params[i]), Erasure(b.Params[i])) {
			return false
		}
	}
	return true
}

// AsMethodType returns t as a method type, or nil.
func AsMethodType(t Type) *MethodType {
	mt, _ := t.(*MethodType)
	return mt
}

// ClassSymbolOf returns the class symbol a class or error type refers to.
func ClassSymbolOf(t Type) (SymbolID, bool) {
	switch t := t.(type) {
	case *ClassType:
		return t.Sym, true
	case *ErrorType:
		return t.Sym, t.Sym.IsValid()
	}
	return NoSymbolID, false
}

func joinTypes(ts []Type, sep string) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}
