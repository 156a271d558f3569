package tree

import (
	"github.com/dhamidi/saic/java/symbols"
)

type Kind int

const (
	KindErroneous Kind = iota

	// Compilation unit level
	KindCompilationUnit
	KindImport

	// Declarations
	KindClassDecl
	KindMethodDecl
	KindVarDecl
	KindTypeParameter
	KindModifiers
	KindAnnotation

	// Statements
	KindBlock
	KindExprStmt
	KindIf
	KindWhileLoop
	KindForLoop
	KindSwitch
	KindCase
	KindReturn
	KindThrow
	KindBreak
	KindContinue
	KindSkip

	// Expressions
	KindIdent
	KindSelect
	KindLiteral
	KindApply
	KindNewClass
	KindNewArray
	KindAssign
	KindAssignOp
	KindUnary
	KindBinary
	KindParens
	KindTypeCast

	// Type expressions
	KindPrimitiveType
	KindArrayType
	KindTypeApply
	KindWildcard
)

var kindNames = map[Kind]string{
	KindErroneous:       "Erroneous",
	KindCompilationUnit: "CompilationUnit",
	KindImport:          "Import",
	KindClassDecl:       "ClassDecl",
	KindMethodDecl:      "MethodDecl",
	KindVarDecl:         "VarDecl",
	KindTypeParameter:   "TypeParameter",
	KindModifiers:       "Modifiers",
	KindAnnotation:      "Annotation",
	KindBlock:           "Block",
	KindExprStmt:        "ExprStmt",
	KindIf:              "If",
	KindWhileLoop:       "WhileLoop",
	KindForLoop:         "ForLoop",
	KindSwitch:          "Switch",
	KindCase:            "Case",
	KindReturn:          "Return",
	KindThrow:           "Throw",
	KindBreak:           "Break",
	KindContinue:        "Continue",
	KindSkip:            "Skip",
	KindIdent:           "Ident",
	KindSelect:          "Select",
	KindLiteral:         "Literal",
	KindApply:           "Apply",
	KindNewClass:        "NewClass",
	KindNewArray:        "NewArray",
	KindAssign:          "Assign",
	KindAssignOp:        "AssignOp",
	KindUnary:           "Unary",
	KindBinary:          "Binary",
	KindParens:          "Parens",
	KindTypeCast:        "TypeCast",
	KindPrimitiveType:   "PrimitiveType",
	KindArrayType:       "ArrayType",
	KindTypeApply:       "TypeApply",
	KindWildcard:        "Wildcard",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// KindByName is the inverse of Kind.String.
func KindByName(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindErroneous, false
}

// Node is implemented by every tree struct in this package and nothing
// else. Passes switch on the concrete type.
type Node interface {
	Kind() Kind
	// Pos is the preferred position used for diagnostics.
	Pos() int
	base() *Base
}

// Expr is a node that denotes a value or a type.
type Expr interface {
	Node
	ExprType() symbols.Type
	SetExprType(symbols.Type)
}

// Base carries the fields shared by all nodes.
type Base struct {
	Position  int
	Synthetic bool
}

func (b *Base) Pos() int     { return b.Position }
func (b *Base) base() *Base  { return b }
func (b *Base) SetPos(p int) { b.Position = p }

// IsSynthetic reports whether n was produced by the compiler rather than
// parsed from source.
func IsSynthetic(n Node) bool { return n != nil && n.base().Synthetic }

// ExprBase holds the attributed type of an expression.
type ExprBase struct {
	Base
	Type symbols.Type
}

func (e *ExprBase) ExprType() symbols.Type     { return e.Type }
func (e *ExprBase) SetExprType(t symbols.Type) { e.Type = t }

// CompilationUnit is one source file.
type CompilationUnit struct {
	Base
	PackageAnnotations []*Annotation
	PackageName        Expr
	Imports            []*Import
	Defs               []Node
	SourceFile         string

	EndPos      EndPosTable
	Lines       *LineMap
	DocComments map[Node]string

	Packge           symbols.SymbolID
	NamedImportScope symbols.ScopeID
	StarImportScope  symbols.ScopeID

	// PriorErrors were reported by an earlier phase (parser, attribution)
	// and are replayed into the log when the unit is entered.
	PriorErrors []PriorError
}

// PriorError is an error recorded against a source offset of the unit.
type PriorError struct {
	Pos  int      `json:"pos"`
	Key  string   `json:"key"`
	Args []string `json:"args,omitempty"`
}

// Import is a single-type or on-demand import. On-demand imports end in a
// Select whose name is "*".
type Import struct {
	Base
	Qualid Expr
	Static bool
}

// ClassDecl declares a class, interface, enum or annotation type. The kind
// comes from the modifier flags.
type ClassDecl struct {
	Base
	Mods       *Modifiers
	Name       string
	TypeParams []*TypeParameter
	Extends    Expr
	Implements []Expr
	Defs       []Node
	Sym        symbols.SymbolID
}

// MethodDecl declares a method or constructor. ResType is nil for
// constructors, Body is nil for abstract and native methods.
type MethodDecl struct {
	Base
	Mods         *Modifiers
	Name         string
	ResType      Expr
	TypeParams   []*TypeParameter
	Params       []*VarDecl
	Thrown       []Expr
	Body         *Block
	DefaultValue Expr
	Sym          symbols.SymbolID
}

// VarDecl declares a field, parameter or local variable.
type VarDecl struct {
	Base
	Mods    *Modifiers
	Name    string
	VarType Expr
	Init    Expr
	Sym     symbols.SymbolID
}

type TypeParameter struct {
	Base
	Name   string
	Bounds []Expr
	Type   *symbols.TypeVar
}

type Modifiers struct {
	Base
	Flags       symbols.Flags
	Annotations []*Annotation
}

// Annotation is a use of an annotation. Args are either Assign nodes
// (name = value) or a single value for the element "value". Annotations
// nest as element values, so they are expressions.
type Annotation struct {
	ExprBase
	AnnotationType Expr
	Args           []Expr
	Attribute      *symbols.Compound
}

type Block struct {
	Base
	Static bool
	Stats  []Node
}

type ExprStmt struct {
	Base
	Expr Expr
}

type If struct {
	Base
	Cond Expr
	Then Node
	Else Node
}

type WhileLoop struct {
	Base
	Cond Expr
	Body Node
}

type ForLoop struct {
	Base
	Init []Node
	Cond Expr
	Step []Node
	Body Node
}

type Switch struct {
	Base
	Selector Expr
	Cases    []*Case
}

// Case is one switch clause; Pat is nil for default.
type Case struct {
	Base
	Pat   Expr
	Stats []Node
}

type Return struct {
	Base
	Expr Expr
}

type Throw struct {
	Base
	Expr Expr
}

type Break struct {
	Base
	Label string
}

type Continue struct {
	Base
	Label string
}

type Skip struct {
	Base
}

type Ident struct {
	ExprBase
	Name string
	Sym  symbols.SymbolID
}

type Select struct {
	ExprBase
	Selected Expr
	Name     string
	Sym      symbols.SymbolID
}

// Literal holds a constant; TypeTag is TagClass for strings and TagBot for
// null.
type Literal struct {
	ExprBase
	TypeTag symbols.Tag
	Value   any
}

type Apply struct {
	ExprBase
	TypeArgs []Expr
	Meth     Expr
	Args     []Expr
}

type NewClass struct {
	ExprBase
	Encl        Expr
	TypeArgs    []Expr
	Clazz       Expr
	Args        []Expr
	Def         *ClassDecl
	Constructor symbols.SymbolID
}

type NewArray struct {
	ExprBase
	ElemType Expr
	Dims     []Expr
	Elems    []Expr
}

type Assign struct {
	ExprBase
	LHS Expr
	RHS Expr
}

type AssignOp struct {
	ExprBase
	Op       string
	LHS      Expr
	RHS      Expr
	Operator symbols.SymbolID
}

type Unary struct {
	ExprBase
	Op       string
	Arg      Expr
	Operator symbols.SymbolID
}

type Binary struct {
	ExprBase
	Op       string
	LHS      Expr
	RHS      Expr
	Operator symbols.SymbolID
}

type Parens struct {
	ExprBase
	Expr Expr
}

type TypeCast struct {
	ExprBase
	Clazz Expr
	Expr  Expr
}

type PrimitiveType struct {
	ExprBase
	TypeTag symbols.Tag
}

type ArrayType struct {
	ExprBase
	Elem Expr
}

type TypeApply struct {
	ExprBase
	Clazz Expr
	Args  []Expr
}

type Wildcard struct {
	ExprBase
	BoundKind symbols.BoundKind
	Bound     Expr
}

// Erroneous stands for a construct the parser or repair could not model.
type Erroneous struct {
	ExprBase
	Errs []Node
}

func (*CompilationUnit) Kind() Kind { return KindCompilationUnit }
func (*Import) Kind() Kind          { return KindImport }
func (*ClassDecl) Kind() Kind       { return KindClassDecl }
func (*MethodDecl) Kind() Kind      { return KindMethodDecl }
func (*VarDecl) Kind() Kind         { return KindVarDecl }
func (*TypeParameter) Kind() Kind   { return KindTypeParameter }
func (*Modifiers) Kind() Kind       { return KindModifiers }
func (*Annotation) Kind() Kind      { return KindAnnotation }
func (*Block) Kind() Kind           { return KindBlock }
func (*ExprStmt) Kind() Kind        { return KindExprStmt }
func (*If) Kind() Kind              { return KindIf }
func (*WhileLoop) Kind() Kind       { return KindWhileLoop }
func (*ForLoop) Kind() Kind         { return KindForLoop }
func (*Switch) Kind() Kind          { return KindSwitch }
func (*Case) Kind() Kind            { return KindCase }
func (*Return) Kind() Kind          { return KindReturn }
func (*Throw) Kind() Kind           { return KindThrow }
func (*Break) Kind() Kind           { return KindBreak }
func (*Continue) Kind() Kind        { return KindContinue }
func (*Skip) Kind() Kind            { return KindSkip }
func (*Ident) Kind() Kind           { return KindIdent }
func (*Select) Kind() Kind          { return KindSelect }
func (*Literal) Kind() Kind         { return KindLiteral }
func (*Apply) Kind() Kind           { return KindApply }
func (*NewClass) Kind() Kind        { return KindNewClass }
func (*NewArray) Kind() Kind        { return KindNewArray }
func (*Assign) Kind() Kind          { return KindAssign }
func (*AssignOp) Kind() Kind        { return KindAssignOp }
func (*Unary) Kind() Kind           { return KindUnary }
func (*Binary) Kind() Kind          { return KindBinary }
func (*Parens) Kind() Kind          { return KindParens }
func (*TypeCast) Kind() Kind        { return KindTypeCast }
func (*PrimitiveType) Kind() Kind   { return KindPrimitiveType }
func (*ArrayType) Kind() Kind       { return KindArrayType }
func (*TypeApply) Kind() Kind       { return KindTypeApply }
func (*Wildcard) Kind() Kind        { return KindWildcard }
func (*Erroneous) Kind() Kind       { return KindErroneous }

// IsStatement reports whether n may appear in a statement list.
func IsStatement(n Node) bool {
	switch n.(type) {
	case *Block, *ExprStmt, *If, *WhileLoop, *ForLoop, *Switch, *Return,
		*Throw, *Break, *Continue, *Skip, *VarDecl, *ClassDecl:
		return true
	}
	return false
}
