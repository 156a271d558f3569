package tree

import (
	"strconv"
	"strings"

	"github.com/dhamidi/saic/java/symbols"
)

// Maker builds synthetic trees at a fixed position. Every node it creates
// is flagged synthetic so diagnostics never point at it.
type Maker struct {
	pos int
}

func NewMaker() *Maker { return &Maker{pos: NoPos} }

// At returns a maker producing nodes at pos.
func (m *Maker) At(pos int) *Maker { return &Maker{pos: pos} }

func (m *Maker) base() Base         { return Base{Position: m.pos, Synthetic: true} }
func (m *Maker) exprBase() ExprBase { return ExprBase{Base: m.base()} }

func (m *Maker) Modifiers(flags symbols.Flags, annotations ...*Annotation) *Modifiers {
	return &Modifiers{Base: m.base(), Flags: flags, Annotations: annotations}
}

func (m *Maker) Ident(name string, sym symbols.SymbolID, t symbols.Type) *Ident {
	id := &Ident{ExprBase: m.exprBase(), Name: name, Sym: sym}
	id.Type = t
	return id
}

func (m *Maker) Select(selected Expr, name string, sym symbols.SymbolID, t symbols.Type) *Select {
	s := &Select{ExprBase: m.exprBase(), Selected: selected, Name: name, Sym: sym}
	s.Type = t
	return s
}

// QualIdent builds a dotted name expression for a full name.
func (m *Maker) QualIdent(fullName string) Expr {
	parts := strings.Split(fullName, ".")
	var e Expr = m.Ident(parts[0], symbols.NoSymbolID, nil)
	for _, p := range parts[1:] {
		e = m.Select(e, p, symbols.NoSymbolID, nil)
	}
	return e
}

// Type builds a type expression that denotes t and carries t as its
// attributed type.
func (m *Maker) Type(t symbols.Type) Expr {
	var e Expr
	switch t := t.(type) {
	case *symbols.PrimitiveType:
		e = &PrimitiveType{ExprBase: m.exprBase(), TypeTag: t.Tag()}
	case *symbols.ClassType:
		e = m.QualIdent(t.Name)
		if id, ok := e.(*Ident); ok {
			id.Sym = t.Sym
		} else {
			e.(*Select).Sym = t.Sym
		}
		if len(t.Args) > 0 {
			e.SetExprType(&symbols.ClassType{Sym: t.Sym, Name: t.Name})
			args := make([]Expr, len(t.Args))
			for i, a := range t.Args {
				args[i] = m.Type(a)
			}
			e = &TypeApply{ExprBase: m.exprBase(), Clazz: e, Args: args}
		}
	case *symbols.ArrayType:
		e = &ArrayType{ExprBase: m.exprBase(), Elem: m.Type(t.Elem)}
	case *symbols.TypeVar:
		e = m.Ident(t.Name, t.Sym, nil)
	case *symbols.WildcardType:
		w := &Wildcard{ExprBase: m.exprBase(), BoundKind: t.Kind}
		if t.Bound != nil {
			w.Bound = m.Type(t.Bound)
		}
		e = w
	case *symbols.ErrorType:
		e = m.Ident(t.String(), t.Sym, nil)
	default:
		e = &Erroneous{ExprBase: m.exprBase()}
	}
	e.SetExprType(t)
	return e
}

func (m *Maker) Literal(tag symbols.Tag, value any, t symbols.Type) *Literal {
	l := &Literal{ExprBase: m.exprBase(), TypeTag: tag, Value: value}
	l.Type = t
	return l
}

func (m *Maker) Apply(meth Expr, args ...Expr) *Apply {
	return &Apply{ExprBase: m.exprBase(), Meth: meth, Args: args}
}

func (m *Maker) NewClass(clazz Expr, args []Expr, ctor symbols.SymbolID) *NewClass {
	n := &NewClass{ExprBase: m.exprBase(), Clazz: clazz, Args: args, Constructor: ctor}
	n.Type = clazz.ExprType()
	return n
}

func (m *Maker) Erroneous(errs ...Node) *Erroneous {
	return &Erroneous{ExprBase: m.exprBase(), Errs: errs}
}

func (m *Maker) Exec(e Expr) *ExprStmt {
	return &ExprStmt{Base: m.base(), Expr: e}
}

func (m *Maker) Throw(e Expr) *Throw {
	return &Throw{Base: m.base(), Expr: e}
}

func (m *Maker) Return(e Expr) *Return {
	return &Return{Base: m.base(), Expr: e}
}

func (m *Maker) Block(static bool, stats ...Node) *Block {
	return &Block{Base: m.base(), Static: static, Stats: stats}
}

func (m *Maker) VarDef(mods *Modifiers, name string, vartype Expr, init Expr, sym symbols.SymbolID) *VarDecl {
	return &VarDecl{Base: m.base(), Mods: mods, Name: name, VarType: vartype, Init: init, Sym: sym}
}

// Param builds a parameter declaration for a parameter symbol.
func (m *Maker) Param(name string, t symbols.Type, sym symbols.SymbolID) *VarDecl {
	return m.VarDef(m.Modifiers(symbols.FlagParameter), name, m.Type(t), nil, sym)
}

func (m *Maker) MethodDef(mods *Modifiers, name string, restype Expr, params []*VarDecl, thrown []Expr, body *Block, sym symbols.SymbolID) *MethodDecl {
	return &MethodDecl{
		Base:    m.base(),
		Mods:    mods,
		Name:    name,
		ResType: restype,
		Params:  params,
		Thrown:  thrown,
		Body:    body,
		Sym:     sym,
	}
}

// Types builds type expressions for a list of types.
func (m *Maker) Types(ts []symbols.Type) []Expr {
	out := make([]Expr, len(ts))
	for i, t := range ts {
		out[i] = m.Type(t)
	}
	return out
}

// TypeParams builds declarations for attributed type variables.
func (m *Maker) TypeParams(tvars []*symbols.TypeVar) []*TypeParameter {
	out := make([]*TypeParameter, len(tvars))
	for i, tv := range tvars {
		tp := &TypeParameter{Base: m.base(), Name: tv.Name, Type: tv}
		if tv.Bound != nil && tv.Bound.Tag() == symbols.TagClass {
			tp.Bounds = []Expr{m.Type(tv.Bound)}
		}
		out[i] = tp
	}
	return out
}

// Params builds parameters x0, x1, ... of the given types.
func (m *Maker) Params(argtypes []symbols.Type) []*VarDecl {
	out := make([]*VarDecl, len(argtypes))
	for i, t := range argtypes {
		out[i] = m.Param("x"+strconv.Itoa(i), t, symbols.NoSymbolID)
	}
	return out
}

func (m *Maker) TypeApply(clazz Expr, args ...Expr) *TypeApply {
	return &TypeApply{ExprBase: m.exprBase(), Clazz: clazz, Args: args}
}

// Idents builds references to the given parameters.
func (m *Maker) Idents(params []*VarDecl) []Expr {
	out := make([]Expr, len(params))
	for i, p := range params {
		var t symbols.Type
		if p.VarType != nil {
			t = p.VarType.ExprType()
		}
		out[i] = m.Ident(p.Name, p.Sym, t)
	}
	return out
}
