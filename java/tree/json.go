package tree

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/saic/java/symbols"
)

// jsonNode is the interchange form of a tree. Subtrees are grouped by role
// so every node kind shares one shape.
type jsonNode struct {
	Kind     string                 `json:"kind"`
	Pos      *int                   `json:"pos,omitempty"`
	End      *int                   `json:"end,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Op       string                 `json:"op,omitempty"`
	Static   bool                   `json:"static,omitempty"`
	Flags    []string               `json:"flags,omitempty"`
	Type     string                 `json:"type,omitempty"`
	Value    any                    `json:"value,omitempty"`
	Doc      string                 `json:"doc,omitempty"`
	File     string                 `json:"file,omitempty"`
	Lines    []int                  `json:"lines,omitempty"`
	Errors   []PriorError           `json:"errors,omitempty"`
	Children map[string][]*jsonNode `json:"children,omitempty"`
}

type jsonEncoder struct {
	unit *CompilationUnit
}

// Marshal encodes a compilation unit as JSON.
func Marshal(unit *CompilationUnit) ([]byte, error) {
	e := &jsonEncoder{unit: unit}
	return json.MarshalIndent(e.node(unit), "", "  ")
}

// Encode writes a compilation unit as JSON to w.
func Encode(w io.Writer, unit *CompilationUnit) error {
	data, err := Marshal(unit)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

func (e *jsonEncoder) node(n Node) *jsonNode {
	if n == nil || isNilNode(n) {
		return nil
	}
	pos := n.Pos()
	jn := &jsonNode{Kind: n.Kind().String(), Pos: &pos}
	if end, ok := e.unit.EndPos[n]; ok {
		jn.End = &end
	}
	if doc, ok := e.unit.DocComments[n]; ok {
		jn.Doc = doc
	}
	set := func(role string, kids ...Node) {
		for _, k := range kids {
			if c := e.node(k); c != nil {
				if jn.Children == nil {
					jn.Children = make(map[string][]*jsonNode)
				}
				jn.Children[role] = append(jn.Children[role], c)
			}
		}
	}
	exprs := func(role string, es []Expr) {
		for _, x := range es {
			set(role, x)
		}
	}
	switch n := n.(type) {
	case *CompilationUnit:
		jn.File = n.SourceFile
		if n.Lines != nil {
			jn.Lines = n.Lines.Starts()
		}
		jn.Errors = n.PriorErrors
		for _, a := range n.PackageAnnotations {
			set("annotations", a)
		}
		set("package", n.PackageName)
		for _, i := range n.Imports {
			set("imports", i)
		}
		set("defs", n.Defs...)
	case *Import:
		jn.Static = n.Static
		set("qualid", n.Qualid)
	case *ClassDecl:
		jn.Name = n.Name
		set("mods", n.Mods)
		for _, tp := range n.TypeParams {
			set("typarams", tp)
		}
		set("extends", n.Extends)
		exprs("implements", n.Implements)
		set("defs", n.Defs...)
	case *MethodDecl:
		jn.Name = n.Name
		set("mods", n.Mods)
		for _, tp := range n.TypeParams {
			set("typarams", tp)
		}
		set("restype", n.ResType)
		for _, p := range n.Params {
			set("params", p)
		}
		exprs("thrown", n.Thrown)
		set("body", n.Body)
		set("default", n.DefaultValue)
	case *VarDecl:
		jn.Name = n.Name
		set("mods", n.Mods)
		set("vartype", n.VarType)
		set("init", n.Init)
	case *TypeParameter:
		jn.Name = n.Name
		exprs("bounds", n.Bounds)
	case *Modifiers:
		jn.Flags = n.Flags.Names()
		for _, a := range n.Annotations {
			set("annotations", a)
		}
	case *Annotation:
		set("type", n.AnnotationType)
		exprs("args", n.Args)
	case *Block:
		jn.Static = n.Static
		set("stats", n.Stats...)
	case *ExprStmt:
		set("expr", n.Expr)
	case *If:
		set("cond", n.Cond)
		set("then", n.Then)
		set("else", n.Else)
	case *WhileLoop:
		set("cond", n.Cond)
		set("body", n.Body)
	case *ForLoop:
		set("init", n.Init...)
		set("cond", n.Cond)
		set("step", n.Step...)
		set("body", n.Body)
	case *Switch:
		set("selector", n.Selector)
		for _, c := range n.Cases {
			set("cases", c)
		}
	case *Case:
		set("pat", n.Pat)
		set("stats", n.Stats...)
	case *Return:
		set("expr", n.Expr)
	case *Throw:
		set("expr", n.Expr)
	case *Break:
		jn.Name = n.Label
	case *Continue:
		jn.Name = n.Label
	case *Skip:
	case *Ident:
		jn.Name = n.Name
	case *Select:
		jn.Name = n.Name
		set("selected", n.Selected)
	case *Literal:
		jn.Type = literalTypeName(n.TypeTag)
		jn.Value = n.Value
		if r, ok := n.Value.(rune); ok && n.TypeTag == symbols.TagChar {
			jn.Value = string(r)
		}
	case *Apply:
		exprs("typeargs", n.TypeArgs)
		set("meth", n.Meth)
		exprs("args", n.Args)
	case *NewClass:
		set("encl", n.Encl)
		exprs("typeargs", n.TypeArgs)
		set("clazz", n.Clazz)
		exprs("args", n.Args)
		set("def", n.Def)
	case *NewArray:
		set("elemtype", n.ElemType)
		exprs("dims", n.Dims)
		exprs("elems", n.Elems)
	case *Assign:
		set("lhs", n.LHS)
		set("rhs", n.RHS)
	case *AssignOp:
		jn.Op = n.Op
		set("lhs", n.LHS)
		set("rhs", n.RHS)
	case *Unary:
		jn.Op = n.Op
		set("arg", n.Arg)
	case *Binary:
		jn.Op = n.Op
		set("lhs", n.LHS)
		set("rhs", n.RHS)
	case *Parens:
		set("expr", n.Expr)
	case *TypeCast:
		set("clazz", n.Clazz)
		set("expr", n.Expr)
	case *PrimitiveType:
		jn.Type = symbols.PrimitiveByTag(n.TypeTag).String()
	case *ArrayType:
		set("elem", n.Elem)
	case *TypeApply:
		set("clazz", n.Clazz)
		exprs("args", n.Args)
	case *Wildcard:
		jn.Type = boundKindName(n.BoundKind)
		set("bound", n.Bound)
	case *Erroneous:
		set("errs", n.Errs...)
	}
	return jn
}

// Unmarshal decodes a compilation unit from JSON.
func Unmarshal(data []byte) (*CompilationUnit, error) {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return nil, err
	}
	d := &jsonDecoder{}
	n, err := d.node(&jn)
	if err != nil {
		return nil, err
	}
	unit, ok := n.(*CompilationUnit)
	if !ok {
		return nil, fmt.Errorf("top-level node is %s, want CompilationUnit", jn.Kind)
	}
	unit.EndPos = d.ends
	unit.DocComments = d.docs
	return unit, nil
}

// Decode reads one JSON compilation unit from r.
func Decode(r io.Reader) (*CompilationUnit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

type jsonDecoder struct {
	ends EndPosTable
	docs map[Node]string
}

func (d *jsonDecoder) node(jn *jsonNode) (Node, error) {
	if jn == nil {
		return nil, nil
	}
	kind, ok := KindByName(jn.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown node kind %q", jn.Kind)
	}
	b := Base{Position: NoPos}
	if jn.Pos != nil {
		b.Position = *jn.Pos
	}
	eb := ExprBase{Base: b}

	var err error
	one := func(role string) Node {
		kids := jn.Children[role]
		if len(kids) == 0 || err != nil {
			return nil
		}
		var n Node
		n, err = d.node(kids[0])
		return n
	}
	many := func(role string) []Node {
		var out []Node
		for _, k := range jn.Children[role] {
			if err != nil {
				return nil
			}
			var n Node
			n, err = d.node(k)
			if n != nil {
				out = append(out, n)
			}
		}
		return out
	}
	expr := func(role string) Expr {
		n := one(role)
		if n == nil {
			return nil
		}
		e, ok := n.(Expr)
		if !ok && err == nil {
			err = fmt.Errorf("%s.%s: %s is not an expression", jn.Kind, role, n.Kind())
		}
		return e
	}
	exprs := func(role string) []Expr {
		var out []Expr
		for _, n := range many(role) {
			if e, ok := n.(Expr); ok {
				out = append(out, e)
			} else if err == nil {
				err = fmt.Errorf("%s.%s: %s is not an expression", jn.Kind, role, n.Kind())
			}
		}
		return out
	}
	mods := func() *Modifiers {
		m, _ := one("mods").(*Modifiers)
		return m
	}
	block := func(role string) *Block {
		bl, _ := one(role).(*Block)
		return bl
	}
	typarams := func() []*TypeParameter {
		var out []*TypeParameter
		for _, n := range many("typarams") {
			if tp, ok := n.(*TypeParameter); ok {
				out = append(out, tp)
			}
		}
		return out
	}
	annotations := func() []*Annotation {
		var out []*Annotation
		for _, n := range many("annotations") {
			if a, ok := n.(*Annotation); ok {
				out = append(out, a)
			}
		}
		return out
	}

	var n Node
	switch kind {
	case KindCompilationUnit:
		unit := &CompilationUnit{Base: b, SourceFile: jn.File, PriorErrors: jn.Errors}
		if len(jn.Lines) > 0 {
			unit.Lines = NewLineMapFromStarts(jn.Lines)
		}
		unit.PackageAnnotations = annotations()
		unit.PackageName = expr("package")
		for _, i := range many("imports") {
			if imp, ok := i.(*Import); ok {
				unit.Imports = append(unit.Imports, imp)
			}
		}
		unit.Defs = many("defs")
		n = unit
	case KindImport:
		n = &Import{Base: b, Static: jn.Static, Qualid: expr("qualid")}
	case KindClassDecl:
		n = &ClassDecl{Base: b, Name: jn.Name, Mods: mods(), TypeParams: typarams(),
			Extends: expr("extends"), Implements: exprs("implements"), Defs: many("defs")}
	case KindMethodDecl:
		m := &MethodDecl{Base: b, Name: jn.Name, Mods: mods(), TypeParams: typarams(),
			ResType: expr("restype"), Thrown: exprs("thrown"), Body: block("body"), DefaultValue: expr("default")}
		for _, p := range many("params") {
			if v, ok := p.(*VarDecl); ok {
				m.Params = append(m.Params, v)
			}
		}
		n = m
	case KindVarDecl:
		n = &VarDecl{Base: b, Name: jn.Name, Mods: mods(), VarType: expr("vartype"), Init: expr("init")}
	case KindTypeParameter:
		n = &TypeParameter{Base: b, Name: jn.Name, Bounds: exprs("bounds")}
	case KindModifiers:
		n = &Modifiers{Base: b, Flags: symbols.ParseFlags(jn.Flags), Annotations: annotations()}
	case KindAnnotation:
		n = &Annotation{ExprBase: eb, AnnotationType: expr("type"), Args: exprs("args")}
	case KindBlock:
		n = &Block{Base: b, Static: jn.Static, Stats: many("stats")}
	case KindExprStmt:
		n = &ExprStmt{Base: b, Expr: expr("expr")}
	case KindIf:
		n = &If{Base: b, Cond: expr("cond"), Then: one("then"), Else: one("else")}
	case KindWhileLoop:
		n = &WhileLoop{Base: b, Cond: expr("cond"), Body: one("body")}
	case KindForLoop:
		n = &ForLoop{Base: b, Init: many("init"), Cond: expr("cond"), Step: many("step"), Body: one("body")}
	case KindSwitch:
		sw := &Switch{Base: b, Selector: expr("selector")}
		for _, c := range many("cases") {
			if cs, ok := c.(*Case); ok {
				sw.Cases = append(sw.Cases, cs)
			}
		}
		n = sw
	case KindCase:
		n = &Case{Base: b, Pat: expr("pat"), Stats: many("stats")}
	case KindReturn:
		n = &Return{Base: b, Expr: expr("expr")}
	case KindThrow:
		n = &Throw{Base: b, Expr: expr("expr")}
	case KindBreak:
		n = &Break{Base: b, Label: jn.Name}
	case KindContinue:
		n = &Continue{Base: b, Label: jn.Name}
	case KindSkip:
		n = &Skip{Base: b}
	case KindIdent:
		n = &Ident{ExprBase: eb, Name: jn.Name}
	case KindSelect:
		n = &Select{ExprBase: eb, Name: jn.Name, Selected: expr("selected")}
	case KindLiteral:
		tag, value, lerr := decodeLiteral(jn.Type, jn.Value)
		if lerr != nil {
			return nil, lerr
		}
		n = &Literal{ExprBase: eb, TypeTag: tag, Value: value}
	case KindApply:
		n = &Apply{ExprBase: eb, TypeArgs: exprs("typeargs"), Meth: expr("meth"), Args: exprs("args")}
	case KindNewClass:
		nc := &NewClass{ExprBase: eb, Encl: expr("encl"), TypeArgs: exprs("typeargs"), Clazz: expr("clazz"), Args: exprs("args")}
		nc.Def, _ = one("def").(*ClassDecl)
		n = nc
	case KindNewArray:
		n = &NewArray{ExprBase: eb, ElemType: expr("elemtype"), Dims: exprs("dims"), Elems: exprs("elems")}
	case KindAssign:
		n = &Assign{ExprBase: eb, LHS: expr("lhs"), RHS: expr("rhs")}
	case KindAssignOp:
		n = &AssignOp{ExprBase: eb, Op: jn.Op, LHS: expr("lhs"), RHS: expr("rhs")}
	case KindUnary:
		n = &Unary{ExprBase: eb, Op: jn.Op, Arg: expr("arg")}
	case KindBinary:
		n = &Binary{ExprBase: eb, Op: jn.Op, LHS: expr("lhs"), RHS: expr("rhs")}
	case KindParens:
		n = &Parens{ExprBase: eb, Expr: expr("expr")}
	case KindTypeCast:
		n = &TypeCast{ExprBase: eb, Clazz: expr("clazz"), Expr: expr("expr")}
	case KindPrimitiveType:
		p, ok := symbols.PrimitiveByName(jn.Type)
		if !ok {
			return nil, fmt.Errorf("unknown primitive type %q", jn.Type)
		}
		n = &PrimitiveType{ExprBase: eb, TypeTag: p.Tag()}
	case KindArrayType:
		n = &ArrayType{ExprBase: eb, Elem: expr("elem")}
	case KindTypeApply:
		n = &TypeApply{ExprBase: eb, Clazz: expr("clazz"), Args: exprs("args")}
	case KindWildcard:
		n = &Wildcard{ExprBase: eb, BoundKind: parseBoundKind(jn.Type), Bound: expr("bound")}
	case KindErroneous:
		n = &Erroneous{ExprBase: eb, Errs: many("errs")}
	}
	if err != nil {
		return nil, err
	}
	if jn.End != nil {
		if d.ends == nil {
			d.ends = make(EndPosTable)
		}
		d.ends[n] = *jn.End
	}
	if jn.Doc != "" {
		if d.docs == nil {
			d.docs = make(map[Node]string)
		}
		d.docs[n] = jn.Doc
	}
	return n, nil
}

func literalTypeName(tag symbols.Tag) string {
	switch tag {
	case symbols.TagClass:
		return "string"
	case symbols.TagBot:
		return "null"
	}
	return symbols.PrimitiveByTag(tag).String()
}

func decodeLiteral(typ string, v any) (symbols.Tag, any, error) {
	num, isNum := v.(float64)
	switch typ {
	case "string":
		s, _ := v.(string)
		return symbols.TagClass, s, nil
	case "null", "":
		return symbols.TagBot, nil, nil
	case "boolean":
		b, _ := v.(bool)
		return symbols.TagBoolean, b, nil
	case "char":
		s, _ := v.(string)
		r := []rune(s)
		if len(r) != 1 {
			return 0, nil, fmt.Errorf("char literal %q must hold one character", s)
		}
		return symbols.TagChar, r[0], nil
	case "int", "short", "byte":
		if !isNum {
			return 0, nil, fmt.Errorf("%s literal needs a number", typ)
		}
		p, _ := symbols.PrimitiveByName(typ)
		return p.Tag(), int(num), nil
	case "long":
		if !isNum {
			return 0, nil, fmt.Errorf("long literal needs a number")
		}
		return symbols.TagLong, int64(num), nil
	case "float":
		if !isNum {
			return 0, nil, fmt.Errorf("float literal needs a number")
		}
		return symbols.TagFloat, float32(num), nil
	case "double":
		if !isNum {
			return 0, nil, fmt.Errorf("double literal needs a number")
		}
		return symbols.TagDouble, num, nil
	}
	return 0, nil, fmt.Errorf("unknown literal type %q", typ)
}

func boundKindName(k symbols.BoundKind) string {
	switch k {
	case symbols.BoundExtends:
		return "extends"
	case symbols.BoundSuper:
		return "super"
	}
	return "unbound"
}

func parseBoundKind(s string) symbols.BoundKind {
	switch strings.ToLower(s) {
	case "extends":
		return symbols.BoundExtends
	case "super":
		return symbols.BoundSuper
	}
	return symbols.BoundUnbound
}
