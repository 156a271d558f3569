package tree

import (
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/saic/java/symbols"
)

// Printer renders trees as Java-like source text.
type Printer struct {
	w           io.Writer
	indent      int
	indentStr   string
	atLineStart bool
	err         error
	classNames  []string
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, indentStr: "    ", atLineStart: true}
}

// Print writes n and returns the first write error.
func (p *Printer) Print(n Node) error {
	p.printNode(n)
	return p.err
}

// String renders n to a string.
func String(n Node) string {
	var sb strings.Builder
	NewPrinter(&sb).Print(n)
	return sb.String()
}

func (p *Printer) write(s string) {
	if p.err != nil || s == "" {
		return
	}
	if p.atLineStart {
		_, p.err = io.WriteString(p.w, strings.Repeat(p.indentStr, p.indent))
		p.atLineStart = false
	}
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *Printer) newline() {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, "\n")
	}
	p.atLineStart = true
}

func (p *Printer) printNode(n Node) {
	switch n := n.(type) {
	case nil:
	case *CompilationUnit:
		for _, a := range n.PackageAnnotations {
			p.printNode(a)
			p.newline()
		}
		if n.PackageName != nil {
			p.write("package ")
			p.printNode(n.PackageName)
			p.write(";")
			p.newline()
			p.newline()
		}
		for _, i := range n.Imports {
			p.printNode(i)
			p.newline()
		}
		if len(n.Imports) > 0 {
			p.newline()
		}
		for _, d := range n.Defs {
			p.printNode(d)
			p.newline()
		}
	case *Import:
		p.write("import ")
		if n.Static {
			p.write("static ")
		}
		p.printNode(n.Qualid)
		p.write(";")
	case *ClassDecl:
		p.printClassDecl(n)
	case *MethodDecl:
		p.printMethodDecl(n)
	case *VarDecl:
		p.printVarDecl(n)
		p.write(";")
	case *TypeParameter:
		p.write(n.Name)
		for i, b := range n.Bounds {
			if i == 0 {
				p.write(" extends ")
			} else {
				p.write(" & ")
			}
			p.printNode(b)
		}
	case *Modifiers:
		p.printModifiers(n, 0)
	case *Annotation:
		p.write("@")
		p.printNode(n.AnnotationType)
		if len(n.Args) > 0 {
			p.write("(")
			p.printExprs(n.Args)
			p.write(")")
		}
	case *Block:
		if n.Static {
			p.write("static ")
		}
		p.printBlock(n.Stats)
	case *ExprStmt:
		p.printNode(n.Expr)
		p.write(";")
	case *If:
		p.write("if (")
		p.printNode(n.Cond)
		p.write(") ")
		p.printNode(n.Then)
		if n.Else != nil {
			p.write(" else ")
			p.printNode(n.Else)
		}
	case *WhileLoop:
		p.write("while (")
		p.printNode(n.Cond)
		p.write(") ")
		p.printNode(n.Body)
	case *ForLoop:
		p.write("for (")
		p.printForPart(n.Init)
		p.write("; ")
		p.printNode(n.Cond)
		p.write("; ")
		p.printForPart(n.Step)
		p.write(") ")
		p.printNode(n.Body)
	case *Switch:
		p.write("switch (")
		p.printNode(n.Selector)
		p.write(") {")
		p.newline()
		for _, c := range n.Cases {
			p.printNode(c)
		}
		p.write("}")
	case *Case:
		if n.Pat == nil {
			p.write("default:")
		} else {
			p.write("case ")
			p.printNode(n.Pat)
			p.write(":")
		}
		p.newline()
		p.indent++
		for _, s := range n.Stats {
			p.printNode(s)
			p.newline()
		}
		p.indent--
	case *Return:
		p.write("return")
		if n.Expr != nil {
			p.write(" ")
			p.printNode(n.Expr)
		}
		p.write(";")
	case *Throw:
		p.write("throw ")
		p.printNode(n.Expr)
		p.write(";")
	case *Break:
		p.write("break")
		if n.Label != "" {
			p.write(" " + n.Label)
		}
		p.write(";")
	case *Continue:
		p.write("continue")
		if n.Label != "" {
			p.write(" " + n.Label)
		}
		p.write(";")
	case *Skip:
		p.write(";")
	case *Ident:
		p.write(n.Name)
	case *Select:
		p.printNode(n.Selected)
		p.write("." + n.Name)
	case *Literal:
		p.write(literalText(n))
	case *Apply:
		p.printNode(n.Meth)
		p.write("(")
		p.printExprs(n.Args)
		p.write(")")
	case *NewClass:
		if n.Encl != nil {
			p.printNode(n.Encl)
			p.write(".")
		}
		p.write("new ")
		p.printNode(n.Clazz)
		p.write("(")
		p.printExprs(n.Args)
		p.write(")")
		if n.Def != nil {
			p.write(" ")
			p.printClassBody(n.Def.Defs)
		}
	case *NewArray:
		p.write("new ")
		p.printNode(n.ElemType)
		for _, d := range n.Dims {
			p.write("[")
			p.printNode(d)
			p.write("]")
		}
		if n.Elems != nil || len(n.Dims) == 0 {
			if n.ElemType != nil && len(n.Dims) == 0 {
				p.write("[]")
			}
			p.write("{")
			p.printExprs(n.Elems)
			p.write("}")
		}
	case *Assign:
		p.printNode(n.LHS)
		p.write(" = ")
		p.printNode(n.RHS)
	case *AssignOp:
		p.printNode(n.LHS)
		p.write(" " + n.Op + " ")
		p.printNode(n.RHS)
	case *Unary:
		if strings.HasPrefix(n.Op, "post") {
			p.printNode(n.Arg)
			p.write(strings.TrimPrefix(n.Op, "post"))
		} else {
			p.write(n.Op)
			p.printNode(n.Arg)
		}
	case *Binary:
		p.printNode(n.LHS)
		p.write(" " + n.Op + " ")
		p.printNode(n.RHS)
	case *Parens:
		p.write("(")
		p.printNode(n.Expr)
		p.write(")")
	case *TypeCast:
		p.write("(")
		p.printNode(n.Clazz)
		p.write(")")
		p.printNode(n.Expr)
	case *PrimitiveType:
		p.write(symbols.PrimitiveByTag(n.TypeTag).String())
	case *ArrayType:
		p.printNode(n.Elem)
		p.write("[]")
	case *TypeApply:
		p.printNode(n.Clazz)
		p.write("<")
		p.printExprs(n.Args)
		p.write(">")
	case *Wildcard:
		p.write("?")
		if n.Bound != nil {
			p.write(" " + boundKindName(n.BoundKind) + " ")
			p.printNode(n.Bound)
		}
	case *Erroneous:
		p.write("(ERROR)")
	}
}

func (p *Printer) printModifiers(m *Modifiers, hide symbols.Flags) {
	if m == nil {
		return
	}
	for _, a := range m.Annotations {
		p.printNode(a)
		p.write(" ")
	}
	for _, name := range (m.Flags &^ hide & symbols.ModifierFlags).Names() {
		if name == "interface" {
			continue
		}
		p.write(name + " ")
	}
}

func (p *Printer) printClassDecl(n *ClassDecl) {
	flags := Flags(n)
	p.printModifiers(n.Mods, symbols.FlagInterface)
	switch {
	case flags.Has(symbols.FlagAnnotation):
		p.write("@interface ")
	case flags.Has(symbols.FlagInterface):
		p.write("interface ")
	case flags.Has(symbols.FlagEnum):
		p.write("enum ")
	default:
		p.write("class ")
	}
	p.write(n.Name)
	p.printTypeParams(n.TypeParams)
	if n.Extends != nil {
		p.write(" extends ")
		p.printNode(n.Extends)
	}
	if len(n.Implements) > 0 {
		if flags.Has(symbols.FlagInterface) {
			p.write(" extends ")
		} else {
			p.write(" implements ")
		}
		p.printExprs(n.Implements)
	}
	p.write(" ")
	p.classNames = append(p.classNames, n.Name)
	p.printClassBody(n.Defs)
	p.classNames = p.classNames[:len(p.classNames)-1]
}

func (p *Printer) printClassBody(defs []Node) {
	p.write("{")
	p.newline()
	p.indent++
	for _, d := range defs {
		if v, ok := d.(*VarDecl); ok && IsEnumConstant(v) {
			p.write(v.Name)
			if nc, ok := v.Init.(*NewClass); ok && len(nc.Args) > 0 {
				p.write("(")
				p.printExprs(nc.Args)
				p.write(")")
			}
			p.write(",")
			p.newline()
			continue
		}
		p.printNode(d)
		p.newline()
	}
	p.indent--
	p.write("}")
}

func (p *Printer) printMethodDecl(n *MethodDecl) {
	p.printModifiers(n.Mods, 0)
	if len(n.TypeParams) > 0 {
		p.printTypeParams(n.TypeParams)
		p.write(" ")
	}
	if IsConstructor(n) {
		name := "<init>"
		if len(p.classNames) > 0 && p.classNames[len(p.classNames)-1] != "" {
			name = p.classNames[len(p.classNames)-1]
		}
		p.write(name)
	} else {
		p.printNode(n.ResType)
		p.write(" " + n.Name)
	}
	p.write("(")
	for i, param := range n.Params {
		if i > 0 {
			p.write(", ")
		}
		p.printVarDecl(param)
	}
	p.write(")")
	if len(n.Thrown) > 0 {
		p.write(" throws ")
		p.printExprs(n.Thrown)
	}
	if n.DefaultValue != nil {
		p.write(" default ")
		p.printNode(n.DefaultValue)
	}
	if n.Body == nil {
		p.write(";")
		return
	}
	p.write(" ")
	p.printBlock(n.Body.Stats)
}

func (p *Printer) printVarDecl(n *VarDecl) {
	p.printModifiers(n.Mods, symbols.FlagParameter)
	p.printNode(n.VarType)
	p.write(" " + n.Name)
	if n.Init != nil {
		p.write(" = ")
		p.printNode(n.Init)
	}
}

func (p *Printer) printTypeParams(tps []*TypeParameter) {
	if len(tps) == 0 {
		return
	}
	p.write("<")
	for i, tp := range tps {
		if i > 0 {
			p.write(", ")
		}
		p.printNode(tp)
	}
	p.write(">")
}

func (p *Printer) printBlock(stats []Node) {
	p.write("{")
	p.newline()
	p.indent++
	for _, s := range stats {
		p.printNode(s)
		p.newline()
	}
	p.indent--
	p.write("}")
}

func (p *Printer) printForPart(nodes []Node) {
	for i, n := range nodes {
		if i > 0 {
			p.write(", ")
		}
		switch n := n.(type) {
		case *ExprStmt:
			p.printNode(n.Expr)
		case *VarDecl:
			p.printVarDecl(n)
		default:
			p.printNode(n)
		}
	}
}

func (p *Printer) printExprs(es []Expr) {
	for i, e := range es {
		if i > 0 {
			p.write(", ")
		}
		p.printNode(e)
	}
}

func literalText(l *Literal) string {
	switch v := l.Value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case rune:
		if l.TypeTag == symbols.TagChar {
			return strconv.QuoteRune(v)
		}
		return strconv.Itoa(int(v))
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32) + "f"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return "?"
}
