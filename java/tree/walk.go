package tree

// Children returns the direct subtrees of n in source order.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil && !isNilNode(c) {
			out = append(out, c)
		}
	}
	addExprs := func(es []Expr) {
		for _, e := range es {
			add(e)
		}
	}
	switch n := n.(type) {
	case *CompilationUnit:
		for _, a := range n.PackageAnnotations {
			add(a)
		}
		add(n.PackageName)
		for _, i := range n.Imports {
			add(i)
		}
		for _, d := range n.Defs {
			add(d)
		}
	case *Import:
		add(n.Qualid)
	case *ClassDecl:
		add(n.Mods)
		for _, tp := range n.TypeParams {
			add(tp)
		}
		add(n.Extends)
		addExprs(n.Implements)
		for _, d := range n.Defs {
			add(d)
		}
	case *MethodDecl:
		add(n.Mods)
		for _, tp := range n.TypeParams {
			add(tp)
		}
		add(n.ResType)
		for _, p := range n.Params {
			add(p)
		}
		addExprs(n.Thrown)
		add(n.Body)
		add(n.DefaultValue)
	case *VarDecl:
		add(n.Mods)
		add(n.VarType)
		add(n.Init)
	case *TypeParameter:
		addExprs(n.Bounds)
	case *Modifiers:
		for _, a := range n.Annotations {
			add(a)
		}
	case *Annotation:
		add(n.AnnotationType)
		addExprs(n.Args)
	case *Block:
		for _, s := range n.Stats {
			add(s)
		}
	case *ExprStmt:
		add(n.Expr)
	case *If:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *WhileLoop:
		add(n.Cond)
		add(n.Body)
	case *ForLoop:
		for _, s := range n.Init {
			add(s)
		}
		add(n.Cond)
		for _, s := range n.Step {
			add(s)
		}
		add(n.Body)
	case *Switch:
		add(n.Selector)
		for _, c := range n.Cases {
			add(c)
		}
	case *Case:
		add(n.Pat)
		for _, s := range n.Stats {
			add(s)
		}
	case *Return:
		add(n.Expr)
	case *Throw:
		add(n.Expr)
	case *Break, *Continue, *Skip, *Ident, *Literal, *PrimitiveType:
	case *Select:
		add(n.Selected)
	case *Apply:
		addExprs(n.TypeArgs)
		add(n.Meth)
		addExprs(n.Args)
	case *NewClass:
		add(n.Encl)
		addExprs(n.TypeArgs)
		add(n.Clazz)
		addExprs(n.Args)
		add(n.Def)
	case *NewArray:
		add(n.ElemType)
		addExprs(n.Dims)
		addExprs(n.Elems)
	case *Assign:
		add(n.LHS)
		add(n.RHS)
	case *AssignOp:
		add(n.LHS)
		add(n.RHS)
	case *Unary:
		add(n.Arg)
	case *Binary:
		add(n.LHS)
		add(n.RHS)
	case *Parens:
		add(n.Expr)
	case *TypeCast:
		add(n.Clazz)
		add(n.Expr)
	case *ArrayType:
		add(n.Elem)
	case *TypeApply:
		add(n.Clazz)
		addExprs(n.Args)
	case *Wildcard:
		add(n.Bound)
	case *Erroneous:
		for _, e := range n.Errs {
			add(e)
		}
	}
	return out
}

// Inspect traverses n depth-first, calling f before visiting children.
// Children are skipped when f returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// isNilNode catches typed nil pointers stored in interface fields.
func isNilNode(n Node) bool {
	switch n := n.(type) {
	case *Modifiers:
		return n == nil
	case *Block:
		return n == nil
	case *ClassDecl:
		return n == nil
	case *Case:
		return n == nil
	}
	return false
}
