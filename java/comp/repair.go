package comp

import (
	"context"
	"strconv"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// Repair rewrites the classes queued on the todo list so that no subtree
// carrying an error survives: erroneous statements become
// throw new RuntimeException("Uncompilable source code - ..."), tainted
// field initializers become error expressions and tainted methods get a
// throwing body. Trees without errors are left as they are.
func (s *Session) Repair(ctx context.Context) error {
	defer s.use(ctx)()
	s.repaired = make(map[symbols.SymbolID]bool)
	r := &repairer{s: s, visiting: make(map[symbols.SymbolID]bool)}
	for _, env := range s.todo.Envs() {
		if err := checkBreak(s.ctx); err != nil {
			return err
		}
		r.translateTopLevel(env)
		if r.abort != nil {
			return r.abort
		}
	}
	return nil
}

// RepairClass repairs a single source class and its superclasses.
func (s *Session) RepairClass(ctx context.Context, id symbols.SymbolID) error {
	defer s.use(ctx)()
	env := s.typeEnvs[id]
	if env == nil {
		return nil
	}
	r := &repairer{s: s, visiting: make(map[symbols.SymbolID]bool)}
	r.translateTopLevel(env)
	return r.abort
}

type repairer struct {
	s   *Session
	env *Env

	hasError   bool
	err        *diag.Diagnostic
	isErrClass bool
	staticInit *tree.Block
	parents    []tree.Node

	classErr    tree.Node
	classErrMsg string

	visiting map[symbols.SymbolID]bool
	ctor     symbols.SymbolID
	withMsg  bool
	abort    error
}

func (r *repairer) translateTopLevel(env *Env) {
	r.env = env
	r.hasError = false
	r.parents = nil
	r.translate(env.Tree)
	r.env = nil
}

func (r *repairer) parent() tree.Node {
	if len(r.parents) == 0 {
		return nil
	}
	return r.parents[len(r.parents)-1]
}

func (r *repairer) message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Message
}

func (r *repairer) translate(n tree.Node) tree.Node {
	if n == nil || r.abort != nil {
		return n
	}
	r.parents = append(r.parents, n)
	if r.hasError {
		// An enclosing node carries the error and is replaced on its way out.
		out := r.visit(n)
		r.parents = r.parents[:len(r.parents)-1]
		return out
	}
	if d, ok := r.s.log.ErrDiag(n); ok {
		r.hasError = true
		r.err = &d
	}
	out := r.visit(n)
	r.parents = r.parents[:len(r.parents)-1]

	if e, ok := out.(tree.Expr); ok && !tree.IsSynthetic(out) {
		if t := e.ExprType(); t != nil && symbols.IsErroneous(t) {
			if _, inClass := r.parent().(*tree.ClassDecl); !inClass {
				r.hasError = true
			}
		}
	}
	if !r.hasError || !tree.IsStatement(out) {
		return out
	}
	switch out.(type) {
	case *tree.Case:
		return out
	case *tree.ClassDecl, *tree.VarDecl:
		switch r.parent().(type) {
		case *tree.Block, *tree.Case:
		default:
			return out
		}
	}
	msg := r.message()
	r.hasError = false
	r.err = nil
	if b, ok := out.(*tree.Block); ok {
		b.Stats = []tree.Node{r.errStat(b.Pos(), msg)}
		return b
	}
	return r.errStat(out.Pos(), msg)
}

func (r *repairer) expr(e tree.Expr) tree.Expr {
	if e == nil {
		return nil
	}
	if out, ok := r.translate(e).(tree.Expr); ok {
		return out
	}
	return e
}

func (r *repairer) exprs(es []tree.Expr) {
	for i, e := range es {
		es[i] = r.expr(e)
	}
}

func (r *repairer) block(b *tree.Block) *tree.Block {
	if b == nil {
		return nil
	}
	if out, ok := r.translate(b).(*tree.Block); ok {
		return out
	}
	return b
}

// stats translates a statement list and drops everything after the first
// throw.
func (r *repairer) stats(stats []tree.Node) []tree.Node {
	for i, st := range stats {
		stats[i] = r.translate(st)
		if _, ok := stats[i].(*tree.Throw); ok {
			clear(stats[i+1:])
			return stats[:i+1]
		}
	}
	return stats
}

func (r *repairer) visit(n tree.Node) tree.Node {
	switch n := n.(type) {
	case *tree.CompilationUnit:
		for _, def := range n.Defs {
			r.translate(def)
		}
	case *tree.Import:
		n.Qualid = r.expr(n.Qualid)
		if r.hasError && r.err != nil {
			r.classErr = r.err.Tree()
			r.classErrMsg = r.err.Message
		}
	case *tree.ClassDecl:
		r.translateClass(n.Sym)
	case *tree.MethodDecl:
		r.visitMethod(n)
	case *tree.VarDecl:
		r.visitVar(n)
	case *tree.TypeParameter:
		r.exprs(n.Bounds)
		if tv := n.Type; tv != nil && tv.Bound != nil && symbols.IsErroneous(tv.Bound) {
			tv.Bound = r.s.table.PlatformType(symbols.ObjectName)
			r.hasError = true
		}
	case *tree.Modifiers:
		for i, a := range n.Annotations {
			if out, ok := r.translate(a).(*tree.Annotation); ok {
				n.Annotations[i] = out
			}
		}
	case *tree.Annotation:
		n.AnnotationType = r.expr(n.AnnotationType)
		r.exprs(n.Args)
	case *tree.Block:
		if n.Static && r.staticInit == nil {
			r.staticInit = n
		}
		n.Stats = r.stats(n.Stats)
	case *tree.Case:
		n.Pat = r.expr(n.Pat)
		n.Stats = r.stats(n.Stats)
	case *tree.ExprStmt:
		n.Expr = r.expr(n.Expr)
	case *tree.If:
		n.Cond = r.expr(n.Cond)
		n.Then = r.translate(n.Then)
		n.Else = r.translate(n.Else)
	case *tree.WhileLoop:
		n.Cond = r.expr(n.Cond)
		n.Body = r.translate(n.Body)
	case *tree.ForLoop:
		for i, st := range n.Init {
			n.Init[i] = r.translate(st)
		}
		n.Cond = r.expr(n.Cond)
		for i, st := range n.Step {
			n.Step[i] = r.translate(st)
		}
		n.Body = r.translate(n.Body)
	case *tree.Switch:
		n.Selector = r.expr(n.Selector)
		for i, c := range n.Cases {
			if out, ok := r.translate(c).(*tree.Case); ok {
				n.Cases[i] = out
			}
		}
	case *tree.Return:
		n.Expr = r.expr(n.Expr)
	case *tree.Throw:
		n.Expr = r.expr(n.Expr)
	case *tree.Apply:
		r.checkSymbol(n, tree.SymbolOf(n.Meth), "method")
		r.exprs(n.TypeArgs)
		n.Meth = r.expr(n.Meth)
		r.exprs(n.Args)
	case *tree.NewClass:
		r.checkSymbol(n, n.Constructor, "constructor")
		n.Encl = r.expr(n.Encl)
		r.exprs(n.TypeArgs)
		n.Clazz = r.expr(n.Clazz)
		r.exprs(n.Args)
		if n.Def != nil {
			r.translate(n.Def)
		}
	case *tree.Unary:
		r.checkOperator(n, n.Operator)
		n.Arg = r.expr(n.Arg)
	case *tree.Binary:
		r.checkOperator(n, n.Operator)
		n.LHS = r.expr(n.LHS)
		n.RHS = r.expr(n.RHS)
	case *tree.AssignOp:
		r.checkOperator(n, n.Operator)
		n.LHS = r.expr(n.LHS)
		n.RHS = r.expr(n.RHS)
	case *tree.Assign:
		n.LHS = r.expr(n.LHS)
		n.RHS = r.expr(n.RHS)
	case *tree.Select:
		n.Selected = r.expr(n.Selected)
	case *tree.Parens:
		n.Expr = r.expr(n.Expr)
	case *tree.TypeCast:
		n.Clazz = r.expr(n.Clazz)
		n.Expr = r.expr(n.Expr)
	case *tree.NewArray:
		n.ElemType = r.expr(n.ElemType)
		r.exprs(n.Dims)
		r.exprs(n.Elems)
	case *tree.TypeApply:
		n.Clazz = r.expr(n.Clazz)
		r.exprs(n.Args)
	case *tree.ArrayType:
		n.Elem = r.expr(n.Elem)
	case *tree.Wildcard:
		n.Bound = r.expr(n.Bound)
	case *tree.Erroneous:
		if !repairOutput(n) {
			r.hasError = true
		}
	}
	return n
}

// checkSymbol taints an invocation whose method is erroneous. A missing
// symbol only taints in strict mode, where trees are expected to be fully
// attributed.
func (r *repairer) checkSymbol(n tree.Node, id symbols.SymbolID, what string) {
	sym := r.s.table.Sym(id)
	if !id.IsValid() || sym == nil {
		if r.s.cfg.StrictRepair {
			r.s.logger.Warningf("repair: %s has no %s symbol", tree.String(n), what)
			r.hasError = true
		}
		return
	}
	if sym.Type == nil || symbols.IsErroneous(sym.Type) {
		r.hasError = true
	}
}

func (r *repairer) checkOperator(n tree.Node, op symbols.SymbolID) {
	if !op.IsValid() && r.s.cfg.StrictRepair {
		r.s.logger.Warningf("repair: %s has no operator symbol", tree.String(n))
		r.hasError = true
	}
}

func (r *repairer) visitVar(v *tree.VarDecl) {
	if v.Mods != nil {
		r.translate(v.Mods)
	}
	v.VarType = r.expr(v.VarType)
	v.Init = r.expr(v.Init)
	if !r.hasError {
		return
	}
	var owner tree.Node
	if len(r.parents) >= 2 {
		owner = r.parents[len(r.parents)-2]
	}
	if _, ok := owner.(*tree.ClassDecl); ok {
		if r.err != nil {
			v.Init = r.errExpr(r.err.Pos.Preferred, r.err.Message)
		} else {
			pos := v.Pos()
			if v.Init != nil {
				pos = v.Init.Pos()
			}
			v.Init = r.errExpr(pos, "")
		}
		r.hasError = false
		r.err = nil
	}
}

func (r *repairer) visitMethod(m *tree.MethodDecl) {
	duplicate := r.hasError && r.err != nil && r.err.Key == diag.KeyAlreadyDefined
	if m.Mods != nil {
		r.translate(m.Mods)
	}
	m.ResType = r.expr(m.ResType)
	for _, tp := range m.TypeParams {
		r.translate(tp)
	}
	for _, p := range m.Params {
		r.translate(p)
	}
	r.exprs(m.Thrown)
	m.DefaultValue = r.expr(m.DefaultValue)
	m.Body = r.block(m.Body)

	if r.isErrClass && m.Body != nil {
		if call := tree.FirstConstructorCall(m); call != nil && !r.callsEnumConstructor(call) {
			clear(m.Body.Stats[1:])
			m.Body.Stats = m.Body.Stats[:1]
		} else {
			m.Body.Stats = nil
		}
	}
	if r.hasError && !duplicate {
		if sym := r.s.table.Sym(m.Sym); sym != nil && m.Sym.IsValid() {
			sym.Flags &^= symbols.FlagAbstract | symbols.FlagNative
			sym.DefaultValue = nil
		}
		m.DefaultValue = nil
		if m.Body == nil {
			m.Body = r.s.make.At(m.Pos()).Block(false)
		}
		m.Body.Stats = []tree.Node{r.errStat(m.Pos(), r.message())}
		r.hasError = false
		r.err = nil
	}
}

// callsEnumConstructor reports a super call into java.lang.Enum, which
// cannot be kept in a repaired constructor.
func (r *repairer) callsEnumConstructor(call tree.Node) bool {
	stmt, ok := call.(*tree.ExprStmt)
	if !ok {
		return false
	}
	app, ok := stmt.Expr.(*tree.Apply)
	if !ok {
		return false
	}
	sym := r.s.table.Sym(tree.SymbolOf(app.Meth))
	if sym == nil || !tree.SymbolOf(app.Meth).IsValid() {
		return false
	}
	return r.s.table.Sym(sym.Owner).FullName == symbols.EnumName
}

func (r *repairer) translateClass(c symbols.SymbolID) {
	csym := r.s.table.Sym(c)
	if !c.IsValid() || csym == nil || r.visiting[c] {
		return
	}
	r.visiting[c] = true
	defer delete(r.visiting, c)
	if sup, ok := csym.Supertype.(*symbols.ClassType); ok {
		r.translateClass(sup.Sym)
	}
	if r.s.repaired[c] {
		r.s.logger.Debugf("repair: %s already done", csym.FullName)
		return
	}
	env := r.s.typeEnvs[c]
	if env == nil {
		return
	}
	r.s.logger.Debugf("repair: repairing %s", csym.FullName)
	r.s.repaired[c] = true

	saved := *r
	prevSource := r.s.log.UseSource(env.Unit)
	defer func() {
		r.s.log.UseSource(prevSource)
		r.env = saved.env
		r.hasError = saved.hasError
		r.err = saved.err
		r.isErrClass = saved.isErrClass
		r.staticInit = saved.staticInit
		r.classErr = saved.classErr
		r.classErrMsg = saved.classErrMsg
		r.parents = saved.parents
	}()
	r.env = env
	r.parents = r.parents[:len(r.parents):len(r.parents)]

	for _, imp := range env.Unit.Imports {
		r.translate(imp)
		if r.classErr != nil {
			break
		}
	}
	r.hasError = false
	r.isErrClass = symbols.IsErroneous(csym.Type)
	r.err = nil
	r.staticInit = nil

	decl := env.Tree.(*tree.ClassDecl)
	if decl.Mods != nil {
		r.translate(decl.Mods)
	}
	for _, tp := range decl.TypeParams {
		r.translate(tp)
	}
	decl.Extends = r.expr(decl.Extends)
	r.exprs(decl.Implements)
	if !r.hasError {
		if d, ok := r.s.log.ErrDiag(decl); ok {
			r.hasError = true
			r.isErrClass = true
			r.err = &d
		}
	}
	switch {
	case r.hasError && r.err != nil:
		r.isErrClass = true
		r.classErr = r.err.Tree()
		r.classErrMsg = r.err.Message
		if r.classErr == nil {
			r.classErr = decl
		}
	case r.isErrClass && saved.hasError && saved.err != nil:
		r.classErr = saved.err.Tree()
		r.classErrMsg = saved.err.Message
	}

	concrete := make(map[symbols.SymbolID]bool)
	var order []symbols.SymbolID
	for _, id := range r.s.table.Members(c).Elems() {
		m := r.s.table.Sym(id)
		if m.Kind == symbols.KindMethod && !m.Flags.Has(symbols.FlagAbstract) && m.Name != symbols.StaticInitializerName {
			concrete[id] = true
			order = append(order, id)
		}
	}

	r.parents = append(r.parents, decl)
	defs := decl.Defs[:0]
	for _, def := range decl.Defs {
		if m, ok := def.(*tree.MethodDecl); ok {
			delete(concrete, m.Sym)
		}
		r.hasError = false
		r.err = nil
		out := r.translate(def)
		if r.abort != nil {
			return
		}
		if !r.hasError {
			defs = append(defs, out)
			continue
		}
		if nested, ok := out.(*tree.ClassDecl); ok && r.s.table.Members(c).Includes(nested.Sym) {
			defs = append(defs, out)
		}
		if r.classErr == nil {
			if r.err != nil {
				r.classErr = r.err.Tree()
				r.classErrMsg = r.err.Message
			}
			if r.classErr == nil {
				r.classErr = out
			}
		}
	}
	clear(decl.Defs[len(defs):])
	decl.Defs = defs
	r.parents = r.parents[:len(r.parents)-1]

	if r.classErr != nil {
		pos := r.classErr.Pos()
		if r.staticInit != nil {
			r.staticInit.Stats = []tree.Node{r.errStat(pos, r.classErrMsg)}
		} else {
			init := r.s.make.At(pos).Block(true, r.errStat(pos, r.classErrMsg))
			decl.Defs = append([]tree.Node{init}, decl.Defs...)
		}
	}
	for _, id := range order {
		if !concrete[id] || r.isImplicitEnumMember(id) {
			continue
		}
		decl.Defs = append([]tree.Node{r.errMethod(id)}, decl.Defs...)
	}
}

// isImplicitEnumMember reports the values() and valueOf(String) methods of
// an enum, which are implemented by the runtime.
func (r *repairer) isImplicitEnumMember(id symbols.SymbolID) bool {
	m := r.s.table.Sym(id)
	if !r.s.table.Sym(m.Owner).Flags.Has(symbols.FlagEnum) {
		return false
	}
	mt := symbols.AsMethodType(m.Type)
	if mt == nil {
		return false
	}
	switch m.Name {
	case "values":
		return len(mt.Params) == 0
	case "valueOf":
		return len(mt.Params) == 1 && r.s.isClass(mt.Params[0], symbols.StringName)
	}
	return false
}

// errStat builds the throw statement that stands in for erroneous code.
func (r *repairer) errStat(pos int, msg string) tree.Node {
	mk := r.s.make.At(pos)
	rte := r.s.table.PlatformType(symbols.RuntimeExceptionName)
	if !r.ctor.IsValid() && r.abort == nil {
		r.resolveErrCtor(rte)
	}
	var args []tree.Expr
	if r.withMsg {
		text := r.s.log.Messages().Render(diag.KeyUncompilable)
		if msg != "" {
			text += " - " + msg
		}
		args = append(args, mk.Literal(symbols.TagClass, text, r.s.table.PlatformType(symbols.StringName)))
	}
	return mk.Throw(mk.NewClass(mk.Type(rte), args, r.ctor))
}

// resolveErrCtor finds RuntimeException(String), falling back to the
// no-argument constructor. Without either the compilation cannot go on.
func (r *repairer) resolveErrCtor(rte symbols.Type) {
	if id, ok := symbols.ClassSymbolOf(rte); ok && !symbols.IsErroneous(rte) {
		var noArg symbols.SymbolID
		for _, e := range r.s.table.Members(id).LookupLocal(symbols.ConstructorName) {
			mt := symbols.AsMethodType(r.s.table.Sym(e.Sym).Type)
			switch {
			case mt == nil:
			case len(mt.Params) == 1 && r.s.isClass(mt.Params[0], symbols.StringName):
				r.ctor, r.withMsg = e.Sym, true
				return
			case len(mt.Params) == 0:
				noArg = e.Sym
			}
		}
		if noArg.IsValid() {
			r.ctor, r.withMsg = noArg, false
			return
		}
	}
	r.abort = newFatalError(r.s.log.Messages(), diag.KeyFatalCantLocateCtor, symbols.RuntimeExceptionName)
}

// errExpr wraps a throw into an error expression for field initializers.
func (r *repairer) errExpr(pos int, msg string) tree.Expr {
	e := r.s.make.At(pos).Erroneous(r.errStat(pos, msg))
	e.Type = &symbols.ErrorType{Name: symbols.ErrorName}
	return e
}

// errMethod builds a throwing declaration for a method that has a symbol
// but no source declaration.
func (r *repairer) errMethod(id symbols.SymbolID) *tree.MethodDecl {
	m := r.s.table.Sym(id)
	mk := r.s.make.At(tree.NoPos)
	mt := symbols.AsMethodType(m.Type)
	var restype tree.Expr
	var params []*tree.VarDecl
	var thrown []tree.Expr
	var tparams []*tree.TypeParameter
	if mt != nil {
		if m.Name != symbols.ConstructorName {
			restype = mk.Type(mt.Result)
		}
		for i, t := range mt.Params {
			name := "arg" + strconv.Itoa(i)
			var pid symbols.SymbolID
			if i < len(m.Params) {
				pid = m.Params[i]
				name = r.s.table.Sym(pid).Name
			}
			params = append(params, mk.Param(name, t, pid))
		}
		thrown = mk.Types(mt.Thrown)
		tparams = mk.TypeParams(mt.TypeParams)
	}
	decl := mk.MethodDef(mk.Modifiers(m.Flags&symbols.ModifierFlags), m.Name, restype, params, thrown,
		mk.Block(false, r.errStat(tree.NoPos, "")), id)
	decl.TypeParams = tparams
	return decl
}

// repairOutput reports an error expression produced by an earlier repair.
func repairOutput(e *tree.Erroneous) bool {
	if !tree.IsSynthetic(e) || len(e.Errs) != 1 {
		return false
	}
	_, ok := e.Errs[0].(*tree.Throw)
	return ok
}
