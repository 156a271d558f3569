package comp

import (
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// PrepareRound readies the session for another annotation processing
// round. Source classes are turned into cleaned artifacts: their symbols
// survive, flagged so the next Enter of the same trees matches members
// loosely and reuses them. Attribution is stripped from the trees and the
// per-round queues are emptied.
func (s *Session) PrepareRound() {
	units := s.units
	for id, env := range s.typeEnvs {
		c := s.table.Sym(id)
		c.Flags |= symbols.FlagAptCleaned | symbols.FlagFromClass
		for _, m := range s.table.Members(id).Elems() {
			msym := s.table.Sym(m)
			msym.Flags |= symbols.FlagFromClass
			for _, p := range msym.Params {
				s.table.Sym(p).Flags |= symbols.FlagFromClass
			}
		}
		c.State = symbols.StateUnseen
		s.table.SetCompleter(id, s.completer)
		if decl, ok := env.Tree.(*tree.ClassDecl); ok {
			cleanTree(decl)
			decl.Sym = id
		}
	}
	for _, unit := range units {
		for _, imp := range unit.Imports {
			cleanTree(imp)
		}
		if unit.PackageName != nil {
			cleanTree(unit.PackageName)
		}
		for _, a := range unit.PackageAnnotations {
			cleanTree(a)
		}
		if p := s.table.Sym(unit.Packge); p != nil {
			p.Flags |= symbols.FlagAptCleaned
		}
	}
	s.todo.Clear()
	s.annotate.clear()
	s.reset()
	s.logger.Infof("prepared next round, %d units", len(units))
}

// cleanTree strips attribution from a tree so it can be entered again.
// Class declarations keep their symbols; they are what the next round
// reconciles against.
func cleanTree(n tree.Node) {
	tree.Inspect(n, func(n tree.Node) bool {
		if e, ok := n.(tree.Expr); ok {
			e.SetExprType(nil)
		}
		switch n := n.(type) {
		case *tree.MethodDecl:
			n.Sym = symbols.NoSymbolID
		case *tree.VarDecl:
			n.Sym = symbols.NoSymbolID
		case *tree.Ident:
			n.Sym = symbols.NoSymbolID
		case *tree.Select:
			n.Sym = symbols.NoSymbolID
		case *tree.NewClass:
			n.Constructor = symbols.NoSymbolID
		case *tree.Unary:
			n.Operator = symbols.NoSymbolID
		case *tree.Binary:
			n.Operator = symbols.NoSymbolID
		case *tree.AssignOp:
			n.Operator = symbols.NoSymbolID
		case *tree.TypeParameter:
			n.Type = nil
		case *tree.Annotation:
			n.Attribute = nil
		}
		return true
	})
}
