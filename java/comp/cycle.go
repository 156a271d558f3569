package comp

import (
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// checkNonCyclic reports inheritance cycles that lead back to c once its
// supertypes are known. The cycle is broken at c by replacing its
// supertypes with error types, so later walks terminate. Classes whose
// whole hierarchy is known and acyclic are flagged so they are not walked
// again.
func (s *Session) checkNonCyclic(n tree.Node, c symbols.SymbolID) bool {
	csym := s.table.Sym(c)
	if csym.Flags.Has(symbols.FlagAcyclic) {
		return true
	}
	known := true
	seen := make(map[symbols.SymbolID]bool)
	var cyclic func(symbols.SymbolID) bool
	cyclic = func(id symbols.SymbolID) bool {
		for _, sup := range s.table.SupertypeSymbols(id) {
			if sup == c {
				return true
			}
			if seen[sup] {
				continue
			}
			seen[sup] = true
			sym := s.table.Sym(sup)
			if sym.Flags.Has(symbols.FlagAcyclic) {
				continue
			}
			if sym.State == symbols.StateShapePending || sym.HasCompleter() {
				known = false
			}
			if cyclic(sup) {
				return true
			}
		}
		return false
	}

	if cyclic(c) {
		s.log.Error(n, diag.KeyCyclicInheritance, csym.FullName)
		errType := &symbols.ErrorType{Sym: c, Name: csym.FullName, Original: csym.Type}
		csym.Supertype = errType
		csym.Interfaces = nil
		csym.AllInterfaces = nil
		csym.Flags |= symbols.FlagAcyclic
		return false
	}
	if known {
		csym.Flags |= symbols.FlagAcyclic
	}
	return true
}
