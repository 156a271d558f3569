package symbols

// ScopeKind enumerates the scope categories used by the compiler.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeMembers
	ScopeLocal
	ScopeNamedImport
	ScopeStarImport
	// ScopeError holds the members of synthesized stand-in classes.
	ScopeError
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeMembers:
		return "members"
	case ScopeLocal:
		return "local"
	case ScopeNamedImport:
		return "named-import"
	case ScopeStarImport:
		return "star-import"
	case ScopeError:
		return "error"
	}
	return "invalid"
}

type entry struct {
	sym     SymbolID
	origin  ScopeID
	removed bool
}

// Entry is one lookup result: the symbol, the scope that holds the entry,
// and for imported entries the scope the symbol was imported from.
type Entry struct {
	Sym    SymbolID
	Scope  ScopeID
	Origin ScopeID
}

// Scope is an insertion-ordered multimap from simple names to symbols.
// Overloads share a name. Duplicate detection is the caller's job.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Owner  SymbolID
	Parent ScopeID

	entries []entry
	index   map[string][]int
	arena   *Scopes
}

// Enter adds sym unconditionally.
func (s *Scope) Enter(sym SymbolID) {
	s.EnterFrom(sym, NoScopeID)
}

// EnterFrom adds sym and remembers the scope it was imported from.
func (s *Scope) EnterFrom(sym SymbolID, origin ScopeID) {
	name := s.nameOf(sym)
	s.index[name] = append(s.index[name], len(s.entries))
	s.entries = append(s.entries, entry{sym: sym, origin: origin})
}

// EnterIfAbsent adds sym unless it is already present.
func (s *Scope) EnterIfAbsent(sym SymbolID) bool {
	if s.Includes(sym) {
		return false
	}
	s.Enter(sym)
	return true
}

// Remove drops every entry for sym.
func (s *Scope) Remove(sym SymbolID) {
	name := s.nameOf(sym)
	for _, i := range s.index[name] {
		if s.entries[i].sym == sym {
			s.entries[i].removed = true
		}
	}
}

// LookupLocal returns the entries for name held directly by this scope.
// Within one scope the newest entry shadows older ones and comes first,
// except in star-import scopes where earlier imports win.
func (s *Scope) LookupLocal(name string) []Entry {
	idx := s.index[name]
	if len(idx) == 0 {
		return nil
	}
	result := make([]Entry, 0, len(idx))
	add := func(i int) {
		e := s.entries[i]
		if !e.removed {
			result = append(result, Entry{Sym: e.sym, Scope: s.ID, Origin: e.origin})
		}
	}
	if s.Kind == ScopeStarImport {
		for _, i := range idx {
			add(i)
		}
	} else {
		for j := len(idx) - 1; j >= 0; j-- {
			add(idx[j])
		}
	}
	return result
}

// Lookup returns the local entries for name followed by those of the
// parent chain of nested scopes.
func (s *Scope) Lookup(name string) []Entry {
	result := s.LookupLocal(name)
	for p := s.parent(); p != nil; p = p.parent() {
		result = append(result, p.LookupLocal(name)...)
	}
	return result
}

// LookupFirst returns the first symbol visible under name.
func (s *Scope) LookupFirst(name string) (SymbolID, bool) {
	entries := s.Lookup(name)
	if len(entries) == 0 {
		return NoSymbolID, false
	}
	return entries[0].Sym, true
}

// Includes reports whether sym is entered directly in this scope.
func (s *Scope) Includes(sym SymbolID) bool {
	for _, i := range s.index[s.nameOf(sym)] {
		if e := s.entries[i]; e.sym == sym && !e.removed {
			return true
		}
	}
	return false
}

// Elems returns the symbols of this scope in insertion order.
func (s *Scope) Elems() []SymbolID {
	result := make([]SymbolID, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.removed {
			result = append(result, e.sym)
		}
	}
	return result
}

// HasElems reports whether anything was ever entered.
func (s *Scope) HasElems() bool {
	for _, e := range s.entries {
		if !e.removed {
			return true
		}
	}
	return false
}

// Len reports the number of live entries.
func (s *Scope) Len() int {
	n := 0
	for _, e := range s.entries {
		if !e.removed {
			n++
		}
	}
	return n
}

// ImportAll enters every type symbol of from that is not already present.
func (s *Scope) ImportAll(from *Scope) {
	if from == nil {
		return
	}
	for _, e := range from.entries {
		if e.removed {
			continue
		}
		sym := s.arena.syms.Get(e.sym)
		if sym == nil || sym.Kind != KindClass || s.Includes(e.sym) {
			continue
		}
		s.EnterFrom(e.sym, from.ID)
	}
}

func (s *Scope) parent() *Scope {
	if !s.Parent.IsValid() {
		return nil
	}
	return s.arena.Get(s.Parent)
}

func (s *Scope) nameOf(sym SymbolID) string {
	if rec := s.arena.syms.Get(sym); rec != nil {
		return rec.Name
	}
	return ""
}

func (s *Scope) reindex() {
	s.index = make(map[string][]int, len(s.entries))
	for i, e := range s.entries {
		name := s.nameOf(e.sym)
		s.index[name] = append(s.index[name], i)
	}
}
