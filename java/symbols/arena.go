package symbols

import (
	"fmt"

	"fortio.org/safecast"
)

// Symbols stores every symbol of a compilation in a slice-based arena.
// Index 0 is reserved for NoSymbolID.
type Symbols struct {
	data []*Symbol
}

// NewSymbols creates a symbol arena with an optional capacity hint.
func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	s := &Symbols{data: make([]*Symbol, 1, capacity+1)}
	return s
}

// New allocates sym in the arena, assigns its ID and returns it.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	id := SymbolID(value)
	sym.ID = id
	s.data = append(s.data, sym)
	return id
}

// Get returns the symbol for id, or nil for an invalid ID.
func (s *Symbols) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return s.data[id]
}

// Len reports the number of allocated symbols.
func (s *Symbols) Len() int { return len(s.data) - 1 }

// Scopes stores every scope of a compilation.
type Scopes struct {
	data []*Scope
	syms *Symbols
}

// NewScopes creates a scope arena bound to the symbol arena it indexes.
func NewScopes(syms *Symbols, capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 32
	}
	return &Scopes{data: make([]*Scope, 1, capacity+1), syms: syms}
}

// New allocates an empty scope owned by owner.
func (s *Scopes) New(kind ScopeKind, owner SymbolID) ScopeID {
	return s.alloc(&Scope{Kind: kind, Owner: owner})
}

// Dup creates a nested scope whose lookups fall through to parent.
func (s *Scopes) Dup(parent ScopeID) ScopeID {
	p := s.Get(parent)
	if p == nil {
		return s.New(ScopeLocal, NoSymbolID)
	}
	return s.alloc(&Scope{Kind: ScopeLocal, Owner: p.Owner, Parent: parent})
}

// DupUnshared copies the entries of id into an independent scope. Entries
// added to either scope afterwards are not visible in the other.
func (s *Scopes) DupUnshared(id ScopeID) ScopeID {
	src := s.Get(id)
	if src == nil {
		return s.New(ScopeLocal, NoSymbolID)
	}
	dup := &Scope{Kind: src.Kind, Owner: src.Owner, Parent: src.Parent, arena: s}
	dup.entries = make([]entry, 0, len(src.entries))
	for _, e := range src.entries {
		if !e.removed {
			dup.entries = append(dup.entries, e)
		}
	}
	dup.reindex()
	return s.alloc(dup)
}

// Get returns the scope for id, or nil for an invalid ID.
func (s *Scopes) Get(id ScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return s.data[id]
}

// Len reports the number of allocated scopes.
func (s *Scopes) Len() int { return len(s.data) - 1 }

func (s *Scopes) alloc(sc *Scope) ScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ScopeID(value)
	sc.ID = id
	sc.arena = s
	if sc.index == nil {
		sc.index = make(map[string][]int)
	}
	s.data = append(s.data, sc)
	return id
}
