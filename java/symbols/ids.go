package symbols

// SymbolID identifies a symbol inside the table arena.
type SymbolID uint32

// NoSymbolID marks the absence of a symbol reference.
const NoSymbolID SymbolID = 0

// IsValid reports whether the ID refers to an allocated symbol.
func (id SymbolID) IsValid() bool { return id != NoSymbolID }

// ScopeID identifies a scope inside the table arena.
type ScopeID uint32

// NoScopeID marks the absence of a scope reference.
const NoScopeID ScopeID = 0

// IsValid reports whether the ID refers to an allocated scope.
func (id ScopeID) IsValid() bool { return id != NoScopeID }
