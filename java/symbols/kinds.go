package symbols

// Kind distinguishes the symbol categories kept in the table.
type Kind uint8

const (
	KindNone Kind = iota
	KindPackage
	KindClass
	KindMethod
	KindVar
	KindTypeVar
	KindError
)

var kindNames = map[Kind]string{
	KindNone:    "none",
	KindPackage: "package",
	KindClass:   "class",
	KindMethod:  "method",
	KindVar:     "variable",
	KindTypeVar: "type variable",
	KindError:   "error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsType reports whether symbols of this kind name a type.
func (k Kind) IsType() bool {
	return k == KindClass || k == KindTypeVar || k == KindError
}

// CompletionState tracks how far a class symbol has been completed.
type CompletionState uint8

const (
	StateUnseen CompletionState = iota
	StateShapePending
	StateShapeDone
	StateMembersDone
)

func (s CompletionState) String() string {
	switch s {
	case StateUnseen:
		return "unseen"
	case StateShapePending:
		return "shape-pending"
	case StateShapeDone:
		return "shape-done"
	case StateMembersDone:
		return "members-done"
	}
	return "invalid"
}
