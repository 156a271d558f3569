package tree

import (
	"sort"
	"strings"

	"github.com/dhamidi/saic/java/symbols"
)

// EndPosTable maps nodes to the offset just past their last character.
// Keys are node identities; the table never owns the nodes.
type EndPosTable map[Node]int

// Position is a resolved diagnostic location.
type Position struct {
	Start     int
	Preferred int
	End       int
}

// NoPos is the offset used when no position is known.
const NoPos = -1

// DiagPos resolves the start, preferred and end positions of n.
func DiagPos(n Node, table EndPosTable) Position {
	if n == nil {
		return Position{NoPos, NoPos, NoPos}
	}
	return Position{Start: StartPos(n), Preferred: n.Pos(), End: EndPos(n, table)}
}

// EndPos returns the recorded end position of n, or its preferred
// position when the table has no entry.
func EndPos(n Node, table EndPosTable) int {
	if n == nil {
		return NoPos
	}
	if table != nil {
		if end, ok := table[n]; ok {
			return end
		}
	}
	switch n := n.(type) {
	case *Block:
		if len(n.Stats) > 0 {
			return EndPos(n.Stats[len(n.Stats)-1], table)
		}
	case *If:
		if n.Else != nil {
			return EndPos(n.Else, table)
		}
		return EndPos(n.Then, table)
	case *Binary:
		return EndPos(n.RHS, table)
	case *Assign:
		return EndPos(n.RHS, table)
	}
	return n.Pos()
}

// StartPos returns the offset of the first character of n.
func StartPos(n Node) int {
	switch n := n.(type) {
	case nil:
		return NoPos
	case *Select:
		return StartPos(n.Selected)
	case *Apply:
		return StartPos(n.Meth)
	case *Assign:
		return StartPos(n.LHS)
	case *AssignOp:
		return StartPos(n.LHS)
	case *Binary:
		return StartPos(n.LHS)
	case *TypeApply:
		return StartPos(n.Clazz)
	case *ArrayType:
		return StartPos(n.Elem)
	case *NewClass:
		if n.Encl != nil {
			return StartPos(n.Encl)
		}
	case *ClassDecl:
		if p := modsStart(n.Mods); p != NoPos {
			return min(p, n.Pos())
		}
	case *MethodDecl:
		if p := modsStart(n.Mods); p != NoPos {
			return min(p, n.Pos())
		}
		if n.ResType != nil {
			return StartPos(n.ResType)
		}
	case *VarDecl:
		if p := modsStart(n.Mods); p != NoPos {
			return min(p, n.Pos())
		}
		if n.VarType != nil {
			return min(StartPos(n.VarType), n.Pos())
		}
	case *ExprStmt:
		return StartPos(n.Expr)
	case *Erroneous:
		if len(n.Errs) > 0 {
			return StartPos(n.Errs[0])
		}
	}
	return n.Pos()
}

func modsStart(m *Modifiers) int {
	if m == nil {
		return NoPos
	}
	if len(m.Annotations) > 0 {
		return StartPos(m.Annotations[0])
	}
	if m.Flags != 0 && !m.Synthetic {
		return m.Pos()
	}
	return NoPos
}

// LineMap converts offsets to 1-based line and column numbers.
type LineMap struct {
	starts []int
}

// NewLineMap indexes the line starts of src.
func NewLineMap(src string) *LineMap {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineMap{starts: starts}
}

// NewLineMapFromStarts rebuilds a line map from recorded line offsets.
func NewLineMapFromStarts(starts []int) *LineMap {
	if len(starts) == 0 || starts[0] != 0 {
		starts = append([]int{0}, starts...)
	}
	return &LineMap{starts: starts}
}

// Starts returns the offsets at which lines begin.
func (m *LineMap) Starts() []int { return m.starts }

// Line returns the 1-based line of pos.
func (m *LineMap) Line(pos int) int {
	if m == nil || pos < 0 {
		return 0
	}
	return sort.Search(len(m.starts), func(i int) bool { return m.starts[i] > pos })
}

// Column returns the 1-based column of pos.
func (m *LineMap) Column(pos int) int {
	line := m.Line(pos)
	if line == 0 {
		return 0
	}
	return pos - m.starts[line-1] + 1
}

// Name returns the last identifier of a name expression.
func Name(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *Select:
		return e.Name
	case *TypeApply:
		return Name(e.Clazz)
	}
	return ""
}

// QualifiedName flattens an Ident/Select chain into a dotted name.
func QualifiedName(e Expr) string {
	switch e := e.(type) {
	case *Ident:
		return e.Name
	case *Select:
		prefix := QualifiedName(e.Selected)
		if prefix == "" {
			return e.Name
		}
		return prefix + "." + e.Name
	case *TypeApply:
		return QualifiedName(e.Clazz)
	}
	return ""
}

// SplitQualifiedName returns the qualifier and the last component of a
// dotted name expression.
func SplitQualifiedName(e Expr) (Expr, string) {
	if s, ok := e.(*Select); ok {
		return s.Selected, s.Name
	}
	return nil, Name(e)
}

// IsConstructor reports whether m declares a constructor.
func IsConstructor(m *MethodDecl) bool {
	return m.Name == symbols.ConstructorName
}

// IsSelfCall reports whether stmt is an explicit this(...) or super(...)
// constructor call.
func IsSelfCall(stmt Node) bool {
	es, ok := stmt.(*ExprStmt)
	if !ok {
		return false
	}
	app, ok := es.Expr.(*Apply)
	if !ok {
		return false
	}
	switch meth := app.Meth.(type) {
	case *Ident:
		return meth.Name == "this" || meth.Name == "super"
	case *Select:
		return meth.Name == "super"
	}
	return false
}

// FirstConstructorCall returns the leading this(...)/super(...) call of a
// constructor body.
func FirstConstructorCall(m *MethodDecl) Node {
	if m.Body == nil || len(m.Body.Stats) == 0 {
		return nil
	}
	if IsSelfCall(m.Body.Stats[0]) {
		return m.Body.Stats[0]
	}
	return nil
}

// IsEnumConstant reports whether v declares an enum constant.
func IsEnumConstant(v *VarDecl) bool {
	return v.Mods != nil && v.Mods.Flags.Has(symbols.FlagEnum)
}

// SymbolOf returns the symbol attached to a declaration or name.
func SymbolOf(n Node) symbols.SymbolID {
	switch n := n.(type) {
	case *ClassDecl:
		return n.Sym
	case *MethodDecl:
		return n.Sym
	case *VarDecl:
		return n.Sym
	case *Ident:
		return n.Sym
	case *Select:
		return n.Sym
	case *NewClass:
		return n.Constructor
	case *TypeParameter:
		if n.Type != nil {
			return n.Type.Sym
		}
	}
	return symbols.NoSymbolID
}

// Flags returns the modifier flags of a declaration.
func Flags(n Node) symbols.Flags {
	var mods *Modifiers
	switch n := n.(type) {
	case *ClassDecl:
		mods = n.Mods
	case *MethodDecl:
		mods = n.Mods
	case *VarDecl:
		mods = n.Mods
	}
	if mods == nil {
		return 0
	}
	return mods.Flags
}

// ModifiersOf returns the modifiers of a declaration, creating empty ones
// when absent.
func ModifiersOf(n Node) *Modifiers {
	switch n := n.(type) {
	case *ClassDecl:
		if n.Mods == nil {
			n.Mods = &Modifiers{Base: Base{Position: n.Pos(), Synthetic: true}}
		}
		return n.Mods
	case *MethodDecl:
		if n.Mods == nil {
			n.Mods = &Modifiers{Base: Base{Position: n.Pos(), Synthetic: true}}
		}
		return n.Mods
	case *VarDecl:
		if n.Mods == nil {
			n.Mods = &Modifiers{Base: Base{Position: n.Pos(), Synthetic: true}}
		}
		return n.Mods
	}
	return nil
}

// JoinNames joins dotted name parts, skipping empty ones.
func JoinNames(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
