// Package format renders entered class symbols for inspection.
package format

import (
	"encoding"
	"strings"

	"github.com/dhamidi/saic/java/symbols"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class symbols.SymbolID) error
}

// shownFlags are the modifier flags listed after the access level.
const shownFlags = symbols.FlagStatic | symbols.FlagFinal | symbols.FlagAbstract |
	symbols.FlagSynchronized | symbols.FlagNative | symbols.FlagVolatile | symbols.FlagTransient |
	symbols.FlagDefault | symbols.FlagVarargs | symbols.FlagSynthetic | symbols.FlagDeprecated |
	symbols.FlagFromClass | symbols.FlagGeneratedConstr | symbols.FlagAuxiliary

func classKind(sym *symbols.Symbol) string {
	switch {
	case sym.Flags.Has(symbols.FlagAnnotation):
		return "annotation"
	case sym.Flags.Has(symbols.FlagEnum):
		return "enum"
	case sym.Flags.Has(symbols.FlagInterface):
		return "interface"
	default:
		return "class"
	}
}

func visibility(f symbols.Flags) string {
	switch {
	case f.Has(symbols.FlagPublic):
		return "public"
	case f.Has(symbols.FlagProtected):
		return "protected"
	case f.Has(symbols.FlagPrivate):
		return "private"
	default:
		return "package"
	}
}

func modifiers(f symbols.Flags) []string {
	return (f & shownFlags).Names()
}

func typeString(t symbols.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// members returns the fields, methods and member classes of class in
// declaration order.
func members(t *symbols.Table, class symbols.SymbolID) (fields, methods, classes []*symbols.Symbol) {
	scope := t.Members(class)
	if scope == nil {
		return nil, nil, nil
	}
	for _, id := range scope.Elems() {
		sym := t.Sym(id)
		switch sym.Kind {
		case symbols.KindVar:
			fields = append(fields, sym)
		case symbols.KindMethod:
			methods = append(methods, sym)
		case symbols.KindClass:
			classes = append(classes, sym)
		}
	}
	return fields, methods, classes
}

func parameterTypes(t *symbols.Table, m *symbols.Symbol) []string {
	if mt := symbols.AsMethodType(m.Type); mt != nil {
		out := make([]string, len(mt.Params))
		for i, p := range mt.Params {
			out[i] = typeString(p)
		}
		return out
	}
	out := make([]string, len(m.Params))
	for i, p := range m.Params {
		out[i] = typeString(t.Sym(p).Type)
	}
	return out
}

func resultType(m *symbols.Symbol) string {
	if mt := symbols.AsMethodType(m.Type); mt != nil {
		return typeString(mt.Result)
	}
	return "?"
}

func joinOrDash(parts []string) string {
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}
