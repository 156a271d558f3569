package comp

import (
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// addEnumMembers enters the implicit static members of an enum: values()
// and valueOf(String). When compiling the platform itself the members
// normally inherited from java.lang.Enum are entered as well. The
// declarations are not added to the class body.
func (s *Session) addEnumMembers(decl *tree.ClassDecl, env *Env) error {
	c := s.table.Sym(decl.Sym)
	mk := s.make.At(decl.Pos())
	messages := s.log.Messages()
	stringType := s.table.PlatformType(symbols.StringName)

	values := mk.MethodDef(
		mk.Modifiers(symbols.FlagPublic|symbols.FlagStatic),
		"values",
		mk.Type(&symbols.ArrayType{Elem: c.Type}),
		nil, nil, nil, symbols.NoSymbolID)
	valueOf := mk.MethodDef(
		mk.Modifiers(symbols.FlagPublic|symbols.FlagStatic),
		"valueOf",
		mk.Type(c.Type),
		[]*tree.VarDecl{mk.Param("name", stringType, symbols.NoSymbolID)},
		nil, nil, symbols.NoSymbolID)

	if unit := env.Unit; unit != nil {
		if unit.DocComments == nil {
			unit.DocComments = make(map[tree.Node]string)
		}
		unit.DocComments[values] = messages.Render(diag.KeyNoteEnumValuesDoc)
		unit.DocComments[valueOf] = messages.Render(diag.KeyNoteEnumValueOfDoc)
	}

	members := []*tree.MethodDecl{values, valueOf}
	if s.cfg.Bootstrap {
		final := mk.Modifiers(symbols.FlagPublic | symbols.FlagFinal)
		members = append(members,
			mk.MethodDef(final, "ordinal", mk.Type(symbols.IntType), nil, nil, nil, symbols.NoSymbolID),
			mk.MethodDef(mk.Modifiers(final.Flags), "name", mk.Type(stringType), nil, nil, nil, symbols.NoSymbolID),
			mk.MethodDef(mk.Modifiers(final.Flags), "compareTo", mk.Type(symbols.IntType),
				[]*tree.VarDecl{mk.Param("o", c.Type, symbols.NoSymbolID)},
				nil, nil, symbols.NoSymbolID),
		)
	}
	for _, m := range members {
		if err := s.memberEnter(m, env); err != nil {
			return err
		}
	}
	return nil
}
