package comp

import (
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

// defaultConstructor builds the constructor of a class that declares none.
// It forwards its parameters to the superclass constructor. An anonymous
// class copies the signature of the constructor its creation expression
// resolved to, with the enclosing instance prepended when the expression
// is qualified. It returns nil when that constructor is unusable.
func (s *Session) defaultConstructor(decl *tree.ClassDecl, env *Env) (*tree.MethodDecl, error) {
	c := s.table.Sym(decl.Sym)
	mk := s.make.At(decl.Pos())

	var argtypes, thrown []symbols.Type
	var typarams []*symbols.TypeVar
	var ctorFlags symbols.Flags
	based := false

	nc := anonymousCreation(c, env)
	if nc != nil && nc.Constructor.IsValid() {
		ctor := s.table.Sym(nc.Constructor)
		mt := symbols.AsMethodType(ctor.Type)
		if mt == nil || ctor.Kind != symbols.KindMethod {
			return nil, nil
		}
		for _, p := range mt.Params {
			if symbols.IsErroneous(p) {
				return nil, nil
			}
		}
		argtypes = append(argtypes, mt.Params...)
		typarams = mt.TypeParams
		thrown = mt.Thrown
		ctorFlags = ctor.Flags & symbols.FlagVarargs
		if nc.Encl != nil {
			argtypes = append([]symbols.Type{exprType(nc.Encl)}, argtypes...)
			based = true
		}
	}

	var flags symbols.Flags
	if c.Flags.Has(symbols.FlagEnum) && (s.cfg.Bootstrap || s.isClass(c.Supertype, symbols.EnumName)) {
		flags = symbols.FlagPrivate | symbols.FlagGeneratedConstr
	} else {
		flags = c.Flags&symbols.AccessFlags | symbols.FlagGeneratedConstr
	}
	if nc != nil {
		flags |= symbols.FlagAnonConstr
	}
	flags |= ctorFlags

	params := mk.Params(argtypes)
	if based {
		params[0].Mods.Flags |= symbols.FlagOuterInstance
	}
	if ctorFlags.Has(symbols.FlagVarargs) && len(params) > 0 {
		params[len(params)-1].Mods.Flags |= symbols.FlagVarargs
	}

	var stats []tree.Node
	_, hasSuper := c.Supertype.(*symbols.ClassType)
	if hasSuper && !symbols.IsErroneous(c.Type) && c.FullName != symbols.ObjectName {
		var meth tree.Expr
		args := mk.Idents(params)
		if based {
			meth = mk.Select(mk.Ident(params[0].Name, symbols.NoSymbolID, nil), "super", symbols.NoSymbolID, nil)
			args = args[1:]
		} else {
			meth = mk.Ident("super", symbols.NoSymbolID, nil)
		}
		stats = append(stats, mk.Exec(mk.Apply(meth, args...)))
	}

	ctor := mk.MethodDef(mk.Modifiers(flags), symbols.ConstructorName, nil, params, mk.Types(thrown), mk.Block(false, stats...), symbols.NoSymbolID)
	ctor.TypeParams = mk.TypeParams(typarams)
	s.logger.Debugf("default constructor for %s", c.FullName)
	return ctor, nil
}

// anonymousCreation returns the instance creation expression of an
// anonymous class.
func anonymousCreation(c *symbols.Symbol, env *Env) *tree.NewClass {
	if c.Name != "" || env.Next == nil {
		return nil
	}
	nc, _ := env.Next.Tree.(*tree.NewClass)
	return nc
}
