package artifact

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/saic/java/symbols"
)

var log = commonlog.GetLogger("saic.artifact")

// Reader enters classes from an Index into a symbol table. It installs
// itself as the table's loader; classes are completed lazily the first
// time they are needed.
type Reader struct {
	index *Index
	table *symbols.Table
}

func NewReader(index *Index) *Reader {
	return &Reader{index: index}
}

// Install makes r the loader of t.
func (r *Reader) Install(t *symbols.Table) {
	r.table = t
	t.SetLoader(r)
}

// Index returns the stubs the reader serves.
func (r *Reader) Index() *Index { return r.index }

func (r *Reader) ClassCompleter(fullName string) (symbols.Completer, bool) {
	if !r.index.Has(fullName) {
		return nil, false
	}
	return symbols.CompleterFunc(r.completeClass), true
}

func (r *Reader) PackageExists(fullName string) bool { return r.index.PackageExists(fullName) }

func (r *Reader) PackageClasses(fullName string) []string { return r.index.PackageClasses(fullName) }

// classSym returns the symbol for an internal or binary class name,
// entering it without completing it.
func (r *Reader) classSym(binary string) symbols.SymbolID {
	binary = BinaryName(binary)
	name := SourceName(binary)
	if id, ok := r.table.LookupClass(name); ok {
		return id
	}
	var owner symbols.SymbolID
	simple := name
	if i := strings.LastIndexByte(binary, '$'); i >= 0 {
		owner = r.classSym(binary[:i])
		simple = binary[i+1:]
	} else {
		pkg := ""
		if j := strings.LastIndexByte(binary, '.'); j >= 0 {
			pkg, simple = binary[:j], binary[j+1:]
		}
		owner = r.table.EnterPackage(pkg)
	}
	id := r.table.EnterClass(simple, owner)
	if c, ok := r.ClassCompleter(name); ok {
		r.table.SetCompleter(id, c)
	}
	return id
}

func (r *Reader) classType(internal string) symbols.Type {
	id := r.classSym(internal)
	return r.table.ClassType(id)
}

func (r *Reader) completeClass(t *symbols.Table, id symbols.SymbolID) error {
	sym := t.Sym(id)
	stub, err := r.index.Stub(sym.FullName)
	if err != nil {
		log.Warningf("cannot complete %s: %s", sym.FullName, err)
		return &symbols.CompletionError{Sym: id, Name: sym.FullName, Err: err}
	}
	log.Debugf("completing %s from stub", sym.FullName)

	sym.Flags |= symbols.ParseFlags(stub.Modifiers) | symbols.FlagFromClass
	switch stub.Kind {
	case ClassKindInterface:
		sym.Flags |= symbols.FlagInterface | symbols.FlagAbstract
	case ClassKindAnnotation:
		sym.Flags |= symbols.FlagInterface | symbols.FlagAbstract | symbols.FlagAnnotation
	case ClassKindEnum:
		sym.Flags |= symbols.FlagEnum
	}
	if stub.Deprecated {
		sym.Flags |= symbols.FlagDeprecated
	}
	sym.SourceFile = stub.SourceFile

	var classVars map[string]*symbols.TypeVar
	newVar := func(owner symbols.SymbolID) func(string) *symbols.TypeVar {
		return func(name string) *symbols.TypeVar {
			tv := &symbols.TypeVar{Name: name}
			tv.Sym = t.NewSymbol(symbols.KindTypeVar, name, owner, 0, tv)
			return tv
		}
	}

	ct := sym.Type.(*symbols.ClassType)
	if stub.Signature != "" {
		p := newSigParser(stub.Signature, r.classType, newVar(id))
		tvars, super, ifaces, err := p.classSignature()
		if err != nil {
			return &symbols.CompletionError{Sym: id, Name: sym.FullName, Err: err}
		}
		for _, tv := range tvars {
			ct.Args = append(ct.Args, tv)
		}
		classVars = p.vars[0]
		sym.Supertype = super
		sym.Interfaces = ifaces
	} else {
		if stub.SuperClass != "" {
			sym.Supertype = r.classType(stub.SuperClass)
		} else {
			sym.Supertype = symbols.NoType
		}
		for _, i := range stub.Interfaces {
			sym.Interfaces = append(sym.Interfaces, r.classType(i))
		}
	}
	sym.AllInterfaces = sym.Interfaces

	for _, a := range stub.Annotations {
		sym.Annotations = append(sym.Annotations, &symbols.Compound{Type: r.classType(a)})
		if SourceName(a) == symbols.DeprecatedName {
			sym.Flags |= symbols.FlagDeprecated
		}
	}

	members := t.Members(id)
	for _, inner := range stub.InnerClasses {
		members.Enter(r.classSym(stub.Name + "$" + inner))
	}
	for _, f := range stub.Fields {
		desc := f.Descriptor
		if f.Signature != "" {
			desc = f.Signature
		}
		p := newSigParser(desc, r.classType, nil)
		p.vars = append(p.vars, classVars)
		ft, err := p.fieldType()
		if err != nil {
			return &symbols.CompletionError{Sym: id, Name: sym.FullName, Err: fmt.Errorf("field %s: %w", f.Name, err)}
		}
		fid := t.NewSymbol(symbols.KindVar, f.Name, id, symbols.ParseFlags(f.Modifiers)|symbols.FlagFromClass, ft)
		t.Sym(fid).ConstValue = f.Constant
		members.Enter(fid)
	}
	for _, m := range stub.Methods {
		if err := r.enterMethod(t, id, m, classVars, newVar); err != nil {
			return &symbols.CompletionError{Sym: id, Name: sym.FullName, Err: err}
		}
	}
	sym.State = symbols.StateMembersDone
	return nil
}

func (r *Reader) enterMethod(t *symbols.Table, owner symbols.SymbolID, m MethodStub, classVars map[string]*symbols.TypeVar, newVar func(symbols.SymbolID) func(string) *symbols.TypeVar) error {
	flags := symbols.ParseFlags(m.Modifiers) | symbols.FlagFromClass
	mid := t.NewSymbol(symbols.KindMethod, m.Name, owner, flags, nil)
	desc := m.Descriptor
	if m.Signature != "" {
		desc = m.Signature
	}
	p := newSigParser(desc, r.classType, newVar(mid))
	p.vars = append(p.vars, classVars)
	mt, err := p.methodType()
	if err != nil {
		return fmt.Errorf("method %s: %w", m.Name, err)
	}
	if len(mt.Thrown) == 0 {
		for _, e := range m.Exceptions {
			mt.Thrown = append(mt.Thrown, r.classType(e))
		}
	}
	msym := t.Sym(mid)
	msym.Type = mt
	for i, pt := range mt.Params {
		name := fmt.Sprintf("arg%d", i)
		if i < len(m.ParameterNames) {
			name = m.ParameterNames[i]
		}
		pid := t.NewSymbol(symbols.KindVar, name, mid, symbols.FlagParameter|symbols.FlagFromClass, pt)
		msym.Params = append(msym.Params, pid)
	}
	if n := len(mt.Params); n > 0 && flags.Has(symbols.FlagVarargs) {
		if at, ok := mt.Params[n-1].(*symbols.ArrayType); ok {
			mt.Params[n-1] = &symbols.ArrayType{Elem: at.Elem, Varargs: true}
		}
	}
	t.Members(owner).Enter(mid)
	return nil
}
