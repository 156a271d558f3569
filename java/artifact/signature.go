package artifact

import (
	"fmt"
	"strings"

	"github.com/dhamidi/saic/java/symbols"
)

// sigParser decodes JVM field and method descriptors and generic
// signatures into types.
type sigParser struct {
	s string
	i int
	// classOf maps an internal class name to its type.
	classOf func(internal string) symbols.Type
	// newVar creates the type variable for a declared type parameter.
	newVar func(name string) *symbols.TypeVar
	vars   []map[string]*symbols.TypeVar
}

func newSigParser(s string, classOf func(string) symbols.Type, newVar func(string) *symbols.TypeVar) *sigParser {
	if classOf == nil {
		classOf = func(internal string) symbols.Type {
			return &symbols.ClassType{Name: SourceName(internal)}
		}
	}
	if newVar == nil {
		newVar = func(name string) *symbols.TypeVar { return &symbols.TypeVar{Name: name} }
	}
	return &sigParser{s: s, classOf: classOf, newVar: newVar}
}

func (p *sigParser) errorf(format string, args ...any) error {
	return fmt.Errorf("signature %q at %d: %s", p.s, p.i, fmt.Sprintf(format, args...))
}

func (p *sigParser) peek() byte {
	if p.i >= len(p.s) {
		return 0
	}
	return p.s[p.i]
}

func (p *sigParser) expect(c byte) error {
	if p.peek() != c {
		return p.errorf("expected %q", c)
	}
	p.i++
	return nil
}

func (p *sigParser) lookupVar(name string) *symbols.TypeVar {
	for j := len(p.vars) - 1; j >= 0; j-- {
		if tv, ok := p.vars[j][name]; ok {
			return tv
		}
	}
	return nil
}

// typeParams parses <T:bound;U::iface;> and pushes a new variable scope.
// Variables are declared before bounds are read so bounds may refer to
// any parameter of the list.
func (p *sigParser) typeParams() ([]*symbols.TypeVar, error) {
	scope := make(map[string]*symbols.TypeVar)
	p.vars = append(p.vars, scope)
	if p.peek() != '<' {
		return nil, nil
	}
	type pending struct {
		tv    *symbols.TypeVar
		start int
	}
	var decls []pending
	// First pass: names.
	p.i++
	for p.peek() != '>' {
		colon := strings.IndexByte(p.s[p.i:], ':')
		if colon <= 0 {
			return nil, p.errorf("bad type parameter")
		}
		name := p.s[p.i : p.i+colon]
		tv := p.newVar(name)
		scope[name] = tv
		p.i += colon
		decls = append(decls, pending{tv: tv, start: p.i})
		if err := p.skipBounds(); err != nil {
			return nil, err
		}
	}
	end := p.i + 1
	// Second pass: bounds.
	result := make([]*symbols.TypeVar, len(decls))
	for k, d := range decls {
		p.i = d.start
		var bounds []symbols.Type
		for p.peek() == ':' {
			p.i++
			if p.peek() == ':' {
				continue
			}
			b, err := p.fieldType()
			if err != nil {
				return nil, err
			}
			bounds = append(bounds, b)
		}
		// Intersection bounds erase to the first bound.
		if len(bounds) > 0 {
			d.tv.Bound = bounds[0]
		}
		result[k] = d.tv
	}
	p.i = end
	return result, nil
}

func (p *sigParser) skipBounds() error {
	for p.peek() == ':' {
		p.i++
		if p.peek() == ':' {
			continue
		}
		if err := p.skipFieldType(); err != nil {
			return err
		}
	}
	return nil
}

func (p *sigParser) skipFieldType() error {
	depth := 0
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case '[':
			p.i++
			continue
		case 'L', 'T':
			for p.i < len(p.s) {
				c := p.s[p.i]
				p.i++
				if c == '<' {
					depth++
				} else if c == '>' {
					depth--
				} else if c == ';' && depth == 0 {
					return nil
				}
			}
			return p.errorf("unterminated reference type")
		default:
			p.i++
			return nil
		}
	}
	return p.errorf("unexpected end")
}

// fieldType parses one field type: base type, array, class or type
// variable.
func (p *sigParser) fieldType() (symbols.Type, error) {
	c := p.peek()
	switch c {
	case 'B':
		p.i++
		return symbols.ByteType, nil
	case 'C':
		p.i++
		return symbols.CharType, nil
	case 'D':
		p.i++
		return symbols.DoubleType, nil
	case 'F':
		p.i++
		return symbols.FloatType, nil
	case 'I':
		p.i++
		return symbols.IntType, nil
	case 'J':
		p.i++
		return symbols.LongType, nil
	case 'S':
		p.i++
		return symbols.ShortType, nil
	case 'Z':
		p.i++
		return symbols.BooleanType, nil
	case 'V':
		p.i++
		return symbols.VoidType, nil
	case '[':
		p.i++
		elem, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		return &symbols.ArrayType{Elem: elem}, nil
	case 'T':
		p.i++
		semi := strings.IndexByte(p.s[p.i:], ';')
		if semi < 0 {
			return nil, p.errorf("unterminated type variable")
		}
		name := p.s[p.i : p.i+semi]
		p.i += semi + 1
		if tv := p.lookupVar(name); tv != nil {
			return tv, nil
		}
		return &symbols.ErrorType{Name: name}, nil
	case 'L':
		return p.classType()
	}
	return nil, p.errorf("unexpected %q", c)
}

func (p *sigParser) classType() (symbols.Type, error) {
	p.i++
	var outer symbols.Type
	internal := ""
	for {
		start := p.i
		for p.i < len(p.s) && p.s[p.i] != '<' && p.s[p.i] != ';' && p.s[p.i] != '.' {
			p.i++
		}
		if p.i >= len(p.s) {
			return nil, p.errorf("unterminated class type")
		}
		if internal == "" {
			internal = p.s[start:p.i]
		} else {
			internal += "$" + p.s[start:p.i]
		}
		var args []symbols.Type
		if p.peek() == '<' {
			var err error
			if args, err = p.typeArgs(); err != nil {
				return nil, err
			}
		}
		t := p.classOf(internal)
		if ct, ok := t.(*symbols.ClassType); ok && (len(args) > 0 || outer != nil) {
			t = &symbols.ClassType{Sym: ct.Sym, Name: ct.Name, Args: args, Outer: outer}
		}
		switch p.peek() {
		case '.':
			p.i++
			outer = t
		case ';':
			p.i++
			return t, nil
		default:
			return nil, p.errorf("bad class type")
		}
	}
}

func (p *sigParser) typeArgs() ([]symbols.Type, error) {
	if err := p.expect('<'); err != nil {
		return nil, err
	}
	var args []symbols.Type
	for p.peek() != '>' {
		switch p.peek() {
		case 0:
			return nil, p.errorf("unterminated type arguments")
		case '*':
			p.i++
			args = append(args, &symbols.WildcardType{Kind: symbols.BoundUnbound})
		case '+', '-':
			kind := symbols.BoundExtends
			if p.peek() == '-' {
				kind = symbols.BoundSuper
			}
			p.i++
			b, err := p.fieldType()
			if err != nil {
				return nil, err
			}
			args = append(args, &symbols.WildcardType{Kind: kind, Bound: b})
		default:
			a, err := p.fieldType()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
	}
	p.i++
	return args, nil
}

// methodType parses a method descriptor or generic method signature.
func (p *sigParser) methodType() (*symbols.MethodType, error) {
	tvars, err := p.typeParams()
	if err != nil {
		return nil, err
	}
	mt := &symbols.MethodType{TypeParams: tvars}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	for p.peek() != ')' {
		if p.peek() == 0 {
			return nil, p.errorf("unterminated parameter list")
		}
		t, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		mt.Params = append(mt.Params, t)
	}
	p.i++
	if mt.Result, err = p.fieldType(); err != nil {
		return nil, err
	}
	for p.peek() == '^' {
		p.i++
		t, err := p.fieldType()
		if err != nil {
			return nil, err
		}
		mt.Thrown = append(mt.Thrown, t)
	}
	return mt, nil
}

// classSignature parses type parameters, superclass and interfaces.
func (p *sigParser) classSignature() ([]*symbols.TypeVar, symbols.Type, []symbols.Type, error) {
	tvars, err := p.typeParams()
	if err != nil {
		return nil, nil, nil, err
	}
	super, err := p.fieldType()
	if err != nil {
		return nil, nil, nil, err
	}
	var ifaces []symbols.Type
	for p.i < len(p.s) {
		it, err := p.fieldType()
		if err != nil {
			return nil, nil, nil, err
		}
		ifaces = append(ifaces, it)
	}
	return tvars, super, ifaces, nil
}

func (p *sigParser) done() error {
	if p.i != len(p.s) {
		return p.errorf("trailing characters")
	}
	return nil
}

// ParseFieldDescriptor decodes a field descriptor or signature with
// unresolved class types.
func ParseFieldDescriptor(desc string) (symbols.Type, error) {
	p := newSigParser(desc, nil, nil)
	t, err := p.fieldType()
	if err != nil {
		return nil, err
	}
	return t, p.done()
}

// ParseMethodDescriptor decodes a method descriptor or signature with
// unresolved class types.
func ParseMethodDescriptor(desc string) (*symbols.MethodType, error) {
	p := newSigParser(desc, nil, nil)
	mt, err := p.methodType()
	if err != nil {
		return nil, err
	}
	return mt, p.done()
}
