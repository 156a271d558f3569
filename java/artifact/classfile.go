package artifact

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf16"
)

const classMagic = 0xCAFEBABE

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

const (
	accInterface  = 0x0200
	accAnnotation = 0x2000
	accEnum       = 0x4000
	accModule     = 0x8000
)

type accessBit struct {
	mask uint16
	name string
}

var (
	classAccess = []accessBit{
		{0x0001, "public"}, {0x0002, "private"}, {0x0004, "protected"},
		{0x0008, "static"}, {0x0010, "final"}, {0x0400, "abstract"},
		{0x1000, "synthetic"},
	}
	fieldAccess = []accessBit{
		{0x0001, "public"}, {0x0002, "private"}, {0x0004, "protected"},
		{0x0008, "static"}, {0x0010, "final"}, {0x0040, "volatile"},
		{0x0080, "transient"}, {0x1000, "synthetic"}, {0x4000, "enum"},
	}
	methodAccess = []accessBit{
		{0x0001, "public"}, {0x0002, "private"}, {0x0004, "protected"},
		{0x0008, "static"}, {0x0010, "final"}, {0x0020, "synchronized"},
		{0x0080, "varargs"}, {0x0100, "native"}, {0x0400, "abstract"},
		{0x0800, "strictfp"}, {0x1000, "synthetic"},
	}
)

func modifierNames(flags uint16, bits []accessBit) []string {
	var names []string
	for _, b := range bits {
		if flags&b.mask != 0 {
			names = append(names, b.name)
		}
	}
	return names
}

var errTruncated = errors.New("truncated class file")

type classReader struct {
	data []byte
	off  int
	err  error
}

func (r *classReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.err = errTruncated
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *classReader) u1() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *classReader) u2() uint16 {
	if b := r.take(2); b != nil {
		return uint16(b[0])<<8 | uint16(b[1])
	}
	return 0
}

func (r *classReader) u4() uint32 {
	if b := r.take(4); b != nil {
		return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	}
	return 0
}

type constant struct {
	tag uint8
	// ref is the name index of a Class and the string index of a String.
	ref   uint16
	text  string
	value any
}

type constantPool []constant

func (cp constantPool) at(i uint16, tag uint8) (constant, error) {
	if int(i) == 0 || int(i) >= len(cp) || cp[i].tag != tag {
		return constant{}, fmt.Errorf("bad constant pool reference %d", i)
	}
	return cp[i], nil
}

func (cp constantPool) utf8(i uint16) (string, error) {
	c, err := cp.at(i, tagUtf8)
	return c.text, err
}

// className resolves a Class constant to a binary name.
func (cp constantPool) className(i uint16) (string, error) {
	c, err := cp.at(i, tagClass)
	if err != nil {
		return "", err
	}
	name, err := cp.utf8(c.ref)
	return BinaryName(name), err
}

func readConstantPool(r *classReader) (constantPool, error) {
	count := r.u2()
	cp := make(constantPool, count)
	for i := 1; i < int(count); i++ {
		c := constant{tag: r.u1()}
		switch c.tag {
		case tagUtf8:
			c.text = decodeModifiedUTF8(r.take(int(r.u2())))
		case tagInteger:
			c.value = int32(r.u4())
		case tagFloat:
			c.value = math.Float32frombits(r.u4())
		case tagLong:
			c.value = int64(r.u4())<<32 | int64(r.u4())
		case tagDouble:
			c.value = math.Float64frombits(uint64(r.u4())<<32 | uint64(r.u4()))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.ref = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			r.take(4)
		case tagMethodHandle:
			r.take(3)
		default:
			if r.err == nil {
				return nil, fmt.Errorf("unknown constant pool tag %d at index %d", c.tag, i)
			}
		}
		if r.err != nil {
			return nil, fmt.Errorf("constant pool entry %d: %w", i, r.err)
		}
		cp[i] = c
		if c.tag == tagLong || c.tag == tagDouble {
			i++
		}
	}
	return cp, nil
}

// decodeModifiedUTF8 decodes the JVM's string encoding: NUL takes two
// bytes and supplementary characters are stored as surrogate pairs.
func decodeModifiedUTF8(b []byte) string {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c&0x80 == 0:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b):
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b):
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			units = append(units, 0xFFFD)
			i++
		}
	}
	return string(utf16.Decode(units))
}

type attribute struct {
	name string
	data []byte
}

func readAttributes(r *classReader, cp constantPool) ([]attribute, error) {
	count := r.u2()
	if r.err != nil {
		return nil, r.err
	}
	attrs := make([]attribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIndex := r.u2()
		data := r.take(int(r.u4()))
		if r.err != nil {
			return nil, r.err
		}
		name, err := cp.utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: %w", i, err)
		}
		attrs = append(attrs, attribute{name: name, data: data})
	}
	return attrs, nil
}

// DecodeClass reads a compiled class into a stub. Method bodies and
// everything else the compiler does not need for entering are skipped.
func DecodeClass(data []byte) (*ClassStub, error) {
	r := &classReader{data: data}
	if r.u4() != classMagic {
		if r.err != nil {
			return nil, r.err
		}
		return nil, errors.New("not a class file")
	}
	r.take(4) // minor and major version
	cp, err := readConstantPool(r)
	if err != nil {
		return nil, err
	}

	access := r.u2()
	thisIndex, superIndex := r.u2(), r.u2()
	if r.err != nil {
		return nil, r.err
	}
	if access&accModule != 0 {
		return nil, errors.New("module descriptor is not a class")
	}
	stub := &ClassStub{Modifiers: modifierNames(access, classAccess)}
	if stub.Name, err = cp.className(thisIndex); err != nil {
		return nil, fmt.Errorf("this class: %w", err)
	}
	switch {
	case access&accAnnotation != 0:
		stub.Kind = ClassKindAnnotation
	case access&accInterface != 0:
		stub.Kind = ClassKindInterface
	case access&accEnum != 0:
		stub.Kind = ClassKindEnum
	default:
		stub.Kind = ClassKindClass
	}
	if superIndex != 0 {
		if stub.SuperClass, err = cp.className(superIndex); err != nil {
			return nil, fmt.Errorf("super class: %w", err)
		}
	}
	for i, n := 0, int(r.u2()); i < n; i++ {
		iface, err := cp.className(r.u2())
		if err != nil {
			return nil, fmt.Errorf("%s: interface %d: %w", stub.Name, i, err)
		}
		stub.Interfaces = append(stub.Interfaces, iface)
	}

	for i, n := 0, int(r.u2()); i < n; i++ {
		f, err := readField(r, cp)
		if err != nil {
			return nil, fmt.Errorf("%s: field %d: %w", stub.Name, i, err)
		}
		stub.Fields = append(stub.Fields, *f)
	}
	for i, n := 0, int(r.u2()); i < n; i++ {
		m, err := readMethod(r, cp)
		if err != nil {
			return nil, fmt.Errorf("%s: method %d: %w", stub.Name, i, err)
		}
		if m.Name == "<clinit>" {
			continue
		}
		stub.Methods = append(stub.Methods, *m)
	}

	attrs, err := readAttributes(r, cp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stub.Name, err)
	}
	for _, a := range attrs {
		if err := classAttribute(stub, thisIndex, a, cp); err != nil {
			return nil, fmt.Errorf("%s: %s attribute: %w", stub.Name, a.name, err)
		}
	}
	return stub, nil
}

func readMember(r *classReader, cp constantPool) (access uint16, name, desc string, attrs []attribute, err error) {
	access = r.u2()
	nameIndex, descIndex := r.u2(), r.u2()
	if r.err != nil {
		return 0, "", "", nil, r.err
	}
	if name, err = cp.utf8(nameIndex); err != nil {
		return 0, "", "", nil, err
	}
	if desc, err = cp.utf8(descIndex); err != nil {
		return 0, "", "", nil, err
	}
	attrs, err = readAttributes(r, cp)
	return access, name, desc, attrs, err
}

func readField(r *classReader, cp constantPool) (*FieldStub, error) {
	access, name, desc, attrs, err := readMember(r, cp)
	if err != nil {
		return nil, err
	}
	f := &FieldStub{Name: name, Descriptor: desc, Modifiers: modifierNames(access, fieldAccess)}
	for _, a := range attrs {
		ar := &classReader{data: a.data}
		switch a.name {
		case "ConstantValue":
			f.Constant, err = constantValue(cp, ar.u2(), desc)
		case "Signature":
			f.Signature, err = cp.utf8(ar.u2())
		case "Deprecated":
			f.Modifiers = append(f.Modifiers, "deprecated")
		}
		if err == nil {
			err = ar.err
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return f, nil
}

// constantValue converts a field initializer constant to the value the
// declared type holds: int-sized constants of boolean and char fields are
// narrowed accordingly.
func constantValue(cp constantPool, i uint16, desc string) (any, error) {
	if int(i) == 0 || int(i) >= len(cp) {
		return nil, fmt.Errorf("bad constant pool reference %d", i)
	}
	c := cp[i]
	switch c.tag {
	case tagInteger:
		v := c.value.(int32)
		switch desc {
		case "Z":
			return v != 0, nil
		case "C":
			return rune(v), nil
		}
		return int(v), nil
	case tagLong, tagFloat, tagDouble:
		return c.value, nil
	case tagString:
		return cp.utf8(c.ref)
	}
	return nil, fmt.Errorf("constant pool entry %d is not a constant value", i)
}

func readMethod(r *classReader, cp constantPool) (*MethodStub, error) {
	access, name, desc, attrs, err := readMember(r, cp)
	if err != nil {
		return nil, err
	}
	m := &MethodStub{Name: name, Descriptor: desc, Modifiers: modifierNames(access, methodAccess)}
	for _, a := range attrs {
		ar := &classReader{data: a.data}
		switch a.name {
		case "Signature":
			m.Signature, err = cp.utf8(ar.u2())
		case "Exceptions":
			for j, n := 0, int(ar.u2()); j < n && err == nil; j++ {
				var exc string
				if exc, err = cp.className(ar.u2()); err == nil {
					m.Exceptions = append(m.Exceptions, exc)
				}
			}
		case "MethodParameters":
			for j, n := 0, int(ar.u1()); j < n && err == nil; j++ {
				nameIndex := ar.u2()
				ar.u2()
				param := fmt.Sprintf("arg%d", j)
				if nameIndex != 0 {
					param, err = cp.utf8(nameIndex)
				}
				m.ParameterNames = append(m.ParameterNames, param)
			}
		case "Deprecated":
			m.Modifiers = append(m.Modifiers, "deprecated")
		}
		if err == nil {
			err = ar.err
		}
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", name, desc, err)
		}
	}
	return m, nil
}

func classAttribute(stub *ClassStub, this uint16, a attribute, cp constantPool) error {
	ar := &classReader{data: a.data}
	var err error
	switch a.name {
	case "Signature":
		stub.Signature, err = cp.utf8(ar.u2())
	case "SourceFile":
		stub.SourceFile, err = cp.utf8(ar.u2())
	case "Deprecated":
		stub.Deprecated = true
	case "InnerClasses":
		err = innerClasses(stub, this, ar, cp)
	case "RuntimeVisibleAnnotations", "RuntimeInvisibleAnnotations":
		for i, n := 0, int(ar.u2()); i < n && err == nil; i++ {
			var typ string
			if typ, err = cp.utf8(ar.u2()); err != nil {
				break
			}
			stub.Annotations = append(stub.Annotations, BinaryName(strings.TrimSuffix(strings.TrimPrefix(typ, "L"), ";")))
			for j, pairs := 0, int(ar.u2()); j < pairs; j++ {
				ar.u2()
				skipElementValue(ar)
			}
		}
	}
	if err == nil {
		err = ar.err
	}
	return err
}

// innerClasses lists the member classes declared by this class. The entry
// describing the class itself carries its source modifiers, which the
// class access flags lose for nested classes.
func innerClasses(stub *ClassStub, this uint16, ar *classReader, cp constantPool) error {
	for i, n := 0, int(ar.u2()); i < n; i++ {
		inner, outer, nameIndex, access := ar.u2(), ar.u2(), ar.u2(), ar.u2()
		if ar.err != nil {
			return ar.err
		}
		switch {
		case inner == this:
			stub.Modifiers = modifierNames(access, classAccess)
		case outer == this && nameIndex != 0:
			name, err := cp.utf8(nameIndex)
			if err != nil {
				return err
			}
			stub.InnerClasses = append(stub.InnerClasses, name)
		}
	}
	return nil
}

func skipElementValue(ar *classReader) {
	switch ar.u1() {
	case 'e':
		ar.take(4)
	case '@':
		ar.u2()
		for j, pairs := 0, int(ar.u2()); j < pairs && ar.err == nil; j++ {
			ar.u2()
			skipElementValue(ar)
		}
	case '[':
		for j, n := 0, int(ar.u2()); j < n && ar.err == nil; j++ {
			skipElementValue(ar)
		}
	default:
		ar.u2()
	}
}

// LoadClassFile adds the class compiled to path.
func (x *Index) LoadClassFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	stub, err := DecodeClass(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	x.Add(stub)
	return nil
}

// LoadJar lists the classes of a jar archive. Each class is decoded on
// first use; local and anonymous classes are left out.
func (x *Index) LoadJar(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		name, ok := strings.CutSuffix(f.Name, ".class")
		if !ok || strings.HasPrefix(name, "META-INF/") || !memberClassName(name) {
			continue
		}
		data, err := readZipEntry(f)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", path, f.Name, err)
		}
		x.add(BinaryName(name), func(c *ClassStub) error {
			stub, err := DecodeClass(data)
			if err != nil {
				return err
			}
			*c = *stub
			return nil
		})
	}
	return nil
}

// memberClassName rejects package and module descriptors and classes
// whose binary name has a numbered segment.
func memberClassName(internal string) bool {
	simple := internal[strings.LastIndexByte(internal, '/')+1:]
	if simple == "module-info" || simple == "package-info" {
		return false
	}
	for _, part := range strings.Split(simple, "$")[1:] {
		if part == "" || (part[0] >= '0' && part[0] <= '9') {
			return false
		}
	}
	return true
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
