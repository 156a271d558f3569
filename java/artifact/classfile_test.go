package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// classBuilder assembles class files for tests.
type classBuilder struct {
	pool  bytes.Buffer
	count uint16
	utf8s map[string]uint16
}

func newClassBuilder() *classBuilder {
	return &classBuilder{count: 1, utf8s: make(map[string]uint16)}
}

func (b *classBuilder) entry(tag byte, body ...any) uint16 {
	b.pool.WriteByte(tag)
	for _, v := range body {
		binary.Write(&b.pool, binary.BigEndian, v)
	}
	i := b.count
	b.count++
	return i
}

func (b *classBuilder) utf8(s string) uint16 {
	if i, ok := b.utf8s[s]; ok {
		return i
	}
	i := b.entry(tagUtf8, uint16(len(s)), []byte(s))
	b.utf8s[s] = i
	return i
}

func (b *classBuilder) class(name string) uint16 {
	return b.entry(tagClass, b.utf8(name))
}

func (b *classBuilder) long(v int64) uint16 {
	i := b.entry(tagLong, v)
	b.count++
	return i
}

type attr struct {
	name string
	body []any
}

func (b *classBuilder) attrs(w *bytes.Buffer, as []attr) {
	binary.Write(w, binary.BigEndian, uint16(len(as)))
	for _, a := range as {
		var body bytes.Buffer
		for _, v := range a.body {
			binary.Write(&body, binary.BigEndian, v)
		}
		binary.Write(w, binary.BigEndian, b.utf8(a.name))
		binary.Write(w, binary.BigEndian, uint32(body.Len()))
		w.Write(body.Bytes())
	}
}

type member struct {
	access     uint16
	name, desc string
	attrs      []attr
}

// build lays out a class. Attribute bodies may refer to pool entries
// created before build is called.
func (b *classBuilder) build(access, this, super uint16, ifaces []uint16, fields, methods []member, classAttrs []attr) []byte {
	var body bytes.Buffer
	put := func(v any) { binary.Write(&body, binary.BigEndian, v) }
	put(access)
	put(this)
	put(super)
	put(uint16(len(ifaces)))
	for _, i := range ifaces {
		put(i)
	}
	for _, ms := range [][]member{fields, methods} {
		put(uint16(len(ms)))
		for _, m := range ms {
			put(m.access)
			put(b.utf8(m.name))
			put(b.utf8(m.desc))
			b.attrs(&body, m.attrs)
		}
	}
	b.attrs(&body, classAttrs)

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, []uint16{0, 61, b.count})
	out.Write(b.pool.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func sampleClass(t *testing.T) []byte {
	t.Helper()
	b := newClassBuilder()
	this := b.class("p/Größe")
	super := b.class("java/lang/Object")
	runnable := b.class("java/lang/Runnable")
	ioexc := b.class("java/io/IOException")
	inner := b.class("p/Größe$Inner")
	anon := b.class("p/Größe$1")
	big := b.long(1 << 40)
	answer := b.entry(tagInteger, int32(42))
	on := b.entry(tagInteger, int32(1))
	letter := b.entry(tagInteger, int32('x'))
	greeting := b.entry(tagString, b.utf8("hello"))

	fields := []member{
		{0x0019, "MAX", "I", []attr{{"ConstantValue", []any{answer}}}},
		{0x0018, "ON", "Z", []attr{{"ConstantValue", []any{on}}}},
		{0x0018, "LETTER", "C", []attr{{"ConstantValue", []any{letter}}}},
		{0x0018, "BIG", "J", []attr{{"ConstantValue", []any{big}}}},
		{0x0018, "HELLO", "Ljava/lang/String;", []attr{{"ConstantValue", []any{greeting}}}},
		{0x0002, "items", "Ljava/util/List;", []attr{
			{"Signature", []any{b.utf8("Ljava/util/List<Ljava/lang/String;>;")}},
			{"Deprecated", nil},
		}},
	}
	methods := []member{
		{0x0001, "<init>", "()V", []attr{{"Code", []any{[]byte{0, 1, 0, 1, 0, 0, 0, 1, 0xb1, 0, 0, 0, 0}}}}},
		{0x0008, "<clinit>", "()V", nil},
		{0x0081, "run", "(I[Ljava/lang/String;)V", []attr{
			{"Exceptions", []any{uint16(1), ioexc}},
			{"MethodParameters", []any{uint8(2), b.utf8("n"), uint16(0), uint16(0), uint16(0x10)}},
			{"Deprecated", nil},
		}},
	}
	classAttrs := []attr{
		{"SourceFile", []any{b.utf8("Größe.java")}},
		{"Signature", []any{b.utf8("<T:Ljava/lang/Object;>Ljava/lang/Object;Ljava/lang/Runnable;")}},
		{"InnerClasses", []any{
			uint16(2),
			inner, this, b.utf8("Inner"), uint16(0x0009),
			anon, uint16(0), uint16(0), uint16(0),
		}},
		{"RuntimeVisibleAnnotations", []any{
			uint16(1),
			b.utf8("Ljava/lang/Deprecated;"), uint16(2),
			b.utf8("forRemoval"), uint8('Z'), on,
			b.utf8("since"), uint8('['), uint16(1), uint8('s'), b.utf8("9"),
		}},
	}
	return b.build(0x0031, this, super, []uint16{runnable}, fields, methods, classAttrs)
}

func TestDecodeClass(t *testing.T) {
	stub, err := DecodeClass(sampleClass(t))
	if err != nil {
		t.Fatalf("DecodeClass error = %v", err)
	}

	t.Run("header", func(t *testing.T) {
		if stub.Name != "p.Größe" || stub.Kind != ClassKindClass {
			t.Errorf("name, kind = %q, %q", stub.Name, stub.Kind)
		}
		if want := []string{"public", "final"}; !reflect.DeepEqual(stub.Modifiers, want) {
			t.Errorf("modifiers = %v, want %v", stub.Modifiers, want)
		}
		if stub.SuperClass != "java.lang.Object" {
			t.Errorf("super = %q", stub.SuperClass)
		}
		if want := []string{"java.lang.Runnable"}; !reflect.DeepEqual(stub.Interfaces, want) {
			t.Errorf("interfaces = %v, want %v", stub.Interfaces, want)
		}
		if stub.SourceFile != "Größe.java" {
			t.Errorf("source = %q", stub.SourceFile)
		}
		if stub.Signature == "" {
			t.Errorf("class signature missing")
		}
	})

	t.Run("attributes", func(t *testing.T) {
		if want := []string{"Inner"}; !reflect.DeepEqual(stub.InnerClasses, want) {
			t.Errorf("inner = %v, want %v", stub.InnerClasses, want)
		}
		if want := []string{"java.lang.Deprecated"}; !reflect.DeepEqual(stub.Annotations, want) {
			t.Errorf("annotations = %v, want %v", stub.Annotations, want)
		}
	})

	t.Run("constants", func(t *testing.T) {
		want := map[string]any{
			"MAX":    42,
			"ON":     true,
			"LETTER": 'x',
			"BIG":    int64(1 << 40),
			"HELLO":  "hello",
		}
		if len(stub.Fields) != 6 {
			t.Fatalf("fields = %d, want 6", len(stub.Fields))
		}
		for _, f := range stub.Fields {
			w, ok := want[f.Name]
			if !ok {
				if f.Constant != nil {
					t.Errorf("%s constant = %v, want none", f.Name, f.Constant)
				}
				continue
			}
			if f.Constant != w {
				t.Errorf("%s constant = %#v, want %#v", f.Name, f.Constant, w)
			}
		}
		items := stub.Fields[5]
		if want := []string{"private", "deprecated"}; !reflect.DeepEqual(items.Modifiers, want) {
			t.Errorf("items modifiers = %v, want %v", items.Modifiers, want)
		}
		if items.Signature != "Ljava/util/List<Ljava/lang/String;>;" {
			t.Errorf("items signature = %q", items.Signature)
		}
	})

	t.Run("methods", func(t *testing.T) {
		if len(stub.Methods) != 2 {
			t.Fatalf("methods = %d, want 2 without the class initializer", len(stub.Methods))
		}
		run := stub.Methods[1]
		if want := []string{"public", "varargs", "deprecated"}; !reflect.DeepEqual(run.Modifiers, want) {
			t.Errorf("run modifiers = %v, want %v", run.Modifiers, want)
		}
		if want := []string{"java.io.IOException"}; !reflect.DeepEqual(run.Exceptions, want) {
			t.Errorf("run exceptions = %v, want %v", run.Exceptions, want)
		}
		if want := []string{"n", "arg1"}; !reflect.DeepEqual(run.ParameterNames, want) {
			t.Errorf("run params = %v, want %v", run.ParameterNames, want)
		}
	})
}

func TestDecodeClassRejects(t *testing.T) {
	data := sampleClass(t)
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte{0xCA, 0xFE, 0xBA, 0xBF}, data[4:]...)},
		{"truncated pool", data[:20]},
		{"truncated attributes", data[:len(data)-3]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if stub, err := DecodeClass(tt.data); err == nil {
				t.Errorf("DecodeClass = %s, want error", stub.Name)
			}
		})
	}
}

func TestDecodeModifiedUTF8(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{[]byte("plain"), "plain"},
		{[]byte{'a', 0xC0, 0x80, 'b'}, "a\x00b"},
		{[]byte("Größe"), "Größe"},
		// U+1F600 as a surrogate pair
		{[]byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "\U0001F600"},
	}
	for _, tt := range tests {
		if got := decodeModifiedUTF8(tt.in); got != tt.want {
			t.Errorf("decodeModifiedUTF8(% x) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadJar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	entries := map[string][]byte{
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
		"p/Größe.class":        sampleClass(t),
		"p/Größe$1.class":      {0},
		"p/package-info.class": {0},
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write(data)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	f.Close()

	x := NewIndex()
	if err := x.LoadJar(path); err != nil {
		t.Fatalf("LoadJar error = %v", err)
	}
	if got := x.Names(); !reflect.DeepEqual(got, []string{"p.Größe"}) {
		t.Fatalf("Names() = %v, want [p.Größe]", got)
	}
	stub, err := x.Stub("p.Größe")
	if err != nil {
		t.Fatalf("Stub error = %v", err)
	}
	if len(stub.Methods) != 2 {
		t.Errorf("methods = %d, want 2", len(stub.Methods))
	}
}

func TestMemberClassName(t *testing.T) {
	tests := map[string]bool{
		"p/A":            true,
		"p/A$Entry":      true,
		"p/A$1":          false,
		"p/A$1Local":     false,
		"module-info":    false,
		"p/package-info": false,
	}
	for in, want := range tests {
		if got := memberClassName(in); got != want {
			t.Errorf("memberClassName(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	class := filepath.Join(dir, "Größe.class")
	if err := os.WriteFile(class, sampleClass(t), 0o644); err != nil {
		t.Fatal(err)
	}
	yml := filepath.Join(dir, "extra.yaml")
	if err := os.WriteFile(yml, []byte("classes:\n  - name: q.Extra\n    kind: class\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	x := NewIndex()
	for _, path := range []string{class, yml} {
		if err := x.LoadFile(path); err != nil {
			t.Fatalf("LoadFile(%s) error = %v", filepath.Base(path), err)
		}
	}
	for _, name := range []string{"p.Größe", "q.Extra"} {
		if !x.Has(name) {
			t.Errorf("index lacks %s", name)
		}
	}
	if got := x.PackageClasses("p"); !reflect.DeepEqual(got, []string{"Größe"}) {
		t.Errorf("PackageClasses(p) = %v, want [Größe]", got)
	}
}
