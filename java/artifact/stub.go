package artifact

import "strings"

type ClassKind string

const (
	ClassKindClass      ClassKind = "class"
	ClassKindInterface  ClassKind = "interface"
	ClassKindEnum       ClassKind = "enum"
	ClassKindAnnotation ClassKind = "annotation"
)

// ClassStub describes a compiled class: its shape and member signatures,
// without code.
type ClassStub struct {
	// Name is the binary name with dots between packages and '$' between
	// nested classes, e.g. java.util.Map$Entry.
	Name       string    `yaml:"name" msgpack:"name"`
	Kind       ClassKind `yaml:"kind,omitempty" msgpack:"kind,omitempty"`
	Modifiers  []string  `yaml:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	SuperClass string    `yaml:"super,omitempty" msgpack:"super,omitempty"`
	Interfaces []string  `yaml:"interfaces,omitempty" msgpack:"interfaces,omitempty"`
	// Signature is the generic class signature, when the class is generic.
	Signature    string       `yaml:"signature,omitempty" msgpack:"signature,omitempty"`
	Fields       []FieldStub  `yaml:"fields,omitempty" msgpack:"fields,omitempty"`
	Methods      []MethodStub `yaml:"methods,omitempty" msgpack:"methods,omitempty"`
	InnerClasses []string     `yaml:"inner,omitempty" msgpack:"inner,omitempty"`
	Annotations  []string     `yaml:"annotations,omitempty" msgpack:"annotations,omitempty"`
	SourceFile   string       `yaml:"source,omitempty" msgpack:"source,omitempty"`
	Deprecated   bool         `yaml:"deprecated,omitempty" msgpack:"deprecated,omitempty"`
}

type FieldStub struct {
	Name       string   `yaml:"name" msgpack:"name"`
	Descriptor string   `yaml:"descriptor" msgpack:"descriptor"`
	Signature  string   `yaml:"signature,omitempty" msgpack:"signature,omitempty"`
	Modifiers  []string `yaml:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	Constant   any      `yaml:"constant,omitempty" msgpack:"constant,omitempty"`
}

type MethodStub struct {
	Name           string   `yaml:"name" msgpack:"name"`
	Descriptor     string   `yaml:"descriptor" msgpack:"descriptor"`
	Signature      string   `yaml:"signature,omitempty" msgpack:"signature,omitempty"`
	Modifiers      []string `yaml:"modifiers,omitempty" msgpack:"modifiers,omitempty"`
	Exceptions     []string `yaml:"exceptions,omitempty" msgpack:"exceptions,omitempty"`
	ParameterNames []string `yaml:"params,omitempty" msgpack:"params,omitempty"`
}

// Package returns the package part of the binary name.
func (c *ClassStub) Package() string {
	if i := strings.LastIndexByte(c.Name, '.'); i >= 0 {
		return c.Name[:i]
	}
	return ""
}

// SimpleName returns the innermost class name.
func (c *ClassStub) SimpleName() string {
	name := c.Name[strings.LastIndexByte(c.Name, '.')+1:]
	if i := strings.LastIndexByte(name, '$'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// IsNested reports whether the stub describes a member class.
func (c *ClassStub) IsNested() bool {
	return strings.ContainsRune(c.Name[strings.LastIndexByte(c.Name, '.')+1:], '$')
}

// SourceName converts a binary name to the dotted source form.
func SourceName(binary string) string {
	return strings.ReplaceAll(strings.ReplaceAll(binary, "/", "."), "$", ".")
}

// BinaryName converts an internal name (java/util/Map$Entry) to a binary
// name (java.util.Map$Entry).
func BinaryName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}
