package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/saic/java/symbols"
)

type JSONEncoder struct {
	w     io.Writer
	table *symbols.Table
	class symbols.SymbolID
}

func NewJSONEncoder(w io.Writer, table *symbols.Table) *JSONEncoder {
	return &JSONEncoder{w: w, table: table}
}

func (e *JSONEncoder) Encode(class symbols.SymbolID) error {
	e.class = class
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(text, '\n'))
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildClassData(e.class), "", "  ")
}

type jsonClass struct {
	Name        string       `json:"name"`
	SimpleName  string       `json:"simpleName"`
	Kind        string       `json:"kind"`
	State       string       `json:"state"`
	SourceFile  string       `json:"sourceFile,omitempty"`
	SuperClass  string       `json:"superClass,omitempty"`
	Interfaces  []string     `json:"interfaces,omitempty"`
	Visibility  string       `json:"visibility"`
	Modifiers   []string     `json:"modifiers,omitempty"`
	Annotations []string     `json:"annotations,omitempty"`
	Fields      []jsonField  `json:"fields,omitempty"`
	Methods     []jsonMethod `json:"methods,omitempty"`
	Classes     []jsonClass  `json:"classes,omitempty"`
}

type jsonField struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Visibility string   `json:"visibility"`
	Modifiers  []string `json:"modifiers,omitempty"`
	Constant   any      `json:"constant,omitempty"`
}

type jsonMethod struct {
	Name       string          `json:"name"`
	ReturnType string          `json:"returnType"`
	Parameters []jsonParameter `json:"parameters,omitempty"`
	Visibility string          `json:"visibility"`
	Modifiers  []string        `json:"modifiers,omitempty"`
	Default    string          `json:"default,omitempty"`
}

type jsonParameter struct {
	Name string `json:"name,omitempty"`
	Type string `json:"type"`
}

func (e *JSONEncoder) buildClassData(id symbols.SymbolID) jsonClass {
	c := e.table.Sym(id)
	data := jsonClass{
		Name:       c.FullName,
		SimpleName: c.Name,
		Kind:       classKind(c),
		State:      c.State.String(),
		SourceFile: c.SourceFile,
		Visibility: visibility(c.Flags),
		Modifiers:  modifiers(c.Flags),
	}
	if c.Supertype != nil {
		data.SuperClass = c.Supertype.String()
	}
	for _, i := range c.Interfaces {
		data.Interfaces = append(data.Interfaces, i.String())
	}
	for _, a := range c.Annotations {
		data.Annotations = append(data.Annotations, typeString(a.Type))
	}

	fields, methods, classes := members(e.table, id)
	for _, f := range fields {
		data.Fields = append(data.Fields, jsonField{
			Name:       f.Name,
			Type:       typeString(f.Type),
			Visibility: visibility(f.Flags),
			Modifiers:  modifiers(f.Flags),
			Constant:   f.ConstValue,
		})
	}
	for _, m := range methods {
		data.Methods = append(data.Methods, e.buildMethod(m))
	}
	for _, k := range classes {
		data.Classes = append(data.Classes, e.buildClassData(k.ID))
	}
	return data
}

func (e *JSONEncoder) buildMethod(m *symbols.Symbol) jsonMethod {
	out := jsonMethod{
		Name:       m.Name,
		ReturnType: resultType(m),
		Visibility: visibility(m.Flags),
		Modifiers:  modifiers(m.Flags),
	}
	types := parameterTypes(e.table, m)
	for i, typ := range types {
		p := jsonParameter{Type: typ}
		if i < len(m.Params) {
			p.Name = e.table.Sym(m.Params[i]).Name
		}
		out.Parameters = append(out.Parameters, p)
	}
	if m.DefaultValue != nil {
		out.Default = m.DefaultValue.String()
	}
	return out
}
