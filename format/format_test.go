package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"github.com/dhamidi/saic/java/artifact"
	"github.com/dhamidi/saic/java/symbols"
)

func loadStub(t *testing.T) (*symbols.Table, symbols.SymbolID) {
	t.Helper()
	index := artifact.PlatformIndex()
	index.Add(&artifact.ClassStub{
		Name:       "p.Größe",
		Kind:       "class",
		Modifiers:  []string{"public", "final"},
		SuperClass: "java.lang.Object",
		Fields:     []artifact.FieldStub{{Name: "länge", Descriptor: "I", Modifiers: []string{"private"}}},
		Methods: []artifact.MethodStub{
			{Name: "<init>", Descriptor: "()V", Modifiers: []string{"public"}},
			{Name: "run", Descriptor: "(ILjava/lang/String;)V", Modifiers: []string{"public", "static"}, ParameterNames: []string{"n", "s"}},
		},
	})
	tab := symbols.NewTable()
	artifact.NewReader(index).Install(tab)
	id, err := tab.LoadClass("p.Größe")
	if err != nil {
		t.Fatalf("LoadClass error = %v", err)
	}
	return tab, id
}

// column returns the display offset at which the cell starting with text
// begins in line.
func column(t *testing.T, line, text string) int {
	t.Helper()
	i := strings.Index(line, text)
	if i < 0 {
		t.Fatalf("%q not in %q", text, line)
	}
	return runewidth.StringWidth(line[:i])
}

func TestLineEncoder(t *testing.T) {
	tab, id := loadStub(t)
	var buf bytes.Buffer
	if err := NewLineEncoder(&buf, tab).Encode(id); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "class ") || !strings.Contains(lines[0], "p.Größe") {
		t.Errorf("class line = %q", lines[0])
	}

	var field, run string
	for _, l := range lines[1:] {
		switch {
		case strings.HasPrefix(l, "field"):
			field = l
		case strings.Contains(l, " run "):
			run = l
		}
	}
	if field == "" || run == "" {
		t.Fatalf("missing field or run line:\n%s", buf.String())
	}
	if got, want := column(t, field, "länge"), column(t, run, "run"); got != want {
		t.Errorf("name column at %d and %d, want equal", got, want)
	}
	if got, want := column(t, field, "int"), column(t, run, "void"); got != want {
		t.Errorf("type column at %d and %d, want equal", got, want)
	}
	if !strings.Contains(run, "int,java.lang.String") {
		t.Errorf("run line = %q, want its parameter types", run)
	}
	if !strings.Contains(run, "static") {
		t.Errorf("run line = %q, want static", run)
	}
}

func TestAlignColumns(t *testing.T) {
	got := alignColumns([][]string{{"a", "日本", "x"}, {"bbb", "c", "y"}})
	want := "a    日本  x\nbbb  c     y\n"
	if got != want {
		t.Errorf("alignColumns =\n%q\nwant\n%q", got, want)
	}
}

func TestJSONEncoder(t *testing.T) {
	tab, id := loadStub(t)
	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf, tab).Encode(id); err != nil {
		t.Fatal(err)
	}
	var got jsonClass
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Name != "p.Größe" || got.Kind != "class" || got.Visibility != "public" {
		t.Errorf("class = %+v", got)
	}
	if got.SuperClass != symbols.ObjectName {
		t.Errorf("superClass = %q, want %s", got.SuperClass, symbols.ObjectName)
	}
	if len(got.Fields) != 1 || got.Fields[0].Type != "int" || got.Fields[0].Visibility != "private" {
		t.Errorf("fields = %+v", got.Fields)
	}
	var run *jsonMethod
	for i := range got.Methods {
		if got.Methods[i].Name == "run" {
			run = &got.Methods[i]
		}
	}
	if run == nil {
		t.Fatalf("methods = %+v, want run", got.Methods)
	}
	if len(run.Parameters) != 2 || run.Parameters[0].Name != "n" || run.Parameters[1].Type != "java.lang.String" {
		t.Errorf("run parameters = %+v", run.Parameters)
	}
}
