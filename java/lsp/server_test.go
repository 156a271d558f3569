package lsp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/artifact"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/tree"
)

const duplicateMethod = `{
  "kind": "CompilationUnit",
  "lines": [0, 20],
  "children": {
    "package": [{"kind": "Ident", "pos": 8, "name": "p"}],
    "defs": [{
      "kind": "ClassDecl", "pos": 12, "name": "A",
      "children": {
        "defs": [{
          "kind": "MethodDecl", "pos": 24, "name": "m",
          "children": {
            "restype": [{"kind": "PrimitiveType", "pos": 24, "type": "void"}],
            "body": [{"kind": "Block", "pos": 26}]
          }
        }, {
          "kind": "MethodDecl", "pos": 30, "name": "m",
          "children": {
            "restype": [{"kind": "PrimitiveType", "pos": 30, "type": "void"}],
            "body": [{"kind": "Block", "pos": 34}]
          }
        }]
      }
    }]
  }
}`

const cleanClass = `{
  "kind": "CompilationUnit",
  "children": {
    "package": [{"kind": "Ident", "pos": 8, "name": "p"}],
    "defs": [{"kind": "ClassDecl", "pos": 12, "name": "C"}]
  }
}`

func TestDiagnostics(t *testing.T) {
	ls := NewServer(config.Default(), artifact.PlatformIndex(), "test")
	docs := map[string]string{
		"file:///work/A.json": duplicateMethod,
		"file:///work/B.json": `{"kind": `,
		"file:///work/C.json": cleanClass,
	}
	for uri, text := range docs {
		if err := ls.Open(uri, text); err != nil {
			t.Fatalf("Open(%s) error = %v", uri, err)
		}
	}

	got, err := ls.Diagnostics(context.Background())
	if err != nil {
		t.Fatalf("Diagnostics error = %v", err)
	}
	if len(got) != len(docs) {
		t.Fatalf("published for %d documents, want %d", len(got), len(docs))
	}

	t.Run("duplicate method", func(t *testing.T) {
		ds := got["file:///work/A.json"]
		if len(ds) != 1 {
			t.Fatalf("diagnostics = %d, want 1: %v", len(ds), ds)
		}
		d := ds[0]
		if d.Code == nil || d.Code.Value != "already.defined" {
			t.Errorf("code = %v, want already.defined", d.Code)
		}
		if d.Severity == nil || *d.Severity != protocol.DiagnosticSeverityError {
			t.Errorf("severity = %v, want error", d.Severity)
		}
		want := protocol.Position{Line: 1, Character: 10}
		if d.Range.Start != want {
			t.Errorf("start = %+v, want %+v", d.Range.Start, want)
		}
	})
	t.Run("undecodable", func(t *testing.T) {
		ds := got["file:///work/B.json"]
		if len(ds) != 1 || *ds[0].Severity != protocol.DiagnosticSeverityError {
			t.Errorf("diagnostics = %v, want one decode error", ds)
		}
	})
	t.Run("clean", func(t *testing.T) {
		if ds := got["file:///work/C.json"]; ds == nil || len(ds) != 0 {
			t.Errorf("diagnostics = %v, want an empty list", ds)
		}
	})
	t.Run("close", func(t *testing.T) {
		ls.Close("file:///work/A.json")
		got, err := ls.Diagnostics(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := got["file:///work/A.json"]; ok {
			t.Errorf("closed document still compiled")
		}
	})
}

func TestToProtocol(t *testing.T) {
	lines := tree.NewLineMap("class A {\n  int x;\n}\n")
	tests := []struct {
		name  string
		d     diag.Diagnostic
		lines *tree.LineMap
		start protocol.Position
		end   protocol.Position
		sev   protocol.DiagnosticSeverity
	}{
		{
			name:  "error span",
			d:     diag.Diagnostic{Severity: diag.SevError, Pos: tree.Position{Start: 12, Preferred: 16, End: 17}},
			lines: lines,
			start: protocol.Position{Line: 1, Character: 2},
			end:   protocol.Position{Line: 1, Character: 7},
			sev:   protocol.DiagnosticSeverityError,
		},
		{
			name:  "warning without start",
			d:     diag.Diagnostic{Severity: diag.SevMandatoryWarning, Pos: tree.Position{Start: -1, Preferred: 6, End: -1}},
			lines: lines,
			start: protocol.Position{Line: 0, Character: 6},
			end:   protocol.Position{Line: 0, Character: 6},
			sev:   protocol.DiagnosticSeverityWarning,
		},
		{
			name:  "no line map",
			d:     diag.Diagnostic{Severity: diag.SevNote, Pos: tree.Position{Start: 3, Preferred: 3, End: 5}},
			start: protocol.Position{},
			end:   protocol.Position{},
			sev:   protocol.DiagnosticSeverityInformation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToProtocol(tt.d, tt.lines)
			if got.Range.Start != tt.start || got.Range.End != tt.end {
				t.Errorf("range = %+v, want %+v-%+v", got.Range, tt.start, tt.end)
			}
			if *got.Severity != tt.sev {
				t.Errorf("severity = %v, want %v", *got.Severity, tt.sev)
			}
			if *got.Source != "saic" {
				t.Errorf("source = %q, want saic", *got.Source)
			}
		})
	}
}

func TestFileWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src", "C.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(cleanClass), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("not a unit"), 0644); err != nil {
		t.Fatal(err)
	}

	ls := NewServer(config.Default(), artifact.PlatformIndex(), "test")
	w := NewFileWatcher(ls, dir)
	if !w.scan() {
		t.Fatal("first scan found no changes")
	}
	if w.scan() {
		t.Error("second scan reported changes")
	}

	uri := pathToURI(path)
	got, err := ls.Diagnostics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ds, ok := got[uri]; !ok || len(ds) != 0 {
		t.Errorf("diagnostics for %s = %v, %v; want an empty list", uri, ds, ok)
	}

	t.Run("open document shadows disk", func(t *testing.T) {
		if err := ls.Open(uri, `{"kind": `); err != nil {
			t.Fatal(err)
		}
		defer ls.Close(uri)
		got, err := ls.Diagnostics(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if ds := got[uri]; len(ds) != 1 {
			t.Errorf("diagnostics = %v, want the decode error of the open text", ds)
		}
	})

	t.Run("removed", func(t *testing.T) {
		if err := os.Remove(path); err != nil {
			t.Fatal(err)
		}
		if !w.scan() {
			t.Fatal("scan missed the removal")
		}
		got, err := ls.Diagnostics(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := got[uri]; ok {
			t.Errorf("removed file still compiled")
		}
	})
}
