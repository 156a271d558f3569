package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/tree"
)

const cleanUnit = `{
  "kind": "CompilationUnit",
  "children": {
    "package": [{"kind": "Ident", "pos": 8, "name": "p"}],
    "defs": [{"kind": "ClassDecl", "pos": 12, "name": "A"}]
  }
}`

const duplicateUnit = `{
  "kind": "CompilationUnit",
  "children": {
    "package": [{"kind": "Ident", "pos": 8, "name": "q"}],
    "defs": [
      {"kind": "ClassDecl", "pos": 12, "name": "B"},
      {"kind": "ClassDecl", "pos": 30, "name": "B"}
    ]
  }
}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectUnitFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "B.json"), cleanUnit)
	writeFile(t, filepath.Join(dir, "A.json"), cleanUnit)
	writeFile(t, filepath.Join(dir, ".hidden", "C.json"), cleanUnit)
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	got, err := collectUnitFiles([]string{dir})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "A.json"), filepath.Join(dir, "b", "B.json")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("collectUnitFiles = %v, want %v", got, want)
	}
}

func TestReadUnitDefaultsSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "A.json")
	writeFile(t, path, cleanUnit)
	unit, err := readUnit(path)
	if err != nil {
		t.Fatal(err)
	}
	if unit.SourceFile != path {
		t.Errorf("SourceFile = %q, want %q", unit.SourceFile, path)
	}
}

func TestCheckProjects(t *testing.T) {
	good := t.TempDir()
	bad := t.TempDir()
	writeFile(t, filepath.Join(good, "A.json"), cleanUnit)
	writeFile(t, filepath.Join(bad, "B.json"), duplicateUnit)
	writeFile(t, filepath.Join(bad, "saic.toml"), "mode = \"ide\"\n")

	cmd := newCheckCmd()
	cmd.SetContext(context.Background())
	results, err := checkProjects(cmd, []string{good, bad}, 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	for _, r := range results {
		if r.err != nil {
			t.Fatalf("%s: %v", r.dir, r.err)
		}
		if r.units != 1 {
			t.Errorf("%s: units = %d, want 1", r.dir, r.units)
		}
	}
	if got := results[0].log.ErrorCount(); got != 0 {
		t.Errorf("good project errors = %d, want 0", got)
	}
	if got := results[1].log.ErrorCount(); got == 0 {
		t.Errorf("bad project has no errors")
	}
}

func TestPrintDiagnostic(t *testing.T) {
	opts.colorMode = "never"
	if err := setupColor(); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	printDiagnostic(&buf, diag.Diagnostic{
		Severity: diag.SevError,
		File:     "A.java",
		Line:     3,
		Column:   7,
		Key:      diag.KeyAlreadyDefined,
		Message:  "method m() is already defined in class A",
		Pos:      tree.Position{Start: 30, Preferred: 30, End: 30},
	})
	want := "A.java:3:7: error: method m() is already defined in class A [already.defined]\n"
	if buf.String() != want {
		t.Errorf("printDiagnostic = %q, want %q", buf.String(), want)
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 errors"},
		{1, "1 error"},
		{2, "2 errors"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, "error"); got != tt.want {
			t.Errorf("plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
