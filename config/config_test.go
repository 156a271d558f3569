package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeBatch, false},
		{"batch", ModeBatch, false},
		{"IDE", ModeIDE, false},
		{" background ", ModeBackground, false},
		{"eclipse", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestModeBehaviour(t *testing.T) {
	if ModeBatch.Reconciles() {
		t.Error("batch mode should not reconcile")
	}
	if !ModeBackground.Reconciles() || ModeBackground.IgnoreNoLang() {
		t.Error("background mode reconciles but keeps fatal aborts")
	}
	if !ModeIDE.IgnoreNoLang() {
		t.Error("ide mode should downgrade a missing java.lang")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
mode = "ide"
bootstrap = true
strict_repair = true
max_errors = 5
locale = "de"
stubs = ["stubs/app.yaml"]
cache = "build/stubs.msgpack"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeIDE || !cfg.Bootstrap || !cfg.StrictRepair || cfg.MaxErrors != 5 {
		t.Errorf("got %+v", cfg)
	}
	if !cfg.AllowRepeatedAnnotations {
		t.Error("unset keys should keep their defaults")
	}
	if want := filepath.Join(dir, "stubs", "app.yaml"); cfg.Stubs[0] != want {
		t.Errorf("stubs[0] = %q, want %q", cfg.Stubs[0], want)
	}
	if want := filepath.Join(dir, "build", "stubs.msgpack"); cfg.Cache != want {
		t.Errorf("cache = %q, want %q", cfg.Cache, want)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"unknown key":  `colour = "red"`,
		"bad mode":     `mode = "eclipse"`,
		"negative max": `max_errors = -1`,
		"syntax":       `mode = `,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), content)
			if _, err := Load(path); err == nil {
				t.Errorf("Load accepted %q", content)
			}
		})
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `mode = "background"`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Discover(nested)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeBackground {
		t.Errorf("mode = %q, want background", cfg.Mode)
	}
}
