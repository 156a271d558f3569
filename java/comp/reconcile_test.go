package comp

import (
	"context"
	"testing"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/artifact"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

func TestPrepareRoundReusesSymbols(t *testing.T) {
	var b src
	run := b.method(0, "run", b.void(), []*tree.VarDecl{b.param("times", b.prim(symbols.TagInt))})
	n := b.field(0, "n", b.prim(symbols.TagInt), b.intLit(1))
	decl := b.class(0, "A", n, run)
	unit := b.unit("A.java", "p", []*tree.Import{b.imp("java.util.List", false)}, decl)
	s := newTestSession(t)
	enterUnits(t, s, unit)

	classID := decl.Sym
	runID := run.Sym
	nID := n.Sym

	s.PrepareRound()
	if got := s.Todo().Len(); got != 0 {
		t.Errorf("todo length after PrepareRound = %d, want 0", got)
	}
	if got := s.Annotate().Pending(); got != 0 {
		t.Errorf("pending annotations after PrepareRound = %d, want 0", got)
	}
	c := s.Table().Sym(classID)
	if !c.Flags.Has(symbols.FlagAptCleaned) || c.State != symbols.StateUnseen {
		t.Fatalf("class after PrepareRound: flags %s, state %v", c.Flags, c.State)
	}
	if run.Sym.IsValid() || n.Sym.IsValid() {
		t.Errorf("member trees kept their symbols")
	}
	if decl.Sym != classID {
		t.Errorf("class tree lost its symbol")
	}

	enterUnits(t, s, unit)
	if got := s.Log().ErrorCount(); got != 0 {
		t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
	}
	if got := countKey(s, diag.KeyWarnCoupling); got != 0 {
		t.Errorf("coupling warnings = %d, want 0", got)
	}
	if decl.Sym != classID {
		t.Errorf("class symbol = %d, want %d", decl.Sym, classID)
	}
	if run.Sym != runID {
		t.Errorf("run symbol = %d, want %d", run.Sym, runID)
	}
	if n.Sym != nID {
		t.Errorf("n symbol = %d, want %d", n.Sym, nID)
	}
	for _, name := range []string{"run", "n", symbols.ConstructorName} {
		if got := len(membersNamed(s, classID, name)); got != 1 {
			t.Errorf("members named %s = %d, want 1", name, got)
		}
	}
	c = s.Table().Sym(classID)
	if c.Flags.Any(symbols.FlagAptCleaned|symbols.FlagFromClass) || c.State != symbols.StateMembersDone {
		t.Errorf("class after second round: flags %s, state %v", c.Flags, c.State)
	}
	if m := s.Table().Sym(runID); m.Flags.Has(symbols.FlagFromClass) {
		t.Errorf("run still flagged from class: %s", m.Flags)
	}
	if ps := s.Table().Sym(runID).Params; len(ps) != 1 || s.Table().Sym(ps[0]).Name != "times" {
		t.Errorf("run params = %v, want times", ps)
	}
	if got := s.Todo().Len(); got != 1 {
		t.Errorf("todo length = %d, want 1", got)
	}
}

func TestPrepareRoundAcceptsNewMembers(t *testing.T) {
	var b src
	decl := b.class(0, "A", b.method(0, "run", b.void(), nil))
	unit := b.unit("A.java", "p", nil, decl)
	s := newTestSession(t)
	enterUnits(t, s, unit)
	s.PrepareRound()

	decl.Defs = append(decl.Defs, b.method(0, "added", b.void(), nil))
	enterUnits(t, s, unit)
	if got := countKey(s, diag.KeyWarnCoupling); got != 0 {
		t.Errorf("coupling warnings = %d, want 0", got)
	}
	if got := len(membersNamed(s, decl.Sym, "added")); got != 1 {
		t.Errorf("members named added = %d, want 1", got)
	}
}

func stubbedIndex(t *testing.T) *artifact.Index {
	t.Helper()
	index := artifact.PlatformIndex()
	index.Add(&artifact.ClassStub{
		Name:       "p.A",
		Kind:       "class",
		Modifiers:  []string{"public"},
		SuperClass: "java.lang.Object",
		Fields:     []artifact.FieldStub{{Name: "n", Descriptor: "I"}},
		Methods: []artifact.MethodStub{
			{Name: "<init>", Descriptor: "()V", Modifiers: []string{"public"}},
			{Name: "run", Descriptor: "(I)V", Modifiers: []string{"public"}, ParameterNames: []string{"arg0"}},
		},
	})
	return index
}

func TestReconcileWithArtifact(t *testing.T) {
	tests := []struct {
		mode         config.Mode
		wantWarnings int
		wantExtra    int
		reuse        bool
	}{
		{config.ModeIDE, 1, 0, true},
		{config.ModeBackground, 1, 0, true},
		{config.ModeBatch, 0, 1, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg := config.Default()
			cfg.Mode = tt.mode
			s := NewSession(cfg, WithIndex(stubbedIndex(t)))
			loaded, ok := s.LookupClass("p.A")
			if !ok {
				t.Fatal("stub p.A not loadable")
			}
			if err := s.Complete(context.Background(), loaded); err != nil {
				t.Fatal(err)
			}
			artifactRun, _ := s.Member(loaded, "run", symbols.KindMethod)

			var b src
			run := b.method(symbols.FlagPublic, "run", b.void(), []*tree.VarDecl{b.param("count", b.prim(symbols.TagInt))})
			extra := b.method(symbols.FlagPublic, "extra", b.void(), nil)
			decl := b.class(symbols.FlagPublic, "A", b.field(0, "n", b.prim(symbols.TagInt), nil), run, extra)
			enterUnits(t, s, b.unit("A.java", "p", nil, decl))

			if got := s.Log().ErrorCount(); got != 0 {
				t.Fatalf("ErrorCount() = %d, want 0: %v", got, errorKeys(s))
			}
			if decl.Sym != loaded {
				t.Errorf("source class symbol = %d, want the loaded %d", decl.Sym, loaded)
			}
			if got := countKey(s, diag.KeyWarnCoupling); got != tt.wantWarnings {
				t.Errorf("coupling warnings = %d, want %d", got, tt.wantWarnings)
			}
			if got := len(membersNamed(s, loaded, "extra")); got != tt.wantExtra {
				t.Errorf("members named extra = %d, want %d", got, tt.wantExtra)
			}
			if got := len(membersNamed(s, loaded, "run")); got != 1 {
				t.Fatalf("members named run = %d, want 1", got)
			}
			if got := run.Sym == artifactRun; got != tt.reuse {
				t.Errorf("run reused artifact symbol = %v, want %v", got, tt.reuse)
			}
			if tt.reuse {
				m := s.Table().Sym(run.Sym)
				if m.Flags.Has(symbols.FlagFromClass) {
					t.Errorf("reconciled run still flagged from class")
				}
				if len(m.Params) != 1 || s.Table().Sym(m.Params[0]).Name != "count" {
					t.Errorf("reconciled params = %v, want the source name count", m.Params)
				}
			}
		})
	}
}
