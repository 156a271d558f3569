package diag

import (
	"sort"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/saic/java/tree"
)

var log = commonlog.GetLogger("saic.diag")

// Sink receives every diagnostic as it is reported.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(d Diagnostic)

func (f SinkFunc) Report(d Diagnostic) { f(d) }

type posKey struct {
	file string
	pos  int
}

// Log collects diagnostics for one compilation and remembers where errors
// were reported so later passes can ask whether a tree is in error.
type Log struct {
	messages  *Messages
	sink      Sink
	source    *tree.CompilationUnit
	maxErrors int

	diags    []Diagnostic
	byTree   map[tree.Node]int
	byPos    map[posKey]int
	nerrors  int
	nwarns   int
	dropped  int
	suppress int
}

// Option configures a Log.
type Option func(*Log)

// WithSink forwards every reported diagnostic to s.
func WithSink(s Sink) Option { return func(l *Log) { l.sink = s } }

// WithMessages renders diagnostics with m.
func WithMessages(m *Messages) Option { return func(l *Log) { l.messages = m } }

// WithMaxErrors stops recording errors after n; zero means unlimited.
func WithMaxErrors(n int) Option { return func(l *Log) { l.maxErrors = n } }

func NewLog(opts ...Option) *Log {
	l := &Log{
		byTree: make(map[tree.Node]int),
		byPos:  make(map[posKey]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.messages == nil {
		l.messages = NewMessages("")
	}
	return l
}

// UseSource makes unit the current source for position resolution and
// returns the previous one.
func (l *Log) UseSource(unit *tree.CompilationUnit) *tree.CompilationUnit {
	prev := l.source
	l.source = unit
	return prev
}

// Source returns the current compilation unit.
func (l *Log) Source() *tree.CompilationUnit { return l.source }

// Messages returns the message renderer.
func (l *Log) Messages() *Messages { return l.messages }

// Suppress stops recording new diagnostics until the returned function is
// called. Used for speculative completion.
func (l *Log) Suppress() (restore func()) {
	l.suppress++
	return func() { l.suppress-- }
}

func (l *Log) Error(n tree.Node, key string, args ...any) {
	l.report(SevError, 0, n, tree.NoPos, key, args)
}

func (l *Log) ErrorWithFlags(flags Flag, n tree.Node, key string, args ...any) {
	l.report(SevError, flags, n, tree.NoPos, key, args)
}

// ErrorPos reports an error at a raw offset of the current source.
func (l *Log) ErrorPos(pos int, key string, args ...any) {
	l.report(SevError, 0, nil, pos, key, args)
}

func (l *Log) Warning(n tree.Node, key string, args ...any) {
	l.report(SevWarning, 0, n, tree.NoPos, key, args)
}

func (l *Log) MandatoryWarning(n tree.Node, key string, args ...any) {
	l.report(SevMandatoryWarning, 0, n, tree.NoPos, key, args)
}

func (l *Log) Note(n tree.Node, key string, args ...any) {
	l.report(SevNote, 0, n, tree.NoPos, key, args)
}

func (l *Log) report(sev Severity, flags Flag, n tree.Node, pos int, key string, args []any) {
	if l.suppress > 0 {
		return
	}
	d := Diagnostic{Severity: sev, Flags: flags, Key: key, Args: args, tree: n}
	if n != nil {
		var ends tree.EndPosTable
		if l.source != nil {
			ends = l.source.EndPos
		}
		d.Pos = tree.DiagPos(n, ends)
	} else {
		d.Pos = tree.Position{Start: pos, Preferred: pos, End: pos}
	}
	if l.source != nil {
		d.File = l.source.SourceFile
		if l.source.Lines != nil && d.Pos.Preferred >= 0 {
			d.Line = l.source.Lines.Line(d.Pos.Preferred)
			d.Column = l.source.Lines.Column(d.Pos.Preferred)
		}
	}

	if sev == SevError {
		// One error per position; cascades at the same spot are dropped.
		k := posKey{d.File, d.Pos.Preferred}
		if _, dup := l.byPos[k]; dup && d.Pos.Preferred >= 0 {
			return
		}
		if l.maxErrors > 0 && l.nerrors >= l.maxErrors {
			l.dropped++
			return
		}
		l.nerrors++
		idx := len(l.diags)
		l.byPos[k] = idx
		if n != nil {
			l.byTree[n] = idx
		}
	} else if sev >= SevWarning {
		l.nwarns++
	}

	d.Message = l.messages.Render(key, args...)
	l.diags = append(l.diags, d)
	log.Debugf("%s", d)
	if l.sink != nil {
		l.sink.Report(d)
	}
}

// ErrDiag returns the error recorded against n, either by identity or at
// its preferred position in the current source. Synthetic trees never
// carry errors.
func (l *Log) ErrDiag(n tree.Node) (Diagnostic, bool) {
	if n == nil || tree.IsSynthetic(n) {
		return Diagnostic{}, false
	}
	if idx, ok := l.byTree[n]; ok {
		return l.diags[idx], true
	}
	file := ""
	if l.source != nil {
		file = l.source.SourceFile
	}
	if idx, ok := l.byPos[posKey{file, n.Pos()}]; ok && n.Pos() >= 0 {
		if t := l.diags[idx].tree; t == nil || t.Kind() == n.Kind() {
			return l.diags[idx], true
		}
	}
	return Diagnostic{}, false
}

// HasErrorAt reports whether an error was recorded at pos in file.
func (l *Log) HasErrorAt(file string, pos int) bool {
	_, ok := l.byPos[posKey{file, pos}]
	return ok
}

// Diagnostics returns all diagnostics in report order.
func (l *Log) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), l.diags...)
}

// Sorted returns the diagnostics ordered by file, position and severity.
func (l *Log) Sorted() []Diagnostic {
	out := l.Diagnostics()
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Pos.Start != b.Pos.Start {
			return a.Pos.Start < b.Pos.Start
		}
		return a.Severity > b.Severity
	})
	return out
}

// ForFile returns the diagnostics reported against file.
func (l *Log) ForFile(file string) []Diagnostic {
	var out []Diagnostic
	for _, d := range l.diags {
		if d.File == file {
			out = append(out, d)
		}
	}
	return out
}

func (l *Log) ErrorCount() int   { return l.nerrors }
func (l *Log) WarningCount() int { return l.nwarns }

// Dropped reports how many errors were discarded over the limit.
func (l *Log) Dropped() int { return l.dropped }
