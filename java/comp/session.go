// Package comp enters parsed compilation units into a symbol table. It
// resolves imports, completes classes in two phases (shape, then members),
// links annotations, reconciles source with previously loaded artifacts and
// repairs erroneous trees so they stay structurally valid.
package comp

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/artifact"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

var log = commonlog.GetLogger("saic.comp")

// Session is one compilation: it owns the symbol table, the diagnostic log
// and every queue of the member entry engine. Sessions share nothing, so
// independent compilations may run side by side.
type Session struct {
	ID uuid.UUID

	cfg    config.Config
	table  *symbols.Table
	log    *diag.Log
	reader *artifact.Reader
	logger commonlog.Logger
	make   *tree.Maker
	ctx    context.Context

	units       []*tree.CompilationUnit
	topEnvs     map[*tree.CompilationUnit]*Env
	typeEnvs    map[symbols.SymbolID]*Env
	compiled    map[string]symbols.SymbolID
	importsDone map[*tree.CompilationUnit]bool

	// uncompleted lists classes entered by the current Enter call.
	uncompleted []symbols.SymbolID
	// halfcompleted holds shaped classes waiting for their members, in
	// the order their shapes were completed.
	halfcompleted []*Env
	// isFirst is true outside any class completion. Only the outermost
	// completion drains halfcompleted.
	isFirst bool
	// completionEnabled is cleared while import types are attributed so
	// source classes are not completed from inside import processing.
	completionEnabled bool

	completer symbols.Completer
	annotate  *Annotate
	todo      *Todo
	repaired  map[symbols.SymbolID]bool
}

type settings struct {
	table *symbols.Table
	log   *diag.Log
	index *artifact.Index
	sink  diag.Sink
}

// Option customizes a new session.
type Option func(*settings)

// WithTable makes the session enter into an existing table. The table keeps
// whatever loader it has unless WithIndex is given too.
func WithTable(t *symbols.Table) Option { return func(s *settings) { s.table = t } }

// WithLog makes the session report into l.
func WithLog(l *diag.Log) Option { return func(s *settings) { s.log = l } }

// WithIndex serves external classes from x instead of the platform stubs.
func WithIndex(x *artifact.Index) Option { return func(s *settings) { s.index = x } }

// WithSink forwards every diagnostic to sink as it is reported.
func WithSink(sink diag.Sink) Option { return func(s *settings) { s.sink = sink } }

// NewSession creates a session. Without options it gets a fresh table
// backed by the embedded platform stubs.
func NewSession(cfg config.Config, opts ...Option) *Session {
	var set settings
	for _, opt := range opts {
		opt(&set)
	}
	if set.log == nil {
		logOpts := []diag.Option{
			diag.WithMessages(diag.NewMessages(cfg.Locale)),
			diag.WithMaxErrors(cfg.MaxErrors),
		}
		if set.sink != nil {
			logOpts = append(logOpts, diag.WithSink(set.sink))
		}
		set.log = diag.NewLog(logOpts...)
	}
	if set.table == nil {
		set.table = symbols.NewTable()
		if set.index == nil {
			set.index = artifact.PlatformIndex()
		}
	}

	id := uuid.New()
	s := &Session{
		ID:                id,
		cfg:               cfg,
		table:             set.table,
		log:               set.log,
		logger:            commonlog.NewKeyValueLogger(log, "session", id.String()),
		make:              tree.NewMaker(),
		ctx:               context.Background(),
		isFirst:           true,
		completionEnabled: true,
		annotate:          NewAnnotate(),
		todo:              NewTodo(),
	}
	if set.index != nil {
		s.reader = artifact.NewReader(set.index)
		s.reader.Install(s.table)
	}
	s.completer = memberEnter{s}
	s.reset()
	s.logger.Debugf("new session in %s mode", cfg.Mode)
	return s
}

func (s *Session) reset() {
	s.units = nil
	s.topEnvs = make(map[*tree.CompilationUnit]*Env)
	s.typeEnvs = make(map[symbols.SymbolID]*Env)
	s.compiled = make(map[string]symbols.SymbolID)
	s.importsDone = make(map[*tree.CompilationUnit]bool)
	s.uncompleted = nil
	s.halfcompleted = nil
	s.isFirst = true
	s.repaired = make(map[symbols.SymbolID]bool)
}

func (s *Session) Table() *symbols.Table    { return s.table }
func (s *Session) Log() *diag.Log           { return s.log }
func (s *Session) Config() config.Config    { return s.cfg }
func (s *Session) Todo() *Todo              { return s.todo }
func (s *Session) Annotate() *Annotate      { return s.annotate }
func (s *Session) Reader() *artifact.Reader { return s.reader }

// Units returns the compilation units entered so far.
func (s *Session) Units() []*tree.CompilationUnit { return s.units }

// ClassEnv returns the env a source class was entered with, or nil for
// classes that do not come from source.
func (s *Session) ClassEnv(id symbols.SymbolID) *Env { return s.typeEnvs[id] }

// ClassDecl returns the declaration of a source class.
func (s *Session) ClassDecl(id symbols.SymbolID) *tree.ClassDecl {
	if env := s.typeEnvs[id]; env != nil {
		if decl, ok := env.Tree.(*tree.ClassDecl); ok {
			return decl
		}
	}
	return nil
}

// use installs ctx for the duration of a public operation.
func (s *Session) use(ctx context.Context) (restore func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	prev := s.ctx
	s.ctx = ctx
	return func() { s.ctx = prev }
}

// Complete completes a class fully, running the member queue if this is
// the outermost completion. Completion failures become diagnostics; only
// aborts are returned.
func (s *Session) Complete(ctx context.Context, id symbols.SymbolID) error {
	defer s.use(ctx)()
	sym := s.table.Sym(id)
	if sym == nil {
		return fmt.Errorf("complete: unknown symbol %d", id)
	}
	if sym.Kind == symbols.KindClass && sym.State == symbols.StateMembersDone && !sym.HasCompleter() {
		return nil
	}
	var at tree.Node
	if decl := s.ClassDecl(id); decl != nil {
		at = decl
	}
	_, err := s.completeAt(at, id)
	return err
}

// LookupClass finds a class by its full name, loading it if necessary.
func (s *Session) LookupClass(fullName string) (symbols.SymbolID, bool) {
	if id, ok := s.table.LookupClass(fullName); ok {
		return id, true
	}
	id, err := s.table.LoadClass(fullName)
	return id, err == nil && id.IsValid()
}

// Member returns the first member of a class with the given name and kind.
func (s *Session) Member(class symbols.SymbolID, name string, kind symbols.Kind) (symbols.SymbolID, bool) {
	members := s.table.Members(class)
	if members == nil {
		return symbols.NoSymbolID, false
	}
	for _, e := range members.LookupLocal(name) {
		if s.table.Sym(e.Sym).Kind == kind {
			return e.Sym, true
		}
	}
	return symbols.NoSymbolID, false
}
