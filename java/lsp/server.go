// Package lsp serves the diagnostics of a compilation session over the
// Language Server Protocol. Documents are JSON compilation units, either
// open in the editor or found under the workspace root. Each change
// recompiles all of them in a fresh IDE-mode session and republishes their
// diagnostics.
package lsp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/artifact"
	"github.com/dhamidi/saic/java/comp"
	"github.com/dhamidi/saic/java/diag"
	"github.com/dhamidi/saic/java/tree"
)

const lsName = "saic"

var log = commonlog.GetLogger("saic.lsp")

type document struct {
	uri  string
	path string
	text string
}

type Server struct {
	cfg     config.Config
	index   *artifact.Index
	version string

	handler protocol.Handler
	server  *server.Server
	watcher *FileWatcher
	notify  glsp.NotifyFunc

	mu sync.Mutex
	// docs are the documents open in the editor, by URI.
	docs map[string]*document
	// disk holds unit files found under the workspace root, by path.
	// An open document shadows the disk copy of the same path.
	disk map[string]*document
}

// NewServer creates a server compiling against index. The foreground IDE
// mode is used unless cfg asks for background compilation.
func NewServer(cfg config.Config, index *artifact.Index, version string) *Server {
	if cfg.Mode != config.ModeBackground {
		cfg.Mode = config.ModeIDE
	}
	ls := &Server{
		cfg:     cfg,
		index:   index,
		version: version,
		docs:    make(map[string]*document),
		disk:    make(map[string]*document),
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := ""
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}
	if rootDir != "" {
		ls.watcher = NewFileWatcher(ls, rootDir)
	}

	capabilities := ls.handler.CreateServerCapabilities()

	change := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &change,
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Infof("serving %d external classes in %s mode", ls.index.Len(), ls.cfg.Mode)
	ls.notify = ctx.Notify
	if ls.watcher != nil {
		ls.watcher.OnChange(func() { ls.publishWith(ls.notify) })
		ls.watcher.Start()
	}
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	if ls.watcher != nil {
		ls.watcher.Stop()
	}
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	if err := ls.Open(params.TextDocument.URI, params.TextDocument.Text); err != nil {
		return nil
	}
	ls.publish(ctx)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := change.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}
	if err := ls.Open(params.TextDocument.URI, whole.Text); err != nil {
		return nil
	}
	ls.publish(ctx)
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.Close(params.TextDocument.URI)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	ls.publish(ctx)
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text == nil {
		return nil
	}
	if err := ls.Open(params.TextDocument.URI, *params.Text); err != nil {
		return nil
	}
	ls.publish(ctx)
	return nil
}

// Open records the text of a document, replacing any earlier version.
func (ls *Server) Open(uri, text string) error {
	path, err := uriToPath(uri)
	if err != nil {
		log.Warningf("bad document URI %q: %s", uri, err)
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.docs[uri] = &document{uri: uri, path: path, text: text}
	return nil
}

// Close forgets a document.
func (ls *Server) Close(uri string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.docs, uri)
}

func (ls *Server) setDiskFile(path, text string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.disk[path] = &document{uri: pathToURI(path), path: path, text: text}
}

func (ls *Server) removeDiskFile(path string) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	delete(ls.disk, path)
}

func (ls *Server) publish(ctx *glsp.Context) {
	ls.publishWith(ctx.Notify)
}

func (ls *Server) publishWith(notify glsp.NotifyFunc) {
	results, err := ls.Diagnostics(context.Background())
	if err != nil {
		log.Errorf("compilation aborted: %s", err)
	}
	for uri, diags := range results {
		notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: diags,
		})
	}
}

// Diagnostics compiles every open document together with the unit files
// on disk and returns the diagnostics of each, keyed by URI. Documents
// that fail to decode get a single diagnostic and are left out of the
// compilation. A returned error
// means the session aborted; the diagnostics gathered so far are still
// returned.
func (ls *Server) Diagnostics(ctx context.Context) (map[string][]protocol.Diagnostic, error) {
	ls.mu.Lock()
	docs := make([]*document, 0, len(ls.docs)+len(ls.disk))
	open := make(map[string]bool, len(ls.docs))
	for _, d := range ls.docs {
		docs = append(docs, d)
		open[d.path] = true
	}
	for path, d := range ls.disk {
		if !open[path] {
			docs = append(docs, d)
		}
	}
	ls.mu.Unlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].uri < docs[j].uri })

	results := make(map[string][]protocol.Diagnostic, len(docs))
	var units []*tree.CompilationUnit
	byPath := make(map[string]*document)
	for _, d := range docs {
		results[d.uri] = []protocol.Diagnostic{}
		unit, err := tree.Unmarshal([]byte(d.text))
		if err != nil {
			results[d.uri] = append(results[d.uri], decodeError(err))
			continue
		}
		unit.SourceFile = d.path
		units = append(units, unit)
		byPath[d.path] = d
	}

	session := comp.NewSession(ls.cfg, comp.WithIndex(ls.index))
	err := session.Enter(ctx, units)
	if err != nil {
		err = fmt.Errorf("session %s: %w", session.ID, err)
	}

	lines := make(map[string]*tree.LineMap, len(units))
	for _, u := range units {
		lines[u.SourceFile] = u.Lines
	}
	for _, d := range session.Log().Sorted() {
		doc, ok := byPath[d.File]
		if !ok {
			continue
		}
		results[doc.uri] = append(results[doc.uri], ToProtocol(d, lines[d.File]))
	}
	return results, err
}

func decodeError(err error) protocol.Diagnostic {
	sev := severity(diag.SevError)
	src := source
	return protocol.Diagnostic{
		Severity: &sev,
		Source:   &src,
		Message:  fmt.Sprintf("cannot decode compilation unit: %s", err),
	}
}
