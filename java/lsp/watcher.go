package lsp

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileWatcher polls a directory tree for JSON unit files and mirrors them
// into the server, so units the editor has not opened still take part in
// compilation.
type FileWatcher struct {
	server       *Server
	root         string
	stopCh       chan struct{}
	pollInterval time.Duration
	modTimes     map[string]time.Time
	onChange     func()
}

func NewFileWatcher(ls *Server, root string) *FileWatcher {
	return &FileWatcher{
		server:       ls,
		root:         root,
		stopCh:       make(chan struct{}),
		pollInterval: 1 * time.Second,
		modTimes:     make(map[string]time.Time),
	}
}

// OnChange sets the function called after a scan that found new, modified
// or deleted files.
func (w *FileWatcher) OnChange(f func()) {
	w.onChange = f
}

func (w *FileWatcher) Start() {
	go w.run()
}

func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) run() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.poll()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *FileWatcher) poll() {
	if w.scan() && w.onChange != nil {
		w.onChange()
	}
}

// scan reloads changed files and reports whether anything changed.
func (w *FileWatcher) scan() bool {
	changed := false
	currentFiles := make(map[string]bool)

	filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".json" {
			return nil
		}

		currentFiles[path] = true

		lastMod, known := w.modTimes[path]
		if !known || info.ModTime().After(lastMod) {
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warningf("cannot read %s: %s", path, err)
				return nil
			}
			w.modTimes[path] = info.ModTime()
			w.server.setDiskFile(path, string(data))
			changed = true
		}
		return nil
	})

	for path := range w.modTimes {
		if !currentFiles[path] {
			delete(w.modTimes, path)
			w.server.removeDiskFile(path)
			changed = true
		}
	}
	return changed
}
