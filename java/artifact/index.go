package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// cacheVersion is bumped whenever ClassStub changes shape.
const cacheVersion = 1

type entry struct {
	name    string
	pkg     string
	nested  bool
	decoded *ClassStub
	decode  func(*ClassStub) error
}

// Index holds the class stubs available to a compilation. Stubs are kept
// in their encoded form and decoded on first use.
type Index struct {
	byName   map[string]*entry
	packages map[string][]string
}

func NewIndex() *Index {
	return &Index{
		byName:   make(map[string]*entry),
		packages: make(map[string][]string),
	}
}

type stubFile struct {
	Classes []yaml.Node `yaml:"classes"`
}

type stubHeader struct {
	Name string `yaml:"name" msgpack:"name"`
}

// LoadYAML adds the classes listed in a YAML stub file. A class whose
// entry cannot be decoded is still listed; completing it fails later.
func (x *Index) LoadYAML(r io.Reader) error {
	var file stubFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decoding stub file: %w", err)
	}
	for i := range file.Classes {
		node := &file.Classes[i]
		var h stubHeader
		if err := node.Decode(&h); err != nil || h.Name == "" {
			return fmt.Errorf("stub at line %d has no name", node.Line)
		}
		x.add(h.Name, func(c *ClassStub) error { return node.Decode(c) })
	}
	return nil
}

// LoadYAMLFile loads stubs from path.
func (x *Index) LoadYAMLFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := x.LoadYAML(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadFile adds the classes of a stub source chosen by extension: YAML
// stubs, a compiled class or a jar archive.
func (x *Index) LoadFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".class":
		return x.LoadClassFile(path)
	case ".jar":
		return x.LoadJar(path)
	default:
		return x.LoadYAMLFile(path)
	}
}

// Add registers a decoded stub.
func (x *Index) Add(stub *ClassStub) {
	x.add(stub.Name, func(c *ClassStub) error {
		*c = *stub
		return nil
	})
}

func (x *Index) add(binary string, decode func(*ClassStub) error) {
	probe := ClassStub{Name: binary}
	name := SourceName(binary)
	if _, exists := x.byName[name]; !exists && !probe.IsNested() {
		x.packages[probe.Package()] = append(x.packages[probe.Package()], probe.SimpleName())
	}
	x.byName[name] = &entry{name: binary, pkg: probe.Package(), nested: probe.IsNested(), decode: decode}
}

// Has reports whether the index lists a class by source name.
func (x *Index) Has(name string) bool {
	_, ok := x.byName[name]
	return ok
}

// Stub decodes and returns the stub for a class by source name.
func (x *Index) Stub(name string) (*ClassStub, error) {
	e, ok := x.byName[name]
	if !ok {
		return nil, fmt.Errorf("class %s not found", name)
	}
	if e.decoded != nil {
		return e.decoded, nil
	}
	stub := &ClassStub{}
	if err := e.decode(stub); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if stub.Name != e.name {
		return nil, fmt.Errorf("stub for %s names %s", e.name, stub.Name)
	}
	e.decoded = stub
	return stub, nil
}

// PackageExists reports whether any top-level class lives in pkg.
func (x *Index) PackageExists(pkg string) bool {
	return len(x.packages[pkg]) > 0
}

// PackageClasses lists the simple names of top-level classes in pkg.
func (x *Index) PackageClasses(pkg string) []string {
	return x.packages[pkg]
}

// Names returns every class name in sorted order.
func (x *Index) Names() []string {
	names := make([]string, 0, len(x.byName))
	for n := range x.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of classes.
func (x *Index) Len() int { return len(x.byName) }

type cacheFile struct {
	Version int                           `msgpack:"version"`
	Classes map[string]msgpack.RawMessage `msgpack:"classes"`
}

// WriteCache encodes every decodable stub into the binary cache format.
func (x *Index) WriteCache(w io.Writer) error {
	file := cacheFile{Version: cacheVersion, Classes: make(map[string]msgpack.RawMessage, len(x.byName))}
	for _, name := range x.Names() {
		stub, err := x.Stub(name)
		if err != nil {
			return err
		}
		raw, err := msgpack.Marshal(stub)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", name, err)
		}
		file.Classes[stub.Name] = raw
	}
	return msgpack.NewEncoder(w).Encode(&file)
}

// ReadCache adds the classes of a binary cache.
func (x *Index) ReadCache(r io.Reader) error {
	var file cacheFile
	if err := msgpack.NewDecoder(r).Decode(&file); err != nil {
		return fmt.Errorf("decoding cache: %w", err)
	}
	if file.Version != cacheVersion {
		return fmt.Errorf("cache version %d, want %d", file.Version, cacheVersion)
	}
	names := make([]string, 0, len(file.Classes))
	for name := range file.Classes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw := file.Classes[name]
		x.add(name, func(c *ClassStub) error { return msgpack.Unmarshal(raw, c) })
	}
	return nil
}

// ReadCacheFile reads a binary cache from path.
func (x *Index) ReadCacheFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return x.ReadCache(f)
}
