package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhamidi/saic/java/tree"
)

// unitExt marks files holding JSON compilation units.
const unitExt = ".json"

// readUnits decodes the compilation units in paths. Directories are
// searched recursively for unit files.
func readUnits(paths []string) ([]*tree.CompilationUnit, error) {
	files, err := collectUnitFiles(paths)
	if err != nil {
		return nil, err
	}
	units := make([]*tree.CompilationUnit, 0, len(files))
	for _, path := range files {
		unit, err := readUnit(path)
		if err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, nil
}

func readUnit(path string) (*tree.CompilationUnit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	unit, err := tree.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: decode compilation unit: %w", path, err)
	}
	if unit.SourceFile == "" {
		unit.SourceFile = path
	}
	return unit, nil
}

func collectUnitFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) == unitExt {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
