// Package config holds the settings that select how a compilation session
// behaves. Settings come from saic.toml and are overridden by CLI flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the configuration file searched for from the working
// directory upwards.
const FileName = "saic.toml"

// Mode selects between the standard compiler and the IDE variants.
type Mode string

const (
	// ModeBatch is the standard compiler: missing java.lang is fatal and
	// source always replaces external artifacts.
	ModeBatch Mode = "batch"
	// ModeIDE is foreground IDE compilation: missing java.lang is a
	// recoverable completion failure and source is reconciled onto
	// previously loaded artifact symbols.
	ModeIDE Mode = "ide"
	// ModeBackground keeps the fatal aborts but reconciles like ModeIDE.
	ModeBackground Mode = "background"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeBatch, ModeIDE, ModeBackground:
		return m, nil
	case "":
		return ModeBatch, nil
	}
	return "", fmt.Errorf("unknown mode %q (want batch, ide or background)", s)
}

// Reconciles reports whether source classes are merged onto symbols read
// from external artifacts.
func (m Mode) Reconciles() bool { return m == ModeIDE || m == ModeBackground }

// IgnoreNoLang reports whether a missing java.lang is downgraded to a
// completion failure.
func (m Mode) IgnoreNoLang() bool { return m == ModeIDE }

type Config struct {
	Mode                     Mode   `toml:"mode"`
	Bootstrap                bool   `toml:"bootstrap"`
	AllowRepeatedAnnotations bool   `toml:"allow_repeated_annotations"`
	StrictRepair             bool   `toml:"strict_repair"`
	MaxErrors                int    `toml:"max_errors"`
	Locale                   string `toml:"locale"`
	// Stubs are YAML stub files, compiled classes or jar archives.
	Stubs []string `toml:"stubs"`
	Cache string   `toml:"cache"`

	// Path is the file the settings were read from, empty for defaults.
	Path string `toml:"-"`
}

// Default returns the batch compiler settings.
func Default() Config {
	return Config{
		Mode:                     ModeBatch,
		AllowRepeatedAnnotations: true,
		MaxErrors:                100,
	}
}

// Load reads a configuration file on top of the defaults. Relative stub and
// cache paths are resolved against the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown setting %q", path, undecoded[0].String())
	}
	if cfg.Mode, err = ParseMode(string(cfg.Mode)); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.MaxErrors < 0 {
		return Config{}, fmt.Errorf("%s: max_errors must not be negative", path)
	}
	dir := filepath.Dir(path)
	for i, s := range cfg.Stubs {
		cfg.Stubs[i] = resolve(dir, s)
	}
	if cfg.Cache != "" {
		cfg.Cache = resolve(dir, cfg.Cache)
	}
	cfg.Path = path
	return cfg, nil
}

func resolve(dir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}

// Find looks for saic.toml in startDir and its parents.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Discover loads the nearest saic.toml, or the defaults when there is none.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}
