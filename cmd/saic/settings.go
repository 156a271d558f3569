package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/saic/config"
	"github.com/dhamidi/saic/java/artifact"
)

// loadConfig reads the configuration for dir and applies the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command, dir string) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
	} else {
		cfg, err = config.Discover(dir)
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		if cfg.Mode, err = config.ParseMode(opts.mode); err != nil {
			return config.Config{}, err
		}
	}
	if flags.Changed("bootstrap") {
		cfg.Bootstrap = opts.bootstrap
	}
	if flags.Changed("strict-repair") {
		cfg.StrictRepair = opts.strict
	}
	if flags.Changed("max-errors") {
		if opts.maxErrors < 0 {
			return config.Config{}, fmt.Errorf("--max-errors must not be negative")
		}
		cfg.MaxErrors = opts.maxErrors
	}
	if flags.Changed("locale") {
		cfg.Locale = opts.locale
	}
	cfg.Stubs = append(cfg.Stubs, opts.stubs...)
	if flags.Changed("cache") {
		cfg.Cache = opts.cache
	}
	return cfg, nil
}

// loadIndex builds the external class index: the embedded platform stubs,
// then the configured cache, then the configured stub files.
func loadIndex(cfg config.Config) (*artifact.Index, error) {
	index := artifact.PlatformIndex()
	if cfg.Cache != "" {
		if err := index.ReadCacheFile(cfg.Cache); err != nil {
			return nil, fmt.Errorf("load cache: %w", err)
		}
	}
	for _, path := range cfg.Stubs {
		if err := index.LoadFile(path); err != nil {
			return nil, fmt.Errorf("load stubs: %w", err)
		}
	}
	return index, nil
}
