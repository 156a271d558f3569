package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/saic/java/tree"
)

func newRepairCmd() *cobra.Command {
	var (
		outDir   string
		asSource bool
	)

	cmd := &cobra.Command{
		Use:   "repair <unit.json|dir>...",
		Short: "Enter compilation units and rewrite erroneous code",
		Long: `Enter compilation units, then repair every class that has errors.

Erroneous statements, initializers and members are replaced by code that
throws at runtime, so the units stay structurally valid. Repaired units are
printed as Java-like source, or written as JSON units to --out.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupColor(); err != nil {
				return err
			}
			s, units, err := enterUnits(cmd, args)
			if err != nil {
				return err
			}
			if err := s.Repair(cmd.Context()); err != nil {
				printDiagnostics(os.Stderr, s.Log())
				return fmt.Errorf("repair: %w", err)
			}
			printDiagnostics(os.Stderr, s.Log())

			if outDir == "" || asSource {
				p := tree.NewPrinter(os.Stdout)
				for _, u := range units {
					if err := p.Print(u); err != nil {
						return err
					}
				}
			}
			if outDir != "" {
				return writeUnits(outDir, units)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "write repaired JSON units to this directory")
	cmd.Flags().BoolVar(&asSource, "print", false, "print repaired source even when writing units")

	return cmd
}

func writeUnits(dir string, units []*tree.CompilationUnit) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, u := range units {
		name := filepath.Base(u.SourceFile)
		if filepath.Ext(name) != unitExt {
			name += unitExt
		}
		data, err := tree.Marshal(u)
		if err != nil {
			return fmt.Errorf("encode %s: %w", u.SourceFile, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0644); err != nil {
			return err
		}
	}
	return nil
}
