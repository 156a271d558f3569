package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/saic/format"
	"github.com/dhamidi/saic/java/comp"
	"github.com/dhamidi/saic/java/symbols"
	"github.com/dhamidi/saic/java/tree"
)

func newEnterCmd() *cobra.Command {
	var dumpFormat string

	cmd := &cobra.Command{
		Use:   "enter <unit.json|dir>...",
		Short: "Enter compilation units and report diagnostics",
		Long: `Enter compilation units into a fresh symbol table.

Each argument is a JSON compilation unit or a directory searched for them.
All units are entered together, so they may refer to each other. Classes
are completed through member entry and their annotations are linked.

With --dump the entered top-level classes are printed as symbols.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupColor(); err != nil {
				return err
			}
			s, units, err := enterUnits(cmd, args)
			if err != nil {
				return err
			}
			if err := dumpClasses(s, units, dumpFormat); err != nil {
				return err
			}
			if printDiagnostics(os.Stderr, s.Log()) {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "dump", "d", "", "print entered classes (line, json)")

	return cmd
}

// enterUnits reads args and enters them in a new session. Diagnostics are
// printed before an aborted session's error is returned.
func enterUnits(cmd *cobra.Command, args []string) (*comp.Session, []*tree.CompilationUnit, error) {
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return nil, nil, err
	}
	index, err := loadIndex(cfg)
	if err != nil {
		return nil, nil, err
	}
	units, err := readUnits(args)
	if err != nil {
		return nil, nil, err
	}
	s := comp.NewSession(cfg, comp.WithIndex(index))
	if err := s.Enter(cmd.Context(), units); err != nil {
		printDiagnostics(os.Stderr, s.Log())
		return nil, nil, fmt.Errorf("enter: %w", err)
	}
	return s, units, nil
}

func dumpClasses(s *comp.Session, units []*tree.CompilationUnit, dumpFormat string) error {
	var enc format.Encoder
	switch dumpFormat {
	case "":
		return nil
	case "line":
		enc = format.NewLineEncoder(os.Stdout, s.Table())
	case "json":
		enc = format.NewJSONEncoder(os.Stdout, s.Table())
	default:
		return fmt.Errorf("unknown format: %s (expected line or json)", dumpFormat)
	}
	for _, u := range units {
		for _, def := range u.Defs {
			decl, ok := def.(*tree.ClassDecl)
			if !ok || !decl.Sym.IsValid() {
				continue
			}
			if s.Table().Sym(decl.Sym).Kind != symbols.KindClass {
				continue
			}
			if err := enc.Encode(decl.Sym); err != nil {
				return fmt.Errorf("encode %s: %w", decl.Name, err)
			}
		}
	}
	return nil
}
