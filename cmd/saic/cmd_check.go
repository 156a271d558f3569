package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/saic/java/comp"
	"github.com/dhamidi/saic/java/diag"
)

type checkResult struct {
	dir   string
	units int
	log   *diag.Log
	err   error
}

func newCheckCmd() *cobra.Command {
	var (
		jobs   int
		repair bool
	)

	cmd := &cobra.Command{
		Use:   "check <project-dir>...",
		Short: "Check several independent projects concurrently",
		Long: `Check every project directory in its own compilation session.

Each directory uses the nearest saic.toml found from it and the JSON units
below it. Projects share nothing, so they are checked in parallel.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setupColor(); err != nil {
				return err
			}
			results, err := checkProjects(cmd, args, jobs, repair)
			if err != nil {
				return err
			}
			failed := false
			for _, r := range results {
				if r.err != nil {
					failed = true
					errorColor.Fprintf(os.Stderr, "%s: %s\n", r.dir, r.err)
					continue
				}
				for _, d := range r.log.Sorted() {
					printDiagnostic(os.Stderr, d)
				}
				printSummary(os.Stderr, r.dir, r.log)
				if r.log.ErrorCount() > 0 {
					failed = true
				} else {
					fmt.Fprintf(os.Stdout, "%s: %s ok\n", r.dir, plural(r.units, "unit"))
				}
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "projects checked at once (default: GOMAXPROCS)")
	cmd.Flags().BoolVar(&repair, "repair", false, "also run error repair on each project")

	return cmd
}

// checkProjects runs one session per directory. A project that fails to
// load or aborts is reported in its result; only cancellation of ctx stops
// the others.
func checkProjects(cmd *cobra.Command, dirs []string, jobs int, repair bool) ([]checkResult, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]checkResult, len(dirs))

	g, gctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(min(jobs, len(dirs)))
	for i, dir := range dirs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = checkProject(gctx, cmd, dir, repair)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func checkProject(ctx context.Context, cmd *cobra.Command, dir string, repair bool) checkResult {
	r := checkResult{dir: dir}
	cfg, err := loadConfig(cmd, dir)
	if err != nil {
		r.err = err
		return r
	}
	index, err := loadIndex(cfg)
	if err != nil {
		r.err = err
		return r
	}
	units, err := readUnits([]string{dir})
	if err != nil {
		r.err = err
		return r
	}
	r.units = len(units)

	s := comp.NewSession(cfg, comp.WithIndex(index))
	r.log = s.Log()
	if err := s.Enter(ctx, units); err != nil {
		r.err = fmt.Errorf("session %s: %w", s.ID, err)
		return r
	}
	if repair {
		if err := s.Repair(ctx); err != nil {
			r.err = fmt.Errorf("session %s: repair: %w", s.ID, err)
		}
	}
	return r
}
