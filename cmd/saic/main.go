package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/saic/config"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

type globalOptions struct {
	configPath string
	mode       string
	bootstrap  bool
	strict     bool
	maxErrors  int
	locale     string
	stubs      []string
	cache      string
	colorMode  string
	verbose    int
	logFile    string
}

var opts globalOptions

// errFailed is returned when diagnostics were printed and the exit code
// must signal failure without printing another message.
var errFailed = fmt.Errorf("compilation failed")

func main() {
	rootCmd := &cobra.Command{
		Use:           "saic",
		Short:         "Enter, check and repair Java compilation units",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var logPath *string
			if opts.logFile != "" {
				logPath = &opts.logFile
			}
			commonlog.Configure(opts.verbose, logPath)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "configuration file (default: nearest "+config.FileName+")")
	flags.StringVar(&opts.mode, "mode", "", "compilation mode (batch, ide, background)")
	flags.BoolVar(&opts.bootstrap, "bootstrap", false, "compile the platform classes themselves")
	flags.BoolVar(&opts.strict, "strict-repair", false, "expect fully attributed trees when repairing")
	flags.IntVar(&opts.maxErrors, "max-errors", -1, "stop recording errors after this many (0 = unlimited)")
	flags.StringVar(&opts.locale, "locale", "", "language of diagnostic messages")
	flags.StringSliceVar(&opts.stubs, "stubs", nil, "additional YAML class stub files")
	flags.StringVar(&opts.cache, "cache", "", "msgpack artifact cache to load")
	flags.StringVar(&opts.colorMode, "color", "auto", "colorize output (auto, always, never)")
	flags.CountVarP(&opts.verbose, "verbose", "v", "log verbosity (repeat for more)")
	flags.StringVar(&opts.logFile, "log", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newEnterCmd())
	rootCmd.AddCommand(newRepairCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newStubsCmd())
	rootCmd.AddCommand(newLSPCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if err != errFailed {
			fmt.Fprintf(os.Stderr, "saic: %s\n", err)
		}
		os.Exit(1)
	}
}
