package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/saic/java/lsp"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Serve diagnostics over LSP on stdin/stdout.

Open documents are JSON compilation units. Every change re-enters all open
documents in IDE mode and republishes their diagnostics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, ".")
			if err != nil {
				return err
			}
			index, err := loadIndex(cfg)
			if err != nil {
				return err
			}
			server := lsp.NewServer(cfg, index, version)
			return server.RunStdio()
		},
	}
}
