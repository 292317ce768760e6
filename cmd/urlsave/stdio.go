package main

import (
	"os"

	"github.com/spf13/cobra"

	"urlsave/mcp"
)

func newStdioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stdio",
		Short: "Serve the protocol on stdin/stdout",
		Long: `Serve the protocol on stdin/stdout.

Messages are newline-delimited JSON-RPC. The process exits cleanly when
stdin reaches EOF. All logging goes to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			dispatcher, err := newDispatcher(cfg, log)
			if err != nil {
				return err
			}

			return mcp.NewStdio(dispatcher, os.Stdin, os.Stdout, log).Serve(cmd.Context())
		},
	}
}
