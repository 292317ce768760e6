package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"urlsave/mcp"
	"urlsave/tools"
)

func newCallCmd() *cobra.Command {
	var serverURL string

	cmd := &cobra.Command{
		Use:   "call URL PATH",
		Short: "Invoke saveUrlContent on a running HTTP server",
		Long: `Invoke saveUrlContent on a running HTTP server.

The command runs the initialize handshake, calls the tool once, prints the
result payload on stdout, and ends the session.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			client, err := newFetchClient(cfg, log)
			if err != nil {
				return err
			}

			mc, err := mcp.Dial(cmd.Context(), serverURL,
				mcp.WithHTTPClient(client),
				mcp.WithClientInfo(mcp.Info{Name: "urlsave-cli", Version: version}),
				mcp.WithClientLogger(log),
			)
			if err != nil {
				return fmt.Errorf("connecting to %s: %w", serverURL, err)
			}
			defer func() {
				if err := mc.Close(cmd.Context()); err != nil {
					log.Warn("ending session", "error", err)
				}
			}()

			result, err := mc.CallTool(cmd.Context(), tools.SaveName, tools.SaveRequest{
				URL:      args[0],
				FilePath: args[1],
			})
			if err != nil {
				return err
			}

			for _, content := range result.Content {
				fmt.Fprintln(cmd.OutOrStdout(), content.Text)
			}
			if result.IsError {
				return errors.New("the server reported a failed transfer")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080/mcp", "Endpoint of the running HTTP transport")

	return cmd
}
