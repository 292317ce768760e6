// Command urlsave saves URL content to local files. It can do so directly
// (fetch), as a protocol server on stdin/stdout (stdio) or HTTP (http), or
// as a protocol client against a running server (call).
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"urlsave/config"
	"urlsave/download"
	"urlsave/fetch"
	"urlsave/mcp"
	"urlsave/pathpolicy"
	"urlsave/tools"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Values already present in the environment win over .env entries.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "urlsave",
		Short:         "Save URL content to disk, directly or through a tool-calling server",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newStdioCmd(), newHTTPCmd(), newFetchCmd(), newCallCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)

		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		os.Exit(1)
	}
}

// exitError carries a specific process exit code up to main.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// load reads the environment configuration and builds the process logger.
// Logs go to stderr; stdout belongs to command output and, in stdio mode,
// to the protocol itself.
func load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, &exitError{code: 2, err: err}
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	return cfg, log, nil
}

func newFetchClient(cfg config.Config, log *slog.Logger, extra ...fetch.Option) (*fetch.Client, error) {
	opts := []fetch.Option{
		fetch.WithLogger(log),
		fetch.WithUserAgent(cfg.UserAgent + "/" + version),
	}
	if cfg.FetchTimeout > 0 {
		opts = append(opts, fetch.WithTimeout(cfg.FetchTimeout))
	}
	if cfg.ThrottleRPS > 0 && cfg.ThrottleBurst > 0 {
		opts = append(opts, fetch.WithThrottle(cfg.ThrottleRPS, cfg.ThrottleBurst))
	}

	client, err := fetch.Build(append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	return client, nil
}

// newDispatcher assembles the full tool stack served by both transports.
func newDispatcher(cfg config.Config, log *slog.Logger) (*mcp.Dispatcher, error) {
	client, err := newFetchClient(cfg, log)
	if err != nil {
		return nil, err
	}

	var saveOpts []download.Option
	if cfg.ProgressLogs {
		saveOpts = append(saveOpts, download.WithProgressLogging())
	}

	save := tools.NewSaveURLContent(
		pathpolicy.New(nil, log),
		download.New(client, log),
		log,
		saveOpts...,
	)

	return mcp.NewDispatcher(mcp.Info{Name: "urlsave", Version: version}, log, save), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
