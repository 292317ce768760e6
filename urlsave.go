// Package urlsave assembles the URL-saving tool stack into a ready-to-serve
// protocol dispatcher.
//
// The dispatcher is transport-agnostic: run it on stdin/stdout with
// [mcp.NewStdio] or behind HTTP sessions with [mcp.NewHTTPServer]. The
// urlsave command wires both; this package is the entry point for embedding
// the same stack in another process.
package urlsave

import (
	"fmt"
	"log/slog"

	"urlsave/download"
	"urlsave/fetch"
	"urlsave/mcp"
	"urlsave/pathpolicy"
	"urlsave/tools"
)

// Option configures the assembled stack.
type Option func(*options)

type options struct {
	info      mcp.Info
	logger    *slog.Logger
	env       pathpolicy.Env
	fetchOpts []fetch.Option
	saveOpts  []download.Option
}

// WithInfo sets the identity announced during initialize.
func WithInfo(info mcp.Info) Option {
	return func(opts *options) {
		opts.info = info
	}
}

// WithLogger sets the logger shared by every component.
// Default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// WithEnv substitutes the ambient environment the path policy reads.
// Default is the real process environment.
func WithEnv(env pathpolicy.Env) Option {
	return func(opts *options) {
		opts.env = env
	}
}

// WithFetchOptions configures the outbound HTTP client used for transfers.
func WithFetchOptions(fetchOpts ...fetch.Option) Option {
	return func(opts *options) {
		opts.fetchOpts = append(opts.fetchOpts, fetchOpts...)
	}
}

// WithSaveOptions applies transfer options to every saveUrlContent call.
func WithSaveOptions(saveOpts ...download.Option) Option {
	return func(opts *options) {
		opts.saveOpts = append(opts.saveOpts, saveOpts...)
	}
}

// New builds a dispatcher serving the saveUrlContent tool.
func New(optFns ...Option) (*mcp.Dispatcher, error) {
	opts := options{
		info:   mcp.Info{Name: "urlsave", Version: "dev"},
		logger: slog.Default(),
	}
	for _, opt := range optFns {
		opt(&opts)
	}

	client, err := fetch.Build(append([]fetch.Option{fetch.WithLogger(opts.logger)}, opts.fetchOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	save := tools.NewSaveURLContent(
		pathpolicy.New(opts.env, opts.logger),
		download.New(client, opts.logger),
		opts.logger,
		opts.saveOpts...,
	)

	return mcp.NewDispatcher(opts.info, opts.logger, save), nil
}
