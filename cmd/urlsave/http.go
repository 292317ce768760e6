package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"urlsave/mcp"
	"urlsave/web"
	"urlsave/web/server"
)

func newHTTPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "http",
		Short: "Serve the protocol over HTTP with session management",
		Long: `Serve the protocol over HTTP.

The single /mcp endpoint accepts JSON-RPC messages via POST, serves a
per-session event stream via GET, and ends sessions via DELETE. The server
shuts down gracefully on SIGINT or SIGTERM.`,
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

			transport := mcp.NewHTTPServer(dispatcher, log,
				mcp.WithSessionIdleTimeout(cfg.SessionIdleTimeout),
				mcp.WithKeepalive(cfg.SSEKeepalive),
			)

			// The CORS layer only exists when cross-origin browser access
			// is configured; the cross-origin request check always runs.
			var global []web.Middleware
			if len(cfg.AllowedOrigins) > 0 {
				global = append(global, web.CORS(cfg.AllowedOrigins))
			}
			global = append(global, web.CSRF(log, cfg.AllowedOrigins...))

			app := web.New(
				web.WithLogger(log),
				web.WithGlobalMiddleware(global...),
				web.WithMiddleware(web.Logger(log), web.Errors(log), web.Panics()),
			)
			transport.Routes(app)
			app.Get("/healthz", healthz)

			srvOpts := []server.Option{
				server.WithHost(cfg.HTTPAddr),
				server.WithReadTimeout(cfg.ReadTimeout),
				server.WithWriteTimeout(cfg.WriteTimeout),
				server.WithIdleTimeout(cfg.IdleTimeout),
				server.WithShutdownTimeout(cfg.ShutdownTimeout),
				server.WithLogger(log),
				server.WithShutdownFunc(transport.Close),
			}
			if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
				srvOpts = append(srvOpts, server.WithTLS(cfg.TLSCertFile, cfg.TLSKeyFile))
			}

			return server.New(app, srvOpts...).Run()
		},
	}
}

func healthz(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data := struct {
		Status  string `json:"status"`
		Name    string `json:"name"`
		Version string `json:"version"`
	}{Status: "ok", Name: "urlsave", Version: version}

	return web.RespondJSON(ctx, w, http.StatusOK, data)
}
