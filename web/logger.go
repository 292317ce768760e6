package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Logger reports the start and completion of every request, including
// the status code the handler set and the time taken.
func Logger(log *slog.Logger) Middleware {
	m := func(handler Handler) Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			v := GetValues(ctx)

			path := r.URL.Path
			if r.URL.RawQuery != "" {
				path = fmt.Sprintf("%s?%s", path, r.URL.RawQuery)
			}

			reqLog := log.With("trace_id", v.TraceID)

			reqLog.Info("request started", "method", r.Method, "path", path, "remoteaddr", r.RemoteAddr)

			err := handler(ctx, w, r)

			reqLog.Info("request completed", "method", r.Method, "path", path, "remoteaddr", r.RemoteAddr, "statusCode", v.StatusCode, "since", time.Since(v.Now).String())

			return err
		}

		return h
	}

	return m
}
