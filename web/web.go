// Package web provides the small HTTP framework the server is built on:
// an error-returning handler type on top of http.ServeMux, middleware
// chaining, per-request values with trace IDs, and a graceful-shutdown
// server wrapper.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Handler is a http.Handler that returns an error.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware defines a signature to chain Handler together.
type Middleware func(handler Handler) Handler

// App is the core web application, managing routing and middleware.
type App struct {
	mux      *http.ServeMux
	globalMW []Middleware
	mw       []Middleware
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures an App.
type Option func(*options)

type options struct {
	tracer   trace.Tracer
	logger   *slog.Logger
	globalMW []Middleware
	mw       []Middleware
}

// WithMiddleware appends route-level middleware, run for every registered
// handler in the order given.
func WithMiddleware(mw ...Middleware) Option {
	return func(opts *options) {
		opts.mw = append(opts.mw, mw...)
	}
}

// WithGlobalMiddleware appends middleware that wraps the whole mux,
// running before routing. CORS belongs here so preflight requests are
// answered even for methods no route matches.
func WithGlobalMiddleware(mw ...Middleware) Option {
	return func(opts *options) {
		opts.globalMW = append(opts.globalMW, mw...)
	}
}

// WithTracer injects the given tracer into the App.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *options) {
		opts.tracer = tracer
	}
}

// WithLogger sets the logger used by the App for internal errors.
func WithLogger(log *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = log
	}
}

// New creates an App with the given options. A no-op tracer and the
// default slog logger are used unless overridden via options.
func New(optFns ...Option) *App {
	var opts options
	for _, opt := range optFns {
		opt(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}
	if opts.tracer == nil {
		opts.tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	return &App{
		mux:      http.NewServeMux(),
		globalMW: opts.globalMW,
		mw:       opts.mw,
		logger:   opts.logger,
		tracer:   opts.tracer,
	}
}

// ServeHTTP implements http.Handler, wrapping global middleware before serving the request.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveHTTP := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		a.mux.ServeHTTP(w, r)
		return nil
	}
	wrapped := wrap(a.globalMW, serveHTTP)

	if err := wrapped(r.Context(), w, r); err != nil {
		a.logger.Error("web", "serve http", err)
	}
}

// Use appends the given middleware to the route-level stack. It only
// affects routes registered afterwards.
func (a *App) Use(mw ...Middleware) {
	a.mw = append(a.mw, mw...)
}

// Get registers a handler for GET requests at the given path.
func (a *App) Get(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodGet, path, fn, mw...)
}

// Post registers a handler for POST requests at the given path.
func (a *App) Post(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodPost, path, fn, mw...)
}

// Delete registers a handler for DELETE requests at the given path.
func (a *App) Delete(path string, fn Handler, mw ...Middleware) {
	a.Handle(http.MethodDelete, path, fn, mw...)
}

func (a *App) Handle(method, path string, handler Handler, mw ...Middleware) {
	handler = wrap(mw, handler)
	handler = wrap(a.mw, handler)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx, span := a.startSpan(w, r)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		if !span.SpanContext().TraceID().IsValid() {
			traceID = uuid.New().String()
		}

		v := BaseValues{
			TraceID: traceID,
			Now:     time.Now().UTC(),
			Tracer:  a.tracer,
		}

		r = r.WithContext(setValues(ctx, &v))

		if err := handler(r.Context(), w, r); err != nil {
			a.logger.Error("web", "handle", err)
		}
	}

	a.mux.HandleFunc(fmt.Sprintf("%s %s", method, path), h)
}

// startSpan initializes the request by adding a span and writing
// otel-related info into the response writer for the response.
func (a *App) startSpan(w http.ResponseWriter, r *http.Request) (context.Context, trace.Span) {
	ctx, span := a.tracer.Start(r.Context(), "web.handler")
	span.SetAttributes(attribute.String("path", r.RequestURI))

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(w.Header()))

	return ctx, span
}

// wrap middleware around the handler and execute in order given.
func wrap(mw []Middleware, handler Handler) Handler {
	for _, mwFn := range slices.Backward(mw) {
		if mwFn != nil {
			handler = mwFn(handler)
		}
	}

	return handler
}
