package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"urlsave/web"
	"urlsave/web/errs"
)

// SessionHeader carries the session ID assigned during initialize. Every
// request after the handshake must present it.
const SessionHeader = "Mcp-Session-Id"

// HTTPServer exposes the protocol on a single endpoint: POST carries
// JSON-RPC messages, GET opens a server-sent event stream scoped to the
// session, and DELETE ends the session.
type HTTPServer struct {
	dispatcher *Dispatcher
	sessions   *sessionStore
	log        *slog.Logger
	keepalive  time.Duration
}

// HTTPOption configures an HTTPServer.
type HTTPOption func(*httpOptions)

type httpOptions struct {
	sessionIdleTimeout time.Duration
	keepalive          time.Duration
}

// WithSessionIdleTimeout evicts sessions no request has touched within d.
// Default is 30 minutes; zero disables eviction.
func WithSessionIdleTimeout(d time.Duration) HTTPOption {
	return func(opts *httpOptions) {
		opts.sessionIdleTimeout = d
	}
}

// WithKeepalive sets the interval between SSE keepalive comments.
// Default is 30 seconds.
func WithKeepalive(d time.Duration) HTTPOption {
	return func(opts *httpOptions) {
		opts.keepalive = d
	}
}

// NewHTTPServer creates the HTTP transport around a dispatcher. A nil
// logger falls back to slog.Default().
func NewHTTPServer(dispatcher *Dispatcher, log *slog.Logger, optFns ...HTTPOption) *HTTPServer {
	if log == nil {
		log = slog.Default()
	}

	opts := httpOptions{
		sessionIdleTimeout: 30 * time.Minute,
		keepalive:          30 * time.Second,
	}
	for _, opt := range optFns {
		opt(&opts)
	}

	return &HTTPServer{
		dispatcher: dispatcher,
		sessions:   newSessionStore(opts.sessionIdleTimeout, log),
		log:        log,
		keepalive:  opts.keepalive,
	}
}

// Routes registers the transport's endpoint on the app.
func (h *HTTPServer) Routes(app *web.App) {
	app.Post("/mcp", h.post)
	app.Get("/mcp", h.stream)
	app.Delete("/mcp", h.delete)
}

// Close ends every live session, terminating their event streams. Wire it
// as a server shutdown func.
func (h *HTTPServer) Close(ctx context.Context) error {
	h.sessions.close()
	return nil
}

// Sessions reports the number of live sessions.
func (h *HTTPServer) Sessions() int {
	return h.sessions.len()
}

func (h *HTTPServer) post(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxMessageSize+1))
	if err != nil {
		return errs.New(http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
	}
	if len(body) > maxMessageSize {
		return errs.Newf(http.StatusRequestEntityTooLarge, "request body exceeds %d bytes", maxMessageSize)
	}

	req, errResp := decodeRequest(bytes.TrimSpace(body))
	if errResp != nil {
		return web.RespondJSON(ctx, w, http.StatusBadRequest, errResp)
	}

	sess, errResp, appErr := h.resolveSession(w, r, req)
	if appErr != nil {
		return appErr
	}
	if errResp != nil {
		return web.RespondJSON(ctx, w, http.StatusNotFound, errResp)
	}

	ctx, span := web.AddSpan(ctx, "mcp.dispatch", attribute.String("method", req.Method))
	defer span.End()

	resp := h.dispatcher.Dispatch(ctx, &sess.state, *req)
	if resp == nil {
		return web.RespondJSON(ctx, w, http.StatusAccepted, nil)
	}

	return web.RespondJSON(ctx, w, http.StatusOK, resp)
}

// resolveSession maps a request to its session. An initialize request mints
// a fresh session and announces its ID in the response headers; everything
// else must present the session header. A stale ID on a non-initialize
// request returns a protocol error so well-behaved clients re-initialize.
func (h *HTTPServer) resolveSession(w http.ResponseWriter, r *http.Request, req *Request) (*session, *Response, error) {
	if req.Method == "initialize" {
		sess := h.sessions.create()
		w.Header().Set(SessionHeader, sess.id)
		h.log.Info("session created", "sid", sess.id)

		return sess, nil, nil
	}

	id := r.Header.Get(SessionHeader)
	if id == "" {
		return nil, nil, errs.Newf(http.StatusBadRequest, "missing %s header", SessionHeader)
	}

	sess, ok := h.sessions.get(id)
	if !ok {
		return nil, errorResponse(req.ID, &RPCError{Code: CodeNotInitialized, Message: "unknown or expired session"}), nil
	}

	return sess, nil, nil
}

// stream serves a per-session SSE channel. The server pushes no requests of
// its own, so the stream only carries keepalive comments until the session
// ends or the client disconnects. Its value is letting clients observe
// session termination.
func (h *HTTPServer) stream(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return errs.Newf(http.StatusBadRequest, "missing %s header", SessionHeader)
	}

	sess, ok := h.sessions.get(id)
	if !ok {
		return errs.Newf(http.StatusNotFound, "unknown or expired session")
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.log.Warn("clearing write deadline", "sid", sess.id, "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	web.SetStatusCode(ctx, http.StatusOK)
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return fmt.Errorf("flushing stream header: %w", err)
	}

	h.log.Info("event stream opened", "sid", sess.id)
	defer h.log.Info("event stream closed", "sid", sess.id)

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sess.done:
			return nil
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keepalive\n\n"); err != nil {
				return nil
			}
			if err := rc.Flush(); err != nil {
				return nil
			}
		}
	}
}

func (h *HTTPServer) delete(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		return errs.Newf(http.StatusBadRequest, "missing %s header", SessionHeader)
	}

	if !h.sessions.delete(id) {
		return errs.Newf(http.StatusNotFound, "unknown or expired session")
	}

	h.log.Info("session deleted", "sid", id)

	return web.RespondJSON(ctx, w, http.StatusNoContent, nil)
}
