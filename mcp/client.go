package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"urlsave/fetch"
)

// Client drives the HTTP transport from the caller's side: it performs the
// initialize handshake on Dial, carries the session header on every request,
// and ends the session on Close.
type Client struct {
	http     *fetch.Client
	endpoint *url.URL
	log      *slog.Logger

	sessionID string
	server    Info
	nextID    atomic.Int64
}

// ClientOption configures a Client before Dial performs the handshake.
type ClientOption func(*clientOptions)

type clientOptions struct {
	httpClient *fetch.Client
	info       *Info
	logger     *slog.Logger
}

// WithHTTPClient supplies the fetch client used for all requests, letting
// callers bring their own timeouts, throttling, or user agent.
func WithHTTPClient(c *fetch.Client) ClientOption {
	return func(opts *clientOptions) {
		opts.httpClient = c
	}
}

// WithClientInfo sets the identity announced during initialize.
func WithClientInfo(info Info) ClientOption {
	return func(opts *clientOptions) {
		opts.info = &info
	}
}

// WithClientLogger sets the logger. Default is slog.Default().
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(opts *clientOptions) {
		opts.logger = log
	}
}

// wireRequest is the outgoing message shape. Params stays generic so each
// method can pass its own payload type.
type wireRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// wireResponse defers result decoding to the caller.
type wireResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// Dial connects to a server's HTTP endpoint and runs the initialize
// handshake. The returned client is ready for tool calls.
func Dial(ctx context.Context, endpoint string, optFns ...ClientOption) (*Client, error) {
	var opts clientOptions
	for _, opt := range optFns {
		opt(&opts)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}

	httpClient := opts.httpClient
	if httpClient == nil {
		httpClient, err = fetch.Build()
		if err != nil {
			return nil, fmt.Errorf("building http client: %w", err)
		}
	}

	info := Info{Name: "urlsave-client", Version: "dev"}
	if opts.info != nil {
		info = *opts.info
	}

	log := opts.logger
	if log == nil {
		log = slog.Default()
	}

	c := &Client{
		http:     httpClient,
		endpoint: u,
		log:      log,
	}

	if err := c.handshake(ctx, info); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) handshake(ctx context.Context, info Info) error {
	id := c.nextID.Add(1)
	req, err := c.newRequest(ctx, wireRequest{
		JSONRPC: jsonRPCVersion,
		ID:      &id,
		Method:  "initialize",
		Params: InitializeParams{
			ProtocolVersion: ProtocolVersion,
			ClientInfo:      info,
		},
	})
	if err != nil {
		return err
	}

	var headers http.Header
	var resp wireResponse
	if err := c.http.Do(req, http.StatusOK, fetch.WithDestination(&resp), fetch.WithResponseHeaders(&headers)); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize: %w", resp.Error)
	}

	var result InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return fmt.Errorf("decoding initialize result: %w", err)
	}

	c.sessionID = headers.Get(SessionHeader)
	if c.sessionID == "" {
		return fmt.Errorf("server did not assign a %s", SessionHeader)
	}
	c.server = result.ServerInfo

	if err := c.notify(ctx, "notifications/initialized", nil); err != nil {
		return fmt.Errorf("acknowledging initialization: %w", err)
	}

	c.log.Debug("session established",
		"sid", c.sessionID,
		"server", result.ServerInfo.Name,
		"serverVersion", result.ServerInfo.Version,
		"protocolVersion", result.ProtocolVersion)

	return nil
}

// SessionID returns the ID the server assigned during Dial.
func (c *Client) SessionID() string {
	return c.sessionID
}

// ServerInfo returns the identity the server announced during Dial.
func (c *Client) ServerInfo() Info {
	return c.server
}

// Ping checks that the server still accepts requests for this session.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "ping", nil, nil)
}

// ListTools fetches the server's tool catalog.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	var result ListToolsResult
	if err := c.call(ctx, "tools/list", nil, &result); err != nil {
		return nil, err
	}

	return result.Tools, nil
}

// CallTool invokes a tool by name. args is marshaled as the arguments
// object. Protocol-level rejections come back as an *RPCError; tool-level
// failures arrive as a CallResult with IsError set.
func (c *Client) CallTool(ctx context.Context, name string, args any) (CallResult, error) {
	params := struct {
		Name      string `json:"name"`
		Arguments any    `json:"arguments,omitempty"`
	}{Name: name, Arguments: args}

	var result CallResult
	if err := c.call(ctx, "tools/call", params, &result); err != nil {
		return CallResult{}, err
	}

	return result, nil
}

// Close ends the session on the server. The client must not be used after.
func (c *Client) Close(ctx context.Context) error {
	req, err := fetch.Request(ctx, c.endpoint, http.MethodDelete, fetch.WithHeaders(c.headers()))
	if err != nil {
		return err
	}

	if err := c.http.Do(req, http.StatusNoContent); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}

	return nil
}

// call performs one request/response exchange. result may be nil to
// discard the payload.
func (c *Client) call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	req, err := c.newRequest(ctx, wireRequest{
		JSONRPC: jsonRPCVersion,
		ID:      &id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	var resp wireResponse
	if err := c.http.Do(req, http.StatusOK, fetch.WithDestination(&resp)); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return resp.Error
	}

	if result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decoding %s result: %w", method, err)
		}
	}

	return nil
}

// notify sends a request without an ID and expects 202 Accepted.
func (c *Client) notify(ctx context.Context, method string, params any) error {
	req, err := c.newRequest(ctx, wireRequest{
		JSONRPC: jsonRPCVersion,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	return c.http.Do(req, http.StatusAccepted)
}

func (c *Client) newRequest(ctx context.Context, msg wireRequest) (*http.Request, error) {
	return fetch.Request(ctx, c.endpoint, http.MethodPost,
		fetch.WithPayload(msg),
		fetch.WithHeaders(c.headers()),
	)
}

func (c *Client) headers() map[string][]string {
	headers := map[string][]string{
		"Accept": {"application/json", "text/event-stream"},
	}
	if c.sessionID != "" {
		headers[SessionHeader] = []string{c.sessionID}
	}

	return headers
}
