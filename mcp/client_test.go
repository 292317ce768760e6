package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func dialTestServer(t *testing.T, tools ...Tool) (*Client, *HTTPServer) {
	t.Helper()

	srv, h := newTestTransport(t, tools)

	c, err := Dial(t.Context(), srv.URL+"/mcp",
		WithClientInfo(Info{Name: "test-client", Version: "1.0"}),
		WithClientLogger(quietLogger()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	return c, h
}

func TestClient_Dial(t *testing.T) {
	c, h := dialTestServer(t)

	if c.SessionID() == "" {
		t.Error("dial should capture the assigned session id")
	}
	if got := c.ServerInfo(); got.Name != "test-server" {
		t.Errorf("server name = %q, want %q", got.Name, "test-server")
	}
	if h.Sessions() != 1 {
		t.Errorf("sessions = %d, want 1", h.Sessions())
	}
}

func TestClient_DialBadEndpoint(t *testing.T) {
	if _, err := Dial(t.Context(), "://missing-scheme"); err == nil {
		t.Fatal("expected an error for an unparseable endpoint")
	}
}

func TestClient_ToolRoundTrip(t *testing.T) {
	echo := stubTool{
		name: "echo",
		fn: func(ctx context.Context, args json.RawMessage) (CallResult, error) {
			return CallResult{Content: TextContent(string(args))}, nil
		},
	}
	c, _ := dialTestServer(t, echo)

	tools, err := c.ListTools(t.Context())
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "echo" {
		t.Fatalf("unexpected tools: %+v", tools)
	}

	result, err := c.CallTool(t.Context(), "echo", map[string]string{"url": "http://x"})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if len(result.Content) != 1 || result.Content[0].Text != `{"url":"http://x"}` {
		t.Fatalf("unexpected content: %+v", result.Content)
	}

	if err := c.Ping(t.Context()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestClient_ToolError(t *testing.T) {
	failing := stubTool{
		name: "failing",
		fn: func(ctx context.Context, args json.RawMessage) (CallResult, error) {
			return CallResult{Content: TextContent("download failed"), IsError: true}, nil
		},
	}
	c, _ := dialTestServer(t, failing)

	result, err := c.CallTool(t.Context(), "failing", nil)
	if err != nil {
		t.Fatalf("tool-level failures should not surface as call errors: %v", err)
	}
	if !result.IsError {
		t.Error("IsError should be set")
	}
}

func TestClient_RPCError(t *testing.T) {
	c, _ := dialTestServer(t)

	_, err := c.CallTool(t.Context(), "no-such-tool", nil)
	if err == nil {
		t.Fatal("expected an error for an unknown tool")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error is %T, want *RPCError", err)
	}
	if rpcErr.Code != CodeInvalidParams {
		t.Errorf("code = %d, want %d", rpcErr.Code, CodeInvalidParams)
	}
}

func TestClient_Close(t *testing.T) {
	c, h := dialTestServer(t)

	if err := c.Close(t.Context()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if h.Sessions() != 0 {
		t.Errorf("sessions = %d, want 0 after close", h.Sessions())
	}

	// The session is gone, so further calls are refused.
	if err := c.Ping(t.Context()); err == nil {
		t.Error("ping after close should fail")
	}
}
