// Package mcp implements the JSON-RPC tool-calling protocol the server
// speaks over its stdio and HTTP transports.
//
// The protocol follows the Model Context Protocol handshake: a client sends
// initialize, acknowledges with notifications/initialized, and then issues
// tools/list and tools/call requests. Both transports funnel every message
// through the same Dispatcher, so a tool behaves identically no matter how
// it was reached.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// ProtocolVersion is the protocol revision this server implements.
const ProtocolVersion = "2024-11-05"

const jsonRPCVersion = "2.0"

// JSON-RPC error codes. The first five are the standard set; the last is
// the protocol's code for requests that arrive before initialize.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeNotInitialized = -32002
)

// Request is a single incoming JSON-RPC message. A nil ID marks a
// notification, which never receives a response.
type Request struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

// IsNotification reports whether the request carries no ID and therefore
// must not be answered.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// Response is a single outgoing JSON-RPC message. Exactly one of Result
// and Error is set.
type Response struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id"`
	Result  any              `json:"result,omitempty"`
	Error   *RPCError        `json:"error,omitempty"`
}

// RPCError is the protocol-level error shape. Tools return it from Call to
// control the code and data the client sees; any other error becomes a
// generic internal error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func errorResponse(id *json.RawMessage, rpcErr *RPCError) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr}
}

func resultResponse(id *json.RawMessage, result any) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Result: result}
}

// Info names a protocol participant.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the client half of the handshake.
type InitializeParams struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ClientInfo      Info            `json:"clientInfo"`
}

// InitializeResult is the server half of the handshake.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      Info         `json:"serverInfo"`
}

// Capabilities advertises what this server supports. Tools are the only
// capability here; the rest of the protocol surface is intentionally absent.
type Capabilities struct {
	Tools ToolsCapability `json:"tools"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ToolDescriptor is one entry in a tools/list result.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// ListToolsResult is the tools/list response payload.
type ListToolsResult struct {
	Tools []ToolDescriptor `json:"tools"`
}

// CallParams is the tools/call request payload.
type CallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Content is one item of a tool result. Only text content is produced here.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent wraps s as the single content item of a tool result.
func TextContent(s string) []Content {
	return []Content{{Type: "text", Text: s}}
}

// CallResult is the tools/call response payload. IsError marks a tool-level
// failure whose detail lives in the content, as opposed to a protocol-level
// RPCError.
type CallResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Tool is an operation exposed through tools/list and tools/call.
//
// Call receives the raw arguments object from the request. Returning an
// *RPCError rejects the call at the protocol level; returning a CallResult
// with IsError reports a failure that is itself the tool's answer.
type Tool interface {
	Describe() ToolDescriptor
	Call(ctx context.Context, args json.RawMessage) (CallResult, error)
}
