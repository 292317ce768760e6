package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// ConnState tracks what one logical connection has done so far. The stdio
// transport holds a single ConnState for the life of the process; the HTTP
// transport holds one per session.
type ConnState struct {
	initialized  atomic.Bool
	acknowledged atomic.Bool
}

// Initialized reports whether the connection completed an initialize request.
func (s *ConnState) Initialized() bool {
	return s.initialized.Load()
}

// Acknowledged reports whether the client followed up with
// notifications/initialized. Recorded for logs; tool access only requires
// the initialize request itself.
func (s *ConnState) Acknowledged() bool {
	return s.acknowledged.Load()
}

// Dispatcher routes requests to method handlers and tools. It is safe for
// concurrent use; all connection-specific state lives in ConnState.
type Dispatcher struct {
	info  Info
	tools map[string]Tool
	order []string
	log   *slog.Logger
}

// NewDispatcher creates a Dispatcher serving the given tools. Tool order is
// preserved in tools/list results. A nil logger falls back to slog.Default().
func NewDispatcher(info Info, log *slog.Logger, tools ...Tool) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	d := &Dispatcher{
		info:  info,
		tools: make(map[string]Tool, len(tools)),
		log:   log,
	}

	for _, tool := range tools {
		name := tool.Describe().Name
		if _, exists := d.tools[name]; exists {
			d.log.Warn("duplicate tool registration ignored", "tool", name)
			continue
		}
		d.tools[name] = tool
		d.order = append(d.order, name)
	}

	return d
}

// Dispatch handles one request and returns the response to send, or nil for
// notifications. A panic inside a handler is converted into an internal
// error response; one bad call never takes the process down.
func (d *Dispatcher) Dispatch(ctx context.Context, state *ConnState, req Request) (resp *Response) {
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error("panic handling request", "method", req.Method, "panic", rec, "stack", string(debug.Stack()))
			if !req.IsNotification() {
				resp = errorResponse(req.ID, &RPCError{Code: CodeInternal, Message: "internal error"})
			} else {
				resp = nil
			}
		}
	}()

	if req.JSONRPC != jsonRPCVersion {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, &RPCError{Code: CodeInvalidRequest, Message: "jsonrpc version must be 2.0"})
	}

	switch req.Method {
	case "initialize":
		return d.handleInitialize(state, req)

	case "notifications/initialized":
		state.acknowledged.Store(true)
		d.log.Debug("client acknowledged initialization")
		return nil

	case "ping":
		return resultResponse(req.ID, struct{}{})

	case "tools/list":
		if resp := requireInitialized(state, req); resp != nil {
			return resp
		}
		return d.handleListTools(req)

	case "tools/call":
		if resp := requireInitialized(state, req); resp != nil {
			return resp
		}
		return d.handleCallTool(ctx, req)

	default:
		if req.IsNotification() {
			d.log.Debug("ignoring unknown notification", "method", req.Method)
			return nil
		}
		return errorResponse(req.ID, &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)})
	}
}

func requireInitialized(state *ConnState, req Request) *Response {
	if state.Initialized() {
		return nil
	}
	if req.IsNotification() {
		return nil
	}

	return errorResponse(req.ID, &RPCError{Code: CodeNotInitialized, Message: "server not initialized"})
}

func (d *Dispatcher) handleInitialize(state *ConnState, req Request) *Response {
	var params InitializeParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, &RPCError{Code: CodeInvalidParams, Message: "parsing initialize params: " + err.Error()})
		}
	}

	// Echo a version we support, otherwise answer with our own and let the
	// client decide whether to proceed.
	version := ProtocolVersion
	if params.ProtocolVersion == ProtocolVersion {
		version = params.ProtocolVersion
	}

	state.initialized.Store(true)
	d.log.Info("client initialized",
		"client", params.ClientInfo.Name,
		"clientVersion", params.ClientInfo.Version,
		"protocolVersion", version)

	return resultResponse(req.ID, InitializeResult{
		ProtocolVersion: version,
		Capabilities:    Capabilities{Tools: ToolsCapability{ListChanged: false}},
		ServerInfo:      d.info,
	})
}

func (d *Dispatcher) handleListTools(req Request) *Response {
	descriptors := make([]ToolDescriptor, 0, len(d.order))
	for _, name := range d.order {
		descriptors = append(descriptors, d.tools[name].Describe())
	}

	return resultResponse(req.ID, ListToolsResult{Tools: descriptors})
}

func (d *Dispatcher) handleCallTool(ctx context.Context, req Request) *Response {
	var params CallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, &RPCError{Code: CodeInvalidParams, Message: "parsing call params: " + err.Error()})
	}

	tool, ok := d.tools[params.Name]
	if !ok {
		return errorResponse(req.ID, &RPCError{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", params.Name)})
	}

	result, err := tool.Call(ctx, params.Arguments)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return errorResponse(req.ID, rpcErr)
		}

		// Anything else is logged in full and obscured on the wire.
		d.log.Error("tool call failed", "tool", params.Name, "error", err)
		return errorResponse(req.ID, &RPCError{Code: CodeInternal, Message: "internal error"})
	}

	return resultResponse(req.ID, result)
}
