// Package tools holds the operations the server exposes to protocol
// clients. Each tool pairs a JSON schema descriptor with the code that
// executes a call.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"urlsave/download"
	"urlsave/mcp"
	"urlsave/pathpolicy"
)

// SaveName is the wire name of the URL-saving tool.
const SaveName = "saveUrlContent"

const saveSchema = `{
  "type": "object",
  "properties": {
    "url": {
      "type": "string",
      "description": "The URL to download content from"
    },
    "filePath": {
      "type": "string",
      "description": "The file path to save the content to. Relative paths are resolved against the base directory."
    }
  },
  "required": ["url", "filePath"]
}`

// SaveRequest carries the arguments of one saveUrlContent call.
type SaveRequest struct {
	URL      string `json:"url" validate:"required"`
	FilePath string `json:"filePath" validate:"required"`
}

// SaveURLContent downloads the content at a URL to a file under the
// resolved base directory. It implements mcp.Tool.
type SaveURLContent struct {
	policy     *pathpolicy.Policy
	downloader *download.Downloader
	log        *slog.Logger
	saveOpts   []download.Option
}

// NewSaveURLContent wires the tool to its path policy and downloader.
// saveOpts apply to every transfer the tool runs. A nil logger falls back
// to slog.Default().
func NewSaveURLContent(policy *pathpolicy.Policy, downloader *download.Downloader, log *slog.Logger, saveOpts ...download.Option) *SaveURLContent {
	if log == nil {
		log = slog.Default()
	}

	return &SaveURLContent{
		policy:     policy,
		downloader: downloader,
		log:        log,
		saveOpts:   saveOpts,
	}
}

func (t *SaveURLContent) Describe() mcp.ToolDescriptor {
	return mcp.ToolDescriptor{
		Name:        SaveName,
		Description: "Download content from a URL and save it to a local file. Relative file paths are resolved against the configured base directory.",
		InputSchema: json.RawMessage(saveSchema),
	}
}

// Call validates the arguments, authorizes the destination, and runs the
// transfer. The outcome, success or failure, travels as the result's text
// content; only malformed arguments are rejected at the protocol level.
func (t *SaveURLContent) Call(ctx context.Context, args json.RawMessage) (mcp.CallResult, error) {
	var req SaveRequest
	if len(args) > 0 {
		if err := json.Unmarshal(args, &req); err != nil {
			return mcp.CallResult{}, &mcp.RPCError{Code: mcp.CodeInvalidParams, Message: "parsing arguments: " + err.Error()}
		}
	}

	if err := Validate(req); err != nil {
		var fields FieldErrors
		if errors.As(err, &fields) {
			return mcp.CallResult{}, &mcp.RPCError{Code: mcp.CodeInvalidParams, Message: "invalid arguments", Data: fields}
		}

		return mcp.CallResult{}, &mcp.RPCError{Code: mcp.CodeInvalidParams, Message: err.Error()}
	}

	outcome := t.save(ctx, req)

	payload, err := outcome.Payload()
	if err != nil {
		return mcp.CallResult{}, fmt.Errorf("rendering outcome: %w", err)
	}

	return mcp.CallResult{
		Content: mcp.TextContent(payload),
		IsError: !outcome.OK,
	}, nil
}

func (t *SaveURLContent) save(ctx context.Context, req SaveRequest) download.Outcome {
	dest := t.policy.Resolve(req.FilePath)
	if !dest.Permitted {
		t.log.Warn("rejected write outside base directory", "path", req.FilePath, "base", dest.BaseDir)
		reason := fmt.Sprintf("path %q is outside the base directory %q", req.FilePath, dest.BaseDir)
		return download.Failure(download.KindForbidden, reason)
	}

	outcome := t.downloader.Save(ctx, req.URL, dest.AbsPath, t.saveOpts...)
	if !outcome.OK {
		t.log.Warn("transfer failed", "kind", outcome.Kind, "error", outcome.Err, "url", req.URL)
	}

	return outcome
}
