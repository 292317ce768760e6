package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// maxMessageSize caps a single newline-delimited message. Requests are
// small; anything beyond this is a protocol violation, not a big payload.
const maxMessageSize = 10 << 20

// Stdio serves the protocol over newline-delimited JSON-RPC messages on a
// reader/writer pair, one message per line. It drives a single logical
// connection for the life of the process.
type Stdio struct {
	dispatcher *Dispatcher
	log        *slog.Logger

	in io.Reader

	mu  sync.Mutex
	out io.Writer

	state ConnState
}

// NewStdio creates a Stdio transport reading from in and writing to out.
// A nil logger falls back to slog.Default().
func NewStdio(dispatcher *Dispatcher, in io.Reader, out io.Writer, log *slog.Logger) *Stdio {
	if log == nil {
		log = slog.Default()
	}

	return &Stdio{
		dispatcher: dispatcher,
		log:        log,
		in:         in,
		out:        out,
	}
}

// Serve reads messages until in is exhausted or ctx is cancelled between
// messages. Tool calls run concurrently; Serve waits for in-flight calls
// to finish before returning. A closed stdin is the normal way a client
// ends the session, so EOF returns nil.
func (s *Stdio) Serve(ctx context.Context) error {
	s.log.Info("stdio session started")
	defer s.log.Info("stdio session ended")

	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 64<<10), maxMessageSize)

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		req, errResp := decodeRequest(line)
		if errResp != nil {
			s.write(errResp)
			continue
		}

		if req.Method == "tools/call" && !req.IsNotification() {
			request := *req
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				s.write(s.dispatcher.Dispatch(ctx, &s.state, request))
			}()
			continue
		}

		s.write(s.dispatcher.Dispatch(ctx, &s.state, *req))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

// decodeRequest parses one message, distinguishing malformed JSON from
// well-formed JSON that is not a request object.
func decodeRequest(line []byte) (*Request, *Response) {
	if !json.Valid(line) {
		return nil, errorResponse(nil, &RPCError{Code: CodeParse, Message: "parse error"})
	}

	if line[0] == '[' {
		return nil, errorResponse(nil, &RPCError{Code: CodeInvalidRequest, Message: "batch requests are not supported"})
	}

	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, errorResponse(nil, &RPCError{Code: CodeInvalidRequest, Message: "invalid request"})
	}

	return &req, nil
}

// write sends one response line. Nil responses mean the message was a
// notification and nothing goes on the wire.
func (s *Stdio) write(resp *Response) {
	if resp == nil {
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshaling response", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(append(data, '\n')); err != nil {
		s.log.Error("writing response", "error", err)
	}
}
