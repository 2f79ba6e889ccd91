package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id,omitempty"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

const protocolVersion = "2024-11-05"

// Transport speaks newline-delimited JSON-RPC 2.0 over a reader/writer pair,
// normally stdio. Tool calls run concurrently, one goroutine per request;
// only response writes are serialized. All tool semantics live in Server and
// below — this layer frames, decodes, and classifies nothing else.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer
	server *Server
	log    zerolog.Logger

	mu sync.Mutex // guards writer
	wg sync.WaitGroup
}

func NewTransport(r io.Reader, w io.Writer, server *Server, log zerolog.Logger) *Transport {
	return &Transport{
		reader: bufio.NewReader(r),
		writer: w,
		server: server,
		log:    log,
	}
}

// Serve processes requests until the input stream closes or ctx is
// cancelled. In-flight tool calls are drained before returning.
func (t *Transport) Serve(ctx context.Context) error {
	defer t.wg.Wait()

	for {
		line, err := t.reader.ReadBytes('\n')
		if len(line) > 0 {
			t.handleLine(ctx, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.log.Info().Msg("client disconnected")
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (t *Transport) handleLine(ctx context.Context, line []byte) {
	if len(strings.TrimSpace(string(line))) == 0 {
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(line, &req); err != nil {
		t.sendError(nil, ParseError, "parse error", err.Error())
		return
	}
	if req.JSONRPC != "2.0" {
		t.sendError(req.ID, InvalidRequest, "invalid request: JSON-RPC 2.0 required", nil)
		return
	}

	switch req.Method {
	case "initialize":
		t.sendResult(req.ID, t.initializeResult())
	case "notifications/initialized", "initialized":
		// Notification, no response.
	case "ping":
		t.sendResult(req.ID, map[string]any{})
	case "tools/list":
		t.sendResult(req.ID, map[string]any{"tools": t.server.Tools()})
	case "tools/call":
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			defer t.recoverPanic(req.ID)
			t.handleToolCall(ctx, req)
		}()
	case "shutdown":
		t.sendResult(req.ID, map[string]any{})
	default:
		if req.ID == nil {
			return // unknown notification, ignore
		}
		t.sendError(req.ID, MethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}
}

func (t *Transport) initializeResult() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		"serverInfo": map[string]any{
			"name":    "taskwarrior-mcp",
			"version": "1.0.0",
		},
		"instructions": ServerInstructions,
	}
}

type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (t *Transport) handleToolCall(ctx context.Context, req JSONRPCRequest) {
	var p toolCallParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		t.sendError(req.ID, InvalidParams, "invalid tools/call params", err.Error())
		return
	}

	text, err := t.server.HandleTool(ctx, p.Name, p.Arguments)
	if err != nil {
		// Tool-level failures are reported inside the result so the model
		// can read the diagnostic and correct its next call.
		t.sendResult(req.ID, toolResult(err.Error(), true))
		return
	}
	t.sendResult(req.ID, toolResult(text, false))
}

func toolResult(text string, isError bool) map[string]any {
	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"isError": isError,
	}
}

func (t *Transport) recoverPanic(id any) {
	if r := recover(); r != nil {
		t.log.Error().Interface("panic", r).Msg("recovered panic in tool call")
		t.sendError(id, InternalError, "internal server error", nil)
	}
}

func (t *Transport) sendResult(id, result any) {
	t.send(&JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (t *Transport) sendError(id any, code int, message string, data any) {
	t.send(&JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{Code: code, Message: message, Data: data}})
}

func (t *Transport) send(resp *JSONRPCResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		t.log.Error().Err(err).Msg("marshal response")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.writer.Write(append(data, '\n')); err != nil {
		t.log.Error().Err(err).Msg("write response")
	}
}
