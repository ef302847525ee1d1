package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/pario-ai/vndb-mcp/pkg/logging"
	"github.com/pario-ai/vndb-mcp/pkg/notes"
)

// ServerName is reported in the initialize handshake.
const ServerName = "vndb-mcp"

const (
	protocolVersion = "2024-11-05"
	noteURIPrefix   = "note://internal/"
	promptSummarize = "summarize-notes"
)

// Server is a minimal MCP server that communicates over stdio using JSON-RPC 2.0.
// Each request is handled on its own goroutine; writes to the output are
// serialized.
type Server struct {
	tools   *Dispatcher
	notes   notes.Store
	version string
	log     *slog.Logger

	mu sync.Mutex
	w  io.Writer
}

// New creates a new MCP Server and registers it as the dispatcher's notifier.
func New(d *Dispatcher, store notes.Store, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		tools:   d,
		notes:   store,
		version: version,
		log:     log,
	}
	d.SetNotifier(s)
	return s
}

// Run reads JSON-RPC requests from r line-by-line and writes responses to w.
// It returns nil once r is exhausted and every in-flight request has been
// answered, or ctx.Err() after ctx is cancelled and in-flight requests have
// stopped.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				wg.Wait()
				select {
				case err := <-scanErr:
					return err
				default:
					return ctx.Err()
				}
			}
			if len(strings.TrimSpace(string(line))) == 0 {
				continue
			}

			var req Request
			if err := json.Unmarshal(line, &req); err != nil {
				s.writeMessage(Response{
					JSONRPC: "2.0",
					Error:   &RPCError{Code: CodeParseError, Message: "parse error"},
				})
				continue
			}

			wg.Add(1)
			go func() {
				defer wg.Done()
				reqCtx := logging.WithRequestID(ctx, logging.NewRequestID())
				resp := s.dispatch(reqCtx, &req)
				if resp == nil {
					// notification, no response
					return
				}
				s.writeMessage(*resp)
			}()
		}
	}
}

// NotifyResourceListChanged tells the client that the note resources changed.
func (s *Server) NotifyResourceListChanged() {
	s.writeMessage(Notification{
		JSONRPC: "2.0",
		Method:  "notifications/resources/list_changed",
	})
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return result(req, map[string]any{})
	case "tools/list":
		return result(req, ToolsListResult{Tools: s.tools.Tools()})
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "resources/list":
		return s.handleResourcesList(req)
	case "resources/read":
		return s.handleResourcesRead(req)
	case "prompts/list":
		return s.handlePromptsList(req)
	case "prompts/get":
		return s.handlePromptsGet(req)
	}
	if len(req.ID) == 0 || strings.HasPrefix(req.Method, "notifications/") {
		return nil
	}
	return failure(req, CodeMethodNotFound, fmt.Sprintf("unknown method: %s", req.Method))
}

func (s *Server) handleInitialize(req *Request) *Response {
	return result(req, InitializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      ServerInfo{Name: ServerName, Version: s.version},
		Capabilities: map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{"listChanged": true},
			"prompts":   map[string]any{},
		},
	})
}

func (s *Server) handleToolsCall(ctx context.Context, req *Request) *Response {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req, CodeInvalidParams, "invalid params")
	}

	var args map[string]any
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return failure(req, CodeInvalidParams, "arguments must be an object")
		}
	}

	text, err := s.tools.Dispatch(ctx, ToolRequest{Name: params.Name, Arguments: args})
	switch {
	case errors.Is(err, ErrUnknownTool):
		return failure(req, CodeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
	case errors.Is(err, ErrMissingArguments):
		return failure(req, CodeInvalidParams, err.Error())
	case err != nil:
		logging.FromContext(ctx, s.log).Error("tool call failed", "tool", params.Name, "error", err)
		return failure(req, CodeInternalError, "internal error")
	}

	return result(req, ToolCallResult{
		Content: []ContentBlock{{Type: "text", Text: text}},
	})
}

func (s *Server) handleResourcesList(req *Request) *Response {
	list, err := s.notes.List()
	if err != nil {
		s.log.Error("list notes", "error", err)
		return failure(req, CodeInternalError, "internal error")
	}
	resources := make([]Resource, 0, len(list))
	for _, n := range list {
		resources = append(resources, Resource{
			URI:         noteURIPrefix + n.Name,
			Name:        "Note: " + n.Name,
			Description: "A simple note named " + n.Name,
			MimeType:    "text/plain",
		})
	}
	return result(req, ResourcesListResult{Resources: resources})
}

func (s *Server) handleResourcesRead(req *Request) *Response {
	var params ResourceReadParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req, CodeInvalidParams, "invalid params")
	}
	name, ok := strings.CutPrefix(params.URI, noteURIPrefix)
	if !ok {
		scheme, _, _ := strings.Cut(params.URI, ":")
		return failure(req, CodeInvalidParams, fmt.Sprintf("unsupported URI scheme: %s", scheme))
	}
	content, found, err := s.notes.Get(name)
	if err != nil {
		s.log.Error("read note", "name", name, "error", err)
		return failure(req, CodeInternalError, "internal error")
	}
	if !found {
		return failure(req, CodeInvalidParams, fmt.Sprintf("note not found: %s", name))
	}
	return result(req, ResourceReadResult{Contents: []ResourceContents{{
		URI:      params.URI,
		MimeType: "text/plain",
		Text:     content,
	}}})
}

func (s *Server) handlePromptsList(req *Request) *Response {
	return result(req, PromptsListResult{Prompts: []Prompt{{
		Name:        promptSummarize,
		Description: "Creates a summary of all notes",
		Arguments: []PromptArgument{{
			Name:        "style",
			Description: "Style of the summary (brief/detailed)",
		}},
	}}})
}

func (s *Server) handlePromptsGet(req *Request) *Response {
	var params PromptGetParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return failure(req, CodeInvalidParams, "invalid params")
	}
	if params.Name != promptSummarize {
		return failure(req, CodeInvalidParams, fmt.Sprintf("unknown prompt: %s", params.Name))
	}
	list, err := s.notes.List()
	if err != nil {
		s.log.Error("list notes", "error", err)
		return failure(req, CodeInternalError, "internal error")
	}
	return result(req, PromptGetResult{
		Description: "Summarize the current notes",
		Messages: []PromptMessage{{
			Role:    "user",
			Content: ContentBlock{Type: "text", Text: formatSummaryPrompt(params.Arguments["style"], list)},
		}},
	})
}

func result(req *Request, v any) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: v}
}

func failure(req *Request, code int, msg string) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Error:   &RPCError{Code: code, Message: msg},
	}
}

func (s *Server) writeMessage(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("mcp: marshal error", "error", err)
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	if _, err := s.w.Write(data); err != nil {
		s.log.Error("mcp: write error", "error", err)
	}
}
