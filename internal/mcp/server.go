// Package mcp serves the analysis engine as Model Context Protocol tools over
// JSON-RPC 2.0.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultToolTimeout bounds a single tool call.
const DefaultToolTimeout = 60 * time.Second

type correlationKey struct{}

// WithCorrelationID attaches an ID that tool call logs are tagged with.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Options configure a Server.
type Options struct {
	Name        string
	Version     string
	ToolTimeout time.Duration
	Observer    Observer
	Logger      *slog.Logger
}

// Server dispatches JSON-RPC requests to the tool invoker.
type Server struct {
	invoker *ToolInvoker
	info    ServerInfo
	timeout time.Duration
	logger  *slog.Logger
}

// NewServer builds a Server over engine.
func NewServer(engine Engine, opts Options) (*Server, error) {
	invoker, err := NewToolInvoker(NewToolExecutor(engine), opts.Observer)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = "liqscope"
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.ToolTimeout <= 0 {
		opts.ToolTimeout = DefaultToolTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		invoker: invoker,
		info:    ServerInfo{Name: opts.Name, Version: opts.Version},
		timeout: opts.ToolTimeout,
		logger:  logger.With(slog.String("component", "mcp")),
	}, nil
}

// Handle processes one encoded request. It returns nil for notifications.
func (s *Server) Handle(ctx context.Context, data []byte) *Response {
	req, err := ParseRequest(data)
	if err != nil {
		var id json.RawMessage
		if req != nil {
			id = req.ID
		}
		return NewErrorResponse(id, FormatError(err))
	}
	return s.HandleRequest(ctx, req)
}

// HandleRequest processes a decoded request. It returns nil for
// notifications.
func (s *Server) HandleRequest(ctx context.Context, req *Request) *Response {
	result, rpcErr := s.dispatch(ctx, req)
	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return NewErrorResponse(req.ID, rpcErr)
	}
	return NewResultResponse(req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      s.info,
		}, nil
	case "ping", "notifications/initialized", "notifications/cancelled":
		return struct{}{}, nil
	case "tools/list":
		return ListToolsResult{Tools: s.invoker.Tools()}, nil
	case "tools/call":
		return s.callTool(ctx, req.Params)
	default:
		return nil, &RPCError{
			Code:    MethodNotFound,
			Message: "Method not found",
			Data:    req.Method,
		}
	}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	p, err := ParseCallToolParams(params)
	if err != nil {
		return nil, FormatError(err)
	}

	start := time.Now()
	cid := correlationID(ctx)
	logRequest(ctx, s.logger, p.Name, cid)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.invoker.InvokeTool(ctx, p.Name, p.Arguments)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		rpcErr := FormatError(err)
		logError(ctx, s.logger, p.Name, cid, rpcErr, latency)
		return nil, rpcErr
	}
	logSuccess(ctx, s.logger, p.Name, cid, latency)
	return result, nil
}
