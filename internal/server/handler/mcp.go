package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/liqscope/internal/mcp"
	"github.com/alanyoungcy/liqscope/internal/server/middleware"
)

// MCPHandler serves JSON-RPC tool calls over HTTP.
type MCPHandler struct {
	server *mcp.Server
	logger *slog.Logger
}

// NewMCPHandler creates an MCPHandler.
func NewMCPHandler(server *mcp.Server, logger *slog.Logger) *MCPHandler {
	return &MCPHandler{
		server: server,
		logger: logger.With(slog.String("handler", "mcp")),
	}
}

// Invoke handles one JSON-RPC request. Notifications are answered with 202
// and no body.
// POST /mcp
func (h *MCPHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, mcp.NewErrorResponse(nil, &mcp.RPCError{
			Code:    mcp.InvalidRequest,
			Message: "Request body too large",
		}))
		return
	}

	ctx := mcp.WithCorrelationID(r.Context(), middleware.GetRequestID(r.Context()))
	resp := h.server.Handle(ctx, body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, mcp.HTTPStatusFromError(resp.Error), resp)
}
