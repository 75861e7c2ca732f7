package mcp

import (
	"context"
	"log/slog"
)

func logRequest(ctx context.Context, logger *slog.Logger, tool, correlationID string) {
	logger.InfoContext(ctx, "mcp_request",
		slog.String("tool_name", tool),
		slog.String("correlation_id", correlationID),
	)
}

func logSuccess(ctx context.Context, logger *slog.Logger, tool, correlationID string, latencyMS int64) {
	logger.InfoContext(ctx, "mcp_success",
		slog.String("tool_name", tool),
		slog.String("correlation_id", correlationID),
		slog.Int64("latency_ms", latencyMS),
	)
}

func logError(ctx context.Context, logger *slog.Logger, tool, correlationID string, rpcErr *RPCError, latencyMS int64) {
	logger.ErrorContext(ctx, "mcp_error",
		slog.String("tool_name", tool),
		slog.String("correlation_id", correlationID),
		slog.Int("error_code", rpcErr.Code),
		slog.String("error_message", rpcErr.Message),
		slog.Int64("latency_ms", latencyMS),
	)
}
