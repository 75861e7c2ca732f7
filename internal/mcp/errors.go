package mcp

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// FormatError maps an error raised while serving a tool call to a JSON-RPC
// error. Input problems become InvalidParams; everything else is reported as
// a failed tool execution.
func FormatError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return &RPCError{
			Code:    InvalidParams,
			Message: fmt.Sprintf("Invalid params: %s", ve.Message),
			Data: map[string]any{
				"field":   ve.Field,
				"message": ve.Message,
			},
		}
	}

	if errors.Is(err, domain.ErrInvalidAddress) {
		return &RPCError{
			Code:    InvalidParams,
			Message: "Invalid Ethereum address format",
			Data:    err.Error(),
		}
	}

	return &RPCError{
		Code:    InternalError,
		Message: fmt.Sprintf("Tool execution failed: %s", err.Error()),
	}
}

// HTTPStatusFromError maps a JSON-RPC error to the status of the HTTP
// response carrying it.
func HTTPStatusFromError(rpcErr *RPCError) int {
	if rpcErr == nil {
		return http.StatusOK
	}

	switch rpcErr.Code {
	case ParseError, InvalidRequest, InvalidParams:
		return http.StatusBadRequest
	case MethodNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
