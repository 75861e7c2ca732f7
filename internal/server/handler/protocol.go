package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// ProtocolService reports deployment status.
type ProtocolService interface {
	ProtocolStatus(ctx context.Context) (domain.ProtocolStatus, error)
}

// StatusHandler serves protocol status and the process run mode.
type StatusHandler struct {
	protocol ProtocolService
	mode     string
	logger   *slog.Logger
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(protocol ProtocolService, mode string, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		protocol: protocol,
		mode:     mode,
		logger:   logger.With(slog.String("handler", "status")),
	}
}

type statusResponse struct {
	domain.ProtocolStatus
	Mode string `json:"mode"`
}

// GetStatus returns the protocol status.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.protocol.ProtocolStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "protocol status", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{ProtocolStatus: status, Mode: h.mode})
}
