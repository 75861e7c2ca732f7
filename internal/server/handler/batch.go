package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/samber/lo"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// MaxBatchAddresses bounds one batch request.
const MaxBatchAddresses = 20

// BatchService analyzes several accounts at once.
type BatchService interface {
	AnalyzeBatch(ctx context.Context, addresses []string) []domain.BatchResult
}

// BatchHandler serves the batch analysis endpoint.
type BatchHandler struct {
	batch  BatchService
	logger *slog.Logger
}

// NewBatchHandler creates a BatchHandler.
func NewBatchHandler(batch BatchService, logger *slog.Logger) *BatchHandler {
	return &BatchHandler{
		batch:  batch,
		logger: logger.With(slog.String("handler", "batch")),
	}
}

type batchRequest struct {
	Addresses []string `json:"addresses"`
}

type batchResponse struct {
	Results []domain.BatchResult `json:"results"`
}

// AnalyzeBatch analyzes up to MaxBatchAddresses accounts. Every address is
// validated before any is analyzed.
// POST /api/batch
func (h *BatchHandler) AnalyzeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Addresses) == 0 {
		writeError(w, http.StatusBadRequest, "addresses must be a non-empty array")
		return
	}
	if len(req.Addresses) > MaxBatchAddresses {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d addresses per request", MaxBatchAddresses))
		return
	}
	invalid := lo.Reject(req.Addresses, func(a string, _ int) bool {
		return domain.IsValidAddress(a)
	})
	if len(invalid) > 0 {
		writeError(w, http.StatusBadRequest, "invalid addresses: "+strings.Join(invalid, ", "))
		return
	}

	results := h.batch.AnalyzeBatch(r.Context(), req.Addresses)
	h.logger.DebugContext(r.Context(), "batch analyzed",
		slog.Int("addresses", len(results)),
	)
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}
