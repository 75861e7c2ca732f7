package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// ReserveService lists reserves and their market statistics.
type ReserveService interface {
	ListReserves(ctx context.Context) ([]domain.ReserveDescriptor, error)
	ReserveStats(ctx context.Context, asset string) (domain.ReserveStats, error)
}

// ReserveHandler serves reserve endpoints.
type ReserveHandler struct {
	reserves ReserveService
	logger   *slog.Logger
}

// NewReserveHandler creates a ReserveHandler.
func NewReserveHandler(reserves ReserveService, logger *slog.Logger) *ReserveHandler {
	return &ReserveHandler{
		reserves: reserves,
		logger:   logger.With(slog.String("handler", "reserves")),
	}
}

type listReservesResponse struct {
	Reserves []domain.ReserveDescriptor `json:"reserves"`
	Total    int                        `json:"total"`
}

// ListReserves returns every reserve with its risk parameters.
// GET /api/reserves
func (h *ReserveHandler) ListReserves(w http.ResponseWriter, r *http.Request) {
	reserves, err := h.reserves.ListReserves(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, "list reserves", err)
		return
	}
	writeJSON(w, http.StatusOK, listReservesResponse{Reserves: reserves, Total: len(reserves)})
}

// GetStats returns supply and borrow statistics of one reserve.
// GET /api/reserves/{asset}/stats
func (h *ReserveHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	if !domain.IsValidAddress(asset) {
		writeError(w, http.StatusBadRequest, "invalid asset address")
		return
	}

	stats, err := h.reserves.ReserveStats(r.Context(), asset)
	if err != nil {
		writeServiceError(w, r, h.logger, "reserve stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
