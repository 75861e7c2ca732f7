package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// PriceService reads oracle prices.
type PriceService interface {
	AssetPrice(ctx context.Context, asset string) (string, error)
}

// PriceHandler serves oracle price lookups.
type PriceHandler struct {
	prices PriceService
	logger *slog.Logger
}

// NewPriceHandler creates a PriceHandler.
func NewPriceHandler(prices PriceService, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{
		prices: prices,
		logger: logger.With(slog.String("handler", "prices")),
	}
}

// GetPrice returns the oracle price of one asset in USD.
// GET /api/prices/{asset}
func (h *PriceHandler) GetPrice(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	if !domain.IsValidAddress(asset) {
		writeError(w, http.StatusBadRequest, "invalid asset address")
		return
	}

	price, err := h.prices.AssetPrice(r.Context(), asset)
	if err != nil {
		writeServiceError(w, r, h.logger, "asset price", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"assetAddress": asset,
		"priceUSD":     price,
	})
}
