package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

// AccountService is the account view the handler needs.
type AccountService interface {
	Snapshot(ctx context.Context, address string) (domain.AccountSnapshot, error)
	Positions(ctx context.Context, address string) (domain.Positions, error)
	Analyze(ctx context.Context, address string) (*domain.LiquidationOpportunity, error)
}

// AccountHandler serves per-account endpoints.
type AccountHandler struct {
	accounts AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger.With(slog.String("handler", "accounts")),
	}
}

// GetAccount returns the account snapshot.
// GET /api/accounts/{address}
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !domain.IsValidAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	snap, err := h.accounts.Snapshot(r.Context(), address)
	if err != nil {
		writeServiceError(w, r, h.logger, "snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// GetPositions returns per-reserve collateral and debt.
// GET /api/accounts/{address}/positions
func (h *AccountHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !domain.IsValidAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	positions, err := h.accounts.Positions(r.Context(), address)
	if err != nil {
		writeServiceError(w, r, h.logger, "positions", err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

type opportunityResponse struct {
	Address     string                         `json:"address"`
	Healthy     bool                           `json:"healthy"`
	Opportunity *domain.LiquidationOpportunity `json:"opportunity"`
}

// GetOpportunity returns the liquidation analysis. A healthy account yields
// a null opportunity.
// GET /api/accounts/{address}/opportunity
func (h *AccountHandler) GetOpportunity(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if !domain.IsValidAddress(address) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	opp, err := h.accounts.Analyze(r.Context(), address)
	if err != nil {
		writeServiceError(w, r, h.logger, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, opportunityResponse{
		Address:     address,
		Healthy:     opp == nil,
		Opportunity: opp,
	})
}
